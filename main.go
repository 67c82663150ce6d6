package main

import (
	"context"
	"embed"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/windows"
	"github.com/wailsapp/wails/v2/pkg/runtime"

	"KantinPos/app/config"
	"KantinPos/app/database"
	"KantinPos/app/services"
	"KantinPos/app/websocket"
)

//go:embed all:frontend/dist
var assets embed.FS

// App struct
type App struct {
	ctx                 context.Context
	LoggerService       *services.LoggerService
	SettingsService     *services.SettingsService
	ProductService      *services.ProductService
	SalesService        *services.SalesService
	ReportsService      *services.ReportsService
	DashboardService    *services.DashboardService
	EmployeeService     *services.EmployeeService
	PrinterService      *services.PrinterService
	WSServer            *websocket.Server
	WSManagementService *services.WebSocketManagementService
	syncWorker          *services.SyncWorker
	isFirstRun          bool
}

// NewApp creates a new App application struct
func NewApp() *App {
	return &App{}
}

// startup is called when the app starts. The context is saved
// so we can call the runtime methods
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	runtime.WindowMaximise(a.ctx)

	// Forward printer events to the frontend and the print bridge.
	if a.PrinterService != nil {
		a.PrinterService.SetEventSink(func(name string, data ...interface{}) {
			runtime.EventsEmit(a.ctx, name, data...)
			if a.WSServer != nil {
				status := a.PrinterService.Status()
				a.WSServer.SendPrinterStatus(status.Connected, status.Name)
			}
		})
	}

	if a.isFirstRun {
		return
	}

	// Try to reattach the last used printer.
	go func() {
		defer a.LoggerService.RecoverPanic()
		if err := a.PrinterService.Reconnect(); err != nil {
			a.LoggerService.LogWarning("Printer reconnect failed", err.Error())
		}
	}()

	// Start the LAN print bridge for companion apps.
	wsPort := os.Getenv("WS_PORT")
	if wsPort == "" {
		wsPort = "8080"
	}
	a.LoggerService.LogInfo("Starting print bridge", "Port: "+wsPort)
	a.WSServer = websocket.NewServer(":" + wsPort)
	a.WSServer.SetPrintGateway(a.PrinterService)
	a.WSServer.SetDB(database.GetDB())
	if a.WSManagementService != nil {
		a.WSManagementService.SetServer(a.WSServer)
	}
	go func() {
		defer a.LoggerService.RecoverPanic()
		if err := a.WSServer.Start(); err != nil {
			a.LoggerService.LogError("Print bridge error", err)
		}
	}()

	// Start the offline transaction uploader.
	a.syncWorker = services.StartSyncWorker()
}

// domReady is called after front-end resources have been loaded
func (a *App) domReady(ctx context.Context) {
}

// beforeClose is called when the application is about to quit
func (a *App) beforeClose(ctx context.Context) (prevent bool) {
	a.LoggerService.LogInfo("Application closing")

	if a.syncWorker != nil {
		a.syncWorker.Stop()
	}

	if a.PrinterService != nil {
		if err := a.PrinterService.Disconnect(); err != nil {
			a.LoggerService.LogWarning("Printer disconnect failed", err.Error())
		}
	}

	if a.WSServer != nil {
		a.LoggerService.LogInfo("Stopping print bridge")
		a.WSServer.Stop()
	}

	if err := database.Close(); err != nil {
		a.LoggerService.LogError("Error closing database", err)
	}

	a.LoggerService.LogInfo("Application shutdown complete")
	return false
}

// shutdown is called at application termination
func (a *App) shutdown(ctx context.Context) {
}

// CompleteSetup finishes the first-run wizard: saves the default config,
// connects the database and brings up the remaining services.
func (a *App) CompleteSetup() error {
	cfg, err := config.CreateDefaultConfig()
	if err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}
	if err := database.InitializeWithConfig(cfg); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := config.MarkSetupComplete(); err != nil {
		return fmt.Errorf("failed to mark setup complete: %w", err)
	}

	a.initServices()
	a.isFirstRun = false
	return nil
}

// initServices builds the database-backed services
func (a *App) initServices() {
	a.SettingsService = services.NewSettingsService(a.LoggerService)
	a.PrinterService = services.NewPrinterService(a.SettingsService, a.LoggerService)
	a.ProductService = services.NewProductService()
	a.SalesService = services.NewSalesService(a.PrinterService, a.LoggerService)
	a.ReportsService = services.NewReportsService(a.PrinterService, a.LoggerService)
	a.DashboardService = services.NewDashboardService()
	a.EmployeeService = services.NewEmployeeService(a.LoggerService)
}

func main() {
	loggerService := services.NewLoggerService()
	if loggerService == nil {
		fmt.Println("CRITICAL: Logger service failed to initialize")
		os.Exit(1)
	}
	defer loggerService.Close()

	defer func() {
		if r := recover(); r != nil {
			loggerService.LogPanic(r)
			os.Exit(1)
		}
	}()

	loggerService.LogInfo("Application starting", "KantinPos")

	if err := godotenv.Load(".env"); err != nil {
		loggerService.LogWarning(".env file not found, will use config.json if available")
	}

	app := NewApp()
	app.LoggerService = loggerService

	exists, err := config.ConfigExists()
	if err != nil {
		loggerService.LogWarning("Could not check config", err.Error())
	}
	app.isFirstRun = !exists

	if !app.isFirstRun {
		cfg, err := config.LoadConfig()
		if err != nil {
			loggerService.LogError("Error loading config, setup wizard will be shown", err)
			app.isFirstRun = true
		} else if err := database.InitializeWithConfig(cfg); err != nil {
			loggerService.LogError("Failed to initialize database", err)
			app.isFirstRun = true
		}
	}

	// Services are always constructed so Wails can generate bindings;
	// database-backed calls fail cleanly until setup completes.
	app.initServices()
	app.WSManagementService = services.NewWebSocketManagementService(nil)

	if app.isFirstRun {
		loggerService.LogInfo("First run detected - setup wizard will be shown")
	}

	err = wails.Run(&options.App{
		Title:  "KantinPos",
		Width:  1280,
		Height: 832,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		BackgroundColour: &options.RGBA{R: 27, G: 38, B: 54, A: 1},
		OnStartup:        app.startup,
		OnDomReady:       app.domReady,
		OnBeforeClose:    app.beforeClose,
		OnShutdown:       app.shutdown,
		Bind: []interface{}{
			app,
			app.LoggerService,
			app.SettingsService,
			app.ProductService,
			app.SalesService,
			app.ReportsService,
			app.DashboardService,
			app.EmployeeService,
			app.PrinterService,
			app.WSManagementService,
		},
		Windows: &windows.Options{
			WebviewIsTransparent: false,
			WindowIsTranslucent:  false,
			DisableWindowIcon:    false,
		},
		Menu: nil,
	})

	if err != nil {
		loggerService.LogError("Wails application error", err)
		println("Error:", err.Error())
	}
}
