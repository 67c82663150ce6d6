package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"KantinPos/app/models"
	"KantinPos/app/printer"
)

const (
	// connectTimeout bounds printer connection attempts.
	connectTimeout = 15 * time.Second
	// printTimeout bounds one full document write.
	printTimeout = 30 * time.Second
	// printPause is the minimum gap between consecutive documents; budget
	// printers drop data when documents arrive back to back.
	printPause = 200 * time.Millisecond
)

// PrinterStatus is the printer link state exposed to the frontend.
type PrinterStatus struct {
	State     string `json:"state"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Connected bool   `json:"connected"`
}

// PrinterService owns the single printer session: transport selection,
// connection lifecycle, and serialized document printing. Receipt settings
// are read fresh for every document so edits apply without reconnecting.
type PrinterService struct {
	mu          sync.Mutex
	printing    bool
	transport   printer.Transport
	connType    string
	lastPrintAt time.Time

	settings *SettingsService
	logger   *LoggerService

	// events, when set, receives printer lifecycle notifications for the
	// frontend ("printer:connected", "printer:disconnected").
	events func(name string, data ...interface{})
}

// NewPrinterService creates a new printer service
func NewPrinterService(settings *SettingsService, logger *LoggerService) *PrinterService {
	return &PrinterService{
		settings: settings,
		logger:   logger,
	}
}

// SetEventSink wires frontend event emission.
func (s *PrinterService) SetEventSink(emit func(name string, data ...interface{})) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = emit
}

func (s *PrinterService) emit(name string, data ...interface{}) {
	s.mu.Lock()
	emit := s.events
	s.mu.Unlock()
	if emit != nil {
		emit(name, data...)
	}
}

// newTransport builds the transport for a connection type.
func (s *PrinterService) newTransport(connType string) (printer.Transport, error) {
	switch connType {
	case "bluetooth":
		ble := printer.NewBLETransport()
		ble.NameSink = func(name string) {
			if err := s.settings.SavePrinterName(name); err != nil {
				s.logger.LogWarning("Could not persist printer name", err.Error())
			}
		}
		ble.OnDisconnect = func() {
			s.logger.LogWarning("Printer dropped the connection")
			s.emit("printer:disconnected")
		}
		return ble, nil
	case "network":
		return printer.NewNetworkTransport(), nil
	case "serial":
		return printer.NewSerialTransport(), nil
	case "usb", "file":
		return printer.NewFileTransport(), nil
	}
	return nil, fmt.Errorf("unknown printer type %q", connType)
}

// ScanBluetoothPrinters discovers nearby BLE devices for the given duration
// and returns them deduplicated by address.
func (s *PrinterService) ScanBluetoothPrinters(timeoutSeconds int) ([]printer.Device, error) {
	if timeoutSeconds <= 0 {
		timeoutSeconds = 10
	}

	s.mu.Lock()
	scanner, ok := s.transport.(printer.Scanner)
	s.mu.Unlock()
	if !ok {
		// Throwaway transport just for discovery; release its bus when done.
		tmp := printer.NewBLETransport()
		defer tmp.Disconnect()
		scanner = tmp
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSeconds)*time.Second)
	defer cancel()

	var (
		devMu   sync.Mutex
		seen    = map[string]bool{}
		devices []printer.Device
	)
	err := scanner.Scan(ctx, func(d printer.Device) {
		devMu.Lock()
		defer devMu.Unlock()
		if seen[d.Address] {
			return
		}
		seen[d.Address] = true
		devices = append(devices, d)
	})
	if err != nil {
		return nil, err
	}
	return devices, nil
}

// Connect opens the printer link and persists the endpoint so it can be
// restored on the next launch.
func (s *PrinterService) Connect(connType, address string, port int) error {
	s.mu.Lock()
	if s.printing {
		s.mu.Unlock()
		return printer.ErrBusy
	}
	old := s.transport
	s.mu.Unlock()

	if old != nil {
		old.Disconnect()
	}

	transport, err := s.newTransport(connType)
	if err != nil {
		return err
	}

	endpoint := address
	if connType == "network" && port > 0 {
		endpoint = fmt.Sprintf("%s:%d", address, port)
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := transport.Connect(ctx, endpoint); err != nil {
		s.logger.LogError("Printer connection failed", err, endpoint)
		return err
	}

	s.mu.Lock()
	s.transport = transport
	s.connType = connType
	s.mu.Unlock()

	if err := s.settings.SavePrinterConnection(models.PrinterConnection{
		Type:    connType,
		Address: address,
		Name:    transport.DisplayName(),
		Port:    port,
	}); err != nil {
		s.logger.LogWarning("Could not persist printer connection", err.Error())
	}

	s.logger.LogInfo("Printer connected", transport.DisplayName())
	s.emit("printer:connected", transport.DisplayName())
	return nil
}

// Reconnect restores the persisted printer endpoint, if any.
func (s *PrinterService) Reconnect() error {
	conn := s.settings.GetPrinterConnection()
	if conn == nil {
		return printer.ErrNotConnected
	}
	return s.Connect(conn.Type, conn.Address, conn.Port)
}

// Disconnect closes the printer link.
func (s *PrinterService) Disconnect() error {
	s.mu.Lock()
	transport := s.transport
	s.mu.Unlock()
	if transport == nil {
		return nil
	}
	err := transport.Disconnect()
	s.emit("printer:disconnected")
	return err
}

// Status reports the current link state. The name falls back to the last
// persisted printer so the UI can label the reconnect action.
func (s *PrinterService) Status() PrinterStatus {
	s.mu.Lock()
	transport := s.transport
	connType := s.connType
	s.mu.Unlock()

	status := PrinterStatus{State: printer.StateIdle.String(), Type: connType}
	if transport != nil {
		state := transport.State()
		status.State = state.String()
		status.Name = transport.DisplayName()
		status.Connected = state == printer.StateConnected
	}
	if status.Name == "" {
		status.Name = s.settings.GetPrinterName()
	}
	return status
}

// PrintCashierReceipt prints the customer-facing receipt.
func (s *PrinterService) PrintCashierReceipt(data printer.ReceiptData) error {
	settings := s.settings.GetReceiptSettings()
	return s.print(printer.GenerateCashierReceipt(data, settings))
}

// PrintKitchenTicket prints the kitchen prep ticket.
func (s *PrinterService) PrintKitchenTicket(data printer.KitchenReceiptData) error {
	settings := s.settings.GetReceiptSettings()
	return s.print(printer.GenerateKitchenReceipt(data, settings))
}

// PrintTestPage prints the connectivity check page.
func (s *PrinterService) PrintTestPage() error {
	settings := s.settings.GetReceiptSettings()
	return s.print(printer.GenerateTestReceipt(settings, time.Now()))
}

// PrintDailyReport prints the end-of-day summary.
func (s *PrinterService) PrintDailyReport(data printer.DailyReportData) error {
	settings := s.settings.GetReceiptSettings()
	return s.print(printer.GenerateDailyReport(data, settings))
}

// PrintProductSalesReport prints the per-product sales report.
func (s *PrinterService) PrintProductSalesReport(data printer.ProductSalesReportData) error {
	settings := s.settings.GetReceiptSettings()
	return s.print(printer.GenerateProductSalesReport(data, settings))
}

// OpenCashDrawer pulses the drawer kick connector.
func (s *PrinterService) OpenCashDrawer() error {
	return s.print("\x1Bp\x00\x19\xFA")
}

// print pushes one document to the printer. Documents are strictly
// serialized; a concurrent call fails fast with ErrBusy instead of queueing
// so the cashier sees immediately that a print is in flight.
func (s *PrinterService) print(commands string) error {
	s.mu.Lock()
	if s.printing {
		s.mu.Unlock()
		return printer.ErrBusy
	}
	transport := s.transport
	if transport == nil {
		s.mu.Unlock()
		return printer.ErrNotConnected
	}
	s.printing = true
	pause := printPause - time.Since(s.lastPrintAt)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.printing = false
		s.lastPrintAt = time.Now()
		s.mu.Unlock()
	}()

	if pause > 0 {
		time.Sleep(pause)
	}

	ctx, cancel := context.WithTimeout(context.Background(), printTimeout)
	defer cancel()

	if err := transport.Write(ctx, []byte(sanitize(commands))); err != nil {
		s.logger.LogError("Print failed", err)
		return err
	}
	return nil
}

// sanitizeReplacements maps characters common in imported menu data to their
// closest printable ASCII equivalent.
var sanitizeReplacements = map[rune]rune{
	'é': 'e', 'É': 'E',
	'á': 'a', 'Á': 'A',
	'í': 'i', 'Í': 'I',
	'ó': 'o', 'Ó': 'O',
	'ú': 'u', 'Ú': 'U',
	'ñ': 'n', 'Ñ': 'N',
	'’': '\'', '“': '"', '”': '"',
}

// sanitize replaces characters the printer's default code page cannot render.
// Bytes that are not valid UTF-8 belong to embedded raster data and pass
// through untouched, as do ASCII text and control bytes.
func sanitize(commands string) string {
	var b strings.Builder
	b.Grow(len(commands))
	for i := 0; i < len(commands); {
		c := commands[i]
		if c < utf8.RuneSelf {
			b.WriteByte(c)
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(commands[i:])
		if r == utf8.RuneError && size == 1 {
			b.WriteByte(c)
			i++
			continue
		}
		if repl, ok := sanitizeReplacements[r]; ok {
			b.WriteRune(repl)
		} else {
			b.WriteByte(' ')
		}
		i += size
	}
	return b.String()
}
