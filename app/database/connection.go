package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"KantinPos/app/config"
	"KantinPos/app/models"
)

var db *gorm.DB

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return db
}

// buildDSN constructs the database connection string from environment variables.
// Priority: DATABASE_URL > individual variables (DB_HOST, DB_PORT, etc.) > defaults
func buildDSN() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		log.Printf("Using DATABASE_URL for database connection")
		return dsn
	}

	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	user := os.Getenv("DB_USER")
	password := os.Getenv("DB_PASSWORD")
	dbname := os.Getenv("DB_NAME")
	sslmode := os.Getenv("DB_SSLMODE")

	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "5432"
	}
	if user == "" {
		user = "postgres"
	}
	if password == "" {
		password = "postgres"
	}
	if dbname == "" {
		dbname = "kantin_pos_db"
	}
	if sslmode == "" {
		sslmode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)

	log.Printf("Built database connection from environment: host=%s port=%s dbname=%s sslmode=%s",
		host, port, dbname, sslmode)

	return dsn
}

// buildDSNFromConfig builds DSN from AppConfig
func buildDSNFromConfig(cfg *config.AppConfig) string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Database,
		cfg.Database.SSLMode,
	)

	log.Printf("Built database connection from config.json: host=%s port=%d dbname=%s sslmode=%s",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.Database, cfg.Database.SSLMode)

	return dsn
}

// Initialize sets up the database connection from environment variables
func Initialize() error {
	return InitializeWithConfig(nil)
}

// InitializeWithConfig sets up the database connection with optional AppConfig
func InitializeWithConfig(appConfig *config.AppConfig) error {
	var err error
	var dsn string

	if appConfig != nil {
		dsn = buildDSNFromConfig(appConfig)
	} else {
		dsn = buildDSN()
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		PrepareStmt:                              true,
		DisableForeignKeyConstraintWhenMigrating: false,
	}

	db, err = gorm.Open(postgres.Open(dsn), gormConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := SeedInitialData(); err != nil {
		log.Printf("Warning: failed to seed initial data: %v", err)
	}

	return nil
}

// RunMigrations runs database migrations
func RunMigrations() error {
	err := db.AutoMigrate(
		// Product models
		&models.Category{},
		&models.Product{},
		&models.ProductVariant{},
		&models.StockMovement{},

		// Customer models
		&models.Customer{},
		&models.PointEntry{},

		// Transaction models
		&models.Transaction{},
		&models.TransactionItem{},

		// Promotion models
		&models.Promotion{},

		// Employee models
		&models.Employee{},
		&models.Attendance{},
		&models.Session{},
		&models.AuditLog{},
	)

	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	createIndexes()

	return nil
}

// createIndexes creates database indexes for better query performance
func createIndexes() {
	// Transaction indexes
	db.Exec("CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions(created_at)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_transactions_employee_id ON transactions(employee_id)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_transactions_status ON transactions(status)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_transaction_items_transaction_id ON transaction_items(transaction_id)")

	// Product indexes
	db.Exec("CREATE INDEX IF NOT EXISTS idx_products_category_id ON products(category_id)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_products_is_active ON products(is_active)")

	// Loyalty indexes
	db.Exec("CREATE INDEX IF NOT EXISTS idx_point_entries_customer_id ON point_entries(customer_id)")

	// Attendance indexes
	db.Exec("CREATE INDEX IF NOT EXISTS idx_attendances_employee_id ON attendances(employee_id)")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_attendances_clock_in ON attendances(clock_in)")
}

// SeedInitialData seeds initial configuration data
func SeedInitialData() error {
	categories := []models.Category{
		{Name: "Makanan", Type: "food", Color: "#FF6B6B", DisplayOrder: 1, IsActive: true},
		{Name: "Minuman", Type: "drink", Color: "#45B7D1", DisplayOrder: 2, IsActive: true},
		{Name: "Snack", Type: "food", Color: "#FFA07A", DisplayOrder: 3, IsActive: true},
	}

	for _, cat := range categories {
		var count int64
		db.Model(&models.Category{}).Where("name = ?", cat.Name).Count(&count)
		if count == 0 {
			db.Create(&cat)
		}
	}

	return nil
}

// Close closes the database connection
func Close() error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Transaction executes a function within a database transaction
func Transaction(fn func(*gorm.DB) error) error {
	if db == nil {
		return fmt.Errorf("database not initialized")
	}
	return db.Transaction(fn)
}
