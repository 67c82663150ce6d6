package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"KantinPos/app/models"
)

// LocalDB manages the local SQLite database for settings and offline
// operations
type LocalDB struct {
	db          *gorm.DB
	isConnected bool
	dbPath      string
}

var localDB *LocalDB

// OpenLocalDB opens a local SQLite database at the given path and runs
// migrations. Most callers want the shared instance via GetLocalDB.
func OpenLocalDB(dbPath string) (*LocalDB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// CGO-free SQLite driver
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})

	if err != nil {
		return nil, fmt.Errorf("failed to connect to local database: %w", err)
	}

	local := &LocalDB{
		db:          db,
		isConnected: true,
		dbPath:      dbPath,
	}

	if err := local.runMigrations(); err != nil {
		return nil, fmt.Errorf("failed to run local migrations: %w", err)
	}

	return local, nil
}

// InitializeLocalDB opens the shared local database instance
func InitializeLocalDB(dbPath string) error {
	local, err := OpenLocalDB(dbPath)
	if err != nil {
		return err
	}
	localDB = local
	return nil
}

// GetLocalDB returns the local database instance
func GetLocalDB() *LocalDB {
	if localDB == nil {
		InitializeLocalDB("./data/local.db")
	}
	return localDB
}

// runMigrations creates necessary tables in local database
func (l *LocalDB) runMigrations() error {
	return l.db.AutoMigrate(
		// Free-form settings store
		&models.LocalSetting{},

		// Queue for transactions made while the hosted backend is offline
		&QueuedTransaction{},

		// Sync status
		&SyncStatus{},
		&SyncLog{},
	)
}

// QueuedTransaction is a checkout recorded while offline, pending upload
type QueuedTransaction struct {
	ID                uint      `gorm:"primaryKey"`
	TransactionNumber string    `gorm:"unique"`
	TransactionData   string    `json:"transaction_data"` // JSON serialized transaction
	IsSynced          bool      `json:"is_synced"`
	SyncAttempts      int       `json:"sync_attempts"`
	LastError         string    `json:"last_error"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// SyncStatus tracks synchronization status
type SyncStatus struct {
	ID                  uint       `gorm:"primaryKey"`
	LastSyncAt          *time.Time `json:"last_sync_at"`
	Status              string     `json:"status"` // "syncing", "completed", "failed"
	PendingTransactions int        `json:"pending_transactions"`
	LastError           string     `json:"last_error"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// SyncLog tracks synchronization history
type SyncLog struct {
	ID         uint      `gorm:"primaryKey"`
	EntityType string    `json:"entity_type"` // "transaction"
	EntityID   uint      `json:"entity_id"`
	Action     string    `json:"action"` // "create", "update"
	Status     string    `json:"status"` // "success", "failed"
	Error      string    `json:"error"`
	SyncedAt   time.Time `json:"synced_at"`
}

// GetSetting returns the raw value stored under key. A missing key returns
// "" with no error; callers decide their own defaults.
func (l *LocalDB) GetSetting(key string) (string, error) {
	var setting models.LocalSetting
	err := l.db.First(&setting, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return setting.Value, nil
}

// SetSetting stores value under key, creating or replacing the record.
func (l *LocalDB) SetSetting(key, value string) error {
	setting := models.LocalSetting{Key: key, Value: value, UpdatedAt: time.Now()}
	return l.db.Save(&setting).Error
}

// QueueTransaction saves a transaction locally for later upload
func (l *LocalDB) QueueTransaction(tx *models.Transaction) error {
	txJSON, err := json.Marshal(tx)
	if err != nil {
		return err
	}

	queued := QueuedTransaction{
		TransactionNumber: tx.TransactionNumber,
		TransactionData:   string(txJSON),
		IsSynced:          false,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}

	return l.db.Create(&queued).Error
}

// GetPendingTransactions gets transactions pending sync
func (l *LocalDB) GetPendingTransactions() ([]QueuedTransaction, error) {
	var queued []QueuedTransaction
	err := l.db.Where("is_synced = ? AND sync_attempts < ?", false, 3).Find(&queued).Error
	return queued, err
}

// MarkTransactionSynced marks a queued transaction as synced
func (l *LocalDB) MarkTransactionSynced(transactionNumber string) error {
	return l.db.Model(&QueuedTransaction{}).
		Where("transaction_number = ?", transactionNumber).
		Update("is_synced", true).Error
}

// RecordSyncFailure bumps the attempt counter on a queued transaction
func (l *LocalDB) RecordSyncFailure(transactionNumber string, syncErr string) error {
	return l.db.Model(&QueuedTransaction{}).
		Where("transaction_number = ?", transactionNumber).
		Updates(map[string]interface{}{
			"sync_attempts": gorm.Expr("sync_attempts + 1"),
			"last_error":    syncErr,
		}).Error
}

// UpdateSyncStatus updates sync status
func (l *LocalDB) UpdateSyncStatus(status string, syncErr string) error {
	var syncStatus SyncStatus
	l.db.FirstOrCreate(&syncStatus)

	now := time.Now()
	syncStatus.LastSyncAt = &now
	syncStatus.Status = status
	syncStatus.LastError = syncErr
	syncStatus.UpdatedAt = now

	var pending int64
	l.db.Model(&QueuedTransaction{}).Where("is_synced = ?", false).Count(&pending)
	syncStatus.PendingTransactions = int(pending)

	return l.db.Save(&syncStatus).Error
}

// GetSyncStatus gets current sync status
func (l *LocalDB) GetSyncStatus() (*SyncStatus, error) {
	var status SyncStatus
	err := l.db.FirstOrCreate(&status).Error
	return &status, err
}

// LogSync logs a sync operation
func (l *LocalDB) LogSync(entityType string, entityID uint, action string, status string, syncErr string) {
	entry := SyncLog{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Status:     status,
		Error:      syncErr,
		SyncedAt:   time.Now(),
	}
	l.db.Create(&entry)
}

// ClearSyncedData removes synced data older than specified days
func (l *LocalDB) ClearSyncedData(daysOld int) error {
	cutoffDate := time.Now().AddDate(0, 0, -daysOld)

	if err := l.db.Where("is_synced = ? AND updated_at < ?", true, cutoffDate).
		Delete(&QueuedTransaction{}).Error; err != nil {
		return err
	}

	if err := l.db.Where("synced_at < ?", cutoffDate).Delete(&SyncLog{}).Error; err != nil {
		return err
	}

	return nil
}

// GetDB returns the underlying database connection
func (l *LocalDB) GetDB() *gorm.DB {
	return l.db
}

// Close closes the local database connection
func (l *LocalDB) Close() error {
	if l.db != nil {
		sqlDB, err := l.db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}

// IsOfflineMode checks if the hosted backend is reachable
func (l *LocalDB) IsOfflineMode() bool {
	mainDB := GetDB()
	if mainDB == nil {
		return true
	}

	var count int64
	if err := mainDB.Model(&models.Category{}).Count(&count).Error; err != nil {
		return true
	}

	return false
}

// Transaction executes a function within a database transaction
func (l *LocalDB) Transaction(fn func(*gorm.DB) error) error {
	return l.db.Transaction(fn)
}
