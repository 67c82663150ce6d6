package services

import (
	"encoding/json"
	"log"
	"net"
	"time"

	"gorm.io/gorm"

	"KantinPos/app/database"
	"KantinPos/app/models"
)

// SyncWorker uploads transactions queued while the hosted database was
// unreachable.
type SyncWorker struct {
	mainDB       *gorm.DB
	localDB      *database.LocalDB
	isRunning    bool
	stopChan     chan bool
	syncInterval time.Duration
}

// StartSyncWorker initializes and starts the sync worker
func StartSyncWorker() *SyncWorker {
	worker := &SyncWorker{
		mainDB:       database.GetDB(),
		localDB:      database.GetLocalDB(),
		stopChan:     make(chan bool),
		syncInterval: 5 * time.Minute,
	}

	if worker.localDB == nil {
		log.Println("Local DB unavailable, sync worker will not start")
		return nil
	}

	go worker.run()
	log.Printf("Sync worker started with interval: %v", worker.syncInterval)
	return worker
}

// run is the main sync loop
func (worker *SyncWorker) run() {
	worker.isRunning = true
	ticker := time.NewTicker(worker.syncInterval)
	defer ticker.Stop()

	worker.performSync()

	for {
		select {
		case <-ticker.C:
			worker.performSync()
		case <-worker.stopChan:
			log.Println("Sync worker stopped")
			worker.isRunning = false
			return
		}
	}
}

// Stop stops the sync worker
func (worker *SyncWorker) Stop() {
	if worker.isRunning {
		worker.stopChan <- true
	}
}

// performSync uploads all pending transactions
func (worker *SyncWorker) performSync() {
	start := time.Now()

	if !worker.checkConnection() {
		worker.localDB.UpdateSyncStatus("offline", "no network connection")
		return
	}
	if worker.mainDB == nil {
		worker.mainDB = database.GetDB()
		if worker.mainDB == nil {
			worker.localDB.UpdateSyncStatus("failed", "hosted database not initialized")
			return
		}
	}

	worker.localDB.UpdateSyncStatus("syncing", "")

	if err := worker.syncTransactions(); err != nil {
		log.Printf("Error syncing transactions: %v", err)
		worker.localDB.UpdateSyncStatus("failed", err.Error())
		return
	}

	worker.cleanOldData()
	worker.localDB.UpdateSyncStatus("completed", "")
	worker.localDB.SetSetting(models.SettingLastSyncedAt, time.Now().Format(time.RFC3339))

	log.Printf("Synchronization completed in %v", time.Since(start))
}

// syncTransactions uploads queued transactions to the hosted database.
// Upload is idempotent on the transaction number.
func (worker *SyncWorker) syncTransactions() error {
	pending, err := worker.localDB.GetPendingTransactions()
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	log.Printf("Found %d pending transactions to sync", len(pending))

	for _, queued := range pending {
		var tx models.Transaction
		if err := json.Unmarshal([]byte(queued.TransactionData), &tx); err != nil {
			log.Printf("Failed to unmarshal transaction %s: %v", queued.TransactionNumber, err)
			worker.localDB.RecordSyncFailure(queued.TransactionNumber, "corrupt payload: "+err.Error())
			continue
		}

		err := worker.mainDB.Transaction(func(dbtx *gorm.DB) error {
			var existing models.Transaction
			if err := dbtx.Where("transaction_number = ?", tx.TransactionNumber).
				First(&existing).Error; err == nil {
				// Already uploaded by a previous attempt.
				return nil
			}

			tx.ID = 0
			for i := range tx.Items {
				tx.Items[i].ID = 0
				tx.Items[i].TransactionID = 0
			}
			tx.IsSynced = true
			return dbtx.Create(&tx).Error
		})
		if err != nil {
			log.Printf("Failed to upload transaction %s: %v", queued.TransactionNumber, err)
			worker.localDB.RecordSyncFailure(queued.TransactionNumber, err.Error())
			worker.localDB.LogSync("transaction", queued.ID, "create", "failed", err.Error())
			continue
		}

		worker.localDB.MarkTransactionSynced(queued.TransactionNumber)
		worker.localDB.LogSync("transaction", queued.ID, "create", "completed", "")
	}

	return nil
}

// checkConnection probes for a working network route
func (worker *SyncWorker) checkConnection() bool {
	conn, err := net.DialTimeout("tcp", "8.8.8.8:53", 3*time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// cleanOldData drops synced queue entries older than 30 days
func (worker *SyncWorker) cleanOldData() {
	if err := worker.localDB.ClearSyncedData(30); err != nil {
		log.Printf("Failed to clean old sync data: %v", err)
	}
}
