package services

import (
	"fmt"

	"gorm.io/gorm"

	"KantinPos/app/database"
	"KantinPos/app/models"
)

// BaseService holds the database handle and the write helpers shared by the
// services that embed it. Services are constructed before first-run setup
// completes, so the handle may be nil until the wizard finishes; every helper
// fails cleanly instead of panicking.
type BaseService struct {
	db *gorm.DB
}

// NewBaseService creates a new base service instance
func NewBaseService() *BaseService {
	return &BaseService{
		db: database.GetDB(),
	}
}

// EnsureDB checks if database is initialized and returns an error if not
func (b *BaseService) EnsureDB() error {
	if b.db == nil {
		return fmt.Errorf("database not initialized")
	}
	return nil
}

// WithTransaction executes a function within a database transaction
func (b *BaseService) WithTransaction(fn func(tx *gorm.DB) error) error {
	if err := b.EnsureDB(); err != nil {
		return err
	}
	return b.db.Transaction(fn)
}

// Create creates a new record in the database
func (b *BaseService) Create(value interface{}) error {
	if err := b.EnsureDB(); err != nil {
		return err
	}
	return b.db.Create(value).Error
}

// Save updates a record in the database
func (b *BaseService) Save(value interface{}) error {
	if err := b.EnsureDB(); err != nil {
		return err
	}
	return b.db.Save(value).Error
}

// Delete soft deletes a record from the database
func (b *BaseService) Delete(value interface{}, id uint) error {
	if err := b.EnsureDB(); err != nil {
		return err
	}
	return b.db.Delete(value, id).Error
}

// CreateStockMovement records a stock change inside the given transaction.
// Shared by checkout and manual stock adjustments.
func CreateStockMovement(tx *gorm.DB, productID uint, movementType string, quantity, previousQty, newQty int, reference string, employeeID *uint) error {
	movement := models.StockMovement{
		ProductID:   productID,
		Type:        movementType,
		Quantity:    quantity,
		PreviousQty: previousQty,
		NewQty:      newQty,
		Reference:   reference,
		EmployeeID:  employeeID,
	}
	return tx.Create(&movement).Error
}
