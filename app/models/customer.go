package models

import (
	"time"

	"gorm.io/gorm"
)

// Customer represents a registered customer in the loyalty program
type Customer struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"not null" json:"name"`
	Phone     string         `gorm:"unique" json:"phone"`
	Email     string         `json:"email"`
	Points    int            `json:"points"` // Current loyalty balance
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// PointEntry is one change to a customer's loyalty balance
type PointEntry struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	CustomerID    uint         `json:"customer_id"`
	Customer      *Customer    `json:"-"`
	TransactionID *uint        `json:"transaction_id,omitempty"` // Nullable for manual adjustments
	Transaction   *Transaction `json:"-"`
	Delta         int          `json:"delta"` // Positive earn, negative redeem
	Reason        string       `json:"reason"`
	CreatedAt     time.Time    `json:"created_at"`
}
