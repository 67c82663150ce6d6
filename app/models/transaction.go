package models

import (
	"time"

	"gorm.io/gorm"
)

// Transaction represents one completed checkout
type Transaction struct {
	ID                uint              `gorm:"primaryKey" json:"id"`
	TransactionNumber string            `gorm:"unique;not null" json:"transaction_number"`
	CustomerID        *uint             `json:"customer_id,omitempty"`
	Customer          *Customer         `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Items             []TransactionItem `gorm:"foreignKey:TransactionID" json:"items"`

	Subtotal          float64 `json:"subtotal"`
	Tax               float64 `json:"tax"`
	TaxRate           float64 `json:"tax_rate"`
	ServiceCharge     float64 `json:"service_charge"`
	PromotionID       *uint   `json:"promotion_id,omitempty"`
	PromotionCode     string  `json:"promotion_code"`
	PromotionDiscount float64 `json:"promotion_discount"`
	Total             float64 `json:"total"`

	PaymentMethod string  `json:"payment_method"` // "cash", "qris", "transfer"
	PaymentAmount float64 `json:"payment_amount"`
	ChangeAmount  float64 `json:"change_amount"`

	EarnedPoints int    `json:"earned_points"`
	Status       string `gorm:"default:completed" json:"status"` // "completed", "refunded"

	EmployeeID uint      `json:"employee_id"`
	Employee   *Employee `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`

	TableNumber string `json:"table_number"`
	Notes       string `json:"notes"`

	IsSynced  bool           `gorm:"default:false" json:"is_synced"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// TransactionItem is one sold line of a transaction. Product name and price
// are denormalized so receipts reprint correctly after menu edits.
type TransactionItem struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	TransactionID uint         `json:"transaction_id"`
	Transaction   *Transaction `gorm:"foreignKey:TransactionID" json:"-"`
	ProductID     uint         `json:"product_id"`
	Product       *Product     `json:"product,omitempty"`
	ProductName   string       `json:"product_name"`
	Variant       string       `json:"variant"`
	Quantity      int          `json:"quantity"`
	Price         float64      `json:"price"` // Unit price at sale time, variant included
	Subtotal      float64      `json:"subtotal"`
	Notes         string       `json:"notes"`
	CreatedAt     time.Time    `json:"created_at"`
}
