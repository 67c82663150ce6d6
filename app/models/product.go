package models

import (
	"time"

	"gorm.io/gorm"
)

// Product represents an item on the canteen menu
type Product struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	Name        string           `gorm:"not null" json:"name"`
	Description string           `json:"description"`
	Price       float64          `gorm:"not null" json:"price"`
	CostPrice   float64          `json:"cost_price"` // Purchase cost, used for profit reporting
	CategoryID  uint             `json:"category_id"`
	Category    *Category        `json:"category,omitempty"`
	Image       string           `gorm:"type:text" json:"image"` // Base64 encoded image
	Stock       int              `json:"stock"`                  // Can go negative
	IsActive    bool             `gorm:"default:true" json:"is_active"`
	Variants    []ProductVariant `gorm:"foreignKey:ProductID" json:"variants,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	DeletedAt   gorm.DeletedAt   `gorm:"index" json:"deleted_at,omitempty"`
}

// Category represents a product category
type Category struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"not null;unique" json:"name"`
	Type         string         `gorm:"default:food" json:"type"` // "food", "drink"
	Icon         string         `json:"icon"`
	Color        string         `json:"color"` // For UI display
	DisplayOrder int            `json:"display_order"`
	IsActive     bool           `gorm:"default:true" json:"is_active"`
	Products     []Product      `json:"products,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// ProductVariant represents a size or preparation option of a product
type ProductVariant struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ProductID   uint      `json:"product_id"`
	Name        string    `gorm:"not null" json:"name"` // "Large", "Pedas", "Dingin"
	PriceChange float64   `json:"price_change"`         // Can be negative
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StockMovement tracks inventory changes
type StockMovement struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ProductID   uint      `json:"product_id"`
	Product     *Product  `json:"product,omitempty"`
	Type        string    `json:"type"`     // "purchase", "sale", "adjustment", "loss"
	Quantity    int       `json:"quantity"` // Positive for additions, negative for removals
	PreviousQty int       `json:"previous_qty"`
	NewQty      int       `json:"new_qty"`
	Reference   string    `json:"reference"`             // Transaction number, adjustment reason
	EmployeeID  *uint     `json:"employee_id,omitempty"` // Nullable - can be system-generated
	Employee    *Employee `json:"employee,omitempty"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
}
