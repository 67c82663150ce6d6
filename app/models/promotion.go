package models

import (
	"time"

	"gorm.io/gorm"
)

// Promotion represents a discount promotion redeemable by code at checkout
type Promotion struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Code        string     `gorm:"unique;not null" json:"code"`
	Name        string     `json:"name"`
	Type        string     `json:"type"`  // "percent", "amount"
	Value       float64    `json:"value"` // Percent 0-100 or flat rupiah
	MinPurchase float64    `json:"min_purchase"`
	MaxDiscount float64    `json:"max_discount"` // Cap for percent promos, 0 = uncapped
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	UsageLimit  int        `json:"usage_limit"` // 0 = unlimited
	UsedCount   int        `json:"used_count"`
	IsActive    bool       `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// DiscountFor computes the rupiah discount this promotion grants on a
// purchase subtotal, applying the percent cap when configured.
func (p *Promotion) DiscountFor(subtotal float64) float64 {
	if subtotal < p.MinPurchase {
		return 0
	}
	var discount float64
	switch p.Type {
	case "percent":
		discount = subtotal * p.Value / 100
		if p.MaxDiscount > 0 && discount > p.MaxDiscount {
			discount = p.MaxDiscount
		}
	case "amount":
		discount = p.Value
	}
	if discount > subtotal {
		discount = subtotal
	}
	return discount
}

// IsValidAt reports whether the promotion can be redeemed at the given time.
func (p *Promotion) IsValidAt(t time.Time) bool {
	if !p.IsActive {
		return false
	}
	if p.StartDate != nil && t.Before(*p.StartDate) {
		return false
	}
	if p.EndDate != nil && t.After(*p.EndDate) {
		return false
	}
	if p.UsageLimit > 0 && p.UsedCount >= p.UsageLimit {
		return false
	}
	return true
}
