package models

import (
	"time"

	"gorm.io/gorm"
)

// Employee represents an employee/user of the system
type Employee struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"not null" json:"name"`
	Username    string         `gorm:"unique;not null" json:"username"`
	Password    string         `json:"-"`    // Hashed password
	PIN         string         `json:"-"`    // Quick access PIN
	Role        string         `json:"role"` // "admin", "cashier", "kitchen"
	Email       string         `json:"email"`
	Phone       string         `json:"phone"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	LastLoginAt *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// Attendance is one work-shift record of an employee
type Attendance struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	EmployeeID uint       `json:"employee_id"`
	Employee   *Employee  `json:"employee,omitempty"`
	ClockIn    time.Time  `json:"clock_in"`
	ClockOut   *time.Time `json:"clock_out,omitempty"`
	Shift      string     `json:"shift"` // "pagi", "siang", "malam"
	Notes      string     `json:"notes"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Session represents an active employee session
type Session struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	EmployeeID uint      `json:"employee_id"`
	Employee   *Employee `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
	Token      string    `gorm:"unique" json:"token"`
	DeviceInfo string    `json:"device_info"`
	IPAddress  string    `json:"ip_address"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// AuditLog tracks important system actions
type AuditLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	EmployeeID uint      `json:"employee_id"`
	Employee   *Employee `json:"employee,omitempty"`
	Action     string    `json:"action"`
	Entity     string    `json:"entity"` // "transaction", "product", "setting"
	EntityID   uint      `json:"entity_id"`
	OldValue   string    `json:"old_value"` // JSON of old values
	NewValue   string    `json:"new_value"` // JSON of new values
	IPAddress  string    `json:"ip_address"`
	UserAgent  string    `json:"user_agent"`
	CreatedAt  time.Time `json:"created_at"`
}
