package models

import "time"

// Setting keys used by the application.
const (
	SettingReceipt      = "settings_receipt"
	SettingStore        = "settings_store"
	SettingPrinterName  = "bluetooth_printer_name"
	SettingPrinterLink  = "printer_connection"
	SettingLastSyncedAt = "last_synced_at"
)

// LocalSetting is one free-form key/value record in the local store. Values
// are JSON documents; readers must tolerate corrupt or missing entries and
// fall back to defaults.
type LocalSetting struct {
	Key       string    `gorm:"primaryKey" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PrinterConnection is the persisted printer endpoint selection.
type PrinterConnection struct {
	Type    string `json:"type"` // "bluetooth", "network", "serial", "usb"
	Address string `json:"address"`
	Name    string `json:"name"`
	Port    int    `json:"port,omitempty"`
}
