package services

import (
	"encoding/json"
	"fmt"

	"KantinPos/app/database"
	"KantinPos/app/models"
	"KantinPos/app/printer"
)

// receiptSettings is the persisted shape of the receipt text configuration.
type receiptSettings struct {
	Header  string             `json:"header"`
	Tagline string             `json:"tagline"`
	Footer  string             `json:"footer"`
	Paper   printer.PaperWidth `json:"paper_width"`
}

// storeSettings is the persisted shape of the store identity.
type storeSettings struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// SettingsService manages the free-form settings records in the local store.
// Reads never fail: corrupt or missing values fall back to defaults so a
// broken settings row can never block a print.
type SettingsService struct {
	local  *database.LocalDB
	logger *LoggerService
}

// NewSettingsService creates a new settings service
func NewSettingsService(logger *LoggerService) *SettingsService {
	return &SettingsService{
		local:  database.GetLocalDB(),
		logger: logger,
	}
}

// GetReceiptSettings returns the effective receipt settings, merging the
// stored receipt and store records over the defaults.
func (s *SettingsService) GetReceiptSettings() printer.Settings {
	settings := printer.DefaultSettings()

	if raw, err := s.local.GetSetting(models.SettingReceipt); err == nil && raw != "" {
		var stored receiptSettings
		if err := json.Unmarshal([]byte(raw), &stored); err != nil {
			s.logger.LogWarning("Ignoring corrupt receipt settings", err.Error())
		} else {
			if stored.Header != "" {
				settings.Header = stored.Header
			}
			if stored.Tagline != "" {
				settings.Tagline = stored.Tagline
			}
			if stored.Footer != "" {
				settings.Footer = stored.Footer
			}
			if stored.Paper == printer.Paper58mm || stored.Paper == printer.Paper80mm {
				settings.Paper = stored.Paper
			}
		}
	}

	if raw, err := s.local.GetSetting(models.SettingStore); err == nil && raw != "" {
		var stored storeSettings
		if err := json.Unmarshal([]byte(raw), &stored); err != nil {
			s.logger.LogWarning("Ignoring corrupt store settings", err.Error())
		} else {
			if stored.Name != "" {
				settings.StoreName = stored.Name
			}
			if stored.Address != "" {
				settings.StoreAddress = stored.Address
			}
			if stored.Phone != "" {
				settings.StorePhone = stored.Phone
			}
		}
	}

	return settings
}

// SaveReceiptSettings persists the receipt text configuration.
func (s *SettingsService) SaveReceiptSettings(header, tagline, footer string, paper printer.PaperWidth) error {
	if paper != printer.Paper58mm && paper != printer.Paper80mm {
		return fmt.Errorf("unknown paper width %q", paper)
	}
	data, err := json.Marshal(receiptSettings{
		Header:  header,
		Tagline: tagline,
		Footer:  footer,
		Paper:   paper,
	})
	if err != nil {
		return err
	}
	return s.local.SetSetting(models.SettingReceipt, string(data))
}

// SaveStoreSettings persists the store identity.
func (s *SettingsService) SaveStoreSettings(name, address, phone string) error {
	data, err := json.Marshal(storeSettings{
		Name:    name,
		Address: address,
		Phone:   phone,
	})
	if err != nil {
		return err
	}
	return s.local.SetSetting(models.SettingStore, string(data))
}

// GetPrinterName returns the persisted printer display name, "" when none
// was ever connected.
func (s *SettingsService) GetPrinterName() string {
	name, err := s.local.GetSetting(models.SettingPrinterName)
	if err != nil {
		s.logger.LogWarning("Could not read printer name", err.Error())
		return ""
	}
	return name
}

// SavePrinterName persists the display name of the last connected printer.
func (s *SettingsService) SavePrinterName(name string) error {
	return s.local.SetSetting(models.SettingPrinterName, name)
}

// GetPrinterConnection returns the persisted printer endpoint, nil when none
// is stored or the record is corrupt.
func (s *SettingsService) GetPrinterConnection() *models.PrinterConnection {
	raw, err := s.local.GetSetting(models.SettingPrinterLink)
	if err != nil || raw == "" {
		return nil
	}
	var conn models.PrinterConnection
	if err := json.Unmarshal([]byte(raw), &conn); err != nil {
		s.logger.LogWarning("Ignoring corrupt printer connection", err.Error())
		return nil
	}
	return &conn
}

// SavePrinterConnection persists the printer endpoint selection.
func (s *SettingsService) SavePrinterConnection(conn models.PrinterConnection) error {
	data, err := json.Marshal(conn)
	if err != nil {
		return err
	}
	return s.local.SetSetting(models.SettingPrinterLink, string(data))
}
