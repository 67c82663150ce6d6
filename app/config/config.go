package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"KantinPos/app/security"
)

// AppConfig holds all application configuration
type AppConfig struct {
	// Database Configuration
	Database DatabaseConfig `json:"database"`

	// Business Information
	Business BusinessConfig `json:"business"`

	// System Configuration
	System SystemConfig `json:"system"`

	// First run flag
	FirstRun bool `json:"first_run"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	Username string `json:"username"`
	Password string `json:"password"`
	SSLMode  string `json:"ssl_mode"`
}

// BusinessConfig holds store information
type BusinessConfig struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

// SystemConfig holds system settings
type SystemConfig struct {
	DataPath    string `json:"data_path"`
	PrinterName string `json:"printer_name"`
	Language    string `json:"language"`
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	appData := os.Getenv("APPDATA")
	if appData == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not determine home directory: %w", err)
		}
		appData = filepath.Join(homeDir, ".config")
	}

	configDir := filepath.Join(appData, "KantinPos")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("could not create config directory: %w", err)
	}

	return filepath.Join(configDir, "config.json"), nil
}

// LoadConfig loads configuration from config.json and decrypts sensitive fields
func LoadConfig() (*AppConfig, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found")
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}

	var cfg AppConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("could not parse config file: %w", err)
	}

	if err := cfg.decryptSensitiveFields(); err != nil {
		return nil, fmt.Errorf("could not decrypt sensitive fields: %w", err)
	}

	return &cfg, nil
}

// SaveConfig saves configuration to config.json after encrypting sensitive fields
func SaveConfig(cfg *AppConfig) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	// Encrypt a copy so the in-memory config keeps usable values
	cfgCopy := *cfg
	if err := cfgCopy.encryptSensitiveFields(); err != nil {
		return fmt.Errorf("could not encrypt sensitive fields: %w", err)
	}

	data, err := json.MarshalIndent(&cfgCopy, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("could not write config file: %w", err)
	}

	return nil
}

// ConfigExists checks if config file exists
func ConfigExists() (bool, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return false, err
	}

	_, err = os.Stat(configPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

// CreateDefaultConfig creates a default configuration file
func CreateDefaultConfig() (*AppConfig, error) {
	cfg := &AppConfig{
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			Database: "kantin_pos_db",
			Username: "postgres",
			Password: "",
			SSLMode:  "disable",
		},
		Business: BusinessConfig{
			Name:    "Kantin Pos",
			Address: "",
			Phone:   "",
			Email:   "",
		},
		System: SystemConfig{
			DataPath:    "",
			PrinterName: "",
			Language:    "id",
		},
		FirstRun: true,
	}

	if err := SaveConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// MarkSetupComplete marks the first run as complete
func MarkSetupComplete() error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}

	cfg.FirstRun = false
	return SaveConfig(cfg)
}

// encryptSensitiveFields encrypts sensitive configuration fields
func (cfg *AppConfig) encryptSensitiveFields() error {
	var err error

	if cfg.Database.Password != "" {
		cfg.Database.Password, err = security.EncryptIfNeeded(cfg.Database.Password)
		if err != nil {
			return fmt.Errorf("could not encrypt database password: %w", err)
		}
	}

	return nil
}

// decryptSensitiveFields decrypts sensitive configuration fields.
// If a field is not encrypted (plain text), it leaves it as-is.
func (cfg *AppConfig) decryptSensitiveFields() error {
	if cfg.Database.Password != "" {
		decrypted, err := security.Decrypt(cfg.Database.Password)
		if err != nil {
			// Plain-text passwords occur in development setups
			decrypted = cfg.Database.Password
		}
		cfg.Database.Password = decrypted
	}

	return nil
}
