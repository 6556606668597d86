// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"grd-pricing/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version"`

	// Database contains persistent storage settings
	Database DatabaseConfig `json:"database"`

	// Attachment contains tariff attachment settings
	Attachment AttachmentConfig `json:"attachment"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// DatabaseConfig contains Postgres settings
type DatabaseConfig struct {
	// URL is the Postgres connection string
	URL string `json:"url"`

	// MaxConns is the connection pool size
	MaxConns int `json:"max_conns"`
}

// AttachmentConfig locates the tariff attachment file
type AttachmentConfig struct {
	// Filename is the expected attachment file name
	Filename string `json:"filename"`

	// SearchPaths are the directories probed, in order, when deriving the
	// default attachment location
	SearchPaths []string `json:"search_paths"`
}

// CandidatePaths returns the full candidate paths for the attachment file,
// in probe order.
func (a AttachmentConfig) CandidatePaths() []string {
	paths := make([]string, 0, len(a.SearchPaths))
	for _, dir := range a.SearchPaths {
		paths = append(paths, filepath.Join(dir, a.Filename))
	}
	return paths
}

// Default returns a default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Version: "1.0",
		Database: DatabaseConfig{
			URL:      "postgres://localhost:5432/grd_pricing?sslmode=disable",
			MaxConns: 4,
		},
		Attachment: AttachmentConfig{
			Filename: "precios_convenios_grd.csv",
			SearchPaths: []string{
				".",
				"data",
				filepath.Join(homeDir, ".grd-pricing"),
			},
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration from a file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, err
	}

	return config, nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
