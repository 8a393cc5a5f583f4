// Package config defines service configuration and how it is loaded.
//
// Values are layered: defaults from New, then an optional YAML file, then
// CRITIC_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects text or json log records.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Store selects the persistence backend: memory or sqlite.
	Store string `koanf:"store"`
	// DatabasePath is the SQLite file, used when Store is sqlite.
	DatabasePath string `koanf:"database_path"`
	// TxMaxAttempts bounds retries of a review transition after a
	// uniqueness conflict.
	TxMaxAttempts int `koanf:"tx_max_attempts"`

	// Catalog (Spotify Web API) access.
	CatalogBaseURL      string  `koanf:"catalog_base_url"`
	CatalogTokenURL     string  `koanf:"catalog_token_url"`
	CatalogClientID     string  `koanf:"catalog_client_id"`
	CatalogClientSecret string  `koanf:"catalog_client_secret"`
	CatalogRPS          float64 `koanf:"catalog_rps"`
	CatalogTimeoutMS    int     `koanf:"catalog_timeout_ms"`

	// RandomSeed fixes bookmark selection when non-zero.
	RandomSeed uint64 `koanf:"random_seed"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		Store:            StoreSQLite,
		DatabasePath:     "data/critic.db",
		TxMaxAttempts:    3,
		CatalogBaseURL:   "https://api.spotify.com/v1",
		CatalogTokenURL:  "https://accounts.spotify.com/api/token",
		CatalogRPS:       5,
		CatalogTimeoutMS: 10_000,
	}
}

// CatalogTimeout returns the per-request catalog timeout.
func (c *Config) CatalogTimeout() time.Duration {
	return time.Duration(c.CatalogTimeoutMS) * time.Millisecond
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Store != StoreMemory && c.Store != StoreSQLite:
		return fmt.Errorf("%w: store must be %q or %q, got %q", ErrInvalidConfig, StoreMemory, StoreSQLite, c.Store)
	case c.Store == StoreSQLite && strings.TrimSpace(c.DatabasePath) == "":
		return fmt.Errorf("%w: database_path is required for the sqlite store", ErrInvalidConfig)
	case c.TxMaxAttempts < 1:
		return fmt.Errorf("%w: tx_max_attempts must be at least 1", ErrInvalidConfig)
	case c.CatalogRPS <= 0:
		return fmt.Errorf("%w: catalog_rps must be positive", ErrInvalidConfig)
	case c.CatalogTimeoutMS <= 0:
		return fmt.Errorf("%w: catalog_timeout_ms must be positive", ErrInvalidConfig)
	case (c.CatalogClientID == "") != (c.CatalogClientSecret == ""):
		return fmt.Errorf("%w: catalog_client_id and catalog_client_secret go together", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json", ErrInvalidConfig)
	}
	return nil
}
