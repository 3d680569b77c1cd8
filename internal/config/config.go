// Package config loads melodiad's process configuration from
// environment variables.
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the daemon configuration loaded from environment
// variables.
type Config struct {
	// PluginDir is scanned once at startup for *.wasm plugin modules.
	PluginDir string `env:"MELODIAD_PLUGIN_DIR,notEmpty"`

	// CatalogPath is the sqlite database file backing the track
	// catalog.
	CatalogPath string `env:"MELODIAD_CATALOG_PATH,notEmpty"`

	// DataDir holds the per-plugin mounted directories materialized
	// from each plugin's metadata.
	DataDir string `env:"MELODIAD_DATA_DIR,notEmpty"`

	// ScanWorkers is the size of the scan pipeline's track worker
	// pool. Zero means auto-size to max(1, NumCPU-2).
	ScanWorkers int `env:"MELODIAD_SCAN_WORKERS" envDefault:"0"`

	// IdleEvictionInterval is how often each pool is checked for
	// idleness; a pool unused for a whole interval has all of its idle
	// plugin instances closed.
	IdleEvictionInterval time.Duration `env:"MELODIAD_IDLE_EVICTION_INTERVAL" envDefault:"5m"`

	// ImportQueueCapacity bounds the channel feeding scanned tracks to
	// the catalog import worker.
	ImportQueueCapacity int `env:"MELODIAD_IMPORT_QUEUE_CAPACITY" envDefault:"128"`
}

// LoadConfig loads configuration from environment variables, returning
// an error if a required field is missing.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
