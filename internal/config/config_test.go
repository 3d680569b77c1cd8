package config

import (
	"testing"
	"time"
)

func withEnv(t *testing.T, key, value string) {
	t.Helper()
	t.Setenv(key, value)
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	withEnv(t, "MELODIAD_PLUGIN_DIR", "/var/lib/melodiad/plugins")
	withEnv(t, "MELODIAD_CATALOG_PATH", "/var/lib/melodiad/catalog.db")
	withEnv(t, "MELODIAD_DATA_DIR", "/var/lib/melodiad/data")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.ScanWorkers != 0 {
		t.Errorf("ScanWorkers = %d, want 0 (auto)", cfg.ScanWorkers)
	}
	if cfg.IdleEvictionInterval != 5*time.Minute {
		t.Errorf("IdleEvictionInterval = %v, want 5m", cfg.IdleEvictionInterval)
	}
	if cfg.ImportQueueCapacity != 128 {
		t.Errorf("ImportQueueCapacity = %d, want 128", cfg.ImportQueueCapacity)
	}
}

func TestLoadConfigMissingRequiredFieldErrors(t *testing.T) {
	withEnv(t, "MELODIAD_PLUGIN_DIR", "")
	withEnv(t, "MELODIAD_CATALOG_PATH", "")
	withEnv(t, "MELODIAD_DATA_DIR", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("LoadConfig() error = nil, want error for missing required fields")
	}
}
