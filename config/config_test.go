package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Queue.BatchSize != 10 {
		t.Errorf("BatchSize = %d, want 10", cfg.Queue.BatchSize)
	}
	if cfg.Queue.ItemDelay != 3*time.Second {
		t.Errorf("ItemDelay = %v, want 3s", cfg.Queue.ItemDelay)
	}
	if cfg.Queue.BatchDelay >= cfg.Queue.ItemDelay {
		t.Errorf("BatchDelay %v should be shorter than ItemDelay %v", cfg.Queue.BatchDelay, cfg.Queue.ItemDelay)
	}
	if cfg.Scrape.FetchMode != "browser" {
		t.Errorf("FetchMode = %q, want browser", cfg.Scrape.FetchMode)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config failed validation: %v", err)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CS2STATS_BATCH_SIZE", "3")
	t.Setenv("CS2STATS_ITEM_DELAY", "250ms")
	t.Setenv("CS2STATS_FETCH_MODE", "http")
	t.Setenv("CS2STATS_API_KEYS", "alpha, beta ,")

	cfg := Load()

	if cfg.Queue.BatchSize != 3 {
		t.Errorf("BatchSize = %d, want 3", cfg.Queue.BatchSize)
	}
	if cfg.Queue.ItemDelay != 250*time.Millisecond {
		t.Errorf("ItemDelay = %v, want 250ms", cfg.Queue.ItemDelay)
	}
	if cfg.Scrape.FetchMode != "http" {
		t.Errorf("FetchMode = %q, want http", cfg.Scrape.FetchMode)
	}
	if len(cfg.Auth.APIKeys) != 2 || cfg.Auth.APIKeys[0] != "alpha" || cfg.Auth.APIKeys[1] != "beta" {
		t.Errorf("APIKeys = %v, want [alpha beta]", cfg.Auth.APIKeys)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Load()
	cfg.Scrape.FetchMode = "carrier-pigeon"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown fetch mode")
	}

	cfg = Load()
	cfg.Scrape.FetchMode = "auto"
	if err := cfg.Validate(); err != nil {
		t.Errorf("auto fetch mode should validate, got %v", err)
	}

	cfg = Load()
	cfg.Scrape.ProfileURLPattern = "https://csstats.gg/player/fixed"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for pattern without placeholder")
	}

	cfg = Load()
	cfg.Queue.BatchSize = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero batch size")
	}
}
