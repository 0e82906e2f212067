package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromMissingReturnsDefaults(t *testing.T) {
	t.Setenv("HOMECALC_REDIS_ADDR", "")
	t.Setenv("HOMECALC_LOG_LEVEL", "")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Rates.CacheBackend != CacheSQLite {
		t.Fatalf("CacheBackend = %q, want %q", cfg.Rates.CacheBackend, CacheSQLite)
	}
	if cfg.General.DefaultLoanType != "conventional-30" {
		t.Fatalf("DefaultLoanType = %q, want conventional-30", cfg.General.DefaultLoanType)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	t.Setenv("HOMECALC_REDIS_ADDR", "")
	t.Setenv("HOMECALC_LOG_LEVEL", "")
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := DefaultConfig()
	cfg.Rates.TimeoutSeconds = 3
	cfg.Daemon.IntervalMinutes = 30
	cfg.Appearance.Theme = "catppuccin-mocha"
	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if got.Rates.RequestTimeout() != 3*time.Second {
		t.Fatalf("RequestTimeout = %v, want 3s", got.Rates.RequestTimeout())
	}
	if got.Daemon.Interval() != 30*time.Minute {
		t.Fatalf("Interval = %v, want 30m", got.Daemon.Interval())
	}
	if got.Appearance.Theme != "catppuccin-mocha" {
		t.Fatalf("Theme = %q, want catppuccin-mocha", got.Appearance.Theme)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HOMECALC_REDIS_ADDR", "127.0.0.1:6390")
	t.Setenv("HOMECALC_LOG_LEVEL", "debug")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Rates.CacheBackend != CacheRedis || cfg.Rates.RedisAddr != "127.0.0.1:6390" {
		t.Fatalf("redis override not applied: %+v", cfg.Rates)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("Log.Level = %q, want debug", cfg.Log.Level)
	}
}

func TestDataPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.General.DataDir = "/tmp/hc"
	if got := StatePath(cfg); got != "/tmp/hc/state.db" {
		t.Fatalf("StatePath = %q", got)
	}
	if got := SnapshotPath(cfg); got != "/tmp/hc/rates.json" {
		t.Fatalf("SnapshotPath = %q", got)
	}
	cfg.Rates.SnapshotPath = "/srv/rates.json"
	if got := SnapshotPath(cfg); got != "/srv/rates.json" {
		t.Fatalf("SnapshotPath override = %q", got)
	}
}
