// Package config loads user configuration and holds the loan catalogs.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all homecalc configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Rates      RatesConfig      `toml:"rates"`
	Tax        TaxConfig        `toml:"tax"`
	Daemon     DaemonConfig     `toml:"daemon"`
	Appearance AppearanceConfig `toml:"appearance"`
	Log        LogConfig        `toml:"log"`
}

// GeneralConfig holds calculator defaults.
type GeneralConfig struct {
	DefaultCalculator string `toml:"default_calculator"`
	DefaultLoanType   string `toml:"default_loan_type"`
	DefaultStrategy   string `toml:"default_strategy"`
	DataDir           string `toml:"data_dir,omitempty"`
}

// RatesConfig controls where benchmark rates come from.
type RatesConfig struct {
	SnapshotPath   string `toml:"snapshot_path,omitempty"`
	SnapshotURL    string `toml:"snapshot_url,omitempty"`
	FredBaseURL    string `toml:"fred_base_url,omitempty"`
	ProxyURL       string `toml:"proxy_url,omitempty"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	CacheBackend   string `toml:"cache_backend"`
	RedisAddr      string `toml:"redis_addr,omitempty"`
}

// TaxConfig controls the property tax lookup.
type TaxConfig struct {
	CensusBaseURL string `toml:"census_base_url,omitempty"`
	Disabled      bool   `toml:"disabled"`
}

// DaemonConfig controls the background rate refresher.
type DaemonConfig struct {
	Addr            string `toml:"addr"`
	IntervalMinutes int    `toml:"interval_minutes"`
	SnapshotOut     string `toml:"snapshot_out,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Cache backends.
const (
	CacheSQLite = "sqlite"
	CacheRedis  = "redis"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			DefaultCalculator: "afford",
			DefaultLoanType:   LoanTypes[0].ID,
			DefaultStrategy:   Strategies[DefaultStrategyIndex].ID,
		},
		Rates: RatesConfig{
			TimeoutSeconds: 10,
			CacheBackend:   CacheSQLite,
		},
		Daemon: DaemonConfig{
			Addr:            "127.0.0.1:8797",
			IntervalMinutes: 360,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// RequestTimeout returns the per-request network timeout.
func (c RatesConfig) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Interval returns the daemon refresh interval.
func (c DaemonConfig) Interval() time.Duration {
	if c.IntervalMinutes <= 0 {
		return 6 * time.Hour
	}
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "homecalc")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "homecalc")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DataDir returns the directory holding the state database and snapshot.
func DataDir(cfg Config) string {
	if cfg.General.DataDir != "" {
		return cfg.General.DataDir
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "homecalc")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "homecalc")
}

// StatePath returns the SQLite state database path.
func StatePath(cfg Config) string {
	return filepath.Join(DataDir(cfg), "state.db")
}

// SnapshotPath returns the static rate snapshot location.
func SnapshotPath(cfg Config) string {
	if cfg.Rates.SnapshotPath != "" {
		return cfg.Rates.SnapshotPath
	}
	return filepath.Join(DataDir(cfg), "rates.json")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config at path, returning defaults if it doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // path is the user's config location
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv lets environment variables override file settings.
func applyEnv(cfg *Config) {
	if addr := os.Getenv("HOMECALC_REDIS_ADDR"); addr != "" {
		cfg.Rates.RedisAddr = addr
		cfg.Rates.CacheBackend = CacheRedis
	}
	if level := os.Getenv("HOMECALC_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

// SaveTo writes the config to path.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // user config path
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
