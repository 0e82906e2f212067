// Package cmd implements the homecalc CLI commands.
package cmd

import (
	"fmt"
	"net/url"

	"github.com/theirongolddev/homecalc/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Default calculator: %s\n", cfg.General.DefaultCalculator)
	fmt.Printf("    Default loan type:  %s\n", config.LoanTypeOrDefault(cfg.General.DefaultLoanType).Label)
	fmt.Printf("    Default strategy:   %s\n", cfg.General.DefaultStrategy)
	fmt.Printf("    Data directory:     %s\n", config.DataDir(cfg))
	fmt.Println()

	fmt.Println("  [Rates]")
	fmt.Printf("    Snapshot:      %s\n", config.SnapshotPath(cfg))
	if cfg.Rates.SnapshotURL != "" {
		fmt.Printf("    Snapshot URL:  %s\n", cfg.Rates.SnapshotURL)
	}
	if cfg.Rates.FredBaseURL != "" {
		fmt.Printf("    FRED base URL: %s\n", cfg.Rates.FredBaseURL)
	}
	if cfg.Rates.ProxyURL != "" {
		fmt.Printf("    Proxy:         %s\n", redactURL(cfg.Rates.ProxyURL))
	}
	fmt.Printf("    Timeout:       %s\n", cfg.Rates.RequestTimeout())
	fmt.Printf("    Cache:         %s", cfg.Rates.CacheBackend)
	if cfg.Rates.CacheBackend == config.CacheRedis {
		fmt.Printf(" (%s)", cfg.Rates.RedisAddr)
	}
	fmt.Println()
	fmt.Println()

	fmt.Println("  [Tax]")
	if cfg.Tax.Disabled {
		fmt.Println("    ZIP lookup: disabled")
	} else {
		fmt.Println("    ZIP lookup: enabled")
	}
	if cfg.Tax.CensusBaseURL != "" {
		fmt.Printf("    Census base URL: %s\n", cfg.Tax.CensusBaseURL)
	}
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Listen:   %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Interval: %s\n", cfg.Daemon.Interval())
	if cfg.Daemon.SnapshotOut != "" {
		fmt.Printf("    Writes:   %s\n", cfg.Daemon.SnapshotOut)
	}
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Log]")
	fmt.Printf("    Level:  %s\n", cfg.Log.Level)
	fmt.Printf("    Format: %s\n", cfg.Log.Format)
	fmt.Println()

	fmt.Println("  Run `homecalc setup` to reconfigure.")
	return nil
}

// redactURL hides any password in a proxy URL.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "****"
	}
	return u.Redacted()
}
