package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/theirongolddev/homecalc/internal/config"
	"github.com/theirongolddev/homecalc/internal/tui/theme"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	cfg, _ := config.Load()

	fmt.Println()
	fmt.Println("  Welcome to homecalc!")
	fmt.Println()

	loanOpts := make([]huh.Option[string], 0, len(config.LoanTypes))
	for _, lt := range config.LoanTypes {
		loanOpts = append(loanOpts, huh.NewOption(lt.Label, lt.ID))
	}
	strategyOpts := make([]huh.Option[string], 0, len(config.Strategies))
	for _, s := range config.Strategies {
		strategyOpts = append(strategyOpts, huh.NewOption(fmt.Sprintf("%s (%.0f%% of income)", s.Label, s.Ratio*100), s.ID))
	}
	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(t.Name, t.Name))
	}

	taxLookup := !cfg.Tax.Disabled
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Default calculator").
				Options(
					huh.NewOption("Affordability", "afford"),
					huh.NewOption("Refinance", "refi"),
				).
				Value(&cfg.General.DefaultCalculator),
			huh.NewSelect[string]().
				Title("Default loan type").
				Options(loanOpts...).
				Value(&cfg.General.DefaultLoanType),
			huh.NewSelect[string]().
				Title("Budget strategy").
				Options(strategyOpts...).
				Value(&cfg.General.DefaultStrategy),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Rate cache").
				Description("Redis lets several machines share one cache.").
				Options(
					huh.NewOption("Local SQLite", config.CacheSQLite),
					huh.NewOption("Redis", config.CacheRedis),
				).
				Value(&cfg.Rates.CacheBackend),
			huh.NewInput().
				Title("Redis address").
				Description("Only used with the Redis cache.").
				Placeholder("localhost:6379").
				Value(&cfg.Rates.RedisAddr).
				Validate(func(s string) error {
					if cfg.Rates.CacheBackend == config.CacheRedis && strings.TrimSpace(s) == "" {
						return errors.New("address required for the redis cache")
					}
					return nil
				}),
			huh.NewConfirm().
				Title("Look up property tax by ZIP?").
				Affirmative("Yes").
				Negative("No").
				Value(&taxLookup),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&cfg.Appearance.Theme),
		),
	).WithTheme(huh.ThemeCharm())

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled.")
			return nil
		}
		return fmt.Errorf("setup form: %w", err)
	}
	cfg.Tax.Disabled = !taxLookup
	cfg.Rates.RedisAddr = strings.TrimSpace(cfg.Rates.RedisAddr)

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Run `homecalc setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}
