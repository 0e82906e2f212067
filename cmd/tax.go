package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/theirongolddev/homecalc/internal/census"
	"github.com/theirongolddev/homecalc/internal/cli"
	"github.com/theirongolddev/homecalc/internal/numeric"

	"github.com/spf13/cobra"
)

var taxCmd = &cobra.Command{
	Use:   "tax <zip>",
	Short: "Look up the effective property tax rate for a ZIP code",
	Args:  cobra.ExactArgs(1),
	RunE:  runTax,
}

func init() {
	rootCmd.AddCommand(taxCmd)
}

func runTax(_ *cobra.Command, args []string) error {
	zip := numeric.SanitizeZIP(args[0])
	if !numeric.IsCompleteZIP(zip) {
		return census.ErrInvalidZIP
	}
	ctx := context.Background()
	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	if flagOffline {
		return errors.New("tax lookup needs the network; drop --offline")
	}

	progress("  Looking up %s...\n", zip)
	r, err := rt.censusClient().Fetch(ctx, zip)
	if err != nil {
		return fmt.Errorf("tax lookup for %s: %w", zip, err)
	}

	fmt.Println()
	fmt.Print(cli.RenderKeyValues(r.ZIPName, []cli.KV{
		{Key: "ZIP", Value: r.ZIP},
		{Key: "Median home value", Value: cli.FormatMoney(r.HomeValue)},
		{Key: "Median annual tax", Value: cli.FormatMoney(r.AnnualTax)},
		{Key: "Effective rate", Value: cli.FormatRatioPercent(r.Rate)},
	}))
	return nil
}
