package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/theirongolddev/homecalc/internal/report"

	"github.com/spf13/cobra"
)

var (
	flagExportOut  string
	flagExportRefi bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export results",
}

var exportPDFCmd = &cobra.Command{
	Use:   "pdf",
	Short: "Write a PDF report of the saved inputs",
	RunE:  runExportPDF,
}

func init() {
	exportPDFCmd.Flags().StringVarP(&flagExportOut, "out", "o", "homecalc-report.pdf", "Output file")
	exportPDFCmd.Flags().BoolVar(&flagExportRefi, "refi", true, "Include the refinance section when a loan is entered")
	exportCmd.AddCommand(exportPDFCmd)
	rootCmd.AddCommand(exportCmd)
}

func runExportPDF(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	ev := rt.evaluate(ctx)
	in := reportInput(ev)
	if !flagExportRefi {
		in.Refi = nil
	}

	data, err := report.Generate(in)
	if err != nil {
		return err
	}
	if err := os.WriteFile(flagExportOut, data, 0o644); err != nil { //nolint:gosec // user-chosen output
		return fmt.Errorf("writing report: %w", err)
	}
	fmt.Printf("  Wrote %s\n", flagExportOut)
	return nil
}

// reportInput maps an evaluation onto the report sections.
func reportInput(ev evaluation) report.Input {
	in := report.Input{
		GeneratedAt: timeNow(),
		Afford:      ev.Afford,
		LoanLabel:   ev.Loan.Label,
		RateSource:  describeRate(ev.Resolution),
		Health:      ev.Health,
		Fits:        ev.Fits,
		Rates:       ev.Rates.Payload,
	}
	if ev.Tax != nil {
		in.ZIPName = ev.Tax.ZIPName
	}
	if ev.Refi.Balance > 0 && ev.Refi.CurrentRate > 0 {
		refi := ev.Refi
		in.Refi = &refi
		in.Recommendation = ev.Recommendation
		in.Timeline = ev.Timeline
	}
	return in
}
