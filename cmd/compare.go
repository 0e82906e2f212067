package cmd

import (
	"context"
	"fmt"

	"github.com/theirongolddev/homecalc/internal/cli"

	"github.com/spf13/cobra"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare every loan type at your budget",
	RunE:  runCompare,
}

func init() {
	addCalculatorFlags(compareCmd)
	rootCmd.AddCommand(compareCmd)
}

func runCompare(c *cobra.Command, _ []string) error {
	ctx := context.Background()
	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	if rt.snap, err = applyAffordFlags(c, rt.snap); err != nil {
		return err
	}
	ev := rt.evaluate(ctx)
	if err := rt.save(ctx); err != nil {
		rt.log.WithError(err).Warn("saving state")
	}

	if ev.Afford.AnnualIncome <= 0 {
		fmt.Println("\n  No income entered yet. Run `homecalc afford --income N` first.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("LOAN OPTIONS  %s/mo budget", cli.FormatMoney(ev.Afford.MaxHousingBudget))))
	fmt.Println()

	rows := make([][]string, 0, len(ev.Options))
	for _, o := range ev.Options {
		label := o.Label
		if o.LoanID == ev.Loan.ID {
			label = "* " + label
		}
		rows = append(rows, []string{
			label,
			cli.FormatPercent(o.Rate),
			string(o.Source),
			cli.FormatMoney(o.HomePrice),
			cli.FormatMoney(o.LoanAmount),
			cli.FormatMoney(o.MonthlyPI),
			cli.FormatMoney(o.PMIMonthly),
			cli.FormatMoney(o.TotalMonthly),
			cli.FormatMoney(o.TotalInterest),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Loan", "Rate", "Source", "Max Price", "Loan", "P&I", "PMI", "Total/mo", "Interest"},
		Rows:    rows,
	}))
	fmt.Print(cli.RenderNote("* selected loan type. Sorted by rate, then monthly total."))

	if len(ev.Fits) > 0 {
		fmt.Println()
		fmt.Print(renderFits(ev.Fits))
		fmt.Print(cli.RenderNote(fmt.Sprintf("Monthly cost of each loan at the estimated price of %s.", cli.FormatMoney(ev.Afford.EstimatedHomePrice))))
	}

	printRatesFooter(ev.Rates.Payload)
	return nil
}
