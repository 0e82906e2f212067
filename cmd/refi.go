package cmd

import (
	"context"
	"fmt"
	"math"

	"github.com/theirongolddev/homecalc/internal/calc"
	"github.com/theirongolddev/homecalc/internal/cli"
	"github.com/theirongolddev/homecalc/internal/config"
	"github.com/theirongolddev/homecalc/internal/model"
	"github.com/theirongolddev/homecalc/internal/state"

	"github.com/spf13/cobra"
)

var refiCmd = &cobra.Command{
	Use:   "refi",
	Short: "Compare your current mortgage with a refinance",
	RunE:  runRefi,
}

var refiFlagFields = []struct{ flag, key, usage string }{
	{"balance", "balance", "Remaining loan balance"},
	{"current-rate", "currentRate", "Current interest rate (percent)"},
	{"new-rate", "newRate", "New interest rate for manual mode (percent)"},
	{"closing", "closingCosts", "Refinance closing costs"},
	{"target-months", "targetMonths", "Break-even target in months (target mode)"},
}

func init() {
	addRefiFlags(refiCmd)
	rootCmd.AddCommand(refiCmd)
}

func addRefiFlags(c *cobra.Command) {
	for _, f := range refiFlagFields {
		c.Flags().String(f.flag, "", f.usage)
	}
	c.Flags().String("loan", "", "Loan type id for the new loan")
	c.Flags().String("mode", "", "Rate mode: live, credit, manual or target")
	c.Flags().String("credit", "", "Credit score bucket id")
}

func applyRefiFlags(c *cobra.Command, snap state.Snapshot) (state.Snapshot, error) {
	raw := map[string]any{}
	for _, f := range refiFlagFields {
		if v, ok := changedString(c, f.flag); ok {
			raw[f.key] = v
		}
	}
	if len(raw) > 0 {
		snap.Refi = state.MergeRefi(snap.Refi, raw, true)
	}

	settings := map[string]any{"activeCalc": string(model.CalcRefi)}
	if v, ok := changedString(c, "loan"); ok {
		if _, found := config.LookupLoanType(v); !found {
			return snap, fmt.Errorf("unknown loan type %q (valid: %s)", v, loanTypeIDs())
		}
		settings["refiLoanTypeId"] = v
	}
	if v, ok := changedString(c, "mode"); ok {
		if !model.RateMode(v).Valid() {
			return snap, fmt.Errorf("invalid rate mode %q (valid: live, credit, manual, target)", v)
		}
		settings["refiRateMode"] = v
	}
	if v, ok := changedString(c, "credit"); ok {
		if _, found := config.LookupCreditScore(v); !found {
			return snap, fmt.Errorf("unknown credit score bucket %q (valid: %s)", v, creditIDs())
		}
		settings["refiCreditScoreId"] = v
	}
	snap.Settings = state.MergeSettings(snap.Settings, settings)
	return snap, nil
}

func runRefi(c *cobra.Command, _ []string) error {
	ctx := context.Background()
	rt, err := openRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	if rt.snap, err = applyRefiFlags(c, rt.snap); err != nil {
		return err
	}
	ev := rt.evaluate(ctx)
	if err := rt.save(ctx); err != nil {
		rt.log.WithError(err).Warn("saving state")
	}

	r := ev.Refi
	if r.Balance <= 0 || r.CurrentRate <= 0 {
		fmt.Println()
		fmt.Println("  No current loan entered yet.")
		fmt.Println("  Try: homecalc refi --balance 320000 --current-rate 7.1 --closing 6500")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("REFINANCE"))
	fmt.Println()

	rows := [][]string{
		{"Balance", cli.FormatMoney(r.Balance)},
		{"Current Rate", cli.FormatPercent(r.CurrentRate)},
		{"New Loan", ev.RefiLoan.Label},
	}
	if r.Mode == model.ModeTarget {
		rows = append(rows, []string{"Target Break-even", cli.FormatMonths(int(r.TargetMonths))})
		if r.TargetAchievable {
			rows = append(rows, []string{"Required Rate", "at most " + cli.FormatPercent(r.TargetRate)})
		} else {
			rows = append(rows, []string{"Required Rate", "not achievable"})
		}
	} else {
		rows = append(rows, []string{"New Rate", describeRate(ev.RefiResolution)})
	}
	rows = append(rows,
		[]string{"Closing Costs", cli.FormatMoney(r.ClosingCosts)},
		[]string{"---"},
		[]string{"Current Payment", cli.FormatMoney(r.CurrentPayment)},
		[]string{"New Payment", cli.FormatMoney(r.NewPayment)},
		[]string{"Monthly Savings", cli.FormatMoney(r.MonthlySavings)},
		[]string{"Break-even", cli.FormatMonths(r.BreakEvenMonths)},
	)
	fmt.Print(cli.RenderTable(cli.Table{Headers: []string{"Metric", "Value"}, Rows: rows}))

	fmt.Println()
	fmt.Printf("  Verdict: %s\n", cli.RenderVerdict(ev.Recommendation.Label, recommendationLevel(ev.Recommendation)))
	fmt.Print(cli.RenderNote(ev.Recommendation.Note))

	if r.MonthlySavings > 0 {
		fmt.Println()
		fmt.Print(renderTimeline(ev.Timeline))
	}

	if r.Mode != model.ModeManual && r.Mode != model.ModeTarget {
		printRatesFooter(ev.Rates.Payload)
	}
	return nil
}

func recommendationLevel(r calc.Recommendation) int {
	switch r.Severity() {
	case 0:
		return cli.LevelGood
	case 1:
		return cli.LevelWarn
	default:
		return cli.LevelBad
	}
}

func renderTimeline(points []calc.TimelinePoint) string {
	maxNet := 0.0
	for _, p := range points {
		maxNet = max(maxNet, math.Abs(p.Net))
	}
	rows := make([][]string, 0, len(points))
	for _, p := range points {
		rows = append(rows, []string{
			cli.FormatMonths(p.Months),
			cli.FormatMoney(p.Gross),
			cli.FormatMoney(p.Net),
			cli.RenderBar(p.Net, maxNet, 20),
		})
	}
	return cli.RenderTable(cli.Table{
		Title:   "Savings Timeline",
		Headers: []string{"Horizon", "Gross", "Net of Costs", ""},
		Rows:    rows,
	})
}
