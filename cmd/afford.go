package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/theirongolddev/homecalc/internal/calc"
	"github.com/theirongolddev/homecalc/internal/cli"
	"github.com/theirongolddev/homecalc/internal/config"
	"github.com/theirongolddev/homecalc/internal/model"
	"github.com/theirongolddev/homecalc/internal/rates"
	"github.com/theirongolddev/homecalc/internal/state"

	"github.com/spf13/cobra"
)

var affordCmd = &cobra.Command{
	Use:   "afford",
	Short: "Estimate the home price your income supports",
	RunE:  runAfford,
}

func init() {
	addCalculatorFlags(affordCmd)
	rootCmd.AddCommand(affordCmd)
}

// affordFlagFields maps flag names onto AffordInputs JSON keys.
var affordFlagFields = []struct{ flag, key, usage string }{
	{"income", "annualIncome", "Annual gross income"},
	{"expenses", "expenses", "Monthly non-housing debt payments"},
	{"down", "downPayment", "Down payment"},
	{"closing", "closingCosts", "Closing costs (flat amount)"},
	{"closing-rate", "closingCostRate", "Closing costs as a percent of price"},
	{"hoa", "hoaAnnual", "Annual HOA dues"},
	{"zip", "zipCode", "ZIP code for the property tax lookup"},
	{"rate", "rate", "Manual interest rate (percent)"},
}

// addCalculatorFlags registers the affordability inputs and selections.
// Values are only applied when the flag is set, so saved inputs carry over.
func addCalculatorFlags(c *cobra.Command) {
	for _, f := range affordFlagFields {
		c.Flags().String(f.flag, "", f.usage)
	}
	c.Flags().String("loan", "", "Loan type id (see `homecalc compare`)")
	c.Flags().String("mode", "", "Rate mode: live, credit or manual")
	c.Flags().String("credit", "", "Credit score bucket id, e.g. 740-759")
	c.Flags().String("strategy", "", "Strategy: conservative, standard or stretch")
	c.Flags().String("insurance", "", "Monthly insurance override")
	c.Flags().String("pmi-rate", "", "Annual PMI rate override (percent)")
	c.Flags().String("tax-rate", "", "Annual property tax rate override (percent)")
}

// applyAffordFlags overlays set flags onto the snapshot.
func applyAffordFlags(c *cobra.Command, snap state.Snapshot) (state.Snapshot, error) {
	raw := map[string]any{}
	for _, f := range affordFlagFields {
		if c.Flags().Changed(f.flag) {
			v, _ := c.Flags().GetString(f.flag)
			raw[f.key] = v
		}
	}
	if len(raw) > 0 {
		snap.Afford = state.MergeAfford(snap.Afford, raw, true)
	}

	settings := map[string]any{"activeCalc": string(model.CalcAfford)}
	if v, ok := changedString(c, "loan"); ok {
		if _, found := config.LookupLoanType(v); !found {
			return snap, fmt.Errorf("unknown loan type %q (valid: %s)", v, loanTypeIDs())
		}
		settings["loanTypeId"] = v
	}
	if v, ok := changedString(c, "mode"); ok {
		m := model.RateMode(v)
		if !m.Valid() || m == model.ModeTarget {
			return snap, fmt.Errorf("invalid rate mode %q (valid: live, credit, manual)", v)
		}
		settings["rateMode"] = v
	}
	if v, ok := changedString(c, "credit"); ok {
		if _, found := config.LookupCreditScore(v); !found {
			return snap, fmt.Errorf("unknown credit score bucket %q (valid: %s)", v, creditIDs())
		}
		settings["creditScoreId"] = v
	}
	if v, ok := changedString(c, "strategy"); ok {
		i, found := config.LookupStrategy(v)
		if !found {
			return snap, fmt.Errorf("unknown strategy %q", v)
		}
		settings["strategyIndex"] = float64(i)
	}
	for flag, key := range map[string]string{
		"insurance": "insuranceOverride",
		"pmi-rate":  "pmiRateOverride",
		"tax-rate":  "taxRateOverride",
	} {
		if v, ok := changedString(c, flag); ok {
			settings[key] = v
		}
	}
	snap.Settings = state.MergeSettings(snap.Settings, settings)
	return snap, nil
}

func changedString(c *cobra.Command, name string) (string, bool) {
	if c.Flags().Lookup(name) == nil || !c.Flags().Changed(name) {
		return "", false
	}
	v, _ := c.Flags().GetString(name)
	return strings.TrimSpace(v), true
}

func loanTypeIDs() string {
	ids := make([]string, 0, len(config.LoanTypes))
	for _, lt := range config.LoanTypes {
		ids = append(ids, lt.ID)
	}
	return strings.Join(ids, ", ")
}

func creditIDs() string {
	ids := make([]string, 0, len(config.CreditScores))
	for _, b := range config.CreditScores {
		ids = append(ids, b.ID)
	}
	return strings.Join(ids, ", ")
}

func runAfford(c *cobra.Command, _ []string) error {
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

	r := ev.Afford
	if r.AnnualIncome <= 0 {
		fmt.Println()
		fmt.Println("  No income entered yet.")
		fmt.Println("  Try: homecalc afford --income 95000 --down 20000 --zip 94110")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("HOME AFFORDABILITY"))
	fmt.Println()

	strategy := config.StrategyAt(rt.snap.Settings.StrategyIndex)
	rows := [][]string{
		{"Annual Income", cli.FormatMoney(r.AnnualIncome)},
		{"Gross Monthly", cli.FormatMoney(r.GrossMonthly)},
		{"Strategy", fmt.Sprintf("%s (%s)", strategy.Label, cli.FormatRatioPercent(r.Ratio))},
		{"Housing Budget", cli.FormatMoney(r.MaxHousingBudget) + "/mo"},
		{"---"},
		{"Loan Type", ev.Loan.Label},
		{"Rate", describeRate(ev.Resolution)},
		{"---"},
		{"Estimated Price", cli.FormatMoney(r.EstimatedHomePrice)},
		{"Range", cli.FormatMoney(r.Conservative) + " - " + cli.FormatMoney(r.Optimistic)},
		{"Down Payment", cli.FormatMoney(r.DownPayment)},
		{"Loan Amount", cli.FormatMoney(r.LoanAmount)},
		{"LTV", cli.FormatRatioPercent(r.LTV)},
		{"Closing Costs", describeClosing(r)},
		{"---"},
		{"Principal & Interest", cli.FormatMoney(r.MonthlyPI)},
		{"Property Tax", fmt.Sprintf("%s (%s)", cli.FormatMoney(r.PropertyTax), describeTax(r, ev))},
		{"Insurance", cli.FormatMoney(r.InsuranceMonthly)},
		{"HOA", cli.FormatMoney(r.HOAMonthly)},
		{"PMI", cli.FormatMoney(r.PMIMonthly)},
		{"Total Monthly", cli.FormatMoney(r.TotalMonthly)},
	}
	fmt.Print(cli.RenderTable(cli.Table{Headers: []string{"Metric", "Value"}, Rows: rows}))

	fmt.Println()
	fmt.Printf("  Health: %s  %s of gross income\n",
		cli.RenderVerdict(ev.Health.Label, healthLevel(ev.Health)),
		cli.FormatRatioPercent(ev.Health.Ratio))
	fmt.Print(cli.RenderNote(ev.Health.Note))

	if len(ev.Fits) > 0 {
		fmt.Println()
		fmt.Print(renderFits(ev.Fits))
	}

	printRatesFooter(ev.Rates.Payload)
	return nil
}

// describeRate explains where the effective rate came from.
func describeRate(res rates.Resolution) string {
	rate := cli.FormatPercent(res.Rate)
	switch res.Source {
	case rates.SourceManual:
		return rate + " (manual)"
	case rates.SourceManualFallback:
		return rate + " (manual fallback, no market data)"
	}
	detail := string(res.SeriesID)
	if res.Observation != nil {
		if d, ok := res.Observation.CalendarDate(); ok {
			detail += ", " + cli.FormatRateDate(d)
		}
		if res.Observation.IsStale {
			detail += ", stale"
		}
	}
	if res.LoanAdjust != 0 || res.ScoreAdjust != 0 {
		detail += fmt.Sprintf(", base %s %+.3f", cli.FormatPercent(res.BaseRate), res.LoanAdjust+res.ScoreAdjust)
	}
	return fmt.Sprintf("%s (%s)", rate, detail)
}

func describeClosing(r calc.AffordResult) string {
	if r.ClosingCosts == r.ClosingCostsAuto && r.ClosingCostRateUsed > 0 {
		return fmt.Sprintf("%s (%s of price)", cli.FormatMoney(r.ClosingCosts), cli.FormatRatioPercent(r.ClosingCostRateUsed))
	}
	return cli.FormatMoney(r.ClosingCosts)
}

func describeTax(r calc.AffordResult, ev evaluation) string {
	switch r.TaxRateSource {
	case calc.TaxSourceOverride:
		return cli.FormatRatioPercent(r.TaxRate) + " override"
	case calc.TaxSourceZIP:
		if ev.Tax != nil && ev.Tax.ZIPName != "" {
			return cli.FormatRatioPercent(r.TaxRate) + " " + ev.Tax.ZIPName
		}
		return cli.FormatRatioPercent(r.TaxRate) + " by ZIP"
	default:
		return "no rate"
	}
}

func healthLevel(h calc.HealthAssessment) int {
	switch h.Severity() {
	case 0:
		return cli.LevelGood
	case 1:
		return cli.LevelWarn
	default:
		return cli.LevelBad
	}
}

func renderFits(fits []calc.LoanFit) string {
	rows := make([][]string, 0, len(fits))
	for i, f := range fits {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			f.Label,
			cli.FormatPercent(f.Rate),
			cli.FormatMoney(f.ComparableTotalMonthly),
			cli.FormatMoney(f.HomePrice),
		})
	}
	return cli.RenderTable(cli.Table{
		Title:   "Best Loan Fits",
		Headers: []string{"#", "Loan", "Rate", "Monthly @ Price", "Max Price"},
		Rows:    rows,
	})
}

// printRatesFooter notes the age of the market data and suggests a
// refresh when it is old.
func printRatesFooter(p *model.RatesPayload) {
	fmt.Println()
	if !p.HasData() {
		fmt.Print(cli.RenderWarning("Market rates unavailable. Run `homecalc rates refresh` or use --mode manual --rate N."))
		return
	}
	now := timeNow()
	line := fmt.Sprintf("Rates fetched %s from %s", cli.FormatAge(p.FetchedTime(), now), p.Source)
	if rates.NeedsRefresh(p.FetchedTime(), now) {
		fmt.Print(cli.RenderWarning(line + ". Refresh suggested: homecalc rates refresh"))
		return
	}
	fmt.Print(cli.RenderNote(line))
}
