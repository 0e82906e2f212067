package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/homecalc/internal/calc"
	"github.com/theirongolddev/homecalc/internal/census"
	"github.com/theirongolddev/homecalc/internal/cli"
	"github.com/theirongolddev/homecalc/internal/config"
	"github.com/theirongolddev/homecalc/internal/model"
	"github.com/theirongolddev/homecalc/internal/rates"
	"github.com/theirongolddev/homecalc/internal/tui/components"
	"github.com/theirongolddev/homecalc/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// kvBlock renders aligned label/value rows on the card surface.
func kvBlock(rows [][2]string) string {
	t := theme.Active
	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	sepStyle := lipgloss.NewStyle().Foreground(t.Border).Background(t.Surface)

	labelW := 0
	for _, r := range rows {
		labelW = max(labelW, lipgloss.Width(r[0]))
	}
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		if r[0] == "---" {
			lines = append(lines, sepStyle.Render(strings.Repeat("─", labelW+12)))
			continue
		}
		lines = append(lines, labelStyle.Render(fmt.Sprintf("%-*s  ", labelW, r[0]))+valueStyle.Render(r[1]))
	}
	return strings.Join(lines, "\n")
}

func hint(text string) string {
	t := theme.Active
	return lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render(text)
}

// rateNote says where a resolved rate came from.
func rateNote(res rates.Resolution) string {
	switch res.Source {
	case rates.SourceManual:
		return "manual"
	case rates.SourceManualFallback:
		return "no market data"
	case rates.SourceStaleSeries:
		return string(res.SeriesID) + " (stale)"
	}
	return string(res.SeriesID)
}

func modeLabel(m model.RateMode) string {
	switch m {
	case model.ModeCredit:
		return "Live + credit score"
	case model.ModeManual:
		return "Manual"
	case model.ModeTarget:
		return "Target break-even"
	default:
		return "Live market"
	}
}

func (a App) taxLabel() string {
	switch a.tax.Status {
	case census.StatusLoading:
		return "looking up…"
	case census.StatusReady:
		if a.tax.Result != nil {
			return fmt.Sprintf("%s (%s)", cli.FormatRatioPercent(a.tax.Result.Rate), a.tax.Result.ZIPName)
		}
	case census.StatusError:
		return "lookup failed"
	}
	return "-"
}

func (a App) renderAffordTab(cw int) string {
	r := a.ev.Afford
	if r.AnnualIncome <= 0 {
		return components.ContentCard("Affordability",
			kvBlock([][2]string{{"Income", "not entered"}})+"\n\n"+
				hint("Press e to enter your income, or s to pick a preset."), cw)
	}

	t := theme.Active
	total := r.TotalMonthly
	if a.ev.Selected != nil {
		total = a.ev.Selected.TotalMonthly
	}

	metrics := []components.Metric{
		{Label: "Estimated home price", Value: cli.FormatMoney(r.EstimatedHomePrice),
			Note: cli.FormatMoney(r.Conservative) + " – " + cli.FormatMoney(r.Optimistic)},
		{Label: "Total monthly", Value: cli.FormatMoney(total),
			Note: a.ev.Health.Label, Color: t.Level(a.ev.Health.Severity())},
		{Label: "Rate", Value: cli.FormatPercent(r.Rate), Note: rateNote(a.ev.Resolution)},
		{Label: "Housing budget", Value: cli.FormatMoney(r.MaxHousingBudget),
			Note: cli.FormatRatioPercent(r.Ratio) + " of gross"},
	}
	row := components.MetricCardRow(metrics, cw)

	widths := components.LayoutRow(cw, 2)
	payment := kvBlock([][2]string{
		{"Principal & interest", cli.FormatMoney(r.MonthlyPI)},
		{"Property tax", cli.FormatMoney(r.PropertyTax)},
		{"Insurance", cli.FormatMoney(r.InsuranceMonthly)},
		{"HOA", cli.FormatMoney(r.HOAMonthly)},
		{"PMI", cli.FormatMoney(r.PMIMonthly)},
		{"---", ""},
		{"Total", cli.FormatMoney(r.TotalMonthly)},
	})
	barW := max(10, components.CardInnerWidth(widths[0])-22)
	payment += "\n\n" + components.RatioGauge("Of gross", a.ev.Health.Ratio,
		calc.HealthyMaxRatio, calc.WatchlistMaxRatio, 0.5, 9, barW)
	payment += "\n" + hint(a.ev.Health.Note)

	strategy := config.StrategyAt(a.snap.Settings.StrategyIndex)
	credit := config.CreditScoreOrDefault(a.snap.Settings.CreditScoreID)
	inputs := kvBlock([][2]string{
		{"Annual income", cli.FormatMoney(r.AnnualIncome)},
		{"Monthly debts", cli.FormatMoney(r.Expenses)},
		{"Down payment", cli.FormatMoney(r.DownPayment)},
		{"ZIP tax rate", a.taxLabel()},
		{"---", ""},
		{"Loan type", a.ev.Loan.Label},
		{"Rate mode", modeLabel(a.snap.Settings.RateMode)},
		{"Credit score", credit.Label},
		{"Strategy", strategy.Label},
	})
	inputs += "\n\n" + hint("e edit  t loan  v mode  g credit  [ ] strategy  i assumptions")

	out := row + "\n" + components.CardRow([]string{
		components.ContentCard("Monthly payment", payment, widths[0]),
		components.ContentCard("Inputs", inputs, widths[1]),
	})
	if a.snap.Settings.ShowAssumptions {
		out += "\n" + components.ContentCard("Assumptions", a.assumptions(r), cw)
	}
	return out
}

func (a App) assumptions(r calc.AffordResult) string {
	closing := cli.FormatMoney(r.ClosingCosts)
	if r.ClosingCostRateUsed > 0 && r.ClosingCosts == r.ClosingCostsAuto {
		closing += " (" + cli.FormatRatioPercent(r.ClosingCostRateUsed) + " of price)"
	}
	tax := "none"
	switch r.TaxRateSource {
	case calc.TaxSourceOverride:
		tax = cli.FormatRatioPercent(r.TaxRate) + " (override)"
	case calc.TaxSourceZIP:
		tax = cli.FormatRatioPercent(r.TaxRate) + " (ZIP lookup)"
	}
	return kvBlock([][2]string{
		{"Loan term", fmt.Sprintf("%d years", r.Years)},
		{"Insurance", cli.FormatMoney(r.InsuranceMonthly) + "/mo"},
		{"PMI rate", cli.FormatRatioPercent(r.PMIAnnualRate) + " of loan, below 20% down"},
		{"Property tax", tax},
		{"Closing costs", closing},
		{"LTV", cli.FormatRatioPercent(r.LTV)},
	})
}
