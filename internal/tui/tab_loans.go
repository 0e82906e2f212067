package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/homecalc/internal/amortize"
	"github.com/theirongolddev/homecalc/internal/cli"
	"github.com/theirongolddev/homecalc/internal/tui/components"
	"github.com/theirongolddev/homecalc/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderLoansTab(cw int) string {
	if a.ev.Afford.AnnualIncome <= 0 || len(a.ev.Options) == 0 {
		return components.ContentCard("Loan options", hint("Enter your income on the Afford tab first."), cw)
	}
	t := theme.Active
	inner := components.CardInnerWidth(cw)

	headStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceHover).Bold(true)

	labelW := 0
	for _, o := range a.ev.Options {
		labelW = max(labelW, len(o.Label))
	}
	labelW = min(labelW, max(12, inner-62))
	format := fmt.Sprintf("%%-%ds %%7s %%11s %%11s %%9s %%7s %%10s", labelW)

	lines := []string{headStyle.Render(fmt.Sprintf(format, "Loan", "Rate", "Max price", "Loan", "P&I", "PMI", "Total/mo"))}
	for _, o := range a.ev.Options {
		line := fmt.Sprintf(format,
			truncStr(o.Label, labelW),
			cli.FormatPercent(o.Rate),
			cli.FormatMoney(o.HomePrice),
			cli.FormatMoney(o.LoanAmount),
			cli.FormatMoney(o.MonthlyPI),
			cli.FormatMoney(o.PMIMonthly),
			cli.FormatMoney(o.TotalMonthly),
		)
		if o.LoanID == a.ev.Loan.ID {
			lines = append(lines, selStyle.Render(line))
		} else {
			lines = append(lines, rowStyle.Render(line))
		}
	}
	table := strings.Join(lines, "\n") + "\n\n" + hint("t cycles the selected loan type")

	widths := components.LayoutRow(cw, 2)
	fitRows := make([][2]string, 0, len(a.ev.Fits))
	for i, f := range a.ev.Fits {
		fitRows = append(fitRows, [2]string{
			fmt.Sprintf("%d. %s", i+1, f.Label),
			cli.FormatMoney(f.ComparableTotalMonthly) + "/mo",
		})
	}
	fits := kvBlock(fitRows) + "\n" +
		hint("at "+cli.FormatMoney(a.ev.Afford.EstimatedHomePrice))

	return components.ContentCard("Loan options", table, cw) + "\n" +
		components.CardRow([]string{
			components.ContentCard("Best fits", fits, widths[0]),
			components.ContentCard("Balance by year", a.balanceChart(components.CardInnerWidth(widths[1])), widths[1]),
		})
}

// balanceChart plots the remaining balance of the selected loan at the
// end of each year.
func (a App) balanceChart(width int) string {
	sel := a.ev.Selected
	if sel == nil || sel.LoanAmount <= 0 {
		return hint("No loan to chart.")
	}
	years := amortize.ByYear(amortize.Schedule(sel.LoanAmount, sel.Rate, sel.Years, a.opts.Now()))
	values := make([]float64, len(years))
	labels := make([]string, len(years))
	for i, y := range years {
		values[i] = y.RemainingBalance.InexactFloat64()
		labels[i] = fmt.Sprintf("%d", y.Year)
	}
	return components.BarChart(values, labels, theme.Active.Accent, width, 8)
}

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
