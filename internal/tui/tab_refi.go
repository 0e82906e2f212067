package tui

import (
	"fmt"
	"math"

	"github.com/theirongolddev/homecalc/internal/cli"
	"github.com/theirongolddev/homecalc/internal/config"
	"github.com/theirongolddev/homecalc/internal/model"
	"github.com/theirongolddev/homecalc/internal/tui/components"
	"github.com/theirongolddev/homecalc/internal/tui/theme"
)

func (a App) renderRefiTab(cw int) string {
	r := a.ev.Refi
	if r.Balance <= 0 || r.CurrentRate <= 0 {
		return components.ContentCard("Refinance",
			kvBlock([][2]string{{"Current loan", "not entered"}})+"\n\n"+
				hint("Press e to enter your balance and rate, or s to pick a preset."), cw)
	}

	t := theme.Active
	rec := a.ev.Recommendation
	newRateNote := rateNote(a.ev.RefiResolution)
	if r.Mode == model.ModeTarget {
		newRateNote = "solved for " + cli.FormatMonths(int(r.TargetMonths))
		if !r.TargetAchievable {
			newRateNote = "target not achievable"
		}
	}

	metrics := []components.Metric{
		{Label: "Monthly savings", Value: cli.FormatMoney(r.MonthlySavings),
			Note: cli.FormatMoney(r.CurrentPayment) + " → " + cli.FormatMoney(r.NewPayment)},
		{Label: "Break-even", Value: cli.FormatMonths(r.BreakEvenMonths),
			Note: rec.Label, Color: t.Level(rec.Severity())},
		{Label: "New rate", Value: cli.FormatPercent(r.NewRate), Note: newRateNote},
		{Label: "Closing costs", Value: cli.FormatMoney(r.ClosingCosts)},
	}
	row := components.MetricCardRow(metrics, cw)

	widths := components.LayoutRow(cw, 2)
	credit := config.CreditScoreOrDefault(a.snap.Settings.RefiCreditScoreID)
	rows := [][2]string{
		{"Balance", cli.FormatMoney(r.Balance)},
		{"Current rate", cli.FormatPercent(r.CurrentRate)},
		{"Current payment", cli.FormatMoney(r.CurrentPayment)},
		{"---", ""},
		{"New loan", a.ev.RefiLoan.Label},
		{"Rate mode", modeLabel(a.snap.Settings.RefiRateMode)},
		{"Credit score", credit.Label},
	}
	if r.Mode == model.ModeTarget {
		target := "not achievable"
		if r.TargetAchievable {
			target = "at most " + cli.FormatPercent(r.TargetRate)
		}
		rows = append(rows, [2]string{"Required rate", target})
	}
	loan := kvBlock(rows) + "\n\n" + hint("e edit  t loan  v mode  g credit")

	verdict := kvBlock([][2]string{{"Verdict", rec.Label}}) + "\n" + hint(rec.Note)
	if r.MonthlySavings > 0 {
		verdict += "\n\n" + a.timeline(components.CardInnerWidth(widths[1]))
	}

	return row + "\n" + components.CardRow([]string{
		components.ContentCard("Your loan", loan, widths[0]),
		components.ContentCard("Savings", verdict, widths[1]),
	})
}

// timeline lists net savings per horizon with a bar scaled to the widest
// horizon.
func (a App) timeline(width int) string {
	maxNet := 0.0
	for _, p := range a.ev.Timeline {
		maxNet = max(maxNet, math.Abs(p.Net))
	}
	rows := make([][2]string, 0, len(a.ev.Timeline))
	barW := max(4, width-30)
	for _, p := range a.ev.Timeline {
		rows = append(rows, [2]string{
			cli.FormatMonths(p.Months),
			fmt.Sprintf("%-10s ", cli.FormatMoney(p.Net)) + cli.RenderBar(p.Net, maxNet, barW),
		})
	}
	return kvBlock(rows)
}
