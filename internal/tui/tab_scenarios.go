package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/homecalc/internal/cli"
	"github.com/theirongolddev/homecalc/internal/model"
	"github.com/theirongolddev/homecalc/internal/tui/components"
	"github.com/theirongolddev/homecalc/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

func (a App) renderScenariosTab(cw int) string {
	t := theme.Active
	inner := components.CardInnerWidth(cw)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	selStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceHover).Bold(true)
	headStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	items := a.scenarioItems()
	var lines []string
	section := ""
	for i, it := range items {
		heading := "Saved scenarios"
		if it.preset != nil {
			heading = "Presets"
		}
		if heading != section {
			if section != "" {
				lines = append(lines, "")
			}
			lines = append(lines, headStyle.Render(heading))
			section = heading
		}

		label, detail := scenarioLine(it)
		line := fmt.Sprintf("  %s  %s", truncStr(label, 32), detail)
		line = truncStr(line, inner)
		switch {
		case i == a.scenCursor:
			lines = append(lines, selStyle.Render(line))
		case it.preset != nil:
			lines = append(lines, dimStyle.Render(line))
		default:
			lines = append(lines, rowStyle.Render(line))
		}
	}
	if len(a.snap.Scenarios) == 0 {
		lines = append([]string{dimStyle.Render("No saved scenarios yet."), ""}, lines...)
	}

	body := strings.Join(lines, "\n") + "\n\n" + hint("n save current  enter load  d delete  j/k move")
	return components.ContentCard("Scenarios", body, cw)
}

func scenarioLine(it scenarioItem) (label, detail string) {
	if it.preset != nil {
		kind := "afford"
		if it.calc == model.CalcRefi {
			kind = "refi"
		}
		return it.preset.Label, kind
	}
	sc := it.scenario
	qs := sc.QuickStats
	if sc.ActiveCalc == model.CalcRefi {
		detail = fmt.Sprintf("refi  saves %s/mo  break-even %s",
			cli.FormatMoney(qs.MonthlySavings), cli.FormatMonths(qs.BreakEvenMonths))
	} else {
		detail = fmt.Sprintf("afford  %s  %s/mo",
			cli.FormatMoney(qs.HomePrice), cli.FormatMoney(qs.TotalMonthly))
	}
	return sc.Name, detail + "  " + sc.CreatedAt.Format("Jan 2")
}
