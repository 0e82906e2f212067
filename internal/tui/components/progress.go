package components

import (
	"fmt"

	"github.com/theirongolddev/homecalc/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// ColorForRatio colors a housing-cost ratio by the health bands: green up
// to healthyMax, yellow up to watchMax, red beyond.
func ColorForRatio(ratio, healthyMax, watchMax float64) lipgloss.Color {
	t := theme.Active
	switch {
	case ratio <= healthyMax:
		return t.Green
	case ratio <= watchMax:
		return t.Yellow
	default:
		return t.Red
	}
}

// RatioGauge renders a labeled bar for a housing-cost ratio. The bar is
// scaled so that full width is scaleMax.
func RatioGauge(label string, ratio, healthyMax, watchMax, scaleMax float64, labelW, barWidth int) string {
	t := theme.Active

	fill := 0.0
	if scaleMax > 0 {
		fill = min(1, max(0, ratio/scaleMax))
	}
	color := ColorForRatio(ratio, healthyMax, watchMax)

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	return labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) +
		spaceStyle.Render(" ") +
		bar.ViewAs(fill) +
		spaceStyle.Render(" ") +
		pctStyle.Render(fmt.Sprintf("%5.1f%%", ratio*100))
}
