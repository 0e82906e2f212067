package components

import (
	"strings"

	"github.com/theirongolddev/homecalc/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Status is what the status bar shows on the right.
type Status struct {
	RatesAge   string // "fetched 2 days ago", empty while loading
	RatesStale bool
	Loading    bool
	Message    string
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, s Status) string {
	t := theme.Active

	bg := lipgloss.NewStyle().Background(t.Surface)
	keyStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	msgStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	ageStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	if s.RatesStale {
		ageStyle = ageStyle.Foreground(t.Orange)
	}

	left := keyStyle.Render(" [?]help  [e]dit  [q]uit")
	if s.Message != "" {
		left += bg.Render("  ") + msgStyle.Render(s.Message)
	}

	right := ""
	switch {
	case s.Loading:
		right = ageStyle.Render("loading rates… ")
	case s.RatesAge != "":
		right = ageStyle.Render("rates " + s.RatesAge + " ")
	}

	padding := max(0, width-lipgloss.Width(left)-lipgloss.Width(right))
	return left + bg.Render(strings.Repeat(" ", padding)) + right
}
