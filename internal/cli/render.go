package cli

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette for plain CLI output (Flexoki Dark).
var (
	ColorBorder    = lipgloss.Color("#282726")
	ColorTextDim   = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorOrange    = lipgloss.Color("#DA702C")
	ColorRed       = lipgloss.Color("#D14D41")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorText).Align(lipgloss.Center)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	valueStyle  = lipgloss.NewStyle().Foreground(ColorText)
	mutedStyle  = lipgloss.NewStyle().Foreground(ColorTextMuted)
	dimStyle    = lipgloss.NewStyle().Foreground(ColorTextDim)
	goodStyle   = lipgloss.NewStyle().Foreground(ColorGreen)
	warnStyle   = lipgloss.NewStyle().Foreground(ColorOrange)
	badStyle    = lipgloss.NewStyle().Foreground(ColorRed)
)

// separatorRow marks a horizontal rule inside Table.Rows.
const separatorRow = "---"

// Table is a bordered text table. The first column is left-aligned and the
// rest, which hold money and rates, are right-aligned.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Widths  []int // optional column widths, auto-calculated if nil
}

func isSeparator(row []string) bool {
	return len(row) == 1 && row[0] == separatorRow
}

func (t Table) columns() []int {
	n := len(t.Headers)
	if n == 0 && len(t.Rows) > 0 {
		n = len(t.Rows[0])
	}
	widths := make([]int, n)
	if t.Widths != nil {
		copy(widths, t.Widths)
		return widths
	}
	measure := func(cells []string) {
		for i, c := range cells {
			if i < n {
				widths[i] = max(widths[i], lipgloss.Width(c))
			}
		}
	}
	measure(t.Headers)
	for _, row := range t.Rows {
		if !isSeparator(row) {
			measure(row)
		}
	}
	return widths
}

// RenderTitle renders a centered title in a rounded box.
func RenderTitle(title string) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(55).
		Align(lipgloss.Center).
		Padding(0, 1)
	return box.Render(titleStyle.Render(title))
}

// RenderTable renders t with box-drawing borders. A row holding only "---"
// draws a rule.
func RenderTable(t Table) string {
	if len(t.Rows) == 0 && len(t.Headers) == 0 {
		return ""
	}
	widths := t.columns()
	var b strings.Builder

	rule := func(left, mid, right string) {
		b.WriteString(dimStyle.Render(left))
		for i, w := range widths {
			if i > 0 {
				b.WriteString(dimStyle.Render(mid))
			}
			b.WriteString(dimStyle.Render(strings.Repeat("─", w+2)))
		}
		b.WriteString(dimStyle.Render(right))
		b.WriteByte('\n')
	}
	line := func(cells []string, style lipgloss.Style, alignRight bool) {
		bar := dimStyle.Render("│")
		b.WriteString(bar)
		for i, w := range widths {
			if i > 0 {
				b.WriteString(bar)
			}
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			format := " %-*s "
			if alignRight && i > 0 {
				format = " %*s "
			}
			b.WriteString(style.Render(fmt.Sprintf(format, w, cell)))
		}
		b.WriteString(bar)
		b.WriteByte('\n')
	}

	if t.Title != "" {
		b.WriteString("  " + headerStyle.Render(t.Title) + "\n")
	}
	rule("╭", "┬", "╮")
	if len(t.Headers) > 0 {
		line(t.Headers, headerStyle, false)
		rule("├", "┼", "┤")
	}
	for _, row := range t.Rows {
		if isSeparator(row) {
			rule("├", "┼", "┤")
			continue
		}
		line(row, valueStyle, true)
	}
	rule("╰", "┴", "╯")
	return b.String()
}

// KV is one labeled value in a key-value block.
type KV struct {
	Key   string
	Value string
}

// RenderKeyValues renders an aligned two-column block under an optional title.
func RenderKeyValues(title string, items []KV) string {
	var b strings.Builder
	if title != "" {
		b.WriteString("  " + headerStyle.Render(title) + "\n")
	}
	keyW := 0
	for _, kv := range items {
		keyW = max(keyW, lipgloss.Width(kv.Key))
	}
	for _, kv := range items {
		fmt.Fprintf(&b, "  %s  %s\n", mutedStyle.Render(fmt.Sprintf("%-*s", keyW, kv.Key)), valueStyle.Render(kv.Value))
	}
	return b.String()
}

// Verdict levels used to color labels.
const (
	LevelGood = iota
	LevelWarn
	LevelBad
)

var verdictStyles = [...]lipgloss.Style{LevelGood: goodStyle, LevelWarn: warnStyle, LevelBad: badStyle}

// RenderVerdict colors a health or recommendation label by level.
func RenderVerdict(label string, level int) string {
	level = max(LevelGood, min(level, LevelBad))
	return verdictStyles[level].Bold(true).Render(label)
}

// RenderNote renders a dimmed explanatory line.
func RenderNote(text string) string {
	return "  " + dimStyle.Render(text) + "\n"
}

// RenderWarning renders a highlighted warning line.
func RenderWarning(text string) string {
	return "  " + warnStyle.Render(text) + "\n"
}

// RenderBar renders a horizontal bar scaled against maxValue. Negative
// values render in red.
func RenderBar(value, maxValue float64, maxWidth int) string {
	if maxValue <= 0 {
		return ""
	}
	n := int(math.Abs(value) / maxValue * float64(maxWidth))
	bar := strings.Repeat("█", max(0, min(n, maxWidth)))
	if value < 0 {
		return badStyle.Render(bar)
	}
	return goodStyle.Render(bar)
}
