// Package tui provides the interactive Bubble Tea calculator for homecalc.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/homecalc/internal/calc"
	"github.com/theirongolddev/homecalc/internal/census"
	"github.com/theirongolddev/homecalc/internal/cli"
	"github.com/theirongolddev/homecalc/internal/model"
	"github.com/theirongolddev/homecalc/internal/pipeline"
	"github.com/theirongolddev/homecalc/internal/presets"
	"github.com/theirongolddev/homecalc/internal/rates"
	"github.com/theirongolddev/homecalc/internal/state"
	"github.com/theirongolddev/homecalc/internal/tui/components"
	"github.com/theirongolddev/homecalc/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Tab indexes, matching components.Tabs.
const (
	tabAfford = iota
	tabRefi
	tabLoans
	tabMarket
	tabScenarios
)

const (
	minTerminalWidth = 80
	maxContentWidth  = 140
	minContentHeight = 5
)

// RatesLoader produces a rates payload. *pipeline.Loader satisfies it.
type RatesLoader interface {
	Load(ctx context.Context) pipeline.LoadResult
}

// Store persists calculator state and the theme choice. It may be nil.
type Store interface {
	state.KV
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
}

// Options wires the app to its data sources.
type Options struct {
	Snapshot  state.Snapshot
	Store     Store
	Rates     RatesLoader
	Refresh   RatesLoader // live-only loader for manual refresh; nil disables it
	Tax       *census.Tracker
	Presets   presets.Catalog
	ShareBase string
	Now       func() time.Time
}

// RatesLoadedMsg is sent when a rate load or refresh finishes.
type RatesLoadedMsg struct {
	Result  pipeline.LoadResult
	Refresh bool
}

// TaxMsg carries the tracker state after a ZIP lookup.
type TaxMsg struct {
	State census.State
}

// SavedMsg reports the result of persisting state.
type SavedMsg struct {
	Err error
}

// App is the root Bubble Tea model.
type App struct {
	opts Options
	snap state.Snapshot
	ev   calc.Evaluation

	rates       pipeline.LoadResult
	ratesLoaded bool
	refreshing  bool
	tax         census.State

	width     int
	height    int
	activeTab int
	showHelp  bool
	message   string

	form     *huh.Form
	formVals *formValues
	formCalc model.Calculator

	scenCursor int
	spinner    spinner.Model
}

// NewApp creates a new TUI app model.
func NewApp(opts Options) App {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	a := App{
		opts:    opts,
		snap:    opts.Snapshot,
		spinner: sp,
	}
	if opts.Snapshot.Settings.ActiveCalc == model.CalcRefi {
		a.activeTab = tabRefi
	}
	a.recompute()
	return a
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnableMouseCellMotion,
		a.spinner.Tick,
		loadRatesCmd(a.opts.Rates, false),
	}
	if cmd := a.taxCmd(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

// recompute re-evaluates both calculators from the current snapshot,
// rates and tax lookup.
func (a *App) recompute() {
	in := calc.EvalInput{
		Afford:     a.snap.Afford,
		Refi:       a.snap.Refi,
		Settings:   a.snap.Settings,
		ZIPTaxRate: a.tax.Rate(),
	}
	if a.rates.Payload != nil {
		in.Data = a.rates.Payload.Data
	}
	a.ev = calc.Evaluate(in)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.form != nil {
			a.form = a.form.WithWidth(min(msg.Width, 72)).WithHeight(msg.Height - 4)
		}
		return a, nil

	case tea.MouseMsg:
		if a.form != nil || a.showHelp {
			return a, nil
		}
		if msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress && msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.activeTab = tab
			}
		}
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, a.quit()
		}
		if a.form != nil {
			return a.updateForm(msg)
		}
		return a.handleKey(msg.String())

	case RatesLoadedMsg:
		a.refreshing = false
		if msg.Refresh && msg.Result.Status != model.StatusReady {
			a.message = "Refresh failed, keeping current rates"
			return a, nil
		}
		a.rates = msg.Result
		a.ratesLoaded = true
		if msg.Refresh {
			a.message = "Rates refreshed"
		}
		a.recompute()
		return a, nil

	case TaxMsg:
		if a.opts.Tax != nil && msg.State.Generation < a.opts.Tax.State().Generation {
			return a, nil
		}
		a.tax = msg.State
		a.recompute()
		return a, nil

	case SavedMsg:
		if msg.Err != nil {
			a.message = "Could not save: " + msg.Err.Error()
		}
		return a, nil

	case spinner.TickMsg:
		if !a.ratesLoaded || a.refreshing {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	if a.form != nil {
		return a.updateForm(msg)
	}
	return a, nil
}

func (a App) handleKey(key string) (tea.Model, tea.Cmd) {
	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}
	a.message = ""

	switch key {
	case "q":
		return a, a.quit()
	case "left":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
		return a, nil
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		return a, nil
	case "e", "enter":
		if a.activeTab == tabScenarios && key == "enter" {
			return a.applyScenarioItem()
		}
		return a.openForm()
	case "R":
		if a.opts.Refresh == nil || a.refreshing {
			return a, nil
		}
		a.refreshing = true
		return a, tea.Batch(a.spinner.Tick, loadRatesCmd(a.opts.Refresh, true))
	case "T":
		next := theme.Next(theme.Active.Name)
		theme.Active = next
		a.message = "Theme: " + next.Name
		return a, a.putCmd(themeKey, next.Name)
	case "u":
		link, err := state.ShareURL(a.shareBase(), a.snap.Afford, a.snap.Refi, a.snap.Settings.ActiveCalc)
		if err != nil {
			a.message = err.Error()
		} else {
			a.message = link
		}
		return a, nil
	case "n":
		return a.saveScenario()
	}

	if len(key) == 1 {
		if tab := components.TabIdxByKey(rune(key[0])); tab >= 0 {
			a.activeTab = tab
			if tab == tabAfford || tab == tabRefi {
				a.snap.Settings.ActiveCalc = a.activeCalc()
			}
			return a, nil
		}
	}

	switch a.activeTab {
	case tabAfford, tabLoans:
		return a.handleAffordKey(key)
	case tabRefi:
		return a.handleRefiKey(key)
	case tabScenarios:
		return a.handleScenarioKey(key)
	}
	return a, nil
}

// activeCalc is the calculator the current tab edits.
func (a App) activeCalc() model.Calculator {
	if a.activeTab == tabRefi {
		return model.CalcRefi
	}
	return model.CalcAfford
}

func (a App) shareBase() string {
	if a.opts.ShareBase != "" {
		return a.opts.ShareBase
	}
	return "https://homecalc.app/"
}

// quit persists state and exits.
func (a App) quit() tea.Cmd {
	return tea.Sequence(a.saveCmd(), tea.Quit)
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return fmt.Sprintf("\n  Terminal too narrow (%d cols)\n\n  homecalc needs at least %d columns.\n",
			a.width, minTerminalWidth)
	}
	if a.form != nil {
		return a.viewForm()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	sections := []struct {
		title    string
		bindings [][2]string
	}{
		{"Navigation", [][2]string{
			{"a r l m s", "Jump to tab"},
			{"← →", "Previous / Next tab"},
			{"j k", "Move in scenario list"},
		}},
		{"Calculator", [][2]string{
			{"e", "Edit inputs"},
			{"t", "Cycle loan type"},
			{"v", "Cycle rate mode"},
			{"g", "Cycle credit score"},
			{"[ ]", "Strategy down / up"},
			{"i", "Toggle assumptions"},
		}},
		{"Actions", [][2]string{
			{"n", "Save scenario"},
			{"Enter", "Load scenario or preset"},
			{"d", "Delete scenario"},
			{"u", "Show share link"},
			{"R", "Refresh rates"},
			{"T", "Next theme"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, s := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(s.title))
		b.WriteString("\n")
		for _, bind := range s.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind[0])),
				descStyle.Render(bind[1]))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()

	header := components.RenderTabBar(a.activeTab, w)
	statusBar := components.RenderStatusBar(w, a.status())

	contentH := max(minContentHeight, a.height-lipgloss.Height(header)-lipgloss.Height(statusBar))

	var content string
	if !a.ratesLoaded && a.activeTab == tabMarket {
		content = a.viewLoadingRates(cw)
	} else {
		switch a.activeTab {
		case tabAfford:
			content = a.renderAffordTab(cw)
		case tabRefi:
			content = a.renderRefiTab(cw)
		case tabLoans:
			content = a.renderLoansTab(cw)
		case tabMarket:
			content = a.renderMarketTab(cw)
		case tabScenarios:
			content = a.renderScenariosTab(cw)
		}
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, a.height, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewLoadingRates(cw int) string {
	t := theme.Active
	style := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	body := a.spinner.View() + style.Render(" Loading benchmark rates…")
	return components.ContentCard("Market", body, cw)
}

func (a App) status() components.Status {
	s := components.Status{
		Loading: !a.ratesLoaded || a.refreshing,
		Message: a.message,
	}
	if p := a.rates.Payload; a.ratesLoaded && p.HasData() {
		now := a.opts.Now()
		s.RatesAge = "fetched " + cli.FormatAge(p.FetchedTime(), now)
		s.RatesStale = rates.NeedsRefresh(p.FetchedTime(), now)
	} else if a.ratesLoaded {
		s.RatesAge = "unavailable"
		s.RatesStale = true
	}
	return s
}

// ─── Helpers ────────────────────────────────────────────────────

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes follow the same widths RenderTabBar draws.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW + 1 // separator
	}
	return -1
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = lipgloss.PlaceHorizontal(w, lipgloss.Left, line, lipgloss.WithWhitespaceBackground(bg))
	}
	return strings.Join(lines, "\n")
}
