package tui

import (
	"github.com/theirongolddev/homecalc/internal/config"
	"github.com/theirongolddev/homecalc/internal/model"
	"github.com/theirongolddev/homecalc/internal/presets"
	"github.com/theirongolddev/homecalc/internal/state"

	tea "github.com/charmbracelet/bubbletea"
)

var (
	affordModes = []model.RateMode{model.ModeLive, model.ModeCredit, model.ModeManual}
	refiModes   = []model.RateMode{model.ModeLive, model.ModeCredit, model.ModeManual, model.ModeTarget}
)

func nextMode(modes []model.RateMode, cur model.RateMode) model.RateMode {
	for i, m := range modes {
		if m == cur {
			return modes[(i+1)%len(modes)]
		}
	}
	return modes[0]
}

func nextLoanType(id string) string {
	for i, lt := range config.LoanTypes {
		if lt.ID == id {
			return config.LoanTypes[(i+1)%len(config.LoanTypes)].ID
		}
	}
	return config.LoanTypes[0].ID
}

func nextCreditScore(id string) string {
	for i, b := range config.CreditScores {
		if b.ID == id {
			return config.CreditScores[(i+1)%len(config.CreditScores)].ID
		}
	}
	return config.CreditScores[0].ID
}

// settingsChanged recomputes and persists after a selection change.
func (a App) settingsChanged() (tea.Model, tea.Cmd) {
	a.recompute()
	return a, a.saveCmd()
}

func (a App) handleAffordKey(key string) (tea.Model, tea.Cmd) {
	s := &a.snap.Settings
	switch key {
	case "t":
		s.LoanTypeID = nextLoanType(s.LoanTypeID)
	case "v":
		s.RateMode = nextMode(affordModes, s.RateMode)
	case "g":
		s.CreditScoreID = nextCreditScore(s.CreditScoreID)
	case "[":
		s.StrategyIndex = state.ClampStrategy(s.StrategyIndex - 1)
	case "]":
		s.StrategyIndex = state.ClampStrategy(s.StrategyIndex + 1)
	case "i":
		s.ShowAssumptions = !s.ShowAssumptions
		return a, a.saveCmd()
	default:
		return a, nil
	}
	return a.settingsChanged()
}

func (a App) handleRefiKey(key string) (tea.Model, tea.Cmd) {
	s := &a.snap.Settings
	switch key {
	case "t":
		s.RefiLoanTypeID = nextLoanType(s.RefiLoanTypeID)
	case "v":
		s.RefiRateMode = nextMode(refiModes, s.RefiRateMode)
	case "g":
		s.RefiCreditScoreID = nextCreditScore(s.RefiCreditScoreID)
	default:
		return a, nil
	}
	return a.settingsChanged()
}

// scenarioItem is one row of the scenarios tab: a saved scenario or a
// preset.
type scenarioItem struct {
	scenario *model.Scenario
	preset   *presets.Preset
	calc     model.Calculator
}

func (a App) scenarioItems() []scenarioItem {
	items := make([]scenarioItem, 0, len(a.snap.Scenarios)+len(a.opts.Presets.Afford)+len(a.opts.Presets.Refi))
	for i := range a.snap.Scenarios {
		items = append(items, scenarioItem{scenario: &a.snap.Scenarios[i]})
	}
	for i := range a.opts.Presets.Afford {
		items = append(items, scenarioItem{preset: &a.opts.Presets.Afford[i], calc: model.CalcAfford})
	}
	for i := range a.opts.Presets.Refi {
		items = append(items, scenarioItem{preset: &a.opts.Presets.Refi[i], calc: model.CalcRefi})
	}
	return items
}

func (a App) handleScenarioKey(key string) (tea.Model, tea.Cmd) {
	items := a.scenarioItems()
	switch key {
	case "j", "down":
		if a.scenCursor < len(items)-1 {
			a.scenCursor++
		}
	case "k", "up":
		if a.scenCursor > 0 {
			a.scenCursor--
		}
	case "d":
		if a.scenCursor >= len(items) || items[a.scenCursor].scenario == nil {
			return a, nil
		}
		sc := items[a.scenCursor].scenario
		a.snap.Scenarios, _ = state.DeleteScenario(a.snap.Scenarios, sc.ID)
		a.message = "Deleted " + sc.Name
		a.scenCursor = max(0, min(a.scenCursor, len(a.scenarioItems())-1))
		return a, a.saveScenariosCmd()
	}
	return a, nil
}

func (a App) applyScenarioItem() (tea.Model, tea.Cmd) {
	items := a.scenarioItems()
	if a.scenCursor >= len(items) {
		return a, nil
	}
	prevZIP := a.snap.Afford.ZIPCode
	it := items[a.scenCursor]
	switch {
	case it.scenario != nil:
		a.snap = state.ApplyScenario(a.snap, *it.scenario)
		a.message = "Loaded " + it.scenario.Name
	case it.preset != nil:
		a.snap = presets.Apply(a.snap, *it.preset, it.calc)
		a.message = "Applied preset " + it.preset.Label
	}
	if a.snap.Settings.ActiveCalc == model.CalcRefi {
		a.activeTab = tabRefi
	} else {
		a.activeTab = tabAfford
	}
	a.recompute()
	cmds := []tea.Cmd{a.saveCmd()}
	if a.snap.Afford.ZIPCode != prevZIP {
		cmds = append(cmds, a.taxCmd())
	}
	return a, tea.Batch(cmds...)
}

func (a App) saveScenario() (tea.Model, tea.Cmd) {
	var best model.BestRates
	if a.rates.Payload != nil {
		best = a.rates.Payload.Summary.BestRates
	}
	stats := state.QuickStatsFor(a.ev.Afford, a.ev.Selected, a.ev.Refi, best, a.ev.Options)
	sc := state.NewScenario(a.snap, stats, a.opts.Now())
	a.snap.Scenarios = state.AddScenario(a.snap.Scenarios, sc)
	a.message = "Saved " + sc.Name
	return a, a.saveScenariosCmd()
}
