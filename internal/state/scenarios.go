package state

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/homecalc/internal/calc"
	"github.com/theirongolddev/homecalc/internal/model"
)

// MaxScenarios is how many saved scenarios are kept.
const MaxScenarios = 6

// QuickStatsFor summarizes the current results for a saved scenario.
// options should already be sorted; the first one is reported as the best.
func QuickStatsFor(afford calc.AffordResult, selected *calc.LoanOption, refi calc.RefiResult, best model.BestRates, options []calc.LoanOption) model.QuickStats {
	qs := model.QuickStats{
		HomePrice:       afford.EstimatedHomePrice,
		BreakEvenMonths: refi.BreakEvenMonths,
		MonthlySavings:  refi.MonthlySavings,
	}
	if selected != nil {
		qs.TotalMonthly = selected.TotalMonthly
	}
	if best.Lowest != nil {
		qs.MarketBestRate = best.Lowest.Rate
	}
	if len(options) > 0 {
		qs.BestLoanLabel = options[0].Label
	}
	return qs
}

// nextScenarioName numbers past the highest "Scenario N" still in list, so
// names stay unique after older entries are dropped.
func nextScenarioName(list []model.Scenario) string {
	n := len(list)
	for _, s := range list {
		var k int
		if _, err := fmt.Sscanf(s.Name, "Scenario %d", &k); err == nil && k > n {
			n = k
		}
	}
	return fmt.Sprintf("Scenario %d", n+1)
}

// NewScenario captures snap as a new scenario.
func NewScenario(snap Snapshot, stats model.QuickStats, now time.Time) model.Scenario {
	return model.Scenario{
		ID:             uuid.NewString(),
		Name:           nextScenarioName(snap.Scenarios),
		CreatedAt:      now.UTC(),
		ActiveCalc:     snap.Settings.ActiveCalc,
		AffordInputs:   snap.Afford,
		RefiInputs:     snap.Refi,
		LoanTypeID:     snap.Settings.LoanTypeID,
		RefiLoanTypeID: snap.Settings.RefiLoanTypeID,
		RateMode:       snap.Settings.RateMode,
		RefiRateMode:   snap.Settings.RefiRateMode,
		QuickStats:     stats,
	}
}

// AddScenario puts sc first and drops the oldest beyond MaxScenarios.
func AddScenario(list []model.Scenario, sc model.Scenario) []model.Scenario {
	out := make([]model.Scenario, 0, MaxScenarios)
	out = append(out, sc)
	for _, s := range list {
		if len(out) == MaxScenarios {
			break
		}
		out = append(out, s)
	}
	return out
}

// DeleteScenario removes the scenario with the given id. It reports
// whether one was removed.
func DeleteScenario(list []model.Scenario, id string) ([]model.Scenario, bool) {
	out := make([]model.Scenario, 0, len(list))
	removed := false
	for _, s := range list {
		if s.ID == id {
			removed = true
			continue
		}
		out = append(out, s)
	}
	return out, removed
}

// FindScenario matches ref against ids, unique id prefixes and names
// (case-insensitive).
func FindScenario(list []model.Scenario, ref string) (model.Scenario, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.Scenario{}, false
	}
	var prefixed []model.Scenario
	for _, s := range list {
		if s.ID == ref || strings.EqualFold(s.Name, ref) {
			return s, true
		}
		if strings.HasPrefix(s.ID, ref) {
			prefixed = append(prefixed, s)
		}
	}
	if len(prefixed) == 1 {
		return prefixed[0], true
	}
	return model.Scenario{}, false
}

// ApplyScenario restores a scenario's inputs and selections onto snap.
// Empty or unknown selections in the scenario leave snap's values alone.
func ApplyScenario(snap Snapshot, sc model.Scenario) Snapshot {
	snap.Afford = sc.AffordInputs
	snap.Refi = sc.RefiInputs
	snap.Settings = MergeSettings(snap.Settings, map[string]any{
		"loanTypeId":     sc.LoanTypeID,
		"refiLoanTypeId": sc.RefiLoanTypeID,
		"rateMode":       string(sc.RateMode),
		"refiRateMode":   string(sc.RefiRateMode),
		"activeCalc":     string(sc.ActiveCalc),
	})
	return snap
}

// decodeScenarios reads a stored list, skipping entries that do not parse.
func decodeScenarios(data []byte) []model.Scenario {
	if len(data) == 0 {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil
	}
	out := make([]model.Scenario, 0, min(len(items), MaxScenarios))
	for _, item := range items {
		if len(out) == MaxScenarios {
			break
		}
		var sc model.Scenario
		if err := json.Unmarshal(item, &sc); err != nil || sc.ID == "" {
			continue
		}
		out = append(out, sc)
	}
	return out
}
