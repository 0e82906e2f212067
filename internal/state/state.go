package state

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/theirongolddev/homecalc/internal/config"
	"github.com/theirongolddev/homecalc/internal/model"
	"github.com/theirongolddev/homecalc/internal/store"
)

// KV is the JSON key-value surface of the local store.
type KV interface {
	GetJSON(ctx context.Context, key string) (json.RawMessage, bool, error)
	PutJSON(ctx context.Context, key string, v any) error
}

// Snapshot is everything the calculators persist between runs.
type Snapshot struct {
	Afford    model.AffordInputs
	Refi      model.RefiInputs
	Settings  model.Settings
	Scenarios []model.Scenario
}

// Default returns an empty snapshot with default settings.
func Default() Snapshot {
	return Snapshot{Settings: DefaultSettings()}
}

// Load reads each stored key and merges it over the defaults. Missing or
// unreadable keys leave the defaults in place; only store errors are
// returned.
func Load(ctx context.Context, kv KV) (Snapshot, error) {
	return LoadOver(ctx, kv, Default())
}

// LoadOver is Load with caller-supplied defaults.
func LoadOver(ctx context.Context, kv KV, snap Snapshot) (Snapshot, error) {
	get := func(key string) (json.RawMessage, error) {
		data, ok, err := kv.GetJSON(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("state: loading %s: %w", key, err)
		}
		if !ok {
			return nil, nil
		}
		return data, nil
	}

	data, err := get(store.KeyAffordInputs)
	if err != nil {
		return snap, err
	}
	if raw := decodeObject(data); raw != nil {
		snap.Afford = MergeAfford(snap.Afford, raw, false)
	}

	if data, err = get(store.KeyRefiInputs); err != nil {
		return snap, err
	}
	if raw := decodeObject(data); raw != nil {
		snap.Refi = MergeRefi(snap.Refi, raw, false)
	}

	if data, err = get(store.KeySettings); err != nil {
		return snap, err
	}
	if raw := decodeObject(data); raw != nil {
		snap.Settings = MergeSettings(snap.Settings, raw)
	}

	if data, err = get(store.KeyScenarios); err != nil {
		return snap, err
	}
	snap.Scenarios = decodeScenarios(data)
	return snap, nil
}

// Save writes inputs and settings. Scenarios are written by SaveScenarios.
func Save(ctx context.Context, kv KV, snap Snapshot) error {
	for key, v := range map[string]any{
		store.KeyAffordInputs: snap.Afford,
		store.KeyRefiInputs:   snap.Refi,
		store.KeySettings:     snap.Settings,
	} {
		if err := kv.PutJSON(ctx, key, v); err != nil {
			return fmt.Errorf("state: saving %s: %w", key, err)
		}
	}
	return nil
}

// SaveScenarios writes the scenario list, capped at MaxScenarios.
func SaveScenarios(ctx context.Context, kv KV, list []model.Scenario) error {
	if len(list) > MaxScenarios {
		list = list[:MaxScenarios]
	}
	if list == nil {
		list = []model.Scenario{}
	}
	if err := kv.PutJSON(ctx, store.KeyScenarios, list); err != nil {
		return fmt.Errorf("state: saving scenarios: %w", err)
	}
	return nil
}

// DefaultsFrom returns Default with the configured calculator, loan type
// and strategy applied. Invalid entries are ignored.
func DefaultsFrom(g config.GeneralConfig) Snapshot {
	snap := Default()
	raw := map[string]any{
		"activeCalc":     g.DefaultCalculator,
		"loanTypeId":     g.DefaultLoanType,
		"refiLoanTypeId": g.DefaultLoanType,
	}
	if i, ok := config.LookupStrategy(g.DefaultStrategy); ok {
		raw["strategyIndex"] = float64(i)
	}
	snap.Settings = MergeSettings(snap.Settings, raw)
	return snap
}
