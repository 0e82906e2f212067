// Package presets provides the built-in example inputs for both calculators.
package presets

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/theirongolddev/homecalc/internal/model"
	"github.com/theirongolddev/homecalc/internal/state"
)

//go:embed presets.yaml
var presetsYAML []byte

// Preset is a named partial set of calculator inputs.
type Preset struct {
	ID     string            `yaml:"id"`
	Label  string            `yaml:"label"`
	Inputs map[string]string `yaml:"inputs"`
}

// Catalog holds the presets for each calculator.
type Catalog struct {
	Afford []Preset `yaml:"afford"`
	Refi   []Preset `yaml:"refi"`
}

var (
	loadOnce sync.Once
	builtin  Catalog
	loadErr  error
)

// Parse decodes a preset catalog.
func Parse(data []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("presets: parsing: %w", err)
	}
	return c, nil
}

// Builtin returns the embedded catalog.
func Builtin() (Catalog, error) {
	loadOnce.Do(func() {
		builtin, loadErr = Parse(presetsYAML)
	})
	return builtin, loadErr
}

// Find returns the preset with the given id and the calculator it fills.
func (c Catalog) Find(id string) (Preset, model.Calculator, bool) {
	for _, p := range c.Afford {
		if p.ID == id {
			return p, model.CalcAfford, true
		}
	}
	for _, p := range c.Refi {
		if p.ID == id {
			return p, model.CalcRefi, true
		}
	}
	return Preset{}, "", false
}

// Fields returns the preset's input keys in a stable order.
func (p Preset) Fields() []string {
	keys := make([]string, 0, len(p.Inputs))
	for k := range p.Inputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (p Preset) raw() map[string]any {
	raw := make(map[string]any, len(p.Inputs))
	for k, v := range p.Inputs {
		raw[k] = v
	}
	return raw
}

// Apply fills the preset's fields into snap and switches to the
// calculator it belongs to.
func Apply(snap state.Snapshot, p Preset, calc model.Calculator) state.Snapshot {
	switch calc {
	case model.CalcAfford:
		snap.Afford = state.MergeAfford(snap.Afford, p.raw(), true)
	case model.CalcRefi:
		snap.Refi = state.MergeRefi(snap.Refi, p.raw(), true)
	default:
		return snap
	}
	snap.Settings.ActiveCalc = calc
	return snap
}
