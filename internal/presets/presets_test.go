package presets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/homecalc/internal/model"
	"github.com/theirongolddev/homecalc/internal/state"
)

func TestBuiltin(t *testing.T) {
	c, err := Builtin()
	require.NoError(t, err)
	require.Len(t, c.Afford, 3)
	require.Len(t, c.Refi, 2)
	assert.Equal(t, "starter", c.Afford[0].ID)
	assert.Equal(t, "fast-breakeven", c.Refi[1].ID)
	assert.Equal(t, "30024", c.Afford[1].Inputs["zipCode"])
}

func TestApplyAffordKeepsOtherFields(t *testing.T) {
	c, err := Builtin()
	require.NoError(t, err)
	p, calc, ok := c.Find("aggressive")
	require.True(t, ok)
	assert.Equal(t, model.CalcAfford, calc)

	snap := state.Default()
	snap.Settings.ActiveCalc = model.CalcRefi
	snap.Afford.Rate = "6.5"
	got := Apply(snap, p, calc)

	assert.Equal(t, "220000", got.Afford.AnnualIncome)
	assert.Equal(t, "10001", got.Afford.ZIPCode)
	assert.Equal(t, "6.5", got.Afford.Rate)
	assert.Equal(t, model.CalcAfford, got.Settings.ActiveCalc)
}

func TestApplyRefi(t *testing.T) {
	c, err := Builtin()
	require.NoError(t, err)
	p, calc, ok := c.Find("mild-savings")
	require.True(t, ok)

	got := Apply(state.Default(), p, calc)
	assert.Equal(t, model.RefiInputs{Balance: "320000", CurrentRate: "7.1", ClosingCosts: "6500", TargetMonths: "24"}, got.Refi)
	assert.Equal(t, model.CalcRefi, got.Settings.ActiveCalc)
	assert.Equal(t, []string{"balance", "closingCosts", "currentRate", "targetMonths"}, p.Fields())
}

func TestFindUnknown(t *testing.T) {
	c, err := Builtin()
	require.NoError(t, err)
	_, _, ok := c.Find("nope")
	assert.False(t, ok)
}

func TestParseError(t *testing.T) {
	_, err := Parse([]byte("afford: [::"))
	assert.Error(t, err)
}
