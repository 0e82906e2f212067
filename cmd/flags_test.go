package cmd

import (
	"testing"

	"github.com/theirongolddev/homecalc/internal/model"
	"github.com/theirongolddev/homecalc/internal/state"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAffordTestCmd(t *testing.T, flags map[string]string) *cobra.Command {
	t.Helper()
	c := &cobra.Command{Use: "afford"}
	addCalculatorFlags(c)
	for k, v := range flags {
		require.NoError(t, c.Flags().Set(k, v))
	}
	return c
}

func TestApplyAffordFlagsMergesOnlySetFlags(t *testing.T) {
	base := state.Default()
	base.Afford.Expenses = "450"
	base.Settings.ActiveCalc = model.CalcRefi

	c := newAffordTestCmd(t, map[string]string{
		"income":   "$95,000",
		"zip":      "30309-1234",
		"loan":     "fha-30",
		"mode":     "credit",
		"credit":   "700-719",
		"strategy": "stretch",
		"tax-rate": "1.1",
	})
	snap, err := applyAffordFlags(c, base)
	require.NoError(t, err)

	assert.Equal(t, "95000", snap.Afford.AnnualIncome)
	assert.Equal(t, "30309", snap.Afford.ZIPCode)
	assert.Equal(t, "450", snap.Afford.Expenses, "unset flags keep saved values")

	s := snap.Settings
	assert.Equal(t, model.CalcAfford, s.ActiveCalc)
	assert.Equal(t, "fha-30", s.LoanTypeID)
	assert.Equal(t, model.ModeCredit, s.RateMode)
	assert.Equal(t, "700-719", s.CreditScoreID)
	assert.Equal(t, 2, s.StrategyIndex)
	assert.Equal(t, "1.1", s.TaxRateOverride)
}

func TestApplyAffordFlagsRejectsInvalidSelections(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown loan":   {"loan": "balloon-7"},
		"target mode":    {"mode": "target"},
		"unknown mode":   {"mode": "psychic"},
		"unknown credit": {"credit": "900"},
		"unknown plan":   {"strategy": "yolo"},
	}
	for name, flags := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := applyAffordFlags(newAffordTestCmd(t, flags), state.Default())
			assert.Error(t, err)
		})
	}
}

func TestApplyRefiFlagsAllowsTargetMode(t *testing.T) {
	c := &cobra.Command{Use: "refi"}
	addRefiFlags(c)
	require.NoError(t, c.Flags().Set("balance", "320,000"))
	require.NoError(t, c.Flags().Set("target-months", "24"))
	require.NoError(t, c.Flags().Set("mode", "target"))

	snap, err := applyRefiFlags(c, state.Default())
	require.NoError(t, err)
	assert.Equal(t, "320000", snap.Refi.Balance)
	assert.Equal(t, "24", snap.Refi.TargetMonths)
	assert.Equal(t, model.ModeTarget, snap.Settings.RefiRateMode)
	assert.Equal(t, model.CalcRefi, snap.Settings.ActiveCalc)

	require.NoError(t, c.Flags().Set("mode", "sideways"))
	_, err = applyRefiFlags(c, state.Default())
	assert.Error(t, err)
}
