package state

import (
	"context"
	"encoding/base64"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/homecalc/internal/calc"
	"github.com/theirongolddev/homecalc/internal/config"
	"github.com/theirongolddev/homecalc/internal/model"
	"github.com/theirongolddev/homecalc/internal/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleAfford() model.AffordInputs {
	return model.AffordInputs{
		AnnualIncome: "95000",
		Expenses:     "900",
		DownPayment:  "20000",
		HOAAnnual:    "1200",
		ZIPCode:      "30309",
		Rate:         "6.75",
	}
}

func TestShareRoundTrip(t *testing.T) {
	afford := sampleAfford()
	refi := model.RefiInputs{Balance: "320000", CurrentRate: "7.1", NewRate: "6.2", ClosingCosts: "6500", TargetMonths: "24"}

	link, err := ShareURL("https://example.com/calculator?utm=x", afford, refi, model.CalcRefi)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "https://example.com/calculator?"))

	q, err := ParseShare(link)
	require.NoError(t, err)
	assert.Equal(t, "x", q.Get("utm"))

	got, applied := ApplyShare(Default(), q)
	require.True(t, applied)
	assert.Equal(t, afford, got.Afford)
	assert.Equal(t, refi, got.Refi)
	assert.Equal(t, model.CalcRefi, got.Settings.ActiveCalc)
}

func TestParseShareBareQuery(t *testing.T) {
	q, err := ShareQuery(sampleAfford(), model.RefiInputs{}, model.CalcAfford)
	require.NoError(t, err)
	parsed, err := ParseShare("?" + q.Encode())
	require.NoError(t, err)
	assert.Equal(t, q.Get(ParamAfford), parsed.Get(ParamAfford))

	parsed, err = ParseShare(q.Encode())
	require.NoError(t, err)
	assert.Equal(t, "afford", parsed.Get(ParamCalc))
}

func TestApplyShareSanitizes(t *testing.T) {
	raw := `{"annualIncome":"$95,000.50.1","zipCode":"30-309-1234","expenses":900,"bogus":"1"}`
	q := url.Values{}
	q.Set(ParamAfford, base64.StdEncoding.EncodeToString([]byte(raw)))
	q.Set(ParamRefi, "%%%not-base64")
	q.Set(ParamCalc, "mortgage")

	base := Default()
	base.Afford.Expenses = "450"
	base.Refi.Balance = "1000"

	got, applied := ApplyShare(base, q)
	assert.True(t, applied)
	assert.Equal(t, "95000.501", got.Afford.AnnualIncome)
	assert.Equal(t, "30309", got.Afford.ZIPCode)
	// Non-string values are ignored.
	assert.Equal(t, "450", got.Afford.Expenses)
	// A corrupt refi payload leaves the current inputs alone.
	assert.Equal(t, "1000", got.Refi.Balance)
	assert.Equal(t, model.CalcAfford, got.Settings.ActiveCalc)
}

func TestDecodePayloadRejects(t *testing.T) {
	assert.Nil(t, DecodePayload(""))
	assert.Nil(t, DecodePayload("!!!"))
	assert.Nil(t, DecodePayload(base64.StdEncoding.EncodeToString([]byte(`[1,2]`))))
	assert.Nil(t, DecodePayload(base64.StdEncoding.EncodeToString([]byte(`not json`))))
}

func TestMergeSettingsValidates(t *testing.T) {
	raw := map[string]any{
		"activeCalc":        "refi",
		"loanTypeId":        "fha-30",
		"refiLoanTypeId":    "no-such-loan",
		"rateMode":          "target",
		"refiRateMode":      "target",
		"creditScoreId":     "700-719",
		"refiCreditScoreId": "",
		"strategyIndex":     float64(9),
		"showAssumptions":   "yes",
		"insuranceOverride": "150",
		"pmiRateOverride":   0.5,
		"taxRateOverride":   "1.2x",
	}
	got := MergeSettings(DefaultSettings(), raw)

	assert.Equal(t, model.CalcRefi, got.ActiveCalc)
	assert.Equal(t, "fha-30", got.LoanTypeID)
	assert.Equal(t, "conventional-30", got.RefiLoanTypeID)
	assert.Equal(t, model.ModeLive, got.RateMode)
	assert.Equal(t, model.ModeTarget, got.RefiRateMode)
	assert.Equal(t, "700-719", got.CreditScoreID)
	assert.Equal(t, "760plus", got.RefiCreditScoreID)
	assert.Equal(t, 2, got.StrategyIndex)
	assert.False(t, got.ShowAssumptions)
	assert.Equal(t, "150", got.InsuranceOverride)
	assert.Empty(t, got.PMIRateOverride)
	assert.Equal(t, "1.2", got.TaxRateOverride)

	got = MergeSettings(got, map[string]any{"strategyIndex": float64(-3), "showAssumptions": true})
	assert.Equal(t, 0, got.StrategyIndex)
	assert.True(t, got.ShowAssumptions)
}

func TestLoadSaveRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	empty, err := Load(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, Default(), empty)

	snap := Default()
	snap.Afford = sampleAfford()
	snap.Refi.Balance = "250000"
	snap.Settings.StrategyIndex = 0
	snap.Settings.LoanTypeID = "va-30"
	require.NoError(t, Save(ctx, s, snap))

	got, err := Load(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, snap.Afford, got.Afford)
	assert.Equal(t, snap.Refi, got.Refi)
	assert.Equal(t, snap.Settings, got.Settings)
}

func TestLoadIgnoresCorruptKeys(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	require.NoError(t, s.Put(ctx, store.KeyAffordInputs, "{not json"))
	require.NoError(t, s.Put(ctx, store.KeySettings, `{"loanTypeId":42,"rateMode":"credit"}`))
	require.NoError(t, s.Put(ctx, store.KeyScenarios, `[{"id":"a","name":"Scenario 1"},"junk",{"name":"no id"}]`))

	got, err := Load(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, model.AffordInputs{}, got.Afford)
	assert.Equal(t, "conventional-30", got.Settings.LoanTypeID)
	assert.Equal(t, model.ModeCredit, got.Settings.RateMode)
	require.Len(t, got.Scenarios, 1)
	assert.Equal(t, "a", got.Scenarios[0].ID)
}

func TestScenarioLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)

	snap := Default()
	snap.Afford = sampleAfford()
	for i := 0; i < MaxScenarios+2; i++ {
		sc := NewScenario(snap, model.QuickStats{HomePrice: float64(i)}, now.Add(time.Duration(i)*time.Minute))
		snap.Scenarios = AddScenario(snap.Scenarios, sc)
	}
	require.Len(t, snap.Scenarios, MaxScenarios)
	assert.Equal(t, "Scenario 8", snap.Scenarios[0].Name)
	assert.Equal(t, "Scenario 3", snap.Scenarios[MaxScenarios-1].Name)
	assert.Equal(t, float64(MaxScenarios+1), snap.Scenarios[0].QuickStats.HomePrice)
	assert.Len(t, snap.Scenarios[0].ID, 36)

	require.NoError(t, SaveScenarios(ctx, s, snap.Scenarios))
	loaded, err := Load(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, snap.Scenarios, loaded.Scenarios)

	first := loaded.Scenarios[0]
	found, ok := FindScenario(loaded.Scenarios, "scenario 8")
	require.True(t, ok)
	assert.Equal(t, first.ID, found.ID)
	found, ok = FindScenario(loaded.Scenarios, first.ID[:8])
	require.True(t, ok)
	assert.Equal(t, first.ID, found.ID)

	rest, removed := DeleteScenario(loaded.Scenarios, first.ID)
	assert.True(t, removed)
	assert.Len(t, rest, MaxScenarios-1)
	_, removed = DeleteScenario(rest, first.ID)
	assert.False(t, removed)
}

func TestApplyScenario(t *testing.T) {
	sc := model.Scenario{
		ID:           "x",
		ActiveCalc:   model.CalcRefi,
		AffordInputs: sampleAfford(),
		RefiInputs:   model.RefiInputs{Balance: "1"},
		LoanTypeID:   "jumbo-30",
		RateMode:     model.ModeManual,
	}
	got := ApplyScenario(Default(), sc)
	assert.Equal(t, sc.AffordInputs, got.Afford)
	assert.Equal(t, "1", got.Refi.Balance)
	assert.Equal(t, "jumbo-30", got.Settings.LoanTypeID)
	assert.Equal(t, "conventional-30", got.Settings.RefiLoanTypeID)
	assert.Equal(t, model.ModeManual, got.Settings.RateMode)
	assert.Equal(t, model.ModeLive, got.Settings.RefiRateMode)
	assert.Equal(t, model.CalcRefi, got.Settings.ActiveCalc)
}

func TestDefaultsFrom(t *testing.T) {
	got := DefaultsFrom(config.GeneralConfig{DefaultCalculator: "refi", DefaultLoanType: "va-30", DefaultStrategy: "stretch"})
	assert.Equal(t, model.CalcRefi, got.Settings.ActiveCalc)
	assert.Equal(t, "va-30", got.Settings.LoanTypeID)
	assert.Equal(t, "va-30", got.Settings.RefiLoanTypeID)
	assert.Equal(t, 2, got.Settings.StrategyIndex)

	got = DefaultsFrom(config.GeneralConfig{DefaultCalculator: "mortgage", DefaultLoanType: "nope"})
	assert.Equal(t, DefaultSettings(), got.Settings)
}

func TestQuickStatsFor(t *testing.T) {
	low := &model.BestRateEntry{Rate: 5.9}
	opts := []calc.LoanOption{{Label: "VA 30-year fixed", TotalMonthly: 1500}, {Label: "Other", TotalMonthly: 1600}}
	qs := QuickStatsFor(
		calc.AffordResult{EstimatedHomePrice: 250000},
		&opts[1],
		calc.RefiResult{BreakEvenMonths: 35, MonthlySavings: 190.6},
		model.BestRates{Lowest: low},
		opts,
	)
	assert.Equal(t, model.QuickStats{
		HomePrice:       250000,
		TotalMonthly:    1600,
		BreakEvenMonths: 35,
		MonthlySavings:  190.6,
		MarketBestRate:  5.9,
		BestLoanLabel:   "VA 30-year fixed",
	}, qs)
	assert.Equal(t, model.QuickStats{}, QuickStatsFor(calc.AffordResult{}, nil, calc.RefiResult{}, model.BestRates{}, nil))
}
