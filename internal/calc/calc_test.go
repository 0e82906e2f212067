package calc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/homecalc/internal/config"
	"github.com/theirongolddev/homecalc/internal/model"
	"github.com/theirongolddev/homecalc/internal/rates"
)

func scenarioParams() AffordParams {
	return AffordParams{
		AnnualIncome: 95000,
		Expenses:     900,
		DownPayment:  20000,
		HOAAnnual:    1200,
		Rate:         7.0,
		Years:        30,
		Ratio:        0.28,
	}
}

func TestAffordabilityScenario(t *testing.T) {
	r := Affordability(scenarioParams())

	assert.InDelta(t, 7916.67, r.GrossMonthly, 0.01)
	assert.InDelta(t, 1316.67, r.MaxHousingBudget, 0.01)
	assert.InDelta(t, 100, r.HOAMonthly, 1e-9)
	assert.Equal(t, config.DefaultInsuranceMonthly, r.InsuranceMonthly)
	assert.Equal(t, TaxSourceNone, r.TaxRateSource)
	assert.Zero(t, r.PropertyTax)

	// The loan amount reproduces the principal budget at the same rate.
	assert.InDelta(t, r.PrincipalPayment, r.MonthlyPI, 0.01)
	assert.InDelta(t, r.LoanAmount+20000, r.EstimatedHomePrice, 1e-6)
	assert.InDelta(t, r.EstimatedHomePrice, (r.Conservative+r.Optimistic)/2, 1e-6)

	// Low down payment: PMI applies.
	assert.Greater(t, r.LTV, config.PMILTVThreshold)
	assert.Greater(t, r.PMIMonthly, 0.0)

	assert.InDelta(t, r.EstimatedHomePrice*0.025, r.ClosingCosts, 1e-6)
	assert.Equal(t, config.DefaultClosingCostRate, r.ClosingCostRateUsed)
}

func TestAffordabilityTaxSources(t *testing.T) {
	p := scenarioParams()
	p.ZIPTaxRate = 0.012
	zip := Affordability(p)
	assert.Equal(t, TaxSourceZIP, zip.TaxRateSource)
	assert.Equal(t, 0.012, zip.TaxRate)
	assert.Greater(t, zip.PropertyTax, 0.0)

	p.TaxRateOverride = 2
	over := Affordability(p)
	assert.Equal(t, TaxSourceOverride, over.TaxRateSource)
	assert.Equal(t, 0.02, over.TaxRate)
	assert.Less(t, over.EstimatedHomePrice, zip.EstimatedHomePrice)
}

func TestAffordabilityOverrides(t *testing.T) {
	p := scenarioParams()
	zero := 0.0
	p.InsuranceOverride = &zero
	p.PMIRateOverride = 1.2
	p.ClosingCosts = 9000
	r := Affordability(p)

	assert.Zero(t, r.InsuranceMonthly)
	assert.InDelta(t, 0.012, r.PMIAnnualRate, 1e-12)
	assert.Equal(t, 9000.0, r.ClosingCosts)
	assert.InDelta(t, r.EstimatedHomePrice*0.025, r.ClosingCostsAuto, 1e-6)

	p.ClosingCosts = 0
	p.ClosingCostRate = 0.03
	r = Affordability(p)
	assert.InDelta(t, r.EstimatedHomePrice*0.03, r.ClosingCosts, 1e-6)
}

func TestAffordabilityLargeDownPaymentSkipsPMI(t *testing.T) {
	p := scenarioParams()
	p.DownPayment = 400000
	r := Affordability(p)
	assert.LessOrEqual(t, r.LTV, config.PMILTVThreshold)
	assert.Zero(t, r.PMIMonthly)
}

func TestAffordabilityIdempotent(t *testing.T) {
	p := scenarioParams()
	p.ZIPTaxRate = 0.011
	assert.Equal(t, Affordability(p), Affordability(p))
}

func TestAffordabilityDegenerateInputs(t *testing.T) {
	cases := map[string]AffordParams{
		"zero":          {},
		"negative":      {AnnualIncome: -50000, Expenses: -10, DownPayment: -5, Rate: -3, Years: 30, Ratio: 0.28},
		"zero years":    {AnnualIncome: 90000, Rate: 6, Ratio: 0.28},
		"expenses high": {AnnualIncome: 30000, Expenses: 5000, Rate: 6, Years: 30, Ratio: 0.28},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			r := Affordability(p)
			for _, v := range []float64{r.LoanAmount, r.EstimatedHomePrice, r.TotalMonthly, r.MonthlyPI, r.PMIMonthly, r.ClosingCosts} {
				assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
			}
			assert.GreaterOrEqual(t, r.MaxHousingBudget, 0.0)
			assert.GreaterOrEqual(t, r.LoanAmount, 0.0)
		})
	}
}

func TestAffordParamsFrom(t *testing.T) {
	in := model.AffordInputs{AnnualIncome: "95000", Expenses: "900", DownPayment: "20000", ClosingCostRate: "3", HOAAnnual: "1200"}
	s := model.Settings{StrategyIndex: 2, InsuranceOverride: "0", TaxRateOverride: "1.5"}
	p := AffordParamsFrom(in, s, 6.5, config.LoanTypeOrDefault("conventional-15"), 0.01)

	assert.Equal(t, 95000.0, p.AnnualIncome)
	assert.InDelta(t, 0.03, p.ClosingCostRate, 1e-12)
	assert.Equal(t, 15, p.Years)
	assert.Equal(t, 0.33, p.Ratio)
	require.NotNil(t, p.InsuranceOverride)
	assert.Zero(t, *p.InsuranceOverride)
	assert.Equal(t, 1.5, p.TaxRateOverride)

	s.InsuranceOverride = ""
	p = AffordParamsFrom(in, s, 6.5, config.LoanTypes[0], 0)
	assert.Nil(t, p.InsuranceOverride)
}

func manualLoanRates(rate string) []rates.LoanRate {
	return rates.ResolveAll(config.LoanTypes, rates.Request{Mode: model.ModeManual, Manual: rate})
}

func liveLoanRates() []rates.LoanRate {
	data := map[model.SeriesID]model.RateObservation{
		model.Series30YFixed: {Date: "2026-03-12", Rate: 6.5},
		model.Series15YFixed: {Date: "2026-03-12", Rate: 5.75},
		model.SeriesARM5Y:    {Date: "2026-03-12", Rate: 6.1},
	}
	return rates.ResolveAll(config.LoanTypes, rates.Request{Mode: model.ModeLive, Data: data})
}

func TestLoanOptionsSorted(t *testing.T) {
	opts := LoanOptions(scenarioParams(), liveLoanRates())
	require.Len(t, opts, len(config.LoanTypes))
	for i := 1; i < len(opts); i++ {
		assert.LessOrEqual(t, opts[i-1].Rate, opts[i].Rate)
	}
	assert.Equal(t, "conventional-15", opts[0].LoanID)
	for _, o := range opts {
		assert.InDelta(t, o.LoanAmount+20000, o.HomePrice, 1e-6)
		assert.GreaterOrEqual(t, o.TotalInterest, 0.0)
		assert.Greater(t, o.TotalMonthly, o.MonthlyPI)
	}
}

func TestLoanOptionsMatchPrimaryWithoutPMIOrTax(t *testing.T) {
	p := scenarioParams()
	p.DownPayment = 400000
	r := Affordability(p)
	opts := LoanOptions(p, manualLoanRates("7"))
	var conv LoanOption
	for _, o := range opts {
		if o.LoanID == "conventional-30" {
			conv = o
		}
	}
	assert.InDelta(t, r.LoanAmount, conv.LoanAmount, 1e-6)
	assert.InDelta(t, r.TotalMonthly, conv.TotalMonthly, 1e-6)
}

func TestTopLoanFits(t *testing.T) {
	p := scenarioParams()
	r := Affordability(p)
	fits := TopLoanFits(r, LoanOptions(p, liveLoanRates()))
	require.Len(t, fits, 3)
	for i := 1; i < len(fits); i++ {
		assert.LessOrEqual(t, fits[i-1].ComparableTotalMonthly, fits[i].ComparableTotalMonthly)
	}
	// At a common price the cheapest payment is the 30-year with the lowest rate.
	assert.Equal(t, "va-30", fits[0].LoanID)
}

func TestTopLoanFitsWithoutTarget(t *testing.T) {
	opts := LoanOptions(AffordParams{}, manualLoanRates("6"))
	fits := TopLoanFits(AffordResult{}, opts)
	require.Len(t, fits, 3)
	for i, f := range fits {
		assert.Equal(t, opts[i].LoanID, f.LoanID)
		assert.Equal(t, f.TotalMonthly, f.ComparableTotalMonthly)
	}
	assert.Empty(t, TopLoanFits(AffordResult{}, nil))
}

func TestHealth(t *testing.T) {
	tests := []struct {
		total, gross float64
		want         string
	}{
		{2000, 10000, "Healthy"},
		{2800, 10000, "Healthy"},
		{3000, 10000, "Watchlist"},
		{3600, 10000, "Watchlist"},
		{3700, 10000, "High risk"},
		{1000, 0, "Healthy"},
	}
	for _, tt := range tests {
		h := Health(tt.total, tt.gross)
		assert.Equal(t, tt.want, h.Label, "total=%v gross=%v", tt.total, tt.gross)
		assert.NotEmpty(t, h.Note)
	}
	assert.Equal(t, 0, Health(2000, 10000).Severity())
	assert.Equal(t, 1, Health(3000, 10000).Severity())
	assert.Equal(t, 2, Health(4000, 10000).Severity())
}

func TestRefinanceScenario(t *testing.T) {
	r := Refinance(RefiParams{
		Mode:         model.ModeManual,
		Balance:      320000,
		CurrentRate:  7.1,
		NewRate:      6.2,
		ClosingCosts: 6500,
		Years:        30,
	})
	assert.InDelta(t, 2150.50, r.CurrentPayment, 0.01)
	assert.InDelta(t, 1959.90, r.NewPayment, 0.01)
	assert.InDelta(t, 190.60, r.MonthlySavings, 0.01)
	assert.Equal(t, 35, r.BreakEvenMonths)
	assert.Equal(t, Recommendation{"Moderate", "Savings are real, but recovery takes longer."}, Recommend(r))
}

func TestRefinanceHigherRateHasNoSavings(t *testing.T) {
	r := Refinance(RefiParams{Mode: model.ModeLive, Balance: 300000, CurrentRate: 5, NewRate: 6.5, ClosingCosts: 5000, Years: 30})
	assert.Zero(t, r.MonthlySavings)
	assert.Zero(t, r.BreakEvenMonths)
	assert.Equal(t, "Wait", Recommend(r).Label)
}

func TestRefinanceTargetMode(t *testing.T) {
	r := Refinance(RefiParams{Mode: model.ModeTarget, Balance: 320000, CurrentRate: 7.1, ClosingCosts: 6500, TargetMonths: 24, Years: 30})
	require.True(t, r.TargetAchievable)
	assert.InDelta(t, 5.81, r.NewRate, 0.01)
	assert.LessOrEqual(t, r.BreakEvenMonths, 24)
	assert.GreaterOrEqual(t, r.MonthlySavings, 6500.0/24-1e-3)
	assert.Equal(t, "Strong candidate", Recommend(r).Label)
}

func TestRefinanceTargetNotAchievable(t *testing.T) {
	r := Refinance(RefiParams{Mode: model.ModeTarget, Balance: 100000, CurrentRate: 6, ClosingCosts: 50000, TargetMonths: 1, Years: 30})
	assert.False(t, r.TargetAchievable)
	assert.Zero(t, r.NewRate)
	assert.Zero(t, r.NewPayment)
	assert.Zero(t, r.MonthlySavings)
	assert.Zero(t, r.BreakEvenMonths)
}

func TestRefiParamsFromManual(t *testing.T) {
	in := model.RefiInputs{Balance: "320000", CurrentRate: "7.1", NewRate: "6.2", ClosingCosts: "6500", TargetMonths: "24"}
	p := RefiParamsFrom(in, model.ModeManual, 9.9, 30)
	assert.Equal(t, 6.2, p.NewRate)
	p = RefiParamsFrom(in, model.ModeLive, 6.4, 30)
	assert.Equal(t, 6.4, p.NewRate)
	assert.Equal(t, 24.0, p.TargetMonths)
}

func TestRefinanceDegenerateInputs(t *testing.T) {
	for _, p := range []RefiParams{{}, {Balance: -1, CurrentRate: -2, NewRate: -3, ClosingCosts: -4, Years: -5}} {
		r := Refinance(p)
		assert.GreaterOrEqual(t, r.MonthlySavings, 0.0)
		assert.GreaterOrEqual(t, r.BreakEvenMonths, 0)
		assert.False(t, math.IsNaN(r.NewPayment))
	}
}

func TestSavingsTimeline(t *testing.T) {
	pts := SavingsTimeline(RefiResult{MonthlySavings: 200, ClosingCosts: 6000})
	require.Len(t, pts, 4)
	assert.Equal(t, TimelinePoint{Months: 12, Gross: 2400, Net: -3600}, pts[0])
	assert.Equal(t, TimelinePoint{Months: 60, Gross: 12000, Net: 6000}, pts[3])
}

func TestRecommendBands(t *testing.T) {
	assert.Equal(t, "Strong candidate", Recommend(RefiResult{MonthlySavings: 100, BreakEvenMonths: 24}).Label)
	assert.Equal(t, "Moderate", Recommend(RefiResult{MonthlySavings: 100, BreakEvenMonths: 48}).Label)
	assert.Equal(t, "Long horizon", Recommend(RefiResult{MonthlySavings: 100, BreakEvenMonths: 49}).Label)
	assert.Equal(t, 0, Recommend(RefiResult{MonthlySavings: 100, BreakEvenMonths: 12}).Severity())
	assert.Equal(t, 2, Recommend(RefiResult{}).Severity())
}

func TestEvaluateManualWithoutData(t *testing.T) {
	ev := Evaluate(EvalInput{
		Afford: model.AffordInputs{AnnualIncome: "95000", Expenses: "900", DownPayment: "20000", HOAAnnual: "1200", Rate: "7"},
		Refi:   model.RefiInputs{Balance: "320000", CurrentRate: "7.1", NewRate: "6.2", ClosingCosts: "6500"},
		Settings: model.Settings{
			LoanTypeID:    "conventional-30",
			RateMode:      model.ModeManual,
			RefiRateMode:  model.ModeManual,
			StrategyIndex: 1,
		},
	})

	assert.Equal(t, 7.0, ev.Afford.Rate)
	assert.Equal(t, rates.SourceManual, ev.Resolution.Source)
	require.NotNil(t, ev.Selected)
	assert.Equal(t, "conventional-30", ev.Selected.LoanID)
	assert.Greater(t, ev.Afford.EstimatedHomePrice, 0.0)
	assert.Len(t, ev.Fits, 3)
	assert.Equal(t, 35, ev.Refi.BreakEvenMonths)
	assert.Equal(t, "Moderate", ev.Recommendation.Label)
	assert.Len(t, ev.Timeline, 4)
}

func TestEvaluateTargetModeOnlyForRefi(t *testing.T) {
	data := map[model.SeriesID]model.RateObservation{
		model.Series30YFixed: {Date: "2026-03-12", Rate: 6.5},
	}
	ev := Evaluate(EvalInput{
		Afford:   model.AffordInputs{AnnualIncome: "120000"},
		Refi:     model.RefiInputs{Balance: "320000", CurrentRate: "7.1", ClosingCosts: "6500", TargetMonths: "24"},
		Settings: model.Settings{RateMode: model.ModeTarget, RefiRateMode: model.ModeTarget},
		Data:     data,
	})
	assert.Equal(t, 6.5, ev.Afford.Rate)
	assert.Equal(t, model.ModeTarget, ev.Refi.Mode)
	assert.True(t, ev.Refi.TargetAchievable)
	assert.InDelta(t, 5.81, ev.Refi.NewRate, 0.01)
}
