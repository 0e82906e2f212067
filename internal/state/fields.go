// Package state loads, merges and persists the calculator's inputs,
// settings and saved scenarios, and encodes them into share links.
//
// Stored and shared blobs are never unmarshaled straight into the live
// structs. Each known field is copied only when it has the expected type
// and passes validation, so a corrupt or hostile blob cannot inject values.
package state

import (
	"encoding/json"
	"math"

	"github.com/theirongolddev/homecalc/internal/config"
	"github.com/theirongolddev/homecalc/internal/model"
	"github.com/theirongolddev/homecalc/internal/numeric"
)

type stringField[T any] struct {
	key string
	ptr func(*T) *string
}

var affordFields = []stringField[model.AffordInputs]{
	{"annualIncome", func(in *model.AffordInputs) *string { return &in.AnnualIncome }},
	{"expenses", func(in *model.AffordInputs) *string { return &in.Expenses }},
	{"downPayment", func(in *model.AffordInputs) *string { return &in.DownPayment }},
	{"closingCosts", func(in *model.AffordInputs) *string { return &in.ClosingCosts }},
	{"closingCostRate", func(in *model.AffordInputs) *string { return &in.ClosingCostRate }},
	{"hoaAnnual", func(in *model.AffordInputs) *string { return &in.HOAAnnual }},
	{"zipCode", func(in *model.AffordInputs) *string { return &in.ZIPCode }},
	{"rate", func(in *model.AffordInputs) *string { return &in.Rate }},
}

var refiFields = []stringField[model.RefiInputs]{
	{"balance", func(in *model.RefiInputs) *string { return &in.Balance }},
	{"currentRate", func(in *model.RefiInputs) *string { return &in.CurrentRate }},
	{"newRate", func(in *model.RefiInputs) *string { return &in.NewRate }},
	{"closingCosts", func(in *model.RefiInputs) *string { return &in.ClosingCosts }},
	{"targetMonths", func(in *model.RefiInputs) *string { return &in.TargetMonths }},
}

// sanitizeField cleans a value the way the input form would.
func sanitizeField(key, v string) string {
	if key == "zipCode" {
		return numeric.SanitizeZIP(v)
	}
	return numeric.SanitizeForInput(v)
}

func mergeStrings[T any](dst T, fields []stringField[T], raw map[string]any, sanitize bool) T {
	for _, f := range fields {
		v, ok := raw[f.key].(string)
		if !ok {
			continue
		}
		if sanitize {
			v = sanitizeField(f.key, v)
		}
		*f.ptr(&dst) = v
	}
	return dst
}

// MergeAfford copies every string-typed known field of raw onto dst.
// Shared links pass sanitize so values are cleaned like typed input.
func MergeAfford(dst model.AffordInputs, raw map[string]any, sanitize bool) model.AffordInputs {
	return mergeStrings(dst, affordFields, raw, sanitize)
}

// MergeRefi copies every string-typed known field of raw onto dst.
func MergeRefi(dst model.RefiInputs, raw map[string]any, sanitize bool) model.RefiInputs {
	return mergeStrings(dst, refiFields, raw, sanitize)
}

// DefaultSettings are the selections used before anything is stored.
func DefaultSettings() model.Settings {
	return model.Settings{
		ActiveCalc:        model.CalcAfford,
		LoanTypeID:        config.LoanTypes[0].ID,
		RateMode:          model.ModeLive,
		CreditScoreID:     config.CreditScores[0].ID,
		RefiLoanTypeID:    config.LoanTypes[0].ID,
		RefiRateMode:      model.ModeLive,
		RefiCreditScoreID: config.CreditScores[0].ID,
		StrategyIndex:     config.DefaultStrategyIndex,
	}
}

// ValidCalculator reports whether c names a calculator.
func ValidCalculator(c string) bool {
	return c == string(model.CalcAfford) || c == string(model.CalcRefi)
}

// ClampStrategy bounds i to the strategy catalog.
func ClampStrategy(i int) int {
	return max(0, min(i, len(config.Strategies)-1))
}

// MergeSettings applies each valid field of raw onto dst. Unknown ids,
// empty strings, non-finite numbers and mistyped values are ignored.
// Target mode is kept only for the refinance calculator.
func MergeSettings(dst model.Settings, raw map[string]any) model.Settings {
	str := func(key string) (string, bool) {
		v, ok := raw[key].(string)
		return v, ok && v != ""
	}
	loanID := func(key string, into *string) {
		if v, ok := str(key); ok {
			if _, known := config.LookupLoanType(v); known {
				*into = v
			}
		}
	}
	scoreID := func(key string, into *string) {
		if v, ok := str(key); ok {
			if _, known := config.LookupCreditScore(v); known {
				*into = v
			}
		}
	}

	if v, ok := str("activeCalc"); ok && ValidCalculator(v) {
		dst.ActiveCalc = model.Calculator(v)
	}
	loanID("loanTypeId", &dst.LoanTypeID)
	loanID("refiLoanTypeId", &dst.RefiLoanTypeID)
	scoreID("creditScoreId", &dst.CreditScoreID)
	scoreID("refiCreditScoreId", &dst.RefiCreditScoreID)

	if v, ok := str("rateMode"); ok {
		if m := model.RateMode(v); m.Valid() && m != model.ModeTarget {
			dst.RateMode = m
		}
	}
	if v, ok := str("refiRateMode"); ok {
		if m := model.RateMode(v); m.Valid() {
			dst.RefiRateMode = m
		}
	}

	if v, ok := raw["strategyIndex"].(float64); ok && !math.IsNaN(v) && !math.IsInf(v, 0) {
		dst.StrategyIndex = ClampStrategy(int(v))
	}
	if v, ok := raw["showAssumptions"].(bool); ok {
		dst.ShowAssumptions = v
	}
	if v, ok := raw["insuranceOverride"].(string); ok {
		dst.InsuranceOverride = numeric.SanitizeForInput(v)
	}
	if v, ok := raw["pmiRateOverride"].(string); ok {
		dst.PMIRateOverride = numeric.SanitizeForInput(v)
	}
	if v, ok := raw["taxRateOverride"].(string); ok {
		dst.TaxRateOverride = numeric.SanitizeForInput(v)
	}
	return dst
}

// decodeObject parses a JSON object, returning nil for anything else.
func decodeObject(data []byte) map[string]any {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	return raw
}
