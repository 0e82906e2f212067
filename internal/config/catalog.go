package config

import "github.com/theirongolddev/homecalc/internal/model"

// SeriesConfig describes one benchmark series and the ids to try for it.
type SeriesConfig struct {
	ID      model.SeriesID
	Label   string
	Bucket  string
	Aliases []model.SeriesID
}

// Candidates returns the primary id followed by its aliases.
func (s SeriesConfig) Candidates() []model.SeriesID {
	out := make([]model.SeriesID, 0, 1+len(s.Aliases))
	out = append(out, s.ID)
	return append(out, s.Aliases...)
}

// DefaultSeries is the benchmark used when a loan's own series is unusable.
const DefaultSeries = model.Series30YFixed

// RateSeries lists every tracked series in display order.
var RateSeries = []SeriesConfig{
	{ID: model.Series30YFixed, Label: "Freddie Mac 30Y fixed (PMMS via FRED)", Bucket: "30Y fixed"},
	{ID: model.Series15YFixed, Label: "Freddie Mac 15Y fixed (PMMS via FRED)", Bucket: "15Y fixed"},
	{
		ID:      model.SeriesARM5Y,
		Label:   "Freddie Mac 5/1 ARM (PMMS via FRED)",
		Bucket:  "5/1 ARM",
		Aliases: []model.SeriesID{model.SeriesARMAlias},
	},
}

// baseSeriesFallback maps series whose publication is unreliable to the
// series their loans are priced from.
var baseSeriesFallback = map[model.SeriesID]model.SeriesID{
	model.SeriesARM5Y: model.Series30YFixed,
}

// LookupSeries returns the catalog entry for id.
func LookupSeries(id model.SeriesID) (SeriesConfig, bool) {
	for _, s := range RateSeries {
		if s.ID == id {
			return s, true
		}
	}
	return SeriesConfig{}, false
}

// BaseSeries returns the series a loan on id is priced from.
func BaseSeries(id model.SeriesID) model.SeriesID {
	if base, ok := baseSeriesFallback[id]; ok {
		return base
	}
	return id
}

// LoanType is a loan product priced as an offset from a benchmark series.
type LoanType struct {
	ID                string
	Label             string
	RateSeries        model.SeriesID
	AmortizationYears int
	RateAdjust        float64 // percentage points
}

// LoanTypes is the fixed loan catalog. The first entry is the default.
var LoanTypes = []LoanType{
	{ID: "conventional-30", Label: "Conventional 30-year fixed", RateSeries: model.Series30YFixed, AmortizationYears: 30},
	{ID: "conventional-15", Label: "Conventional 15-year fixed", RateSeries: model.Series15YFixed, AmortizationYears: 15},
	{ID: "arm-5-1", Label: "ARM 5/1 (30-year amortization)", RateSeries: model.SeriesARM5Y, AmortizationYears: 30},
	{ID: "fha-30", Label: "FHA 30-year fixed", RateSeries: model.Series30YFixed, AmortizationYears: 30, RateAdjust: -0.15},
	{ID: "va-30", Label: "VA 30-year fixed", RateSeries: model.Series30YFixed, AmortizationYears: 30, RateAdjust: -0.2},
	{ID: "usda-30", Label: "USDA 30-year fixed", RateSeries: model.Series30YFixed, AmortizationYears: 30, RateAdjust: -0.1},
	{ID: "jumbo-30", Label: "Jumbo 30-year fixed", RateSeries: model.Series30YFixed, AmortizationYears: 30, RateAdjust: 0.25},
}

// LookupLoanType returns the loan type with the given id.
func LookupLoanType(id string) (LoanType, bool) {
	for _, lt := range LoanTypes {
		if lt.ID == id {
			return lt, true
		}
	}
	return LoanType{}, false
}

// LoanTypeOrDefault returns the loan type with the given id, or the first
// catalog entry when id is unknown.
func LoanTypeOrDefault(id string) LoanType {
	if lt, ok := LookupLoanType(id); ok {
		return lt
	}
	return LoanTypes[0]
}

// CreditScoreBucket is a credit score band and its rate markup.
type CreditScoreBucket struct {
	ID     string
	Label  string
	Adjust float64 // percentage points
}

// CreditScores is ordered best to worst; adjustments never decrease.
var CreditScores = []CreditScoreBucket{
	{ID: "760plus", Label: "760+", Adjust: 0},
	{ID: "740-759", Label: "740-759", Adjust: 0.125},
	{ID: "720-739", Label: "720-739", Adjust: 0.25},
	{ID: "700-719", Label: "700-719", Adjust: 0.375},
	{ID: "680-699", Label: "680-699", Adjust: 0.5},
	{ID: "660-679", Label: "660-679", Adjust: 0.75},
	{ID: "640-659", Label: "640-659", Adjust: 1.0},
	{ID: "620-639", Label: "620-639", Adjust: 1.5},
}

// LookupCreditScore returns the bucket with the given id.
func LookupCreditScore(id string) (CreditScoreBucket, bool) {
	for _, b := range CreditScores {
		if b.ID == id {
			return b, true
		}
	}
	return CreditScoreBucket{}, false
}

// CreditScoreOrDefault returns the bucket with the given id, or the best band.
func CreditScoreOrDefault(id string) CreditScoreBucket {
	if b, ok := LookupCreditScore(id); ok {
		return b
	}
	return CreditScores[0]
}

// Strategy caps housing costs at a share of gross monthly income.
type Strategy struct {
	ID    string
	Label string
	Ratio float64
}

// Strategies are ordered from most to least cautious.
var Strategies = []Strategy{
	{ID: "conservative", Label: "Conservative", Ratio: 0.25},
	{ID: "standard", Label: "Standard", Ratio: 0.28},
	{ID: "stretch", Label: "Stretch", Ratio: 0.33},
}

// DefaultStrategyIndex points at the standard 28% strategy.
const DefaultStrategyIndex = 1

// StrategyAt returns Strategies[i], or the default strategy when i is out
// of range.
func StrategyAt(i int) Strategy {
	if i < 0 || i >= len(Strategies) {
		return Strategies[DefaultStrategyIndex]
	}
	return Strategies[i]
}

// LookupStrategy finds a strategy by id and returns its index.
func LookupStrategy(id string) (int, bool) {
	for i, s := range Strategies {
		if s.ID == id {
			return i, true
		}
	}
	return 0, false
}

// Affordability defaults.
const (
	DefaultInsuranceMonthly = 120.0
	DefaultPMIRate          = 0.006 // annual, fraction of loan amount
	DefaultClosingCostRate  = 0.025 // fraction of home price
	PMILTVThreshold         = 0.8
)

// MarketCard is a benchmark shown in the market rates panel.
type MarketCard struct {
	SeriesID model.SeriesID
	Label    string
}

// MarketCards lists the market panel in display order.
var MarketCards = []MarketCard{
	{SeriesID: model.Series15YFixed, Label: "15Y fixed benchmark"},
	{SeriesID: model.Series30YFixed, Label: "30Y fixed benchmark"},
	{SeriesID: model.SeriesARM5Y, Label: "5/1 ARM benchmark"},
}
