// Package rates turns benchmark observations into effective loan rates.
package rates

import (
	"github.com/theirongolddev/homecalc/internal/config"
	"github.com/theirongolddev/homecalc/internal/model"
	"github.com/theirongolddev/homecalc/internal/numeric"
)

// Source records which step of the fallback chain produced a base rate.
type Source string

// Base rate sources, in precedence order.
const (
	SourceManual         Source = "manual"
	SourceSeries         Source = "series"
	SourceDefaultSeries  Source = "default-series"
	SourceStaleSeries    Source = "stale-series"
	SourceManualFallback Source = "manual-fallback"
)

// Request is the input to Resolve.
type Request struct {
	Mode   model.RateMode
	Loan   config.LoanType
	Data   map[model.SeriesID]model.RateObservation
	Manual string
	Credit config.CreditScoreBucket
}

// Resolution is an effective rate and how it was derived.
type Resolution struct {
	Rate        float64
	BaseRate    float64
	LoanAdjust  float64
	ScoreAdjust float64
	Source      Source
	// Observation is the benchmark used, nil for manual sources.
	Observation *model.RateObservation
	SeriesID    model.SeriesID
}

type provider struct {
	source Source
	pick   func(req Request) (model.SeriesID, model.RateObservation, bool)
}

// baseProviders are tried in order until one yields an observation.
var baseProviders = []provider{
	{SourceSeries, func(req Request) (model.SeriesID, model.RateObservation, bool) {
		id := config.BaseSeries(req.Loan.RateSeries)
		obs, ok := req.Data[id]
		return id, obs, ok && finite(obs.Rate) && !obs.IsStale
	}},
	{SourceDefaultSeries, func(req Request) (model.SeriesID, model.RateObservation, bool) {
		obs, ok := req.Data[config.DefaultSeries]
		return config.DefaultSeries, obs, ok && finite(obs.Rate)
	}},
	{SourceStaleSeries, func(req Request) (model.SeriesID, model.RateObservation, bool) {
		id := config.BaseSeries(req.Loan.RateSeries)
		obs, ok := req.Data[id]
		return id, obs, ok && finite(obs.Rate)
	}},
}

// Resolve computes the effective annual rate for one loan type.
//
// Manual mode returns the typed value unchanged, with no loan or credit
// adjustment. Every other mode starts from a benchmark base rate, falling
// back from the loan's own series to the default series, then to the
// loan's series even when stale, then to the typed value. The loan type's
// offset is added, plus the credit bucket's markup in credit mode.
func Resolve(req Request) Resolution {
	manual := numeric.ParseNumber(req.Manual)
	if req.Mode == model.ModeManual {
		return Resolution{Rate: manual, BaseRate: manual, Source: SourceManual}
	}

	res := Resolution{BaseRate: manual, Source: SourceManualFallback, LoanAdjust: req.Loan.RateAdjust}
	for _, p := range baseProviders {
		id, obs, ok := p.pick(req)
		if !ok {
			continue
		}
		res.BaseRate = obs.Rate
		res.Source = p.source
		res.SeriesID = id
		res.Observation = &obs
		break
	}

	if req.Mode == model.ModeCredit {
		res.ScoreAdjust = req.Credit.Adjust
	}
	res.Rate = res.BaseRate + res.LoanAdjust + res.ScoreAdjust
	return res
}

// LoanRate pairs a loan type with its resolved rate.
type LoanRate struct {
	Loan       config.LoanType
	Resolution Resolution
}

// ResolveAll applies Resolve to every loan in loans with the same mode,
// data, manual entry and credit bucket.
func ResolveAll(loans []config.LoanType, req Request) []LoanRate {
	out := make([]LoanRate, 0, len(loans))
	for _, lt := range loans {
		r := req
		r.Loan = lt
		out = append(out, LoanRate{Loan: lt, Resolution: Resolve(r)})
	}
	return out
}
