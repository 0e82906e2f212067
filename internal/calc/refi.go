package calc

import (
	"math"

	"github.com/theirongolddev/homecalc/internal/amortize"
	"github.com/theirongolddev/homecalc/internal/model"
	"github.com/theirongolddev/homecalc/internal/numeric"
)

// TimelineMonths are the horizons reported by SavingsTimeline.
var TimelineMonths = []int{12, 24, 36, 60}

// RefiParams are the parsed refinance inputs. Rates are annual percents.
type RefiParams struct {
	Mode         model.RateMode
	Balance      float64
	CurrentRate  float64
	NewRate      float64 // resolved rate; ignored in target mode
	ClosingCosts float64
	TargetMonths float64
	Years        int
}

// RefiParamsFrom parses the raw refinance form. resolvedRate is the output
// of rate resolution for the refinance loan type; manual mode uses the
// typed new rate directly.
func RefiParamsFrom(in model.RefiInputs, mode model.RateMode, resolvedRate float64, years int) RefiParams {
	p := RefiParams{
		Mode:         mode,
		Balance:      numeric.ParseNumber(in.Balance),
		CurrentRate:  numeric.ParseNumber(in.CurrentRate),
		NewRate:      resolvedRate,
		ClosingCosts: numeric.ParseNumber(in.ClosingCosts),
		TargetMonths: numeric.ParseNumber(in.TargetMonths),
		Years:        years,
	}
	if mode == model.ModeManual {
		p.NewRate = numeric.ParseNumber(in.NewRate)
	}
	return p
}

// RefiResult is the refinance comparison.
type RefiResult struct {
	Mode           model.RateMode
	Balance        float64
	CurrentRate    float64
	NewRate        float64
	ClosingCosts   float64
	Years          int
	CurrentPayment float64
	NewPayment     float64
	MonthlySavings float64
	// BreakEvenMonths is 0 when there are no savings.
	BreakEvenMonths int

	TargetMonths float64
	// TargetRate is the highest rate that breaks even within TargetMonths.
	TargetRate float64
	// TargetAchievable is false when no rate in the search range works.
	TargetAchievable bool
}

// Refinance compares the current payment with a new one over Years.
// In target mode the new rate is solved from TargetMonths; when no rate
// qualifies, the new payment, savings and break-even are all zero.
func Refinance(p RefiParams) RefiResult {
	r := RefiResult{
		Mode:           p.Mode,
		Balance:        p.Balance,
		CurrentRate:    p.CurrentRate,
		NewRate:        p.NewRate,
		ClosingCosts:   p.ClosingCosts,
		Years:          p.Years,
		TargetMonths:   p.TargetMonths,
		CurrentPayment: amortize.MonthlyPayment(p.Balance, p.CurrentRate, p.Years),
	}
	r.TargetRate, r.TargetAchievable = amortize.SolveRateForBreakEven(p.Balance, p.CurrentRate, p.ClosingCosts, p.TargetMonths, p.Years)

	if p.Mode == model.ModeTarget {
		if !r.TargetAchievable {
			r.NewRate = 0
			return r
		}
		r.NewRate = r.TargetRate
	}

	r.NewPayment = amortize.MonthlyPayment(p.Balance, r.NewRate, p.Years)
	r.MonthlySavings = math.Max(0, r.CurrentPayment-r.NewPayment)
	r.BreakEvenMonths = breakEven(p.ClosingCosts, r.MonthlySavings)
	return r
}

func breakEven(closing, savings float64) int {
	if savings <= 0 {
		return 0
	}
	m := math.Ceil(closing / savings)
	if math.IsNaN(m) || math.IsInf(m, 0) || m < 0 {
		return 0
	}
	return int(m)
}

// TimelinePoint is cumulative savings at a horizon.
type TimelinePoint struct {
	Months int
	Gross  float64
	Net    float64 // gross less closing costs
}

// SavingsTimeline reports cumulative savings at each of TimelineMonths.
func SavingsTimeline(r RefiResult) []TimelinePoint {
	out := make([]TimelinePoint, 0, len(TimelineMonths))
	for _, m := range TimelineMonths {
		gross := r.MonthlySavings * float64(m)
		out = append(out, TimelinePoint{Months: m, Gross: gross, Net: gross - r.ClosingCosts})
	}
	return out
}

// Recommendation is a one-line verdict on a refinance result.
type Recommendation struct {
	Label string
	Note  string
}

// Severity ranks the verdict: 0 strong, 1 moderate, 2 wait or long horizon.
func (r Recommendation) Severity() int {
	switch r.Label {
	case "Strong candidate":
		return 0
	case "Moderate":
		return 1
	default:
		return 2
	}
}

// Recommend grades a refinance by its break-even horizon.
func Recommend(r RefiResult) Recommendation {
	switch {
	case r.MonthlySavings <= 0 || r.BreakEvenMonths <= 0:
		return Recommendation{"Wait", "No projected savings with the current assumptions."}
	case r.BreakEvenMonths <= 24:
		return Recommendation{"Strong candidate", "Break-even is under 24 months."}
	case r.BreakEvenMonths <= 48:
		return Recommendation{"Moderate", "Savings are real, but recovery takes longer."}
	default:
		return Recommendation{"Long horizon", "Only attractive if you expect to keep the loan for years."}
	}
}
