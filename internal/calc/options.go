package calc

import (
	"math"
	"sort"

	"github.com/theirongolddev/homecalc/internal/amortize"
	"github.com/theirongolddev/homecalc/internal/rates"
)

// topFitCount is how many options TopLoanFits returns.
const topFitCount = 3

// LoanOption is one row of the loan type comparison.
type LoanOption struct {
	LoanID        string
	Label         string
	Rate          float64
	Years         int
	Source        rates.Source
	LoanAmount    float64
	HomePrice     float64
	LTV           float64
	MonthlyPI     float64
	PMIMonthly    float64
	PropertyTax   float64
	TotalMonthly  float64
	TotalInterest float64
	ClosingCosts  float64
}

// LoanOptions costs every resolved loan type against the same budget.
// Each option runs a single tax pass and no provisional PMI, so its home
// price can sit slightly above the primary estimate. Options are sorted by
// rate, then total monthly cost, then home price descending.
func LoanOptions(p AffordParams, loans []rates.LoanRate) []LoanOption {
	budget := p.maxHousingBudget()
	fixed := p.insuranceMonthly() + p.HOAAnnual/12
	taxRate, _ := p.taxRate()
	pmiRate := p.pmiAnnualRate()

	out := make([]LoanOption, 0, len(loans))
	for _, lr := range loans {
		rate := lr.Resolution.Rate
		years := lr.Loan.AmortizationYears
		factor := amortize.PaymentFactor(rate, years)

		baseLoan := loanFor(math.Max(0, budget-fixed), factor)
		tax := (baseLoan + p.DownPayment) * taxRate / 12
		loan := loanFor(math.Max(0, budget-fixed-tax), factor)
		price := loan + p.DownPayment
		ltv, pmi := pmiMonthly(loan, price, pmiRate)
		pi := amortize.MonthlyPayment(loan, rate, years)
		closing, _, _ := closingCosts(p, price)

		out = append(out, LoanOption{
			LoanID:        lr.Loan.ID,
			Label:         lr.Loan.Label,
			Rate:          rate,
			Years:         years,
			Source:        lr.Resolution.Source,
			LoanAmount:    loan,
			HomePrice:     price,
			LTV:           ltv,
			MonthlyPI:     pi,
			PMIMonthly:    pmi,
			PropertyTax:   tax,
			TotalMonthly:  pi + fixed + pmi + tax,
			TotalInterest: math.Max(0, pi*float64(years*12)-loan),
			ClosingCosts:  closing,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Rate != b.Rate {
			return a.Rate < b.Rate
		}
		if a.TotalMonthly != b.TotalMonthly {
			return a.TotalMonthly < b.TotalMonthly
		}
		return a.HomePrice > b.HomePrice
	})
	return out
}

// LoanFit is a loan option re-costed at a common target price.
type LoanFit struct {
	LoanOption
	ComparableTotalMonthly float64
}

// TopLoanFits re-costs each option at the primary estimated home price and
// returns the three cheapest. Without a usable target price it returns the
// first three options as given, compared on their own totals.
func TopLoanFits(result AffordResult, options []LoanOption) []LoanFit {
	target := result.EstimatedHomePrice
	fits := make([]LoanFit, 0, len(options))

	if !(target > 0) || math.IsInf(target, 0) {
		for _, o := range options {
			if len(fits) == topFitCount {
				break
			}
			fits = append(fits, LoanFit{LoanOption: o, ComparableTotalMonthly: o.TotalMonthly})
		}
		return fits
	}

	loan := math.Max(0, target-result.DownPayment)
	_, pmi := pmiMonthly(loan, target, result.PMIAnnualRate)
	tax := target * result.TaxRate / 12
	fixed := result.InsuranceMonthly + result.HOAMonthly + tax + pmi
	for _, o := range options {
		pi := amortize.MonthlyPayment(loan, o.Rate, o.Years)
		fits = append(fits, LoanFit{LoanOption: o, ComparableTotalMonthly: pi + fixed})
	}

	sort.SliceStable(fits, func(i, j int) bool {
		a, b := fits[i], fits[j]
		if a.ComparableTotalMonthly != b.ComparableTotalMonthly {
			return a.ComparableTotalMonthly < b.ComparableTotalMonthly
		}
		if a.Rate != b.Rate {
			return a.Rate < b.Rate
		}
		return a.HomePrice > b.HomePrice
	})
	if len(fits) > topFitCount {
		fits = fits[:topFitCount]
	}
	return fits
}

// Health rating thresholds on total monthly cost over gross monthly income.
const (
	HealthyMaxRatio   = 0.28
	WatchlistMaxRatio = 0.36
)

// HealthAssessment labels a payment-to-income ratio.
type HealthAssessment struct {
	Label string
	Note  string
	Ratio float64
}

// Severity ranks the assessment: 0 healthy, 1 watchlist, 2 high risk.
func (h HealthAssessment) Severity() int {
	switch {
	case h.Ratio <= HealthyMaxRatio:
		return 0
	case h.Ratio <= WatchlistMaxRatio:
		return 1
	default:
		return 2
	}
}

// Health rates totalMonthly against grossMonthly. A non-positive income
// yields a zero ratio.
func Health(totalMonthly, grossMonthly float64) HealthAssessment {
	var ratio float64
	if grossMonthly > 0 {
		ratio = totalMonthly / grossMonthly
	}
	switch {
	case ratio <= HealthyMaxRatio:
		return HealthAssessment{Label: "Healthy", Note: "Payment ratio is inside common underwriting comfort zones.", Ratio: ratio}
	case ratio <= WatchlistMaxRatio:
		return HealthAssessment{Label: "Watchlist", Note: "Budget is workable, but less flexible against shocks.", Ratio: ratio}
	default:
		return HealthAssessment{Label: "High risk", Note: "Payment ratio is stretched and may be hard to sustain.", Ratio: ratio}
	}
}
