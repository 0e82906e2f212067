// Package calc composes rates and amortization math into the affordability
// and refinance results shown to users. Every function is pure and total:
// zero or negative inputs produce zeros, never errors or NaN.
package calc

import (
	"math"

	"github.com/theirongolddev/homecalc/internal/amortize"
	"github.com/theirongolddev/homecalc/internal/config"
	"github.com/theirongolddev/homecalc/internal/model"
	"github.com/theirongolddev/homecalc/internal/numeric"
)

// Price band around the estimated loan amount.
const (
	conservativeFactor = 0.95
	optimisticFactor   = 1.05
)

// Tax rate sources reported on AffordResult.
const (
	TaxSourceOverride = "override"
	TaxSourceZIP      = "zip"
	TaxSourceNone     = "none"
)

// AffordParams are the parsed affordability inputs. Rates are annual
// percents except ClosingCostRate and ZIPTaxRate, which are fractions.
type AffordParams struct {
	AnnualIncome    float64
	Expenses        float64 // monthly, non-housing
	DownPayment     float64
	ClosingCosts    float64 // flat override, used when > 0
	ClosingCostRate float64 // fraction of home price, used when > 0
	HOAAnnual       float64
	Rate            float64
	Years           int
	Ratio           float64 // share of gross monthly income for housing

	InsuranceOverride *float64 // monthly; nil means the default
	PMIRateOverride   float64  // annual percent, used when > 0
	TaxRateOverride   float64  // annual percent, used when > 0
	ZIPTaxRate        float64  // fraction from the tax lookup
}

// AffordResult carries every intermediate figure of the estimate.
type AffordResult struct {
	AnnualIncome     float64
	GrossMonthly     float64
	Expenses         float64
	DownPayment      float64
	Rate             float64
	Years            int
	Ratio            float64
	MaxHousingBudget float64
	HOAMonthly       float64
	InsuranceMonthly float64
	PropertyTax      float64 // monthly
	TaxRate          float64 // fraction actually applied
	TaxRateSource    string
	PMIAnnualRate    float64
	PMIMonthly       float64
	LTV              float64

	PrincipalPayment   float64 // monthly principal and interest budget
	LoanAmount         float64
	EstimatedHomePrice float64
	Conservative       float64
	Optimistic         float64

	ClosingCosts        float64
	ClosingCostsAuto    float64
	ClosingCostRateUsed float64

	MonthlyPI    float64
	TotalMonthly float64
}

// AffordParamsFrom parses the raw form fields and settings overrides.
// insuranceOverride is applied whenever it is non-empty.
func AffordParamsFrom(in model.AffordInputs, s model.Settings, rate float64, loan config.LoanType, zipTaxRate float64) AffordParams {
	p := AffordParams{
		AnnualIncome:    numeric.ParseNumber(in.AnnualIncome),
		Expenses:        numeric.ParseNumber(in.Expenses),
		DownPayment:     numeric.ParseNumber(in.DownPayment),
		ClosingCosts:    numeric.ParseNumber(in.ClosingCosts),
		ClosingCostRate: numeric.ParseNumber(in.ClosingCostRate) / 100,
		HOAAnnual:       numeric.ParseNumber(in.HOAAnnual),
		Rate:            rate,
		Years:           loan.AmortizationYears,
		Ratio:           config.StrategyAt(s.StrategyIndex).Ratio,
		PMIRateOverride: numeric.ParseNumber(s.PMIRateOverride),
		TaxRateOverride: numeric.ParseNumber(s.TaxRateOverride),
		ZIPTaxRate:      zipTaxRate,
	}
	if s.InsuranceOverride != "" {
		v := numeric.ParseNumber(s.InsuranceOverride)
		p.InsuranceOverride = &v
	}
	return p
}

func (p AffordParams) insuranceMonthly() float64 {
	if p.InsuranceOverride != nil {
		return *p.InsuranceOverride
	}
	return config.DefaultInsuranceMonthly
}

func (p AffordParams) pmiAnnualRate() float64 {
	if p.PMIRateOverride > 0 {
		return p.PMIRateOverride / 100
	}
	return config.DefaultPMIRate
}

// taxRate returns the effective annual tax rate and its source.
func (p AffordParams) taxRate() (float64, string) {
	if p.TaxRateOverride > 0 {
		return p.TaxRateOverride / 100, TaxSourceOverride
	}
	if p.ZIPTaxRate > 0 && !math.IsInf(p.ZIPTaxRate, 0) {
		return p.ZIPTaxRate, TaxSourceZIP
	}
	return 0, TaxSourceNone
}

func (p AffordParams) maxHousingBudget() float64 {
	return math.Max(0, p.AnnualIncome/12*p.Ratio-p.Expenses)
}

// loanFor inverts the payment formula for a monthly principal budget.
func loanFor(budget, factor float64) float64 {
	if budget <= 0 {
		return 0
	}
	return budget / factor
}

func pmiMonthly(loanAmount, homePrice, annualRate float64) (ltv, pmi float64) {
	if homePrice > 0 {
		ltv = loanAmount / homePrice
	}
	if ltv > config.PMILTVThreshold {
		pmi = loanAmount * annualRate / 12
	}
	return ltv, pmi
}

// closingCosts applies the flat override, then the rate override, then
// the default rate.
func closingCosts(p AffordParams, homePrice float64) (amount, auto, rateUsed float64) {
	rateUsed = p.ClosingCostRate
	if rateUsed <= 0 {
		rateUsed = config.DefaultClosingCostRate
	}
	auto = homePrice * rateUsed
	amount = auto
	if p.ClosingCosts > 0 {
		amount = p.ClosingCosts
	}
	return amount, auto, rateUsed
}

// Affordability estimates the loan and home price a budget supports.
//
// Property tax and PMI both depend on the home price, which depends on
// them in turn. The estimate runs exactly two refinement passes: a first
// pass with no tax or PMI sets the tax, a second pass with tax sets a
// provisional PMI, and the final figures use both. The residual between
// provisional and final PMI is accepted.
func Affordability(p AffordParams) AffordResult {
	r := AffordResult{
		AnnualIncome:     p.AnnualIncome,
		GrossMonthly:     p.AnnualIncome / 12,
		Expenses:         p.Expenses,
		DownPayment:      p.DownPayment,
		Rate:             p.Rate,
		Years:            p.Years,
		Ratio:            p.Ratio,
		MaxHousingBudget: p.maxHousingBudget(),
		HOAMonthly:       p.HOAAnnual / 12,
		InsuranceMonthly: p.insuranceMonthly(),
		PMIAnnualRate:    p.pmiAnnualRate(),
	}
	r.TaxRate, r.TaxRateSource = p.taxRate()

	factor := amortize.PaymentFactor(p.Rate, p.Years)
	fixed := r.InsuranceMonthly + r.HOAMonthly

	// Pass one: no tax, no PMI.
	baseLoan := loanFor(math.Max(0, r.MaxHousingBudget-fixed), factor)
	baseHomePrice := baseLoan + p.DownPayment
	if r.TaxRate > 0 {
		r.PropertyTax = baseHomePrice * r.TaxRate / 12
	}

	// Pass two: with tax, derive provisional PMI.
	preLoan := loanFor(math.Max(0, r.MaxHousingBudget-fixed-r.PropertyTax), factor)
	_, prePMI := pmiMonthly(preLoan, preLoan+p.DownPayment, r.PMIAnnualRate)

	// Final figures.
	r.PrincipalPayment = math.Max(0, r.MaxHousingBudget-fixed-r.PropertyTax-prePMI)
	r.LoanAmount = loanFor(r.PrincipalPayment, factor)
	r.EstimatedHomePrice = r.LoanAmount + p.DownPayment
	r.LTV, r.PMIMonthly = pmiMonthly(r.LoanAmount, r.EstimatedHomePrice, r.PMIAnnualRate)

	r.ClosingCosts, r.ClosingCostsAuto, r.ClosingCostRateUsed = closingCosts(p, r.EstimatedHomePrice)
	r.Conservative = r.LoanAmount*conservativeFactor + p.DownPayment
	r.Optimistic = r.LoanAmount*optimisticFactor + p.DownPayment

	r.MonthlyPI = amortize.MonthlyPayment(r.LoanAmount, p.Rate, p.Years)
	r.TotalMonthly = r.MonthlyPI + r.InsuranceMonthly + r.HOAMonthly + r.PropertyTax + r.PMIMonthly
	return r
}
