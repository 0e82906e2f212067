package model

import "time"

// Calculator names the active calculator.
type Calculator string

// Calculators.
const (
	CalcAfford Calculator = "afford"
	CalcRefi   Calculator = "refi"
)

// AffordInputs holds the raw text of the affordability form.
type AffordInputs struct {
	AnnualIncome    string `json:"annualIncome" yaml:"annual_income"`
	Expenses        string `json:"expenses" yaml:"expenses"`
	DownPayment     string `json:"downPayment" yaml:"down_payment"`
	ClosingCosts    string `json:"closingCosts" yaml:"closing_costs"`
	ClosingCostRate string `json:"closingCostRate" yaml:"closing_cost_rate"`
	HOAAnnual       string `json:"hoaAnnual" yaml:"hoa_annual"`
	ZIPCode         string `json:"zipCode" yaml:"zip_code"`
	Rate            string `json:"rate" yaml:"rate"`
}

// RefiInputs holds the raw text of the refinance form.
type RefiInputs struct {
	Balance      string `json:"balance" yaml:"balance"`
	CurrentRate  string `json:"currentRate" yaml:"current_rate"`
	NewRate      string `json:"newRate" yaml:"new_rate"`
	ClosingCosts string `json:"closingCosts" yaml:"closing_costs"`
	TargetMonths string `json:"targetMonths" yaml:"target_months"`
}

// Settings holds the persisted calculator selections and overrides.
type Settings struct {
	ActiveCalc        Calculator `json:"activeCalc"`
	LoanTypeID        string     `json:"loanTypeId"`
	RateMode          RateMode   `json:"rateMode"`
	CreditScoreID     string     `json:"creditScoreId"`
	RefiLoanTypeID    string     `json:"refiLoanTypeId"`
	RefiRateMode      RateMode   `json:"refiRateMode"`
	RefiCreditScoreID string     `json:"refiCreditScoreId"`
	StrategyIndex     int        `json:"strategyIndex"`
	ShowAssumptions   bool       `json:"showAssumptions"`
	InsuranceOverride string     `json:"insuranceOverride"`
	PMIRateOverride   string     `json:"pmiRateOverride"`
	TaxRateOverride   string     `json:"taxRateOverride"`
}

// QuickStats is the headline summary saved with a scenario.
type QuickStats struct {
	HomePrice       float64 `json:"homePrice"`
	TotalMonthly    float64 `json:"totalMonthly"`
	BreakEvenMonths int     `json:"breakEvenMonths"`
	MonthlySavings  float64 `json:"monthlySavings"`
	MarketBestRate  float64 `json:"marketBestRate"`
	BestLoanLabel   string  `json:"bestLoanLabel"`
}

// Scenario is a saved snapshot of both calculators.
type Scenario struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	CreatedAt      time.Time    `json:"createdAt"`
	ActiveCalc     Calculator   `json:"activeCalc"`
	AffordInputs   AffordInputs `json:"affordInputs"`
	RefiInputs     RefiInputs   `json:"refiInputs"`
	LoanTypeID     string       `json:"loanTypeId"`
	RefiLoanTypeID string       `json:"refiLoanTypeId"`
	RateMode       RateMode     `json:"rateMode"`
	RefiRateMode   RateMode     `json:"refiRateMode"`
	QuickStats     QuickStats   `json:"quickStats"`
}

// TaxLookupResult is the effective property tax rate derived for a ZIP.
type TaxLookupResult struct {
	ZIP       string  `json:"zip"`
	ZIPName   string  `json:"zipName"`
	HomeValue float64 `json:"homeValue"`
	AnnualTax float64 `json:"annualTax"`
	Rate      float64 `json:"rate"`
}
