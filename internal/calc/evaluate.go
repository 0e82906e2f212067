package calc

import (
	"github.com/theirongolddev/homecalc/internal/config"
	"github.com/theirongolddev/homecalc/internal/model"
	"github.com/theirongolddev/homecalc/internal/rates"
)

// EvalInput is the full calculator state needed to produce results.
type EvalInput struct {
	Afford   model.AffordInputs
	Refi     model.RefiInputs
	Settings model.Settings
	Data     map[model.SeriesID]model.RateObservation
	// ZIPTaxRate is the looked-up effective tax rate, 0 when unknown.
	ZIPTaxRate float64
}

// Evaluation holds every derived result for both calculators.
type Evaluation struct {
	Loan       config.LoanType
	Resolution rates.Resolution
	Afford     AffordResult
	Options    []LoanOption
	Selected   *LoanOption
	Fits       []LoanFit
	Health     HealthAssessment

	RefiLoan       config.LoanType
	RefiResolution rates.Resolution
	Refi           RefiResult
	Recommendation Recommendation
	Timeline       []TimelinePoint
}

// affordMode maps settings onto a mode valid for affordability; target
// only applies to refinancing.
func affordMode(m model.RateMode) model.RateMode {
	if !m.Valid() || m == model.ModeTarget {
		return model.ModeLive
	}
	return m
}

// Evaluate resolves rates and runs both calculators. The loan comparison
// uses the same mode, data, manual entry and credit bucket as the primary
// result, so the selected row matches it.
func Evaluate(in EvalInput) Evaluation {
	s := in.Settings
	var ev Evaluation

	ev.Loan = config.LoanTypeOrDefault(s.LoanTypeID)
	req := rates.Request{
		Mode:   affordMode(s.RateMode),
		Loan:   ev.Loan,
		Data:   in.Data,
		Manual: in.Afford.Rate,
		Credit: config.CreditScoreOrDefault(s.CreditScoreID),
	}
	ev.Resolution = rates.Resolve(req)

	params := AffordParamsFrom(in.Afford, s, ev.Resolution.Rate, ev.Loan, in.ZIPTaxRate)
	ev.Afford = Affordability(params)
	ev.Options = LoanOptions(params, rates.ResolveAll(config.LoanTypes, req))
	for i := range ev.Options {
		if ev.Options[i].LoanID == ev.Loan.ID {
			ev.Selected = &ev.Options[i]
			break
		}
	}
	ev.Fits = TopLoanFits(ev.Afford, ev.Options)
	total := ev.Afford.TotalMonthly
	if ev.Selected != nil {
		total = ev.Selected.TotalMonthly
	}
	ev.Health = Health(total, ev.Afford.GrossMonthly)

	ev.RefiLoan = config.LoanTypeOrDefault(s.RefiLoanTypeID)
	refiMode := s.RefiRateMode
	if !refiMode.Valid() {
		refiMode = model.ModeLive
	}
	ev.RefiResolution = rates.Resolve(rates.Request{
		Mode:   refiMode,
		Loan:   ev.RefiLoan,
		Data:   in.Data,
		Manual: in.Refi.NewRate,
		Credit: config.CreditScoreOrDefault(s.RefiCreditScoreID),
	})
	ev.Refi = Refinance(RefiParamsFrom(in.Refi, refiMode, ev.RefiResolution.Rate, ev.RefiLoan.AmortizationYears))
	ev.Recommendation = Recommend(ev.Refi)
	ev.Timeline = SavingsTimeline(ev.Refi)
	return ev
}
