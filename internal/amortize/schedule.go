package amortize

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entry is one period of an amortization schedule.
type Entry struct {
	Period           int
	DueDate          time.Time
	Principal        decimal.Decimal
	Interest         decimal.Decimal
	Total            decimal.Decimal
	RemainingBalance decimal.Decimal
}

// Schedule computes the month-by-month schedule for a fixed-rate loan with
// cent rounding. The first payment is due one month after start; the last
// period absorbs rounding so the balance reaches exactly zero.
func Schedule(principal, annualRatePercent float64, years int, start time.Time) []Entry {
	termMonths := years * 12
	p := decimal.NewFromFloat(principal).Round(2)
	if termMonths <= 0 || p.LessThanOrEqual(decimal.Zero) {
		return nil
	}

	payment := decimal.NewFromFloat(MonthlyPayment(principal, annualRatePercent, years)).Round(2)
	monthlyRate := decimal.NewFromFloat(annualRatePercent).Div(decimal.NewFromInt(1200))

	schedule := make([]Entry, 0, termMonths)
	remaining := p
	for period := 1; period <= termMonths; period++ {
		interest := remaining.Mul(monthlyRate).Round(2)
		principalPart := payment.Sub(interest)
		if period == termMonths || principalPart.GreaterThan(remaining) {
			principalPart = remaining
		}

		remaining = remaining.Sub(principalPart)
		schedule = append(schedule, Entry{
			Period:           period,
			DueDate:          start.AddDate(0, period, 0),
			Principal:        principalPart,
			Interest:         interest,
			Total:            principalPart.Add(interest),
			RemainingBalance: remaining,
		})
		if remaining.IsZero() {
			break
		}
	}
	return schedule
}

// TotalInterest sums the interest column of a schedule.
func TotalInterest(entries []Entry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Interest)
	}
	return total
}

// YearSummary aggregates a schedule by loan year.
type YearSummary struct {
	Year             int
	Principal        decimal.Decimal
	Interest         decimal.Decimal
	RemainingBalance decimal.Decimal
}

// ByYear rolls a monthly schedule up into loan years.
func ByYear(entries []Entry) []YearSummary {
	var out []YearSummary
	for _, e := range entries {
		year := (e.Period-1)/12 + 1
		if len(out) == 0 || out[len(out)-1].Year != year {
			out = append(out, YearSummary{Year: year, Principal: decimal.Zero, Interest: decimal.Zero})
		}
		ys := &out[len(out)-1]
		ys.Principal = ys.Principal.Add(e.Principal)
		ys.Interest = ys.Interest.Add(e.Interest)
		ys.RemainingBalance = e.RemainingBalance
	}
	return out
}
