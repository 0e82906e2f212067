// Package amortize implements fixed-rate mortgage payment math.
package amortize

import "math"

// Solver bounds for SolveRateForBreakEven, in annual percent.
const (
	solverFloor      = 0.1
	solverCeiling    = 15.0
	solverIterations = 30
)

// MonthlyPayment returns the level monthly principal-and-interest payment
// for principal borrowed at annualRatePercent over years. A zero rate
// degrades to straight-line repayment. Non-positive terms yield 0.
func MonthlyPayment(principal, annualRatePercent float64, years int) float64 {
	n := float64(years * 12)
	if n <= 0 {
		return 0
	}
	r := annualRatePercent / 100 / 12
	if r == 0 {
		return principal / n
	}
	factor := math.Pow(1+r, n)
	payment := principal * (r * factor / (factor - 1))
	if math.IsNaN(payment) || math.IsInf(payment, 0) {
		return 0
	}
	return payment
}

// PaymentFactor is the monthly payment per unit borrowed. It falls back to
// 1 when the factor is zero so callers can always divide by it.
func PaymentFactor(annualRatePercent float64, years int) float64 {
	f := MonthlyPayment(1, annualRatePercent, years)
	if f == 0 {
		return 1
	}
	return f
}

// SolveRateForBreakEven finds the highest annual rate (percent) whose
// payment saves at least closingCosts/targetMonths per month against the
// current loan. The search bisects [0.1, min(currentRate, 15)] thirty
// times. ok is false when any input is non-positive, when the required
// savings exceed the current payment, or when no midpoint qualified.
func SolveRateForBreakEven(balance, currentRate, closingCosts, targetMonths float64, years int) (rate float64, ok bool) {
	if balance <= 0 || currentRate <= 0 || closingCosts <= 0 || targetMonths <= 0 {
		return 0, false
	}

	currentPayment := MonthlyPayment(balance, currentRate, years)
	targetPayment := currentPayment - closingCosts/targetMonths
	if targetPayment <= 0 {
		return 0, false
	}

	low := solverFloor
	high := math.Min(currentRate, solverCeiling)
	for i := 0; i < solverIterations; i++ {
		mid := (low + high) / 2
		if MonthlyPayment(balance, mid, years) > targetPayment {
			high = mid
		} else {
			rate, ok = mid, true
			low = mid
		}
	}
	return rate, ok
}
