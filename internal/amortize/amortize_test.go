package amortize

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestMonthlyPayment(t *testing.T) {
	tests := []struct {
		name      string
		principal float64
		rate      float64
		years     int
		want      float64
	}{
		{"30y at 7.1", 320000, 7.1, 30, 2150.50},
		{"30y at 6.2", 320000, 6.2, 30, 1959.90},
		{"15y at 6", 200000, 6, 15, 1687.71},
		{"zero rate", 360000, 0, 30, 1000},
		{"zero principal", 0, 7, 30, 0},
		{"zero years", 100000, 7, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MonthlyPayment(tt.principal, tt.rate, tt.years)
			if math.Abs(got-tt.want) > 0.01 {
				t.Fatalf("MonthlyPayment(%v, %v, %d) = %.4f, want %.2f", tt.principal, tt.rate, tt.years, got, tt.want)
			}
		})
	}
}

func TestMonthlyPaymentNonNegative(t *testing.T) {
	for _, principal := range []float64{0, 1, 1000, 250000, 1e7} {
		for _, rate := range []float64{0, 0.1, 3.5, 7, 15, 30} {
			for _, years := range []int{1, 15, 30} {
				got := MonthlyPayment(principal, rate, years)
				if got < 0 || math.IsNaN(got) {
					t.Fatalf("MonthlyPayment(%v, %v, %d) = %v, want >= 0", principal, rate, years, got)
				}
				if rate == 0 && got != principal/float64(years*12) {
					t.Fatalf("zero-rate payment = %v, want %v", got, principal/float64(years*12))
				}
			}
		}
	}
}

func TestPaymentFactorFallback(t *testing.T) {
	if got := PaymentFactor(7, 0); got != 1 {
		t.Fatalf("PaymentFactor(7, 0) = %v, want 1", got)
	}
	if got := PaymentFactor(0, 30); math.Abs(got-1.0/360) > 1e-12 {
		t.Fatalf("PaymentFactor(0, 30) = %v, want 1/360", got)
	}
}

func TestSolveRateForBreakEven(t *testing.T) {
	balance, current, closing, months := 320000.0, 7.1, 6500.0, 24.0

	rate, ok := SolveRateForBreakEven(balance, current, closing, months, 30)
	if !ok {
		t.Fatal("expected a solution")
	}
	if rate <= solverFloor || rate >= current {
		t.Fatalf("rate = %v, want within (%v, %v)", rate, solverFloor, current)
	}

	savings := MonthlyPayment(balance, current, 30) - MonthlyPayment(balance, rate, 30)
	required := closing / months
	tolerance := 15.0 / math.Pow(2, 30) * balance
	if savings < required-tolerance {
		t.Fatalf("savings = %.4f, want >= %.4f", savings, required)
	}

	// Slightly above the solved rate should no longer meet the target.
	if over := MonthlyPayment(balance, current, 30) - MonthlyPayment(balance, rate+0.001, 30); over >= required {
		t.Fatalf("rate %.6f is not the highest qualifying rate", rate)
	}
}

func TestSolveRateForBreakEvenInfeasible(t *testing.T) {
	tests := []struct {
		name                                   string
		balance, current, closing, targetMonth float64
	}{
		{"zero balance", 0, 7, 5000, 24},
		{"zero current rate", 300000, 0, 5000, 24},
		{"zero closing", 300000, 7, 0, 24},
		{"zero target", 300000, 7, 5000, 0},
		{"negative balance", -1, 7, 5000, 24},
		{"savings exceed payment", 100000, 7, 100000, 1},
		{"current below floor", 300000, 0.1, 5000, 24},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rate, ok := SolveRateForBreakEven(tt.balance, tt.current, tt.closing, tt.targetMonth, 30); ok {
				t.Fatalf("SolveRateForBreakEven = %v, want no solution", rate)
			}
		})
	}
}

func TestSchedule(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	entries := Schedule(200000, 6, 15, start)
	if len(entries) != 180 {
		t.Fatalf("len(entries) = %d, want 180", len(entries))
	}
	last := entries[len(entries)-1]
	if !last.RemainingBalance.IsZero() {
		t.Fatalf("final balance = %s, want 0", last.RemainingBalance)
	}

	paid := decimal.Zero
	for _, e := range entries {
		paid = paid.Add(e.Principal)
	}
	if !paid.Equal(decimal.NewFromInt(200000)) {
		t.Fatalf("principal repaid = %s, want 200000", paid)
	}

	interest := TotalInterest(entries).InexactFloat64()
	expected := MonthlyPayment(200000, 6, 15)*180 - 200000
	if math.Abs(interest-expected) > 5 {
		t.Fatalf("TotalInterest = %.2f, want about %.2f", interest, expected)
	}

	years := ByYear(entries)
	if len(years) != 15 {
		t.Fatalf("ByYear len = %d, want 15", len(years))
	}
	if !years[14].RemainingBalance.IsZero() {
		t.Fatalf("year 15 balance = %s, want 0", years[14].RemainingBalance)
	}
	if !entries[0].DueDate.Equal(start.AddDate(0, 1, 0)) {
		t.Fatalf("first due date = %v, want one month after start", entries[0].DueDate)
	}
}

func TestScheduleEmpty(t *testing.T) {
	if got := Schedule(0, 6, 30, time.Now()); got != nil {
		t.Fatalf("Schedule(0) = %v, want nil", got)
	}
	if got := Schedule(1000, 6, 0, time.Now()); got != nil {
		t.Fatalf("Schedule(years=0) = %v, want nil", got)
	}
}
