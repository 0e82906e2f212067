package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/theirongolddev/homecalc/internal/calc"
	"github.com/theirongolddev/homecalc/internal/model"
	"github.com/theirongolddev/homecalc/internal/rates"
)

func TestGenerate(t *testing.T) {
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	params := calc.AffordParams{AnnualIncome: 95000, Expenses: 900, DownPayment: 20000, HOAAnnual: 1200, Rate: 6.5, Years: 30, Ratio: 0.28, ZIPTaxRate: 0.01}
	afford := calc.Affordability(params)
	refi := calc.Refinance(calc.RefiParams{Mode: model.ModeLive, Balance: 320000, CurrentRate: 7.1, NewRate: 6.2, ClosingCosts: 6500, Years: 30})
	payload := rates.NewPayload(map[model.SeriesID]model.RateObservation{
		model.Series30YFixed: {Date: "2026-03-19", Rate: 6.5},
	}, now)

	out, err := Generate(Input{
		GeneratedAt:    now,
		Afford:         afford,
		LoanLabel:      "Conventional 30-year fixed",
		RateSource:     "series",
		Health:         calc.Health(afford.TotalMonthly, afford.GrossMonthly),
		ZIPName:        "ZCTA5 30309",
		Refi:           &refi,
		Recommendation: calc.Recommend(refi),
		Timeline:       calc.SavingsTimeline(refi),
		Rates:          payload,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("output does not start with a PDF header: %q", out[:min(len(out), 8)])
	}
	if len(out) < 2000 {
		t.Errorf("pdf is suspiciously small: %d bytes", len(out))
	}
}

func TestGenerateMinimal(t *testing.T) {
	out, err := Generate(Input{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatal("missing PDF header")
	}
}
