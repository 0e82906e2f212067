package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/homecalc/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "state.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func samplePayload(fetchedAt time.Time) *model.RatesPayload {
	return &model.RatesPayload{
		Version:   model.PayloadVersion,
		FetchedAt: fetchedAt.UnixMilli(),
		Source:    "FRED",
		Data: map[model.SeriesID]model.RateObservation{
			model.Series30YFixed: {Date: "2026-03-19", Rate: 6.72, SourceSeriesID: model.Series30YFixed},
		},
	}
}

func TestKV(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, KeySettings); err != nil || ok {
		t.Fatalf("Get on empty store = ok %v, err %v", ok, err)
	}

	if err := s.Put(ctx, KeySettings, `{"activeCalc":"refi"}`); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, KeySettings, `{"activeCalc":"afford"}`); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	v, ok, err := s.Get(ctx, KeySettings)
	if err != nil || !ok || v != `{"activeCalc":"afford"}` {
		t.Fatalf("Get = %q, %v, %v", v, ok, err)
	}

	if err := s.PutJSON(ctx, KeyRefiInputs, model.RefiInputs{Balance: "320000"}); err != nil {
		t.Fatalf("PutJSON: %v", err)
	}
	raw, ok, err := s.GetJSON(ctx, KeyRefiInputs)
	if err != nil || !ok {
		t.Fatalf("GetJSON: ok %v err %v", ok, err)
	}
	if string(raw) != `{"balance":"320000","currentRate":"","newRate":"","closingCosts":"","targetMonths":""}` {
		t.Fatalf("GetJSON = %s", raw)
	}

	if err := s.Delete(ctx, KeySettings); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, KeySettings); ok {
		t.Fatal("key still present after Delete")
	}
}

func TestRateCacheTTL(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	fetched := time.Date(2026, 3, 20, 8, 0, 0, 0, time.UTC)

	if p, err := s.GetRates(ctx); err != nil || p != nil {
		t.Fatalf("GetRates on empty cache = %v, %v", p, err)
	}

	if err := s.PutRates(ctx, samplePayload(fetched)); err != nil {
		t.Fatalf("PutRates: %v", err)
	}

	s.SetClock(func() time.Time { return fetched.Add(23 * time.Hour) })
	p, err := s.GetRates(ctx)
	if err != nil || p == nil {
		t.Fatalf("GetRates within TTL = %v, %v", p, err)
	}
	if p.Data[model.Series30YFixed].Rate != 6.72 {
		t.Fatalf("cached rate = %v, want 6.72", p.Data[model.Series30YFixed].Rate)
	}

	s.SetClock(func() time.Time { return fetched.Add(24 * time.Hour) })
	if p, err := s.GetRates(ctx); err != nil || p != nil {
		t.Fatalf("GetRates after TTL = %v, %v; want miss", p, err)
	}

	if err := s.ClearRates(ctx); err != nil {
		t.Fatalf("ClearRates: %v", err)
	}
}

func TestRateCacheIgnoresEmptyPayload(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	empty := samplePayload(now)
	empty.Data = nil
	if err := s.PutRates(ctx, empty); err != nil {
		t.Fatalf("PutRates: %v", err)
	}
	if p, _ := s.GetRates(ctx); p != nil {
		t.Fatalf("GetRates = %+v, want miss for empty data", p)
	}
}

func TestTaxCache(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 20, 8, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return now })

	want := model.TaxLookupResult{ZIP: "30309", ZIPName: "ZCTA5 30309", HomeValue: 450000, AnnualTax: 4500, Rate: 0.01}
	if err := s.PutTax(ctx, want); err != nil {
		t.Fatalf("PutTax: %v", err)
	}

	got, err := s.GetTax(ctx, "30309")
	if err != nil || got == nil {
		t.Fatalf("GetTax = %v, %v", got, err)
	}
	if *got != want {
		t.Fatalf("GetTax = %+v, want %+v", *got, want)
	}

	if miss, _ := s.GetTax(ctx, "10001"); miss != nil {
		t.Fatalf("GetTax(10001) = %+v, want nil", miss)
	}

	s.SetClock(func() time.Time { return now.Add(31 * 24 * time.Hour) })
	if expired, _ := s.GetTax(ctx, "30309"); expired != nil {
		t.Fatal("expected expired tax entry to miss")
	}
}
