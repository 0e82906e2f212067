package census

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/theirongolddev/homecalc/internal/model"
)

func rows(t *testing.T, body string) [][]any {
	t.Helper()
	var r [][]any
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return r
}

func TestParseTaxRate(t *testing.T) {
	got, ok := ParseTaxRate(rows(t, `[["NAME","B25077_001E","B25103_001E","zip code tabulation area"],
		["ZCTA5 30309","500000","5000","30309"]]`))
	if !ok {
		t.Fatal("ParseTaxRate returned !ok")
	}
	if got.ZIPName != "ZCTA5 30309" || got.HomeValue != 500000 || got.AnnualTax != 5000 {
		t.Fatalf("result = %+v", got)
	}
	if math.Abs(got.Rate-0.01) > 1e-12 {
		t.Fatalf("Rate = %v, want 0.01", got.Rate)
	}
}

func TestParseTaxRateColumnOrderAndName(t *testing.T) {
	got, ok := ParseTaxRate(rows(t, `[["B25103_001E","B25077_001E"],["3000","300000"]]`))
	if !ok {
		t.Fatal("ParseTaxRate returned !ok")
	}
	if got.ZIPName != "ZCTA" {
		t.Fatalf("ZIPName = %q, want ZCTA", got.ZIPName)
	}
	if got.Rate != 0.01 {
		t.Fatalf("Rate = %v, want 0.01", got.Rate)
	}
}

func TestParseTaxRateRejects(t *testing.T) {
	tests := map[string]string{
		"header only":         `[["NAME","B25077_001E","B25103_001E"]]`,
		"empty":               `[]`,
		"missing tax column":  `[["NAME","B25077_001E"],["x","300000"]]`,
		"missing value":       `[["NAME","B25103_001E"],["x","3000"]]`,
		"non numeric":         `[["NAME","B25077_001E","B25103_001E"],["x","n/a","3000"]]`,
		"null cell":           `[["NAME","B25077_001E","B25103_001E"],["x",null,"3000"]]`,
		"zero home value":     `[["NAME","B25077_001E","B25103_001E"],["x","0","3000"]]`,
		"negative home value": `[["NAME","B25077_001E","B25103_001E"],["x","-666666666","3000"]]`,
		"short data row":      `[["NAME","B25077_001E","B25103_001E"],["x"]]`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			if got, ok := ParseTaxRate(rows(t, body)); ok {
				t.Fatalf("ParseTaxRate = %+v, want rejection", got)
			}
		})
	}
}

type memCache struct {
	mu    sync.Mutex
	items map[string]model.TaxLookupResult
}

func (m *memCache) GetTax(_ context.Context, zip string) (*model.TaxLookupResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.items[zip]; ok {
		return &r, nil
	}
	return nil, nil
}

func (m *memCache) PutTax(_ context.Context, r model.TaxLookupResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[r.ZIP] = r
	return nil
}

func TestClientFetch(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if got := r.URL.Query().Get("for"); got != "zip code tabulation area:30309" {
			t.Errorf("for = %q", got)
		}
		if got := r.URL.Query().Get("get"); got != "NAME,B25077_001E,B25103_001E" {
			t.Errorf("get = %q", got)
		}
		_, _ = fmt.Fprint(w, `[["NAME","B25077_001E","B25103_001E","zip code tabulation area"],["ZCTA5 30309","400000","4800","30309"]]`)
	}))
	defer srv.Close()

	cache := &memCache{items: map[string]model.TaxLookupResult{}}
	c := NewClient(WithBaseURL(srv.URL), WithCache(cache))

	got, err := c.Fetch(context.Background(), "30309")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got.ZIP != "30309" || math.Abs(got.Rate-0.012) > 1e-12 {
		t.Fatalf("Fetch = %+v", got)
	}

	if _, err := c.Fetch(context.Background(), "30309"); err != nil {
		t.Fatalf("cached Fetch: %v", err)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("requests = %d, want 1 (second lookup served from cache)", n)
	}
}

func TestClientFetchFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("for") {
		case "zip code tabulation area:00000":
			w.WriteHeader(http.StatusNoContent)
		case "zip code tabulation area:99999":
			http.Error(w, "boom", http.StatusInternalServerError)
		default:
			_, _ = fmt.Fprint(w, `not json`)
		}
	}))
	defer srv.Close()
	c := NewClient(WithBaseURL(srv.URL))
	ctx := context.Background()

	if _, err := c.Fetch(ctx, "123"); !errors.Is(err, ErrInvalidZIP) {
		t.Fatalf("Fetch(123) err = %v, want ErrInvalidZIP", err)
	}
	if _, err := c.Fetch(ctx, "00000"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Fetch(00000) err = %v, want ErrNotFound", err)
	}
	if _, err := c.Fetch(ctx, "99999"); err == nil {
		t.Fatal("Fetch(99999) succeeded, want status error")
	}
	if got := c.Lookup(ctx, "11111"); got != nil {
		t.Fatalf("Lookup on malformed body = %+v, want nil", got)
	}
}

// stubLooker blocks lookups for zips listed in gates until the gate closes.
type stubLooker struct {
	gates   map[string]chan struct{}
	results map[string]*model.TaxLookupResult
}

func (s *stubLooker) Lookup(_ context.Context, zip string) *model.TaxLookupResult {
	if g, ok := s.gates[zip]; ok {
		<-g
	}
	return s.results[zip]
}

func TestTrackerClearsIncompleteZIP(t *testing.T) {
	looker := &stubLooker{results: map[string]*model.TaxLookupResult{
		"30309": {ZIP: "30309", Rate: 0.01},
	}}
	tr := NewTracker(looker)
	ctx := context.Background()

	if s := tr.Update(ctx, "30309"); s.Status != StatusReady || s.Rate() != 0.01 {
		t.Fatalf("state = %+v, want ready", s)
	}
	if s := tr.Update(ctx, "3030"); s.Status != StatusIdle || s.Result != nil || s.Rate() != 0 {
		t.Fatalf("state after shortening = %+v, want idle with no result", s)
	}
	if s := tr.Update(ctx, "10001"); s.Status != StatusError {
		t.Fatalf("state for unknown zip = %+v, want error", s)
	}
}

func TestTrackerLastWriteWins(t *testing.T) {
	slow := make(chan struct{})
	looker := &stubLooker{
		gates: map[string]chan struct{}{"11111": slow},
		results: map[string]*model.TaxLookupResult{
			"11111": {ZIP: "11111", Rate: 0.03},
			"22222": {ZIP: "22222", Rate: 0.02},
		},
	}
	tr := NewTracker(looker)
	ctx := context.Background()

	done := make(chan State)
	go func() { done <- tr.Update(ctx, "11111") }()

	// Wait until the slow lookup is in flight.
	for tr.State().Status != StatusLoading {
		runtime.Gosched()
	}

	if s := tr.Update(ctx, "22222"); s.Result == nil || s.Result.ZIP != "22222" {
		t.Fatalf("second update = %+v", s)
	}

	close(slow)
	stale := <-done
	if stale.Result == nil || stale.Result.ZIP != "11111" {
		t.Fatalf("stale update returned %+v", stale)
	}

	final := tr.State()
	if final.ZIP != "22222" || final.Rate() != 0.02 {
		t.Fatalf("final state = %+v, want 22222 to win", final)
	}
}
