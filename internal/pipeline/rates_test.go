package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/homecalc/internal/model"
	"github.com/theirongolddev/homecalc/internal/store"
)

func payloadWithRate(rate float64, fetchedAt time.Time) *model.RatesPayload {
	return &model.RatesPayload{
		Version:   model.PayloadVersion,
		FetchedAt: fetchedAt.UnixMilli(),
		Source:    "FRED",
		Data: map[model.SeriesID]model.RateObservation{
			model.Series30YFixed: {Date: fetchedAt.Format("2006-01-02"), Rate: rate},
		},
	}
}

type memRateCache struct {
	payload *model.RatesPayload
	puts    int
}

func (m *memRateCache) GetRates(context.Context) (*model.RatesPayload, error) { return m.payload, nil }

func (m *memRateCache) PutRates(_ context.Context, p *model.RatesPayload) error {
	m.payload = p
	m.puts++
	return nil
}

type stubFetcher struct {
	payload *model.RatesPayload
	err     error
	calls   int
}

func (s *stubFetcher) FetchAll(context.Context) (*model.RatesPayload, error) {
	s.calls++
	return s.payload, s.err
}

func writeSnapshotFile(t *testing.T, p *model.RatesPayload) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rates.json")
	require.NoError(t, WriteSnapshot(path, p))
	return path
}

func TestLoaderPrefersSnapshot(t *testing.T) {
	now := time.Now()
	snap := writeSnapshotFile(t, payloadWithRate(6.1, now))
	cache := &memRateCache{payload: payloadWithRate(6.2, now)}
	fetcher := &stubFetcher{payload: payloadWithRate(6.3, now)}

	l := NewLoader(nil,
		SnapshotProvider{Path: snap},
		CacheProvider{Cache: cache},
		&LiveProvider{Fetcher: fetcher, Cache: cache},
	)
	res := l.Load(context.Background())

	assert.Equal(t, model.StatusReady, res.Status)
	assert.Equal(t, "snapshot", res.Provider)
	assert.Equal(t, 6.1, res.Payload.Data[model.Series30YFixed].Rate)
	assert.Zero(t, fetcher.calls, "live fetch must not run when the snapshot has data")
}

func TestLoaderFallsBackToCache(t *testing.T) {
	now := time.Now()
	cache := &memRateCache{payload: payloadWithRate(6.2, now)}
	fetcher := &stubFetcher{payload: payloadWithRate(6.3, now)}

	l := NewLoader(nil,
		SnapshotProvider{Path: filepath.Join(t.TempDir(), "absent.json")},
		CacheProvider{Cache: cache},
		&LiveProvider{Fetcher: fetcher, Cache: cache},
	)
	res := l.Load(context.Background())

	assert.Equal(t, "cache", res.Provider)
	assert.Equal(t, 6.2, res.Payload.Data[model.Series30YFixed].Rate)
	assert.Zero(t, fetcher.calls)
}

func TestLoaderLiveWritesBack(t *testing.T) {
	now := time.Now()
	cache := &memRateCache{}
	fetcher := &stubFetcher{payload: payloadWithRate(6.3, now)}

	l := NewLoader(nil,
		SnapshotProvider{},
		CacheProvider{Cache: cache},
		&LiveProvider{Fetcher: fetcher, Cache: cache},
	)
	res := l.Load(context.Background())

	assert.Equal(t, "live", res.Provider)
	assert.Equal(t, 1, cache.puts)
	require.NotNil(t, cache.payload)
	assert.Equal(t, 6.3, cache.payload.Data[model.Series30YFixed].Rate)
}

func TestLoaderAllFail(t *testing.T) {
	boom := errors.New("fred: no rates available")
	l := NewLoader(nil,
		SnapshotProvider{},
		CacheProvider{Cache: &memRateCache{}},
		&LiveProvider{Fetcher: &stubFetcher{err: boom}},
	)
	res := l.Load(context.Background())

	assert.Equal(t, model.StatusError, res.Status)
	assert.ErrorIs(t, res.Err, ErrRatesUnavailable)
	assert.ErrorIs(t, res.Err, boom)
	require.NotNil(t, res.Payload)
	assert.False(t, res.Payload.HasData())
}

func TestLoaderWithSQLiteCache(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	now := time.Now()
	fetcher := &stubFetcher{payload: payloadWithRate(6.4, now)}
	chain := func() *Loader {
		return NewLoader(nil, CacheProvider{Cache: st}, &LiveProvider{Fetcher: fetcher, Cache: st})
	}

	first := chain().Load(context.Background())
	assert.Equal(t, "live", first.Provider)

	second := chain().Load(context.Background())
	assert.Equal(t, "cache", second.Provider)
	assert.Equal(t, 1, fetcher.calls)
}

func TestSnapshotFromURL(t *testing.T) {
	now := time.Now()
	path := writeSnapshotFile(t, payloadWithRate(5.9, now))
	body, err := os.ReadFile(path)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rates.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	p, ok := SnapshotProvider{URL: srv.URL + "/rates.json"}.Load(context.Background())
	require.True(t, ok)
	assert.Equal(t, 5.9, p.Data[model.Series30YFixed].Rate)

	_, ok = SnapshotProvider{URL: srv.URL + "/missing.json"}.Load(context.Background())
	assert.False(t, ok)
}

func TestReadSnapshotCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rates.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))

	_, err := ReadSnapshot(path)
	assert.Error(t, err)

	_, ok := SnapshotProvider{Path: path}.Load(context.Background())
	assert.False(t, ok)
}
