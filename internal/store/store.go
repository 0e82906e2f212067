// Package store persists calculator state, the rate cache and tax lookups
// in a local SQLite database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/theirongolddev/homecalc/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Persisted state keys.
const (
	KeyAffordInputs = "calculator.affordInputs"
	KeyRefiInputs   = "calculator.refiInputs"
	KeySettings     = "calculator.settings"
	KeyScenarios    = "calculator.savedScenarios.v1"
	KeyTheme        = "theme"
	RateCacheKey    = "calculator.rateCache.v2"
)

// RateCacheTTL bounds how long a fetched payload is served from cache.
const RateCacheTTL = 24 * time.Hour

const (
	taxCacheTTL     = 30 * 24 * time.Hour
	timestampLayout = time.RFC3339
)

// RateCache stores the most recent rate payload with a TTL.
// GetRates returns nil with no error on a miss or an expired entry.
type RateCache interface {
	GetRates(ctx context.Context) (*model.RatesPayload, error)
	PutRates(ctx context.Context, p *model.RatesPayload) error
}

// Store provides SQLite-backed persistence.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the state database at the given path.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating state dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SetClock overrides the clock used for TTL checks.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// Get returns the raw value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Put stores value under key, replacing any previous value.
func (s *Store) Put(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO kv (key, value, updated_at) VALUES (?, ?, ?)`,
		key, value, s.now().UTC().Format(timestampLayout))
	return err
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key)
	return err
}

// GetJSON returns the raw JSON stored under key, for callers that decode
// it field by field.
func (s *Store) GetJSON(ctx context.Context, key string) (json.RawMessage, bool, error) {
	v, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return nil, ok, err
	}
	return json.RawMessage(v), true, nil
}

// PutJSON encodes v and stores it under key.
func (s *Store) PutJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return s.Put(ctx, key, string(data))
}

// GetRates returns the cached payload if it was fetched within RateCacheTTL.
func (s *Store) GetRates(ctx context.Context) (*model.RatesPayload, error) {
	var (
		raw       string
		fetchedAt int64
	)
	err := s.db.QueryRowContext(ctx, "SELECT payload, fetched_at_ms FROM rate_cache WHERE cache_key = ?", RateCacheKey).
		Scan(&raw, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if s.now().Sub(time.UnixMilli(fetchedAt)) >= RateCacheTTL {
		return nil, nil
	}

	var p model.RatesPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		// A corrupt entry is a miss.
		return nil, nil //nolint:nilerr // corrupt cache entries are ignored
	}
	if !p.HasData() {
		return nil, nil
	}
	return &p, nil
}

// PutRates writes p to the cache.
func (s *Store) PutRates(ctx context.Context, p *model.RatesPayload) error {
	if p == nil {
		return nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding rates: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT OR REPLACE INTO rate_cache (cache_key, payload, fetched_at_ms, stored_at)
		VALUES (?, ?, ?, ?)`, RateCacheKey, string(data), p.FetchedAt, s.now().UTC().Format(timestampLayout))
	return err
}

// ClearRates drops the cached payload.
func (s *Store) ClearRates(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM rate_cache")
	return err
}

// GetTax returns a cached tax lookup for zip.
func (s *Store) GetTax(ctx context.Context, zip string) (*model.TaxLookupResult, error) {
	var (
		r         model.TaxLookupResult
		fetchedAt string
	)
	err := s.db.QueryRowContext(ctx, `SELECT zip, zip_name, home_value, annual_tax, rate, fetched_at
		FROM tax_cache WHERE zip = ?`, zip).
		Scan(&r.ZIP, &r.ZIPName, &r.HomeValue, &r.AnnualTax, &r.Rate, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if t, perr := time.Parse(timestampLayout, fetchedAt); perr != nil || s.now().Sub(t) >= taxCacheTTL {
		return nil, nil
	}
	return &r, nil
}

// PutTax stores a tax lookup result.
func (s *Store) PutTax(ctx context.Context, r model.TaxLookupResult) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO tax_cache
		(zip, zip_name, home_value, annual_tax, rate, fetched_at) VALUES (?, ?, ?, ?, ?, ?)`,
		r.ZIP, r.ZIPName, r.HomeValue, r.AnnualTax, r.Rate, s.now().UTC().Format(timestampLayout))
	return err
}
