package model

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// SeriesID identifies a published benchmark mortgage rate series.
type SeriesID string

// Benchmark series tracked by the rate loader.
const (
	Series30YFixed SeriesID = "MORTGAGE30US"
	Series15YFixed SeriesID = "MORTGAGE15US"
	SeriesARM5Y    SeriesID = "MORTGAGE5US"
	SeriesARMAlias SeriesID = "MORTGAGEARMSUS"
)

// PayloadVersion is the current RatesPayload schema version.
const PayloadVersion = 2

// RateObservation is the newest usable data point of one series.
type RateObservation struct {
	Date           string   `json:"date"`
	Rate           float64  `json:"rate"`
	Label          string   `json:"label"`
	Bucket         string   `json:"bucket"`
	SourceSeriesID SeriesID `json:"sourceSeriesId"`
	IsStale        bool     `json:"isStale"`
	StaleDays      *int     `json:"staleDays"`
}

// CalendarDate parses the observation date. A bare "YYYY-MM-DD" is the
// usual form; full RFC 3339 timestamps are accepted as well.
func (o RateObservation) CalendarDate() (civil.Date, bool) {
	s := strings.TrimSpace(o.Date)
	if s == "" {
		return civil.Date{}, false
	}
	if d, err := civil.ParseDate(s); err == nil {
		return d, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return civil.DateOf(t.UTC()), true
	}
	return civil.Date{}, false
}

// BestRateEntry is one row of the best-rates ranking.
type BestRateEntry struct {
	SeriesID SeriesID `json:"seriesId"`
	Bucket   string   `json:"bucket"`
	Label    string   `json:"label"`
	Rate     float64  `json:"rate"`
	Date     string   `json:"date"`
}

// BestRates ranks the observations in a payload by ascending rate.
type BestRates struct {
	Available []BestRateEntry `json:"available"`
	Lowest    *BestRateEntry  `json:"lowest"`
	Highest   *BestRateEntry  `json:"highest"`
	SpreadBps *int            `json:"spreadBps"`
}

// PayloadSummary holds derived views over the payload data.
type PayloadSummary struct {
	BestRates BestRates `json:"bestRates"`
}

// RatesPayload is the versioned snapshot of all benchmark observations.
// It is the shape of the static rates.json file and of every cache entry.
type RatesPayload struct {
	Version      int                          `json:"version"`
	FetchedAt    int64                        `json:"fetchedAt"`
	FetchedAtISO string                       `json:"fetchedAtIso"`
	Source       string                       `json:"source"`
	Data         map[SeriesID]RateObservation `json:"data"`
	Summary      PayloadSummary               `json:"summary"`
}

// FetchedTime returns FetchedAt as a time.Time.
func (p *RatesPayload) FetchedTime() time.Time {
	if p == nil || p.FetchedAt <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(p.FetchedAt)
}

// HasData reports whether the payload carries at least one observation.
func (p *RatesPayload) HasData() bool {
	return p != nil && len(p.Data) > 0
}

// RateMode selects how a base rate is derived.
type RateMode string

// Rate modes. ModeTarget only applies to refinancing.
const (
	ModeLive   RateMode = "live"
	ModeCredit RateMode = "credit"
	ModeManual RateMode = "manual"
	ModeTarget RateMode = "target"
)

// Valid reports whether m is a known mode.
func (m RateMode) Valid() bool {
	switch m {
	case ModeLive, ModeCredit, ModeManual, ModeTarget:
		return true
	}
	return false
}

// LoadStatus is the state of the rate loader.
type LoadStatus string

// Loader states.
const (
	StatusLoading LoadStatus = "loading"
	StatusReady   LoadStatus = "ready"
	StatusError   LoadStatus = "error"
)
