// Package fred fetches benchmark mortgage rates from the FRED graph CSV endpoint.
package fred

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/homecalc/internal/config"
	"github.com/theirongolddev/homecalc/internal/model"
	"github.com/theirongolddev/homecalc/internal/rates"
)

const (
	// DefaultBaseURL is the public FRED graph CSV endpoint.
	DefaultBaseURL = "https://fred.stlouisfed.org/graph/fredgraph.csv"
	requestTimeout = 10 * time.Second
	maxBodySize    = 1 << 20 // 1 MB
	lookbackDays   = 30
)

// ErrNoRatesAvailable indicates that every series failed to fetch.
var ErrNoRatesAvailable = errors.New("fred: no rates available")

// FetchError describes a failed series fetch.
type FetchError struct {
	SeriesID model.SeriesID
	Status   int
	Err      error
}

func (e *FetchError) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("fred: %s -> HTTP %d", e.SeriesID, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("fred: %s: %v", e.SeriesID, e.Err)
	default:
		return fmt.Sprintf("fred: %s failed", e.SeriesID)
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// errNoParsableRows is wrapped in a FetchError when a CSV has no usable value.
var errNoParsableRows = errors.New("no parsable rows")

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithProxy routes requests through a pass-through proxy that takes the
// upstream URL in its "url" query parameter.
func WithProxy(proxy string) Option {
	return func(c *Client) { c.proxy = proxy }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger used for per-series failures.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) { c.log = l }
}

// WithClock overrides the clock used for the lookback window and staleness.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// Client fetches rate series.
type Client struct {
	baseURL string
	proxy   string
	timeout time.Duration
	http    *http.Client
	log     logrus.FieldLogger
	now     func() time.Time
	series  []config.SeriesConfig
}

// NewClient creates a client for the tracked series catalog.
func NewClient(opts ...Option) *Client {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	c := &Client{
		baseURL: DefaultBaseURL,
		timeout: requestTimeout,
		http:    &http.Client{},
		log:     discard,
		now:     time.Now,
		series:  config.RateSeries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// seriesURL builds the CSV URL for id starting lookbackDays before now.
func (c *Client) seriesURL(id model.SeriesID) string {
	cosd := c.now().UTC().AddDate(0, 0, -lookbackDays).Format("2006-01-02")
	q := url.Values{}
	q.Set("id", string(id))
	q.Set("cosd", cosd)
	target := c.baseURL + "?" + q.Encode()
	if c.proxy == "" {
		return target
	}
	return c.proxy + "?url=" + url.QueryEscape(target)
}

// FetchSeries returns the newest usable observation of one series id.
// The returned observation carries only date, rate and source id.
func (c *Client) FetchSeries(ctx context.Context, id model.SeriesID) (model.RateObservation, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.seriesURL(id), nil)
	if err != nil {
		return model.RateObservation{}, &FetchError{SeriesID: id, Err: err}
	}
	req.Header.Set("Accept", "text/csv")
	req.Header.Set("User-Agent", "github.com/theirongolddev/homecalc/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return model.RateObservation{}, &FetchError{SeriesID: id, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.RateObservation{}, &FetchError{SeriesID: id, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return model.RateObservation{}, &FetchError{SeriesID: id, Err: fmt.Errorf("reading response: %w", err)}
	}

	date, rate, ok := ParseCSV(string(body))
	if !ok {
		return model.RateObservation{}, &FetchError{SeriesID: id, Err: errNoParsableRows}
	}
	return model.RateObservation{Date: date, Rate: rate, SourceSeriesID: id}, nil
}

// ParseCSV scans a FRED CSV from the last row backward and returns the
// first row with a finite numeric value. "." marks a missing observation.
// The header row never parses as a number and is skipped naturally.
func ParseCSV(text string) (date string, rate float64, ok bool) {
	r := csv.NewReader(strings.NewReader(strings.TrimSpace(text)))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		// Fall back to a plain line split for sloppy bodies.
		records = nil
		for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
			records = append(records, strings.Split(strings.TrimRight(line, "\r"), ","))
		}
	}

	for i := len(records) - 1; i >= 0; i-- {
		row := records[i]
		if len(row) < 2 {
			continue
		}
		value := strings.TrimSpace(row[1])
		if value == "" || value == "." {
			continue
		}
		v, err := strconv.ParseFloat(value, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		return strings.TrimSpace(row[0]), v, true
	}
	return "", 0, false
}

// FetchSeriesWithAliases tries the primary id and every alias, then keeps
// the success with the most recent date. The result carries the primary
// series' label and bucket and the id that actually answered. ok is false
// when every candidate failed.
func (c *Client) FetchSeriesWithAliases(ctx context.Context, sc config.SeriesConfig) (model.RateObservation, bool) {
	var (
		best     model.RateObservation
		bestTime time.Time
		found    bool
	)

	for _, id := range sc.Candidates() {
		obs, err := c.FetchSeries(ctx, id)
		if err != nil {
			c.log.WithFields(logrus.Fields{"series": sc.ID, "candidate": id}).WithError(err).Debug("series fetch failed")
			continue
		}
		t := observationTime(obs)
		if !found || t.After(bestTime) {
			best, bestTime, found = obs, t, true
		}
	}

	if !found {
		return model.RateObservation{}, false
	}
	best.Label = sc.Label
	best.Bucket = sc.Bucket
	return best, true
}

// observationTime returns the observation date, or the zero time when it
// does not parse so that it sorts last.
func observationTime(obs model.RateObservation) time.Time {
	d, ok := obs.CalendarDate()
	if !ok {
		return time.Time{}
	}
	return d.In(time.UTC)
}

// FetchAll fetches every tracked series concurrently. Individual series
// failures are tolerated; ErrNoRatesAvailable is returned only when no
// series produced an observation.
func (c *Client) FetchAll(ctx context.Context) (*model.RatesPayload, error) {
	results := make([]*model.RateObservation, len(c.series))

	g, gctx := errgroup.WithContext(ctx)
	for i, sc := range c.series {
		i, sc := i, sc
		g.Go(func() error {
			if obs, ok := c.FetchSeriesWithAliases(gctx, sc); ok {
				results[i] = &obs
			} else {
				c.log.WithField("series", sc.ID).Warn("no usable observation for series")
			}
			return nil
		})
	}
	_ = g.Wait()

	data := make(map[model.SeriesID]model.RateObservation, len(c.series))
	for i, obs := range results {
		if obs != nil {
			data[c.series[i].ID] = *obs
		}
	}
	if len(data) == 0 {
		return nil, ErrNoRatesAvailable
	}
	return rates.NewPayload(data, c.now()), nil
}
