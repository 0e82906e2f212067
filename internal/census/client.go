// Package census derives effective property tax rates from the Census
// American Community Survey ZIP-level tables.
package census

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/homecalc/internal/model"
	"github.com/theirongolddev/homecalc/internal/numeric"
)

const (
	// DefaultBaseURL is the ACS 5-year 2022 endpoint.
	DefaultBaseURL = "https://api.census.gov/data/2022/acs/acs5"
	// DatasetLabel names the dataset behind every lookup.
	DatasetLabel = "2022 ACS 5-year"

	requestTimeout = 10 * time.Second
	maxBodySize    = 1 << 20 // 1 MB

	fieldName      = "NAME"
	fieldHomeValue = "B25077_001E" // median home value
	fieldTax       = "B25103_001E" // median real estate taxes paid
	defaultName    = "ZCTA"
)

var (
	// ErrInvalidZIP indicates the ZIP is not exactly five digits.
	ErrInvalidZIP = errors.New("census: zip must be 5 digits")
	// ErrNotFound indicates the response held no usable row for the ZIP.
	ErrNotFound = errors.New("census: no usable data for zip")
)

// Cache stores lookups between runs. GetTax returns nil on a miss.
type Cache interface {
	GetTax(ctx context.Context, zip string) (*model.TaxLookupResult, error)
	PutTax(ctx context.Context, r model.TaxLookupResult) error
}

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

// WithCache enables the lookup cache.
func WithCache(cache Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithLogger sets the logger for lookup failures.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) { c.log = l }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// Client looks up ZIP-level tax data.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	cache   Cache
	log     logrus.FieldLogger
}

// NewClient creates a Census client.
func NewClient(opts ...Option) *Client {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	c := &Client{
		baseURL: DefaultBaseURL,
		timeout: requestTimeout,
		http:    &http.Client{},
		log:     discard,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) lookupURL(zip string) string {
	// The geography clause keeps its literal colon and encoded spaces.
	return c.baseURL + "?get=" + fieldName + "," + fieldHomeValue + "," + fieldTax +
		"&for=zip%20code%20tabulation%20area:" + zip
}

// Fetch performs the lookup and reports why it failed.
func (c *Client) Fetch(ctx context.Context, zip string) (*model.TaxLookupResult, error) {
	if !numeric.IsCompleteZIP(zip) {
		return nil, ErrInvalidZIP
	}

	if c.cache != nil {
		if cached, err := c.cache.GetTax(ctx, zip); err == nil && cached != nil {
			return cached, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.lookupURL(zip), nil)
	if err != nil {
		return nil, fmt.Errorf("census: creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("census: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// The API answers 204 for ZCTAs it does not know.
	if resp.StatusCode == http.StatusNoContent {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("census: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("census: reading response: %w", err)
	}

	var rows [][]any
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("census: parsing response: %w", err)
	}

	result, ok := ParseTaxRate(rows)
	if !ok {
		return nil, ErrNotFound
	}
	result.ZIP = zip

	if c.cache != nil {
		if err := c.cache.PutTax(ctx, *result); err != nil {
			c.log.WithField("zip", zip).WithError(err).Debug("tax cache write failed")
		}
	}
	return result, nil
}

// Lookup returns the tax rate for a complete ZIP, or nil on any failure.
func (c *Client) Lookup(ctx context.Context, zip string) *model.TaxLookupResult {
	result, err := c.Fetch(ctx, zip)
	if err != nil {
		c.log.WithField("zip", zip).WithError(err).Info("tax lookup failed")
		return nil
	}
	return result
}

// ParseTaxRate reads a header row and a data row, locating columns by
// name. It fails when fewer than two rows are present, when the value or
// tax column is missing, when either value is not finite, or when the home
// value is not positive.
func ParseTaxRate(rows [][]any) (*model.TaxLookupResult, bool) {
	if len(rows) < 2 {
		return nil, false
	}
	header, data := rows[0], rows[1]

	nameIdx := indexOf(header, fieldName)
	valueIdx := indexOf(header, fieldHomeValue)
	taxIdx := indexOf(header, fieldTax)
	if valueIdx < 0 || taxIdx < 0 {
		return nil, false
	}

	homeValue, ok1 := cellFloat(data, valueIdx)
	annualTax, ok2 := cellFloat(data, taxIdx)
	if !ok1 || !ok2 || homeValue <= 0 {
		return nil, false
	}

	name := defaultName
	if nameIdx >= 0 {
		if s, ok := cellString(data, nameIdx); ok {
			name = s
		}
	}

	return &model.TaxLookupResult{
		ZIPName:   name,
		HomeValue: homeValue,
		AnnualTax: annualTax,
		Rate:      annualTax / homeValue,
	}, true
}

func indexOf(row []any, field string) int {
	for i, cell := range row {
		if s, ok := cell.(string); ok && s == field {
			return i
		}
	}
	return -1
}

func cellString(row []any, i int) (string, bool) {
	if i >= len(row) {
		return "", false
	}
	switch v := row[i].(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	}
	return "", false
}

func cellFloat(row []any, i int) (float64, bool) {
	s, ok := cellString(row, i)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
