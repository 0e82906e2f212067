// Package pipeline loads benchmark rates through an ordered chain of
// providers and maintains the static snapshot file.
package pipeline

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/homecalc/internal/model"
	"github.com/theirongolddev/homecalc/internal/rates"
	"github.com/theirongolddev/homecalc/internal/store"
)

// Provider yields a rates payload, or false when it has nothing usable.
type Provider interface {
	Name() string
	Load(ctx context.Context) (*model.RatesPayload, bool)
}

// Fetcher performs a live fetch of every series.
type Fetcher interface {
	FetchAll(ctx context.Context) (*model.RatesPayload, error)
}

// CacheProvider serves the local cache while its entry is within the TTL.
type CacheProvider struct {
	Cache store.RateCache
	Log   logrus.FieldLogger
}

// Name implements Provider.
func (p CacheProvider) Name() string { return "cache" }

// Load implements Provider.
func (p CacheProvider) Load(ctx context.Context) (*model.RatesPayload, bool) {
	if p.Cache == nil {
		return nil, false
	}
	payload, err := p.Cache.GetRates(ctx)
	if err != nil {
		logger(p.Log).WithError(err).Warn("reading rate cache")
		return nil, false
	}
	return payload, payload.HasData()
}

// LiveProvider fetches from the network and writes the result back to the
// cache.
type LiveProvider struct {
	Fetcher Fetcher
	Cache   store.RateCache
	Log     logrus.FieldLogger

	lastErr error
}

// Name implements Provider.
func (p *LiveProvider) Name() string { return "live" }

// Load implements Provider.
func (p *LiveProvider) Load(ctx context.Context) (*model.RatesPayload, bool) {
	payload, err := p.Fetcher.FetchAll(ctx)
	p.lastErr = err
	if err != nil {
		logger(p.Log).WithError(err).Warn("live rate fetch failed")
		return nil, false
	}
	if p.Cache != nil {
		if err := p.Cache.PutRates(ctx, payload); err != nil {
			logger(p.Log).WithError(err).Warn("writing rate cache")
		}
	}
	return payload, payload.HasData()
}

// Err returns the error from the most recent Load.
func (p *LiveProvider) Err() error { return p.lastErr }

// LoadResult is the outcome of a Loader run.
type LoadResult struct {
	Payload  *model.RatesPayload
	Status   model.LoadStatus
	Provider string
	Err      error
}

// Loader tries providers in order and keeps the first usable payload.
type Loader struct {
	providers []Provider
	now       func() time.Time
	log       logrus.FieldLogger
}

// ErrRatesUnavailable is reported when every provider came up empty.
var ErrRatesUnavailable = errors.New("pipeline: rates unavailable")

// NewLoader builds a loader over providers, tried in the given order.
func NewLoader(log logrus.FieldLogger, providers ...Provider) *Loader {
	return &Loader{providers: providers, now: time.Now, log: logger(log)}
}

// Load runs the chain. Failure is reported as StatusError with an empty
// payload; it is never fatal to callers.
func (l *Loader) Load(ctx context.Context) LoadResult {
	for _, p := range l.providers {
		payload, ok := p.Load(ctx)
		if !ok {
			l.log.WithField("provider", p.Name()).Debug("provider had no rates")
			continue
		}
		payload = rates.NormalizePayload(payload, l.now())
		if !payload.HasData() {
			continue
		}
		l.log.WithFields(logrus.Fields{
			"provider": p.Name(),
			"series":   len(payload.Data),
		}).Debug("rates loaded")
		return LoadResult{Payload: payload, Status: model.StatusReady, Provider: p.Name()}
	}

	err := ErrRatesUnavailable
	for _, p := range l.providers {
		if lp, ok := p.(*LiveProvider); ok && lp.Err() != nil {
			err = errors.Join(err, lp.Err())
		}
	}
	return LoadResult{
		Payload: rates.NormalizePayload(nil, l.now()),
		Status:  model.StatusError,
		Err:     err,
	}
}

func logger(l logrus.FieldLogger) logrus.FieldLogger {
	if l != nil {
		return l
	}
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	return discard
}
