// Package daemon provides the long-running rate refresh service.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/homecalc/internal/logging"
	"github.com/theirongolddev/homecalc/internal/model"
	"github.com/theirongolddev/homecalc/internal/pipeline"
)

// Event types.
const (
	EventSnapshot   = "snapshot"
	EventRatesDelta = "rates_delta"
)

// Loader produces the current rates payload.
type Loader interface {
	Load(ctx context.Context) pipeline.LoadResult
}

// Config controls the daemon runtime behavior.
type Config struct {
	// SnapshotPath receives rates.json after every successful poll.
	// Empty disables snapshot writes.
	SnapshotPath string
	Interval     time.Duration
	Addr         string
	EventsBuffer int
	Log          logrus.FieldLogger
}

// Snapshot is a compact rate state for status/event payloads.
type Snapshot struct {
	At           time.Time                  `json:"at"`
	FetchedAt    time.Time                  `json:"fetched_at"`
	Provider     string                     `json:"provider"`
	Source       string                     `json:"source"`
	Rates        map[model.SeriesID]float64 `json:"rates"`
	Stale        []model.SeriesID           `json:"stale,omitempty"`
	LowestSeries model.SeriesID             `json:"lowest_series,omitempty"`
	LowestRate   float64                    `json:"lowest_rate,omitempty"`
	SpreadBps    *int                       `json:"spread_bps,omitempty"`
}

// Delta captures per-series rate moves between polls, in basis points.
type Delta struct {
	Bps     map[model.SeriesID]int `json:"bps,omitempty"`
	Added   []model.SeriesID       `json:"added,omitempty"`
	Removed []model.SeriesID       `json:"removed,omitempty"`
}

func (d Delta) isZero() bool {
	return len(d.Bps) == 0 && len(d.Added) == 0 && len(d.Removed) == 0
}

// Event is emitted whenever the rate snapshot changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	LastSuccessAt   time.Time `json:"last_success_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	SnapshotPath    string    `json:"snapshot_path,omitempty"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg     Config
	loader  Loader
	log     logrus.FieldLogger
	metrics *metrics
	now     func() time.Time

	mu            sync.RWMutex
	startedAt     time.Time
	lastPollAt    time.Time
	lastSuccessAt time.Time
	pollCount     int64
	lastError     string
	hasSnapshot   bool
	snapshot      Snapshot
	payload       *model.RatesPayload
	nextEventID   int64
	events        []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a daemon service polling loader.
func New(cfg Config, loader Loader) *Service {
	if cfg.Interval < time.Minute {
		cfg.Interval = 6 * time.Hour
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8797"
	}
	log := cfg.Log
	if log == nil {
		log = logging.Discard()
	}

	return &Service{
		cfg:       cfg,
		loader:    loader,
		log:       log,
		metrics:   newMetrics(),
		now:       time.Now,
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

func (s *Service) pollOnce(ctx context.Context) {
	res := s.loader.Load(ctx)
	now := s.now()

	if res.Status != model.StatusReady || !res.Payload.HasData() {
		err := res.Err
		if err == nil {
			err = pipeline.ErrRatesUnavailable
		}
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = now
		s.pollCount++
		s.mu.Unlock()
		s.metrics.polls.WithLabelValues("error").Inc()
		s.log.WithError(err).Warn("rate poll failed")
		return
	}

	if s.cfg.SnapshotPath != "" {
		if err := pipeline.WriteSnapshot(s.cfg.SnapshotPath, res.Payload); err != nil {
			s.log.WithError(err).WithField("path", s.cfg.SnapshotPath).Error("writing snapshot")
		}
	}

	snap := snapshotFromPayload(res.Payload, res.Provider, now)
	s.metrics.observe(res.Payload, now)

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.snapshot
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.payload = res.Payload
	s.lastPollAt = now
	s.lastSuccessAt = now
	s.pollCount++
	s.lastError = ""

	if !prevExists {
		s.nextEventID++
		ev = Event{ID: s.nextEventID, Type: EventSnapshot, Timestamp: now, Snapshot: snap}
		publish = true
	} else if delta := diffSnapshots(prev, snap); !delta.isZero() {
		s.nextEventID++
		ev = Event{ID: s.nextEventID, Type: EventRatesDelta, Timestamp: now, Snapshot: snap, Delta: delta}
		publish = true
	}
	s.mu.Unlock()

	s.metrics.polls.WithLabelValues("ok").Inc()
	s.log.WithFields(logrus.Fields{
		"provider": res.Provider,
		"series":   len(res.Payload.Data),
	}).Info("rates refreshed")

	if publish {
		s.publishEvent(ev)
	}
}

func snapshotFromPayload(p *model.RatesPayload, provider string, at time.Time) Snapshot {
	snap := Snapshot{
		At:        at,
		FetchedAt: p.FetchedTime(),
		Provider:  provider,
		Source:    p.Source,
		Rates:     make(map[model.SeriesID]float64, len(p.Data)),
		SpreadBps: p.Summary.BestRates.SpreadBps,
	}
	for id, obs := range p.Data {
		snap.Rates[id] = obs.Rate
		if obs.IsStale {
			snap.Stale = append(snap.Stale, id)
		}
	}
	sort.Slice(snap.Stale, func(i, j int) bool { return snap.Stale[i] < snap.Stale[j] })
	if low := p.Summary.BestRates.Lowest; low != nil {
		snap.LowestSeries = low.SeriesID
		snap.LowestRate = low.Rate
	}
	return snap
}

func diffSnapshots(prev, curr Snapshot) Delta {
	var d Delta
	for id, rate := range curr.Rates {
		old, ok := prev.Rates[id]
		if !ok {
			d.Added = append(d.Added, id)
			continue
		}
		if bps := int(math.Round((rate - old) * 100)); bps != 0 {
			if d.Bps == nil {
				d.Bps = make(map[model.SeriesID]int)
			}
			d.Bps[id] = bps
		}
	}
	for id := range prev.Rates {
		if _, ok := curr.Rates[id]; !ok {
			d.Removed = append(d.Removed, id)
		}
	}
	sort.Slice(d.Added, func(i, j int) bool { return d.Added[i] < d.Added[j] })
	sort.Slice(d.Removed, func(i, j int) bool { return d.Removed[i] < d.Removed[j] })
	return d
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
	s.metrics.events.WithLabelValues(ev.Type).Inc()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		LastSuccessAt:   s.lastSuccessAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		SnapshotPath:    s.cfg.SnapshotPath,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) currentPayload() *model.RatesPayload {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.payload
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
