package daemon

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/theirongolddev/homecalc/internal/model"
)

type metrics struct {
	registry    *prometheus.Registry
	polls       *prometheus.CounterVec
	events      *prometheus.CounterVec
	rate        *prometheus.GaugeVec
	ageDays     *prometheus.GaugeVec
	lastSuccess prometheus.Gauge
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "homecalc",
			Subsystem: "daemon",
			Name:      "polls_total",
			Help:      "Rate polls by result.",
		}, []string{"result"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "homecalc",
			Subsystem: "daemon",
			Name:      "events_total",
			Help:      "Events published by type.",
		}, []string{"type"}),
		rate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "homecalc",
			Name:      "benchmark_rate_percent",
			Help:      "Latest benchmark rate per series.",
		}, []string{"series"}),
		ageDays: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "homecalc",
			Name:      "benchmark_age_days",
			Help:      "Days since the latest observation per series.",
		}, []string{"series"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "homecalc",
			Subsystem: "daemon",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful poll.",
		}),
	}
	m.registry.MustRegister(m.polls, m.events, m.rate, m.ageDays, m.lastSuccess)
	return m
}

func (m *metrics) observe(p *model.RatesPayload, now time.Time) {
	for id, obs := range p.Data {
		m.rate.WithLabelValues(string(id)).Set(obs.Rate)
		if obs.StaleDays != nil {
			m.ageDays.WithLabelValues(string(id)).Set(float64(*obs.StaleDays))
		}
	}
	m.lastSuccess.Set(float64(now.Unix()))
}
