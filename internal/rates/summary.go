package rates

import (
	"math"
	"sort"
	"time"

	"github.com/theirongolddev/homecalc/internal/config"
	"github.com/theirongolddev/homecalc/internal/model"
)

// DefaultSource labels payloads with no explicit source.
const DefaultSource = "FRED"

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// BuildBestRatesSummary ranks observations by ascending rate. Only
// non-stale entries are ranked when at least one exists; otherwise every
// entry with a finite rate is ranked so the view is never empty while
// data exists.
func BuildBestRatesSummary(data map[model.SeriesID]model.RateObservation) model.BestRates {
	var fresh, all []model.BestRateEntry
	for id, obs := range data {
		if !finite(obs.Rate) {
			continue
		}
		entry := model.BestRateEntry{
			SeriesID: id,
			Bucket:   obs.Bucket,
			Label:    obs.Label,
			Rate:     obs.Rate,
			Date:     obs.Date,
		}
		if sc, ok := config.LookupSeries(id); ok {
			if entry.Bucket == "" {
				entry.Bucket = sc.Bucket
			}
			if entry.Label == "" {
				entry.Label = sc.Label
			}
		}
		if entry.Bucket == "" {
			entry.Bucket = string(id)
		}
		if entry.Label == "" {
			entry.Label = string(id)
		}
		all = append(all, entry)
		if !obs.IsStale {
			fresh = append(fresh, entry)
		}
	}

	ranked := fresh
	if len(ranked) == 0 {
		ranked = all
	}
	if len(ranked) == 0 {
		return model.BestRates{Available: []model.BestRateEntry{}}
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Rate != ranked[j].Rate {
			return ranked[i].Rate < ranked[j].Rate
		}
		return ranked[i].SeriesID < ranked[j].SeriesID
	})

	lowest := ranked[0]
	highest := ranked[len(ranked)-1]
	spread := int(math.Round((highest.Rate - lowest.Rate) * 100))
	return model.BestRates{
		Available: ranked,
		Lowest:    &lowest,
		Highest:   &highest,
		SpreadBps: &spread,
	}
}

// NormalizePayload fills in defaults on a payload read from any source:
// the current version, a fetch time of now, an ISO timestamp derived from
// the fetch time and the FRED source label. Observations are re-annotated
// against now and the summary is rebuilt from them. A nil payload
// normalizes to an empty one.
func NormalizePayload(raw *model.RatesPayload, now time.Time) *model.RatesPayload {
	p := model.RatesPayload{}
	if raw != nil {
		p = *raw
	}

	data := make(map[model.SeriesID]model.RateObservation, len(p.Data))
	for id, obs := range p.Data {
		if !finite(obs.Rate) {
			continue
		}
		data[id] = obs
	}
	AnnotateAll(data, now)
	p.Data = data

	if p.Version <= 0 {
		p.Version = model.PayloadVersion
	}
	if p.FetchedAt <= 0 {
		p.FetchedAt = now.UnixMilli()
	}
	if p.FetchedAtISO == "" {
		p.FetchedAtISO = time.UnixMilli(p.FetchedAt).UTC().Format("2006-01-02T15:04:05.000Z")
	}
	if p.Source == "" {
		p.Source = DefaultSource
	}
	p.Summary.BestRates = BuildBestRatesSummary(data)
	return &p
}

// NewPayload assembles a fresh payload from fetched observations.
func NewPayload(data map[model.SeriesID]model.RateObservation, now time.Time) *model.RatesPayload {
	return NormalizePayload(&model.RatesPayload{
		Version:   model.PayloadVersion,
		FetchedAt: now.UnixMilli(),
		Source:    DefaultSource,
		Data:      data,
	}, now)
}
