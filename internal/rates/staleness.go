package rates

import (
	"math"
	"time"

	"github.com/theirongolddev/homecalc/internal/model"
)

// Freshness thresholds, in whole days. They are independent: a series
// older than StaleAfterDays drops out of the best-rates ranking and of
// series selection, while a payload older than RefreshAfterDays only
// prompts the user to refresh.
//
// Observation dates count from noon UTC, so before noon a date 36
// calendar days back is still 35 whole days old and not yet stale.
const (
	StaleAfterDays   = 35
	RefreshAfterDays = 5
)

// observationTime anchors a calendar date at noon UTC.
func observationTime(obs model.RateObservation) (time.Time, bool) {
	d, ok := obs.CalendarDate()
	if !ok {
		return time.Time{}, false
	}
	return time.Date(d.Year, d.Month, d.Day, 12, 0, 0, 0, time.UTC), true
}

// DaysSince returns whole days elapsed from t to now, clamped at 0.
func DaysSince(t, now time.Time) int {
	days := math.Floor(now.Sub(t).Hours() / 24)
	if days < 0 {
		return 0
	}
	return int(days)
}

// Annotate sets StaleDays and IsStale relative to now. Observations with
// an unparseable date are stale with no day count.
func Annotate(obs model.RateObservation, now time.Time) model.RateObservation {
	t, ok := observationTime(obs)
	if !ok {
		obs.StaleDays = nil
		obs.IsStale = true
		return obs
	}
	days := DaysSince(t, now)
	obs.StaleDays = &days
	obs.IsStale = days > StaleAfterDays
	return obs
}

// AnnotateAll annotates every observation in data, in place.
func AnnotateAll(data map[model.SeriesID]model.RateObservation, now time.Time) {
	for id, obs := range data {
		data[id] = Annotate(obs, now)
	}
}

// NeedsRefresh reports whether a payload fetched at fetchedAt should
// prompt a manual refresh. A zero time always does.
func NeedsRefresh(fetchedAt, now time.Time) bool {
	if fetchedAt.IsZero() {
		return true
	}
	return DaysSince(fetchedAt, now) > RefreshAfterDays
}
