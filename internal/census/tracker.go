package census

import (
	"context"
	"sync"

	"github.com/theirongolddev/homecalc/internal/model"
	"github.com/theirongolddev/homecalc/internal/numeric"
)

// Status is the state of the tax lookup for the current ZIP.
type Status string

// Lookup states.
const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// Looker performs a single lookup. *Client satisfies it.
type Looker interface {
	Lookup(ctx context.Context, zip string) *model.TaxLookupResult
}

// State is a snapshot of the tracker.
type State struct {
	Status     Status
	ZIP        string
	Result     *model.TaxLookupResult
	Generation uint64
}

// Rate returns the effective tax rate, or 0 without a result.
func (s State) Rate() float64 {
	if s.Result == nil {
		return 0
	}
	return s.Result.Rate
}

// Tracker follows the ZIP field of a form. Each Update starts a new
// generation; a lookup that finishes after a newer Update is discarded, so
// the most recent ZIP always wins.
type Tracker struct {
	looker Looker

	mu    sync.Mutex
	state State
}

// NewTracker creates a tracker in the idle state.
func NewTracker(looker Looker) *Tracker {
	return &Tracker{looker: looker, state: State{Status: StatusIdle}}
}

// State returns the current state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Update records a new ZIP value and, when it is complete, looks it up.
// An incomplete ZIP clears any previous result immediately. Update blocks
// for the lookup and returns the state it produced, which is already
// superseded when a newer Update ran in the meantime.
func (t *Tracker) Update(ctx context.Context, zip string) State {
	zip = numeric.SanitizeZIP(zip)

	t.mu.Lock()
	gen := t.state.Generation + 1
	if !numeric.IsCompleteZIP(zip) {
		t.state = State{Status: StatusIdle, ZIP: zip, Generation: gen}
		s := t.state
		t.mu.Unlock()
		return s
	}
	if t.state.Status == StatusReady && t.state.ZIP == zip {
		// Same ZIP again; keep the result but still supersede older lookups.
		t.state.Generation = gen
		s := t.state
		t.mu.Unlock()
		return s
	}
	t.state = State{Status: StatusLoading, ZIP: zip, Generation: gen}
	t.mu.Unlock()

	result := t.looker.Lookup(ctx, zip)

	next := State{Status: StatusReady, ZIP: zip, Result: result, Generation: gen}
	if result == nil {
		next.Status = StatusError
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.Generation != gen {
		return next
	}
	t.state = next
	return next
}
