package bot

import (
	"sync"

	"botfleet/internal/core"
)

// Ledger records every activity a bot has ever accepted, in enqueue order.
// The owning worker is the only mutator of activity fields, but snapshots may
// be taken from any goroutine, so all access goes through the ledger's lock.
type Ledger struct {
	mu    sync.Mutex
	order []*core.Activity
	byID  map[string]*core.Activity
}

func NewLedger() *Ledger {
	return &Ledger{byID: make(map[string]*core.Activity)}
}

// Add registers a newly enqueued activity.
func (l *Ledger) Add(a *core.Activity) {
	l.mu.Lock()
	l.order = append(l.order, a)
	l.byID[a.ID] = a
	l.mu.Unlock()
}

// Update applies fn to an activity under the ledger lock. fn must not block.
func (l *Ledger) Update(a *core.Activity, fn func(*core.Activity)) {
	l.mu.Lock()
	fn(a)
	l.mu.Unlock()
}

// Get returns a copy of the activity with the given id.
func (l *Ledger) Get(id string) (core.Activity, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.byID[id]
	if !ok {
		return core.Activity{}, false
	}
	return *a, true
}

// Snapshot returns copies of all activities in enqueue order.
func (l *Ledger) Snapshot() []core.Activity {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]core.Activity, len(l.order))
	for i, a := range l.order {
		out[i] = *a
	}
	return out
}

// TerminalCounts tallies succeeded and failed activities.
func (l *Ledger) TerminalCounts() (succeeded, failed int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, a := range l.order {
		switch a.Status {
		case core.StatusSucceeded:
			succeeded++
		case core.StatusFailed:
			failed++
		}
	}
	return succeeded, failed
}

// PurgeCompleted drops activities that reached a terminal status and returns
// how many were removed. Pending and in-progress entries stay.
func (l *Ledger) PurgeCompleted() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.order[:0]
	removed := 0
	for _, a := range l.order {
		if a.Status.Terminal() {
			delete(l.byID, a.ID)
			removed++
			continue
		}
		kept = append(kept, a)
	}
	l.order = kept
	return removed
}
