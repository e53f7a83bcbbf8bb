// Package core defines the fundamental types and boundary interfaces for botfleet.
package core

import "context"

// Executor performs one activity's request against the network and classifies
// the outcome. Implementations must be stateless and safe for concurrent use
// by many bot workers, and must bound each call with their own timeout.
type Executor interface {
	Execute(ctx context.Context, spec RequestSpec) Outcome
}

// Recorder receives lifecycle and activity outcome events. Implementations
// must be safe for concurrent use; events for a single bot arrive in the order
// its worker observed the transitions.
type Recorder interface {
	Record(Event)
}

// NullRecorder discards all events.
var NullRecorder Recorder = nullRecorder{}

type nullRecorder struct{}

func (nullRecorder) Record(Event) {}
