package events

import "botfleet/internal/core"

// Multi fans one event out to several recorders in order.
type Multi []core.Recorder

func (m Multi) Record(e core.Event) {
	for _, r := range m {
		r.Record(e)
	}
}
