// Package events provides Recorder implementations for the fleet's event
// stream.
package events

import (
	"sync"

	"botfleet/internal/core"
)

// Memory buffers events in memory for inspection (fleet stats, tests). A
// dedicated goroutine drains the channel so recording never blocks a worker.
type Memory struct {
	events []core.Event
	ch     chan core.Event
	done   chan struct{}
	mu     sync.Mutex
}

// NewMemory creates a Memory recorder and starts its collection goroutine.
func NewMemory() *Memory {
	m := &Memory{
		ch:   make(chan core.Event, 1000),
		done: make(chan struct{}),
	}
	go m.collect()
	return m
}

func (m *Memory) collect() {
	for e := range m.ch {
		m.mu.Lock()
		m.events = append(m.events, e)
		m.mu.Unlock()
	}
	close(m.done)
}

// Record stores an event. Thread-safe; drops on a full buffer rather than
// stalling the emitting worker.
func (m *Memory) Record(e core.Event) {
	select {
	case m.ch <- e:
	default:
	}
}

// Close stops accepting events and waits for the buffer to drain.
func (m *Memory) Close() {
	close(m.ch)
	<-m.done
}

// Events returns a copy of everything recorded so far.
func (m *Memory) Events() []core.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.Event, len(m.events))
	copy(out, m.events)
	return out
}
