// Package queue provides the per-bot activity queue: an unbounded FIFO with
// one consuming worker and any number of producers.
package queue

import (
	"context"
	"sync"

	"botfleet/internal/core"
)

// Queue holds a bot's pending activities in submission order. Push never
// blocks; Pop blocks the single consumer until an item arrives or the context
// is cancelled.
type Queue struct {
	mu    sync.Mutex
	items []*core.Activity
	wake  chan struct{}
}

func New() *Queue {
	return &Queue{
		wake: make(chan struct{}, 1),
	}
}

// Push appends an activity at the tail.
func (q *Queue) Push(a *core.Activity) {
	q.mu.Lock()
	q.items = append(q.items, a)
	q.mu.Unlock()
	q.signal()
}

// PushFront re-inserts an activity at the head. Used by the worker to retry a
// recoverable failure before any later-enqueued work.
func (q *Queue) PushFront(a *core.Activity) {
	q.mu.Lock()
	q.items = append([]*core.Activity{a}, q.items...)
	q.mu.Unlock()
	q.signal()
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Pop removes and returns the head, blocking until an item is available or
// ctx is cancelled. Once ctx is cancelled Pop returns false even if items
// remain; they stay queued for Drain.
func (q *Queue) Pop(ctx context.Context) (*core.Activity, bool) {
	for {
		if ctx.Err() != nil {
			return nil, false
		}
		q.mu.Lock()
		if len(q.items) > 0 {
			a := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return a, true
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, false
		case <-q.wake:
		}
	}
}

// Drain removes and returns every queued activity. Used during shutdown to
// mark not-yet-started work as abandoned.
func (q *Queue) Drain() []*core.Activity {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

// Len reports the number of queued activities.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
