// Package stats computes fleet metrics from recorded events.
package stats

import (
	"sort"
	"time"

	"botfleet/internal/core"
)

// Fleet aggregates the whole event stream.
type Fleet struct {
	BotsAdded      int                  `json:"bots_added"`
	BotsRemoved    int                  `json:"bots_removed"`
	Enqueued       int                  `json:"enqueued"`
	Succeeded      int                  `json:"succeeded"`
	Failed         int                  `json:"failed"`
	WorkerRestarts int                  `json:"worker_restarts"`
	SuccessRate    float64              `json:"success_rate"`
	Duration       Durations            `json:"duration"`
	Bots           map[string]*BotStats `json:"bots"`
}

// BotStats aggregates one bot's events.
type BotStats struct {
	Enqueued  int       `json:"enqueued"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Restarts  int       `json:"restarts"`
	Duration  Durations `json:"duration"`
}

// Durations summarizes the execution times of completed activities.
type Durations struct {
	Min time.Duration `json:"min"`
	Avg time.Duration `json:"avg"`
	Max time.Duration `json:"max"`
	P95 time.Duration `json:"p95"`
}

// Compute derives fleet metrics from events. Pure function, no side effects.
func Compute(events []core.Event) *Fleet {
	f := &Fleet{Bots: make(map[string]*BotStats)}

	allDurations := make([]time.Duration, 0, len(events))
	botDurations := make(map[string][]time.Duration)

	botFor := func(id string) *BotStats {
		b, ok := f.Bots[id]
		if !ok {
			b = &BotStats{}
			f.Bots[id] = b
		}
		return b
	}

	for _, e := range events {
		switch e.Type {
		case core.EventBotAdded:
			f.BotsAdded++
			botFor(e.BotID)
		case core.EventBotRemoved:
			f.BotsRemoved++
		case core.EventActivityEnqueued:
			f.Enqueued++
			botFor(e.BotID).Enqueued++
		case core.EventActivitySucceeded:
			f.Succeeded++
			botFor(e.BotID).Succeeded++
		case core.EventActivityFailed:
			f.Failed++
			botFor(e.BotID).Failed++
		case core.EventWorkerRestarted:
			f.WorkerRestarts++
			botFor(e.BotID).Restarts++
		}

		if e.Duration > 0 && (e.Type == core.EventActivitySucceeded || e.Type == core.EventActivityFailed) {
			allDurations = append(allDurations, e.Duration)
			botDurations[e.BotID] = append(botDurations[e.BotID], e.Duration)
		}
	}

	if completed := f.Succeeded + f.Failed; completed > 0 {
		f.SuccessRate = float64(f.Succeeded) / float64(completed) * 100
	}

	f.Duration = computeDurations(allDurations)
	for id, ds := range botDurations {
		f.Bots[id].Duration = computeDurations(ds)
	}
	return f
}

func computeDurations(ds []time.Duration) Durations {
	if len(ds) == 0 {
		return Durations{}
	}
	sorted := make([]time.Duration, len(ds))
	copy(sorted, ds)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total time.Duration
	for _, d := range sorted {
		total += d
	}
	return Durations{
		Min: sorted[0],
		Avg: total / time.Duration(len(sorted)),
		Max: sorted[len(sorted)-1],
		P95: percentile(sorted, 95),
	}
}

// percentile uses the nearest-rank method on a sorted slice.
func percentile(sorted []time.Duration, p int) time.Duration {
	idx := (len(sorted)*p + 99) / 100
	if idx > 0 {
		idx--
	}
	return sorted[idx]
}
