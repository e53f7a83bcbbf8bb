// Package bot implements the per-bot worker: one goroutine draining one
// queue, strictly in order, with retry and shutdown handling.
package bot

import (
	"sync"

	"botfleet/internal/core"
	"botfleet/internal/queue"
)

// Status is a bot's lifecycle state.
type Status string

const (
	StatusIdle     Status = "Idle"
	StatusRunning  Status = "Running"
	StatusStopping Status = "Stopping"
	StatusStopped  Status = "Stopped"
)

// Bot owns one account, one queue and one activity ledger. Exactly one
// worker drains it at any time.
type Bot struct {
	ID      string
	Account *core.Account
	Queue   *queue.Queue
	Ledger  *Ledger

	mu     sync.Mutex
	status Status
}

// New creates an Idle bot bound to the given account.
func New(id string, account *core.Account) *Bot {
	return &Bot{
		ID:      id,
		Account: account,
		Queue:   queue.New(),
		Ledger:  NewLedger(),
		status:  StatusIdle,
	}
}

// Status returns the bot's current lifecycle state.
func (b *Bot) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

// Accepting reports whether new work may be enqueued.
func (b *Bot) Accepting() bool {
	s := b.Status()
	return s != StatusStopping && s != StatusStopped
}

// BeginStop transitions the bot to Stopping. Idempotent.
func (b *Bot) BeginStop() {
	b.mu.Lock()
	if b.status != StatusStopped {
		b.status = StatusStopping
	}
	b.mu.Unlock()
}

// markStopped records terminal shutdown.
func (b *Bot) markStopped() {
	b.mu.Lock()
	b.status = StatusStopped
	b.mu.Unlock()
}

// setWorkerStatus flips between Idle and Running without clobbering an
// in-progress shutdown.
func (b *Bot) setWorkerStatus(s Status) {
	b.mu.Lock()
	if b.status != StatusStopping && b.status != StatusStopped {
		b.status = s
	}
	b.mu.Unlock()
}

// Summary is a point-in-time snapshot of a bot for listings.
type Summary struct {
	ID        string       `json:"id"`
	Account   core.Account `json:"account"`
	Status    Status       `json:"status"`
	Queued    int          `json:"queued"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
}

// Summarize captures the bot's current state.
func (b *Bot) Summarize() Summary {
	succeeded, failed := b.Ledger.TerminalCounts()
	return Summary{
		ID:        b.ID,
		Account:   *b.Account,
		Status:    b.Status(),
		Queued:    b.Queue.Len(),
		Succeeded: succeeded,
		Failed:    failed,
	}
}
