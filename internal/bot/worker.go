package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jpillora/backoff"
	"golang.org/x/time/rate"

	"botfleet/internal/core"
)

// Policy defaults.
const (
	DefaultMaxAttempts = 3
	DefaultBackoffMin  = 100 * time.Millisecond
	DefaultBackoffMax  = 5 * time.Second
)

// Policy controls retry and pacing behavior for a bot's worker.
type Policy struct {
	// MaxAttempts caps executions of one activity, first try included.
	MaxAttempts int
	// BackoffMin and BackoffMax bound the exponential delay between
	// retries of a recoverable failure.
	BackoffMin time.Duration
	BackoffMax time.Duration
	// RPS paces this bot's executions. Zero means unpaced. Pacing is
	// per-bot only; bots never share a limiter.
	RPS int
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.BackoffMin <= 0 {
		p.BackoffMin = DefaultBackoffMin
	}
	if p.BackoffMax <= 0 {
		p.BackoffMax = DefaultBackoffMax
	}
	if p.BackoffMax < p.BackoffMin {
		p.BackoffMax = p.BackoffMin
	}
	return p
}

// ErrWorkerCrashed indicates a panic escaped an execution. The registry's
// supervisor restarts the worker and records the restart.
var ErrWorkerCrashed = errors.New("worker crashed")

// Worker is the control loop draining one bot's queue. A Worker is bound to
// its bot for life; Run may be re-entered after a crash.
type Worker struct {
	bot     *Bot
	exec    core.Executor
	rec     core.Recorder
	clock   core.Clock
	policy  Policy
	limiter *rate.Limiter
	backoff *backoff.Backoff
}

// NewWorker creates the worker for a bot. It does not start the loop; the
// registry owns the goroutine.
func NewWorker(b *Bot, exec core.Executor, rec core.Recorder, clock core.Clock, policy Policy) *Worker {
	policy = policy.withDefaults()
	w := &Worker{
		bot:    b,
		exec:   exec,
		rec:    rec,
		clock:  clock,
		policy: policy,
		backoff: &backoff.Backoff{
			Min:    policy.BackoffMin,
			Max:    policy.BackoffMax,
			Factor: 2,
		},
	}
	if policy.RPS > 0 {
		w.limiter = rate.NewLimiter(rate.Limit(policy.RPS), policy.RPS)
	}
	return w
}

// Run drains the queue until ctx is cancelled, executing activities strictly
// in order, one at a time. On cancellation it drains and abandons remaining
// work, marks the bot Stopped and returns nil. It returns ErrWorkerCrashed
// (wrapped) if a panic escaped an execution; remaining state is intact and
// Run may be called again.
func (w *Worker) Run(ctx context.Context) error {
	for {
		w.bot.setWorkerStatus(StatusIdle)
		act, ok := w.bot.Queue.Pop(ctx)
		if !ok {
			w.stop()
			return nil
		}
		if err := w.process(ctx, act); err != nil {
			return err
		}
	}
}

// stop drains the queue, fails the remainder and marks the bot Stopped.
func (w *Worker) stop() {
	for _, act := range w.bot.Queue.Drain() {
		w.abandon(act)
	}
	w.bot.markStopped()
}

// process runs one activity to its next state: terminal status, or Pending
// again behind a backoff for a retryable failure.
func (w *Worker) process(ctx context.Context, act *core.Activity) error {
	if w.limiter != nil {
		if err := w.limiter.Wait(ctx); err != nil {
			w.abandon(act)
			return nil
		}
	}

	w.bot.setWorkerStatus(StatusRunning)

	start := w.clock.Now()
	w.bot.Ledger.Update(act, func(a *core.Activity) {
		a.Status = core.StatusInProgress
		a.StartedAt = start
		a.Attempts++
	})

	// The in-flight call completes or times out naturally even when the
	// bot is being removed, so the executor never sees the stop signal.
	execCtx := core.ContextWithBotID(context.WithoutCancel(ctx), w.bot.ID)
	outcome, crashed := w.attempt(execCtx, act)

	switch {
	case outcome.Success():
		w.finish(act, core.StatusSucceeded, outcome)
	case outcome.Class == core.OutcomeTerminal:
		w.finish(act, core.StatusFailed, outcome)
	case act.Attempts >= w.policy.MaxAttempts:
		w.finish(act, core.StatusFailed, outcome)
	default:
		if !w.wait(ctx, w.backoff.ForAttempt(float64(act.Attempts-1))) {
			// Stop arrived during the backoff window.
			w.abandon(act)
			break
		}
		w.bot.Ledger.Update(act, func(a *core.Activity) {
			a.Status = core.StatusPending
			a.LastError = outcome.Reason
			a.Outcome = &outcome
		})
		w.bot.Queue.PushFront(act)
	}

	if crashed {
		return fmt.Errorf("%w: %s", ErrWorkerCrashed, outcome.Reason)
	}
	return nil
}

// attempt invokes the executor, converting a panic into a recoverable
// failure charged to the activity.
func (w *Worker) attempt(ctx context.Context, act *core.Activity) (outcome core.Outcome, crashed bool) {
	defer func() {
		if r := recover(); r != nil {
			crashed = true
			outcome = core.Outcome{
				Class:  core.OutcomeRecoverable,
				Reason: fmt.Sprintf("panic: %v", r),
			}
		}
	}()
	return w.exec.Execute(ctx, act.Spec), false
}

// finish records a terminal status and emits the matching outcome event.
func (w *Worker) finish(act *core.Activity, status core.Status, outcome core.Outcome) {
	now := w.clock.Now()
	w.bot.Ledger.Update(act, func(a *core.Activity) {
		a.Status = status
		a.FinishedAt = now
		a.Outcome = &outcome
		if status == core.StatusFailed {
			a.LastError = outcome.Reason
		}
	})

	evt := core.Event{
		Timestamp:  now,
		BotID:      w.bot.ID,
		ActivityID: act.ID,
		Attempts:   act.Attempts,
		Duration:   outcome.Duration,
		StatusCode: outcome.StatusCode,
	}
	if status == core.StatusSucceeded {
		evt.Type = core.EventActivitySucceeded
	} else {
		evt.Type = core.EventActivityFailed
		evt.Error = outcome.Reason
	}
	w.rec.Record(evt)
}

// abandon fails an activity that will never run because its bot is going
// away.
func (w *Worker) abandon(act *core.Activity) {
	now := w.clock.Now()
	w.bot.Ledger.Update(act, func(a *core.Activity) {
		a.Status = core.StatusFailed
		a.FinishedAt = now
		a.LastError = core.ReasonBotRemoved
	})
	w.rec.Record(core.Event{
		Type:       core.EventActivityFailed,
		Timestamp:  now,
		BotID:      w.bot.ID,
		ActivityID: act.ID,
		Attempts:   act.Attempts,
		Error:      core.ReasonBotRemoved,
	})
}

// wait sleeps for d or until ctx is cancelled. Returns false on cancel.
func (w *Worker) wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
