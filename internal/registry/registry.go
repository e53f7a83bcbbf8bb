// Package registry owns the set of live bots and their workers.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"botfleet/internal/bot"
	"botfleet/internal/core"
)

var (
	// ErrUnknownBot is returned for operations against a bot id that is
	// not live.
	ErrUnknownBot = errors.New("unknown bot")
	// ErrDuplicateAccount is returned when the account identity is
	// already bound to a live bot.
	ErrDuplicateAccount = errors.New("account already bound to a live bot")
	// ErrBotNotAcceptingWork is returned when enqueueing against a bot
	// that is stopping or stopped.
	ErrBotNotAcceptingWork = errors.New("bot is not accepting work")
	// ErrClosed is returned after Shutdown.
	ErrClosed = errors.New("registry is closed")
)

type handle struct {
	bot    *bot.Bot
	cancel context.CancelFunc
	done   chan struct{}
}

// Registry is the process-scoped owner of all live bots. Construct one with
// New and tear it down with Shutdown; there is no ambient instance.
type Registry struct {
	exec   core.Executor
	rec    core.Recorder
	clock  core.Clock
	policy bot.Policy

	mu       sync.Mutex
	bots     map[string]*handle
	order    []string
	accounts map[string]string // account name -> bot id
	closed   bool
	wg       sync.WaitGroup
}

// New creates an empty registry. All bots created through it share the
// executor, recorder and policy.
func New(exec core.Executor, rec core.Recorder, policy bot.Policy) *Registry {
	if rec == nil {
		rec = core.NullRecorder
	}
	return &Registry{
		exec:     exec,
		rec:      rec,
		clock:    core.RealClock{},
		policy:   policy,
		bots:     make(map[string]*handle),
		accounts: make(map[string]string),
	}
}

// WithClock overrides the time source for testing purposes.
func (r *Registry) WithClock(c core.Clock) *Registry {
	if c != nil {
		r.clock = c
	}
	return r
}

// AddBot allocates an account and queue, starts the bot's worker and returns
// the new bot id.
func (r *Registry) AddBot(spec core.AccountSpec) (string, error) {
	if spec.Name == "" {
		return "", errors.New("account name is required")
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return "", ErrClosed
	}
	if _, taken := r.accounts[spec.Name]; taken {
		r.mu.Unlock()
		return "", fmt.Errorf("%w: %q", ErrDuplicateAccount, spec.Name)
	}

	id := uuid.NewString()
	now := r.clock.Now()
	b := bot.New(id, core.NewAccount(spec, id, now))
	w := bot.NewWorker(b, r.exec, r.rec, r.clock, r.policy)

	ctx, cancel := context.WithCancel(context.Background())
	h := &handle{bot: b, cancel: cancel, done: make(chan struct{})}
	r.bots[id] = h
	r.order = append(r.order, id)
	r.accounts[spec.Name] = id
	r.wg.Add(1)
	go r.supervise(ctx, h, w)
	r.mu.Unlock()

	r.rec.Record(core.Event{Type: core.EventBotAdded, Timestamp: now, BotID: id})
	return id, nil
}

// supervise runs the worker until it stops cleanly, restarting it after a
// crash. A crash during shutdown is not a restart: the re-entered loop sees
// the cancelled context and drains immediately.
func (r *Registry) supervise(ctx context.Context, h *handle, w *bot.Worker) {
	defer r.wg.Done()
	defer close(h.done)
	for {
		err := w.Run(ctx)
		if err == nil {
			return
		}
		if ctx.Err() == nil {
			r.rec.Record(core.Event{
				Type:      core.EventWorkerRestarted,
				Timestamp: r.clock.Now(),
				BotID:     h.bot.ID,
				Error:     err.Error(),
			})
		}
	}
}

// RemoveBot stops a bot and waits for its worker to terminate. The in-flight
// activity, if any, finishes naturally; everything still queued is failed
// with the removal reason. ctx bounds only the caller's wait, not the
// worker's shutdown.
func (r *Registry) RemoveBot(ctx context.Context, botID string) error {
	r.mu.Lock()
	h, ok := r.bots[botID]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownBot, botID)
	}
	h.bot.BeginStop()
	r.mu.Unlock()

	h.cancel()
	select {
	case <-h.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	r.mu.Lock()
	if _, still := r.bots[botID]; !still {
		// Lost a race with a concurrent removal that already finished.
		r.mu.Unlock()
		return nil
	}
	delete(r.bots, botID)
	delete(r.accounts, h.bot.Account.Name)
	for i, id := range r.order {
		if id == botID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.mu.Unlock()

	r.rec.Record(core.Event{Type: core.EventBotRemoved, Timestamp: r.clock.Now(), BotID: botID})
	return nil
}

// Enqueue appends a new pending activity to the bot's queue and returns its
// id. Never blocks on network I/O.
func (r *Registry) Enqueue(botID string, spec core.RequestSpec) (string, error) {
	if spec.URL == "" {
		return "", errors.New("activity url is required")
	}

	r.mu.Lock()
	h, ok := r.bots[botID]
	if !ok {
		r.mu.Unlock()
		return "", fmt.Errorf("%w: %s", ErrUnknownBot, botID)
	}
	if !h.bot.Accepting() {
		r.mu.Unlock()
		return "", fmt.Errorf("%w: %s", ErrBotNotAcceptingWork, botID)
	}
	act := core.NewActivity(botID, spec, r.clock.Now())
	h.bot.Ledger.Add(act)
	h.bot.Queue.Push(act)
	r.mu.Unlock()

	r.rec.Record(core.Event{
		Type:       core.EventActivityEnqueued,
		Timestamp:  act.EnqueuedAt,
		BotID:      botID,
		ActivityID: act.ID,
	})
	return act.ID, nil
}

// ListBots returns point-in-time summaries in stable insertion order.
func (r *Registry) ListBots() []bot.Summary {
	r.mu.Lock()
	handles := make([]*handle, 0, len(r.order))
	for _, id := range r.order {
		handles = append(handles, r.bots[id])
	}
	r.mu.Unlock()

	summaries := make([]bot.Summary, len(handles))
	for i, h := range handles {
		summaries[i] = h.bot.Summarize()
	}
	return summaries
}

// Bot returns a single bot's summary.
func (r *Registry) Bot(botID string) (bot.Summary, error) {
	h, err := r.lookup(botID)
	if err != nil {
		return bot.Summary{}, err
	}
	return h.bot.Summarize(), nil
}

// Activities returns copies of a bot's full activity history in enqueue
// order, completed entries included.
func (r *Registry) Activities(botID string) ([]core.Activity, error) {
	h, err := r.lookup(botID)
	if err != nil {
		return nil, err
	}
	return h.bot.Ledger.Snapshot(), nil
}

// Activity returns one activity of a bot by id.
func (r *Registry) Activity(botID, activityID string) (core.Activity, error) {
	h, err := r.lookup(botID)
	if err != nil {
		return core.Activity{}, err
	}
	act, ok := h.bot.Ledger.Get(activityID)
	if !ok {
		return core.Activity{}, fmt.Errorf("unknown activity: %s", activityID)
	}
	return act, nil
}

// PurgeActivities drops a bot's completed activities and reports how many
// were removed.
func (r *Registry) PurgeActivities(botID string) (int, error) {
	h, err := r.lookup(botID)
	if err != nil {
		return 0, err
	}
	return h.bot.Ledger.PurgeCompleted(), nil
}

func (r *Registry) lookup(botID string) (*handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.bots[botID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBot, botID)
	}
	return h, nil
}

// Shutdown stops every bot and waits for all workers to terminate. The
// registry accepts no new bots afterwards.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	handles := make([]*handle, 0, len(r.bots))
	for _, h := range r.bots {
		handles = append(handles, h)
	}
	r.mu.Unlock()

	for _, h := range handles {
		h.bot.BeginStop()
		h.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
