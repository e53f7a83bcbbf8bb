package core

import (
	"time"

	"github.com/google/uuid"
)

// Status is an activity's position in its lifecycle. Transitions are
// monotonic: Pending -> InProgress -> {Succeeded, Failed}. The only loop back
// to Pending is a retry under the worker's attempt cap.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "InProgress"
	StatusSucceeded  Status = "Succeeded"
	StatusFailed     Status = "Failed"
)

// Terminal reports whether the status is an end state.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// ReasonBotRemoved marks activities abandoned because their bot was removed
// before they could run.
const ReasonBotRemoved = "bot removed"

// RequestSpec describes the outbound HTTP request an activity performs. The
// core passes it through to the executor untouched.
type RequestSpec struct {
	Method  string            `json:"method" yaml:"method"`
	URL     string            `json:"url" yaml:"url"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body    string            `json:"body,omitempty" yaml:"body,omitempty"`
	// Extract maps summary field names to gjson paths evaluated against a
	// successful JSON response body.
	Extract map[string]string `json:"extract,omitempty" yaml:"extract,omitempty"`
}

// Activity is one queued unit of work and its outcome tracking. After
// creation it is mutated only by the owning bot's worker.
type Activity struct {
	ID         string      `json:"id"`
	BotID      string      `json:"bot_id"`
	Spec       RequestSpec `json:"spec"`
	Status     Status      `json:"status"`
	Attempts   int         `json:"attempts"`
	EnqueuedAt time.Time   `json:"enqueued_at"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	LastError  string      `json:"last_error,omitempty"`
	Outcome    *Outcome    `json:"outcome,omitempty"`
}

// NewActivity creates a Pending activity for the given bot.
func NewActivity(botID string, spec RequestSpec, now time.Time) *Activity {
	return &Activity{
		ID:         uuid.NewString(),
		BotID:      botID,
		Spec:       spec,
		Status:     StatusPending,
		EnqueuedAt: now,
	}
}
