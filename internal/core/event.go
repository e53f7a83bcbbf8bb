package core

import "time"

// EventType identifies a fleet lifecycle or activity outcome event.
type EventType string

const (
	EventBotAdded          EventType = "BotAdded"
	EventBotRemoved        EventType = "BotRemoved"
	EventActivityEnqueued  EventType = "ActivityEnqueued"
	EventActivitySucceeded EventType = "ActivitySucceeded"
	EventActivityFailed    EventType = "ActivityFailed"
	EventWorkerRestarted   EventType = "WorkerRestarted"
)

// Event is a single entry in the fleet's append-only event stream.
type Event struct {
	Type       EventType     `json:"type"`
	Timestamp  time.Time     `json:"timestamp"`
	BotID      string        `json:"bot_id"`
	ActivityID string        `json:"activity_id,omitempty"`
	Error      string        `json:"error,omitempty"`
	Attempts   int           `json:"attempts,omitempty"`
	Duration   time.Duration `json:"duration,omitempty"`
	StatusCode int           `json:"status_code,omitempty"`
}
