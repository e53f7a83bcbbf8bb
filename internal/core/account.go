package core

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AccountSpec is the caller-supplied material for a new account. Name is the
// account identity used for duplicate detection; Credential is an opaque blob
// the core stores but never interprets.
type AccountSpec struct {
	Name       string          `json:"name" yaml:"name"`
	Credential json.RawMessage `json:"credential,omitempty" yaml:"credential,omitempty"`
}

// Account binds a service identity to exactly one bot. Immutable after
// creation; released when its bot is removed.
type Account struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Credential json.RawMessage `json:"credential,omitempty"`
	BotID      string          `json:"bot_id"`
	CreatedAt  time.Time       `json:"created_at"`
}

// NewAccount materializes an account for the given bot.
func NewAccount(spec AccountSpec, botID string, now time.Time) *Account {
	return &Account{
		ID:         uuid.NewString(),
		Name:       spec.Name,
		Credential: spec.Credential,
		BotID:      botID,
		CreatedAt:  now,
	}
}
