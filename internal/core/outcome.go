package core

import "time"

// OutcomeClass partitions execution results for the retry policy. The split
// is based solely on the transport/status signal, never on body semantics.
type OutcomeClass string

const (
	// OutcomeSuccess means the request completed with a non-error status.
	OutcomeSuccess OutcomeClass = "Success"
	// OutcomeRecoverable covers timeouts, transient network errors and
	// 5xx-class responses; the worker may retry these.
	OutcomeRecoverable OutcomeClass = "RecoverableFailure"
	// OutcomeTerminal covers malformed requests and 4xx-class responses;
	// retrying cannot help.
	OutcomeTerminal OutcomeClass = "TerminalFailure"
)

// Outcome is the executor's classification of one execution attempt.
type Outcome struct {
	Class      OutcomeClass   `json:"class"`
	StatusCode int            `json:"status_code,omitempty"`
	Duration   time.Duration  `json:"duration"`
	Reason     string         `json:"reason,omitempty"`
	BytesRecv  int64          `json:"bytes_recv,omitempty"`
	Extracted  map[string]any `json:"extracted,omitempty"`
}

// Success reports whether the attempt succeeded.
func (o Outcome) Success() bool {
	return o.Class == OutcomeSuccess
}
