// Package executor performs activities against the network and classifies
// their outcomes.
package executor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"botfleet/internal/core"
)

const (
	// DefaultTimeout bounds one execution when no timeout is configured.
	DefaultTimeout = 30 * time.Second
	// maxBodySize limits how much of a response body is read for
	// extraction and debug logging.
	maxBodySize = 10 * 1024 * 1024 // 10MB
)

// HTTP executes activities as outbound HTTP requests. Classification uses
// only the transport signal and status class: request build failures and 4xx
// are terminal, everything else that goes wrong is recoverable. Stateless and
// safe for concurrent use by all workers.
type HTTP struct {
	Client  *http.Client
	Timeout time.Duration
	Debug   *DebugLogger
}

// NewHTTP creates an executor with the given per-call timeout.
func NewHTTP(timeout time.Duration) *HTTP {
	return &HTTP{
		Client:  &http.Client{},
		Timeout: timeout,
	}
}

func (e *HTTP) timeout() time.Duration {
	if e.Timeout > 0 {
		return e.Timeout
	}
	return DefaultTimeout
}

func (e *HTTP) client() *http.Client {
	if e.Client != nil {
		return e.Client
	}
	return http.DefaultClient
}

// Execute runs one request and classifies the result. The call never exceeds
// the configured timeout; exceeding it yields a recoverable failure.
func (e *HTTP) Execute(ctx context.Context, spec core.RequestSpec) core.Outcome {
	botID := core.BotIDFromContext(ctx)
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, e.timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, spec.Method, spec.URL, strings.NewReader(spec.Body))
	if err != nil {
		return core.Outcome{
			Class:    core.OutcomeTerminal,
			Duration: time.Since(start),
			Reason:   fmt.Sprintf("build request: %v", err),
		}
	}
	for k, v := range spec.Headers {
		req.Header.Set(k, v)
	}

	e.Debug.LogRequest(botID, req)

	resp, err := e.client().Do(req)
	duration := time.Since(start)
	if err != nil {
		// Timeouts and transport errors alike: the request may work
		// next time.
		e.Debug.LogError(botID, err.Error(), duration)
		return core.Outcome{
			Class:    core.OutcomeRecoverable,
			Duration: duration,
			Reason:   err.Error(),
		}
	}
	defer resp.Body.Close()

	needsBody := len(spec.Extract) > 0 || e.Debug != nil
	var body []byte
	if needsBody {
		body, _ = io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	}
	_, _ = io.Copy(io.Discard, resp.Body) // drain errors are ignorable

	e.Debug.LogResponse(botID, resp, body, duration)

	outcome := core.Outcome{
		StatusCode: resp.StatusCode,
		Duration:   duration,
		BytesRecv:  int64(len(body)),
	}

	switch {
	case resp.StatusCode >= 500:
		outcome.Class = core.OutcomeRecoverable
		outcome.Reason = resp.Status
	case resp.StatusCode >= 400:
		outcome.Class = core.OutcomeTerminal
		outcome.Reason = resp.Status
	default:
		outcome.Class = core.OutcomeSuccess
		if len(spec.Extract) > 0 {
			extracted, err := Extract(body, spec.Extract)
			if err != nil {
				// Extraction is an inspection aid; a miss does not
				// fail the activity.
				outcome.Reason = err.Error()
			}
			outcome.Extracted = extracted
		}
	}
	return outcome
}
