package events

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"botfleet/internal/core"
)

// Log writes one timestamped line per event, so a fleet's history can be
// inspected after the process is gone.
type Log struct {
	out io.Writer
	mu  sync.Mutex
}

func NewLog(out io.Writer) *Log {
	return &Log{out: out}
}

func (l *Log) Record(e core.Event) {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s bot=%s", e.Timestamp.Format(time.RFC3339), e.Type, e.BotID)
	if e.ActivityID != "" {
		fmt.Fprintf(&b, " activity=%s", e.ActivityID)
	}
	if e.Attempts > 0 {
		fmt.Fprintf(&b, " attempts=%d", e.Attempts)
	}
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, " status=%d", e.StatusCode)
	}
	if e.Duration > 0 {
		fmt.Fprintf(&b, " duration=%s", e.Duration)
	}
	if e.Error != "" {
		fmt.Fprintf(&b, " error=%q", e.Error)
	}

	l.mu.Lock()
	fmt.Fprintln(l.out, b.String())
	l.mu.Unlock()
}
