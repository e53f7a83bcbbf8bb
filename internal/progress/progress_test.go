package progress

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"botfleet/internal/core"
	"botfleet/internal/events"
)

func TestPrintStatus(t *testing.T) {
	mem := events.NewMemory()
	defer mem.Close()

	mem.Record(core.Event{Type: core.EventBotAdded, BotID: "a"})
	mem.Record(core.Event{Type: core.EventBotAdded, BotID: "b"})
	mem.Record(core.Event{Type: core.EventActivityEnqueued, BotID: "a"})
	mem.Record(core.Event{Type: core.EventActivitySucceeded, BotID: "a", Duration: time.Millisecond})

	// Give the collector a moment to drain the buffer.
	deadline := time.Now().Add(time.Second)
	for len(mem.Events()) < 4 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	var buf bytes.Buffer
	p := New(mem, false)
	p.SetOutput(&buf)
	p.startTime = time.Now()
	p.printStatus()

	out := buf.String()
	for _, want := range []string{
		"Bots: 2",
		"Enqueued: 1",
		"Succeeded: 1",
		"Failed: 0",
		"100.0% ok",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("status line missing %q: %s", want, out)
		}
	}
}

func TestQuietModeSuppressesOutput(t *testing.T) {
	mem := events.NewMemory()
	defer mem.Close()

	var buf bytes.Buffer
	p := New(mem, true)
	p.SetOutput(&buf)
	p.Start()
	p.Printf("should not appear")
	p.Stop()

	if buf.Len() != 0 {
		t.Errorf("quiet mode wrote output: %q", buf.String())
	}
}

func TestStartStop(t *testing.T) {
	mem := events.NewMemory()
	defer mem.Close()

	var buf bytes.Buffer
	p := New(mem, false)
	p.SetOutput(&buf)
	p.Start()
	p.Stop()
	// Stop is idempotent.
	p.Stop()
}

func TestPrintf(t *testing.T) {
	mem := events.NewMemory()
	defer mem.Close()

	var buf bytes.Buffer
	p := New(mem, false)
	p.SetOutput(&buf)
	p.Printf("shutting down %d bots", 3)

	if !strings.Contains(buf.String(), "shutting down 3 bots") {
		t.Errorf("unexpected output: %q", buf.String())
	}
	if !strings.HasSuffix(buf.String(), "\n") {
		t.Error("expected a newline-terminated message")
	}
}
