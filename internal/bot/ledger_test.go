package bot

import (
	"testing"
	"time"

	"botfleet/internal/core"
)

func ledgerActivity(id string, status core.Status) *core.Activity {
	return &core.Activity{
		ID:         id,
		BotID:      "bot-1",
		Status:     status,
		EnqueuedAt: time.Now(),
	}
}

func TestLedger_SnapshotPreservesEnqueueOrder(t *testing.T) {
	l := NewLedger()
	for _, id := range []string{"a", "b", "c"} {
		l.Add(ledgerActivity(id, core.StatusPending))
	}

	snap := l.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("expected 3 activities, got %d", len(snap))
	}
	for i, want := range []string{"a", "b", "c"} {
		if snap[i].ID != want {
			t.Errorf("snapshot[%d]: expected %s, got %s", i, want, snap[i].ID)
		}
	}
}

func TestLedger_GetReturnsCopy(t *testing.T) {
	l := NewLedger()
	l.Add(ledgerActivity("a", core.StatusPending))

	got, ok := l.Get("a")
	if !ok {
		t.Fatal("expected the activity to be found")
	}
	got.Status = core.StatusFailed

	again, _ := l.Get("a")
	if again.Status != core.StatusPending {
		t.Errorf("internal state mutated through the copy: %s", again.Status)
	}

	if _, ok := l.Get("nope"); ok {
		t.Error("expected a miss for an unknown id")
	}
}

func TestLedger_UpdateVisibleInSnapshots(t *testing.T) {
	l := NewLedger()
	act := ledgerActivity("a", core.StatusPending)
	l.Add(act)

	l.Update(act, func(a *core.Activity) {
		a.Status = core.StatusSucceeded
		a.Attempts = 2
	})

	got, _ := l.Get("a")
	if got.Status != core.StatusSucceeded || got.Attempts != 2 {
		t.Errorf("update not visible: %+v", got)
	}
}

func TestLedger_TerminalCounts(t *testing.T) {
	l := NewLedger()
	l.Add(ledgerActivity("a", core.StatusSucceeded))
	l.Add(ledgerActivity("b", core.StatusSucceeded))
	l.Add(ledgerActivity("c", core.StatusFailed))
	l.Add(ledgerActivity("d", core.StatusPending))
	l.Add(ledgerActivity("e", core.StatusInProgress))

	succeeded, failed := l.TerminalCounts()
	if succeeded != 2 || failed != 1 {
		t.Errorf("expected 2 succeeded / 1 failed, got %d / %d", succeeded, failed)
	}
}

func TestLedger_PurgeCompletedKeepsLiveWork(t *testing.T) {
	l := NewLedger()
	l.Add(ledgerActivity("done", core.StatusSucceeded))
	l.Add(ledgerActivity("dead", core.StatusFailed))
	l.Add(ledgerActivity("waiting", core.StatusPending))
	l.Add(ledgerActivity("running", core.StatusInProgress))

	if removed := l.PurgeCompleted(); removed != 2 {
		t.Errorf("expected 2 purged, got %d", removed)
	}

	snap := l.Snapshot()
	if len(snap) != 2 || snap[0].ID != "waiting" || snap[1].ID != "running" {
		t.Errorf("unexpected survivors: %+v", snap)
	}
	if _, ok := l.Get("done"); ok {
		t.Error("purged activity still reachable by id")
	}
}

func TestBot_StatusTransitions(t *testing.T) {
	b := newTestBot()
	if b.Status() != StatusIdle || !b.Accepting() {
		t.Fatalf("new bot: status=%s accepting=%v", b.Status(), b.Accepting())
	}

	b.setWorkerStatus(StatusRunning)
	if b.Status() != StatusRunning {
		t.Errorf("expected Running, got %s", b.Status())
	}

	b.BeginStop()
	if b.Status() != StatusStopping || b.Accepting() {
		t.Errorf("after BeginStop: status=%s accepting=%v", b.Status(), b.Accepting())
	}

	// The worker loop must not resurrect a stopping bot.
	b.setWorkerStatus(StatusIdle)
	if b.Status() != StatusStopping {
		t.Errorf("worker status overwrote shutdown: %s", b.Status())
	}

	b.markStopped()
	if b.Status() != StatusStopped || b.Accepting() {
		t.Errorf("after stop: status=%s accepting=%v", b.Status(), b.Accepting())
	}

	b.BeginStop()
	if b.Status() != StatusStopped {
		t.Errorf("BeginStop must not leave Stopped: %s", b.Status())
	}
}

func TestBot_Summarize(t *testing.T) {
	b := newTestBot()
	b.Ledger.Add(ledgerActivity("ok", core.StatusSucceeded))
	b.Ledger.Add(ledgerActivity("bad", core.StatusFailed))
	b.Queue.Push(ledgerActivity("pending", core.StatusPending))

	s := b.Summarize()
	if s.ID != b.ID || s.Account.Name != "acct" {
		t.Errorf("identity: %+v", s)
	}
	if s.Queued != 1 || s.Succeeded != 1 || s.Failed != 1 {
		t.Errorf("counters: queued=%d succeeded=%d failed=%d", s.Queued, s.Succeeded, s.Failed)
	}
}
