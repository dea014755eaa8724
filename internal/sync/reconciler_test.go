package sync

import (
	"context"
	gosync "sync"
	"testing"
	"time"

	"github.com/nhle/todo-client/internal/model"
)

type countingRefresher struct {
	mu    gosync.Mutex
	calls int
	out   model.Outcome
}

func (c *countingRefresher) Refresh(context.Context) model.Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.out
}

func (c *countingRefresher) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func receive(t *testing.T, r *Reconciler) RefreshResultMsg {
	t.Helper()
	done := make(chan RefreshResultMsg, 1)
	go func() {
		msg, _ := r.WaitForNextResult()().(RefreshResultMsg)
		done <- msg
	}()
	select {
	case msg := <-done:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a refresh result")
		return RefreshResultMsg{}
	}
}

func TestReconciler_RefreshNow(t *testing.T) {
	ref := &countingRefresher{out: model.Succeeded("")}
	r := New(ref, 0)

	if cmd := r.Start(); cmd == nil {
		t.Fatal("expected a wait command")
	}
	defer r.Stop()

	if again := r.Start(); again != nil {
		t.Error("expected a second Start to be a no-op")
	}

	r.RefreshNow()
	msg := receive(t, r)

	if !msg.Outcome.OK {
		t.Errorf("unexpected outcome %+v", msg.Outcome)
	}
	if ref.count() != 1 {
		t.Errorf("expected one refresh, got %d", ref.count())
	}
	st := r.Status()
	if st.State != RefreshIdle || st.LastRefresh.IsZero() {
		t.Errorf("unexpected status %+v", st)
	}
}

func TestReconciler_Interval(t *testing.T) {
	ref := &countingRefresher{out: model.Failed(model.FailureTransport, "offline")}
	r := New(ref, 10*time.Millisecond)
	r.Start()
	defer r.Stop()

	first := receive(t, r)
	second := receive(t, r)

	if first.Outcome.OK || second.Outcome.Message != "offline" {
		t.Errorf("unexpected outcomes %+v %+v", first, second)
	}
	if ref.count() < 2 {
		t.Errorf("expected at least two refreshes, got %d", ref.count())
	}
}

func TestReconciler_Stop(t *testing.T) {
	ref := &countingRefresher{out: model.Succeeded("")}
	r := New(ref, 0)
	r.Start()
	r.Stop()

	if r.Running() {
		t.Error("expected stopped")
	}
	if cmd := r.Start(); cmd != nil {
		t.Error("a stopped reconciler must not restart")
	}
	if msg := r.WaitForNextResult()(); msg != nil {
		t.Errorf("expected nil after stop, got %v", msg)
	}
}

func TestReconciler_Paused(t *testing.T) {
	ref := &countingRefresher{out: model.Succeeded("")}
	r := New(ref, 0)
	r.Start()
	defer r.Stop()

	r.SetPaused(true)
	r.RefreshNow()
	// Give the loop a chance to drain the request.
	time.Sleep(50 * time.Millisecond)
	if ref.count() != 0 {
		t.Fatalf("expected no refresh while paused, got %d", ref.count())
	}

	r.SetPaused(false)
	r.RefreshNow()
	receive(t, r)
	if ref.count() != 1 {
		t.Errorf("expected one refresh after resume, got %d", ref.count())
	}
}
