// Package sync keeps the local todo list converging on the server list by
// refreshing it in the background.
package sync

import (
	"context"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/todo-client/internal/model"
)

// RefreshState represents the current state of background refreshing.
type RefreshState int

const (
	RefreshIdle RefreshState = iota
	RefreshRunning
	RefreshError
)

// Status holds the reconciler state.
type Status struct {
	State       RefreshState
	LastRefresh time.Time
	Message     string
}

// RefreshResultMsg is a tea.Msg sent when a background refresh completes.
type RefreshResultMsg struct {
	Outcome model.Outcome
	At      time.Time
}

// refreshTimeout is the maximum time allowed for a single refresh.
const refreshTimeout = 30 * time.Second

// Refresher reloads the list from the server.
type Refresher interface {
	Refresh(ctx context.Context) model.Outcome
}

// Reconciler refreshes on a fixed interval and on demand.
type Reconciler struct {
	refresher Refresher
	interval  time.Duration
	status    Status
	resultCh  chan RefreshResultMsg
	triggerCh chan struct{}
	stopCh    chan struct{}
	mu        gosync.Mutex
	running   bool
	stopped   bool
	paused    bool
	now       func() time.Time
}

// New creates a Reconciler. A non-positive interval disables periodic
// refreshes; RefreshNow still works once started.
func New(r Refresher, interval time.Duration) *Reconciler {
	return &Reconciler{
		refresher: r,
		interval:  interval,
		resultCh:  make(chan RefreshResultMsg, 16),
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
		now:       time.Now,
	}
}

// Start returns a tea.Cmd that starts the refresh loop and waits for the
// first result.
func (r *Reconciler) Start() tea.Cmd {
	r.mu.Lock()
	if r.running || r.stopped {
		r.mu.Unlock()
		return nil
	}
	r.running = true
	r.mu.Unlock()

	go r.loop()

	return r.waitForResult()
}

// Stop halts the refresh loop. A stopped Reconciler cannot be restarted.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return
	}

	close(r.stopCh)
	r.running = false
	r.stopped = true
}

// Running reports whether the loop is active.
func (r *Reconciler) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// RefreshNow requests an immediate refresh. Requests made while one is
// already queued are coalesced.
func (r *Reconciler) RefreshNow() {
	select {
	case r.triggerCh <- struct{}{}:
	default:
	}
}

// SetPaused suspends or resumes refreshing without stopping the loop.
// Ticks and requests arriving while paused are dropped.
func (r *Reconciler) SetPaused(paused bool) {
	r.mu.Lock()
	r.paused = paused
	r.mu.Unlock()
}

// Status returns the current reconciler status.
func (r *Reconciler) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *Reconciler) loop() {
	var tick <-chan time.Time
	if r.interval > 0 {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-r.stopCh:
			return
		case <-tick:
			r.refresh()
		case <-r.triggerCh:
			r.refresh()
		}
	}
}

// refresh performs one refresh and publishes its result.
func (r *Reconciler) refresh() {
	r.mu.Lock()
	paused := r.paused
	r.mu.Unlock()
	if paused {
		return
	}

	r.setStatus(RefreshRunning, "")

	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	out := r.refresher.Refresh(ctx)
	if out.OK {
		r.setStatus(RefreshIdle, "")
	} else {
		r.setStatus(RefreshError, out.Message)
	}

	r.sendResult(RefreshResultMsg{Outcome: out, At: r.now()})
}

func (r *Reconciler) setStatus(state RefreshState, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.status.State = state
	r.status.Message = msg
	if state == RefreshIdle {
		r.status.LastRefresh = r.now()
	}
}

// sendResult sends a RefreshResultMsg without blocking.
func (r *Reconciler) sendResult(msg RefreshResultMsg) {
	select {
	case r.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the loop
	}
}

func (r *Reconciler) waitForResult() tea.Cmd {
	return func() tea.Msg {
		select {
		case result := <-r.resultCh:
			return result
		case <-r.stopCh:
			return nil
		}
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next refresh
// result. Call it after handling a RefreshResultMsg to keep listening.
func (r *Reconciler) WaitForNextResult() tea.Cmd {
	return r.waitForResult()
}
