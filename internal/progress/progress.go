// Package progress implements work-done progress accounting (C10): a
// debounced active-task counter that emits begin/end exactly once per
// busy period, per spec.md §4.9.
//
// Grounded on the teacher's debounced-counter idiom in
// internal/mcp/analyzer.go's request-latency accounting (an atomic
// counter gating a single create/report/end emission), generalized to
// the four-state machine spec §4.9 names.
package progress

import (
	"context"
	"sync"

	"codenerd/internal/logging"
)

// State is one of the four states a progress object can be in.
type State int

const (
	NoProgress State = iota
	Creating
	Created
	Failed
)

// ClientProgress is the client-side primitive the tracker drives:
// creating a work-done progress token and emitting begin/end against
// it, per spec §6's "client-side requests" (create-work-done-progress).
type ClientProgress interface {
	CreateWorkDoneProgress(ctx context.Context) error
	Begin(ctx context.Context, title string)
	End(ctx context.Context)
}

// Tracker implements spec §4.9's counter state machine. One Tracker
// instance corresponds to one progress token; the server
// (lspcore.Server.progressFor) keeps one per operation title it reports.
type Tracker struct {
	mu     sync.Mutex
	state  State
	active int
	client ClientProgress
	title  string
}

// NewTracker returns a tracker in state no-progress with zero active
// tasks.
func NewTracker(client ClientProgress, title string) *Tracker {
	return &Tracker{client: client, title: title}
}

// State reports the tracker's current state, for tests and logging.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Start increments the active-task counter. On a 0->1 transition it
// issues create-work-done-progress and, on success, emits begin. If
// the counter has already returned to 0 by the time creation
// completes, end is emitted immediately instead — the busy period
// closed before the client even learned it opened.
func (t *Tracker) Start(ctx context.Context) {
	t.mu.Lock()
	t.active++
	first := t.active == 1 && t.state == NoProgress
	if !first {
		t.mu.Unlock()
		return
	}
	t.state = Creating
	t.mu.Unlock()

	err := t.client.CreateWorkDoneProgress(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.state = Failed
		logging.Get(logging.CategoryProgress).Warn("progress: create-work-done-progress failed: %v", err)
		return
	}

	if t.active == 0 {
		// The busy period already ended while creation was in flight.
		t.state = Created
		t.client.End(ctx)
		t.state = NoProgress
		return
	}

	t.state = Created
	t.client.Begin(ctx, t.title)
}

// End decrements the active-task counter. If it reaches 0 while in
// state created, end is emitted and the tracker returns to
// no-progress. Once failed, the tracker stays failed: no further
// progress requests are issued for this token (spec §4.9 "failure
// sticks").
func (t *Tracker) End(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active > 0 {
		t.active--
	}
	if t.active == 0 && t.state == Created {
		t.client.End(ctx)
		t.state = NoProgress
	}
}
