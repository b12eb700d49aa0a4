// Package scheduler implements the message scheduler (C7): a
// dependency-aware queue of notifications and requests, with a
// separate cancellation lane that never blocks behind the regular
// queue.
//
// Grounded on the teacher's use of golang.org/x/sync/errgroup and
// semaphore for bounded concurrent work elsewhere in the pack, and on
// spec §9's guidance to track per-URI ordering with a head-of-queue
// pointer (uriGate) rather than a lock per URI.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"codenerd/internal/document"
	"codenerd/internal/logging"
)

// Tag is one of the four dependency classes spec §4.1 derives from a
// message's method.
type Tag int

const (
	GlobalConfig Tag = iota
	DocumentUpdate
	DocumentRequest
	Freestanding
)

// Task is one scheduled unit of work.
type Task struct {
	ID  string
	Tag Tag
	URI document.URI // required for DocumentUpdate/DocumentRequest
	Run func(ctx context.Context) error
}

// Scheduler dispatches Tasks honoring the dependency relation of spec
// §4.1 and runs them on a bounded worker pool.
type Scheduler struct {
	globalMu sync.RWMutex // Lock held by GlobalConfig; RLock by everything else

	gatesMu sync.Mutex
	gates   map[document.URI]*uriGate

	sem *semaphore.Weighted
	eg  *errgroup.Group
	ctx context.Context

	cancelMu     sync.Mutex
	handles      map[string]context.CancelFunc
	replied      map[string]bool
	preCancelled map[string]bool
}

// New returns a scheduler with concurrency workers in its pool.
func New(ctx context.Context, concurrency int64) *Scheduler {
	eg, egCtx := errgroup.WithContext(ctx)
	return &Scheduler{
		gates:        make(map[document.URI]*uriGate),
		sem:          semaphore.NewWeighted(concurrency),
		eg:           eg,
		ctx:          egCtx,
		handles:      make(map[string]context.CancelFunc),
		replied:      make(map[string]bool),
		preCancelled: make(map[string]bool),
	}
}

func (s *Scheduler) gateFor(uri document.URI) *uriGate {
	s.gatesMu.Lock()
	defer s.gatesMu.Unlock()
	g, ok := s.gates[uri]
	if !ok {
		g = newURIGate()
		s.gates[uri] = g
	}
	return g
}

// Schedule enqueues task. It blocks only until a worker slot is free;
// task.Run then executes asynchronously once admitted. The scheduler
// publishes the task's cancellation handle itself just before task.Run
// starts, so Cancel(task.ID) reaches the task from then on.
func (s *Scheduler) Schedule(task Task) error {
	if err := s.sem.Acquire(s.ctx, 1); err != nil {
		return fmt.Errorf("scheduler: acquire worker: %w", err)
	}

	s.eg.Go(func() error {
		defer s.sem.Release(1)
		defer s.markReplied(task.ID)

		log := logging.Get(logging.CategoryScheduler)

		switch task.Tag {
		case GlobalConfig:
			s.globalMu.Lock()
			defer s.globalMu.Unlock()
		default:
			s.globalMu.RLock()
			defer s.globalMu.RUnlock()
		}

		var gate *uriGate
		var tk *ticket
		if task.Tag == DocumentUpdate || task.Tag == DocumentRequest {
			gate = s.gateFor(task.URI)
			tk = gate.enter(task.Tag == DocumentUpdate)
			defer gate.leave(tk)
		}

		ctx, cancel := context.WithCancel(s.ctx)
		defer cancel()
		s.publishHandle(task.ID, cancel)

		log.Debug("running task %s tag=%d uri=%s", task.ID, task.Tag, task.URI)
		if err := task.Run(ctx); err != nil {
			log.Warn("task %s failed: %v", task.ID, err)
			return nil // a handler error does not abort the pool
		}
		return nil
	})
	return nil
}

// publishHandle installs the task's cancel func, honoring a cancel
// that raced ahead of publication (spec §4.1's cancellation-lane note).
func (s *Scheduler) publishHandle(id string, cancel context.CancelFunc) {
	s.cancelMu.Lock()
	defer s.cancelMu.Unlock()
	if s.preCancelled[id] {
		delete(s.preCancelled, id)
		cancel()
		return
	}
	s.handles[id] = cancel
}

func (s *Scheduler) markReplied(id string) {
	s.cancelMu.Lock()
	defer s.cancelMu.Unlock()
	delete(s.handles, id)
	s.replied[id] = true
}

// Cancel runs on the cancellation lane: it never waits on the regular
// queue. If the target's handle has not been published yet, the
// cancellation is recorded and honored as soon as the handle appears;
// if the target has already replied, it is dropped with a log entry.
func (s *Scheduler) Cancel(id string) {
	s.cancelMu.Lock()
	defer s.cancelMu.Unlock()

	if cancel, ok := s.handles[id]; ok {
		delete(s.handles, id)
		cancel()
		return
	}
	if s.replied[id] {
		logging.Get(logging.CategoryScheduler).Info("cancel for %s dropped: already replied", id)
		return
	}
	s.preCancelled[id] = true
}

// Wait blocks until every scheduled task has completed. Handler errors
// are logged rather than returned, so Wait returns nil; a handler panic
// is not recovered.
func (s *Scheduler) Wait() error {
	return s.eg.Wait()
}
