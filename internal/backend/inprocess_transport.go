package backend

import (
	"context"
	"sync"

	"codenerd/internal/payload"
)

// InProcessHandler answers a single request payload synchronously. It
// is what an in-process adapter (the fakeadapter demonstrator) exposes
// to avoid a subprocess round trip.
type InProcessHandler interface {
	Handle(ctx context.Context, req payload.Value) (payload.Value, error)
}

// InProcessTransport implements Transport by calling a handler
// directly, with no subprocess. Used by the backend tests; `serve
// --inprocess` builds the fakeadapter directly and does not go through
// a Transport.
type InProcessTransport struct {
	mu      sync.Mutex
	handler InProcessHandler
	crashed chan struct{}
}

// NewInProcessTransport wraps handler.
func NewInProcessTransport(handler InProcessHandler) *InProcessTransport {
	return &InProcessTransport{handler: handler, crashed: make(chan struct{})}
}

// Send implements Transport.
func (t *InProcessTransport) Send(ctx context.Context, id uint64, req payload.Value) (payload.Value, error) {
	return t.handler.Handle(ctx, req)
}

// SendNotification implements Transport.
func (t *InProcessTransport) SendNotification(ctx context.Context, notif payload.Value) error {
	_, err := t.handler.Handle(ctx, notif)
	return err
}

// Cancel implements Transport. The in-process handler runs
// synchronously on the caller's goroutine, so there is nothing to
// interrupt; Cancel is a documented no-op.
func (t *InProcessTransport) Cancel(id uint64) {}

// Crashed implements Transport. An in-process handler cannot crash
// independently of its caller, so this channel never closes.
func (t *InProcessTransport) Crashed() <-chan struct{} { return t.crashed }

// Close implements Transport.
func (t *InProcessTransport) Close() error { return nil }
