package backend

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"codenerd/internal/logging"
	"codenerd/internal/payload"
)

// Channel is the public backend channel (C4): it owns a Transport,
// assigns request ids, and republishes crash events as a fan-out
// notification so multiple registry goroutines can observe a single
// crash.
type Channel struct {
	transport Transport
	nextID    atomic.Uint64

	crashNotify chan struct{}
	crashOnce   sync.Once
}

// NewChannel wraps transport. It starts a goroutine that republishes
// the transport's single-shot crash signal onto crashNotify, which
// Close tears down along with the transport (mirrors the teacher's
// StdioTransport.Disconnect ordering).
func NewChannel(transport Transport) *Channel {
	c := &Channel{
		transport:   transport,
		crashNotify: make(chan struct{}),
	}
	go func() {
		<-transport.Crashed()
		c.crashOnce.Do(func() { close(c.crashNotify) })
		logging.Get(logging.CategoryBackend).Warn("backend channel detected crash")
	}()
	return c
}

// Send implements spec §4.4's send(request) -> response, returning a
// RequestHandle the caller can later pass to Cancel. The handle carries
// a uuid alongside the transport's internal id so it remains a useful,
// loggable correlation token even across a channel restart that resets
// the internal id sequence (spec §3's in-flight request record).
func (c *Channel) Send(ctx context.Context, req payload.Value) (payload.Value, RequestHandle, error) {
	id := c.nextID.Add(1)
	handle := RequestHandle{id: id, external: uuid.New()}

	resp, err := c.transport.Send(ctx, id, req)
	return resp, handle, err
}

// SendNotification implements spec §4.4's fire-and-forget notification.
func (c *Channel) SendNotification(ctx context.Context, notif payload.Value) error {
	return c.transport.SendNotification(ctx, notif)
}

// Cancel implements spec §4.4's cancel(request-handle); idempotent,
// safe to call after the reply already arrived.
func (c *Channel) Cancel(handle RequestHandle) {
	c.transport.Cancel(handle.id)
}

// Crashed returns a channel that closes exactly once when the backing
// transport reports a crash.
func (c *Channel) Crashed() <-chan struct{} { return c.crashNotify }

// Close tears down the channel's transport.
func (c *Channel) Close() error { return c.transport.Close() }
