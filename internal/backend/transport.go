// Package backend implements the backend channel (C4): one channel
// wraps one child process (or an in-process stand-in), serializes
// writes, demultiplexes reads by request id, and reports crashes.
//
// Grounded on the teacher's internal/mcp/transport_stdio.go
// (StdioTransport): a pending-request map keyed by request id, a
// reader goroutine draining stdout, and a done channel gating
// Disconnect's wg.Wait(). Generalized from line-delimited JSON to
// self-delimiting binary payload.Value frames with no length prefix
// (spec §3.1), and
// split into a Transport interface with two implementations
// (ProcessTransport, InProcessTransport) per SPEC_FULL.md §4.4.
package backend

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"codenerd/internal/payload"
)

// RequestHandle identifies one outstanding request. Channels hand these
// to callers instead of raw ids so cancel() cannot be confused across
// channel restarts. external is a uuid so handles remain comparable and
// loggable independent of the transport's internal id space.
type RequestHandle struct {
	id       uint64
	external uuid.UUID
}

// Transport is the wire-level contract a backend channel is built on.
// ProcessTransport implements it over a child process's stdio;
// InProcessTransport implements it by calling an InProcessHandler
// directly, with no subprocess at all.
type Transport interface {
	// Send writes a framed request and blocks until its response frame
	// arrives or ctx is cancelled.
	Send(ctx context.Context, id uint64, req payload.Value) (payload.Value, error)
	// SendNotification writes a framed message with no id and does not
	// wait for a reply.
	SendNotification(ctx context.Context, notif payload.Value) error
	// Cancel best-effort interrupts an outstanding request; idempotent,
	// safe to call after the response already arrived.
	Cancel(id uint64)
	// Crashed returns a channel that is closed (once) when the
	// transport's backing process exits unexpectedly.
	Crashed() <-chan struct{}
	// Close tears down the transport, releasing its resources.
	Close() error
}

// ErrNotConnected reports a transport with no live backing process.
// Neither transport in this package returns it: ProcessTransport.Send
// reports a crash with its own error, and a write to an exited process
// fails with the underlying pipe error.
var ErrNotConnected = fmt.Errorf("backend: transport not connected")
