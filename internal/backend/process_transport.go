package backend

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"sync"

	"codenerd/internal/logging"
	"codenerd/internal/payload"
)

// envelopeKeys holds the interned map keys every wire envelope uses
// (id, method, params, result, error). They are interned into the
// transport's own Interner at construction, not obtained from the child
// process; the transport exposes no protocol-keyword table other than
// that Interner.
type envelopeKeys struct {
	id     payload.Ident
	method payload.Ident
	params payload.Ident
	result payload.Ident
	errKey payload.Ident
}

// ProcessTransport implements Transport over a child process's stdio,
// exchanging length-implicit payload.Value frames (spec §3.1 — each
// Decode call consumes exactly one node's worth of bytes, so no
// separate length prefix is needed).
//
// Grounded on the teacher's StdioTransport (internal/mcp/transport_stdio.go):
// a pending-request map keyed by id, a dedicated reader goroutine, and
// a WaitGroup that Close waits on for the reader and process-wait
// goroutines.
type ProcessTransport struct {
	mu sync.Mutex

	cmd    *exec.Cmd
	stdin  *bufio.Writer
	interner *payload.Interner
	keys   envelopeKeys

	pending map[uint64]chan payload.Value

	crashed chan struct{}
	closeCrashedOnce sync.Once
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewProcessTransport starts command with args and begins its reader
// loop. The caller must call Close to release resources.
func NewProcessTransport(ctx context.Context, command string, args []string) (*ProcessTransport, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("backend: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("backend: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("backend: start %s: %w", command, err)
	}

	interner := payload.NewInterner()
	t := &ProcessTransport{
		cmd:      cmd,
		stdin:    bufio.NewWriter(stdin),
		interner: interner,
		keys: envelopeKeys{
			id:     interner.Intern("id"),
			method: interner.Intern("method"),
			params: interner.Intern("params"),
			result: interner.Intern("result"),
			errKey: interner.Intern("error"),
		},
		pending: make(map[uint64]chan payload.Value),
		crashed: make(chan struct{}),
		done:    make(chan struct{}),
	}

	t.wg.Add(2)
	go t.readLoop(bufio.NewReader(stdout))
	go t.waitLoop()
	return t, nil
}

// Interner exposes the channel's interner for callers that need to
// build request payloads using the same Ident space.
func (t *ProcessTransport) Interner() *payload.Interner { return t.interner }

func (t *ProcessTransport) readLoop(r *bufio.Reader) {
	defer t.wg.Done()
	log := logging.Get(logging.CategoryBackend)
	for {
		v, err := payload.Decode(r)
		if err != nil {
			log.Debug("backend reader loop ended: %v", err)
			return
		}
		m, ok := v.Map()
		if !ok {
			log.Warn("backend sent a non-map frame, ignoring")
			continue
		}
		idVal, ok := m[t.keys.id]
		if !ok {
			log.Debug("backend notification ignored: %s", v.GoString())
			continue
		}
		id, ok := idVal.Int()
		if !ok {
			continue
		}
		t.mu.Lock()
		ch, ok := t.pending[uint64(id)]
		if ok {
			delete(t.pending, uint64(id))
		}
		t.mu.Unlock()
		if ok {
			ch <- v
		} else {
			log.Warn("backend response for unknown id %d", id)
		}
	}
}

func (t *ProcessTransport) waitLoop() {
	defer t.wg.Done()
	_ = t.cmd.Wait()
	t.closeCrashedOnce.Do(func() { close(t.crashed) })
}

// Send implements Transport.
func (t *ProcessTransport) Send(ctx context.Context, id uint64, req payload.Value) (payload.Value, error) {
	ch := make(chan payload.Value, 1)
	t.mu.Lock()
	t.pending[id] = ch
	err := t.writeLocked(req)
	t.mu.Unlock()
	if err != nil {
		t.mu.Lock()
		delete(t.pending, id)
		t.mu.Unlock()
		return payload.Value{}, err
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return payload.Value{}, fmt.Errorf("backend: request %d cancelled", id)
		}
		return resp, nil
	case <-ctx.Done():
		t.mu.Lock()
		delete(t.pending, id)
		t.mu.Unlock()
		return payload.Value{}, ctx.Err()
	case <-t.crashed:
		return payload.Value{}, fmt.Errorf("backend: process crashed while awaiting id %d", id)
	}
}

// SendNotification implements Transport.
func (t *ProcessTransport) SendNotification(ctx context.Context, notif payload.Value) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.writeLocked(notif)
}

func (t *ProcessTransport) writeLocked(v payload.Value) error {
	if err := payload.Encode(t.stdin, v); err != nil {
		return fmt.Errorf("backend: encode: %w", err)
	}
	return t.stdin.Flush()
}

// Cancel implements Transport. It is idempotent: if the request already
// replied, the pending entry is gone and Cancel is a no-op.
func (t *ProcessTransport) Cancel(id uint64) {
	t.mu.Lock()
	ch, ok := t.pending[id]
	if ok {
		delete(t.pending, id)
	}
	t.mu.Unlock()
	if ok {
		close(ch)
	}
}

// Crashed implements Transport.
func (t *ProcessTransport) Crashed() <-chan struct{} { return t.crashed }

// Close implements Transport.
func (t *ProcessTransport) Close() error {
	if t.cmd.Process != nil {
		_ = t.cmd.Process.Kill()
	}
	close(t.done)
	t.wg.Wait()
	return nil
}
