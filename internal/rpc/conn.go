package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"codenerd/internal/logging"
)

// Handler answers inbound requests and notifications. Request handlers
// return (result, error); a non-nil error is translated to a
// ResponseError by Conn. Notification handlers have no reply channel,
// so Handle's result is discarded for notifications. id is the
// request's wire id verbatim (as raw JSON bytes, e.g. "3" or "\"a\""),
// or "" for a notification — a scheduler-backed Handler uses it as the
// cancellation-lane key for $/cancelRequest (spec §4.1).
type Handler interface {
	Handle(ctx context.Context, id string, method string, params json.RawMessage) (result interface{}, err error)
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, id string, method string, params json.RawMessage) (interface{}, error)

func (f HandlerFunc) Handle(ctx context.Context, id string, method string, params json.RawMessage) (interface{}, error) {
	return f(ctx, id, method, params)
}

// Conn is one bidirectional JSON-RPC connection: it serves inbound
// calls against a Handler and also lets this process make
// server-initiated requests of its own (create-work-done-progress,
// register-capability, apply-edit, per spec §5's client-side request
// list).
type Conn struct {
	codec   *Codec
	handler Handler

	nextID  atomic.Int64
	pendMu  sync.Mutex
	pending map[string]chan *Message
}

// NewConn constructs a Conn over codec, dispatching inbound calls to
// handler.
func NewConn(codec *Codec, handler Handler) *Conn {
	return &Conn{codec: codec, handler: handler, pending: make(map[string]chan *Message)}
}

// Serve reads messages until the codec returns an error (typically EOF
// on editor disconnect); ctx is handed to the handlers and does not
// stop the read loop. Every inbound request is
// dispatched to its own goroutine so a slow handler does not block the
// read loop; each goroutine calls straight into Handle; a
// scheduler-backed Handler (internal/lspcore.Server) is responsible
// for enforcing ordering and per-URI exclusivity (C7) itself before
// this call returns, since Conn only guarantees non-blocking dispatch,
// not ordering.
func (c *Conn) Serve(ctx context.Context) error {
	for {
		msg, err := c.codec.ReadMessage()
		if err != nil {
			return err
		}

		switch {
		case msg.IsResponse():
			c.deliver(msg)
		case msg.IsRequest():
			go c.handleRequest(ctx, msg)
		case msg.IsNotification():
			go c.handleNotification(ctx, msg)
		}
	}
}

func (c *Conn) deliver(msg *Message) {
	key := string(msg.ID)
	c.pendMu.Lock()
	ch, ok := c.pending[key]
	if ok {
		delete(c.pending, key)
	}
	c.pendMu.Unlock()
	if !ok {
		logging.Get(logging.CategoryBackend).Warn("rpc: response for unknown id %s", key)
		return
	}
	ch <- msg
}

func (c *Conn) handleRequest(ctx context.Context, msg *Message) {
	result, err := c.handler.Handle(ctx, string(msg.ID), msg.Method, msg.Params)
	reply := &Message{ID: msg.ID}
	if err != nil {
		reply.Error = toResponseError(err)
	} else {
		raw, merr := json.Marshal(result)
		if merr != nil {
			reply.Error = &ResponseError{Code: InternalError, Message: merr.Error()}
		} else {
			reply.Result = raw
		}
	}
	if werr := c.codec.WriteMessage(reply); werr != nil {
		logging.Get(logging.CategoryBackend).Error("rpc: writing reply to %s failed: %v", msg.Method, werr)
	}
}

func (c *Conn) handleNotification(ctx context.Context, msg *Message) {
	if _, err := c.handler.Handle(ctx, "", msg.Method, msg.Params); err != nil {
		logging.Get(logging.CategoryBackend).Warn("rpc: notification handler for %s failed: %v", msg.Method, err)
	}
}

func toResponseError(err error) *ResponseError {
	if re, ok := err.(*ResponseError); ok {
		return re
	}
	return &ResponseError{Code: InternalError, Message: err.Error()}
}

// Call issues a server-initiated request and blocks for its reply or
// ctx cancellation.
func (c *Conn) Call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	id := c.nextID.Add(1)
	idBytes, _ := json.Marshal(id)

	paramBytes, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("rpc: marshal params for %s: %w", method, err)
	}

	ch := make(chan *Message, 1)
	c.pendMu.Lock()
	c.pending[string(idBytes)] = ch
	c.pendMu.Unlock()

	if err := c.codec.WriteMessage(&Message{ID: idBytes, Method: method, Params: paramBytes}); err != nil {
		c.pendMu.Lock()
		delete(c.pending, string(idBytes))
		c.pendMu.Unlock()
		return nil, err
	}

	select {
	case resp := <-ch:
		if resp.Error != nil {
			return nil, resp.Error
		}
		return resp.Result, nil
	case <-ctx.Done():
		c.pendMu.Lock()
		delete(c.pending, string(idBytes))
		c.pendMu.Unlock()
		return nil, ctx.Err()
	}
}

// Notify sends a fire-and-forget notification to the editor.
func (c *Conn) Notify(method string, params interface{}) error {
	paramBytes, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("rpc: marshal params for %s: %w", method, err)
	}
	return c.codec.WriteMessage(&Message{Method: method, Params: paramBytes})
}
