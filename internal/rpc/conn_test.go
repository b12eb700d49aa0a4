package rpc

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// pipePair wires two Conns together over in-memory pipes, as if one
// were the editor and the other the server.
func pipePair() (*Conn, *Conn) {
	aR, bW := io.Pipe()
	bR, aW := io.Pipe()
	return NewConn(NewCodec(aR, aW), nil), NewConn(NewCodec(bR, bW), nil)
}

func TestCallReceivesResultFromPeerHandler(t *testing.T) {
	client, server := pipePair()
	server.handler = HandlerFunc(func(ctx context.Context, id string, method string, params json.RawMessage) (interface{}, error) {
		require.Equal(t, "ping", method)
		return map[string]string{"pong": "ok"}, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go server.Serve(ctx)

	result, err := client.Call(ctx, "ping", map[string]string{})
	require.NoError(t, err)
	require.JSONEq(t, `{"pong":"ok"}`, string(result))
}

func TestCallPropagatesHandlerErrorAsResponseError(t *testing.T) {
	client, server := pipePair()
	server.handler = HandlerFunc(func(ctx context.Context, id string, method string, params json.RawMessage) (interface{}, error) {
		return nil, &ResponseError{Code: MethodNotFound, Message: "no such method"}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go server.Serve(ctx)

	_, err := client.Call(ctx, "bogus", nil)
	require.Error(t, err)
	re, ok := err.(*ResponseError)
	require.True(t, ok)
	require.Equal(t, MethodNotFound, re.Code)
}

func TestNotifyDeliversToHandlerWithNoReply(t *testing.T) {
	client, server := pipePair()
	received := make(chan string, 1)
	server.handler = HandlerFunc(func(ctx context.Context, id string, method string, params json.RawMessage) (interface{}, error) {
		received <- method
		return nil, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go server.Serve(ctx)

	require.NoError(t, client.Notify("did-open", map[string]string{"uri": "/a.swift"}))

	select {
	case method := <-received:
		require.Equal(t, "did-open", method)
	case <-time.After(2 * time.Second):
		t.Fatal("notification never delivered")
	}
}

func TestCallUnblocksOnContextCancellation(t *testing.T) {
	client, server := pipePair()
	block := make(chan struct{})
	server.handler = HandlerFunc(func(ctx context.Context, id string, method string, params json.RawMessage) (interface{}, error) {
		<-block
		return nil, nil
	})
	defer close(block)

	serveCtx, cancelServe := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancelServe()
	go server.Serve(serveCtx)

	callCtx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Call(callCtx, "slow", nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
