package backend

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codenerd/internal/payload"
)

type echoHandler struct{}

func (echoHandler) Handle(ctx context.Context, req payload.Value) (payload.Value, error) {
	return req, nil
}

func TestInProcessChannelSendEchoesRequest(t *testing.T) {
	ch := NewChannel(NewInProcessTransport(echoHandler{}))
	defer ch.Close()

	req := payload.String("ping")
	resp, handle, err := ch.Send(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, req, resp)
	assert.NotEqual(t, uint64(0), handle.id)
}

func TestInProcessChannelNeverCrashes(t *testing.T) {
	ch := NewChannel(NewInProcessTransport(echoHandler{}))
	defer ch.Close()

	select {
	case <-ch.Crashed():
		t.Fatal("in-process channel should not report a crash")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	ch := NewChannel(NewInProcessTransport(echoHandler{}))
	defer ch.Close()

	_, handle, err := ch.Send(context.Background(), payload.Int(1))
	require.NoError(t, err)

	ch.Cancel(handle)
	ch.Cancel(handle) // must not panic
}
