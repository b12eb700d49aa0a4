package progress

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordingClient struct {
	mu          sync.Mutex
	createErr   error
	createCalls int
	begins      []string
	ends        int
	block       chan struct{} // if non-nil, CreateWorkDoneProgress waits on it
}

func (c *recordingClient) CreateWorkDoneProgress(ctx context.Context) error {
	c.mu.Lock()
	c.createCalls++
	block := c.block
	c.mu.Unlock()
	if block != nil {
		<-block
	}
	return c.createErr
}

func (c *recordingClient) Begin(ctx context.Context, title string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.begins = append(c.begins, title)
}

func (c *recordingClient) End(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ends++
}

func (c *recordingClient) snapshot() (creates int, begins []string, ends int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.createCalls, append([]string(nil), c.begins...), c.ends
}

func TestStartEndHappyPathEmitsBeginThenEnd(t *testing.T) {
	client := &recordingClient{}
	tr := NewTracker(client, "Indexing")

	tr.Start(context.Background())
	require.Equal(t, Created, tr.State())

	tr.End(context.Background())
	require.Equal(t, NoProgress, tr.State())

	creates, begins, ends := client.snapshot()
	require.Equal(t, 1, creates)
	require.Equal(t, []string{"Indexing"}, begins)
	require.Equal(t, 1, ends)
}

func TestOverlappingStartsOnlyCreateOnce(t *testing.T) {
	client := &recordingClient{}
	tr := NewTracker(client, "Indexing")

	tr.Start(context.Background())
	tr.Start(context.Background())
	require.Equal(t, Created, tr.State())

	tr.End(context.Background())
	require.Equal(t, Created, tr.State()) // one task still active
	tr.End(context.Background())
	require.Equal(t, NoProgress, tr.State())

	creates, begins, ends := client.snapshot()
	require.Equal(t, 1, creates)
	require.Len(t, begins, 1)
	require.Equal(t, 1, ends)
}

func TestCounterReachingZeroDuringCreationEmitsEndImmediately(t *testing.T) {
	client := &recordingClient{block: make(chan struct{})}
	tr := NewTracker(client, "Indexing")

	done := make(chan struct{})
	go func() {
		tr.Start(context.Background())
		close(done)
	}()

	// Wait until Start has entered CreateWorkDoneProgress (state Creating).
	require.Eventually(t, func() bool { return tr.State() == Creating }, 2*time.Second, 5*time.Millisecond)
	tr.End(context.Background()) // counter drops to 0 while still creating
	close(client.block)          // let creation complete
	<-done

	require.Equal(t, NoProgress, tr.State())
	_, _, ends := client.snapshot()
	require.Equal(t, 1, ends)
}

func TestFailureSticksAndBlocksFurtherProgress(t *testing.T) {
	client := &recordingClient{createErr: context.DeadlineExceeded}
	tr := NewTracker(client, "Indexing")

	tr.Start(context.Background())
	require.Equal(t, Failed, tr.State())

	tr.End(context.Background())
	require.Equal(t, Failed, tr.State())

	_, begins, ends := client.snapshot()
	require.Empty(t, begins)
	require.Equal(t, 0, ends)
}
