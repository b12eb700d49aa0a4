package lspcore

import (
	"context"

	"codenerd/internal/progress"
	"codenerd/internal/rpc"
)

// connProgressClient adapts an rpc.Conn to progress.ClientProgress:
// create-work-done-progress is a client-bound request (spec §5/§6),
// begin/end are $/progress notifications carrying the token.
type connProgressClient struct {
	conn  *rpc.Conn
	token string
}

func (c *connProgressClient) CreateWorkDoneProgress(ctx context.Context) error {
	_, err := c.conn.Call(ctx, "window/workDoneProgress/create", map[string]string{"token": c.token})
	return err
}

func (c *connProgressClient) Begin(ctx context.Context, title string) {
	_ = c.conn.Notify("$/progress", map[string]interface{}{
		"token": c.token,
		"value": map[string]string{"kind": "begin", "title": title},
	})
}

func (c *connProgressClient) End(ctx context.Context) {
	_ = c.conn.Notify("$/progress", map[string]interface{}{
		"token": c.token,
		"value": map[string]string{"kind": "end"},
	})
}

// progressFor returns the tracker for title, creating one bound to the
// attached connection on first use. Returns nil if no connection has
// been attached yet (e.g. during tests that drive handlers directly) —
// callers must treat a nil tracker as "skip progress reporting",
// mirroring spec §7's policy that progress creation is best-effort.
func (s *Server) progressFor(title string) *progress.Tracker {
	if s.conn == nil {
		return nil
	}
	s.progressMu.Lock()
	defer s.progressMu.Unlock()
	if t, ok := s.progress[title]; ok {
		return t
	}
	t := progress.NewTracker(&connProgressClient{conn: s.conn, token: title}, title)
	s.progress[title] = t
	return t
}
