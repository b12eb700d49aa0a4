package lspcore

import (
	"context"

	"codenerd/internal/document"
	"codenerd/internal/logging"
)

// FileHandlingCapabilityChanged implements buildsystem.ChangeNotifier:
// a source file appeared or disappeared, or a compilation database
// appeared, changed, or disappeared, which can
// change which workspace owns a URI, so the routing cache must be
// dropped (spec §4.3's invalidation rule).
func (s *Server) FileHandlingCapabilityChanged() {
	s.workspaces.InvalidateCache()
}

// FileBuildSettingsChanged implements buildsystem.ChangeNotifier,
// forwarding to every open URI's current adapter (spec §4.5's
// out-of-band hook). Best-effort: an adapter error is logged, not
// surfaced, since no single editor request is waiting on this event.
func (s *Server) FileBuildSettingsChanged(uris []string) {
	ctx := context.Background()
	for _, u := range uris {
		adapter, err := s.adapterFor(ctx, document.URI(u))
		if err != nil {
			continue
		}
		if err := adapter.DocumentUpdatedBuildSettings(ctx, document.URI(u)); err != nil {
			logging.Get(logging.CategoryBuildsystem).Warn("build settings update for %s failed: %v", u, err)
		}
	}
}

// FilesDependenciesUpdated implements buildsystem.ChangeNotifier for
// manifest changes (spec §4.5's out-of-band hook), grouping by adapter
// so each adapter sees one batched call rather than one per URI.
func (s *Server) FilesDependenciesUpdated(uris []string) {
	ctx := context.Background()
	byAdapter := make(map[interface {
		DocumentDependenciesUpdated(ctx context.Context, uris []document.URI) error
	}][]document.URI)

	for _, u := range uris {
		adapter, err := s.adapterFor(ctx, document.URI(u))
		if err != nil {
			continue
		}
		byAdapter[adapter] = append(byAdapter[adapter], document.URI(u))
	}
	for adapter, batch := range byAdapter {
		if err := adapter.DocumentDependenciesUpdated(ctx, batch); err != nil {
			logging.Get(logging.CategoryBuildsystem).Warn("dependencies-updated notification failed: %v", err)
		}
	}
}
