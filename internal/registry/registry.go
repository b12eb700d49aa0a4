// Package registry implements the service registry & lifecycle (C6):
// at most one adapter per (backend kind, workspace), created on first
// use, crash-recovered by replaying open against a fresh adapter.
//
// Grounded on the teacher's internal/world/lsp manager (one LSP client
// per workspace, lazily started) and internal/mcp/client.go's
// Connect-then-GetCapabilities handshake ordering, generalized to the
// "create, check again, maybe discard" race in spec §4.6 step 4.
package registry

import (
	"context"
	"fmt"
	"sync"

	"codenerd/internal/document"
	"codenerd/internal/logging"
	"codenerd/internal/service"
)

// AdapterFactory constructs a fresh adapter of kind for a workspace
// rooted at root, servicing language. It performs the LSP initialize
// handshake itself (spec §4.6 step 2) and returns once the adapter is
// ready, or an error if text-document-sync=incremental isn't reported.
type AdapterFactory func(ctx context.Context, kind service.BackendKind, root, language string) (service.Adapter, error)

type key struct {
	kind service.BackendKind
	root string
}

// CrashHandler is notified after a crashed adapter has been forgotten
// and its open documents unrouted (spec §4.6 steps 1-3); it receives
// the URIs the caller must now replay (close-then-reopen) against a
// freshly created adapter (step 4, via the next Get).
type CrashHandler func(root string, affected []document.URI)

// Registry owns the (kind, workspace) -> adapter table for every
// workspace it is asked about.
type Registry struct {
	factory AdapterFactory

	mu       sync.Mutex
	adapters map[key]service.Adapter

	// docRouting records, per workspace root, which adapter currently
	// owns each open URI — needed for crash recovery's document replay
	// (spec §4.6).
	docRouting map[string]map[document.URI]service.Adapter

	onCrash CrashHandler
}

// New returns a registry that creates adapters via factory.
func New(factory AdapterFactory) *Registry {
	return &Registry{
		factory:    factory,
		adapters:   make(map[key]service.Adapter),
		docRouting: make(map[string]map[document.URI]service.Adapter),
	}
}

// SetCrashHandler installs the callback ReplayOnCrash's result is
// forwarded to whenever a crash is detected automatically (as opposed
// to a test calling ReplayOnCrash directly). Call before any adapter
// that might implement service.CrashObserver is created.
func (r *Registry) SetCrashHandler(h CrashHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onCrash = h
}

// Get returns the adapter for (kind, workspace root), creating one if
// none exists yet. Implements spec §4.6 steps 1-4: pick the toolchain
// is the caller's job (it supplies kind already resolved via
// config.Config.ToolchainFor); this method only handles the
// create-once-per-pair race.
func (r *Registry) Get(ctx context.Context, kind service.BackendKind, root, language string) (service.Adapter, error) {
	k := key{kind: kind, root: root}

	r.mu.Lock()
	if a, ok := r.adapters[k]; ok {
		r.mu.Unlock()
		return a, nil
	}
	r.mu.Unlock()

	// Adapter creation suspends (handshake round trip); do it without
	// holding the lock, then check again per step 4.
	created, err := r.factory(ctx, kind, root, language)
	if err != nil {
		return nil, fmt.Errorf("registry: create adapter %s/%s: %w", kind, root, err)
	}

	r.mu.Lock()
	if existing, ok := r.adapters[k]; ok {
		r.mu.Unlock()
		logging.Get(logging.CategoryRegistry).Debug("discarding redundant adapter for %s/%s", kind, root)
		_ = created.Shutdown(ctx)
		return existing, nil
	}
	r.adapters[k] = created
	if r.docRouting[root] == nil {
		r.docRouting[root] = make(map[document.URI]service.Adapter)
	}
	r.mu.Unlock()

	logging.Get(logging.CategoryRegistry).Info("created adapter %s for workspace %s", kind, root)
	if co, ok := created.(service.CrashObserver); ok {
		go r.watchCrash(root, created, co)
	}
	return created, nil
}

// watchCrash blocks until adapter's backend reports a crash, then runs
// the same replay ReplayOnCrash's callers (tests, today) drive by
// hand, and forwards the affected URIs to the installed CrashHandler,
// if any, so a live server actually reopens them against a freshly
// created adapter (spec §4.6 step 4) instead of leaving the editor
// stuck against a dead one.
func (r *Registry) watchCrash(root string, adapter service.Adapter, co service.CrashObserver) {
	<-co.Crashed()
	affected := r.ReplayOnCrash(root, adapter)

	r.mu.Lock()
	handler := r.onCrash
	r.mu.Unlock()
	if handler != nil {
		handler(root, affected)
	}
}

// RouteDocument records that uri is now serviced by adapter within
// workspace root, for crash recovery's routing table.
func (r *Registry) RouteDocument(root string, uri document.URI, adapter service.Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.docRouting[root] == nil {
		r.docRouting[root] = make(map[document.URI]service.Adapter)
	}
	r.docRouting[root][uri] = adapter
}

// UnrouteDocument removes uri from the routing table, on document close.
func (r *Registry) UnrouteDocument(root string, uri document.URI) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.docRouting[root]; ok {
		delete(m, uri)
	}
}

// ReplayOnCrash implements spec §4.6's crash recovery: it walks root's
// document-service table, finds every URI routed to crashed, removes
// the crashed adapter from the registry, and returns those URIs'
// snapshots so the caller can close-then-reopen them against a freshly
// created adapter (created lazily by the next Get call).
func (r *Registry) ReplayOnCrash(root string, crashed service.Adapter) []document.URI {
	r.mu.Lock()
	defer r.mu.Unlock()

	var affected []document.URI
	for k, a := range r.adapters {
		if k.root == root && a == crashed {
			delete(r.adapters, k)
		}
	}
	for uri, a := range r.docRouting[root] {
		if a == crashed {
			affected = append(affected, uri)
			delete(r.docRouting[root], uri)
		}
	}
	logging.Get(logging.CategoryRegistry).Warn("adapter crash in workspace %s affects %d open documents", root, len(affected))
	return affected
}

// All returns every live adapter, for shutdown ordering.
func (r *Registry) All() []service.Adapter {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]service.Adapter, 0, len(r.adapters))
	for _, a := range r.adapters {
		out = append(out, a)
	}
	return out
}
