// Package workspace implements the workspace registry (C3): an ordered
// set of workspaces and URI-to-workspace routing with capability
// scoring and an invalidatable cache.
//
// Grounded on the teacher's internal/world registry pattern (an
// ordered, insertion-order-stable collection consulted by capability)
// generalized to the routing policy of spec §4.3.
package workspace

import (
	"sync"

	"codenerd/internal/logging"
)

// FileHandlingCapability ranks how well a workspace's build system can
// service a URI. Larger values win; ties break by insertion order.
type FileHandlingCapability int

const (
	Unhandled FileHandlingCapability = iota
	Fallback
	Handled
)

// BuildSystem is the external collaborator interface from spec §6.
type BuildSystem interface {
	FileHandlingCapability(uri string) FileHandlingCapability
}

// Workspace is (root URI, capability registry reference, build-system
// reference, optional index handle, document-service table), per spec
// §3. The document-service table and capability registry are injected
// as opaque handles owned elsewhere (C6, C11); this package only needs
// enough of Workspace to route and to key C6's adapter table.
type Workspace struct {
	Root        string
	BuildSystem BuildSystem
	Index       interface{} // nil if the workspace has no index handle
}

// Registry is the ordered workspace list plus routing cache (C3).
type Registry struct {
	mu         sync.RWMutex
	workspaces []*Workspace
	cache      map[string]*Workspace
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{cache: make(map[string]*Workspace)}
}

// Add appends a workspace, clearing the routing cache (spec §4.3
// invalidation rule).
func (r *Registry) Add(ws *Workspace) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workspaces = append(r.workspaces, ws)
	r.cache = make(map[string]*Workspace)
	logging.Get(logging.CategoryWorkspace).Info("workspace added: %s", ws.Root)
}

// Remove deletes a workspace by root URI, clearing the routing cache.
func (r *Registry) Remove(root string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, ws := range r.workspaces {
		if ws.Root == root {
			r.workspaces = append(r.workspaces[:i], r.workspaces[i+1:]...)
			break
		}
	}
	r.cache = make(map[string]*Workspace)
	logging.Get(logging.CategoryWorkspace).Info("workspace removed: %s", root)
}

// InvalidateCache clears the URI routing cache without changing the
// workspace list, for file-handling-capability-changed notifications.
func (r *Registry) InvalidateCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]*Workspace)
}

// All returns every registered workspace, in insertion order.
func (r *Registry) All() []*Workspace {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Workspace, len(r.workspaces))
	copy(out, r.workspaces)
	return out
}

// WorkspaceFor implements spec §4.3's routing policy.
func (r *Registry) WorkspaceFor(uri string) (*Workspace, bool) {
	r.mu.RLock()
	if len(r.workspaces) == 1 {
		ws := r.workspaces[0]
		r.mu.RUnlock()
		return ws, true
	}
	if len(r.workspaces) == 0 {
		r.mu.RUnlock()
		return nil, false
	}
	if ws, ok := r.cache[uri]; ok {
		r.mu.RUnlock()
		return ws, true
	}
	workspaces := make([]*Workspace, len(r.workspaces))
	copy(workspaces, r.workspaces)
	r.mu.RUnlock()

	best := -1
	var bestWS *Workspace
	for _, ws := range workspaces {
		cap := Unhandled
		if ws.BuildSystem != nil {
			cap = ws.BuildSystem.FileHandlingCapability(uri)
		}
		if int(cap) > best {
			best = int(cap)
			bestWS = ws
		}
	}
	if bestWS == nil || best == int(Unhandled) {
		return nil, false
	}

	r.mu.Lock()
	r.cache[uri] = bestWS
	r.mu.Unlock()
	logging.Get(logging.CategoryWorkspace).Debug("routed %s -> %s (capability=%d)", uri, bestWS.Root, best)
	return bestWS, true
}
