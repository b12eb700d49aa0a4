package capabilities

import "sync"

// Registration is one adapter's dynamic capability contribution, per
// spec §4.6 step 5 ("register dynamic capabilities derived from the
// adapter's reported server capabilities"). Keyed by adapter id so a
// crash-and-recreate cycle (spec §4.6 crash recovery) cleanly replaces
// a stale registration rather than accumulating duplicates.
type Registration struct {
	AdapterID        string
	CompletionTriggers []string
	ExecuteCommands  []string
	CallHierarchy    bool
	TypeHierarchy    bool
}

// Registry merges the static capability set with every currently
// registered adapter's dynamic contribution.
type Registry struct {
	mu            sync.RWMutex
	registrations map[string]Registration
}

// NewRegistry returns an empty dynamic-capability registry.
func NewRegistry() *Registry {
	return &Registry{registrations: make(map[string]Registration)}
}

// Register installs or replaces adapterID's dynamic registration.
func (r *Registry) Register(reg Registration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registrations[reg.AdapterID] = reg
}

// Unregister removes adapterID's dynamic registration, for adapter
// shutdown or crash.
func (r *Registry) Unregister(adapterID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.registrations, adapterID)
}

// Merged returns the static capability set with every live
// registration's contributions folded in: completion trigger
// characters and execute-command names are unioned and deduplicated
// across every adapter (spec §6: "commands list is backend-dependent").
func (r *Registry) Merged() ServerCapabilities {
	caps := Static()

	r.mu.RLock()
	defer r.mu.RUnlock()

	var triggers, commands []string
	triggers = append(triggers, caps.Completion.TriggerCharacters...)
	anyCallHierarchy, anyTypeHierarchy := caps.CallHierarchy, caps.TypeHierarchy

	for _, reg := range r.registrations {
		triggers = append(triggers, reg.CompletionTriggers...)
		commands = append(commands, reg.ExecuteCommands...)
		anyCallHierarchy = anyCallHierarchy || reg.CallHierarchy
		anyTypeHierarchy = anyTypeHierarchy || reg.TypeHierarchy
	}

	caps.Completion = &CompletionOptions{TriggerCharacters: dedupeSorted(triggers)}
	caps.ExecuteCommand = &ExecuteCommandOptions{Commands: dedupeSorted(commands)}
	caps.CallHierarchy = anyCallHierarchy
	caps.TypeHierarchy = anyTypeHierarchy
	return caps
}
