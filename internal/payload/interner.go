package payload

import "sync"

// Ident is a small opaque handle into an Interner's table. Idents
// obtained from different Interner instances are not comparable.
type Ident uint32

// Interner assigns stable small integer handles to protocol keywords
// obtained from a backend (key names, request kinds, value kinds, as
// described in the Glossary). It is safe for concurrent use.
type Interner struct {
	mu      sync.RWMutex
	byName  map[string]Ident
	byIdent []string
}

// NewInterner returns an empty interner.
func NewInterner() *Interner {
	return &Interner{
		byName: make(map[string]Ident),
	}
}

// Intern returns the Ident for name, assigning a new one if name has
// not been seen before.
func (in *Interner) Intern(name string) Ident {
	in.mu.RLock()
	if id, ok := in.byName[name]; ok {
		in.mu.RUnlock()
		return id
	}
	in.mu.RUnlock()

	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.byName[name]; ok {
		return id
	}
	id := Ident(len(in.byIdent))
	in.byIdent = append(in.byIdent, name)
	in.byName[name] = id
	return id
}

// Lookup returns the Ident already assigned to name, if any.
func (in *Interner) Lookup(name string) (Ident, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	id, ok := in.byName[name]
	return id, ok
}

// Name returns the string an Ident was interned from. Panics if id was
// never produced by this Interner.
func (in *Interner) Name(id Ident) string {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if int(id) >= len(in.byIdent) {
		panic("payload: ident not from this interner")
	}
	return in.byIdent[id]
}

// Len reports how many distinct names have been interned.
func (in *Interner) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.byIdent)
}

// InternMany interns a batch of well-known keywords in order, useful
// for seeding an interner from a backend's reported keyword table at
// channel initialization (§4.4).
func (in *Interner) InternMany(names []string) []Ident {
	out := make([]Ident, len(names))
	for i, n := range names {
		out[i] = in.Intern(n)
	}
	return out
}
