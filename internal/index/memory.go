package index

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Memory is an in-memory Index used by tests and the fakeadapter
// demonstrator. It is never persisted to disk (spec §6 "Persisted
// state: none owned by the core" — this is scaffolding, not a
// production index).
type Memory struct {
	mu          sync.RWMutex
	occurrences []Occurrence
	related     map[string][]string // usr -> related usrs (e.g. subclass -> superclass)
	changed     chan struct{}
}

// NewMemory returns an empty in-memory index.
func NewMemory() *Memory {
	return &Memory{related: make(map[string][]string), changed: make(chan struct{})}
}

// Add inserts an occurrence, for test setup.
func (m *Memory) Add(o Occurrence) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.occurrences = append(m.occurrences, o)
}

// Relate records that fromUSR is related-to toUSR (e.g. base-of),
// for test setup supporting RelatedOccurrences.
func (m *Memory) Relate(fromUSR, toUSR string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.related[fromUSR] = append(m.related[fromUSR], toUSR)
}

// NotifyUnitChanged wakes any PollForUnitChangesAndWait caller.
func (m *Memory) NotifyUnitChanged() {
	m.mu.Lock()
	old := m.changed
	m.changed = make(chan struct{})
	m.mu.Unlock()
	close(old)
}

func (m *Memory) Occurrences(ctx context.Context, usr string, roles []Role) ([]Occurrence, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Occurrence
	for _, o := range m.occurrences {
		if o.USR != usr {
			continue
		}
		if !hasAnyRole(o, roles) {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (m *Memory) RelatedOccurrences(ctx context.Context, usr string, roles []Role) ([]Occurrence, error) {
	m.mu.RLock()
	relatedUSRs := append([]string(nil), m.related[usr]...)
	m.mu.RUnlock()

	var out []Occurrence
	for _, rel := range relatedUSRs {
		occs, err := m.Occurrences(ctx, rel, roles)
		if err != nil {
			return nil, err
		}
		out = append(out, occs...)
	}
	return out, nil
}

func (m *Memory) ForEachCanonicalSymbolOccurrence(ctx context.Context, substring string, anchors bool, subsequence bool, ignoreCase bool, callback func(Occurrence) bool) error {
	m.mu.RLock()
	occs := append([]Occurrence(nil), m.occurrences...)
	m.mu.RUnlock()

	sort.Slice(occs, func(i, j int) bool { return occs[i].Symbol < occs[j].Symbol })

	needle := substring
	if ignoreCase {
		needle = strings.ToLower(needle)
	}
	for _, o := range occs {
		hay := o.Symbol
		if ignoreCase {
			hay = strings.ToLower(hay)
		}
		match := false
		if subsequence {
			match = isSubsequence(needle, hay)
		} else {
			match = strings.Contains(hay, needle)
		}
		if !match {
			continue
		}
		if !callback(o) {
			return nil
		}
	}
	return nil
}

func (m *Memory) PollForUnitChangesAndWait(ctx context.Context) error {
	m.mu.RLock()
	ch := m.changed
	m.mu.RUnlock()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func hasAnyRole(o Occurrence, roles []Role) bool {
	if len(roles) == 0 {
		return true
	}
	for _, want := range roles {
		if o.HasRole(want) {
			return true
		}
	}
	return false
}

func isSubsequence(needle, hay string) bool {
	i := 0
	for _, r := range hay {
		if i >= len(needle) {
			break
		}
		if rune(needle[i]) == r {
			i++
		}
	}
	return i == len(needle)
}

var _ Index = (*Memory)(nil)
