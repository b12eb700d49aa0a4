package hierarchy

import (
	"context"

	"codenerd/internal/index"
	"codenerd/internal/workspace"
)

// WorkspaceSymbolCap is the maximum number of results a workspace
// symbol query returns, per spec §4.8.
const WorkspaceSymbolCap = 4096

// WorkspaceSymbolMinQueryLen is the minimum query length that reaches
// the index at all; shorter queries return empty without searching.
const WorkspaceSymbolMinQueryLen = 3

// SymbolMatch is one workspace-symbol result.
type SymbolMatch struct {
	Occurrence index.Occurrence
}

// SearchWorkspaceSymbols runs query across every registry workspace
// that exposes an index, per spec §4.8: case-insensitive subsequence
// matching, capped at WorkspaceSymbolCap, excluding system and
// accessor-of roles.
func SearchWorkspaceSymbols(ctx context.Context, reg *workspace.Registry, query string) ([]SymbolMatch, error) {
	if len(query) < WorkspaceSymbolMinQueryLen {
		return nil, nil
	}

	var out []SymbolMatch
	for _, ws := range reg.All() {
		idx, ok := ws.Index.(index.Index)
		if !ok || idx == nil {
			continue
		}

		err := idx.ForEachCanonicalSymbolOccurrence(ctx, query, false, true, true, func(o index.Occurrence) bool {
			if o.HasRole(index.RoleSystem) || o.HasRole(index.RoleAccessorOf) {
				return true // excluded, keep scanning
			}
			out = append(out, SymbolMatch{Occurrence: o})
			return len(out) < WorkspaceSymbolCap
		})
		if err != nil {
			return nil, err
		}
		if len(out) >= WorkspaceSymbolCap {
			break
		}
	}

	if len(out) > WorkspaceSymbolCap {
		out = out[:WorkspaceSymbolCap]
	}
	return out, nil
}
