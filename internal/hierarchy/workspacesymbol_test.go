package hierarchy

import (
	"context"
	"testing"

	"codenerd/internal/index"
	"codenerd/internal/workspace"

	"github.com/stretchr/testify/require"
)

type capabilityAlways struct{}

func (capabilityAlways) FileHandlingCapability(uri string) workspace.FileHandlingCapability {
	return workspace.Handled
}

func newTestRegistry(t *testing.T, idx index.Index) *workspace.Registry {
	t.Helper()
	reg := workspace.NewRegistry()
	reg.Add(&workspace.Workspace{Root: "/w", BuildSystem: capabilityAlways{}, Index: idx})
	return reg
}

func TestSearchWorkspaceSymbolsRejectsShortQueries(t *testing.T) {
	idx := index.NewMemory()
	idx.Add(index.Occurrence{Symbol: "ab"})
	reg := newTestRegistry(t, idx)

	matches, err := SearchWorkspaceSymbols(context.Background(), reg, "ab")
	require.NoError(t, err)
	require.Empty(t, matches)
}

func TestSearchWorkspaceSymbolsExcludesSystemAndAccessorRoles(t *testing.T) {
	idx := index.NewMemory()
	idx.Add(index.Occurrence{Symbol: "fooBar", Roles: []index.Role{index.RoleSystem}})
	idx.Add(index.Occurrence{Symbol: "fooBaz", Roles: []index.Role{index.RoleAccessorOf}})
	idx.Add(index.Occurrence{Symbol: "fooQux"})
	reg := newTestRegistry(t, idx)

	matches, err := SearchWorkspaceSymbols(context.Background(), reg, "foo")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "fooQux", matches[0].Occurrence.Symbol)
}

func TestSearchWorkspaceSymbolsCapsResults(t *testing.T) {
	idx := index.NewMemory()
	for i := 0; i < WorkspaceSymbolCap+50; i++ {
		idx.Add(index.Occurrence{Symbol: "fooItem"})
	}
	reg := newTestRegistry(t, idx)

	matches, err := SearchWorkspaceSymbols(context.Background(), reg, "foo")
	require.NoError(t, err)
	require.Len(t, matches, WorkspaceSymbolCap)
}
