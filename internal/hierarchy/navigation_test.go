package hierarchy

import (
	"context"
	"testing"

	"codenerd/internal/document"
	"codenerd/internal/index"
	"codenerd/internal/service"

	"github.com/stretchr/testify/require"
)

// fakeAdapter embeds a nil service.Adapter so any method this test
// doesn't override panics loudly if accidentally exercised.
type fakeAdapter struct {
	service.Adapter
	info           *service.SymbolInfo
	definition     []service.Location
	declaration    []service.Location
	references     []service.Location
	implementation []service.Location
	openInterface  service.Location
}

func (f *fakeAdapter) SymbolInfo(ctx context.Context, uri document.URI, pos service.Position) (*service.SymbolInfo, error) {
	return f.info, nil
}
func (f *fakeAdapter) Definition(ctx context.Context, uri document.URI, pos service.Position) ([]service.Location, error) {
	return f.definition, nil
}
func (f *fakeAdapter) Declaration(ctx context.Context, uri document.URI, pos service.Position) ([]service.Location, error) {
	return f.declaration, nil
}
func (f *fakeAdapter) References(ctx context.Context, uri document.URI, pos service.Position, includeDecl bool) ([]service.Location, error) {
	return f.references, nil
}
func (f *fakeAdapter) Implementation(ctx context.Context, uri document.URI, pos service.Position) ([]service.Location, error) {
	return f.implementation, nil
}
func (f *fakeAdapter) OpenInterface(ctx context.Context, moduleName string) (service.Location, error) {
	return f.openInterface, nil
}

func readOneLiner(text string) FileReader {
	return func(path string) (string, error) { return text, nil }
}

func TestDefinitionPrefersDefinitionRoleOverDeclaration(t *testing.T) {
	idx := index.NewMemory()
	idx.Add(index.Occurrence{USR: "usr1", Path: "/a.swift", Line: 1, UTF8Col: 0, Roles: []index.Role{index.RoleDefinition}})
	idx.Add(index.Occurrence{USR: "usr1", Path: "/a.swift", Line: 2, UTF8Col: 0, Roles: []index.Role{index.RoleDeclaration}})

	nav := NewNavigator(idx, readOneLiner("foo\nbar\n"))
	adapter := &fakeAdapter{info: &service.SymbolInfo{USR: "usr1"}}

	locs, err := nav.Definition(context.Background(), adapter, "/a.swift", service.Position{})
	require.NoError(t, err)
	require.Len(t, locs, 1)
	require.Equal(t, 0, locs[0].Range.StartLine)
}

func TestDefinitionFallsBackToDeclarationWhenNoDefinition(t *testing.T) {
	idx := index.NewMemory()
	idx.Add(index.Occurrence{USR: "usr1", Path: "/a.swift", Line: 2, UTF8Col: 0, Roles: []index.Role{index.RoleDeclaration}})

	nav := NewNavigator(idx, readOneLiner("foo\nbar\n"))
	adapter := &fakeAdapter{info: &service.SymbolInfo{USR: "usr1"}}

	locs, err := nav.Definition(context.Background(), adapter, "/a.swift", service.Position{})
	require.NoError(t, err)
	require.Len(t, locs, 1)
	require.Equal(t, 1, locs[0].Range.StartLine)
}

func TestDefinitionDefersToAdapterWhenIndexHasNoHits(t *testing.T) {
	idx := index.NewMemory()
	nav := NewNavigator(idx, readOneLiner("foo\n"))
	want := []service.Location{{URI: "/a.swift"}}
	adapter := &fakeAdapter{info: &service.SymbolInfo{USR: "usr1"}, definition: want}

	locs, err := nav.Definition(context.Background(), adapter, "/a.swift", service.Position{})
	require.NoError(t, err)
	require.Equal(t, want, locs)
}

func TestDefinitionOfAModuleOpensItsInterface(t *testing.T) {
	nav := NewNavigator(nil, readOneLiner("foo\n"))
	want := service.Location{URI: "/generated.swiftinterface"}
	adapter := &fakeAdapter{info: &service.SymbolInfo{IsModule: true, ModuleName: "Demo"}, openInterface: want}

	locs, err := nav.Definition(context.Background(), adapter, "/a.swift", service.Position{})
	require.NoError(t, err)
	require.Equal(t, []service.Location{want}, locs)
}

func TestDefinitionReroutesToInterfaceGeneratorWhenFirstHitIsSynthesized(t *testing.T) {
	idx := index.NewMemory()
	idx.Add(index.Occurrence{USR: "usr1", Path: "/gen.swiftinterface", Line: 1, UTF8Col: 0, Roles: []index.Role{index.RoleDefinition}})

	nav := NewNavigator(idx, readOneLiner("foo\n"))
	want := service.Location{URI: "/gen.swiftinterface"}
	adapter := &fakeAdapter{info: &service.SymbolInfo{USR: "usr1", ModuleName: "Demo"}, openInterface: want}

	locs, err := nav.Definition(context.Background(), adapter, "/a.swift", service.Position{})
	require.NoError(t, err)
	require.Equal(t, []service.Location{want}, locs)
}

func TestReferencesIncludesDeclarationWhenRequested(t *testing.T) {
	idx := index.NewMemory()
	idx.Add(index.Occurrence{USR: "usr1", Path: "/a.swift", Line: 1, UTF8Col: 0, Roles: []index.Role{index.RoleReference}})
	idx.Add(index.Occurrence{USR: "usr1", Path: "/a.swift", Line: 2, UTF8Col: 0, Roles: []index.Role{index.RoleDeclaration}})

	nav := NewNavigator(idx, readOneLiner("foo\nbar\n"))
	adapter := &fakeAdapter{info: &service.SymbolInfo{USR: "usr1"}}

	locs, err := nav.References(context.Background(), adapter, "/a.swift", service.Position{}, true)
	require.NoError(t, err)
	require.Len(t, locs, 2)
}

func TestReferencesExcludesDeclarationWhenNotRequested(t *testing.T) {
	idx := index.NewMemory()
	idx.Add(index.Occurrence{USR: "usr1", Path: "/a.swift", Line: 1, UTF8Col: 0, Roles: []index.Role{index.RoleReference}})
	idx.Add(index.Occurrence{USR: "usr1", Path: "/a.swift", Line: 2, UTF8Col: 0, Roles: []index.Role{index.RoleDeclaration}})

	nav := NewNavigator(idx, readOneLiner("foo\nbar\n"))
	adapter := &fakeAdapter{info: &service.SymbolInfo{USR: "usr1"}}

	locs, err := nav.References(context.Background(), adapter, "/a.swift", service.Position{}, false)
	require.NoError(t, err)
	require.Len(t, locs, 1)
}

func TestImplementationFallsBackToRelatedOverrideOf(t *testing.T) {
	idx := index.NewMemory()
	idx.Relate("usr1", "usr2")
	idx.Add(index.Occurrence{USR: "usr2", Path: "/b.swift", Line: 1, UTF8Col: 0, Roles: []index.Role{index.RoleOverrideOf}})

	nav := NewNavigator(idx, readOneLiner("foo\n"))
	adapter := &fakeAdapter{info: &service.SymbolInfo{USR: "usr1"}}

	locs, err := nav.Implementation(context.Background(), adapter, "/a.swift", service.Position{})
	require.NoError(t, err)
	require.Len(t, locs, 1)
}
