package hierarchy

import (
	"context"
	"strings"

	"codenerd/internal/document"
	"codenerd/internal/index"
	"codenerd/internal/service"
)

// Navigator answers definition/references/implementation queries per
// spec §4.8, fusing the adapter's own symbol-info with index lookups.
type Navigator struct {
	Index index.Index // nil disables index fallback entirely
	Read  FileReader
}

func NewNavigator(idx index.Index, read FileReader) *Navigator {
	return &Navigator{Index: idx, Read: read}
}

// isSynthesizedInterfaceFile reports whether path names a generated
// module-interface file rather than real source, the marker the
// compile-driven backend uses for on-the-fly generated interfaces.
func isSynthesizedInterfaceFile(path string) bool {
	return strings.HasSuffix(path, ".swiftinterface")
}

// Definition implements spec §4.8's definition algorithm.
func (n *Navigator) Definition(ctx context.Context, adapter service.Adapter, uri document.URI, pos service.Position) ([]service.Location, error) {
	info, err := adapter.SymbolInfo(ctx, uri, pos)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return adapter.Definition(ctx, uri, pos)
	}
	if info.IsModule {
		loc, err := adapter.OpenInterface(ctx, info.ModuleName)
		if err != nil {
			return nil, err
		}
		return []service.Location{loc}, nil
	}
	if n.Index == nil {
		return adapter.Definition(ctx, uri, pos)
	}

	occs, err := n.Index.Occurrences(ctx, info.USR, []index.Role{index.RoleDefinition})
	if err != nil {
		return nil, err
	}
	if len(occs) == 0 {
		occs, err = n.Index.Occurrences(ctx, info.USR, []index.Role{index.RoleDeclaration})
		if err != nil {
			return nil, err
		}
	}
	if len(occs) == 0 {
		return adapter.Definition(ctx, uri, pos)
	}
	if isSynthesizedInterfaceFile(occs[0].Path) {
		loc, err := adapter.OpenInterface(ctx, info.ModuleName)
		if err != nil {
			return nil, err
		}
		return []service.Location{loc}, nil
	}
	return translateAll(occs, n.Read), nil
}

// Declaration mirrors Definition but queries declaration-first with no
// definition fallback — the cursor is already asking for the
// declaration specifically.
func (n *Navigator) Declaration(ctx context.Context, adapter service.Adapter, uri document.URI, pos service.Position) ([]service.Location, error) {
	info, err := adapter.SymbolInfo(ctx, uri, pos)
	if err != nil {
		return nil, err
	}
	if info == nil || n.Index == nil {
		return adapter.Declaration(ctx, uri, pos)
	}
	occs, err := n.Index.Occurrences(ctx, info.USR, []index.Role{index.RoleDeclaration})
	if err != nil {
		return nil, err
	}
	if len(occs) == 0 {
		return adapter.Declaration(ctx, uri, pos)
	}
	return translateAll(occs, n.Read), nil
}

// References implements spec §4.8's references algorithm.
func (n *Navigator) References(ctx context.Context, adapter service.Adapter, uri document.URI, pos service.Position, includeDecl bool) ([]service.Location, error) {
	info, err := adapter.SymbolInfo(ctx, uri, pos)
	if err != nil {
		return nil, err
	}
	if info == nil || n.Index == nil {
		return adapter.References(ctx, uri, pos, includeDecl)
	}

	roles := []index.Role{index.RoleReference}
	if includeDecl {
		roles = append(roles, index.RoleDeclaration, index.RoleDefinition)
	}
	occs, err := n.Index.Occurrences(ctx, info.USR, roles)
	if err != nil {
		return nil, err
	}
	if len(occs) == 0 {
		return adapter.References(ctx, uri, pos, includeDecl)
	}
	return translateAll(occs, n.Read), nil
}

// Implementation implements spec §4.8's implementation algorithm:
// base-of roles, falling back to related override-of occurrences.
func (n *Navigator) Implementation(ctx context.Context, adapter service.Adapter, uri document.URI, pos service.Position) ([]service.Location, error) {
	info, err := adapter.SymbolInfo(ctx, uri, pos)
	if err != nil {
		return nil, err
	}
	if info == nil || n.Index == nil {
		return adapter.Implementation(ctx, uri, pos)
	}

	occs, err := n.Index.Occurrences(ctx, info.USR, []index.Role{index.RoleBaseOf})
	if err != nil {
		return nil, err
	}
	if len(occs) == 0 {
		occs, err = n.Index.RelatedOccurrences(ctx, info.USR, []index.Role{index.RoleOverrideOf})
		if err != nil {
			return nil, err
		}
	}
	if len(occs) == 0 {
		return adapter.Implementation(ctx, uri, pos)
	}
	return translateAll(occs, n.Read), nil
}
