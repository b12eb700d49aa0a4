package rename

import (
	"context"
	"fmt"
	"os"
	"strings"

	"codenerd/internal/document"
	"codenerd/internal/index"
	"codenerd/internal/logging"
	"codenerd/internal/service"
)

// DiskLoader loads a URI's current text from disk when it has no open
// buffer, per spec §4.7 step 3 ("else load from disk as a fresh
// snapshot"). Production code should pass os.ReadFile; tests pass a
// fake.
type DiskLoader func(uri document.URI) (text string, ok bool, err error)

// OSDiskLoader is the production DiskLoader: it reads the plain
// filesystem path encoded by uri.
func OSDiskLoader(uri document.URI) (string, bool, error) {
	data, err := os.ReadFile(string(uri))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(data), true, nil
}

// Engine performs cross-file rename per spec §4.7.
type Engine struct {
	Documents *document.Manager
	Index     index.Index // nil when the workspace has no index
	Loader    DiskLoader
}

// NewEngine constructs an Engine. idx may be nil for a workspace with
// no symbol index (local-only rename).
func NewEngine(docs *document.Manager, idx index.Index, loader DiskLoader) *Engine {
	if loader == nil {
		loader = OSDiskLoader
	}
	return &Engine{Documents: docs, Index: idx, Loader: loader}
}

// Rename runs the full cross-file rename algorithm against adapter,
// returning the union of all per-URI edits. Edits from the adapter's
// local rename (step 1) and edits from index expansion (steps 2-5)
// are always for disjoint URI sets, so they can be merged directly.
func (e *Engine) Rename(ctx context.Context, adapter service.Adapter, uri document.URI, pos service.Position, newName string) (map[document.URI][]document.Change, error) {
	local, err := adapter.Rename(ctx, uri, pos, newName)
	if err != nil {
		return nil, fmt.Errorf("rename: local rename failed: %w", err)
	}

	result := make(map[document.URI][]document.Change, len(local.Edits))
	for u, changes := range local.Edits {
		result[u] = append(result[u], changes...)
	}

	if local.USR == "" || local.OldName == "" || e.Index == nil {
		return result, nil
	}

	occs, err := e.Index.Occurrences(ctx, local.USR, []index.Role{index.RoleDeclaration, index.RoleDefinition, index.RoleReference})
	if err != nil {
		logging.Get(logging.CategoryRename).Warn("rename: index query for %s failed: %v", local.USR, err)
		return result, nil
	}

	byPath := make(map[string][]index.Occurrence)
	for _, o := range occs {
		u := document.URI(o.Path)
		if _, covered := local.Edits[u]; covered {
			continue // step 2: drop files the adapter already edited
		}
		byPath[o.Path] = append(byPath[o.Path], o)
	}

	for path, fileOccs := range byPath {
		u := document.URI(path)
		snap, err := e.snapshotFor(u)
		if err != nil {
			logging.Get(logging.CategoryRename).Warn("rename: loading %s failed: %v", path, err)
			continue
		}
		if snap == nil {
			continue // file no longer exists; best-effort per spec §7
		}

		locations := make([]service.RenameLocation, 0, len(fileOccs))
		for _, o := range fileOccs {
			line := o.Line - 1 // occurrences are 1-based; RenameLocation is 0-based, like everything document/LineTable-facing
			if line < 0 {
				line = 0
			}
			locations = append(locations, service.RenameLocation{
				URI:     u,
				Line:    line,
				UTF8Col: o.UTF8Col,
				Usage:   usageForRoles(o.Roles),
			})
		}

		pieces, err := adapter.EditsToRename(ctx, locations, snap, local.OldName, newName)
		if err != nil {
			logging.Get(logging.CategoryRename).Warn("rename: edits-to-rename for %s failed: %v", path, err)
			continue
		}

		oldCompound := ParseCompoundDeclName(local.OldName)
		newCompound := ParseCompoundDeclName(newName)
		for _, name := range pieces {
			changes := applyEditRules(name, oldCompound, newCompound)
			if len(changes) > 0 {
				result[u] = append(result[u], changes...)
			}
		}
	}

	return result, nil
}

// snapshotFor returns the open snapshot for uri, or a fresh one loaded
// from disk; nil, nil if the file does not exist.
func (e *Engine) snapshotFor(uri document.URI) (*document.Snapshot, error) {
	if snap, err := e.Documents.Latest(uri); err == nil {
		return snap, nil
	}

	text, ok, err := e.Loader(uri)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &document.Snapshot{
		URI:      uri,
		Language: languageForURI(uri),
		Version:  0,
		Lines:    document.NewLineTable(text),
		Text:     text,
	}, nil
}

func languageForURI(uri document.URI) string {
	s := string(uri)
	switch {
	case strings.HasSuffix(s, ".swift"):
		return "swift"
	case strings.HasSuffix(s, ".c"), strings.HasSuffix(s, ".h"):
		return "c"
	case strings.HasSuffix(s, ".cpp"), strings.HasSuffix(s, ".cc"), strings.HasSuffix(s, ".hpp"):
		return "cpp"
	case strings.HasSuffix(s, ".m"), strings.HasSuffix(s, ".mm"):
		return "objective-c"
	default:
		return "plaintext"
	}
}

func usageForRoles(roles []index.Role) service.RenameUsage {
	has := func(r index.Role) bool {
		for _, x := range roles {
			if x == r {
				return true
			}
		}
		return false
	}
	switch {
	case has(index.RoleDefinition):
		return service.UsageDefinition
	case has(index.RoleDeclaration):
		return service.UsageDeclaration
	case has(index.RoleCall):
		return service.UsageCall
	default:
		return service.UsageReference
	}
}
