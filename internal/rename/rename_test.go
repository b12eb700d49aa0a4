package rename

import (
	"context"
	"testing"

	"codenerd/internal/document"
	"codenerd/internal/index"
	"codenerd/internal/service"

	"github.com/stretchr/testify/require"
)

// stubAdapter implements just enough of service.Adapter for rename
// tests; every unrelated method panics if called so a test that
// exercises one by mistake fails loudly rather than silently.
type stubAdapter struct {
	renameResult      *service.RenameResult
	renameErr         error
	editsByURI        map[document.URI]service.SyntacticRenameName
	capturedLocations []service.RenameLocation
}

func (s *stubAdapter) Kind() service.BackendKind { panic("unused") }
func (s *stubAdapter) Open(ctx context.Context, snap *document.Snapshot) error { panic("unused") }
func (s *stubAdapter) Change(ctx context.Context, snap *document.Snapshot) error { panic("unused") }
func (s *stubAdapter) Save(ctx context.Context, uri document.URI) error { panic("unused") }
func (s *stubAdapter) CloseDoc(ctx context.Context, uri document.URI) error { panic("unused") }
func (s *stubAdapter) Completion(ctx context.Context, uri document.URI, pos service.Position) ([]service.CompletionItem, error) { panic("unused") }
func (s *stubAdapter) Hover(ctx context.Context, uri document.URI, pos service.Position) (string, bool, error) { panic("unused") }
func (s *stubAdapter) SymbolInfo(ctx context.Context, uri document.URI, pos service.Position) (*service.SymbolInfo, error) { panic("unused") }
func (s *stubAdapter) Definition(ctx context.Context, uri document.URI, pos service.Position) ([]service.Location, error) { panic("unused") }
func (s *stubAdapter) Declaration(ctx context.Context, uri document.URI, pos service.Position) ([]service.Location, error) { panic("unused") }
func (s *stubAdapter) References(ctx context.Context, uri document.URI, pos service.Position, includeDecl bool) ([]service.Location, error) { panic("unused") }
func (s *stubAdapter) Implementation(ctx context.Context, uri document.URI, pos service.Position) ([]service.Location, error) { panic("unused") }
func (s *stubAdapter) DocumentSymbol(ctx context.Context, uri document.URI) ([]service.DocumentSymbol, error) { panic("unused") }
func (s *stubAdapter) DocumentHighlight(ctx context.Context, uri document.URI, pos service.Position) ([]document.Range, error) { panic("unused") }
func (s *stubAdapter) FoldingRange(ctx context.Context, uri document.URI) ([]document.Range, error) { panic("unused") }
func (s *stubAdapter) SemanticTokensFull(ctx context.Context, uri document.URI) ([]uint32, error) { panic("unused") }
func (s *stubAdapter) DocumentColor(ctx context.Context, uri document.URI) ([]service.ColorInfo, error) { panic("unused") }
func (s *stubAdapter) ColorPresentation(ctx context.Context, uri document.URI, color service.ColorInfo) ([]string, error) { panic("unused") }
func (s *stubAdapter) CodeAction(ctx context.Context, uri document.URI, r document.Range) ([]service.CodeAction, error) { panic("unused") }
func (s *stubAdapter) InlayHint(ctx context.Context, uri document.URI, r document.Range) ([]service.InlayHint, error) { panic("unused") }
func (s *stubAdapter) DocumentDiagnostic(ctx context.Context, uri document.URI) ([]service.Diagnostic, error) { panic("unused") }
func (s *stubAdapter) ExecuteCommand(ctx context.Context, command string, args []interface{}) (interface{}, error) { panic("unused") }
func (s *stubAdapter) OpenInterface(ctx context.Context, moduleName string) (service.Location, error) { panic("unused") }
func (s *stubAdapter) PrepareRename(ctx context.Context, uri document.URI, pos service.Position) (document.Range, string, error) { panic("unused") }
func (s *stubAdapter) Shutdown(ctx context.Context) error { panic("unused") }
func (s *stubAdapter) DocumentUpdatedBuildSettings(ctx context.Context, uri document.URI) error { panic("unused") }
func (s *stubAdapter) DocumentDependenciesUpdated(ctx context.Context, uris []document.URI) error { panic("unused") }
func (s *stubAdapter) CanHandle(workspaceRoot string) bool { panic("unused") }

func (s *stubAdapter) Rename(ctx context.Context, uri document.URI, pos service.Position, newName string) (*service.RenameResult, error) {
	return s.renameResult, s.renameErr
}

func (s *stubAdapter) EditsToRename(ctx context.Context, locations []service.RenameLocation, snap *document.Snapshot, oldName, newName string) (map[service.RenameLocation]service.SyntacticRenameName, error) {
	s.capturedLocations = append(s.capturedLocations, locations...)
	out := make(map[service.RenameLocation]service.SyntacticRenameName)
	for _, loc := range locations {
		if name, ok := s.editsByURI[loc.URI]; ok {
			out[loc] = name
		}
	}
	return out, nil
}

var _ service.Adapter = (*stubAdapter)(nil)

func singleLineRange(line, startCol, endCol int) document.Range {
	return document.Range{StartLine: line, StartCol: startCol, EndLine: line, EndCol: endCol}
}

func TestRenameLocalOnlyNeedsNoIndex(t *testing.T) {
	docs := document.NewManager()
	adapter := &stubAdapter{
		renameResult: &service.RenameResult{
			Edits: map[document.URI][]document.Change{
				"file:///a.swift": {{Range: singleLineRange(0, 4, 7), Text: "bar"}},
			},
		},
	}
	eng := NewEngine(docs, nil, nil)

	edits, err := eng.Rename(context.Background(), adapter, "file:///a.swift", service.Position{}, "bar")
	require.NoError(t, err)
	require.Len(t, edits["file:///a.swift"], 1)
	require.Equal(t, "bar", edits["file:///a.swift"][0].Text)
}

func TestRenameExpandsToIndexOccurrencesExcludingLocallyEditedFiles(t *testing.T) {
	docs := document.NewManager()
	idx := index.NewMemory()
	idx.Add(index.Occurrence{USR: "s:4demo3foo", Path: "/w/a.swift", Line: 1, UTF8Col: 5, Roles: []index.Role{index.RoleDefinition}, Symbol: "foo"})
	idx.Add(index.Occurrence{USR: "s:4demo3foo", Path: "/w/b.swift", Line: 1, UTF8Col: 1, Roles: []index.Role{index.RoleReference}, Symbol: "foo"})

	adapter := &stubAdapter{
		renameResult: &service.RenameResult{
			Edits:   map[document.URI][]document.Change{"/w/a.swift": {{Text: "already-edited"}}},
			USR:     "s:4demo3foo",
			OldName: "foo",
		},
		editsByURI: map[document.URI]service.SyntacticRenameName{
			"/w/b.swift": {
				Pieces: []service.RenamePiece{
					{Range: singleLineRange(0, 0, 3), Kind: service.PieceBaseName, Category: service.CategoryActiveCode, ParamIdx: -1},
				},
			},
		},
	}

	loader := func(uri document.URI) (string, bool, error) {
		if uri == "/w/b.swift" {
			return "foo()", true, nil
		}
		return "", false, nil
	}
	eng := NewEngine(docs, idx, loader)

	edits, err := eng.Rename(context.Background(), adapter, "/w/a.swift", service.Position{}, "bar")
	require.NoError(t, err)

	// a.swift keeps only the adapter's local edit (index expansion
	// must not double-edit a file the adapter already covered).
	require.Len(t, edits["/w/a.swift"], 1)
	require.Equal(t, "already-edited", edits["/w/a.swift"][0].Text)

	// b.swift gets the base-name replacement from index expansion.
	require.Len(t, edits["/w/b.swift"], 1)
	require.Equal(t, "bar", edits["/w/b.swift"][0].Text)
}

func TestRenameIndexOccurrenceLineIsConvertedFromOneBasedToZeroBased(t *testing.T) {
	docs := document.NewManager()
	idx := index.NewMemory()
	// Line 8 in the (1-based) index must reach EditsToRename as line 7
	// (0-based), matching every document/LineTable-facing API.
	idx.Add(index.Occurrence{USR: "s:4demo3foo", Path: "/w/c.swift", Line: 8, UTF8Col: 3, Roles: []index.Role{index.RoleReference}, Symbol: "foo"})

	adapter := &stubAdapter{
		renameResult: &service.RenameResult{
			Edits:   map[document.URI][]document.Change{},
			USR:     "s:4demo3foo",
			OldName: "foo",
		},
		editsByURI: map[document.URI]service.SyntacticRenameName{
			"/w/c.swift": {
				Pieces: []service.RenamePiece{
					{Range: singleLineRange(7, 0, 3), Kind: service.PieceBaseName, Category: service.CategoryActiveCode, ParamIdx: -1},
				},
			},
		},
	}

	loader := func(uri document.URI) (string, bool, error) {
		if uri == "/w/c.swift" {
			return "l0\nl1\nl2\nl3\nl4\nl5\nl6\nfoo()\n", true, nil
		}
		return "", false, nil
	}
	eng := NewEngine(docs, idx, loader)

	_, err := eng.Rename(context.Background(), adapter, "file:///a.swift", service.Position{}, "bar")
	require.NoError(t, err)

	require.Len(t, adapter.capturedLocations, 1)
	require.Equal(t, 7, adapter.capturedLocations[0].Line)
}

func TestRenameSkipsIndexExpansionWhenUSROrOldNameMissing(t *testing.T) {
	docs := document.NewManager()
	idx := index.NewMemory()
	idx.Add(index.Occurrence{USR: "x", Path: "/w/b.swift", Roles: []index.Role{index.RoleReference}})

	adapter := &stubAdapter{renameResult: &service.RenameResult{Edits: map[document.URI][]document.Change{}}}
	eng := NewEngine(docs, idx, nil)

	edits, err := eng.Rename(context.Background(), adapter, "file:///a.swift", service.Position{}, "bar")
	require.NoError(t, err)
	require.Empty(t, edits)
}

func TestEditForPieceBaseNameReplacesWithNewBaseName(t *testing.T) {
	old := ParseCompoundDeclName("foo")
	newName := ParseCompoundDeclName("bar")
	piece := service.RenamePiece{Kind: service.PieceBaseName, ParamIdx: -1}
	text, edit := editForPiece(piece, old, newName)
	require.True(t, edit)
	require.Equal(t, "bar", text)
}

func TestEditForPieceDeclArgLabelInsertsWithTrailingSpaceWhenRangeEmpty(t *testing.T) {
	old := ParseCompoundDeclName("foo(a:)")
	newN := ParseCompoundDeclName("foo(y:)")
	piece := service.RenamePiece{Kind: service.PieceDeclArgLabel, ParamIdx: 0, Range: singleLineRange(0, 4, 4)}
	text, edit := editForPiece(piece, old, newN)
	require.True(t, edit)
	require.Equal(t, "y ", text)
}

func TestEditForPieceCallArgLabelWildcardProducesEmptyLabel(t *testing.T) {
	old := ParseCompoundDeclName("foo(a:)")
	newN := ParseCompoundDeclName("foo(_:)")
	piece := service.RenamePiece{Kind: service.PieceCallArgLabel, ParamIdx: 0}
	text, edit := editForPiece(piece, old, newN)
	require.True(t, edit)
	require.Equal(t, "", text)
}

func TestEditForPieceCallArgColonDeletesOnlyWhenBecomingWildcard(t *testing.T) {
	old := ParseCompoundDeclName("foo(a:)")
	toWildcard := ParseCompoundDeclName("foo(_:)")
	piece := service.RenamePiece{Kind: service.PieceCallArgColon, ParamIdx: 0}
	_, edit := editForPiece(piece, old, toWildcard)
	require.True(t, edit)

	stillNamed := ParseCompoundDeclName("foo(b:)")
	_, edit2 := editForPiece(piece, old, stillNamed)
	require.False(t, edit2)
}

func TestEditForPieceKeywordBaseAndNoncollapsibleParamAreNoOps(t *testing.T) {
	old := ParseCompoundDeclName("foo(a:)")
	newN := ParseCompoundDeclName("bar(b:)")
	_, edit1 := editForPiece(service.RenamePiece{Kind: service.PieceKeywordBase, ParamIdx: -1}, old, newN)
	_, edit2 := editForPiece(service.RenamePiece{Kind: service.PieceNoncollapsibleParam, ParamIdx: 0}, old, newN)
	require.False(t, edit1)
	require.False(t, edit2)
}
