// Package fakeadapter is a local, in-process language-service adapter
// used by integration tests and by `serve --inprocess` as a fallback
// demonstrator: it implements the service.Adapter capability set
// without spawning sourcekit-lsp or clangd, so C5/C6/C7/C8/C9 can be
// exercised end to end in a test binary.
//
// Grounded on the teacher's internal/world/ast_treesitter.go
// (TreeSitterParser): one tree-sitter parser per language, a tree walk
// extracting named declarations into facts. fakeadapter reuses the
// same tree-sitter-driven extraction idea, narrowed to function, method
// and type declarations, as a structural stand-in for the real
// adapters' symbol resolution — it does not attempt to model Swift or
// C semantics, only to produce plausible symbol-info/definition
// results driven by real parsing rather than hand-built fixtures.
package fakeadapter

import (
	"context"
	"fmt"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"codenerd/internal/document"
	"codenerd/internal/logging"
	"codenerd/internal/service"
)

// Adapter implements service.Adapter over an in-memory tree-sitter
// parse of each open document, keyed by declaration name.
type Adapter struct {
	kind service.BackendKind
	root string

	mu      sync.RWMutex
	parser  *sitter.Parser
	symbols map[string]symbolEntry // declaration name -> location
	docs    map[document.URI]*document.Snapshot
}

type symbolEntry struct {
	uri  document.URI
	line int
	col  int
	kind string
}

// New returns a fakeadapter for kind, rooted at workspaceRoot.
func New(kind service.BackendKind, workspaceRoot string) *Adapter {
	p := sitter.NewParser()
	p.SetLanguage(golang.GetLanguage())
	return &Adapter{
		kind:    kind,
		root:    workspaceRoot,
		parser:  p,
		symbols: make(map[string]symbolEntry),
		docs:    make(map[document.URI]*document.Snapshot),
	}
}

func (a *Adapter) Kind() service.BackendKind { return a.kind }

func (a *Adapter) index(snap *document.Snapshot) {
	tree, err := a.parser.ParseCtx(context.Background(), nil, []byte(snap.Text))
	if err != nil {
		logging.Get(logging.CategoryService).Warn("fakeadapter: parse failed for %s: %v", snap.URI, err)
		return
	}
	defer tree.Close()

	a.mu.Lock()
	defer a.mu.Unlock()

	// Drop this URI's previous symbols before re-indexing.
	for name, entry := range a.symbols {
		if entry.uri == snap.URI {
			delete(a.symbols, name)
		}
	}

	walk(tree.RootNode(), []byte(snap.Text), func(name string, kind string, n *sitter.Node) {
		line, col, err := snap.Lines.ByteOffsetToUTF16(int(n.StartByte()))
		if err != nil {
			return
		}
		a.symbols[name] = symbolEntry{uri: snap.URI, line: line, col: col, kind: kind}
	})
}

// walk extracts function, method and type declaration names at any
// depth of a Go-grammar parse tree, used purely as a structural
// stand-in (see package doc).
func walk(n *sitter.Node, src []byte, emit func(name, kind string, n *sitter.Node)) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "function_declaration", "method_declaration":
		if name := n.ChildByFieldName("name"); name != nil {
			emit(name.Content(src), "function", n)
		}
	case "type_spec":
		if name := n.ChildByFieldName("name"); name != nil {
			emit(name.Content(src), "type", n)
		}
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		walk(n.Child(i), src, emit)
	}
}

func (a *Adapter) Open(ctx context.Context, snap *document.Snapshot) error {
	a.mu.Lock()
	a.docs[snap.URI] = snap
	a.mu.Unlock()
	a.index(snap)
	return nil
}

func (a *Adapter) Change(ctx context.Context, snap *document.Snapshot) error {
	a.mu.Lock()
	a.docs[snap.URI] = snap
	a.mu.Unlock()
	a.index(snap)
	return nil
}

func (a *Adapter) Save(ctx context.Context, uri document.URI) error { return nil }

func (a *Adapter) CloseDoc(ctx context.Context, uri document.URI) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.docs, uri)
	for name, entry := range a.symbols {
		if entry.uri == uri {
			delete(a.symbols, name)
		}
	}
	return nil
}

func (a *Adapter) wordAt(uri document.URI, pos service.Position) (string, bool) {
	a.mu.RLock()
	snap, ok := a.docs[uri]
	a.mu.RUnlock()
	if !ok {
		return "", false
	}
	lineText, ok := snap.Lines.LineText(pos.Line)
	if !ok {
		return "", false
	}
	runes := []rune(lineText)
	if pos.Column < 0 || pos.Column > len(runes) {
		return "", false
	}
	start, end := pos.Column, pos.Column
	isIdent := func(r rune) bool {
		return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
	}
	for start > 0 && isIdent(runes[start-1]) {
		start--
	}
	for end < len(runes) && isIdent(runes[end]) {
		end++
	}
	if start == end {
		return "", false
	}
	return string(runes[start:end]), true
}

func (a *Adapter) SymbolInfo(ctx context.Context, uri document.URI, pos service.Position) (*service.SymbolInfo, error) {
	word, ok := a.wordAt(uri, pos)
	if !ok {
		return nil, fmt.Errorf("fakeadapter: no symbol at %s:%d:%d", uri, pos.Line, pos.Column)
	}
	a.mu.RLock()
	entry, found := a.symbols[word]
	a.mu.RUnlock()
	info := &service.SymbolInfo{USR: "fake:" + word, Kind: "unknown"}
	if found {
		info.Kind = entry.kind
		info.Decl = &service.Location{URI: entry.uri, Range: document.Range{
			StartLine: entry.line, StartCol: entry.col, EndLine: entry.line, EndCol: entry.col + len(word),
		}}
	}
	return info, nil
}

func (a *Adapter) Definition(ctx context.Context, uri document.URI, pos service.Position) ([]service.Location, error) {
	info, err := a.SymbolInfo(ctx, uri, pos)
	if err != nil || info.Decl == nil {
		return nil, err
	}
	return []service.Location{*info.Decl}, nil
}

func (a *Adapter) Declaration(ctx context.Context, uri document.URI, pos service.Position) ([]service.Location, error) {
	return a.Definition(ctx, uri, pos)
}

func (a *Adapter) References(ctx context.Context, uri document.URI, pos service.Position, includeDecl bool) ([]service.Location, error) {
	return a.Definition(ctx, uri, pos)
}

func (a *Adapter) Implementation(ctx context.Context, uri document.URI, pos service.Position) ([]service.Location, error) {
	return a.Definition(ctx, uri, pos)
}

func (a *Adapter) Completion(ctx context.Context, uri document.URI, pos service.Position) ([]service.CompletionItem, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	items := make([]service.CompletionItem, 0, len(a.symbols))
	for name, entry := range a.symbols {
		items = append(items, service.CompletionItem{Label: name, Kind: entry.kind})
	}
	return items, nil
}

func (a *Adapter) Hover(ctx context.Context, uri document.URI, pos service.Position) (string, bool, error) {
	word, ok := a.wordAt(uri, pos)
	if !ok {
		return "", false, nil
	}
	a.mu.RLock()
	entry, found := a.symbols[word]
	a.mu.RUnlock()
	if !found {
		return "", false, nil
	}
	return fmt.Sprintf("%s %s", entry.kind, word), true, nil
}

func (a *Adapter) DocumentSymbol(ctx context.Context, uri document.URI) ([]service.DocumentSymbol, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var out []service.DocumentSymbol
	for name, entry := range a.symbols {
		if entry.uri != uri {
			continue
		}
		out = append(out, service.DocumentSymbol{
			Name: name,
			Kind: entry.kind,
			Range: document.Range{StartLine: entry.line, StartCol: entry.col, EndLine: entry.line, EndCol: entry.col + len(name)},
		})
	}
	return out, nil
}

func (a *Adapter) DocumentHighlight(ctx context.Context, uri document.URI, pos service.Position) ([]document.Range, error) {
	return nil, nil
}
func (a *Adapter) FoldingRange(ctx context.Context, uri document.URI) ([]document.Range, error) {
	return nil, nil
}
func (a *Adapter) SemanticTokensFull(ctx context.Context, uri document.URI) ([]uint32, error) {
	return nil, nil
}
func (a *Adapter) DocumentColor(ctx context.Context, uri document.URI) ([]service.ColorInfo, error) {
	return nil, nil
}
func (a *Adapter) ColorPresentation(ctx context.Context, uri document.URI, color service.ColorInfo) ([]string, error) {
	return nil, nil
}
func (a *Adapter) CodeAction(ctx context.Context, uri document.URI, r document.Range) ([]service.CodeAction, error) {
	return nil, nil
}
func (a *Adapter) InlayHint(ctx context.Context, uri document.URI, r document.Range) ([]service.InlayHint, error) {
	return nil, nil
}
func (a *Adapter) DocumentDiagnostic(ctx context.Context, uri document.URI) ([]service.Diagnostic, error) {
	return nil, nil
}
func (a *Adapter) ExecuteCommand(ctx context.Context, command string, args []interface{}) (interface{}, error) {
	return nil, fmt.Errorf("fakeadapter: unknown command %q", command)
}
func (a *Adapter) OpenInterface(ctx context.Context, moduleName string) (service.Location, error) {
	return service.Location{}, fmt.Errorf("fakeadapter: no textual interface for %q", moduleName)
}

// Rename performs a local rename: every occurrence of the word under
// the cursor within the same document is replaced textually. This is a
// deliberately naive stand-in for the backend's real syntactic rename;
// cross-file expansion is C8's job, exercised against this adapter's
// USR via the index.
func (a *Adapter) Rename(ctx context.Context, uri document.URI, pos service.Position, newName string) (*service.RenameResult, error) {
	word, ok := a.wordAt(uri, pos)
	if !ok {
		return nil, fmt.Errorf("fakeadapter: no symbol at cursor")
	}
	a.mu.RLock()
	snap, ok := a.docs[uri]
	a.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("fakeadapter: %s not open", uri)
	}

	var changes []document.Change
	lineCount := snap.Lines.LineCount()
	for line := 0; line < lineCount; line++ {
		text, _ := snap.Lines.LineText(line)
		for _, span := range findWordSpans(text, word) {
			changes = append(changes, document.Change{
				Range: document.Range{StartLine: line, StartCol: span[0], EndLine: line, EndCol: span[1]},
				Text:  newName,
			})
		}
	}

	return &service.RenameResult{
		Edits:   map[document.URI][]document.Change{uri: changes},
		USR:     "fake:" + word,
		OldName: word,
	}, nil
}

func findWordSpans(line, word string) [][2]int {
	var spans [][2]int
	runes := []rune(line)
	wordRunes := []rune(word)
	isIdent := func(r rune) bool {
		return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
	}
	for i := 0; i+len(wordRunes) <= len(runes); i++ {
		if string(runes[i:i+len(wordRunes)]) != word {
			continue
		}
		if i > 0 && isIdent(runes[i-1]) {
			continue
		}
		if end := i + len(wordRunes); end < len(runes) && isIdent(runes[end]) {
			continue
		}
		spans = append(spans, [2]int{i, i + len(wordRunes)})
	}
	return spans
}

func (a *Adapter) PrepareRename(ctx context.Context, uri document.URI, pos service.Position) (document.Range, string, error) {
	word, ok := a.wordAt(uri, pos)
	if !ok {
		return document.Range{}, "", fmt.Errorf("fakeadapter: no symbol at cursor")
	}
	return document.Range{StartLine: pos.Line, StartCol: pos.Column, EndLine: pos.Line, EndCol: pos.Column + len([]rune(word))}, word, nil
}

func (a *Adapter) EditsToRename(ctx context.Context, locations []service.RenameLocation, snap *document.Snapshot, oldName, newName string) (map[service.RenameLocation]service.SyntacticRenameName, error) {
	out := make(map[service.RenameLocation]service.SyntacticRenameName, len(locations))
	for _, loc := range locations {
		byteOff, err := snap.Lines.UTF8ToByteOffset(loc.Line, loc.UTF8Col)
		if err != nil {
			continue
		}
		_, col, err := snap.Lines.ByteOffsetToUTF16(byteOff)
		if err != nil {
			continue
		}
		out[loc] = service.SyntacticRenameName{Pieces: []service.RenamePiece{{
			Range:    document.Range{StartLine: loc.Line, StartCol: col, EndLine: loc.Line, EndCol: col + len([]rune(oldName))},
			Kind:     service.PieceBaseName,
			Category: service.CategoryActiveCode,
			ParamIdx: -1,
		}}}
	}
	return out, nil
}

func (a *Adapter) Shutdown(ctx context.Context) error { return nil }

func (a *Adapter) DocumentUpdatedBuildSettings(ctx context.Context, uri document.URI) error { return nil }
func (a *Adapter) DocumentDependenciesUpdated(ctx context.Context, uris []document.URI) error {
	return nil
}
func (a *Adapter) CanHandle(workspaceRoot string) bool { return strings.HasPrefix(workspaceRoot, a.root) }

var _ service.Adapter = (*Adapter)(nil)
