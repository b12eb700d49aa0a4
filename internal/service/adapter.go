// Package service defines the language-service adapter capability set
// (C5): the uniform interface the scheduler programs against,
// regardless of which backend (compile-driven or C-family) answers it.
//
// Grounded on the teacher's internal/mcp/client.go Client type, which
// exposes a single capability surface (ListTools/CallTool/GetCapabilities)
// over either transport; generalized here to the LSP-shaped capability
// set spec §4.5 enumerates.
package service

import (
	"context"

	"codenerd/internal/document"
)

// BackendKind distinguishes the two adapter variants spec §4.5 names.
type BackendKind string

const (
	KindCompileDriven BackendKind = "compile-driven"
	KindCFamily       BackendKind = "c-family"
)

// Position is a zero-based (line, UTF-16 column) cursor location.
type Position struct {
	Line, Column int
}

// Location pairs a URI with a range within it.
type Location struct {
	URI   document.URI
	Range document.Range
}

// SymbolInfo is the result of an symbol-info query: USR plus the best
// local declaration location the adapter can resolve without an index.
type SymbolInfo struct {
	USR        string
	Kind       string
	IsModule   bool
	ModuleName string
	Decl       *Location
}

// RenameResult is what a local rename returns per spec §4.7 step 1.
type RenameResult struct {
	Edits   map[document.URI][]document.Change
	USR     string
	OldName string
}

// PieceKind is the kind of a RenamePiece, mirroring the data model's
// SyntacticRenamePiece kinds.
type PieceKind string

const (
	PieceBaseName               PieceKind = "base-name"
	PieceKeywordBase             PieceKind = "keyword-base"
	PieceParameterName          PieceKind = "parameter-name"
	PieceNoncollapsibleParam    PieceKind = "noncollapsible-parameter"
	PieceDeclArgLabel           PieceKind = "decl-arg-label"
	PieceCallArgLabel           PieceKind = "call-arg-label"
	PieceCallArgColon           PieceKind = "call-arg-colon"
	PieceCallArgCombined        PieceKind = "call-arg-combined"
	PieceSelectorArgLabel       PieceKind = "selector-arg-label"
)

// PieceCategory mirrors the adapter's classification of a rename piece.
type PieceCategory string

const (
	CategoryActiveCode PieceCategory = "active-code"
	CategoryInactive    PieceCategory = "inactive"
	CategoryMismatch    PieceCategory = "mismatch"
	CategoryUnmatched   PieceCategory = "unmatched"
	CategoryString      PieceCategory = "string"
	CategoryComment     PieceCategory = "comment"
	CategorySelector    PieceCategory = "selector"
)

// RenamePiece is one piece of a SyntacticRenameName for one location.
type RenamePiece struct {
	Range    document.Range
	Kind     PieceKind
	Category PieceCategory
	ParamIdx int // -1 if not parameter-indexed
}

// SyntacticRenameName is the adapter's per-location rename breakdown.
type SyntacticRenameName struct {
	Pieces []RenamePiece
}

// RenameUsage is how a RenameLocation uses the renamed symbol.
type RenameUsage string

const (
	UsageDeclaration RenameUsage = "declaration"
	UsageDefinition  RenameUsage = "definition"
	UsageReference   RenameUsage = "reference"
	UsageCall        RenameUsage = "call"
)

type RenameLocation struct {
	URI    document.URI
	Line   int
	UTF8Col int
	Usage  RenameUsage
}

// CrashObserver is implemented by an adapter whose backend can fail
// out from under the registry independently of any request in flight —
// a subprocess backend wrapped in a backend.Channel, whose Crashed()
// channel this typically forwards (spec §4.6). The registry subscribes
// to Crashed() to drive replay. An adapter that runs entirely
// in-process (nothing to crash independently of its own caller, e.g.
// the fakeadapter demonstrator) simply does not implement this, and is
// never a replay candidate.
type CrashObserver interface {
	Crashed() <-chan struct{}
}

// Adapter is the capability set spec §4.5 enumerates. Every method
// suspends per §5's concurrency model; callers pass a context to allow
// cancellation to unwind an in-flight backend round trip.
type Adapter interface {
	Kind() BackendKind

	// Document lifecycle notifications.
	Open(ctx context.Context, snap *document.Snapshot) error
	Change(ctx context.Context, snap *document.Snapshot) error
	Save(ctx context.Context, uri document.URI) error
	CloseDoc(ctx context.Context, uri document.URI) error

	// Language-intelligence requests.
	Completion(ctx context.Context, uri document.URI, pos Position) ([]CompletionItem, error)
	Hover(ctx context.Context, uri document.URI, pos Position) (string, bool, error)
	SymbolInfo(ctx context.Context, uri document.URI, pos Position) (*SymbolInfo, error)
	Definition(ctx context.Context, uri document.URI, pos Position) ([]Location, error)
	Declaration(ctx context.Context, uri document.URI, pos Position) ([]Location, error)
	References(ctx context.Context, uri document.URI, pos Position, includeDecl bool) ([]Location, error)
	Implementation(ctx context.Context, uri document.URI, pos Position) ([]Location, error)
	DocumentSymbol(ctx context.Context, uri document.URI) ([]DocumentSymbol, error)
	DocumentHighlight(ctx context.Context, uri document.URI, pos Position) ([]document.Range, error)
	FoldingRange(ctx context.Context, uri document.URI) ([]document.Range, error)
	SemanticTokensFull(ctx context.Context, uri document.URI) ([]uint32, error)
	DocumentColor(ctx context.Context, uri document.URI) ([]ColorInfo, error)
	ColorPresentation(ctx context.Context, uri document.URI, color ColorInfo) ([]string, error)
	CodeAction(ctx context.Context, uri document.URI, r document.Range) ([]CodeAction, error)
	InlayHint(ctx context.Context, uri document.URI, r document.Range) ([]InlayHint, error)
	DocumentDiagnostic(ctx context.Context, uri document.URI) ([]Diagnostic, error)
	ExecuteCommand(ctx context.Context, command string, args []interface{}) (interface{}, error)
	OpenInterface(ctx context.Context, moduleName string) (Location, error)

	// Rename.
	Rename(ctx context.Context, uri document.URI, pos Position, newName string) (*RenameResult, error)
	PrepareRename(ctx context.Context, uri document.URI, pos Position) (document.Range, string, error)
	EditsToRename(ctx context.Context, locations []RenameLocation, snap *document.Snapshot, oldName, newName string) (map[RenameLocation]SyntacticRenameName, error)

	Shutdown(ctx context.Context) error

	// Out-of-band hooks (spec §4.5).
	DocumentUpdatedBuildSettings(ctx context.Context, uri document.URI) error
	DocumentDependenciesUpdated(ctx context.Context, uris []document.URI) error
	CanHandle(workspaceRoot string) bool
}

type CompletionItem struct {
	Label  string
	Kind   string
	Detail string
}

type DocumentSymbol struct {
	Name     string
	Kind     string
	Range    document.Range
	Children []DocumentSymbol
}

type ColorInfo struct {
	Range document.Range
	R, G, B, A float64
}

type CodeAction struct {
	Title string
	Edits map[document.URI][]document.Change
}

type InlayHint struct {
	Position Position
	Label    string
}

type Diagnostic struct {
	Range    document.Range
	Severity string
	Message  string
}
