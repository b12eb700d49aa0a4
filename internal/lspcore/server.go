package lspcore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"codenerd/internal/capabilities"
	"codenerd/internal/config"
	"codenerd/internal/document"
	"codenerd/internal/hierarchy"
	"codenerd/internal/index"
	"codenerd/internal/logging"
	"codenerd/internal/progress"
	"codenerd/internal/registry"
	"codenerd/internal/rename"
	"codenerd/internal/rpc"
	"codenerd/internal/scheduler"
	"codenerd/internal/service"
	"codenerd/internal/workspace"
)

// Server is the top-level wiring: one instance owns every component
// (C1-C11 plus the build-system/index/transport collaborators) and
// implements rpc.Handler so it can be driven directly by a Conn's
// Serve loop.
//
// Grounded on the teacher's internal/mcp server assembly (one struct
// holding every subsystem, constructed once in cmd/nerd and handed to
// a transport), generalized to this domain's component table (§2).
type Server struct {
	cfg *config.Config

	docs       *document.Manager
	workspaces *workspace.Registry
	adapters   *registry.Registry
	sched      *scheduler.Scheduler
	caps       *capabilities.Registry

	renameEngine *rename.Engine
	nav          *hierarchy.Navigator
	hier         *hierarchy.HierarchyNavigator

	progressMu sync.Mutex
	progress   map[string]*progress.Tracker // keyed by title; most servers need only "indexing"

	notifySeq atomic.Int64 // synthesizes scheduler task ids for notifications, which carry no wire id

	conn *rpc.Conn // set by Attach once the transport exists
}

// New assembles a Server from its components. factory constructs
// adapters on demand (spec §4.6); idx is the index collaborator used
// by rename/hierarchy/workspace-symbol (nil if no workspace has an
// index handle yet); read loads a file's text by path for index-to-LSP
// translation (spec §4.8), typically os.ReadFile wrapped to match
// hierarchy.FileReader's signature.
func New(cfg *config.Config, factory registry.AdapterFactory, idx index.Index, read hierarchy.FileReader) *Server {
	docs := document.NewManager()
	ws := workspace.NewRegistry()
	s := &Server{
		cfg:          cfg,
		docs:         docs,
		workspaces:   ws,
		adapters:     registry.New(factory),
		sched:        scheduler.New(context.Background(), 8),
		caps:         capabilities.NewRegistry(),
		progress:     make(map[string]*progress.Tracker),
		renameEngine: rename.NewEngine(docs, idx, nil),
		nav:          hierarchy.NewNavigator(idx, read),
		hier:         hierarchy.NewHierarchyNavigator(idx, read),
	}
	s.adapters.SetCrashHandler(s.replayCrashedDocuments)
	return s
}

// replayCrashedDocuments implements spec §4.6 step 4: for every URI a
// crashed adapter was servicing, recreate an adapter for its workspace
// and replay close then open against it so the editor's view reconverges without
// needing a manual didClose/didOpen from the client. Best-effort: a
// document that was closed in the race before the crash was observed,
// or whose adapter fails to recreate, is logged and skipped rather
// than aborting the rest of the batch.
func (s *Server) replayCrashedDocuments(root string, affected []document.URI) {
	ctx := context.Background()
	for _, uri := range affected {
		snap, err := s.docs.Latest(uri)
		if err != nil {
			continue
		}
		adapter, err := s.adapters.Get(ctx, kindForLanguage(snap.Language), root, snap.Language)
		if err != nil {
			logging.Get(logging.CategoryRegistry).Warn("replay: recreating adapter for %s failed: %v", uri, err)
			continue
		}
		s.adapters.RouteDocument(root, uri, adapter)
		if err := adapter.CloseDoc(ctx, uri); err != nil {
			logging.Get(logging.CategoryRegistry).Debug("replay: closing %s before reopen failed: %v", uri, err)
		}
		if err := adapter.Open(ctx, snap); err != nil {
			logging.Get(logging.CategoryRegistry).Warn("replay: reopening %s failed: %v", uri, err)
		}
	}
}

// AddWorkspace registers a workspace rooted at root with the given
// build-system collaborator (nil if the workspace has no build system
// yet), making it eligible for WorkspaceFor routing.
func (s *Server) AddWorkspace(root string, bs workspace.BuildSystem) {
	s.workspaces.Add(&workspace.Workspace{Root: root, BuildSystem: bs})
}

// Attach wires an rpc.Conn into the server once the transport is
// ready, for server-initiated calls (create-work-done-progress,
// register-capability, apply-edit) per spec §5.
func (s *Server) Attach(conn *rpc.Conn) {
	s.conn = conn
}

// Handle implements rpc.Handler, dispatching by LSP method name. Every
// dispatch (other than the cancellation lane itself) is threaded
// through the scheduler (C7) so spec §4.1's dependency ordering —
// a global-config barrier around initialize, and per-URI
// document-update/document-request exclusivity elsewhere — and §5's
// "a document-request observes a snapshot version no older than the
// most recent document-update that preceded it" invariant actually
// hold, instead of relying on Conn's per-request goroutines to
// serialize themselves.
func (s *Server) Handle(ctx context.Context, id string, method string, params json.RawMessage) (interface{}, error) {
	if method == "$/cancelRequest" {
		s.cancelRequest(params)
		return nil, nil
	}

	tag, uri := scheduleTagFor(method, params)
	return s.runScheduled(ctx, id, tag, uri, func(ctx context.Context) (interface{}, error) {
		switch method {
		case "initialize":
			return s.initialize(ctx, params)
		case "textDocument/didOpen":
			return nil, s.didOpen(ctx, params)
		case "textDocument/didChange":
			return nil, s.didChange(ctx, params)
		case "textDocument/didClose":
			return nil, s.didClose(ctx, params)
		case "textDocument/didSave":
			return nil, s.didSave(ctx, params)
		case "textDocument/rename":
			return s.rename(ctx, params)
		case "textDocument/definition":
			return s.definition(ctx, params)
		case "textDocument/references":
			return s.references(ctx, params)
		case "textDocument/prepareCallHierarchy":
			return s.prepareCallHierarchy(ctx, params)
		case "callHierarchy/incomingCalls":
			return s.incomingCalls(ctx, params)
		case "callHierarchy/outgoingCalls":
			return s.outgoingCalls(ctx, params)
		case "workspace/symbol":
			return s.workspaceSymbol(ctx, params)
		default:
			return nil, Newf(KindMethodNotFound, "%s", method)
		}
	})
}

// scheduleTagFor derives the dependency tag and, for document-scoped
// methods, the URI spec §4.1 keys exclusivity on. Methods with no
// document scope (workspace/symbol, an unrecognized method headed for
// the method-not-found branch) run freestanding: they still pass
// through the scheduler's worker pool, but take no gate.
func scheduleTagFor(method string, params json.RawMessage) (scheduler.Tag, document.URI) {
	switch method {
	case "initialize":
		return scheduler.GlobalConfig, ""
	case "textDocument/didOpen", "textDocument/didChange", "textDocument/didClose", "textDocument/didSave":
		return scheduler.DocumentUpdate, uriFromTextDocument(params)
	case "textDocument/rename", "textDocument/definition", "textDocument/references", "textDocument/prepareCallHierarchy":
		return scheduler.DocumentRequest, uriFromTextDocument(params)
	case "callHierarchy/incomingCalls", "callHierarchy/outgoingCalls":
		return scheduler.DocumentRequest, uriFromItem(params)
	default:
		return scheduler.Freestanding, ""
	}
}

func uriFromTextDocument(params json.RawMessage) document.URI {
	var p struct {
		TextDocument struct {
			URI document.URI `json:"uri"`
		} `json:"textDocument"`
	}
	_ = json.Unmarshal(params, &p)
	return p.TextDocument.URI
}

func uriFromItem(params json.RawMessage) document.URI {
	var p struct {
		Item struct {
			URI document.URI `json:"uri"`
		} `json:"item"`
	}
	_ = json.Unmarshal(params, &p)
	return p.Item.URI
}

// runScheduled submits fn to the scheduler under tag/uri and blocks
// for its result, so Handle keeps the synchronous request/reply
// contract rpc.Conn expects while the scheduler still owns ordering
// and worker-pool admission. Notifications carry no wire id, so one is
// synthesized for the scheduler's handles/replied bookkeeping; it is
// never a valid $/cancelRequest target since the client never learns
// it.
func (s *Server) runScheduled(ctx context.Context, id string, tag scheduler.Tag, uri document.URI, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	if id == "" {
		id = fmt.Sprintf("notify-%d", s.notifySeq.Add(1))
	}

	type outcome struct {
		result interface{}
		err    error
	}
	done := make(chan outcome, 1)

	err := s.sched.Schedule(scheduler.Task{
		ID:  id,
		Tag: tag,
		URI: uri,
		Run: func(taskCtx context.Context) error {
			result, err := fn(taskCtx)
			done <- outcome{result, err}
			return nil // reported to the caller via done, not the scheduler's own error log
		},
	})
	if err != nil {
		return nil, Newf(KindInternalError, "schedule %s: %v", id, err)
	}

	select {
	case o := <-done:
		return o.result, o.err
	case <-ctx.Done():
		return nil, Newf(KindCancelled, "%s", id)
	}
}

type cancelRequestParams struct {
	ID json.RawMessage `json:"id"`
}

// cancelRequest implements spec §4.1's separate cancellation lane:
// $/cancelRequest is a notification, so it never waits behind the
// regular queue, and Scheduler.Cancel is safe to call whether or not
// the target has started running yet.
func (s *Server) cancelRequest(raw json.RawMessage) {
	var p cancelRequestParams
	if err := json.Unmarshal(raw, &p); err != nil || len(p.ID) == 0 {
		return
	}
	s.sched.Cancel(string(p.ID))
}

type initializeParams struct {
	RootURI string `json:"rootUri"`
}

// initialize registers the workspace root and returns the merged
// static-plus-per-adapter capability set (C11). Per-adapter dynamic
// registrations arrive later via registry.Get's handshake and are
// folded in through s.caps.Register as adapters come up.
func (s *Server) initialize(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var p initializeParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, Newf(KindInternalError, "decode initialize: %v", err)
	}
	if p.RootURI != "" {
		s.workspaces.Add(&workspace.Workspace{Root: p.RootURI})
	}
	return map[string]interface{}{"capabilities": s.caps.Merged()}, nil
}

type textDocumentItem struct {
	URI     document.URI `json:"uri"`
	Language string      `json:"languageId"`
	Version  int         `json:"version"`
	Text     string      `json:"text"`
}

type didOpenParams struct {
	TextDocument textDocumentItem `json:"textDocument"`
}

func (s *Server) didOpen(ctx context.Context, raw json.RawMessage) error {
	var p didOpenParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return Newf(KindInternalError, "decode didOpen: %v", err)
	}
	snap := s.docs.Open(p.TextDocument.URI, p.TextDocument.Language, p.TextDocument.Version, p.TextDocument.Text)

	ws, ok := s.workspaces.WorkspaceFor(string(p.TextDocument.URI))
	if !ok {
		return Newf(KindWorkspaceNotOpen, "%s", p.TextDocument.URI)
	}
	adapter, err := s.adapters.Get(ctx, kindForLanguage(p.TextDocument.Language), ws.Root, p.TextDocument.Language)
	if err != nil {
		return Newf(KindInternalError, "%v", err)
	}
	s.adapters.RouteDocument(ws.Root, p.TextDocument.URI, adapter)
	if err := adapter.Open(ctx, snap); err != nil {
		return Newf(KindUnknown, "%v", err)
	}
	return nil
}

type versionedTextDocumentIdentifier struct {
	URI     document.URI `json:"uri"`
	Version int          `json:"version"`
}

type contentChangeEvent struct {
	Range *document.Range `json:"range,omitempty"`
	Text  string          `json:"text"`
}

type didChangeParams struct {
	TextDocument   versionedTextDocumentIdentifier `json:"textDocument"`
	ContentChanges []contentChangeEvent             `json:"contentChanges"`
}

func (s *Server) didChange(ctx context.Context, raw json.RawMessage) error {
	var p didChangeParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return Newf(KindInternalError, "decode didChange: %v", err)
	}
	changes := make([]document.Change, 0, len(p.ContentChanges))
	for _, c := range p.ContentChanges {
		if c.Range == nil {
			changes = append(changes, document.Change{IsFull: true, Text: c.Text})
			continue
		}
		changes = append(changes, document.Change{Range: *c.Range, Text: c.Text})
	}
	snap, err := s.docs.Edit(p.TextDocument.URI, p.TextDocument.Version, changes)
	if err != nil {
		if document.IsInvalidRange(err) {
			return Newf(KindInvalidRange, "%v", err)
		}
		return Newf(KindInternalError, "%v", err)
	}

	adapter, err := s.adapterFor(ctx, p.TextDocument.URI)
	if err != nil {
		return err
	}
	if err := adapter.Change(ctx, snap); err != nil {
		return Newf(KindUnknown, "%v", err)
	}
	return nil
}

type textDocumentIdentifier struct {
	URI document.URI `json:"uri"`
}

type didCloseParams struct {
	TextDocument textDocumentIdentifier `json:"textDocument"`
}

func (s *Server) didClose(ctx context.Context, raw json.RawMessage) error {
	var p didCloseParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return Newf(KindInternalError, "decode didClose: %v", err)
	}
	adapter, err := s.adapterFor(ctx, p.TextDocument.URI)
	if err != nil {
		return err
	}
	if err := adapter.CloseDoc(ctx, p.TextDocument.URI); err != nil {
		logging.Get(logging.CategoryBackend).Warn("didClose: adapter close %s failed: %v", p.TextDocument.URI, err)
	}
	s.docs.Close(p.TextDocument.URI)
	if ws, ok := s.workspaces.WorkspaceFor(string(p.TextDocument.URI)); ok {
		s.adapters.UnrouteDocument(ws.Root, p.TextDocument.URI)
	}
	return nil
}

func (s *Server) didSave(ctx context.Context, raw json.RawMessage) error {
	var p didCloseParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return Newf(KindInternalError, "decode didSave: %v", err)
	}
	adapter, err := s.adapterFor(ctx, p.TextDocument.URI)
	if err != nil {
		return err
	}
	return adapter.Save(ctx, p.TextDocument.URI)
}

// adapterFor finds the adapter currently routed for uri's workspace,
// creating one if this is the first request for that workspace/kind
// pair (a request arriving before didOpen, e.g. a stale client retry).
func (s *Server) adapterFor(ctx context.Context, uri document.URI) (service.Adapter, error) {
	ws, ok := s.workspaces.WorkspaceFor(string(uri))
	if !ok {
		return nil, Newf(KindWorkspaceNotOpen, "%s", uri)
	}
	snap, err := s.docs.Latest(uri)
	language := ""
	if err == nil {
		language = snap.Language
	}
	adapter, aerr := s.adapters.Get(ctx, kindForLanguage(language), ws.Root, language)
	if aerr != nil {
		return nil, Newf(KindInternalError, "%v", aerr)
	}
	return adapter, nil
}

// kindForLanguage maps an LSP languageId to the adapter variant spec
// §4.5 names: C-family languages route to the clangd-shaped adapter,
// everything else to the compile-driven one.
func kindForLanguage(language string) service.BackendKind {
	switch language {
	case "c", "cpp", "objective-c", "objective-cpp":
		return service.KindCFamily
	default:
		return service.KindCompileDriven
	}
}

type positionParam struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

type textDocumentPositionParams struct {
	TextDocument textDocumentIdentifier `json:"textDocument"`
	Position     positionParam          `json:"position"`
}

func toServicePosition(p positionParam) service.Position {
	return service.Position{Line: p.Line, Column: p.Character}
}

type renameParams struct {
	textDocumentPositionParams
	NewName string `json:"newName"`
}

func (s *Server) rename(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var p renameParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, Newf(KindInternalError, "decode rename: %v", err)
	}
	adapter, err := s.adapterFor(ctx, p.TextDocument.URI)
	if err != nil {
		return nil, err
	}

	// Cross-file rename can touch many files; report it as a work-done
	// progress period, best-effort (spec §7: progress creation failures
	// log and continue rather than fail the rename).
	tracker := s.progressFor("rename")
	if tracker != nil {
		tracker.Start(ctx)
		defer tracker.End(ctx)
	}

	edits, err := s.renameEngine.Rename(ctx, adapter, p.TextDocument.URI, toServicePosition(p.Position), p.NewName)
	if err != nil {
		return nil, Newf(KindUnknown, "%v", err)
	}
	return map[string]interface{}{"changes": edits}, nil
}

func (s *Server) definition(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var p textDocumentPositionParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, Newf(KindInternalError, "decode definition: %v", err)
	}
	adapter, err := s.adapterFor(ctx, p.TextDocument.URI)
	if err != nil {
		return nil, err
	}
	locs, err := s.nav.Definition(ctx, adapter, p.TextDocument.URI, toServicePosition(p.Position))
	if err != nil {
		return nil, Newf(KindUnknown, "%v", err)
	}
	return locs, nil
}

type referenceParams struct {
	textDocumentPositionParams
	Context struct {
		IncludeDeclaration bool `json:"includeDeclaration"`
	} `json:"context"`
}

func (s *Server) references(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var p referenceParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, Newf(KindInternalError, "decode references: %v", err)
	}
	adapter, err := s.adapterFor(ctx, p.TextDocument.URI)
	if err != nil {
		return nil, err
	}
	locs, err := s.nav.References(ctx, adapter, p.TextDocument.URI, toServicePosition(p.Position), p.Context.IncludeDeclaration)
	if err != nil {
		return nil, Newf(KindUnknown, "%v", err)
	}
	return locs, nil
}

func (s *Server) prepareCallHierarchy(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var p textDocumentPositionParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, Newf(KindInternalError, "decode prepareCallHierarchy: %v", err)
	}
	adapter, err := s.adapterFor(ctx, p.TextDocument.URI)
	if err != nil {
		return nil, err
	}
	items, err := s.hier.PrepareCallHierarchy(ctx, adapter, p.TextDocument.URI, toServicePosition(p.Position))
	if err != nil {
		return nil, Newf(KindUnknown, "%v", err)
	}
	return items, nil
}

type callHierarchyItemParam struct {
	Item hierarchy.HierarchyItem `json:"item"`
}

func (s *Server) incomingCalls(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var p callHierarchyItemParam
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, Newf(KindInternalError, "decode incomingCalls: %v", err)
	}
	calls, err := s.hier.IncomingCalls(ctx, p.Item)
	if err != nil {
		return nil, Newf(KindUnknown, "%v", err)
	}
	return calls, nil
}

func (s *Server) outgoingCalls(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var p callHierarchyItemParam
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, Newf(KindInternalError, "decode outgoingCalls: %v", err)
	}
	calls, err := s.hier.OutgoingCalls(ctx, p.Item)
	if err != nil {
		return nil, Newf(KindUnknown, "%v", err)
	}
	return calls, nil
}

type workspaceSymbolParams struct {
	Query string `json:"query"`
}

func (s *Server) workspaceSymbol(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var p workspaceSymbolParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, Newf(KindInternalError, "decode workspace/symbol: %v", err)
	}
	matches, err := hierarchy.SearchWorkspaceSymbols(ctx, s.workspaces, p.Query)
	if err != nil {
		return nil, Newf(KindUnknown, "%v", err)
	}
	return matches, nil
}

// Shutdown tears down every adapter and waits for the scheduler's
// in-flight tasks to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, a := range s.adapters.All() {
		if err := a.Shutdown(ctx); err != nil {
			logging.Get(logging.CategoryBoot).Warn("shutdown: adapter shutdown failed: %v", err)
		}
	}
	return s.sched.Wait()
}
