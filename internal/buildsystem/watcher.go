package buildsystem

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"codenerd/internal/config"
	"codenerd/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// changeKind classifies a debounced filesystem event for Watcher's own
// dispatch, distinct from the three ChangeNotifier callbacks it maps to.
type changeKind int

const (
	kindSource changeKind = iota
	kindManifest
	kindCompileDB
)

// Watcher watches a workspace directory tree for the three kinds of
// change spec §6 assigns to the core: source file create/delete,
// manifest change, and compilation-database create/change/delete. It
// debounces rapid bursts of events (editors and build systems both
// tend to rewrite a file as delete+create) before notifying.
//
// Grounded on the teacher's internal/core/mangle_watcher.go: a single
// fsnotify.Watcher, a debounce map of path -> last-event-time drained
// by a ticker, and a stop/done channel pair for graceful shutdown.
type Watcher struct {
	mu      sync.Mutex
	watcher *fsnotify.Watcher
	root    string
	rules   config.WatchConfig
	notify  ChangeNotifier

	debounceMap map[string]time.Time
	debounceDur time.Duration

	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewWatcher constructs a Watcher rooted at workspaceRoot. Start must
// be called to begin watching.
func NewWatcher(workspaceRoot string, rules config.WatchConfig, notify ChangeNotifier) *Watcher {
	return &Watcher{
		root:        workspaceRoot,
		rules:       rules,
		notify:      notify,
		debounceMap: make(map[string]time.Time),
		debounceDur: 100 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Start begins watching the workspace tree. It adds every directory
// under root (fsnotify does not watch recursively on its own) and
// launches the event loop in a background goroutine.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.watcher = fw
	w.running = true
	w.mu.Unlock()

	err = filepath.Walk(w.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // best-effort: an unreadable subtree isn't fatal to the watch
		}
		if info.IsDir() {
			if addErr := fw.Add(path); addErr != nil {
				logging.Get(logging.CategoryBuildsystem).Warn("watcher: failed to watch %s: %v", path, addErr)
			}
		}
		return nil
	})
	if err != nil {
		logging.Get(logging.CategoryBuildsystem).Warn("watcher: walk of %s failed: %v", w.root, err)
	}

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		logging.Get(logging.CategoryBuildsystem).Error("watcher: error closing: %v", err)
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.debounceDur)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Get(logging.CategoryBuildsystem).Error("watcher error: %v", err)
		case <-ticker.C:
			w.processDebounced()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// A new directory needs its own watch added, immediately, so events
	// inside it aren't missed while waiting for the next debounce tick.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watcher.Add(event.Name); err != nil {
				logging.Get(logging.CategoryBuildsystem).Warn("watcher: failed to watch new dir %s: %v", event.Name, err)
			}
			return
		}
	}

	kind, ok := w.classify(event.Name)
	if !ok {
		return
	}
	// A rename away from a path is that path's delete; a manifest saved by
	// replacement arrives as a create.
	var wanted fsnotify.Op
	switch kind {
	case kindSource:
		wanted = fsnotify.Create | fsnotify.Remove | fsnotify.Rename
	case kindManifest:
		wanted = fsnotify.Write | fsnotify.Create
	case kindCompileDB:
		wanted = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename
	}
	if event.Op&wanted == 0 {
		return
	}

	w.mu.Lock()
	w.debounceMap[event.Name] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) processDebounced() {
	w.mu.Lock()
	now := time.Now()
	var settled []string
	for path, at := range w.debounceMap {
		if now.Sub(at) >= w.debounceDur {
			settled = append(settled, path)
			delete(w.debounceMap, path)
		}
	}
	w.mu.Unlock()

	if len(settled) == 0 {
		return
	}

	var sourceURIs, manifestURIs, compileDBURIs []string
	for _, path := range settled {
		switch kind, _ := w.classify(path); kind {
		case kindSource:
			sourceURIs = append(sourceURIs, path)
		case kindManifest:
			manifestURIs = append(manifestURIs, path)
		case kindCompileDB:
			compileDBURIs = append(compileDBURIs, path)
		}
	}

	// Per spec §6: source create/delete and compile-db changes affect
	// which files the build system can handle and what compiler flags
	// it returns; manifest changes affect both build settings and the
	// dependency graph.
	if len(sourceURIs) > 0 || len(compileDBURIs) > 0 {
		w.notify.FileHandlingCapabilityChanged()
	}
	if len(compileDBURIs) > 0 {
		w.notify.FileBuildSettingsChanged(compileDBURIs)
	}
	if len(manifestURIs) > 0 {
		w.notify.FileBuildSettingsChanged(manifestURIs)
		w.notify.FilesDependenciesUpdated(manifestURIs)
	}
}

// classify reports which of the three watch rules path matches, per
// the extensions/filenames spec §6 assigns to the core.
func (w *Watcher) classify(path string) (changeKind, bool) {
	base := filepath.Base(path)

	for _, name := range w.rules.CompilationDatabaseFilenames {
		if base == name {
			return kindCompileDB, true
		}
	}
	for _, name := range w.rules.ManifestFilenames {
		if base == name {
			return kindManifest, true
		}
	}
	for _, ext := range w.rules.SourceExtensions {
		if strings.HasSuffix(base, ext) {
			return kindSource, true
		}
	}
	return 0, false
}
