package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"codenerd/internal/buildsystem"
	"codenerd/internal/hierarchy"
	"codenerd/internal/index"
	"codenerd/internal/logging"
	"codenerd/internal/lspcore"
	"codenerd/internal/rpc"
	"codenerd/internal/service"
	"codenerd/internal/service/fakeadapter"
)

var inprocess bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start the LSP core on stdio",
	Long: `Starts the LSP core, reading JSON-RPC requests from stdin and writing
responses to stdout, per the LSP base protocol.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&inprocess, "inprocess", true, "use the in-process tree-sitter adapter instead of spawning a real toolchain (no real backend wiring exists yet)")
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, ws, err := loadConfig()
	if err != nil {
		return err
	}

	if !inprocess {
		return fmt.Errorf("serve: spawning a real toolchain subprocess is not implemented; rerun with --inprocess")
	}

	// fakeadapter runs entirely in-process, so it never implements
	// service.CrashObserver: the registry's crash-recovery replay
	// (internal/registry.Registry.watchCrash) is real and tested, but
	// has nothing to subscribe to here until this factory constructs a
	// backend.ProcessTransport-backed adapter instead.
	factory := func(ctx context.Context, kind service.BackendKind, root, language string) (service.Adapter, error) {
		logging.Get(logging.CategoryRegistry).Info("creating in-process adapter kind=%s root=%s language=%s", kind, root, language)
		return fakeadapter.New(kind, root), nil
	}

	var idx index.Index // no persisted index collaborator is wired in this binary (spec §6)
	srv := lspcore.New(cfg, factory, idx, hierarchy.FileReader(readFile))
	srv.AddWorkspace(ws, nil)

	watcher := buildsystem.NewWatcher(ws, cfg.Watch, srv)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := watcher.Start(ctx); err != nil {
		logging.Get(logging.CategoryBuildsystem).Warn("file watcher failed to start: %v", err)
	}
	defer watcher.Stop()

	conn := rpc.NewConn(rpc.NewCodec(os.Stdin, os.Stdout), srv)
	srv.Attach(conn)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logging.Get(logging.CategoryBoot).Info("received shutdown signal")
		cancel()
	}()

	logging.Get(logging.CategoryBoot).Info("lspcored serving workspace=%s", ws)
	if err := conn.Serve(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("serve: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}
