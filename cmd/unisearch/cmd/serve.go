package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/openarchive/unisearch/internal/index"
	"github.com/openarchive/unisearch/internal/logging"
	"github.com/openarchive/unisearch/internal/mcp"
	"github.com/openarchive/unisearch/internal/store"
	"github.com/openarchive/unisearch/pkg/version"
)

func newServeCmd() *cobra.Command {
	var transport string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the MCP server over stdio.

The server watches the archive database and rebuilds the index when
it changes. Only one server may own an archive's data directory at a
time.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if transport != "" {
				return runServeTransport(cmd.Context(), transport)
			}
			return runServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "", "Transport override (default from config: stdio)")

	return cmd
}

func runServe(ctx context.Context) error {
	return runServeTransport(ctx, "")
}

func runServeTransport(ctx context.Context, transport string) error {
	// stdout carries JSON-RPC exclusively; all status output goes to the
	// log file.
	if !debugMode {
		logCfg := logging.DefaultConfig()
		logCfg.WriteToStderr = false
		if logger, cleanup, err := logging.Setup(logCfg); err == nil {
			defer cleanup()
			slog.SetDefault(logger)
		}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	lock := store.NewDirLock(dataDir())
	if err := lock.TryLock(); err != nil {
		return err
	}
	defer lock.Unlock()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if transport == "" {
		transport = a.cfg.Server.Transport
	}

	watcher, err := startWatcher(ctx, a)
	if err != nil {
		return err
	}
	if watcher != nil {
		defer watcher.Stop()
	}

	server, err := mcp.NewServer(a.svc)
	if err != nil {
		return err
	}

	stats, _ := a.ix.Stats()
	slog.Info("server_started",
		slog.String("version", version.Version),
		slog.String("transport", transport),
		slog.String("archive", a.archive.Path()),
		slog.Int("records", stats.Total))

	return server.Serve(ctx, transport)
}

// startWatcher watches the archive database and rebuilds the index
// after changes settle. Returns nil when watching is disabled.
func startWatcher(ctx context.Context, a *app) (*index.Watcher, error) {
	debounce, err := a.cfg.WatchDebounce()
	if err != nil {
		return nil, err
	}
	if debounce == 0 {
		return nil, nil
	}

	w, err := index.NewWatcher(archivePath(a.cfg), debounce, func(ctx context.Context) error {
		if err := a.ix.Rebuild(ctx); err != nil {
			return err
		}
		if a.excerpts != nil {
			return a.reindexExcerpts(ctx)
		}
		return nil
	})
	if err != nil {
		// A missing watch target is not fatal for serving.
		slog.Warn("archive watch unavailable", slog.String("error", err.Error()))
		return nil, nil
	}
	// Start blocks until cancellation, so it runs beside the server.
	go func() {
		if err := w.Start(ctx); err != nil && err != context.Canceled {
			slog.Warn("archive watch stopped", slog.String("error", err.Error()))
		}
	}()
	return w, nil
}
