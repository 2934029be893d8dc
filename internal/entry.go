// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/pinnote/internal/api"
	"github.com/starford/pinnote/internal/index"
	"github.com/starford/pinnote/internal/mcpserver"
	"github.com/starford/pinnote/internal/noteservice"
	"github.com/starford/pinnote/internal/notestore"
	"github.com/starford/pinnote/internal/sse"
	"github.com/starford/pinnote/internal/storage"
)

var errConfigRequired = errors.New("config is required")

// OpenStore loads the notes directory named by cfg. Unreadable notes are
// logged and listed in the report; they do not fail the load.
func OpenStore(cfg *Config, logger *slog.Logger) (*notestore.Store, notestore.LoadReport, error) {
	dir, err := cfg.Settings.ResolveNotesPath()
	if err != nil {
		return nil, notestore.LoadReport{}, err
	}
	fs, err := storage.NewFS(dir)
	if err != nil {
		return nil, notestore.LoadReport{}, fmt.Errorf("init storage: %w", err)
	}
	return notestore.Open(fs, notestore.WithLogger(logger))
}

// OpenService returns a service over the configured notes directory with no
// search index attached.
func OpenService(cfg *Config, logger *slog.Logger) (*noteservice.Service, notestore.LoadReport, error) {
	store, report, err := OpenStore(cfg, logger)
	if err != nil {
		return nil, report, err
	}
	return noteservice.NewService(store, noteservice.WithConfigFile(cfg.File)), report, nil
}

// runtime is the wired set of long-lived components shared by serve and mcp.
type runtime struct {
	store   *notestore.Store
	db      *index.DB
	svc     *noteservice.Service
	watcher *index.Watcher
}

// openRuntime opens the store and the index, brings the index up to date and
// registers the observers that keep index and watcher in step with the store.
// Extra observers are registered before any goroutine sees the store.
func openRuntime(cfg *Config, logger *slog.Logger, observers ...notestore.Observer) (*runtime, error) {
	store, report, err := OpenStore(cfg, logger)
	if err != nil {
		return nil, err
	}
	if w := report.Warning(); w != "" {
		logger.Warn(w)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	watcher := index.NewWatcher(store, store.Root(), logger)

	store.Observe(index.Observer(db, store, logger))
	store.Observe(func(ev notestore.Event) {
		if ev.Kind == notestore.EventRelocated {
			watcher.Retarget(store.Root())
		}
	})
	for _, o := range observers {
		store.Observe(o)
	}

	svc := noteservice.NewService(store,
		noteservice.WithIndex(db),
		noteservice.WithConfigFile(cfg.File),
	)
	return &runtime{store: store, db: db, svc: svc, watcher: watcher}, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := app.logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("notes_path", cfg.Settings.NotesPath),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	rt, err := openRuntime(cfg, logger, broker.Observer())
	if err != nil {
		return err
	}
	defer rt.db.Close()

	apiRouter := api.NewRouter(rt.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := os.Stat(rt.store.Root()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"notes directory unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		runWatcher(gCtx, rt.watcher, logger)
		return nil
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		// A non-nil result cancels gCtx, which stops the watcher.
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

var errShutdown = errors.New("shutdown")

// runWatcher runs w until ctx ends. A failure is logged and outside edits
// then go unnoticed.
func runWatcher(ctx context.Context, w *index.Watcher, logger *slog.Logger) {
	if err := w.Run(ctx); err != nil {
		logger.Warn("watcher disabled", slog.String("error", err.Error()))
	}
}

// RunMCP serves the MCP tools on stdin/stdout until the client disconnects.
// The watcher keeps running alongside so outside edits stay visible.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// stdout carries the MCP transport.
	logger := app.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}
	slog.SetDefault(logger)

	rt, err := openRuntime(cfg, logger)
	if err != nil {
		return err
	}
	defer rt.db.Close()

	srv := mcpserver.New(rt.svc, app.version)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		runWatcher(gCtx, rt.watcher, logger)
		return nil
	})

	g.Go(func() error {
		defer cancel()
		logger.Info("mcp: serving on stdio", slog.String("notes_path", rt.store.Root()))
		return srv.ServeStdio()
	})

	return g.Wait()
}
