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

	"github.com/starford/taglog/internal/api"
	"github.com/starford/taglog/internal/eventlog"
	"github.com/starford/taglog/internal/index"
	"github.com/starford/taglog/internal/journal"
	"github.com/starford/taglog/internal/mcpserver"
	"github.com/starford/taglog/internal/reconcile"
	"github.com/starford/taglog/internal/sse"
	"github.com/starford/taglog/internal/storage"
	"github.com/starford/taglog/internal/tagservice"
)

// runtime holds the components shared by every command.
type runtime struct {
	cfg    *Config
	now    func() time.Time
	logger *slog.Logger
	log    *eventlog.Log
	store  *storage.FS
}

func setup(opts []Option) (*runtime, error) {
	app := &application{now: time.Now, logOut: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Debug("Configuration loaded",
		slog.String("journal_dir", cfg.Journal.Dir),
		slog.String("window", cfg.Journal.Window.String()),
		slog.String("event_log", cfg.EventLog.Path),
		slog.String("index_path", cfg.Index.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure journal directory exists.
	if err := os.MkdirAll(cfg.Journal.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Journal.Dir)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	log := eventlog.New(cfg.EventLog.Path,
		eventlog.WithApp(cfg.App.Name),
		eventlog.WithClock(app.now),
	)

	return &runtime{cfg: cfg, now: app.now, logger: logger, log: log, store: store}, nil
}

func (rt *runtime) today() string {
	return journal.Filename(rt.now())
}

// reconcileWindow runs one reconciliation pass over the files modified within the
// configured window, then finalizes today's file.
func (rt *runtime) reconcileWindow(ctx context.Context, rec *reconcile.Reconciler) (reconcile.Summary, error) {
	since := rt.now().Add(-rt.cfg.Journal.Window)
	coord := reconcile.NewCoordinator(rec, rt.log, rt.today, rt.logger)
	return coord.Run(ctx, rt.store.Candidates(since))
}

// Run performs one reconciliation run. The returned error is non-nil when any
// event-log append failed.
func Run(ctx context.Context, opts ...Option) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}

	rec := reconcile.New(rt.store, rt.log, rt.logger)
	if _, err := rt.reconcileWindow(ctx, rec); err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}
	return nil
}

// NewJournal creates today's journal file from the template and returns its name.
func NewJournal(_ context.Context, opts ...Option) (string, error) {
	rt, err := setup(opts)
	if err != nil {
		return "", err
	}
	return journal.NewCreator(rt.store, rt.log, rt.logger).Create(rt.now())
}

// ServeMCP serves the read-only MCP tools over stdio. Diagnostic logs go to stderr
// so they never mix with the protocol stream.
func ServeMCP(_ context.Context, opts ...Option) error {
	opts = append(opts, WithLogOutput(os.Stderr))
	rt, err := setup(opts)
	if err != nil {
		return err
	}

	db, err := index.Open(rt.cfg.Index.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	svc := tagservice.NewService(rt.log, db, rt.logger)
	return mcpserver.New(svc).ServeStdio()
}

// Serve runs one reconciliation pass, then keeps the journal reconciled from
// filesystem events and serves the HTTP API until SIGINT or SIGTERM.
func Serve(ctx context.Context, opts ...Option) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	cfg := rt.cfg
	logger := rt.logger

	rec := reconcile.New(rt.store, rt.log, logger)
	if _, err := rt.reconcileWindow(ctx, rec); err != nil {
		logger.Warn("initial run failed", slog.String("error", err.Error()))
	}

	// Initialize SQLite projection.
	db, err := index.Open(cfg.Index.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	svc := tagservice.NewService(rt.log, db, logger)
	if err := svc.Refresh(ctx); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
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
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := svc.Refresh(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	// All reconciliation after the initial run happens here, one file at a time.
	g.Go(func() error {
		return index.Watch(gCtx, rt.store.Root(), index.DefaultDebounce, logger, func(path string) {
			rel, err := rt.store.Rel(path)
			if err != nil {
				logger.Warn("watcher: path outside journal", slog.String("path", path))
				return
			}
			out := rec.Reconcile(rel)
			if out.Decision == reconcile.DecisionNoChange {
				return
			}
			if err := svc.Refresh(gCtx); err != nil {
				logger.Warn("projection refresh failed", slog.String("error", err.Error()))
			}
			broker.PublishOutcome(string(out.Decision), out.File, out.Tags, string(out.Reason))
		})
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	// The day may have changed while serving.
	coord := reconcile.NewCoordinator(rec, rt.log, rt.today, logger)
	if _, err := coord.Finalize(); err != nil {
		logger.Error("finalize failed", slog.String("error", err.Error()))
	}

	logger.Info("Server stopped successfully")
	return nil
}
