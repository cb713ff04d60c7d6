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

	"github.com/starford/linkmend/internal/api"
	"github.com/starford/linkmend/internal/fixer"
	"github.com/starford/linkmend/internal/index"
	"github.com/starford/linkmend/internal/linkservice"
	"github.com/starford/linkmend/internal/mcpserver"
	"github.com/starford/linkmend/internal/models"
	"github.com/starford/linkmend/internal/report"
	"github.com/starford/linkmend/internal/scanner"
	"github.com/starford/linkmend/internal/storage"
)

// ErrCriticalIssues is returned by Scan with FailOnCritical when at least
// one critical issue was found.
var ErrCriticalIssues = errors.New("critical image link issues found")

// ErrNoFixes is returned by Fix when neither a table nor replacements were given.
var ErrNoFixes = errors.New("no fix entries: pass a table or a file with replacements")

// session holds what every command needs after configuration.
type session struct {
	app    *application
	cfg    *Config
	logger *slog.Logger
	store  *storage.FS
}

func setup(opts []Option) (*session, error) {
	app := newApplication(opts)
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	// Reports own stdout; structured logs go to logOut.
	logger := slog.New(slog.NewJSONHandler(app.logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Debug("Configuration loaded",
		slog.String("docs_root", cfg.Docs.Root),
		slog.Any("extensions", cfg.Docs.Extensions),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, err := storage.NewFS(cfg.Docs.Root, cfg.Docs.Extensions...)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	return &session{app: app, cfg: cfg, logger: logger, store: store}, nil
}

func (rt *session) openIndex() (*index.DB, error) {
	db, err := index.Open(rt.cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}
	stats, err := index.Sync(db, rt.store, rt.logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initial sync: %w", err)
	}
	rt.logger.Info("Index synced",
		slog.Int("indexed", stats.Indexed),
		slog.Int("removed", stats.Removed),
		slog.Int("unchanged", stats.Skipped))
	return db, nil
}

func (rt *session) limits() report.Limits {
	return report.Limits{
		Warnings: rt.cfg.Report.WarningLimit,
		Info:     rt.cfg.Report.InfoLimit,
	}
}

// Scan walks the docs tree, prints the report and optionally emits a fix table.
func Scan(ctx context.Context, params ScanParams, opts ...Option) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}

	sc := scanner.New(rt.store, rt.logger)
	var src scanner.Source = sc
	if params.UseIndex {
		db, err := rt.openIndex()
		if err != nil {
			return err
		}
		defer db.Close()
		src = db
	}

	rep, err := sc.Scan(ctx, src)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	if params.JSON {
		err = report.JSON(rt.app.stdout, rep)
	} else {
		err = report.Console(rt.app.stdout, rep, rt.limits())
	}
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if params.EmitFixes != "" {
		if err := emitFixes(params.EmitFixes, rep); err != nil {
			return err
		}
		rt.logger.Info("Fix table written",
			slog.String("path", params.EmitFixes),
			slog.Int("entries", len(report.FixTable(rep).Fixes)))
	}

	if params.FailOnCritical && len(rep.BySeverity(models.SeverityCritical)) > 0 {
		return ErrCriticalIssues
	}
	return nil
}

func emitFixes(path string, rep *scanner.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create fix table: %w", err)
	}
	if err := report.WriteFixTable(f, rep); err != nil {
		f.Close()
		return fmt.Errorf("write fix table: %w", err)
	}
	return f.Close()
}

// Fix applies a fix table and/or single-file replacements and prints a summary.
func Fix(ctx context.Context, params FixParams, opts ...Option) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}

	var table models.FixTable
	if params.Table != "" {
		if table, err = fixer.LoadTable(params.Table); err != nil {
			return err
		}
	}
	for _, r := range params.Replacements {
		if params.File == "" {
			return fmt.Errorf("fix: --replace needs --file")
		}
		e, err := fixer.ParseReplacement(params.File, r)
		if err != nil {
			return err
		}
		table.Fixes = append(table.Fixes, e)
	}
	if len(table.Fixes) == 0 {
		return ErrNoFixes
	}

	f := fixer.New(rt.store, fixer.WithDryRun(params.DryRun), fixer.WithLogger(rt.logger))
	res, err := f.Apply(ctx, table)
	if err != nil {
		return fmt.Errorf("fix: %w", err)
	}
	return report.FixSummary(rt.app.stdout, res)
}

// Serve runs the REST API and the watcher until ctx is cancelled or a
// shutdown signal arrives.
func Serve(ctx context.Context, opts ...Option) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	cfg, logger := rt.cfg, rt.logger

	db, err := rt.openIndex()
	if err != nil {
		return err
	}
	defer db.Close()

	svc := linkservice.NewService(rt.store, db, logger)
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token)

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
			_, _ = w.Write([]byte(`{"status":"docs root unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Any change in the tree can flip whether a reference resolves.
	g.Go(func() error {
		return index.Watch(gCtx, db, rt.store, logger, svc.OnChange)
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

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

		return context.Canceled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// ServeMCP runs the MCP server on stdin/stdout with the watcher alongside.
func ServeMCP(ctx context.Context, opts ...Option) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}

	db, err := rt.openIndex()
	if err != nil {
		return err
	}
	defer db.Close()

	svc := linkservice.NewService(rt.store, db, rt.logger)
	srv := mcpserver.New(svc, rt.app.version)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return index.Watch(gCtx, db, rt.store, rt.logger, svc.OnChange)
	})
	g.Go(func() error {
		defer cancel()
		rt.logger.Info("MCP server starting on stdio")
		return srv.ServeStdio()
	})

	return g.Wait()
}
