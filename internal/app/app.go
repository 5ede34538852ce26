// Package app opens a configured library and serves it, shared by the API
// server and the batch CLI.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	nethttp "net/http"
	"path/filepath"
	"time"

	"fmfm/internal/config"
	"fmfm/internal/filestore"
	"fmfm/internal/http"
	"fmfm/internal/library"
	"fmfm/internal/storage"
)

const (
	shutdownTimeout     = 10 * time.Second
	stagingCleanTimeout = time.Second
)

// App is an open library with the resources behind it.
type App struct {
	Config  *config.Config
	DB      *sql.DB
	Files   *filestore.Store
	Lock    *filestore.WriterLock
	Library *library.Library
}

// NewLogger builds the process logger from cfg.
func NewLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.LogLevel)}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Open opens and migrates the database, prepares the file store and wires
// the library.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := storage.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	slog.InfoContext(ctx, "Database initialized", "path", cfg.DBPath)

	files, err := filestore.New(cfg.UploadDir, cfg.ThumbnailDir, cfg.ThumbnailSize)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	lock, err := filestore.NewWriterLock(filepath.Dir(cfg.DBPath))
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	// A busy lock means another process is writing; its leftovers wait for
	// the next start.
	cleanCtx, cancel := context.WithTimeout(ctx, stagingCleanTimeout)
	err = files.CleanStaging(cleanCtx, lock)
	cancel()
	if err != nil {
		slog.WarnContext(ctx, "skipped staging cleanup", "error", err)
	}

	lib, err := library.New(db, files, lock, library.Options{
		EPUBChunkBudget: cfg.EPUBChunkBudget,
		ExtractTimeout:  cfg.ExtractTimeout,
		SearchLimit:     cfg.SearchLimit,
		PageCacheSize:   cfg.PageCacheSize,
		RefreshJobs:     cfg.RefreshJobs,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create library: %w", err)
	}

	return &App{Config: cfg, DB: db, Files: files, Lock: lock, Library: lib}, nil
}

// Close releases the database.
func (a *App) Close() error {
	return a.DB.Close()
}

// Router returns the HTTP API for the library.
func (a *App) Router() nethttp.Handler {
	return http.NewRouter(&http.Deps{
		Library:       a.Library,
		AcceptedTypes: a.Config.AcceptedTypes,
		PerPageEntry:  a.Config.PerPageEntry,
		PerPageSearch: a.Config.PerPageSearch,
	})
}

// Serve runs the HTTP API until ctx is done, then shuts down gracefully.
func (a *App) Serve(ctx context.Context) error {
	srv := &nethttp.Server{
		Addr:              ":" + a.Config.APIPort,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "Starting API server", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, nethttp.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("API server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	slog.Info("Shutting down API server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down API server: %w", err)
	}
	return nil
}
