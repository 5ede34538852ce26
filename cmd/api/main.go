package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"fmfm/internal/app"
	"fmfm/internal/config"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API serves a personal document library: upload, browse, edit and
// full-text search of PDF, image-archive, EPUB and Markdown documents.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: fmfm API
//   description: |
//     Personal document library with Japanese-aware full-text search.
//     Documents are numbered on upload, indexed per page or section,
//     and searchable with per-hit excerpts.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
//   - multipart/form-data
// produces:
//   - application/json

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := app.NewLogger(os.Stdout, cfg)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel, "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open library: %v", err)
	}
	defer func() {
		_ = a.Close()
	}()

	if err := a.Serve(ctx); err != nil {
		slog.Error("API server stopped", "error", err)
		os.Exit(1)
	}
}
