// Package importer registers the documents dropped into an inbox directory,
// moving each one aside once handled.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"fmfm/internal/contextutil"
	"fmfm/internal/service"
)

// DefaultSettle is how long the inbox must stay quiet before a watch-mode
// import runs.
const DefaultSettle = time.Second

// Adder registers and refreshes one document.
type Adder interface {
	Add(ctx context.Context, src io.Reader, filename string, extractTitle bool) (int64, error)
}

// Report counts the outcome of one import pass.
type Report struct {
	Imported   []int64
	Duplicates int
	Skipped    int
	Failed     int
}

// Importer imports inbox files into the library.
type Importer struct {
	inbox  string
	lib    Adder
	settle time.Duration
}

// New creates an Importer for inbox, creating the directory if needed.
func New(inbox string, lib Adder) (*Importer, error) {
	if err := os.MkdirAll(inbox, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create inbox: %w", err)
	}
	return &Importer{inbox: inbox, lib: lib, settle: DefaultSettle}, nil
}

// Run imports every file in the inbox. Duplicates move to the duplicate
// folder, unsupported files stay where they are, and imported files move to
// the finished folder. A collision or store failure stops the pass.
func (im *Importer) Run(ctx context.Context) (*Report, error) {
	logger := contextutil.LoggerFromContext(ctx)

	files, err := im.Scan(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		number, err := im.add(ctx, f)
		switch {
		case err == nil:
			report.Imported = append(report.Imported, number)
			logger.InfoContext(ctx, "imported", "file", f.Name, "number", number)
			if err := im.move(f, FinishedDir); err != nil {
				return report, err
			}
		case number != 0:
			// Registered, but the refresh failed; the entry exists so the
			// source must not be imported again.
			report.Failed++
			report.Imported = append(report.Imported, number)
			logger.WarnContext(ctx, "imported without index", "file", f.Name, "number", number, "error", err)
			if err := im.move(f, FinishedDir); err != nil {
				return report, err
			}
			if service.Fatal(err) {
				return report, fmt.Errorf("import aborted after %s: %w", f.Name, err)
			}
		case errors.Is(err, service.ErrDuplicateContent):
			report.Duplicates++
			logger.WarnContext(ctx, "duplicate content", "file", f.Name, "error", err)
			if err := im.move(f, DuplicateDir); err != nil {
				return report, err
			}
		case errors.Is(err, service.ErrInvalidFormat):
			report.Skipped++
			logger.InfoContext(ctx, "skipping unsupported file", "file", f.Name)
		case service.Fatal(err):
			report.Failed++
			logger.ErrorContext(ctx, "import aborted", "file", f.Name, "error", err)
			return report, fmt.Errorf("import aborted at %s: %w", f.Name, err)
		default:
			report.Failed++
			logger.ErrorContext(ctx, "failed to import", "file", f.Name, "error", err)
		}
	}

	logger.InfoContext(ctx, "import completed",
		"files", len(files),
		"imported", len(report.Imported),
		"duplicates", report.Duplicates,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	return report, nil
}

func (im *Importer) add(ctx context.Context, f ScannedFile) (int64, error) {
	src, err := os.Open(f.AbsPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", f.AbsPath, err)
	}
	defer src.Close()
	return im.lib.Add(ctx, src, f.Name, true)
}

// move puts f into the named inbox subfolder without overwriting an earlier
// file of the same name.
func (im *Importer) move(f ScannedFile, folder string) error {
	dir := filepath.Join(im.inbox, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	dest := filepath.Join(dir, f.Name)
	if _, err := os.Lstat(dest); err == nil {
		ext := filepath.Ext(f.Name)
		dest = filepath.Join(dir, strings.TrimSuffix(f.Name, ext)+"-"+uuid.NewString()[:8]+ext)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to stat %s: %w", dest, err)
	}

	if err := os.Rename(f.AbsPath, dest); err != nil {
		return fmt.Errorf("failed to move %s: %w", f.Name, err)
	}
	return nil
}

// Watch runs an import pass now and again whenever files arrive in the inbox,
// once it has been quiet for the settle period. It returns when ctx is done
// or a pass fails fatally. Each report is passed to onReport when set.
func (im *Importer) Watch(ctx context.Context, onReport func(*Report)) error {
	logger := contextutil.LoggerFromContext(ctx)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(im.inbox); err != nil {
		return fmt.Errorf("failed to watch %s: %w", im.inbox, err)
	}

	run := func() error {
		report, err := im.Run(ctx)
		if report != nil && onReport != nil {
			onReport(report)
		}
		if err != nil && (service.Fatal(err) || ctx.Err() != nil) {
			return err
		}
		if err != nil {
			logger.ErrorContext(ctx, "import pass failed", "error", err)
		}
		return nil
	}
	if err := run(); err != nil {
		return err
	}

	timer := time.NewTimer(im.settle)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Dir(event.Name) != filepath.Clean(im.inbox) {
				continue
			}
			timer.Reset(im.settle)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.WarnContext(ctx, "watcher error", "error", err)
		case <-timer.C:
			if err := run(); err != nil {
				return err
			}
		}
	}
}
