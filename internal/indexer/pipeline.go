// Package indexer refreshes an entry's search index rows, thumbnail and
// metadata from its stored file.
package indexer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"fmfm/internal/contextutil"
	"fmfm/internal/extract"
	"fmfm/internal/filestore"
	"fmfm/internal/service"
	"fmfm/internal/storage"
	"fmfm/internal/tokenizer"
)

// DefaultExtractTimeout bounds a single extraction.
const DefaultExtractTimeout = 2 * time.Minute

// Defaults for entry view flags, applied only to unset fields.
const (
	DefaultSpread      = true
	DefaultRightToLeft = false
	DefaultHidden      = false
)

// Pipeline orchestrates refreshes: extract, tokenize, then replace index
// rows and update the entry in one transaction. The thumbnail is published
// only once that transaction commits.
type Pipeline struct {
	db         *sql.DB
	books      storage.BookStore
	index      storage.IndexStore
	files      *filestore.Store
	lock       *filestore.WriterLock
	extractors *extract.Set
	timeout    time.Duration
}

// NewPipeline creates a refresh pipeline. A zero timeout uses DefaultExtractTimeout.
func NewPipeline(
	db *sql.DB,
	files *filestore.Store,
	lock *filestore.WriterLock,
	extractors *extract.Set,
	timeout time.Duration,
) *Pipeline {
	if timeout <= 0 {
		timeout = DefaultExtractTimeout
	}
	return &Pipeline{
		db:         db,
		books:      storage.NewBookRepo(db),
		index:      storage.NewIndexRepo(db),
		files:      files,
		lock:       lock,
		extractors: extractors,
		timeout:    timeout,
	}
}

// Refresh re-reads entry number's stored file and rebuilds everything derived
// from it. With extractTitle the document's own title replaces the current
// one when the format provides it. Nothing is written when extraction fails.
func (p *Pipeline) Refresh(ctx context.Context, number int64, extractTitle bool) error {
	logger := contextutil.LoggerFromContext(ctx)

	entry, err := p.books.Get(ctx, number)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("entry %d: %w", number, service.ErrNotFound)
	}
	if err != nil {
		return service.StoreFailure("load entry", err)
	}

	format, err := extract.ParseFormat(entry.Filetype)
	if err != nil {
		return fmt.Errorf("%w: entry %d: %v", service.ErrInvalidFormat, number, err)
	}
	extractor, err := p.extractors.For(format)
	if err != nil {
		return fmt.Errorf("%w: entry %d: %v", service.ErrInvalidFormat, number, err)
	}

	path := p.files.Path(number, entry.Filetype)
	start := time.Now()
	result, err := p.extract(ctx, extractor, path)
	if err != nil {
		return fmt.Errorf("failed to extract entry %d: %w", number, err)
	}

	hash, err := filestore.HashFile(path)
	if err != nil {
		return fmt.Errorf("failed to hash entry %d: %w", number, err)
	}

	rows := BuildRows(number, result.Chunks)
	cover := result.Cover
	if cover == nil {
		cover = extract.Placeholder()
	}
	thumb, err := p.files.PrepareThumbnail(number, cover)
	if err != nil {
		return service.StoreFailure(fmt.Sprintf("thumbnail %d", number), err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if err := thumb.Discard(); err != nil {
			logger.WarnContext(ctx, "failed to discard thumbnail", "number", number, "error", err)
		}
	}()

	if err := p.lock.Lock(ctx); err != nil {
		return service.StoreFailure("lock", err)
	}
	defer func() {
		if err := p.lock.Unlock(); err != nil {
			logger.ErrorContext(ctx, "failed to release writer lock", "error", err)
		}
	}()

	// The flags may have been set since the snapshot above.
	err = storage.WithTx(ctx, p.db, func(ctx context.Context, tx storage.DBTX) error {
		books := storage.NewBookRepo(tx)
		current, err := books.Get(ctx, number)
		if err != nil {
			return err
		}
		if err := storage.NewIndexRepo(tx).Replace(ctx, number, rows); err != nil {
			return err
		}
		return books.Apply(ctx, number, Changes(current, result, hash, extractTitle))
	})
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("entry %d: %w", number, service.ErrNotFound)
	case errors.Is(err, storage.ErrDuplicateHash):
		return fmt.Errorf("%w: stored file of entry %d matches another entry", service.ErrDuplicateContent, number)
	case err != nil:
		return service.StoreFailure(fmt.Sprintf("refresh %d", number), err)
	}

	committed = true
	if err := thumb.Commit(); err != nil {
		return service.StoreFailure(fmt.Sprintf("thumbnail %d", number), err)
	}

	logger.InfoContext(ctx, "refreshed entry",
		"number", number,
		"filetype", entry.Filetype,
		"pages", result.PageCount,
		"rows", len(rows),
		"duration", time.Since(start),
	)
	return nil
}

// extract runs the extractor under the pipeline's timeout. On timeout the
// extractor goroutine is abandoned; its result is discarded.
func (p *Pipeline) extract(ctx context.Context, ex extract.Extractor, path string) (*extract.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	type outcome struct {
		result *extract.Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("extractor panic: %v", r)}
			}
		}()
		res, err := ex.Extract(ctx, path)
		done <- outcome{result: res, err: err}
	}()

	select {
	case o := <-done:
		if o.err == nil && o.result == nil {
			return nil, errors.New("extractor returned no result")
		}
		return o.result, o.err
	case <-ctx.Done():
		return nil, fmt.Errorf("extraction of %s stopped: %w", path, ctx.Err())
	}
}

// BuildRows turns extracted chunks into index rows, bigram-tokenizing the
// chunks that need it.
func BuildRows(number int64, chunks []extract.Chunk) []storage.IndexRow {
	rows := make([]storage.IndexRow, 0, len(chunks))
	for _, c := range chunks {
		rows = append(rows, storage.IndexRow{
			Number:    number,
			Position:  c.Position,
			NgramText: tokenizer.Tokenize(c.Text),
			PlainText: c.Text,
		})
	}
	return rows
}

// Changes computes the entry fields a refresh writes. View flags are only
// set when still unset.
func Changes(entry *storage.Entry, result *extract.Result, hash string, extractTitle bool) storage.EntryChanges {
	pageCount := result.PageCount
	changes := storage.EntryChanges{
		PageCount:   &pageCount,
		ContentHash: &hash,
	}
	if extractTitle {
		if title := strings.TrimSpace(result.TitleHint); title != "" {
			changes.Title = &title
		}
	}
	if entry.Spread == nil {
		v := DefaultSpread
		changes.Spread = &v
	}
	if entry.RightToLeft == nil {
		v := DefaultRightToLeft
		changes.RightToLeft = &v
	}
	if entry.Hidden == nil {
		v := DefaultHidden
		changes.Hidden = &v
	}
	return changes
}

// RefreshAll refreshes numbers, or every entry when numbers is empty, with at
// most jobs extractions in flight. Errors for individual entries are logged
// and counted; collisions and store failures stop the batch.
func (p *Pipeline) RefreshAll(ctx context.Context, numbers []int64, extractTitle bool, jobs int) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(numbers) == 0 {
		var err error
		numbers, err = p.books.Numbers(ctx)
		if err != nil {
			return service.StoreFailure("list entries", err)
		}
	}
	if jobs < 1 {
		jobs = 1
	}

	logger.InfoContext(ctx, "starting refresh", "entries", len(numbers), "jobs", jobs)

	var successCount, errorCount atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for _, number := range numbers {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			err := p.Refresh(gctx, number, extractTitle)
			if err == nil {
				successCount.Add(1)
				return nil
			}
			errorCount.Add(1)
			logger.ErrorContext(gctx, "failed to refresh entry", "number", number, "error", err)
			if service.Fatal(err) {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("refresh aborted: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	logger.InfoContext(ctx, "refresh completed",
		"entries", len(numbers), "success", successCount.Load(), "errors", errorCount.Load())

	if n := errorCount.Load(); n > 0 {
		return fmt.Errorf("refresh completed with %d errors", n)
	}
	return nil
}
