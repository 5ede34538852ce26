// Package library is the entry point used by the HTTP API and the CLI. It
// wires registration, refresh, search, browsing and page serving over one
// store.
package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"fmfm/internal/contextutil"
	"fmfm/internal/extract"
	"fmfm/internal/filestore"
	"fmfm/internal/indexer"
	"fmfm/internal/pages"
	"fmfm/internal/registry"
	"fmfm/internal/search"
	"fmfm/internal/service"
	"fmfm/internal/storage"
)

const (
	// MaxTextLength caps user-edited text fields, in characters.
	MaxTextLength = 1000
	// DefaultPerPage is the number of entries per listing page.
	DefaultPerPage = 50
)

// Options tunes a Library. Zero values use the package defaults.
type Options struct {
	EPUBChunkBudget int
	ExtractTimeout  time.Duration
	SearchLimit     int
	PageCacheSize   int
	RefreshJobs     int
}

// Library serves every operation on one store.
type Library struct {
	db       *sql.DB
	books    storage.BookStore
	files    *filestore.Store
	lock     *filestore.WriterLock
	registry *registry.Registry
	pipeline *indexer.Pipeline
	searcher *search.Searcher
	pages    *pages.Renderer
	jobs     int
}

// New wires a Library over a migrated database and a file store.
func New(db *sql.DB, files *filestore.Store, lock *filestore.WriterLock, opts Options) (*Library, error) {
	books := storage.NewBookRepo(db)
	renderer, err := pages.New(books, files, opts.PageCacheSize)
	if err != nil {
		return nil, err
	}
	jobs := opts.RefreshJobs
	if jobs < 1 {
		jobs = 1
	}
	return &Library{
		db:       db,
		books:    books,
		files:    files,
		lock:     lock,
		registry: registry.New(db, files, lock),
		pipeline: indexer.NewPipeline(db, files, lock, extract.NewSet(extract.Options{EPUBChunkBudget: opts.EPUBChunkBudget}), opts.ExtractTimeout),
		searcher: search.New(books, storage.NewIndexRepo(db), opts.SearchLimit),
		pages:    renderer,
		jobs:     jobs,
	}, nil
}

// Register stores src as a new entry and returns its number.
func (l *Library) Register(ctx context.Context, src io.Reader, filename string) (int64, error) {
	return l.registry.Register(ctx, src, filename)
}

// Add registers src and refreshes the new entry. When only the refresh
// fails, the entry stays registered and its number is returned with the error.
func (l *Library) Add(ctx context.Context, src io.Reader, filename string, extractTitle bool) (int64, error) {
	number, err := l.registry.Register(ctx, src, filename)
	if err != nil {
		return 0, err
	}
	if err := l.pipeline.Refresh(ctx, number, extractTitle); err != nil {
		return number, fmt.Errorf("registered %s as %d but refresh failed: %w", filename, number, err)
	}
	return number, nil
}

// Refresh rebuilds entry number's index rows, thumbnail and metadata.
func (l *Library) Refresh(ctx context.Context, number int64, extractTitle bool) error {
	if err := l.pipeline.Refresh(ctx, number, extractTitle); err != nil {
		return err
	}
	l.pages.Forget(number)
	return nil
}

// RefreshAll refreshes numbers, or every entry when numbers is empty.
// A jobs value below one uses the configured default.
func (l *Library) RefreshAll(ctx context.Context, numbers []int64, extractTitle bool, jobs int) error {
	if jobs < 1 {
		jobs = l.jobs
	}
	err := l.pipeline.RefreshAll(ctx, numbers, extractTitle, jobs)
	for _, n := range numbers {
		l.pages.Forget(n)
	}
	if len(numbers) == 0 {
		l.pages.Purge()
	}
	return err
}

// Remove deletes entry number and its files.
func (l *Library) Remove(ctx context.Context, number int64) error {
	if err := l.registry.Remove(ctx, number); err != nil {
		return err
	}
	l.pages.Forget(number)
	return nil
}

// Search runs a full-text query.
func (l *Library) Search(ctx context.Context, req search.Request) (*search.Page, error) {
	return l.searcher.Search(ctx, req)
}

// ListRequest selects a page of the library.
type ListRequest struct {
	Tag     string
	Sort    string
	Page    int
	PerPage int
}

// EntryPage is one page of entries.
type EntryPage struct {
	Entries []storage.Entry `json:"entries"`
	Total   int             `json:"total"`
	Page    int             `json:"page"`
	PerPage int             `json:"per_page"`
}

// List returns entries whose tags contain req.Tag, sorted and paginated.
func (l *Library) List(ctx context.Context, req ListRequest) (*EntryPage, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PerPage < 1 {
		req.PerPage = DefaultPerPage
	}
	entries, total, err := l.books.List(ctx, storage.ListQuery{
		Tag:    req.Tag,
		Sort:   storage.ParseSort(req.Sort),
		Offset: (req.Page - 1) * req.PerPage,
		Limit:  req.PerPage,
	})
	if err != nil {
		return nil, service.StoreFailure("list entries", err)
	}
	if entries == nil {
		entries = []storage.Entry{}
	}
	return &EntryPage{Entries: entries, Total: total, Page: req.Page, PerPage: req.PerPage}, nil
}

// Get returns entry number.
func (l *Library) Get(ctx context.Context, number int64) (*storage.Entry, error) {
	entry, err := l.books.Get(ctx, number)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("entry %d: %w", number, service.ErrNotFound)
	}
	if err != nil {
		return nil, service.StoreFailure("load entry", err)
	}
	return entry, nil
}

// EntryUpdate is a user edit. Nil fields are left unchanged.
type EntryUpdate struct {
	Title       *string `json:"title,omitempty"`
	Tags        *string `json:"tags,omitempty"`
	Spread      *bool   `json:"spread,omitempty"`
	RightToLeft *bool   `json:"right_to_left,omitempty"`
	Hidden      *bool   `json:"hidden,omitempty"`
}

// Update applies a user edit to entry number. Text fields are trimmed and
// capped at MaxTextLength characters.
func (l *Library) Update(ctx context.Context, number int64, u EntryUpdate) (*storage.Entry, error) {
	changes := storage.EntryChanges{
		Title:       clip(u.Title),
		Tags:        clip(u.Tags),
		Spread:      u.Spread,
		RightToLeft: u.RightToLeft,
		Hidden:      u.Hidden,
	}
	if changes.Empty() {
		return nil, &service.ValidationError{Field: "update", Message: "no fields to update"}
	}

	if err := l.lock.Lock(ctx); err != nil {
		return nil, service.StoreFailure("lock", err)
	}
	err := l.books.Apply(ctx, number, changes)
	if unlockErr := l.lock.Unlock(); unlockErr != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to release writer lock", "error", unlockErr)
	}
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("entry %d: %w", number, service.ErrNotFound)
	}
	if err != nil {
		return nil, service.StoreFailure(fmt.Sprintf("update %d", number), err)
	}
	return l.Get(ctx, number)
}

// clip trims s and cuts it to MaxTextLength characters.
func clip(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if utf8.RuneCountInString(v) > MaxTextLength {
		v = string([]rune(v)[:MaxTextLength])
	}
	return &v
}

// Tags returns every distinct tag in use, sorted.
func (l *Library) Tags(ctx context.Context) ([]string, error) {
	tags, err := l.books.Tags(ctx)
	if err != nil {
		return nil, service.StoreFailure("list tags", err)
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}

// PageImage returns the zero-based page of entry number as an image.
func (l *Library) PageImage(ctx context.Context, number int64, page int) (*pages.Image, error) {
	return l.pages.Page(ctx, number, page)
}

// FilePath returns the stored file of entry number and its filetype.
func (l *Library) FilePath(ctx context.Context, number int64) (string, string, error) {
	entry, err := l.Get(ctx, number)
	if err != nil {
		return "", "", err
	}
	return l.files.Path(number, entry.Filetype), entry.Filetype, nil
}

// ThumbnailPath returns where entry number's thumbnail is stored.
func (l *Library) ThumbnailPath(ctx context.Context, number int64) (string, error) {
	if _, err := l.Get(ctx, number); err != nil {
		return "", err
	}
	return l.files.ThumbnailPath(number), nil
}

// Stats reports index coverage.
func (l *Library) Stats(ctx context.Context) (*indexer.CoverageStats, error) {
	return l.pipeline.Stats(ctx)
}

// Ping checks that the database is reachable.
func (l *Library) Ping(ctx context.Context) error {
	return l.db.PingContext(ctx)
}
