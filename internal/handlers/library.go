package handlers

import (
	"context"
	"io"

	"fmfm/internal/indexer"
	"fmfm/internal/library"
	"fmfm/internal/pages"
	"fmfm/internal/search"
	"fmfm/internal/storage"
)

//go:generate mockgen -destination=mocks/mock_library.go -package=mocks fmfm/internal/handlers Library

// Library is what the HTTP layer needs from the document library.
type Library interface {
	Add(ctx context.Context, src io.Reader, filename string, extractTitle bool) (int64, error)
	Refresh(ctx context.Context, number int64, extractTitle bool) error
	Remove(ctx context.Context, number int64) error
	Search(ctx context.Context, req search.Request) (*search.Page, error)
	List(ctx context.Context, req library.ListRequest) (*library.EntryPage, error)
	Get(ctx context.Context, number int64) (*storage.Entry, error)
	Update(ctx context.Context, number int64, u library.EntryUpdate) (*storage.Entry, error)
	Tags(ctx context.Context) ([]string, error)
	PageImage(ctx context.Context, number int64, page int) (*pages.Image, error)
	FilePath(ctx context.Context, number int64) (string, string, error)
	ThumbnailPath(ctx context.Context, number int64) (string, error)
	Stats(ctx context.Context) (*indexer.CoverageStats, error)
	Ping(ctx context.Context) error
}
