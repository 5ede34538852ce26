// Package pages serves single pages of stored documents as images.
package pages

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"fmfm/internal/extract"
	"fmfm/internal/filestore"
	"fmfm/internal/service"
	"fmfm/internal/storage"
	"fmfm/internal/thumbnail"
)

const (
	// DefaultCacheSize is the number of page images kept in memory.
	DefaultCacheSize = 64
	// MaxSide bounds the longest side of a rendered PDF page.
	MaxSide = 2000
)

// Image is an encoded page.
type Image struct {
	Data        []byte
	ContentType string
}

type cacheKey struct {
	number int64
	page   int
	hash   string
}

// Renderer returns page images, caching them by entry, page and content hash
// so a refreshed file never serves stale pages.
type Renderer struct {
	books storage.BookStore
	files *filestore.Store
	pdf   *extract.PDF
	zip   *extract.ZipImages
	cache *lru.Cache[cacheKey, Image]
}

// New creates a Renderer holding up to cacheSize pages.
func New(books storage.BookStore, files *filestore.Store, cacheSize int) (*Renderer, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[cacheKey, Image](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create page cache: %w", err)
	}
	return &Renderer{
		books: books,
		files: files,
		pdf:   extract.NewPDF(),
		zip:   extract.NewZipImages(),
		cache: cache,
	}, nil
}

// Page returns the zero-based page of entry number. Image archives serve the
// stored image unchanged; PDF pages are rendered to JPEG.
func (r *Renderer) Page(ctx context.Context, number int64, page int) (*Image, error) {
	entry, err := r.books.Get(ctx, number)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("entry %d: %w", number, service.ErrNotFound)
	}
	if err != nil {
		return nil, service.StoreFailure("load entry", err)
	}

	key := cacheKey{number: number, page: page, hash: entry.ContentHash}
	if img, ok := r.cache.Get(key); ok {
		return &img, nil
	}

	format, err := extract.ParseFormat(entry.Filetype)
	if err != nil {
		return nil, fmt.Errorf("%w: entry %d: %v", service.ErrInvalidFormat, number, err)
	}
	path := r.files.Path(number, entry.Filetype)

	var img Image
	switch format {
	case extract.FormatZipImages:
		img.Data, img.ContentType, err = r.zip.Page(path, page)
	case extract.FormatPDF:
		img, err = r.renderPDF(path, page)
	default:
		return nil, fmt.Errorf("%w: %s entries have no page images", service.ErrInvalidFormat, format)
	}
	if errors.Is(err, extract.ErrPageOutOfRange) {
		return nil, fmt.Errorf("entry %d page %d: %w", number, page, service.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to render entry %d page %d: %w", number, page, err)
	}

	r.cache.Add(key, img)
	return &img, nil
}

func (r *Renderer) renderPDF(path string, page int) (Image, error) {
	src, err := r.pdf.PageImage(path, page)
	if err != nil {
		return Image{}, err
	}
	var buf bytes.Buffer
	if err := thumbnail.Encode(&buf, src, MaxSide); err != nil {
		return Image{}, err
	}
	return Image{Data: buf.Bytes(), ContentType: "image/jpeg"}, nil
}

// Forget drops every cached page of entry number.
func (r *Renderer) Forget(number int64) {
	for _, k := range r.cache.Keys() {
		if k.number == number {
			r.cache.Remove(k)
		}
	}
}

// Purge drops every cached page.
func (r *Renderer) Purge() {
	r.cache.Purge()
}

// Len reports the number of cached pages.
func (r *Renderer) Len() int {
	return r.cache.Len()
}
