// Package extract reads stored documents and returns their page count,
// ordered text chunks, cover image and optional title.
//
// One Extractor exists per supported Format; the Set picks the right one for
// an entry's filetype.
package extract

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
)

// ErrUnsupportedFormat is returned for filetypes outside the four supported formats.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Format is one of the document formats the library stores.
type Format int

const (
	FormatUnknown Format = iota
	FormatPDF
	FormatZipImages
	FormatEPUB
	FormatMarkdown
)

// ParseFormat maps a filetype (lower-case file suffix) to its Format.
func ParseFormat(filetype string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(filetype, ".")) {
	case "pdf":
		return FormatPDF, nil
	case "zip", "cbz":
		return FormatZipImages, nil
	case "epub":
		return FormatEPUB, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	}
	return FormatUnknown, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filetype)
}

func (f Format) String() string {
	switch f {
	case FormatPDF:
		return "pdf"
	case FormatZipImages:
		return "zip"
	case FormatEPUB:
		return "epub"
	case FormatMarkdown:
		return "md"
	}
	return "unknown"
}

// Chunk is one searchable unit of a document. Position is the page index for
// paginated formats and a fractional section offset for EPUB.
type Chunk struct {
	Position float64
	Text     string
}

// Result is everything an extractor learns about one document.
type Result struct {
	PageCount int
	Chunks    []Chunk
	Cover     image.Image
	TitleHint string
}

// Extractor reads one stored document.
type Extractor interface {
	Extract(ctx context.Context, path string) (*Result, error)
}

// Options tunes the extractors.
type Options struct {
	// EPUBChunkBudget is the number of sub-chunks each EPUB section is split into.
	EPUBChunkBudget int
}

// Set holds one Extractor per Format.
type Set struct {
	byFormat map[Format]Extractor
}

// NewSet builds the default extractors.
func NewSet(opts Options) *Set {
	return &Set{
		byFormat: map[Format]Extractor{
			FormatPDF:       NewPDF(),
			FormatZipImages: NewZipImages(),
			FormatEPUB:      NewEPUB(opts.EPUBChunkBudget),
			FormatMarkdown:  NewMarkdown(),
		},
	}
}

// NewSetWith builds a Set from explicit extractors, typically fakes in tests.
func NewSetWith(extractors map[Format]Extractor) *Set {
	return &Set{byFormat: extractors}
}

// For returns the extractor for f.
func (s *Set) For(f Format) (Extractor, error) {
	e, ok := s.byFormat[f]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
	return e, nil
}
