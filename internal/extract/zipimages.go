package extract

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"regexp"
	"sort"
	"strings"
)

// imageSuffixes are the archive members treated as pages.
var imageSuffixes = []string{".jpg", ".jpeg", ".png", ".bmp", ".tiff", ".tif", ".gif", ".webp"}

// digitRun matches the numeric parts of a member name.
var digitRun = regexp.MustCompile(`\d+`)

// naturalKeyWidth is the width digit runs are padded to when sorting.
const naturalKeyWidth = 12

// ZipImages treats an archive of images as a paginated document with no
// searchable text.
type ZipImages struct{}

func NewZipImages() *ZipImages {
	return &ZipImages{}
}

func (z *ZipImages) Extract(ctx context.Context, path string) (*Result, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip: %w", err)
	}
	defer zr.Close()

	pages := ImageEntries(&zr.Reader)
	res := &Result{PageCount: len(pages)}
	if len(pages) == 0 {
		res.Cover = Placeholder()
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := readMember(pages[0])
	if err != nil {
		return nil, err
	}
	cover, _, err := DecodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode cover %s: %w", pages[0].Name, err)
	}
	res.Cover = cover
	return res, nil
}

// Page returns the raw bytes and content type of the zero-based page.
func (z *ZipImages) Page(path string, page int) ([]byte, string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open zip: %w", err)
	}
	defer zr.Close()

	pages := ImageEntries(&zr.Reader)
	if page < 0 || page >= len(pages) {
		return nil, "", fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, page, len(pages))
	}
	data, err := readMember(pages[page])
	if err != nil {
		return nil, "", err
	}
	return data, contentType(pages[page].Name), nil
}

// ImageEntries returns the image members of an archive in page order.
// Directories and other members are skipped.
func ImageEntries(r *zip.Reader) []*zip.File {
	var pages []*zip.File
	for _, f := range r.File {
		if f.FileInfo().IsDir() || !hasImageSuffix(f.Name) {
			continue
		}
		pages = append(pages, f)
	}
	sort.SliceStable(pages, func(i, j int) bool {
		return NaturalKey(pages[i].Name) < NaturalKey(pages[j].Name)
	})
	return pages
}

// NaturalKey pads every digit run in name so that lexical order of keys
// matches numeric order: "2.jpg" sorts before "10.jpg".
func NaturalKey(name string) string {
	return digitRun.ReplaceAllStringFunc(name, func(run string) string {
		if len(run) >= naturalKeyWidth {
			return run
		}
		return strings.Repeat("0", naturalKeyWidth-len(run)) + run
	})
}

func hasImageSuffix(name string) bool {
	lower := strings.ToLower(name)
	for _, s := range imageSuffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}

func readMember(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
	}
	return data, nil
}

func contentType(name string) string {
	ext := strings.ToLower(path.Ext(name))
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".tif", ".tiff":
		return "image/tiff"
	case ".webp":
		return "image/webp"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}
