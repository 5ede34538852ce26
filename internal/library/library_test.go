package library

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fmfm/internal/extract/extracttest"
	"fmfm/internal/filestore"
	"fmfm/internal/search"
	"fmfm/internal/service"
	"fmfm/internal/storage"
	"fmfm/internal/storage/storagetest"
)

func newLibrary(t *testing.T) (*Library, *filestore.Store) {
	t.Helper()
	root := t.TempDir()
	files, err := filestore.New(filepath.Join(root, "upload"), filepath.Join(root, "thumb"), 0)
	require.NoError(t, err)
	lock, err := filestore.NewWriterLock(root)
	require.NoError(t, err)
	lib, err := New(storagetest.NewDB(t), files, lock, Options{})
	require.NoError(t, err)
	return lib, files
}

func TestLibrary_ReportScenario(t *testing.T) {
	lib, files := newLibrary(t)
	ctx := context.Background()

	pdf := extracttest.PDF("Quarterly overview", "The annual budget was approved", "Appendix")
	n, err := lib.Register(ctx, bytes.NewReader(pdf), "report.pdf")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, lib.Refresh(ctx, n, false))
	entry, err := lib.Get(ctx, n)
	require.NoError(t, err)
	require.NotNil(t, entry.PageCount)
	assert.Equal(t, 3, *entry.PageCount)
	assert.FileExists(t, files.ThumbnailPath(n))

	page, err := lib.Search(ctx, search.Request{Query: "budget"})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	got := page.Results[0]
	assert.Equal(t, int64(1), got.Number)
	require.Len(t, got.Excerpts, 1)
	assert.Equal(t, 1.0, got.Excerpts[0].Position)
	assert.Contains(t, got.Excerpts[0].Text, "budget")
	assert.True(t, strings.HasPrefix(got.Excerpts[0].Text, "..."))
}

func TestLibrary_SearchEveryTextFormat(t *testing.T) {
	lib, _ := newLibrary(t)
	ctx := context.Background()

	docs := []struct {
		filename string
		data     []byte
	}{
		{"report.pdf", extracttest.PDF("intro", "budget table")},
		{"novel.epub", extracttest.EPUB(extracttest.Book{
			Title:    "Novel",
			Sections: []extracttest.Section{{Text: "Chapter one"}, {Text: "the family budget ran out"}},
		})},
		{"notes.md", []byte("# Notes\n\nPlan the **budget** early.\n")},
	}

	var numbers []int64
	for _, d := range docs {
		n, err := lib.Add(ctx, bytes.NewReader(d.data), d.filename, false)
		require.NoError(t, err, d.filename)
		numbers = append(numbers, n)
	}

	page, err := lib.Search(ctx, search.Request{Query: "budget", PerPage: 10})
	require.NoError(t, err)
	var found []int64
	for _, r := range page.Results {
		found = append(found, r.Number)
	}
	assert.ElementsMatch(t, numbers, found)
}

func TestLibrary_ZipTitleSearch(t *testing.T) {
	lib, _ := newLibrary(t)
	ctx := context.Background()

	zip := extracttest.Zip(
		extracttest.Member{Name: "2.png", Data: extracttest.PNG(4, 4)},
		extracttest.Member{Name: "10.png", Data: extracttest.PNG(4, 4)},
	)
	n, err := lib.Add(ctx, bytes.NewReader(zip), "Space Comic.zip", false)
	require.NoError(t, err)

	entry, err := lib.Get(ctx, n)
	require.NoError(t, err)
	assert.Equal(t, 2, *entry.PageCount)

	page, err := lib.Search(ctx, search.Request{Query: "comic"})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, []search.Excerpt{{Position: search.TitlePosition, Text: search.TitleMatchText}}, page.Results[0].Excerpts)

	img, err := lib.PageImage(ctx, n, 0)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
}

func TestLibrary_EPUBPositions(t *testing.T) {
	lib, _ := newLibrary(t)
	ctx := context.Background()

	epub := extracttest.EPUB(extracttest.Book{
		Title: "Two Sections",
		Sections: []extracttest.Section{
			{Text: strings.Repeat("abcde fghi", 25)},
			{Text: strings.Repeat("x", 50)},
		},
	})
	n, err := lib.Add(ctx, bytes.NewReader(epub), "two.epub", true)
	require.NoError(t, err)

	entry, err := lib.Get(ctx, n)
	require.NoError(t, err)
	assert.Equal(t, "Two Sections", entry.Title)
	assert.Equal(t, 2, *entry.PageCount)

	rows, err := storage.NewIndexRepo(lib.db).Rows(ctx, n)
	require.NoError(t, err)
	var positions []float64
	for _, r := range rows {
		positions = append(positions, r.Position)
	}
	assert.Equal(t, []float64{0, 0.01, 0.02, 1}, positions)
}

func TestLibrary_DuplicateUpload(t *testing.T) {
	lib, files := newLibrary(t)
	ctx := context.Background()
	data := []byte("# same\n")

	n, err := lib.Add(ctx, bytes.NewReader(data), "a.md", false)
	require.NoError(t, err)

	_, err = lib.Add(ctx, bytes.NewReader(data), "b.md", false)
	var dup *service.DuplicateContentError
	require.True(t, errors.As(err, &dup), "error = %v", err)
	assert.Equal(t, n, dup.Existing[0].Number)
	assert.Equal(t, "a", dup.Existing[0].Title)

	_, err = os.Stat(files.Path(n+1, "md"))
	assert.True(t, os.IsNotExist(err))
}

func TestLibrary_Remove(t *testing.T) {
	lib, files := newLibrary(t)
	ctx := context.Background()

	n, err := lib.Add(ctx, strings.NewReader("# Budget\n\nbudget"), "b.md", false)
	require.NoError(t, err)
	require.NoError(t, os.Remove(files.ThumbnailPath(n)))

	require.NoError(t, lib.Remove(ctx, n))
	assert.NoFileExists(t, files.Path(n, "md"))
	assert.NoFileExists(t, files.ThumbnailPath(n))

	page, err := lib.Search(ctx, search.Request{Query: "budget"})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)

	list, err := lib.List(ctx, ListRequest{})
	require.NoError(t, err)
	assert.Equal(t, 0, list.Total)
	assert.Empty(t, list.Entries)

	err = lib.Remove(ctx, n)
	assert.True(t, errors.Is(err, service.ErrNotFound))
}

func TestLibrary_ListUpdateTags(t *testing.T) {
	lib, _ := newLibrary(t)
	ctx := context.Background()

	a, err := lib.Register(ctx, strings.NewReader("a"), "alpha.md")
	require.NoError(t, err)
	b, err := lib.Register(ctx, strings.NewReader("b"), "beta.md")
	require.NoError(t, err)

	tags := "  work  draft "
	long := strings.Repeat("t", MaxTextLength+5)
	hidden := true
	entry, err := lib.Update(ctx, a, EntryUpdate{Tags: &tags, Title: &long, Hidden: &hidden})
	require.NoError(t, err)
	assert.Equal(t, "work  draft", entry.Tags)
	assert.Equal(t, MaxTextLength, len([]rune(entry.Title)))
	assert.True(t, *entry.Hidden)

	got, err := lib.Tags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"draft", "work"}, got)

	list, err := lib.List(ctx, ListRequest{Tag: "work"})
	require.NoError(t, err)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, a, list.Entries[0].Number)

	list, err = lib.List(ctx, ListRequest{Sort: "number_desc", PerPage: 1, Page: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, list.Total)
	require.Len(t, list.Entries, 1)
	assert.Equal(t, b, list.Entries[0].Number)

	_, err = lib.Update(ctx, a, EntryUpdate{})
	assert.True(t, errors.Is(err, service.ErrInvalidInput))

	_, err = lib.Update(ctx, 99, EntryUpdate{Tags: &tags})
	assert.True(t, errors.Is(err, service.ErrNotFound))
}

func TestLibrary_FilePaths(t *testing.T) {
	lib, files := newLibrary(t)
	ctx := context.Background()

	n, err := lib.Register(ctx, strings.NewReader("x"), "doc.md")
	require.NoError(t, err)

	path, filetype, err := lib.FilePath(ctx, n)
	require.NoError(t, err)
	assert.Equal(t, files.Path(n, "md"), path)
	assert.Equal(t, "md", filetype)

	thumb, err := lib.ThumbnailPath(ctx, n)
	require.NoError(t, err)
	assert.Equal(t, files.ThumbnailPath(n), thumb)

	_, _, err = lib.FilePath(ctx, 42)
	assert.True(t, errors.Is(err, service.ErrNotFound))
}

func TestLibrary_RefreshAllAndStats(t *testing.T) {
	lib, _ := newLibrary(t)
	ctx := context.Background()

	for _, name := range []string{"a.md", "b.md"} {
		_, err := lib.Register(ctx, strings.NewReader("text of "+name), name)
		require.NoError(t, err)
	}

	stats, err := lib.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Unrefreshed)

	require.NoError(t, lib.RefreshAll(ctx, nil, false, 2))

	stats, err = lib.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Unrefreshed)
	assert.Equal(t, 2, stats.Rows)
	assert.NoError(t, lib.Ping(ctx))
}
