package indexer

import (
	"context"
	"database/sql"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fmfm/internal/extract"
	"fmfm/internal/extract/extracttest"
	"fmfm/internal/filestore"
	"fmfm/internal/service"
	"fmfm/internal/storage"
	"fmfm/internal/storage/storagetest"
)

type fakeExtractor struct {
	result *extract.Result
	err    error
	block  bool
	during func()
}

func (f fakeExtractor) Extract(ctx context.Context, path string) (*extract.Result, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	if f.during != nil {
		f.during()
	}
	return f.result, f.err
}

type fixture struct {
	db    *sql.DB
	files *filestore.Store
	lock  *filestore.WriterLock
	books *storage.BookRepo
	index *storage.IndexRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	files, err := filestore.New(filepath.Join(root, "upload"), filepath.Join(root, "thumb"), 0)
	require.NoError(t, err)
	lock, err := filestore.NewWriterLock(root)
	require.NoError(t, err)
	db := storagetest.NewDB(t)
	return &fixture{db: db, files: files, lock: lock, books: storage.NewBookRepo(db), index: storage.NewIndexRepo(db)}
}

func (f *fixture) pipeline(set *extract.Set, timeout time.Duration) *Pipeline {
	return NewPipeline(f.db, f.files, f.lock, set, timeout)
}

// add stores data as a new entry without refreshing it.
func (f *fixture) add(t *testing.T, title, filetype string, data []byte) int64 {
	t.Helper()
	n, err := f.books.Insert(context.Background(), title, filetype, "registered-"+title)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(f.files.Path(n, filetype), data, 0o644))
	return n
}

func TestNewPipeline(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(extract.NewSet(extract.Options{}), 0)
	if p.timeout != DefaultExtractTimeout {
		t.Errorf("NewPipeline() timeout = %v, want %v", p.timeout, DefaultExtractTimeout)
	}
	if p.books == nil || p.index == nil {
		t.Error("NewPipeline() repositories should not be nil")
	}
}

func TestPipeline_RefreshPDF(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	data := extracttest.PDF("Quarterly overview", "The annual budget was approved", "Appendix")
	n := f.add(t, "report", "pdf", data)

	p := f.pipeline(extract.NewSet(extract.Options{}), 0)
	require.NoError(t, p.Refresh(ctx, n, false))

	entry, err := f.books.Get(ctx, n)
	require.NoError(t, err)
	require.NotNil(t, entry.PageCount)
	assert.Equal(t, 3, *entry.PageCount)
	assert.Equal(t, "report", entry.Title)
	require.NotNil(t, entry.Spread)
	assert.True(t, *entry.Spread)
	require.NotNil(t, entry.RightToLeft)
	assert.False(t, *entry.RightToLeft)
	require.NotNil(t, entry.Hidden)
	assert.False(t, *entry.Hidden)

	hash, err := filestore.HashFile(f.files.Path(n, "pdf"))
	require.NoError(t, err)
	assert.Equal(t, hash, entry.ContentHash)

	rows, err := f.index.Rows(ctx, n)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, 1.0, rows[1].Position)
	assert.Contains(t, rows[1].PlainText, "budget")

	hits, err := f.index.Match(ctx, `"budget"`, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, n, hits[0].Number)
	assert.Equal(t, 1.0, hits[0].Position)

	assert.FileExists(t, f.files.ThumbnailPath(n))
}

func TestPipeline_RefreshReplacesRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	n := f.add(t, "notes", "md", []byte("x"))

	first := extract.NewSetWith(map[extract.Format]extract.Extractor{
		extract.FormatMarkdown: fakeExtractor{result: &extract.Result{Chunks: []extract.Chunk{
			{Position: 0, Text: "alpha"}, {Position: 1, Text: "beta"},
		}}},
	})
	require.NoError(t, f.pipeline(first, 0).Refresh(ctx, n, false))

	second := extract.NewSetWith(map[extract.Format]extract.Extractor{
		extract.FormatMarkdown: fakeExtractor{result: &extract.Result{Chunks: []extract.Chunk{
			{Position: 0, Text: "gamma"},
		}}},
	})
	require.NoError(t, f.pipeline(second, 0).Refresh(ctx, n, false))

	rows, err := f.index.Rows(ctx, n)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "gamma", rows[0].PlainText)
}

func TestPipeline_RefreshTitleAndFlags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	n := f.add(t, "file-name", "epub", []byte("x"))

	spread := false
	require.NoError(t, f.books.Apply(ctx, n, storage.EntryChanges{Spread: &spread}))

	set := extract.NewSetWith(map[extract.Format]extract.Extractor{
		extract.FormatEPUB: fakeExtractor{result: &extract.Result{
			PageCount: 2,
			TitleHint: "  Real Title  ",
			Cover:     image.NewRGBA(image.Rect(0, 0, 10, 10)),
		}},
	})
	p := f.pipeline(set, 0)

	require.NoError(t, p.Refresh(ctx, n, false))
	entry, err := f.books.Get(ctx, n)
	require.NoError(t, err)
	assert.Equal(t, "file-name", entry.Title, "title kept without extractTitle")
	assert.False(t, *entry.Spread, "explicit flag kept")

	require.NoError(t, p.Refresh(ctx, n, true))
	entry, err = f.books.Get(ctx, n)
	require.NoError(t, err)
	assert.Equal(t, "Real Title", entry.Title)
	assert.Equal(t, 2, *entry.PageCount)
}

func TestPipeline_RefreshKeepsFlagsSetDuringExtraction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	n := f.add(t, "comic", "zip", []byte("x"))

	spread, rtl := false, true
	set := extract.NewSetWith(map[extract.Format]extract.Extractor{
		extract.FormatZipImages: fakeExtractor{
			result: &extract.Result{PageCount: 4},
			during: func() {
				assert.NoError(t, f.books.Apply(ctx, n, storage.EntryChanges{Spread: &spread, RightToLeft: &rtl}))
			},
		},
	})
	require.NoError(t, f.pipeline(set, 0).Refresh(ctx, n, false))

	entry, err := f.books.Get(ctx, n)
	require.NoError(t, err)
	assert.False(t, *entry.Spread)
	assert.True(t, *entry.RightToLeft)
	assert.False(t, *entry.Hidden, "unset flag still gets its default")
	assert.Equal(t, 4, *entry.PageCount)
}

func TestPipeline_RefreshDuplicateKeepsThumbnail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.add(t, "first", "md", []byte("same bytes"))
	second := f.add(t, "second", "md", []byte("other bytes"))

	small := extract.NewSetWith(map[extract.Format]extract.Extractor{
		extract.FormatMarkdown: fakeExtractor{result: &extract.Result{Cover: image.NewRGBA(image.Rect(0, 0, 10, 10))}},
	})
	p := f.pipeline(small, 0)
	require.NoError(t, p.Refresh(ctx, first, false))
	require.NoError(t, p.Refresh(ctx, second, false))
	before, err := os.ReadFile(f.files.ThumbnailPath(second))
	require.NoError(t, err)

	// The stored file is swapped outside the library for a copy of the first.
	require.NoError(t, os.WriteFile(f.files.Path(second, "md"), []byte("same bytes"), 0o644))
	large := extract.NewSetWith(map[extract.Format]extract.Extractor{
		extract.FormatMarkdown: fakeExtractor{result: &extract.Result{Cover: image.NewRGBA(image.Rect(0, 0, 300, 90))}},
	})
	err = f.pipeline(large, 0).Refresh(ctx, second, false)
	require.True(t, errors.Is(err, service.ErrDuplicateContent), "Refresh() error = %v, want ErrDuplicateContent", err)

	after, err := os.ReadFile(f.files.ThumbnailPath(second))
	require.NoError(t, err)
	assert.Equal(t, before, after, "thumbnail must not change when the refresh rolls back")

	leftovers, err := filepath.Glob(f.files.ThumbnailPath(second) + ".tmp-*")
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestPipeline_RefreshNotFound(t *testing.T) {
	f := newFixture(t)
	p := f.pipeline(extract.NewSet(extract.Options{}), 0)

	err := p.Refresh(context.Background(), 7, false)
	assert.True(t, errors.Is(err, service.ErrNotFound), "Refresh() error = %v, want ErrNotFound", err)
}

func TestPipeline_RefreshFailureWritesNothing(t *testing.T) {
	tests := []struct {
		name      string
		extractor fakeExtractor
		timeout   time.Duration
	}{
		{name: "extractor error", extractor: fakeExtractor{err: errors.New("corrupt file")}},
		{name: "timeout", extractor: fakeExtractor{block: true}, timeout: 20 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			n := f.add(t, "notes", "md", []byte("x"))
			require.NoError(t, f.index.Replace(ctx, n, []storage.IndexRow{{Position: 0, NgramText: "old", PlainText: "old"}}))

			set := extract.NewSetWith(map[extract.Format]extract.Extractor{extract.FormatMarkdown: tt.extractor})
			err := f.pipeline(set, tt.timeout).Refresh(ctx, n, false)
			require.Error(t, err)

			rows, err := f.index.Rows(ctx, n)
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, "old", rows[0].PlainText)

			entry, err := f.books.Get(ctx, n)
			require.NoError(t, err)
			assert.Nil(t, entry.PageCount)
			assert.NoFileExists(t, f.files.ThumbnailPath(n))
		})
	}
}

func TestPipeline_RefreshMissingFile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	n, err := f.books.Insert(ctx, "gone", "pdf", "h")
	require.NoError(t, err)

	err = f.pipeline(extract.NewSet(extract.Options{}), 0).Refresh(ctx, n, false)
	assert.Error(t, err)
	assert.False(t, service.Fatal(err))
}

func TestPipeline_RefreshAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	good := fakeExtractor{result: &extract.Result{Chunks: []extract.Chunk{{Position: 0, Text: "text"}}}}
	set := extract.NewSetWith(map[extract.Format]extract.Extractor{
		extract.FormatMarkdown: good,
		extract.FormatPDF:      fakeExtractor{err: errors.New("broken")},
	})
	p := f.pipeline(set, 0)

	var mds []int64
	for _, title := range []string{"a", "b", "c"} {
		mds = append(mds, f.add(t, title, "md", []byte(title)))
	}
	broken := f.add(t, "broken", "pdf", []byte("not a pdf"))

	err := p.RefreshAll(ctx, nil, false, 2)
	require.Error(t, err, "one entry failed")
	assert.False(t, service.Fatal(err))

	for _, n := range mds {
		entry, err := f.books.Get(ctx, n)
		require.NoError(t, err)
		assert.NotNil(t, entry.PageCount, "entry %d refreshed", n)
	}
	entry, err := f.books.Get(ctx, broken)
	require.NoError(t, err)
	assert.Nil(t, entry.PageCount)

	require.NoError(t, p.RefreshAll(ctx, mds, false, 0))
}

func TestBuildRows(t *testing.T) {
	rows := BuildRows(4, []extract.Chunk{
		{Position: 0, Text: "plain words"},
		{Position: 0.01, Text: "予算案"},
	})
	require.Len(t, rows, 2)
	assert.Equal(t, storage.IndexRow{Number: 4, Position: 0, NgramText: "plain words", PlainText: "plain words"}, rows[0])
	assert.Equal(t, "予算 算案", rows[1].NgramText)
	assert.Equal(t, "予算案", rows[1].PlainText)
}

func TestChanges(t *testing.T) {
	yes, no := true, false

	tests := []struct {
		name         string
		entry        storage.Entry
		result       extract.Result
		extractTitle bool
		wantTitle    *string
		wantSpread   *bool
		wantHidden   *bool
	}{
		{
			name:       "unset flags get defaults",
			entry:      storage.Entry{},
			result:     extract.Result{PageCount: 3, TitleHint: "Doc"},
			wantSpread: &yes,
			wantHidden: &no,
		},
		{
			name:         "title hint applied on request",
			entry:        storage.Entry{Spread: &no, RightToLeft: &yes, Hidden: &yes},
			result:       extract.Result{TitleHint: "Doc"},
			extractTitle: true,
			wantTitle:    strPtr("Doc"),
		},
		{
			name:         "blank hint ignored",
			entry:        storage.Entry{Spread: &no, RightToLeft: &yes, Hidden: &yes},
			result:       extract.Result{TitleHint: "   "},
			extractTitle: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Changes(&tt.entry, &tt.result, "abc", tt.extractTitle)
			assert.Equal(t, tt.result.PageCount, *got.PageCount)
			assert.Equal(t, "abc", *got.ContentHash)
			assert.Equal(t, tt.wantTitle, got.Title)
			assert.Equal(t, tt.wantSpread, got.Spread)
			assert.Equal(t, tt.wantHidden, got.Hidden)
			if tt.entry.RightToLeft != nil {
				assert.Nil(t, got.RightToLeft)
			}
			assert.Nil(t, got.Tags)
		})
	}
}

func strPtr(s string) *string { return &s }
