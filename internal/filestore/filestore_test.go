package filestore

import (
	"context"
	"errors"
	"image"
	"image/jpeg"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := New(filepath.Join(dir, "uploads"), filepath.Join(dir, "thumbs"), 0)
	require.NoError(t, err)
	return s
}

func TestStore_Paths(t *testing.T) {
	s := newTestStore(t)
	assert.Equal(t, filepath.Join(s.uploadDir, "12.pdf"), s.Path(12, "PDF"))
	assert.Equal(t, filepath.Join(s.thumbnailDir, "12.jpg"), s.ThumbnailPath(12))
}

func TestStore_StageAndPlace(t *testing.T) {
	s := newTestStore(t)

	staged, err := s.Stage(strings.NewReader("hello"))
	require.NoError(t, err)
	// sha256("hello")
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", staged.Hash)
	assert.Equal(t, int64(5), staged.Size)

	dest, err := s.Place(staged, 1, "md")
	require.NoError(t, err)
	assert.Equal(t, s.Path(1, "md"), dest)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, err = os.Stat(staged.Path)
	assert.True(t, errors.Is(err, fs.ErrNotExist), "staging file should be gone")

	hash, err := HashFile(dest)
	require.NoError(t, err)
	assert.Equal(t, staged.Hash, hash)
}

func TestStore_PlaceCollision(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(s.Path(3, "pdf"), []byte("existing"), 0o644))

	staged, err := s.Stage(strings.NewReader("new"))
	require.NoError(t, err)

	_, err = s.Place(staged, 3, "pdf")
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrExist))

	data, err := os.ReadFile(s.Path(3, "pdf"))
	require.NoError(t, err)
	assert.Equal(t, "existing", string(data), "existing file must not be replaced")

	require.NoError(t, s.Discard(staged))
	_, err = os.Stat(staged.Path)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestStore_RemoveMissingIsNotAnError(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Remove(99, "pdf"))
	assert.NoError(t, s.RemoveThumbnail(99))
	assert.NoError(t, s.Discard(nil))
}

func TestStore_Remove(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(s.Path(4, "zip"), []byte("z"), 0o644))
	require.NoError(t, os.WriteFile(s.ThumbnailPath(4), []byte("j"), 0o644))

	require.NoError(t, s.Remove(4, "zip"))
	require.NoError(t, s.RemoveThumbnail(4))

	for _, p := range []string{s.Path(4, "zip"), s.ThumbnailPath(4)} {
		_, err := os.Stat(p)
		assert.True(t, errors.Is(err, fs.ErrNotExist), "%s should be removed", p)
	}
}

func TestStore_PrepareThumbnail(t *testing.T) {
	s := newTestStore(t)
	pending, err := s.PrepareThumbnail(7, image.NewRGBA(image.Rect(0, 0, 800, 1600)))
	require.NoError(t, err)
	assert.NoFileExists(t, s.ThumbnailPath(7), "not visible before Commit")
	require.NoError(t, pending.Commit())

	f, err := os.Open(s.ThumbnailPath(7))
	require.NoError(t, err)
	defer f.Close()

	cfg, err := jpeg.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.Width)
	assert.Equal(t, 400, cfg.Height)
}

func TestStore_PrepareThumbnailDiscard(t *testing.T) {
	s := newTestStore(t)
	first, err := s.PrepareThumbnail(7, image.NewRGBA(image.Rect(0, 0, 10, 10)))
	require.NoError(t, err)
	require.NoError(t, first.Commit())
	before, err := os.ReadFile(s.ThumbnailPath(7))
	require.NoError(t, err)

	second, err := s.PrepareThumbnail(7, image.NewRGBA(image.Rect(0, 0, 300, 100)))
	require.NoError(t, err)
	require.NoError(t, second.Discard())

	after, err := os.ReadFile(s.ThumbnailPath(7))
	require.NoError(t, err)
	assert.Equal(t, before, after)

	leftovers, err := filepath.Glob(s.ThumbnailPath(7) + ".tmp-*")
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestStore_CleanStaging(t *testing.T) {
	s := newTestStore(t)
	lock, err := NewWriterLock(t.TempDir())
	require.NoError(t, err)

	staged, err := s.Stage(strings.NewReader("orphan"))
	require.NoError(t, err)

	require.NoError(t, s.CleanStaging(context.Background(), lock))
	_, err = os.Stat(staged.Path)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestStore_CleanStagingWaitsForWriter(t *testing.T) {
	dir := t.TempDir()
	uploads, thumbs := filepath.Join(dir, "uploads"), filepath.Join(dir, "thumbs")

	// Two stores and two locks on the same directories, as the server and
	// the CLI would open them.
	writer, err := New(uploads, thumbs, 0)
	require.NoError(t, err)
	writerLock, err := NewWriterLock(dir)
	require.NoError(t, err)
	sweeper, err := New(uploads, thumbs, 0)
	require.NoError(t, err)
	sweeperLock, err := NewWriterLock(dir)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, writerLock.Lock(ctx))
	staged, err := writer.Stage(strings.NewReader("in flight"))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- sweeper.CleanStaging(ctx, sweeperLock) }()

	select {
	case err := <-done:
		t.Fatalf("CleanStaging() returned %v while an upload held the writer lock", err)
	case <-time.After(100 * time.Millisecond):
	}

	dest, err := writer.Place(staged, 1, "pdf")
	require.NoError(t, err)
	require.NoError(t, writerLock.Unlock())

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("CleanStaging() did not run after the writer released the lock")
	}

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "in flight", string(data))
}

func TestStore_CleanStagingLockBusy(t *testing.T) {
	s := newTestStore(t)
	dir := t.TempDir()
	holder, err := NewWriterLock(dir)
	require.NoError(t, err)
	require.NoError(t, holder.Lock(context.Background()))
	defer holder.Unlock()

	staged, err := s.Stage(strings.NewReader("in flight"))
	require.NoError(t, err)

	other, err := NewWriterLock(dir)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	assert.Error(t, s.CleanStaging(ctx, other))
	_, err = os.Stat(staged.Path)
	assert.NoError(t, err, "staging file of a running upload must survive")
}

func TestWriterLock(t *testing.T) {
	lock, err := NewWriterLock(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, lock.Lock(ctx))

	acquired := make(chan struct{})
	go func() {
		if err := lock.Lock(ctx); err == nil {
			close(acquired)
			_ = lock.Unlock()
		}
	}()

	select {
	case <-acquired:
		t.Fatal("second Lock() succeeded while the lock was held")
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, lock.Unlock())
	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("second Lock() did not acquire after Unlock()")
	}
}

func TestWriterLock_ContextCanceled(t *testing.T) {
	dir := t.TempDir()
	holder, err := NewWriterLock(dir)
	require.NoError(t, err)
	require.NoError(t, holder.Lock(context.Background()))
	defer holder.Unlock()

	other, err := NewWriterLock(dir)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	assert.Error(t, other.Lock(ctx))
}
