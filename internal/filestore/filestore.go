// Package filestore owns the on-disk layout of stored documents and their
// thumbnails: {upload_dir}/{number}.{filetype} and {thumbnail_dir}/{number}.jpg.
package filestore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"fmfm/internal/thumbnail"
)

const stagingPrefix = ".incoming-"

// Store places, hashes and removes files under the upload and thumbnail
// directories.
type Store struct {
	uploadDir     string
	thumbnailDir  string
	thumbnailSize int
}

// New creates the directories if needed.
func New(uploadDir, thumbnailDir string, thumbnailSize int) (*Store, error) {
	for _, dir := range []string{uploadDir, thumbnailDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if thumbnailSize <= 0 {
		thumbnailSize = thumbnail.DefaultSize
	}
	return &Store{uploadDir: uploadDir, thumbnailDir: thumbnailDir, thumbnailSize: thumbnailSize}, nil
}

// Path is where entry number's document lives.
func (s *Store) Path(number int64, filetype string) string {
	return filepath.Join(s.uploadDir, strconv.FormatInt(number, 10)+"."+strings.ToLower(filetype))
}

// ThumbnailPath is where entry number's thumbnail lives.
func (s *Store) ThumbnailPath(number int64) string {
	return filepath.Join(s.thumbnailDir, strconv.FormatInt(number, 10)+".jpg")
}

// Staged is an incoming upload written to a temporary file in the upload
// directory, with the hash of its bytes.
type Staged struct {
	Path string
	Hash string
	Size int64
}

// Stage copies r into a temporary file next to the final destinations while
// hashing it.
func (s *Store) Stage(r io.Reader) (*Staged, error) {
	path := filepath.Join(s.uploadDir, stagingPrefix+uuid.NewString())
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create staging file: %w", err)
	}

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(f, h), r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("failed to write staging file: %w", err)
	}

	return &Staged{Path: path, Hash: hex.EncodeToString(h.Sum(nil)), Size: n}, nil
}

// Discard removes a staged file. Missing files are ignored.
func (s *Store) Discard(staged *Staged) error {
	if staged == nil {
		return nil
	}
	return removeIfExists(staged.Path)
}

// Place moves a staged file to its final name. It never replaces an existing
// file: an occupied destination fails with an error matching fs.ErrExist.
func (s *Store) Place(staged *Staged, number int64, filetype string) (string, error) {
	dest := s.Path(number, filetype)

	if err := os.Link(staged.Path, dest); err == nil {
		_ = os.Remove(staged.Path)
		return dest, nil
	} else if errors.Is(err, fs.ErrExist) {
		return "", fmt.Errorf("failed to place %s: %w", dest, fs.ErrExist)
	}

	// Hard links can be unsupported; fall back to check-then-rename.
	if _, err := os.Lstat(dest); err == nil {
		return "", fmt.Errorf("failed to place %s: %w", dest, fs.ErrExist)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("failed to stat %s: %w", dest, err)
	}
	if err := os.Rename(staged.Path, dest); err != nil {
		return "", fmt.Errorf("failed to place %s: %w", dest, err)
	}
	return dest, nil
}

// Remove deletes entry number's document. A missing file is not an error.
func (s *Store) Remove(number int64, filetype string) error {
	return removeIfExists(s.Path(number, filetype))
}

// RemoveThumbnail deletes entry number's thumbnail. A missing file is not an error.
func (s *Store) RemoveThumbnail(number int64) error {
	return removeIfExists(s.ThumbnailPath(number))
}

// PendingThumbnail is an encoded thumbnail written next to its destination
// but not yet visible under its final name.
type PendingThumbnail struct {
	path string
	dest string
}

// PrepareThumbnail encodes img into a temporary file beside entry number's
// thumbnail. Commit publishes it; Discard drops it.
func (s *Store) PrepareThumbnail(number int64, img image.Image) (*PendingThumbnail, error) {
	dest := s.ThumbnailPath(number)
	tmp := dest + ".tmp-" + uuid.NewString()

	f, err := os.Create(tmp)
	if err != nil {
		return nil, fmt.Errorf("failed to create thumbnail: %w", err)
	}
	err = thumbnail.Encode(f, img, s.thumbnailSize)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return nil, err
	}
	return &PendingThumbnail{path: tmp, dest: dest}, nil
}

// Commit replaces the previous thumbnail atomically.
func (p *PendingThumbnail) Commit() error {
	if err := os.Rename(p.path, p.dest); err != nil {
		_ = os.Remove(p.path)
		return fmt.Errorf("failed to write thumbnail: %w", err)
	}
	return nil
}

// Discard removes the temporary file, leaving the previous thumbnail alone.
func (p *PendingThumbnail) Discard() error {
	return removeIfExists(p.path)
}

// HashFile returns the hex SHA-256 of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

// CleanStaging removes staging files left behind by an interrupted upload.
// Uploads stage under the writer lock, so the sweep holds it too.
func (s *Store) CleanStaging(ctx context.Context, lock *WriterLock) (err error) {
	if err := lock.Lock(ctx); err != nil {
		return err
	}
	defer func() {
		if unlockErr := lock.Unlock(); err == nil {
			err = unlockErr
		}
	}()

	matches, err := filepath.Glob(filepath.Join(s.uploadDir, stagingPrefix+"*"))
	if err != nil {
		return fmt.Errorf("failed to list staging files: %w", err)
	}
	for _, m := range matches {
		if err := removeIfExists(m); err != nil {
			return err
		}
	}
	return nil
}
