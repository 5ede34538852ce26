// Package registry allocates entry numbers and rejects duplicate content.
package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strconv"
	"strings"

	"fmfm/internal/contextutil"
	"fmfm/internal/extract"
	"fmfm/internal/filestore"
	"fmfm/internal/service"
	"fmfm/internal/storage"
)

// Name is the title and filetype derived from an uploaded filename.
type Name struct {
	Original string
	Title    string
	Filetype string
	// Numbered is set when the filename had no extension; the title becomes
	// the allocated number.
	Numbered bool
}

// ParseName splits filename into a title and a lower-cased filetype.
// A name without a dot is read as "{number}.{name}", so the whole name is
// the suffix. The suffix must name a supported format.
func ParseName(filename string) (Name, error) {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if base == "." || base == "/" || base == "" {
		return Name{}, fmt.Errorf("%w: empty filename", service.ErrInvalidFormat)
	}

	n := Name{Original: base}
	if !strings.Contains(base, ".") {
		n.Numbered = true
		n.Filetype = strings.ToLower(base)
	} else {
		ext := path.Ext(base)
		n.Title = strings.TrimSuffix(base, ext)
		n.Filetype = strings.ToLower(strings.TrimPrefix(ext, "."))
	}

	if n.Filetype == "" {
		return Name{}, fmt.Errorf("%w: no suffix in %q", service.ErrInvalidFormat, base)
	}
	if _, err := extract.ParseFormat(n.Filetype); err != nil {
		return Name{}, fmt.Errorf("%w: %q has unsupported suffix %q", service.ErrInvalidFormat, base, n.Filetype)
	}
	return n, nil
}

// Registry registers and removes entries. Every mutation holds the writer
// lock and runs in one transaction.
type Registry struct {
	db    *sql.DB
	files *filestore.Store
	lock  *filestore.WriterLock
}

// New creates a Registry.
func New(db *sql.DB, files *filestore.Store, lock *filestore.WriterLock) *Registry {
	return &Registry{db: db, files: files, lock: lock}
}

// Register stores the content of src under a newly allocated number and
// returns it. It fails with a *service.DuplicateContentError when an entry
// already holds the same bytes, with service.ErrInvalidFormat for an
// unsupported filename and with service.ErrCollision when the destination
// file exists. On any failure neither a row nor a stored file remains.
func (r *Registry) Register(ctx context.Context, src io.Reader, filename string) (int64, error) {
	logger := contextutil.LoggerFromContext(ctx)

	name, err := ParseName(filename)
	if err != nil {
		return 0, err
	}

	if err := r.lock.Lock(ctx); err != nil {
		return 0, service.StoreFailure("lock", err)
	}
	defer r.unlock(ctx)

	staged, err := r.files.Stage(src)
	if err != nil {
		return 0, service.StoreFailure("stage", err)
	}
	defer func() {
		if err := r.files.Discard(staged); err != nil {
			logger.WarnContext(ctx, "failed to discard staged upload", "path", staged.Path, "error", err)
		}
	}()

	var (
		number int64
		placed bool
	)
	err = storage.WithTx(ctx, r.db, func(ctx context.Context, tx storage.DBTX) error {
		books := storage.NewBookRepo(tx)

		existing, err := books.FindByHash(ctx, staged.Hash)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return duplicate(name.Original, existing)
		}

		number, err = books.Insert(ctx, name.Title, name.Filetype, staged.Hash)
		if errors.Is(err, storage.ErrDuplicateHash) {
			existing, findErr := books.FindByHash(ctx, staged.Hash)
			if findErr != nil {
				return findErr
			}
			return duplicate(name.Original, existing)
		}
		if err != nil {
			return err
		}

		if name.Numbered {
			name.Title = strconv.FormatInt(number, 10)
			if err := books.SetName(ctx, number, name.Title, name.Filetype); err != nil {
				return err
			}
		}

		if _, err := r.files.Place(staged, number, name.Filetype); err != nil {
			if errors.Is(err, fs.ErrExist) {
				return fmt.Errorf("%w: file for entry %d (%s)", service.ErrCollision, number, name.Original)
			}
			return err
		}
		placed = true
		return nil
	})
	if err != nil {
		if placed {
			if rmErr := r.files.Remove(number, name.Filetype); rmErr != nil {
				logger.ErrorContext(ctx, "failed to remove placed file after rollback",
					"number", number, "filetype", name.Filetype, "error", rmErr)
			}
		}
		return 0, service.StoreFailure("register "+name.Original, err)
	}

	logger.InfoContext(ctx, "registered entry", "number", number, "title", name.Title, "filetype", name.Filetype, "bytes", staged.Size)
	return number, nil
}

// Remove deletes entry number with its index rows, then its stored file and
// thumbnail. Missing files are ignored.
func (r *Registry) Remove(ctx context.Context, number int64) error {
	logger := contextutil.LoggerFromContext(ctx)

	if err := r.lock.Lock(ctx); err != nil {
		return service.StoreFailure("lock", err)
	}
	defer r.unlock(ctx)

	var filetype string
	err := storage.WithTx(ctx, r.db, func(ctx context.Context, tx storage.DBTX) error {
		var err error
		filetype, err = storage.NewBookRepo(tx).Delete(ctx, number)
		if err != nil {
			return err
		}
		return storage.NewIndexRepo(tx).DeleteByNumber(ctx, number)
	})
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("entry %d: %w", number, service.ErrNotFound)
	}
	if err != nil {
		return service.StoreFailure(fmt.Sprintf("remove %d", number), err)
	}

	if err := errors.Join(r.files.Remove(number, filetype), r.files.RemoveThumbnail(number)); err != nil {
		return fmt.Errorf("failed to remove files of entry %d: %w", number, err)
	}

	logger.InfoContext(ctx, "removed entry", "number", number, "filetype", filetype)
	return nil
}

func (r *Registry) unlock(ctx context.Context) {
	if err := r.lock.Unlock(); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to release writer lock", "error", err)
	}
}

func duplicate(filename string, existing []storage.Entry) error {
	dup := &service.DuplicateContentError{Filename: filename}
	for _, e := range existing {
		dup.Existing = append(dup.Existing, service.ExistingEntry{Number: e.Number, Title: e.Title})
	}
	return dup
}
