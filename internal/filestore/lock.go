package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 50 * time.Millisecond

// WriterLock serializes store mutations within the process and across
// processes sharing the same upload directory (the server and the batch CLI).
type WriterLock struct {
	mu    sync.Mutex
	flock *flock.Flock
}

// NewWriterLock creates a lock backed by {dir}/.writer.lock.
func NewWriterLock(dir string) (*WriterLock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	return &WriterLock{flock: flock.New(filepath.Join(dir, ".writer.lock"))}, nil
}

// Lock blocks until both the in-process mutex and the file lock are held or
// ctx is done.
func (l *WriterLock) Lock(ctx context.Context) error {
	l.mu.Lock()
	ok, err := l.flock.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !ok {
		l.mu.Unlock()
		if err == nil {
			err = ctx.Err()
		}
		return fmt.Errorf("failed to acquire writer lock: %w", err)
	}
	return nil
}

// Unlock releases the file lock and the mutex.
func (l *WriterLock) Unlock() error {
	defer l.mu.Unlock()
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release writer lock: %w", err)
	}
	return nil
}
