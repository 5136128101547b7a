package store

import (
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	archerr "github.com/openarchive/unisearch/internal/errors"
)

// LockFileName is the lock file created inside the data directory.
const LockFileName = ".unisearch.lock"

// DirLock guards the data directory against concurrent server instances
// using a cross-process advisory file lock.
type DirLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewDirLock creates a lock for the given data directory. The lock file
// lives at <dir>/.unisearch.lock.
func NewDirLock(dir string) *DirLock {
	path := filepath.Join(dir, LockFileName)
	return &DirLock{
		path:  path,
		flock: flock.New(path),
	}
}

// Path returns the lock file path.
func (l *DirLock) Path() string {
	return l.path
}

// TryLock attempts to acquire the lock without blocking. A held lock
// means another unisearch process owns the data directory.
func (l *DirLock) TryLock() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return archerr.IOError(archerr.ErrCodeDataDirLocked, "create data directory", err)
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return archerr.IOError(archerr.ErrCodeDataDirLocked, "acquire data directory lock", err)
	}
	if !acquired {
		return archerr.New(archerr.ErrCodeDataDirLocked,
			"data directory is locked by another unisearch process", nil).
			WithDetail("lock_file", l.path).
			WithSuggestion("stop the other unisearch instance or remove a stale lock file")
	}

	l.locked = true
	return nil
}

// Unlock releases the lock. Safe to call on an unlocked DirLock.
func (l *DirLock) Unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	return l.flock.Unlock()
}
