// Package runlock keeps two boardsync runs from publishing at the same time.
package runlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another process holds the lock.
var ErrLocked = errors.New("another boardsync run is in progress")

// Lock is a held run lock.
type Lock struct {
	fl *flock.Flock
}

// Acquire takes the lock file at path without blocking.
func Acquire(path string) (*Lock, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating lock dir: %w", err)
		}
	}
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return &Lock{fl: fl}, nil
}

// Release drops the lock. The lock file itself is left in place.
func (l *Lock) Release() error {
	return l.fl.Unlock()
}
