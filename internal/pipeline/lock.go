package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Lock is an advisory lock on one source directory.
type Lock struct {
	fl *flock.Flock
}

// LockPath returns the lock file used for dir inside lockDir. The file name
// is derived from the absolute directory path so any spelling of the same
// directory maps to the same lock.
func LockPath(lockDir, dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	sum := sha256.Sum256([]byte(abs))
	return filepath.Join(lockDir, hex.EncodeToString(sum[:])+".lock")
}

// AcquireLock takes the lock for dir without blocking. It returns ErrLocked
// when another process or run holds it.
func AcquireLock(lockDir, dir string) (*Lock, error) {
	if err := os.MkdirAll(lockDir, 0o750); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	fl := flock.New(LockPath(lockDir, dir))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, dir)
	}
	return &Lock{fl: fl}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.fl.Path()
}

// Release unlocks the directory. The lock file is left in place; removing
// it would let a waiting process lock an unlinked inode.
func (l *Lock) Release() error {
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}
