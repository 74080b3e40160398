package jobs

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrInputBusy is returned when another process holds the input lock.
var ErrInputBusy = errors.New("input is being processed by another job")

// InputLock is an advisory lock held for the lifetime of a job.
type InputLock struct {
	lock *flock.Flock
	path string
}

// LockInput acquires an exclusive, non-blocking lock for input inside dir.
func LockInput(dir, input string) (*InputLock, error) {
	abs, err := filepath.Abs(input)
	if err != nil {
		return nil, fmt.Errorf("resolve input path: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure lock dir: %w", err)
	}
	sum := sha1.Sum([]byte(abs))
	lockPath := filepath.Join(dir, hex.EncodeToString(sum[:8])+".lock")

	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInputBusy, abs)
	}
	return &InputLock{lock: lock, path: lockPath}, nil
}

// Path returns the lock file location.
func (l *InputLock) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Release unlocks and removes the lock file.
func (l *InputLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	_ = os.Remove(l.path)
	return nil
}
