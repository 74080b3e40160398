package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
)

// ErrEmptyOutput reports a declared output that exists but holds no data.
var ErrEmptyOutput = errors.New("output is empty")

// ValidateOutput confirms path exists and is non-empty. Directories must
// contain at least one entry.
func ValidateOutput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat output: %w", err)
	}
	if info.IsDir() {
		dir, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open output dir: %w", err)
		}
		defer dir.Close()
		if _, err := dir.Readdirnames(1); err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("%w: %s", ErrEmptyOutput, path)
			}
			return fmt.Errorf("read output dir: %w", err)
		}
		return nil
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyOutput, path)
	}
	return nil
}

// RemovePaths deletes every path, ignoring ones that no longer exist, and
// returns the first other error.
func RemovePaths(paths ...string) error {
	var first error
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.RemoveAll(path); err != nil && !os.IsNotExist(err) && first == nil {
			first = err
		}
	}
	return first
}

// MoveFile renames src to dst, falling back to a verified copy when the two
// live on different filesystems.
func MoveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) || !errors.Is(linkErr.Err, syscall.EXDEV) {
		return err
	}
	if err := copyVerified(src, dst); err != nil {
		return fmt.Errorf("copy across devices: %w", err)
	}
	return os.Remove(src)
}

// FileSize returns the size of path, or zero when it cannot be read.
func FileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
