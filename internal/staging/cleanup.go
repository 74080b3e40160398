package staging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ffloom/internal/command"
	"ffloom/internal/logging"
)

// ExtractPrefix names the scratch directories used while repacking archives.
const ExtractPrefix = ".ffloom-extract-"

// Leftover describes one scratch entry.
type Leftover struct {
	Path    string
	Dir     bool
	ModTime time.Time
	Size    int64
}

// CleanResult contains the outcome of a cleanup.
type CleanResult struct {
	Removed []Leftover
	Errors  []CleanupError
}

// CleanupError pairs a path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// IsLeftover reports whether name looks like ffloom scratch output.
func IsLeftover(name string, dir bool) bool {
	if dir {
		return strings.HasPrefix(name, ExtractPrefix)
	}
	return strings.Contains(name, command.TempMarker+".")
}

// List returns the scratch entries directly inside dir.
func List(dir string) ([]Leftover, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []Leftover
	for _, entry := range entries {
		if !IsLeftover(entry.Name(), entry.IsDir()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		size := info.Size()
		if entry.IsDir() {
			size, _ = dirSize(path)
		}
		out = append(out, Leftover{Path: path, Dir: entry.IsDir(), ModTime: info.ModTime(), Size: size})
	}
	return out, nil
}

// CleanStale removes scratch entries in dir older than maxAge. A running job
// refreshes its scratch files, so a short maxAge only risks work that has
// already stalled.
func CleanStale(ctx context.Context, dir string, maxAge time.Duration, logger *slog.Logger) CleanResult {
	result := CleanResult{}
	leftovers, err := List(dir)
	if err != nil {
		result.Errors = append(result.Errors, CleanupError{Path: dir, Error: err})
		return result
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	cutoff := time.Now().Add(-maxAge)
	for _, item := range leftovers {
		if ctx.Err() != nil {
			break
		}
		if !item.ModTime.Before(cutoff) {
			continue
		}
		if err := os.RemoveAll(item.Path); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: item.Path, Error: err})
			logger.Warn("failed to remove scratch output",
				logging.String("path", item.Path),
				logging.Error(err),
				logging.String(logging.FieldEventType, "scratch_cleanup_failed"),
				logging.String(logging.FieldErrorHint, "check directory permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		result.Removed = append(result.Removed, item)
		logger.Info("removed scratch output",
			logging.String("path", item.Path),
			logging.Int64("size_bytes", item.Size),
			logging.Duration("age", time.Since(item.ModTime)),
			logging.String(logging.FieldEventType, "scratch_cleanup"),
		)
	}
	return result
}

func dirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}
