package staging

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ffloom/internal/logging"
)

func age(t *testing.T, path string, d time.Duration) {
	t.Helper()
	past := time.Now().Add(-d)
	if err := os.Chtimes(path, past, past); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}

func TestIsLeftover(t *testing.T) {
	tests := []struct {
		name string
		dir  bool
		want bool
	}{
		{"movie.ffloom-tmp.mkv", false, true},
		{"movie.mkv", false, false},
		{".ffloom-extract-123", true, true},
		{".ffloom-extract-123", false, false},
		{"movie_ss", true, false},
	}
	for _, tc := range tests {
		if got := IsLeftover(tc.name, tc.dir); got != tc.want {
			t.Fatalf("IsLeftover(%q, %v) = %v, want %v", tc.name, tc.dir, got, tc.want)
		}
	}
}

func TestCleanStaleInvalidPaths(t *testing.T) {
	for _, dir := range []string{"", "   ", "/nonexistent/path/12345"} {
		result := CleanStale(context.Background(), dir, time.Hour, logging.NewNop())
		if len(result.Removed) != 0 || len(result.Errors) != 0 {
			t.Errorf("expected empty result for path %q", dir)
		}
	}
}

func TestCleanStaleRemovesOldScratchOnly(t *testing.T) {
	dir := t.TempDir()

	oldTmp := filepath.Join(dir, "movie.ffloom-tmp.mkv")
	recentTmp := filepath.Join(dir, "show.ffloom-tmp.mp4")
	media := filepath.Join(dir, "movie.mkv")
	for _, path := range []string{oldTmp, recentTmp, media} {
		if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	extract := filepath.Join(dir, ExtractPrefix+"42")
	if err := os.MkdirAll(filepath.Join(extract, "inner"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(extract, "inner", "a.txt"), []byte("12345"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	age(t, oldTmp, 2*time.Hour)
	age(t, media, 2*time.Hour)
	age(t, extract, 2*time.Hour)

	result := CleanStale(context.Background(), dir, time.Hour, logging.NewNop())
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", result.Errors)
	}
	if len(result.Removed) != 2 {
		t.Fatalf("expected 2 removed, got %+v", result.Removed)
	}
	for _, gone := range []string{oldTmp, extract} {
		if _, err := os.Stat(gone); !os.IsNotExist(err) {
			t.Fatalf("expected %s removed", gone)
		}
	}
	for _, kept := range []string{recentTmp, media} {
		if _, err := os.Stat(kept); err != nil {
			t.Fatalf("expected %s kept: %v", kept, err)
		}
	}
}

func TestListReportsDirectorySize(t *testing.T) {
	dir := t.TempDir()
	extract := filepath.Join(dir, ExtractPrefix+"1")
	if err := os.Mkdir(extract, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(extract, "part"), make([]byte, 300), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	items, err := List(dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 || !items[0].Dir || items[0].Size != 300 {
		t.Fatalf("unexpected leftovers %+v", items)
	}
}
