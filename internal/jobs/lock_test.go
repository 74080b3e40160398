package jobs_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"ffloom/internal/jobs"
)

func TestLockInputIsExclusive(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "locks")
	input := filepath.Join(t.TempDir(), "movie.mkv")

	first, err := jobs.LockInput(dir, input)
	if err != nil {
		t.Fatalf("LockInput failed: %v", err)
	}
	if _, err := jobs.LockInput(dir, input); !errors.Is(err, jobs.ErrInputBusy) {
		t.Fatalf("expected ErrInputBusy, got %v", err)
	}
	if err := first.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, err := os.Stat(first.Path()); !os.IsNotExist(err) {
		t.Fatalf("expected lock file removed, stat err=%v", err)
	}

	second, err := jobs.LockInput(dir, input)
	if err != nil {
		t.Fatalf("expected lock after release, got %v", err)
	}
	_ = second.Release()
}

func TestLockInputDistinctPaths(t *testing.T) {
	dir := t.TempDir()
	a, err := jobs.LockInput(dir, "/media/a.mkv")
	if err != nil {
		t.Fatalf("LockInput a failed: %v", err)
	}
	defer a.Release()
	b, err := jobs.LockInput(dir, "/media/b.mkv")
	if err != nil {
		t.Fatalf("LockInput b failed: %v", err)
	}
	defer b.Release()
	if a.Path() == b.Path() {
		t.Fatal("expected distinct lock files")
	}
}
