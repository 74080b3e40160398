package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestValidateOutput(t *testing.T) {
	dir := t.TempDir()
	full := filepath.Join(dir, "full.mkv")
	empty := filepath.Join(dir, "empty.mkv")
	emptyDir := filepath.Join(dir, "frames")
	if err := os.WriteFile(full, []byte("data"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.Mkdir(emptyDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if err := ValidateOutput(full); err != nil {
		t.Fatalf("expected full file to validate, got %v", err)
	}
	if err := ValidateOutput(empty); !errors.Is(err, ErrEmptyOutput) {
		t.Fatalf("expected ErrEmptyOutput, got %v", err)
	}
	if err := ValidateOutput(emptyDir); !errors.Is(err, ErrEmptyOutput) {
		t.Fatalf("expected ErrEmptyOutput for empty dir, got %v", err)
	}
	if err := ValidateOutput(filepath.Join(dir, "missing.mkv")); err == nil {
		t.Fatal("expected error for missing output")
	}

	if err := os.WriteFile(filepath.Join(emptyDir, "001.png"), []byte("png"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := ValidateOutput(emptyDir); err != nil {
		t.Fatalf("expected populated dir to validate, got %v", err)
	}
}

func TestRemovePathsIgnoresMissing(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "part.mkv")
	if err := os.WriteFile(target, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := RemovePaths(target, filepath.Join(dir, "missing.mkv"), ""); err != nil {
		t.Fatalf("RemovePaths failed: %v", err)
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Fatalf("expected target removed, stat err=%v", err)
	}
}

func TestMoveFileSameDevice(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.ffloom-tmp.mkv")
	dst := filepath.Join(dir, "a.mkv")
	if err := os.WriteFile(src, []byte("new"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(dst, []byte("old"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := MoveFile(src, dst); err != nil {
		t.Fatalf("MoveFile failed: %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "new" {
		t.Fatalf("expected replaced content, got %q", data)
	}
	if FileSize(dst) != 3 {
		t.Fatalf("unexpected size %d", FileSize(dst))
	}
	if FileSize(src) != 0 {
		t.Fatal("expected source gone")
	}
}
