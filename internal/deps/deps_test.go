package deps

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeStub(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := writeStub(t, binDir, "ffmpeg", "echo 'ffmpeg version 7.1 Copyright'\necho second\n")
	reqs := []Requirement{
		{Name: "FFmpeg", Command: present, VersionArg: "-version"},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Empty", Command: "  ", Optional: true},
	}

	results := CheckBinaries(context.Background(), reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Path != present {
		t.Fatalf("expected first requirement available, got %#v", results[0])
	}
	if results[0].Version != "ffmpeg version 7.1 Copyright" {
		t.Fatalf("unexpected version %q", results[0].Version)
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary with detail, got %#v", results[1])
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for empty command: %q", results[2].Detail)
	}

	missing := Missing(results)
	if len(missing) != 1 || missing[0].Name != "Missing" {
		t.Fatalf("Missing() = %#v", missing)
	}
}

func TestCheckBinariesToleratesVersionFailure(t *testing.T) {
	stub := writeStub(t, t.TempDir(), "7z", "exit 2\n")
	results := CheckBinaries(context.Background(), []Requirement{{Name: "7-Zip", Command: stub, VersionArg: "--help"}})
	if !results[0].Available || results[0].Version != "" {
		t.Fatalf("unexpected status %#v", results[0])
	}
}
