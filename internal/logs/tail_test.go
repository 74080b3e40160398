package logs_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"ffloom/internal/logs"
)

func writeLog(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
}

func TestTailLastLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ffloom-1.log")
	writeLog(t, path, "a\nb\nc\n")

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: -1, Limit: 2})
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"b", "c"}, result.Lines); diff != "" {
		t.Fatalf("lines mismatch (-want +got):\n%s", diff)
	}
	if result.Offset != 6 {
		t.Fatalf("offset = %d, want 6", result.Offset)
	}
}

func TestTailFiltersBeforeLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ffloom-1.log")
	writeLog(t, path, `{"msg":"one","job_id":"abc123"}
{"msg":"two","job_id":"zzz999"}
plain text line
{"msg":"three","job_id":"abc123"}
{"msg":"four","job_id":"zzz999"}
`)

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{
		Offset: -1,
		Limit:  5,
		Match:  logs.MatchField("job_id", "abc"),
	})
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	want := []string{`{"msg":"one","job_id":"abc123"}`, `{"msg":"three","job_id":"abc123"}`}
	if diff := cmp.Diff(want, result.Lines); diff != "" {
		t.Fatalf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestTailFromOffsetKeepsPartialLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ffloom-1.log")
	writeLog(t, path, "done\npart")

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: 0})
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if diff := cmp.Diff([]string{"done"}, result.Lines); diff != "" {
		t.Fatalf("lines mismatch (-want +got):\n%s", diff)
	}
	if result.Offset != 5 {
		t.Fatalf("offset = %d, want 5", result.Offset)
	}
}

func TestTailMissingFile(t *testing.T) {
	result, err := logs.Tail(context.Background(), filepath.Join(t.TempDir(), "nope.log"), logs.TailOptions{Offset: 10})
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if result.Offset != 0 || len(result.Lines) != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestTailFollowWaits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ffloom-1.log")
	writeLog(t, path, "start\n")

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	result, err := logs.Tail(ctx, path, logs.TailOptions{Offset: -1, Limit: 1})
	if err != nil {
		t.Fatalf("initial tail: %v", err)
	}

	type outcome struct {
		res logs.TailResult
		err error
	}
	done := make(chan outcome, 1)
	go func(offset int64) {
		res, err := logs.Tail(ctx, path, logs.TailOptions{Offset: offset, Follow: true, Wait: 5 * time.Second})
		done <- outcome{res, err}
	}(result.Offset)

	time.Sleep(200 * time.Millisecond)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString("later\n"); err != nil {
		t.Fatalf("append log: %v", err)
	}
	_ = f.Close()

	select {
	case got := <-done:
		if got.err != nil {
			t.Fatalf("follow tail error: %v", got.err)
		}
		if diff := cmp.Diff([]string{"later"}, got.res.Lines); diff != "" {
			t.Fatalf("follow lines mismatch (-want +got):\n%s", diff)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("tail follow did not return")
	}
}

func TestLatestAndFindJob(t *testing.T) {
	dir := t.TempDir()
	older := filepath.Join(dir, "ffloom-20260101-000000.log")
	newer := filepath.Join(dir, "ffloom-20260102-000000.log")
	writeLog(t, older, `{"msg":"x","job_id":"job-old"}`+"\n")
	writeLog(t, newer, `{"msg":"y","job_id":"job-new"}`+"\n")
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(older, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	latest, err := logs.Latest(dir, "ffloom-*.log")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest != newer {
		t.Fatalf("latest = %s, want %s", latest, newer)
	}

	found, err := logs.FindJob(dir, "ffloom-*.log", "job-old")
	if err != nil {
		t.Fatalf("find job: %v", err)
	}
	if found != older {
		t.Fatalf("find job = %s, want %s", found, older)
	}

	if _, err := logs.FindJob(dir, "ffloom-*.log", "missing"); !errors.Is(err, logs.ErrNoLogs) {
		t.Fatalf("expected ErrNoLogs, got %v", err)
	}
	if _, err := logs.Latest(t.TempDir(), "ffloom-*.log"); !errors.Is(err, logs.ErrNoLogs) {
		t.Fatalf("expected ErrNoLogs for empty dir, got %v", err)
	}
}
