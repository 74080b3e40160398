package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("disk full") }

func TestNewMultiHandlerCollapses(t *testing.T) {
	if _, ok := newMultiHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when every member is nil")
	}
	inner := slog.NewJSONHandler(&bytes.Buffer{}, nil)
	if h := newMultiHandler(nil, inner); h != inner {
		t.Fatalf("expected the single member unwrapped, got %T", h)
	}
}

func TestMultiHandlerConsoleAndRunLog(t *testing.T) {
	var console, file bytes.Buffer
	h := newMultiHandler(
		slog.NewTextHandler(&console, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&file, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected debug enabled through the file member")
	}

	logger := slog.New(h).With(String(FieldJobID, "job-1")).WithGroup("tool")
	logger.Debug("starting tool", String("binary", "ffmpeg"))
	logger.Info("tool finished", Int("outputs", 1))

	if strings.Contains(console.String(), "starting tool") {
		t.Fatalf("console should not receive debug records: %q", console.String())
	}
	if !strings.Contains(console.String(), "tool finished") {
		t.Fatalf("console missing info record: %q", console.String())
	}
	lines := strings.Split(strings.TrimSpace(file.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 file records, got %d: %q", len(lines), file.String())
	}
	for _, line := range lines {
		if !strings.Contains(line, `"job_id":"job-1"`) || !strings.Contains(line, `"tool":{`) {
			t.Fatalf("attrs or group not propagated: %s", line)
		}
	}
}

func TestMultiHandlerJoinsErrors(t *testing.T) {
	var buf bytes.Buffer
	ok := slog.NewJSONHandler(&buf, nil)
	h := newMultiHandler(ok, failingHandler{ok})

	record := slog.NewRecord(time.Now(), slog.LevelInfo, "msg", 0)
	err := h.Handle(context.Background(), record)
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected joined error, got %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("healthy member should still write")
	}
}
