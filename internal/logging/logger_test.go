package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ffloom/internal/config"
	"ffloom/internal/logging"
	"ffloom/internal/services"
)

func TestNewFromConfigWritesRunLog(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg, "0123456789abcdef")
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	logger.Debug("debug reaches the file", logging.String("input", "a.mkv"))

	matches, err := filepath.Glob(filepath.Join(cfg.Paths.LogDir, logging.LogFilePattern))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one run log, got %v (err %v)", matches, err)
	}
	if !strings.HasSuffix(matches[0], "-01234567.log") {
		t.Fatalf("unexpected run log name %q", matches[0])
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read run log: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &record); err != nil {
		t.Fatalf("decode run log %q: %v", data, err)
	}
	if record["msg"] != "debug reaches the file" || record[logging.FieldSessionID] != "0123456789abcdef" {
		t.Fatalf("unexpected record %v", record)
	}
}

func TestNewFromConfigPrunesOldRunLogs(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.RetentionDays = 1

	stale := filepath.Join(cfg.Paths.LogDir, "ffloom-20000101-000000.log")
	other := filepath.Join(cfg.Paths.LogDir, "keep.txt")
	for _, path := range []string{stale, other} {
		if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		old := time.Now().Add(-72 * time.Hour)
		if err := os.Chtimes(path, old, old); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	if _, err := logging.NewFromConfig(&cfg, "s"); err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("expected stale run log removed, stat err = %v", err)
	}
	if _, err := os.Stat(other); err != nil {
		t.Fatalf("expected unrelated file kept: %v", err)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("message without caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), ".go:") {
		t.Fatalf("expected no caller information, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("message with caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), ".go:") {
		t.Fatalf("expected caller information, got %q", content)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := services.WithJobID(context.Background(), "job-1")
	ctx = services.WithStage(ctx, "stage 1/2")
	ctx = services.WithRequestID(ctx, "req-xyz")

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logging.WithContext(ctx, logger).Info("contextual log")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]string{
		logging.FieldJobID:         "job-1",
		logging.FieldStage:         "stage 1/2",
		logging.FieldCorrelationID: "req-xyz",
	}
	for key, value := range want {
		if record[key] != value {
			t.Fatalf("field %s = %v, want %q", key, record[key], value)
		}
	}
}

func TestWarnWithContextFillsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logging.WarnWithContext(logger, "retrying", "split_retry", logging.String(logging.FieldImpact, "part is smaller"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record[logging.FieldEventType] != "split_retry" {
		t.Fatalf("event_type = %v", record[logging.FieldEventType])
	}
	if record[logging.FieldErrorHint] != "rerun with logging.level = \"debug\" and inspect the run log" {
		t.Fatalf("error_hint = %v", record[logging.FieldErrorHint])
	}
	if record[logging.FieldImpact] != "part is smaller" {
		t.Fatalf("impact overwritten: %v", record[logging.FieldImpact])
	}
}

func TestRunLogName(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC)
	if got := logging.RunLogName(ts, ""); got != "ffloom-20240309-140506.log" {
		t.Fatalf("RunLogName = %q", got)
	}
}

func TestPruneRunLogsKeepsCurrent(t *testing.T) {
	dir := t.TempDir()
	current := filepath.Join(dir, "ffloom-20000101-000000-aaaa.log")
	older := filepath.Join(dir, "ffloom-19990101-000000-bbbb.log")
	old := time.Now().Add(-10 * 24 * time.Hour)
	for _, path := range []string{current, older} {
		if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if err := os.Chtimes(path, old, old); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	if n := logging.PruneRunLogs(logging.NewNop(), dir, logging.LogFilePattern, current, 0); n != 0 {
		t.Fatalf("zero retention removed %d files", n)
	}
	if n := logging.PruneRunLogs(logging.NewNop(), dir, logging.LogFilePattern, current, 3); n != 1 {
		t.Fatalf("removed %d files, want 1", n)
	}
	if _, err := os.Stat(current); err != nil {
		t.Fatalf("current log removed: %v", err)
	}
}
