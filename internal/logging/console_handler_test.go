package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestPrettyHandlerRendersHeaderAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newPrettyHandler(&buf, slog.LevelInfo, false))
	logger = NewComponentLogger(logger, "split").With(String(FieldJobID, "0123456789"), String(FieldStage, "part 2"))
	logger.Info("part written", Int64("size_bytes", 3<<20), String(FieldCorrelationID, "hidden"))

	out := buf.String()
	for _, want := range []string{"INFO [split] Job 01234567 (part 2) – part written", "- Size: 3.0 MiB", "+ 1 more field hidden"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in:\n%s", want, out)
		}
	}
}

func TestPrettyHandlerSuppressesRepeatedInfoValues(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newPrettyHandler(&buf, slog.LevelInfo, false)).With(String(FieldJobID, "j"))
	logger.Info("first", String("target", "mp4"))
	logger.Info("second", String("target", "mp4"))

	if n := strings.Count(buf.String(), "Target: mp4"); n != 1 {
		t.Fatalf("expected repeated field once, got %d in:\n%s", n, buf.String())
	}
}

func TestPrettyHandlerDebugPrintsEverything(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newPrettyHandler(&buf, slog.LevelDebug, false))
	logger.Debug("spawn", String("args", "-i in.mkv out.mp4"))
	if !strings.Contains(buf.String(), `args: "-i in.mkv out.mp4"`) {
		t.Fatalf("expected raw args in debug output:\n%s", buf.String())
	}
}

func TestFormatDurationHuman(t *testing.T) {
	cases := map[string]string{
		"90s":   "1m30s",
		"3725s": "1h02m05s",
		"4s":    "4s",
	}
	for in, want := range cases {
		d, err := time.ParseDuration(in)
		if err != nil {
			t.Fatalf("parse %s: %v", in, err)
		}
		if got := formatDurationHuman(d); got != want {
			t.Fatalf("formatDurationHuman(%s) = %q, want %q", in, got, want)
		}
	}
}
