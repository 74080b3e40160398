package main

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"ffloom/internal/media"
	"ffloom/internal/progress"
	"ffloom/internal/services"
)

func TestSplitTemplateArgs(t *testing.T) {
	var gotInput string
	var gotTemplate []string
	cmd := &cobra.Command{
		Use: "run",
		RunE: func(c *cobra.Command, args []string) error {
			gotInput, gotTemplate = splitTemplateArgs(c, args)
			return nil
		},
	}
	cmd.SetArgs([]string{"movie.mkv", "--", "-i", "mltb", "-c", "copy", "mltb.mp4"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if gotInput != "movie.mkv" {
		t.Fatalf("input = %q", gotInput)
	}
	if diff := cmp.Diff([]string{"-i", "mltb", "-c", "copy", "mltb.mp4"}, gotTemplate); diff != "" {
		t.Fatalf("template mismatch (-want +got):\n%s", diff)
	}
}

func TestParseAuxFlags(t *testing.T) {
	dir := t.TempDir()
	sub := writeFile(t, dir, "movie.srt")

	aux, err := parseAuxFlags([]string{"subtitle=" + sub})
	if err != nil {
		t.Fatalf("parseAuxFlags: %v", err)
	}
	if diff := cmp.Diff([]string{sub}, aux[media.KindSubtitle]); diff != "" {
		t.Fatalf("aux mismatch (-want +got):\n%s", diff)
	}

	for _, bad := range []string{"subtitle", "nonsense=" + sub, "audio="} {
		if _, err := parseAuxFlags([]string{bad}); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{services.Cancelled("run", "in.mkv"), 130},
		{services.MalformedTemplate("no output"), 2},
		{services.Wrap(services.ErrConfiguration, "split", "parts", "bad", nil), 2},
		{services.ProcessFailure("ffmpeg", "in.mkv", "boom", fmt.Errorf("exit status 1")), 1},
		{context.Canceled, 1},
	}
	for _, tc := range tests {
		if got := exitCode(tc.err); got != tc.want {
			t.Fatalf("exitCode(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestDescribeProgress(t *testing.T) {
	got := describeProgress("convert", progress.Snapshot{
		Percent:        42.5,
		BytesPerSecond: 2 << 20,
		SpeedFactor:    1.5,
		ETA:            90*time.Second + 400*time.Millisecond,
	})
	for _, want := range []string{"convert", "42.5%", "2.0 MiB/s", "1.50x", "eta 1m30s"} {
		if !strings.Contains(got, want) {
			t.Fatalf("describeProgress = %q, missing %q", got, want)
		}
	}
	if got := describeProgress("split", progress.Snapshot{}); got != "split   0.0%" {
		t.Fatalf("describeProgress(empty) = %q", got)
	}
}

func TestBuildHistoryRowsTruncatesInput(t *testing.T) {
	got := truncate("/very/long/path/to/some/media/directory/with/a/movie.mkv", 20)
	if len([]rune(got)) != 20 || !strings.HasSuffix(got, "movie.mkv") {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("short.mkv", 20); got != "short.mkv" {
		t.Fatalf("truncate(short) = %q", got)
	}
}

func TestFormatClock(t *testing.T) {
	if got := formatClock(3725.4); got != "1:02:05" {
		t.Fatalf("formatClock = %q", got)
	}
}
