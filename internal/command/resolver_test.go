package command_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"ffloom/internal/command"
	"ffloom/internal/media"
	"ffloom/internal/services"
)

func fixedKind(kind media.Kind) media.Detector {
	return func(string) media.Kind { return kind }
}

func newResolver() *command.Resolver {
	return command.NewResolver(command.WithDetector(fixedKind(media.KindVideo)))
}

func TestResolveEchoCaseUsesTemporaryPath(t *testing.T) {
	res, err := newResolver().Resolve(command.Request{
		Template: []string{"tool", "-i", "mltb", "-c", "copy", "mltb"},
		Input:    "/tmp/video.mkv",
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Tool != "tool" {
		t.Fatalf("expected tool alias, got %q", res.Tool)
	}
	wantArgs := []string{"-i", "/tmp/video.mkv", "-c", "copy", "/tmp/video.ffloom-tmp.mkv"}
	if diff := cmp.Diff(wantArgs, res.Args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
	wantOutputs := []command.Output{{Path: "/tmp/video.ffloom-tmp.mkv", Final: "/tmp/video.mkv"}}
	if diff := cmp.Diff(wantOutputs, res.Outputs); diff != "" {
		t.Fatalf("outputs mismatch (-want +got):\n%s", diff)
	}
	if !res.Outputs[0].Replaces() {
		t.Fatal("expected echo output to replace the input")
	}
}

func TestResolveSuffixOutput(t *testing.T) {
	res, err := newResolver().Resolve(command.Request{
		Template: []string{"-i", "mltb", "-c:v", "libx264", "mltb.mp4"},
		Input:    "/data/show/episode.avi",
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if diff := cmp.Diff([]string{"/data/show/episode.mp4"}, res.Finals()); diff != "" {
		t.Fatalf("finals mismatch (-want +got):\n%s", diff)
	}
	if res.Tool != "" {
		t.Fatalf("expected no tool alias, got %q", res.Tool)
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	req := command.Request{
		Template: []string{"xtra", "-i", "mltb", "-i", "mltb.audio", "-map", "0:v", "-map", "1:a", "-c", "copy", "mltb%02d.mkv", "-del"},
		Input:    "/m/movie.mkv",
		Aux:      map[media.Kind][]string{media.KindAudio: {"/m/dub.m4a"}},
	}
	r := newResolver()
	first, err := r.Resolve(req)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	second, err := r.Resolve(req)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("resolve not deterministic (-first +second):\n%s", diff)
	}
	if !first.DeleteInput {
		t.Fatal("expected delete flag to be honoured")
	}
	for _, arg := range first.Args {
		if arg == command.DeleteFlag {
			t.Fatal("delete flag must be stripped from args")
		}
	}
}

func TestResolveDynamicOutputsPerMap(t *testing.T) {
	res, err := newResolver().Resolve(command.Request{
		Template: []string{"-i", "mltb", "-i", "mltb.audio", "-map", "0:v", "-map", "1:a", "-map", "0:s", "-c", "copy", "mltb.%03d.mkv"},
		Input:    "/m/movie.mkv",
		Aux:      map[media.Kind][]string{media.KindAudio: {"/m/dub.m4a"}},
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	wantArgs := []string{
		"-i", "/m/movie.mkv", "-i", "/m/dub.m4a",
		"-map", "0:v", "-c", "copy", "/m/movie.001.mkv",
		"-map", "1:a", "-c", "copy", "/m/dub.002.mkv",
		"-map", "0:s", "-c", "copy", "/m/movie.003.mkv",
	}
	if diff := cmp.Diff(wantArgs, res.Args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
	if len(res.Outputs) != 3 {
		t.Fatalf("expected 3 outputs, got %d", len(res.Outputs))
	}
}

func TestResolveDynamicDefaultsToOneOutput(t *testing.T) {
	res, err := newResolver().Resolve(command.Request{
		Template: []string{"-i", "mltb", "-vn", "mltb_%02d.flac"},
		Input:    "/m/song.mp3",
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if diff := cmp.Diff([]string{"/m/song_01.flac"}, res.Finals()); diff != "" {
		t.Fatalf("finals mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveAuxFallbacks(t *testing.T) {
	tests := []struct {
		name   string
		detect media.Kind
		aux    map[media.Kind][]string
		want   []string
	}{
		{
			name:   "aux consumed once then primary of matching kind",
			detect: media.KindSubtitle,
			aux:    map[media.Kind][]string{media.KindSubtitle: {"/m/en.srt"}},
			want:   []string{"/m/en.srt", "/m/main.srt"},
		},
		{
			name:   "mismatched primary used as last resort",
			detect: media.KindVideo,
			aux:    nil,
			want:   []string{"/m/main.srt", "/m/main.srt"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := command.NewResolver(command.WithDetector(fixedKind(tt.detect)))
			res, err := r.Resolve(command.Request{
				Template: []string{"-i", "mltb.subtitle", "-i", "mltb.subtitle", "-map", "0", "mltb.out.srt"},
				Input:    "/m/main.srt",
				Aux:      tt.aux,
			})
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, res.Inputs); diff != "" {
				t.Fatalf("inputs mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolveBaseNameFollowsMap(t *testing.T) {
	res, err := newResolver().Resolve(command.Request{
		Template: []string{"-i", "mltb", "-i", "mltb.video", "-map", "1:v", "mltb.mkv"},
		Input:    "/m/primary.mkv",
		Aux:      map[media.Kind][]string{media.KindVideo: {"/other/extra.mp4"}},
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if diff := cmp.Diff([]string{"/m/extra.mkv"}, res.Finals()); diff != "" {
		t.Fatalf("finals mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveMalformedTemplates(t *testing.T) {
	tests := []struct {
		name     string
		template []string
	}{
		{"empty", nil},
		{"dangling input flag", []string{"-i"}},
		{"no output", []string{"-i", "mltb", "-f", "null", "-"}},
		{"two verbs", []string{"-i", "mltb", "mltb%d_%d.mkv"}},
		{"unknown kind", []string{"-i", "mltb.hologram", "mltb.mkv"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newResolver().Resolve(command.Request{Template: tt.template, Input: "/m/a.mkv"})
			if !errors.Is(err, services.ErrMalformedTemplate) {
				t.Fatalf("expected malformed template error, got %v", err)
			}
		})
	}
}

func TestResolveCustomPrefix(t *testing.T) {
	r := command.NewResolver(command.WithPrefix("@in"), command.WithDetector(fixedKind(media.KindVideo)))
	res, err := r.Resolve(command.Request{
		Template: []string{"-i", "@in", "-an", "@in.noaudio.mkv"},
		Input:    "/m/a.mkv",
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if diff := cmp.Diff([]string{"/m/a.noaudio.mkv"}, res.Finals()); diff != "" {
		t.Fatalf("finals mismatch (-want +got):\n%s", diff)
	}
}

func TestMapInputIndex(t *testing.T) {
	tests := []struct {
		spec string
		idx  int
		ok   bool
	}{
		{"0", 0, true},
		{"1:a:0", 1, true},
		{"-0:s", 0, true},
		{"2?", 2, true},
		{"[v]", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		idx, ok := command.MapInputIndex(tt.spec)
		if idx != tt.idx || ok != tt.ok {
			t.Fatalf("MapInputIndex(%q) = %d,%v want %d,%v", tt.spec, idx, ok, tt.idx, tt.ok)
		}
	}
}
