package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"ffloom/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("FFLOOM_FFMPEG", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if want := filepath.Join(tempHome, ".config", "ffloom", "config.toml"); resolved != want {
		t.Fatalf("resolved = %q, want %q", resolved, want)
	}
	if want := filepath.Join(tempHome, ".local", "share", "ffloom"); cfg.Paths.StateDir != want {
		t.Fatalf("state dir = %q, want %q", cfg.Paths.StateDir, want)
	}
	if cfg.Tools.FFmpeg != "ffmpeg" || cfg.Tools.FFprobe != "ffprobe" {
		t.Fatalf("unexpected tool defaults: %+v", cfg.Tools)
	}
	if cfg.Pipeline.Prefix != "mltb" {
		t.Fatalf("prefix = %q", cfg.Pipeline.Prefix)
	}
	if cfg.ProgressTimeout().Seconds() != 60 {
		t.Fatalf("progress timeout = %v", cfg.ProgressTimeout())
	}
	if cfg.DatabasePath() != filepath.Join(cfg.Paths.StateDir, "history.db") {
		t.Fatalf("database path = %q", cfg.DatabasePath())
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.LogDir, cfg.LockDir()} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q: %v", dir, err)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "ffloom.toml")

	type payload struct {
		Pipeline struct {
			Prefix          string `toml:"prefix"`
			ProgressTimeout int    `toml:"progress_timeout"`
		} `toml:"pipeline"`
		Split struct {
			MaxSize string `toml:"max_size"`
		} `toml:"split"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	var custom payload
	custom.Pipeline.Prefix = "out"
	custom.Pipeline.ProgressTimeout = 15
	custom.Split.MaxSize = "50 MiB"
	custom.Logging.Format = "JSON"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("resolved = %q exists = %v", resolved, exists)
	}
	if cfg.Pipeline.Prefix != "out" || cfg.Pipeline.ProgressTimeout != 15 {
		t.Fatalf("unexpected pipeline: %+v", cfg.Pipeline)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("format not normalized: %q", cfg.Logging.Format)
	}
	limits, err := cfg.SizeLimits()
	if err != nil {
		t.Fatalf("SizeLimits: %v", err)
	}
	if limits.MaxSize != 50<<20 || limits.PlatformLimit != 2<<30 || limits.SafetyMargin != 3<<20 {
		t.Fatalf("unexpected limits: %+v", limits)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "ffloom.toml")
	if err := os.WriteFile(configPath, []byte("[pipeline]\nprefx = \"x\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, _, _, err := config.Load(configPath)
	if err == nil || !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestEnvOverridesEmptyTool(t *testing.T) {
	t.Setenv("FFLOOM_FFMPEG", "/opt/ffmpeg/bin/ffmpeg")
	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Tools.FFmpeg != "/opt/ffmpeg/bin/ffmpeg" {
		t.Fatalf("ffmpeg = %q", cfg.Tools.FFmpeg)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"prefix whitespace", func(c *config.Config) { c.Pipeline.Prefix = "a b" }, "pipeline.prefix"},
		{"timeout", func(c *config.Config) { c.Pipeline.ProgressTimeout = -1 }, "progress_timeout"},
		{"size", func(c *config.Config) { c.Split.MaxSize = "lots" }, "split.max_size"},
		{"margin", func(c *config.Config) { c.Split.PlatformLimit = "2 MiB" }, "platform_limit"},
		{"crf", func(c *config.Config) { c.Convert.CRF = 70 }, "convert.crf"},
		{"preview", func(c *config.Config) { c.Preview.SamplePart = 90 }, "sample_part"},
		{"level", func(c *config.Config) { c.Logging.Level = "loud" }, "logging.level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("Validate() = %v, want error mentioning %q", err, tc.want)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path, false); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if err := config.CreateSample(path, false); err == nil {
		t.Fatal("expected refusal to overwrite")
	}
	if err := config.CreateSample(path, true); err != nil {
		t.Fatalf("CreateSample overwrite: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists || cfg.Preview.Screenshots != 10 {
		t.Fatalf("unexpected sample config: exists=%v preview=%+v", exists, cfg.Preview)
	}
}
