package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ffloom/internal/jobs"
)

const ffmpegStub = `#!/bin/sh
if [ -n "$FFLOOM_STUB_FAIL" ]; then
  echo "stub: $FFLOOM_STUB_FAIL" >&2
  exit 1
fi
for a in "$@"; do last="$a"; done
printf 'encoded' > "$last"
echo "total_size=7"
echo "out_time_us=5000000"
echo "progress=continue"
echo "progress=end"
`

const ffprobeStub = `#!/bin/sh
cat <<'JSON'
{
  "streams": [
    {"index": 0, "codec_type": "video", "codec_name": "h264", "width": 640, "height": 360, "pix_fmt": "yuv420p"},
    {"index": 1, "codec_type": "audio", "codec_name": "aac", "channels": 2, "sample_rate": "48000"}
  ],
  "format": {"filename": "in.mkv", "nb_streams": 2, "duration": "10.000000", "size": "4096", "bit_rate": "3276", "format_name": "matroska,webm"}
}
JSON
`

type cliTestEnv struct {
	baseDir    string
	mediaDir   string
	configPath string
	stateDir   string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))

	binDir := filepath.Join(base, "bin")
	mediaDir := filepath.Join(base, "media")
	for _, dir := range []string{binDir, mediaDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	ffmpeg := writeStub(t, binDir, "ffmpeg", ffmpegStub)
	ffprobe := writeStub(t, binDir, "ffprobe", ffprobeStub)

	env := &cliTestEnv{
		baseDir:    base,
		mediaDir:   mediaDir,
		configPath: filepath.Join(base, "config.toml"),
		stateDir:   filepath.Join(base, "state"),
	}
	content := fmt.Sprintf(`[tools]
ffmpeg = %q
ffprobe = %q

[paths]
state_dir = %q
log_dir = %q

[logging]
level = "error"
`, ffmpeg, ffprobe, env.stateDir, filepath.Join(base, "logs"))
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func writeStub(t *testing.T, dir, name, script string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
	return path
}

func (e *cliTestEnv) writeMedia(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(e.mediaDir, name)
	if err := os.WriteFile(path, bytes.Repeat([]byte{0x1a}, 4096), 0o644); err != nil {
		t.Fatalf("write media: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func historyJobs(t *testing.T, env *cliTestEnv, extra ...string) []jobs.Job {
	t.Helper()
	out, _, err := runCLI(t, append([]string{"history", "list", "--json"}, extra...), env.configPath)
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	var items []jobs.Job
	if err := json.Unmarshal([]byte(out), &items); err != nil {
		t.Fatalf("decode history %q: %v", out, err)
	}
	return items
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}
