package preview

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"ffloom/internal/command"
	"ffloom/internal/fileutil"
	"ffloom/internal/logging"
	"ffloom/internal/media/ffprobe"
	"ffloom/internal/pipeline"
	"ffloom/internal/services"
)

// Runner executes one resolved command. *pipeline.Executor satisfies it.
type Runner interface {
	Run(ctx context.Context, job pipeline.Job, res command.Resolved) ([]string, error)
}

// Prober inspects media. *ffprobe.Prober satisfies it.
type Prober interface {
	Probe(ctx context.Context, path string) (ffprobe.Result, error)
}

// Generator builds samples and screenshots.
type Generator struct {
	runner Runner
	prober Prober
	logger *slog.Logger
}

// NewGenerator constructs a Generator.
func NewGenerator(runner Runner, prober Prober, logger *slog.Logger) *Generator {
	return &Generator{
		runner: runner,
		prober: prober,
		logger: logging.NewComponentLogger(logger, "preview"),
	}
}

// SampleName returns the sample clip path for input.
func SampleName(input string) string {
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(filepath.Dir(input), "SAMPLE."+stem+".mkv")
}

// SampleWindows spaces total/part windows of part seconds evenly across
// duration. It returns start times.
func SampleWindows(duration float64, total, part int) ([]float64, error) {
	if part <= 0 || total < part {
		return nil, fmt.Errorf("sample of %ds cannot be built from %ds pieces", total, part)
	}
	if float64(total) >= duration {
		return nil, fmt.Errorf("sample of %ds is not shorter than the %.0fs source", total, duration)
	}
	n := total / part
	interval := duration / float64(n)
	starts := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		starts = append(starts, float64(i)*interval+(interval-float64(part))/2)
	}
	return starts, nil
}

// SampleVideo cuts evenly spaced pieces of part seconds and joins them into
// one clip of roughly total seconds.
func (g *Generator) SampleVideo(ctx context.Context, job pipeline.Job, input string, total, part int) (string, error) {
	job = job.Normalize(ctx)
	info, err := g.prober.Probe(ctx, input)
	if err != nil {
		return "", services.CorruptedSource("sample", input, "probe failed: "+err.Error())
	}
	duration := info.DurationSeconds()
	if duration <= 0 || info.VideoStreamCount() == 0 {
		return "", services.CorruptedSource("sample", input, "no video duration")
	}
	starts, err := SampleWindows(duration, total, part)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "sample", "windows", "", err)
	}
	withAudio := info.AudioStreamCount() > 0
	filter := sampleFilter(starts, float64(part), withAudio)

	out := SampleName(input)
	args := []string{"-i", input, "-filter_complex", filter, "-map", "[vout]"}
	if withAudio {
		args = append(args, "-map", "[aout]", "-c:a", "aac")
	}
	args = append(args, "-c:v", "libx264", "-crf", "24", "-preset", "veryfast", out)

	job.Progress.Clear()
	job.Progress.SetTotal(float64(len(starts) * part))
	outputs, err := g.runner.Run(ctx, job, command.Resolved{
		Args:    args,
		Inputs:  []string{input},
		Outputs: []command.Output{{Path: out, Final: out}},
		Input:   input,
	})
	if err != nil {
		return "", err
	}
	job.Progress.Finish()
	g.logger.Info("sample created", logging.String("input", input), logging.String("output", outputs[0]))
	return outputs[0], nil
}

func sampleFilter(starts []float64, part float64, withAudio bool) string {
	var b strings.Builder
	for i, start := range starts {
		s := formatSeconds(start)
		e := formatSeconds(start + part)
		fmt.Fprintf(&b, "[0:v]trim=start=%s:end=%s,setpts=PTS-STARTPTS[v%d];", s, e, i)
		if withAudio {
			fmt.Fprintf(&b, "[0:a]atrim=start=%s:end=%s,asetpts=PTS-STARTPTS[a%d];", s, e, i)
		}
	}
	for i := range starts {
		fmt.Fprintf(&b, "[v%d]", i)
		if withAudio {
			fmt.Fprintf(&b, "[a%d]", i)
		}
	}
	audio := 0
	labels := "[vout]"
	if withAudio {
		audio = 1
		labels = "[vout][aout]"
	}
	fmt.Fprintf(&b, "concat=n=%d:v=1:a=%d%s", len(starts), audio, labels)
	return b.String()
}

// ScreenshotDir returns the directory screenshots of input are written to.
func ScreenshotDir(input string) string {
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(filepath.Dir(input), stem+"_ss")
}

// Screenshots grabs n frames at duration/(n+1) intervals, one process at a
// time.
func (g *Generator) Screenshots(ctx context.Context, job pipeline.Job, input string, n int) ([]string, error) {
	job = job.Normalize(ctx)
	if n < 1 {
		return nil, services.Wrap(services.ErrConfiguration, "screenshots", "count", fmt.Sprintf("need at least one screenshot, got %d", n), nil)
	}
	info, err := g.prober.Probe(ctx, input)
	if err != nil {
		return nil, services.CorruptedSource("screenshots", input, "probe failed: "+err.Error())
	}
	duration := info.DurationSeconds()
	if duration <= 0 || info.VideoStreamCount() == 0 {
		return nil, services.CorruptedSource("screenshots", input, "no video duration")
	}

	dir := ScreenshotDir(input)
	_, statErr := os.Stat(dir)
	created := errors.Is(statErr, fs.ErrNotExist)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "screenshots", "mkdir", dir, err)
	}
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	interval := duration / float64(n+1)

	job.Progress.Clear()
	var outputs []string
	discard := func() {
		_ = fileutil.RemovePaths(outputs...)
		if created {
			_ = os.Remove(dir)
		}
	}
	for i := 1; i <= n; i++ {
		if job.Cancelled(ctx) {
			discard()
			return nil, services.Cancelled("screenshots", input)
		}
		out := filepath.Join(dir, fmt.Sprintf("%s_%03d.png", stem, i))
		args := []string{"-ss", formatSeconds(interval * float64(i)), "-i", input, "-frames:v", "1", out}
		if _, err := g.runner.Run(ctx, job, command.Resolved{
			Args:    args,
			Inputs:  []string{input},
			Outputs: []command.Output{{Path: out, Final: out}},
			Input:   input,
		}); err != nil {
			discard()
			return nil, err
		}
		outputs = append(outputs, out)
	}
	job.Progress.Finish()
	return outputs, nil
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
