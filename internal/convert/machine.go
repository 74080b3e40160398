package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"ffloom/internal/command"
	"ffloom/internal/fileutil"
	"ffloom/internal/logging"
	"ffloom/internal/media"
	"ffloom/internal/pipeline"
	"ffloom/internal/services"
	"ffloom/internal/staging"
)

// Runner executes one resolved command. *pipeline.Executor satisfies it.
type Runner interface {
	Run(ctx context.Context, job pipeline.Job, res command.Resolved) ([]string, error)
}

// Request describes one conversion.
type Request struct {
	Input       string
	Target      string
	Settings    Settings
	DeleteInput bool
}

// Machine drives the fallback ladder.
type Machine struct {
	runner  Runner
	threads int
	logger  *slog.Logger
}

// Option configures a Machine.
type Option func(*Machine)

// WithThreads overrides the encoder thread count.
func WithThreads(n int) Option {
	return func(m *Machine) {
		if n > 0 {
			m.threads = n
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) {
		m.logger = logging.NewComponentLogger(logger, "convert")
	}
}

// NewMachine constructs a Machine around runner.
func NewMachine(runner Runner, opts ...Option) *Machine {
	m := &Machine{
		runner:  runner,
		threads: DefaultThreads(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// DefaultThreads is half the available CPUs, at least one.
func DefaultThreads() int {
	return max(1, runtime.NumCPU()/2)
}

// Ladder returns the rungs attempted for a target kind.
func Ladder(kind media.Kind, target string, settings Settings) []State {
	var ladder []State
	switch kind {
	case media.KindVideo:
		ladder = []State{StateCopy, StateFullTranscode, StateReducedStream}
		if VideoProfile(target).Alternate != nil {
			ladder = append(ladder, StateAlternateCodec)
		}
	case media.KindAudio:
		ladder = []State{StateCopy, StateFullTranscode, StateReducedStream}
	case media.KindSubtitle:
		ladder = []State{StateFullTranscode, StateReducedStream}
	case media.KindImage, media.KindDocument, media.KindArchive:
		ladder = []State{StateFullTranscode}
	default:
		return nil
	}
	if settings.Custom() && ladder[0] == StateCopy {
		ladder = ladder[1:]
	}
	return ladder
}

// Convert walks the ladder until a rung succeeds.
func (m *Machine) Convert(ctx context.Context, job pipeline.Job, req Request) (Result, error) {
	job = job.Normalize(ctx)
	target := normalizeTarget(req.Target)
	if strings.TrimSpace(req.Input) == "" || target == "" {
		return Result{State: StateFailed}, services.Wrap(services.ErrConfiguration, "convert", "request", "input and target are required", nil)
	}
	kind := media.KindForExtension(target)
	ladder := Ladder(kind, target, req.Settings)
	if len(ladder) == 0 {
		return Result{State: StateFailed}, services.Wrap(services.ErrConfiguration, "convert", "target", fmt.Sprintf("unsupported target %q", target), nil)
	}
	if normalizeTarget(filepath.Ext(req.Input)) == target && !req.Settings.Custom() {
		return Result{State: StateSuccess, Outputs: []string{req.Input}}, nil
	}

	logger := logging.WithContext(services.WithStage(ctx, "convert"), m.logger)
	job.Progress.Clear()
	result := Result{}
	var lastErr error

	for i, state := range ladder {
		if job.Cancelled(ctx) {
			result.State = StateCancelled
			return result, services.Cancelled("convert", req.Input)
		}
		outputs, attemptOutput, err := m.attempt(ctx, job, req, kind, target, state)
		result.Attempts = append(result.Attempts, Attempt{Ordinal: i + 1, State: state, Output: attemptOutput, Err: err})
		if err == nil {
			result.State = StateSuccess
			result.Outputs = outputs
			job.Progress.Finish()
			logger.Info("conversion complete",
				logging.String("input", req.Input),
				logging.String("target", target),
				logging.String("state", state.String()),
				logging.Int("attempt", i+1),
			)
			return result, nil
		}
		if services.IsCancelled(err) {
			result.State = StateCancelled
			return result, err
		}
		if !errors.Is(err, services.ErrProcessFailure) {
			result.State = StateFailed
			return result, err
		}
		lastErr = err
		next := StateFailed
		if i+1 < len(ladder) {
			next = ladder[i+1]
		}
		attrs := []logging.Attr{
			logging.String("input", req.Input),
			logging.String("state", state.String()),
			logging.Int("attempt", i+1),
			logging.String("stderr_tail", services.StderrTail(services.StderrOf(err), 2)),
			logging.String(logging.FieldImpact, "falling back to the next strategy"),
		}
		attrs = append(attrs, logging.DecisionAttrs("convert_fallback", next.String(), "tool exited with an error")...)
		logging.WarnWithContext(logger, "conversion rung failed", "convert_rung_failed", attrs...)
	}

	result.State = StateFailed
	if n := len(result.Attempts); n > 0 {
		if written := result.Attempts[n-1].Output; written != "" && filepath.Clean(written) != filepath.Clean(req.Input) {
			_ = fileutil.RemovePaths(written)
		}
	}
	return result, &services.Failure{
		Kind:   services.ErrProcessFailure,
		Op:     "convert",
		Path:   req.Input,
		Stderr: services.StderrOf(lastErr),
		Err:    fmt.Errorf("all %d strategies failed: %w", len(result.Attempts), lastErr),
	}
}

// attempt builds and runs one rung. It returns the final outputs, the path
// the tool writes and the run error.
func (m *Machine) attempt(ctx context.Context, job pipeline.Job, req Request, kind media.Kind, target string, state State) ([]string, string, error) {
	out := outputFor(req.Input, target)
	switch kind {
	case media.KindDocument:
		doc := documentCommand(req, target, out)
		return m.run(ctx, job, doc, doc.Outputs[0].Path)
	case media.KindArchive:
		return m.convertArchive(ctx, job, req, out)
	}
	args := BuildArgs(kind, target, state, req.Settings, m.threads, req.Input, out.Path)
	res := command.Resolved{
		Args:        args,
		Inputs:      []string{req.Input},
		Outputs:     []command.Output{out},
		DeleteInput: req.DeleteInput,
		Input:       req.Input,
	}
	return m.run(ctx, job, res, out.Path)
}

func (m *Machine) run(ctx context.Context, job pipeline.Job, res command.Resolved, written string) ([]string, string, error) {
	outputs, err := m.runner.Run(ctx, job, res)
	return outputs, written, err
}

// BuildArgs returns the ffmpeg arguments for one rung.
func BuildArgs(kind media.Kind, target string, state State, settings Settings, threads int, input, output string) []string {
	args := []string{"-i", input}
	switch kind {
	case media.KindVideo:
		args = append(args, videoRung(VideoProfile(target), state, settings, threads)...)
	case media.KindAudio:
		args = append(args, audioRung(target, state, settings)...)
	case media.KindSubtitle:
		codec := SubtitleCodec(target)
		if state == StateReducedStream {
			args = append(args, "-map", "0:s:0")
		} else {
			args = append(args, "-map", "0:s")
		}
		args = append(args, "-c:s", codec)
	case media.KindImage:
		args = append(args, "-map", "0:v:0", "-frames:v", "1")
	}
	return append(args, output)
}

func videoRung(p Profile, state State, s Settings, threads int) []string {
	var args []string
	switch state {
	case StateCopy:
		args = append(args, "-map", "0", "-c", "copy")
		return append(args, p.AllRungs...)
	case StateFullTranscode:
		args = append(args, "-map", "0")
		args = append(args, p.videoArgs(s)...)
		args = append(args, p.audioArgs(s)...)
		args = append(args, p.subtitleArgs()...)
	case StateReducedStream:
		args = append(args, "-map", "0:v:0", "-map", "0:a:0?")
		args = append(args, p.videoArgs(s)...)
		args = append(args, p.audioArgs(s)...)
		args = append(args, "-sn", "-dn")
	case StateAlternateCodec:
		alt := p.Alternate
		args = append(args, "-map", "0:v:0", "-map", "0:a:0?",
			"-c:v", alt.VideoCodec, "-b:v", alt.VideoBitrate,
			"-c:a", alt.AudioCodec, "-b:a", alt.AudioBitrate,
			"-sn", "-dn")
	}
	args = append(args, p.TranscodeArgs...)
	args = append(args, p.AllRungs...)
	return append(args, "-threads", strconv.Itoa(threads))
}

func audioRung(target string, state State, s Settings) []string {
	codec := AudioCodec(target)
	if v := strings.TrimSpace(s.AudioCodec); v != "" {
		codec = v
	}
	switch state {
	case StateCopy:
		return []string{"-map", "0:a", "-c", "copy"}
	case StateFullTranscode:
		args := []string{"-map", "0:a"}
		if codec != "" {
			args = append(args, "-c:a", codec)
		}
		return args
	default:
		args := []string{"-map", "0:a:0", "-vn", "-sn", "-dn"}
		if codec != "" {
			args = append(args, "-c:a", codec)
		}
		return args
	}
}

func documentCommand(req Request, target string, out command.Output) command.Resolved {
	return command.Resolved{
		Tool:        "soffice",
		Args:        []string{"--headless", "--convert-to", target, "--outdir", filepath.Dir(out.Path), req.Input},
		Inputs:      []string{req.Input},
		Outputs:     []command.Output{{Path: out.Final, Final: out.Final}},
		DeleteInput: req.DeleteInput,
		Input:       req.Input,
	}
}

// convertArchive extracts the input into a scratch directory and repacks it
// in the target format.
func (m *Machine) convertArchive(ctx context.Context, job pipeline.Job, req Request, out command.Output) ([]string, string, error) {
	scratch, err := os.MkdirTemp(filepath.Dir(req.Input), staging.ExtractPrefix)
	if err != nil {
		return nil, out.Path, services.Wrap(services.ErrConfiguration, "convert", "archive", "create scratch dir", err)
	}
	defer func() { _ = os.RemoveAll(scratch) }()

	extract := command.Resolved{
		Tool:    "7z",
		Args:    []string{"x", "-y", "-o" + scratch, req.Input},
		Inputs:  []string{req.Input},
		Outputs: []command.Output{{Path: scratch, Final: scratch}},
		Input:   req.Input,
	}
	if _, err := m.runner.Run(ctx, job, extract); err != nil {
		return nil, out.Path, err
	}
	pack := command.Resolved{
		Tool:        "7z",
		Args:        []string{"a", "-y", out.Path, filepath.Join(scratch, "*")},
		Inputs:      []string{scratch},
		Outputs:     []command.Output{out},
		DeleteInput: req.DeleteInput,
		Input:       req.Input,
	}
	return m.run(ctx, job, pack, out.Path)
}

// outputFor names the converted file next to input. Converting onto the
// input's own name writes a scratch file that replaces it afterwards.
func outputFor(input, target string) command.Output {
	ext := filepath.Ext(input)
	stem := strings.TrimSuffix(input, ext)
	final := stem + "." + target
	if filepath.Clean(final) == filepath.Clean(input) {
		return command.Output{Path: stem + command.TempMarker + "." + target, Final: final}
	}
	return command.Output{Path: final, Final: final}
}
