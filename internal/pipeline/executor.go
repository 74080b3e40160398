package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"slices"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"ffloom/internal/command"
	"ffloom/internal/fileutil"
	"ffloom/internal/logging"
	"ffloom/internal/progress"
	"ffloom/internal/services"
)

var commandContext = exec.CommandContext

// DefaultFFmpeg is the binary used when none is configured.
const DefaultFFmpeg = "ffmpeg"

// progressArgs make ffmpeg write the machine-readable progress stream to
// stdout and keep stderr for errors only.
var progressArgs = []string{"-hide_banner", "-loglevel", "error", "-progress", "pipe:1", "-nostats"}

// DurationFunc returns the media duration of path in seconds, or zero.
type DurationFunc func(ctx context.Context, path string) float64

// Executor runs resolved commands one at a time. Template aliases other than
// the configured tools (7z, soffice) all spawn the ffmpeg binary.
type Executor struct {
	ffmpeg   string
	tools    map[string]string
	monitor  *progress.Monitor
	duration DurationFunc
	logger   *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithFFmpeg sets the media tool binary.
func WithFFmpeg(binary string) Option {
	return func(e *Executor) {
		if b := strings.TrimSpace(binary); b != "" {
			e.ffmpeg = b
		}
	}
}

// WithTool maps a template alias such as "7z" to a binary.
func WithTool(alias, binary string) Option {
	return func(e *Executor) {
		alias = strings.TrimSpace(alias)
		if alias == "" || strings.TrimSpace(binary) == "" {
			return
		}
		e.tools[strings.ToLower(alias)] = strings.TrimSpace(binary)
	}
}

// WithMonitor replaces the default progress monitor.
func WithMonitor(m *progress.Monitor) Option {
	return func(e *Executor) {
		if m != nil {
			e.monitor = m
		}
	}
}

// WithDurationProbe supplies total durations for percent and ETA.
func WithDurationProbe(fn DurationFunc) Option {
	return func(e *Executor) {
		e.duration = fn
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.logger = logging.NewComponentLogger(logger, "executor")
	}
}

// NewExecutor constructs an Executor.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{
		ffmpeg:  DefaultFFmpeg,
		tools:   map[string]string{"7z": "7z", "soffice": "soffice"},
		monitor: progress.NewMonitor(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FFmpeg returns the configured media tool binary.
func (e *Executor) FFmpeg() string {
	return e.ffmpeg
}

// Run executes one resolved command and returns the final output paths.
func (e *Executor) Run(ctx context.Context, job Job, res command.Resolved) ([]string, error) {
	job = job.Normalize(ctx)
	op := toolName(res.Tool)
	if job.Cancelled(ctx) {
		return nil, services.Cancelled(op, res.Input)
	}

	binary, isFFmpeg := e.binaryFor(res.Tool)
	args := res.Args
	if isFFmpeg {
		args = withProgressArgs(args)
		if job.Progress.Total() <= 0 && e.duration != nil && res.Input != "" {
			job.Progress.SetTotal(e.duration(ctx, res.Input))
		}
	}
	if job.ExpectedSize > 0 {
		job.Progress.SetExpectedSize(job.ExpectedSize)
	}

	logger := logging.WithContext(ctx, e.logger)
	logger.Debug("starting tool",
		logging.String("binary", binary),
		logging.String("input", res.Input),
		logging.Int("outputs", len(res.Outputs)),
		logging.String("args", strings.Join(args, " ")),
	)

	stderr, waitErr := e.spawn(ctx, job, binary, args)
	paths := res.Paths()

	if waitErr != nil {
		_ = fileutil.RemovePaths(paths...)
		if job.Cancelled(ctx) || killedBySignal(waitErr) {
			logger.Info("tool cancelled", logging.String("input", res.Input))
			return nil, services.Cancelled(op, res.Input)
		}
		logger.Debug("tool failed",
			logging.Error(waitErr),
			logging.String("stderr_tail", services.StderrTail(stderr, 3)),
		)
		return nil, services.ProcessFailure(op, res.Input, stderr, waitErr)
	}

	for _, path := range paths {
		if err := fileutil.ValidateOutput(path); err != nil {
			_ = fileutil.RemovePaths(paths...)
			return nil, services.ValidationFailure(op, path, err)
		}
	}
	for _, out := range res.Outputs {
		if !out.Replaces() {
			continue
		}
		if err := fileutil.MoveFile(out.Path, out.Final); err != nil {
			_ = fileutil.RemovePaths(paths...)
			return nil, services.ValidationFailure(op, out.Final, fmt.Errorf("replace input: %w", err))
		}
	}

	finals := res.Finals()
	if res.DeleteInput && !slices.Contains(finals, res.Input) {
		if err := os.Remove(res.Input); err != nil && !os.IsNotExist(err) {
			logging.WarnWithContext(logger, "failed to delete input after run", "input_delete_failed",
				logging.String("input", res.Input),
				logging.Error(err),
				logging.String(logging.FieldImpact, "original file left on disk"),
			)
		}
	}

	logger.Debug("tool finished", logging.Int("outputs", len(finals)))
	return finals, nil
}

// spawn starts binary, drives the monitor until stdout closes and returns
// the captured stderr together with the wait error.
func (e *Executor) spawn(ctx context.Context, job Job, binary string, args []string) (string, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(job.Token.Context(), cancel)
	defer stop()

	cmd := commandContext(runCtx, binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("start %s: %w", binary, err)
	}
	detach := job.Token.attach(processTerminator{cmd: cmd})
	defer detach()

	lines := make(chan string, 64)
	monitorDone := make(chan struct{})
	var group errgroup.Group
	group.Go(func() error {
		defer close(lines)
		return readLines(stdout, lines, monitorDone)
	})
	group.Go(func() error {
		defer close(monitorDone)
		outcome := e.monitor.Observe(runCtx, lines, job.Progress)
		if outcome == progress.Stalled {
			logging.WarnWithContext(e.logger, "no progress from tool", "progress_stalled",
				logging.String("binary", binary),
				logging.Duration("timeout", e.monitor.Timeout()),
				logging.String(logging.FieldImpact, "progress reporting stopped until the tool exits"),
			)
		}
		return nil
	})
	readErr := group.Wait()

	waitErr := cmd.Wait()
	if waitErr == nil && readErr != nil {
		e.logger.Debug("stdout read failed", logging.Error(readErr))
	}
	return stderr.String(), waitErr
}

// readLines forwards stdout lines until EOF. Once the monitor has stopped
// lines are drained and dropped so the tool never blocks on a full pipe.
func readLines(r io.Reader, lines chan<- string, monitorDone <-chan struct{}) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		select {
		case lines <- scanner.Text():
		case <-monitorDone:
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, os.ErrClosed) {
		_, _ = io.Copy(io.Discard, r)
		return err
	}
	return nil
}

func (e *Executor) binaryFor(tool string) (string, bool) {
	if bin, ok := e.tools[strings.ToLower(tool)]; ok {
		return bin, false
	}
	return e.ffmpeg, true
}

func withProgressArgs(args []string) []string {
	out := make([]string, 0, len(args)+len(progressArgs)+1)
	if !slices.Contains(args, "-progress") {
		out = append(out, progressArgs...)
	}
	if !slices.Contains(args, "-y") && !slices.Contains(args, "-n") {
		out = append(out, "-y")
	}
	return append(out, args...)
}

func toolName(tool string) string {
	if tool == "" {
		return DefaultFFmpeg
	}
	return tool
}

func killedBySignal(err error) bool {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	status, ok := exitErr.Sys().(syscall.WaitStatus)
	return ok && status.Signaled() && status.Signal() == syscall.SIGKILL
}

type processTerminator struct {
	cmd *exec.Cmd
}

func (p processTerminator) Terminate() error {
	if p.cmd == nil || p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}
