package split

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"ffloom/internal/command"
	"ffloom/internal/fileutil"
	"ffloom/internal/logging"
	"ffloom/internal/pipeline"
	"ffloom/internal/services"
)

// Runner executes one resolved command. *pipeline.Executor satisfies it.
type Runner interface {
	Run(ctx context.Context, job pipeline.Job, res command.Resolved) ([]string, error)
}

// Prober reports media durations. *ffprobe.Prober satisfies it.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Splitter cuts files into parts.
type Splitter struct {
	runner Runner
	prober Prober
	sizeOf func(path string) int64
	logger *slog.Logger
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithSizeFunc overrides how produced part sizes are read.
func WithSizeFunc(fn func(path string) int64) Option {
	return func(s *Splitter) {
		if fn != nil {
			s.sizeOf = fn
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Splitter) {
		s.logger = logging.NewComponentLogger(logger, "split")
	}
}

// NewSplitter constructs a Splitter.
func NewSplitter(runner Runner, prober Prober, opts ...Option) *Splitter {
	s := &Splitter{
		runner: runner,
		prober: prober,
		sizeOf: fileutil.FileSize,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EqualParts extracts n stream-copied segments. A segment that fails to
// extract is logged and skipped; only a split that yields no part at all
// fails.
func (s *Splitter) EqualParts(ctx context.Context, job pipeline.Job, input string, n int) ([]string, error) {
	job = job.Normalize(ctx)
	logger := logging.WithContext(services.WithStage(ctx, "split"), s.logger)
	total, err := s.duration(ctx, input)
	if err != nil {
		return nil, err
	}
	segments, err := Plan(total, n)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "split", "plan", "", err)
	}

	job.Progress.Clear()
	job.Progress.SetTotal(total)
	var outputs []string
	var lastErr error
	for i, seg := range segments {
		if job.Cancelled(ctx) {
			_ = fileutil.RemovePaths(outputs...)
			return nil, services.Cancelled("split", input)
		}
		out := PartName(input, i+1)
		args := []string{
			"-ss", formatSeconds(seg.Start), "-i", input,
			"-t", formatSeconds(seg.Duration), "-map", "0", "-c", "copy", out,
		}
		if _, err := s.runner.Run(ctx, job, resolved(input, out, args)); err != nil {
			if services.IsCancelled(err) {
				_ = fileutil.RemovePaths(outputs...)
				return nil, err
			}
			lastErr = err
			logging.WarnWithContext(logger, "segment extraction failed; skipping", "split_segment_skipped",
				logging.String("input", input),
				logging.Int("part", i+1),
				logging.Float64("start", seg.Start),
				logging.Error(err),
				logging.String(logging.FieldImpact, "the split is missing this time range"),
			)
			continue
		}
		job.Progress.Commit(s.sizeOf(out), seg.Duration)
		outputs = append(outputs, out)
	}
	if len(outputs) == 0 {
		return nil, &services.Failure{
			Kind:   services.ErrProcessFailure,
			Op:     "split",
			Path:   input,
			Stderr: services.StderrOf(lastErr),
			Err:    fmt.Errorf("no part was produced: %w", lastErr),
		}
	}
	job.Progress.Finish()
	return outputs, nil
}

// BySize extracts parts no larger than opts.Ceiling(). Inputs already under
// the ceiling are returned unchanged.
func (s *Splitter) BySize(ctx context.Context, job pipeline.Job, input string, opts SizeOptions) ([]string, error) {
	job = job.Normalize(ctx)
	logger := logging.WithContext(services.WithStage(ctx, "split"), s.logger)
	ceiling := opts.Ceiling()
	if ceiling <= 0 {
		return nil, services.Wrap(services.ErrConfiguration, "split", "ceiling",
			fmt.Sprintf("limits %d/%d leave no room after the safety margin", opts.MaxSize, opts.PlatformLimit), nil)
	}
	size := s.sizeOf(input)
	if size <= 0 {
		return nil, services.CorruptedSource("split", input, "input is empty or unreadable")
	}
	if size <= ceiling {
		return []string{input}, nil
	}
	total, err := s.duration(ctx, input)
	if err != nil {
		return nil, err
	}

	job.Progress.Clear()
	job.Progress.SetTotal(total)

	parts := int(math.Ceil(float64(size) / float64(ceiling)))
	splitSize := ceiling
	start := 0.0
	useMap := true
	var outputs []string
	fail := func(err error) ([]string, error) {
		_ = fileutil.RemovePaths(outputs...)
		return nil, err
	}

	for i := 1; i <= parts || start < total-(BufferSeconds+1); {
		if job.Cancelled(ctx) {
			return fail(services.Cancelled("split", input))
		}
		out := PartName(input, i)
		args := []string{"-ss", formatSeconds(start), "-i", input, "-fs", strconv.FormatInt(splitSize, 10)}
		if useMap {
			args = append(args, "-map", "0")
		}
		args = append(args, "-c", "copy", out)

		if _, err := s.runner.Run(ctx, job, resolved(input, out, args)); err != nil {
			if useMap && errors.Is(err, services.ErrProcessFailure) {
				useMap = false
				attrs := append([]logging.Attr{
					logging.Int("part", i),
					logging.String("stderr_tail", services.StderrTail(services.StderrOf(err), 2)),
				}, logging.DecisionAttrs("split_stream_map", "default_streams", "copying every stream failed")...)
				logger.Info("retrying part with default streams only", logging.Args(attrs...)...)
				continue
			}
			return fail(err)
		}

		partSize := s.sizeOf(out)
		if partSize > ceiling {
			_ = fileutil.RemovePaths(out)
			overage := partSize - ceiling
			next := shrink(splitSize, overage)
			logger.Info("part exceeded size ceiling; shrinking",
				logging.Int("part", i),
				logging.Int64("part_size", partSize),
				logging.Int64("ceiling", ceiling),
				logging.Int64("split_size", next),
			)
			if next < minSplitSize {
				return fail(&services.Failure{
					Kind: services.ErrProcessFailure,
					Op:   "split",
					Path: input,
					Err:  fmt.Errorf("size limit shrank to %d bytes without fitting the ceiling", next),
				})
			}
			splitSize = next
			continue
		}

		partDuration, err := s.prober.Duration(ctx, out)
		if err != nil || partDuration <= 0 {
			_ = fileutil.RemovePaths(out)
			return fail(services.CorruptedSource("split", out, "produced part has no readable duration"))
		}
		if partDuration <= MinTailSeconds {
			_ = fileutil.RemovePaths(out)
			break
		}
		outputs = append(outputs, out)
		job.Progress.Commit(partSize, partDuration)
		if partDuration >= total {
			break
		}
		start += partDuration - BufferSeconds
		i++
	}

	if len(outputs) == 0 {
		return nil, services.CorruptedSource("split", input, "no part was produced")
	}
	job.Progress.Finish()
	return outputs, nil
}

func (s *Splitter) duration(ctx context.Context, input string) (float64, error) {
	total, err := s.prober.Duration(ctx, input)
	if err != nil {
		return 0, services.CorruptedSource("split", input, "probe failed: "+err.Error())
	}
	if total <= 0 {
		return 0, services.CorruptedSource("split", input, "probed duration is zero")
	}
	return total, nil
}

func resolved(input, out string, args []string) command.Resolved {
	return command.Resolved{
		Args:    args,
		Inputs:  []string{input},
		Outputs: []command.Output{{Path: out, Final: out}},
		Input:   input,
	}
}
