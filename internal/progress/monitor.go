package progress

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"ffloom/internal/logging"
)

// DefaultStallTimeout is how long the monitor waits for a line before it
// treats the process as stalled.
const DefaultStallTimeout = 60 * time.Second

// notAvailable is ffmpeg's marker for values it cannot compute yet.
const notAvailable = "N/A"

// Outcome reports why observation stopped.
type Outcome int

const (
	// EndOfStream means the line source was closed.
	EndOfStream Outcome = iota
	// Stalled means no line arrived within the stall timeout.
	Stalled
	// Cancelled means the caller's context was done.
	Cancelled
)

func (o Outcome) String() string {
	switch o {
	case EndOfStream:
		return "end_of_stream"
	case Stalled:
		return "stalled"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Monitor parses ffmpeg progress lines into a State.
type Monitor struct {
	timeout time.Duration
	logger  *slog.Logger
}

// Option customizes a Monitor.
type Option func(*Monitor)

// WithStallTimeout overrides DefaultStallTimeout.
func WithStallTimeout(timeout time.Duration) Option {
	return func(m *Monitor) {
		if timeout > 0 {
			m.timeout = timeout
		}
	}
}

// WithLogger attaches a logger for sampled debug progress lines.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Monitor) {
		m.logger = logging.NewComponentLogger(logger, "progress")
	}
}

// NewMonitor constructs a Monitor.
func NewMonitor(opts ...Option) *Monitor {
	m := &Monitor{
		timeout: DefaultStallTimeout,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Timeout returns the configured stall timeout.
func (m *Monitor) Timeout() time.Duration {
	return m.timeout
}

// Observe consumes lines until the channel closes, ctx is done, or the stall
// timeout elapses between two lines. It never returns an error.
func (m *Monitor) Observe(ctx context.Context, lines <-chan string, state *State) Outcome {
	if state == nil {
		state = NewState()
	}
	sampler := newTickSampler(logBucketPercent)
	timer := time.NewTimer(m.timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return Cancelled
		case <-timer.C:
			m.logger.Debug("progress stream stalled",
				logging.Duration("timeout", m.timeout),
			)
			return Stalled
		case line, ok := <-lines:
			if !ok {
				return EndOfStream
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(m.timeout)
			if m.apply(line, state) {
				m.logTick(state, sampler)
			}
		}
	}
}

// apply updates state from one line and reports whether the line closed a
// progress block.
func (m *Monitor) apply(line string, state *State) bool {
	key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok {
		return false
	}
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if value == "" || value == notAvailable {
		return false
	}

	switch key {
	case "total_size":
		if bytes, err := strconv.ParseInt(value, 10, 64); err == nil && bytes >= 0 {
			state.setBytes(bytes)
		}
	case "out_time":
		if seconds, ok := ParseTimestamp(value); ok {
			state.setTime(seconds)
		}
	case "speed":
		if factor, ok := parseSpeed(value); ok {
			state.setSpeed(factor)
		}
	case "bitrate":
		if kbps, ok := parseBitrate(value); ok {
			state.setBitrate(kbps)
		}
	case "progress":
		return true
	}
	return false
}

func (m *Monitor) logTick(state *State, sampler *tickSampler) {
	snap := state.Snapshot()
	if !sampler.allow(snap.Percent) {
		return
	}
	m.logger.Debug("progress",
		logging.Float64(logging.FieldProgressPercent, math.Round(snap.Percent*10)/10),
		logging.Float64("processed_seconds", snap.ProcessedSeconds),
		logging.Int64("processed_bytes", snap.ProcessedBytes),
		logging.Duration(logging.FieldProgressETA, snap.ETA),
	)
}

// ParseTimestamp converts `H:MM:SS.frac` or bare seconds to whole seconds.
// Fractions are truncated; negative values are rejected.
func ParseTimestamp(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" || value == notAvailable || strings.HasPrefix(value, "-") {
		return 0, false
	}
	parts := strings.Split(value, ":")
	if len(parts) > 3 {
		return 0, false
	}
	total := 0.0
	for _, part := range parts {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil || v < 0 {
			return 0, false
		}
		total = total*60 + v
	}
	return math.Trunc(total), true
}

func parseSpeed(value string) (float64, bool) {
	value = strings.TrimSuffix(strings.TrimSpace(value), "x")
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func parseBitrate(value string) (float64, bool) {
	value = strings.TrimSuffix(strings.TrimSpace(value), "kbits/s")
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
