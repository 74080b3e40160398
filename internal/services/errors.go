package services

import (
	"errors"
	"fmt"
	"strings"

	"ffloom/internal/jobs"
)

var (
	ErrMalformedTemplate = errors.New("malformed template")
	ErrProcessFailure    = errors.New("process failure")
	ErrValidation        = errors.New("validation failure")
	ErrCancelled         = errors.New("cancelled")
	ErrCorruptedSource   = errors.New("corrupted source")
	ErrConfiguration     = errors.New("configuration error")
)

// stderrTailLines bounds how much tool output Error() repeats.
const stderrTailLines = 5

// Failure is the error type returned across the pipeline's public boundary.
// Kind is one of the sentinel markers above; Stderr holds the captured tool
// output, if any.
type Failure struct {
	Kind   error
	Op     string
	Path   string
	Stderr string
	Err    error
}

func (f *Failure) Error() string {
	kind := f.Kind
	if kind == nil {
		kind = ErrProcessFailure
	}
	parts := []string{kind.Error()}
	if op := strings.TrimSpace(f.Op); op != "" {
		parts = append(parts, op)
	}
	if path := strings.TrimSpace(f.Path); path != "" {
		parts = append(parts, path)
	}
	if f.Err != nil {
		parts = append(parts, f.Err.Error())
	}
	if tail := StderrTail(f.Stderr, stderrTailLines); tail != "" {
		parts = append(parts, tail)
	}
	return strings.Join(parts, ": ")
}

// Unwrap exposes both the kind marker and the underlying cause.
func (f *Failure) Unwrap() []error {
	errs := make([]error, 0, 2)
	if f.Kind != nil {
		errs = append(errs, f.Kind)
	}
	if f.Err != nil {
		errs = append(errs, f.Err)
	}
	return errs
}

// ProcessFailure reports a non-zero tool exit.
func ProcessFailure(op, path, stderr string, err error) error {
	return &Failure{Kind: ErrProcessFailure, Op: op, Path: path, Stderr: stderr, Err: err}
}

// ValidationFailure reports outputs that are missing or empty after a
// successful exit.
func ValidationFailure(op, path string, err error) error {
	return &Failure{Kind: ErrValidation, Op: op, Path: path, Err: err}
}

// Cancelled reports a caller-initiated stop.
func Cancelled(op, path string) error {
	return &Failure{Kind: ErrCancelled, Op: op, Path: path}
}

// CorruptedSource reports probe data that cannot drive the operation.
func CorruptedSource(op, path, message string) error {
	return &Failure{Kind: ErrCorruptedSource, Op: op, Path: path, Err: errors.New(message)}
}

// MalformedTemplate reports a command template that cannot be resolved.
func MalformedTemplate(format string, args ...any) error {
	return &Failure{Kind: ErrMalformedTemplate, Op: "resolve", Err: fmt.Errorf(format, args...)}
}

// IsCancelled reports whether err represents a cancellation.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// StderrOf returns the captured stderr carried by err, if any.
func StderrOf(err error) string {
	var failure *Failure
	if errors.As(err, &failure) {
		return failure.Stderr
	}
	return ""
}

// StderrTail returns the last n non-empty lines of stderr joined by " | ".
func StderrTail(stderr string, n int) string {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" || n <= 0 {
		return ""
	}
	raw := strings.Split(stderr, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later status classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrProcessFailure
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureStatus maps a pipeline error to the job status the history store
// should persist.
func FailureStatus(err error) jobs.Status {
	switch {
	case err == nil:
		return jobs.StatusSucceeded
	case errors.Is(err, ErrCancelled):
		return jobs.StatusCancelled
	default:
		return jobs.StatusFailed
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
