package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"ffloom/internal/config"
	"ffloom/internal/jobs"
	"ffloom/internal/logging"
	"ffloom/internal/pipeline"
	"ffloom/internal/preflight"
	"ffloom/internal/services"
)

// jobSpec names what a command is about to do to one input.
type jobSpec struct {
	Operation    string
	Input        string
	Template     []string
	ExpectedSize int64
	// SkipSpaceCheck is set for operations whose outputs are small, such
	// as screenshots.
	SkipSpaceCheck bool
}

type jobResult struct {
	Outputs  []string
	Attempts int
}

// jobFunc receives the absolute input path.
type jobFunc func(ctx context.Context, eng *engine, job pipeline.Job, input string) (jobResult, error)

// runJob locks the input, records the job in history, runs fn with a
// progress bar on a terminal and prints the outputs.
func (c *commandContext) runJob(cmd *cobra.Command, spec jobSpec, fn jobFunc) error {
	eng, err := c.ensureEngine()
	if err != nil {
		return err
	}
	cfg := eng.cfg

	input, err := resolveInput(spec.Input)
	if err != nil {
		return err
	}
	spec.Input = input

	if !spec.SkipSpaceCheck {
		if check := preflight.CheckOutputSpace(input); !check.Passed {
			return services.Wrap(services.ErrConfiguration, "preflight", spec.Operation, check.Detail, nil)
		}
	}

	lock, err := jobs.LockInput(cfg.LockDir(), input)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	store, err := jobs.Open(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	id, err := store.Begin(ctx, spec.Operation, input, spec.Template)
	if err != nil {
		return fmt.Errorf("record job: %w", err)
	}
	ctx = services.WithJobID(ctx, id)
	ctx = services.WithRequestID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, eng.logger)

	job := pipeline.NewJob(ctx)
	job.ExpectedSize = spec.ExpectedSize
	stopCancel := context.AfterFunc(ctx, job.Token.Cancel)
	defer stopCancel()

	logger.Info("job started",
		logging.String(logging.FieldEventType, "job_started"),
		logging.String("operation", spec.Operation),
		logging.String("input", input),
	)
	started := time.Now()

	bar := c.startProgress(cmd, spec.Operation, job)
	result, runErr := fn(ctx, eng, job, input)
	bar.stop(runErr == nil)

	outcome := jobs.Outcome{
		Status:   services.FailureStatus(runErr),
		Outputs:  result.Outputs,
		Attempts: result.Attempts,
	}
	if runErr != nil {
		outcome.ErrorMessage = runErr.Error()
	}
	if err := store.Finish(context.WithoutCancel(ctx), id, outcome); err != nil {
		logging.WarnWithContext(logger, "failed to record job outcome", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "history shows the job as running"),
		)
	}

	if runErr != nil {
		if services.IsCancelled(runErr) {
			logger.Info("job cancelled",
				logging.String(logging.FieldEventType, "job_cancelled"),
				logging.Duration("elapsed", time.Since(started)),
			)
			return runErr
		}
		logging.ErrorWithContext(logger, "job failed", "job_failed",
			logging.Error(runErr),
			logging.String("stderr_tail", services.StderrTail(services.StderrOf(runErr), 3)),
		)
		return runErr
	}

	logger.Info("job finished",
		logging.String(logging.FieldEventType, "job_finished"),
		logging.Int("outputs", len(result.Outputs)),
		logging.Duration("elapsed", time.Since(started)),
	)
	out := cmd.OutOrStdout()
	for _, path := range result.Outputs {
		fmt.Fprintln(out, path)
	}
	return nil
}

// resolveInput expands and verifies the input path.
func resolveInput(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", services.Wrap(services.ErrConfiguration, "input", "resolve", "input path is required", nil)
	}
	expanded, err := config.ExpandPath(value)
	if err != nil {
		return "", fmt.Errorf("resolve input path: %w", err)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("resolve input path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", services.Wrap(services.ErrConfiguration, "input", "resolve", "input not found: "+abs, nil)
		}
		return "", fmt.Errorf("stat input: %w", err)
	}
	if info.IsDir() {
		return "", services.Wrap(services.ErrConfiguration, "input", "resolve", "input is a directory: "+abs, nil)
	}
	return abs, nil
}
