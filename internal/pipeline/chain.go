package pipeline

import (
	"context"
	"slices"
	"strconv"

	"ffloom/internal/command"
	"ffloom/internal/fileutil"
	"ffloom/internal/logging"
	"ffloom/internal/services"
)

// RunPipeline resolves and runs req.Template followed by each extra
// template. Stage i+1 takes stage i's first output as its primary input.
// Intermediate outputs are removed once the chain ends; a failing stage
// stops the chain.
func (e *Executor) RunPipeline(ctx context.Context, job Job, resolver *command.Resolver, req command.Request, extra ...[]string) ([]string, error) {
	job = job.Normalize(ctx)
	if resolver == nil {
		resolver = command.NewResolver()
	}
	templates := append([][]string{req.Template}, extra...)
	logger := logging.WithContext(ctx, e.logger)

	current := req.Input
	var intermediates, finals []string
	cleanup := func(keep []string) {
		for _, path := range intermediates {
			if path == req.Input || slices.Contains(keep, path) {
				continue
			}
			_ = fileutil.RemovePaths(path)
		}
	}

	for i, template := range templates {
		stageCtx := services.WithStage(ctx, stageName(i, len(templates)))
		if job.Cancelled(ctx) {
			cleanup(nil)
			return nil, services.Cancelled("pipeline", current)
		}
		resolved, err := resolver.Resolve(command.Request{Template: template, Input: current, Aux: req.Aux})
		if err != nil {
			cleanup(nil)
			return nil, err
		}
		job.Progress.Clear()
		outputs, err := e.Run(stageCtx, job, resolved)
		if err != nil {
			cleanup(nil)
			return nil, err
		}
		if i == len(templates)-1 {
			finals = outputs
			break
		}
		logger.Debug("pipeline stage complete",
			logging.Int("stage", i+1),
			logging.String("next_input", outputs[0]),
		)
		intermediates = append(intermediates, outputs...)
		current = outputs[0]
	}

	cleanup(finals)
	job.Progress.Finish()
	return finals, nil
}

func stageName(index, total int) string {
	if total <= 1 {
		return "run"
	}
	return "stage-" + strconv.Itoa(index+1)
}
