package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"ffloom/internal/pipeline"
)

func newSampleCommand(ctx *commandContext) *cobra.Command {
	var total, part int

	cmd := &cobra.Command{
		Use:   "sample INPUT",
		Short: "Cut a short sample video from evenly spaced windows",
		Long: `Sample writes SAMPLE.<stem>.mkv next to INPUT. The clip is --duration
seconds long and made of windows of --part seconds taken from evenly spaced
points of the input, audio included when the input has any.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("duration") {
				total = cfg.Preview.SampleDuration
			}
			if !cmd.Flags().Changed("part") {
				part = cfg.Preview.SamplePart
			}
			spec := jobSpec{Operation: "sample", Input: args[0], Template: []string{"sample", fmt.Sprint(total), fmt.Sprint(part)}}
			return ctx.runJob(cmd, spec, func(runCtx context.Context, eng *engine, job pipeline.Job, input string) (jobResult, error) {
				out, err := eng.generator.SampleVideo(runCtx, job, input, total, part)
				if err != nil {
					return jobResult{Attempts: 1}, err
				}
				return jobResult{Outputs: []string{out}, Attempts: 1}, nil
			})
		},
	}

	cmd.Flags().IntVar(&total, "duration", 0, "Sample length in seconds (default preview.sample_duration)")
	cmd.Flags().IntVar(&part, "part", 0, "Length of each window in seconds (default preview.sample_part)")
	return cmd
}

func newScreenshotsCommand(ctx *commandContext) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "screenshots INPUT",
		Short: "Grab evenly spaced frames as PNG files",
		Long:  `Screenshots writes <stem>_NNN.png files into <stem>_ss next to INPUT.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("count") {
				count = cfg.Preview.Screenshots
			}
			spec := jobSpec{
				Operation:      "screenshots",
				Input:          args[0],
				Template:       []string{"screenshots", fmt.Sprint(count)},
				SkipSpaceCheck: true,
			}
			return ctx.runJob(cmd, spec, func(runCtx context.Context, eng *engine, job pipeline.Job, input string) (jobResult, error) {
				outputs, err := eng.generator.Screenshots(runCtx, job, input, count)
				return jobResult{Outputs: outputs, Attempts: 1}, err
			})
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 0, "Number of frames (default preview.screenshots)")
	return cmd
}
