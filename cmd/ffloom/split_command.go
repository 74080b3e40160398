package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"ffloom/internal/fileutil"
	"ffloom/internal/pipeline"
	"ffloom/internal/services"
	"ffloom/internal/split"
)

func newSplitCommand(ctx *commandContext) *cobra.Command {
	var parts int
	var maxSize string
	var platformLimit string

	cmd := &cobra.Command{
		Use:   "split INPUT",
		Short: "Split an input into equal parts or parts under a size limit",
		Long: `Split cuts INPUT into <stem>.partNNN<ext> files with stream copy.

With --parts the duration is divided evenly. Otherwise parts are kept under
the smaller of --max-size and the platform limit, minus the safety margin
from [split]. An input already under that ceiling is left untouched.`,
		Example: `  ffloom split lecture.mp4 --parts 3
  ffloom split movie.mkv --max-size 1.9GiB`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("parts") && parts < 1 {
				return services.Wrap(services.ErrConfiguration, "split", "parts", "--parts must be at least 1", nil)
			}
			if parts > 0 {
				spec := jobSpec{Operation: "split", Input: args[0], Template: []string{"split", "parts", fmt.Sprint(parts)}}
				return ctx.runJob(cmd, spec, func(runCtx context.Context, eng *engine, job pipeline.Job, input string) (jobResult, error) {
					outputs, err := eng.splitter.EqualParts(runCtx, job, input, parts)
					return jobResult{Outputs: outputs, Attempts: 1}, err
				})
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			limits, err := cfg.SizeLimits()
			if err != nil {
				return services.Wrap(services.ErrConfiguration, "split", "limits", "", err)
			}
			opts := split.SizeOptions{
				MaxSize:       limits.MaxSize,
				PlatformLimit: limits.PlatformLimit,
				SafetyMargin:  limits.SafetyMargin,
			}
			if v, ok, err := sizeFlag("max-size", maxSize); err != nil {
				return err
			} else if ok {
				opts.MaxSize = v
			}
			if v, ok, err := sizeFlag("platform-limit", platformLimit); err != nil {
				return err
			} else if ok {
				opts.PlatformLimit = v
			}

			spec := jobSpec{
				Operation:    "split",
				Input:        args[0],
				Template:     []string{"split", "size", humanize.IBytes(uint64(max(opts.Ceiling(), 0)))},
				ExpectedSize: fileutil.FileSize(strings.TrimSpace(args[0])),
			}
			return ctx.runJob(cmd, spec, func(runCtx context.Context, eng *engine, job pipeline.Job, input string) (jobResult, error) {
				outputs, err := eng.splitter.BySize(runCtx, job, input, opts)
				return jobResult{Outputs: outputs, Attempts: 1}, err
			})
		},
	}

	cmd.Flags().IntVarP(&parts, "parts", "n", 0, "Split into this many parts of equal duration")
	cmd.Flags().StringVar(&maxSize, "max-size", "", "Largest part size, e.g. 500MiB (overrides split.max_size)")
	cmd.Flags().StringVar(&platformLimit, "platform-limit", "", "Upload limit of the destination (overrides split.platform_limit)")
	cmd.MarkFlagsMutuallyExclusive("parts", "max-size")
	return cmd
}

func sizeFlag(name, value string) (int64, bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false, nil
	}
	n, err := humanize.ParseBytes(value)
	if err != nil {
		return 0, false, services.Wrap(services.ErrConfiguration, "split", name, "", err)
	}
	return int64(n), true, nil
}
