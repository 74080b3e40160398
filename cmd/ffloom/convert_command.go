package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"ffloom/internal/convert"
	"ffloom/internal/pipeline"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var deleteInput bool
	var override convert.Settings

	cmd := &cobra.Command{
		Use:   "convert INPUT TARGET",
		Short: "Convert an input to another format, falling back through cheaper settings",
		Long: `Convert writes INPUT as TARGET (an extension such as mp4, mkv, mp3 or pdf)
next to the input. Video conversions try a stream copy first and fall back
to re-encoding when the copy fails. Encoder flags override [convert].`,
		Example: `  ffloom convert movie.avi mp4
  ffloom convert movie.mkv mkv --video-codec libx265 --crf 26 --delete`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(args[1])), ".")
			spec := jobSpec{Operation: "convert", Input: args[0], Template: []string{"convert", target}}
			return ctx.runJob(cmd, spec, func(runCtx context.Context, eng *engine, job pipeline.Job, input string) (jobResult, error) {
				settings := mergeSettings(eng.convertSettings(), override, cmd)
				result, err := eng.machine.Convert(runCtx, job, convert.Request{
					Input:       input,
					Target:      target,
					Settings:    settings,
					DeleteInput: deleteInput,
				})
				return jobResult{Outputs: result.Outputs, Attempts: len(result.Attempts)}, err
			})
		},
	}

	cmd.Flags().BoolVar(&deleteInput, "delete", false, "Delete the input after a successful conversion")
	cmd.Flags().StringVar(&override.VideoCodec, "video-codec", "", "Video encoder for re-encoding rungs")
	cmd.Flags().IntVar(&override.CRF, "crf", 0, "Constant rate factor for the video encoder")
	cmd.Flags().StringVar(&override.Preset, "preset", "", "Encoder preset")
	cmd.Flags().StringVar(&override.AudioCodec, "audio-codec", "", "Audio encoder for re-encoding rungs")
	return cmd
}

// mergeSettings applies the encoder flags the user set on top of the
// configured settings.
func mergeSettings(base, override convert.Settings, cmd *cobra.Command) convert.Settings {
	flags := cmd.Flags()
	if flags.Changed("video-codec") {
		base.VideoCodec = strings.TrimSpace(override.VideoCodec)
	}
	if flags.Changed("crf") {
		base.CRF = override.CRF
	}
	if flags.Changed("preset") {
		base.Preset = strings.TrimSpace(override.Preset)
	}
	if flags.Changed("audio-codec") {
		base.AudioCodec = strings.TrimSpace(override.AudioCodec)
	}
	return base
}
