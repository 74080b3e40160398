package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ffloom/internal/command"
	"ffloom/internal/media"
	"ffloom/internal/pipeline"
	"ffloom/internal/services"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var thenFlags []string
	var auxFlags []string

	cmd := &cobra.Command{
		Use:   "run INPUT -- TEMPLATE...",
		Short: "Run a command template against an input",
		Long: `Run resolves a command template against INPUT and executes it.

Template tokens follow "--". "-i mltb" refers to INPUT and "-i mltb.<kind>"
to an auxiliary input given with --aux. Tokens starting with the output
prefix name outputs next to the input, so "mltb.mp4" writes <stem>.mp4.
A "-del" token removes the input once the run succeeds.

Each --then flag adds a further template whose primary input is the first
output of the previous one.`,
		Example: `  ffloom run movie.mkv -- -i mltb -map 0:v -map 0:a -c copy mltb.mp4
  ffloom run movie.mkv --aux subtitle=movie.srt -- -i mltb -i mltb.subtitle -c copy mltb.mkv
  ffloom run movie.mkv --then "-i mltb -vn -c:a libopus mltb.opus" -- -i mltb -c copy mltb.mka`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, template := splitTemplateArgs(cmd, args)
			if len(template) == 0 {
				return services.MalformedTemplate("template is empty")
			}
			extra := make([][]string, 0, len(thenFlags))
			for _, value := range thenFlags {
				fields := strings.Fields(value)
				if len(fields) == 0 {
					return services.MalformedTemplate("--then template is empty")
				}
				extra = append(extra, fields)
			}
			aux, err := parseAuxFlags(auxFlags)
			if err != nil {
				return err
			}

			spec := jobSpec{Operation: "run", Input: input, Template: template}
			return ctx.runJob(cmd, spec, func(runCtx context.Context, eng *engine, job pipeline.Job, input string) (jobResult, error) {
				req := command.Request{Template: template, Input: input, Aux: aux}
				outputs, err := eng.executor.RunPipeline(runCtx, job, eng.resolver, req, extra...)
				return jobResult{Outputs: outputs, Attempts: 1}, err
			})
		},
	}

	cmd.Flags().StringArrayVar(&thenFlags, "then", nil, "Additional template run on the previous output (repeatable)")
	cmd.Flags().StringArrayVar(&auxFlags, "aux", nil, "Auxiliary input as kind=path, e.g. subtitle=movie.srt (repeatable)")
	return cmd
}

// splitTemplateArgs separates INPUT from the template tokens. Without a
// "--" separator everything after INPUT is the template.
func splitTemplateArgs(cmd *cobra.Command, args []string) (string, []string) {
	dash := cmd.ArgsLenAtDash()
	if dash < 0 || dash > len(args) {
		return args[0], args[1:]
	}
	if dash == 0 {
		return "", args
	}
	return args[0], args[dash:]
}

func parseAuxFlags(values []string) (map[media.Kind][]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	aux := make(map[media.Kind][]string)
	for _, value := range values {
		name, path, ok := strings.Cut(value, "=")
		if !ok || strings.TrimSpace(path) == "" {
			return nil, services.MalformedTemplate("--aux %q must be kind=path", value)
		}
		kind, err := media.ParseKind(name)
		if err != nil {
			return nil, services.MalformedTemplate("--aux %q: %v", value, err)
		}
		resolved, err := resolveInput(path)
		if err != nil {
			return nil, fmt.Errorf("--aux %s: %w", name, err)
		}
		aux[kind] = append(aux[kind], resolved)
	}
	return aux, nil
}
