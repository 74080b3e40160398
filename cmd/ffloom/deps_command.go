package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"ffloom/internal/deps"
	"ffloom/internal/preflight"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Check external tools and working directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			statuses := preflight.CheckSystemDeps(cmd.Context(), cfg)
			checks := preflight.RunAll(cmd.Context(), cfg)

			if asJSON {
				if err := writeJSON(cmd, depsView{Tools: statuses, Checks: checks}); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(
					[]string{"Tool", "Available", "Version", "Path", "Purpose"},
					buildDepsRows(statuses),
					nil,
				))
				fmt.Fprintln(out, renderTable(
					[]string{"Check", "Passed", "Detail"},
					buildCheckRows(checks),
					nil,
				))
			}

			if missing := deps.Missing(statuses); len(missing) > 0 || preflight.Failed(checks) {
				return errors.New("required tools or directories are unavailable")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON")
	return cmd
}

type depsView struct {
	Tools  []deps.Status      `json:"tools"`
	Checks []preflight.Result `json:"checks"`
}

func buildDepsRows(statuses []deps.Status) [][]string {
	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		available := yesNo(s.Available)
		if !s.Available && s.Optional {
			available = "no (optional)"
		}
		location := s.Path
		if location == "" {
			location = s.Detail
		}
		rows = append(rows, []string{s.Name, available, s.Version, location, s.Description})
	}
	return rows
}

func buildCheckRows(results []preflight.Result) [][]string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{r.Name, yesNo(r.Passed), r.Detail})
	}
	return rows
}
