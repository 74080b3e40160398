package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"ffloom/internal/config"
	"ffloom/internal/staging"
)

func newCleanCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "clean DIR",
		Short: "Remove scratch files left behind by interrupted jobs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve directory: %w", err)
			}
			out := cmd.OutOrStdout()

			if dryRun {
				items, err := staging.List(dir)
				if err != nil {
					return err
				}
				if len(items) == 0 {
					fmt.Fprintln(out, "No scratch files found")
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Path", "Size", "Modified"},
					buildLeftoverRows(items, time.Now()),
					[]columnAlignment{alignLeft, alignRight, alignLeft},
				))
				return nil
			}

			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			runCtx := cmd.Context()
			if runCtx == nil {
				runCtx = context.Background()
			}
			result := staging.CleanStale(runCtx, dir, olderThan, logger)
			var reclaimed int64
			for _, item := range result.Removed {
				reclaimed += item.Size
			}
			fmt.Fprintf(out, "Removed %d scratch item(s), %s reclaimed\n", len(result.Removed), humanize.IBytes(uint64(reclaimed)))
			if len(result.Errors) > 0 {
				return fmt.Errorf("%d item(s) could not be removed; first: %s: %w", len(result.Errors), result.Errors[0].Path, result.Errors[0].Error)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", time.Hour, "Only remove scratch files not modified for this long")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List scratch files without removing them")
	return cmd
}

func buildLeftoverRows(items []staging.Leftover, now time.Time) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		path := item.Path
		if item.Dir {
			path += "/"
		}
		rows = append(rows, []string{path, humanize.IBytes(uint64(item.Size)), humanize.RelTime(item.ModTime, now, "ago", "from now")})
	}
	return rows
}
