package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"ffloom/internal/jobs"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and maintain the job history",
	}

	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryStatsCommand(ctx))
	historyCmd.AddCommand(newHistoryResetStaleCommand(ctx))
	historyCmd.AddCommand(newHistoryClearCommand(ctx))

	return historyCmd
}

func (c *commandContext) withStore(fn func(*jobs.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := jobs.Open(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var statuses []string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := parseStatuses(statuses)
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *jobs.Store) error {
				items, err := store.List(cmd.Context(), limit, filter...)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, items)
				}
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No jobs recorded")
					return nil
				}
				table := renderTable(
					[]string{"ID", "Operation", "Status", "Input", "Started", "Took"},
					buildHistoryRows(items, time.Now()),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of jobs to show (0 for all)")
	cmd.Flags().StringSliceVarP(&statuses, "status", "s", nil, "Only show jobs with these statuses")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print jobs as JSON")
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one job in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *jobs.Store) error {
				job, err := findJob(cmd, store, args[0])
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), renderJobDetail(job))
				return nil
			})
		},
	}
}

func newHistoryStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count jobs per status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *jobs.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				rows := buildStatusRows(stats)
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No jobs recorded")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}
}

func newHistoryResetStaleCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-stale",
		Short: "Mark jobs left running by a crashed process as failed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *jobs.Store) error {
				n, err := store.ResetStale(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %d stale job(s)\n", n)
				return nil
			})
		},
	}
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove finished jobs from history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *jobs.Store) error {
				n, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d job(s)\n", n)
				return nil
			})
		},
	}
}

// findJob accepts a full id or a unique prefix of at least four characters.
func findJob(cmd *cobra.Command, store *jobs.Store, id string) (*jobs.Job, error) {
	id = strings.TrimSpace(id)
	job, err := store.Get(cmd.Context(), id)
	if err == nil {
		return job, nil
	}
	if !errors.Is(err, jobs.ErrNotFound) || len(id) < 4 {
		return nil, err
	}
	items, err := store.List(cmd.Context(), 0)
	if err != nil {
		return nil, err
	}
	var match *jobs.Job
	for _, item := range items {
		if !strings.HasPrefix(item.ID, id) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("job id prefix %q is ambiguous", id)
		}
		match = item
	}
	if match == nil {
		return nil, fmt.Errorf("job %s: %w", id, jobs.ErrNotFound)
	}
	return match, nil
}

func parseStatuses(values []string) ([]jobs.Status, error) {
	out := make([]jobs.Status, 0, len(values))
	for _, value := range values {
		status := jobs.Status(strings.ToLower(strings.TrimSpace(value)))
		switch status {
		case jobs.StatusRunning, jobs.StatusSucceeded, jobs.StatusFailed, jobs.StatusCancelled:
			out = append(out, status)
		default:
			return nil, fmt.Errorf("unknown status %q", value)
		}
	}
	return out, nil
}

func buildHistoryRows(items []*jobs.Job, now time.Time) [][]string {
	rows := make([][]string, 0, len(items))
	for _, job := range items {
		took := "-"
		if d := job.Duration(); d > 0 {
			took = d.Round(time.Second).String()
		}
		rows = append(rows, []string{
			shortID(job.ID),
			job.Operation,
			string(job.Status),
			truncate(job.InputPath, 48),
			humanize.RelTime(job.CreatedAt, now, "ago", "from now"),
			took,
		})
	}
	return rows
}

var statusOrder = []jobs.Status{jobs.StatusRunning, jobs.StatusSucceeded, jobs.StatusFailed, jobs.StatusCancelled}

func buildStatusRows(stats map[jobs.Status]int) [][]string {
	rows := make([][]string, 0, len(stats))
	for _, status := range statusOrder {
		if count, ok := stats[status]; ok && count > 0 {
			rows = append(rows, []string{string(status), humanize.Comma(int64(count))})
		}
	}
	return rows
}

func renderJobDetail(job *jobs.Job) string {
	pairs := [][2]string{
		{"ID", job.ID},
		{"Operation", job.Operation},
		{"Status", string(job.Status)},
		{"Input", job.InputPath},
		{"Template", job.Template},
		{"Started", job.CreatedAt.Local().Format(time.DateTime)},
	}
	if job.FinishedAt != nil {
		finished := fmt.Sprintf("%s (%s)", job.FinishedAt.Local().Format(time.DateTime), job.Duration().Round(time.Millisecond))
		pairs = append(pairs, [2]string{"Finished", finished})
	}
	if job.Attempts > 0 {
		pairs = append(pairs, [2]string{"Attempts", strconv.Itoa(job.Attempts)})
	}
	pairs = append(pairs, [2]string{"Error", job.ErrorMessage})
	for i, out := range job.Outputs {
		label := "Output " + strconv.Itoa(i+1)
		pairs = append(pairs, [2]string{label, out})
	}
	return renderFields(pairs)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(value string, width int) string {
	runes := []rune(value)
	if len(runes) <= width {
		return value
	}
	return "…" + string(runes[len(runes)-width+1:])
}
