package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"clippa/internal/jobid"
	"clippa/internal/jobs"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect recorded clip jobs",
	}
	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var statusFlags []string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := make([]jobs.Status, 0, len(statusFlags))
			for _, value := range statusFlags {
				status, err := jobs.ParseStatus(strings.ToLower(strings.TrimSpace(value)))
				if err != nil {
					return err
				}
				statuses = append(statuses, status)
			}
			return ctx.withStore(cmd.Context(), func(store jobs.Store) error {
				list, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return fmt.Errorf("list jobs: %w", err)
				}
				if asJSON {
					if list == nil {
						list = []*jobs.Job{}
					}
					return writeJSON(cmd, list)
				}
				out := cmd.OutOrStdout()
				if len(list) == 0 {
					fmt.Fprintln(out, "No jobs recorded")
					return nil
				}
				rows := make([][]string, 0, len(list))
				for _, job := range list {
					rows = append(rows, []string{
						job.ID,
						job.OwnerID,
						string(job.Status),
						job.StartTime + "-" + job.EndTime,
						yesNo(job.Subtitles),
						formatTime(job.CreatedAt),
						summary(job),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "User", "Status", "Range", "Subs", "Created", "Result"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&statusFlags, "status", "s", nil, "Filter by status (processing, ready, error); repeatable")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			if !jobid.Valid(id) {
				return fmt.Errorf("job %s not found", id)
			}
			return ctx.withStore(cmd.Context(), func(store jobs.Store) error {
				job, err := store.Get(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("read job: %w", err)
				}
				if job == nil {
					return fmt.Errorf("job %s not found", id)
				}
				if asJSON {
					return writeJSON(cmd, job)
				}
				printJob(cmd.OutOrStdout(), job)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func printJob(out io.Writer, job *jobs.Job) {
	fmt.Fprintf(out, "ID:        %s\n", job.ID)
	fmt.Fprintf(out, "User:      %s\n", job.OwnerID)
	fmt.Fprintf(out, "Status:    %s\n", job.Status)
	fmt.Fprintf(out, "Source:    %s\n", job.SourceURL)
	fmt.Fprintf(out, "Range:     %s - %s\n", job.StartTime, job.EndTime)
	fmt.Fprintf(out, "Subtitles: %s\n", yesNo(job.Subtitles))
	if job.FormatID != "" {
		fmt.Fprintf(out, "Format:    %s\n", job.FormatID)
	}
	fmt.Fprintf(out, "Created:   %s\n", formatTime(job.CreatedAt))
	fmt.Fprintf(out, "Updated:   %s\n", formatTime(job.UpdatedAt))
	switch job.Status {
	case jobs.StatusReady:
		fmt.Fprintf(out, "Object:    %s\n", job.StoragePath)
		fmt.Fprintf(out, "URL:       %s\n", job.PublicURL)
	case jobs.StatusError:
		fmt.Fprintf(out, "Error:     %s\n", job.ErrorMessage)
		if job.ErrorKind != "" {
			fmt.Fprintf(out, "Kind:      %s\n", job.ErrorKind)
		}
	}
}

func summary(job *jobs.Job) string {
	switch job.Status {
	case jobs.StatusReady:
		return job.PublicURL
	case jobs.StatusError:
		return truncate(job.ErrorMessage, 60)
	default:
		return ""
	}
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-3]) + "..."
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
