package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clippa/internal/jobs"
	"clippa/internal/preflight"
	"clippa/internal/storage"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check tools, directories, and collaborators",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			runCtx := cmd.Context()
			results := preflight.RunAll(runCtx, cfg)

			if store, err := jobs.Open(runCtx, cfg); err != nil {
				results = append(results, preflight.Result{Name: "Job store", Detail: err.Error()})
			} else {
				results = append(results, preflight.CheckStore(runCtx, store))
				_ = store.Close()
			}
			if objects, err := storage.Open(runCtx, cfg); err != nil {
				results = append(results, preflight.Result{Name: "Object storage", Detail: err.Error()})
			} else {
				results = append(results, preflight.CheckObjectStore(runCtx, objects))
			}

			failed := preflight.Failed(results)
			if asJSON {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				rows := make([][]string, 0, len(results))
				for _, r := range results {
					rows = append(rows, []string{r.Name, checkState(r), r.Detail})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Check", "State", "Detail"}, rows, nil))
			}
			if len(failed) > 0 {
				return fmt.Errorf("%d check(s) failed", len(failed))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func checkState(r preflight.Result) string {
	switch {
	case r.Passed:
		return "ok"
	case r.Optional:
		return "warn"
	default:
		return "FAIL"
	}
}
