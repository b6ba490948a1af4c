package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dataforgoodfr/bechdelai/internal/api"
	"github.com/dataforgoodfr/bechdelai/internal/deps"
	"github.com/dataforgoodfr/bechdelai/internal/preflight"
)

type depsReport struct {
	Checks       []preflight.Result     `json:"checks"`
	Dependencies []api.DependencyStatus `json:"dependencies"`
}

func newDepsCommand(ctx *commandContext) *cobra.Command {
	var deep bool

	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Check external binaries, directories and services",
		Long: `Run the preflight checks used by the API health endpoint.

The default run checks directories and binaries only. --deep also contacts
TMDB, the LLM endpoint and the DeepFace service when they are configured.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			runCtx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			var checks []preflight.Result
			if deep {
				checks = preflight.RunAll(runCtx, cfg)
				checks = append(checks, preflight.CheckDeepFaceFromConfig(runCtx, cfg))
			} else {
				checks = []preflight.Result{
					preflight.CheckDirectoryAccess("data", cfg.Paths.DataDir),
					preflight.CheckDirectoryAccess("cache", cfg.Paths.CacheDir),
					preflight.CheckDirectoryAccess("work", cfg.Paths.WorkDir),
				}
			}
			checks = append(checks, preflight.CheckStorageFromConfig(cfg))
			statuses := preflight.CheckSystemDeps(runCtx, cfg)

			if ctx.jsonOutput() {
				return writeJSON(cmd, depsReport{Checks: checks, Dependencies: api.FromDependencies(statuses)})
			}

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(checks))
			for _, c := range checks {
				rows = append(rows, []string{c.Name, yesNo(c.Passed), c.Detail})
			}
			heading(out, "Checks")
			fmt.Fprintln(out, renderTable([]string{"Check", "OK", "Detail"}, rows, nil))

			rows = rows[:0]
			for _, s := range statuses {
				detail := s.Detail
				if detail == "" {
					detail = s.Description
				}
				rows = append(rows, []string{s.Name, s.Command, yesNo(s.Available), yesNo(s.Optional), detail})
			}
			heading(out, "Dependencies")
			fmt.Fprintln(out, renderTable([]string{"Name", "Command", "Available", "Optional", "Detail"}, rows, nil))
			if missing := deps.Missing(statuses); len(missing) > 0 {
				return fmt.Errorf("%d required dependencies missing", len(missing))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&deep, "deep", false, "Also check remote services")
	return cmd
}
