package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dataforgoodfr/bechdelai/internal/api"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var kind string
	var limit int

	cmd := &cobra.Command{
		Use:   "runs [id]",
		Short: "List recorded analysis runs, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.serviceValue()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				run, err := svc.Run(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				view := api.FromRun(*run)
				if ctx.jsonOutput() {
					return writeJSON(cmd, view)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "ID:      %s\n", view.ID)
				fmt.Fprintf(out, "Kind:    %s\n", view.Kind)
				fmt.Fprintf(out, "Subject: %s\n", view.Subject)
				fmt.Fprintf(out, "Status:  %s\n", view.Status)
				fmt.Fprintf(out, "Created: %s\n", view.CreatedAt)
				fmt.Fprintf(out, "Updated: %s\n", view.UpdatedAt)
				if view.Error != "" {
					fmt.Fprintf(out, "Error:   %s\n", view.Error)
				}
				if len(view.Result) > 0 {
					fmt.Fprintf(out, "Result:  %s\n", view.Result)
				}
				return nil
			}

			runs, err := svc.Runs(cmd.Context(), kind, limit)
			if err != nil {
				return err
			}
			views := make([]api.Run, 0, len(runs))
			rows := make([][]string, 0, len(runs))
			for _, r := range runs {
				views = append(views, api.FromRun(r))
				rows = append(rows, []string{
					r.ID, r.Kind, r.Subject, string(r.Status),
					r.UpdatedAt.Local().Format(time.DateTime),
					r.Error,
				})
			}
			return ctx.emit(cmd, api.RunListResponse{Runs: views},
				[]string{"ID", "Kind", "Subject", "Status", "Updated", "Error"}, rows, nil)
		},
	}
	cmd.Flags().StringVarP(&kind, "kind", "k", "", "Only list runs of this kind (subtitles, audio, vision, questions)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs")
	return cmd
}
