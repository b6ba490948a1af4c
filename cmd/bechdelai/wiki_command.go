package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dataforgoodfr/bechdelai/internal/services/wikipedia"
)

func newWikiCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wiki",
		Short: "Read movie pages from Wikipedia",
	}
	cmd.AddCommand(newWikiPlotCommand(ctx))
	cmd.AddCommand(newWikiSectionsCommand(ctx))
	return cmd
}

func (c *commandContext) wikiClient() (*wikipedia.Client, error) {
	fetcher, err := c.fetcher()
	if err != nil {
		return nil, err
	}
	return wikipedia.New(fetcher, ""), nil
}

func newWikiPlotCommand(ctx *commandContext) *cobra.Command {
	var year int
	var lang string

	cmd := &cobra.Command{
		Use:   "plot <title>",
		Short: "Print the plot section of a movie page",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.wikiClient()
			if err != nil {
				return err
			}
			plot, err := client.Plot(cmd.Context(), lang, strings.Join(args, " "), year)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, plot)
			}
			out := cmd.OutOrStdout()
			heading(out, fmt.Sprintf("%s / %s", plot.Page, plot.Section))
			fmt.Fprintln(out, plot.Text)
			return nil
		},
	}
	cmd.Flags().IntVarP(&year, "year", "y", 0, "Release year, tried first as \"Title (YEAR film)\"")
	cmd.Flags().StringVar(&lang, "lang", "en", "Wikipedia language edition")
	return cmd
}

func newWikiSectionsCommand(ctx *commandContext) *cobra.Command {
	var lang string

	cmd := &cobra.Command{
		Use:   "sections <page>",
		Short: "List the section anchors of a page",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.wikiClient()
			if err != nil {
				return err
			}
			sections, err := client.Sections(cmd.Context(), lang, strings.Join(args, " "))
			if err != nil {
				return err
			}
			anchors := make([]string, 0, len(sections))
			for anchor := range sections {
				anchors = append(anchors, anchor)
			}
			sort.Slice(anchors, func(i, j int) bool { return sections[anchors[i]] < sections[anchors[j]] })
			rows := make([][]string, 0, len(anchors))
			for _, a := range anchors {
				rows = append(rows, []string{itoa(sections[a]), a})
			}
			return ctx.emit(cmd, sections, []string{"Index", "Anchor"}, rows, []columnAlignment{alignRight})
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "en", "Wikipedia language edition")
	return cmd
}
