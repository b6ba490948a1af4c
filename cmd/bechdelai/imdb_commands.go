package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dataforgoodfr/bechdelai/internal/services"
	"github.com/dataforgoodfr/bechdelai/internal/services/imdb"
)

func newIMDbCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "imdb",
		Short: "Query imdb.com and the IMDb dataset dumps",
	}
	cmd.AddCommand(newIMDbSearchCommand(ctx))
	cmd.AddCommand(newIMDbCastCommand(ctx))
	return cmd
}

func (c *commandContext) imdbClient() (*imdb.Client, error) {
	fetcher, err := c.fetcher()
	if err != nil {
		return nil, err
	}
	return imdb.New(fetcher, ""), nil
}

func newIMDbSearchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "search <title>",
		Short: "Search IMDb titles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.imdbClient()
			if err != nil {
				return err
			}
			results, err := client.Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{r.ID, r.Title})
			}
			return ctx.emit(cmd, results, []string{"ID", "Title"}, rows, nil)
		},
	}
}

type imdbCast struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Metadata []string      `json:"metadata,omitempty"`
	Director *imdb.Person  `json:"director,omitempty"`
	Cast     []imdb.Person `json:"cast"`
}

func newIMDbCastCommand(ctx *commandContext) *cobra.Command {
	var datasetDir string

	cmd := &cobra.Command{
		Use:   "cast <tt-id|title>",
		Short: "List the credited cast of a title",
		Long: `List the cast of an IMDb title. A title is resolved with the first search
result.

--dataset points at a directory holding name.basics.tsv.gz,
title.basics.tsv.gz and title.principals.tsv.gz from datasets.imdbws.com;
the cast is then enriched with birth years and genders.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.imdbClient()
			if err != nil {
				return err
			}
			id, err := resolveIMDbID(cmd.Context(), client, strings.Join(args, " "))
			if err != nil {
				return err
			}
			result := imdbCast{ID: id}
			if details, err := client.Details(cmd.Context(), client.TitleURL(id)); err == nil {
				result.Title = details.Title
				result.Metadata = details.Metadata
			}
			entries, err := client.Cast(cmd.Context(), client.CreditsURL(id))
			if err != nil {
				return err
			}

			if datasetDir != "" {
				tconst, ok := imdb.ParseID(id)
				if !ok {
					return services.Wrap(services.ErrValidation, "cli", "imdb cast", "invalid title id "+id, nil)
				}
				ds, err := imdb.LoadDataset(datasetDir, tconst)
				if err != nil {
					return err
				}
				result.Cast = ds.EnrichCast(entries)
				if director, ok := ds.Principal(tconst, "director"); ok {
					result.Director = director
				}
			} else {
				for i, e := range entries {
					result.Cast = append(result.Cast, imdb.Person{
						NConst:    imdb.NameID(e.NConst),
						Name:      e.Name,
						URL:       imdb.NameURL(e.NConst),
						Gender:    "?",
						Character: e.Character,
						Ordering:  i + 1,
					})
				}
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, result)
			}
			out := cmd.OutOrStdout()
			heading(out, fmt.Sprintf("%s %s", result.ID, result.Title))
			if result.Director != nil {
				fmt.Fprintf(out, "Director: %s\n", result.Director.Name)
			}
			rows := make([][]string, 0, len(result.Cast))
			for _, p := range result.Cast {
				rows = append(rows, []string{itoa(p.Ordering), p.Name, p.Character, p.Gender, yearString(p.BirthYear)})
			}
			fmt.Fprintln(out, renderTable([]string{"#", "Name", "Character", "Gender", "Born"}, rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight}))
			return nil
		},
	}
	cmd.Flags().StringVar(&datasetDir, "dataset", "", "Directory with the IMDb TSV dumps")
	return cmd
}

func resolveIMDbID(ctx context.Context, client *imdb.Client, query string) (string, error) {
	query = strings.TrimSpace(query)
	if _, ok := imdb.ParseID(query); ok && strings.HasPrefix(query, "tt") {
		return query, nil
	}
	results, err := client.Search(ctx, query)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", services.Wrap(services.ErrNotFound, "cli", "imdb", "no title matches "+query, nil)
	}
	return results[0].ID, nil
}
