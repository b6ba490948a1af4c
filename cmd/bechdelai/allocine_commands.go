package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dataforgoodfr/bechdelai/internal/logging"
	"github.com/dataforgoodfr/bechdelai/internal/report"
	"github.com/dataforgoodfr/bechdelai/internal/services/allocine"
)

func newAllocineCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "allocine",
		Short: "Browse Allociné movie listings",
	}
	cmd.AddCommand(newAllocineListCommand(ctx))
	cmd.AddCommand(newAllocineFiltersCommand(ctx))
	return cmd
}

type allocineRow struct {
	allocine.Movie
	TMDBID int64 `json:"tmdb_id,omitempty"`
}

func newAllocineListCommand(ctx *commandContext) *cobra.Command {
	var filter allocine.Filter
	var count int
	var match bool
	var output string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List movies matching the Allociné filters",
		Long: `List movies from allocine.fr. Genre and country take the slugs printed
by "bechdelai allocine filters" (for example genre-13025 or pays-5001).

--match resolves every movie to TMDB by release year, falling back to the
director credits.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fetcher, err := ctx.fetcher()
			if err != nil {
				return err
			}
			client := allocine.New(fetcher, "")
			movies, err := client.Movies(cmd.Context(), filter, count)
			if err != nil {
				return err
			}

			rows := make([]allocineRow, 0, len(movies))
			for _, m := range movies {
				rows = append(rows, allocineRow{Movie: m})
			}
			if match {
				svc, err := ctx.serviceValue()
				if err != nil {
					return err
				}
				searcher, err := svc.TMDB()
				if err != nil {
					return err
				}
				logger := ctx.loggerValue()
				for i := range rows {
					found, err := allocine.MatchTMDB(cmd.Context(), searcher, rows[i].Movie)
					if err != nil {
						logging.WarnWithContext(logger, "tmdb match failed", "allocine_match_failed",
							logging.String("title", rows[i].Title),
							logging.Error(err),
							logging.String(logging.FieldImpact, "movie listed without a TMDB id"),
							logging.String(logging.FieldErrorHint, "search the title manually with bechdelai search"))
						continue
					}
					rows[i].TMDBID = found.ID
				}
			}

			table := report.Table{
				Name:    "allocine",
				Headers: []string{"title", "year", "director", "tmdb_id", "url", "poster"},
			}
			for _, r := range rows {
				table.Rows = append(table.Rows, []string{
					r.Title, yearString(r.Year), r.Director, idString(r.TMDBID), r.URL, r.Poster,
				})
			}
			if output != "" {
				if err := writeTable(output, table, ','); err != nil {
					return err
				}
			}

			display := make([][]string, 0, len(rows))
			for _, r := range rows {
				display = append(display, []string{r.Title, yearString(r.Year), r.Director, idString(r.TMDBID)})
			}
			return ctx.emit(cmd, rows, []string{"Title", "Year", "Director", "TMDB"}, display,
				[]columnAlignment{alignLeft, alignRight, alignLeft, alignRight})
		},
	}
	cmd.Flags().StringVar(&filter.Sort, "sort", "popularity", "Sort order: "+strings.Join(allocine.SortKeys(), ", "))
	cmd.Flags().StringVar(&filter.Genre, "genre", "", "Genre slug")
	cmd.Flags().StringVar(&filter.Country, "country", "", "Country slug")
	cmd.Flags().IntVar(&filter.Decade, "decade", 0, "Production decade, e.g. 1990")
	cmd.Flags().IntVar(&filter.Year, "year", 0, "Production year")
	cmd.Flags().IntVarP(&count, "number", "n", allocine.PageSize, "Number of movies to list")
	cmd.Flags().BoolVar(&match, "match", false, "Resolve each movie to a TMDB id")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Export the listing (.csv, .json, .yaml or .xlsx)")
	return cmd
}

func newAllocineFiltersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "filters [group]",
		Short: "Show the filter values offered by Allociné",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fetcher, err := ctx.fetcher()
			if err != nil {
				return err
			}
			groups, err := allocine.New(fetcher, "").Filters(cmd.Context())
			if err != nil {
				return err
			}
			if len(args) == 1 {
				values, ok := groups[args[0]]
				if !ok {
					return fmt.Errorf("unknown filter group %q", args[0])
				}
				groups = map[string][]allocine.FilterValue{args[0]: values}
			}
			names := make([]string, 0, len(groups))
			for name := range groups {
				names = append(names, name)
			}
			sort.Strings(names)

			var rows [][]string
			for _, name := range names {
				for _, v := range groups[name] {
					rows = append(rows, []string{name, v.Slug, v.Name})
				}
			}
			return ctx.emit(cmd, groups, []string{"Group", "Slug", "Name"}, rows, nil)
		},
	}
}

func yearString(year int) string {
	if year <= 0 {
		return ""
	}
	return strconv.Itoa(year)
}

func idString(id int64) string {
	if id <= 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}
