package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dataforgoodfr/bechdelai/internal/services/bechdeltest"
	"github.com/dataforgoodfr/bechdelai/internal/store"
)

func newRatingsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratings",
		Short: "Mirror and query bechdeltest.com ratings",
	}
	cmd.AddCommand(newRatingsImportCommand(ctx))
	cmd.AddCommand(newRatingsShowCommand(ctx))
	cmd.AddCommand(newRatingsStatsCommand(ctx))
	return cmd
}

func newRatingsImportCommand(ctx *commandContext) *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Download every rating into the local database",
		Long: `Mirror the complete bechdeltest.com rating list into the local database.
--from imports a previously saved getAllMovies JSON document instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.storeValue()
			if err != nil {
				return err
			}
			var written int
			if from != "" {
				data, err := os.ReadFile(from)
				if err != nil {
					return fmt.Errorf("read ratings: %w", err)
				}
				var movies []bechdeltest.Movie
				if err := json.Unmarshal(data, &movies); err != nil {
					return fmt.Errorf("decode ratings %s: %w", from, err)
				}
				err = st.WithImportLock(func() error {
					n, err := st.ImportRatings(cmd.Context(), bechdeltest.Ratings(movies))
					written = n
					return err
				})
				if err != nil {
					return err
				}
			} else {
				fetcher, err := ctx.fetcher()
				if err != nil {
					return err
				}
				written, err = bechdeltest.New(fetcher, "").Mirror(cmd.Context(), st)
				if err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d ratings into %s\n", written, st.Path())
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Import from a local JSON file")
	return cmd
}

func newRatingsShowCommand(ctx *commandContext) *cobra.Command {
	var live bool
	var limit int

	cmd := &cobra.Command{
		Use:   "show <imdb-id|title>",
		Short: "Show the rating of a movie",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			var ratings []store.Rating

			if strings.HasPrefix(strings.ToLower(query), "tt") && store.NormalizeIMDbID(query) != "" {
				rating, err := lookupRating(cmd, ctx, query, live)
				if err != nil {
					return err
				}
				ratings = []store.Rating{*rating}
			} else {
				st, err := ctx.storeValue()
				if err != nil {
					return err
				}
				ratings, err = st.SearchRatings(cmd.Context(), query, limit)
				if err != nil {
					return err
				}
			}

			rows := make([][]string, 0, len(ratings))
			for _, r := range ratings {
				rows = append(rows, []string{r.IMDbID, r.Title, yearString(r.Year), fmt.Sprintf("%d/3", r.Rating)})
			}
			return ctx.emit(cmd, ratings, []string{"IMDb", "Title", "Year", "Rating"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight})
		},
	}
	cmd.Flags().BoolVar(&live, "live", false, "Query bechdeltest.com when the id is not mirrored")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of title matches")
	return cmd
}

func lookupRating(cmd *cobra.Command, ctx *commandContext, imdbID string, live bool) (*store.Rating, error) {
	st, err := ctx.storeValue()
	if err != nil {
		return nil, err
	}
	rating, err := st.RatingByIMDbID(cmd.Context(), imdbID)
	if err == nil || !live || !errors.Is(err, store.ErrRatingNotFound) {
		return rating, err
	}
	fetcher, err := ctx.fetcher()
	if err != nil {
		return nil, err
	}
	movie, err := bechdeltest.New(fetcher, "").MovieByIMDbID(cmd.Context(), imdbID)
	if err != nil {
		return nil, err
	}
	converted := bechdeltest.Ratings([]bechdeltest.Movie{*movie})
	if _, err := st.ImportRatings(cmd.Context(), converted); err != nil {
		return nil, err
	}
	return &converted[0], nil
}

func newRatingsStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count mirrored ratings by score",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.storeValue()
			if err != nil {
				return err
			}
			hist, err := st.RatingHistogram(cmd.Context())
			if err != nil {
				return err
			}
			scores := make([]int, 0, len(hist))
			for score := range hist {
				scores = append(scores, score)
			}
			sort.Ints(scores)
			rows := make([][]string, 0, len(scores))
			for _, s := range scores {
				rows = append(rows, []string{itoa(s), itoa(hist[s])})
			}
			return ctx.emit(cmd, hist, []string{"Rating", "Movies"}, rows,
				[]columnAlignment{alignRight, alignRight})
		},
	}
}
