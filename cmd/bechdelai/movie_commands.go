package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dataforgoodfr/bechdelai/internal/movie"
)

func newMovieCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newSearchCommand(ctx),
		newProfileCommand(ctx),
		newAgeGapCommand(ctx),
	}
}

func newSearchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "search <title>",
		Short: "Search TMDB for movies",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.serviceValue()
			if err != nil {
				return err
			}
			results, err := svc.Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{strconv.FormatInt(r.ID, 10), r.Title, r.Year, r.OriginalTitle})
			}
			return ctx.emit(cmd, results, []string{"ID", "Title", "Year", "Original title"}, rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft})
		},
	}
}

type profileFlags struct {
	id   int64
	year int
}

func (f *profileFlags) register(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&f.id, "id", 0, "TMDB movie id (skips the title search)")
	cmd.Flags().IntVarP(&f.year, "year", "y", 0, "Release year used to rank title matches")
}

func (f *profileFlags) load(ctx context.Context, c *commandContext, args []string) (*movie.Profile, error) {
	svc, err := c.serviceValue()
	if err != nil {
		return nil, err
	}
	if f.id > 0 {
		return svc.Profile(ctx, f.id)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("a title or --id is required")
	}
	return svc.ProfileByTitle(ctx, args[0], f.year)
}

func newProfileCommand(ctx *commandContext) *cobra.Command {
	var flags profileFlags
	var output string

	cmd := &cobra.Command{
		Use:   "profile [title]",
		Short: "Show the cast, ages, plot and Bechdel rating of a movie",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := flags.load(cmd.Context(), ctx, args)
			if err != nil {
				return err
			}
			if output != "" {
				if err := writeJSONFile(output, profile); err != nil {
					return err
				}
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, profile)
			}
			printProfile(cmd, profile)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Also write the profile as JSON to this file")
	return cmd
}

func printProfile(cmd *cobra.Command, p *movie.Profile) {
	out := cmd.OutOrStdout()
	heading(out, fmt.Sprintf("%s (%d)", p.Title, p.Year))
	fmt.Fprintf(out, "TMDB: %d  IMDb: %s\n", p.TMDBID, p.IMDbID)
	if len(p.Directors) > 0 {
		fmt.Fprintf(out, "Directed by: %s\n", strings.Join(p.Directors, ", "))
	}
	if len(p.Genres) > 0 {
		fmt.Fprintf(out, "Genres: %s\n", strings.Join(p.Genres, ", "))
	}
	if p.Rating != nil {
		fmt.Fprintf(out, "Bechdel test rating: %d/3\n", p.Rating.Rating)
	} else {
		fmt.Fprintln(out, "Bechdel test rating: unknown")
	}
	if p.Poster != "" {
		fmt.Fprintf(out, "Poster: %s\n", p.Poster)
	}

	rows := make([][]string, 0, len(p.Cast))
	for i, person := range p.Cast {
		age := ""
		if person.AgeAtRelease != nil {
			age = strconv.Itoa(*person.AgeAtRelease)
		}
		rows = append(rows, []string{itoa(i), person.Name, person.Character, string(person.Gender), age})
	}
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable([]string{"#", "Actor", "Character", "Gender", "Age"}, rows,
			[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight}))
	}
	if p.Plot != nil {
		heading(out, "Plot ("+p.Plot.Page+")")
		fmt.Fprintln(out, p.Plot.Text)
	}
	for _, w := range p.Warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
}

func newAgeGapCommand(ctx *commandContext) *cobra.Command {
	var flags profileFlags

	cmd := &cobra.Command{
		Use:   "agegap [title] <i> <j>",
		Short: "Age difference at release between two cast members",
		Long: `Compute the age gap between two cast members, identified by their index
in the profile cast table.

Examples:
  bechdelai agegap "Thelma & Louise" 0 1
  bechdelai agegap --id 1541 0 2`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx := args[len(args)-2:]
			i, err := strconv.Atoi(idx[0])
			if err != nil {
				return fmt.Errorf("invalid cast index %q", idx[0])
			}
			j, err := strconv.Atoi(idx[1])
			if err != nil {
				return fmt.Errorf("invalid cast index %q", idx[1])
			}
			profile, err := flags.load(cmd.Context(), ctx, args[:len(args)-2])
			if err != nil {
				return err
			}
			gap, err := movie.AgeGap(profile, i, j)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, gap)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) and %s (%s): %d years apart\n",
				gap.First, gap.Genders[0], gap.Second, gap.Genders[1], gap.Years)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
