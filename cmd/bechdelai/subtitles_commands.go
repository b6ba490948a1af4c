package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/dataforgoodfr/bechdelai/internal/api"
	"github.com/dataforgoodfr/bechdelai/internal/audio"
	"github.com/dataforgoodfr/bechdelai/internal/bechdel"
	"github.com/dataforgoodfr/bechdelai/internal/fileutil"
	"github.com/dataforgoodfr/bechdelai/internal/report"
	"github.com/dataforgoodfr/bechdelai/internal/services/opensubtitles"
	"github.com/dataforgoodfr/bechdelai/internal/store"
	"github.com/dataforgoodfr/bechdelai/internal/subtitles"
)

func newSubtitlesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subtitles",
		Short: "Download, clean and analyse SRT subtitles",
	}
	cmd.AddCommand(newSubtitlesFetchCommand(ctx))
	cmd.AddCommand(newSubtitlesCleanCommand(ctx))
	cmd.AddCommand(newSubtitlesBlocksCommand(ctx))
	cmd.AddCommand(newSubtitlesAnalyzeCommand(ctx))
	return cmd
}

func newSubtitlesFetchCommand(ctx *commandContext) *cobra.Command {
	var lang string
	var index int
	var dir string

	cmd := &cobra.Command{
		Use:   "fetch <movie name>",
		Short: "Download subtitles from OpenSubtitles.org",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			fetcher, err := ctx.fetcher()
			if err != nil {
				return err
			}
			if lang == "" {
				lang = cfg.Subtitles.Language
			}
			if dir == "" {
				dir = filepath.Join(cfg.Paths.WorkDir, "subtitles")
			}
			paths, err := opensubtitles.New(fetcher, "").Fetch(cmd.Context(), lang, args[0], index, dir)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, paths)
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "", "Subtitle language (ISO 639-1 or 639-2, default from config)")
	cmd.Flags().IntVar(&index, "index", 0, "Search result to download")
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Destination directory (default work_dir/subtitles)")
	return cmd
}

func readCues(path string) ([]subtitles.Cue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read subtitles: %w", err)
	}
	return subtitles.Parse(data)
}

func newSubtitlesCleanCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "clean <file.srt>",
		Short: "Strip annotations, tags and advertising from subtitles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cues, err := readCues(args[0])
			if err != nil {
				return err
			}
			cleaned := subtitles.Clean(cues)
			if ctx.jsonOutput() {
				return writeJSON(cmd, cleaned)
			}
			if output == "" {
				return subtitles.Write(cmd.OutOrStdout(), cleaned)
			}
			if err := fileutil.WriteAtomic(output, 0o644, func(w io.Writer) error {
				return subtitles.Write(w, cleaned)
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Kept %d of %d cues in %s\n", len(cleaned), len(cues), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the cleaned SRT to this file")
	return cmd
}

func newSubtitlesBlocksCommand(ctx *commandContext) *cobra.Command {
	var gap float64
	var output string

	cmd := &cobra.Command{
		Use:   "blocks <file.srt>",
		Short: "Merge cues into dialogue blocks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			cues, err := readCues(args[0])
			if err != nil {
				return err
			}
			if gap <= 0 {
				gap = cfg.Subtitles.BlockGapSeconds
			}
			blocks := subtitles.Blocks(subtitles.Clean(cues), time.Duration(gap*float64(time.Second)))

			table := report.Table{Name: "blocks", Headers: []string{"start", "end", "cues", "text"}}
			for _, b := range blocks {
				table.Rows = append(table.Rows, []string{seconds(b.Start), seconds(b.End), itoa(b.Cues), b.Text})
			}
			if output != "" {
				return writeTable(output, table, ';')
			}
			return ctx.emit(cmd, blocks, []string{"Start", "End", "Cues", "Text"}, table.Rows,
				[]columnAlignment{alignRight, alignRight, alignRight, alignLeft})
		},
	}
	cmd.Flags().Float64Var(&gap, "gap", 0, "Maximum gap in seconds between cues of a block (default from config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Export the blocks (.csv, .json, .yaml or .xlsx)")
	return cmd
}

func newSubtitlesAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var tmdbID int64
	var segmentsPath string
	var output string
	var tablePath string

	cmd := &cobra.Command{
		Use:   "analyze <file.srt>",
		Short: "Find characters, gendered mentions and a Bechdel score in subtitles",
		Long: `Analyse a subtitle file: extract and group character names, match them to
the TMDB cast (--tmdb-id), build the co-occurrence graph, count gendered
mentions and derive a heuristic Bechdel score.

--segments takes the JSON written by "bechdelai audio segment --json" and
splits the dialogue by speaker gender. The run is recorded in the run
journal.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.serviceValue()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read subtitles: %w", err)
			}
			req := api.AnalyzeRequest{SRT: data, TMDBID: tmdbID, Subject: filepath.Base(args[0])}
			if segmentsPath != "" {
				if req.Segments, err = readSegments(segmentsPath); err != nil {
					return err
				}
			}
			run, rep, err := svc.AnalyzeSubtitles(cmd.Context(), req)
			if err != nil {
				return err
			}
			if output != "" {
				if err := writeJSONFile(output, rep); err != nil {
					return err
				}
			}
			if tablePath != "" {
				if err := writeTable(tablePath, charactersTable(rep), ','); err != nil {
					return err
				}
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, api.AnalyzeResponse{RunID: runID(run), Report: rep})
			}
			printReport(cmd, rep)
			if run != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Run: %s\n", run.ID)
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&tmdbID, "tmdb-id", 0, "TMDB movie id whose cast genders the characters")
	cmd.Flags().StringVar(&segmentsPath, "segments", "", "Gendered speech segments (JSON)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the full report as JSON")
	cmd.Flags().StringVar(&tablePath, "table", "", "Export the character table (.csv, .json, .yaml or .xlsx)")
	return cmd
}

func readSegments(path string) ([]audio.Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read segments: %w", err)
	}
	var segments []audio.Segment
	if err := json.Unmarshal(data, &segments); err != nil {
		return nil, fmt.Errorf("decode segments %s: %w", path, err)
	}
	return segments, nil
}

func charactersTable(rep *bechdel.Report) report.Table {
	t := report.Table{
		Name:    "characters",
		Headers: []string{"name", "mentions", "gender", "character", "actor", "rank"},
	}
	for _, c := range rep.Characters {
		t.Rows = append(t.Rows, []string{
			c.Name, itoa(c.Mentions), string(c.Gender), c.Character, c.Actor,
			strconv.FormatFloat(c.Rank, 'f', 4, 64),
		})
	}
	return t
}

func printReport(cmd *cobra.Command, rep *bechdel.Report) {
	out := cmd.OutOrStdout()
	heading(out, "Characters")
	t := charactersTable(rep)
	if len(t.Rows) > 0 {
		fmt.Fprintln(out, renderTable([]string{"Name", "Mentions", "Gender", "Character", "Actor", "Rank"}, t.Rows,
			[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft, alignRight}))
	} else {
		fmt.Fprintln(out, "No named characters found")
	}
	fmt.Fprintf(out, "Cues: %d  Dialogue blocks: %d\n", rep.Cues, len(rep.Exchanges))
	fmt.Fprintf(out, "Gendered mentions: women %d, men %d\n", rep.Mentions.Woman, rep.Mentions.Man)
	if rep.Dialogue != nil {
		fmt.Fprintf(out, "Women's lines: %s  Women's speaking time: %s\n",
			percent(rep.Dialogue.WomenLineShare), percent(rep.Dialogue.WomenTimeShare))
	}
	heading(out, fmt.Sprintf("Heuristic Bechdel score: %d/3", rep.Score.Value))
	fmt.Fprintln(out, rep.Score.Reason)
}

func runID(run *store.Run) string {
	if run == nil {
		return ""
	}
	return run.ID
}
