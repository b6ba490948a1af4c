package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/dataforgoodfr/bechdelai/internal/api"
	"github.com/dataforgoodfr/bechdelai/internal/bechdel"
	"github.com/dataforgoodfr/bechdelai/internal/services"
	"github.com/dataforgoodfr/bechdelai/internal/services/llm"
	"github.com/dataforgoodfr/bechdelai/internal/subtitles"
)

func newAskCommand(ctx *commandContext) *cobra.Command {
	var questions []string
	var maxChars int

	cmd := &cobra.Command{
		Use:   "ask <file.srt|script.txt>",
		Short: "Ask an LLM the Bechdel questions about a dialogue",
		Long: `Ask an OpenAI-compatible model questions about a dialogue. SRT files are
cleaned and merged into dialogue blocks; any other file is sent as text.
Without --question the three Bechdel test criteria are asked.

Examples:
  bechdelai ask scene.srt
  bechdelai ask alien.txt --question "Do Ripley and Lambert talk about the alien?"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireLLM(); err != nil {
				return services.Wrap(services.ErrConfiguration, "cli", "ask", "", err)
			}
			dialogue, err := readDialogue(args[0], time.Duration(cfg.Subtitles.BlockGapSeconds*float64(time.Second)))
			if err != nil {
				return err
			}
			if maxChars > 0 {
				dialogue = truncate(dialogue, maxChars)
			}
			client := llm.NewClient(llm.Config(cfg.GetLLM()))

			var answers []bechdel.Answer
			err = ctx.track(cmd.Context(), api.KindQuestions, filepath.Base(args[0]), func(runCtx context.Context) (any, error) {
				answers, err = bechdel.Questions(runCtx, client, dialogue, questions)
				return answers, err
			})
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, answers)
			}
			out := cmd.OutOrStdout()
			for _, a := range answers {
				heading(out, a.Question)
				fmt.Fprintln(out, a.Answer)
				if a.Reasoning != "" {
					fmt.Fprintf(out, "  %s\n", a.Reasoning)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&questions, "question", "q", nil, "Question to ask (repeatable)")
	cmd.Flags().IntVar(&maxChars, "max-chars", 12000, "Truncate the dialogue to this many bytes (0 disables)")
	return cmd
}

func readDialogue(path string, gap time.Duration) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read dialogue: %w", err)
	}
	if !strings.EqualFold(filepath.Ext(path), ".srt") {
		return strings.TrimSpace(subtitles.Decode(data)), nil
	}
	cues, err := subtitles.Parse(data)
	if err != nil {
		return "", err
	}
	blocks := subtitles.Blocks(subtitles.Clean(cues), gap)
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		parts = append(parts, b.Text)
	}
	return strings.Join(parts, "\n\n"), nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
