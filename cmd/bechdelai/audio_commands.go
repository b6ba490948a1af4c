package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dataforgoodfr/bechdelai/internal/api"
	"github.com/dataforgoodfr/bechdelai/internal/audio"
	"github.com/dataforgoodfr/bechdelai/internal/bechdel"
	"github.com/dataforgoodfr/bechdelai/internal/config"
	"github.com/dataforgoodfr/bechdelai/internal/fileutil"
	"github.com/dataforgoodfr/bechdelai/internal/logging"
	"github.com/dataforgoodfr/bechdelai/internal/media/ffprobe"
	"github.com/dataforgoodfr/bechdelai/internal/services"
)

func newAudioCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audio",
		Short: "Extract, segment and transcribe movie audio",
	}
	cmd.AddCommand(newAudioExtractCommand(ctx))
	cmd.AddCommand(newAudioSegmentCommand(ctx))
	cmd.AddCommand(newAudioProcessCommand(ctx))
	return cmd
}

type extractFlags struct {
	start    time.Duration
	duration time.Duration
}

func (f *extractFlags) register(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&f.start, "start", 0, "Offset into the movie, e.g. 10m")
	cmd.Flags().DurationVar(&f.duration, "duration", 0, "Length to extract (default: audio.max_duration_seconds, 0 for all)")
}

// extractWAV converts movie into a WAV under the work directory. Unless
// force is set, a WAV input without a requested window is used as is.
func (f *extractFlags) extractWAV(ctx context.Context, cfg *config.Config, logger *slog.Logger, movie, dest string, force bool) (string, error) {
	if !force && strings.EqualFold(filepath.Ext(movie), ".wav") && f.start == 0 && f.duration == 0 {
		return movie, nil
	}
	probe, err := ffprobe.New(cfg.FFprobeBinary()).Inspect(ctx, movie)
	if err != nil {
		return "", err
	}
	if len(probe.AudioStreams()) == 0 {
		return "", services.Wrap(services.ErrValidation, "cli", "audio extract", movie+" has no audio stream", nil)
	}
	duration := f.duration
	if duration == 0 && cfg.Audio.MaxDurationSeconds > 0 {
		duration = time.Duration(cfg.Audio.MaxDurationSeconds) * time.Second
	}
	if total := probe.Duration(); total > 0 && f.start >= total {
		return "", services.Wrap(services.ErrValidation, "cli", "audio extract",
			fmt.Sprintf("start %s is past the end of the movie (%s)", f.start, total.Round(time.Second)), nil)
	}
	if dest == "" {
		base := strings.TrimSuffix(filepath.Base(movie), filepath.Ext(movie))
		dest = filepath.Join(cfg.Paths.WorkDir, "audio", base+".wav")
	}
	logger.Info("extracting audio",
		logging.String("movie", movie),
		logging.String("wav", dest),
		logging.Duration("movie_duration", probe.Duration()),
		logging.Duration("start", f.start),
		logging.Duration("duration", duration))
	if err := audio.NewFFmpeg(cfg.FFmpegBinary()).Extract(ctx, movie, dest, f.start, duration); err != nil {
		return "", err
	}
	return dest, nil
}

func newAudioExtractCommand(ctx *commandContext) *cobra.Command {
	var flags extractFlags
	var output string

	cmd := &cobra.Command{
		Use:   "extract <movie>",
		Short: "Convert the audio track to mono 16 kHz WAV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			wav, err := flags.extractWAV(cmd.Context(), cfg, ctx.loggerValue(), args[0], output, true)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), wav)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination WAV (default work_dir/audio/<name>.wav)")
	return cmd
}

func newAudioSegmentCommand(ctx *commandContext) *cobra.Command {
	var flags extractFlags
	var segmenter string
	var output string

	cmd := &cobra.Command{
		Use:   "segment <movie|file.wav>",
		Short: "Split speech into female and male segments",
		Long: `Split speech into gendered segments with the configured segmenter
("pitch" is native, "ina" runs ina_speech_segmenter.py). Non-WAV inputs are
extracted with ffmpeg first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if segmenter != "" {
				cfg.Audio.Segmenter = segmenter
			}
			processor, err := audio.NewProcessor(cfg, ctx.loggerValue())
			if err != nil {
				return err
			}
			wav, err := flags.extractWAV(cmd.Context(), cfg, ctx.loggerValue(), args[0], "", false)
			if err != nil {
				return err
			}
			segments, err := processor.Segmentor.Segment(cmd.Context(), wav)
			if err != nil {
				return err
			}
			if output != "" {
				if err := writeJSONFile(output, segments); err != nil {
					return err
				}
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, segments)
			}
			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(segments))
			for _, s := range segments {
				rows = append(rows, []string{string(s.Gender), seconds(s.Start), seconds(s.End)})
			}
			fmt.Fprintln(out, renderTable([]string{"Gender", "Start", "End"}, rows,
				[]columnAlignment{alignLeft, alignRight, alignRight}))
			spoken := audio.SpeakingTime(segments)
			fmt.Fprintf(out, "Female speech: %s  Male speech: %s  Female share: %s\n",
				spoken[audio.Female].Round(time.Second),
				spoken[audio.Male].Round(time.Second),
				percent(audio.FemaleShare(segments)))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&segmenter, "segmenter", "", "Override audio.segmenter (pitch or ina)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the segments as JSON")
	return cmd
}

func newAudioProcessCommand(ctx *commandContext) *cobra.Command {
	var flags extractFlags
	var output string

	cmd := &cobra.Command{
		Use:   "process <movie|file.wav>",
		Short: "Segment and transcribe speech by gender",
		Long: `Run the full audio pipeline: extraction, gender segmentation and a
transcription of every segment with audio.transcriber. The rows are written
as gender;start;end;transcription CSV.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			processor, err := audio.NewProcessor(cfg, ctx.loggerValue())
			if err != nil {
				return err
			}
			if output == "" {
				base := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
				output = filepath.Join(cfg.Paths.WorkDir, "audio", base+"_transcription.csv")
			}

			var rows []audio.Row
			err = ctx.track(cmd.Context(), api.KindAudio, filepath.Base(args[0]), func(runCtx context.Context) (any, error) {
				wav, err := flags.extractWAV(runCtx, cfg, ctx.loggerValue(), args[0], "", false)
				if err != nil {
					return nil, err
				}
				rows, err = processor.Run(runCtx, wav)
				if err != nil {
					return nil, err
				}
				if err := fileutil.WriteAtomic(output, 0o644, func(w io.Writer) error {
					return audio.WriteCSV(w, rows)
				}); err != nil {
					return nil, err
				}
				return map[string]any{
					"output":        output,
					"rows":          len(rows),
					"speaking_time": bechdel.SpokenTime(rows),
				}, nil
			})
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, rows)
			}
			spoken := bechdel.SpokenTime(rows)
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d segments to %s\n", len(rows), output)
			fmt.Fprintf(cmd.OutOrStdout(), "Female speech: %s  Male speech: %s\n",
				spoken[audio.Female].Round(time.Second), spoken[audio.Male].Round(time.Second))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Transcription CSV (default work_dir/audio/<name>_transcription.csv)")
	return cmd
}
