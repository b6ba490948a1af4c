package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dataforgoodfr/bechdelai/internal/api"
	"github.com/dataforgoodfr/bechdelai/internal/config"
	"github.com/dataforgoodfr/bechdelai/internal/fileutil"
	"github.com/dataforgoodfr/bechdelai/internal/logging"
	"github.com/dataforgoodfr/bechdelai/internal/media/ffprobe"
	"github.com/dataforgoodfr/bechdelai/internal/report"
	"github.com/dataforgoodfr/bechdelai/internal/services"
	"github.com/dataforgoodfr/bechdelai/internal/services/deepface"
	"github.com/dataforgoodfr/bechdelai/internal/vision"
)

func newVisionCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vision",
		Short: "Sample frames and detect women on screen",
	}
	cmd.AddCommand(newVisionFramesCommand(ctx))
	cmd.AddCommand(newVisionDetectCommand(ctx))
	cmd.AddCommand(newVisionTimelineCommand(ctx))
	cmd.AddCommand(newVisionImageCommand(ctx))
	return cmd
}

type frameFlags struct {
	rate       float64
	maxSeconds int
	dir        string
}

func (f *frameFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.rate, "rate", 0, "Frames per second to sample (default vision.frame_rate)")
	cmd.Flags().IntVar(&f.maxSeconds, "max-seconds", -1, "Stop sampling after this many seconds (default vision.max_seconds)")
	cmd.Flags().StringVarP(&f.dir, "dir", "d", "", "Frame directory (default work_dir/frames/<name>)")
}

func (f *frameFlags) resolve(cfg *config.Config, source string) {
	if f.rate <= 0 {
		f.rate = cfg.Vision.FrameRate
	}
	if f.maxSeconds < 0 {
		f.maxSeconds = cfg.Vision.MaxSeconds
	}
	if f.dir == "" {
		base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
		f.dir = filepath.Join(cfg.Paths.WorkDir, "frames", base)
	}
}

// frames samples video, or lists the frames of source when it is a directory.
func (f *frameFlags) frames(ctx context.Context, c *commandContext, cfg *config.Config, source string) ([]vision.Frame, error) {
	f.resolve(cfg, source)
	if info, err := os.Stat(source); err == nil && info.IsDir() {
		return vision.ListFrames(source, f.rate)
	}
	probe, err := ffprobe.New(cfg.FFprobeBinary()).Inspect(ctx, source)
	if err != nil {
		return nil, err
	}
	videos := probe.VideoStreams()
	if len(videos) == 0 {
		return nil, services.Wrap(services.ErrValidation, "cli", "frames", source+" has no video stream", nil)
	}
	c.loggerValue().Info("sampling frames",
		logging.String("video", source),
		logging.Float64("source_fps", videos[0].FramesPerSecond()),
		logging.Float64("rate", f.rate),
		logging.Duration("duration", probe.Duration()),
		logging.String("dir", f.dir))
	return vision.NewExtractor(cfg.FFmpegBinary()).ExtractFrames(ctx, source, f.dir, f.rate, f.maxSeconds)
}

func newVisionFramesCommand(ctx *commandContext) *cobra.Command {
	var flags frameFlags

	cmd := &cobra.Command{
		Use:   "frames <video>",
		Short: "Sample frames from a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			frames, err := flags.frames(cmd.Context(), ctx, cfg, args[0])
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, frames)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d frames to %s\n", len(frames), flags.dir)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newVisionDetectCommand(ctx *commandContext) *cobra.Command {
	var flags frameFlags
	var output string
	var resultsPath string

	cmd := &cobra.Command{
		Use:   "detect <video|frame dir>",
		Short: "Count women in every sampled frame with DeepFace",
		Long: `Predict the gender of every face in the sampled frames through the
DeepFace REST API (vision.deepface_url) and report the frames showing more
than one woman.

--results keeps the per-frame predictions as JSON for "vision timeline".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			bechdelizer := &vision.Bechdelizer{
				Analyzer: vision.DeepFaceAnalyzer{Client: deepface.New(cfg.Vision.DeepFaceURL, cfg.Vision.DetectorBackend)},
				Logger:   ctx.loggerValue(),
			}
			var results []vision.FrameResult
			err = ctx.track(cmd.Context(), api.KindVision, filepath.Base(args[0]), func(runCtx context.Context) (any, error) {
				frames, err := flags.frames(runCtx, ctx, cfg, args[0])
				if err != nil {
					return nil, err
				}
				results, err = bechdelizer.Run(runCtx, frames)
				if err != nil {
					return nil, err
				}
				if output != "" {
					if err := fileutil.WriteAtomic(output, 0o644, func(w io.Writer) error {
						return vision.WriteCSV(w, results)
					}); err != nil {
						return nil, err
					}
				}
				if resultsPath != "" {
					if err := writeJSONFile(resultsPath, results); err != nil {
						return nil, err
					}
				}
				multi := vision.WithMultipleWomen(results)
				return map[string]any{"frames": len(results), "frames_with_women": len(multi)}, nil
			})
			if err != nil {
				return err
			}
			multi := vision.WithMultipleWomen(results)
			if ctx.jsonOutput() {
				return writeJSON(cmd, multi)
			}
			rows := make([][]string, 0, len(multi))
			for _, r := range multi {
				rows = append(rows, []string{seconds(r.Frame.Timestamp), filepath.Base(r.Frame.Path), itoa(r.Women)})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d of %d frames show more than one woman\n", len(multi), len(results))
			if len(rows) > 0 {
				fmt.Fprintln(out, renderTable([]string{"Time", "Frame", "Women"}, rows,
					[]columnAlignment{alignRight, alignLeft, alignRight}))
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write timestamp,file_location,prediction,nb_woman_detected CSV")
	cmd.Flags().StringVar(&resultsPath, "results", "", "Write per-frame predictions as JSON")
	return cmd
}

func newVisionTimelineCommand(ctx *commandContext) *cobra.Command {
	var rate float64
	var output string

	cmd := &cobra.Command{
		Use:   "timeline <results.json>",
		Short: "Group detection results into on-screen spans",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read results: %w", err)
			}
			var results []vision.FrameResult
			if err := json.Unmarshal(data, &results); err != nil {
				return fmt.Errorf("decode results %s: %w", args[0], err)
			}
			if rate <= 0 {
				rate = cfg.Vision.FrameRate
			}
			if rate <= 0 {
				return services.Wrap(services.ErrValidation, "cli", "timeline", "frame rate must be positive", nil)
			}
			spans := vision.WomenTimeline(results, time.Duration(float64(time.Second)/rate))

			table := report.Table{
				Name:    "timeline",
				Headers: []string{"label", "sequence", "first_frame", "end_frame", "start", "end", "duration"},
			}
			for _, s := range spans {
				table.Rows = append(table.Rows, []string{
					s.Label, itoa(s.Sequence), itoa(s.FirstFrame), itoa(s.EndFrame),
					seconds(s.Start), seconds(s.End), seconds(s.Duration),
				})
			}
			if output != "" {
				return writeTable(output, table, ',')
			}
			return ctx.emit(cmd, spans, []string{"Label", "Seq", "First", "End", "Start", "End (s)", "Duration"}, table.Rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight})
		},
	}
	cmd.Flags().Float64Var(&rate, "rate", 0, "Sampling rate the frames were taken at (default vision.frame_rate)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Export the spans (.csv, .json, .yaml or .xlsx)")
	return cmd
}

func newVisionImageCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "image <file>",
		Short: "Measure the screen space taken by women's and men's faces in an image",
		Long: `Detect the faces of a single JPEG or PNG image (a poster or a frame)
with DeepFace and report, per gender, the face count and the share of the
image covered by face boxes. ratio_area is the women's share over the men's.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			analyzer := vision.DeepFaceAnalyzer{Client: deepface.New(cfg.Vision.DeepFaceURL, cfg.Vision.DetectorBackend)}
			result, err := vision.Analyze(cmd.Context(), analyzer, vision.Frame{ID: 1, Path: args[0]})
			if err != nil {
				return err
			}
			rows := [][]string{
				{"Woman", itoa(result.Women), percent(result.Area.WomenArea)},
				{"Man", itoa(result.Men), percent(result.Area.MenArea)},
			}
			if err := ctx.emit(cmd, result, []string{"Gender", "Faces", "Area"}, rows,
				[]columnAlignment{alignLeft, alignRight, alignRight}); err != nil {
				return err
			}
			if !ctx.jsonOutput() {
				fmt.Fprintf(cmd.OutOrStdout(), "ratio_area %.2f (%dx%d)\n", result.Area.RatioArea, result.Area.Width, result.Area.Height)
			}
			return nil
		},
	}
	return cmd
}
