package vision

import (
	"context"
	"encoding/csv"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/dataforgoodfr/bechdelai/internal/logging"
	"github.com/dataforgoodfr/bechdelai/internal/services"
	"github.com/dataforgoodfr/bechdelai/internal/services/deepface"
)

// Labels returned by face analyzers.
const (
	Woman = "Woman"
	Man   = "Man"
)

// Face is one detected face: its predicted gender and bounding box in pixels.
type Face struct {
	Gender string `json:"gender"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	W      int    `json:"w"`
	H      int    `json:"h"`
}

// FaceAnalyzer detects every face in an image and predicts its gender.
type FaceAnalyzer interface {
	Faces(ctx context.Context, image string) ([]Face, error)
}

// DeepFaceAnalyzer adapts the DeepFace REST client.
type DeepFaceAnalyzer struct {
	Client *deepface.Client
}

// Faces implements FaceAnalyzer.
func (a DeepFaceAnalyzer) Faces(ctx context.Context, image string) ([]Face, error) {
	found, err := a.Client.AnalyzeFile(ctx, image)
	if err != nil {
		return nil, err
	}
	out := make([]Face, 0, len(found))
	for _, f := range found {
		out = append(out, Face{Gender: f.DominantGender, X: f.Region.X, Y: f.Region.Y, W: f.Region.W, H: f.Region.H})
	}
	return out, nil
}

// Area is the share of an image covered by women's and men's faces.
// RatioArea is WomenArea over MenArea, and zero when either side is empty.
type Area struct {
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	WomenArea float64 `json:"women_area"`
	MenArea   float64 `json:"men_area"`
	RatioArea float64 `json:"ratio_area"`
}

// MeasureFaces sums face box areas per gender as fractions of a
// width x height image. Boxes are not clipped and may overlap.
func MeasureFaces(faces []Face, width, height int) Area {
	a := Area{Width: width, Height: height}
	if width <= 0 || height <= 0 {
		return a
	}
	total := float64(width) * float64(height)
	for _, f := range faces {
		share := float64(f.W) * float64(f.H) / total
		switch {
		case strings.EqualFold(f.Gender, Woman):
			a.WomenArea += share
		case strings.EqualFold(f.Gender, Man):
			a.MenArea += share
		}
	}
	if a.WomenArea > 0 && a.MenArea > 0 {
		a.RatioArea = a.WomenArea / a.MenArea
	}
	return a
}

// ImageSize reads the pixel dimensions of a JPEG or PNG file.
func ImageSize(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, services.Wrap(services.ErrValidation, "vision", "image size", "open "+path, err)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, services.Wrap(services.ErrValidation, "vision", "image size", "decode "+path, err)
	}
	return cfg.Width, cfg.Height, nil
}

// FrameResult holds the face predictions of one frame.
type FrameResult struct {
	Frame       Frame    `json:"frame"`
	Predictions []string `json:"predictions"`
	Faces       []Face   `json:"faces,omitempty"`
	Women       int      `json:"women"`
	Men         int      `json:"men"`
	Area        Area     `json:"area"`
}

// Analyze runs analyzer on a single image and measures the faces it finds.
func Analyze(ctx context.Context, analyzer FaceAnalyzer, frame Frame) (FrameResult, error) {
	r, err := detect(ctx, analyzer, frame)
	if err != nil {
		return r, err
	}
	w, h, err := ImageSize(frame.Path)
	if err != nil {
		return r, err
	}
	r.Area = MeasureFaces(r.Faces, w, h)
	return r, nil
}

func detect(ctx context.Context, analyzer FaceAnalyzer, frame Frame) (FrameResult, error) {
	faces, err := analyzer.Faces(ctx, frame.Path)
	if err != nil {
		return FrameResult{}, err
	}
	r := FrameResult{Frame: frame, Faces: faces, Predictions: make([]string, 0, len(faces))}
	for _, f := range faces {
		r.Predictions = append(r.Predictions, f.Gender)
		switch {
		case strings.EqualFold(f.Gender, Woman):
			r.Women++
		case strings.EqualFold(f.Gender, Man):
			r.Men++
		}
	}
	return r, nil
}

// Bechdelizer looks for frames showing several women.
type Bechdelizer struct {
	Analyzer FaceAnalyzer
	Logger   *slog.Logger
}

// Run analyses every frame in order.
func (b *Bechdelizer) Run(ctx context.Context, frames []Frame) ([]FrameResult, error) {
	logger := logging.WithContext(ctx, logging.NewComponentLogger(b.Logger, "vision"))
	results := make([]FrameResult, 0, len(frames))
	for _, f := range frames {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		r, err := detect(ctx, b.Analyzer, f)
		if err != nil {
			return results, err
		}
		if w, h, err := ImageSize(f.Path); err != nil {
			logger.Debug("frame size unreadable, face areas left empty",
				logging.String("frame", f.Path),
				logging.Error(err))
		} else {
			r.Area = MeasureFaces(r.Faces, w, h)
		}
		results = append(results, r)
	}
	multi := len(WithMultipleWomen(results))
	logger.Info("frames analysed",
		logging.Int("frames", len(results)),
		logging.Int("frames_with_women", multi))
	return results, nil
}

// WithMultipleWomen keeps the frames where more than one woman was detected.
func WithMultipleWomen(results []FrameResult) []FrameResult {
	var out []FrameResult
	for _, r := range results {
		if r.Women > 1 {
			out = append(out, r)
		}
	}
	return out
}

// WriteCSV writes timestamp,file_location,prediction,nb_woman_detected rows
// followed by the men count and face areas. Timestamps are whole seconds and
// predictions are joined with "|".
func WriteCSV(w io.Writer, results []FrameResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "file_location", "prediction", "nb_woman_detected", "nb_man_detected", "women_area", "men_area", "ratio_area"}); err != nil {
		return err
	}
	for _, r := range results {
		if err := cw.Write([]string{
			strconv.Itoa(int(r.Frame.Timestamp.Round(1e9).Seconds())),
			r.Frame.Path,
			strings.Join(r.Predictions, "|"),
			strconv.Itoa(r.Women),
			strconv.Itoa(r.Men),
			formatShare(r.Area.WomenArea),
			formatShare(r.Area.MenArea),
			formatShare(r.Area.RatioArea),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatShare(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
