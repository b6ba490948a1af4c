package vision

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dataforgoodfr/bechdelai/internal/services"
)

// Frame is an image sampled from a video.
type Frame struct {
	ID        int           `json:"id"`
	Path      string        `json:"path"`
	Timestamp time.Duration `json:"timestamp"`
}

// CommandRunner executes an external command and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Extractor samples frames with ffmpeg.
type Extractor struct {
	Binary string
	run    CommandRunner
}

// NewExtractor returns an extractor for binary, defaulting to "ffmpeg".
func NewExtractor(binary string) *Extractor {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &Extractor{Binary: binary, run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return exec.CommandContext(ctx, name, args...).CombinedOutput() //nolint:gosec
	}}
}

// WithCommandRunner replaces command execution (for testing).
func (e *Extractor) WithCommandRunner(run CommandRunner) {
	e.run = run
}

// ExtractFrames writes rate frames per second of video into dir as
// frame1.jpg, frame2.jpg... A positive maxSeconds stops sampling there.
func (e *Extractor) ExtractFrames(ctx context.Context, video, dir string, rate float64, maxSeconds int) ([]Frame, error) {
	if rate <= 0 {
		return nil, services.Wrap(services.ErrValidation, "vision", "extract frames", "frame rate must be positive", nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("extract frames: ensure dir: %w", err)
	}
	args := []string{"-y", "-hide_banner", "-loglevel", "error", "-i", video}
	if maxSeconds > 0 {
		args = append(args, "-t", strconv.Itoa(maxSeconds))
	}
	args = append(args,
		"-vf", "fps="+strconv.FormatFloat(rate, 'f', -1, 64),
		"-q:v", "2",
		filepath.Join(dir, "frame%d.jpg"),
	)
	if output, err := e.run(ctx, e.Binary, args...); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "vision", "ffmpeg frames", strings.TrimSpace(string(output)), err)
	}
	return ListFrames(dir, rate)
}

// ListFrames returns the frameN.jpg files of dir ordered by N. Frame N was
// sampled at (N-1)/rate seconds.
func ListFrames(dir string, rate float64) ([]Frame, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "frame*.jpg"))
	if err != nil {
		return nil, err
	}
	frames := make([]Frame, 0, len(matches))
	for _, m := range matches {
		base := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(m), "frame"), ".jpg")
		id, err := strconv.Atoi(base)
		if err != nil {
			continue
		}
		frames = append(frames, Frame{
			ID:        id,
			Path:      m,
			Timestamp: time.Duration(float64(id-1) / rate * float64(time.Second)),
		})
	}
	sort.Slice(frames, func(i, j int) bool { return frames[i].ID < frames[j].ID })
	return frames, nil
}
