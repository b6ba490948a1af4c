package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/dataforgoodfr/bechdelai/internal/services"
)

// SampleRate is the rate of every WAV produced for analysis.
const SampleRate = 16000

// CommandRunner executes an external command and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput() //nolint:gosec
}

// FFmpeg cuts and converts audio with the ffmpeg binary.
type FFmpeg struct {
	Binary string
	run    CommandRunner
}

// NewFFmpeg returns an extractor for binary, defaulting to "ffmpeg".
func NewFFmpeg(binary string) *FFmpeg {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &FFmpeg{Binary: binary, run: execRunner}
}

// WithCommandRunner replaces command execution (for testing).
func (f *FFmpeg) WithCommandRunner(run CommandRunner) {
	f.run = run
}

func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}

func extractArgs(source, dest string, start, duration time.Duration) []string {
	args := []string{"-y", "-hide_banner", "-loglevel", "error"}
	if start > 0 {
		args = append(args, "-ss", formatSeconds(start))
	}
	if duration > 0 {
		args = append(args, "-t", formatSeconds(duration))
	}
	return append(args,
		"-i", source,
		"-vn", "-sn", "-dn",
		"-ac", "1",
		"-ar", fmt.Sprint(SampleRate),
		"-c:a", "pcm_s16le",
		dest,
	)
}

// Extract converts the audio of movie into mono 16 kHz PCM WAV at dest. A
// zero duration extracts through the end of the input.
func (f *FFmpeg) Extract(ctx context.Context, movie, dest string, start, duration time.Duration) error {
	if strings.TrimSpace(movie) == "" {
		return services.Wrap(services.ErrValidation, "audio", "extract", "input path required", nil)
	}
	if start < 0 || duration < 0 {
		return services.Wrap(services.ErrValidation, "audio", "extract", "negative start or duration", nil)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("extract audio: ensure output dir: %w", err)
	}
	if output, err := f.run(ctx, f.Binary, extractArgs(movie, dest, start, duration)...); err != nil {
		return services.Wrap(services.ErrExternalTool, "audio", "ffmpeg extract", strings.TrimSpace(string(output)), err)
	}
	return nil
}

// CutClip cuts [start, start+duration) of src into dest.
func (f *FFmpeg) CutClip(ctx context.Context, src, dest string, start, duration time.Duration) error {
	if duration <= 0 {
		return services.Wrap(services.ErrValidation, "audio", "cut clip", fmt.Sprintf("invalid duration %s", duration), nil)
	}
	return f.Extract(ctx, src, dest, start, duration)
}
