package inaseg

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dataforgoodfr/bechdelai/internal/services"
)

// DefaultBinary is the entry point installed by the inaSpeechSegmenter package.
const DefaultBinary = "ina_speech_segmenter.py"

// Segment is one labelled interval of the segmenter output. Labels include
// male, female, music, noise and noEnergy.
type Segment struct {
	Label string
	Start float64
	End   float64
}

// Runner invokes the segmenter CLI.
type Runner struct {
	binary string
	run    func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// New returns a runner for binary, defaulting to DefaultBinary.
func New(binary string) *Runner {
	if strings.TrimSpace(binary) == "" {
		binary = DefaultBinary
	}
	return &Runner{binary: binary, run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return exec.CommandContext(ctx, name, args...).CombinedOutput() //nolint:gosec
	}}
}

// WithCommandRunner replaces command execution (for testing).
func (r *Runner) WithCommandRunner(run func(ctx context.Context, name string, args ...string) ([]byte, error)) {
	r.run = run
}

// Binary returns the configured executable.
func (r *Runner) Binary() string {
	return r.binary
}

// Segment runs the segmenter on wav with the "sm" VAD engine and parses the
// CSV it writes into outDir.
func (r *Runner) Segment(ctx context.Context, wav, outDir string) ([]Segment, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("ina segmenter: ensure output dir: %w", err)
	}
	args := []string{"-i", wav, "-o", outDir, "-d", "sm", "-e", "csv"}
	if output, err := r.run(ctx, r.binary, args...); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "segment", "ina", strings.TrimSpace(string(output)), err)
	}
	base := strings.TrimSuffix(filepath.Base(wav), filepath.Ext(wav))
	f, err := os.Open(filepath.Join(outDir, base+".csv"))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "segment", "ina", "read output", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads the tab separated "labels start stop" table.
func Parse(r io.Reader) ([]Segment, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = 3
	var out []Segment
	header := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "segment", "ina", "parse csv", err)
		}
		if header {
			header = false
			if strings.EqualFold(record[0], "labels") {
				continue
			}
		}
		start, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "segment", "ina", "parse start", err)
		}
		end, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "segment", "ina", "parse stop", err)
		}
		out = append(out, Segment{Label: strings.TrimSpace(record[0]), Start: start, End: end})
	}
}
