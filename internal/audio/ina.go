package audio

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/dataforgoodfr/bechdelai/internal/services/inaseg"
)

// InaSegmentor delegates segmentation to the INA speech segmenter CLI.
type InaSegmentor struct {
	Runner *inaseg.Runner
	// WorkDir receives the CSV written by the segmenter.
	WorkDir string
}

// NewInaSegmentor returns a segmentor using binary.
func NewInaSegmentor(binary, workDir string) *InaSegmentor {
	return &InaSegmentor{Runner: inaseg.New(binary), WorkDir: workDir}
}

// Segment implements GenderSegmentor.
func (s *InaSegmentor) Segment(ctx context.Context, wav string) ([]Segment, error) {
	dir := s.WorkDir
	if dir == "" {
		dir = filepath.Join(filepath.Dir(wav), "ina")
	}
	raw, err := s.Runner.Segment(ctx, wav, dir)
	if err != nil {
		return nil, err
	}
	out := make([]Segment, 0, len(raw))
	for _, r := range raw {
		out = append(out, Segment{
			Gender: Gender(strings.ToLower(r.Label)),
			Start:  seconds(r.Start),
			End:    seconds(r.End),
		})
	}
	return keepSpeech(out), nil
}
