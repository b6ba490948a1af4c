package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dataforgoodfr/bechdelai/internal/config"
	"github.com/dataforgoodfr/bechdelai/internal/logging"
	"github.com/dataforgoodfr/bechdelai/internal/services"
	"github.com/dataforgoodfr/bechdelai/internal/services/whisperapi"
	"github.com/dataforgoodfr/bechdelai/internal/services/whisperx"
)

// DialogueTagger selects the segments worth transcribing.
type DialogueTagger interface {
	Tag(segments []Segment) []Segment
}

// RuleBasedTagger keeps every segment.
type RuleBasedTagger struct{}

// Tag implements DialogueTagger.
func (RuleBasedTagger) Tag(segments []Segment) []Segment {
	return segments
}

// Transcriber turns a WAV clip into text.
type Transcriber interface {
	Transcribe(ctx context.Context, wav, language string) (string, error)
}

// NoopTranscriber returns empty text, for segmentation-only runs.
type NoopTranscriber struct{}

// Transcribe implements Transcriber.
func (NoopTranscriber) Transcribe(context.Context, string, string) (string, error) {
	return "", nil
}

// WhisperXTranscriber adapts the WhisperX CLI service.
type WhisperXTranscriber struct {
	Service *whisperx.Service
}

// Transcribe implements Transcriber.
func (t WhisperXTranscriber) Transcribe(ctx context.Context, wav, language string) (string, error) {
	res, err := t.Service.TranscribeFile(ctx, wav, "", language)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

// Profile bundles the language settings of an analysis.
type Profile struct {
	Name     string
	Language string
	Locale   string
}

var profiles = map[string]Profile{
	"french":     {Name: "french", Language: "fr", Locale: "fr-FR"},
	"us_english": {Name: "us_english", Language: "en", Locale: "en-US"},
}

// LookupProfile returns the named profile.
func LookupProfile(name string) (Profile, error) {
	p, ok := profiles[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Profile{}, services.Wrap(services.ErrConfiguration, "audio", "profile", fmt.Sprintf("unknown profile %q", name), nil)
	}
	return p, nil
}

// Row is one transcribed segment.
type Row struct {
	Segment
	Transcription string `json:"transcription"`
}

// Processor runs segmentation, tagging and per-segment transcription.
type Processor struct {
	Segmentor   GenderSegmentor
	Tagger      DialogueTagger
	Transcriber Transcriber
	FFmpeg      *FFmpeg
	Profile     Profile
	// WorkDir holds the per-segment clips.
	WorkDir string
	Logger  *slog.Logger
}

// NewProcessor wires a processor from configuration.
func NewProcessor(cfg *config.Config, logger *slog.Logger) (*Processor, error) {
	profile, err := LookupProfile(cfg.Audio.Profile)
	if err != nil {
		return nil, err
	}
	p := &Processor{
		Tagger:  RuleBasedTagger{},
		FFmpeg:  NewFFmpeg(cfg.FFmpegBinary()),
		Profile: profile,
		WorkDir: filepath.Join(cfg.Paths.WorkDir, "audio"),
		Logger:  logging.NewComponentLogger(logger, "audio"),
	}
	switch cfg.Audio.Segmenter {
	case "ina":
		p.Segmentor = NewInaSegmentor(cfg.InaSegmenterBinary(), filepath.Join(p.WorkDir, "ina"))
	default:
		p.Segmentor = NewPitchSegmentor(cfg.Audio.PitchThresholdHz)
	}
	switch cfg.Audio.Transcriber {
	case "whisperx":
		p.Transcriber = WhisperXTranscriber{Service: whisperx.NewService(whisperx.Config{
			Model:       cfg.Audio.WhisperXModel,
			CUDAEnabled: cfg.Audio.WhisperXCUDA,
		})}
	case "whisper_api":
		client, err := whisperapi.New(cfg.LLM.APIKey, cfg.Audio.WhisperAPIURL, cfg.Audio.WhisperAPIModel)
		if err != nil {
			return nil, err
		}
		p.Transcriber = client
	default:
		p.Transcriber = NoopTranscriber{}
	}
	return p, nil
}

// Run segments wav, then transcribes every tagged segment from a clip cut
// out of wav. A failed transcription is logged and leaves the row empty.
func (p *Processor) Run(ctx context.Context, wav string) ([]Row, error) {
	logger := logging.WithContext(ctx, p.Logger)
	segments, err := p.Segmentor.Segment(ctx, wav)
	if err != nil {
		return nil, err
	}
	tagger := p.Tagger
	if tagger == nil {
		tagger = RuleBasedTagger{}
	}
	tagged := tagger.Tag(segments)
	logger.Info("segmented audio",
		logging.String("file", wav),
		logging.Int("segments", len(segments)),
		logging.Int("tagged", len(tagged)))

	rows := make([]Row, 0, len(tagged))
	if _, noop := p.Transcriber.(NoopTranscriber); noop || p.Transcriber == nil {
		for _, s := range tagged {
			rows = append(rows, Row{Segment: s})
		}
		return rows, nil
	}

	if err := os.MkdirAll(p.WorkDir, 0o755); err != nil {
		return nil, fmt.Errorf("audio: ensure work dir: %w", err)
	}
	for i, s := range tagged {
		if err := ctx.Err(); err != nil {
			return rows, err
		}
		clip := filepath.Join(p.WorkDir, fmt.Sprintf("clip_%04d.wav", i))
		row := Row{Segment: s}
		if err := p.FFmpeg.CutClip(ctx, wav, clip, s.Start, s.Duration()); err != nil {
			return rows, err
		}
		text, err := p.Transcriber.Transcribe(ctx, clip, p.Profile.Language)
		if err != nil {
			logging.WarnWithContext(logger, "segment transcription failed", "transcription_failed",
				logging.Int("segment", i),
				logging.Error(err),
				logging.String(logging.FieldImpact, "segment kept without transcription"),
				logging.String(logging.FieldErrorHint, "check the transcriber backend"))
		}
		row.Transcription = text
		rows = append(rows, row)
		_ = os.Remove(clip)
	}
	return rows, nil
}
