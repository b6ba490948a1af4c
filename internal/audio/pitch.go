package audio

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"github.com/go-audio/wav"

	"github.com/dataforgoodfr/bechdelai/internal/services"
)

// DefaultPitchThreshold separates typical female (above) from male
// fundamental frequencies.
const DefaultPitchThreshold = 165.0

// PitchSegmentor is a model-free segmentor. Frames are kept when their RMS
// energy exceeds EnergyRatio times the loudest frame and they are periodic;
// neighbouring voiced frames form regions, and a region is female when its
// median F0 is at or above ThresholdHz.
type PitchSegmentor struct {
	ThresholdHz float64
	EnergyRatio float64
	MinF0       float64
	MaxF0       float64
	Window      time.Duration
	Hop         time.Duration
	// MaxGap bridges short unvoiced stretches inside a region.
	MaxGap time.Duration
	// MinRegion drops regions shorter than this.
	MinRegion time.Duration
}

// NewPitchSegmentor returns a segmentor with speech-range defaults.
func NewPitchSegmentor(thresholdHz float64) *PitchSegmentor {
	if thresholdHz <= 0 {
		thresholdHz = DefaultPitchThreshold
	}
	return &PitchSegmentor{
		ThresholdHz: thresholdHz,
		EnergyRatio: 0.05,
		MinF0:       70,
		MaxF0:       400,
		Window:      40 * time.Millisecond,
		Hop:         10 * time.Millisecond,
		MaxGap:      200 * time.Millisecond,
		MinRegion:   300 * time.Millisecond,
	}
}

// Segment implements GenderSegmentor.
func (p *PitchSegmentor) Segment(ctx context.Context, path string) ([]Segment, error) {
	samples, rate, err := readMono(path)
	if err != nil {
		return nil, err
	}
	frames, err := p.analyse(ctx, samples, rate)
	if err != nil {
		return nil, err
	}
	return p.regions(frames), nil
}

func readMono(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, services.Wrap(services.ErrValidation, "segment", "pitch", "open wav", err)
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, services.Wrap(services.ErrValidation, "segment", "pitch", fmt.Sprintf("%s is not a valid wav file", path), nil)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, services.Wrap(services.ErrValidation, "segment", "pitch", "decode pcm", err)
	}
	channels := max(buf.Format.NumChannels, 1)
	depth := buf.SourceBitDepth
	if depth <= 0 {
		depth = int(dec.BitDepth)
	}
	scale := math.Pow(2, float64(max(depth, 8)-1))
	mono := make([]float64, len(buf.Data)/channels)
	for i := range mono {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c])
		}
		mono[i] = sum / float64(channels) / scale
	}
	return mono, buf.Format.SampleRate, nil
}

type frame struct {
	start time.Duration
	end   time.Duration
	f0    float64 // 0 when unvoiced
}

func (p *PitchSegmentor) analyse(ctx context.Context, samples []float64, rate int) ([]frame, error) {
	if rate <= 0 {
		return nil, services.Wrap(services.ErrValidation, "segment", "pitch", "invalid sample rate", nil)
	}
	window := int(p.Window.Seconds() * float64(rate))
	hop := max(int(p.Hop.Seconds()*float64(rate)), 1)
	if window <= 0 || len(samples) < window {
		return nil, nil
	}

	count := (len(samples)-window)/hop + 1
	energy := make([]float64, count)
	loudest := 0.0
	for i := range energy {
		energy[i] = rms(samples[i*hop : i*hop+window])
		loudest = math.Max(loudest, energy[i])
	}
	if loudest == 0 {
		return nil, nil
	}

	minLag := int(float64(rate) / p.MaxF0)
	maxLag := min(int(float64(rate)/p.MinF0), window-1)
	frames := make([]frame, count)
	for i := range frames {
		if i%1000 == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		start := i * hop
		frames[i] = frame{
			start: time.Duration(start) * time.Second / time.Duration(rate),
			end:   time.Duration(start+window) * time.Second / time.Duration(rate),
		}
		if energy[i] < p.EnergyRatio*loudest {
			continue
		}
		if lag := pitchLag(samples[start:start+window], minLag, maxLag); lag > 0 {
			frames[i].f0 = float64(rate) / float64(lag)
		}
	}
	return frames, nil
}

func rms(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

// pitchLag returns the first autocorrelation peak reaching 90% of the
// strongest one, which avoids octave errors on harmonic signals. It returns
// 0 for aperiodic frames.
func pitchLag(x []float64, minLag, maxLag int) int {
	if minLag < 1 || maxLag <= minLag+1 {
		return 0
	}
	r := make([]float64, maxLag+2)
	best := 0.0
	for lag := minLag - 1; lag <= maxLag+1 && lag < len(x); lag++ {
		var xy, xx, yy float64
		for i := 0; i+lag < len(x); i++ {
			xy += x[i] * x[i+lag]
			xx += x[i] * x[i]
			yy += x[i+lag] * x[i+lag]
		}
		if xx > 0 && yy > 0 {
			r[lag] = xy / math.Sqrt(xx*yy)
		}
		if lag >= minLag && lag <= maxLag {
			best = math.Max(best, r[lag])
		}
	}
	const voicing = 0.5
	if best < voicing {
		return 0
	}
	for lag := minLag; lag <= maxLag; lag++ {
		if r[lag] >= 0.9*best && r[lag] >= r[lag-1] && r[lag] >= r[lag+1] {
			return lag
		}
	}
	return 0
}

func (p *PitchSegmentor) regions(frames []frame) []Segment {
	var out []Segment
	var pitches []float64
	var start, end time.Duration
	flush := func() {
		if len(pitches) > 0 && end-start >= p.MinRegion {
			g := Male
			if median(pitches) >= p.ThresholdHz {
				g = Female
			}
			out = append(out, Segment{Gender: g, Start: start, End: end})
		}
		pitches = pitches[:0]
	}
	for _, f := range frames {
		if f.f0 == 0 {
			continue
		}
		if len(pitches) > 0 && f.start-end > p.MaxGap {
			flush()
		}
		if len(pitches) == 0 {
			start = f.start
		}
		end = f.end
		pitches = append(pitches, f.f0)
	}
	flush()
	return out
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
