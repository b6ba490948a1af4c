package audio

import (
	"context"
	"sort"
	"time"
)

// Gender is the speaker label of a speech segment.
type Gender string

const (
	Female Gender = "female"
	Male   Gender = "male"
)

// Segment is a stretch of speech attributed to one gender.
type Segment struct {
	Gender Gender        `json:"gender"`
	Start  time.Duration `json:"start"`
	End    time.Duration `json:"end"`
}

// Duration returns End - Start.
func (s Segment) Duration() time.Duration {
	return s.End - s.Start
}

// GenderSegmentor splits a WAV file into gendered speech segments. Only
// female and male segments are returned, ordered by start.
type GenderSegmentor interface {
	Segment(ctx context.Context, wav string) ([]Segment, error)
}

// SpeakingTime sums the speech duration per gender.
func SpeakingTime(segments []Segment) map[Gender]time.Duration {
	out := map[Gender]time.Duration{Female: 0, Male: 0}
	for _, s := range segments {
		out[s.Gender] += s.Duration()
	}
	return out
}

// FemaleShare returns the female fraction of the total speaking time, or 0
// when nobody speaks.
func FemaleShare(segments []Segment) float64 {
	times := SpeakingTime(segments)
	total := times[Female] + times[Male]
	if total == 0 {
		return 0
	}
	return float64(times[Female]) / float64(total)
}

// GenderAt returns the gender speaking at t. Segments must be sorted by start.
func GenderAt(segments []Segment, t time.Duration) (Gender, bool) {
	i := sort.Search(len(segments), func(i int) bool { return segments[i].End > t })
	if i < len(segments) && segments[i].Start <= t {
		return segments[i].Gender, true
	}
	return "", false
}

func keepSpeech(in []Segment) []Segment {
	out := in[:0]
	for _, s := range in {
		if (s.Gender == Female || s.Gender == Male) && s.End > s.Start {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
