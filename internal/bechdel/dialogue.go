package bechdel

import (
	"time"

	"github.com/dataforgoodfr/bechdelai/internal/audio"
	"github.com/dataforgoodfr/bechdelai/internal/subtitles"
)

// Dialogue is the subtitle lines attributed to each gender by aligning cues
// with speech segments.
type Dialogue struct {
	Female []string `json:"female"`
	Male   []string `json:"male"`

	// Offset is the first cue start minus the first segment start.
	Offset         time.Duration                  `json:"offset"`
	Unassigned     int                            `json:"unassigned"`
	SpokenTime     map[audio.Gender]time.Duration `json:"spoken_time"`
	WomenLineShare float64                        `json:"women_line_share"`
	WomenTimeShare float64                        `json:"women_time_share"`
}

// DialogueByGender assigns each cue to the speech segment it falls into once
// shifted by the offset between the first cue and the first segment. A cue
// belongs to segment i when it starts after segment i starts and ends before
// segment i+1 starts. The last segment is bounded by its own end.
func DialogueByGender(cues []subtitles.Cue, segments []audio.Segment) Dialogue {
	d := Dialogue{SpokenTime: audio.SpeakingTime(segments)}
	if len(cues) == 0 || len(segments) == 0 {
		d.Unassigned = len(cues)
		return d
	}
	d.Offset = cues[0].Start - segments[0].Start
	for _, cue := range cues {
		start, end := cue.Start-d.Offset, cue.End-d.Offset
		text := subtitles.CleanText(cue.Text())
		if text == "" {
			continue
		}
		assigned := false
		for i, seg := range segments {
			limit := seg.End
			if i+1 < len(segments) {
				limit = segments[i+1].Start
			}
			if start >= seg.Start && end <= limit {
				switch seg.Gender {
				case audio.Female:
					d.Female = append(d.Female, text)
				case audio.Male:
					d.Male = append(d.Male, text)
				}
				assigned = true
				break
			}
		}
		if !assigned {
			d.Unassigned++
		}
	}
	if lines := len(d.Female) + len(d.Male); lines > 0 {
		d.WomenLineShare = float64(len(d.Female)) / float64(lines)
	}
	d.WomenTimeShare = share(d.SpokenTime)
	return d
}

// SpokenTime sums the speaking time per gender of processed audio rows.
func SpokenTime(rows []audio.Row) map[audio.Gender]time.Duration {
	segments := make([]audio.Segment, len(rows))
	for i, r := range rows {
		segments[i] = r.Segment
	}
	return audio.SpeakingTime(segments)
}

func share(times map[audio.Gender]time.Duration) float64 {
	total := times[audio.Female] + times[audio.Male]
	if total == 0 {
		return 0
	}
	return float64(times[audio.Female]) / float64(total)
}
