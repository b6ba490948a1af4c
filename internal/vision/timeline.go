package vision

import (
	"sort"
	"time"
)

// LabelledFrame is a frame index tagged with a description.
type LabelledFrame struct {
	FrameID int
	Label   string
}

// Span is a run of consecutive frames sharing a label.
type Span struct {
	Label      string        `json:"label"`
	Sequence   int           `json:"sequence"`
	FirstFrame int           `json:"first_frame"`
	EndFrame   int           `json:"end_frame"`
	Start      time.Duration `json:"start"`
	End        time.Duration `json:"end"`
	Duration   time.Duration `json:"duration"`
}

// Timeline groups rows into spans. Within a label, a new sequence begins
// when two successive frame ids differ by more than one. Each span covers
// [min, max+1) frames scaled by frameStep.
func Timeline(rows []LabelledFrame, frameStep time.Duration) []Span {
	sorted := append([]LabelledFrame(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].FrameID < sorted[j].FrameID })

	byLabel := make(map[string][]int)
	var order []string
	for _, r := range sorted {
		if _, ok := byLabel[r.Label]; !ok {
			order = append(order, r.Label)
		}
		byLabel[r.Label] = append(byLabel[r.Label], r.FrameID)
	}

	var spans []Span
	for _, label := range order {
		ids := byLabel[label]
		seq := 0
		first := ids[0]
		for i := 1; i <= len(ids); i++ {
			if i < len(ids) && ids[i]-ids[i-1] <= 1 {
				continue
			}
			last := ids[i-1]
			spans = append(spans, Span{
				Label:      label,
				Sequence:   seq,
				FirstFrame: first,
				EndFrame:   last + 1,
				Start:      time.Duration(first) * frameStep,
				End:        time.Duration(last+1) * frameStep,
				Duration:   time.Duration(last+1-first) * frameStep,
			})
			if i < len(ids) {
				seq++
				first = ids[i]
			}
		}
	}
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].FirstFrame != spans[j].FirstFrame {
			return spans[i].FirstFrame < spans[j].FirstFrame
		}
		return spans[i].Label < spans[j].Label
	})
	return spans
}

// WomenTimeline labels each frame result "multiple women", "one woman" or
// "no woman" and returns the resulting spans. Frame ids are 1-based, so span
// bounds are shifted back one step to line up with frame timestamps.
func WomenTimeline(results []FrameResult, frameStep time.Duration) []Span {
	rows := make([]LabelledFrame, 0, len(results))
	for _, r := range results {
		label := "no woman"
		switch {
		case r.Women > 1:
			label = "multiple women"
		case r.Women == 1:
			label = "one woman"
		}
		rows = append(rows, LabelledFrame{FrameID: r.Frame.ID - 1, Label: label})
	}
	return Timeline(rows, frameStep)
}
