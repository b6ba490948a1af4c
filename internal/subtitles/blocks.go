package subtitles

import (
	"strings"
	"time"
)

// DefaultBlockGap is the silence that separates two dialogue blocks.
const DefaultBlockGap = 2 * time.Second

// Block is a run of consecutive cues with short silences between them,
// treated as one exchange.
type Block struct {
	Start time.Duration `json:"start"`
	End   time.Duration `json:"end"`
	Text  string        `json:"text"`
	Cues  int           `json:"cues"`
}

// Blocks merges consecutive cues whose gap is at most gap. A non-positive
// gap selects DefaultBlockGap. Text is taken from the cue lines joined with
// spaces; blocks with no text are dropped.
func Blocks(cues []Cue, gap time.Duration) []Block {
	if gap <= 0 {
		gap = DefaultBlockGap
	}
	var blocks []Block
	var current *Block
	var parts []string
	flush := func() {
		if current == nil {
			return
		}
		current.Text = strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
		if current.Text != "" {
			blocks = append(blocks, *current)
		}
		current, parts = nil, nil
	}
	for _, cue := range cues {
		if current != nil && cue.Start-current.End > gap {
			flush()
		}
		if current == nil {
			current = &Block{Start: cue.Start}
		}
		current.End = cue.End
		current.Cues++
		parts = append(parts, cue.Lines...)
	}
	flush()
	return blocks
}
