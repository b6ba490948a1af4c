package subtitles

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/dataforgoodfr/bechdelai/internal/services"
)

// Cue is one numbered SRT entry.
type Cue struct {
	Index int           `json:"index"`
	Start time.Duration `json:"start"`
	End   time.Duration `json:"end"`
	Lines []string      `json:"lines"`
}

// Text joins the cue lines with newlines.
func (c Cue) Text() string {
	return strings.Join(c.Lines, "\n")
}

// Decode returns data as UTF-8 text. A UTF-8 byte order mark is stripped and
// invalid UTF-8 is decoded as Windows-1252, the usual encoding of legacy
// French and English subtitle files.
func Decode(data []byte) string {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return string(data)
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return string(bytes.ToValidUTF8(data, []byte("�")))
	}
	return string(decoded)
}

// Parse reads SRT cues. Cues with malformed timing lines are skipped;
// an input with text but no valid cue is an error.
func Parse(data []byte) ([]Cue, error) {
	content := strings.ReplaceAll(Decode(data), "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	var cues []Cue
	for _, block := range splitBlocks(content) {
		cue, ok := parseBlock(block)
		if ok {
			cues = append(cues, cue)
		}
	}
	if len(cues) == 0 && strings.TrimSpace(content) != "" {
		return nil, services.Wrap(services.ErrValidation, "subtitles", "parse", "no valid SRT cue found", nil)
	}
	return cues, nil
}

func splitBlocks(content string) []string {
	var blocks []string
	var current []string
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				blocks = append(blocks, strings.Join(current, "\n"))
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		blocks = append(blocks, strings.Join(current, "\n"))
	}
	return blocks
}

func parseBlock(block string) (Cue, bool) {
	lines := strings.Split(block, "\n")
	var cue Cue
	i := 0
	if n, err := strconv.Atoi(strings.TrimSpace(lines[0])); err == nil {
		cue.Index = n
		i++
	}
	if i >= len(lines) || !strings.Contains(lines[i], "-->") {
		return Cue{}, false
	}
	startText, endText, _ := strings.Cut(lines[i], "-->")
	start, err1 := ParseTimestamp(startText)
	// Position hints ("X1:..") may trail the end timestamp.
	endFields := strings.Fields(endText)
	if len(endFields) == 0 {
		return Cue{}, false
	}
	end, err2 := ParseTimestamp(endFields[0])
	if err1 != nil || err2 != nil {
		return Cue{}, false
	}
	cue.Start, cue.End = start, end
	for _, line := range lines[i+1:] {
		cue.Lines = append(cue.Lines, strings.TrimRight(line, " \t"))
	}
	return cue, true
}

// ParseTimestamp parses "HH:MM:SS,mmm". A period is accepted in place of the comma.
func ParseTimestamp(value string) (time.Duration, error) {
	value = strings.ReplaceAll(strings.TrimSpace(value), ".", ",")
	clock, frac, ok := strings.Cut(value, ",")
	if !ok {
		frac = "0"
	}
	hms := strings.Split(clock, ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	if len(frac) > 3 {
		frac = frac[:3]
	}
	for len(frac) < 3 {
		frac += "0"
	}
	millis, errMS := strconv.Atoi(frac)
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond, nil
}

// FormatTimestamp renders d as "HH:MM:SS,mmm".
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	return fmt.Sprintf("%02d:%02d:%02d,%03d", ms/3_600_000, ms/60_000%60, ms/1000%60, ms%1000)
}

// Write serialises cues as SRT, renumbering them from 1.
func Write(w io.Writer, cues []Cue) error {
	bw := bufio.NewWriter(w)
	for i, cue := range cues {
		if i > 0 {
			if _, err := bw.WriteString("\n"); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(bw, "%d\n%s --> %s\n", i+1, FormatTimestamp(cue.Start), FormatTimestamp(cue.End)); err != nil {
			return err
		}
		for _, line := range cue.Lines {
			if _, err := fmt.Fprintln(bw, line); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}
