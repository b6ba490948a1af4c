package subtitles

import (
	"regexp"
	"strings"
)

var adPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)opensubtitles`),
	regexp.MustCompile(`(?i)subtitles? by`),
	regexp.MustCompile(`(?i)sous-titres? (par|réalisés)`),
	regexp.MustCompile(`(?i)synced? and corrected`),
	regexp.MustCompile(`(?i)advertise (your|yours?) product`),
	regexp.MustCompile(`(?i)https?://`),
	regexp.MustCompile(`(?i)\bwww\.`),
	regexp.MustCompile(`(?i)\baddic7ed\b`),
	regexp.MustCompile(`(?i)\bsubscene\b`),
	regexp.MustCompile(`(?i)\byts\b`),
	regexp.MustCompile(`(?i)\byify\b`),
}

var (
	bracketPattern     = regexp.MustCompile(`\[[^\]]*\]`)
	parenPattern       = regexp.MustCompile(`\([^()]*\)`)
	htmlPattern        = regexp.MustCompile(`<[^<>]+>`)
	leadingDashPattern = regexp.MustCompile(`^\s*[-–—]+\s*`)
	speakerPattern     = regexp.MustCompile(`^\p{Lu}[\p{Lu}0-9 .'’-]*:\s*`)
	spacePattern       = regexp.MustCompile(`\s+`)
)

// IsAdvertisement reports whether text is a subtitle credit or advert.
func IsAdvertisement(text string) bool {
	for _, pattern := range adPatterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}

// CleanLine strips annotations from one subtitle line: sound descriptions in
// brackets or parentheses, formatting tags, a leading dialogue dash and an
// upper-case SPEAKER: prefix.
func CleanLine(line string) string {
	line = htmlPattern.ReplaceAllString(line, "")
	line = bracketPattern.ReplaceAllString(line, "")
	line = parenPattern.ReplaceAllString(line, "")
	line = strings.ReplaceAll(line, "♪", "")
	line = leadingDashPattern.ReplaceAllString(line, "")
	line = speakerPattern.ReplaceAllString(line, "")
	return strings.TrimSpace(spacePattern.ReplaceAllString(line, " "))
}

// Clean returns cues with annotations stripped and lines joined into one.
// Advertising cues and cues left empty are dropped.
func Clean(cues []Cue) []Cue {
	out := make([]Cue, 0, len(cues))
	for _, cue := range cues {
		if IsAdvertisement(cue.Text()) {
			continue
		}
		var parts []string
		for _, line := range cue.Lines {
			if cleaned := CleanLine(line); cleaned != "" {
				parts = append(parts, cleaned)
			}
		}
		if len(parts) == 0 {
			continue
		}
		cue.Lines = []string{strings.Join(parts, " ")}
		out = append(out, cue)
	}
	return out
}

// CleanText normalises free subtitle text for NLP: line breaks and dashes
// become spaces, music notes and ellipses are dropped along with tags and
// parenthesised asides, and when a colon is present only the text after the
// first colon is kept.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, " -", " ")
	s = strings.ReplaceAll(s, "♪", "")
	s = strings.ReplaceAll(s, "â™ª", "")
	s = strings.ReplaceAll(s, "...", " ")
	s = strings.ReplaceAll(s, "…", " ")
	s = strings.ReplaceAll(s, "-", "")
	s = htmlPattern.ReplaceAllString(s, "")
	s = parenPattern.ReplaceAllString(s, "")
	if _, after, ok := strings.Cut(s, ":"); ok {
		s = after
	}
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}
