package nlp

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Span is an entity mention located by byte offsets in the analysed text.
type Span struct {
	Text     string `json:"text"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Sentence int    `json:"sentence"`
}

// Sentence is a sentence and its byte offset in the source text.
type Sentence struct {
	Text  string
	Start int
}

var (
	sentenceEnd = regexp.MustCompile(`[.!?…]+["'»)]*(\s+|$)`)
	wordPattern = regexp.MustCompile(`[\p{L}][\p{L}'’-]*`)
)

// SplitSentences splits text on terminal punctuation.
func SplitSentences(text string) []Sentence {
	var out []Sentence
	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[start:loc[1]]); s != "" {
			out = append(out, Sentence{Text: s, Start: start + strings.Index(text[start:loc[1]], s)})
		}
		start = loc[1]
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, Sentence{Text: s, Start: start + strings.Index(text[start:], s)})
	}
	return out
}

func isCapitalised(word string) bool {
	r, _ := utf8.DecodeRuneInString(word)
	return unicode.IsUpper(r)
}

// Extractor finds person-like name candidates: runs of capitalised words.
// A capitalised word opening a sentence is ignored when it is a stopword or a
// lexicon noun, since its capital comes from its position.
type Extractor struct {
	Stopwords map[string]bool
	Lexicon   Lexicon
}

// NewExtractor returns an extractor using the built-in word lists.
func NewExtractor() *Extractor {
	return &Extractor{Stopwords: Stopwords(), Lexicon: DefaultLexicon()}
}

func (e *Extractor) common(word string) bool {
	lower := strings.ToLower(word)
	if e.Stopwords[lower] {
		return true
	}
	_, ok := e.Lexicon[lower]
	return ok
}

// ExtractEntities returns the name spans of text in order of appearance.
func (e *Extractor) ExtractEntities(text string) []Span {
	var spans []Span
	for si, sentence := range SplitSentences(text) {
		var current *Span
		prevEnd := -1
		for wi, loc := range wordPattern.FindAllStringIndex(sentence.Text, -1) {
			word := sentence.Text[loc[0]:loc[1]]
			keep := isCapitalised(word) && word != "I" && !(wi == 0 && e.common(word))
			adjacent := current != nil && strings.TrimSpace(sentence.Text[prevEnd:loc[0]]) == ""
			switch {
			case keep && adjacent:
				current.End = sentence.Start + loc[1]
				current.Text = text[current.Start:current.End]
			case keep:
				if current != nil {
					spans = append(spans, *current)
				}
				current = &Span{
					Text:     word,
					Start:    sentence.Start + loc[0],
					End:      sentence.Start + loc[1],
					Sentence: si,
				}
			default:
				if current != nil {
					spans = append(spans, *current)
					current = nil
				}
			}
			prevEnd = loc[1]
		}
		if current != nil {
			spans = append(spans, *current)
		}
	}
	return MergeContained(spans)
}

// MergeContained drops every span lying within another span. Of two
// identical spans the first is kept.
func MergeContained(spans []Span) []Span {
	drop := make([]bool, len(spans))
	for i := range spans {
		if drop[i] {
			continue
		}
		for j := range spans {
			if i == j || drop[j] {
				continue
			}
			a, b := spans[i], spans[j]
			if a.Start <= b.Start && b.End <= a.End {
				drop[j] = true
			}
		}
	}
	out := make([]Span, 0, len(spans))
	for i, s := range spans {
		if !drop[i] {
			out = append(out, s)
		}
	}
	return out
}
