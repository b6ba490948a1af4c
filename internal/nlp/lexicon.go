package nlp

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"regexp"
	"strings"
)

//go:embed lexicon.txt
var defaultLexicon string

//go:embed stopwords.txt
var defaultStopwords string

// Stopwords returns the built-in English and French stopword set.
func Stopwords() map[string]bool {
	out := make(map[string]bool)
	for _, w := range strings.Fields(defaultStopwords) {
		out[strings.ToLower(w)] = true
	}
	return out
}

// Lexicon maps person nouns to their gender.
type Lexicon map[string]Gender

// DefaultLexicon returns a fresh copy of the embedded person-noun list.
func DefaultLexicon() Lexicon {
	lex, err := ReadLexicon(strings.NewReader(defaultLexicon))
	if err != nil {
		panic(fmt.Sprintf("embedded lexicon: %v", err))
	}
	return lex
}

// ReadLexicon parses "word<TAB>gender" lines. Blank lines and lines starting
// with # are ignored.
func ReadLexicon(r io.Reader) (Lexicon, error) {
	lex := make(Lexicon)
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		word, gender, ok := strings.Cut(text, "\t")
		if !ok {
			return nil, fmt.Errorf("lexicon line %d: expected word<TAB>gender", line)
		}
		g := Gender(strings.TrimSpace(gender))
		if g != Woman && g != Man && g != Unknown {
			return nil, fmt.Errorf("lexicon line %d: unknown gender %q", line, gender)
		}
		lex[strings.ToLower(strings.TrimSpace(word))] = g
	}
	return lex, scanner.Err()
}

var (
	personDefinition = regexp.MustCompile(`^an? (\w+ )?(person|human|individual|someone|girl|woman|boy|man|child|female|male)\b`)
	womanDefinition  = regexp.MustCompile(`^a (girl|woman)`)
	manDefinition    = regexp.MustCompile(`^a (boy|man)`)
)

// GenderOfDefinition derives a gender from a dictionary definition: "a girl
// or woman who..." is woman, "a boy or man who..." is man.
func GenderOfDefinition(definition string) Gender {
	definition = strings.ToLower(strings.TrimSpace(definition))
	switch {
	case womanDefinition.MatchString(definition):
		return Woman
	case manDefinition.MatchString(definition):
		return Man
	default:
		return Unknown
	}
}

// AddDefinitions extends the lexicon from "word: definition" lines, keeping
// only words whose definition describes a person. It returns the number of
// words added.
func (l Lexicon) AddDefinitions(r io.Reader) (int, error) {
	added := 0
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		word, definition, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		word = strings.ToLower(strings.TrimSpace(word))
		definition = strings.ToLower(strings.TrimSpace(definition))
		if word == "" || !personDefinition.MatchString(definition) {
			continue
		}
		l[word] = GenderOfDefinition(definition)
		added++
	}
	return added, scanner.Err()
}

// Lookup returns the gender of a person noun.
func (l Lexicon) Lookup(word string) (Gender, bool) {
	g, ok := l[strings.ToLower(strings.Trim(word, ".,;:!?\"'()"))]
	return g, ok
}
