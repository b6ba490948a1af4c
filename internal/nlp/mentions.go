package nlp

import "strings"

// Mentions counts gendered references in a text.
type Mentions struct {
	Woman int            `json:"woman"`
	Man   int            `json:"man"`
	Words map[string]int `json:"words,omitempty"`
}

// Total returns the number of gendered references.
func (m Mentions) Total() int {
	return m.Woman + m.Man
}

// PersonMentions counts third person pronouns and lexicon person nouns.
// Nouns tagged unknown in the lexicon are counted in Words only.
func PersonMentions(text string, lexicon Lexicon) Mentions {
	m := Mentions{Words: make(map[string]int)}
	for _, word := range wordPattern.FindAllString(text, -1) {
		lower := strings.ToLower(word)
		g := GenderOfPronoun(lower)
		if g == Unknown {
			var ok bool
			if g, ok = lexicon.Lookup(lower); !ok {
				continue
			}
		}
		m.Words[lower]++
		switch g {
		case Woman:
			m.Woman++
		case Man:
			m.Man++
		}
	}
	return m
}

// MentionsMan reports whether text refers to a man by pronoun or noun.
func MentionsMan(text string, lexicon Lexicon) bool {
	return PersonMentions(text, lexicon).Man > 0
}
