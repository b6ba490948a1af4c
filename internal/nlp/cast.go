package nlp

import (
	"strings"
	"unicode"
)

// CastMember is an actor and the character they play.
type CastMember struct {
	Actor     string `json:"actor"`
	Character string `json:"character"`
	Gender    Gender `json:"gender"`
}

// CastMatch links an entity mention to a character.
type CastMatch struct {
	Entity    string `json:"entity"`
	Character string `json:"character,omitempty"`
	Actor     string `json:"actor,omitempty"`
	Gender    Gender `json:"gender"`
	Matched   bool   `json:"matched"`
}

func normaliseEntity(s string, stop map[string]bool) string {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(s)) {
		if stop[w] {
			continue
		}
		w = strings.Map(func(r rune) rune {
			if unicode.IsPunct(r) {
				return -1
			}
			return r
		}, w)
		if w != "" {
			words = append(words, w)
		}
	}
	return strings.Join(words, " ")
}

// MatchCast resolves each entity against the cast: an exact character name
// match wins, otherwise the first character with a name word equal to the
// entity. Unmatched entities are returned with Matched false and an unknown
// gender.
func MatchCast(entities []string, cast []CastMember, stop map[string]bool) []CastMatch {
	characters := make([]string, len(cast))
	for i, c := range cast {
		characters[i] = strings.ToLower(strings.TrimSpace(c.Character))
	}
	out := make([]CastMatch, 0, len(entities))
	for _, entity := range entities {
		norm := normaliseEntity(entity, stop)
		match := CastMatch{Entity: entity, Gender: Unknown}
		idx := -1
		for i, c := range characters {
			if norm != "" && c == norm {
				idx = i
				break
			}
		}
		if idx < 0 && norm != "" {
		search:
			for i, c := range characters {
				for _, w := range strings.Fields(c) {
					if w == norm {
						idx = i
						break search
					}
				}
			}
		}
		if idx >= 0 {
			match.Character = cast[idx].Character
			match.Actor = cast[idx].Actor
			match.Gender = cast[idx].Gender
			match.Matched = true
		}
		out = append(out, match)
	}
	return out
}
