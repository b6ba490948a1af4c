package nlp

import "strings"

// Gender is the perceived gender attached to a word, entity or cast member.
type Gender string

const (
	Woman   Gender = "woman"
	Man     Gender = "man"
	Unknown Gender = "unknown"
)

// GenderOfPronoun maps English third person pronouns to a gender.
func GenderOfPronoun(word string) Gender {
	switch strings.ToLower(strings.TrimSpace(word)) {
	case "he", "him", "his", "himself":
		return Man
	case "she", "her", "hers", "herself":
		return Woman
	default:
		return Unknown
	}
}

// GenderFromTMDB maps TMDB gender codes (1 woman, 2 man).
func GenderFromTMDB(code int) Gender {
	switch code {
	case 1:
		return Woman
	case 2:
		return Man
	default:
		return Unknown
	}
}
