package movie

import (
	"fmt"
	"time"

	"github.com/dataforgoodfr/bechdelai/internal/nlp"
	"github.com/dataforgoodfr/bechdelai/internal/services"
)

const dateLayout = "2006-01-02"

// ParseDate parses a TMDB YYYY-MM-DD date. Empty input gives the zero time.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, value)
}

// AgeAt returns the age in whole years of someone born on birth at date.
func AgeAt(birth, date time.Time) int {
	age := date.Year() - birth.Year()
	if date.Month() < birth.Month() || (date.Month() == birth.Month() && date.Day() < birth.Day()) {
		age--
	}
	return age
}

// Gap is the age difference between two cast members.
type Gap struct {
	First   string        `json:"first"`
	Second  string        `json:"second"`
	Genders [2]nlp.Gender `json:"genders"`
	Years   int           `json:"years"`
}

// AgeGap compares cast members i and j of the profile.
func AgeGap(p *Profile, i, j int) (Gap, error) {
	if i < 0 || j < 0 || i >= len(p.Cast) || j >= len(p.Cast) {
		return Gap{}, services.Wrap(services.ErrValidation, "movie", "age gap",
			fmt.Sprintf("cast index out of range (have %d members)", len(p.Cast)), nil)
	}
	a, b := p.Cast[i], p.Cast[j]
	if a.AgeAtRelease == nil || b.AgeAtRelease == nil {
		return Gap{}, services.Wrap(services.ErrNotFound, "movie", "age gap", "missing birthday", nil)
	}
	years := *a.AgeAtRelease - *b.AgeAtRelease
	if years < 0 {
		years = -years
	}
	return Gap{First: a.Name, Second: b.Name, Genders: [2]nlp.Gender{a.Gender, b.Gender}, Years: years}, nil
}
