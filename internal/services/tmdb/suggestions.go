package tmdb

import "strconv"

const (
	// MovieURL is the public page prefix for a TMDB movie.
	MovieURL = "https://www.themoviedb.org/movie/"
	// PosterThumbURL is the thumbnail size used in search suggestions.
	PosterThumbURL = "https://image.tmdb.org/t/p/w94_and_h141_bestv2"
)

// Suggestion is a display-ready search match.
type Suggestion struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	OriginalTitle string `json:"original_title"`
	Year          string `json:"year"`
	URL           string `json:"url"`
	PosterURL     string `json:"poster_url,omitempty"`
}

// Suggestions formats search results for pickers in the CLI and API.
func Suggestions(results []Movie) []Suggestion {
	out := make([]Suggestion, 0, len(results))
	for _, m := range results {
		s := Suggestion{
			ID:            m.ID,
			Title:         m.Title,
			OriginalTitle: m.OriginalTitle,
			URL:           MovieURL + strconv.FormatInt(m.ID, 10),
		}
		if y := m.Year(); y > 0 {
			s.Year = strconv.Itoa(y)
		}
		if m.PosterPath != "" {
			s.PosterURL = PosterThumbURL + m.PosterPath
		}
		out = append(out, s)
	}
	return out
}
