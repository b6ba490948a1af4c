package movie

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/dataforgoodfr/bechdelai/internal/logging"
	"github.com/dataforgoodfr/bechdelai/internal/nlp"
	"github.com/dataforgoodfr/bechdelai/internal/services/tmdb"
	"github.com/dataforgoodfr/bechdelai/internal/services/wikipedia"
	"github.com/dataforgoodfr/bechdelai/internal/store"
	"github.com/dataforgoodfr/bechdelai/internal/textutil"
)

// DefaultCastLimit bounds the number of people looked up per movie.
const DefaultCastLimit = 10

// Person is a cast member with the fields used by the analyses.
type Person struct {
	TMDBID          int64      `json:"tmdb_id"`
	Name            string     `json:"name"`
	NameFolded      string     `json:"name_folded"`
	Character       string     `json:"character"`
	CharacterFolded string     `json:"character_folded"`
	Gender          nlp.Gender `json:"gender"`
	Order           int        `json:"order"`
	Birthday        string     `json:"birthday,omitempty"`
	AgeAtRelease    *int       `json:"age_at_release,omitempty"`
}

// Profile gathers what is known about a movie.
type Profile struct {
	TMDBID        int64                 `json:"tmdb_id"`
	IMDbID        string                `json:"imdb_id,omitempty"`
	Title         string                `json:"title"`
	OriginalTitle string                `json:"original_title"`
	Year          int                   `json:"year"`
	ReleaseDate   string                `json:"release_date"`
	Overview      string                `json:"overview"`
	Genres        []string              `json:"genres,omitempty"`
	Directors     []string              `json:"directors,omitempty"`
	Cast          []Person              `json:"cast"`
	Plot          *wikipedia.PlotResult `json:"plot,omitempty"`
	Rating        *store.Rating         `json:"bechdel_rating,omitempty"`
	Poster        string                `json:"poster,omitempty"`
	Warnings      []string              `json:"warnings,omitempty"`
}

// CastMembers converts the cast for name matching.
func (p *Profile) CastMembers() []nlp.CastMember {
	out := make([]nlp.CastMember, 0, len(p.Cast))
	for _, c := range p.Cast {
		out = append(out, nlp.CastMember{Actor: c.NameFolded, Character: c.CharacterFolded, Gender: c.Gender})
	}
	return out
}

// PlotFinder looks up plot summaries.
type PlotFinder interface {
	Plot(ctx context.Context, lang, title string, year int) (*wikipedia.PlotResult, error)
}

// RatingLookup reads mirrored bechdeltest.com ratings.
type RatingLookup interface {
	RatingByIMDbID(ctx context.Context, imdbID string) (*store.Rating, error)
}

// PosterFinder looks up poster URLs.
type PosterFinder interface {
	Poster(ctx context.Context, title string, year int) (string, error)
}

// Profiler assembles profiles. Only TMDB is required; a failing optional
// source adds a warning to the profile.
type Profiler struct {
	TMDB      tmdb.Searcher
	Plots     PlotFinder
	Ratings   RatingLookup
	Posters   PosterFinder
	WikiLang  string
	CastLimit int
	Logger    *slog.Logger
}

// Profile builds the profile of the TMDB best match for title and year.
func (p *Profiler) Profile(ctx context.Context, title string, year int) (*Profile, error) {
	match, err := tmdb.BestMatch(ctx, p.TMDB, title, year)
	if err != nil {
		return nil, err
	}
	return p.ProfileByID(ctx, match.ID)
}

// ProfileByID builds the profile of a TMDB movie id.
func (p *Profiler) ProfileByID(ctx context.Context, id int64) (*Profile, error) {
	logger := logging.WithContext(ctx, logging.NewComponentLogger(p.Logger, "profile"))
	details, err := p.TMDB.MovieDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	credits, err := p.TMDB.MovieCredits(ctx, id)
	if err != nil {
		return nil, err
	}

	prof := &Profile{
		TMDBID:        details.ID,
		IMDbID:        details.IMDbID,
		Title:         details.Title,
		OriginalTitle: details.OriginalTitle,
		Year:          details.Year(),
		ReleaseDate:   details.ReleaseDate,
		Overview:      details.Overview,
		Directors:     credits.Directors(),
	}
	for _, g := range details.Genres {
		prof.Genres = append(prof.Genres, g.Name)
	}
	release, _ := ParseDate(details.ReleaseDate)

	warn := func(source string, err error) {
		logging.WarnWithContext(logger, "optional source failed", "profile_source_failed",
			logging.String("source", source),
			logging.Error(err),
			logging.String(logging.FieldImpact, "profile is missing "+source+" data"),
			logging.String(logging.FieldErrorHint, "rerun later or check the source configuration"))
		prof.Warnings = append(prof.Warnings, source+": "+err.Error())
	}

	limit := p.CastLimit
	if limit <= 0 {
		limit = DefaultCastLimit
	}
	for i, c := range credits.Cast {
		if i >= limit {
			break
		}
		person := Person{
			TMDBID:          c.ID,
			Name:            c.Name,
			NameFolded:      strings.ToLower(textutil.Fold(c.Name)),
			Character:       c.Character,
			CharacterFolded: strings.ToLower(textutil.Fold(c.Character)),
			Gender:          nlp.GenderFromTMDB(c.Gender),
			Order:           c.Order,
		}
		info, err := p.TMDB.PersonDetails(ctx, c.ID)
		if err != nil {
			warn("tmdb person "+c.Name, err)
		} else {
			person.Birthday = info.Birthday
			if birth, err := ParseDate(info.Birthday); err == nil && !birth.IsZero() && !release.IsZero() {
				age := AgeAt(birth, release)
				person.AgeAtRelease = &age
			}
		}
		prof.Cast = append(prof.Cast, person)
	}

	if p.Plots != nil {
		lang := p.WikiLang
		if lang == "" {
			lang = "en"
		}
		if plot, err := p.Plots.Plot(ctx, lang, prof.Title, prof.Year); err != nil {
			warn("wikipedia", err)
		} else {
			prof.Plot = plot
		}
	}
	if p.Ratings != nil && prof.IMDbID != "" {
		rating, err := p.Ratings.RatingByIMDbID(ctx, prof.IMDbID)
		switch {
		case errors.Is(err, store.ErrRatingNotFound):
		case err != nil:
			warn("ratings", err)
		default:
			prof.Rating = rating
		}
	}
	if p.Posters != nil {
		if poster, err := p.Posters.Poster(ctx, prof.Title, prof.Year); err != nil {
			warn("omdb", err)
		} else {
			prof.Poster = poster
		}
	}
	logger.Info("profile assembled",
		logging.Int64("tmdb_id", prof.TMDBID),
		logging.Int("cast", len(prof.Cast)),
		logging.Int("warnings", len(prof.Warnings)))
	return prof, nil
}
