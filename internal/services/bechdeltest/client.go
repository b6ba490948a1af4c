package bechdeltest

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/url"
	"strconv"
	"strings"

	"github.com/dataforgoodfr/bechdelai/internal/services"
	"github.com/dataforgoodfr/bechdelai/internal/services/scrape"
	"github.com/dataforgoodfr/bechdelai/internal/store"
)

// DefaultBaseURL is the public bechdeltest.com API root.
const DefaultBaseURL = "http://bechdeltest.com/api/v1"

// Movie is one bechdeltest.com entry. Rating runs from 0 (fewer than two
// women) to 3 (passes the test).
type Movie struct {
	IMDbID string `json:"imdbid"`
	ID     int    `json:"id"`
	Rating int    `json:"rating"`
	Title  string `json:"title"`
	Year   int    `json:"year"`
}

// UnmarshalJSON accepts numeric fields encoded either as numbers or strings,
// which the API mixes between endpoints.
func (m *Movie) UnmarshalJSON(data []byte) error {
	var raw struct {
		IMDbID json.RawMessage `json:"imdbid"`
		ID     json.RawMessage `json:"id"`
		Rating json.RawMessage `json:"rating"`
		Title  string          `json:"title"`
		Year   json.RawMessage `json:"year"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.IMDbID = strings.Trim(string(raw.IMDbID), `"`)
	m.Title = html.UnescapeString(raw.Title)
	var err error
	if m.ID, err = flexInt(raw.ID); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	if m.Rating, err = flexInt(raw.Rating); err != nil {
		return fmt.Errorf("rating: %w", err)
	}
	if m.Year, err = flexInt(raw.Year); err != nil {
		return fmt.Errorf("year: %w", err)
	}
	return nil
}

func flexInt(raw json.RawMessage) (int, error) {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

// Client reads the bechdeltest.com API.
type Client struct {
	fetcher *scrape.Fetcher
	baseURL string
}

// New returns a client. An empty baseURL selects DefaultBaseURL.
func New(fetcher *scrape.Fetcher, baseURL string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{fetcher: fetcher, baseURL: baseURL}
}

// AllMovies downloads the complete rating list.
func (c *Client) AllMovies(ctx context.Context) ([]Movie, error) {
	var movies []Movie
	if err := c.fetcher.GetJSON(ctx, c.baseURL+"/getAllMovies", &movies); err != nil {
		return nil, err
	}
	return movies, nil
}

// MovieByIMDbID looks up one movie. The id may carry the "tt" prefix.
func (c *Client) MovieByIMDbID(ctx context.Context, imdbID string) (*Movie, error) {
	normalized := store.NormalizeIMDbID(imdbID)
	if normalized == "" {
		return nil, services.Wrap(services.ErrValidation, "bechdeltest", "lookup", fmt.Sprintf("invalid imdb id %q", imdbID), nil)
	}
	endpoint := c.baseURL + "/getMovieByImdbId?" + url.Values{"imdbid": {strings.TrimPrefix(normalized, "tt")}}.Encode()
	var movie Movie
	if err := c.fetcher.GetJSON(ctx, endpoint, &movie); err != nil {
		return nil, err
	}
	if movie.ID == 0 {
		return nil, services.Wrap(services.ErrNotFound, "bechdeltest", "lookup", normalized, nil)
	}
	return &movie, nil
}

// Ratings converts API entries into store rows.
func Ratings(movies []Movie) []store.Rating {
	out := make([]store.Rating, 0, len(movies))
	for _, m := range movies {
		out = append(out, store.Rating{
			IMDbID:    m.IMDbID,
			BechdelID: m.ID,
			Title:     m.Title,
			Year:      m.Year,
			Rating:    m.Rating,
		})
	}
	return out
}

// Importer persists ratings under an exclusive lock.
type Importer interface {
	WithImportLock(fn func() error) error
	ImportRatings(ctx context.Context, ratings []store.Rating) (int, error)
}

// Mirror downloads every rating and upserts it into dst. It returns the
// number of rows written.
func (c *Client) Mirror(ctx context.Context, dst Importer) (int, error) {
	movies, err := c.AllMovies(ctx)
	if err != nil {
		return 0, err
	}
	var written int
	err = dst.WithImportLock(func() error {
		n, err := dst.ImportRatings(ctx, Ratings(movies))
		written = n
		return err
	})
	return written, err
}
