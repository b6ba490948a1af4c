package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dataforgoodfr/bechdelai/internal/services"
)

// Gender codes used by TMDB for people.
const (
	GenderUnknown = 0
	GenderWoman   = 1
	GenderMan     = 2
)

// Genre is a TMDB genre tag.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Movie represents a TMDB movie, either a search match or a details payload.
type Movie struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"original_title"`
	Overview      string  `json:"overview"`
	ReleaseDate   string  `json:"release_date"`
	PosterPath    string  `json:"poster_path"`
	Popularity    float64 `json:"popularity"`
	VoteAverage   float64 `json:"vote_average"`
	VoteCount     int64   `json:"vote_count"`
	Runtime       int     `json:"runtime,omitempty"`
	IMDbID        string  `json:"imdb_id,omitempty"`
	Genres        []Genre `json:"genres,omitempty"`
}

// Year returns the four digit release year, or 0 when unknown.
func (m Movie) Year() int {
	if len(m.ReleaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(m.ReleaseDate[:4])
	if err != nil {
		return 0
	}
	return year
}

// SearchResponse models the TMDB paginated search response.
type SearchResponse struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

// CastMember is one credited actor.
type CastMember struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character"`
	Gender      int    `json:"gender"`
	Order       int    `json:"order"`
	ProfilePath string `json:"profile_path"`
}

// CrewMember is one credited crew member.
type CrewMember struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Job        string `json:"job"`
	Department string `json:"department"`
	Gender     int    `json:"gender"`
}

// Credits lists the cast and crew of a movie.
type Credits struct {
	ID   int64        `json:"id"`
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

// Directors returns the names of crew members whose job is Director.
func (c Credits) Directors() []string {
	var out []string
	for _, member := range c.Crew {
		if member.Job == "Director" {
			out = append(out, member.Name)
		}
	}
	return out
}

// Person holds the biographical fields used for age computations.
type Person struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Birthday     string `json:"birthday"`
	Deathday     string `json:"deathday"`
	Gender       int    `json:"gender"`
	PlaceOfBirth string `json:"place_of_birth"`
}

// Searcher is the subset of the TMDB API consumed by matching and profiling code.
type Searcher interface {
	SearchMovie(ctx context.Context, query string) (*SearchResponse, error)
	MovieDetails(ctx context.Context, id int64) (*Movie, error)
	MovieCredits(ctx context.Context, id int64) (*Credits, error)
	PersonDetails(ctx context.Context, id int64) (*Person, error)
}

// Client provides access to the TMDB v3 API.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client
}

var _ Searcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a TMDB client.
func New(apiKey, baseURL, language string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "tmdb", "init", "api key required", nil)
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "tmdb", "init", "base url required", nil)
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   strings.TrimSpace(language),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// SearchMovie searches TMDB movies by title.
func (c *Client) SearchMovie(ctx context.Context, query string) (*SearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, services.Wrap(services.ErrValidation, "tmdb", "search", "query must not be empty", nil)
	}
	var payload struct {
		Page         int      `json:"page"`
		Results      *[]Movie `json:"results"`
		TotalPages   int      `json:"total_pages"`
		TotalResults int      `json:"total_results"`
	}
	if err := c.get(ctx, "/search/movie", url.Values{"query": {query}}, &payload); err != nil {
		return nil, err
	}
	if payload.Results == nil {
		return nil, services.Wrap(services.ErrValidation, "tmdb", "search", "response has no results key", nil)
	}
	return &SearchResponse{
		Page:         payload.Page,
		Results:      *payload.Results,
		TotalPages:   payload.TotalPages,
		TotalResults: payload.TotalResults,
	}, nil
}

// MovieDetails fetches movie details by TMDB ID.
func (c *Client) MovieDetails(ctx context.Context, id int64) (*Movie, error) {
	if id <= 0 {
		return nil, services.Wrap(services.ErrValidation, "tmdb", "movie details", "movie id must be positive", nil)
	}
	var payload Movie
	if err := c.get(ctx, fmt.Sprintf("/movie/%d", id), nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// MovieCredits fetches the cast and crew of a movie.
func (c *Client) MovieCredits(ctx context.Context, id int64) (*Credits, error) {
	if id <= 0 {
		return nil, services.Wrap(services.ErrValidation, "tmdb", "credits", "movie id must be positive", nil)
	}
	var payload Credits
	if err := c.get(ctx, fmt.Sprintf("/movie/%d/credits", id), nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// PersonDetails fetches biographical details for a cast or crew member.
func (c *Client) PersonDetails(ctx context.Context, id int64) (*Person, error) {
	if id <= 0 {
		return nil, services.Wrap(services.ErrValidation, "tmdb", "person", "person id must be positive", nil)
	}
	var payload Person
	if err := c.get(ctx, fmt.Sprintf("/person/%d", id), nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, dst any) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parse tmdb url: %w", err)
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return services.Wrap(services.ErrTransient, "tmdb", path, fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, "tmdb", path, fmt.Sprintf("returned %d (latency=%v)", resp.StatusCode, latency), nil)
	case resp.StatusCode == http.StatusUnauthorized:
		return services.Wrap(services.ErrConfiguration, "tmdb", path, "api key rejected (401)", nil)
	case resp.StatusCode != http.StatusOK:
		return services.Wrap(services.ErrTransient, "tmdb", path, fmt.Sprintf("returned %d (latency=%v)", resp.StatusCode, latency), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return services.Wrap(services.ErrValidation, "tmdb", path, "decode response", err)
	}
	return nil
}

// ErrNoMatch is returned by BestMatch when the search yields nothing.
var ErrNoMatch = errors.New("no tmdb match")

// BestMatch searches title and returns the first result released in year,
// falling back to the most relevant result when none matches the year.
// A zero year skips the year filter.
func BestMatch(ctx context.Context, s Searcher, title string, year int) (*Movie, error) {
	resp, err := s.SearchMovie(ctx, title)
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "tmdb", "best match", title, ErrNoMatch)
	}
	if year > 0 {
		for i := range resp.Results {
			if resp.Results[i].Year() == year {
				return &resp.Results[i], nil
			}
		}
	}
	return &resp.Results[0], nil
}
