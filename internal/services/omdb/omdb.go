package omdb

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/dataforgoodfr/bechdelai/internal/services"
	"github.com/dataforgoodfr/bechdelai/internal/services/scrape"
)

// Movie is the subset of the OMDb title response used here.
type Movie struct {
	Title    string `json:"Title"`
	Year     string `json:"Year"`
	IMDbID   string `json:"imdbID"`
	Poster   string `json:"Poster"`
	Response string `json:"Response"`
	Error    string `json:"Error"`
}

// Client calls the OMDb API.
type Client struct {
	fetcher *scrape.Fetcher
	apiKey  string
	baseURL string
}

// New returns an OMDb client.
func New(fetcher *scrape.Fetcher, apiKey, baseURL string) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "omdb", "init", "api key required (omdb.api_key or OMDB_API_KEY)", nil)
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "http://www.omdbapi.com"
	}
	return &Client{fetcher: fetcher, apiKey: apiKey, baseURL: baseURL}, nil
}

// ByTitle looks a movie up by title, optionally narrowed by year.
func (c *Client) ByTitle(ctx context.Context, title string, year int) (*Movie, error) {
	params := url.Values{"apikey": {c.apiKey}, "t": {strings.TrimSpace(title)}}
	if year > 0 {
		params.Set("y", strconv.Itoa(year))
	}
	var movie Movie
	if err := c.fetcher.GetJSON(ctx, c.baseURL+"/?"+params.Encode(), &movie); err != nil {
		return nil, err
	}
	if !strings.EqualFold(movie.Response, "True") {
		msg := movie.Error
		if msg == "" {
			msg = "movie not found"
		}
		return nil, services.Wrap(services.ErrNotFound, "omdb", "title", title+": "+msg, nil)
	}
	return &movie, nil
}

// Poster returns the poster URL of a title, or "" when OMDb has none.
func (c *Client) Poster(ctx context.Context, title string, year int) (string, error) {
	movie, err := c.ByTitle(ctx, title, year)
	if err != nil {
		return "", err
	}
	if movie.Poster == "N/A" {
		return "", nil
	}
	return movie.Poster, nil
}
