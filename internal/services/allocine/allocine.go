package allocine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/dataforgoodfr/bechdelai/internal/services"
	"github.com/dataforgoodfr/bechdelai/internal/services/scrape"
	"github.com/dataforgoodfr/bechdelai/internal/services/tmdb"
)

const (
	// DefaultBaseURL is the Allociné site root.
	DefaultBaseURL = "https://www.allocine.fr/"
	// PageSize is the maximum number of movies on one listing page.
	PageSize = 15
)

var sortSegments = map[string]string{
	"popularity":  "",
	"alphabetic":  "alphabetique/",
	"press_note":  "presse/",
	"public_note": "notes/",
}

// SortKeys lists accepted Filter.Sort values.
func SortKeys() []string {
	return []string{"popularity", "alphabetic", "press_note", "public_note"}
}

// Filter narrows a listing. Genre and Country hold URL slugs such as
// "genre-13025" or "pays-5001" as returned by ParseFilters.
type Filter struct {
	Sort    string
	Genre   string
	Country string
	Decade  int
	Year    int
}

// Movie is one entry of a listing page.
type Movie struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Poster   string `json:"poster,omitempty"`
	Year     int    `json:"year,omitempty"`
	Director string `json:"director,omitempty"`
}

// FirstDirector returns the first credited director.
func (m Movie) FirstDirector() string {
	first, _, _ := strings.Cut(m.Director, ",")
	return strings.TrimSpace(first)
}

// Client scrapes Allociné listings.
type Client struct {
	fetcher *scrape.Fetcher
	baseURL string
}

// New returns a client. An empty baseURL selects DefaultBaseURL.
func New(fetcher *scrape.Fetcher, baseURL string) *Client {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Client{fetcher: fetcher, baseURL: baseURL}
}

// ListURL builds the listing URL for filter and page.
func (c *Client) ListURL(filter Filter, page int) (string, error) {
	sortKey := filter.Sort
	if sortKey == "" {
		sortKey = "popularity"
	}
	sortSegment, ok := sortSegments[sortKey]
	if !ok {
		return "", services.Wrap(services.ErrValidation, "allocine", "list url",
			fmt.Sprintf("sort must be one of %s", strings.Join(SortKeys(), ", ")), nil)
	}
	if page < 1 {
		page = 1
	}

	var b strings.Builder
	b.WriteString(c.baseURL)
	b.WriteString("films/")
	b.WriteString(sortSegment)
	b.WriteString(segment(filter.Genre))
	b.WriteString(segment(filter.Country))
	switch {
	case filter.Year > 0:
		fmt.Fprintf(&b, "decennie-%d/annee-%d/", filter.Year/10*10, filter.Year)
	case filter.Decade > 0:
		fmt.Fprintf(&b, "decennie-%d/", filter.Decade/10*10)
	}
	b.WriteString("?page=")
	b.WriteString(strconv.Itoa(page))
	return b.String(), nil
}

func segment(value string) string {
	value = strings.Trim(strings.TrimSpace(value), "/")
	if value == "" {
		return ""
	}
	return value + "/"
}

// Page fetches and parses one listing page.
func (c *Client) Page(ctx context.Context, filter Filter, page int) ([]Movie, error) {
	listURL, err := c.ListURL(filter, page)
	if err != nil {
		return nil, err
	}
	doc, err := c.fetcher.GetDocument(ctx, listURL)
	if err != nil {
		return nil, err
	}
	return ParseMovies(doc, c.baseURL), nil
}

// Movies returns up to n movies, paging until enough are collected or a
// short page signals the end of the listing.
func (c *Client) Movies(ctx context.Context, filter Filter, n int) ([]Movie, error) {
	if n <= 0 {
		return nil, nil
	}
	pages := (n + PageSize - 1) / PageSize
	movies := make([]Movie, 0, n)
	for page := 1; page <= pages; page++ {
		found, err := c.Page(ctx, filter, page)
		if err != nil {
			return movies, err
		}
		if remaining := n - len(movies); len(found) > remaining {
			movies = append(movies, found[:remaining]...)
		} else {
			movies = append(movies, found...)
		}
		if len(found) < PageSize {
			break
		}
	}
	return movies, nil
}

// ParseMovies extracts every li.mdl card from a listing document.
func ParseMovies(doc *html.Node, baseURL string) []Movie {
	var movies []Movie
	for _, card := range scrape.FindAll(doc, scrape.Element("li", "mdl")) {
		link := scrape.Find(card, scrape.Element("a", "meta-title-link"))
		if link == nil {
			continue
		}
		movie := Movie{
			Title: strings.TrimSpace(scrape.Text(link)),
			URL:   strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(scrape.AttrOr(link, "href", ""), "/"),
		}
		if img := scrape.Find(card, scrape.Element("img")); img != nil {
			src := scrape.AttrOr(img, "src", "")
			if !strings.HasSuffix(src, ".jpg") && !strings.HasSuffix(src, ".png") {
				src = scrape.AttrOr(img, "data-src", src)
			}
			movie.Poster = src
		}
		if date := scrape.Find(card, scrape.Element("span", "date")); date != nil {
			words := strings.Fields(scrape.Text(date))
			if len(words) > 0 {
				movie.Year, _ = strconv.Atoi(words[len(words)-1])
			}
		}
		if dir := scrape.Find(card, scrape.Element("div", "meta-body-direction")); dir != nil {
			words := strings.Fields(scrape.Text(dir))
			if len(words) > 0 && words[0] == "De" {
				words = words[1:]
			}
			movie.Director = strings.Join(words, " ")
		}
		movies = append(movies, movie)
	}
	return movies
}

// MatchTMDB resolves an Allociné movie to a TMDB movie. A search result is
// accepted when its release year matches, otherwise when the first listed
// director is credited as Director.
func MatchTMDB(ctx context.Context, searcher tmdb.Searcher, movie Movie) (*tmdb.Movie, error) {
	resp, err := searcher.SearchMovie(ctx, movie.Title)
	if err != nil {
		return nil, err
	}
	director := movie.FirstDirector()
	for i := range resp.Results {
		result := &resp.Results[i]
		if movie.Year > 0 && result.Year() == movie.Year {
			return result, nil
		}
		if director == "" {
			continue
		}
		credits, err := searcher.MovieCredits(ctx, result.ID)
		if err != nil {
			return nil, err
		}
		if strings.Contains(strings.Join(credits.Directors(), ""), director) {
			return result, nil
		}
	}
	return nil, services.Wrap(services.ErrNotFound, "allocine", "match tmdb", movie.Title, tmdb.ErrNoMatch)
}
