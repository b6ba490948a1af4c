package imdb

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/dataforgoodfr/bechdelai/internal/services"
	"github.com/dataforgoodfr/bechdelai/internal/services/scrape"
)

// DefaultBaseURL is the IMDb site root.
const DefaultBaseURL = "https://www.imdb.com"

// SearchResult is one title match.
type SearchResult struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	CreditsURL string `json:"credits_url"`
}

// Details holds the hero block of a title page.
type Details struct {
	Title    string   `json:"title"`
	Metadata []string `json:"metadata,omitempty"`
}

// CastEntry is one credited actor on the full credits page.
type CastEntry struct {
	NConst    int    `json:"nconst"`
	Name      string `json:"name"`
	Character string `json:"character"`
}

// Client scrapes imdb.com.
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

// Search queries the title finder.
func (c *Client) Search(ctx context.Context, title string) ([]SearchResult, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, services.Wrap(services.ErrValidation, "imdb", "search", "title must not be empty", nil)
	}
	doc, err := c.fetcher.GetDocument(ctx, c.baseURL+"/find?"+url.Values{"s": {"tt"}, "q": {title}}.Encode())
	if err != nil {
		return nil, err
	}
	return c.parseSearch(doc), nil
}

func (c *Client) parseSearch(doc *html.Node) []SearchResult {
	var results []SearchResult
	for _, row := range scrape.FindAll(doc, scrape.Element("tr", "findResult")) {
		a := scrape.Find(row, scrape.Element("a"))
		if a == nil {
			continue
		}
		href, _, _ := strings.Cut(scrape.AttrOr(a, "href", ""), "?")
		if !strings.HasPrefix(href, "/title/") {
			continue
		}
		if !strings.HasSuffix(href, "/") {
			href += "/"
		}
		id := strings.TrimSuffix(strings.TrimPrefix(href, "/title/"), "/")
		results = append(results, SearchResult{
			ID:         id,
			Title:      scrape.CleanText(row),
			CreditsURL: c.baseURL + href + "fullcredits",
		})
	}
	return results
}

// Details reads the title and hero metadata list of a title page.
func (c *Client) Details(ctx context.Context, pageURL string) (*Details, error) {
	doc, err := c.fetcher.GetDocument(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	h1 := scrape.Find(doc, scrape.Element("h1"))
	if h1 == nil {
		return nil, services.Wrap(services.ErrValidation, "imdb", "details", "page has no title heading", nil)
	}
	details := &Details{Title: scrape.CleanText(h1)}
	if list := scrape.Find(doc, scrape.WithAttr("ul", "data-testid", "hero-title-block__metadata")); list != nil {
		for _, li := range scrape.Children(list, scrape.Element("li")) {
			details.Metadata = append(details.Metadata, scrape.CleanText(li))
		}
	}
	return details, nil
}

// Cast reads the cast table of a full credits page.
func (c *Client) Cast(ctx context.Context, creditsURL string) ([]CastEntry, error) {
	doc, err := c.fetcher.GetDocument(ctx, creditsURL)
	if err != nil {
		return nil, err
	}
	return ParseCast(doc), nil
}

// ParseCast extracts cast rows with at least three links (photo, name and
// character) from table.cast_list.
func ParseCast(doc *html.Node) []CastEntry {
	table := scrape.Find(doc, scrape.Element("table", "cast_list"))
	if table == nil {
		return nil
	}
	var cast []CastEntry
	for _, row := range scrape.FindAll(table, scrape.Element("tr")) {
		links := scrape.FindAll(row, scrape.Element("a"))
		if len(links) < 3 {
			continue
		}
		nconst, ok := parseNameID(scrape.AttrOr(links[1], "href", ""))
		if !ok {
			continue
		}
		cast = append(cast, CastEntry{
			NConst:    nconst,
			Name:      scrape.CleanText(links[1]),
			Character: scrape.CleanText(links[2]),
		})
	}
	return cast
}

func parseNameID(href string) (int, bool) {
	path, _, _ := strings.Cut(href, "?")
	_, rest, ok := strings.Cut(path, "/name/")
	if !ok {
		return 0, false
	}
	id := strings.TrimPrefix(strings.Trim(rest, "/"), "nm")
	n, err := strconv.Atoi(id)
	if err != nil {
		return 0, false
	}
	return n, true
}

// NameID formats an integer nconst as "nm0000001".
func NameID(nconst int) string {
	return fmt.Sprintf("nm%07d", nconst)
}

// NameURL returns the public page of a person.
func NameURL(nconst int) string {
	return DefaultBaseURL + "/name/" + NameID(nconst) + "/"
}

// TitleURL returns the page of a title id such as "tt0103074".
func (c *Client) TitleURL(id string) string {
	return c.baseURL + "/title/" + strings.Trim(id, "/") + "/"
}

// CreditsURL returns the full credits page of a title id.
func (c *Client) CreditsURL(id string) string {
	return c.TitleURL(id) + "fullcredits"
}
