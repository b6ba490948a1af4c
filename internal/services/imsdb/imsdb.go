package imsdb

import (
	"context"
	"net/url"
	"strings"

	"github.com/dataforgoodfr/bechdelai/internal/services"
	"github.com/dataforgoodfr/bechdelai/internal/services/scrape"
)

// DefaultBaseURL is the Internet Movie Script Database root.
const DefaultBaseURL = "https://imsdb.com"

// ScriptRef is one entry of the script index.
type ScriptRef struct {
	Title string `json:"title"`
	Slug  string `json:"slug"`
	URL   string `json:"url"`
}

// Client scrapes imsdb.com.
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

// Scripts lists every script on the all-scripts page.
func (c *Client) Scripts(ctx context.Context) ([]ScriptRef, error) {
	doc, err := c.fetcher.GetDocument(ctx, c.baseURL+"/all-scripts.html")
	if err != nil {
		return nil, err
	}
	var refs []ScriptRef
	for _, p := range scrape.FindAll(doc, scrape.Element("p")) {
		a := scrape.Find(p, scrape.Element("a"))
		if a == nil {
			continue
		}
		slug := Slug(scrape.AttrOr(a, "href", ""))
		if slug == "" {
			continue
		}
		refs = append(refs, ScriptRef{
			Title: strings.TrimSpace(scrape.Text(a)),
			Slug:  slug,
			URL:   c.ScriptURL(slug),
		})
	}
	return refs, nil
}

// Slug derives the script slug from an index link such as
// "/Movie Scripts/Alien Script.html".
func Slug(href string) string {
	if unescaped, err := url.PathUnescape(href); err == nil {
		href = unescaped
	}
	last := href[strings.LastIndex(href, "/")+1:]
	last = strings.TrimSuffix(last, " Script.html")
	last = strings.TrimSuffix(last, ".html")
	return strings.ReplaceAll(strings.TrimSpace(last), " ", "-")
}

// ScriptURL returns the script page for slug.
func (c *Client) ScriptURL(slug string) string {
	return c.baseURL + "/scripts/" + url.PathEscape(slug) + ".html"
}

// Script returns the script text of slug split into lines.
func (c *Client) Script(ctx context.Context, slug string) ([]string, error) {
	doc, err := c.fetcher.GetDocument(ctx, c.ScriptURL(slug))
	if err != nil {
		return nil, err
	}
	pre := scrape.Find(doc, scrape.Element("pre"))
	if pre == nil {
		return nil, services.Wrap(services.ErrNotFound, "imsdb", "script", slug+" has no script text", nil)
	}
	// Scripts are often wrapped in a second <pre>.
	if inner := scrape.Find(pre, scrape.Element("pre")); inner != nil {
		pre = inner
	}
	text := strings.ReplaceAll(scrape.Text(pre), "\r\n", "\n")
	return strings.Split(text, "\n"), nil
}
