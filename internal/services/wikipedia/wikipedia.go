package wikipedia

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/dataforgoodfr/bechdelai/internal/services"
	"github.com/dataforgoodfr/bechdelai/internal/services/scrape"
)

// DefaultEndpoint is the MediaWiki API; "{lang}" is replaced by the wiki language.
const DefaultEndpoint = "https://{lang}.wikipedia.org/w/api.php"

// PlotAnchors are the section anchors accepted as a plot summary.
var PlotAnchors = []string{"Plot", "Synopsis"}

// ErrNoPlot is returned when no candidate page carries a plot section.
var ErrNoPlot = errors.New("no plot section found")

var citationPattern = regexp.MustCompile(`\[[0-9]+\]`)

// Client queries the MediaWiki parse API.
type Client struct {
	fetcher  *scrape.Fetcher
	endpoint string
}

// New returns a client. An empty endpoint selects DefaultEndpoint.
func New(fetcher *scrape.Fetcher, endpoint string) *Client {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{fetcher: fetcher, endpoint: endpoint}
}

type parseResponse struct {
	Parse *struct {
		Title    string `json:"title"`
		Sections []struct {
			Anchor string `json:"anchor"`
			Line   string `json:"line"`
			Index  string `json:"index"`
		} `json:"sections"`
		Text struct {
			HTML string `json:"*"`
		} `json:"text"`
	} `json:"parse"`
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

func (c *Client) parse(ctx context.Context, lang string, params url.Values) (*parseResponse, error) {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		lang = "en"
	}
	params.Set("action", "parse")
	params.Set("format", "json")
	endpoint := strings.ReplaceAll(c.endpoint, "{lang}", lang) + "?" + params.Encode()

	var resp parseResponse
	if err := c.fetcher.GetJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil || resp.Parse == nil {
		msg := params.Get("page")
		if resp.Error != nil {
			msg = fmt.Sprintf("%s: %s", resp.Error.Code, resp.Error.Info)
		}
		return nil, services.Wrap(services.ErrNotFound, "wikipedia", "parse", msg, nil)
	}
	return &resp, nil
}

// Sections maps section anchors of page to their index.
func (c *Client) Sections(ctx context.Context, lang, page string) (map[string]int, error) {
	resp, err := c.parse(ctx, lang, url.Values{"page": {page}, "prop": {"sections"}})
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(resp.Parse.Sections))
	for _, s := range resp.Parse.Sections {
		idx, err := strconv.Atoi(s.Index)
		if err != nil {
			continue
		}
		out[s.Anchor] = idx
	}
	return out, nil
}

// SectionText returns the readable text of one section.
func (c *Client) SectionText(ctx context.Context, lang, page string, index int) (string, error) {
	resp, err := c.parse(ctx, lang, url.Values{
		"page":    {page},
		"prop":    {"text"},
		"section": {strconv.Itoa(index)},
	})
	if err != nil {
		return "", err
	}
	return CleanSection(resp.Parse.Text.HTML)
}

// CleanSection strips citation noise, image captions and the edit heading
// from section HTML and returns its text.
func CleanSection(body string) (string, error) {
	doc, err := scrape.ParseHTML([]byte(body))
	if err != nil {
		return "", err
	}
	scrape.Remove(doc, scrape.Element("span", "mw-ext-cite-error"))
	scrape.Remove(doc, scrape.Element("div", "mw-references-wrap"))
	scrape.Remove(doc, scrape.Element("div", "thumbcaption"))
	scrape.Remove(doc, scrape.Element("span", "mw-editsection"))
	scrape.Remove(doc, scrape.Element("sup", "reference"))
	if heading := scrape.Find(doc, isHeading); heading != nil && heading.Parent != nil {
		heading.Parent.RemoveChild(heading)
	}

	text := citationPattern.ReplaceAllString(scrape.Text(doc), "")
	text = strings.ReplaceAll(text, "\t", " ")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) > 0 && strings.HasSuffix(lines[0], "[edit]") {
		lines = lines[1:]
	}
	return strings.Join(lines, "\n"), nil
}

func isHeading(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.Data {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		return true
	}
	return false
}

// PlotResult is a plot summary and where it was found.
type PlotResult struct {
	Page    string `json:"page"`
	Section string `json:"section"`
	Text    string `json:"text"`
}

// PageCandidates lists the page titles tried for a movie, most specific first.
func PageCandidates(title string, year int) []string {
	title = strings.TrimSpace(title)
	var out []string
	if year > 0 {
		out = append(out, fmt.Sprintf("%s (%d film)", title, year))
	}
	return append(out, title+" (film)", title)
}

// Plot finds the plot section of a movie page.
func (c *Client) Plot(ctx context.Context, lang, title string, year int) (*PlotResult, error) {
	for _, page := range PageCandidates(title, year) {
		sections, err := c.Sections(ctx, lang, page)
		if errors.Is(err, services.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, anchor := range PlotAnchors {
			idx, ok := sections[anchor]
			if !ok {
				continue
			}
			text, err := c.SectionText(ctx, lang, page, idx)
			if err != nil {
				return nil, err
			}
			return &PlotResult{Page: page, Section: anchor, Text: text}, nil
		}
	}
	return nil, services.Wrap(services.ErrNotFound, "wikipedia", "plot", title, ErrNoPlot)
}
