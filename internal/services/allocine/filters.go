package allocine

import (
	"context"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/dataforgoodfr/bechdelai/internal/services/scrape"
)

// Filter group names as published by the listing page.
const (
	GroupGenres    = "Par genres"
	GroupCountries = "Par pays"
	GroupDecades   = "Par années de production"
	GroupYears     = "Année"
)

// FilterValue is one selectable option: the URL slug and its label.
type FilterValue struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// Filters fetches the unfiltered listing and returns its filter panel.
func (c *Client) Filters(ctx context.Context) (map[string][]FilterValue, error) {
	listURL, err := c.ListURL(Filter{}, 1)
	if err != nil {
		return nil, err
	}
	doc, err := c.fetcher.GetDocument(ctx, listURL)
	if err != nil {
		return nil, err
	}
	return ParseFilters(doc), nil
}

// ParseFilters reads the filter panel (div#filter-entity) into groups keyed
// by their data-name. A synthetic "Année" group is derived from the decade
// group with one entry per year.
func ParseFilters(doc *html.Node) map[string][]FilterValue {
	out := make(map[string][]FilterValue)
	panel := scrape.Find(doc, scrape.WithAttr("div", "id", "filter-entity"))
	if panel == nil {
		return out
	}
	for _, list := range scrape.FindAll(panel, scrape.Element("ul", "filter-entity-word")) {
		name, ok := scrape.Attr(list, "data-name")
		if !ok {
			continue
		}
		var values []FilterValue
		for _, a := range scrape.FindAll(list, scrape.Element("a")) {
			values = append(values, FilterValue{
				Slug: slugFromHref(scrape.AttrOr(a, "href", "")),
				Name: scrape.AttrOr(a, "title", strings.TrimSpace(scrape.Text(a))),
			})
		}
		out[name] = values
	}
	if decades, ok := out[GroupDecades]; ok {
		out[GroupYears] = yearsFromDecades(decades)
	}
	return out
}

func slugFromHref(href string) string {
	parts := strings.Split(href, "/")
	if len(parts) < 2 {
		return strings.Trim(href, "/")
	}
	return parts[len(parts)-2]
}

func yearsFromDecades(decades []FilterValue) []FilterValue {
	var years []FilterValue
	for _, decade := range decades {
		lo, hi, ok := strings.Cut(decade.Name, " - ")
		if !ok {
			continue
		}
		from, err1 := strconv.Atoi(strings.TrimSpace(lo))
		to, err2 := strconv.Atoi(strings.TrimSpace(hi))
		if err1 != nil || err2 != nil {
			continue
		}
		for y := from; y <= to; y++ {
			years = append(years, FilterValue{
				Slug: decade.Slug + "/annee-" + strconv.Itoa(y),
				Name: strconv.Itoa(y),
			})
		}
	}
	return years
}
