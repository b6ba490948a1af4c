package opensubtitles

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/dataforgoodfr/bechdelai/internal/language"
	"github.com/dataforgoodfr/bechdelai/internal/services"
	"github.com/dataforgoodfr/bechdelai/internal/services/scrape"
)

const (
	// DefaultBaseURL is the opensubtitles.org site root.
	DefaultBaseURL = "https://www.opensubtitles.org"
	// DefaultLanguage is the subtitle language searched when none is given.
	DefaultLanguage = "fre"
)

// ErrNoSubtitles is returned when a search or archive yields nothing usable.
var ErrNoSubtitles = errors.New("no subtitles found")

// Result is one movie match of a subtitle search.
type Result struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Client scrapes opensubtitles.org.
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

// LanguageCode maps any language form to the three letter code the site uses.
func LanguageCode(lang string) string {
	if strings.TrimSpace(lang) == "" {
		return DefaultLanguage
	}
	if code := language.ToBibliographic(lang); code != "" {
		return code
	}
	return DefaultLanguage
}

// SearchURL builds the search page URL for a movie name.
func (c *Client) SearchURL(lang, name string) string {
	return fmt.Sprintf("%s/en/search2/sublanguageid-%s/moviename-%s",
		c.baseURL, LanguageCode(lang), url.PathEscape(strings.TrimSpace(name)))
}

// Search lists the movie pages matching name, in site order.
func (c *Client) Search(ctx context.Context, lang, name string) ([]Result, error) {
	if strings.TrimSpace(name) == "" {
		return nil, services.Wrap(services.ErrValidation, "opensubtitles", "search", "movie name must not be empty", nil)
	}
	doc, err := c.fetcher.GetDocument(ctx, c.SearchURL(lang, name))
	if err != nil {
		return nil, err
	}
	var results []Result
	for _, a := range scrape.FindAll(doc, scrape.Element("a", "bnone")) {
		results = append(results, Result{
			Name: strings.TrimSpace(strings.ReplaceAll(scrape.Text(a), "\n", " ")),
			URL:  c.absolute(scrape.AttrOr(a, "href", "")),
		})
	}
	return results, nil
}

// SubtitleLink returns the first download link on a movie page.
func (c *Client) SubtitleLink(ctx context.Context, pageURL string) (string, error) {
	doc, err := c.fetcher.GetDocument(ctx, pageURL)
	if err != nil {
		return "", err
	}
	link := scrape.Find(doc, scrape.AttrContains("a", "href", "subtitleserve"))
	if link == nil {
		return "", services.Wrap(services.ErrNotFound, "opensubtitles", "subtitle link", pageURL, ErrNoSubtitles)
	}
	return c.absolute(scrape.AttrOr(link, "href", "")), nil
}

func (c *Client) absolute(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return c.baseURL + "/" + strings.TrimLeft(href, "/")
}

// Download fetches a subtitle archive and writes every .srt member into dir
// as UTF-8. It returns the written paths.
func (c *Client) Download(ctx context.Context, link, dir string) ([]string, error) {
	resp, err := c.fetcher.Get(ctx, link)
	if err != nil {
		return nil, err
	}
	return ExtractSRT(resp.Body, dir)
}

// Fetch runs search, link lookup and download for the index-th search result.
func (c *Client) Fetch(ctx context.Context, lang, name string, index int, dir string) ([]string, error) {
	results, err := c.Search(ctx, lang, name)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(results) {
		return nil, services.Wrap(services.ErrNotFound, "opensubtitles", "fetch",
			fmt.Sprintf("%d results for %q", len(results), name), ErrNoSubtitles)
	}
	link, err := c.SubtitleLink(ctx, results[index].URL)
	if err != nil {
		return nil, err
	}
	return c.Download(ctx, link, dir)
}

// ExtractSRT unpacks the .srt members of a zip archive into dir.
func ExtractSRT(archive []byte, dir string) ([]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "opensubtitles", "unzip", "archive is not a zip file", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create subtitle dir: %w", err)
	}
	var paths []string
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !strings.EqualFold(filepath.Ext(f.Name), ".srt") {
			continue
		}
		data, err := readMember(f)
		if err != nil {
			return nil, err
		}
		text, err := ToUTF8(data)
		if err != nil {
			return nil, err
		}
		dest := filepath.Join(dir, filepath.Base(f.Name))
		if err := os.WriteFile(dest, text, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", filepath.Base(dest), err)
		}
		paths = append(paths, dest)
	}
	if len(paths) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "opensubtitles", "unzip", "archive has no .srt member", ErrNoSubtitles)
	}
	return paths, nil
}

func readMember(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, 16<<20))
}

// ToUTF8 returns data unchanged when it is valid UTF-8 and decodes it as
// ISO-8859-1 otherwise.
func ToUTF8(data []byte) ([]byte, error) {
	if utf8.Valid(data) {
		return data, nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "opensubtitles", "decode", "subtitle is neither utf-8 nor latin-1", err)
	}
	return decoded, nil
}
