package scrape

import (
	"bytes"
	"context"
	"strings"

	"golang.org/x/net/html"

	"github.com/dataforgoodfr/bechdelai/internal/services"
)

// GetDocument fetches rawURL and parses the body as HTML.
func (f *Fetcher) GetDocument(ctx context.Context, rawURL string) (*html.Node, error) {
	resp, err := f.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return ParseHTML(resp.Body)
}

// ParseHTML parses an HTML document.
func ParseHTML(body []byte) (*html.Node, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "scrape", "parse html", "", err)
	}
	return doc, nil
}

// Matcher selects element nodes.
type Matcher func(*html.Node) bool

// Element matches elements by tag name, optionally requiring every class in classes.
func Element(tag string, classes ...string) Matcher {
	return func(n *html.Node) bool {
		if n.Type != html.ElementNode || (tag != "" && n.Data != tag) {
			return false
		}
		for _, class := range classes {
			if !HasClass(n, class) {
				return false
			}
		}
		return true
	}
}

// WithAttr matches elements carrying attribute key equal to value.
func WithAttr(tag, key, value string) Matcher {
	return func(n *html.Node) bool {
		if n.Type != html.ElementNode || (tag != "" && n.Data != tag) {
			return false
		}
		v, ok := Attr(n, key)
		return ok && v == value
	}
}

// AttrContains matches elements whose attribute key contains substr.
func AttrContains(tag, key, substr string) Matcher {
	return func(n *html.Node) bool {
		if n.Type != html.ElementNode || (tag != "" && n.Data != tag) {
			return false
		}
		v, ok := Attr(n, key)
		return ok && strings.Contains(v, substr)
	}
}

// FindAll returns every descendant of root (excluding root) matching m, in document order.
func FindAll(root *html.Node, m Matcher) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if m(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return out
}

// Find returns the first descendant matching m, or nil.
func Find(root *html.Node, m Matcher) *html.Node {
	if root == nil {
		return nil
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if m(c) {
			return c
		}
		if found := Find(c, m); found != nil {
			return found
		}
	}
	return nil
}

// Children returns direct element children of n matching m.
func Children(n *html.Node, m Matcher) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if m(c) {
			out = append(out, c)
		}
	}
	return out
}

// Attr returns the value of attribute key.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// AttrOr returns attribute key or fallback when absent.
func AttrOr(n *html.Node, key, fallback string) string {
	if v, ok := Attr(n, key); ok {
		return v
	}
	return fallback
}

// HasClass reports whether the class attribute of n contains class.
func HasClass(n *html.Node, class string) bool {
	v, ok := Attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

// Text returns the concatenated text content of n, with <br> rendered as newlines.
func Text(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
		case n.Type == html.ElementNode && n.Data == "br":
			b.WriteByte('\n')
		case n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style"):
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// CleanText collapses runs of whitespace in the text content of n.
func CleanText(n *html.Node) string {
	return strings.Join(strings.Fields(Text(n)), " ")
}

// Remove detaches every descendant of root matching m.
func Remove(root *html.Node, m Matcher) {
	for _, n := range FindAll(root, m) {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
}
