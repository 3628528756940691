package corpus

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// urlAttributes maps element names to the attributes that hold a URL.
var urlAttributes = map[string][]string{
	"a":          {"href"},
	"area":       {"href"},
	"base":       {"href"},
	"link":       {"href"},
	"form":       {"action"},
	"button":     {"formaction"},
	"input":      {"formaction", "src"},
	"img":        {"src", "longdesc"},
	"script":     {"src"},
	"iframe":     {"src"},
	"frame":      {"src"},
	"embed":      {"src"},
	"source":     {"src"},
	"track":      {"src"},
	"audio":      {"src"},
	"video":      {"src", "poster"},
	"object":     {"data"},
	"blockquote": {"cite"},
	"q":          {"cite"},
	"ins":        {"cite"},
	"del":        {"cite"},
}

// Seed is a URL found in an HTML document.
type Seed struct {
	// URL is the attribute value as written, after HTML entity decoding.
	// Relative references are kept relative.
	URL string

	// Element and Attr say where the URL was found, e.g. "a" and "href".
	Element string
	Attr    string
}

// ExtractURLs returns the URL-valued attributes of an HTML document in
// document order, including meta refresh targets. Values are not resolved
// against the document, so odd spellings reach the adapters unchanged.
// Empty and fragment-only values are skipped.
func ExtractURLs(r io.Reader) ([]Seed, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	seeds := make([]Seed, 0)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, attr := range urlAttributes[n.Data] {
				if v, ok := getAttr(n, attr); ok && usable(v) {
					seeds = append(seeds, Seed{URL: v, Element: n.Data, Attr: attr})
				}
			}
			if n.Data == "meta" && strings.EqualFold(attrValue(n, "http-equiv"), "refresh") {
				if v := refreshURL(attrValue(n, "content")); usable(v) {
					seeds = append(seeds, Seed{URL: v, Element: "meta", Attr: "content"})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return seeds, nil
}

// usable reports whether an attribute value is worth comparing.
func usable(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && v != "#"
}

// refreshURL extracts the target of a meta refresh, e.g. "5; url=/next".
func refreshURL(content string) string {
	_, rest, ok := strings.Cut(content, ";")
	if !ok {
		return ""
	}
	rest = strings.TrimSpace(rest)
	if len(rest) < 4 || !strings.EqualFold(rest[:3], "url") {
		return ""
	}
	rest = strings.TrimSpace(rest[3:])
	rest, ok = strings.CutPrefix(rest, "=")
	if !ok {
		return ""
	}
	rest = strings.TrimSpace(rest)
	if len(rest) >= 2 && (rest[0] == '\'' || rest[0] == '"') && rest[len(rest)-1] == rest[0] {
		rest = rest[1 : len(rest)-1]
	}
	return rest
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}

func attrValue(n *html.Node, key string) string {
	v, _ := getAttr(n, key)
	return v
}
