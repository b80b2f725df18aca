package evidence

import (
	"strings"

	"golang.org/x/net/html"
)

// ExtractText derives plain text from raw captured content. HTML gets its
// visible text nodes extracted with scripts and styles skipped; anything
// that does not parse as HTML is returned as-is.
func ExtractText(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "<") {
		return raw
	}

	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return raw
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)
	return strings.TrimSpace(buf.String())
}
