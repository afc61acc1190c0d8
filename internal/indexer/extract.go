package indexer

import (
	"bytes"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

var supported = map[string]bool{
	".txt":  true,
	".md":   true,
	".csv":  true,
	".json": true,
	".html": true,
	".htm":  true,
}

// Supported reports whether the file extension is ingested.
func Supported(path string) bool {
	return supported[strings.ToLower(filepath.Ext(path))]
}

// extract returns the indexable text of a file body.
func extract(path string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return htmlText(data)
	default:
		return string(data), nil
	}
}

// htmlText returns block text separated by blank lines, skipping scripts and styles.
func htmlText(data []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "head":
				return
			case "p", "div", "li", "h1", "h2", "h3", "h4", "tr", "br":
				b.WriteString("\n\n")
			}
		}
		if n.Type == html.TextNode {
			if s := strings.TrimSpace(n.Data); s != "" {
				b.WriteString(s)
				b.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return b.String(), nil
}
