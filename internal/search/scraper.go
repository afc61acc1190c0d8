package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/net/html"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/common/httpx"
)

// Scraper fetches a page and extracts the text of its <p> elements.
type Scraper struct {
	Client   *httpx.Client
	MaxChars int
	// MaxBytes caps how much of the body is read.
	MaxBytes int64
}

// Scrape returns at most MaxChars characters of paragraph text joined by spaces.
func (s *Scraper) Scrape(ctx context.Context, rawURL string) (string, error) {
	if s.Client == nil {
		return "", fmt.Errorf("scraper http client not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	resp, err := s.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &httpx.StatusError{StatusCode: resp.StatusCode}
	}

	limit := s.MaxBytes
	if limit <= 0 {
		limit = 4 << 20
	}
	text, err := paragraphText(io.LimitReader(resp.Body, limit))
	if err != nil {
		return "", err
	}
	return truncateRunes(text, s.MaxChars), nil
}

func paragraphText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}
	var paras []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "p" {
			var b strings.Builder
			collectText(n, &b)
			paras = append(paras, b.String())
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.Join(paras, " "), nil
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		return
	}
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
