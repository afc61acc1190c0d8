package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/common/httpx"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/common/logger"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/schema"
)

// DuckDuckGoSource uses the Instant Answer API; it needs no key.
type DuckDuckGoSource struct {
	Endpoint string
	Client   *httpx.Client
}

func (d *DuckDuckGoSource) Type() string { return "duckduckgo" }

type ddgResponse struct {
	AbstractText   string `json:"AbstractText"`
	AbstractSource string `json:"AbstractSource"`
	AbstractURL    string `json:"AbstractURL"`
	RelatedTopics  []struct {
		Text     string `json:"Text"`
		FirstURL string `json:"FirstURL"`
	} `json:"RelatedTopics"`
}

func (d *DuckDuckGoSource) Search(ctx context.Context, query string, topK int) ([]schema.SearchResult, error) {
	if d.Client == nil {
		return nil, fmt.Errorf("duckduckgo http client not configured")
	}
	if topK <= 0 {
		topK = 3
	}
	u, err := url.Parse(orDefault(d.Endpoint, "https://api.duckduckgo.com/"))
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	u.RawQuery = q.Encode()

	header := http.Header{}
	header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	var resp ddgResponse
	if err := d.Client.DoJSON(ctx, http.MethodGet, u.String(), header, nil, &resp); err != nil {
		return nil, err
	}

	out := make([]schema.SearchResult, 0, topK)
	if resp.AbstractText != "" {
		out = append(out, webResult(resp.AbstractURL, resp.AbstractSource, resp.AbstractText, d.Type()))
	}
	for _, topic := range resp.RelatedTopics {
		if len(out) >= topK {
			break
		}
		if topic.Text == "" || topic.FirstURL == "" {
			continue
		}
		title := topic.Text
		if len(title) > 100 {
			title = truncateRunes(title, 100)
		}
		out = append(out, webResult(topic.FirstURL, title, topic.Text, d.Type()))
	}
	logger.Debugf("duckduckgo: %d results for %q", len(out), query)
	return out, nil
}
