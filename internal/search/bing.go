package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/common/httpx"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/schema"
)

// BingSource calls the Bing Web Search API v7.
// Endpoint example: https://api.bing.microsoft.com/v7.0/search
type BingSource struct {
	Endpoint string
	APIKey   string
	Client   *httpx.Client
}

func (r *BingSource) Type() string { return "bing" }

type bingResponse struct {
	WebPages struct {
		Value []struct {
			Name    string `json:"name"`
			URL     string `json:"url"`
			Snippet string `json:"snippet"`
		} `json:"value"`
	} `json:"webPages"`
}

func (r *BingSource) Search(ctx context.Context, query string, topK int) ([]schema.SearchResult, error) {
	if r.Endpoint == "" || r.APIKey == "" {
		return nil, fmt.Errorf("bing search requires endpoint and api key")
	}
	if r.Client == nil {
		return nil, fmt.Errorf("bing http client not configured")
	}
	if topK <= 0 {
		topK = 10
	}
	u, err := url.Parse(r.Endpoint)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("count", fmt.Sprintf("%d", topK))
	u.RawQuery = q.Encode()

	header := http.Header{}
	header.Set("Ocp-Apim-Subscription-Key", r.APIKey)
	var br bingResponse
	if err := r.Client.DoJSON(ctx, http.MethodGet, u.String(), header, nil, &br); err != nil {
		return nil, err
	}
	out := make([]schema.SearchResult, 0, len(br.WebPages.Value))
	for _, v := range br.WebPages.Value {
		out = append(out, webResult(v.URL, v.Name, v.Snippet, r.Type()))
	}
	return out, nil
}
