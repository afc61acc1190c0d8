package search

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/common/httpx"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/schema"
)

// NoResults is the snippet Serper yields when the organic list is empty.
const NoResults = "No good results found."

// SerperSource queries google.serper.dev and returns organic snippets.
type SerperSource struct {
	APIKey     string
	Endpoint   string // default https://google.serper.dev
	SearchType string // search, news, places...
	GL         string
	HL         string
	K          int
	Client     *httpx.Client
}

func (s *SerperSource) Type() string { return "serper" }

type serperRequest struct {
	Q   string `json:"q"`
	GL  string `json:"gl"`
	HL  string `json:"hl"`
	Num int    `json:"num"`
}

type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

func (s *SerperSource) Search(ctx context.Context, query string, topK int) ([]schema.SearchResult, error) {
	if s.APIKey == "" {
		return nil, fmt.Errorf("serper search requires api key")
	}
	if s.Client == nil {
		return nil, fmt.Errorf("serper http client not configured")
	}
	k := s.K
	if topK > 0 {
		k = topK
	}
	if k <= 0 {
		k = 10
	}
	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = "https://google.serper.dev"
	}
	searchType := s.SearchType
	if searchType == "" {
		searchType = "search"
	}

	header := http.Header{}
	header.Set("X-API-KEY", s.APIKey)
	req := serperRequest{Q: query, GL: orDefault(s.GL, "us"), HL: orDefault(s.HL, "en"), Num: k}
	var resp serperResponse
	if err := s.Client.DoJSON(ctx, http.MethodPost, strings.TrimRight(endpoint, "/")+"/"+searchType, header, req, &resp); err != nil {
		return nil, err
	}

	out := make([]schema.SearchResult, 0, k)
	for _, item := range resp.Organic {
		if len(out) >= k {
			break
		}
		if item.Snippet == "" {
			continue
		}
		out = append(out, webResult(item.Link, item.Title, item.Snippet, s.Type()))
	}
	if len(out) == 0 {
		out = append(out, webResult("", "", NoResults, s.Type()))
	}
	return out, nil
}

func webResult(link, title, snippet, source string) schema.SearchResult {
	doc := schema.Document{
		ID:      link,
		Content: snippet,
		Metadata: map[string]interface{}{
			schema.MetaTitle:  title,
			schema.MetaURL:    link,
			schema.MetaSource: source,
		},
	}
	return schema.SearchResult{Document: doc, Score: 0}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
