package retriever

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/common/httpx"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/schema"
)

// PathwayRetriever queries a Pathway document store server over HTTP.
// Endpoint example: http://localhost:8000
type PathwayRetriever struct {
	Endpoint string
	TopK     int
	Client   *httpx.Client
}

func (r *PathwayRetriever) Type() string { return "pathway" }

type pathwayRequest struct {
	Query string `json:"query"`
	K     int    `json:"k"`
}

type pathwayDoc struct {
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata"`
	Dist     float64                `json:"dist"`
}

func (r *PathwayRetriever) Search(ctx context.Context, query string, topK int) ([]schema.SearchResult, error) {
	if r.Client == nil {
		return nil, fmt.Errorf("pathway http client not configured")
	}
	if topK <= 0 {
		topK = r.TopK
	}
	if topK <= 0 {
		topK = 5
	}
	var docs []pathwayDoc
	u := strings.TrimRight(r.Endpoint, "/") + "/v1/retrieve"
	if err := r.Client.DoJSON(ctx, http.MethodPost, u, nil, pathwayRequest{Query: query, K: topK}, &docs); err != nil {
		return nil, err
	}
	out := make([]schema.SearchResult, 0, len(docs))
	for i, d := range docs {
		id := fmt.Sprintf("pathway-%d", i)
		if p, ok := d.Metadata["path"].(string); ok && p != "" {
			id = fmt.Sprintf("%s#%d", p, i)
		}
		out = append(out, schema.SearchResult{
			Document: schema.Document{ID: id, Content: d.Text, Metadata: d.Metadata},
			// pathway reports a distance; smaller is closer
			Score: 1 / (1 + d.Dist),
		})
	}
	return out, nil
}
