package schema

import "time"

// Document is a chunk of indexed or retrieved text.
type Document struct {
	ID        string                 `json:"id"`
	Content   string                 `json:"content"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Vector    []float32              `json:"-"`
	CreatedAt time.Time              `json:"created_at"`
}

// SearchResult pairs a document with its retrieval score, higher is better.
type SearchResult struct {
	Document Document `json:"document"`
	Score    float64  `json:"score"`
}

// SearchOptions narrows a retrieval call.
type SearchOptions struct {
	TopK      int     `json:"top_k"`
	Threshold float64 `json:"threshold"`
}

// Texts projects results into a context bundle, keeping rank order.
// The result is never nil.
func Texts(results []SearchResult) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		if r.Document.Content == "" {
			continue
		}
		out = append(out, r.Document.Content)
	}
	return out
}

// Metadata keys set by retrievers and the indexer.
const (
	MetaSource = "source"
	MetaURL    = "url"
	MetaTitle  = "title"
	MetaFile   = "file"
)
