package retriever

import (
	"context"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/embedding"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/schema"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/vectordb"
)

// VectorRetriever implements Retriever using embedding+vector store backend.
type VectorRetriever struct {
	Embed embedding.Embedder
	Store vectordb.Store
	TopK  int
	// Threshold drops results scoring below it.
	Threshold float64
}

func (r *VectorRetriever) Type() string { return "vector" }

func (r *VectorRetriever) Search(ctx context.Context, query string, topK int) ([]schema.SearchResult, error) {
	if topK <= 0 {
		if r.TopK > 0 {
			topK = r.TopK
		} else {
			topK = 10
		}
	}
	v, err := embedding.EmbedOne(ctx, r.Embed, query)
	if err != nil {
		return nil, err
	}
	return r.Store.Search(ctx, v, schema.SearchOptions{TopK: topK, Threshold: r.Threshold})
}
