package vectordb

import (
	"context"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/schema"
)

// Store is the internal vector index used by the retriever and the indexer.
type Store interface {
	Search(ctx context.Context, vector []float32, opts schema.SearchOptions) ([]schema.SearchResult, error)
	// Upsert writes docs keyed by ID, replacing any stored chunk with the same ID.
	Upsert(ctx context.Context, docs []schema.Document) error
	// DeleteFile removes every chunk whose file metadata equals file.
	DeleteFile(ctx context.Context, file string) error
	Close() error
}
