package embedding

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/cache"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/config"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/errs"
)

// Embedder turns texts into dense vectors, one per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// NewEmbedder builds the configured embedder.
func NewEmbedder(cfg config.EmbeddingConfig) (Embedder, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAI(cfg)
	default:
		return nil, errs.New(errs.ErrRetrievalUnavailable, "embedding.new", fmt.Sprintf("unsupported provider %q", cfg.Provider))
	}
}

// EmbedOne embeds a single query.
func EmbedOne(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, errs.New(errs.ErrRetrievalUnavailable, "embedding.embed", fmt.Sprintf("expected 1 vector, got %d", len(vecs)))
	}
	return vecs[0], nil
}

type OpenAIEmbedder struct {
	client openai.Client
	model  string
	dims   int
}

func NewOpenAI(cfg config.EmbeddingConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, errs.New(errs.ErrRetrievalUnavailable, "embedding.new", "openai api key is required")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: 30 * time.Second}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := cfg.Model
	if model == "" {
		model = "text-embedding-3-small"
	}
	return &OpenAIEmbedder{client: openai.NewClient(opts...), model: model, dims: cfg.Dimensions}, nil
}

func (e *OpenAIEmbedder) Dimensions() int { return e.dims }

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	params := openai.EmbeddingNewParams{
		Input:          openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model:          openai.EmbeddingModel(e.model),
		EncodingFormat: openai.EmbeddingNewParamsEncodingFormatFloat,
	}
	if e.dims > 0 {
		params.Dimensions = openai.Int(int64(e.dims))
	}
	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, errs.Wrap(errs.ErrRetrievalUnavailable, "embedding.embed", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, errs.New(errs.ErrRetrievalUnavailable, "embedding.embed", fmt.Sprintf("expected %d vectors, got %d", len(texts), len(resp.Data)))
	}
	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(out) {
			return nil, errs.New(errs.ErrRetrievalUnavailable, "embedding.embed", fmt.Sprintf("vector index %d out of range", d.Index))
		}
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		out[d.Index] = vec
	}
	return out, nil
}

// Cached memoizes vectors per text; only misses reach the inner embedder.
type Cached struct {
	inner Embedder
	cache cache.Cache
	ttl   time.Duration
}

func NewCached(inner Embedder, c cache.Cache, ttl time.Duration) *Cached {
	return &Cached{inner: inner, cache: c, ttl: ttl}
}

func (c *Cached) Dimensions() int { return c.inner.Dimensions() }

func (c *Cached) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int
	for i, t := range texts {
		if raw, ok := c.cache.Get(ctx, key(t)); ok {
			var vec []float32
			if json.Unmarshal([]byte(raw), &vec) == nil {
				out[i] = vec
				continue
			}
		}
		missing = append(missing, t)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return out, nil
	}
	vecs, err := c.inner.Embed(ctx, missing)
	if err != nil {
		return nil, err
	}
	for j, vec := range vecs {
		out[missingIdx[j]] = vec
		if b, err := json.Marshal(vec); err == nil {
			c.cache.Set(ctx, key(missing[j]), string(b), c.ttl)
		}
	}
	return out, nil
}

func key(text string) string {
	sum := sha1.Sum([]byte(text))
	return "emb:" + hex.EncodeToString(sum[:])
}
