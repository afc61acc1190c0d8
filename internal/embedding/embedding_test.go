package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/cache"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/config"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/errs"
)

func TestOpenAIEmbedderOrdersByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"a", "b"}, req.Input)
		assert.Equal(t, "text-embedding-3-small", req.Model)
		w.Header().Set("Content-Type", "application/json")
		// deliberately out of order
		_, _ = w.Write([]byte(`{"object":"list","model":"text-embedding-3-small","data":[
			{"object":"embedding","index":1,"embedding":[0,1]},
			{"object":"embedding","index":0,"embedding":[1,0]}
		],"usage":{"prompt_tokens":2,"total_tokens":2}}`))
	}))
	defer srv.Close()

	e, err := NewOpenAI(config.EmbeddingConfig{APIKey: "sk-test", BaseURL: srv.URL + "/"})
	require.NoError(t, err)
	vecs, err := e.Embed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, vecs)
}

func TestOpenAIEmbedderRequiresKey(t *testing.T) {
	_, err := NewEmbedder(config.EmbeddingConfig{Provider: "openai"})
	assert.ErrorIs(t, err, errs.ErrRetrievalUnavailable)
}

type fakeEmbedder struct {
	seen [][]string
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.seen = append(f.seen, texts)
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t))}
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int { return 1 }

func TestCachedOnlyEmbedsMisses(t *testing.T) {
	inner := &fakeEmbedder{}
	c := NewCached(inner, cache.NewLRU(16, time.Minute), 0)

	_, err := c.Embed(context.Background(), []string{"aa"})
	require.NoError(t, err)
	vecs, err := c.Embed(context.Background(), []string{"bbb", "aa"})
	require.NoError(t, err)

	assert.Equal(t, [][]float32{{3}, {2}}, vecs)
	assert.Equal(t, [][]string{{"aa"}, {"bbb"}}, inner.seen)

	v, err := EmbedOne(context.Background(), c, "aa")
	require.NoError(t, err)
	assert.Equal(t, []float32{2}, v)
}
