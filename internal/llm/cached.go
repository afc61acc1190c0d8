package llm

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"time"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/cache"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/common/logger"
)

// CachedProvider memoizes completions keyed by sha1(model|prompt).
type CachedProvider struct {
	inner Provider
	cache cache.Cache
	model string
	ttl   time.Duration
}

type cachedStructured struct {
	*CachedProvider
	sp StructuredProvider
}

// NewCached wraps p. The result keeps p's structured-output capability.
func NewCached(p Provider, c cache.Cache, model string, ttl time.Duration) Provider {
	cp := &CachedProvider{inner: p, cache: c, model: model, ttl: ttl}
	if sp, ok := p.(StructuredProvider); ok {
		return &cachedStructured{CachedProvider: cp, sp: sp}
	}
	return cp
}

type acceptKey struct{}

// WithAccept scopes ctx so cached providers only store and serve replies for
// which fn returns true. Rejected replies always reach the inner provider again.
func WithAccept(ctx context.Context, fn func(string) bool) context.Context {
	return context.WithValue(ctx, acceptKey{}, fn)
}

func accepted(ctx context.Context, out string) bool {
	fn, ok := ctx.Value(acceptKey{}).(func(string) bool)
	return !ok || fn(out)
}

func (c *CachedProvider) GetProviderType() string { return c.inner.GetProviderType() }

func (c *CachedProvider) GenerateCompletion(ctx context.Context, prompt string) (string, error) {
	key := cacheKey(c.model, prompt)
	if v, ok := c.cache.Get(ctx, key); ok && accepted(ctx, v) {
		logger.Debugf("llm: cache hit %s", key[:8])
		return v, nil
	}
	out, err := c.inner.GenerateCompletion(ctx, prompt)
	if err != nil {
		return "", err
	}
	if accepted(ctx, out) {
		c.cache.Set(ctx, key, out, c.ttl)
	}
	return out, nil
}

func (c *cachedStructured) GenerateJSON(ctx context.Context, prompt, name string, schema map[string]any) (string, error) {
	key := cacheKey(c.model, "json:"+name+"|"+prompt)
	if v, ok := c.cache.Get(ctx, key); ok && accepted(ctx, v) {
		return v, nil
	}
	out, err := c.sp.GenerateJSON(ctx, prompt, name, schema)
	if err != nil {
		return "", err
	}
	if accepted(ctx, out) {
		c.cache.Set(ctx, key, out, c.ttl)
	}
	return out, nil
}

func cacheKey(model, prompt string) string {
	sum := sha1.Sum([]byte(model + "|" + prompt))
	return "llm:" + hex.EncodeToString(sum[:])
}
