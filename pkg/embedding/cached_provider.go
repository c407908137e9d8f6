package embedding

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	DefaultMemoTTL     = 10 * time.Minute
	defaultMemoCleanup = 20 * time.Minute
)

// CachedDenseEmbedder memoizes embeddings per exact text. Repeated questions
// skip the model round-trip before they ever reach the semantic cache.
type CachedDenseEmbedder struct {
	inner DenseEmbedder
	cache *cache.Cache
}

func NewCachedDenseEmbedder(inner DenseEmbedder, ttl time.Duration) *CachedDenseEmbedder {
	if ttl <= 0 {
		ttl = DefaultMemoTTL
	}
	return &CachedDenseEmbedder{
		inner: inner,
		cache: cache.New(ttl, defaultMemoCleanup),
	}
}

func (c *CachedDenseEmbedder) EmbedDense(ctx context.Context, text string) ([]float32, error) {
	if x, found := c.cache.Get(text); found {
		return x.([]float32), nil
	}

	vec, err := c.inner.EmbedDense(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Set(text, vec, cache.DefaultExpiration)
	return vec, nil
}

func (c *CachedDenseEmbedder) ItemCount() int {
	return c.cache.ItemCount()
}
