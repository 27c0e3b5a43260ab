package embedding

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// CachedProvider memoizes embeddings per (task, text) so repeated messages
// such as double-sends do not pay for a second embedding call
type CachedProvider struct {
	inner EmbeddingProvider
	cache *cache.Cache
}

func NewCachedProvider(inner EmbeddingProvider, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		inner: inner,
		cache: cache.New(ttl, 2*ttl),
	}
}

func (p *CachedProvider) Generate(ctx context.Context, text string, taskType string) ([]float32, error) {
	key := taskType + "\x00" + text
	if v, found := p.cache.Get(key); found {
		return append([]float32(nil), v.([]float32)...), nil
	}

	vec, err := p.inner.Generate(ctx, text, taskType)
	if err != nil {
		return nil, err
	}

	p.cache.Set(key, append([]float32(nil), vec...), cache.DefaultExpiration)
	return vec, nil
}
