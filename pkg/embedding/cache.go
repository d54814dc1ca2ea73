package embedding

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// CachedProvider memoizes embeddings so that repeated queries (the common
// case for chat follow-ups) skip the backend round trip.
type CachedProvider struct {
	inner EmbeddingProvider
	cache *gocache.Cache
}

func NewCachedProvider(inner EmbeddingProvider, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedProvider{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

func (p *CachedProvider) Generate(text string, taskType string) (*EmbeddingResponse, error) {
	key := taskType + "\x00" + text
	if cached, ok := p.cache.Get(key); ok {
		return cached.(*EmbeddingResponse), nil
	}

	res, err := p.inner.Generate(text, taskType)
	if err != nil {
		return nil, err
	}

	p.cache.SetDefault(key, res)
	return res, nil
}
