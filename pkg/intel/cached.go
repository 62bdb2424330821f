package intel

import (
	"context"
	"time"

	"github.com/matzehuels/globe/pkg/cache"
	"github.com/matzehuels/globe/pkg/observability"
)

// Cached stores the answers of another describer. The fixed failure and
// empty answers are never stored.
type Cached struct {
	inner Describer
	cache cache.Cache
	keyer cache.Keyer
	ttl   time.Duration
	model string
}

// NewCached wraps inner. model is part of the cache key so that answers
// from different models do not mix.
func NewCached(inner Describer, c cache.Cache, keyer cache.Keyer, ttl time.Duration, model string) *Cached {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if ttl <= 0 {
		ttl = cache.TTLDescription
	}
	if r, ok := inner.(*Remote); ok && model == "" {
		model = r.Model()
	}
	return &Cached{inner: inner, cache: c, keyer: keyer, ttl: ttl, model: model}
}

func (c *Cached) Source() string { return c.inner.Source() }

func (c *Cached) Describe(ctx context.Context, req Request) string {
	req = req.normalized()
	key := c.keyer.DescribeKey(cache.DescribeKeyOpts{
		Source: c.inner.Source(),
		Model:  c.model,
		Place:  req.Name(),
		Lat:    req.Lat,
		Lng:    req.Lng,
		Mode:   string(req.Mode),
	})
	if data, ok, err := c.cache.Get(ctx, key); err == nil && ok && len(data) > 0 {
		observability.Cache().OnCacheHit(ctx, key)
		return string(data)
	}
	observability.Cache().OnCacheMiss(ctx, key)

	text := c.inner.Describe(ctx, req)
	if text == FailureText || text == EmptyText {
		return text
	}
	if err := c.cache.Set(ctx, key, []byte(text), c.ttl); err == nil {
		observability.Cache().OnCacheSet(ctx, key, len(text))
	}
	return text
}
