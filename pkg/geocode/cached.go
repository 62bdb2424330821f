package geocode

import (
	"context"
	"encoding/json"
	"time"

	"github.com/matzehuels/globe/pkg/cache"
	"github.com/matzehuels/globe/pkg/geo"
)

// Cached adds a cache in front of a Geocoder. Only successful lookups are
// stored.
type Cached struct {
	inner Geocoder
	cache cache.Cache
	keyer cache.Keyer
	ttl   time.Duration
}

// NewCached wraps inner. A nil keyer uses cache.DefaultKeyer and a zero ttl
// uses cache.TTLGeocode.
func NewCached(inner Geocoder, c cache.Cache, keyer cache.Keyer, ttl time.Duration) *Cached {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if ttl <= 0 {
		ttl = cache.TTLGeocode
	}
	return &Cached{inner: inner, cache: c, keyer: keyer, ttl: ttl}
}

func (c *Cached) Name() string { return c.inner.Name() }

func (c *Cached) Search(ctx context.Context, text string) ([]Feature, error) {
	key := c.keyer.GeocodeKey(c.inner.Name(), text)
	if data, ok, err := c.cache.Get(ctx, key); err == nil && ok {
		var fs []Feature
		if json.Unmarshal(data, &fs) == nil {
			return fs, nil
		}
	}
	fs, err := c.inner.Search(ctx, text)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(fs); err == nil {
		_ = c.cache.Set(ctx, key, data, c.ttl)
	}
	return fs, nil
}

func (c *Cached) Reverse(ctx context.Context, p geo.LngLat) (string, error) {
	key := c.keyer.ReverseKey(c.inner.Name(), p.Lng, p.Lat)
	if data, ok, err := c.cache.Get(ctx, key); err == nil && ok && len(data) > 0 {
		return string(data), nil
	}
	name, err := c.inner.Reverse(ctx, p)
	if err != nil {
		return "", err
	}
	_ = c.cache.Set(ctx, key, []byte(name), c.ttl)
	return name, nil
}
