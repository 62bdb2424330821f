package cache

import (
	"math"
	"strings"
)

// Keyer derives cache keys for the kinds of data the application caches.
type Keyer interface {
	// HTTPKey is the key for a raw HTTP response in namespace ns.
	HTTPKey(ns, key string) string

	// DescribeKey is the key for a generated place description.
	DescribeKey(opts DescribeKeyOpts) string

	// GeocodeKey is the key for a forward geocoding query.
	GeocodeKey(provider, query string) string

	// ReverseKey is the key for a reverse geocoding lookup.
	ReverseKey(provider string, lng, lat float64) string
}

// DescribeKeyOpts identifies one description request.
type DescribeKeyOpts struct {
	Source string  `json:"source"` // "openai", "offline"
	Model  string  `json:"model,omitempty"`
	Place  string  `json:"place"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Mode   string  `json:"mode"`
}

// DefaultKeyer is the standard [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) HTTPKey(ns, key string) string {
	return "http:" + ns + ":" + key
}

func (DefaultKeyer) DescribeKey(opts DescribeKeyOpts) string {
	opts.Place = strings.ToLower(strings.TrimSpace(opts.Place))
	opts.Mode = strings.ToLower(opts.Mode)
	// Coordinates are rounded to ~10m so repeated clicks on the same spot hit.
	return hashKey("describe", opts.Source, opts.Model, opts.Place,
		roundTo(opts.Lat, 4), roundTo(opts.Lng, 4), opts.Mode)
}

func (DefaultKeyer) GeocodeKey(provider, query string) string {
	return hashKey("geocode", provider, strings.ToLower(strings.TrimSpace(query)))
}

func (DefaultKeyer) ReverseKey(provider string, lng, lat float64) string {
	return hashKey("reverse", provider, roundTo(lng, 5), roundTo(lat, 5))
}

// ScopedKeyer prefixes every key of an inner [Keyer], giving each tenant or
// deployment its own namespace in a shared backend.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner (DefaultKeyer when nil) with prefix.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) HTTPKey(ns, key string) string {
	return k.prefix + k.inner.HTTPKey(ns, key)
}

func (k *ScopedKeyer) DescribeKey(opts DescribeKeyOpts) string {
	return k.prefix + k.inner.DescribeKey(opts)
}

func (k *ScopedKeyer) GeocodeKey(provider, query string) string {
	return k.prefix + k.inner.GeocodeKey(provider, query)
}

func (k *ScopedKeyer) ReverseKey(provider string, lng, lat float64) string {
	return k.prefix + k.inner.ReverseKey(provider, lng, lat)
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
