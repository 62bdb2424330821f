// Package integrations provides HTTP clients for the upstream services the
// globe talks to.
//
// Each service has its own subpackage:
//
//   - [mapbox]: forward/reverse geocoding and static map images
//   - [openai]: chat completions for place descriptions
//   - [nominatim]: OpenStreetMap geocoding, used when no map token is set
//
// # Shared Infrastructure
//
// The [Client] type provides the functionality shared by all of them:
// default headers, a 10s timeout, status classification into the sentinel
// errors of this package, retry of transient failures via
// [httputil.RetryWithBackoff], and response caching through a
// [cache.Cache] with a per-client key prefix and TTL.
//
// Service clients embed *Client and keep their own base URL so that tests
// can point them at an httptest server:
//
//	c := &mapbox.Client{Client: integrations.NewClient(cache.NewNullCache(), "mapbox:", time.Hour, nil)}
//
// [mapbox]: github.com/matzehuels/globe/pkg/integrations/mapbox
// [openai]: github.com/matzehuels/globe/pkg/integrations/openai
// [nominatim]: github.com/matzehuels/globe/pkg/integrations/nominatim
// [httputil.RetryWithBackoff]: github.com/matzehuels/globe/pkg/httputil.RetryWithBackoff
// [cache.Cache]: github.com/matzehuels/globe/pkg/cache.Cache
package integrations
