package mapbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/globe/pkg/cache"
	"github.com/matzehuels/globe/pkg/integrations"
)

const (
	defaultBaseURL = "https://api.mapbox.com"

	// SearchLimit is the number of suggestions requested per query.
	SearchLimit = 6

	// DefaultStyle is the style rendered by static image requests.
	DefaultStyle = "mapbox/satellite-streets-v12"

	// MaxStaticSize is the largest logical width or height accepted by the
	// Static Images API.
	MaxStaticSize = 1280
)

// ErrNoToken is returned when the client has no access token.
var ErrNoToken = errors.New("mapbox: access token not configured")

// Feature is one geocoding result.
type Feature struct {
	ID        string         `json:"id"`
	Text      string         `json:"text"`
	PlaceName string         `json:"place_name"`
	Center    [2]float64     `json:"center"` // lng, lat
	PlaceType []string       `json:"place_type"`
	Context   []ContextEntry `json:"context,omitempty"`
}

// ContextEntry is one level of a feature's administrative hierarchy.
type ContextEntry struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Client provides access to the Mapbox web services.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
	token   string
}

// NewClient creates a Mapbox client. Geocoding responses are cached in
// backend for cacheTTL.
func NewClient(backend cache.Cache, token string, cacheTTL time.Duration) *Client {
	return &Client{
		Client:  integrations.NewClient(backend, "mapbox:", cacheTTL, nil),
		baseURL: defaultBaseURL,
		token:   token,
	}
}

// WithBaseURL points the client at an API-compatible endpoint.
func (c *Client) WithBaseURL(u string) *Client {
	if u != "" {
		c.baseURL = strings.TrimRight(u, "/")
	}
	return c
}

// HasToken reports whether an access token is configured.
func (c *Client) HasToken() bool { return c.token != "" }

// Search geocodes free text into at most [SearchLimit] suggestions.
func (c *Client) Search(ctx context.Context, query string, refresh bool) ([]Feature, error) {
	if c.token == "" {
		return nil, ErrNoToken
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	var resp apiResponse
	err := c.Cached(ctx, "search:"+strings.ToLower(query), refresh, &resp, func() error {
		u := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%s.json?access_token=%s&autocomplete=true&limit=%d",
			c.baseURL, integrations.PathEncode(query), integrations.URLEncode(c.token), SearchLimit)
		return c.Get(ctx, u, &resp)
	})
	if err != nil {
		return nil, err
	}
	return resp.Features, nil
}

// Reverse returns the place_name of the best feature at lng/lat.
// It returns [integrations.ErrNotFound] when nothing is there (open ocean).
func (c *Client) Reverse(ctx context.Context, lng, lat float64, refresh bool) (string, error) {
	if c.token == "" {
		return "", ErrNoToken
	}
	key := fmt.Sprintf("reverse:%.5f,%.5f", lng, lat)

	var resp apiResponse
	err := c.Cached(ctx, key, refresh, &resp, func() error {
		u := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%f,%f.json?access_token=%s&limit=1",
			c.baseURL, lng, lat, integrations.URLEncode(c.token))
		return c.Get(ctx, u, &resp)
	})
	if err != nil {
		return "", err
	}
	if len(resp.Features) == 0 || resp.Features[0].PlaceName == "" {
		return "", fmt.Errorf("%w: no feature at %.4f, %.4f", integrations.ErrNotFound, lat, lng)
	}
	return resp.Features[0].PlaceName, nil
}

type apiResponse struct {
	Features []Feature `json:"features"`
}
