package nominatim

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/muesli/gominatim"

	"github.com/matzehuels/globe/pkg/cache"
	"github.com/matzehuels/globe/pkg/httputil"
	"github.com/matzehuels/globe/pkg/integrations"
)

const (
	// DefaultServer is the public OpenStreetMap Nominatim instance.
	DefaultServer = "https://nominatim.openstreetmap.org"

	// MinInterval is the minimum spacing between searches.
	MinInterval = time.Second

	searchLimit = 6
	userAgent   = "globe (https://github.com/matzehuels/globe)"
)

// Place is one search result.
type Place struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Class       string  `json:"class"`
	Type        string  `json:"type"`
}

// Name returns the first component of the display name.
func (p Place) Name() string {
	name, _, _ := strings.Cut(p.DisplayName, ",")
	return strings.TrimSpace(name)
}

var (
	searchMu   sync.Mutex
	lastSearch time.Time
)

// Client talks to one Nominatim server.
type Client struct {
	*integrations.Client
	server   string
	interval time.Duration
}

// NewClient creates a client for server (DefaultServer when empty).
// Reverse lookups are cached in backend for cacheTTL.
func NewClient(backend cache.Cache, server string, cacheTTL time.Duration) *Client {
	if server == "" {
		server = DefaultServer
	}
	return &Client{
		Client:   integrations.NewClient(backend, "nominatim:", cacheTTL, map[string]string{"User-Agent": userAgent}),
		server:   strings.TrimRight(server, "/"),
		interval: MinInterval,
	}
}

// Search geocodes free text into at most six places.
func (c *Client) Search(ctx context.Context, query string) ([]Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	var results []gominatim.SearchResult
	err := httputil.RetryWithBackoff(ctx, func() error {
		res, err := c.search(ctx, query)
		if err != nil {
			// gominatim surfaces truncated bodies as JSON decode errors.
			if strings.Contains(err.Error(), "EOF") {
				return httputil.Retryable(fmt.Errorf("%w: %v", integrations.ErrNetwork, err))
			}
			return fmt.Errorf("%w: %v", integrations.ErrNetwork, err)
		}
		results = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	places := make([]Place, 0, len(results))
	for _, r := range results {
		lat, errLat := strconv.ParseFloat(r.Lat, 64)
		lon, errLon := strconv.ParseFloat(r.Lon, 64)
		if errLat != nil || errLon != nil {
			continue
		}
		places = append(places, Place{
			ID:          r.Class + "." + r.Type + ":" + r.DisplayName,
			DisplayName: r.DisplayName,
			Lat:         lat,
			Lon:         lon,
			Class:       r.Class,
			Type:        r.Type,
		})
	}
	return places, nil
}

func (c *Client) search(ctx context.Context, query string) ([]gominatim.SearchResult, error) {
	searchMu.Lock()
	defer searchMu.Unlock()

	if wait := c.interval - time.Since(lastSearch); wait > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	lastSearch = time.Now()

	gominatim.SetServer(c.server)
	q := gominatim.SearchQuery{Q: query, Limit: searchLimit}
	return q.Get()
}

// Reverse returns the display name of the place at lon/lat.
func (c *Client) Reverse(ctx context.Context, lon, lat float64) (string, error) {
	key := fmt.Sprintf("reverse:%.5f,%.5f", lon, lat)
	var resp reverseResponse
	err := c.Cached(ctx, key, false, &resp, func() error {
		u := fmt.Sprintf("%s/reverse?format=jsonv2&lat=%f&lon=%f", c.server, lat, lon)
		return c.Get(ctx, u, &resp)
	})
	if err != nil {
		return "", err
	}
	if resp.Error != "" || resp.DisplayName == "" {
		return "", fmt.Errorf("%w: %s", integrations.ErrNotFound, resp.Error)
	}
	return resp.DisplayName, nil
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error,omitempty"`
}
