// Package geocode turns free text into places and places into names.
//
// A [Geocoder] is an adapter over a geocoding service. Two ship with the
// module: [Mapbox] (the default, requires a map token) and [Nominatim]
// (OpenStreetMap, no token). [Cached] adds a cache in front of either.
//
// [Suggester] turns a stream of keystrokes into search results the way a
// search box does: each keystroke restarts a fixed delay and only the
// results of the latest query are kept.
package geocode

import (
	"context"
	"slices"

	"github.com/matzehuels/globe/pkg/geo"
	"github.com/matzehuels/globe/pkg/mapview"
)

// Camera targets for selected features.
const (
	CountryZoom = 4.0
	PlaceZoom   = 8.0
	FlyToPitch  = 30.0
)

// Feature is one search result.
type Feature struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	PlaceName  string     `json:"place_name"`
	Center     geo.LngLat `json:"center"`
	PlaceTypes []string   `json:"place_types,omitempty"`
	Context    []string   `json:"context,omitempty"`
}

// Kind returns the feature's primary place type, or "place".
func (f Feature) Kind() string {
	if len(f.PlaceTypes) == 0 {
		return "place"
	}
	return f.PlaceTypes[0]
}

// IsCountry reports whether the feature is a country.
func (f Feature) IsCountry() bool {
	return slices.Contains(f.PlaceTypes, "country")
}

// FlyToZoom is the zoom the camera flies to when the feature is selected.
func (f Feature) FlyToZoom() float64 {
	if f.IsCountry() {
		return CountryZoom
	}
	return PlaceZoom
}

// FlyTo returns the camera move for selecting the feature.
func (f Feature) FlyTo() mapview.FlyTo {
	return mapview.FlyTo{Center: f.Center, Zoom: f.FlyToZoom(), Pitch: FlyToPitch}
}

// DisplayName returns PlaceName, falling back to Name.
func (f Feature) DisplayName() string {
	if f.PlaceName != "" {
		return f.PlaceName
	}
	return f.Name
}

// Geocoder is a forward and reverse geocoding service.
type Geocoder interface {
	// Search returns suggestions for text. Empty text yields no results.
	Search(ctx context.Context, text string) ([]Feature, error)

	// Reverse returns a human-readable name for p.
	Reverse(ctx context.Context, p geo.LngLat) (string, error)

	// Name identifies the service in logs and cache keys.
	Name() string
}

// FallbackName is the name used when reverse geocoding fails.
func FallbackName(p geo.LngLat) string { return p.String() }

// ReverseOrFallback reverse-geocodes p and absorbs any failure into
// FallbackName. A nil geocoder always falls back.
func ReverseOrFallback(ctx context.Context, g Geocoder, p geo.LngLat) string {
	if g == nil {
		return FallbackName(p)
	}
	name, err := g.Reverse(ctx, p)
	if err != nil || name == "" {
		return FallbackName(p)
	}
	return name
}
