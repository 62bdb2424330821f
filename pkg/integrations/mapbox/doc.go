// Package mapbox provides an HTTP client for the Mapbox web services used by
// the globe: forward and reverse geocoding (Geocoding API v5) and rendered
// map images (Static Images API).
//
// # Usage
//
//	client := mapbox.NewClient(backend, token, cache.TTLGeocode)
//
//	features, err := client.Search(ctx, "Kyoto", false)
//	name, err := client.Reverse(ctx, 135.7681, 35.0116, false)
//
//	img, err := client.StaticImage(ctx, mapbox.StaticRequest{
//	    Lng: 0, Lat: 20, Zoom: 1.2, Width: 800, Height: 500, Retina: true,
//	}, "https://globe.example")
//
// # Geocoding
//
// Forward queries use autocomplete and are limited to six suggestions.
// Reverse lookups request a single feature and return its place_name.
// Both are cached under the client's prefix.
//
// # Static images
//
// Static images are not cached by this client. The response carries the
// CORS decision of the upstream for the requesting origin, which callers use
// to decide whether the pixels may be read back for export.
package mapbox
