// Package nominatim geocodes against an OpenStreetMap Nominatim server. It
// is the geocoder of choice when no Mapbox token is configured.
//
// Forward search goes through github.com/muesli/gominatim. That library
// keeps its server address in package state, so all searches in this
// process are serialised and spaced by [MinInterval], which also honours
// the public server's one-request-per-second usage policy.
//
// Reverse lookups use the jsonv2 /reverse endpoint through the shared
// integrations client and are cached.
package nominatim
