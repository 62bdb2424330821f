package geocode

import (
	"context"

	"github.com/matzehuels/globe/pkg/errors"
	"github.com/matzehuels/globe/pkg/geo"
	"github.com/matzehuels/globe/pkg/integrations/mapbox"
)

// Mapbox geocodes with the Mapbox Geocoding API.
type Mapbox struct {
	client *mapbox.Client
}

// NewMapbox returns a geocoder over client.
func NewMapbox(client *mapbox.Client) *Mapbox {
	return &Mapbox{client: client}
}

func (m *Mapbox) Name() string { return "mapbox" }

func (m *Mapbox) Search(ctx context.Context, text string) ([]Feature, error) {
	if err := errors.ValidateQuery(text); err != nil {
		return nil, nil
	}
	raw, err := m.client.Search(ctx, text, false)
	if err != nil {
		return nil, err
	}
	out := make([]Feature, 0, len(raw))
	for _, f := range raw {
		out = append(out, fromMapbox(f))
	}
	return out, nil
}

func (m *Mapbox) Reverse(ctx context.Context, p geo.LngLat) (string, error) {
	return m.client.Reverse(ctx, p.Lng, p.Lat, false)
}

func fromMapbox(f mapbox.Feature) Feature {
	ctx := make([]string, 0, len(f.Context))
	for _, c := range f.Context {
		ctx = append(ctx, c.Text)
	}
	name := f.Text
	if name == "" {
		name = f.PlaceName
	}
	return Feature{
		ID:         f.ID,
		Name:       name,
		PlaceName:  f.PlaceName,
		Center:     geo.LngLat{Lng: f.Center[0], Lat: f.Center[1]},
		PlaceTypes: f.PlaceType,
		Context:    ctx,
	}
}
