package geocode

import (
	"context"
	"strings"

	"github.com/matzehuels/globe/pkg/errors"
	"github.com/matzehuels/globe/pkg/geo"
	"github.com/matzehuels/globe/pkg/integrations/nominatim"
)

// Nominatim geocodes with an OpenStreetMap Nominatim server.
type Nominatim struct {
	client *nominatim.Client
}

// NewNominatim returns a geocoder over client.
func NewNominatim(client *nominatim.Client) *Nominatim {
	return &Nominatim{client: client}
}

func (n *Nominatim) Name() string { return "nominatim" }

func (n *Nominatim) Search(ctx context.Context, text string) ([]Feature, error) {
	if err := errors.ValidateQuery(text); err != nil {
		return nil, nil
	}
	places, err := n.client.Search(ctx, text)
	if err != nil {
		return nil, err
	}
	out := make([]Feature, 0, len(places))
	for _, p := range places {
		out = append(out, fromNominatim(p))
	}
	return out, nil
}

func (n *Nominatim) Reverse(ctx context.Context, p geo.LngLat) (string, error) {
	return n.client.Reverse(ctx, p.Lng, p.Lat)
}

// fromNominatim maps an OSM place onto a Feature. Nominatim reports
// countries as boundary/administrative, so the class decides.
func fromNominatim(p nominatim.Place) Feature {
	var ctx []string
	parts := strings.Split(p.DisplayName, ",")
	for _, part := range parts[1:] {
		if s := strings.TrimSpace(part); s != "" {
			ctx = append(ctx, s)
		}
	}
	kind := p.Type
	if p.Class == "boundary" && p.Type == "administrative" && len(ctx) == 0 {
		kind = "country"
	}
	if p.Class == "place" && p.Type == "country" {
		kind = "country"
	}
	return Feature{
		ID:         p.ID,
		Name:       p.Name(),
		PlaceName:  p.DisplayName,
		Center:     geo.LngLat{Lng: p.Lon, Lat: p.Lat},
		PlaceTypes: []string{kind},
		Context:    ctx,
	}
}
