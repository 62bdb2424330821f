package intel

import (
	"strings"
	"testing"

	"github.com/matzehuels/globe/pkg/geo"
	"github.com/matzehuels/globe/pkg/geocode"
)

func TestSummarize(t *testing.T) {
	tokyo := &geocode.Feature{
		Name:       "Tokyo",
		PlaceName:  "Tokyo, Japan",
		Center:     geo.LngLat{Lng: 139.6917, Lat: 35.6895},
		PlaceTypes: []string{"region", "place"},
		Context:    []string{"Japan"},
	}

	tests := []struct {
		mode      Mode
		wantTitle string
		wantBody  string
	}{
		{ModeFacts, "Tokyo, Japan", "Type: region, place\nCoordinates: 35.6895, 139.6917\nContext: Japan"},
		{ModeStory, "A Short Tale — Tokyo", "Over 6 nights"},
		{ModeTravel, "Travel Tips — Tokyo", "Suggested stay: 7 days."},
		{ModeLore, "Lore — Tokyo", "Old tales say Tokyo once hosted a council of winds."},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			got := Summarize(tokyo, tt.mode)
			if got.Title != tt.wantTitle {
				t.Errorf("title = %q, want %q", got.Title, tt.wantTitle)
			}
			if !strings.Contains(got.Body, tt.wantBody) {
				t.Errorf("body = %q, want it to contain %q", got.Body, tt.wantBody)
			}
		})
	}
}

func TestSummarizeNoSelection(t *testing.T) {
	if got := Summarize(nil, ModeFacts); got != NoSelection {
		t.Errorf("Summarize(nil) = %+v", got)
	}
}

func TestSummarizeFactsWithoutContext(t *testing.T) {
	got := Summarize(&geocode.Feature{Name: "Null Island"}, ModeFacts)
	if strings.Contains(got.Body, "Context:") || !strings.HasPrefix(got.Body, "Type: —") {
		t.Errorf("body = %q", got.Body)
	}
	if got.Title != "Null Island" {
		t.Errorf("title = %q", got.Title)
	}
}
