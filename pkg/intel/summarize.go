package intel

import (
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/matzehuels/globe/pkg/geocode"
)

// NoSelection is shown when no search result is selected.
var NoSelection = Content{
	Title: "No place selected",
	Body:  "Search for a city or country to see content.",
}

// Summarize builds the local content card for a selected search result.
// It needs no network: facts lists what the geocoder returned and the
// other modes fill templates with a number seeded from the name.
func Summarize(f *geocode.Feature, mode Mode) Content {
	if f == nil {
		return NoSelection
	}
	mode = ParseMode(string(mode))
	name := f.Name
	if name == "" {
		name = f.PlaceName
	}

	switch mode {
	case ModeStory:
		return Content{
			Title: "A Short Tale — " + name,
			Body: fmt.Sprintf("At dusk in %s, a wandering soul listened to the tide of light. "+
				"Over %d nights they followed a trail of lanterns and found a small secret the locals kept: "+
				"humility in the face of vast horizons.", name, 1+seeded(name, mode, 1)),
		}
	case ModeTravel:
		return Content{
			Title: "Travel Tips — " + name,
			Body: fmt.Sprintf("Highlights: explore the historic quarter, sample street markets, and seek sunrise views. "+
				"Suggested stay: %d days. Local tip: try the seasonal specialty and look for small guided walks.",
				2+seeded(name, mode, 2)),
		}
	case ModeLore:
		return Content{
			Title: "Lore — " + name,
			Body: fmt.Sprintf("Old tales say %s once hosted a council of winds. If you stand very still at the right ridge, "+
				"the stones will sing the names of long-forgotten travelers.", name),
		}
	}

	types := "—"
	if len(f.PlaceTypes) > 0 {
		types = strings.Join(f.PlaceTypes, ", ")
	}
	lines := []string{
		"Type: " + types,
		fmt.Sprintf("Coordinates: %.4f, %.4f", f.Center.Lat, f.Center.Lng),
	}
	if len(f.Context) > 0 {
		lines = append(lines, "Context: "+strings.Join(f.Context, ", "))
	}
	return Content{Title: f.DisplayName(), Body: strings.Join(lines, "\n")}
}

// seeded returns a number in [0, 6) derived from the UTF-16 code units of
// "name-mode", offset by n.
func seeded(name string, mode Mode, n int) int {
	sum := 0
	for _, u := range utf16.Encode([]rune(name + "-" + string(mode))) {
		sum += int(u)
	}
	v := sum + n
	if v < 0 {
		v = -v
	}
	return v % 6
}
