package workspace

import (
	"context"

	"github.com/matzehuels/globe/pkg/annotation"
	"github.com/matzehuels/globe/pkg/errors"
	"github.com/matzehuels/globe/pkg/geo"
	"github.com/matzehuels/globe/pkg/geocode"
	"github.com/matzehuels/globe/pkg/intel"
)

// =============================================================================
// Map clicks
// =============================================================================

// ClickResult reports what a map click did.
type ClickResult struct {
	// Placed is false when markers are disabled; nothing else happens then.
	Placed bool               `json:"placed"`
	Marker *annotation.Marker `json:"marker,omitempty"`
	Place  *intel.Place       `json:"place,omitempty"`

	// Generation is the panel request started for the click.
	Generation uint64 `json:"generation,omitempty"`
}

// Click handles a click on the map at p. With markers enabled it replaces
// the current marker, names the point by reverse geocoding (falling back to
// its coordinates) and opens the info panel for it.
func (w *Workspace) Click(ctx context.Context, p geo.LngLat) (ClickResult, error) {
	if err := w.requireMap(); err != nil {
		return ClickResult{}, err
	}
	if err := errors.ValidateLngLat(p.Lng, p.Lat); err != nil {
		return ClickResult{}, err
	}

	w.mu.Lock()
	if !w.markersEnabled {
		w.mu.Unlock()
		return ClickResult{}, nil
	}
	m, err := w.store.ReplaceMarkers(p, annotation.Style{Color: w.markerColor})
	if err != nil {
		w.mu.Unlock()
		return ClickResult{}, err
	}
	w.clicks++
	click := w.clicks
	w.mu.Unlock()

	name := geocode.ReverseOrFallback(ctx, w.geocoder, p)

	w.mu.Lock()
	defer w.mu.Unlock()
	res := ClickResult{Placed: true, Marker: &m}
	if click != w.clicks {
		// A newer click owns the panel.
		return res, nil
	}
	place := intel.Place{Name: name, Lat: p.Lat, Lng: p.Lng}
	res.Place = &place
	res.Generation = w.panel.Open(ctx, place)
	w.logger.Debug("click", "place", name)
	return res, nil
}

// =============================================================================
// Search
// =============================================================================

// Search geocodes text. Empty text and service failures yield no results.
func (w *Workspace) Search(ctx context.Context, text string) []geocode.Feature {
	if err := errors.ValidateQuery(text); err != nil {
		return nil
	}
	features, err := w.searcher().Search(ctx, text)
	if err != nil {
		w.logger.Warn("search failed", "query", text, "err", err)
		return nil
	}
	return features
}

// Type feeds a keystroke's worth of query text into the debounced
// suggester and returns its generation.
func (w *Workspace) Type(query string) uint64 {
	return w.suggester.Type(query)
}

// Suggestions returns the latest suggestion list.
func (w *Workspace) Suggestions() geocode.Suggestions {
	return w.suggester.Latest()
}

// SelectResult reports what selecting a search result did.
type SelectResult struct {
	Feature geocode.Feature    `json:"feature"`
	Marker  *annotation.Marker `json:"marker,omitempty"`
	Summary intel.Content      `json:"summary"`
}

// Select flies the camera to f, marks it when markers are enabled and
// makes it the selected feature. The info panel is left as it is and the
// suggestion list is cleared.
func (w *Workspace) Select(ctx context.Context, f geocode.Feature) (SelectResult, error) {
	if err := w.requireMap(); err != nil {
		return SelectResult{}, err
	}
	if err := errors.ValidateLngLat(f.Center.Lng, f.Center.Lat); err != nil {
		return SelectResult{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.provider.FlyTo(f.FlyTo())
	res := SelectResult{Feature: f}
	if w.markersEnabled {
		m, err := w.store.ReplaceMarkers(f.Center, annotation.Style{Color: w.markerColor, Name: f.Name})
		if err != nil {
			return SelectResult{}, err
		}
		res.Marker = &m
	}
	sel := f
	w.selected = &sel
	w.suggester.Clear()
	res.Summary = intel.Summarize(w.selected, w.panel.Mode())
	w.logger.Debug("select", "feature", f.DisplayName(), "zoom", f.FlyToZoom())
	return res, nil
}

// Selected returns the selected feature.
func (w *Workspace) Selected() (geocode.Feature, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.selected == nil {
		return geocode.Feature{}, false
	}
	return *w.selected, true
}

// Summary returns the local summary of the selected feature in the
// current mode.
func (w *Workspace) Summary() intel.Content {
	w.mu.Lock()
	defer w.mu.Unlock()
	return intel.Summarize(w.selected, w.panel.Mode())
}

// =============================================================================
// Info panel
// =============================================================================

// Panel returns the info panel state.
func (w *Workspace) Panel() intel.PanelState {
	return w.panel.State()
}

// OpenPanel opens the info panel for a named place without touching the
// map. It works with the map disabled.
func (w *Workspace) OpenPanel(ctx context.Context, place intel.Place) (uint64, error) {
	if err := errors.ValidatePlaceName(place.Name); err != nil {
		return 0, err
	}
	if err := errors.ValidateLngLat(place.Lng, place.Lat); err != nil {
		return 0, err
	}
	return w.panel.Open(ctx, place), nil
}

// SetMode switches the description mode. An open panel re-requests its
// content in the new mode.
func (w *Workspace) SetMode(ctx context.Context, mode string) (intel.PanelState, error) {
	m, err := intel.ValidateMode(mode)
	if err != nil {
		return intel.PanelState{}, err
	}
	w.panel.SetMode(ctx, m)
	return w.panel.State(), nil
}

// ClosePanel closes the info panel and removes the markers.
func (w *Workspace) ClosePanel() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.clicks++
	w.panel.Close()
	w.store.ClearMarkers()
}

// Describe asks the describer directly, bypassing the panel.
func (w *Workspace) Describe(ctx context.Context, req intel.Request) string {
	return w.describer.Describe(ctx, req)
}
