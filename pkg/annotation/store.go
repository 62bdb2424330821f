package annotation

import (
	"slices"
	"sync"

	"github.com/matzehuels/globe/pkg/errors"
	"github.com/matzehuels/globe/pkg/geo"
	"github.com/matzehuels/globe/pkg/mapview"
)

// Store owns markers and legend items. It is safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	provider mapview.Provider
	clock    *Clock

	markers []Marker
	legend  []LegendItem
}

// NewStore returns an empty store over provider. A nil clock uses the wall
// clock.
func NewStore(provider mapview.Provider, clock *Clock) *Store {
	if clock == nil {
		clock = NewClock(nil)
	}
	return &Store{provider: provider, clock: clock}
}

func normalize(s Style, fallback string) (Style, error) {
	if s.Color == "" {
		s.Color = fallback
	}
	if err := errors.ValidateColor(s.Color); err != nil {
		return s, err
	}
	if s.Kind == "" {
		s.Kind = mapview.GlyphPin
	}
	if !s.Kind.Valid() {
		return s, errors.New(errors.ErrCodeInvalidInput, "unknown glyph kind %q", s.Kind)
	}
	if s.Kind == mapview.GlyphEmoji && s.Emoji == "" {
		return s, errors.New(errors.ErrCodeInvalidInput, "emoji marker needs an emoji")
	}
	return s, nil
}

// =============================================================================
// Markers
// =============================================================================

// AddMarker places a marker at pos.
func (s *Store) AddMarker(pos geo.LngLat, style Style) (Marker, error) {
	if err := errors.ValidateLngLat(pos.Lng, pos.Lat); err != nil {
		return Marker{}, err
	}
	style, err := normalize(style, DefaultMarkerColor)
	if err != nil {
		return Marker{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addMarkerLocked(pos, style)
}

func (s *Store) addMarkerLocked(pos geo.LngLat, style Style) (Marker, error) {
	h, err := s.provider.PlaceMarker(pos, style.element(false))
	if err != nil {
		return Marker{}, err
	}
	m := Marker{ID: s.clock.Next(), Position: pos, Style: style, Handle: h}
	s.markers = append(s.markers, m)
	return m, nil
}

// ReplaceMarkers clears all markers and places a single new one, the
// behaviour of search selection and map clicks.
func (s *Store) ReplaceMarkers(pos geo.LngLat, style Style) (Marker, error) {
	if err := errors.ValidateLngLat(pos.Lng, pos.Lat); err != nil {
		return Marker{}, err
	}
	style, err := normalize(style, DefaultMarkerColor)
	if err != nil {
		return Marker{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearMarkersLocked()
	return s.addMarkerLocked(pos, style)
}

// RemoveMarker removes the marker with id and releases its element.
func (s *Store) RemoveMarker(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.markers, func(m Marker) bool { return m.ID == id })
	if i < 0 {
		return errors.New(errors.ErrCodeMarkerNotFound, "marker %d", id)
	}
	_ = s.provider.RemoveMarker(s.markers[i].Handle)
	s.markers = slices.Delete(s.markers, i, i+1)
	return nil
}

// ClearMarkers removes every marker. Element removal is best effort.
func (s *Store) ClearMarkers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearMarkersLocked()
}

func (s *Store) clearMarkersLocked() {
	for _, m := range s.markers {
		_ = s.provider.RemoveMarker(m.Handle)
	}
	s.markers = nil
}

// Markers returns the markers in creation order.
func (s *Store) Markers() []Marker {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.markers)
}

// =============================================================================
// Legend
// =============================================================================

// AddLegendItem adds an item with its draggable marker at the current map
// centre. Empty color and label select the new-item defaults.
func (s *Store) AddLegendItem(style Style) (LegendItem, error) {
	if style.Label == "" {
		style.Label = NewLegendLabel
	}
	style, err := normalize(style, NewLegendColor)
	if err != nil {
		return LegendItem{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	pos := s.provider.Center()
	h, err := s.provider.PlaceMarker(pos, style.element(true))
	if err != nil {
		return LegendItem{}, err
	}
	it := LegendItem{ID: s.clock.Next(), Position: pos, Style: style, Handle: h}
	s.legend = append(s.legend, it)
	return it, nil
}

// UpdateLegendItem applies patch. A visual change replaces the item's
// marker element at its current position.
func (s *Store) UpdateLegendItem(id int64, patch LegendPatch) (LegendItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.legend, func(it LegendItem) bool { return it.ID == id })
	if i < 0 {
		return LegendItem{}, errors.New(errors.ErrCodeNotFound, "legend item %d", id)
	}
	it := s.legend[i]
	next := it.Style
	if patch.Color != nil {
		next.Color = *patch.Color
	}
	if patch.Label != nil {
		next.Label = *patch.Label
	}
	if patch.Kind != nil {
		next.Kind = *patch.Kind
	}
	if patch.Emoji != nil {
		next.Emoji = *patch.Emoji
	}
	next, err := normalize(next, NewLegendColor)
	if err != nil {
		return LegendItem{}, err
	}

	if next.element(true) != it.Style.element(true) {
		if pos, ok := s.provider.MarkerPosition(it.Handle); ok {
			it.Position = pos
		}
		h, err := s.provider.PlaceMarker(it.Position, next.element(true))
		if err != nil {
			return LegendItem{}, err
		}
		_ = s.provider.RemoveMarker(it.Handle)
		it.Handle = h
	}
	it.Style = next
	s.legend[i] = it
	return it, nil
}

// MoveLegendItem records a drag of the item's marker to pos.
func (s *Store) MoveLegendItem(id int64, pos geo.LngLat) (LegendItem, error) {
	if err := errors.ValidateLngLat(pos.Lng, pos.Lat); err != nil {
		return LegendItem{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.legend, func(it LegendItem) bool { return it.ID == id })
	if i < 0 {
		return LegendItem{}, errors.New(errors.ErrCodeNotFound, "legend item %d", id)
	}
	if err := s.provider.MoveMarker(s.legend[i].Handle, pos); err != nil {
		return LegendItem{}, err
	}
	s.legend[i].Position = pos
	return s.legend[i], nil
}

// RemoveLegendItem removes the item and releases its marker.
func (s *Store) RemoveLegendItem(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.legend, func(it LegendItem) bool { return it.ID == id })
	if i < 0 {
		return errors.New(errors.ErrCodeNotFound, "legend item %d", id)
	}
	_ = s.provider.RemoveMarker(s.legend[i].Handle)
	s.legend = slices.Delete(s.legend, i, i+1)
	return nil
}

// LegendItems returns the legend in insertion order.
func (s *Store) LegendItems() []LegendItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.legend)
}

// =============================================================================
// Snapshot
// =============================================================================

// Placed is an entry with its on-screen geometry at snapshot time.
type Placed struct {
	Style
	Box       *geo.Rect
	Projected geo.Point
}

// Snapshot captures the visual state needed for export: markers then
// legend markers with their live boxes, and the legend rows in order.
func (s *Store) Snapshot() (glyphs []Placed, legend []Style) {
	s.mu.Lock()
	defer s.mu.Unlock()
	place := func(st Style, h mapview.MarkerHandle, pos geo.LngLat) Placed {
		p := Placed{Style: st, Projected: s.provider.Project(pos)}
		if box, ok := s.provider.MarkerBox(h); ok {
			p.Box = &box
		}
		return p
	}
	for _, m := range s.markers {
		glyphs = append(glyphs, place(m.Style, m.Handle, m.Position))
	}
	for _, it := range s.legend {
		pos := it.Position
		if live, ok := s.provider.MarkerPosition(it.Handle); ok {
			pos = live
		}
		glyphs = append(glyphs, place(it.Style, it.Handle, pos))
		legend = append(legend, it.Style)
	}
	return glyphs, legend
}
