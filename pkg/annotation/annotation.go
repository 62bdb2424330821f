// Package annotation holds the markers and legend items placed on the map.
//
// The [Store] is the single owner of annotation entries. Every entry is
// mirrored by exactly one marker element on the injected
// [mapview.Provider]: the element is placed before the entry is recorded,
// and removing an entry releases its element in the same call.
//
// Two collections exist:
//   - markers: the search/click markers (usually at most one)
//   - legend items: a human label plus one draggable illustrative marker,
//     listed in the exported legend panel
package annotation

import (
	"sync"
	"time"

	"github.com/matzehuels/globe/pkg/geo"
	"github.com/matzehuels/globe/pkg/mapview"
)

// Defaults for new entries.
const (
	DefaultMarkerColor = "#ff5b5b"
	DefaultLegendColor = "#6b7cff"
	DefaultLegendLabel = "Point of Interest"
	NewLegendColor     = "#ff5b5b"
	NewLegendLabel     = "New item"
)

// Style is the visual description shared by markers and legend items.
type Style struct {
	Color string            `json:"color"`
	Kind  mapview.GlyphKind `json:"kind"`
	Emoji string            `json:"emoji,omitempty"`
	Label string            `json:"label,omitempty"`
	Name  string            `json:"name,omitempty"`
}

func (s Style) element(draggable bool) mapview.Element {
	return mapview.Element{
		Kind:      s.Kind,
		Color:     s.Color,
		Emoji:     s.Emoji,
		Label:     s.Label,
		Draggable: draggable,
	}
}

// Marker is a point annotation.
type Marker struct {
	ID       int64      `json:"id"`
	Position geo.LngLat `json:"position"`
	Style

	Handle mapview.MarkerHandle `json:"-"`
}

// LegendItem is a labelled illustrative marker.
type LegendItem struct {
	ID       int64      `json:"id"`
	Position geo.LngLat `json:"position"`
	Style

	Handle mapview.MarkerHandle `json:"-"`
}

// LegendPatch changes selected fields of a legend item.
type LegendPatch struct {
	Color *string            `json:"color,omitempty"`
	Label *string            `json:"label,omitempty"`
	Kind  *mapview.GlyphKind `json:"kind,omitempty"`
	Emoji *string            `json:"emoji,omitempty"`
}

// Clock issues creation-order ids: millisecond timestamps that are strictly
// increasing even when several are requested within one millisecond.
type Clock struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

// NewClock returns a clock reading now (time.Now when nil).
func NewClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now}
}

// Next returns the next id.
func (c *Clock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.now().UnixMilli()
	if id <= c.last {
		id = c.last + 1
	}
	c.last = id
	return id
}
