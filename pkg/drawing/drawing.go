// Package drawing implements freehand sketching on the map surface.
//
// The [Engine] is a small state machine:
//
//	idle ──Start/Edit──▶ active(id) ──Finish/Start/Edit/Remove──▶ idle
//
// While a drawing is active, camera gestures are disabled so that pointer
// drags draw instead of panning. A left-button press opens a stroke, moves
// extend it and release closes it. Each drawing owns one line layer on the
// provider (id "infographic-draw-<id>") whose geometry is the drawing's
// strokes concatenated in order; the layer exists exactly as long as the
// drawing does.
//
// Every transition is reported to subscribed observers as an [Event].
package drawing

import (
	"fmt"
	"slices"

	"github.com/matzehuels/globe/pkg/geo"
	"github.com/matzehuels/globe/pkg/mapview"
)

// DefaultColor is the stroke color when none is given.
const DefaultColor = "#ff5b5b"

// LayerPrefix prefixes every drawing layer id.
const LayerPrefix = "infographic-draw-"

// LeftButton is the only pointer button that draws.
const LeftButton = 0

// LayerID returns the provider layer id for drawing id.
func LayerID(id int64) string { return fmt.Sprintf("%s%d", LayerPrefix, id) }

// Drawing is one sketch.
type Drawing struct {
	ID      int64          `json:"id"`
	Color   string         `json:"color"`
	Label   string         `json:"label"`
	Strokes [][]geo.LngLat `json:"strokes"`

	Layer mapview.LayerHandle `json:"-"`
}

// Coordinates returns the strokes concatenated in order.
func (d Drawing) Coordinates() []geo.LngLat {
	n := 0
	for _, s := range d.Strokes {
		n += len(s)
	}
	out := make([]geo.LngLat, 0, n)
	for _, s := range d.Strokes {
		out = append(out, s...)
	}
	return out
}

func (d *Drawing) clone() Drawing {
	c := *d
	c.Strokes = make([][]geo.LngLat, len(d.Strokes))
	for i, s := range d.Strokes {
		c.Strokes[i] = slices.Clone(s)
	}
	return c
}

// EventKind names an engine transition.
type EventKind string

const (
	EventCreated      EventKind = "created"
	EventActivated    EventKind = "activated"
	EventFinished     EventKind = "finished"
	EventStrokeOpened EventKind = "stroke_opened"
	EventStrokeClosed EventKind = "stroke_closed"
	EventUndone       EventKind = "undone"
	EventCleared      EventKind = "cleared"
	EventRemoved      EventKind = "removed"
	EventRecolored    EventKind = "recolored"
	EventRelabeled    EventKind = "relabeled"
)

// Event is one transition of the engine.
type Event struct {
	Kind      EventKind `json:"kind"`
	DrawingID int64     `json:"drawing_id"`
}

func (e Event) String() string { return fmt.Sprintf("%s(%d)", e.Kind, e.DrawingID) }

// Observer receives events after the engine state has changed. Observers
// run synchronously and must not block.
type Observer func(Event)
