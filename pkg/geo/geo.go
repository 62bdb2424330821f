// Package geo provides the coordinate types shared by the map surface, the
// annotation store and the export compositor.
//
// Two coordinate spaces are involved:
//
//   - Geographic: [LngLat], degrees, WGS84.
//   - Screen: [Point] and [Rect], logical (CSS) pixels relative to the
//     top-left corner of the map surface.
//
// The export compositor converts logical pixels into raster pixels by
// multiplying with a scale factor; that conversion lives in the compositor,
// not here.
package geo

import (
	"fmt"
	"math"
)

// LngLat is a geographic position in degrees.
type LngLat struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// String formats the position as "lat, lng" with four decimals, the same
// shape used for fallback place names.
func (p LngLat) String() string {
	return fmt.Sprintf("%.4f, %.4f", p.Lat, p.Lng)
}

// Point is a position in logical screen pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Scale returns p with both components multiplied by s.
func (p Point) Scale(s float64) Point { return Point{X: p.X * s, Y: p.Y * s} }

// Rect is an axis-aligned box in logical screen pixels.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the centre point of r.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Empty reports whether r has no area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// RectAround returns a w×h box centred on c.
func RectAround(c Point, w, h float64) Rect {
	return Rect{X: c.X - w/2, Y: c.Y - h/2, Width: w, Height: h}
}

// Round returns v rounded half away from zero to the nearest integer.
func Round(v float64) int { return int(math.Round(v)) }
