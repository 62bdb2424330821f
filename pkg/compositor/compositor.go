// Package compositor flattens the visible state of a globe workspace into a
// single PNG.
//
// The map provider renders into a backing buffer whose resolution differs
// from the logical (CSS) size of the surface by the device pixel ratio.
// Marker boxes, projections, the header and the legend are all expressed in
// logical pixels, so every overlay is multiplied by the scale factor
// returned by [Scale] before it is drawn onto a canvas at the raster's
// native resolution:
//
//	raster (unscaled) → marker glyphs → header image → legend panel → PNG
//
// Composition is a pure function of its [Scene]. It never touches the
// provider or the annotation store, so the same scene always yields the
// same bytes.
package compositor

import (
	"image"
	"image/color"

	"github.com/matzehuels/globe/pkg/geo"
	"github.com/matzehuels/globe/pkg/mapview"
)

// Filename is the download name of an export.
const Filename = "globe-infographic.png"

// TaintedNotice is shown to the user when the map pixels cannot be read.
const TaintedNotice = "Export failed: the map image could not be read back. " +
	"This usually means the map imagery was served without cross-origin " +
	"permission. Check the map token's allowed URLs and try again."

// Overlay geometry in logical pixels.
const (
	PinRadius    = 10.0
	MinPinRadius = 6.0
	PinOutline   = 2.0
	EmojiSize    = 24.0
	LetterSize   = 12.0

	LegendPadding   = 20.0
	LegendMinWidth  = 260.0
	LegendRowHeight = 28.0
	LegendBaseline  = 18.0
	LegendSwatch    = 16.0
	LegendTextX     = 36.0
	LegendFontSize  = 16.0
	LegendTitle     = "Legends"

	DefaultHeaderWidth = 200.0
)

// Overlay colors.
const (
	OutlineColor  = "#ffffff"
	LegendText    = "#e6eef8"
	FallbackColor = "#ff5b5b"
)

// LegendBackground is rgba(6,16,37,0.75).
var LegendBackground = color.NRGBA{R: 6, G: 16, B: 37, A: 191}

// DefaultHeaderOffset is the header inset used when none is given.
var DefaultHeaderOffset = geo.Point{X: 20, Y: 20}

// Glyph is a marker to draw over the raster.
type Glyph struct {
	Color string            `json:"color"`
	Kind  mapview.GlyphKind `json:"kind"`
	Emoji string            `json:"emoji,omitempty"`
	Name  string            `json:"name,omitempty"`
	Label string            `json:"label,omitempty"`

	// Box is the live element's bounding box. It is preferred over
	// Projected because it includes drag offsets.
	Box       *geo.Rect `json:"box,omitempty"`
	Projected geo.Point `json:"projected"`
}

// Center returns the glyph centre in logical pixels.
func (g Glyph) Center() geo.Point {
	if g.Box != nil && !g.Box.Empty() {
		return g.Box.Center()
	}
	return g.Projected
}

// Radius returns the pin radius in logical pixels.
func (g Glyph) Radius() float64 {
	if g.Box != nil && !g.Box.Empty() {
		return max(g.Box.Width/2, MinPinRadius)
	}
	return PinRadius
}

// initial returns the first letter of Name, or of Label when Name is empty.
func (g Glyph) initial() string {
	for _, s := range []string{g.Name, g.Label} {
		for _, r := range s {
			if r != ' ' {
				return string(r)
			}
		}
	}
	return ""
}

// LegendRow is one line of the legend panel.
type LegendRow struct {
	Color string            `json:"color"`
	Kind  mapview.GlyphKind `json:"kind"`
	Emoji string            `json:"emoji,omitempty"`
	Label string            `json:"label"`
}

// Corner selects where the header image is anchored.
type Corner string

const (
	TopLeft     Corner = "top-left"
	TopRight    Corner = "top-right"
	BottomLeft  Corner = "bottom-left"
	BottomRight Corner = "bottom-right"
)

// Valid reports whether c names a corner. The empty corner is valid and
// means TopLeft.
func (c Corner) Valid() bool {
	switch c {
	case "", TopLeft, TopRight, BottomLeft, BottomRight:
		return true
	}
	return false
}

// HeaderImage is an optional image drawn over the export.
type HeaderImage struct {
	Image image.Image

	// Width is the display width in logical pixels; the height follows
	// the image's aspect ratio. Zero selects DefaultHeaderWidth.
	Width  float64
	Anchor Corner

	// Offset insets the image from its corner. Zero selects
	// DefaultHeaderOffset.
	Offset geo.Point
}

// Scene is everything needed for one export.
type Scene struct {
	Raster        image.Image
	LogicalWidth  float64
	LogicalHeight float64
	PixelRatio    float64
	Tainted       bool

	Markers []Glyph
	Legend  []LegendRow
	Header  *HeaderImage
}

// Result is an encoded export.
type Result struct {
	PNG      []byte
	Filename string
	Scale    float64
	Width    int
	Height   int
}

// Scale reconciles the raster resolution with the logical surface size. The
// horizontal and vertical ratios are averaged. When the logical size is
// unknown the device pixel ratio is used, and 1 when that is unknown too.
func Scale(rasterW, rasterH int, logicalW, logicalH, dpr float64) float64 {
	if logicalW <= 0 || logicalH <= 0 || rasterW <= 0 || rasterH <= 0 {
		if dpr > 0 {
			return dpr
		}
		return 1
	}
	sx := float64(rasterW) / logicalW
	sy := float64(rasterH) / logicalH
	return (sx + sy) / 2
}
