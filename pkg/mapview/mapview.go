// Package mapview defines the contract between the globe and the map
// surface it draws on.
//
// A [Provider] owns the camera, the marker elements floating over the map
// and the vector line layers drawn into the map itself. The rest of the
// application only talks to the surface through this interface; two
// implementations ship with the module:
//
//   - memory: an in-process surface over a solid or supplied base raster
//   - static: a surface whose pixels come from the Mapbox Static Images API
//
// Both embed [Surface], which keeps marker and layer bookkeeping and
// rasterises line layers, so they differ only in where the base pixels come
// from.
package mapview

import (
	"context"
	"image"

	"github.com/matzehuels/globe/pkg/geo"
)

// GlyphKind selects how a marker is drawn.
type GlyphKind string

const (
	GlyphPin   GlyphKind = "pin"
	GlyphEmoji GlyphKind = "emoji"
)

// Valid reports whether k is a known kind.
func (k GlyphKind) Valid() bool { return k == GlyphPin || k == GlyphEmoji }

// Element describes the visual marker element placed over the map.
type Element struct {
	Kind      GlyphKind
	Color     string
	Emoji     string
	Label     string
	Draggable bool

	// Width and Height are the element's logical size. Zero selects the
	// default for Kind.
	Width  float64
	Height float64
}

// Default element sizes in logical pixels.
const (
	PinSize   = 20.0
	EmojiSize = 28.0
)

func (e Element) size() (float64, float64) {
	w, h := e.Width, e.Height
	def := PinSize
	if e.Kind == GlyphEmoji {
		def = EmojiSize
	}
	if w <= 0 {
		w = def
	}
	if h <= 0 {
		h = def
	}
	return w, h
}

// MarkerHandle identifies a placed marker element. The zero value is never
// issued.
type MarkerHandle uint64

// LayerHandle identifies a line layer; it is the layer id.
type LayerHandle string

// LineWidth is the stroke width of drawing layers in logical pixels.
const LineWidth = 3.0

// Options configures a provider.
type Options struct {
	// Token is the map access token. Providers that need one report
	// errors.ErrCodeMapDisabled when it is empty.
	Token string

	Center geo.LngLat
	Zoom   float64

	// Width and Height are the logical size of the surface.
	Width  float64
	Height float64

	// PixelRatio is the device pixel ratio of the backing buffer.
	PixelRatio float64

	// Style is the provider-specific map style identifier.
	Style string

	// Origin is the origin the surface is served from, used for
	// cross-origin checks on fetched imagery.
	Origin string
}

// DefaultOptions mirrors the initial globe view.
func DefaultOptions() Options {
	return Options{
		Center:     geo.LngLat{Lng: 0, Lat: 20},
		Zoom:       1.2,
		Width:      1280,
		Height:     800,
		PixelRatio: 2,
	}
}

// FlyTo describes a camera move.
type FlyTo struct {
	Center geo.LngLat
	Zoom   float64
	Pitch  float64
}

// Raster is a snapshot of the surface's pixels.
type Raster struct {
	Image         image.Image
	LogicalWidth  float64
	LogicalHeight float64
	PixelRatio    float64

	// Tainted is set when the pixels include cross-origin content that may
	// not be read back.
	Tainted bool
}

// Provider is the map surface.
type Provider interface {
	Initialize(opts Options) error

	Project(p geo.LngLat) geo.Point
	Unproject(p geo.Point) geo.LngLat
	Center() geo.LngLat
	Camera() geo.Camera
	FlyTo(f FlyTo)

	PlaceMarker(pos geo.LngLat, el Element) (MarkerHandle, error)
	MoveMarker(h MarkerHandle, pos geo.LngLat) error
	MarkerPosition(h MarkerHandle) (geo.LngLat, bool)
	MarkerBox(h MarkerHandle) (geo.Rect, bool)
	RemoveMarker(h MarkerHandle) error

	AddLineLayer(id, color string) (LayerHandle, error)
	SetLineGeometry(h LayerHandle, coords []geo.LngLat) error
	SetLineColor(h LayerHandle, color string) error
	RemoveLineLayer(h LayerHandle) error

	ReadPixelBuffer(ctx context.Context) (Raster, error)

	SetCameraGesturesEnabled(enabled bool)
	CameraGesturesEnabled() bool
}

// Inspector exposes the surface's live objects. Both shipped providers
// implement it.
type Inspector interface {
	Markers() []MarkerHandle
	LineLayers() []LayerHandle
	LineGeometry(h LayerHandle) ([]geo.LngLat, bool)
}
