package mapview

import (
	"fmt"
	"image"
	"slices"
	"sync"

	"github.com/matzehuels/globe/pkg/errors"
	"github.com/matzehuels/globe/pkg/geo"
)

type marker struct {
	pos geo.LngLat
	el  Element
}

type lineLayer struct {
	color  string
	coords []geo.LngLat
}

// Surface holds the provider state shared by all implementations: camera,
// markers, line layers and the gesture switch. It is safe for concurrent
// use.
type Surface struct {
	mu       sync.RWMutex
	opts     Options
	camera   geo.Camera
	pitch    float64
	gestures bool

	nextMarker MarkerHandle
	markers    map[MarkerHandle]*marker
	order      []MarkerHandle

	layers     map[LayerHandle]*lineLayer
	layerOrder []LayerHandle
}

// Init resets the surface to opts.
func (s *Surface) Init(opts Options) error {
	if opts.Width <= 0 || opts.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "surface size must be positive, got %vx%v", opts.Width, opts.Height)
	}
	if opts.PixelRatio <= 0 {
		opts.PixelRatio = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts = opts
	s.camera = geo.Camera{Center: opts.Center, Zoom: opts.Zoom, Width: opts.Width, Height: opts.Height}
	s.pitch = 0
	s.gestures = true
	s.markers = make(map[MarkerHandle]*marker)
	s.order = nil
	s.layers = make(map[LayerHandle]*lineLayer)
	s.layerOrder = nil
	return nil
}

// Options returns the options the surface was initialised with.
func (s *Surface) Options() Options {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opts
}

func (s *Surface) Project(p geo.LngLat) geo.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.camera.Project(p)
}

func (s *Surface) Unproject(p geo.Point) geo.LngLat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.camera.Unproject(p)
}

func (s *Surface) Center() geo.LngLat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.camera.Center
}

func (s *Surface) Camera() geo.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.camera
}

// Pitch returns the pitch of the last FlyTo.
func (s *Surface) Pitch() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pitch
}

// FlyTo moves the camera. The move completes immediately.
func (s *Surface) FlyTo(f FlyTo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.camera.Center = f.Center
	if f.Zoom > 0 {
		s.camera.Zoom = f.Zoom
	}
	s.pitch = f.Pitch
}

func (s *Surface) PlaceMarker(pos geo.LngLat, el Element) (MarkerHandle, error) {
	if el.Kind == "" {
		el.Kind = GlyphPin
	}
	if !el.Kind.Valid() {
		return 0, errors.New(errors.ErrCodeInvalidInput, "unknown glyph kind %q", el.Kind)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markers == nil {
		s.markers = make(map[MarkerHandle]*marker)
	}
	s.nextMarker++
	h := s.nextMarker
	s.markers[h] = &marker{pos: pos, el: el}
	s.order = append(s.order, h)
	return h, nil
}

func (s *Surface) MoveMarker(h MarkerHandle, pos geo.LngLat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.markers[h]
	if !ok {
		return errors.New(errors.ErrCodeMarkerNotFound, "marker handle %d", h)
	}
	m.pos = pos
	return nil
}

func (s *Surface) MarkerPosition(h MarkerHandle) (geo.LngLat, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.markers[h]
	if !ok {
		return geo.LngLat{}, false
	}
	return m.pos, true
}

// MarkerBox returns the element's bounding box centred on its projected
// position.
func (s *Surface) MarkerBox(h MarkerHandle) (geo.Rect, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.markers[h]
	if !ok {
		return geo.Rect{}, false
	}
	w, ht := m.el.size()
	return geo.RectAround(s.camera.Project(m.pos), w, ht), true
}

// RemoveMarker releases h. Removing an unknown handle is a no-op.
func (s *Surface) RemoveMarker(h MarkerHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.markers[h]; !ok {
		return nil
	}
	delete(s.markers, h)
	s.order = slices.DeleteFunc(s.order, func(x MarkerHandle) bool { return x == h })
	return nil
}

func (s *Surface) AddLineLayer(id, color string) (LayerHandle, error) {
	if err := errors.ValidateColor(color); err != nil {
		return "", err
	}
	h := LayerHandle(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.layers == nil {
		s.layers = make(map[LayerHandle]*lineLayer)
	}
	if _, ok := s.layers[h]; ok {
		return "", errors.New(errors.ErrCodeInvalidInput, "layer %q already exists", id)
	}
	s.layers[h] = &lineLayer{color: color}
	s.layerOrder = append(s.layerOrder, h)
	return h, nil
}

func (s *Surface) SetLineGeometry(h LayerHandle, coords []geo.LngLat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.layers[h]
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "line layer %q", h)
	}
	l.coords = slices.Clone(coords)
	return nil
}

func (s *Surface) SetLineColor(h LayerHandle, color string) error {
	if err := errors.ValidateColor(color); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.layers[h]
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "line layer %q", h)
	}
	l.color = color
	return nil
}

// RemoveLineLayer removes h. Removing an unknown layer is a no-op.
func (s *Surface) RemoveLineLayer(h LayerHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.layers[h]; !ok {
		return nil
	}
	delete(s.layers, h)
	s.layerOrder = slices.DeleteFunc(s.layerOrder, func(x LayerHandle) bool { return x == h })
	return nil
}

func (s *Surface) SetCameraGesturesEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gestures = enabled
}

func (s *Surface) CameraGesturesEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gestures
}

// Markers returns live marker handles in placement order.
func (s *Surface) Markers() []MarkerHandle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order)
}

// LineLayers returns live layer handles in creation order.
func (s *Surface) LineLayers() []LayerHandle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.layerOrder)
}

// LineGeometry returns the coordinates last set on h.
func (s *Surface) LineGeometry(h LayerHandle) ([]geo.LngLat, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.layers[h]
	if !ok {
		return nil, false
	}
	return slices.Clone(l.coords), true
}

// DrawLines strokes every line layer onto dst. scale converts logical
// pixels to dst pixels.
func (s *Surface) DrawLines(dst *image.RGBA, scale float64) error {
	s.mu.RLock()
	lines := make([]Line, 0, len(s.layerOrder))
	for _, h := range s.layerOrder {
		l := s.layers[h]
		if len(l.coords) < 2 {
			continue
		}
		pts := make([]geo.Point, len(l.coords))
		for i, c := range l.coords {
			pts[i] = s.camera.Project(c)
		}
		lines = append(lines, Line{Points: pts, Color: l.color, Width: LineWidth})
	}
	s.mu.RUnlock()

	if err := StrokeLines(dst, lines, scale); err != nil {
		return fmt.Errorf("draw line layers: %w", err)
	}
	return nil
}
