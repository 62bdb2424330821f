package workspace

import (
	"image"
	"math"

	"github.com/matzehuels/globe/pkg/annotation"
	"github.com/matzehuels/globe/pkg/compositor"
	"github.com/matzehuels/globe/pkg/drawing"
	"github.com/matzehuels/globe/pkg/errors"
	"github.com/matzehuels/globe/pkg/geo"
)

// =============================================================================
// Marker settings
// =============================================================================

// MarkerColor returns the color used for new markers and drawings.
func (w *Workspace) MarkerColor() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.markerColor
}

// SetMarkerColor changes the color for new markers and drawings. Existing
// markers keep their color.
func (w *Workspace) SetMarkerColor(c string) error {
	if err := errors.ValidateColor(c); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.markerColor = c
	return nil
}

// MarkersEnabled reports whether clicks and selections place markers.
func (w *Workspace) MarkersEnabled() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.markersEnabled
}

// SetMarkersEnabled toggles marker placement. Existing markers stay.
func (w *Workspace) SetMarkersEnabled(on bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.markersEnabled = on
}

// =============================================================================
// Markers
// =============================================================================

// Markers lists the markers in creation order.
func (w *Workspace) Markers() []annotation.Marker {
	return w.store.Markers()
}

// AddMarker places an extra marker. An empty color selects the marker
// color.
func (w *Workspace) AddMarker(p geo.LngLat, style annotation.Style) (annotation.Marker, error) {
	if err := w.requireMap(); err != nil {
		return annotation.Marker{}, err
	}
	if err := errors.ValidateLngLat(p.Lng, p.Lat); err != nil {
		return annotation.Marker{}, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if style.Color == "" {
		style.Color = w.markerColor
	}
	return w.store.AddMarker(p, style)
}

// RemoveMarker deletes one marker.
func (w *Workspace) RemoveMarker(id int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.store.RemoveMarker(id)
}

// ClearMarkers deletes every marker.
func (w *Workspace) ClearMarkers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.store.ClearMarkers()
}

// =============================================================================
// Legend
// =============================================================================

// LegendItems lists the legend in panel order.
func (w *Workspace) LegendItems() []annotation.LegendItem {
	return w.store.LegendItems()
}

// AddLegendItem adds a legend row with its illustrative marker at the
// map centre. Empty fields take the new-item defaults.
func (w *Workspace) AddLegendItem(style annotation.Style) (annotation.LegendItem, error) {
	if err := w.requireMap(); err != nil {
		return annotation.LegendItem{}, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.store.AddLegendItem(style)
}

// UpdateLegendItem applies patch to a legend item.
func (w *Workspace) UpdateLegendItem(id int64, patch annotation.LegendPatch) (annotation.LegendItem, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.store.UpdateLegendItem(id, patch)
}

// MoveLegendItem drags a legend item's marker to p.
func (w *Workspace) MoveLegendItem(id int64, p geo.LngLat) (annotation.LegendItem, error) {
	if err := errors.ValidateLngLat(p.Lng, p.Lat); err != nil {
		return annotation.LegendItem{}, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.store.MoveLegendItem(id, p)
}

// RemoveLegendItem deletes a legend item and its marker.
func (w *Workspace) RemoveLegendItem(id int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.store.RemoveLegendItem(id)
}

// =============================================================================
// Drawings
// =============================================================================

// Drawing mutations hold the workspace mutex so an export sees either all
// or none of each change. Drawing observers run under it and must not call
// back into the workspace.

// StartDrawing creates a drawing and makes it active. An empty color
// selects the marker color.
func (w *Workspace) StartDrawing(color, label string) (drawing.Drawing, error) {
	if err := w.requireMap(); err != nil {
		return drawing.Drawing{}, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if color == "" {
		color = w.markerColor
	}
	return w.engine.Start(color, label)
}

// EditDrawing makes an existing drawing active.
func (w *Workspace) EditDrawing(id int64) error {
	if err := w.requireMap(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.engine.Edit(id)
}

// FinishDrawing deactivates the active drawing, if any.
func (w *Workspace) FinishDrawing() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.engine.Finish()
}

// ActiveDrawing returns the active drawing.
func (w *Workspace) ActiveDrawing() (drawing.Drawing, bool) {
	id, ok := w.engine.Active()
	if !ok {
		return drawing.Drawing{}, false
	}
	return w.engine.Get(id)
}

// PointerDown starts a stroke on the active drawing and reports whether
// one was opened; only the left button draws. It fails with
// errors.ErrCodeNoActiveDrawing when there is nothing to draw on.
func (w *Workspace) PointerDown(button int, p geo.LngLat) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pointerDownLocked(button, p)
}

func (w *Workspace) pointerDownLocked(button int, p geo.LngLat) (bool, error) {
	if err := errors.ValidateLngLat(p.Lng, p.Lat); err != nil {
		return false, err
	}
	if _, ok := w.engine.Active(); !ok {
		return false, errors.New(errors.ErrCodeNoActiveDrawing, "no active drawing")
	}
	return w.engine.PointerDown(button, p), nil
}

// PointerMove extends the open stroke. It reports whether a point was
// added.
func (w *Workspace) PointerMove(p geo.LngLat) (bool, error) {
	if err := errors.ValidateLngLat(p.Lng, p.Lat); err != nil {
		return false, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.engine.PointerMove(p), nil
}

// PointerUp closes the open stroke.
func (w *Workspace) PointerUp() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.engine.PointerUp()
}

// Stroke draws a whole stroke on the active drawing. An export never sees
// the stroke half drawn.
func (w *Workspace) Stroke(points []geo.LngLat) error {
	if len(points) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "stroke needs at least one point")
	}
	for _, p := range points {
		if err := errors.ValidateLngLat(p.Lng, p.Lat); err != nil {
			return err
		}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.pointerDownLocked(drawing.LeftButton, points[0]); err != nil {
		return err
	}
	for _, p := range points[1:] {
		w.engine.PointerMove(p)
	}
	w.engine.PointerUp()
	return nil
}

// Drawings lists the drawings in creation order.
func (w *Workspace) Drawings() []drawing.Drawing {
	return w.engine.Drawings()
}

// Drawing returns one drawing.
func (w *Workspace) Drawing(id int64) (drawing.Drawing, error) {
	d, ok := w.engine.Get(id)
	if !ok {
		return drawing.Drawing{}, errors.New(errors.ErrCodeDrawingNotFound, "drawing %d not found", id)
	}
	return d, nil
}

// UndoStroke removes a drawing's last stroke.
func (w *Workspace) UndoStroke(id int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.engine.Undo(id)
}

// ClearDrawing removes all strokes of a drawing.
func (w *Workspace) ClearDrawing(id int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.engine.Clear(id)
}

// RemoveDrawing deletes a drawing and its layer.
func (w *Workspace) RemoveDrawing(id int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.engine.Remove(id)
}

// RemoveAllDrawings deletes every drawing.
func (w *Workspace) RemoveAllDrawings() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.engine.RemoveAll()
}

// SetDrawingColor recolors a drawing.
func (w *Workspace) SetDrawingColor(id int64, color string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.engine.SetColor(id, color)
}

// SetDrawingLabel renames a drawing.
func (w *Workspace) SetDrawingLabel(id int64, label string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.engine.SetLabel(id, label)
}

// SubscribeDrawings registers an observer of drawing events.
func (w *Workspace) SubscribeDrawings(obs drawing.Observer) func() {
	return w.engine.Subscribe(obs)
}

// =============================================================================
// Header image
// =============================================================================

// Header describes the header image placement.
type Header struct {
	Width  float64           `json:"width,omitempty"`
	Anchor compositor.Corner `json:"anchor,omitempty"`
	Offset geo.Point         `json:"offset"`
}

// SetHeader sets the image drawn over exports. A nil image removes it.
func (w *Workspace) SetHeader(img image.Image, h Header) error {
	if img != nil {
		if img.Bounds().Empty() {
			return errors.New(errors.ErrCodeInvalidImage, "header image is empty")
		}
		if !h.Anchor.Valid() {
			return errors.New(errors.ErrCodeInvalidInput, "unknown header anchor %q", h.Anchor)
		}
		if err := validateHeader(h, w.provider.Camera()); err != nil {
			return err
		}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if img == nil {
		w.header = nil
		return nil
	}
	w.header = &compositor.HeaderImage{Image: img, Width: h.Width, Anchor: h.Anchor, Offset: h.Offset}
	return nil
}

// validateHeader checks that the header geometry is finite and fits on the
// map.
func validateHeader(h Header, cam geo.Camera) error {
	for _, v := range []struct {
		name string
		val  float64
	}{{"width", h.Width}, {"x offset", h.Offset.X}, {"y offset", h.Offset.Y}} {
		if math.IsNaN(v.val) || math.IsInf(v.val, 0) {
			return errors.New(errors.ErrCodeInvalidInput, "header %s must be a finite number", v.name)
		}
	}
	if h.Width < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "header width must not be negative")
	}
	if cam.Width > 0 && h.Width > cam.Width {
		return errors.New(errors.ErrCodeInvalidInput, "header width %v exceeds the map width %v", h.Width, cam.Width)
	}
	if (cam.Width > 0 && math.Abs(h.Offset.X) > cam.Width) || (cam.Height > 0 && math.Abs(h.Offset.Y) > cam.Height) {
		return errors.New(errors.ErrCodeInvalidInput, "header offset (%v, %v) is outside the map", h.Offset.X, h.Offset.Y)
	}
	return nil
}
