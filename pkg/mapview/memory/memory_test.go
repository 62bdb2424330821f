package memory

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	globeerrors "github.com/matzehuels/globe/pkg/errors"
	"github.com/matzehuels/globe/pkg/geo"
	"github.com/matzehuels/globe/pkg/mapview"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	p, err := New(mapview.Options{Center: geo.LngLat{}, Zoom: 2, Width: 800, Height: 500, PixelRatio: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestReadPixelBufferSize(t *testing.T) {
	p := newTestProvider(t)
	r, err := p.ReadPixelBuffer(context.Background())
	if err != nil {
		t.Fatalf("ReadPixelBuffer: %v", err)
	}
	if b := r.Image.Bounds(); b.Dx() != 1600 || b.Dy() != 1000 {
		t.Errorf("raster = %dx%d, want 1600x1000", b.Dx(), b.Dy())
	}
	if r.LogicalWidth != 800 || r.LogicalHeight != 500 || r.PixelRatio != 2 {
		t.Errorf("raster meta = %+v", r)
	}
	if c := color.RGBAModel.Convert(r.Image.At(0, 0)).(color.RGBA); c != Background {
		t.Errorf("background pixel = %v", c)
	}
}

func TestReadPixelBufferBase(t *testing.T) {
	p := newTestProvider(t)
	p.SetBase(image.NewRGBA(image.Rect(0, 0, 1200, 900)))
	r, err := p.ReadPixelBuffer(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if b := r.Image.Bounds(); b.Dx() != 1200 || b.Dy() != 900 {
		t.Errorf("raster = %dx%d, want base size", b.Dx(), b.Dy())
	}
}

func TestLineLayerIsRasterised(t *testing.T) {
	p := newTestProvider(t)
	h, err := p.AddLineLayer("infographic-draw-1", "#ff0000")
	if err != nil {
		t.Fatal(err)
	}
	a := p.Unproject(geo.Point{X: 100, Y: 250})
	b := p.Unproject(geo.Point{X: 700, Y: 250})
	if err := p.SetLineGeometry(h, []geo.LngLat{a, b}); err != nil {
		t.Fatal(err)
	}
	r, _ := p.ReadPixelBuffer(context.Background())
	c := color.RGBAModel.Convert(r.Image.At(800, 500)).(color.RGBA)
	if c.R < 200 || c.G > 50 {
		t.Errorf("pixel on the line = %v, want red", c)
	}
	c = color.RGBAModel.Convert(r.Image.At(800, 100)).(color.RGBA)
	if c != Background {
		t.Errorf("pixel off the line = %v, want background", c)
	}
}

func TestTaintAndFailure(t *testing.T) {
	p := newTestProvider(t)
	p.SetTainted(true)
	r, err := p.ReadPixelBuffer(context.Background())
	if err != nil || !r.Tainted {
		t.Errorf("tainted read = %v, %v", r.Tainted, err)
	}

	p.FailReads(errors.New("security error"))
	_, err = p.ReadPixelBuffer(context.Background())
	if !globeerrors.Is(err, globeerrors.ErrCodeTaintedSurface) {
		t.Errorf("err = %v, want TAINTED_SURFACE", err)
	}
}

func TestMarkerLifecycle(t *testing.T) {
	p := newTestProvider(t)
	h, err := p.PlaceMarker(geo.LngLat{}, mapview.Element{Color: "#ff5b5b"})
	if err != nil {
		t.Fatal(err)
	}
	box, ok := p.MarkerBox(h)
	if !ok {
		t.Fatal("MarkerBox: not found")
	}
	if box.Center() != (geo.Point{X: 400, Y: 250}) || box.Width != mapview.PinSize {
		t.Errorf("box = %+v", box)
	}

	dest := geo.LngLat{Lng: 10, Lat: 5}
	if err := p.MoveMarker(h, dest); err != nil {
		t.Fatal(err)
	}
	if pos, _ := p.MarkerPosition(h); pos != dest {
		t.Errorf("position = %+v, want %+v", pos, dest)
	}

	if err := p.RemoveMarker(h); err != nil {
		t.Fatal(err)
	}
	if err := p.RemoveMarker(h); err != nil {
		t.Errorf("second remove should be a no-op, got %v", err)
	}
	if len(p.Markers()) != 0 {
		t.Errorf("Markers() = %v, want empty", p.Markers())
	}
	if err := p.MoveMarker(h, dest); !globeerrors.Is(err, globeerrors.ErrCodeMarkerNotFound) {
		t.Errorf("MoveMarker(removed) err = %v", err)
	}
}

func TestLayerErrors(t *testing.T) {
	p := newTestProvider(t)
	if _, err := p.AddLineLayer("a", "red"); err == nil {
		t.Error("invalid color should be rejected")
	}
	if _, err := p.AddLineLayer("a", "#fff"); err != nil {
		t.Fatal(err)
	}
	if _, err := p.AddLineLayer("a", "#fff"); err == nil {
		t.Error("duplicate layer id should be rejected")
	}
	if err := p.SetLineGeometry("missing", nil); err == nil {
		t.Error("SetLineGeometry on missing layer should fail")
	}
	if err := p.RemoveLineLayer("missing"); err != nil {
		t.Errorf("RemoveLineLayer(missing) = %v, want nil", err)
	}
}

func TestGesturesAndFlyTo(t *testing.T) {
	p := newTestProvider(t)
	if !p.CameraGesturesEnabled() {
		t.Error("gestures should start enabled")
	}
	p.SetCameraGesturesEnabled(false)
	if p.CameraGesturesEnabled() {
		t.Error("gestures should be disabled")
	}

	target := geo.LngLat{Lng: 139.65, Lat: 35.67}
	p.FlyTo(mapview.FlyTo{Center: target, Zoom: 8, Pitch: 30})
	if p.Center() != target || p.Camera().Zoom != 8 || p.Pitch() != 30 {
		t.Errorf("camera after FlyTo = %+v pitch %v", p.Camera(), p.Pitch())
	}
	if got := p.Project(target); got != (geo.Point{X: 400, Y: 250}) {
		t.Errorf("Project(center) = %+v", got)
	}
}

func TestInitializeRejectsEmptySurface(t *testing.T) {
	if _, err := New(mapview.Options{}); err == nil {
		t.Error("zero-size surface should be rejected")
	}
}
