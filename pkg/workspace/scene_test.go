package workspace

import (
	"context"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/globe/pkg/errors"
	"github.com/matzehuels/globe/pkg/intel"
	"github.com/matzehuels/globe/pkg/mapview/memory"
)

const sceneJSON = `{
  "width": 400, "height": 250, "pixel_ratio": 2,
  "center": {"lng": 139.69, "lat": 35.68}, "zoom": 4,
  "base": "base.png",
  "marker_color": "#00ff00",
  "markers": [{"position": {"lng": 139.69, "lat": 35.68}}],
  "legend": [
    {"label": "Hotels", "kind": "emoji", "emoji": "🏨", "color": "#ffaa00"},
    {"label": "Trail", "position": {"lng": 140, "lat": 36}}
  ],
  "drawings": [{"label": "Route", "strokes": [[{"lng": 139, "lat": 35}, {"lng": 140, "lat": 36}]]}],
  "header": {"path": "logo.png", "width": 80, "anchor": "top-right"}
}`

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, solidPNG(w, h, color.RGBA{R: 10, G: 60, B: 120, A: 255})); err != nil {
		t.Fatal(err)
	}
}

func TestSceneApply(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "base.png"), 800, 500)
	writePNG(t, filepath.Join(dir, "logo.png"), 40, 20)
	path := filepath.Join(dir, "scene.json")
	if err := os.WriteFile(path, []byte(sceneJSON), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadScene(path)
	if err != nil {
		t.Fatal(err)
	}
	opts := s.Options()
	if opts.Width != 400 || opts.Height != 250 || opts.PixelRatio != 2 || opts.Zoom != 4 {
		t.Errorf("options = %+v", opts)
	}
	p, err := memory.New(opts)
	if err != nil {
		t.Fatal(err)
	}
	base, err := s.BaseImage()
	if err != nil {
		t.Fatal(err)
	}
	p.SetBase(base)

	w, err := New(Deps{Provider: p, Describer: intel.NewOffline(0)})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := s.Apply(w); err != nil {
		t.Fatal(err)
	}

	if m := w.Markers(); len(m) != 1 || m[0].Color != "#00ff00" {
		t.Errorf("markers = %+v", m)
	}
	legend := w.LegendItems()
	if len(legend) != 2 || legend[0].Label != "Hotels" || legend[1].Label != "Trail" {
		t.Fatalf("legend = %+v", legend)
	}
	if legend[1].Position.Lng != 140 {
		t.Errorf("trail position = %v", legend[1].Position)
	}
	d := w.Drawings()
	if len(d) != 1 || d[0].Color != "#00ff00" || len(d[0].Strokes) != 1 {
		t.Errorf("drawings = %+v", d)
	}
	if _, active := w.ActiveDrawing(); active {
		t.Error("scene drawing left active")
	}
	if !w.Info().HasHeader {
		t.Error("header not set")
	}

	res, _, err := w.Export(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Width != 800 || res.Height != 500 {
		t.Errorf("export size = %dx%d", res.Width, res.Height)
	}
}

func TestDecodeSceneRejectsUnknownFields(t *testing.T) {
	_, err := DecodeScene(strings.NewReader(`{"widht": 10}`))
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v", err)
	}
}

func TestSceneMissingImage(t *testing.T) {
	s, err := DecodeScene(strings.NewReader(`{"base": "../secret.png"}`))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.BaseImage(); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("traversal: err = %v", err)
	}
	s.Base = filepath.Join(t.TempDir(), "missing.png")
	if _, err := s.BaseImage(); !errors.Is(err, errors.ErrCodeInvalidImage) {
		t.Errorf("missing: err = %v", err)
	}
}
