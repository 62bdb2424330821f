package workspace

import (
	"encoding/json"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/globe/pkg/annotation"
	"github.com/matzehuels/globe/pkg/errors"
	"github.com/matzehuels/globe/pkg/geo"
	"github.com/matzehuels/globe/pkg/mapview"
)

// SceneFile describes a workspace to rebuild offline, as read by
// `globe export --scene`. Image paths are relative to the scene file.
//
//	{
//	  "width": 800, "height": 500, "pixel_ratio": 2,
//	  "center": {"lng": 139.69, "lat": 35.68}, "zoom": 4,
//	  "base": "tokyo.png",
//	  "markers": [{"position": {"lng": 139.69, "lat": 35.68}, "color": "#ff5b5b"}],
//	  "legend": [{"label": "Hotels", "kind": "emoji", "emoji": "🏨"}],
//	  "drawings": [{"color": "#00ff00", "strokes": [[{"lng": 139, "lat": 35}, {"lng": 140, "lat": 36}]]}],
//	  "header": {"path": "logo.png", "width": 160, "anchor": "top-right"}
//	}
type SceneFile struct {
	Width      float64    `json:"width"`
	Height     float64    `json:"height"`
	PixelRatio float64    `json:"pixel_ratio"`
	Center     geo.LngLat `json:"center"`
	Zoom       float64    `json:"zoom"`

	// Base is an optional background image standing in for the map.
	Base string `json:"base,omitempty"`

	MarkerColor string `json:"marker_color,omitempty"`

	Markers  []SceneMarker  `json:"markers,omitempty"`
	Legend   []SceneLegend  `json:"legend,omitempty"`
	Drawings []SceneDrawing `json:"drawings,omitempty"`
	Header   *SceneHeader   `json:"header,omitempty"`

	dir string
}

// SceneMarker is a marker entry of a scene file.
type SceneMarker struct {
	Position geo.LngLat `json:"position"`
	annotation.Style
}

// SceneLegend is a legend entry. Without a position the marker sits at the
// map centre.
type SceneLegend struct {
	Position *geo.LngLat `json:"position,omitempty"`
	annotation.Style
}

// SceneDrawing is a finished drawing.
type SceneDrawing struct {
	Color   string         `json:"color,omitempty"`
	Label   string         `json:"label,omitempty"`
	Strokes [][]geo.LngLat `json:"strokes"`
}

// SceneHeader is the header image entry.
type SceneHeader struct {
	Path string `json:"path"`
	Header
}

// LoadScene reads a scene file.
func LoadScene(path string) (*SceneFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scene: %w", err)
	}
	defer f.Close()
	s, err := DecodeScene(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.dir = filepath.Dir(path)
	return s, nil
}

// DecodeScene reads a scene from r. Image paths resolve against the
// working directory.
func DecodeScene(r io.Reader) (*SceneFile, error) {
	var s SceneFile
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode scene")
	}
	return &s, nil
}

// Options returns the map options for the scene, filling gaps with
// mapview.DefaultOptions.
func (s *SceneFile) Options() mapview.Options {
	opts := mapview.DefaultOptions()
	if s.Width > 0 {
		opts.Width = s.Width
	}
	if s.Height > 0 {
		opts.Height = s.Height
	}
	if s.PixelRatio > 0 {
		opts.PixelRatio = s.PixelRatio
	}
	if s.Center != (geo.LngLat{}) {
		opts.Center = s.Center
	}
	if s.Zoom > 0 {
		opts.Zoom = s.Zoom
	}
	return opts
}

// BaseImage loads the background image, or returns nil when the scene has
// none.
func (s *SceneFile) BaseImage() (image.Image, error) {
	if s.Base == "" {
		return nil, nil
	}
	return s.openImage(s.Base)
}

func (s *SceneFile) openImage(path string) (image.Image, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	if !filepath.IsAbs(path) && s.dir != "" {
		path = filepath.Join(s.dir, path)
	}
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidImage, err, "open image %s", path)
	}
	return img, nil
}

// Apply adds the scene's annotations, drawings and header to w. The
// workspace's default legend item is replaced when the scene has a legend.
func (s *SceneFile) Apply(w *Workspace) error {
	if s.MarkerColor != "" {
		if err := w.SetMarkerColor(s.MarkerColor); err != nil {
			return err
		}
	}
	for _, m := range s.Markers {
		if _, err := w.AddMarker(m.Position, m.Style); err != nil {
			return err
		}
	}
	if len(s.Legend) > 0 {
		for _, it := range w.LegendItems() {
			if err := w.RemoveLegendItem(it.ID); err != nil {
				return err
			}
		}
	}
	for _, l := range s.Legend {
		it, err := w.AddLegendItem(l.Style)
		if err != nil {
			return err
		}
		if l.Position != nil {
			if _, err := w.MoveLegendItem(it.ID, *l.Position); err != nil {
				return err
			}
		}
	}
	for _, d := range s.Drawings {
		if _, err := w.StartDrawing(d.Color, d.Label); err != nil {
			return err
		}
		for _, stroke := range d.Strokes {
			if err := w.Stroke(stroke); err != nil {
				return err
			}
		}
		w.FinishDrawing()
	}
	if s.Header != nil {
		img, err := s.openImage(s.Header.Path)
		if err != nil {
			return err
		}
		if err := w.SetHeader(img, s.Header.Header); err != nil {
			return err
		}
	}
	return nil
}
