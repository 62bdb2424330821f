package mapview

import (
	"image"

	"github.com/fogleman/gg"

	"github.com/matzehuels/globe/pkg/errors"
	"github.com/matzehuels/globe/pkg/geo"
)

// Line is a polyline in logical pixels.
type Line struct {
	Points []geo.Point
	Color  string
	Width  float64
}

// StrokeLines draws lines onto dst in order with round caps and joins.
// Points and widths are multiplied by scale.
func StrokeLines(dst *image.RGBA, lines []Line, scale float64) error {
	if len(lines) == 0 {
		return nil
	}
	dc := gg.NewContextForRGBA(dst)
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)
	for _, l := range lines {
		if len(l.Points) < 2 {
			continue
		}
		if err := errors.ValidateColor(l.Color); err != nil {
			return err
		}
		dc.NewSubPath()
		for i, p := range l.Points {
			if i == 0 {
				dc.MoveTo(p.X*scale, p.Y*scale)
				continue
			}
			dc.LineTo(p.X*scale, p.Y*scale)
		}
		dc.SetHexColor(l.Color)
		dc.SetLineWidth(l.Width * scale)
		dc.Stroke()
	}
	return nil
}
