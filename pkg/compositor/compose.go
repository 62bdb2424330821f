package compositor

import (
	"bytes"
	"context"
	"image"
	"image/draw"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/matzehuels/globe/pkg/errors"
	"github.com/matzehuels/globe/pkg/fonts"
	"github.com/matzehuels/globe/pkg/geo"
	"github.com/matzehuels/globe/pkg/mapview"
)

// Compose renders scene and encodes it as PNG.
func Compose(ctx context.Context, scene Scene) (*Result, error) {
	if scene.Tainted {
		return nil, errors.New(errors.ErrCodeTaintedSurface, "%s", TaintedNotice)
	}
	if scene.Raster == nil || scene.Raster.Bounds().Empty() {
		return nil, errors.New(errors.ErrCodeInvalidImage, "export needs a non-empty raster")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	canvas, scale, err := Render(scene)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode png")
	}
	b := canvas.Bounds()
	return &Result{
		PNG:      buf.Bytes(),
		Filename: Filename,
		Scale:    scale,
		Width:    b.Dx(),
		Height:   b.Dy(),
	}, nil
}

// Render draws scene onto a new canvas at the raster's resolution and
// returns it with the scale that was applied.
func Render(scene Scene) (*image.RGBA, float64, error) {
	src := scene.Raster.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, src.Dx(), src.Dy()))
	draw.Draw(canvas, canvas.Bounds(), scene.Raster, src.Min, draw.Src)

	scale := Scale(src.Dx(), src.Dy(), scene.LogicalWidth, scene.LogicalHeight, scene.PixelRatio)
	dc := gg.NewContextForRGBA(canvas)

	for _, g := range scene.Markers {
		if err := drawGlyph(dc, g, scale); err != nil {
			return nil, 0, err
		}
	}
	if scene.Header != nil && scene.Header.Image != nil {
		drawHeader(dc, *scene.Header, scale)
	}
	if len(scene.Legend) > 0 {
		if err := drawLegend(dc, scene.Legend, scale); err != nil {
			return nil, 0, err
		}
	}
	return canvas, scale, nil
}

func colorOr(c string) string {
	if errors.ValidateColor(c) != nil {
		return FallbackColor
	}
	return c
}

// =============================================================================
// Markers
// =============================================================================

func drawGlyph(dc *gg.Context, g Glyph, scale float64) error {
	c := g.Center().Scale(scale)
	if g.Kind == mapview.GlyphEmoji && g.Emoji != "" && fonts.HasEmoji(g.Emoji) {
		face, err := fonts.Emoji(EmojiSize * scale)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "load emoji face")
		}
		defer face.Close()
		dc.SetFontFace(face)
		dc.SetHexColor(colorOr(g.Color))
		dc.DrawStringAnchored(g.Emoji, c.X, c.Y, 0.5, 0.5)
		return nil
	}

	drawPin(dc, c, g.Radius()*scale, colorOr(g.Color), scale)

	if g.Kind != mapview.GlyphEmoji {
		return nil
	}
	letter := g.initial()
	if letter == "" {
		return nil
	}
	face, err := fonts.Bold(LetterSize * scale)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "load letter face")
	}
	defer face.Close()
	dc.SetFontFace(face)
	dc.SetHexColor(OutlineColor)
	dc.DrawStringAnchored(letter, c.X, c.Y, 0.5, 0.35)
	return nil
}

func drawPin(dc *gg.Context, c geo.Point, r float64, color string, scale float64) {
	dc.NewSubPath()
	dc.DrawCircle(c.X, c.Y, r)
	dc.SetHexColor(color)
	dc.FillPreserve()
	dc.SetHexColor(OutlineColor)
	dc.SetLineWidth(PinOutline * scale)
	dc.Stroke()
}

// =============================================================================
// Header
// =============================================================================

// HeaderRect returns the header's destination rectangle in canvas pixels.
func HeaderRect(h HeaderImage, canvasW, canvasH int, scale float64) image.Rectangle {
	b := h.Image.Bounds()
	width := h.Width
	if width <= 0 {
		width = DefaultHeaderWidth
	}
	off := h.Offset
	if off == (geo.Point{}) {
		off = DefaultHeaderOffset
	}
	// The scaled image never exceeds the canvas; the aspect ratio holds.
	tw := min(max(geo.Round(width*scale), 1), max(canvasW, 1))
	th := max(geo.Round(float64(b.Dy())*float64(tw)/float64(b.Dx())), 1)
	if limit := max(canvasH, 1); th > limit {
		th = limit
		tw = max(geo.Round(float64(b.Dx())*float64(th)/float64(b.Dy())), 1)
	}
	ox, oy := geo.Round(off.X*scale), geo.Round(off.Y*scale)

	x, y := ox, oy
	switch h.Anchor {
	case TopRight:
		x = canvasW - tw - ox
	case BottomLeft:
		y = canvasH - th - oy
	case BottomRight:
		x = canvasW - tw - ox
		y = canvasH - th - oy
	}
	return image.Rect(x, y, x+tw, y+th)
}

func drawHeader(dc *gg.Context, h HeaderImage, scale float64) {
	if h.Image.Bounds().Empty() {
		return
	}
	r := HeaderRect(h, dc.Width(), dc.Height(), scale)
	img := imaging.Resize(h.Image, r.Dx(), r.Dy(), imaging.Lanczos)
	dc.DrawImage(img, r.Min.X, r.Min.Y)
}

// =============================================================================
// Legend
// =============================================================================

// LegendLayout is the legend panel geometry in canvas pixels.
type LegendLayout struct {
	X, Y          float64
	Width, Height float64
	// Baselines holds the text baseline of the title followed by one per
	// row.
	Baselines []float64
}

// LayoutLegend places the legend panel in the bottom-right corner of a
// canvasW×canvasH canvas. measure returns the drawn width of a label at
// the scaled legend font size.
func LayoutLegend(rows []LegendRow, canvasW, canvasH int, scale float64, measure func(string) float64) LegendLayout {
	width := LegendMinWidth * scale
	for _, r := range rows {
		width = max(width, measure(r.Label)+(LegendTextX+LegendPadding)*scale)
	}
	n := len(rows) + 1
	height := (float64(n)*LegendRowHeight + LegendPadding) * scale
	l := LegendLayout{
		X:      float64(canvasW) - width - LegendPadding*scale,
		Y:      float64(canvasH) - height - LegendPadding*scale,
		Width:  width,
		Height: height,
	}
	for i := 0; i < n; i++ {
		l.Baselines = append(l.Baselines, l.Y+(LegendBaseline+float64(i)*LegendRowHeight)*scale)
	}
	return l
}

func drawLegend(dc *gg.Context, rows []LegendRow, scale float64) error {
	face, err := fonts.Regular(LegendFontSize * scale)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "load legend face")
	}
	defer face.Close()
	title, err := fonts.Bold(LegendFontSize * scale)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "load legend title face")
	}
	defer title.Close()
	emoji, err := fonts.Emoji(LegendSwatch * scale)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "load legend emoji face")
	}
	defer emoji.Close()

	dc.SetFontFace(face)
	l := LayoutLegend(rows, dc.Width(), dc.Height(), scale, func(s string) float64 {
		w, _ := dc.MeasureString(s)
		return w
	})

	dc.SetColor(LegendBackground)
	dc.DrawRectangle(l.X, l.Y, l.Width, l.Height)
	dc.Fill()

	dc.SetFontFace(title)
	dc.SetHexColor(LegendText)
	dc.DrawString(LegendTitle, l.X+10*scale, l.Baselines[0])

	for i, r := range rows {
		y := l.Baselines[i+1]
		sx, sy := l.X+10*scale, y-12*scale
		size := LegendSwatch * scale
		if r.Kind == mapview.GlyphEmoji && r.Emoji != "" && fonts.HasEmoji(r.Emoji) {
			dc.SetFontFace(emoji)
			dc.SetHexColor(colorOr(r.Color))
			dc.DrawStringAnchored(r.Emoji, sx+size/2, sy+size/2, 0.5, 0.5)
		} else {
			dc.SetHexColor(colorOr(r.Color))
			dc.DrawRectangle(sx, sy, size, size)
			dc.Fill()
		}
		dc.SetFontFace(face)
		dc.SetHexColor(LegendText)
		dc.DrawString(r.Label, l.X+LegendTextX*scale, y)
	}
	return nil
}
