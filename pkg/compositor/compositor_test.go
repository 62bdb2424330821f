package compositor

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"testing"

	"github.com/matzehuels/globe/pkg/annotation"
	"github.com/matzehuels/globe/pkg/errors"
	"github.com/matzehuels/globe/pkg/geo"
	"github.com/matzehuels/globe/pkg/mapview"
	"github.com/matzehuels/globe/pkg/mapview/memory"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

func decode(t *testing.T, res *Result) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(res.PNG))
	if err != nil {
		t.Fatalf("decode export: %v", err)
	}
	return img
}

func rgb(img image.Image, x, y int) (uint8, uint8, uint8) {
	r, g, b, _ := img.At(x, y).RGBA()
	return uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)
}

func isRed(img image.Image, x, y int) bool {
	r, g, b := rgb(img, x, y)
	return r > 200 && g < 60 && b < 60
}

func isBlack(img image.Image, x, y int) bool {
	r, g, b := rgb(img, x, y)
	return r < 10 && g < 10 && b < 10
}

func TestScale(t *testing.T) {
	tests := []struct {
		name        string
		rw, rh      int
		lw, lh, dpr float64
		want        float64
	}{
		{"retina", 1600, 1000, 800, 500, 1, 2},
		{"unity", 800, 500, 800, 500, 2, 1},
		{"averaged", 1000, 1000, 500, 250, 1, 3},
		{"unmeasured uses dpr", 1600, 1000, 0, 0, 2, 2},
		{"nothing known", 1600, 1000, 0, 500, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Scale(tt.rw, tt.rh, tt.lw, tt.lh, tt.dpr); got != tt.want {
				t.Errorf("Scale() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMarkerDrawnAtScaledPosition(t *testing.T) {
	scene := Scene{
		Raster:        solid(1600, 1000, color.Black),
		LogicalWidth:  800,
		LogicalHeight: 500,
		Markers: []Glyph{
			{Color: "#ff0000", Kind: mapview.GlyphPin, Projected: geo.Point{X: 100, Y: 100}},
		},
	}
	res, err := Compose(context.Background(), scene)
	if err != nil {
		t.Fatal(err)
	}
	if res.Scale != 2 || res.Width != 1600 || res.Height != 1000 {
		t.Errorf("result = scale %v, %dx%d", res.Scale, res.Width, res.Height)
	}
	if res.Filename != "globe-infographic.png" {
		t.Errorf("filename = %q", res.Filename)
	}
	img := decode(t, res)
	if !isRed(img, 200, 200) {
		t.Errorf("pixel (200,200) = %v, want marker color", img.At(200, 200))
	}
	if !isRed(img, 212, 200) || !isRed(img, 200, 188) {
		t.Error("pin radius below 12px at 2x")
	}
	if !isBlack(img, 240, 200) {
		t.Errorf("pixel (240,200) = %v, want background", img.At(240, 200))
	}
	if !isBlack(img, 100, 100) {
		t.Error("marker drawn at logical position")
	}
}

func TestBoxPreferredOverProjection(t *testing.T) {
	box := geo.Rect{X: 290, Y: 90, Width: 20, Height: 20}
	scene := Scene{
		Raster:        solid(1600, 1000, color.Black),
		LogicalWidth:  800,
		LogicalHeight: 500,
		Markers: []Glyph{
			{Color: "#ff0000", Kind: mapview.GlyphPin, Box: &box, Projected: geo.Point{X: 100, Y: 100}},
		},
	}
	res, err := Compose(context.Background(), scene)
	if err != nil {
		t.Fatal(err)
	}
	img := decode(t, res)
	if !isRed(img, 600, 200) {
		t.Error("marker not drawn at box centre")
	}
	if !isBlack(img, 200, 200) {
		t.Error("marker drawn at projected position")
	}
}

func TestGlyphRadius(t *testing.T) {
	small := geo.Rect{Width: 4, Height: 4}
	wide := geo.Rect{Width: 40, Height: 40}
	tests := []struct {
		name string
		box  *geo.Rect
		want float64
	}{
		{"no box", nil, PinRadius},
		{"small box clamps", &small, MinPinRadius},
		{"wide box", &wide, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (Glyph{Box: tt.box}).Radius(); got != tt.want {
				t.Errorf("Radius() = %v, want %v", got, tt.want)
			}
		})
	}
}

// The emoji font has no glyph for U+1F3DB.
func TestEmojiFallsBackToPin(t *testing.T) {
	scene := Scene{
		Raster:        solid(800, 500, color.Black),
		LogicalWidth:  400,
		LogicalHeight: 250,
		Markers: []Glyph{
			{Color: "#ff0000", Kind: mapview.GlyphEmoji, Emoji: "🏛️", Name: "Museum", Projected: geo.Point{X: 100, Y: 100}},
		},
	}
	res, err := Compose(context.Background(), scene)
	if err != nil {
		t.Fatal(err)
	}
	img := decode(t, res)
	if !isRed(img, 200+15, 200) {
		t.Error("no fallback pin drawn for missing emoji glyph")
	}
}

func isWhite(img image.Image, x, y int) bool {
	r, g, b := rgb(img, x, y)
	return r > 200 && g > 200 && b > 200
}

// countPixels counts pixels in the square of half-width d around (cx, cy)
// that satisfy match.
func countPixels(img image.Image, cx, cy, d int, match func(image.Image, int, int) bool) int {
	n := 0
	for y := cy - d; y <= cy+d; y++ {
		for x := cx - d; x <= cx+d; x++ {
			if match(img, x, y) {
				n++
			}
		}
	}
	return n
}

func TestEmojiDrawnFromEmojiFont(t *testing.T) {
	for _, emoji := range []string{"★", "❤️", "☕"} {
		t.Run(emoji, func(t *testing.T) {
			scene := Scene{
				Raster:        solid(800, 500, color.Black),
				LogicalWidth:  400,
				LogicalHeight: 250,
				Markers: []Glyph{
					{Color: "#ff0000", Kind: mapview.GlyphEmoji, Emoji: emoji, Name: "Cafe", Projected: geo.Point{X: 100, Y: 100}},
				},
			}
			res, err := Compose(context.Background(), scene)
			if err != nil {
				t.Fatal(err)
			}
			img := decode(t, res)
			if n := countPixels(img, 200, 200, 40, isRed); n < 50 {
				t.Errorf("only %d red pixels around the marker, want the emoji glyph", n)
			}
			// The fallback pin has a white outline and a white initial.
			if n := countPixels(img, 200, 200, 40, isWhite); n > 0 {
				t.Errorf("%d white pixels around the marker, want no fallback pin", n)
			}
		})
	}
}

func TestLegendEmojiRow(t *testing.T) {
	// 800x500 raster at 400x250 logical: scale 2, one row, minimum width.
	// The swatch box spans (260,376) to (292,408).
	compose := func(row LegendRow) image.Image {
		res, err := Compose(context.Background(), Scene{
			Raster:        solid(800, 500, color.Black),
			LogicalWidth:  400,
			LogicalHeight: 250,
			Legend:        []LegendRow{row},
		})
		if err != nil {
			t.Fatal(err)
		}
		return decode(t, res)
	}

	swatch := compose(LegendRow{Color: "#ff0000", Kind: mapview.GlyphPin, Label: "x"})
	if !isRed(swatch, 262, 378) {
		t.Error("pin row: swatch corner not filled")
	}

	star := compose(LegendRow{Color: "#ff0000", Kind: mapview.GlyphEmoji, Emoji: "★", Label: "x"})
	if isRed(star, 262, 378) {
		t.Error("emoji row: swatch square drawn instead of the emoji")
	}
	if n := countPixels(star, 276, 392, 24, isRed); n < 20 {
		t.Errorf("emoji row: only %d red pixels, want the emoji glyph", n)
	}

	missing := compose(LegendRow{Color: "#ff0000", Kind: mapview.GlyphEmoji, Emoji: "🍣", Label: "x"})
	if !isRed(missing, 262, 378) {
		t.Error("emoji row without a glyph: swatch corner not filled")
	}
}

func TestExportIdempotent(t *testing.T) {
	box := geo.Rect{X: 50, Y: 50, Width: 20, Height: 20}
	scene := Scene{
		Raster:        solid(1600, 1000, color.RGBA{R: 10, G: 20, B: 30, A: 255}),
		LogicalWidth:  800,
		LogicalHeight: 500,
		Markers: []Glyph{
			{Color: "#00ff00", Kind: mapview.GlyphPin, Box: &box},
			{Color: "#0000ff", Kind: mapview.GlyphEmoji, Emoji: "★", Label: "Star", Projected: geo.Point{X: 400, Y: 200}},
		},
		Legend: []LegendRow{
			{Color: "#6b7cff", Kind: mapview.GlyphPin, Label: "Point of Interest"},
			{Color: "#ff5b5b", Kind: mapview.GlyphPin, Label: "New item"},
		},
	}
	a, err := Compose(context.Background(), scene)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Compose(context.Background(), scene)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.PNG, b.PNG) {
		t.Error("identical scenes produced different exports")
	}
}

func TestComposeDoesNotModifyRaster(t *testing.T) {
	raster := solid(200, 100, color.Black)
	scene := Scene{
		Raster:        raster,
		LogicalWidth:  200,
		LogicalHeight: 100,
		Markers:       []Glyph{{Color: "#ff0000", Projected: geo.Point{X: 50, Y: 50}}},
	}
	if _, err := Compose(context.Background(), scene); err != nil {
		t.Fatal(err)
	}
	if !isBlack(raster, 50, 50) {
		t.Error("Compose drew into the source raster")
	}
}

func TestLayoutLegend(t *testing.T) {
	rows := []LegendRow{{Label: "a"}, {Label: "b"}}
	zero := func(string) float64 { return 0 }

	l := LayoutLegend(rows, 1600, 1000, 2, zero)
	if l.Width != 520 {
		t.Errorf("width = %v, want 520", l.Width)
	}
	if l.Height != (3*28+20)*2 {
		t.Errorf("height = %v, want %v", l.Height, (3*28+20)*2)
	}
	if l.X != 1600-520-40 || l.Y != 1000-l.Height-40 {
		t.Errorf("origin = (%v,%v)", l.X, l.Y)
	}
	if len(l.Baselines) != 3 || l.Baselines[0] != l.Y+36 || l.Baselines[2] != l.Y+36+112 {
		t.Errorf("baselines = %v", l.Baselines)
	}

	wide := LayoutLegend(rows, 1600, 1000, 1, func(string) float64 { return 500 })
	if wide.Width != 500+LegendTextX+LegendPadding {
		t.Errorf("wide width = %v", wide.Width)
	}
}

func TestLegendPanelDrawn(t *testing.T) {
	scene := Scene{
		Raster:        solid(800, 500, color.Black),
		LogicalWidth:  800,
		LogicalHeight: 500,
		Legend:        []LegendRow{{Color: "#ff0000", Kind: mapview.GlyphPin, Label: "x"}},
	}
	res, err := Compose(context.Background(), scene)
	if err != nil {
		t.Fatal(err)
	}
	img := decode(t, res)

	l := LayoutLegend(scene.Legend, 800, 500, 1, func(string) float64 { return 0 })
	px, py := int(l.X)+2, int(l.Y)+2
	r, _, b := rgb(img, px, py)
	if b <= r || isBlack(img, px, py) {
		t.Errorf("legend background pixel = %v", img.At(px, py))
	}
	swatchX := int(l.X+10) + 8
	swatchY := int(l.Baselines[1]-12) + 8
	if !isRed(img, swatchX, swatchY) {
		t.Errorf("swatch pixel = %v", img.At(swatchX, swatchY))
	}
}

func TestNoLegendWhenEmpty(t *testing.T) {
	scene := Scene{Raster: solid(800, 500, color.Black), LogicalWidth: 800, LogicalHeight: 500}
	res, err := Compose(context.Background(), scene)
	if err != nil {
		t.Fatal(err)
	}
	img := decode(t, res)
	if !isBlack(img, 800-30, 500-30) {
		t.Error("legend panel drawn for empty legend")
	}
}

func TestHeaderRect(t *testing.T) {
	hdr := HeaderImage{Image: solid(100, 50, color.White), Width: 50}
	tests := []struct {
		anchor Corner
		want   image.Rectangle
	}{
		{"", image.Rect(40, 40, 140, 90)},
		{TopRight, image.Rect(1600-100-40, 40, 1600-40, 90)},
		{BottomLeft, image.Rect(40, 1000-50-40, 140, 1000-40)},
		{BottomRight, image.Rect(1600-140, 1000-90, 1600-40, 1000-40)},
	}
	for _, tt := range tests {
		t.Run(string(tt.anchor), func(t *testing.T) {
			h := hdr
			h.Anchor = tt.anchor
			if got := HeaderRect(h, 1600, 1000, 2); got != tt.want {
				t.Errorf("HeaderRect() = %v, want %v", got, tt.want)
			}
		})
	}

	custom := hdr
	custom.Offset = geo.Point{X: 5, Y: 0}
	if got := HeaderRect(custom, 1600, 1000, 1); got.Min != (image.Point{X: 5, Y: 0}) {
		t.Errorf("custom offset origin = %v", got.Min)
	}
}

func TestHeaderRectClampedToCanvas(t *testing.T) {
	tests := []struct {
		name  string
		img   image.Image
		width float64
		want  image.Rectangle
	}{
		// 1e6 logical pixels at scale 2 would be a 2e6 x 1e6 resize.
		{"too wide", solid(100, 50, color.White), 1e6, image.Rect(40, 40, 40+1600, 40+800)},
		{"too tall", solid(10, 100, color.White), 500, image.Rect(40, 40, 40+100, 40+1000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HeaderRect(HeaderImage{Image: tt.img, Width: tt.width}, 1600, 1000, 2)
			if got != tt.want {
				t.Errorf("HeaderRect() = %v, want %v", got, tt.want)
			}
			if got.Dx() > 1600 || got.Dy() > 1000 {
				t.Errorf("header %dx%d larger than the canvas", got.Dx(), got.Dy())
			}
		})
	}
}

func TestOversizedHeaderComposes(t *testing.T) {
	scene := Scene{
		Raster:        solid(400, 250, color.Black),
		LogicalWidth:  200,
		LogicalHeight: 125,
		Header:        &HeaderImage{Image: solid(100, 50, color.RGBA{R: 255, A: 255}), Width: 1e6},
	}
	res, err := Compose(context.Background(), scene)
	if err != nil {
		t.Fatal(err)
	}
	if res.Width != 400 || res.Height != 250 {
		t.Errorf("export = %dx%d, want 400x250", res.Width, res.Height)
	}
	if img := decode(t, res); !isRed(img, 200, 125) {
		t.Errorf("header pixel = %v", img.At(200, 125))
	}
}

func TestHeaderDrawn(t *testing.T) {
	scene := Scene{
		Raster:        solid(1600, 1000, color.Black),
		LogicalWidth:  800,
		LogicalHeight: 500,
		Header:        &HeaderImage{Image: solid(100, 50, color.RGBA{R: 255, A: 255}), Width: 50},
	}
	res, err := Compose(context.Background(), scene)
	if err != nil {
		t.Fatal(err)
	}
	img := decode(t, res)
	if !isRed(img, 90, 65) {
		t.Errorf("header pixel = %v", img.At(90, 65))
	}
	if !isBlack(img, 160, 65) {
		t.Error("header wider than its display width")
	}
}

func TestTaintedScene(t *testing.T) {
	_, err := Compose(context.Background(), Scene{Raster: solid(10, 10, color.Black), Tainted: true})
	if !errors.Is(err, errors.ErrCodeTaintedSurface) {
		t.Errorf("err = %v", err)
	}
	if errors.UserMessage(err) != TaintedNotice {
		t.Errorf("message = %q", errors.UserMessage(err))
	}
}

func TestComposeRejectsMissingRaster(t *testing.T) {
	if _, err := Compose(context.Background(), Scene{}); !errors.Is(err, errors.ErrCodeInvalidImage) {
		t.Errorf("err = %v", err)
	}
}

func TestComposeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Compose(ctx, Scene{Raster: solid(10, 10, color.Black)}); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestReadRaster(t *testing.T) {
	p, err := memory.New(mapview.Options{Width: 100, Height: 50, PixelRatio: 2})
	if err != nil {
		t.Fatal(err)
	}
	r, err := ReadRaster(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if r.Image.Bounds().Dx() != 200 {
		t.Errorf("raster width = %d", r.Image.Bounds().Dx())
	}

	p.SetTainted(true)
	if _, err := ReadRaster(context.Background(), p); !errors.Is(err, errors.ErrCodeTaintedSurface) {
		t.Errorf("tainted err = %v", err)
	}
	p.SetTainted(false)

	p.FailReads(errors.New(errors.ErrCodeNetwork, "boom"))
	if _, err := ReadRaster(context.Background(), p); !errors.Is(err, errors.ErrCodeTaintedSurface) {
		t.Errorf("read failure err = %v", err)
	}
}

// TestExportFromStore runs the whole path: a marker at (10, 20) placed
// through the annotation store, exported at a pixel ratio of 2.
func TestExportFromStore(t *testing.T) {
	p, err := memory.New(mapview.Options{Center: geo.LngLat{Lng: 10, Lat: 20}, Zoom: 3, Width: 800, Height: 500, PixelRatio: 2})
	if err != nil {
		t.Fatal(err)
	}
	store := annotation.NewStore(p, annotation.NewClock(nil))
	if _, err := store.AddMarker(geo.LngLat{Lng: 10, Lat: 20}, annotation.Style{Color: "#ff0000"}); err != nil {
		t.Fatal(err)
	}
	before := store.Markers()

	raster, err := ReadRaster(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	scene := FromRaster(raster)
	glyphs, _ := store.Snapshot()
	for _, g := range glyphs {
		scene.Markers = append(scene.Markers, Glyph{
			Color: g.Color, Kind: g.Kind, Emoji: g.Emoji, Name: g.Name, Label: g.Label,
			Box: g.Box, Projected: g.Projected,
		})
	}

	res, _, err := NewExporter(nil).Export(context.Background(), scene)
	if err != nil {
		t.Fatal(err)
	}
	img := decode(t, res)

	// The marker sits at the map centre: logical (400,250), raster (800,500).
	c := scene.Markers[0].Center().Scale(res.Scale)
	cx, cy := int(math.Round(c.X)), int(math.Round(c.Y))
	if cx != 800 || cy != 500 {
		t.Errorf("centre = (%d,%d), want (800,500)", cx, cy)
	}
	for _, d := range []image.Point{{0, 0}, {11, 0}, {-11, 0}, {0, 11}, {0, -11}} {
		if !isRed(img, cx+d.X, cy+d.Y) {
			t.Errorf("pixel %v from centre = %v, want marker color", d, img.At(cx+d.X, cy+d.Y))
		}
	}

	if after := store.Markers(); len(after) != len(before) || after[0] != before[0] {
		t.Error("export changed the store")
	}
}

func TestExporterStats(t *testing.T) {
	scene := Scene{
		Raster:  solid(100, 100, color.Black),
		Markers: []Glyph{{Color: "#ff0000", Projected: geo.Point{X: 10, Y: 10}}},
		Legend:  []LegendRow{{Color: "#ff0000", Label: "x"}},
	}
	res, stats, err := NewExporter(nil).Export(context.Background(), scene)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Markers != 1 || stats.LegendRows != 1 || stats.Bytes != len(res.PNG) {
		t.Errorf("stats = %+v", stats)
	}
	if stats.ComposeTime < 0 {
		t.Errorf("compose time = %v", stats.ComposeTime)
	}
}
