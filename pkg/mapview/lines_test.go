package mapview

import (
	"image"
	"image/color"
	"testing"

	"github.com/matzehuels/globe/pkg/geo"
)

func TestStrokeLinesScale(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 200, 200))
	lines := []Line{{
		Points: []geo.Point{{X: 10, Y: 50}, {X: 90, Y: 50}},
		Color:  "#00ff00",
		Width:  LineWidth,
	}}
	if err := StrokeLines(dst, lines, 2); err != nil {
		t.Fatal(err)
	}
	on := dst.RGBAAt(100, 100)
	if on.G < 200 {
		t.Errorf("pixel on scaled line = %v, want green", on)
	}
	if off := dst.RGBAAt(100, 50); off != (color.RGBA{}) {
		t.Errorf("pixel at unscaled position = %v, want transparent", off)
	}
}

func TestStrokeLinesSkipsDegenerate(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 10, 10))
	lines := []Line{{Points: []geo.Point{{X: 5, Y: 5}}, Color: "not-a-color"}}
	if err := StrokeLines(dst, lines, 1); err != nil {
		t.Errorf("single-point line should be skipped, got %v", err)
	}
}

func TestStrokeLinesInvalidColor(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 10, 10))
	lines := []Line{{Points: []geo.Point{{X: 1, Y: 1}, {X: 9, Y: 9}}, Color: "blue"}}
	if err := StrokeLines(dst, lines, 1); err == nil {
		t.Error("invalid color should fail")
	}
}

func TestElementSize(t *testing.T) {
	tests := []struct {
		el   Element
		w, h float64
	}{
		{Element{Kind: GlyphPin}, PinSize, PinSize},
		{Element{Kind: GlyphEmoji}, EmojiSize, EmojiSize},
		{Element{Kind: GlyphPin, Width: 40}, 40, PinSize},
	}
	for _, tt := range tests {
		w, h := tt.el.size()
		if w != tt.w || h != tt.h {
			t.Errorf("%+v size = %v,%v want %v,%v", tt.el, w, h, tt.w, tt.h)
		}
	}
}
