package annotation

import (
	"testing"
	"time"

	"github.com/matzehuels/globe/pkg/errors"
	"github.com/matzehuels/globe/pkg/geo"
	"github.com/matzehuels/globe/pkg/mapview"
	"github.com/matzehuels/globe/pkg/mapview/memory"
)

func newTestStore(t *testing.T) (*Store, *memory.Provider) {
	t.Helper()
	p, err := memory.New(mapview.Options{Center: geo.LngLat{Lng: 0, Lat: 20}, Zoom: 2, Width: 800, Height: 500, PixelRatio: 2})
	if err != nil {
		t.Fatal(err)
	}
	fixed := time.UnixMilli(1_700_000_000_000)
	return NewStore(p, NewClock(func() time.Time { return fixed })), p
}

// assertParity checks that every entry has exactly one live element and
// that no element is orphaned.
func assertParity(t *testing.T, s *Store, p *memory.Provider) {
	t.Helper()
	live := map[mapview.MarkerHandle]bool{}
	for _, h := range p.Markers() {
		live[h] = true
	}
	want := 0
	for _, m := range s.Markers() {
		want++
		if !live[m.Handle] {
			t.Errorf("marker %d has no live element", m.ID)
		}
	}
	for _, it := range s.LegendItems() {
		want++
		if !live[it.Handle] {
			t.Errorf("legend item %d has no live element", it.ID)
		}
	}
	if len(live) != want {
		t.Errorf("provider has %d elements, store has %d entries", len(live), want)
	}
}

func TestClockStrictlyIncreasing(t *testing.T) {
	fixed := time.UnixMilli(1000)
	c := NewClock(func() time.Time { return fixed })
	a, b, d := c.Next(), c.Next(), c.Next()
	if a != 1000 || b != 1001 || d != 1002 {
		t.Errorf("ids = %d, %d, %d; want 1000, 1001, 1002", a, b, d)
	}
}

func TestAddAndRemoveMarkers(t *testing.T) {
	s, p := newTestStore(t)

	m1, err := s.AddMarker(geo.LngLat{Lng: 1, Lat: 1}, Style{})
	if err != nil {
		t.Fatal(err)
	}
	if m1.Color != DefaultMarkerColor || m1.Kind != mapview.GlyphPin {
		t.Errorf("defaults not applied: %+v", m1.Style)
	}
	m2, _ := s.AddMarker(geo.LngLat{Lng: 2, Lat: 2}, Style{Color: "#00ff00", Kind: mapview.GlyphEmoji, Emoji: "🏛️"})
	if m2.ID <= m1.ID {
		t.Errorf("ids not increasing: %d then %d", m1.ID, m2.ID)
	}
	assertParity(t, s, p)

	if err := s.RemoveMarker(m1.ID); err != nil {
		t.Fatal(err)
	}
	assertParity(t, s, p)
	if err := s.RemoveMarker(m1.ID); !errors.Is(err, errors.ErrCodeMarkerNotFound) {
		t.Errorf("second remove err = %v", err)
	}

	s.ClearMarkers()
	if len(s.Markers()) != 0 {
		t.Error("ClearMarkers left entries")
	}
	assertParity(t, s, p)
}

func TestAddMarkerValidation(t *testing.T) {
	s, p := newTestStore(t)
	tests := []struct {
		name  string
		pos   geo.LngLat
		style Style
		code  errors.Code
	}{
		{"bad color", geo.LngLat{}, Style{Color: "red"}, errors.ErrCodeInvalidColor},
		{"bad lat", geo.LngLat{Lat: 91}, Style{}, errors.ErrCodeInvalidCoordinate},
		{"emoji without glyph", geo.LngLat{}, Style{Kind: mapview.GlyphEmoji}, errors.ErrCodeInvalidInput},
		{"unknown kind", geo.LngLat{}, Style{Kind: "star"}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.AddMarker(tt.pos, tt.style); !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
	if len(p.Markers()) != 0 {
		t.Error("failed adds must not leave elements")
	}
}

func TestReplaceMarkers(t *testing.T) {
	s, p := newTestStore(t)
	s.AddMarker(geo.LngLat{Lng: 1}, Style{})
	s.AddMarker(geo.LngLat{Lng: 2}, Style{})

	m, err := s.ReplaceMarkers(geo.LngLat{Lng: 3, Lat: 3}, Style{Name: "Tokyo"})
	if err != nil {
		t.Fatal(err)
	}
	got := s.Markers()
	if len(got) != 1 || got[0].ID != m.ID {
		t.Errorf("markers = %+v, want only %d", got, m.ID)
	}
	assertParity(t, s, p)
}

func TestLegendLifecycle(t *testing.T) {
	s, p := newTestStore(t)

	it, err := s.AddLegendItem(Style{})
	if err != nil {
		t.Fatal(err)
	}
	if it.Color != NewLegendColor || it.Label != NewLegendLabel {
		t.Errorf("new item defaults = %+v", it.Style)
	}
	if it.Position != p.Center() {
		t.Errorf("position = %+v, want map centre %+v", it.Position, p.Center())
	}
	assertParity(t, s, p)

	dest := geo.LngLat{Lng: 30, Lat: 10}
	if _, err := s.MoveLegendItem(it.ID, dest); err != nil {
		t.Fatal(err)
	}
	if pos, _ := p.MarkerPosition(it.Handle); pos != dest {
		t.Errorf("element position = %+v, want %+v", pos, dest)
	}

	color := "#123456"
	label := "Museums"
	updated, err := s.UpdateLegendItem(it.ID, LegendPatch{Color: &color, Label: &label})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Color != color || updated.Label != label {
		t.Errorf("updated = %+v", updated.Style)
	}
	if updated.Position != dest {
		t.Errorf("update lost position: %+v", updated.Position)
	}
	assertParity(t, s, p)

	bad := "nope"
	if _, err := s.UpdateLegendItem(it.ID, LegendPatch{Color: &bad}); !errors.Is(err, errors.ErrCodeInvalidColor) {
		t.Errorf("bad patch err = %v", err)
	}
	if got := s.LegendItems()[0]; got.Color != color {
		t.Error("failed patch must not change the item")
	}

	if err := s.RemoveLegendItem(it.ID); err != nil {
		t.Fatal(err)
	}
	assertParity(t, s, p)
	if err := s.RemoveLegendItem(it.ID); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("second remove err = %v", err)
	}
}

func TestLegendOrder(t *testing.T) {
	s, _ := newTestStore(t)
	for _, l := range []string{"a", "b", "c"} {
		if _, err := s.AddLegendItem(Style{Label: l}); err != nil {
			t.Fatal(err)
		}
	}
	items := s.LegendItems()
	for i, want := range []string{"a", "b", "c"} {
		if items[i].Label != want {
			t.Errorf("item %d = %q, want %q", i, items[i].Label, want)
		}
	}
}

func TestSnapshot(t *testing.T) {
	s, p := newTestStore(t)
	s.AddMarker(p.Center(), Style{Name: "Here"})
	s.AddLegendItem(Style{Label: "Legend"})

	glyphs, legend := s.Snapshot()
	if len(glyphs) != 2 || len(legend) != 1 {
		t.Fatalf("snapshot = %d glyphs, %d legend rows", len(glyphs), len(legend))
	}
	g := glyphs[0]
	if g.Box == nil {
		t.Fatal("marker glyph should carry its element box")
	}
	if g.Box.Center() != (geo.Point{X: 400, Y: 250}) || g.Projected != (geo.Point{X: 400, Y: 250}) {
		t.Errorf("glyph geometry = box %+v projected %+v", *g.Box, g.Projected)
	}
	if legend[0].Label != "Legend" {
		t.Errorf("legend row = %+v", legend[0])
	}
}
