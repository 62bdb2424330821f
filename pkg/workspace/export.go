package workspace

import (
	"context"

	"github.com/matzehuels/globe/pkg/annotation"
	"github.com/matzehuels/globe/pkg/compositor"
)

// Export renders the current view, markers, legend and header into a PNG.
//
// The raster, the annotation snapshot and the header are captured together
// under the workspace lock so they describe the same instant. Composition
// runs after the lock is released.
func (w *Workspace) Export(ctx context.Context) (*compositor.Result, compositor.Stats, error) {
	if err := w.requireMap(); err != nil {
		return nil, compositor.Stats{}, err
	}
	scene, err := w.Scene(ctx)
	if err != nil {
		return nil, compositor.Stats{}, err
	}
	return w.exporter.Export(ctx, scene)
}

// Scene captures the current state as a compositor scene.
func (w *Workspace) Scene(ctx context.Context) (compositor.Scene, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	raster, err := compositor.ReadRaster(ctx, w.provider)
	if err != nil {
		w.logger.Warn("export: pixel buffer unavailable", "err", err)
		return compositor.Scene{}, err
	}
	scene := compositor.FromRaster(raster)
	placed, legend := w.store.Snapshot()
	scene.Markers = Glyphs(placed)
	scene.Legend = LegendRows(legend)
	if w.header != nil {
		h := *w.header
		scene.Header = &h
	}
	return scene, nil
}

// Glyphs converts annotation snapshot entries to compositor glyphs.
func Glyphs(placed []annotation.Placed) []compositor.Glyph {
	out := make([]compositor.Glyph, 0, len(placed))
	for _, p := range placed {
		out = append(out, compositor.Glyph{
			Color:     p.Color,
			Kind:      p.Kind,
			Emoji:     p.Emoji,
			Name:      p.Name,
			Label:     p.Label,
			Box:       p.Box,
			Projected: p.Projected,
		})
	}
	return out
}

// LegendRows converts legend styles to compositor rows.
func LegendRows(styles []annotation.Style) []compositor.LegendRow {
	out := make([]compositor.LegendRow, 0, len(styles))
	for _, s := range styles {
		out = append(out, compositor.LegendRow{Color: s.Color, Kind: s.Kind, Emoji: s.Emoji, Label: s.Label})
	}
	return out
}
