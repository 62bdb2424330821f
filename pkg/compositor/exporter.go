package compositor

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/globe/pkg/errors"
	"github.com/matzehuels/globe/pkg/mapview"
	"github.com/matzehuels/globe/pkg/observability"
)

// Stats describes one export.
type Stats struct {
	ComposeTime time.Duration
	Markers     int
	LegendRows  int
	Bytes       int
}

// Exporter wraps Compose with logging, timing and observability hooks.
// It holds no export state; one Exporter may serve many goroutines.
type Exporter struct {
	Logger *log.Logger
}

// NewExporter returns an exporter logging to logger (log.Default() when
// nil).
func NewExporter(logger *log.Logger) *Exporter {
	if logger == nil {
		logger = log.Default()
	}
	return &Exporter{Logger: logger}
}

// Export composes scene.
func (x *Exporter) Export(ctx context.Context, scene Scene) (*Result, Stats, error) {
	stats := Stats{Markers: len(scene.Markers), LegendRows: len(scene.Legend)}
	observability.Export().OnExportStart(ctx, stats.Markers, stats.LegendRows)

	start := time.Now()
	res, err := Compose(ctx, scene)
	stats.ComposeTime = time.Since(start)
	if res != nil {
		stats.Bytes = len(res.PNG)
	}
	observability.Export().OnExportComplete(ctx, stats.Bytes, stats.ComposeTime, err)

	if err != nil {
		x.Logger.Warn("export failed", "err", err)
		return nil, stats, err
	}
	x.Logger.Info("exported infographic",
		"width", res.Width, "height", res.Height,
		"scale", res.Scale,
		"markers", stats.Markers,
		"legend", stats.LegendRows,
		"bytes", stats.Bytes,
		"duration", stats.ComposeTime)
	return res, stats, nil
}

// ReadRaster reads the provider's pixel buffer. Read failures and tainted
// buffers are reported as errors.ErrCodeTaintedSurface and are not retried.
// A disabled map keeps its own code.
func ReadRaster(ctx context.Context, p mapview.Provider) (mapview.Raster, error) {
	r, err := p.ReadPixelBuffer(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return mapview.Raster{}, err
		}
		switch errors.GetCode(err) {
		case errors.ErrCodeTaintedSurface, errors.ErrCodeMapDisabled:
			return mapview.Raster{}, err
		}
		return mapview.Raster{}, errors.Wrap(errors.ErrCodeTaintedSurface, err, "%s", TaintedNotice)
	}
	if r.Tainted {
		return mapview.Raster{}, errors.New(errors.ErrCodeTaintedSurface, "%s", TaintedNotice)
	}
	return r, nil
}

// FromRaster starts a scene from a pixel buffer snapshot.
func FromRaster(r mapview.Raster) Scene {
	return Scene{
		Raster:        r.Image,
		LogicalWidth:  r.LogicalWidth,
		LogicalHeight: r.LogicalHeight,
		PixelRatio:    r.PixelRatio,
		Tainted:       r.Tainted,
	}
}
