// Package static provides a map surface backed by the Mapbox Static Images
// API.
//
// Each ReadPixelBuffer call renders the current camera as a flat Web
// Mercator image (bearing and pitch zero) and strokes the line layers on
// top. When the deployment declares an origin, the upstream CORS decision
// for that origin is carried into the raster as its taint flag.
package static

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/globe/pkg/errors"
	"github.com/matzehuels/globe/pkg/integrations/mapbox"
	"github.com/matzehuels/globe/pkg/mapview"
)

// Provider is a [mapview.Provider] rendering through Mapbox.
type Provider struct {
	mapview.Surface
	client *mapbox.Client
	logger *log.Logger
}

// New returns an uninitialised provider; call Initialize before use.
func New(client *mapbox.Client, logger *log.Logger) *Provider {
	if logger == nil {
		logger = log.Default()
	}
	return &Provider{client: client, logger: logger}
}

// Initialize validates the token and surface size and resets the surface.
func (p *Provider) Initialize(opts mapview.Options) error {
	if p.client == nil || !p.client.HasToken() {
		return errors.New(errors.ErrCodeMapDisabled, "map token not configured")
	}
	if opts.Width > mapbox.MaxStaticSize || opts.Height > mapbox.MaxStaticSize {
		return errors.New(errors.ErrCodeInvalidInput,
			"surface %vx%v exceeds static image limit %d", opts.Width, opts.Height, mapbox.MaxStaticSize)
	}
	return p.Surface.Init(opts)
}

// ReadPixelBuffer fetches the current view and draws the line layers.
func (p *Provider) ReadPixelBuffer(ctx context.Context) (mapview.Raster, error) {
	opts := p.Options()
	cam := p.Camera()
	retina := opts.PixelRatio >= 1.5

	req := mapbox.StaticRequest{
		Style:  opts.Style,
		Lng:    cam.Center.Lng,
		Lat:    cam.Center.Lat,
		Zoom:   cam.Zoom,
		Width:  int(opts.Width + 0.5),
		Height: int(opts.Height + 0.5),
		Retina: retina,
	}
	p.logger.Debug("static image", "center", cam.Center, "zoom", cam.Zoom, "size", fmt.Sprintf("%dx%d", req.Width, req.Height), "retina", retina)

	res, err := p.client.StaticImage(ctx, req, opts.Origin)
	if err != nil {
		return mapview.Raster{}, fmt.Errorf("fetch static image: %w", err)
	}
	src, _, err := image.Decode(bytes.NewReader(res.Data))
	if err != nil {
		return mapview.Raster{}, errors.Wrap(errors.ErrCodeInvalidImage, err, "decode static image")
	}

	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)

	if err := p.DrawLines(dst, float64(b.Dx())/opts.Width); err != nil {
		return mapview.Raster{}, err
	}

	ratio := 1.0
	if retina {
		ratio = 2
	}
	if !res.CORSAllowed {
		p.logger.Warn("static image not cleared for origin", "origin", opts.Origin)
	}
	return mapview.Raster{
		Image:         dst,
		LogicalWidth:  opts.Width,
		LogicalHeight: opts.Height,
		PixelRatio:    ratio,
		Tainted:       !res.CORSAllowed,
	}, nil
}

var (
	_ mapview.Provider  = (*Provider)(nil)
	_ mapview.Inspector = (*Provider)(nil)
)
