// Package memory provides an in-process map surface.
//
// The surface's pixels are a solid background or a caller-supplied base
// image with the line layers drawn on top. It needs no token and no network
// and backs tests, the offline `globe export` command and servers started
// without a map token.
package memory

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/matzehuels/globe/pkg/errors"
	"github.com/matzehuels/globe/pkg/mapview"
)

// Background is the fill used when no base image is supplied.
var Background = color.RGBA{R: 0x0b, G: 0x10, B: 0x20, A: 0xff}

// Provider is an in-memory [mapview.Provider].
type Provider struct {
	mapview.Surface

	mu      sync.RWMutex
	base    image.Image
	tainted bool
	readErr error
}

// New returns a provider initialised with opts.
func New(opts mapview.Options) (*Provider, error) {
	p := &Provider{}
	if err := p.Initialize(opts); err != nil {
		return nil, err
	}
	return p, nil
}

// Initialize resets the surface.
func (p *Provider) Initialize(opts mapview.Options) error {
	return p.Surface.Init(opts)
}

// SetBase replaces the base image. Its bounds become the raster size, so a
// base that does not match LogicalWidth×PixelRatio yields a raster with a
// different scale.
func (p *Provider) SetBase(img image.Image) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.base = img
}

// SetTainted marks the surface as holding cross-origin pixels.
func (p *Provider) SetTainted(tainted bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tainted = tainted
}

// FailReads makes ReadPixelBuffer return err until called with nil.
func (p *Provider) FailReads(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readErr = err
}

// ReadPixelBuffer renders the base and the line layers.
func (p *Provider) ReadPixelBuffer(ctx context.Context) (mapview.Raster, error) {
	if err := ctx.Err(); err != nil {
		return mapview.Raster{}, err
	}
	p.mu.RLock()
	base, tainted, readErr := p.base, p.tainted, p.readErr
	p.mu.RUnlock()
	if readErr != nil {
		return mapview.Raster{}, errors.Wrap(errors.ErrCodeTaintedSurface, readErr, "read pixel buffer")
	}

	opts := p.Options()
	var dst *image.RGBA
	if base != nil {
		b := base.Bounds()
		dst = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(dst, dst.Bounds(), base, b.Min, draw.Src)
	} else {
		w := int(opts.Width*opts.PixelRatio + 0.5)
		h := int(opts.Height*opts.PixelRatio + 0.5)
		dst = image.NewRGBA(image.Rect(0, 0, w, h))
		draw.Draw(dst, dst.Bounds(), &image.Uniform{C: Background}, image.Point{}, draw.Src)
	}

	scale := float64(dst.Bounds().Dx()) / opts.Width
	if err := p.DrawLines(dst, scale); err != nil {
		return mapview.Raster{}, err
	}
	return mapview.Raster{
		Image:         dst,
		LogicalWidth:  opts.Width,
		LogicalHeight: opts.Height,
		PixelRatio:    opts.PixelRatio,
		Tainted:       tainted,
	}, nil
}

var (
	_ mapview.Provider  = (*Provider)(nil)
	_ mapview.Inspector = (*Provider)(nil)
)
