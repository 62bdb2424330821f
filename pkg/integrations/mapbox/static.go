package mapbox

import (
	"context"
	"fmt"
	"math"

	"github.com/matzehuels/globe/pkg/httputil"
)

// StaticRequest describes one rendered map view.
type StaticRequest struct {
	Style   string // "user/style-id"; DefaultStyle when empty
	Lng     float64
	Lat     float64
	Zoom    float64
	Bearing float64
	Pitch   float64
	Width   int // logical px, at most MaxStaticSize
	Height  int // logical px, at most MaxStaticSize
	Retina  bool
}

// StaticImage is a rendered map image.
type StaticImage struct {
	Data        []byte
	ContentType string

	// CORSAllowed reports whether the upstream granted the requesting origin
	// read access to the pixels.
	CORSAllowed bool
}

// URL returns the Static Images API URL for r without the access token.
func (r StaticRequest) URL(baseURL string) string {
	style := r.Style
	if style == "" {
		style = DefaultStyle
	}
	size := fmt.Sprintf("%dx%d", r.Width, r.Height)
	if r.Retina {
		size += "@2x"
	}
	return fmt.Sprintf("%s/styles/v1/%s/static/%s,%s,%s,%s,%s/%s",
		baseURL, style,
		trimFloat(r.Lng, 6), trimFloat(r.Lat, 6), trimFloat(r.Zoom, 2),
		trimFloat(r.Bearing, 1), trimFloat(r.Pitch, 1), size)
}

// StaticImage renders r. When origin is non-empty it is sent as the Origin
// header and the response's Access-Control-Allow-Origin decides CORSAllowed;
// with an empty origin the image counts as same-origin.
func (c *Client) StaticImage(ctx context.Context, r StaticRequest, origin string) (*StaticImage, error) {
	if c.token == "" {
		return nil, ErrNoToken
	}
	if r.Width <= 0 || r.Height <= 0 || r.Width > MaxStaticSize || r.Height > MaxStaticSize {
		return nil, fmt.Errorf("mapbox: static size %dx%d out of range (1..%d)", r.Width, r.Height, MaxStaticSize)
	}

	u := r.URL(c.baseURL) + "?access_token=" + c.token
	var headers map[string]string
	if origin != "" {
		headers = map[string]string{"Origin": origin}
	}

	var img *StaticImage
	err := httputil.RetryWithBackoff(ctx, func() error {
		resp, err := c.GetRaw(ctx, u, headers)
		if err != nil {
			return err
		}
		allow := resp.Header.Get("Access-Control-Allow-Origin")
		img = &StaticImage{
			Data:        resp.Body,
			ContentType: resp.Header.Get("Content-Type"),
			CORSAllowed: origin == "" || allow == "*" || allow == origin,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return img, nil
}

func trimFloat(v float64, places int) string {
	p := math.Pow(10, float64(places))
	v = math.Round(v*p) / p
	return fmt.Sprintf("%g", v)
}
