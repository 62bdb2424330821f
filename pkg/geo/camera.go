package geo

import "math"

// TileSize is the pixel size of one world tile at zoom 0, matching the
// vector-tile renderers the globe is drawn with.
const TileSize = 512.0

// maxLat is the latitude limit of the Web Mercator projection.
const maxLat = 85.051129

// Camera describes a flat (Web Mercator) view of the map: a centre, a zoom
// level and the logical size of the viewport. Bearing and pitch are not
// modelled; static renderers are requested with both at zero.
type Camera struct {
	Center LngLat  `json:"center"`
	Zoom   float64 `json:"zoom"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// worldSize returns the side length in logical pixels of the whole world at
// the camera zoom.
func (c Camera) worldSize() float64 {
	return TileSize * math.Pow(2, c.Zoom)
}

// world projects p into world pixel coordinates at the camera zoom.
func (c Camera) world(p LngLat) Point {
	size := c.worldSize()
	lat := math.Max(-maxLat, math.Min(maxLat, p.Lat))
	x := (p.Lng + 180) / 360 * size
	sin := math.Sin(lat * math.Pi / 180)
	y := (0.5 - math.Log((1+sin)/(1-sin))/(4*math.Pi)) * size
	return Point{X: x, Y: y}
}

// Project converts a geographic position to logical screen pixels.
func (c Camera) Project(p LngLat) Point {
	w := c.world(p)
	ctr := c.world(c.Center)
	return Point{
		X: w.X - ctr.X + c.Width/2,
		Y: w.Y - ctr.Y + c.Height/2,
	}
}

// Unproject converts logical screen pixels back to a geographic position.
func (c Camera) Unproject(s Point) LngLat {
	size := c.worldSize()
	ctr := c.world(c.Center)
	wx := s.X - c.Width/2 + ctr.X
	wy := s.Y - c.Height/2 + ctr.Y
	lng := wx/size*360 - 180
	n := math.Pi - 2*math.Pi*wy/size
	lat := 180 / math.Pi * math.Atan(0.5*(math.Exp(n)-math.Exp(-n)))
	return LngLat{Lng: lng, Lat: lat}
}
