package spatial

import (
	"github.com/golang/geo/s2"
)

// Point represents a 2D point with latitude and longitude
type Point struct {
	Lat float64
	Lon float64
}

// BoundingBox is a closed latitude/longitude rectangle
type BoundingBox struct {
	rect s2.Rect
}

// NewBoundingBox builds the rectangle spanning the two corners
func NewBoundingBox(minLat, minLon, maxLat, maxLon float64) BoundingBox {
	rect := s2.RectFromLatLng(s2.LatLngFromDegrees(minLat, minLon)).
		AddPoint(s2.LatLngFromDegrees(maxLat, maxLon))
	return BoundingBox{rect: rect}
}

// NYCBounds covers the five boroughs. Points outside it are treated as bad geocodes.
var NYCBounds = NewBoundingBox(40.4, -74.5, 40.9, -73.5)

// Contains reports whether p lies inside the box, edges included
func (b BoundingBox) Contains(p Point) bool {
	return b.rect.ContainsLatLng(s2.LatLngFromDegrees(p.Lat, p.Lon))
}

// Center returns the box midpoint
func (b BoundingBox) Center() Point {
	c := b.rect.Center()
	return Point{Lat: c.Lat.Degrees(), Lon: c.Lng.Degrees()}
}
