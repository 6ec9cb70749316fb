package spatial

import (
	"math"

	"github.com/golang/geo/s2"
)

// EarthRadiusMeters is Earth's mean radius
const EarthRadiusMeters = 6371000.0

// HaversineDistance calculates the great-circle distance between two points in meters
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// RadiusMeters converts a degree-space radius to ground distance around center.
// The radius is measured along the latitude axis, where a degree has constant length.
func RadiusMeters(center Point, radiusDeg float64) float64 {
	if radiusDeg <= 0 || math.IsNaN(radiusDeg) {
		return 0
	}
	return HaversineDistance(center.Lat, center.Lon, center.Lat+radiusDeg, center.Lon)
}

// SquaredDistance is the planar squared Euclidean distance in degree space
func SquaredDistance(a, b Point) float64 {
	dLat := a.Lat - b.Lat
	dLon := a.Lon - b.Lon
	return dLat*dLat + dLon*dLon
}
