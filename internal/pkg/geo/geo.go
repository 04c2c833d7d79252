package geo

import "math"

// EarthRadiusMeters is the mean Earth radius used by the haversine formula.
const EarthRadiusMeters = 6371000.0

type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (p Point) Valid() bool {
	return p.Latitude >= -90 && p.Latitude <= 90 && p.Longitude >= -180 && p.Longitude <= 180
}

// Distance returns the great-circle distance between a and b in meters.
func Distance(a, b Point) float64 {
	dLat := toRadians(b.Latitude - a.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)

	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1)*math.Cos(lat2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// WithinRadius reports whether p lies inside the circle (center, radiusMeters).
// The boundary is inclusive.
func WithinRadius(center Point, radiusMeters float64, p Point) bool {
	return Distance(center, p) <= radiusMeters
}

// Offset moves p north by meters along its meridian. Used to build test fixtures
// and boundary checks at a known distance.
func Offset(p Point, northMeters float64) Point {
	return Point{
		Latitude:  p.Latitude + northMeters/EarthRadiusMeters*180/math.Pi,
		Longitude: p.Longitude,
	}
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
