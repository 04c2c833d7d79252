package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	saoPaulo := Point{Latitude: -23.5505, Longitude: -46.6333}
	rio := Point{Latitude: -22.9068, Longitude: -43.1729}

	d := Distance(saoPaulo, rio)
	assert.InDelta(t, 360_700, d, 2_000, "SP to RJ is roughly 361 km")
	assert.InDelta(t, d, Distance(rio, saoPaulo), 1e-6)
	assert.Zero(t, Distance(rio, rio))
}

func TestWithinRadius(t *testing.T) {
	center := Point{Latitude: -23.5505, Longitude: -46.6333}

	cases := []struct {
		name   string
		radius float64
		point  Point
		want   bool
	}{
		{"center with small radius", 1, center, true},
		{"center with large radius", 5000, center, true},
		{"inside", 100, Offset(center, 50), true},
		{"radius plus one meter", 100, Offset(center, 101), false},
		{"far away", 100, Offset(center, 10_000), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, WithinRadius(center, tc.radius, tc.point))
		})
	}
}

func TestOffsetDistance(t *testing.T) {
	center := Point{Latitude: 10, Longitude: 20}
	assert.InDelta(t, 250, Distance(center, Offset(center, 250)), 0.01)
}

func TestPointValid(t *testing.T) {
	assert.True(t, Point{Latitude: 90, Longitude: -180}.Valid())
	assert.False(t, Point{Latitude: 91, Longitude: 0}.Valid())
	assert.False(t, Point{Latitude: 0, Longitude: 181}.Valid())
}
