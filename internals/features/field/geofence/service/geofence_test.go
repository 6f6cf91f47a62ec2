package service

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance_SamePointIsZero(t *testing.T) {
	assert.Equal(t, 0.0, Distance(12.9716, 77.5946, 12.9716, 77.5946))
	assert.Equal(t, 0.0, Distance(-33.86, 151.2, -33.86, 151.2))
}

func TestDistance_Symmetric(t *testing.T) {
	cases := [][4]float64{
		{12.9716, 77.5946, 13.0827, 80.2707},
		{28.6139, 77.2090, 19.0760, 72.8777},
		{-1.2921, 36.8219, 51.5074, -0.1278},
		{0, 179.9, 0, -179.9},
	}
	for _, c := range cases {
		ab := Distance(c[0], c[1], c[2], c[3])
		ba := Distance(c[2], c[3], c[0], c[1])
		assert.InDelta(t, ab, ba, 1e-9)
	}
}

func TestDistance_OneDegreeOfLatitude(t *testing.T) {
	want := EarthRadiusKm * math.Pi / 180 // ~111.19 km
	got := Distance(10, 76, 11, 76)
	assert.InEpsilon(t, want, got, 0.01)
	assert.InDelta(t, 111.19, got, 0.5)
}

func TestWithinRadius_InclusiveBoundary(t *testing.T) {
	lat, lng := 12.9716, 77.5946
	siteLat, siteLng := 12.9790, 77.5980 // ~0.90 km
	d := Distance(lat, lng, siteLat, siteLng)
	assert.InDelta(t, 0.90, d, 0.02)

	assert.True(t, WithinRadius(lat, lng, siteLat, siteLng, d))
	assert.False(t, WithinRadius(lat, lng, siteLat, siteLng, d-1e-6))
	assert.True(t, WithinRadius(lat, lng, siteLat, siteLng, DefaultNGORadiusKm))

	// ~1.10 km: di luar radius NGO
	assert.False(t, WithinRadius(lat, lng, 12.9800, 77.6000, DefaultNGORadiusKm))
}

func TestWithinRadius_CommunityRadius(t *testing.T) {
	// ~0.44 km utara
	assert.True(t, WithinRadius(12.9756, 77.5946, 12.9716, 77.5946, DefaultCommunityRadiusKm))
	// ~0.67 km utara
	assert.False(t, WithinRadius(12.9776, 77.5946, 12.9716, 77.5946, DefaultCommunityRadiusKm))
}

func TestNearest(t *testing.T) {
	sites := []Site{
		{Name: "Lake North", Latitude: 12.99, Longitude: 77.59},
		{Name: "Lake South", Latitude: 12.95, Longitude: 77.59},
	}

	m, ok := Nearest(12.952, 77.591, sites, DefaultNGORadiusKm)
	assert.True(t, ok)
	assert.Equal(t, "Lake South", m.Site.Name)
	assert.Less(t, m.DistanceKm, 1.0)

	m, ok = Nearest(13.2, 77.59, sites, DefaultNGORadiusKm)
	assert.False(t, ok)
	assert.Equal(t, "Lake North", m.Site.Name)
	assert.Greater(t, m.DistanceKm, 20.0)

	_, ok = Nearest(13.2, 77.59, nil, DefaultNGORadiusKm)
	assert.False(t, ok)
}

func TestValidCoordinate(t *testing.T) {
	assert.True(t, ValidCoordinate(90, 180))
	assert.True(t, ValidCoordinate(-90, -180))
	assert.False(t, ValidCoordinate(90.0001, 0))
	assert.False(t, ValidCoordinate(0, -180.5))
	assert.False(t, ValidCoordinate(math.NaN(), 0))
}
