// Package service computes great-circle distances and geofence decisions.
package service

import "math"

const EarthRadiusKm = 6371.0

// Radius default per jenis check-in.
const (
	DefaultNGORadiusKm       = 1.0 // staf NGO vs site mana pun milik proyek
	DefaultCommunityRadiusKm = 0.5 // anggota komunitas vs koordinat proyek
)

type Site struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Match struct {
	Site       Site    `json:"site"`
	DistanceKm float64 `json:"distance_km"`
}

// Distance returns the Haversine distance in kilometers.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	a := sinLat*sinLat + math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*sinLng*sinLng
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// WithinRadius is inclusive at the boundary.
func WithinRadius(userLat, userLng, siteLat, siteLng, radiusKm float64) bool {
	return Distance(userLat, userLng, siteLat, siteLng) <= radiusKm
}

// Nearest returns the closest site; ok reports whether it lies within radiusKm.
// With no sites the zero Match and false are returned.
func Nearest(lat, lng float64, sites []Site, radiusKm float64) (Match, bool) {
	if len(sites) == 0 {
		return Match{}, false
	}
	best := Match{Site: sites[0], DistanceKm: Distance(lat, lng, sites[0].Latitude, sites[0].Longitude)}
	for _, s := range sites[1:] {
		if d := Distance(lat, lng, s.Latitude, s.Longitude); d < best.DistanceKm {
			best = Match{Site: s, DistanceKm: d}
		}
	}
	return best, best.DistanceKm <= radiusKm
}

// ValidCoordinate must be checked by callers before Distance.
func ValidCoordinate(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

func toRad(deg float64) float64 { return deg * math.Pi / 180 }
