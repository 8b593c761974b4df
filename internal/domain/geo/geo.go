// Package geo holds WGS84 coordinate helpers shared by filters and ingestion.
package geo

import "math"

// EarthRadiusMeters is the mean radius of Earth used for Haversine distance.
const EarthRadiusMeters = 6_371_000.0

// MaxRadiusKm bounds a proximity search. It covers the antipode (about 20,015 km),
// so a radius at the ceiling matches every point.
const MaxRadiusKm = 20_016.0

// Haversine returns the great-circle distance in meters between two points
// specified by latitude and longitude in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1r := lat1 * math.Pi / 180
	lat2r := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMeters * c
}

// KmToMeters converts a radius in kilometers to meters.
func KmToMeters(km float64) float64 { return km * 1000 }

// ValidLat reports whether lat is a finite value in [-90, 90].
func ValidLat(lat float64) bool {
	return !math.IsNaN(lat) && lat >= -90 && lat <= 90
}

// ValidLon reports whether lon is a finite value in [-180, 180].
func ValidLon(lon float64) bool {
	return !math.IsNaN(lon) && lon >= -180 && lon <= 180
}
