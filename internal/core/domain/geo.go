package domain

import "math"

const earthRadiusMeters = 6371000.0

// Coordinates represents a geographic point.
type Coordinates struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// HaversineMeters returns the great-circle distance between two points in
// meters, on a spherical Earth approximation.
func HaversineMeters(a, b Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// MpsToMph converts a speed in meters per second to miles per hour.
func MpsToMph(mps float64) float64 {
	return mps * 2.23694
}

// YardsToMeters converts yards to meters.
func YardsToMeters(yd float64) float64 {
	return yd * 0.9144
}
