package domain

import "time"

// DefaultMarkerRadiusM is the trigger radius applied when a marker does not
// carry its own: 50 yards.
const DefaultMarkerRadiusM = 45.72

// ProximityMarker is a geo-tagged point of interest supplied by the catalog.
// Title/Description and Extra are opaque to the core; detection only uses the
// coordinates and radius.
type ProximityMarker struct {
	ID          string            `json:"id" bson:"_id"`
	Lat         float64           `json:"lat" bson:"lat"`
	Lng         float64           `json:"lng" bson:"lng"`
	RadiusM     float64           `json:"radius_m" bson:"radius_m"`
	Title       string            `json:"title,omitempty" bson:"title,omitempty"`
	Description string            `json:"description,omitempty" bson:"description,omitempty"`
	Extra       map[string]string `json:"extra,omitempty" bson:"extra,omitempty"`
}

// TriggerRadiusM returns the marker's radius, falling back to the default.
func (m ProximityMarker) TriggerRadiusM() float64 {
	if m.RadiusM > 0 {
		return m.RadiusM
	}
	return DefaultMarkerRadiusM
}

// Center returns the marker's coordinates.
func (m ProximityMarker) Center() Coordinates {
	return Coordinates{Lat: m.Lat, Lng: m.Lng}
}

// HeardMarkerRecord marks that a marker has already been presented to a
// subject. Its presence is the sole dedup signal preventing re-presentation.
type HeardMarkerRecord struct {
	SubjectID string    `json:"subject_id"`
	MarkerID  string    `json:"marker_id"`
	HeardAt   time.Time `json:"heard_at"`
}

// BoundingBox is the coarse prefilter window for catalog queries.
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

// BoxAround returns a bounding box spanning ±latDeg / ±lngDeg around a point.
func BoxAround(c Coordinates, latDeg, lngDeg float64) BoundingBox {
	return BoundingBox{
		MinLat: c.Lat - latDeg,
		MaxLat: c.Lat + latDeg,
		MinLng: c.Lng - lngDeg,
		MaxLng: c.Lng + lngDeg,
	}
}
