package domain

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	LonMin float64 `json:"lonMin" validate:"gte=-180,lte=180"`
	LatMin float64 `json:"latMin" validate:"gte=-90,lte=90"`
	LonMax float64 `json:"lonMax" validate:"gte=-180,lte=180,gtfield=LonMin"`
	LatMax float64 `json:"latMax" validate:"gte=-90,lte=90,gtfield=LatMin"`
}

// Center returns the arithmetic midpoint of the box.
func (b Bounds) Center() GeoPoint {
	return GeoPoint{
		Lat: (b.LatMin + b.LatMax) / 2,
		Lon: (b.LonMin + b.LonMax) / 2,
	}
}
