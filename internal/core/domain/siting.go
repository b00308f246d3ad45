package domain

import (
	"fmt"
	"strings"
	"time"
)

// PlantType selects which suitability formula is evaluated.
type PlantType string

const (
	PlantWind  PlantType = "wind"
	PlantSolar PlantType = "solar"
)

// ParsePlantType accepts any casing of "wind" or "solar".
func ParsePlantType(s string) (PlantType, error) {
	switch PlantType(strings.ToLower(strings.TrimSpace(s))) {
	case PlantWind:
		return PlantWind, nil
	case PlantSolar:
		return PlantSolar, nil
	default:
		return "", &ValidationError{Field: "plant_type", Message: MsgInvalidPlantType}
	}
}

// DateLayout is the calendar-date form accepted for time ranges.
const DateLayout = "2006-01-02"

// TimeRange is a half-open date interval [Start, End) passed through to the
// remote collections as-is.
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Parse returns both ends as times. Calendar dates and RFC 3339 are accepted.
func (t TimeRange) Parse() (time.Time, time.Time, error) {
	start, err := parseDate(t.Start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start: %w", err)
	}
	end, err := parseDate(t.End)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end: %w", err)
	}
	return start, end, nil
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// SiteRequest is a validated optimal-location query.
type SiteRequest struct {
	Boundary  Bounds    `json:"boundary"`
	Time      TimeRange `json:"time"`
	PlantType PlantType `json:"plant_type"`
}

// CacheKey identifies requests that must yield the same answer.
func (r SiteRequest) CacheKey() string {
	b := r.Boundary
	return fmt.Sprintf("siting:optimal:%s:%.4f:%.4f:%.4f:%.4f:%s:%s",
		r.PlantType, b.LonMin, b.LatMin, b.LonMax, b.LatMax, r.Time.Start, r.Time.End)
}

// SiteResult is the best sampled point and its diagnostic band values.
type SiteResult struct {
	OptimalPoint      GeoPoint  `json:"optimal_point"`
	Value             float64   `json:"value"`
	Vegetation        float64   `json:"vegetation"`
	Score             float64   `json:"score"`
	Center            GeoPoint  `json:"center"`
	PlantType         PlantType `json:"plant_type"`
	DistanceToCenterM float64   `json:"distance_to_center_m"`
}

// Sample is one point drawn from the combined score image.
type Sample struct {
	Point      GeoPoint
	Properties map[string]float64
}
