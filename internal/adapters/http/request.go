package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/samirrijal/sitescout/internal/core/domain"
)

// errMalformedBody is returned when the body is not a JSON object.
var errMalformedBody = errors.New("request body must be a JSON object")

// siteRequestBody mirrors the wire format; fields stay raw so that missing,
// empty and mistyped values can be told apart.
type siteRequestBody struct {
	Boundary  json.RawMessage `json:"boundary"`
	Time      json.RawMessage `json:"time"`
	PlantType json.RawMessage `json:"plant_type"`
}

type boundaryBody struct {
	LonMin *flexFloat `json:"lonMin"`
	LatMin *flexFloat `json:"latMin"`
	LonMax *flexFloat `json:"lonMax"`
	LatMax *flexFloat `json:"latMax"`
}

type timeBody struct {
	Start *string `json:"start"`
	End   *string `json:"end"`
}

// flexFloat accepts a JSON number or a string holding one.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return errors.New("not a finite number")
	}
	*f = flexFloat(v)
	return nil
}

// parseSiteRequest decodes body into a SiteRequest. Checks run in the order
// presence, boundary, time, plant type; range and ordering checks are left
// to usecases.ValidateRequest.
func parseSiteRequest(body []byte) (domain.SiteRequest, error) {
	var raw siteRequestBody
	if err := json.Unmarshal(body, &raw); err != nil {
		return domain.SiteRequest{}, errMalformedBody
	}

	if isEmpty(raw.Boundary) || isEmpty(raw.Time) || isEmpty(raw.PlantType) {
		return domain.SiteRequest{}, &domain.ValidationError{Message: domain.MsgMissingFields}
	}

	var req domain.SiteRequest

	var b boundaryBody
	if err := json.Unmarshal(raw.Boundary, &b); err != nil ||
		b.LonMin == nil || b.LatMin == nil || b.LonMax == nil || b.LatMax == nil {
		return req, &domain.ValidationError{Field: "boundary", Message: domain.MsgInvalidBoundary}
	}
	req.Boundary = domain.Bounds{
		LonMin: float64(*b.LonMin),
		LatMin: float64(*b.LatMin),
		LonMax: float64(*b.LonMax),
		LatMax: float64(*b.LatMax),
	}

	var t timeBody
	if err := json.Unmarshal(raw.Time, &t); err != nil || t.Start == nil || t.End == nil {
		return req, &domain.ValidationError{Field: "time", Message: domain.MsgInvalidTimeRange}
	}
	req.Time = domain.TimeRange{Start: strings.TrimSpace(*t.Start), End: strings.TrimSpace(*t.End)}

	var plant string
	if err := json.Unmarshal(raw.PlantType, &plant); err != nil {
		return req, &domain.ValidationError{Field: "plant_type", Message: domain.MsgInvalidPlantType}
	}
	pt, err := domain.ParsePlantType(plant)
	if err != nil {
		return req, err
	}
	req.PlantType = pt

	return req, nil
}

// isEmpty reports JSON values that count as not provided: absent, null,
// false, zero, "" and empty containers.
func isEmpty(v json.RawMessage) bool {
	s := string(bytes.TrimSpace(v))
	switch s {
	case "", "null", "false", "0", `""`, "{}", "[]":
		return true
	}
	if strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") {
		var elems []any
		var obj map[string]any
		if json.Unmarshal(v, &obj) == nil {
			return len(obj) == 0
		}
		if json.Unmarshal(v, &elems) == nil {
			return len(elems) == 0
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f == 0
	}
	return false
}
