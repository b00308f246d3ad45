package http

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/samirrijal/sitescout/internal/core/domain"
)

func TestIsEmpty(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"", true},
		{"null", true},
		{"false", true},
		{"0", true},
		{"0.0", true},
		{`""`, true},
		{"{}", true},
		{"[ ]", true},
		{"true", false},
		{"1", false},
		{`"wind"`, false},
		{`{"lonMin": 1}`, false},
		{"[1]", false},
	}
	for _, tt := range tests {
		if got := isEmpty(json.RawMessage(tt.raw)); got != tt.want {
			t.Errorf("isEmpty(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestFlexFloat(t *testing.T) {
	tests := []struct {
		raw     string
		want    float64
		wantErr bool
	}{
		{"12.5", 12.5, false},
		{`"-3.25"`, -3.25, false},
		{`" 7 "`, 7, false},
		{`"NaN"`, 0, true},
		{`"Inf"`, 0, true},
		{`"north"`, 0, true},
		{"true", 0, true},
		{"[]", 0, true},
	}
	for _, tt := range tests {
		var f flexFloat
		err := json.Unmarshal([]byte(tt.raw), &f)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: err = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && float64(f) != tt.want {
			t.Errorf("%s: got %v, want %v", tt.raw, float64(f), tt.want)
		}
	}
}

func TestParseSiteRequest(t *testing.T) {
	req, err := parseSiteRequest([]byte(`{
		"boundary": {"lonMin": "-3.2", "latMin": 42.9, "lonMax": -2.6, "latMax": "43.4"},
		"time": {"start": " 2019-01-01 ", "end": "2020-01-01"},
		"plant_type": "Solar"
	}`))
	if err != nil {
		t.Fatal(err)
	}
	want := domain.SiteRequest{
		Boundary:  domain.Bounds{LonMin: -3.2, LatMin: 42.9, LonMax: -2.6, LatMax: 43.4},
		Time:      domain.TimeRange{Start: "2019-01-01", End: "2020-01-01"},
		PlantType: domain.PlantSolar,
	}
	if req != want {
		t.Errorf("got %+v, want %+v", req, want)
	}
}

func TestParseSiteRequest_CheckOrder(t *testing.T) {
	// Every field is bad; the boundary is reported first.
	_, err := parseSiteRequest([]byte(`{"boundary": {"lonMin": "x"}, "time": {"start": 1}, "plant_type": "tidal"}`))
	var v *domain.ValidationError
	if !errors.As(err, &v) || v.Message != domain.MsgInvalidBoundary {
		t.Fatalf("expected boundary error, got %v", err)
	}

	_, err = parseSiteRequest([]byte(`{"boundary": {"lonMin": 1, "latMin": 1, "lonMax": 2, "latMax": 2}, "time": {"start": 1}, "plant_type": "tidal"}`))
	if !errors.As(err, &v) || v.Message != domain.MsgInvalidTimeRange {
		t.Fatalf("expected time error, got %v", err)
	}

	_, err = parseSiteRequest([]byte(`[1, 2]`))
	if !errors.Is(err, errMalformedBody) {
		t.Fatalf("expected malformed body, got %v", err)
	}
}
