package usecases_test

import (
	"testing"

	"github.com/samirrijal/sitescout/internal/core/domain"
	"github.com/samirrijal/sitescout/internal/core/usecases"
)

func TestBuildModel_Wind(t *testing.T) {
	model, reqs, err := usecases.BuildModel(windRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := model.Value.Op.(domain.Magnitude); !ok {
		t.Errorf("expected wind speed to be a magnitude, got %T", model.Value.Op)
	}
	names := []string{}
	for _, l := range model.Layers() {
		names = append(names, l.Name)
	}
	want := []string{domain.LayerWindSpeed, domain.LayerVegetation, domain.LayerUrbanDistance}
	if len(names) != len(want) {
		t.Fatalf("expected layers %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("layer %d: expected %s, got %s", i, want[i], names[i])
		}
	}

	urban := model.Penalties[1]
	cp, ok := urban.Op.(domain.ClassPenalty)
	if !ok || cp.Class != 30 || cp.Weight != 10000 {
		t.Errorf("unexpected urban penalty: %+v", urban.Op)
	}
	if urban.Reduce != domain.ReduceFirst {
		t.Errorf("expected WorldCover reduced with first, got %s", urban.Reduce)
	}

	if len(reqs) != 3 || reqs[0].Source.Collection != domain.CollectionMODISLandCover {
		t.Errorf("expected MODIS check first of 3, got %+v", reqs)
	}
}

func TestBuildModel_Solar(t *testing.T) {
	model, reqs, err := usecases.BuildModel(solarRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if model.Value.Name != domain.LayerSolarValue || len(model.Penalties) != 1 {
		t.Errorf("unexpected solar model: %+v", model)
	}
	if len(reqs) != 2 || reqs[1].Source.Collection != domain.CollectionMERRA2 {
		t.Errorf("unexpected requirements: %+v", reqs)
	}
}

func TestBuildModel_UnknownPlant(t *testing.T) {
	req := windRequest()
	req.PlantType = "hydro"
	if _, _, err := usecases.BuildModel(req); !domain.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestValidateRequest(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*domain.SiteRequest)
		msg    string
	}{
		{"valid", func(r *domain.SiteRequest) {}, ""},
		{"rfc3339 dates", func(r *domain.SiteRequest) {
			r.Time = domain.TimeRange{Start: "2019-01-01T00:00:00Z", End: "2019-06-01T00:00:00Z"}
		}, ""},
		{"lon out of range", func(r *domain.SiteRequest) { r.Boundary.LonMax = 181 }, domain.MsgInvalidBoundary},
		{"lat out of range", func(r *domain.SiteRequest) { r.Boundary.LatMin = -91 }, domain.MsgInvalidBoundary},
		{"inverted lat", func(r *domain.SiteRequest) { r.Boundary.LatMin, r.Boundary.LatMax = 44, 43 }, domain.MsgInvalidBoundary},
		{"bad date", func(r *domain.SiteRequest) { r.Time.Start = "yesterday" }, domain.MsgInvalidTimeRange},
		{"empty range", func(r *domain.SiteRequest) { r.Time.End = r.Time.Start }, domain.MsgInvalidTimeRange},
		{"plant", func(r *domain.SiteRequest) { r.PlantType = "nuclear" }, domain.MsgInvalidPlantType},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := windRequest()
			tc.mutate(&req)
			err := usecases.ValidateRequest(req)
			if tc.msg == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || err.Error() != tc.msg {
				t.Errorf("expected %q, got %v", tc.msg, err)
			}
		})
	}
}
