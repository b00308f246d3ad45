package earthengine

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/samirrijal/sitescout/internal/core/domain"
)

// fakeEE answers value:compute by the root function name.
type fakeEE struct {
	t       *testing.T
	replies map[string]string
	status  int
	calls   []string
	auth    string
}

func (f *fakeEE) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.URL.Path != "/v1/projects/demo/value:compute" {
		f.t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	}
	f.auth = r.Header.Get("Authorization")

	body, _ := io.ReadAll(r.Body)
	var req computeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		f.t.Errorf("bad request body: %v", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	root := decodeValues(f.t, req.Expression)[req.Expression.Result].FunctionInvocationValue
	fn := root.FunctionName
	f.calls = append(f.calls, fn)

	w.Header().Set("Content-Type", "application/json")
	if f.status != 0 {
		w.WriteHeader(f.status)
		_, _ = io.WriteString(w, `{"error":{"code":400,"message":"Collection.load: Collection asset 'X' not found.","status":"INVALID_ARGUMENT"}}`)
		return
	}
	reply, ok := f.replies[fn]
	if !ok {
		f.t.Errorf("no reply for %s", fn)
		reply = "null"
	}
	_, _ = io.WriteString(w, `{"result":`+reply+`}`)
}

func newTestEngine(t *testing.T, f *fakeEE) *Engine {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return NewEngine(NewClient(ClientOptions{
		BaseURL: srv.URL,
		Project: "demo",
		Tokens:  StaticToken("tok"),
		Timeout: 5 * time.Second,
	}))
}

func TestEngine_CollectionSize(t *testing.T) {
	f := &fakeEE{t: t, replies: map[string]string{"Collection.size": "12"}}
	eng := newTestEngine(t, f)

	tr := domain.TimeRange{Start: "2019-01-01", End: "2020-01-01"}
	n, err := eng.CollectionSize(context.Background(), domain.DatasetQuery{
		Collection: domain.CollectionERA5Daily,
		Time:       &tr,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 12 {
		t.Errorf("expected 12, got %d", n)
	}
	if f.auth != "Bearer tok" {
		t.Errorf("expected bearer token, got %q", f.auth)
	}
}

func TestEngine_BandNames(t *testing.T) {
	f := &fakeEE{t: t, replies: map[string]string{"Image.bandNames": `["LC_Type1","LC_Type2"]`}}
	eng := newTestEngine(t, f)

	names, err := eng.BandNames(context.Background(),
		domain.DatasetQuery{Collection: domain.CollectionMODISLandCover}, domain.ReduceFirst)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(names) != 2 || names[0] != domain.BandLandCover {
		t.Errorf("unexpected bands: %v", names)
	}
}

func solarModel() domain.SuitabilityModel {
	tr := domain.TimeRange{Start: "2019-01-01", End: "2020-01-01"}
	return domain.SuitabilityModel{
		PlantType: domain.PlantSolar,
		Value: domain.Layer{
			Name:   domain.LayerSolarValue,
			Source: domain.DatasetQuery{Collection: domain.CollectionMERRA2, Time: &tr},
			Reduce: domain.ReduceMean,
			Op:     domain.SelectBand{Band: domain.BandSWGDN},
		},
	}
}

func TestEngine_SampleBest(t *testing.T) {
	f := &fakeEE{t: t, replies: map[string]string{
		"Collection.first": `{"type":"Feature","geometry":{"type":"Point","coordinates":[-2.9,43.1]},
			"properties":{"solar_value":210.5,"vegetation":null,"score":210.5}}`,
	}}
	eng := newTestEngine(t, f)

	s, err := eng.SampleBest(context.Background(), solarModel(), domain.SamplingPlan{
		Region:    domain.Bounds{LonMin: -3.2, LatMin: 42.9, LonMax: -2.6, LatMax: 43.4},
		Scale:     5000,
		NumPixels: 500,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Point.Lon != -2.9 || s.Point.Lat != 43.1 {
		t.Errorf("unexpected point: %+v", s.Point)
	}
	if s.Properties[domain.LayerScore] != 210.5 {
		t.Errorf("unexpected score: %v", s.Properties)
	}
	if _, ok := s.Properties[domain.LayerVegetation]; ok {
		t.Error("expected null property to be dropped")
	}
}

func TestEngine_SampleBest_NoSamples(t *testing.T) {
	f := &fakeEE{t: t, replies: map[string]string{"Collection.first": "null"}}
	eng := newTestEngine(t, f)

	s, err := eng.SampleBest(context.Background(), solarModel(), domain.SamplingPlan{
		Region:    domain.Bounds{LonMin: 0, LatMin: 0, LonMax: 1, LatMax: 1},
		Scale:     5000,
		NumPixels: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != nil {
		t.Errorf("expected nil sample, got %+v", s)
	}
}

func TestEngine_APIError(t *testing.T) {
	f := &fakeEE{t: t, status: http.StatusBadRequest}
	eng := newTestEngine(t, f)

	_, err := eng.CollectionSize(context.Background(), domain.DatasetQuery{Collection: "X"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Status != "INVALID_ARGUMENT" {
		t.Errorf("unexpected error fields: %+v", apiErr)
	}
	if !apiErr.Upstream() {
		t.Error("expected upstream error")
	}
}

func TestEngine_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	eng := NewEngine(NewClient(ClientOptions{BaseURL: url, Project: "demo", Timeout: time.Second}))
	_, err := eng.CollectionSize(context.Background(), domain.DatasetQuery{Collection: "X"})
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
}

func TestEngine_PingSkipsCompute(t *testing.T) {
	f := &fakeEE{t: t, replies: map[string]string{"Number.add": "2"}}
	eng := newTestEngine(t, f)

	if err := eng.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if len(f.calls) != 0 {
		t.Errorf("ping must not call value:compute, got %v", f.calls)
	}

	if err := eng.Verify(context.Background()); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if len(f.calls) != 1 || f.calls[0] != "Number.add" {
		t.Errorf("expected one Number.add compute, got %v", f.calls)
	}
}

func TestEngine_PingWithoutCredentials(t *testing.T) {
	f := &fakeEE{t: t}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	eng := NewEngine(NewClient(ClientOptions{BaseURL: srv.URL, Project: "demo"}))

	if err := eng.Ping(context.Background()); err == nil {
		t.Fatal("expected error without a token source")
	}
	if len(f.calls) != 0 {
		t.Errorf("unexpected compute calls %v", f.calls)
	}
}
