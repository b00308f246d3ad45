package earthengine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/sitescout/internal/core/domain"
	"github.com/samirrijal/sitescout/internal/pkg/metrics"
)

var tracer = otel.Tracer("github.com/samirrijal/sitescout/internal/adapters/earthengine")

// Computer evaluates an expression remotely. *Client is the production one.
type Computer interface {
	Compute(ctx context.Context, e *Expr, out any) error
}

// Engine implements ports.RasterEngine on top of value:compute.
type Engine struct {
	c Computer
}

func NewEngine(c Computer) *Engine {
	return &Engine{c: c}
}

func (e *Engine) CollectionSize(ctx context.Context, q domain.DatasetQuery) (int, error) {
	var n int
	err := e.compute(ctx, "size", size(collection(q)), &n,
		attribute.String("ee.collection", q.Collection))
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (e *Engine) BandNames(ctx context.Context, q domain.DatasetQuery, r domain.Reduction) ([]string, error) {
	img, err := reduce(collection(q), r)
	if err != nil {
		return nil, err
	}
	var names []string
	err = e.compute(ctx, "band_names", bandNames(img), &names,
		attribute.String("ee.collection", q.Collection))
	if err != nil {
		return nil, err
	}
	return names, nil
}

type feature struct {
	Type     string `json:"type"`
	Geometry *struct {
		Type        string    `json:"type"`
		Coordinates []float64 `json:"coordinates"`
	} `json:"geometry"`
	Properties map[string]*float64 `json:"properties"`
}

func (e *Engine) SampleBest(ctx context.Context, m domain.SuitabilityModel, p domain.SamplingPlan) (*domain.Sample, error) {
	expr, err := bestSample(m, p)
	if err != nil {
		return nil, err
	}

	var f *feature
	err = e.compute(ctx, "sample_best", expr, &f,
		attribute.String("siting.plant_type", string(m.PlantType)),
		attribute.Float64("ee.scale", p.Scale),
		attribute.Int("ee.num_pixels", p.NumPixels))
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, nil
	}
	return f.toSample()
}

func (f *feature) toSample() (*domain.Sample, error) {
	if f.Geometry == nil || len(f.Geometry.Coordinates) < 2 {
		return nil, fmt.Errorf("sample feature has no point geometry")
	}
	s := &domain.Sample{
		Point:      domain.GeoPoint{Lon: f.Geometry.Coordinates[0], Lat: f.Geometry.Coordinates[1]},
		Properties: make(map[string]float64, len(f.Properties)),
	}
	// Masked pixels come back as null; leave them out.
	for k, v := range f.Properties {
		if v != nil {
			s.Properties[k] = *v
		}
	}
	return s, nil
}

func (e *Engine) compute(ctx context.Context, op string, expr *Expr, out any, attrs ...attribute.KeyValue) error {
	ctx, span := tracer.Start(ctx, "earthengine."+op, trace.WithAttributes(attrs...))
	defer span.End()

	start := time.Now()
	err := e.c.Compute(ctx, expr, out)
	metrics.ObserveEngine(op, start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Ping checks credentials without spending compute when the Computer can
// (a *Client only fetches a token). Otherwise it falls back to Verify.
func (e *Engine) Ping(ctx context.Context) error {
	if p, ok := e.c.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return e.Verify(ctx)
}

// Verify evaluates a trivial expression to check credentials and reachability.
func (e *Engine) Verify(ctx context.Context) error {
	var v json.RawMessage
	return e.compute(ctx, "ping", Invoke("Number.add", map[string]*Expr{
		"left":  Constant(1),
		"right": Constant(1),
	}), &v)
}
