package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/sitescout/internal/core/domain"
	"github.com/samirrijal/sitescout/internal/core/ports"
	"github.com/samirrijal/sitescout/internal/pkg/geospatial"
	"github.com/samirrijal/sitescout/internal/pkg/metrics"
)

// MsgNoSamples is returned when sampling the region produced no points.
const MsgNoSamples = "No sample points found in the specified region."

// SiteOptions tunes sampling and caching.
type SiteOptions struct {
	Scale           float64
	NumPixels       int
	CacheTTLSeconds int
}

// DefaultSiteOptions samples 500 pixels at 5 km and caches for an hour.
func DefaultSiteOptions() SiteOptions {
	return SiteOptions{Scale: 5000, NumPixels: 500, CacheTTLSeconds: 3600}
}

// SiteService finds the most suitable plant location inside a boundary.
type SiteService struct {
	engine ports.RasterEngine
	cache  ports.CacheService
	opts   SiteOptions
}

// NewSiteService creates a new SiteService. cache may be nil.
func NewSiteService(engine ports.RasterEngine, cache ports.CacheService, opts SiteOptions) *SiteService {
	def := DefaultSiteOptions()
	if opts.Scale <= 0 {
		opts.Scale = def.Scale
	}
	if opts.NumPixels <= 0 {
		opts.NumPixels = def.NumPixels
	}
	if opts.CacheTTLSeconds <= 0 {
		opts.CacheTTLSeconds = def.CacheTTLSeconds
	}
	return &SiteService{engine: engine, cache: cache, opts: opts}
}

// Locate validates req, checks the remote datasets are usable, and returns
// the highest-scoring sampled point.
func (s *SiteService) Locate(ctx context.Context, req domain.SiteRequest) (*domain.SiteResult, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	cacheKey := req.CacheKey()
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var result domain.SiteResult
			if err := json.Unmarshal(data, &result); err == nil {
				metrics.CacheHits.WithLabelValues("optimal_location").Inc()
				return &result, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("optimal_location").Inc()
	}

	model, reqs, err := BuildModel(req)
	if err != nil {
		return nil, err
	}

	if err := s.checkRequirements(ctx, reqs); err != nil {
		return nil, err
	}

	sample, err := s.engine.SampleBest(ctx, model, domain.SamplingPlan{
		Region:    req.Boundary,
		Scale:     s.opts.Scale,
		NumPixels: s.opts.NumPixels,
	})
	if err != nil {
		return nil, fmt.Errorf("sample %s model: %w", model.PlantType, err)
	}
	if sample == nil {
		return nil, &domain.NoDataError{Message: MsgNoSamples}
	}

	result, err := resultFromSample(req, model, sample)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(result); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, s.opts.CacheTTLSeconds)
		}
	}

	return result, nil
}

// checkRequirements runs every availability check concurrently and reports
// the first failure in declaration order.
func (s *SiteService) checkRequirements(ctx context.Context, reqs []domain.Requirement) error {
	errs := make([]error, len(reqs))

	var g errgroup.Group
	g.SetLimit(4)
	for i, r := range reqs {
		g.Go(func() error {
			errs[i] = s.checkRequirement(ctx, r)
			return nil
		})
	}
	_ = g.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *SiteService) checkRequirement(ctx context.Context, r domain.Requirement) error {
	size, err := s.engine.CollectionSize(ctx, r.Source)
	if err != nil {
		return fmt.Errorf("count %s: %w", r.Source.Collection, err)
	}
	if size == 0 {
		return &domain.NoDataError{Dataset: r.Source.Collection, Message: r.EmptyMessage}
	}
	if len(r.Bands) == 0 {
		return nil
	}

	names, err := s.engine.BandNames(ctx, r.Source, r.Reduce)
	if err != nil {
		return fmt.Errorf("band names %s: %w", r.Source.Collection, err)
	}
	for _, band := range r.Bands {
		if !slices.Contains(names, band) {
			return &domain.NoDataError{Dataset: r.Source.Collection, Message: r.MissingMessage}
		}
	}
	return nil
}

func resultFromSample(req domain.SiteRequest, model domain.SuitabilityModel, sample *domain.Sample) (*domain.SiteResult, error) {
	score, ok := sample.Properties[domain.LayerScore]
	if !ok {
		return nil, fmt.Errorf("best sample has no %q property", domain.LayerScore)
	}

	center := req.Boundary.Center()
	return &domain.SiteResult{
		OptimalPoint: sample.Point,
		Value:        sample.Properties[model.Value.Name],
		Vegetation:   sample.Properties[domain.LayerVegetation],
		Score:        score,
		Center:       center,
		PlantType:    model.PlantType,
		DistanceToCenterM: geospatial.Haversine(
			center.Lat, center.Lon, sample.Point.Lat, sample.Point.Lon,
		),
	}, nil
}
