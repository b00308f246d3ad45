package ports

import (
	"context"

	"github.com/samirrijal/sitescout/internal/core/domain"
)

// RasterEngine is the remote geospatial analysis service. All raster math
// happens on its side; implementations only describe it.
type RasterEngine interface {
	// CollectionSize counts the images left after applying q's filters.
	CollectionSize(ctx context.Context, q domain.DatasetQuery) (int, error)

	// BandNames lists the bands of the collection reduced with r.
	BandNames(ctx context.Context, q domain.DatasetQuery, r domain.Reduction) ([]string, error)

	// SampleBest samples the model's combined image and returns the point
	// with the highest score, or nil when the region yields no samples.
	SampleBest(ctx context.Context, m domain.SuitabilityModel, p domain.SamplingPlan) (*domain.Sample, error)
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishAnalysisCompleted(ctx context.Context, a *domain.Analysis) error
	PublishAnalysisFailed(ctx context.Context, a *domain.Analysis) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// AnalysisScheduler hands a pending analysis to the background runner.
type AnalysisScheduler interface {
	Schedule(ctx context.Context, analysisID string, req domain.SiteRequest) error
}
