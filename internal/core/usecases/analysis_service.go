package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/sitescout/internal/core/domain"
	"github.com/samirrijal/sitescout/internal/core/ports"
	"github.com/samirrijal/sitescout/internal/pkg/logging"
	"github.com/samirrijal/sitescout/internal/pkg/metrics"
)

// ErrSchedulerUnavailable is returned by Submit when no background runner is wired.
var ErrSchedulerUnavailable = errors.New("analysis scheduler not configured")

// AnalysisService records, runs and schedules optimal-location analyses.
// Every dependency except sites is optional.
type AnalysisService struct {
	sites     *SiteService
	repo      ports.AnalysisRepository
	publisher ports.EventPublisher
	scheduler ports.AnalysisScheduler
	now       func() time.Time
}

// NewAnalysisService creates a new AnalysisService.
func NewAnalysisService(
	sites *SiteService,
	repo ports.AnalysisRepository,
	publisher ports.EventPublisher,
	scheduler ports.AnalysisScheduler,
) *AnalysisService {
	return &AnalysisService{
		sites:     sites,
		repo:      repo,
		publisher: publisher,
		scheduler: scheduler,
		now:       time.Now,
	}
}

// Run locates the optimal site for req now. When id is empty a new analysis
// record is created; otherwise the existing record is updated. The returned
// analysis is non-nil even when err is not.
func (s *AnalysisService) Run(ctx context.Context, id string, req domain.SiteRequest) (*domain.Analysis, error) {
	return s.RunAttempt(ctx, id, req, true)
}

// RunAttempt is Run for callers that retry. A retryable failure on an attempt
// that is not final leaves the record running and publishes nothing.
func (s *AnalysisService) RunAttempt(ctx context.Context, id string, req domain.SiteRequest, final bool) (*domain.Analysis, error) {
	log := logging.FromContext(ctx)

	a := &domain.Analysis{ID: id, Request: req, Status: domain.AnalysisRunning, CreatedAt: s.now()}
	if a.ID == "" {
		a.ID = uuid.NewString()
		if s.repo != nil {
			if err := s.repo.Create(ctx, a); err != nil {
				log.Warn("analysis not recorded", "analysis_id", a.ID, "error", err)
			}
		}
	} else if s.repo != nil {
		if existing, err := s.repo.GetByID(ctx, a.ID); err == nil {
			a.CreatedAt = existing.CreatedAt
		}
		if err := s.repo.MarkRunning(ctx, a.ID); err != nil {
			log.Warn("analysis status not updated", "analysis_id", a.ID, "error", err)
		}
	}

	start := time.Now()
	result, err := s.sites.Locate(ctx, req)

	if err != nil {
		a.ErrorKind = ErrorKind(err)
		a.Error = err.Error()
		if !final && Retryable(err) {
			log.Warn("analysis attempt failed",
				"analysis_id", a.ID, "kind", a.ErrorKind, "error", err,
				"elapsed", time.Since(start).String())
			return a, err
		}

		completedAt := s.now()
		a.Status = domain.AnalysisFailed
		a.CompletedAt = &completedAt
		metrics.AnalysesTotal.WithLabelValues(string(req.PlantType), a.ErrorKind).Inc()
		log.Info("analysis failed",
			"analysis_id", a.ID, "plant_type", req.PlantType,
			"kind", a.ErrorKind, "error", err, "elapsed", time.Since(start).String())

		if s.repo != nil {
			if rerr := s.repo.Fail(ctx, a.ID, a.ErrorKind, a.Error); rerr != nil {
				log.Warn("analysis failure not recorded", "analysis_id", a.ID, "error", rerr)
			}
		}
		if s.publisher != nil {
			_ = s.publisher.PublishAnalysisFailed(ctx, a)
		}
		return a, err
	}

	completedAt := s.now()
	a.CompletedAt = &completedAt
	a.Status = domain.AnalysisCompleted
	a.Result = result
	metrics.AnalysesTotal.WithLabelValues(string(req.PlantType), "completed").Inc()
	metrics.BestScore.WithLabelValues(string(req.PlantType)).Observe(result.Score)
	log.Info("analysis completed",
		"analysis_id", a.ID, "plant_type", req.PlantType,
		"score", result.Score, "elapsed", time.Since(start).String())

	if s.repo != nil {
		if err := s.repo.Complete(ctx, a.ID, result); err != nil {
			log.Warn("analysis result not recorded", "analysis_id", a.ID, "error", err)
		}
	}
	if s.publisher != nil {
		_ = s.publisher.PublishAnalysisCompleted(ctx, a)
	}
	return a, nil
}

// Retryable reports whether another attempt at the same request could succeed.
// Bad input and empty datasets never can.
func Retryable(err error) bool {
	return !domain.IsValidation(err) && !domain.IsNoData(err)
}

// Submit records a pending analysis and hands it to the scheduler.
func (s *AnalysisService) Submit(ctx context.Context, req domain.SiteRequest) (*domain.Analysis, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	if s.scheduler == nil || s.repo == nil {
		return nil, ErrSchedulerUnavailable
	}

	a := &domain.Analysis{
		ID:        uuid.NewString(),
		Request:   req,
		Status:    domain.AnalysisPending,
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create analysis: %w", err)
	}
	if err := s.scheduler.Schedule(ctx, a.ID, req); err != nil {
		_ = s.repo.Fail(ctx, a.ID, domain.ErrorKindInternal, "scheduling failed: "+err.Error())
		return nil, fmt.Errorf("schedule analysis %s: %w", a.ID, err)
	}

	metrics.AnalysesScheduled.WithLabelValues(string(req.PlantType)).Inc()
	return a, nil
}

// Get returns one analysis by ID.
func (s *AnalysisService) Get(ctx context.Context, id string) (*domain.Analysis, error) {
	if s.repo == nil {
		return nil, domain.ErrAnalysisNotFound
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrAnalysisNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// List returns a page of analyses, newest first, and the total count.
func (s *AnalysisService) List(ctx context.Context, offset, limit int) ([]domain.Analysis, int, error) {
	if s.repo == nil {
		return nil, 0, nil
	}
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count analyses: %w", err)
	}
	items, err := s.repo.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list analyses: %w", err)
	}
	return items, total, nil
}

// ErrorKind classifies err for storage and metrics.
func ErrorKind(err error) string {
	switch {
	case domain.IsValidation(err):
		return domain.ErrorKindValidation
	case domain.IsNoData(err):
		return domain.ErrorKindNoData
	case errors.As(err, new(UpstreamError)):
		return domain.ErrorKindUpstream
	default:
		return domain.ErrorKindInternal
	}
}

// UpstreamError is implemented by adapter errors that come from the remote
// engine rejecting or failing a call.
type UpstreamError interface {
	error
	Upstream() bool
}
