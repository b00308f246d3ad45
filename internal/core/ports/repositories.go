package ports

import (
	"context"

	"github.com/samirrijal/sitescout/internal/core/domain"
)

// AnalysisRepository persists analysis records.
type AnalysisRepository interface {
	Create(ctx context.Context, a *domain.Analysis) error
	MarkRunning(ctx context.Context, id string) error
	Complete(ctx context.Context, id string, result *domain.SiteResult) error
	Fail(ctx context.Context, id, kind, message string) error
	GetByID(ctx context.Context, id string) (*domain.Analysis, error)
	List(ctx context.Context, offset, limit int) ([]domain.Analysis, error)
	Count(ctx context.Context) (int, error)
}
