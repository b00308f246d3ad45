package workflows

import (
	"context"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/sitescout/internal/core/domain"
	"github.com/samirrijal/sitescout/internal/core/usecases"
	"github.com/samirrijal/sitescout/internal/pkg/logging"
)

// AnalysisActivities holds the activity implementations for the site analysis workflow.
type AnalysisActivities struct {
	Analyses *usecases.AnalysisService
}

// RunAnalysis evaluates the request and records the outcome on the analysis.
func (a *AnalysisActivities) RunAnalysis(ctx context.Context, input AnalysisInput) (*domain.SiteResult, error) {
	info := activity.GetInfo(ctx)
	ctx = logging.WithLogger(ctx, logging.FromContext(ctx).With(
		"workflow_id", info.WorkflowExecution.ID,
		"attempt", info.Attempt,
	))

	// Earlier attempts leave the record running so a later one can complete it.
	final := info.Attempt >= MaxAttempts
	res, err := a.Analyses.RunAttempt(ctx, input.AnalysisID, input.Request, final)
	switch {
	case err == nil:
		return res.Result, nil
	case domain.IsValidation(err):
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeValidation, err)
	case domain.IsNoData(err):
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeNoData, err)
	default:
		return nil, err
	}
}
