package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/sitescout/internal/core/domain"
)

const (
	// TaskQueue is the default queue the analyzer worker polls.
	TaskQueue = "site-analysis"

	RunAnalysisActivity = "RunAnalysis"

	// MaxAttempts bounds how often a failing analysis activity runs.
	MaxAttempts = 3

	// Error types that must not be retried.
	ErrTypeValidation = "ValidationError"
	ErrTypeNoData     = "NoDataError"
)

// AnalysisInput is the input for the site analysis workflow.
type AnalysisInput struct {
	AnalysisID string
	Request    domain.SiteRequest
}

// AnalysisOutcome is what the workflow returns once the analysis settles.
type AnalysisOutcome struct {
	AnalysisID string
	Status     domain.AnalysisStatus
	Result     *domain.SiteResult
}

// WorkflowID derives the Temporal workflow ID for an analysis.
func WorkflowID(analysisID string) string {
	return "analysis-" + analysisID
}

// SiteAnalysisWorkflow runs one optimal-location analysis. Remote failures
// are retried; bad input and empty datasets fail on the first attempt.
func SiteAnalysisWorkflow(ctx workflow.Context, input AnalysisInput) (*AnalysisOutcome, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting site analysis", "analysisID", input.AnalysisID, "plantType", input.Request.PlantType)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        5 * time.Second,
			BackoffCoefficient:     2,
			MaximumAttempts:        MaxAttempts,
			NonRetryableErrorTypes: []string{ErrTypeValidation, ErrTypeNoData},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	var result domain.SiteResult
	err := workflow.ExecuteActivity(ctx, RunAnalysisActivity, input).Get(ctx, &result)
	if err != nil {
		logger.Warn("site analysis failed", "analysisID", input.AnalysisID, "error", err)
		return nil, err
	}

	logger.Info("site analysis completed", "analysisID", input.AnalysisID, "score", result.Score)
	return &AnalysisOutcome{
		AnalysisID: input.AnalysisID,
		Status:     domain.AnalysisCompleted,
		Result:     &result,
	}, nil
}
