package domain

import "time"

// AnalysisStatus tracks an analysis through its lifecycle.
type AnalysisStatus string

const (
	AnalysisPending   AnalysisStatus = "pending"
	AnalysisRunning   AnalysisStatus = "running"
	AnalysisCompleted AnalysisStatus = "completed"
	AnalysisFailed    AnalysisStatus = "failed"
)

// Error kinds recorded on failed analyses.
const (
	ErrorKindValidation = "validation"
	ErrorKindNoData     = "no_data"
	ErrorKindUpstream   = "upstream"
	ErrorKindInternal   = "internal"
)

// Analysis is the persisted record of one optimal-location request.
type Analysis struct {
	ID          string         `json:"id"`
	Request     SiteRequest    `json:"request"`
	Status      AnalysisStatus `json:"status"`
	Result      *SiteResult    `json:"result,omitempty"`
	Error       string         `json:"error,omitempty"`
	ErrorKind   string         `json:"error_kind,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

// Done reports whether the analysis reached a terminal status.
func (a *Analysis) Done() bool {
	return a.Status == AnalysisCompleted || a.Status == AnalysisFailed
}
