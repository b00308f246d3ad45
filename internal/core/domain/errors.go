package domain

import "errors"

// Client-facing validation messages.
const (
	MsgMissingFields    = "Missing required boundary, time range, or plant type data"
	MsgInvalidBoundary  = "Invalid boundary values provided"
	MsgInvalidTimeRange = "Invalid time range provided"
	MsgInvalidPlantType = "Invalid plant type. Use 'wind' or 'solar'."
)

// ErrAnalysisNotFound is returned when no analysis has the requested ID.
var ErrAnalysisNotFound = errors.New("analysis not found")

// ValidationError reports a request that can never succeed as sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NoDataError reports that a remote dataset had nothing for the request.
type NoDataError struct {
	Dataset string
	Message string
}

func (e *NoDataError) Error() string {
	return e.Message
}

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsNoData reports whether err is or wraps a *NoDataError.
func IsNoData(err error) bool {
	var n *NoDataError
	return errors.As(err, &n)
}
