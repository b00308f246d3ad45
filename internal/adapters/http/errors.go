package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/sitescout/internal/core/domain"
	"github.com/samirrijal/sitescout/internal/core/usecases"
	"github.com/samirrijal/sitescout/internal/pkg/logging"
)

// APIError is a structured error response. Error repeats Message for
// clients of the legacy endpoint, which only ever read "error".
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, not_found, internal_error, etc.
	Message   string `json:"message"` // Human-readable message
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		Error:     message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusNotFound, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// errBadGateway returns a 502 error for remote engine failures.
func errBadGateway(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadGateway, "upstream_error", msg)
}

// errUnavailable returns a 503 error.
func errUnavailable(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusServiceUnavailable, "service_unavailable", msg)
}

// errTimeout returns a 504 error.
func errTimeout(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusGatewayTimeout, "timeout", msg)
}

// writeError maps a use case error to its response.
func writeError(c *fiber.Ctx, err error) error {
	var nd *domain.NoDataError
	switch {
	case errors.Is(err, errMalformedBody):
		return errBadRequest(c, err.Error())
	case domain.IsValidation(err):
		return errBadRequest(c, err.Error())
	case errors.As(err, &nd):
		return errNotFound(c, nd.Message)
	case errors.Is(err, domain.ErrAnalysisNotFound):
		return errNotFound(c, "analysis not found")
	case errors.Is(err, usecases.ErrSchedulerUnavailable):
		return errUnavailable(c, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return errTimeout(c, "analysis timed out")
	case usecases.ErrorKind(err) == domain.ErrorKindUpstream:
		logging.FromContext(c.UserContext()).Warn("remote engine failure", "error", err)
		return errBadGateway(c, "geospatial engine request failed")
	default:
		logging.FromContext(c.UserContext()).Error("request failed", "error", err)
		return errInternal(c, "internal server error")
	}
}
