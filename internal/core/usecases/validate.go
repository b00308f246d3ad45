package usecases

import (
	"github.com/go-playground/validator/v10"

	"github.com/samirrijal/sitescout/internal/core/domain"
)

var validate = validator.New()

// ValidateRequest checks ranges and ordering that the transport layer cannot.
func ValidateRequest(req domain.SiteRequest) error {
	if err := validate.Struct(req.Boundary); err != nil {
		return &domain.ValidationError{Field: "boundary", Message: domain.MsgInvalidBoundary}
	}

	start, end, err := req.Time.Parse()
	if err != nil || !start.Before(end) {
		return &domain.ValidationError{Field: "time", Message: domain.MsgInvalidTimeRange}
	}

	if _, err := domain.ParsePlantType(string(req.PlantType)); err != nil {
		return err
	}
	return nil
}
