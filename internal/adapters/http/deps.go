package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/sitescout/internal/core/usecases"
)

// Pinger is a dependency the readiness handler can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Sites    *usecases.SiteService
	Analyses *usecases.AnalysisService
	NATS     *nats.Conn
	DB       Pinger
	Cache    Pinger
	Engine   Pinger
	Version  string

	// OpenAPIPath is served at /docs/openapi.yaml; defaults to api/openapi.yaml.
	OpenAPIPath string
}
