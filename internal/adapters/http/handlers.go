package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/sitescout/internal/core/domain"
	"github.com/samirrijal/sitescout/internal/core/usecases"
)

// OptimalLocationHandler evaluates the request synchronously and returns
// the best site. When history is wired the run is also recorded.
func OptimalLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := parseSiteRequest(c.Body())
		if err != nil {
			return writeError(c, err)
		}
		if err := usecases.ValidateRequest(req); err != nil {
			return writeError(c, err)
		}

		ctx := c.UserContext()
		var result *domain.SiteResult
		if deps.Analyses != nil {
			a, err := deps.Analyses.Run(ctx, "", req)
			if a != nil {
				c.Set("X-Analysis-ID", a.ID)
			}
			if err != nil {
				return writeError(c, err)
			}
			result = a.Result
		} else {
			result, err = deps.Sites.Locate(ctx, req)
			if err != nil {
				return writeError(c, err)
			}
		}

		return c.JSON(result)
	}
}

// SubmitAnalysisHandler records a pending analysis and schedules it in the
// background. Poll GET /v1/analyses/:id or watch /ws for the outcome.
func SubmitAnalysisHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Analyses == nil {
			return errUnavailable(c, "analysis history not available")
		}
		req, err := parseSiteRequest(c.Body())
		if err != nil {
			return writeError(c, err)
		}

		a, err := deps.Analyses.Submit(c.UserContext(), req)
		if err != nil {
			return writeError(c, err)
		}

		c.Location("/v1/analyses/" + a.ID)
		return c.Status(fiber.StatusAccepted).JSON(a)
	}
}

// GetAnalysisHandler returns one analysis by ID.
func GetAnalysisHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Analyses == nil {
			return errNotFound(c, "analysis not found")
		}
		a, err := deps.Analyses.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeError(c, err)
		}

		// Finished analyses never change.
		if a.Done() {
			c.Set("Cache-Control", "public, max-age=86400, immutable")
		} else {
			c.Set("Cache-Control", "no-cache")
		}
		return c.JSON(a)
	}
}

// ListAnalysesHandler returns recorded analyses, newest first.
func ListAnalysesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset, limit := pageParams(c, 20, 100)

		var (
			items []domain.Analysis
			total int
			err   error
		)
		if deps.Analyses != nil {
			items, total, err = deps.Analyses.List(c.UserContext(), offset, limit)
			if err != nil {
				return writeError(c, err)
			}
		}
		if items == nil {
			items = []domain.Analysis{}
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		c.Set("Cache-Control", "no-cache")
		return c.JSON(PaginatedResponse{Data: items, Pagination: pg})
	}
}
