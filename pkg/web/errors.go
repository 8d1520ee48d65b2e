package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/hypervision/hypervision/pkg/services"
	"github.com/moogar0880/problems"
)

func problem(c fiber.Ctx, status int, problemType, detail string) error {
	p := problems.NewStatusProblem(status).
		WithInstance(c.Path()).
		WithType(problemType).
		WithDetail(detail)

	return c.Status(status).JSON(p)
}

func badRequest(c fiber.Ctx, detail string) error {
	return problem(c, fiber.StatusBadRequest, "validation_error", detail)
}

func internalError(c fiber.Ctx, err error) error {
	p := problems.NewStatusProblem(fiber.StatusInternalServerError).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(p)
}

// handleServiceError provides typed error handling for service layer errors.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case services.IsValidationError(err):
		return badRequest(c, err.Error())

	case services.IsPolicyViolation(err):
		return problem(c, fiber.StatusUnprocessableEntity, "policy_violation", err.Error())

	case services.IsUnauthorized(err):
		return problem(c, fiber.StatusUnauthorized, "invalid_link_password", err.Error())

	case services.IsGone(err):
		return problem(c, fiber.StatusGone, "link_expired", err.Error())

	case services.IsConflictError(err):
		return problem(c, fiber.StatusConflict, "conflict", err.Error())

	case errors.Is(err, services.ErrBoardNotFound):
		return problem(c, fiber.StatusNotFound, "board_not_found", "board not found")

	case errors.Is(err, services.ErrNodeNotFound):
		return problem(c, fiber.StatusNotFound, "node_not_found", err.Error())

	case errors.Is(err, services.ErrEdgeNotFound):
		return problem(c, fiber.StatusNotFound, "edge_not_found", err.Error())

	case errors.Is(err, services.ErrAccessLinkNotFound):
		return problem(c, fiber.StatusNotFound, "link_not_found", "link not found")

	case errors.Is(err, services.ErrFeedbackUnavailable):
		return problem(c, fiber.StatusServiceUnavailable, "feedback_unavailable", err.Error())

	case services.IsUpstreamError(err):
		return problem(c, fiber.StatusBadGateway, "feedback_delivery_failed", err.Error())

	default:
		return internalError(c, err)
	}
}
