package web

import (
	"github.com/gofiber/fiber/v3"
	"github.com/hypervision/hypervision/pkg/services"
)

func (h *APIHandlers) CreateAccessLink(c fiber.Ctx) error {
	var req CreateAccessLinkRequest

	// An empty body asks for a viewer link that never expires.
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.accessLinks.Create(c.Context(), c.Params("id"), services.CreateAccessLinkRequest{
		Role:           req.Role,
		ExpiresInHours: req.ExpiresIn,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(CreateAccessLinkResponse{
		LinkID:    created.Link.ID,
		Password:  created.Password,
		ExpiresAt: created.Link.ExpiresAt,
		ShareURL:  created.ShareURL,
	})
}

func (h *APIHandlers) ListAccessLinks(c fiber.Ctx) error {
	links, err := h.accessLinks.List(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	response := make([]AccessLinkResponse, 0, len(links))
	for _, link := range links {
		response = append(response, NewAccessLinkResponse(link))
	}

	return c.JSON(response)
}

func (h *APIHandlers) RevokeAccessLink(c fiber.Ctx) error {
	err := h.accessLinks.Revoke(c.Context(), c.Params("id"), c.Params("linkId"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) VerifyAccessLink(c fiber.Ctx) error {
	var req VerifyAccessLinkRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "password is required")
	}

	link, err := h.accessLinks.Verify(c.Context(), c.Params("linkId"), req.Password)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(VerifyAccessLinkResponse{BoardID: link.BoardID, Role: link.Role})
}

func (h *APIHandlers) GetPublicBoard(c fiber.Ctx) error {
	board, role, err := h.accessLinks.PublicBoard(c.Context(), c.Params("linkId"), c.Query("token"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(PublicBoardResponse{Board: board, Role: role})
}
