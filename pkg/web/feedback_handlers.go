package web

import (
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/hypervision/hypervision/pkg/feedback"
	"github.com/hypervision/hypervision/pkg/services"
)

func (h *APIHandlers) SubmitFeedback(c fiber.Ctx) error {
	var req SubmitFeedbackRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.feedbackService.Submit(c.Context(), services.SubmitFeedbackRequest{
		Submission:        req.Submission(),
		BoardID:           req.BoardID,
		CaptureScreenshot: req.CaptureScreenshot,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(result)
}

func (h *APIHandlers) ListFeedback(c fiber.Ctx) error {
	reports, err := h.feedbackService.List(c.Context(), services.ListFeedbackRequest{
		UserID: c.Query("userId"),
		Status: feedback.Status(c.Query("status")),
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(reports)
}

func (h *APIHandlers) UpdateFeedbackStatus(c fiber.Ctx) error {
	var req UpdateStatusRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.feedbackService.UpdateStatus(c.Context(), c.Params("id"), req.Status, req.ChangedBy, req.Reason)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) AddComment(c fiber.Ctx) error {
	var req CommentRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.feedbackService.AddComment(c.Context(), feedback.Comment{
		FeedbackID: c.Params("id"),
		UserID:     req.UserID,
		UserRole:   req.UserRole,
		Comment:    req.Comment,
		IsInternal: req.IsInternal,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *APIHandlers) GetNotifications(c fiber.Ctx) error {
	unreadOnly := false

	if unreadStr := c.Query("unreadOnly"); unreadStr != "" {
		var err error

		unreadOnly, err = strconv.ParseBool(unreadStr)
		if err != nil {
			return badRequest(c, "Invalid query parameters: "+err.Error())
		}
	}

	notifications, err := h.feedbackService.Notifications(c.Context(), c.Query("userId"), unreadOnly)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(notifications)
}

func (h *APIHandlers) MarkNotificationRead(c fiber.Ctx) error {
	result, err := h.feedbackService.MarkNotificationRead(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) DismissNotification(c fiber.Ctx) error {
	result, err := h.feedbackService.DismissNotification(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}
