package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/hypervision/hypervision/pkg/services"
)

type APIHandlers struct {
	boardService    *services.Board
	feedbackService *services.Feedback
	accessLinks     *services.AccessLinks
	validator       *validator.Validate
}

func NewAPIHandlers(
	boardService *services.Board,
	feedbackService *services.Feedback,
	accessLinks *services.AccessLinks,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		boardService:    boardService,
		feedbackService: feedbackService,
		accessLinks:     accessLinks,
		validator:       validator,
	}
}

// RegisterRoutes mounts every API endpoint on router.
func RegisterRoutes(router fiber.Router, h *APIHandlers) {
	router.Get("/catalog/modules", h.GetModules)

	b := router.Group("/boards")
	b.Get("/", h.GetBoards)
	b.Post("/", h.CreateBoard)
	b.Get("/:id", h.GetBoard)
	b.Patch("/:id", h.UpdateBoard)
	b.Delete("/:id", h.DeleteBoard)

	b.Get("/:id/flow", h.GetFlow)
	b.Put("/:id/flow", h.ImportFlow)
	b.Delete("/:id/flow", h.ClearFlow)
	b.Post("/:id/drop", h.Drop)
	b.Post("/:id/notes", h.AddNote)
	b.Post("/:id/nodes/changes", h.ApplyNodeChanges)
	b.Post("/:id/nodes", h.AddNode)
	b.Delete("/:id/nodes/:nodeId", h.DeleteNode)
	b.Patch("/:id/nodes/:nodeId/data", h.UpdateNodeData)
	b.Post("/:id/edges/changes", h.ApplyEdgeChanges)
	b.Post("/:id/edges", h.AddEdge)
	b.Delete("/:id/edges/:edgeId", h.DeleteEdge)
	b.Post("/:id/connect", h.Connect)
	b.Post("/:id/view-mode/toggle", h.ToggleViewMode)
	b.Put("/:id/io", h.SetFlowIO)
	b.Get("/:id/export/json", h.ExportJSON)
	b.Get("/:id/export/pdf", h.ExportPDF)
	b.Post("/:id/links", h.CreateAccessLink)
	b.Get("/:id/links", h.ListAccessLinks)
	b.Delete("/:id/links/:linkId", h.RevokeAccessLink)

	pub := router.Group("/public/links")
	pub.Post("/:linkId/verify", h.VerifyAccessLink)
	pub.Get("/:linkId/board", h.GetPublicBoard)

	f := router.Group("/feedback")
	f.Get("/", h.ListFeedback)
	f.Post("/", h.SubmitFeedback)
	f.Patch("/:id/status", h.UpdateFeedbackStatus)
	f.Post("/:id/comments", h.AddComment)

	n := router.Group("/notifications")
	n.Get("/", h.GetNotifications)
	n.Post("/:id/read", h.MarkNotificationRead)
	n.Delete("/:id", h.DismissNotification)

	router.Get("/health", h.HealthCheck)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.boardService.HealthCheck(c.Context())
	feedbackCheck, _ := h.feedbackService.HealthCheck()

	status := "unhealthy"
	message := "Hypervision API is unhealthy"
	httpStatus := http.StatusInternalServerError

	// The editor keeps working without a feedback endpoint.
	if repOk {
		status = "healthy"
		message = "Hypervision API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
			"feedback":   feedbackCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) GetModules(c fiber.Ctx) error {
	return c.JSON(h.boardService.Catalog())
}

func (h *APIHandlers) GetBoards(c fiber.Ctx) error {
	req, err := parseListBoardsRequest(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	result, err := h.boardService.List(c.Context(), *req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"boards":        result.Boards,
		"total_count":   result.TotalCount,
		"has_next_page": result.HasNextPage,
		"pagination": fiber.Map{
			"limit":  req.Limit,
			"offset": req.Offset,
		},
		"sorting": fiber.Map{
			"sort_by":    req.SortBy,
			"sort_order": req.SortOrder,
		},
	})
}

// parseListBoardsRequest parses query parameters for listing boards.
func parseListBoardsRequest(c fiber.Ctx) (*services.ListBoardsRequest, error) {
	req := &services.ListBoardsRequest{}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, err
		}

		req.Limit = limit
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return nil, err
		}

		req.Offset = offset
	}

	req.OwnerID = c.Query("owner_id")
	req.SortBy = c.Query("sort_by")
	req.SortOrder = c.Query("sort_order")

	return req, nil
}

func (h *APIHandlers) GetBoard(c fiber.Ctx) error {
	board, err := h.boardService.FetchByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(board)
}

func (h *APIHandlers) CreateBoard(c fiber.Ctx) error {
	var req CreateBoardRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.boardService.Create(c.Context(), req.Name, req.Description, req.Owner)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateBoard(c fiber.Ctx) error {
	var req UpdateBoardRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.boardService.Update(c.Context(), c.Params("id"), services.UpdateBoardRequest{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteBoard(c fiber.Ctx) error {
	err := h.boardService.Delete(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
