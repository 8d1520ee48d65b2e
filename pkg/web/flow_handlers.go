package web

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/hypervision/hypervision/pkg/models"
	"github.com/hypervision/hypervision/pkg/services"
)

const mimeApplicationPDF = "application/pdf"

func (h *APIHandlers) GetFlow(c fiber.Ctx) error {
	f, err := h.boardService.Flow(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(f)
}

// ImportFlow replaces the board's nodes and edges with an exported document.
func (h *APIHandlers) ImportFlow(c fiber.Ctx) error {
	f, err := h.boardService.ImportFlow(c.Context(), c.Params("id"), c.Body())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(f)
}

func (h *APIHandlers) ClearFlow(c fiber.Ctx) error {
	confirmed := false

	if confirmStr := c.Query("confirm"); confirmStr != "" {
		var err error

		confirmed, err = strconv.ParseBool(confirmStr)
		if err != nil {
			return badRequest(c, "Invalid query parameters: "+err.Error())
		}
	}

	f, err := h.boardService.ClearFlow(c.Context(), c.Params("id"), confirmed)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(f)
}

func (h *APIHandlers) Drop(c fiber.Ctx) error {
	var req DropRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.boardService.Drop(c.Context(), c.Params("id"), req.ModuleType, req.Position)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *APIHandlers) AddNote(c fiber.Ctx) error {
	var req NoteRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	note, err := h.boardService.AddNote(c.Context(), c.Params("id"), req.Position)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(note)
}

func (h *APIHandlers) AddNode(c fiber.Ctx) error {
	var node models.Node
	if err := json.Unmarshal(c.Body(), &node); err != nil {
		return badRequest(c, "Invalid node: "+err.Error())
	}

	added, err := h.boardService.AddNode(c.Context(), c.Params("id"), &node)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(added)
}

func (h *APIHandlers) DeleteNode(c fiber.Ctx) error {
	f, err := h.boardService.DeleteNode(c.Context(), c.Params("id"), c.Params("nodeId"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(f)
}

// UpdateNodeData replaces a node's payload. The body is decoded as the payload
// variant of the node's current type.
func (h *APIHandlers) UpdateNodeData(c fiber.Ctx) error {
	boardID, nodeID := c.Params("id"), c.Params("nodeId")

	f, err := h.boardService.Flow(c.Context(), boardID)
	if err != nil {
		return handleServiceError(c, err)
	}

	node := f.NodeByID(nodeID)
	if node == nil {
		return handleServiceError(c, fmt.Errorf("%w: %s", services.ErrNodeNotFound, nodeID))
	}

	data, err := models.NewNodeData(node.Type)
	if err != nil {
		return internalError(c, err)
	}

	if err := json.Unmarshal(c.Body(), data); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	updated, err := h.boardService.UpdateNodeData(c.Context(), boardID, nodeID, data)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) ApplyNodeChanges(c fiber.Ctx) error {
	var req NodeChangesRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	f, err := h.boardService.ApplyNodeChanges(c.Context(), c.Params("id"), req.Changes)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(f)
}

func (h *APIHandlers) ApplyEdgeChanges(c fiber.Ctx) error {
	var req EdgeChangesRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	f, err := h.boardService.ApplyEdgeChanges(c.Context(), c.Params("id"), req.Changes)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(f)
}

func (h *APIHandlers) AddEdge(c fiber.Ctx) error {
	var req EdgeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	edge, err := h.boardService.AddEdge(c.Context(), c.Params("id"), &models.Edge{
		ID:           req.ID,
		Source:       req.Source,
		Target:       req.Target,
		SourceHandle: req.SourceHandle,
		TargetHandle: req.TargetHandle,
		Type:         req.Type,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(edge)
}

func (h *APIHandlers) Connect(c fiber.Ctx) error {
	var conn models.Connection
	if err := c.Bind().JSON(&conn); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(conn); err != nil {
		return badRequest(c, err.Error())
	}

	f, err := h.boardService.Connect(c.Context(), c.Params("id"), conn)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(f)
}

func (h *APIHandlers) DeleteEdge(c fiber.Ctx) error {
	f, err := h.boardService.DeleteEdge(c.Context(), c.Params("id"), c.Params("edgeId"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(f)
}

func (h *APIHandlers) ToggleViewMode(c fiber.Ctx) error {
	mode, err := h.boardService.ToggleViewMode(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(ViewModeResponse{ViewMode: mode})
}

func (h *APIHandlers) SetFlowIO(c fiber.Ctx) error {
	var req FlowIORequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	f, err := h.boardService.SetFlowIO(c.Context(), c.Params("id"), req.FlowInputs, req.FlowOutputs)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(f)
}

func (h *APIHandlers) ExportJSON(c fiber.Ctx) error {
	body, filename, err := h.boardService.ExportJSON(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return sendAttachment(c, fiber.MIMEApplicationJSON, filename, body)
}

func (h *APIHandlers) ExportPDF(c fiber.Ctx) error {
	body, filename, err := h.boardService.ExportPDF(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return sendAttachment(c, mimeApplicationPDF, filename, body)
}

func sendAttachment(c fiber.Ctx, contentType, filename string, body []byte) error {
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)

	return c.Send(body)
}
