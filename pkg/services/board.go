package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hypervision/hypervision/pkg/canvas"
	"github.com/hypervision/hypervision/pkg/catalog"
	"github.com/hypervision/hypervision/pkg/eventbus"
	"github.com/hypervision/hypervision/pkg/events"
	"github.com/hypervision/hypervision/pkg/export"
	"github.com/hypervision/hypervision/pkg/flow"
	"github.com/hypervision/hypervision/pkg/models"
	"github.com/hypervision/hypervision/pkg/otelhelper"
	"github.com/hypervision/hypervision/pkg/persistence"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Flow operations reported in flow.updated events.
const (
	OpDrop             = "drop"
	OpAddNote          = "add_note"
	OpAddNode          = "add_node"
	OpDeleteNode       = "delete_node"
	OpUpdateNodeData   = "update_node_data"
	OpNodeChanges      = "node_changes"
	OpEdgeChanges      = "edge_changes"
	OpAddEdge          = "add_edge"
	OpConnect          = "connect"
	OpDeleteEdge       = "delete_edge"
	OpClear            = "clear"
	OpToggleViewMode   = "toggle_view_mode"
	OpSetIO            = "set_io"
	OpImport           = "import"
	minBoardNameLength = 3
)

// Board manages boards and applies canvas operations to their flows.
//
// Every mutation loads the board, replays the operation on a flow.Store owned by
// the call, and saves the resulting snapshot. Mutations are serialized so that
// concurrent requests never interleave their load and save.
type Board struct {
	persistence persistence.Persistence
	catalog     *catalog.Catalog
	publisher   eventbus.EventPublisher
	ids         flow.IDGenerator
	tracer      trace.Tracer
	logger      *slog.Logger
	now         func() time.Time

	mu sync.Mutex
}

// NewBoard creates a new board service. A nil publisher disables events; nil ids,
// tracer and logger fall back to UUID ids, a noop tracer and the default logger.
func NewBoard(
	p persistence.Persistence,
	modules *catalog.Catalog,
	publisher eventbus.EventPublisher,
	ids flow.IDGenerator,
	tracer trace.Tracer,
	logger *slog.Logger,
) *Board {
	if modules == nil {
		modules = catalog.Default()
	}

	if ids == nil {
		ids = flow.UUIDGenerator{}
	}

	if tracer == nil {
		tracer = otelhelper.NoopTracer()
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Board{
		persistence: p,
		catalog:     modules,
		publisher:   publisher,
		ids:         ids,
		tracer:      tracer,
		logger:      logger.With("module", "board_service"),
		now:         time.Now,
	}
}

// HealthCheck checks the health of the persistence layer.
func (b *Board) HealthCheck(ctx context.Context) (string, bool) {
	if b.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := b.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// Catalog returns the module palette.
func (b *Board) Catalog() []models.ModuleDefinition {
	return b.catalog.List()
}

// ListBoardsRequest contains options for listing boards.
type ListBoardsRequest struct {
	Limit     int
	Offset    int
	OwnerID   string
	SortBy    string
	SortOrder string
}

// List retrieves boards with filtering, sorting, and pagination.
func (b *Board) List(ctx context.Context, req ListBoardsRequest) (*persistence.BoardListResult, error) {
	result, err := b.persistence.BoardRepository().List(ctx, persistence.ListBoardsOptions{
		OwnerID:   req.OwnerID,
		Limit:     req.Limit,
		Offset:    req.Offset,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}

	return result, nil
}

// Create stores a new board with an empty flow.
func (b *Board) Create(ctx context.Context, name, description, owner string) (*models.Board, error) {
	ctx, span := otelhelper.StartSpan(ctx, b.tracer, "board.create", attribute.String(otelhelper.BoardNameKey, name))
	defer span.End()

	name = strings.TrimSpace(name)
	if len(name) < minBoardNameLength {
		return nil, NewValidationError("Create", "BOARD_NAME_REQUIRED",
			fmt.Sprintf("board name must have at least %d characters", minBoardNameLength), ErrBoardNameRequired)
	}

	if owner == "" {
		return nil, NewValidationError("Create", "OWNER_REQUIRED", "", ErrEmptyOwnerID)
	}

	board := &models.Board{
		Name:        name,
		Description: description,
		Owner:       owner,
		Flow:        models.NewFlow(),
	}

	b.mu.Lock()
	err := b.persistence.BoardRepository().Save(ctx, board)
	b.mu.Unlock()

	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to create board: %w", err)
	}

	span.SetAttributes(attribute.String(otelhelper.BoardIDKey, board.ID))
	b.publish(ctx, board.ID, events.BoardCreated{
		BaseEvent: events.NewBaseEvent(events.BoardCreatedEvent, board.ID),
		Name:      board.Name,
		Owner:     board.Owner,
	})

	return board, nil
}

// FetchByID returns a board and its flow.
func (b *Board) FetchByID(ctx context.Context, id string) (*models.Board, error) {
	board, err := b.persistence.BoardRepository().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get board: %w", err)
	}

	return board, nil
}

// UpdateBoardRequest lists the board attributes to change; nil fields are kept.
type UpdateBoardRequest struct {
	Name        *string
	Description *string
}

// Update renames or redescribes a board.
func (b *Board) Update(ctx context.Context, id string, req UpdateBoardRequest) (*models.Board, error) {
	if req.Name != nil && len(strings.TrimSpace(*req.Name)) < minBoardNameLength {
		return nil, NewValidationError("Update", "BOARD_NAME_REQUIRED", "", ErrBoardNameRequired)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	repo := b.persistence.BoardRepository()

	board, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get board: %w", err)
	}

	if req.Name != nil {
		board.Name = strings.TrimSpace(*req.Name)
	}

	if req.Description != nil {
		board.Description = *req.Description
	}

	err = repo.Save(ctx, board)
	if err != nil {
		return nil, fmt.Errorf("failed to update board: %w", err)
	}

	return board, nil
}

// Delete removes a board.
func (b *Board) Delete(ctx context.Context, id string) error {
	ctx, span := otelhelper.StartSpan(ctx, b.tracer, "board.delete", attribute.String(otelhelper.BoardIDKey, id))
	defer span.End()

	b.mu.Lock()
	err := b.persistence.BoardRepository().Delete(ctx, id)
	b.mu.Unlock()

	if err != nil {
		otelhelper.SetError(span, err)

		return fmt.Errorf("failed to delete board: %w", err)
	}

	b.publish(ctx, id, events.BoardDeleted{BaseEvent: events.NewBaseEvent(events.BoardDeletedEvent, id)})

	return nil
}

// Flow returns the current flow of a board.
func (b *Board) Flow(ctx context.Context, id string) (*models.Flow, error) {
	board, err := b.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return board.Flow, nil
}

// Drop places a palette item on the board's canvas.
func (b *Board) Drop(ctx context.Context, id, moduleType string, at models.Position) (*canvas.DropResult, error) {
	var result *canvas.DropResult

	_, err := b.mutate(ctx, id, OpDrop, func(c *canvas.Controller, _ *canvas.ContextMenu) error {
		var err error

		result, err = c.Drop(moduleType, at)

		return err
	}, attribute.String(otelhelper.ModuleTypeKey, moduleType))
	if err != nil {
		return nil, err
	}

	return result, nil
}

// AddNote adds a note through the pane context menu.
func (b *Board) AddNote(ctx context.Context, id string, at models.Position) (*models.Node, error) {
	var note *models.Node

	_, err := b.mutate(ctx, id, OpAddNote, func(_ *canvas.Controller, menu *canvas.ContextMenu) error {
		var err error

		menu.OpenOnPane(at)
		note, err = menu.Select(canvas.MenuActionAddNote)

		return err
	})
	if err != nil {
		return nil, err
	}

	return note, nil
}

// AddNode appends a fully constructed node. An empty id is generated from the node type.
// Start nodes only come from dropping the first module, and ids must be unused.
func (b *Board) AddNode(ctx context.Context, id string, node *models.Node) (*models.Node, error) {
	if node == nil || !node.Type.Valid() {
		return nil, NewValidationError("AddNode", "INVALID_NODE", "node type is invalid", ErrInvalidRequest)
	}

	if node.IsStart() {
		return nil, ErrStartNodeReserved
	}

	if node.Data != nil && node.Data.Kind() != node.Type {
		return nil, NewValidationError("AddNode", "NODE_DATA_MISMATCH", "", ErrNodeDataMismatch)
	}

	added := node.Clone()
	if added.ID == "" {
		added.ID = b.ids.NewID(string(added.Type))
	}

	_, err := b.mutate(ctx, id, OpAddNode, func(c *canvas.Controller, _ *canvas.ContextMenu) error {
		if _, exists := c.Store().Node(added.ID); exists {
			return NewValidationError("AddNode", "DUPLICATE_ID", "", fmt.Errorf("%w: node %s", ErrDuplicateID, added.ID))
		}

		c.Store().AddNode(added)

		return nil
	}, attribute.String(otelhelper.NodeIDKey, added.ID))
	if err != nil {
		return nil, err
	}

	return added, nil
}

// DeleteNode removes a node through the node context menu. The start node is refused.
func (b *Board) DeleteNode(ctx context.Context, id, nodeID string) (*models.Flow, error) {
	return b.mutate(ctx, id, OpDeleteNode, func(c *canvas.Controller, menu *canvas.ContextMenu) error {
		node, ok := c.Store().Node(nodeID)
		if !ok {
			return fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
		}

		err := menu.OpenOnNode(nodeID, node.Position)
		if err != nil {
			return err
		}

		_, err = menu.Select(canvas.MenuActionDeleteNode)

		return err
	}, attribute.String(otelhelper.NodeIDKey, nodeID))
}

// UpdateNodeData replaces the payload of a node. The payload must match the node type.
func (b *Board) UpdateNodeData(ctx context.Context, id, nodeID string, data models.NodeData) (*models.Node, error) {
	if data == nil {
		return nil, NewValidationError("UpdateNodeData", "NODE_DATA_REQUIRED", "", ErrInvalidRequest)
	}

	var updated *models.Node

	_, err := b.mutate(ctx, id, OpUpdateNodeData, func(c *canvas.Controller, _ *canvas.ContextMenu) error {
		node, ok := c.Store().Node(nodeID)
		if !ok {
			return fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
		}

		if node.Type != data.Kind() {
			return NewValidationError("UpdateNodeData", "NODE_DATA_MISMATCH",
				fmt.Sprintf("node %s is a %s", nodeID, node.Type), ErrNodeDataMismatch)
		}

		c.Store().UpdateNodeData(nodeID, data)
		updated, _ = c.Store().Node(nodeID)

		return nil
	}, attribute.String(otelhelper.NodeIDKey, nodeID))
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// ApplyNodeChanges applies a batch of canvas node changes.
func (b *Board) ApplyNodeChanges(ctx context.Context, id string, changes []models.NodeChange) (*models.Flow, error) {
	return b.mutate(ctx, id, OpNodeChanges, func(c *canvas.Controller, _ *canvas.ContextMenu) error {
		c.Store().ApplyNodeChanges(changes)

		return nil
	})
}

// ApplyEdgeChanges applies a batch of canvas edge changes.
func (b *Board) ApplyEdgeChanges(ctx context.Context, id string, changes []models.EdgeChange) (*models.Flow, error) {
	return b.mutate(ctx, id, OpEdgeChanges, func(c *canvas.Controller, _ *canvas.ContextMenu) error {
		c.Store().ApplyEdgeChanges(changes)

		return nil
	})
}

// AddEdge appends an edge between two existing nodes. An empty id is derived from the endpoints.
func (b *Board) AddEdge(ctx context.Context, id string, edge *models.Edge) (*models.Edge, error) {
	if edge == nil || edge.Source == "" || edge.Target == "" {
		return nil, NewValidationError("AddEdge", "INVALID_EDGE", "source and target are required", ErrInvalidRequest)
	}

	added := edge.Clone()
	if added.ID == "" {
		added.ID = added.Source + "-" + added.Target
	}

	if added.Type == "" {
		added.Type = models.DefaultEdgeType
	}

	_, err := b.mutate(ctx, id, OpAddEdge, func(c *canvas.Controller, _ *canvas.ContextMenu) error {
		err := requireNodes(c.Store(), added.Source, added.Target)
		if err != nil {
			return err
		}

		if _, exists := c.Store().Edge(added.ID); exists {
			return NewValidationError("AddEdge", "DUPLICATE_ID", "", fmt.Errorf("%w: edge %s", ErrDuplicateID, added.ID))
		}

		c.Store().AddEdge(added)

		return nil
	}, attribute.String(otelhelper.EdgeIDKey, added.ID))
	if err != nil {
		return nil, err
	}

	return added, nil
}

// Connect records a connection drawn between two handles.
func (b *Board) Connect(ctx context.Context, id string, conn models.Connection) (*models.Flow, error) {
	return b.mutate(ctx, id, OpConnect, func(c *canvas.Controller, _ *canvas.ContextMenu) error {
		err := requireNodes(c.Store(), conn.Source, conn.Target)
		if err != nil {
			return err
		}

		c.Store().Connect(conn)

		return nil
	}, attribute.String(otelhelper.EdgeIDKey, conn.EdgeID()))
}

// DeleteEdge removes an edge. Edges leaving the start node are kept.
func (b *Board) DeleteEdge(ctx context.Context, id, edgeID string) (*models.Flow, error) {
	return b.mutate(ctx, id, OpDeleteEdge, func(c *canvas.Controller, _ *canvas.ContextMenu) error {
		if _, ok := c.Store().Edge(edgeID); !ok {
			return fmt.Errorf("%w: %s", ErrEdgeNotFound, edgeID)
		}

		c.Store().DeleteEdge(edgeID)

		return nil
	}, attribute.String(otelhelper.EdgeIDKey, edgeID))
}

// ClearFlow removes every node and edge. It only proceeds once confirmed.
func (b *Board) ClearFlow(ctx context.Context, id string, confirmed bool) (*models.Flow, error) {
	if !confirmed {
		return nil, ErrConfirmationRequired
	}

	return b.mutate(ctx, id, OpClear, func(c *canvas.Controller, _ *canvas.ContextMenu) error {
		c.Store().Clear()

		return nil
	})
}

// ToggleViewMode switches between business and tech view.
func (b *Board) ToggleViewMode(ctx context.Context, id string) (models.ViewMode, error) {
	f, err := b.mutate(ctx, id, OpToggleViewMode, func(c *canvas.Controller, _ *canvas.ContextMenu) error {
		c.Store().ToggleViewMode()

		return nil
	})
	if err != nil {
		return "", err
	}

	return f.ViewMode, nil
}

// SetFlowIO replaces the flow input and output descriptors; nil values are kept.
func (b *Board) SetFlowIO(ctx context.Context, id string, inputs, outputs *string) (*models.Flow, error) {
	return b.mutate(ctx, id, OpSetIO, func(c *canvas.Controller, _ *canvas.ContextMenu) error {
		if inputs != nil {
			c.Store().SetFlowInputs(*inputs)
		}

		if outputs != nil {
			c.Store().SetFlowOutputs(*outputs)
		}

		return nil
	})
}

// ImportFlow replaces the nodes and edges of a board with an exported document.
// The view mode and flow descriptors of the board are kept.
func (b *Board) ImportFlow(ctx context.Context, id string, document []byte) (*models.Flow, error) {
	imported, err := export.ParseJSON(document)
	if err != nil {
		return nil, err
	}

	return b.mutate(ctx, id, OpImport, func(c *canvas.Controller, _ *canvas.ContextMenu) error {
		current := c.Store().Snapshot()

		// Replace by clearing and re-adding so listeners observe the import.
		c.Store().Clear()

		for _, node := range imported.Nodes {
			c.Store().AddNode(node)
		}

		for _, edge := range imported.Edges {
			c.Store().AddEdge(edge)
		}

		if c.Store().ViewMode() != current.ViewMode {
			c.Store().ToggleViewMode()
		}

		c.Store().SetFlowInputs(current.FlowInputs)
		c.Store().SetFlowOutputs(current.FlowOutputs)

		return nil
	})
}

// ExportJSON returns the exported document of a board's flow and its file name.
func (b *Board) ExportJSON(ctx context.Context, id string) ([]byte, string, error) {
	f, err := b.Flow(ctx, id)
	if err != nil {
		return nil, "", err
	}

	body, err := export.JSON(f)
	if err != nil {
		return nil, "", fmt.Errorf("failed to export board %s: %w", id, err)
	}

	return body, export.Filename("json", b.now()), nil
}

// ExportPDF renders a board's flow to a single page PDF and returns it with its file name.
func (b *Board) ExportPDF(ctx context.Context, id string) ([]byte, string, error) {
	ctx, span := otelhelper.StartSpan(ctx, b.tracer, "board.export_pdf", attribute.String(otelhelper.BoardIDKey, id))
	defer span.End()

	f, err := b.Flow(ctx, id)
	if err != nil {
		return nil, "", err
	}

	body, err := export.PDF(f)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, "", fmt.Errorf("failed to export board %s: %w", id, err)
	}

	return body, export.Filename("pdf", b.now()), nil
}

// Screenshot renders a board's flow as an image.
func (b *Board) Screenshot(ctx context.Context, id string, opts export.ScreenshotOptions) ([]byte, error) {
	f, err := b.Flow(ctx, id)
	if err != nil {
		return nil, err
	}

	return export.Screenshot(f, opts)
}

type canvasOp func(c *canvas.Controller, menu *canvas.ContextMenu) error

// mutate runs op against the board's flow and saves the result when it changed.
func (b *Board) mutate(ctx context.Context, id, operation string, op canvasOp, attrs ...attribute.KeyValue) (*models.Flow, error) {
	attrs = append(attrs,
		attribute.String(otelhelper.BoardIDKey, id),
		attribute.String(otelhelper.OperationKey, operation),
	)

	ctx, span := otelhelper.StartSpan(ctx, b.tracer, "board."+operation, attrs...)
	defer span.End()

	logger := b.logger.With("board_id", id, "operation", operation)

	b.mu.Lock()
	defer b.mu.Unlock()

	repo := b.persistence.BoardRepository()

	board, err := repo.GetByID(ctx, id)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to get board: %w", err)
	}

	store := flow.NewStoreFrom(board.Flow)

	changed := false
	unsubscribe := store.Subscribe(func(*models.Flow) { changed = true })

	controller := canvas.NewController(store, b.catalog, b.ids, b.logger)

	err = op(controller, canvas.NewContextMenu(controller))

	unsubscribe()

	if err != nil {
		otelhelper.SetError(span, err)
		logger.DebugContext(ctx, "Canvas operation refused", "error", err)

		return nil, err
	}

	snapshot := store.Snapshot()
	span.SetAttributes(
		attribute.Int(otelhelper.NodeCountKey, len(snapshot.Nodes)),
		attribute.Int(otelhelper.EdgeCountKey, len(snapshot.Edges)),
	)

	if !changed {
		return snapshot, nil
	}

	board.Flow = snapshot

	err = repo.Save(ctx, board)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to save board: %w", err)
	}

	logger.InfoContext(ctx, "Flow updated", "nodes", len(snapshot.Nodes), "edges", len(snapshot.Edges))

	b.publish(ctx, id, events.FlowUpdated{
		BaseEvent: events.NewBaseEvent(events.FlowUpdatedEvent, id),
		Operation: operation,
		NodeCount: len(snapshot.Nodes),
		EdgeCount: len(snapshot.Edges),
		ViewMode:  string(snapshot.ViewMode),
	})

	return snapshot, nil
}

// publish reports an event; failures are logged and never fail the operation.
func (b *Board) publish(ctx context.Context, boardID string, event eventbus.Event) {
	if b.publisher == nil {
		return
	}

	err := b.publisher.Publish(ctx, boardID, event)
	if err != nil {
		b.logger.ErrorContext(ctx, "Failed to publish event", "board_id", boardID, "event_type", event.GetType(), "error", err)
	}
}

func requireNodes(store *flow.Store, ids ...string) error {
	for _, id := range ids {
		if _, ok := store.Node(id); !ok {
			return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
		}
	}

	return nil
}
