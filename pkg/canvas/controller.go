// Package canvas translates canvas gestures into flow store mutations and owns
// the placement policy for dropped modules.
package canvas

import (
	"fmt"
	"log/slog"

	"github.com/hypervision/hypervision/pkg/catalog"
	"github.com/hypervision/hypervision/pkg/flow"
	"github.com/hypervision/hypervision/pkg/models"
)

const (
	// Dropped nodes are centred on the pointer.
	nodeCenterOffsetX = 100
	nodeCenterOffsetY = 50

	// A synthesized start node sits this far above the first module.
	startNodeGap = 120

	startNodePrefix = "start"
	notePrefix      = "note"
	defaultNoteText = "Click to edit note..."
)

type endStatusStyle struct {
	label string
	color string
}

var endStatusStyles = map[models.EndStatus]endStatusStyle{
	models.EndStatusAutoApproved: {label: "Auto Approved", color: "#10B981"},
	models.EndStatusAutoDeclined: {label: "Auto Declined", color: "#EF4444"},
	models.EndStatusNeedsReview:  {label: "Needs Review", color: "#F59E0B"},
}

// DropResult lists what a drop created.
type DropResult struct {
	Node  *models.Node `json:"node"`
	Start *models.Node `json:"start,omitempty"`
	Edge  *models.Edge `json:"edge,omitempty"`
}

// Controller applies the drop, note and delete gestures of a single canvas.
type Controller struct {
	store   *flow.Store
	catalog *catalog.Catalog
	ids     flow.IDGenerator
	logger  *slog.Logger
}

// NewController creates a controller bound to store.
func NewController(store *flow.Store, modules *catalog.Catalog, ids flow.IDGenerator, logger *slog.Logger) *Controller {
	if ids == nil {
		ids = flow.UUIDGenerator{}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Controller{
		store:   store,
		catalog: modules,
		ids:     ids,
		logger:  logger.With("module", "canvas"),
	}
}

// Store returns the store the controller mutates.
func (c *Controller) Store() *flow.Store {
	return c.store
}

// Drop creates the node for a palette item released at the pointer position.
//
// A condition or end status cannot open a flow. The first substantive node of
// a flow without a start node gets a start node placed above it and wired to it.
func (c *Controller) Drop(moduleType string, at models.Position) (*DropResult, error) {
	if moduleType == "" {
		return nil, ErrEmptyModuleType
	}

	nodes := c.store.Nodes()
	isFirst := true

	var existingStart *models.Node

	for _, node := range nodes {
		if node.IsStart() {
			existingStart = node

			continue
		}

		isFirst = false
	}

	decision := moduleType == catalog.ConditionID || catalog.IsEndStatus(moduleType)
	if decision && isFirst {
		c.logger.Info("Refused drop opening the flow with a decision", "module_type", moduleType)

		return nil, ErrFlowStartsWithDecision
	}

	position := at.Offset(-nodeCenterOffsetX, -nodeCenterOffsetY)

	node, err := c.buildNode(moduleType, position)
	if err != nil {
		return nil, err
	}

	result := &DropResult{Node: node}

	if isFirst && existingStart == nil {
		result.Start = &models.Node{
			ID:       c.ids.NewID(startNodePrefix),
			Type:     models.NodeTypeStart,
			Position: position.Offset(0, -startNodeGap),
			Data:     &models.StartData{Label: "Start", Color: "#22C55E"},
		}
		c.store.AddNode(result.Start)
	}

	c.store.AddNode(node)

	if result.Start != nil {
		result.Edge = &models.Edge{
			ID:     result.Start.ID + "-" + node.ID,
			Source: result.Start.ID,
			Target: node.ID,
			Type:   models.DefaultEdgeType,
		}
		c.store.AddEdge(result.Edge)
	}

	c.logger.Debug("Dropped node", "node_id", node.ID, "node_type", node.Type, "with_start", result.Start != nil)

	return result, nil
}

// AddNote places a note centred on the given point.
func (c *Controller) AddNote(at models.Position) *models.Node {
	note := &models.Node{
		ID:       c.ids.NewID(notePrefix),
		Type:     models.NodeTypeNote,
		Position: at.Offset(-nodeCenterOffsetX, -nodeCenterOffsetY),
		Data:     &models.NoteData{Text: defaultNoteText},
	}
	c.store.AddNode(note)

	return note
}

// DeleteNode removes a node and its edges. The start node is refused.
func (c *Controller) DeleteNode(id string) error {
	node, ok := c.store.Node(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}

	if node.IsStart() {
		return ErrStartNodeProtected
	}

	c.store.DeleteNode(id)

	return nil
}

func (c *Controller) buildNode(moduleType string, position models.Position) (*models.Node, error) {
	node := &models.Node{Position: position}

	switch {
	case moduleType == catalog.ConditionID:
		node.Type = models.NodeTypeCondition
		node.Data = &models.ConditionData{
			Label:     "Condition",
			Condition: "Enter condition...",
			Color:     "#F59E0B",
			Icon:      "◊",
		}
	case catalog.IsEndStatus(moduleType):
		status := catalog.EndStatusOf(moduleType)

		style, ok := endStatusStyles[status]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownModule, moduleType)
		}

		node.Type = models.NodeTypeEndStatus
		node.Data = &models.EndStatusData{Label: style.label, Status: status, Color: style.color}
	case moduleType == catalog.APIModuleID:
		node.Type = models.NodeTypeAPIModule
		node.Data = &models.APIModuleData{
			Title:    "API Module",
			Endpoint: "https://api.example.com/endpoint",
			Color:    "#6366F1",
			Icon:     "🔗",
		}
	default:
		def, ok := c.catalog.Lookup(moduleType)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownModule, moduleType)
		}

		node.Type = models.NodeTypeModule
		node.Data = &models.ModuleData{
			Label:       def.Label,
			ModuleType:  def.ID,
			Color:       def.Color,
			Icon:        def.Icon,
			CSPURLs:     def.CSPURLs,
			IPAddresses: def.IPAddresses,
		}
	}

	node.ID = c.ids.NewID(moduleType)

	return node, nil
}
