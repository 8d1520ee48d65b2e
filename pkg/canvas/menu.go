package canvas

import (
	"slices"

	"github.com/hypervision/hypervision/pkg/models"
)

// MenuAction is an entry of the canvas context menu.
type MenuAction string

const (
	MenuActionAddNote    MenuAction = "add-note"
	MenuActionDeleteNode MenuAction = "delete-node"
)

// KeyEscape dismisses an open menu.
const KeyEscape = "Escape"

// MenuTarget is what the menu was opened on.
type MenuTarget struct {
	Position models.Position
	NodeID   string
	NodeType models.NodeType
}

// OnPane reports whether the menu was opened on empty canvas.
func (t MenuTarget) OnPane() bool {
	return t.NodeID == ""
}

// ContextMenu models the right-click menu of a canvas.
type ContextMenu struct {
	controller *Controller
	target     *MenuTarget
}

// NewContextMenu returns a closed menu acting through controller.
func NewContextMenu(controller *Controller) *ContextMenu {
	return &ContextMenu{controller: controller}
}

// OpenOnPane opens the menu on empty canvas at the click position.
func (m *ContextMenu) OpenOnPane(at models.Position) {
	m.target = &MenuTarget{Position: at}
}

// OpenOnNode opens the menu on a node.
func (m *ContextMenu) OpenOnNode(nodeID string, at models.Position) error {
	node, ok := m.controller.Store().Node(nodeID)
	if !ok {
		return ErrNodeNotFound
	}

	m.target = &MenuTarget{Position: at, NodeID: node.ID, NodeType: node.Type}

	return nil
}

// IsOpen reports whether the menu is shown.
func (m *ContextMenu) IsOpen() bool {
	return m.target != nil
}

// Target returns what the menu is open on, or nil.
func (m *ContextMenu) Target() *MenuTarget {
	return m.target
}

// Items lists the actions offered for the current target.
func (m *ContextMenu) Items() []MenuAction {
	switch {
	case m.target == nil:
		return nil
	case m.target.OnPane():
		return []MenuAction{MenuActionAddNote}
	default:
		return []MenuAction{MenuActionDeleteNode}
	}
}

// Select runs an action and closes the menu. Adding a note returns the note;
// deleting the start node is refused with ErrStartNodeProtected.
func (m *ContextMenu) Select(action MenuAction) (*models.Node, error) {
	if m.target == nil {
		return nil, ErrMenuClosed
	}

	if !slices.Contains(m.Items(), action) {
		return nil, ErrMenuItemUnavailable
	}

	target := *m.target
	m.target = nil

	switch action {
	case MenuActionAddNote:
		return m.controller.AddNote(target.Position), nil
	case MenuActionDeleteNode:
		if target.NodeType == models.NodeTypeStart {
			return nil, ErrStartNodeProtected
		}

		return nil, m.controller.DeleteNode(target.NodeID)
	default:
		return nil, ErrMenuItemUnavailable
	}
}

// Click handles a left click anywhere on the canvas.
func (m *ContextMenu) Click() {
	m.Dismiss()
}

// Key handles a key press while the menu is open.
func (m *ContextMenu) Key(key string) {
	if key == KeyEscape {
		m.Dismiss()
	}
}

// Dismiss closes the menu without running anything.
func (m *ContextMenu) Dismiss() {
	m.target = nil
}
