// Package models defines the core domain models for the flow-board editor.
package models

import (
	"encoding/json"
	"fmt"
)

// NodeType is the wire name of a node kind as rendered by the canvas.
type NodeType string

const (
	NodeTypeModule    NodeType = "moduleNode"
	NodeTypeAPIModule NodeType = "apiModuleNode"
	NodeTypeCondition NodeType = "conditionNode"
	NodeTypeEndStatus NodeType = "endStatusNode"
	NodeTypeStart     NodeType = "startNode"
	NodeTypeNote      NodeType = "noteNode"
)

// NodeTypes lists every node kind known to the editor.
var NodeTypes = []NodeType{
	NodeTypeModule,
	NodeTypeAPIModule,
	NodeTypeCondition,
	NodeTypeEndStatus,
	NodeTypeStart,
	NodeTypeNote,
}

// Valid reports whether t is one of the known node kinds.
func (t NodeType) Valid() bool {
	for _, known := range NodeTypes {
		if t == known {
			return true
		}
	}

	return false
}

// Position is a point in canvas coordinates.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Offset returns p translated by (dx, dy).
func (p Position) Offset(dx, dy float64) Position {
	return Position{X: p.X + dx, Y: p.Y + dy}
}

// Dimensions is the measured size of a rendered node.
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Node is a placed element of a flow. Data always matches Type.
type Node struct {
	ID       string
	Type     NodeType
	Position Position
	Data     NodeData
	Width    *float64
	Height   *float64
	Selected bool
}

// IsStart reports whether the node is the flow's entry point.
func (n *Node) IsStart() bool {
	return n.Type == NodeTypeStart
}

// Label returns the human readable caption of the node.
func (n *Node) Label() string {
	if n.Data == nil {
		return ""
	}

	return n.Data.Caption()
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	clone := *n

	if n.Width != nil {
		width := *n.Width
		clone.Width = &width
	}

	if n.Height != nil {
		height := *n.Height
		clone.Height = &height
	}

	if n.Data != nil {
		clone.Data = n.Data.clone()
	}

	return &clone
}

type nodeJSON struct {
	ID       string          `json:"id"`
	Type     NodeType        `json:"type"`
	Position Position        `json:"position"`
	Data     json.RawMessage `json:"data"`
	Width    *float64        `json:"width,omitempty"`
	Height   *float64        `json:"height,omitempty"`
	Selected bool            `json:"selected,omitempty"`
}

// MarshalJSON encodes the node in the canvas wire format.
func (n Node) MarshalJSON() ([]byte, error) {
	data := n.Data
	if data == nil {
		empty, err := NewNodeData(n.Type)
		if err != nil {
			return nil, err
		}

		data = empty
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal data of node %s: %w", n.ID, err)
	}

	return json.Marshal(nodeJSON{
		ID:       n.ID,
		Type:     n.Type,
		Position: n.Position,
		Data:     raw,
		Width:    n.Width,
		Height:   n.Height,
		Selected: n.Selected,
	})
}

// UnmarshalJSON decodes a node, selecting the payload variant from its type.
func (n *Node) UnmarshalJSON(body []byte) error {
	var wire nodeJSON
	if err := json.Unmarshal(body, &wire); err != nil {
		return err
	}

	data, err := NewNodeData(wire.Type)
	if err != nil {
		return err
	}

	if len(wire.Data) > 0 && string(wire.Data) != "null" {
		if err := json.Unmarshal(wire.Data, data); err != nil {
			return fmt.Errorf("invalid data for node %s: %w", wire.ID, err)
		}
	}

	*n = Node{
		ID:       wire.ID,
		Type:     wire.Type,
		Position: wire.Position,
		Data:     data,
		Width:    wire.Width,
		Height:   wire.Height,
		Selected: wire.Selected,
	}

	return nil
}
