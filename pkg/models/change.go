package models

// ChangeType enumerates the structural change records produced by the canvas.
type ChangeType string

const (
	ChangeTypePosition   ChangeType = "position"
	ChangeTypeSelect     ChangeType = "select"
	ChangeTypeRemove     ChangeType = "remove"
	ChangeTypeDimensions ChangeType = "dimensions"
)

// NodeChange is one entry of a node change batch.
type NodeChange struct {
	Type       ChangeType  `json:"type"                 validate:"required,oneof=position select remove dimensions"`
	ID         string      `json:"id"                   validate:"required"`
	Position   *Position   `json:"position,omitempty"`
	Dragging   bool        `json:"dragging,omitempty"`
	Selected   bool        `json:"selected,omitempty"`
	Dimensions *Dimensions `json:"dimensions,omitempty"`
}

// EdgeChange is one entry of an edge change batch. Only select and remove apply to edges.
type EdgeChange struct {
	Type     ChangeType `json:"type"               validate:"required,oneof=select remove"`
	ID       string     `json:"id"                 validate:"required"`
	Selected bool       `json:"selected,omitempty"`
}
