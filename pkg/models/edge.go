package models

// DefaultEdgeType is the edge style used when none is given.
const DefaultEdgeType = "default"

// Edge is a directed connection between two nodes.
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	Type         string `json:"type,omitempty"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
	Selected     bool   `json:"selected,omitempty"`
}

// Touches reports whether the edge starts or ends at nodeID.
func (e *Edge) Touches(nodeID string) bool {
	return e.Source == nodeID || e.Target == nodeID
}

// Clone returns a copy of the edge.
func (e *Edge) Clone() *Edge {
	clone := *e

	return &clone
}

// Connection is a proposed edge drawn by the user between two handles.
type Connection struct {
	Source       string `json:"source"       validate:"required"`
	Target       string `json:"target"       validate:"required"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// EdgeID derives the identifier the canvas library assigns to a connection.
func (c Connection) EdgeID() string {
	return "reactflow__edge-" + c.Source + c.SourceHandle + "-" + c.Target + c.TargetHandle
}
