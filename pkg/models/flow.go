package models

// ViewMode selects whether technical metadata is displayed.
type ViewMode string

const (
	ViewModeBusiness ViewMode = "business"
	ViewModeTech     ViewMode = "tech"
)

// Toggle returns the other view mode.
func (m ViewMode) Toggle() ViewMode {
	if m == ViewModeBusiness {
		return ViewModeTech
	}

	return ViewModeBusiness
}

// Flow is a snapshot of a flow graph together with its view settings.
type Flow struct {
	Nodes       []*Node  `json:"nodes"`
	Edges       []*Edge  `json:"edges"`
	ViewMode    ViewMode `json:"viewMode"`
	FlowInputs  string   `json:"flowInputs"`
	FlowOutputs string   `json:"flowOutputs"`
}

// NewFlow returns an empty flow in business view.
func NewFlow() *Flow {
	return &Flow{
		Nodes:    []*Node{},
		Edges:    []*Edge{},
		ViewMode: ViewModeBusiness,
	}
}

// Clone returns a deep copy of the flow.
func (f *Flow) Clone() *Flow {
	clone := &Flow{
		Nodes:       make([]*Node, 0, len(f.Nodes)),
		Edges:       make([]*Edge, 0, len(f.Edges)),
		ViewMode:    f.ViewMode,
		FlowInputs:  f.FlowInputs,
		FlowOutputs: f.FlowOutputs,
	}

	for _, node := range f.Nodes {
		clone.Nodes = append(clone.Nodes, node.Clone())
	}

	for _, edge := range f.Edges {
		clone.Edges = append(clone.Edges, edge.Clone())
	}

	return clone
}

// NodeByID returns the node with the given id, or nil.
func (f *Flow) NodeByID(id string) *Node {
	for _, node := range f.Nodes {
		if node.ID == id {
			return node
		}
	}

	return nil
}

// StartNode returns the flow's start node, or nil when none has been placed.
func (f *Flow) StartNode() *Node {
	for _, node := range f.Nodes {
		if node.IsStart() {
			return node
		}
	}

	return nil
}
