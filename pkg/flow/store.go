// Package flow holds the canonical node and edge collections of a flow and the
// mutations the canvas applies to them.
package flow

import (
	"slices"
	"sync"

	"github.com/hypervision/hypervision/pkg/models"
)

// Listener observes the flow after each mutation that changed it.
type Listener func(snapshot *models.Flow)

// Store owns a single flow graph. All mutations are total: inputs that do not
// apply to the current graph are ignored instead of reported.
type Store struct {
	mu        sync.Mutex
	flow      *models.Flow
	listeners map[int]Listener
	nextID    int
}

// NewStore returns a store holding an empty flow.
func NewStore() *Store {
	return NewStoreFrom(models.NewFlow())
}

// NewStoreFrom returns a store seeded with a copy of f.
func NewStoreFrom(f *models.Flow) *Store {
	if f == nil {
		f = models.NewFlow()
	}

	seed := f.Clone()
	if seed.ViewMode == "" {
		seed.ViewMode = models.ViewModeBusiness
	}

	return &Store{
		flow:      seed,
		listeners: make(map[int]Listener),
	}
}

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = l

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		delete(s.listeners, id)
	}
}

// Snapshot returns a deep copy of the current flow.
func (s *Store) Snapshot() *models.Flow {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.flow.Clone()
}

// Nodes returns copies of the current nodes in insertion order.
func (s *Store) Nodes() []*models.Node {
	return s.Snapshot().Nodes
}

// Edges returns copies of the current edges in insertion order.
func (s *Store) Edges() []*models.Edge {
	return s.Snapshot().Edges
}

// Node returns a copy of the node with the given id.
func (s *Store) Node(id string) (*models.Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node := s.flow.NodeByID(id)
	if node == nil {
		return nil, false
	}

	return node.Clone(), true
}

// Edge returns a copy of the edge with the given id.
func (s *Store) Edge(id string) (*models.Edge, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, edge := range s.flow.Edges {
		if edge.ID == id {
			return edge.Clone(), true
		}
	}

	return nil, false
}

// ViewMode returns the current view mode.
func (s *Store) ViewMode() models.ViewMode {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.flow.ViewMode
}

// ApplyNodeChanges applies a batch of node change records. Removing the start
// node is ignored; every removal strips the edges incident to the removed node.
func (s *Store) ApplyNodeChanges(changes []models.NodeChange) {
	s.update(func(f *models.Flow) bool {
		changed := false
		removed := make(map[string]bool)

		for _, change := range changes {
			node := f.NodeByID(change.ID)
			if node == nil {
				continue
			}

			switch change.Type {
			case models.ChangeTypePosition:
				if change.Position != nil {
					node.Position = *change.Position
					changed = true
				}
			case models.ChangeTypeSelect:
				node.Selected = change.Selected
				changed = true
			case models.ChangeTypeDimensions:
				if change.Dimensions != nil {
					width, height := change.Dimensions.Width, change.Dimensions.Height
					node.Width = &width
					node.Height = &height
					changed = true
				}
			case models.ChangeTypeRemove:
				if !node.IsStart() {
					removed[node.ID] = true
				}
			}
		}

		if len(removed) == 0 {
			return changed
		}

		f.Nodes = slices.DeleteFunc(f.Nodes, func(n *models.Node) bool {
			return removed[n.ID]
		})
		pruneDanglingEdges(f)

		return true
	})
}

// ApplyEdgeChanges applies a batch of edge change records. Edges leaving the
// start node cannot be removed.
func (s *Store) ApplyEdgeChanges(changes []models.EdgeChange) {
	s.update(func(f *models.Flow) bool {
		changed := false
		removed := make(map[string]bool)

		for _, change := range changes {
			idx := slices.IndexFunc(f.Edges, func(e *models.Edge) bool { return e.ID == change.ID })
			if idx < 0 {
				continue
			}

			edge := f.Edges[idx]

			switch change.Type {
			case models.ChangeTypeSelect:
				edge.Selected = change.Selected
				changed = true
			case models.ChangeTypeRemove:
				if !leavesStart(f, edge) {
					removed[edge.ID] = true
				}
			}
		}

		if len(removed) > 0 {
			f.Edges = slices.DeleteFunc(f.Edges, func(e *models.Edge) bool {
				return removed[e.ID]
			})
			changed = true
		}

		return changed
	})
}

// Connect appends an edge for the connection. Connections with a missing
// endpoint, or identical to an existing edge, leave the graph unchanged.
func (s *Store) Connect(conn models.Connection) {
	s.update(func(f *models.Flow) bool {
		if conn.Source == "" || conn.Target == "" {
			return false
		}

		if f.NodeByID(conn.Source) == nil || f.NodeByID(conn.Target) == nil {
			return false
		}

		exists := slices.ContainsFunc(f.Edges, func(e *models.Edge) bool {
			return e.Source == conn.Source && e.Target == conn.Target &&
				e.SourceHandle == conn.SourceHandle && e.TargetHandle == conn.TargetHandle
		})
		if exists {
			return false
		}

		f.Edges = append(f.Edges, &models.Edge{
			ID:           conn.EdgeID(),
			Source:       conn.Source,
			Target:       conn.Target,
			SourceHandle: conn.SourceHandle,
			TargetHandle: conn.TargetHandle,
		})

		return true
	})
}

// AddNode appends node as constructed by the caller.
func (s *Store) AddNode(node *models.Node) {
	if node == nil {
		return
	}

	s.update(func(f *models.Flow) bool {
		f.Nodes = append(f.Nodes, node.Clone())

		return true
	})
}

// AddEdge appends edge as constructed by the caller, provided both endpoints exist.
func (s *Store) AddEdge(edge *models.Edge) {
	if edge == nil {
		return
	}

	s.update(func(f *models.Flow) bool {
		if f.NodeByID(edge.Source) == nil || f.NodeByID(edge.Target) == nil {
			return false
		}

		f.Edges = append(f.Edges, edge.Clone())

		return true
	})
}

// DeleteNode removes a node and its incident edges. The start node is kept.
func (s *Store) DeleteNode(id string) {
	s.update(func(f *models.Flow) bool {
		node := f.NodeByID(id)
		if node == nil || node.IsStart() {
			return false
		}

		f.Nodes = slices.DeleteFunc(f.Nodes, func(n *models.Node) bool { return n.ID == id })
		pruneDanglingEdges(f)

		return true
	})
}

// DeleteEdge removes an edge unless it leaves the start node.
func (s *Store) DeleteEdge(id string) {
	s.update(func(f *models.Flow) bool {
		before := len(f.Edges)
		f.Edges = slices.DeleteFunc(f.Edges, func(e *models.Edge) bool {
			return e.ID == id && !leavesStart(f, e)
		})

		return len(f.Edges) != before
	})
}

// UpdateNodeData replaces the payload of a node. Payloads of another kind are ignored.
func (s *Store) UpdateNodeData(id string, data models.NodeData) {
	if data == nil {
		return
	}

	s.update(func(f *models.Flow) bool {
		node := f.NodeByID(id)
		if node == nil || node.Type != data.Kind() {
			return false
		}

		node.Data = cloneData(data)

		return true
	})
}

// Clear empties both collections, start node included.
func (s *Store) Clear() {
	s.update(func(f *models.Flow) bool {
		f.Nodes = []*models.Node{}
		f.Edges = []*models.Edge{}

		return true
	})
}

// ToggleViewMode flips between business and tech views.
func (s *Store) ToggleViewMode() {
	s.update(func(f *models.Flow) bool {
		f.ViewMode = f.ViewMode.Toggle()

		return true
	})
}

// SetFlowInputs overwrites the flow input descriptor.
func (s *Store) SetFlowInputs(inputs string) {
	s.update(func(f *models.Flow) bool {
		f.FlowInputs = inputs

		return true
	})
}

// SetFlowOutputs overwrites the flow output descriptor.
func (s *Store) SetFlowOutputs(outputs string) {
	s.update(func(f *models.Flow) bool {
		f.FlowOutputs = outputs

		return true
	})
}

// update runs mutate under the lock and notifies listeners outside of it.
func (s *Store) update(mutate func(f *models.Flow) bool) {
	s.mu.Lock()

	if !mutate(s.flow) {
		s.mu.Unlock()

		return
	}

	snapshot := s.flow.Clone()
	listeners := make([]Listener, 0, len(s.listeners))

	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}

	s.mu.Unlock()

	for _, l := range listeners {
		l(snapshot)
	}
}

func pruneDanglingEdges(f *models.Flow) {
	present := make(map[string]bool, len(f.Nodes))
	for _, node := range f.Nodes {
		present[node.ID] = true
	}

	f.Edges = slices.DeleteFunc(f.Edges, func(e *models.Edge) bool {
		return !present[e.Source] || !present[e.Target]
	})
}

func leavesStart(f *models.Flow, edge *models.Edge) bool {
	source := f.NodeByID(edge.Source)

	return source != nil && source.IsStart()
}

func cloneData(data models.NodeData) models.NodeData {
	holder := models.Node{Type: data.Kind(), Data: data}

	return holder.Clone().Data
}
