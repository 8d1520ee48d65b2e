package flow

import (
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/hypervision/hypervision/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(id string, t models.NodeType) *models.Node {
	data, _ := models.NewNodeData(t)

	return &models.Node{ID: id, Type: t, Data: data}
}

// seededStore returns start -> a -> b, a -> c.
func seededStore(t *testing.T) *Store {
	t.Helper()

	store := NewStore()
	store.AddNode(node("start", models.NodeTypeStart))
	store.AddNode(node("a", models.NodeTypeModule))
	store.AddNode(node("b", models.NodeTypeCondition))
	store.AddNode(node("c", models.NodeTypeEndStatus))
	store.AddEdge(&models.Edge{ID: "start-a", Source: "start", Target: "a", Type: models.DefaultEdgeType})
	store.Connect(models.Connection{Source: "a", Target: "b"})
	store.Connect(models.Connection{Source: "a", Target: "c"})

	require.Len(t, store.Nodes(), 4)
	require.Len(t, store.Edges(), 3)

	return store
}

func assertNoDanglingEdges(t *testing.T, store *Store) {
	t.Helper()

	snapshot := store.Snapshot()
	for _, edge := range snapshot.Edges {
		assert.NotNil(t, snapshot.NodeByID(edge.Source), "edge %s has no source", edge.ID)
		assert.NotNil(t, snapshot.NodeByID(edge.Target), "edge %s has no target", edge.ID)
	}
}

func TestNewStore(t *testing.T) {
	store := NewStore()

	assert.Empty(t, store.Nodes())
	assert.Empty(t, store.Edges())
	assert.Equal(t, models.ViewModeBusiness, store.ViewMode())
}

func TestStore_ApplyNodeChanges(t *testing.T) {
	store := seededStore(t)

	store.ApplyNodeChanges([]models.NodeChange{
		{Type: models.ChangeTypePosition, ID: "a", Position: &models.Position{X: 10, Y: 20}},
		{Type: models.ChangeTypeSelect, ID: "b", Selected: true},
		{Type: models.ChangeTypeDimensions, ID: "c", Dimensions: &models.Dimensions{Width: 200, Height: 80}},
		{Type: models.ChangeTypeSelect, ID: "ghost", Selected: true},
	})

	a, ok := store.Node("a")
	require.True(t, ok)
	assert.Equal(t, models.Position{X: 10, Y: 20}, a.Position)

	b, _ := store.Node("b")
	assert.True(t, b.Selected)

	c, _ := store.Node("c")
	require.NotNil(t, c.Width)
	assert.InDelta(t, 200.0, *c.Width, 0.001)
	assert.InDelta(t, 80.0, *c.Height, 0.001)
}

func TestStore_ApplyNodeChanges_RemoveCascades(t *testing.T) {
	store := seededStore(t)

	store.ApplyNodeChanges([]models.NodeChange{{Type: models.ChangeTypeRemove, ID: "a"}})

	assert.Len(t, store.Nodes(), 3)
	assert.Empty(t, store.Edges())
	assertNoDanglingEdges(t, store)
}

func TestStore_ApplyNodeChanges_StartIsProtected(t *testing.T) {
	store := seededStore(t)

	store.ApplyNodeChanges([]models.NodeChange{
		{Type: models.ChangeTypeRemove, ID: "start"},
		{Type: models.ChangeTypeRemove, ID: "c"},
	})

	_, ok := store.Node("start")
	assert.True(t, ok)

	_, ok = store.Node("c")
	assert.False(t, ok)

	assert.Len(t, store.Edges(), 2)
	assertNoDanglingEdges(t, store)
}

// meshStore returns start -> m1 plus a dense, cyclic mesh over m1..m6.
func meshStore(t *testing.T) *Store {
	t.Helper()

	store := NewStore()
	store.AddNode(node("start", models.NodeTypeStart))

	ids := []string{"m1", "m2", "m3", "m4", "m5", "m6"}
	for _, id := range ids {
		store.AddNode(node(id, models.NodeTypeModule))
	}

	store.AddEdge(&models.Edge{ID: "start-m1", Source: "start", Target: "m1", Type: models.DefaultEdgeType})

	for i, source := range ids {
		for _, target := range ids[i+1:] {
			store.Connect(models.Connection{Source: source, Target: target})
		}
	}

	store.Connect(models.Connection{Source: "m6", Target: "m1"})
	store.Connect(models.Connection{Source: "m4", Target: "m2", SourceHandle: "no"})

	return store
}

func removals(ids ...string) []models.NodeChange {
	changes := make([]models.NodeChange, 0, len(ids))
	for _, id := range ids {
		changes = append(changes, models.NodeChange{Type: models.ChangeTypeRemove, ID: id})
	}

	return changes
}

func assertRemoved(t *testing.T, store *Store, removed map[string]bool) {
	t.Helper()

	_, ok := store.Node("start")
	assert.True(t, ok, "start node survives every batch")

	for id := range removed {
		_, ok := store.Node(id)
		assert.False(t, ok, "node %s should be gone", id)
	}

	assert.Len(t, store.Nodes(), 7-len(removed))
	assertNoDanglingEdges(t, store)
}

func TestStore_ApplyNodeChanges_SuccessiveRemovals(t *testing.T) {
	tests := []struct {
		name    string
		batches [][]string
	}{
		{
			name:    "one node per batch",
			batches: [][]string{{"m3"}, {"m1"}, {"m6"}, {"m2"}},
		},
		{
			name:    "start mixed into every batch",
			batches: [][]string{{"start", "m2"}, {"m5", "start"}, {"start"}, {"m1", "start", "m4"}},
		},
		{
			name:    "repeats and unknown ids",
			batches: [][]string{{"m4", "m4"}, {"ghost", "m4", "m5"}, {"m5", "m6", "start"}},
		},
		{
			name:    "everything removable",
			batches: [][]string{{"m1", "m2", "m3"}, {"start", "m4", "m5", "m6"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := meshStore(t)
			removed := map[string]bool{}

			for _, batch := range tt.batches {
				store.ApplyNodeChanges(removals(batch...))

				for _, id := range batch {
					if id != "start" && id != "ghost" {
						removed[id] = true
					}
				}

				assertRemoved(t, store, removed)
			}
		})
	}
}

func TestStore_ApplyNodeChanges_RandomRemovalSequences(t *testing.T) {
	candidates := []string{"start", "m1", "m2", "m3", "m4", "m5", "m6", "ghost"}

	for seed := range uint64(50) {
		rng := rand.New(rand.NewPCG(seed, seed^0x5eed))
		store := meshStore(t)
		removed := map[string]bool{}

		for range 4 {
			batch := make([]string, 0, 3)
			for range 1 + rng.IntN(3) {
				batch = append(batch, candidates[rng.IntN(len(candidates))])
			}

			store.ApplyNodeChanges(removals(batch...))

			for _, id := range batch {
				if id != "start" && id != "ghost" {
					removed[id] = true
				}
			}

			assertRemoved(t, store, removed)
		}
	}
}

func TestStore_ApplyEdgeChanges(t *testing.T) {
	store := seededStore(t)
	edgeAB := models.Connection{Source: "a", Target: "b"}.EdgeID()

	store.ApplyEdgeChanges([]models.EdgeChange{
		{Type: models.ChangeTypeRemove, ID: "start-a"},
		{Type: models.ChangeTypeRemove, ID: edgeAB},
		{Type: models.ChangeTypeSelect, ID: "missing", Selected: true},
	})

	_, ok := store.Edge("start-a")
	assert.True(t, ok, "edges leaving the start node are kept")

	_, ok = store.Edge(edgeAB)
	assert.False(t, ok)
	assert.Len(t, store.Edges(), 2)
}

func TestStore_Connect(t *testing.T) {
	tests := []struct {
		name    string
		conn    models.Connection
		added   bool
		edgeIDs string
	}{
		{name: "new edge", conn: models.Connection{Source: "b", Target: "c"}, added: true, edgeIDs: "reactflow__edge-b-c"},
		{name: "with handles", conn: models.Connection{Source: "b", Target: "c", SourceHandle: "yes", TargetHandle: "in"}, added: true, edgeIDs: "reactflow__edge-byes-cin"},
		{name: "duplicate", conn: models.Connection{Source: "a", Target: "b"}},
		{name: "missing source", conn: models.Connection{Target: "b"}},
		{name: "missing target", conn: models.Connection{Source: "a"}},
		{name: "unknown node", conn: models.Connection{Source: "a", Target: "ghost"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := seededStore(t)
			store.Connect(tt.conn)

			if !tt.added {
				assert.Len(t, store.Edges(), 3)

				return
			}

			assert.Len(t, store.Edges(), 4)

			edge, ok := store.Edge(tt.edgeIDs)
			require.True(t, ok)
			assert.Equal(t, tt.conn.Source, edge.Source)
			assert.Equal(t, tt.conn.Target, edge.Target)
		})
	}
}

func TestStore_AddEdge_RequiresEndpoints(t *testing.T) {
	store := seededStore(t)

	store.AddEdge(&models.Edge{ID: "x", Source: "a", Target: "ghost"})
	store.AddEdge(nil)

	assert.Len(t, store.Edges(), 3)
}

func TestStore_DeleteNode(t *testing.T) {
	store := seededStore(t)

	store.DeleteNode("start")
	assert.Len(t, store.Nodes(), 4)

	store.DeleteNode("b")
	assert.Len(t, store.Nodes(), 3)
	assert.Len(t, store.Edges(), 2)
	assertNoDanglingEdges(t, store)
}

func TestStore_DeleteEdge(t *testing.T) {
	store := seededStore(t)

	store.DeleteEdge("start-a")
	assert.Len(t, store.Edges(), 3)

	store.DeleteEdge(models.Connection{Source: "a", Target: "c"}.EdgeID())
	assert.Len(t, store.Edges(), 2)
}

func TestStore_UpdateNodeData(t *testing.T) {
	store := seededStore(t)

	store.UpdateNodeData("b", &models.ConditionData{Label: "Score", Condition: "score > 0.8"})

	b, _ := store.Node("b")
	data, ok := b.Data.(*models.ConditionData)
	require.True(t, ok)
	assert.Equal(t, "score > 0.8", data.Condition)

	store.UpdateNodeData("b", &models.NoteData{Text: "wrong kind"})

	b, _ = store.Node("b")
	assert.Equal(t, "Score", b.Label())
}

func TestStore_Clear(t *testing.T) {
	store := seededStore(t)

	store.Clear()

	assert.Empty(t, store.Nodes())
	assert.Empty(t, store.Edges())
}

func TestStore_ViewModeAndIO(t *testing.T) {
	store := NewStore()

	store.ToggleViewMode()
	assert.Equal(t, models.ViewModeTech, store.ViewMode())

	store.ToggleViewMode()
	assert.Equal(t, models.ViewModeBusiness, store.ViewMode())

	store.SetFlowInputs("document image")
	store.SetFlowOutputs("decision")

	snapshot := store.Snapshot()
	assert.Equal(t, "document image", snapshot.FlowInputs)
	assert.Equal(t, "decision", snapshot.FlowOutputs)
}

func TestStore_SnapshotIsIsolated(t *testing.T) {
	store := seededStore(t)

	snapshot := store.Snapshot()
	snapshot.Nodes[1].Position = models.Position{X: 999}
	snapshot.Nodes[1].Data.(*models.ModuleData).Label = "mutated"

	a, _ := store.Node("a")
	assert.Equal(t, models.Position{}, a.Position)
	assert.Empty(t, a.Label())
}

func TestStore_Subscribe(t *testing.T) {
	store := NewStore()

	var calls []int

	unsubscribe := store.Subscribe(func(snapshot *models.Flow) {
		calls = append(calls, len(snapshot.Nodes))
	})

	store.AddNode(node("a", models.NodeTypeModule))
	store.DeleteEdge("nothing")
	store.AddNode(node("b", models.NodeTypeModule))

	unsubscribe()
	store.AddNode(node("c", models.NodeTypeModule))

	assert.Equal(t, []int{1, 2}, calls)
}

func TestStore_ConcurrentMutations(t *testing.T) {
	store := NewStore()
	ids := &SequenceGenerator{}

	var wg sync.WaitGroup

	for range 50 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			store.AddNode(node(ids.NewID("module"), models.NodeTypeModule))
		}()
	}

	wg.Wait()

	assert.Len(t, store.Nodes(), 50)
}

func TestUUIDGenerator(t *testing.T) {
	gen := UUIDGenerator{}

	first := gen.NewID("face-match")
	second := gen.NewID("face-match")

	assert.NotEqual(t, first, second)
	assert.Contains(t, first, "face-match-")
}
