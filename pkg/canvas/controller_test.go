package canvas

import (
	"testing"

	"github.com/hypervision/hypervision/pkg/catalog"
	"github.com/hypervision/hypervision/pkg/flow"
	"github.com/hypervision/hypervision/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController(t *testing.T) *Controller {
	t.Helper()

	return NewController(flow.NewStore(), catalog.Default(), &flow.SequenceGenerator{}, nil)
}

func TestController_Drop_FirstModuleSynthesizesStart(t *testing.T) {
	controller := newTestController(t)

	result, err := controller.Drop("id-card-validation", models.Position{X: 400, Y: 300})
	require.NoError(t, err)
	require.NotNil(t, result.Start)
	require.NotNil(t, result.Edge)

	nodes := controller.Store().Nodes()
	edges := controller.Store().Edges()

	require.Len(t, nodes, 2)
	require.Len(t, edges, 1)

	assert.Equal(t, models.Position{X: 300, Y: 250}, result.Node.Position)
	assert.Equal(t, models.Position{X: 300, Y: 130}, result.Start.Position)
	assert.Equal(t, "Start", result.Start.Label())

	assert.Equal(t, result.Start.ID+"-"+result.Node.ID, edges[0].ID)
	assert.Equal(t, result.Start.ID, edges[0].Source)
	assert.Equal(t, result.Node.ID, edges[0].Target)
	assert.Equal(t, models.DefaultEdgeType, edges[0].Type)

	data, ok := result.Node.Data.(*models.ModuleData)
	require.True(t, ok)
	assert.Equal(t, "id-card-validation", data.ModuleType)
	assert.NotEmpty(t, data.Label)
}

func TestController_Drop_WithExistingStart(t *testing.T) {
	controller := newTestController(t)

	_, err := controller.Drop("face-match", models.Position{X: 100, Y: 100})
	require.NoError(t, err)

	result, err := controller.Drop("aml-screening", models.Position{X: 300, Y: 300})
	require.NoError(t, err)

	assert.Nil(t, result.Start)
	assert.Nil(t, result.Edge)
	assert.Len(t, controller.Store().Nodes(), 3)
	assert.Len(t, controller.Store().Edges(), 1)
}

func TestController_Drop_StartKeptAfterModulesRemoved(t *testing.T) {
	controller := newTestController(t)

	first, err := controller.Drop("face-match", models.Position{X: 100, Y: 100})
	require.NoError(t, err)
	require.NoError(t, controller.DeleteNode(first.Node.ID))

	result, err := controller.Drop("video-kyc", models.Position{X: 200, Y: 200})
	require.NoError(t, err)

	assert.Nil(t, result.Start)
	assert.Len(t, controller.Store().Nodes(), 2)
	assert.Empty(t, controller.Store().Edges())
}

func TestController_Drop_DecisionOnEmptyCanvas(t *testing.T) {
	tests := []struct {
		name       string
		moduleType string
	}{
		{name: "condition", moduleType: catalog.ConditionID},
		{name: "auto approved", moduleType: "end-status-auto-approved"},
		{name: "auto declined", moduleType: "end-status-auto-declined"},
		{name: "needs review", moduleType: "end-status-needs-review"},
		{name: "unknown end status", moduleType: "end-status-maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			controller := newTestController(t)

			result, err := controller.Drop(tt.moduleType, models.Position{X: 10, Y: 10})

			require.ErrorIs(t, err, ErrFlowStartsWithDecision)
			assert.True(t, IsPolicyViolation(err))
			assert.Nil(t, result)
			assert.Empty(t, controller.Store().Nodes())
			assert.Empty(t, controller.Store().Edges())
		})
	}
}

func TestController_Drop_DecisionAfterModule(t *testing.T) {
	controller := newTestController(t)

	_, err := controller.Drop("selfie-validation", models.Position{})
	require.NoError(t, err)

	condition, err := controller.Drop(catalog.ConditionID, models.Position{X: 200, Y: 200})
	require.NoError(t, err)
	assert.Equal(t, models.NodeTypeCondition, condition.Node.Type)

	conditionData, ok := condition.Node.Data.(*models.ConditionData)
	require.True(t, ok)
	assert.Equal(t, "Enter condition...", conditionData.Condition)

	end, err := controller.Drop("end-status-auto-declined", models.Position{X: 400, Y: 200})
	require.NoError(t, err)

	endData, ok := end.Node.Data.(*models.EndStatusData)
	require.True(t, ok)
	assert.Equal(t, models.EndStatusAutoDeclined, endData.Status)
	assert.Equal(t, "Auto Declined", endData.Label)
	assert.Equal(t, "#EF4444", endData.Color)

	assert.Len(t, controller.Store().Nodes(), 4)
	assert.Len(t, controller.Store().Edges(), 1)
}

func TestController_Drop_APIModule(t *testing.T) {
	controller := newTestController(t)

	result, err := controller.Drop(catalog.APIModuleID, models.Position{X: 100, Y: 100})
	require.NoError(t, err)

	assert.Equal(t, models.NodeTypeAPIModule, result.Node.Type)
	assert.NotNil(t, result.Start)

	data, ok := result.Node.Data.(*models.APIModuleData)
	require.True(t, ok)
	assert.Equal(t, "API Module", data.Title)
	assert.Equal(t, "https://api.example.com/endpoint", data.Endpoint)
}

func TestController_Drop_Rejected(t *testing.T) {
	controller := newTestController(t)

	_, err := controller.Drop("", models.Position{})
	require.ErrorIs(t, err, ErrEmptyModuleType)

	_, err = controller.Drop("teleportation-check", models.Position{})
	require.ErrorIs(t, err, ErrUnknownModule)
	assert.False(t, IsPolicyViolation(err))

	assert.Empty(t, controller.Store().Nodes())
}

func TestController_Drop_UniqueIDs(t *testing.T) {
	controller := NewController(flow.NewStore(), catalog.Default(), nil, nil)

	seen := make(map[string]bool)

	for range 20 {
		result, err := controller.Drop("database-check", models.Position{})
		require.NoError(t, err)
		require.False(t, seen[result.Node.ID])

		seen[result.Node.ID] = true
	}
}

func TestController_AddNote(t *testing.T) {
	controller := newTestController(t)

	note := controller.AddNote(models.Position{X: 150, Y: 80})

	assert.Equal(t, models.NodeTypeNote, note.Type)
	assert.Equal(t, models.Position{X: 50, Y: 30}, note.Position)
	assert.Equal(t, "Click to edit note...", note.Label())
	assert.Len(t, controller.Store().Nodes(), 1)
	assert.Empty(t, controller.Store().Edges())
}

func TestController_DeleteNode(t *testing.T) {
	controller := newTestController(t)

	first, err := controller.Drop("bank-account-verification", models.Position{})
	require.NoError(t, err)

	err = controller.DeleteNode(first.Start.ID)
	require.ErrorIs(t, err, ErrStartNodeProtected)
	assert.Len(t, controller.Store().Nodes(), 2)
	assert.Len(t, controller.Store().Edges(), 1)

	err = controller.DeleteNode("missing")
	require.ErrorIs(t, err, ErrNodeNotFound)

	require.NoError(t, controller.DeleteNode(first.Node.ID))
	assert.Len(t, controller.Store().Nodes(), 1)
	assert.Empty(t, controller.Store().Edges())
}
