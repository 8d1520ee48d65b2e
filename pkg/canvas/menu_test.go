package canvas

import (
	"testing"

	"github.com/hypervision/hypervision/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextMenu_Pane(t *testing.T) {
	controller := newTestController(t)
	menu := NewContextMenu(controller)

	assert.False(t, menu.IsOpen())
	assert.Empty(t, menu.Items())

	menu.OpenOnPane(models.Position{X: 300, Y: 200})
	require.True(t, menu.IsOpen())
	assert.Equal(t, []MenuAction{MenuActionAddNote}, menu.Items())

	note, err := menu.Select(MenuActionAddNote)
	require.NoError(t, err)
	require.NotNil(t, note)

	assert.Equal(t, models.Position{X: 200, Y: 150}, note.Position)
	assert.False(t, menu.IsOpen())
	assert.Len(t, controller.Store().Nodes(), 1)
}

func TestContextMenu_DeleteNode(t *testing.T) {
	controller := newTestController(t)
	menu := NewContextMenu(controller)

	dropped, err := controller.Drop("face-match", models.Position{})
	require.NoError(t, err)

	require.NoError(t, menu.OpenOnNode(dropped.Node.ID, models.Position{X: 5, Y: 5}))
	assert.Equal(t, []MenuAction{MenuActionDeleteNode}, menu.Items())

	_, err = menu.Select(MenuActionAddNote)
	require.ErrorIs(t, err, ErrMenuItemUnavailable)

	_, err = menu.Select(MenuActionDeleteNode)
	require.NoError(t, err)
	assert.False(t, menu.IsOpen())
	assert.Len(t, controller.Store().Nodes(), 1)
	assert.Empty(t, controller.Store().Edges())
}

func TestContextMenu_DeleteStartRefused(t *testing.T) {
	controller := newTestController(t)
	menu := NewContextMenu(controller)

	dropped, err := controller.Drop("face-match", models.Position{})
	require.NoError(t, err)

	before := controller.Store().Snapshot()

	require.NoError(t, menu.OpenOnNode(dropped.Start.ID, models.Position{}))

	_, err = menu.Select(MenuActionDeleteNode)
	require.ErrorIs(t, err, ErrStartNodeProtected)
	assert.False(t, menu.IsOpen())
	assert.Equal(t, before, controller.Store().Snapshot())
}

func TestContextMenu_Dismiss(t *testing.T) {
	controller := newTestController(t)
	menu := NewContextMenu(controller)

	menu.OpenOnPane(models.Position{})
	menu.Key("Enter")
	assert.True(t, menu.IsOpen())

	menu.Key(KeyEscape)
	assert.False(t, menu.IsOpen())

	menu.OpenOnPane(models.Position{})
	menu.Click()
	assert.False(t, menu.IsOpen())

	_, err := menu.Select(MenuActionAddNote)
	require.ErrorIs(t, err, ErrMenuClosed)
	assert.Empty(t, controller.Store().Nodes())

	require.ErrorIs(t, menu.OpenOnNode("missing", models.Position{}), ErrNodeNotFound)
	assert.False(t, menu.IsOpen())
}
