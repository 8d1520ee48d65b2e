package redis_test

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/hypervision/hypervision/pkg/models"
	"github.com/hypervision/hypervision/pkg/persistence"
	"github.com/hypervision/hypervision/pkg/persistence/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var redisContainer testcontainers.Container

func setupTestRedis(t *testing.T) (*redis.Persistence, context.Context) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if redisContainer == nil || !redisContainer.IsRunning() {
		var err error

		redisContainer, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "redis:7-alpine",
				ExposedPorts: []string{"6379/tcp"},
				WaitingFor:   wait.ForLog("Ready to accept connections"),
			},
			Started: true,
		})
		require.NoError(t, err)
	}

	endpoint, err := redisContainer.Endpoint(ctx, "")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	p, err := redis.NewPersistence(ctx, logger, fmt.Sprintf("redis://%s/0", endpoint))
	require.NoError(t, err)

	t.Cleanup(func() {
		list, err := p.BoardRepository().List(ctx, persistence.ListBoardsOptions{Limit: persistence.MaxListLimit})
		require.NoError(t, err)

		for _, board := range list.Boards {
			require.NoError(t, p.BoardRepository().Delete(ctx, board.ID))
		}

		require.NoError(t, p.Close(ctx))
		cancel()
	})

	return p, ctx
}

func TestNewPersistence_InvalidURL(t *testing.T) {
	_, err := redis.NewPersistence(t.Context(), slog.Default(), "://nope")
	require.Error(t, err)
}

func TestBoardRepository_Lifecycle(t *testing.T) {
	p, ctx := setupTestRedis(t)
	repo := p.BoardRepository()

	require.NoError(t, p.HealthCheck(ctx))

	flow := models.NewFlow()
	flow.Nodes = []*models.Node{
		{ID: "start-1", Type: models.NodeTypeStart, Data: &models.StartData{Label: "Start", Color: "#22C55E"}},
		{ID: "note-1", Type: models.NodeTypeNote, Position: models.Position{X: 300, Y: 20}, Data: &models.NoteData{Text: "Ask compliance"}},
	}

	board := &models.Board{Name: "Redis board", Owner: "u-1", Flow: flow}
	require.NoError(t, repo.Save(ctx, board))
	require.NotEmpty(t, board.ID)

	loaded, err := repo.GetByID(ctx, board.ID)
	require.NoError(t, err)
	assert.Equal(t, board.Flow, loaded.Flow)

	other := &models.Board{Name: "Another", Owner: "u-2"}
	require.NoError(t, repo.Save(ctx, other))

	owned, err := repo.List(ctx, persistence.ListBoardsOptions{OwnerID: "u-1"})
	require.NoError(t, err)
	require.Len(t, owned.Boards, 1)
	assert.Equal(t, board.ID, owned.Boards[0].ID)

	require.NoError(t, repo.Delete(ctx, board.ID))

	_, err = repo.GetByID(ctx, board.ID)
	require.ErrorIs(t, err, persistence.ErrBoardNotFound)

	err = repo.Delete(ctx, board.ID)
	require.ErrorIs(t, err, persistence.ErrBoardNotFound)

	all, err := repo.List(ctx, persistence.ListBoardsOptions{})
	require.NoError(t, err)
	assert.Len(t, all.Boards, 1)
}

func TestAccessLinkRepository_Lifecycle(t *testing.T) {
	p, ctx := setupTestRedis(t)
	repo := p.AccessLinkRepository()

	boardID := "board-" + t.Name()
	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)

	viewer := &models.AccessLink{BoardID: boardID, Role: models.AccessRoleViewer, PasswordHash: "h1"}
	editor := &models.AccessLink{BoardID: boardID, Role: models.AccessRoleEditor, PasswordHash: "h2", ExpiresAt: &expires}

	require.NoError(t, repo.Create(ctx, viewer))
	require.NoError(t, repo.Create(ctx, editor))

	t.Cleanup(func() {
		_ = repo.Delete(ctx, boardID, editor.ID)
	})

	fetched, err := repo.GetByID(ctx, editor.ID)
	require.NoError(t, err)
	assert.Equal(t, "h2", fetched.PasswordHash)
	require.NotNil(t, fetched.ExpiresAt)
	assert.True(t, expires.Equal(*fetched.ExpiresAt))

	links, err := repo.ListByBoard(ctx, boardID)
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, viewer.ID, links[0].ID)
	assert.Equal(t, editor.ID, links[1].ID)

	err = repo.Delete(ctx, "other-board", viewer.ID)
	require.ErrorIs(t, err, persistence.ErrAccessLinkNotFound)

	require.NoError(t, repo.Delete(ctx, boardID, viewer.ID))

	_, err = repo.GetByID(ctx, viewer.ID)
	require.ErrorIs(t, err, persistence.ErrAccessLinkNotFound)

	links, err = repo.ListByBoard(ctx, boardID)
	require.NoError(t, err)
	require.Len(t, links, 1)
}
