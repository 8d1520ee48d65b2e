//go:build integration

package web_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/hypervision/hypervision/pkg/catalog"
	"github.com/hypervision/hypervision/pkg/feedback"
	"github.com/hypervision/hypervision/pkg/flow"
	"github.com/hypervision/hypervision/pkg/models"
	"github.com/hypervision/hypervision/pkg/persistence/postgresql"
	"github.com/hypervision/hypervision/pkg/services"
	"github.com/hypervision/hypervision/pkg/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
)

func setupTestDB(t *testing.T) string {
	t.Helper()

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_DB":       "test_hypervision",
				"POSTGRES_USER":     "test_user",
				"POSTGRES_PASSWORD": "test_pass",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		},
		Started: true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://test_user:test_pass@%s:%s/test_hypervision?sslmode=disable", host, port.Port())
}

func setupPostgresApp(t *testing.T) *fiber.App {
	t.Helper()

	persistence, err := postgresql.NewPersistence(t.Context(), slog.Default(), setupTestDB(t))
	require.NoError(t, err)

	t.Cleanup(func() { _ = persistence.Close(context.Background()) })

	boardService := services.NewBoard(persistence, catalog.Default(), nil, &flow.SequenceGenerator{}, nil, nil)
	feedbackService := services.NewFeedback(feedback.NewClient(feedback.DefaultConfig(""), nil), nil)

	links := services.NewAccessLinks(persistence, nil, services.WithHashCost(bcrypt.MinCost))

	app := fiber.New()
	web.RegisterRoutes(app, web.NewAPIHandlers(boardService, feedbackService, links, validator.New(validator.WithRequiredStructEnabled())))

	return app
}

func TestIntegration_BoardLifecycle(t *testing.T) {
	app := setupPostgresApp(t)

	board := createBoard(t, app)
	result := dropModule(t, app, board.ID, "video-kyc")

	resp, body := doRequest(t, app, http.MethodGet, "/boards/"+board.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stored models.Board
	require.NoError(t, json.Unmarshal(body, &stored))
	require.Len(t, stored.Flow.Nodes, 2)
	assert.Equal(t, result.Node.ID, stored.Flow.Nodes[1].ID)

	data, ok := stored.Flow.Nodes[1].Data.(*models.ModuleData)
	require.True(t, ok)
	assert.Equal(t, "video-kyc", data.ModuleType)

	resp, _ = doRequest(t, app, http.MethodPost, "/boards/"+board.ID+"/view-mode/toggle", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doRequest(t, app, http.MethodGet, "/boards/"+board.ID+"/flow", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var f models.Flow
	require.NoError(t, json.Unmarshal(body, &f))
	assert.Equal(t, models.ViewModeTech, f.ViewMode)
	assert.Len(t, f.Edges, 1)

	resp, _ = doRequest(t, app, http.MethodDelete, "/boards/"+board.ID, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doRequest(t, app, http.MethodGet, "/boards/"+board.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestIntegration_ShareLinks(t *testing.T) {
	app := setupPostgresApp(t)

	board := createBoard(t, app)
	dropModule(t, app, board.ID, "video-kyc")

	resp, body := doRequest(t, app, http.MethodPost, "/boards/"+board.ID+"/links", web.CreateAccessLinkRequest{Role: models.AccessRoleEditor})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var created web.CreateAccessLinkResponse
	require.NoError(t, json.Unmarshal(body, &created))

	resp, body = doRequest(t, app, http.MethodGet, "/public/links/"+created.LinkID+"/board?token="+created.Password, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var shared web.PublicBoardResponse
	require.NoError(t, json.Unmarshal(body, &shared))
	assert.Equal(t, models.AccessRoleEditor, shared.Role)
	assert.Len(t, shared.Board.Flow.Nodes, 2)

	resp, _ = doRequest(t, app, http.MethodDelete, "/boards/"+board.ID+"/links/"+created.LinkID, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doRequest(t, app, http.MethodPost, "/public/links/"+created.LinkID+"/verify", web.VerifyAccessLinkRequest{Password: created.Password})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
