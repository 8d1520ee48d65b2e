package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/hypervision/hypervision/pkg/catalog"
	"github.com/hypervision/hypervision/pkg/cmd"
	"github.com/hypervision/hypervision/pkg/eventbus"
	"github.com/hypervision/hypervision/pkg/feedback"
	"github.com/hypervision/hypervision/pkg/flow"
	"github.com/hypervision/hypervision/pkg/persistence/file"
	"github.com/hypervision/hypervision/pkg/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T, publisher eventbus.EventPublisher) *fiber.App {
	t.Helper()

	persistence := file.NewPersistence(t.TempDir())
	boards := services.NewBoard(persistence, catalog.Default(), publisher, &flow.SequenceGenerator{}, nil, slog.Default())
	feedbackService := services.NewFeedback(feedback.NewClient(feedback.DefaultConfig(""), nil), nil)

	return NewAPI(slog.Default(), boards, feedbackService, services.NewAccessLinks(persistence, nil)).App()
}

func get(t *testing.T, app *fiber.App, path string) (int, string) {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, string(body)
}

func TestAPI_RootEndpoint(t *testing.T) {
	app := setupTestApp(t, nil)

	status, body := get(t, app, "/")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Hypervision API", body)
}

func TestAPI_HealthEndpoints(t *testing.T) {
	app := setupTestApp(t, nil)

	for _, path := range []string{"/livez", "/readyz"} {
		status, body := get(t, app, path)
		assert.Equal(t, http.StatusOK, status, path)
		assert.Equal(t, "OK", body, path)
	}

	status, body := get(t, app, "/health")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"status":"healthy"`)
}

func TestAPI_GetBoards_Empty(t *testing.T) {
	app := setupTestApp(t, nil)

	status, body := get(t, app, "/boards")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"total_count":0`)
}

func TestAPI_RecoversFromPanics(t *testing.T) {
	app := setupTestApp(t, nil)
	app.Get("/explode", func(fiber.Ctx) error {
		panic("renderer exploded")
	})

	status, _ := get(t, app, "/explode")
	assert.Equal(t, http.StatusInternalServerError, status)

	status, _ = get(t, app, "/livez")
	assert.Equal(t, http.StatusOK, status)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func TestAPI_ActivityLog(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	var output syncBuffer

	logger := slog.New(slog.NewTextHandler(&output, nil))

	bus, err := cmd.NewEventBus(cmd.EventBusGoChannel, nil, logger)
	require.NoError(t, err)

	defer func() { _ = bus.Close() }()

	require.NoError(t, subscribeActivityLog(ctx, bus, logger))

	app := setupTestApp(t, bus)

	req := httptest.NewRequest(http.MethodPost, "/boards", strings.NewReader(`{"name":"KYC onboarding","owner":"owner-1"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	assert.Eventually(t, func() bool {
		return strings.Contains(output.String(), "event_type=board.created")
	}, 5*time.Second, 20*time.Millisecond)
}
