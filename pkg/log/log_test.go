package log

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetup(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	tests := []struct {
		level   string
		enabled slog.Level
	}{
		{level: "debug", enabled: slog.LevelDebug},
		{level: "warn", enabled: slog.LevelWarn},
		{level: "error", enabled: slog.LevelError},
		{level: "bogus", enabled: slog.LevelInfo},
	}

	for _, tt := range tests {
		Setup(tt.level)

		handler := slog.Default().Handler()
		assert.True(t, handler.Enabled(context.Background(), tt.enabled), tt.level)
		assert.False(t, handler.Enabled(context.Background(), tt.enabled-1), tt.level)
	}

	assert.NotNil(t, WithModule("canvas"))
}

func TestNew(t *testing.T) {
	var out strings.Builder

	logger := New(&out, "WARNING")
	logger.Info("hidden")
	logger.Warn("shown", "board_id", "b-1")

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "board_id=b-1")
}
