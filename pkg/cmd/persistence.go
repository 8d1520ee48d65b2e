package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hypervision/hypervision/pkg/persistence"
	"github.com/hypervision/hypervision/pkg/persistence/file"
	"github.com/hypervision/hypervision/pkg/persistence/postgresql"
	"github.com/hypervision/hypervision/pkg/persistence/redis"
)

// NewPersistence picks the backend from the scheme of databaseURL. URLs without
// a known scheme are treated as file system paths.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch parsePersistenceProvider(databaseURL) {
	case "postgres", "postgresql":
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres persistence: %w", err)
		}

		return p, nil
	case "redis", "rediss":
		p, err := redis.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open redis persistence: %w", err)
		}

		return p, nil
	default:
		return file.NewPersistence(databaseURL), nil
	}
}

func parsePersistenceProvider(databaseURL string) string {
	scheme, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return scheme
}
