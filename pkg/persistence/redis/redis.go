// Package redis provides Redis persistence for boards.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hypervision/hypervision/pkg/persistence"
	goredis "github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "hypervision"

// Persistence implements the persistence layer on top of a Redis server.
type Persistence struct {
	client    goredis.UniversalClient
	logger    *slog.Logger
	boardRepo *BoardRepository
	linkRepo  *AccessLinkRepository
}

// NewPersistence connects to the server at redisURL (redis://[:password@]host:port/db).
func NewPersistence(ctx context.Context, logger *slog.Logger, redisURL string) (*Persistence, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = client.Ping(pingCtx).Err()
	if err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.InfoContext(ctx, "Connected to Redis", "addr", opts.Addr, "db", opts.DB)

	return NewPersistenceWithClient(client, logger, defaultKeyPrefix), nil
}

// NewPersistenceWithClient wraps an existing client. Keys are namespaced by prefix.
func NewPersistenceWithClient(client goredis.UniversalClient, logger *slog.Logger, prefix string) *Persistence {
	return &Persistence{
		client:    client,
		logger:    logger,
		boardRepo: NewBoardRepository(client, logger, prefix),
		linkRepo:  NewAccessLinkRepository(client, logger, prefix),
	}
}

// Close closes the client.
func (p *Persistence) Close(_ context.Context) error {
	err := p.client.Close()
	if err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}

	return nil
}

// HealthCheck pings the server.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

// BoardRepository returns the board repository.
func (p *Persistence) BoardRepository() persistence.BoardRepository {
	return p.boardRepo
}

// AccessLinkRepository returns the share link repository.
func (p *Persistence) AccessLinkRepository() persistence.AccessLinkRepository {
	return p.linkRepo
}
