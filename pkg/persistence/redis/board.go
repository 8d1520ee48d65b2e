package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hypervision/hypervision/pkg/models"
	"github.com/hypervision/hypervision/pkg/persistence"
	goredis "github.com/redis/go-redis/v9"
)

// BoardRepository stores each board as a JSON string at {prefix}:board:{id}
// and indexes board ids in the set {prefix}:boards.
type BoardRepository struct {
	client goredis.UniversalClient
	logger *slog.Logger
	prefix string
}

// NewBoardRepository creates a new board repository.
func NewBoardRepository(client goredis.UniversalClient, logger *slog.Logger, prefix string) *BoardRepository {
	return &BoardRepository{client: client, logger: logger, prefix: prefix}
}

// List loads every indexed board and pages them in memory.
func (r *BoardRepository) List(ctx context.Context, opts persistence.ListBoardsOptions) (*persistence.BoardListResult, error) {
	ids, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list board ids: %w", err)
	}

	boards := make([]*models.Board, 0, len(ids))

	if len(ids) > 0 {
		keys := make([]string, 0, len(ids))
		for _, id := range ids {
			keys = append(keys, r.boardKey(id))
		}

		values, err := r.client.MGet(ctx, keys...).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to load boards: %w", err)
		}

		for i, value := range values {
			raw, ok := value.(string)
			if !ok {
				// Indexed but gone; the index is repaired on the next delete.
				r.logger.WarnContext(ctx, "Board missing from index", "board_id", ids[i])

				continue
			}

			board, err := decodeBoard(ids[i], []byte(raw))
			if err != nil {
				return nil, err
			}

			boards = append(boards, board)
		}
	}

	return persistence.PaginateBoards(boards, opts)
}

// GetByID returns a board.
func (r *BoardRepository) GetByID(ctx context.Context, id string) (*models.Board, error) {
	raw, err := r.client.Get(ctx, r.boardKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, persistence.NewBoardError("GetByID", id, persistence.ErrBoardNotFound)
		}

		return nil, fmt.Errorf("failed to fetch board %s: %w", id, err)
	}

	return decodeBoard(id, raw)
}

// Save writes the board and indexes it atomically.
func (r *BoardRepository) Save(ctx context.Context, board *models.Board) error {
	if board.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate board ID: %w", err)
		}

		board.ID = id.String()
	}

	now := time.Now().UTC()
	if board.CreatedAt.IsZero() {
		board.CreatedAt = now
	}

	board.UpdatedAt = now

	if board.Flow == nil {
		board.Flow = models.NewFlow()
	}

	data, err := json.Marshal(board)
	if err != nil {
		return fmt.Errorf("failed to marshal board %s: %w", board.ID, err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, r.boardKey(board.ID), data, 0)
		pipe.SAdd(ctx, r.indexKey(), board.ID)

		return nil
	})
	if err != nil {
		return persistence.NewBoardError("Save", board.ID, err)
	}

	return nil
}

// Delete removes the board and its index entry.
func (r *BoardRepository) Delete(ctx context.Context, id string) error {
	var deleted *goredis.IntCmd

	_, err := r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		deleted = pipe.Del(ctx, r.boardKey(id))
		pipe.SRem(ctx, r.indexKey(), id)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete board %s: %w", id, err)
	}

	if deleted.Val() == 0 {
		return persistence.NewBoardError("Delete", id, persistence.ErrBoardNotFound)
	}

	return nil
}

func (r *BoardRepository) boardKey(id string) string {
	return r.prefix + ":board:" + id
}

func (r *BoardRepository) indexKey() string {
	return r.prefix + ":boards"
}

func decodeBoard(id string, raw []byte) (*models.Board, error) {
	var board models.Board

	err := json.Unmarshal(raw, &board)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal board %s: %w", id, err)
	}

	if board.Flow == nil {
		board.Flow = models.NewFlow()
	}

	return &board, nil
}
