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

// AccessLinkRepository stores each link as a JSON string at {prefix}:link:{id}
// and indexes the links of a board in the set {prefix}:board:{boardID}:links.
type AccessLinkRepository struct {
	client goredis.UniversalClient
	logger *slog.Logger
	prefix string
}

func NewAccessLinkRepository(client goredis.UniversalClient, logger *slog.Logger, prefix string) *AccessLinkRepository {
	return &AccessLinkRepository{client: client, logger: logger, prefix: prefix}
}

func (r *AccessLinkRepository) Create(ctx context.Context, link *models.AccessLink) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate access link ID: %w", err)
	}

	link.ID = id.String()
	link.CreatedAt = time.Now().UTC()

	data, err := json.Marshal(link)
	if err != nil {
		return fmt.Errorf("failed to marshal access link %s: %w", link.ID, err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, r.linkKey(link.ID), data, 0)
		pipe.SAdd(ctx, r.boardLinksKey(link.BoardID), link.ID)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save access link %s: %w", link.ID, err)
	}

	return nil
}

func (r *AccessLinkRepository) GetByID(ctx context.Context, id string) (*models.AccessLink, error) {
	raw, err := r.client.Get(ctx, r.linkKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, fmt.Errorf("%w: %s", persistence.ErrAccessLinkNotFound, id)
		}

		return nil, fmt.Errorf("failed to fetch access link %s: %w", id, err)
	}

	return decodeAccessLink(id, raw)
}

func (r *AccessLinkRepository) ListByBoard(ctx context.Context, boardID string) ([]*models.AccessLink, error) {
	ids, err := r.client.SMembers(ctx, r.boardLinksKey(boardID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list access link ids: %w", err)
	}

	links := make([]*models.AccessLink, 0, len(ids))
	if len(ids) == 0 {
		return links, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, r.linkKey(id))
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load access links: %w", err)
	}

	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			r.logger.WarnContext(ctx, "Access link missing from index", "board_id", boardID, "link_id", ids[i])

			continue
		}

		link, err := decodeAccessLink(ids[i], []byte(raw))
		if err != nil {
			return nil, err
		}

		links = append(links, link)
	}

	persistence.SortAccessLinks(links)

	return links, nil
}

func (r *AccessLinkRepository) Delete(ctx context.Context, boardID, id string) error {
	member, err := r.client.SIsMember(ctx, r.boardLinksKey(boardID), id).Result()
	if err != nil {
		return fmt.Errorf("failed to check access link %s: %w", id, err)
	}

	if !member {
		return fmt.Errorf("%w: %s on board %s", persistence.ErrAccessLinkNotFound, id, boardID)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, r.linkKey(id))
		pipe.SRem(ctx, r.boardLinksKey(boardID), id)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete access link %s: %w", id, err)
	}

	return nil
}

func (r *AccessLinkRepository) linkKey(id string) string {
	return r.prefix + ":link:" + id
}

func (r *AccessLinkRepository) boardLinksKey(boardID string) string {
	return r.prefix + ":board:" + boardID + ":links"
}

func decodeAccessLink(id string, raw []byte) (*models.AccessLink, error) {
	var link models.AccessLink

	err := json.Unmarshal(raw, &link)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal access link %s: %w", id, err)
	}

	return &link, nil
}
