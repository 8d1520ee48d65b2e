package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hypervision/hypervision/pkg/models"
	"github.com/hypervision/hypervision/pkg/persistence"
)

const selectAccessLinks = `
	SELECT id, board_id, role, password_hash, expires_at, created_at
	FROM board_access_links
`

// AccessLinkRepository handles share link database operations.
type AccessLinkRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewAccessLinkRepository(db *sql.DB, logger *slog.Logger) *AccessLinkRepository {
	return &AccessLinkRepository{db: db, logger: logger}
}

func (r *AccessLinkRepository) Create(ctx context.Context, link *models.AccessLink) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate access link ID: %w", err)
	}

	link.ID = id.String()
	link.CreatedAt = time.Now().UTC()

	var expiresAt sql.NullTime
	if link.ExpiresAt != nil {
		expiresAt = sql.NullTime{Time: *link.ExpiresAt, Valid: true}
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO board_access_links (id, board_id, role, password_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		link.ID,
		link.BoardID,
		string(link.Role),
		link.PasswordHash,
		expiresAt,
		link.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save access link: %w", err)
	}

	return nil
}

func (r *AccessLinkRepository) GetByID(ctx context.Context, id string) (*models.AccessLink, error) {
	link, err := scanAccessLink(r.db.QueryRowContext(ctx, selectAccessLinks+" WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", persistence.ErrAccessLinkNotFound, id)
		}

		return nil, fmt.Errorf("failed to scan access link: %w", err)
	}

	return link, nil
}

func (r *AccessLinkRepository) ListByBoard(ctx context.Context, boardID string) ([]*models.AccessLink, error) {
	rows, err := r.db.QueryContext(ctx, selectAccessLinks+" WHERE board_id = $1 ORDER BY created_at, id", boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to query access links: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	links := make([]*models.AccessLink, 0)

	for rows.Next() {
		link, err := scanAccessLink(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan access link: %w", err)
		}

		links = append(links, link)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating access links: %w", err)
	}

	return links, nil
}

func (r *AccessLinkRepository) Delete(ctx context.Context, boardID, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM board_access_links WHERE id = $1 AND board_id = $2", id, boardID)
	if err != nil {
		return fmt.Errorf("failed to delete access link: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted access link: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("%w: %s on board %s", persistence.ErrAccessLinkNotFound, id, boardID)
	}

	return nil
}

func scanAccessLink(row scanner) (*models.AccessLink, error) {
	var (
		link      models.AccessLink
		role      string
		expiresAt sql.NullTime
	)

	err := row.Scan(&link.ID, &link.BoardID, &role, &link.PasswordHash, &expiresAt, &link.CreatedAt)
	if err != nil {
		return nil, err
	}

	link.Role = models.AccessRole(role)

	if expiresAt.Valid {
		expires := expiresAt.Time.UTC()
		link.ExpiresAt = &expires
	}

	link.CreatedAt = link.CreatedAt.UTC()

	return &link, nil
}
