// Package persistence provides the storage abstraction for boards.
package persistence

import (
	"context"

	"github.com/hypervision/hypervision/pkg/models"
)

// Persistence is a storage backend.
type Persistence interface {
	BoardRepository() BoardRepository
	AccessLinkRepository() AccessLinkRepository
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}

// BoardRepository stores boards together with their flows.
type BoardRepository interface {
	// List returns the boards matching opts.
	List(ctx context.Context, opts ListBoardsOptions) (*BoardListResult, error)
	// GetByID returns ErrBoardNotFound when no board has the id.
	GetByID(ctx context.Context, id string) (*models.Board, error)
	// Save creates or replaces a board, stamping its timestamps.
	Save(ctx context.Context, board *models.Board) error
	// Delete returns ErrBoardNotFound when no board has the id.
	Delete(ctx context.Context, id string) error
}

// AccessLinkRepository stores the share links of boards.
type AccessLinkRepository interface {
	// Create stores a new link, assigning its ID and CreatedAt.
	Create(ctx context.Context, link *models.AccessLink) error
	// GetByID returns ErrAccessLinkNotFound when no link has the id.
	GetByID(ctx context.Context, id string) (*models.AccessLink, error)
	// ListByBoard returns the links of a board, oldest first.
	ListByBoard(ctx context.Context, boardID string) ([]*models.AccessLink, error)
	// Delete returns ErrAccessLinkNotFound when the board has no link with the id.
	Delete(ctx context.Context, boardID, id string) error
}
