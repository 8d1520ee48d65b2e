package persistence

import (
	"fmt"
	"sort"

	"github.com/hypervision/hypervision/pkg/models"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100

	SortByCreatedAt = "created_at"
	SortByUpdatedAt = "updated_at"
	SortByName      = "name"

	SortAsc  = "asc"
	SortDesc = "desc"
)

// ListBoardsOptions filters, sorts and paginates board listings.
type ListBoardsOptions struct {
	OwnerID   string
	Limit     int
	Offset    int
	SortBy    string
	SortOrder string
}

// BoardListResult is one page of boards.
type BoardListResult struct {
	Boards      []*models.Board `json:"boards"`
	TotalCount  int64           `json:"total_count"`
	HasNextPage bool            `json:"has_next_page"`
}

// Normalize applies defaults and rejects sort fields outside the allowlist.
func (o *ListBoardsOptions) Normalize() error {
	if o.Limit <= 0 || o.Limit > MaxListLimit {
		o.Limit = DefaultListLimit
	}

	if o.Offset < 0 {
		o.Offset = 0
	}

	if o.SortBy == "" {
		o.SortBy = SortByCreatedAt
	}

	if o.SortOrder == "" {
		o.SortOrder = SortDesc
	}

	switch o.SortBy {
	case SortByCreatedAt, SortByUpdatedAt, SortByName:
	default:
		return fmt.Errorf("%w: %s", ErrInvalidSortField, o.SortBy)
	}

	if o.SortOrder != SortAsc && o.SortOrder != SortDesc {
		return fmt.Errorf("%w: order %s", ErrInvalidSortField, o.SortOrder)
	}

	return nil
}

// PaginateBoards filters, sorts and pages an in-memory board set.
// Backends without query support list through it.
func PaginateBoards(boards []*models.Board, opts ListBoardsOptions) (*BoardListResult, error) {
	if err := opts.Normalize(); err != nil {
		return nil, err
	}

	filtered := make([]*models.Board, 0, len(boards))

	for _, board := range boards {
		if opts.OwnerID != "" && board.Owner != opts.OwnerID {
			continue
		}

		filtered = append(filtered, board)
	}

	sortBoards(filtered, opts.SortBy, opts.SortOrder)

	total := len(filtered)
	if opts.Offset >= total {
		return &BoardListResult{
			Boards:      make([]*models.Board, 0),
			TotalCount:  int64(total),
			HasNextPage: false,
		}, nil
	}

	end := min(opts.Offset+opts.Limit, total)

	return &BoardListResult{
		Boards:      filtered[opts.Offset:end],
		TotalCount:  int64(total),
		HasNextPage: end < total,
	}, nil
}

func sortBoards(boards []*models.Board, sortBy, sortOrder string) {
	sort.SliceStable(boards, func(i, j int) bool {
		a, b := boards[i], boards[j]
		if sortOrder == SortDesc {
			a, b = b, a
		}

		switch sortBy {
		case SortByUpdatedAt:
			return a.UpdatedAt.Before(b.UpdatedAt)
		case SortByName:
			return a.Name < b.Name
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	})
}

// SortAccessLinks orders links oldest first, breaking ties by id.
func SortAccessLinks(links []*models.AccessLink) {
	sort.SliceStable(links, func(i, j int) bool {
		if links[i].CreatedAt.Equal(links[j].CreatedAt) {
			return links[i].ID < links[j].ID
		}

		return links[i].CreatedAt.Before(links[j].CreatedAt)
	})
}
