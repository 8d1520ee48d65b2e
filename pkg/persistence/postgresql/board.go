package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hypervision/hypervision/pkg/models"
	"github.com/hypervision/hypervision/pkg/persistence"
)

const selectBoards = `
	SELECT
		b.id
	  , b.name
	  , b.description
	  , b.owner
	  , b.created_at
	  , b.updated_at
	  , COALESCE(f.nodes, '[]')
	  , COALESCE(f.edges, '[]')
	  , COALESCE(f.view_mode, 'business')
	  , COALESCE(f.flow_inputs, '')
	  , COALESCE(f.flow_outputs, '')
	FROM boards b
	LEFT JOIN board_flows f ON f.board_id = b.id
`

// sortColumns maps the allowlisted sort fields to columns.
var sortColumns = map[string]string{
	persistence.SortByCreatedAt: "b.created_at",
	persistence.SortByUpdatedAt: "b.updated_at",
	persistence.SortByName:      "b.name",
}

// BoardRepository handles board-related database operations.
type BoardRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewBoardRepository creates a new board repository.
func NewBoardRepository(db *sql.DB, logger *slog.Logger) *BoardRepository {
	return &BoardRepository{db: db, logger: logger}
}

// List returns one page of boards.
func (r *BoardRepository) List(ctx context.Context, opts persistence.ListBoardsOptions) (*persistence.BoardListResult, error) {
	if err := opts.Normalize(); err != nil {
		return nil, err
	}

	var total int64

	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM boards WHERE deleted_at IS NULL AND ($1::text = '' OR owner = $1::text)",
		opts.OwnerID,
	).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("failed to count boards: %w", err)
	}

	direction := "DESC"
	if opts.SortOrder == persistence.SortAsc {
		direction = "ASC"
	}

	query := selectBoards + `
		WHERE b.deleted_at IS NULL AND ($1::text = '' OR b.owner = $1::text)
		ORDER BY ` + sortColumns[opts.SortBy] + " " + direction + `, b.id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, opts.OwnerID, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query boards: %w", err)
	}

	defer func(ctx context.Context, r *BoardRepository) {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}(ctx, r)

	boards := make([]*models.Board, 0, opts.Limit)

	for rows.Next() {
		board, err := r.scanBoard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan board: %w", err)
		}

		boards = append(boards, board)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating boards: %w", err)
	}

	return &persistence.BoardListResult{
		Boards:      boards,
		TotalCount:  total,
		HasNextPage: int64(opts.Offset+len(boards)) < total,
	}, nil
}

// GetByID returns a board and its flow.
func (r *BoardRepository) GetByID(ctx context.Context, id string) (*models.Board, error) {
	row := r.db.QueryRowContext(ctx, selectBoards+" WHERE b.id = $1 AND b.deleted_at IS NULL", id)

	board, err := r.scanBoard(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewBoardError("GetByID", id, persistence.ErrBoardNotFound)
		}

		return nil, fmt.Errorf("failed to scan board: %w", err)
	}

	return board, nil
}

// Save upserts the board and replaces its flow snapshot in one transaction.
func (r *BoardRepository) Save(ctx context.Context, board *models.Board) error {
	now := time.Now().UTC()

	if board.CreatedAt.IsZero() {
		board.CreatedAt = now
	}

	board.UpdatedAt = now

	if board.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate board ID: %w", err)
		}

		board.ID = id.String()
	}

	if board.Flow == nil {
		board.Flow = models.NewFlow()
	}

	nodesJSON, err := json.Marshal(nonNilNodes(board.Flow.Nodes))
	if err != nil {
		return fmt.Errorf("failed to marshal nodes: %w", err)
	}

	edgesJSON, err := json.Marshal(nonNilEdges(board.Flow.Edges))
	if err != nil {
		return fmt.Errorf("failed to marshal edges: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO boards (id, name, description, owner, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			owner = EXCLUDED.owner,
			updated_at = EXCLUDED.updated_at,
			deleted_at = NULL
	`,
		board.ID,
		board.Name,
		board.Description,
		board.Owner,
		board.CreatedAt,
		board.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save board: %w", err)
	}

	viewMode := board.Flow.ViewMode
	if viewMode == "" {
		viewMode = models.ViewModeBusiness
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO board_flows (board_id, nodes, edges, view_mode, flow_inputs, flow_outputs, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (board_id) DO UPDATE SET
			nodes = EXCLUDED.nodes,
			edges = EXCLUDED.edges,
			view_mode = EXCLUDED.view_mode,
			flow_inputs = EXCLUDED.flow_inputs,
			flow_outputs = EXCLUDED.flow_outputs,
			updated_at = EXCLUDED.updated_at
	`,
		board.ID,
		nodesJSON,
		edgesJSON,
		viewMode,
		board.Flow.FlowInputs,
		board.Flow.FlowOutputs,
		board.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save board flow: %w", err)
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Delete soft deletes a board by setting its deleted_at timestamp.
func (r *BoardRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE boards SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL",
		id, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to delete board: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted board: %w", err)
	}

	if affected == 0 {
		return persistence.NewBoardError("Delete", id, persistence.ErrBoardNotFound)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *BoardRepository) scanBoard(row scanner) (*models.Board, error) {
	var (
		board     models.Board
		flow      = models.NewFlow()
		nodesJSON []byte
		edgesJSON []byte
		viewMode  string
	)

	err := row.Scan(
		&board.ID,
		&board.Name,
		&board.Description,
		&board.Owner,
		&board.CreatedAt,
		&board.UpdatedAt,
		&nodesJSON,
		&edgesJSON,
		&viewMode,
		&flow.FlowInputs,
		&flow.FlowOutputs,
	)
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(nodesJSON, &flow.Nodes)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal nodes of board %s: %w", board.ID, err)
	}

	err = json.Unmarshal(edgesJSON, &flow.Edges)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal edges of board %s: %w", board.ID, err)
	}

	flow.ViewMode = models.ViewMode(viewMode)
	board.Flow = flow

	return &board, nil
}

func nonNilNodes(nodes []*models.Node) []*models.Node {
	if nodes == nil {
		return []*models.Node{}
	}

	return nodes
}

func nonNilEdges(edges []*models.Edge) []*models.Edge {
	if edges == nil {
		return []*models.Edge{}
	}

	return edges
}
