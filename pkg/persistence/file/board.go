package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hypervision/hypervision/pkg/models"
	"github.com/hypervision/hypervision/pkg/persistence"
)

// BoardRepository keeps one JSON file per board under {root}/boards.
type BoardRepository struct {
	root string
	mu   sync.RWMutex
}

// NewBoardRepository creates a new board repository.
func NewBoardRepository(root string) *BoardRepository {
	return &BoardRepository{root: root}
}

// List returns paginated and filtered boards with in-memory operations.
func (br *BoardRepository) List(_ context.Context, opts persistence.ListBoardsOptions) (*persistence.BoardListResult, error) {
	br.mu.RLock()
	defer br.mu.RUnlock()

	jsonFiles, err := fs.Glob(os.DirFS(br.dir()), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list board files: %w", err)
	}

	boards := make([]*models.Board, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		board, err := br.read(strings.TrimSuffix(file, ".json"))
		if err != nil {
			return nil, err
		}

		boards = append(boards, board)
	}

	return persistence.PaginateBoards(boards, opts)
}

// GetByID retrieves a board by its ID from the file system.
func (br *BoardRepository) GetByID(_ context.Context, id string) (*models.Board, error) {
	br.mu.RLock()
	defer br.mu.RUnlock()

	return br.read(id)
}

// Save writes a board to the file system.
func (br *BoardRepository) Save(_ context.Context, board *models.Board) error {
	br.mu.Lock()
	defer br.mu.Unlock()

	err := os.MkdirAll(br.dir(), 0750)
	if err != nil {
		return fmt.Errorf("failed to create boards directory: %w", err)
	}

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

	data, err := json.MarshalIndent(board, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal board %s: %w", board.ID, err)
	}

	err = os.WriteFile(br.path(board.ID), data, 0600)
	if err != nil {
		return persistence.NewBoardError("Save", board.ID, err)
	}

	return nil
}

// Delete removes a board by its ID.
func (br *BoardRepository) Delete(_ context.Context, id string) error {
	br.mu.Lock()
	defer br.mu.Unlock()

	err := os.Remove(br.path(id))
	if err != nil && os.IsNotExist(err) {
		return persistence.NewBoardError("Delete", id, persistence.ErrBoardNotFound)
	}

	if err != nil {
		return fmt.Errorf("failed to delete board %s: %w", id, err)
	}

	return nil
}

func (br *BoardRepository) read(id string) (*models.Board, error) {
	body, err := os.ReadFile(br.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewBoardError("GetByID", id, persistence.ErrBoardNotFound)
		}

		return nil, fmt.Errorf("failed to fetch board %s: %w", id, err)
	}

	var board models.Board

	err = json.Unmarshal(body, &board)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal board %s: %w", id, err)
	}

	if board.Flow == nil {
		board.Flow = models.NewFlow()
	}

	return &board, nil
}

func (br *BoardRepository) dir() string {
	return path.Join(br.root, "boards")
}

// path keeps ids from escaping the boards directory.
func (br *BoardRepository) path(id string) string {
	return filepath.Join(br.dir(), filepath.Base(filepath.Clean("/"+id))+".json")
}
