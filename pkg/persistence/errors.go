package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrBoardNotFound indicates a board was not found by the given identifier.
	ErrBoardNotFound = errors.New("board not found")

	// ErrAccessLinkNotFound indicates a share link was not found by the given identifier.
	ErrAccessLinkNotFound = errors.New("access link not found")

	// ErrInvalidSortField indicates a list was requested with an unsupported sort field.
	ErrInvalidSortField = errors.New("invalid sort field")
)

// BoardError wraps board-related errors with additional context.
type BoardError struct {
	Op      string // Operation being performed (e.g., "GetByID", "Save", "Delete")
	BoardID string
	Err     error
}

func (e *BoardError) Error() string {
	return fmt.Sprintf("%s operation failed for board %s: %v", e.Op, e.BoardID, e.Err)
}

func (e *BoardError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for board errors.
func (e *BoardError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewBoardError creates a new board error with context.
func NewBoardError(op, boardID string, err error) *BoardError {
	return &BoardError{
		Op:      op,
		BoardID: boardID,
		Err:     err,
	}
}

// IsBoardNotFound checks if an error indicates a board was not found.
func IsBoardNotFound(err error) bool {
	return errors.Is(err, ErrBoardNotFound)
}

// IsAccessLinkNotFound checks if an error indicates a share link was not found.
func IsAccessLinkNotFound(err error) bool {
	return errors.Is(err, ErrAccessLinkNotFound)
}
