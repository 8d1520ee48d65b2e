// Package file provides file-based persistence for boards.
package file

import (
	"context"
	"os"
	"strings"

	"github.com/hypervision/hypervision/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root      string
	boardRepo *BoardRepository
	linkRepo  *AccessLinkRepository
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) persistence.Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:      cleanRoot,
		boardRepo: NewBoardRepository(cleanRoot),
		linkRepo:  NewAccessLinkRepository(cleanRoot),
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// BoardRepository returns the board repository implementation for file persistence.
func (fp *Persistence) BoardRepository() persistence.BoardRepository {
	return fp.boardRepo
}

// AccessLinkRepository returns the share link repository implementation for file persistence.
func (fp *Persistence) AccessLinkRepository() persistence.AccessLinkRepository {
	return fp.linkRepo
}
