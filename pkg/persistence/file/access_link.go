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

// AccessLinkRepository keeps one JSON file per share link under {root}/links.
type AccessLinkRepository struct {
	root string
	mu   sync.RWMutex
}

func NewAccessLinkRepository(root string) *AccessLinkRepository {
	return &AccessLinkRepository{root: root}
}

func (r *AccessLinkRepository) Create(_ context.Context, link *models.AccessLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := os.MkdirAll(r.dir(), 0750)
	if err != nil {
		return fmt.Errorf("failed to create links directory: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate access link ID: %w", err)
	}

	link.ID = id.String()
	link.CreatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(link, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal access link %s: %w", link.ID, err)
	}

	err = os.WriteFile(r.path(link.ID), data, 0600)
	if err != nil {
		return fmt.Errorf("failed to write access link %s: %w", link.ID, err)
	}

	return nil
}

func (r *AccessLinkRepository) GetByID(_ context.Context, id string) (*models.AccessLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.read(id)
}

// ListByBoard scans every link file; links are few per installation.
func (r *AccessLinkRepository) ListByBoard(_ context.Context, boardID string) ([]*models.AccessLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	jsonFiles, err := fs.Glob(os.DirFS(r.dir()), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list access link files: %w", err)
	}

	links := make([]*models.AccessLink, 0)

	for _, file := range jsonFiles {
		link, err := r.read(strings.TrimSuffix(file, ".json"))
		if err != nil {
			return nil, err
		}

		if link.BoardID == boardID {
			links = append(links, link)
		}
	}

	persistence.SortAccessLinks(links)

	return links, nil
}

func (r *AccessLinkRepository) Delete(_ context.Context, boardID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	link, err := r.read(id)
	if err != nil {
		return err
	}

	if link.BoardID != boardID {
		return fmt.Errorf("%w: %s on board %s", persistence.ErrAccessLinkNotFound, id, boardID)
	}

	err = os.Remove(r.path(id))
	if err != nil {
		return fmt.Errorf("failed to delete access link %s: %w", id, err)
	}

	return nil
}

func (r *AccessLinkRepository) read(id string) (*models.AccessLink, error) {
	body, err := os.ReadFile(r.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", persistence.ErrAccessLinkNotFound, id)
		}

		return nil, fmt.Errorf("failed to fetch access link %s: %w", id, err)
	}

	var link models.AccessLink

	err = json.Unmarshal(body, &link)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal access link %s: %w", id, err)
	}

	return &link, nil
}

func (r *AccessLinkRepository) dir() string {
	return path.Join(r.root, "links")
}

func (r *AccessLinkRepository) path(id string) string {
	return filepath.Join(r.dir(), filepath.Base(filepath.Clean("/"+id))+".json")
}
