package mocks

import (
	"context"

	"github.com/hypervision/hypervision/pkg/models"
	"github.com/hypervision/hypervision/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockBoardRepository is a mock implementation of persistence.BoardRepository interface.
type MockBoardRepository struct {
	mock.Mock
}

var _ persistence.BoardRepository = (*MockBoardRepository)(nil)

func (m *MockBoardRepository) List(ctx context.Context, opts persistence.ListBoardsOptions) (*persistence.BoardListResult, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*persistence.BoardListResult), args.Error(1)
}

func (m *MockBoardRepository) GetByID(ctx context.Context, id string) (*models.Board, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Board), args.Error(1)
}

func (m *MockBoardRepository) Save(ctx context.Context, board *models.Board) error {
	args := m.Called(ctx, board)

	return args.Error(0)
}

func (m *MockBoardRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

// MockAccessLinkRepository is a mock implementation of persistence.AccessLinkRepository interface.
type MockAccessLinkRepository struct {
	mock.Mock
}

var _ persistence.AccessLinkRepository = (*MockAccessLinkRepository)(nil)

func (m *MockAccessLinkRepository) Create(ctx context.Context, link *models.AccessLink) error {
	args := m.Called(ctx, link)

	return args.Error(0)
}

func (m *MockAccessLinkRepository) GetByID(ctx context.Context, id string) (*models.AccessLink, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.AccessLink), args.Error(1)
}

func (m *MockAccessLinkRepository) ListByBoard(ctx context.Context, boardID string) ([]*models.AccessLink, error) {
	args := m.Called(ctx, boardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.AccessLink), args.Error(1)
}

func (m *MockAccessLinkRepository) Delete(ctx context.Context, boardID, id string) error {
	args := m.Called(ctx, boardID, id)

	return args.Error(0)
}

// MockPersistence is a mock implementation of persistence.Persistence interface.
type MockPersistence struct {
	mock.Mock

	Boards *MockBoardRepository
	Links  *MockAccessLinkRepository
}

var _ persistence.Persistence = (*MockPersistence)(nil)

// NewMockPersistence returns a mock with fresh repository mocks.
func NewMockPersistence() *MockPersistence {
	return &MockPersistence{Boards: &MockBoardRepository{}, Links: &MockAccessLinkRepository{}}
}

func (m *MockPersistence) BoardRepository() persistence.BoardRepository {
	return m.Boards
}

func (m *MockPersistence) AccessLinkRepository() persistence.AccessLinkRepository {
	return m.Links
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
