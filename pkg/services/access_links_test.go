package services

import (
	"errors"
	"testing"
	"time"

	"github.com/hypervision/hypervision/pkg/mocks"
	"github.com/hypervision/hypervision/pkg/models"
	"github.com/hypervision/hypervision/pkg/persistence"
	"github.com/hypervision/hypervision/pkg/persistence/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var linkClock = time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

func newTestAccessLinks(t *testing.T) (*AccessLinks, *models.Board) {
	t.Helper()

	p := file.NewPersistence(t.TempDir())
	board := &models.Board{Name: "KYC onboarding", Owner: "owner-1"}
	require.NoError(t, p.BoardRepository().Save(t.Context(), board))

	service := NewAccessLinks(p, nil, WithShareBaseURL("https://editor.example.com/"), WithHashCost(bcrypt.MinCost))
	service.now = func() time.Time { return linkClock }

	return service, board
}

func hours(n int) *int {
	return &n
}

func TestAccessLinks_Create(t *testing.T) {
	service, board := newTestAccessLinks(t)

	created, err := service.Create(t.Context(), board.ID, CreateAccessLinkRequest{})
	require.NoError(t, err)

	assert.Len(t, created.Password, LinkPasswordLength)
	assert.Equal(t, models.AccessRoleViewer, created.Link.Role)
	assert.Nil(t, created.Link.ExpiresAt)
	assert.Equal(t, "https://editor.example.com/share/"+created.Link.ID, created.ShareURL)
	assert.NotEqual(t, created.Password, created.Link.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.Link.PasswordHash), []byte(created.Password)))

	editor, err := service.Create(t.Context(), board.ID, CreateAccessLinkRequest{Role: models.AccessRoleEditor, ExpiresInHours: hours(48)})
	require.NoError(t, err)
	assert.Equal(t, models.AccessRoleEditor, editor.Link.Role)
	require.NotNil(t, editor.Link.ExpiresAt)
	assert.Equal(t, linkClock.Add(48*time.Hour), *editor.Link.ExpiresAt)
	assert.NotEqual(t, created.Password, editor.Password)

	never, err := service.Create(t.Context(), board.ID, CreateAccessLinkRequest{ExpiresInHours: hours(0)})
	require.NoError(t, err)
	assert.Nil(t, never.Link.ExpiresAt)
}

func TestAccessLinks_CreateRejected(t *testing.T) {
	service, board := newTestAccessLinks(t)

	tests := []struct {
		name    string
		boardID string
		req     CreateAccessLinkRequest
		want    error
	}{
		{name: "unknown role", boardID: board.ID, req: CreateAccessLinkRequest{Role: "owner"}, want: ErrInvalidAccessRole},
		{name: "negative expiry", boardID: board.ID, req: CreateAccessLinkRequest{ExpiresInHours: hours(-1)}, want: ErrInvalidExpiry},
		{name: "missing board", boardID: "missing", req: CreateAccessLinkRequest{}, want: ErrBoardNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Create(t.Context(), tt.boardID, tt.req)
			require.ErrorIs(t, err, tt.want)
		})
	}

	assert.True(t, IsValidationError(ErrInvalidAccessRole))
	assert.True(t, IsNotFoundError(ErrAccessLinkNotFound))
}

func TestAccessLinks_ListAndRevoke(t *testing.T) {
	service, board := newTestAccessLinks(t)

	links, err := service.List(t.Context(), board.ID)
	require.NoError(t, err)
	assert.Empty(t, links)

	first, err := service.Create(t.Context(), board.ID, CreateAccessLinkRequest{})
	require.NoError(t, err)

	second, err := service.Create(t.Context(), board.ID, CreateAccessLinkRequest{Role: models.AccessRoleEditor})
	require.NoError(t, err)

	links, err = service.List(t.Context(), board.ID)
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, first.Link.ID, links[0].ID)
	assert.Equal(t, second.Link.ID, links[1].ID)

	_, err = service.List(t.Context(), "missing")
	require.ErrorIs(t, err, ErrBoardNotFound)

	err = service.Revoke(t.Context(), "other-board", first.Link.ID)
	require.ErrorIs(t, err, ErrAccessLinkNotFound)

	require.NoError(t, service.Revoke(t.Context(), board.ID, first.Link.ID))

	_, err = service.Verify(t.Context(), first.Link.ID, first.Password)
	require.ErrorIs(t, err, ErrAccessLinkNotFound)

	links, err = service.List(t.Context(), board.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
}

func TestAccessLinks_Verify(t *testing.T) {
	service, board := newTestAccessLinks(t)

	created, err := service.Create(t.Context(), board.ID, CreateAccessLinkRequest{Role: models.AccessRoleEditor, ExpiresInHours: hours(1)})
	require.NoError(t, err)

	link, err := service.Verify(t.Context(), created.Link.ID, created.Password)
	require.NoError(t, err)
	assert.Equal(t, board.ID, link.BoardID)
	assert.Equal(t, models.AccessRoleEditor, link.Role)

	_, err = service.Verify(t.Context(), created.Link.ID, "")
	require.ErrorIs(t, err, ErrPasswordRequired)
	assert.True(t, IsValidationError(err))

	_, err = service.Verify(t.Context(), created.Link.ID, created.Password+"x")
	require.ErrorIs(t, err, ErrInvalidLinkPassword)
	assert.True(t, IsUnauthorized(err))

	_, err = service.Verify(t.Context(), "missing", created.Password)
	require.ErrorIs(t, err, ErrAccessLinkNotFound)

	service.now = func() time.Time { return linkClock.Add(61 * time.Minute) }

	_, err = service.Verify(t.Context(), created.Link.ID, created.Password)
	require.ErrorIs(t, err, ErrAccessLinkExpired)
	assert.True(t, IsGone(err))

	_, err = service.Verify(t.Context(), created.Link.ID, "wrong")
	require.ErrorIs(t, err, ErrAccessLinkExpired)
}

func TestAccessLinks_PublicBoard(t *testing.T) {
	service, board := newTestAccessLinks(t)

	created, err := service.Create(t.Context(), board.ID, CreateAccessLinkRequest{})
	require.NoError(t, err)

	shared, role, err := service.PublicBoard(t.Context(), created.Link.ID, created.Password)
	require.NoError(t, err)
	assert.Equal(t, board.ID, shared.ID)
	assert.Equal(t, models.AccessRoleViewer, role)
	assert.NotNil(t, shared.Flow)

	_, _, err = service.PublicBoard(t.Context(), created.Link.ID, "")
	require.ErrorIs(t, err, ErrInvalidLinkPassword)

	_, _, err = service.PublicBoard(t.Context(), created.Link.ID, "not-the-password")
	require.ErrorIs(t, err, ErrInvalidLinkPassword)

	require.NoError(t, service.persistence.BoardRepository().Delete(t.Context(), board.ID))

	_, _, err = service.PublicBoard(t.Context(), created.Link.ID, created.Password)
	require.ErrorIs(t, err, ErrBoardNotFound)
}

func TestAccessLinks_StorageFailure(t *testing.T) {
	p := mocks.NewMockPersistence()
	p.Boards.On("GetByID", mock.Anything, "board-1").Return(&models.Board{ID: "board-1"}, nil)
	p.Links.On("Create", mock.Anything, mock.Anything).Return(errors.New("disk full"))
	p.Links.On("GetByID", mock.Anything, "link-1").Return(nil, persistence.ErrAccessLinkNotFound)

	service := NewAccessLinks(p, nil, WithHashCost(bcrypt.MinCost))

	_, err := service.Create(t.Context(), "board-1", CreateAccessLinkRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.False(t, IsValidationError(err))

	_, err = service.Verify(t.Context(), "link-1", "secret")
	require.ErrorIs(t, err, ErrAccessLinkNotFound)

	p.Links.AssertExpectations(t)
}

func TestGenerateLinkPassword(t *testing.T) {
	seen := make(map[string]bool)

	for range 20 {
		password, err := GenerateLinkPassword(LinkPasswordLength)
		require.NoError(t, err)
		assert.Len(t, password, LinkPasswordLength)
		assert.Regexp(t, `^[A-Za-z0-9_-]+$`, password)
		assert.False(t, seen[password])

		seen[password] = true
	}
}
