package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hypervision/hypervision/pkg/models"
	"github.com/hypervision/hypervision/pkg/otelhelper"
	"github.com/hypervision/hypervision/pkg/persistence"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"
)

const (
	// LinkPasswordLength is the length of generated share link passwords.
	LinkPasswordLength = 12
	// DefaultShareBaseURL is the editor frontend that share URLs point to.
	DefaultShareBaseURL = "http://localhost:5173"
)

// AccessLinks creates and checks password protected share links to boards.
type AccessLinks struct {
	persistence  persistence.Persistence
	shareBaseURL string
	cost         int
	tracer       trace.Tracer
	logger       *slog.Logger
	now          func() time.Time
}

// AccessLinksOption configures optional settings of the share link service.
type AccessLinksOption func(*AccessLinks)

// WithShareBaseURL sets the frontend URL that share URLs are built on.
func WithShareBaseURL(baseURL string) AccessLinksOption {
	return func(s *AccessLinks) {
		if baseURL != "" {
			s.shareBaseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHashCost overrides the bcrypt cost used for link passwords.
func WithHashCost(cost int) AccessLinksOption {
	return func(s *AccessLinks) {
		s.cost = cost
	}
}

// WithLinkTracer traces link creation and verification.
func WithLinkTracer(tracer trace.Tracer) AccessLinksOption {
	return func(s *AccessLinks) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

func NewAccessLinks(p persistence.Persistence, logger *slog.Logger, opts ...AccessLinksOption) *AccessLinks {
	if logger == nil {
		logger = slog.Default()
	}

	s := &AccessLinks{
		persistence:  p,
		shareBaseURL: DefaultShareBaseURL,
		cost:         bcrypt.DefaultCost,
		tracer:       otelhelper.NoopTracer(),
		logger:       logger.With("module", "access_links_service"),
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// CreateAccessLinkRequest describes a new share link. An empty role grants
// viewer access; nil or zero ExpiresInHours never expires.
type CreateAccessLinkRequest struct {
	Role           models.AccessRole
	ExpiresInHours *int
}

// CreatedAccessLink carries the only copy of the plain text password.
type CreatedAccessLink struct {
	Link     *models.AccessLink
	Password string
	ShareURL string
}

// Create generates a password for a new link to the board and stores its hash.
func (s *AccessLinks) Create(ctx context.Context, boardID string, req CreateAccessLinkRequest) (*CreatedAccessLink, error) {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "access_link.create", attribute.String(otelhelper.BoardIDKey, boardID))
	defer span.End()

	role := req.Role
	if role == "" {
		role = models.AccessRoleViewer
	}

	if !role.Valid() {
		return nil, NewValidationError("CreateAccessLink", "INVALID_ROLE", "", fmt.Errorf("%w: %s", ErrInvalidAccessRole, role))
	}

	var expiresAt *time.Time

	if req.ExpiresInHours != nil {
		hours := *req.ExpiresInHours
		if hours < 0 {
			return nil, NewValidationError("CreateAccessLink", "INVALID_EXPIRY", "", ErrInvalidExpiry)
		}

		if hours > 0 {
			expires := s.now().UTC().Add(time.Duration(hours) * time.Hour)
			expiresAt = &expires
		}
	}

	if _, err := s.persistence.BoardRepository().GetByID(ctx, boardID); err != nil {
		return nil, fmt.Errorf("failed to get board: %w", err)
	}

	password, err := GenerateLinkPassword(LinkPasswordLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate password: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	link := &models.AccessLink{
		BoardID:      boardID,
		Role:         role,
		PasswordHash: string(hash),
		ExpiresAt:    expiresAt,
	}

	err = s.persistence.AccessLinkRepository().Create(ctx, link)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to create access link: %w", err)
	}

	span.SetAttributes(attribute.String(otelhelper.AccessLinkIDKey, link.ID), attribute.String(otelhelper.AccessRoleKey, string(role)))
	s.logger.InfoContext(ctx, "Created access link", "board_id", boardID, "link_id", link.ID, "role", role)

	return &CreatedAccessLink{
		Link:     link,
		Password: password,
		ShareURL: s.ShareURL(link.ID),
	}, nil
}

// ShareURL returns the frontend address of a link.
func (s *AccessLinks) ShareURL(linkID string) string {
	return s.shareBaseURL + "/share/" + linkID
}

// List returns the links of a board, oldest first.
func (s *AccessLinks) List(ctx context.Context, boardID string) ([]*models.AccessLink, error) {
	if _, err := s.persistence.BoardRepository().GetByID(ctx, boardID); err != nil {
		return nil, fmt.Errorf("failed to get board: %w", err)
	}

	links, err := s.persistence.AccessLinkRepository().ListByBoard(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list access links: %w", err)
	}

	return links, nil
}

// Revoke deletes a link of the board.
func (s *AccessLinks) Revoke(ctx context.Context, boardID, linkID string) error {
	err := s.persistence.AccessLinkRepository().Delete(ctx, boardID, linkID)
	if err != nil {
		return fmt.Errorf("failed to revoke access link: %w", err)
	}

	s.logger.InfoContext(ctx, "Revoked access link", "board_id", boardID, "link_id", linkID)

	return nil
}

// Verify checks password against the link. Expired links are refused before
// the password is compared.
func (s *AccessLinks) Verify(ctx context.Context, linkID, password string) (*models.AccessLink, error) {
	if password == "" {
		return nil, NewValidationError("VerifyAccessLink", "PASSWORD_REQUIRED", "", ErrPasswordRequired)
	}

	return s.authorize(ctx, linkID, password)
}

// PublicBoard returns the board behind a link for a holder of its password.
func (s *AccessLinks) PublicBoard(ctx context.Context, linkID, token string) (*models.Board, models.AccessRole, error) {
	if token == "" {
		return nil, "", fmt.Errorf("%w: token is required", ErrInvalidLinkPassword)
	}

	link, err := s.authorize(ctx, linkID, token)
	if err != nil {
		return nil, "", err
	}

	board, err := s.persistence.BoardRepository().GetByID(ctx, link.BoardID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get shared board: %w", err)
	}

	return board, link.Role, nil
}

func (s *AccessLinks) authorize(ctx context.Context, linkID, password string) (*models.AccessLink, error) {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "access_link.verify", attribute.String(otelhelper.AccessLinkIDKey, linkID))
	defer span.End()

	link, err := s.persistence.AccessLinkRepository().GetByID(ctx, linkID)
	if err != nil {
		return nil, fmt.Errorf("failed to get access link: %w", err)
	}

	if link.Expired(s.now()) {
		return nil, fmt.Errorf("%w: %s", ErrAccessLinkExpired, linkID)
	}

	err = bcrypt.CompareHashAndPassword([]byte(link.PasswordHash), []byte(password))
	if err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			s.logger.WarnContext(ctx, "Unreadable access link hash", "link_id", linkID, "error", err)
		}

		return nil, fmt.Errorf("%w: link %s", ErrInvalidLinkPassword, linkID)
	}

	return link, nil
}

// GenerateLinkPassword returns length URL safe characters drawn from crypto/rand.
func GenerateLinkPassword(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(buf)[:length], nil
}
