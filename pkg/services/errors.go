// Package services provides the board and feedback operations behind the HTTP API.
package services

import (
	"errors"
	"fmt"

	"github.com/hypervision/hypervision/pkg/canvas"
	"github.com/hypervision/hypervision/pkg/export"
	"github.com/hypervision/hypervision/pkg/feedback"
	"github.com/hypervision/hypervision/pkg/persistence"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest     = errors.New("invalid request")
	ErrInvalidSortField   = persistence.ErrInvalidSortField
	ErrBoardNameRequired  = errors.New("board name is required")
	ErrEmptyOwnerID       = errors.New("owner ID cannot be empty")
	ErrNodeDataMismatch   = errors.New("node data does not match the node type")
	ErrInvalidFeedback    = feedback.ErrInvalidFeedback
	ErrInvalidFlowFile    = export.ErrInvalidDocument
	ErrUserIDRequired     = errors.New("user ID is required")
	ErrInvalidStatus      = errors.New("invalid feedback status")
	ErrCommentRequired    = errors.New("comment text is required")
	ErrInvalidCommentRole = errors.New("invalid comment role")
	ErrDuplicateID        = errors.New("id is already in use")
	ErrInvalidAccessRole  = errors.New("access role must be viewer or editor")
	ErrInvalidExpiry      = errors.New("expiry cannot be negative")
	ErrPasswordRequired   = errors.New("password is required")

	// Not Found Errors (404 Not Found).
	ErrBoardNotFound      = persistence.ErrBoardNotFound
	ErrNodeNotFound       = canvas.ErrNodeNotFound
	ErrEdgeNotFound       = errors.New("edge not found")
	ErrAccessLinkNotFound = persistence.ErrAccessLinkNotFound

	// Share Link Refusals (401 Unauthorized, 410 Gone).
	ErrInvalidLinkPassword = errors.New("invalid password")
	ErrAccessLinkExpired   = errors.New("link has expired")

	// Business Logic Conflicts (409 Conflict).
	ErrConfirmationRequired = errors.New("clearing the flow must be confirmed")

	// Unprocessable Errors (422 Unprocessable Entity).
	ErrEmptyFlow         = export.ErrEmptyFlow
	ErrFlowTooLarge      = export.ErrFlowTooLarge
	ErrStartNodeReserved = errors.New("start node is created by dropping the first module")

	// Upstream Errors (502/503).
	ErrFeedbackDeliveryFailed = errors.New("feedback endpoint refused the request")
	ErrFeedbackUnavailable    = feedback.ErrEndpointNotConfigured
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidSortField) ||
		errors.Is(err, ErrBoardNameRequired) ||
		errors.Is(err, ErrEmptyOwnerID) ||
		errors.Is(err, ErrNodeDataMismatch) ||
		errors.Is(err, ErrInvalidFeedback) ||
		errors.Is(err, ErrInvalidFlowFile) ||
		errors.Is(err, ErrUserIDRequired) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrCommentRequired) ||
		errors.Is(err, ErrInvalidCommentRole) ||
		errors.Is(err, ErrDuplicateID) ||
		errors.Is(err, ErrInvalidAccessRole) ||
		errors.Is(err, ErrInvalidExpiry) ||
		errors.Is(err, ErrPasswordRequired) ||
		errors.Is(err, canvas.ErrEmptyModuleType) ||
		errors.Is(err, canvas.ErrUnknownModule)
}

// IsNotFoundError checks if an error should return HTTP 404.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrBoardNotFound) ||
		errors.Is(err, ErrNodeNotFound) ||
		errors.Is(err, ErrEdgeNotFound) ||
		errors.Is(err, ErrAccessLinkNotFound)
}

// IsConflictError checks if an error is a business logic conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrConfirmationRequired)
}

// IsPolicyViolation checks if an error is a canvas rule refusal that should return HTTP 422.
func IsPolicyViolation(err error) bool {
	return canvas.IsPolicyViolation(err) ||
		errors.Is(err, ErrEmptyFlow) ||
		errors.Is(err, ErrFlowTooLarge) ||
		errors.Is(err, ErrStartNodeReserved)
}

// IsUnauthorized checks if an error is a refused share link password that should return HTTP 401.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrInvalidLinkPassword)
}

// IsGone checks if an error is an expired share link that should return HTTP 410.
func IsGone(err error) bool {
	return errors.Is(err, ErrAccessLinkExpired)
}

// IsUpstreamError checks if an error comes from the feedback endpoint.
func IsUpstreamError(err error) bool {
	return errors.Is(err, ErrFeedbackDeliveryFailed) ||
		errors.Is(err, ErrFeedbackUnavailable)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
