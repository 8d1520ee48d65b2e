// Package web provides HTTP handlers and REST API endpoints for board management.
package web

import (
	"time"

	"github.com/hypervision/hypervision/pkg/feedback"
	"github.com/hypervision/hypervision/pkg/models"
)

// CreateBoardRequest represents the request body for creating a new board.
type CreateBoardRequest struct {
	Name        string `json:"name"        validate:"required,min=3"`
	Description string `json:"description"`
	Owner       string `json:"owner"       validate:"required"`
}

// UpdateBoardRequest represents the request body for updating an existing board.
// All fields are optional to support partial updates.
type UpdateBoardRequest struct {
	Name        *string `json:"name,omitempty"        validate:"omitempty,min=3"`
	Description *string `json:"description,omitempty"`
}

// DropRequest represents a palette item released on the canvas.
type DropRequest struct {
	ModuleType string          `json:"moduleType" validate:"required"`
	Position   models.Position `json:"position"`
}

// NoteRequest represents a note added from the pane context menu.
type NoteRequest struct {
	Position models.Position `json:"position"`
}

// NodeChangesRequest represents a batch of node changes emitted by the canvas.
type NodeChangesRequest struct {
	Changes []models.NodeChange `json:"changes" validate:"required,dive"`
}

// EdgeChangesRequest represents a batch of edge changes emitted by the canvas.
type EdgeChangesRequest struct {
	Changes []models.EdgeChange `json:"changes" validate:"required,dive"`
}

// EdgeRequest represents the request body for adding an edge.
type EdgeRequest struct {
	ID           string `json:"id,omitempty"`
	Source       string `json:"source"                 validate:"required"`
	Target       string `json:"target"                 validate:"required"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
	Type         string `json:"type,omitempty"`
}

// FlowIORequest represents the flow input and output descriptors. Omitted fields are kept.
type FlowIORequest struct {
	FlowInputs  *string `json:"flowInputs,omitempty"`
	FlowOutputs *string `json:"flowOutputs,omitempty"`
}

// ViewModeResponse represents the view mode after a toggle.
type ViewModeResponse struct {
	ViewMode models.ViewMode `json:"viewMode"`
}

// SubmitFeedbackRequest represents a feedback report sent from the editor.
type SubmitFeedbackRequest struct {
	FeedbackText      string               `json:"feedbackText"                validate:"required"`
	FeedbackType      feedback.Type        `json:"feedbackType"                validate:"required,oneof=bug feature improvement question"`
	Priority          feedback.Priority    `json:"priority,omitempty"          validate:"omitempty,oneof=low medium high critical"`
	ScreenshotBase64  string               `json:"screenshotBase64,omitempty"`
	User              feedback.User        `json:"user"`
	Element           *feedback.Element    `json:"element,omitempty"`
	Environment       feedback.Environment `json:"environment"`
	Context           map[string]any       `json:"context,omitempty"`
	BoardID           string               `json:"boardId,omitempty"`
	CaptureScreenshot bool                 `json:"captureScreenshot,omitempty"`
}

// Submission converts the request into a feedback submission.
func (r SubmitFeedbackRequest) Submission() feedback.Submission {
	return feedback.Submission{
		Text:             r.FeedbackText,
		Type:             r.FeedbackType,
		Priority:         r.Priority,
		ScreenshotBase64: r.ScreenshotBase64,
		User:             r.User,
		Element:          r.Element,
		Environment:      r.Environment,
		Context:          r.Context,
	}
}

// UpdateStatusRequest represents a triage status change.
type UpdateStatusRequest struct {
	Status    feedback.Status `json:"status"           validate:"required"`
	ChangedBy string          `json:"changedBy"        validate:"required"`
	Reason    string          `json:"reason,omitempty"`
}

// CommentRequest represents a comment attached to a report.
type CommentRequest struct {
	UserID     string        `json:"userId"             validate:"required"`
	UserRole   feedback.Role `json:"userRole,omitempty"`
	Comment    string        `json:"comment"            validate:"required"`
	IsInternal bool          `json:"isInternal"`
}

// CreateAccessLinkRequest represents a new share link. ExpiresIn counts hours; omitted or zero never expires.
type CreateAccessLinkRequest struct {
	Role      models.AccessRole `json:"role,omitempty"      validate:"omitempty,oneof=viewer editor"`
	ExpiresIn *int              `json:"expiresIn,omitempty" validate:"omitempty,min=0"`
}

// CreateAccessLinkResponse is the only response that carries the link password.
type CreateAccessLinkResponse struct {
	LinkID    string     `json:"linkId"`
	Password  string     `json:"password"`
	ExpiresAt *time.Time `json:"expiresAt"`
	ShareURL  string     `json:"shareUrl"`
}

// AccessLinkResponse describes a share link without its password hash.
type AccessLinkResponse struct {
	ID        string            `json:"id"`
	BoardID   string            `json:"board_id"`
	Role      models.AccessRole `json:"role"`
	ExpiresAt *time.Time        `json:"expires_at"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewAccessLinkResponse drops the password hash from link.
func NewAccessLinkResponse(link *models.AccessLink) AccessLinkResponse {
	return AccessLinkResponse{
		ID:        link.ID,
		BoardID:   link.BoardID,
		Role:      link.Role,
		ExpiresAt: link.ExpiresAt,
		CreatedAt: link.CreatedAt,
	}
}

// VerifyAccessLinkRequest carries the password typed on the share page.
type VerifyAccessLinkRequest struct {
	Password string `json:"password"`
}

// VerifyAccessLinkResponse names the board and role a verified password unlocks.
type VerifyAccessLinkResponse struct {
	BoardID string            `json:"boardId"`
	Role    models.AccessRole `json:"role"`
}

// PublicBoardResponse is the board served to share link holders.
type PublicBoardResponse struct {
	Board *models.Board     `json:"board"`
	Role  models.AccessRole `json:"role"`
}
