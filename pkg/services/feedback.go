package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"maps"
	"strings"

	"github.com/hypervision/hypervision/pkg/eventbus"
	"github.com/hypervision/hypervision/pkg/events"
	"github.com/hypervision/hypervision/pkg/export"
	"github.com/hypervision/hypervision/pkg/feedback"
	"github.com/hypervision/hypervision/pkg/otelhelper"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Feedback submits user reports to the feedback endpoint and manages their triage.
type Feedback struct {
	client     *feedback.Client
	boards     *Board
	screenshot export.ScreenshotOptions
	publisher  eventbus.EventPublisher
	poller     *feedback.Poller
	tracer     trace.Tracer
	logger     *slog.Logger
}

// FeedbackOption configures optional collaborators of the feedback service.
type FeedbackOption func(*Feedback)

// WithBoards enables screenshots of boards attached to reports.
func WithBoards(boards *Board, settings feedback.ScreenshotSettings) FeedbackOption {
	return func(f *Feedback) {
		f.boards = boards
		f.screenshot = ScreenshotOptions(settings)
	}
}

// WithPoller registers the authors of reports for notification polling.
func WithPoller(poller *feedback.Poller) FeedbackOption {
	return func(f *Feedback) {
		f.poller = poller
	}
}

// WithPublisher publishes feedback.submitted events.
func WithPublisher(publisher eventbus.EventPublisher) FeedbackOption {
	return func(f *Feedback) {
		f.publisher = publisher
	}
}

// WithTracer traces feedback submissions.
func WithTracer(tracer trace.Tracer) FeedbackOption {
	return func(f *Feedback) {
		f.tracer = tracer
	}
}

// NewFeedback creates a new feedback service.
func NewFeedback(client *feedback.Client, logger *slog.Logger, opts ...FeedbackOption) *Feedback {
	if logger == nil {
		logger = slog.Default()
	}

	f := &Feedback{
		client: client,
		tracer: otelhelper.NoopTracer(),
		logger: logger.With("module", "feedback_service"),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// ScreenshotOptions converts the feedback screenshot settings to render options.
func ScreenshotOptions(settings feedback.ScreenshotSettings) export.ScreenshotOptions {
	return export.ScreenshotOptions{
		Quality:   settings.Quality,
		Scale:     settings.Scale,
		Format:    settings.Format,
		MaxWidth:  settings.MaxWidth,
		MaxHeight: settings.MaxHeight,
	}
}

// HealthCheck reports whether the feedback endpoint is configured.
func (f *Feedback) HealthCheck() (string, bool) {
	return f.client.HealthCheck()
}

// SubmitFeedbackRequest is a report together with the board it is about.
type SubmitFeedbackRequest struct {
	Submission feedback.Submission
	// BoardID optionally names the board the report refers to.
	BoardID string
	// CaptureScreenshot attaches a rendering of the board when no screenshot was sent.
	CaptureScreenshot bool
}

// Submit validates and sends a report.
func (f *Feedback) Submit(ctx context.Context, req SubmitFeedbackRequest) (*feedback.Result, error) {
	ctx, span := otelhelper.StartSpan(ctx, f.tracer, "feedback.submit",
		attribute.String(otelhelper.UserIDKey, req.Submission.User.ID),
		attribute.String(otelhelper.FeedbackTypeKey, string(req.Submission.Type)),
	)
	defer span.End()

	if !f.client.Enabled() {
		return nil, ErrFeedbackUnavailable
	}

	sub := req.Submission
	if req.BoardID != "" {
		sub.Context = maps.Clone(sub.Context)
		if sub.Context == nil {
			sub.Context = map[string]any{}
		}

		sub.Context["boardId"] = req.BoardID
	}

	report := feedback.NewFeedback(sub)

	err := feedback.Validate(report)
	if err != nil {
		return nil, err
	}

	if req.CaptureScreenshot && report.ScreenshotBase64 == "" && req.BoardID != "" {
		report.ScreenshotBase64 = f.captureScreenshot(ctx, req.BoardID)
	}

	span.SetAttributes(attribute.String(otelhelper.FeedbackIDKey, report.ID))

	result := f.client.AddFeedback(ctx, report)
	if !result.Success {
		err = &ServiceError{Op: "Submit", Code: "FEEDBACK_DELIVERY_FAILED", Message: result.Message, Err: ErrFeedbackDeliveryFailed}
		otelhelper.SetError(span, err)

		return nil, err
	}

	span.SetAttributes(attribute.String(otelhelper.DeliveryKey, string(result.Delivery)))
	f.logger.InfoContext(ctx, "Feedback submitted", "feedback_id", report.ID, "delivery", result.Delivery)

	if f.poller != nil {
		f.poller.Watch(report.UserID)
	}

	if f.publisher != nil {
		err = f.publisher.Publish(ctx, report.ID, events.FeedbackSubmitted{
			BaseEvent:    events.NewBaseEvent(events.FeedbackSubmittedEvent, req.BoardID),
			FeedbackID:   report.ID,
			FeedbackType: string(report.FeedbackType),
			UserID:       report.UserID,
			Delivery:     string(result.Delivery),
		})
		if err != nil {
			f.logger.ErrorContext(ctx, "Failed to publish event", "feedback_id", report.ID, "error", err)
		}
	}

	return &result, nil
}

// captureScreenshot renders the board as a data URL. Failures leave the report without one.
func (f *Feedback) captureScreenshot(ctx context.Context, boardID string) string {
	if f.boards == nil {
		return ""
	}

	image, err := f.boards.Screenshot(ctx, boardID, f.screenshot)
	if err != nil {
		f.logger.WarnContext(ctx, "Failed to capture board screenshot", "board_id", boardID, "error", err)

		return ""
	}

	mime := "image/jpeg"
	if f.screenshot.Format == export.FormatPNG {
		mime = "image/png"
	}

	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(image)
}

// ListFeedbackRequest filters the reports to list. UserID takes precedence over Status.
type ListFeedbackRequest struct {
	UserID string
	Status feedback.Status
}

// List returns reports from the endpoint.
func (f *Feedback) List(ctx context.Context, req ListFeedbackRequest) ([]feedback.Feedback, error) {
	var (
		reports []feedback.Feedback
		err     error
	)

	switch {
	case req.UserID != "":
		reports, err = f.client.FeedbackByUser(ctx, req.UserID)
	case req.Status != "":
		if !req.Status.Valid() {
			return nil, NewValidationError("List", "INVALID_STATUS", "", ErrInvalidStatus)
		}

		reports, err = f.client.FeedbackByStatus(ctx, req.Status)
	default:
		reports, err = f.client.AllFeedback(ctx)
	}

	if err != nil {
		return nil, upstreamError("List", err)
	}

	if reports == nil {
		reports = []feedback.Feedback{}
	}

	return reports, nil
}

// UpdateStatus moves a report to a new triage status.
func (f *Feedback) UpdateStatus(ctx context.Context, id string, status feedback.Status, changedBy, reason string) (*feedback.Result, error) {
	if !status.Valid() {
		return nil, NewValidationError("UpdateStatus", "INVALID_STATUS", "", ErrInvalidStatus)
	}

	if changedBy == "" {
		return nil, NewValidationError("UpdateStatus", "USER_ID_REQUIRED", "", ErrUserIDRequired)
	}

	return f.write("UpdateStatus", f.client.UpdateStatus(ctx, id, status, changedBy, reason))
}

// AddComment attaches a comment to a report.
func (f *Feedback) AddComment(ctx context.Context, comment feedback.Comment) (*feedback.Result, error) {
	if strings.TrimSpace(comment.Comment) == "" {
		return nil, NewValidationError("AddComment", "COMMENT_REQUIRED", "", ErrCommentRequired)
	}

	if comment.UserID == "" {
		return nil, NewValidationError("AddComment", "USER_ID_REQUIRED", "", ErrUserIDRequired)
	}

	if comment.UserRole == "" {
		comment.UserRole = feedback.RoleUser
	}

	if !comment.UserRole.Valid() {
		return nil, NewValidationError("AddComment", "INVALID_ROLE", "", ErrInvalidCommentRole)
	}

	return f.write("AddComment", f.client.AddComment(ctx, comment))
}

// Notifications lists a user's notifications and starts polling them.
func (f *Feedback) Notifications(ctx context.Context, userID string, unreadOnly bool) ([]feedback.Notification, error) {
	if userID == "" {
		return nil, NewValidationError("Notifications", "USER_ID_REQUIRED", "", ErrUserIDRequired)
	}

	notifications, err := f.client.Notifications(ctx, userID, unreadOnly)
	if err != nil {
		return nil, upstreamError("Notifications", err)
	}

	if f.poller != nil {
		f.poller.Watch(userID)
	}

	if notifications == nil {
		notifications = []feedback.Notification{}
	}

	return notifications, nil
}

// MarkNotificationRead flags a notification as read.
func (f *Feedback) MarkNotificationRead(ctx context.Context, id string) (*feedback.Result, error) {
	return f.write("MarkNotificationRead", f.client.MarkNotificationRead(ctx, id))
}

// DismissNotification hides a notification.
func (f *Feedback) DismissNotification(ctx context.Context, id string) (*feedback.Result, error) {
	return f.write("DismissNotification", f.client.DismissNotification(ctx, id))
}

func (f *Feedback) write(op string, result feedback.Result) (*feedback.Result, error) {
	if !f.client.Enabled() {
		return nil, ErrFeedbackUnavailable
	}

	if !result.Success {
		return nil, &ServiceError{Op: op, Code: "FEEDBACK_DELIVERY_FAILED", Message: result.Message, Err: ErrFeedbackDeliveryFailed}
	}

	return &result, nil
}

func upstreamError(op string, err error) error {
	if IsUpstreamError(err) {
		return err
	}

	return &ServiceError{Op: op, Code: "FEEDBACK_DELIVERY_FAILED", Message: err.Error(), Err: fmt.Errorf("%w: %w", ErrFeedbackDeliveryFailed, err)}
}
