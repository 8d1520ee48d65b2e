package feedback

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
)

const (
	actionAddFeedback          = "addFeedback"
	actionUpdateStatus         = "updateStatus"
	actionAddComment           = "addComment"
	actionMarkNotificationRead = "markNotificationRead"
	actionDismissNotification  = "dismissNotification"
	actionGetAllFeedback       = "getAllFeedback"
	actionGetFeedbackByUser    = "getFeedbackByUser"
	actionGetFeedbackByStatus  = "getFeedbackByStatus"
	actionGetNotifications     = "getNotifications"
)

var (
	ErrEndpointNotConfigured = errors.New("feedback endpoint is not configured")
	ErrUnexpectedStatus      = errors.New("unexpected response status from feedback endpoint")
)

// Delivery tells how far a write is known to have got.
type Delivery string

const (
	// DeliveryNone means the request could not be sent.
	DeliveryNone Delivery = ""
	// DeliveryDispatched means the request was sent; the response was not inspected.
	DeliveryDispatched Delivery = "dispatched"
	// DeliveryAcknowledged means the endpoint answered with a success status.
	DeliveryAcknowledged Delivery = "acknowledged"
)

// Result is the outcome of a write. Writes are sent at most once.
type Result struct {
	Success  bool     `json:"success"`
	Message  string   `json:"message"`
	ID       string   `json:"id,omitempty"`
	Delivery Delivery `json:"delivery,omitempty"`
}

// Client calls the spreadsheet endpoint.
type Client struct {
	endpoint    string
	acknowledge bool
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewClient creates a client for cfg.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		endpoint:    cfg.APIURL,
		acknowledge: cfg.Acknowledge,
		httpClient: &http.Client{
			Transport:     nil,
			CheckRedirect: nil,
			Jar:           nil,
			Timeout:       cfg.Timeout,
		},
		logger: logger.With("module", "feedback_client"),
	}
}

// Enabled reports whether an endpoint is configured.
func (c *Client) Enabled() bool {
	return c.endpoint != ""
}

// HealthCheck reports the client configuration.
func (c *Client) HealthCheck() (string, bool) {
	if !c.Enabled() {
		return "Feedback endpoint not configured", false
	}

	return "Feedback endpoint configured", true
}

// AddFeedback stores a new report.
func (c *Client) AddFeedback(ctx context.Context, fb *Feedback) Result {
	result := c.post(ctx, map[string]any{
		"action":   actionAddFeedback,
		"feedback": fb,
	}, "Feedback submitted successfully", "Failed to submit feedback")
	if result.Success {
		result.ID = fb.ID
	}

	return result
}

// UpdateStatus moves a report to status. An empty reason is derived from the status.
func (c *Client) UpdateStatus(ctx context.Context, id string, status Status, changedBy, reason string) Result {
	if reason == "" {
		reason = "Status changed to " + string(status)
	}

	return c.post(ctx, map[string]any{
		"action":    actionUpdateStatus,
		"id":        id,
		"status":    status,
		"changedBy": changedBy,
		"reason":    reason,
	}, "Status updated successfully", "Failed to update status")
}

// AddComment attaches a comment to a report. The comment id is generated when empty.
func (c *Client) AddComment(ctx context.Context, comment Comment) Result {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}

	result := c.post(ctx, map[string]any{
		"action":  actionAddComment,
		"comment": comment,
	}, "Comment added successfully", "Failed to add comment")
	if result.Success {
		result.ID = comment.ID
	}

	return result
}

// MarkNotificationRead flags a notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) Result {
	return c.post(ctx, map[string]any{
		"action": actionMarkNotificationRead,
		"id":     id,
	}, "Notification marked as read", "Failed to mark as read")
}

// DismissNotification hides a notification.
func (c *Client) DismissNotification(ctx context.Context, id string) Result {
	return c.post(ctx, map[string]any{
		"action": actionDismissNotification,
		"id":     id,
	}, "Notification dismissed", "Failed to dismiss notification")
}

// AllFeedback lists every report.
func (c *Client) AllFeedback(ctx context.Context) ([]Feedback, error) {
	var reports []Feedback

	err := c.get(ctx, url.Values{"action": {actionGetAllFeedback}}, &reports)

	return reports, err
}

// FeedbackByUser lists the reports of a user.
func (c *Client) FeedbackByUser(ctx context.Context, userID string) ([]Feedback, error) {
	var reports []Feedback

	err := c.get(ctx, url.Values{"action": {actionGetFeedbackByUser}, "userId": {userID}}, &reports)

	return reports, err
}

// FeedbackByStatus lists the reports in a status.
func (c *Client) FeedbackByStatus(ctx context.Context, status Status) ([]Feedback, error) {
	var reports []Feedback

	err := c.get(ctx, url.Values{"action": {actionGetFeedbackByStatus}, "status": {string(status)}}, &reports)

	return reports, err
}

// Notifications lists the notifications of a user.
func (c *Client) Notifications(ctx context.Context, userID string, unreadOnly bool) ([]Notification, error) {
	var notifications []Notification

	err := c.get(ctx, url.Values{
		"action":     {actionGetNotifications},
		"userId":     {userID},
		"unreadOnly": {strconv.FormatBool(unreadOnly)},
	}, &notifications)

	return notifications, err
}

func (c *Client) post(ctx context.Context, payload map[string]any, successMessage, failureMessage string) Result {
	action, _ := payload["action"].(string)
	logger := c.logger.With("action", action)

	fail := func(err error) Result {
		logger.ErrorContext(ctx, "Feedback request failed", "error", err)

		message := failureMessage
		if err != nil {
			message = err.Error()
		}

		return Result{Success: false, Message: message}
	}

	if !c.Enabled() {
		return fail(ErrEndpointNotConfigured)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fail(fmt.Errorf("failed to encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fail(fmt.Errorf("failed to build request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fail(err)
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.ErrorContext(ctx, "failed to close response body", "error", err)
		}
	}()

	if !c.acknowledge {
		logger.DebugContext(ctx, "Feedback request dispatched")

		return Result{Success: true, Message: successMessage, Delivery: DeliveryDispatched}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fail(fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode))
	}

	result := Result{Success: true, Message: successMessage, Delivery: DeliveryAcknowledged}

	// The script may answer with its own {success, message} verdict.
	var verdict struct {
		Success *bool  `json:"success"`
		Message string `json:"message"`
	}

	raw, err := io.ReadAll(resp.Body)
	if err == nil && json.Unmarshal(raw, &verdict) == nil && verdict.Success != nil && !*verdict.Success {
		result.Success = false
		result.Message = verdict.Message

		if result.Message == "" {
			result.Message = failureMessage
		}
	}

	logger.DebugContext(ctx, "Feedback request acknowledged", "success", result.Success)

	return result
}

func (c *Client) get(ctx context.Context, query url.Values, out any) error {
	if !c.Enabled() {
		return ErrEndpointNotConfigured
	}

	endpoint, err := url.Parse(c.endpoint)
	if err != nil {
		return fmt.Errorf("invalid feedback endpoint: %w", err)
	}

	merged := endpoint.Query()
	for key, values := range query {
		merged[key] = values
	}

	endpoint.RawQuery = merged.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("feedback request failed: %w", err)
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.ErrorContext(ctx, "failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode feedback response: %w", err)
	}

	return nil
}
