package feedback

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Feedback is a report as stored in the spreadsheet. Timestamps are kept as the
// sheet formats them.
type Feedback struct {
	ID               string   `json:"id"`
	UserID           string   `json:"userId"`
	UserEmail        string   `json:"userEmail"`
	UserName         string   `json:"userName"`
	FeedbackText     string   `json:"feedbackText"`
	FeedbackType     Type     `json:"feedbackType"`
	Status           Status   `json:"status,omitempty"`
	Priority         Priority `json:"priority,omitempty"`
	ScreenshotBase64 string   `json:"screenshotBase64,omitempty"`
	ScreenshotURL    string   `json:"screenshotUrl,omitempty"`
	ElementSelector  string   `json:"elementSelector,omitempty"`
	ElementXPath     string   `json:"elementXPath,omitempty"`
	ElementText      string   `json:"elementText,omitempty"`
	ElementHTML      string   `json:"elementHtml,omitempty"`
	PageURL          string   `json:"pageUrl"`
	PageTitle        string   `json:"pageTitle"`
	BrowserInfo      string   `json:"browserInfo"`
	ScreenResolution string   `json:"screenResolution"`
	ViewportSize     string   `json:"viewportSize"`
	DeviceType       string   `json:"deviceType"`
	OSInfo           string   `json:"osInfo"`
	ContextData      string   `json:"contextData,omitempty"`
	AssignedTo       string   `json:"assignedTo,omitempty"`
	CreatedAt        string   `json:"createdAt,omitempty"`
	UpdatedAt        string   `json:"updatedAt,omitempty"`
	ResolvedAt       string   `json:"resolvedAt,omitempty"`
	IsDeleted        bool     `json:"isDeleted,omitempty"`
}

// Comment is a remark attached to a report.
type Comment struct {
	ID         string `json:"id"`
	FeedbackID string `json:"feedbackId"`
	UserID     string `json:"userId"`
	UserRole   Role   `json:"userRole"`
	Comment    string `json:"comment"`
	IsInternal bool   `json:"isInternal"`
}

// Notification tells a user that one of their reports changed.
type Notification struct {
	ID         string `json:"id"`
	UserID     string `json:"userId"`
	FeedbackID string `json:"feedbackId,omitempty"`
	Type       string `json:"type,omitempty"`
	Message    string `json:"message"`
	IsRead     bool   `json:"isRead"`
	CreatedAt  string `json:"createdAt,omitempty"`
}

// User identifies the author of a report.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Element references the page element a report is about.
type Element struct {
	Selector string `json:"selector,omitempty"`
	XPath    string `json:"xpath,omitempty"`
	Text     string `json:"text,omitempty"`
	HTML     string `json:"html,omitempty"`
}

// Environment describes the browser the report was sent from.
type Environment struct {
	PageURL          string `json:"pageUrl"`
	PageTitle        string `json:"pageTitle"`
	UserAgent        string `json:"userAgent"`
	ScreenResolution string `json:"screenResolution"`
	ViewportWidth    int    `json:"viewportWidth"`
	ViewportHeight   int    `json:"viewportHeight"`
}

// Submission is what a user fills in when reporting.
type Submission struct {
	Text             string
	Type             Type
	Priority         Priority
	ScreenshotBase64 string
	User             User
	Element          *Element
	Environment      Environment
	Context          map[string]any
}

// NewFeedback builds a new report from a submission.
func NewFeedback(sub Submission) *Feedback {
	priority := sub.Priority
	if priority == "" {
		priority = PriorityMedium
	}

	fb := &Feedback{
		ID:               uuid.NewString(),
		UserID:           sub.User.ID,
		UserEmail:        sub.User.Email,
		UserName:         sub.User.Name,
		FeedbackText:     sub.Text,
		FeedbackType:     sub.Type,
		Status:           StatusNew,
		Priority:         priority,
		ScreenshotBase64: sub.ScreenshotBase64,
		PageURL:          sub.Environment.PageURL,
		PageTitle:        sub.Environment.PageTitle,
		BrowserInfo:      sub.Environment.UserAgent,
		ScreenResolution: sub.Environment.ScreenResolution,
		ViewportSize:     sizeString(sub.Environment.ViewportWidth, sub.Environment.ViewportHeight),
		DeviceType:       DeviceType(sub.Environment.ViewportWidth),
		OSInfo:           OSInfo(sub.Environment.UserAgent),
	}

	if sub.Element != nil {
		fb.ElementSelector = sub.Element.Selector
		fb.ElementXPath = sub.Element.XPath
		fb.ElementText = sub.Element.Text
		fb.ElementHTML = sub.Element.HTML
	}

	if len(sub.Context) > 0 {
		if encoded, err := json.Marshal(sub.Context); err == nil {
			fb.ContextData = string(encoded)
		}
	}

	return fb
}

// DeviceType classifies a viewport width.
func DeviceType(viewportWidth int) string {
	switch {
	case viewportWidth < 768:
		return "mobile"
	case viewportWidth < 1024:
		return "tablet"
	default:
		return "desktop"
	}
}

// OSInfo guesses the operating system from a user agent.
func OSInfo(userAgent string) string {
	for _, candidate := range []struct{ marker, name string }{
		{"Win", "Windows"},
		{"Mac", "MacOS"},
		{"Linux", "Linux"},
		{"Android", "Android"},
		{"iOS", "iOS"},
	} {
		if strings.Contains(userAgent, candidate.marker) {
			return candidate.name
		}
	}

	return "Unknown"
}

func sizeString(width, height int) string {
	if width == 0 && height == 0 {
		return ""
	}

	return fmt.Sprintf("%dx%d", width, height)
}
