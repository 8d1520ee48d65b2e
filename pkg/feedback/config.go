// Package feedback talks to the spreadsheet-backed feedback endpoint.
package feedback

import (
	"slices"
	"time"
)

// Type classifies a feedback report.
type Type string

const (
	TypeBug         Type = "bug"
	TypeFeature     Type = "feature"
	TypeImprovement Type = "improvement"
	TypeQuestion    Type = "question"
)

// Types lists every accepted feedback type.
var Types = []Type{TypeBug, TypeFeature, TypeImprovement, TypeQuestion}

func (t Type) Valid() bool { return slices.Contains(Types, t) }

// Status is the triage state of a feedback report.
type Status string

const (
	StatusNew          Status = "new"
	StatusAcknowledged Status = "acknowledged"
	StatusInProgress   Status = "in_progress"
	StatusNeedsInfo    Status = "needs_info"
	StatusPlanned      Status = "planned"
	StatusCompleted    Status = "completed"
	StatusRejected     Status = "rejected"
)

var Statuses = []Status{
	StatusNew,
	StatusAcknowledged,
	StatusInProgress,
	StatusNeedsInfo,
	StatusPlanned,
	StatusCompleted,
	StatusRejected,
}

func (s Status) Valid() bool { return slices.Contains(Statuses, s) }

// Priority orders feedback reports.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

func (p Priority) Valid() bool { return slices.Contains(Priorities, p) }

// Role is the role of the author of a comment.
type Role string

const (
	RoleUser      Role = "user"
	RoleDeveloper Role = "developer"
	RoleAdmin     Role = "admin"
)

var Roles = []Role{RoleUser, RoleDeveloper, RoleAdmin}

func (r Role) Valid() bool { return slices.Contains(Roles, r) }

// ScreenshotSettings bounds the screenshots attached to reports.
type ScreenshotSettings struct {
	// Quality is the JPEG quality between 0 and 1.
	Quality float64
	// Scale shrinks the rendered flow before encoding.
	Scale     float64
	Format    string
	MaxWidth  int
	MaxHeight int
}

// Config configures the feedback client.
type Config struct {
	// APIURL is the deployed spreadsheet script endpoint.
	APIURL string
	// Timeout bounds every request to the endpoint.
	Timeout time.Duration
	// Acknowledge makes writes wait for and check the endpoint's response
	// instead of returning once the request has been sent.
	Acknowledge bool
	Screenshot  ScreenshotSettings
}

// DefaultConfig returns the settings the editor ships with, for the given endpoint.
func DefaultConfig(apiURL string) Config {
	return Config{
		APIURL:  apiURL,
		Timeout: 30 * time.Second,
		Screenshot: ScreenshotSettings{
			Quality:   0.7,
			Scale:     0.5,
			Format:    "jpeg",
			MaxWidth:  1920,
			MaxHeight: 1080,
		},
	}
}
