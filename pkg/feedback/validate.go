package feedback

import (
	"errors"
	"strings"
)

// ErrInvalidFeedback is wrapped by every ValidationError.
var ErrInvalidFeedback = errors.New("invalid feedback")

// ValidationError lists every problem found in a report.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return ErrInvalidFeedback.Error() + ": " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidFeedback
}

// Validate checks the fields a report cannot be stored without.
func Validate(fb *Feedback) error {
	var problems []string

	if strings.TrimSpace(fb.FeedbackText) == "" {
		problems = append(problems, "Feedback text is required")
	}

	if !fb.FeedbackType.Valid() {
		problems = append(problems, "Valid feedback type is required")
	}

	if fb.UserID == "" {
		problems = append(problems, "User ID is required")
	}

	if fb.UserEmail == "" {
		problems = append(problems, "User email is required")
	}

	if fb.Priority != "" && !fb.Priority.Valid() {
		problems = append(problems, "Valid priority is required")
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}

	return nil
}
