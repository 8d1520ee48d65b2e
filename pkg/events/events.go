// Package events defines the notifications published when boards and feedback change.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic carries every board and feedback event.
const Topic = "hypervision.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Board lifecycle events.
	BoardCreatedEvent EventType = "board.created"
	BoardDeletedEvent EventType = "board.deleted"

	// Flow graph events.
	FlowUpdatedEvent EventType = "flow.updated"

	// Feedback events.
	FeedbackSubmittedEvent   EventType = "feedback.submitted"
	NotificationsPolledEvent EventType = "feedback.notifications.polled"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	BoardID   string         `json:"board_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type BoardCreated struct {
	BaseEvent

	Name  string `json:"name"`
	Owner string `json:"owner"`
}

func (b BoardCreated) GetType() EventType {
	return BoardCreatedEvent
}

type BoardDeleted struct {
	BaseEvent
}

func (b BoardDeleted) GetType() EventType {
	return BoardDeletedEvent
}

// FlowUpdated is published after a canvas operation changed a board's flow.
type FlowUpdated struct {
	BaseEvent

	Operation string `json:"operation"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
	ViewMode  string `json:"view_mode"`
}

func (f FlowUpdated) GetType() EventType {
	return FlowUpdatedEvent
}

type FeedbackSubmitted struct {
	BaseEvent

	FeedbackID   string `json:"feedback_id"`
	FeedbackType string `json:"feedback_type"`
	UserID       string `json:"user_id"`
	Delivery     string `json:"delivery"`
}

func (f FeedbackSubmitted) GetType() EventType {
	return FeedbackSubmittedEvent
}

// NotificationsPolled reports the unread notifications fetched for a user.
type NotificationsPolled struct {
	BaseEvent

	UserID          string   `json:"user_id"`
	Unread          int      `json:"unread"`
	NotificationIDs []string `json:"notification_ids"`
}

func (n NotificationsPolled) GetType() EventType {
	return NotificationsPolledEvent
}

func NewBaseEvent(eventType EventType, boardID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		BoardID:   boardID,
		Metadata:  make(map[string]any),
	}
}
