// Package eventbus publishes board and feedback events to interested consumers.
package eventbus

import (
	"context"

	"github.com/hypervision/hypervision/pkg/events"
)

// Event is anything that can travel on the bus.
type Event interface {
	GetType() events.EventType
}

// EventPublisher delivers events keyed by the aggregate they concern.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

// EventSubscriber routes consumed events to the handler registered for their type.
// Handlers must be registered before Subscribe.
type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

// EventHandler receives a decoded event, a pointer to one of the events package types.
type EventHandler func(ctx context.Context, event any) error

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
}
