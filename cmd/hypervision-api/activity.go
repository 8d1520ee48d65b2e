package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hypervision/hypervision/pkg/eventbus"
	"github.com/hypervision/hypervision/pkg/events"
)

var activityEvents = []events.EventType{
	events.BoardCreatedEvent,
	events.BoardDeletedEvent,
	events.FlowUpdatedEvent,
	events.FeedbackSubmittedEvent,
	events.NotificationsPolledEvent,
}

// subscribeActivityLog logs every board and feedback event published on bus.
func subscribeActivityLog(ctx context.Context, bus eventbus.EventSubscriber, logger *slog.Logger) error {
	logger = logger.With("module", "activity")

	for _, eventType := range activityEvents {
		err := bus.Handle(eventType, func(ctx context.Context, event any) error {
			logger.InfoContext(ctx, "Activity", "event_type", eventType, "event", event)

			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to handle %s: %w", eventType, err)
		}
	}

	return bus.Subscribe(ctx)
}
