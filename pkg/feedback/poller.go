package feedback

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/hypervision/hypervision/pkg/eventbus"
	"github.com/hypervision/hypervision/pkg/events"
	"github.com/robfig/cron/v3"
)

// DefaultPollSchedule checks for notifications every minute.
const DefaultPollSchedule = "@every 1m"

// NotificationSource lists the notifications of a user.
type NotificationSource interface {
	Notifications(ctx context.Context, userID string, unreadOnly bool) ([]Notification, error)
}

// Poller periodically fetches unread notifications of watched users and publishes
// an event whenever a user's unread set changes.
type Poller struct {
	source    NotificationSource
	publisher eventbus.EventPublisher
	schedule  string
	logger    *slog.Logger

	mu      sync.Mutex
	watched map[string][]string // user id -> unread ids seen last
	cron    *cron.Cron
	cancel  context.CancelFunc
}

// NewPoller validates schedule and returns a stopped poller.
func NewPoller(source NotificationSource, publisher eventbus.EventPublisher, schedule string, logger *slog.Logger) (*Poller, error) {
	if schedule == "" {
		schedule = DefaultPollSchedule
	}

	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid poll schedule '%s': %w", schedule, err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Poller{
		source:    source,
		publisher: publisher,
		schedule:  schedule,
		logger:    logger.With("module", "notification_poller"),
		watched:   make(map[string][]string),
	}, nil
}

// Watch adds a user to the polling set.
func (p *Poller) Watch(userID string) {
	if userID == "" {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.watched[userID]; !ok {
		p.watched[userID] = nil
	}
}

// Unwatch removes a user from the polling set.
func (p *Poller) Unwatch(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.watched, userID)
}

// Watched returns the ids of the users being polled.
func (p *Poller) Watched() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	users := make([]string, 0, len(p.watched))
	for userID := range p.watched {
		users = append(users, userID)
	}

	slices.Sort(users)

	return users
}

// Start schedules polling until Stop is called or ctx is done.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cron != nil {
		return nil
	}

	ctx, p.cancel = context.WithCancel(ctx)

	p.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	entryID, err := p.cron.AddFunc(p.schedule, func() { p.Poll(ctx) })
	if err != nil {
		p.cron = nil
		p.cancel()

		return fmt.Errorf("failed to schedule notification polling: %w", err)
	}

	p.cron.Start()
	p.logger.Info("Started notification poller", "schedule", p.schedule, "entry_id", entryID)

	return nil
}

// Stop halts polling and waits for a running poll to finish.
func (p *Poller) Stop() {
	p.mu.Lock()
	c, cancel := p.cron, p.cancel
	p.cron, p.cancel = nil, nil
	p.mu.Unlock()

	if c == nil {
		return
	}

	cancel()
	<-c.Stop().Done()
	p.logger.Info("Stopped notification poller")
}

// Poll runs one polling round over all watched users.
func (p *Poller) Poll(ctx context.Context) {
	for _, userID := range p.Watched() {
		if ctx.Err() != nil {
			return
		}

		p.pollUser(ctx, userID)
	}
}

func (p *Poller) pollUser(ctx context.Context, userID string) {
	logger := p.logger.With("user_id", userID)

	notifications, err := p.source.Notifications(ctx, userID, true)
	if err != nil {
		logger.WarnContext(ctx, "Failed to poll notifications", "error", err)

		return
	}

	ids := make([]string, 0, len(notifications))
	for _, n := range notifications {
		if !n.IsRead {
			ids = append(ids, n.ID)
		}
	}

	slices.Sort(ids)

	p.mu.Lock()
	previous, watched := p.watched[userID]
	changed := watched && !slices.Equal(previous, ids)

	if changed {
		p.watched[userID] = ids
	}
	p.mu.Unlock()

	if !changed {
		return
	}

	event := events.NotificationsPolled{
		BaseEvent:       events.NewBaseEvent(events.NotificationsPolledEvent, ""),
		UserID:          userID,
		Unread:          len(ids),
		NotificationIDs: ids,
	}

	if err := p.publisher.Publish(ctx, userID, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish polled notifications", "error", err)

		return
	}

	logger.DebugContext(ctx, "Published polled notifications", "unread", len(ids))
}
