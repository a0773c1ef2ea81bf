package scheduler

import (
	"context"
	"fmt"
	"time"

	"quickshow/entities"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const expirationBatchSize = 100

type ExpirationRepository interface {
	EnqueueDue(ctx context.Context, now time.Time, limit int, retryAfter time.Duration) (int, error)
}

type ShowRepository interface {
	ShowsStartingBetween(ctx context.Context, from, to time.Time) ([]entities.Show, error)
}

type EventBus interface {
	Publish(ctx context.Context, event any) error
}

type Config struct {
	// ExpiryPollInterval is how often due booking expirations are looked up.
	ExpiryPollInterval time.Duration
	// ExpiryRetryAfter is how long an enqueued expiration waits before it is enqueued again.
	ExpiryRetryAfter time.Duration
	// ReminderInterval is how often shows are checked for reminders.
	ReminderInterval time.Duration
	// ReminderLead is how long before a show its reminder is sent.
	ReminderLead time.Duration
}

// Scheduler turns due rows in Postgres into messages. It keeps no timers of its own,
// so restarting the service loses nothing.
type Scheduler struct {
	expirations ExpirationRepository
	shows       ShowRepository
	eventBus    EventBus
	config      Config

	now func() time.Time
}

func NewScheduler(expirations ExpirationRepository, shows ShowRepository, eventBus EventBus, config Config) *Scheduler {
	if expirations == nil {
		panic("expirations repository is required")
	}
	if shows == nil {
		panic("shows repository is required")
	}
	if eventBus == nil {
		panic("event bus is required")
	}
	if config.ExpiryPollInterval <= 0 || config.ReminderInterval <= 0 {
		panic("scheduler intervals must be positive")
	}

	return &Scheduler{
		expirations: expirations,
		shows:       shows,
		eventBus:    eventBus,
		config:      config,
		now:         time.Now,
	}
}

func (s *Scheduler) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return every(ctx, s.config.ExpiryPollInterval, func(ctx context.Context) {
			if _, err := s.EnqueueExpired(ctx); err != nil {
				log.FromContext(ctx).WithError(err).Error("Could not enqueue expired bookings")
			}
		})
	})
	g.Go(func() error {
		return every(ctx, s.config.ReminderInterval, func(ctx context.Context) {
			if _, err := s.PublishReminders(ctx); err != nil {
				log.FromContext(ctx).WithError(err).Error("Could not publish show reminders")
			}
		})
	})

	return g.Wait()
}

// EnqueueExpired enqueues a reclaim for every booking whose seat hold has lapsed.
func (s *Scheduler) EnqueueExpired(ctx context.Context) (int, error) {
	total := 0
	for {
		enqueued, err := s.expirations.EnqueueDue(ctx, s.now().UTC(), expirationBatchSize, s.config.ExpiryRetryAfter)
		if err != nil {
			return total, fmt.Errorf("could not enqueue due expirations: %w", err)
		}
		total += enqueued

		if enqueued < expirationBatchSize {
			break
		}
	}

	if total > 0 {
		log.FromContext(ctx).WithField("bookings", total).Info("Enqueued reclaim of expired bookings")
	}

	return total, nil
}

// PublishReminders publishes a reminder for every show starting within ReminderInterval
// before now+ReminderLead. Consecutive runs cover adjacent windows.
func (s *Scheduler) PublishReminders(ctx context.Context) (int, error) {
	to := s.now().UTC().Add(s.config.ReminderLead)
	from := to.Add(-s.config.ReminderInterval)

	shows, err := s.shows.ShowsStartingBetween(ctx, from, to)
	if err != nil {
		return 0, err
	}

	for _, show := range shows {
		err := s.eventBus.Publish(ctx, entities.ShowReminderDue_v1{
			Header: entities.NewEventHeaderWithIdempotencyKey("show-reminder-" + show.ShowID.String()),
			ShowID: show.ShowID,
		})
		if err != nil {
			return 0, fmt.Errorf("could not publish reminder for show %s: %w", show.ShowID, err)
		}
	}

	log.FromContext(ctx).WithFields(logrus.Fields{
		"from":  from,
		"to":    to,
		"shows": len(shows),
	}).Info("Show reminders published")

	return len(shows), nil
}

func every(ctx context.Context, interval time.Duration, fn func(ctx context.Context)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		fn(ctx)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
