package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quickshow/entities"
	"quickshow/metrics"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/sirupsen/logrus"
)

type ShowReminderEmail struct {
	UserName     string
	MovieTitle   string
	ShowDateTime time.Time
}

func (h Handler) SendShowReminders(ctx context.Context, event *entities.ShowReminderDue_v1) error {
	show, err := h.showRepo.ShowByID(ctx, event.ShowID)
	if err != nil {
		if errors.Is(err, entities.ErrShowNotFound) {
			return entities.PermanentError{Err: err}
		}
		return fmt.Errorf("could not load show %s: %w", event.ShowID, err)
	}

	movie, err := h.movieRepo.MovieByID(ctx, show.MovieID)
	if err != nil {
		return fmt.Errorf("could not load movie %s: %w", show.MovieID, err)
	}

	holders, err := h.bookingRepo.PaidSeatHolders(ctx, show.ShowID)
	if err != nil {
		return fmt.Errorf("could not list seat holders of show %s: %w", show.ShowID, err)
	}

	logger := log.FromContext(ctx).WithField("show_id", show.ShowID)

	sent := 0
	for _, userID := range holders {
		user, err := h.userRepo.UserByID(ctx, userID)
		if err != nil {
			logger.WithError(err).WithField("user_id", userID).Warn("Could not load reminder recipient")
			continue
		}

		err = h.mailer.Send(ctx, entities.Email{
			To:       user.Email,
			Template: entities.EmailShowReminder,
			Data: ShowReminderEmail{
				UserName:     user.Name,
				MovieTitle:   movie.Title,
				ShowDateTime: show.ShowDateTime,
			},
		})
		if err != nil {
			logger.WithError(err).WithField("user_id", userID).Warn("Could not send show reminder")
			continue
		}
		sent++
	}

	metrics.NotificationsSent.WithLabelValues(entities.EmailShowReminder).Add(float64(sent))
	logger.WithFields(logrus.Fields{
		"sent":   sent,
		"failed": len(holders) - sent,
	}).Info("Show reminders sent")

	return nil
}
