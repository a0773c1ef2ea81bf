package event

import (
	"context"
	"fmt"

	"quickshow/entities"
	"quickshow/metrics"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/sirupsen/logrus"
)

type NewShowEmail struct {
	UserName   string
	MovieTitle string
}

// NotifyNewShow tells every known user about a newly scheduled movie.
// Single delivery failures are logged and do not fail the whole fan-out.
func (h Handler) NotifyNewShow(ctx context.Context, event *entities.ShowsAdded_v1) error {
	users, err := h.userRepo.All(ctx)
	if err != nil {
		return fmt.Errorf("could not list users: %w", err)
	}

	sent := 0
	for _, user := range users {
		err := h.mailer.Send(ctx, entities.Email{
			To:       user.Email,
			Template: entities.EmailNewShow,
			Data: NewShowEmail{
				UserName:   user.Name,
				MovieTitle: event.MovieTitle,
			},
		})
		if err != nil {
			log.FromContext(ctx).WithError(err).WithField("user_id", user.UserID).Warn("Could not send new show email")
			continue
		}
		sent++
	}

	metrics.NotificationsSent.WithLabelValues(entities.EmailNewShow).Add(float64(sent))
	log.FromContext(ctx).WithFields(logrus.Fields{
		"movie_id": event.MovieID,
		"sent":     sent,
		"failed":   len(users) - sent,
	}).Info("New show notifications sent")

	return nil
}
