package event

import (
	"context"
	"errors"
	"fmt"

	"quickshow/entities"
	"quickshow/metrics"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
)

type BookingConfirmationEmail struct {
	UserName string
	Booking  entities.BookingSummary
}

// SendBookingConfirmation emails the booking owner once per booking.
func (h Handler) SendBookingConfirmation(ctx context.Context, event *entities.BookingConfirmed_v1) error {
	logger := log.FromContext(ctx).WithField("booking_id", event.BookingID)

	claimed, err := h.notificationRepo.Claim(ctx, event.BookingID)
	if err != nil {
		return fmt.Errorf("could not claim confirmation for booking %s: %w", event.BookingID, err)
	}
	if !claimed {
		logger.Info("Booking confirmation already sent, skipping")
		return nil
	}

	err = h.sendBookingConfirmation(ctx, event)
	if err != nil {
		if releaseErr := h.notificationRepo.Release(ctx, event.BookingID); releaseErr != nil {
			err = errors.Join(err, releaseErr)
		}
		return err
	}

	metrics.NotificationsSent.WithLabelValues(entities.EmailBookingConfirmation).Inc()
	logger.Info("Booking confirmation sent")

	return nil
}

func (h Handler) sendBookingConfirmation(ctx context.Context, event *entities.BookingConfirmed_v1) error {
	summary, err := h.bookingRepo.Summary(ctx, event.BookingID)
	if err != nil {
		if errors.Is(err, entities.ErrBookingNotFound) {
			return entities.PermanentError{Err: err}
		}
		return fmt.Errorf("could not load booking %s: %w", event.BookingID, err)
	}

	user, err := h.userRepo.UserByID(ctx, event.UserID)
	if err != nil {
		if errors.Is(err, entities.ErrUserNotFound) {
			return entities.PermanentError{Err: err}
		}
		return fmt.Errorf("could not load user %s: %w", event.UserID, err)
	}

	return h.mailer.Send(ctx, entities.Email{
		To:       user.Email,
		Template: entities.EmailBookingConfirmation,
		Data: BookingConfirmationEmail{
			UserName: user.Name,
			Booking:  summary,
		},
	})
}
