package booking

import (
	"context"
	"fmt"

	"quickshow/entities"
	"quickshow/metrics"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Reclaimer struct {
	bookings BookingRepository
	payments PaymentGateway
	cache    OccupancyCache
}

func NewReclaimer(bookings BookingRepository, payments PaymentGateway, cache OccupancyCache) *Reclaimer {
	if bookings == nil {
		panic("bookings repository is required")
	}
	if payments == nil {
		panic("payment gateway is required")
	}
	if cache == nil {
		panic("occupancy cache is required")
	}

	return &Reclaimer{
		bookings: bookings,
		payments: payments,
		cache:    cache,
	}
}

// Reclaim releases the seats of an unpaid booking and deletes it.
// Paid or already deleted bookings are left untouched, so it is safe to call repeatedly.
func (r *Reclaimer) Reclaim(ctx context.Context, bookingID uuid.UUID) error {
	logger := log.FromContext(ctx).WithField("booking_id", bookingID)

	reclaimed, ok, err := r.bookings.Reclaim(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("%w: could not reclaim booking %s: %w", entities.ErrUpstream, bookingID, err)
	}
	if !ok {
		logger.Info("Booking paid or already reclaimed, nothing to release")
		return nil
	}

	metrics.BookingsReclaimed.Inc()
	logger.WithFields(logrus.Fields{
		"show_id":        reclaimed.ShowID,
		"released_seats": reclaimed.ReleasedSeats,
	}).Info("Booking reclaimed")

	if err := r.cache.Invalidate(ctx, reclaimed.ShowID); err != nil {
		logger.WithError(err).Warn("Could not invalidate occupied seats cache")
	}

	if reclaimed.PaymentSessionID != "" {
		if err := r.payments.ExpireSession(ctx, reclaimed.PaymentSessionID); err != nil {
			logger.WithError(err).Warn("Could not expire payment session of reclaimed booking")
		}
	}

	return nil
}
