package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quickshow/entities"
	"quickshow/metrics"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type BookingRepository interface {
	Create(ctx context.Context, booking entities.Booking, holdUntil time.Time) error
	SetPaymentSession(ctx context.Context, bookingID uuid.UUID, session entities.PaymentSession) error
	ByID(ctx context.Context, bookingID uuid.UUID) (entities.Booking, error)
	MarkPaid(ctx context.Context, bookingID uuid.UUID) (bool, error)
	Reclaim(ctx context.Context, bookingID uuid.UUID) (entities.ReclaimedBooking, bool, error)
	Summary(ctx context.Context, bookingID uuid.UUID) (entities.BookingSummary, error)
}

type PaymentGateway interface {
	CreateSession(ctx context.Context, request entities.PaymentSessionRequest) (entities.PaymentSession, error)
	GetStatus(ctx context.Context, sessionID string) (entities.PaymentStatus, error)
	ExpireSession(ctx context.Context, sessionID string) error
}

type OccupancyCache interface {
	Invalidate(ctx context.Context, showID uuid.UUID) error
}

type Config struct {
	// SeatHoldTTL is how long unpaid seats stay reserved before the booking is reclaimed.
	SeatHoldTTL time.Duration
	// PaymentSessionTTL is the lifetime of the payment link. It may outlive SeatHoldTTL;
	// reclaiming a booking expires its payment session.
	PaymentSessionTTL time.Duration
}

type Orchestrator struct {
	availability AvailabilityChecker
	shows        ShowRepository
	bookings     BookingRepository
	payments     PaymentGateway
	cache        OccupancyCache
	reclaimer    *Reclaimer
	config       Config

	now func() time.Time
}

func NewOrchestrator(
	shows ShowRepository,
	bookings BookingRepository,
	payments PaymentGateway,
	cache OccupancyCache,
	reclaimer *Reclaimer,
	config Config,
) *Orchestrator {
	if bookings == nil {
		panic("bookings repository is required")
	}
	if payments == nil {
		panic("payment gateway is required")
	}
	if cache == nil {
		panic("occupancy cache is required")
	}
	if reclaimer == nil {
		panic("reclaimer is required")
	}

	return &Orchestrator{
		availability: NewAvailabilityChecker(shows),
		shows:        shows,
		bookings:     bookings,
		payments:     payments,
		cache:        cache,
		reclaimer:    reclaimer,
		config:       config,
		now:          time.Now,
	}
}

// Create reserves seats for the user and returns the payment redirect URL.
func (o *Orchestrator) Create(ctx context.Context, userID string, showID uuid.UUID, seats []string) (string, error) {
	seats, err := NormalizeSeats(seats)
	if err != nil {
		return "", err
	}

	logger := log.FromContext(ctx).WithFields(logrus.Fields{
		"user_id": userID,
		"show_id": showID,
		"seats":   seats,
	})

	available, err := o.availability.IsAvailable(ctx, showID, seats)
	if err != nil {
		return "", err
	}
	if !available {
		return "", o.unavailable(ctx, showID)
	}

	show, err := o.shows.ShowByID(ctx, showID)
	if err != nil {
		return "", o.upstream(err, "could not load show %s", showID)
	}

	now := o.now().UTC()
	booking := entities.Booking{
		BookingID:   uuid.New(),
		UserID:      userID,
		ShowID:      showID,
		Amount:      entities.BookingAmount(show.ShowPrice, len(seats)),
		BookedSeats: seats,
		CreatedAt:   now,
	}

	err = o.bookings.Create(ctx, booking, now.Add(o.config.SeatHoldTTL))
	if errors.Is(err, entities.ErrSeatsUnavailable) {
		metrics.SeatConflicts.Inc()
		return "", err
	}
	if err != nil {
		return "", o.upstream(err, "could not create booking")
	}

	metrics.BookingsCreated.Inc()
	o.invalidateCache(ctx, showID)

	logger = logger.WithField("booking_id", booking.BookingID)
	logger.Info("Seats reserved")

	session, err := o.payments.CreateSession(ctx, entities.PaymentSessionRequest{
		BookingID:   booking.BookingID,
		Amount:      booking.Amount,
		Description: fmt.Sprintf("%d seat(s): %v", len(seats), seats),
		ExpiresAt:   now.Add(o.config.PaymentSessionTTL),
	})
	if err != nil {
		if reclaimErr := o.reclaimer.Reclaim(ctx, booking.BookingID); reclaimErr != nil {
			logger.WithError(reclaimErr).Error("Could not release seats after payment session failure, expiry will retry")
		}
		return "", o.upstream(err, "could not open payment session")
	}

	err = o.bookings.SetPaymentSession(ctx, booking.BookingID, session)
	if err != nil {
		// the reclaimer can't see a session that was never stored
		if expireErr := o.payments.ExpireSession(ctx, session.SessionID); expireErr != nil {
			logger.WithError(expireErr).WithField("session_id", session.SessionID).Warn("Could not expire unsaved payment session")
		}
		if reclaimErr := o.reclaimer.Reclaim(ctx, booking.BookingID); reclaimErr != nil {
			logger.WithError(reclaimErr).Error("Could not release seats after storing payment session failed, expiry will retry")
		}
		return "", o.upstream(err, "could not store payment session")
	}

	return session.URL, nil
}

// VerifyPayment reconciles the payment session with its booking. Calling it again after
// the booking is paid returns the same summary and does not notify again.
func (o *Orchestrator) VerifyPayment(ctx context.Context, sessionID string) (entities.PaymentVerification, error) {
	status, err := o.payments.GetStatus(ctx, sessionID)
	if errors.Is(err, entities.ErrInvalidSession) {
		return entities.PaymentVerification{}, err
	}
	if err != nil {
		return entities.PaymentVerification{}, o.upstream(err, "could not get payment session status")
	}

	bookingID, err := uuid.Parse(status.BookingID)
	if err != nil {
		return entities.PaymentVerification{}, fmt.Errorf("%w: session %s carries no booking", entities.ErrInvalidSession, sessionID)
	}

	booking, err := o.bookings.ByID(ctx, bookingID)
	if err != nil {
		return entities.PaymentVerification{}, o.upstream(err, "could not load booking %s", bookingID)
	}

	if status.Paid() && !booking.IsPaid {
		transitioned, err := o.bookings.MarkPaid(ctx, bookingID)
		if err != nil {
			return entities.PaymentVerification{}, o.upstream(err, "could not mark booking %s as paid", bookingID)
		}
		if transitioned {
			metrics.BookingsPaid.Inc()
			log.FromContext(ctx).WithField("booking_id", bookingID).Info("Booking paid")
		}
	}

	summary, err := o.bookings.Summary(ctx, bookingID)
	if err != nil {
		return entities.PaymentVerification{}, o.upstream(err, "could not load booking %s", bookingID)
	}

	return entities.PaymentVerification{
		Booking:       summary,
		PaymentStatus: status.Status,
	}, nil
}

func (o *Orchestrator) unavailable(ctx context.Context, showID uuid.UUID) error {
	_, err := o.shows.ShowByID(ctx, showID)
	if errors.Is(err, entities.ErrShowNotFound) {
		return err
	}

	metrics.SeatConflicts.Inc()
	return entities.ErrSeatsUnavailable
}

func (o *Orchestrator) invalidateCache(ctx context.Context, showID uuid.UUID) {
	if err := o.cache.Invalidate(ctx, showID); err != nil {
		log.FromContext(ctx).WithError(err).WithField("show_id", showID).Warn("Could not invalidate occupied seats cache")
	}
}

// upstream wraps err as an upstream failure unless it already is a domain error.
func (o *Orchestrator) upstream(err error, format string, args ...any) error {
	for _, domainErr := range []error{
		entities.ErrShowNotFound,
		entities.ErrBookingNotFound,
		entities.ErrSeatsUnavailable,
		entities.ErrInvalidSession,
		entities.ErrUpstream,
	} {
		if errors.Is(err, domainErr) {
			return err
		}
	}

	return fmt.Errorf("%w: %s: %w", entities.ErrUpstream, fmt.Sprintf(format, args...), err)
}
