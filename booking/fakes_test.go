package booking_test

import (
	"context"
	"sync"
	"time"

	"quickshow/entities"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// ledger keeps shows and bookings in memory and reserves seats with a compare-and-set,
// the same way the Postgres repository does with a conditional update.
type ledger struct {
	lock     sync.Mutex
	shows    map[uuid.UUID]entities.Show
	bookings map[uuid.UUID]entities.Booking
	holds    map[uuid.UUID]time.Time

	setSessionErr error
}

func newLedger() *ledger {
	return &ledger{
		shows:    map[uuid.UUID]entities.Show{},
		bookings: map[uuid.UUID]entities.Booking{},
		holds:    map[uuid.UUID]time.Time{},
	}
}

func (l *ledger) addShow(price string, occupied entities.OccupiedSeats) entities.Show {
	l.lock.Lock()
	defer l.lock.Unlock()

	if occupied == nil {
		occupied = entities.OccupiedSeats{}
	}
	show := entities.Show{
		ShowID:        uuid.New(),
		MovieID:       "550",
		ShowDateTime:  time.Now().Add(24 * time.Hour).UTC(),
		ShowPrice:     decimal.RequireFromString(price),
		OccupiedSeats: occupied,
	}
	l.shows[show.ShowID] = show

	return show
}

func (l *ledger) setPrice(showID uuid.UUID, price string) {
	l.lock.Lock()
	defer l.lock.Unlock()

	show := l.shows[showID]
	show.ShowPrice = decimal.RequireFromString(price)
	l.shows[showID] = show
}

func (l *ledger) ShowByID(ctx context.Context, showID uuid.UUID) (entities.Show, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	show, ok := l.shows[showID]
	if !ok {
		return entities.Show{}, entities.ErrShowNotFound
	}
	show.OccupiedSeats = lo.Assign(show.OccupiedSeats)

	return show, nil
}

func (l *ledger) Create(ctx context.Context, booking entities.Booking, holdUntil time.Time) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	show, ok := l.shows[booking.ShowID]
	if !ok {
		return entities.ErrShowNotFound
	}
	if !show.OccupiedSeats.Free(booking.BookedSeats) {
		return entities.ErrSeatsUnavailable
	}

	occupied := lo.Assign(show.OccupiedSeats)
	for _, seat := range booking.BookedSeats {
		occupied[seat] = booking.UserID
	}
	show.OccupiedSeats = occupied
	l.shows[show.ShowID] = show
	l.bookings[booking.BookingID] = booking
	l.holds[booking.BookingID] = holdUntil

	return nil
}

func (l *ledger) SetPaymentSession(ctx context.Context, bookingID uuid.UUID, session entities.PaymentSession) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	if l.setSessionErr != nil {
		return l.setSessionErr
	}

	booking, ok := l.bookings[bookingID]
	if !ok {
		return entities.ErrBookingNotFound
	}
	booking.PaymentSessionID = session.SessionID
	booking.PaymentLink = session.URL
	l.bookings[bookingID] = booking

	return nil
}

func (l *ledger) ByID(ctx context.Context, bookingID uuid.UUID) (entities.Booking, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	booking, ok := l.bookings[bookingID]
	if !ok {
		return entities.Booking{}, entities.ErrBookingNotFound
	}

	return booking, nil
}

func (l *ledger) MarkPaid(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	booking, ok := l.bookings[bookingID]
	if !ok {
		return false, entities.ErrBookingNotFound
	}
	if booking.IsPaid {
		return false, nil
	}
	booking.IsPaid = true
	booking.PaymentLink = ""
	l.bookings[bookingID] = booking
	delete(l.holds, bookingID)

	return true, nil
}

func (l *ledger) Reclaim(ctx context.Context, bookingID uuid.UUID) (entities.ReclaimedBooking, bool, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	booking, ok := l.bookings[bookingID]
	if !ok || booking.IsPaid {
		return entities.ReclaimedBooking{}, false, nil
	}
	delete(l.bookings, bookingID)
	delete(l.holds, bookingID)

	show := l.shows[booking.ShowID]
	occupied := lo.Assign(show.OccupiedSeats)
	released := lo.Filter(booking.BookedSeats, func(seat string, _ int) bool {
		return occupied[seat] == booking.UserID
	})
	for _, seat := range released {
		delete(occupied, seat)
	}
	show.OccupiedSeats = occupied
	l.shows[show.ShowID] = show

	return entities.ReclaimedBooking{
		BookingID:        booking.BookingID,
		ShowID:           booking.ShowID,
		UserID:           booking.UserID,
		ReleasedSeats:    released,
		PaymentSessionID: booking.PaymentSessionID,
	}, true, nil
}

func (l *ledger) Summary(ctx context.Context, bookingID uuid.UUID) (entities.BookingSummary, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	booking, ok := l.bookings[bookingID]
	if !ok {
		return entities.BookingSummary{}, entities.ErrBookingNotFound
	}

	return entities.BookingSummary{
		ID:           booking.BookingID,
		UserID:       booking.UserID,
		ShowID:       booking.ShowID,
		MovieTitle:   "Fight Club",
		Amount:       booking.Amount,
		Seats:        booking.BookedSeats,
		IsPaid:       booking.IsPaid,
		PaymentLink:  booking.PaymentLink,
		ShowDateTime: l.shows[booking.ShowID].ShowDateTime,
	}, nil
}

func (l *ledger) onlyBooking() (entities.Booking, bool) {
	l.lock.Lock()
	defer l.lock.Unlock()

	for _, b := range l.bookings {
		return b, true
	}

	return entities.Booking{}, false
}

type gatewayMock struct {
	mock.Mock
}

func (g *gatewayMock) CreateSession(ctx context.Context, request entities.PaymentSessionRequest) (entities.PaymentSession, error) {
	args := g.Called(ctx, request)
	if fn, ok := args.Get(0).(func(context.Context, entities.PaymentSessionRequest) entities.PaymentSession); ok {
		return fn(ctx, request), args.Error(1)
	}
	return args.Get(0).(entities.PaymentSession), args.Error(1)
}

func (g *gatewayMock) GetStatus(ctx context.Context, sessionID string) (entities.PaymentStatus, error) {
	args := g.Called(ctx, sessionID)
	return args.Get(0).(entities.PaymentStatus), args.Error(1)
}

func (g *gatewayMock) ExpireSession(ctx context.Context, sessionID string) error {
	return g.Called(ctx, sessionID).Error(0)
}

type cacheMock struct {
	lock        sync.Mutex
	invalidated []uuid.UUID
}

func (c *cacheMock) Invalidate(ctx context.Context, showID uuid.UUID) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.invalidated = append(c.invalidated, showID)
	return nil
}
