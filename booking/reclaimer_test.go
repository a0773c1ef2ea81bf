package booking_test

import (
	"context"
	"testing"

	"quickshow/booking"
	"quickshow/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestReclaimer_Reclaim(t *testing.T) {
	ctx := context.Background()
	l := newLedger()
	show := l.addShow("10.00", entities.OccupiedSeats{"C1": "user_x"})

	gateway := &gatewayMock{}
	expectSessions(gateway)
	gateway.On("ExpireSession", mock.Anything, mock.Anything).Return(nil)
	orchestrator, reclaimer := newOrchestrator(l, gateway)

	_, err := orchestrator.Create(ctx, "user_1", show.ShowID, []string{"A1", "A2"})
	require.NoError(t, err)
	created, _ := l.onlyBooking()

	require.NoError(t, reclaimer.Reclaim(ctx, created.BookingID))

	_, err = l.ByID(ctx, created.BookingID)
	assert.ErrorIs(t, err, entities.ErrBookingNotFound)

	stored, err := l.ShowByID(ctx, show.ShowID)
	require.NoError(t, err)
	assert.Equal(t, entities.OccupiedSeats{"C1": "user_x"}, stored.OccupiedSeats)

	gateway.AssertCalled(t, "ExpireSession", mock.Anything, created.PaymentSessionID)

	// seats are bookable again
	_, err = orchestrator.Create(ctx, "user_2", show.ShowID, []string{"A1"})
	assert.NoError(t, err)

	// reclaiming again is a no-op
	assert.NoError(t, reclaimer.Reclaim(ctx, created.BookingID))
}

func TestReclaimer_Reclaim_paid_booking_is_kept(t *testing.T) {
	ctx := context.Background()
	l := newLedger()
	show := l.addShow("10.00", nil)

	gateway := &gatewayMock{}
	expectSessions(gateway)
	orchestrator, reclaimer := newOrchestrator(l, gateway)

	_, err := orchestrator.Create(ctx, "user_1", show.ShowID, []string{"A1"})
	require.NoError(t, err)
	created, _ := l.onlyBooking()

	_, err = l.MarkPaid(ctx, created.BookingID)
	require.NoError(t, err)

	require.NoError(t, reclaimer.Reclaim(ctx, created.BookingID))

	stored, err := l.ByID(ctx, created.BookingID)
	require.NoError(t, err)
	assert.True(t, stored.IsPaid)

	occupied, err := l.ShowByID(ctx, show.ShowID)
	require.NoError(t, err)
	assert.Equal(t, entities.OccupiedSeats{"A1": "user_1"}, occupied.OccupiedSeats)

	gateway.AssertNotCalled(t, "ExpireSession", mock.Anything, mock.Anything)
}

func TestAvailabilityChecker_IsAvailable(t *testing.T) {
	ctx := context.Background()
	l := newLedger()
	show := l.addShow("10.00", entities.OccupiedSeats{"A1": "user_x"})
	checker := booking.NewAvailabilityChecker(l)

	available, err := checker.IsAvailable(ctx, show.ShowID, []string{"A2", "Z99"})
	require.NoError(t, err)
	assert.True(t, available)

	available, err = checker.IsAvailable(ctx, show.ShowID, []string{"A2", "A1"})
	require.NoError(t, err)
	assert.False(t, available)

	l2 := newLedger()
	available, err = booking.NewAvailabilityChecker(l2).IsAvailable(ctx, show.ShowID, []string{"A2"})
	require.NoError(t, err)
	assert.False(t, available)
}

func TestNormalizeSeats(t *testing.T) {
	seats, err := booking.NormalizeSeats([]string{" A2", "A1", "A2", ""})
	require.NoError(t, err)
	assert.Equal(t, []string{"A2", "A1"}, seats)

	_, err = booking.NormalizeSeats(nil)
	assert.ErrorIs(t, err, entities.ErrNoSeatsSelected)
}
