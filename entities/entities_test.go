package entities_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"quickshow/entities"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOccupiedSeats_Free(t *testing.T) {
	occupied := entities.OccupiedSeats{"A1": "user-1", "B3": "user-2"}

	assert.True(t, occupied.Free([]string{"A2", "A3"}))
	assert.True(t, occupied.Free(nil))
	assert.False(t, occupied.Free([]string{"A2", "B3"}))
	assert.True(t, entities.OccupiedSeats(nil).Free([]string{"A1"}))
}

func TestBookingAmount(t *testing.T) {
	amount := entities.BookingAmount(decimal.RequireFromString("10.00"), 2)
	assert.True(t, decimal.RequireFromString("20").Equal(amount), amount.String())

	amount = entities.BookingAmount(decimal.RequireFromString("12.35"), 3)
	assert.True(t, decimal.RequireFromString("37.05").Equal(amount), amount.String())
}

func TestGroupShowsByDate(t *testing.T) {
	first := entities.Show{
		ShowID:       uuid.New(),
		ShowDateTime: time.Date(2026, 11, 3, 18, 0, 0, 0, time.UTC),
		ShowPrice:    decimal.NewFromInt(10),
	}
	second := entities.Show{
		ShowID:       uuid.New(),
		ShowDateTime: time.Date(2026, 11, 3, 21, 30, 0, 0, time.UTC),
		ShowPrice:    decimal.NewFromInt(12),
	}
	// 23:00 in UTC-5 is the next day in UTC
	third := entities.Show{
		ShowID:       uuid.New(),
		ShowDateTime: time.Date(2026, 11, 3, 23, 0, 0, 0, time.FixedZone("EST", -5*60*60)),
		ShowPrice:    decimal.NewFromInt(10),
	}

	grouped := entities.GroupShowsByDate([]entities.Show{first, second, third})

	require.Len(t, grouped, 2)
	require.Len(t, grouped["2026-11-03"], 2)
	assert.Equal(t, first.ShowID, grouped["2026-11-03"][0].ShowID)
	assert.Equal(t, second.ShowID, grouped["2026-11-03"][1].ShowID)
	require.Len(t, grouped["2026-11-04"], 1)
	assert.Equal(t, third.ShowID, grouped["2026-11-04"][0].ShowID)

	assert.Empty(t, entities.GroupShowsByDate(nil))
}

func TestIsPermanent(t *testing.T) {
	permanent := entities.PermanentError{Err: entities.ErrBookingNotFound}

	assert.True(t, entities.IsPermanent(permanent))
	assert.True(t, entities.IsPermanent(fmt.Errorf("handling message: %w", permanent)))
	assert.ErrorIs(t, permanent, entities.ErrBookingNotFound)

	assert.False(t, entities.IsPermanent(entities.ErrBookingNotFound))
	assert.False(t, entities.IsPermanent(errors.New("connection reset")))
	assert.False(t, entities.IsPermanent(nil))
}

func TestPaymentStatus_Paid(t *testing.T) {
	assert.True(t, entities.PaymentStatus{Status: "paid"}.Paid())
	assert.False(t, entities.PaymentStatus{Status: "unpaid"}.Paid())
	assert.False(t, entities.PaymentStatus{Status: "no_payment_required"}.Paid())
}
