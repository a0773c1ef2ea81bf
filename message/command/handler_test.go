package command_test

import (
	"context"
	"errors"
	"testing"

	"quickshow/entities"
	"quickshow/message/command"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type reclaimerMock struct {
	mock.Mock
}

func (r *reclaimerMock) Reclaim(ctx context.Context, bookingID uuid.UUID) error {
	return r.Called(bookingID).Error(0)
}

func TestReclaimBooking(t *testing.T) {
	bookingID := uuid.New()

	reclaimer := &reclaimerMock{}
	reclaimer.On("Reclaim", bookingID).Return(nil).Once()

	h := command.NewHandler(reclaimer)

	err := h.ReclaimBooking(context.Background(), &entities.ReclaimBooking{
		Header:    entities.NewEventHeaderWithIdempotencyKey(bookingID.String()),
		BookingID: bookingID,
	})

	assert.NoError(t, err)
	reclaimer.AssertExpectations(t)
}

func TestReclaimBooking_error_is_returned_for_retry(t *testing.T) {
	bookingID := uuid.New()
	dbErr := errors.New("connection reset")

	reclaimer := &reclaimerMock{}
	reclaimer.On("Reclaim", bookingID).Return(dbErr)

	err := command.NewHandler(reclaimer).ReclaimBooking(context.Background(), &entities.ReclaimBooking{
		Header:    entities.NewEventHeader(),
		BookingID: bookingID,
	})

	assert.ErrorIs(t, err, dbErr)
	assert.False(t, entities.IsPermanent(err))
}
