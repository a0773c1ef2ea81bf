package api_test

import (
	"context"
	"testing"
	"time"

	"quickshow/api"
	"quickshow/entities"
	"quickshow/message/event"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderEmail_booking_confirmation(t *testing.T) {
	subject, plain, html, err := api.RenderEmail(entities.Email{
		To:       "tyler@example.com",
		Template: entities.EmailBookingConfirmation,
		Data: event.BookingConfirmationEmail{
			UserName: "Tyler <Durden>",
			Booking: entities.BookingSummary{
				ID:           uuid.New(),
				MovieTitle:   "Fight Club",
				Amount:       decimal.RequireFromString("20"),
				Seats:        []string{"A1", "A2"},
				IsPaid:       true,
				ShowDateTime: time.Date(2026, 11, 20, 18, 30, 0, 0, time.UTC),
			},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Payment confirmation: Fight Club booked", subject)
	assert.Contains(t, plain, "Seats: A1, A2")
	assert.Contains(t, plain, "Amount: 20.00")
	assert.Contains(t, plain, "Time: 18:30 UTC")
	assert.Contains(t, html, "Tyler &lt;Durden&gt;")
}

func TestRenderEmail_unknown_template(t *testing.T) {
	_, _, _, err := api.RenderEmail(entities.Email{Template: "missing.tmpl"})
	assert.Error(t, err)
}

func TestMailerMock_rejects_data_not_matching_template(t *testing.T) {
	mailer := &api.MailerMock{}

	err := mailer.Send(context.Background(), entities.Email{
		To:       "tyler@example.com",
		Template: entities.EmailShowReminder,
		Data:     struct{}{},
	})
	assert.True(t, entities.IsPermanent(err))
	assert.Empty(t, mailer.Sent)
}
