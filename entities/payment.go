package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const PaymentMetadataBookingID = "bookingId"

type PaymentSessionRequest struct {
	BookingID   uuid.UUID
	Amount      decimal.Decimal
	Description string
	ExpiresAt   time.Time
}

type PaymentSession struct {
	SessionID string
	URL       string
}

type PaymentStatus struct {
	SessionID string
	BookingID string
	// Status is the processor's payment status, e.g. "paid" or "unpaid".
	Status string
}

func (p PaymentStatus) Paid() bool {
	return p.Status == "paid"
}
