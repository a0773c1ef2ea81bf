package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Booking struct {
	BookingID        uuid.UUID       `json:"_id"`
	UserID           string          `json:"user"`
	ShowID           uuid.UUID       `json:"show"`
	Amount           decimal.Decimal `json:"amount"`
	BookedSeats      []string        `json:"bookedSeats"`
	IsPaid           bool            `json:"isPaid"`
	PaymentLink      string          `json:"paymentLink,omitempty"`
	PaymentSessionID string          `json:"-"`
	CreatedAt        time.Time       `json:"createdAt"`
}

// BookingAmount is the charge for the given seats at the given price.
func BookingAmount(price decimal.Decimal, seats int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(seats)))
}

type BookingSummary struct {
	ID           uuid.UUID       `json:"id"`
	UserID       string          `json:"-"`
	ShowID       uuid.UUID       `json:"showId"`
	MovieTitle   string          `json:"movieTitle"`
	Amount       decimal.Decimal `json:"amount"`
	Seats        []string        `json:"seats"`
	IsPaid       bool            `json:"isPaid"`
	PaymentLink  string          `json:"paymentLink,omitempty"`
	ShowDateTime time.Time       `json:"showDateTime"`
}

// ReclaimedBooking is what is left of a booking after its seats were released.
type ReclaimedBooking struct {
	BookingID        uuid.UUID
	ShowID           uuid.UUID
	UserID           string
	ReleasedSeats    []string
	PaymentSessionID string
}

type PaymentVerification struct {
	Booking       BookingSummary `json:"booking"`
	PaymentStatus string         `json:"paymentStatus"`
}
