package entities

import "github.com/google/uuid"

type ReclaimBooking struct {
	Header EventHeader `json:"header"`

	BookingID uuid.UUID `json:"booking_id"`
}
