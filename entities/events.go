package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Event interface {
	IsInternal() bool
}

type EventHeader struct {
	ID             string    `json:"id"`
	PublishedAt    time.Time `json:"published_at"`
	IdempotencyKey string    `json:"idempotency_key"`
}

func NewEventHeader() EventHeader {
	return EventHeader{
		ID:             uuid.NewString(),
		PublishedAt:    time.Now().UTC(),
		IdempotencyKey: uuid.NewString(),
	}
}

func NewEventHeaderWithIdempotencyKey(idempotencyKey string) EventHeader {
	return EventHeader{
		ID:             uuid.NewString(),
		PublishedAt:    time.Now().UTC(),
		IdempotencyKey: idempotencyKey,
	}
}

type BookingCreated_v1 struct {
	Header EventHeader `json:"header"`

	BookingID uuid.UUID       `json:"booking_id"`
	UserID    string          `json:"user_id"`
	ShowID    uuid.UUID       `json:"show_id"`
	Seats     []string        `json:"seats"`
	Amount    decimal.Decimal `json:"amount"`
	HeldUntil time.Time       `json:"held_until"`
}

func (e BookingCreated_v1) IsInternal() bool {
	return false
}

type BookingConfirmed_v1 struct {
	Header EventHeader `json:"header"`

	BookingID uuid.UUID `json:"booking_id"`
	UserID    string    `json:"user_id"`
	ShowID    uuid.UUID `json:"show_id"`
}

func (e BookingConfirmed_v1) IsInternal() bool {
	return false
}

type BookingReclaimed_v1 struct {
	Header EventHeader `json:"header"`

	BookingID     uuid.UUID `json:"booking_id"`
	ShowID        uuid.UUID `json:"show_id"`
	ReleasedSeats []string  `json:"released_seats"`
}

func (e BookingReclaimed_v1) IsInternal() bool {
	return false
}

type ShowsAdded_v1 struct {
	Header EventHeader `json:"header"`

	MovieID    string      `json:"movie_id"`
	MovieTitle string      `json:"movie_title"`
	ShowIDs    []uuid.UUID `json:"show_ids"`
}

func (e ShowsAdded_v1) IsInternal() bool {
	return false
}

type UserUpserted_v1 struct {
	Header EventHeader `json:"header"`

	User User `json:"user"`
}

func (e UserUpserted_v1) IsInternal() bool {
	return false
}

type UserDeleted_v1 struct {
	Header EventHeader `json:"header"`

	UserID string `json:"user_id"`
}

func (e UserDeleted_v1) IsInternal() bool {
	return false
}

// ShowReminderDue_v1 is only consumed by this service, so it never leaves the internal topics.
type ShowReminderDue_v1 struct {
	Header EventHeader `json:"header"`

	ShowID uuid.UUID `json:"show_id"`
}

func (e ShowReminderDue_v1) IsInternal() bool {
	return true
}

// LoggedEvent is a raw event as appended to the event log.
type LoggedEvent struct {
	EventID     string    `db:"event_id"`
	PublishedAt time.Time `db:"published_at"`
	EventName   string    `db:"event_name"`
	Payload     []byte    `db:"event_payload"`
}
