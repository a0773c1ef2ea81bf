package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// OccupiedSeats maps a seat label (e.g. "A1") to the id of the user holding it.
type OccupiedSeats map[string]string

// Free reports whether none of the given seats is currently held.
func (o OccupiedSeats) Free(seats []string) bool {
	return !lo.SomeBy(seats, func(seat string) bool {
		_, taken := o[seat]
		return taken
	})
}

type Show struct {
	ShowID        uuid.UUID       `json:"_id" db:"show_id"`
	MovieID       string          `json:"movie" db:"movie_id"`
	ShowDateTime  time.Time       `json:"showDateTime" db:"show_date_time"`
	ShowPrice     decimal.Decimal `json:"showPrice" db:"show_price"`
	OccupiedSeats OccupiedSeats   `json:"occupiedSeats" db:"-"`
}

type ShowsInput struct {
	Date string   `json:"date"`
	Time []string `json:"time"`
}

// ShowTime is a single entry of the per-day schedule returned for a movie.
type ShowTime struct {
	Time      time.Time       `json:"time"`
	ShowID    uuid.UUID       `json:"showId"`
	ShowPrice decimal.Decimal `json:"showPrice"`
}

// GroupShowsByDate groups shows by their UTC calendar day (YYYY-MM-DD).
func GroupShowsByDate(shows []Show) map[string][]ShowTime {
	dateTime := make(map[string][]ShowTime)
	for _, show := range shows {
		date := show.ShowDateTime.UTC().Format(time.DateOnly)
		dateTime[date] = append(dateTime[date], ShowTime{
			Time:      show.ShowDateTime,
			ShowID:    show.ShowID,
			ShowPrice: show.ShowPrice,
		})
	}

	return dateTime
}
