package http

import (
	"context"
	"time"

	"quickshow/entities"

	"github.com/google/uuid"
)

type Handler struct {
	orchestrator  Orchestrator
	occupiedSeats OccupiedSeatsReader
	showRepo      ShowRepository
	movieRepo     MovieRepository
	movieCatalog  MovieCatalog
	bookingRepo   BookingRepository
	payments      PaymentWebhookParser
	eventBus      EventBus
	adminRole     string

	identityWebhookSecret string

	now func() time.Time
}

type Orchestrator interface {
	Create(ctx context.Context, userID string, showID uuid.UUID, seats []string) (string, error)
	VerifyPayment(ctx context.Context, sessionID string) (entities.PaymentVerification, error)
}

type OccupiedSeatsReader interface {
	OccupiedSeats(ctx context.Context, showID uuid.UUID) (entities.OccupiedSeats, error)
}

type ShowRepository interface {
	AddShows(ctx context.Context, movie entities.Movie, shows []entities.Show) error
	UpcomingShowsForMovie(ctx context.Context, movieID string, from time.Time) ([]entities.Show, error)
}

type MovieRepository interface {
	MovieByID(ctx context.Context, movieID string) (entities.Movie, error)
	UpcomingMovies(ctx context.Context, from time.Time) ([]entities.Movie, error)
}

// MovieCatalog is the external metadata source used when an admin schedules an unknown movie.
type MovieCatalog interface {
	MovieByID(ctx context.Context, movieID string) (entities.Movie, error)
}

type BookingRepository interface {
	ForUser(ctx context.Context, userID string) ([]entities.BookingSummary, error)
}

type PaymentWebhookParser interface {
	ParseWebhook(payload []byte, signature string) (string, error)
}

type EventBus interface {
	Publish(ctx context.Context, event any) error
}
