package event

import (
	"context"

	"quickshow/entities"

	"github.com/google/uuid"
)

type BookingRepository interface {
	Summary(ctx context.Context, bookingID uuid.UUID) (entities.BookingSummary, error)
	PaidSeatHolders(ctx context.Context, showID uuid.UUID) ([]string, error)
}

type ShowRepository interface {
	ShowByID(ctx context.Context, showID uuid.UUID) (entities.Show, error)
}

type MovieRepository interface {
	MovieByID(ctx context.Context, movieID string) (entities.Movie, error)
}

type UserRepository interface {
	Upsert(ctx context.Context, user entities.User) error
	Delete(ctx context.Context, userID string) error
	UserByID(ctx context.Context, userID string) (entities.User, error)
	All(ctx context.Context) ([]entities.User, error)
}

type NotificationRepository interface {
	Claim(ctx context.Context, bookingID uuid.UUID) (bool, error)
	Release(ctx context.Context, bookingID uuid.UUID) error
}

type Mailer interface {
	Send(ctx context.Context, email entities.Email) error
}

type Handler struct {
	bookingRepo      BookingRepository
	showRepo         ShowRepository
	movieRepo        MovieRepository
	userRepo         UserRepository
	notificationRepo NotificationRepository
	mailer           Mailer
}

func NewHandler(
	bookingRepo BookingRepository,
	showRepo ShowRepository,
	movieRepo MovieRepository,
	userRepo UserRepository,
	notificationRepo NotificationRepository,
	mailer Mailer,
) Handler {
	if bookingRepo == nil {
		panic("missing bookingRepo")
	}
	if showRepo == nil {
		panic("missing showRepo")
	}
	if movieRepo == nil {
		panic("missing movieRepo")
	}
	if userRepo == nil {
		panic("missing userRepo")
	}
	if notificationRepo == nil {
		panic("missing notificationRepo")
	}
	if mailer == nil {
		panic("missing mailer")
	}

	return Handler{
		bookingRepo:      bookingRepo,
		showRepo:         showRepo,
		movieRepo:        movieRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		mailer:           mailer,
	}
}
