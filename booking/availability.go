package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"quickshow/entities"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type ShowRepository interface {
	ShowByID(ctx context.Context, showID uuid.UUID) (entities.Show, error)
}

type AvailabilityChecker struct {
	shows ShowRepository
}

func NewAvailabilityChecker(shows ShowRepository) AvailabilityChecker {
	if shows == nil {
		panic("shows repository is required")
	}

	return AvailabilityChecker{shows: shows}
}

// IsAvailable reports whether none of the seats is held for the show.
// A missing show is reported as unavailable, not as an error.
func (a AvailabilityChecker) IsAvailable(ctx context.Context, showID uuid.UUID, seats []string) (bool, error) {
	show, err := a.shows.ShowByID(ctx, showID)
	if errors.Is(err, entities.ErrShowNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: could not load show %s: %w", entities.ErrUpstream, showID, err)
	}

	return show.OccupiedSeats.Free(seats), nil
}

// NormalizeSeats trims labels and drops duplicates, keeping the requested order.
func NormalizeSeats(seats []string) ([]string, error) {
	normalized := lo.Uniq(lo.FilterMap(seats, func(seat string, _ int) (string, bool) {
		seat = strings.TrimSpace(seat)
		return seat, seat != ""
	}))
	if len(normalized) == 0 {
		return nil, entities.ErrNoSeatsSelected
	}

	return normalized, nil
}
