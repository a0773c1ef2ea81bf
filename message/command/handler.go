package command

import (
	"context"

	"github.com/google/uuid"
)

type Reclaimer interface {
	Reclaim(ctx context.Context, bookingID uuid.UUID) error
}

type Handler struct {
	reclaimer Reclaimer
}

func NewHandler(reclaimer Reclaimer) Handler {
	if reclaimer == nil {
		panic("reclaimer is required")
	}

	return Handler{
		reclaimer: reclaimer,
	}
}
