package command

import (
	"context"

	"quickshow/entities"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
)

func (h Handler) ReclaimBooking(ctx context.Context, cmd *entities.ReclaimBooking) error {
	log.FromContext(ctx).WithField("booking_id", cmd.BookingID).Info("Reclaiming booking after payment deadline")

	return h.reclaimer.Reclaim(ctx, cmd.BookingID)
}
