package event

import (
	"context"
	"fmt"

	"quickshow/entities"
)

func (h Handler) UpsertUser(ctx context.Context, event *entities.UserUpserted_v1) error {
	err := h.userRepo.Upsert(ctx, event.User)
	if err != nil {
		return fmt.Errorf("could not save user %s: %w", event.User.UserID, err)
	}

	return nil
}

func (h Handler) DeleteUser(ctx context.Context, event *entities.UserDeleted_v1) error {
	err := h.userRepo.Delete(ctx, event.UserID)
	if err != nil {
		return fmt.Errorf("could not delete user %s: %w", event.UserID, err)
	}

	return nil
}
