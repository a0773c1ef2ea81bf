package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// NotificationRepository keeps one claim per booking so its confirmation email goes out at most once.
type NotificationRepository struct {
	db *DB
}

func NewNotificationRepository(db *DB) NotificationRepository {
	if db == nil {
		panic("db is nil")
	}

	return NotificationRepository{
		db: db,
	}
}

func (r NotificationRepository) Claim(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	_, err := r.db.Conn.ExecContext(ctx, `
		INSERT INTO
		    booking_notifications (booking_id)
		VALUES
		    ($1)
	`, bookingID)
	if isErrorUniqueViolation(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("could not claim notification: %w", err)
	}

	return true, nil
}

// Release drops the claim after a failed delivery so a retry can send it.
func (r NotificationRepository) Release(ctx context.Context, bookingID uuid.UUID) error {
	_, err := r.db.Conn.ExecContext(ctx, `DELETE FROM booking_notifications WHERE booking_id = $1`, bookingID)
	if err != nil {
		return fmt.Errorf("could not release notification: %w", err)
	}

	return nil
}
