package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"quickshow/entities"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/samber/lo"
)

// ExpirationRepository is the durable schedule of booking payment deadlines.
// Rows are written together with the booking and removed when it is paid or reclaimed.
type ExpirationRepository struct {
	db *DB
}

func NewExpirationRepository(db *DB) ExpirationRepository {
	if db == nil {
		panic("db is nil")
	}

	return ExpirationRepository{
		db: db,
	}
}

// EnqueueDue sends a ReclaimBooking command for every expiration due at now, through the outbox.
// Enqueued rows are pushed back by retryAfter: if the command is lost or fails for good, the
// booking is picked up again; a successful reclaim deletes the row.
func (r ExpirationRepository) EnqueueDue(ctx context.Context, now time.Time, limit int, retryAfter time.Duration) (int, error) {
	var due []uuid.UUID

	err := updateInTx(
		ctx,
		r.db.Conn,
		sql.LevelReadCommitted,
		func(ctx context.Context, tx *sqlx.Tx) error {
			err := tx.SelectContext(ctx, &due, `
				SELECT
				    booking_id
				FROM
				    booking_expirations
				WHERE
				    due_at <= $1
				ORDER BY
				    due_at
				LIMIT $2
				FOR UPDATE SKIP LOCKED
			`, now, limit)
			if err != nil {
				return fmt.Errorf("could not get due expirations: %w", err)
			}
			if len(due) == 0 {
				return nil
			}

			commands := lo.Map(due, func(bookingID uuid.UUID, _ int) any {
				return entities.ReclaimBooking{
					Header:    entities.NewEventHeaderWithIdempotencyKey(bookingID.String()),
					BookingID: bookingID,
				}
			})
			if err := sendInTx(ctx, tx, commands...); err != nil {
				return err
			}

			_, err = tx.ExecContext(ctx, `
				UPDATE
				    booking_expirations
				SET
				    due_at = $2, attempts = attempts + 1
				WHERE
				    booking_id = ANY($1::uuid[])
			`, pq.Array(lo.Map(due, func(id uuid.UUID, _ int) string { return id.String() })), now.Add(retryAfter))
			if err != nil {
				return fmt.Errorf("could not reschedule expirations: %w", err)
			}

			return nil
		},
	)
	if err != nil {
		return 0, err
	}

	return len(due), nil
}
