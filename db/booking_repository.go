package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"quickshow/entities"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type BookingRepository struct {
	db *DB
}

func NewBookingRepository(db *DB) BookingRepository {
	if db == nil {
		panic("db is nil")
	}

	return BookingRepository{
		db: db,
	}
}

type bookingRow struct {
	BookingID        uuid.UUID       `db:"booking_id"`
	UserID           string          `db:"user_id"`
	ShowID           uuid.UUID       `db:"show_id"`
	Amount           decimal.Decimal `db:"amount"`
	BookedSeats      pq.StringArray  `db:"booked_seats"`
	IsPaid           bool            `db:"is_paid"`
	PaymentLink      string          `db:"payment_link"`
	PaymentSessionID string          `db:"payment_session_id"`
	CreatedAt        time.Time       `db:"created_at"`
}

func (r bookingRow) toEntity() entities.Booking {
	return entities.Booking{
		BookingID:        r.BookingID,
		UserID:           r.UserID,
		ShowID:           r.ShowID,
		Amount:           r.Amount,
		BookedSeats:      r.BookedSeats,
		IsPaid:           r.IsPaid,
		PaymentLink:      r.PaymentLink,
		PaymentSessionID: r.PaymentSessionID,
		CreatedAt:        r.CreatedAt,
	}
}

type bookingSummaryRow struct {
	BookingID    uuid.UUID       `db:"booking_id"`
	UserID       string          `db:"user_id"`
	ShowID       uuid.UUID       `db:"show_id"`
	MovieTitle   string          `db:"movie_title"`
	Amount       decimal.Decimal `db:"amount"`
	BookedSeats  pq.StringArray  `db:"booked_seats"`
	IsPaid       bool            `db:"is_paid"`
	PaymentLink  string          `db:"payment_link"`
	ShowDateTime time.Time       `db:"show_date_time"`
}

func (r bookingSummaryRow) toEntity() entities.BookingSummary {
	return entities.BookingSummary{
		ID:           r.BookingID,
		UserID:       r.UserID,
		ShowID:       r.ShowID,
		MovieTitle:   r.MovieTitle,
		Amount:       r.Amount,
		Seats:        r.BookedSeats,
		IsPaid:       r.IsPaid,
		PaymentLink:  r.PaymentLink,
		ShowDateTime: r.ShowDateTime,
	}
}

const bookingSummaryQuery = `
	SELECT
	    b.booking_id, b.user_id, b.show_id, m.title AS movie_title, b.amount,
	    b.booked_seats, b.is_paid, b.payment_link, s.show_date_time
	FROM
	    bookings b
	JOIN shows s ON s.show_id = b.show_id
	JOIN movies m ON m.movie_id = s.movie_id
`

// Create reserves the booking's seats and stores the booking with its expiry in one transaction.
// The reservation is a single conditional update: it fails with entities.ErrSeatsUnavailable
// when any of the seats is already held, so two concurrent requests for a seat can't both win.
func (r BookingRepository) Create(ctx context.Context, booking entities.Booking, holdUntil time.Time) error {
	holders := make(entities.OccupiedSeats, len(booking.BookedSeats))
	for _, seat := range booking.BookedSeats {
		holders[seat] = booking.UserID
	}

	payload, err := json.Marshal(holders)
	if err != nil {
		return fmt.Errorf("could not marshal seats: %w", err)
	}

	return updateInTx(
		ctx,
		r.db.Conn,
		sql.LevelReadCommitted,
		func(ctx context.Context, tx *sqlx.Tx) error {
			res, err := tx.ExecContext(ctx, `
				UPDATE
				    shows
				SET
				    occupied_seats = occupied_seats || $2::jsonb
				WHERE
				    show_id = $1 AND NOT (occupied_seats ?| $3::text[])
			`, booking.ShowID, string(payload), pq.Array(booking.BookedSeats))
			if err != nil {
				return fmt.Errorf("could not reserve seats: %w", err)
			}

			reserved, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("could not check reserved seats: %w", err)
			}
			if reserved == 0 {
				return r.reservationFailure(ctx, tx, booking.ShowID)
			}

			_, err = tx.ExecContext(ctx, `
				INSERT INTO
				    bookings (booking_id, user_id, show_id, amount, booked_seats, created_at)
				VALUES
				    ($1, $2, $3, $4, $5, $6)
			`, booking.BookingID, booking.UserID, booking.ShowID, booking.Amount, pq.Array(booking.BookedSeats), booking.CreatedAt)
			if err != nil {
				return fmt.Errorf("could not add booking: %w", err)
			}

			_, err = tx.ExecContext(ctx, `
				INSERT INTO
				    booking_expirations (booking_id, due_at)
				VALUES
				    ($1, $2)
			`, booking.BookingID, holdUntil)
			if err != nil {
				return fmt.Errorf("could not schedule booking expiry: %w", err)
			}

			return publishInTx(ctx, tx, entities.BookingCreated_v1{
				Header:    entities.NewEventHeaderWithIdempotencyKey(booking.BookingID.String()),
				BookingID: booking.BookingID,
				UserID:    booking.UserID,
				ShowID:    booking.ShowID,
				Seats:     booking.BookedSeats,
				Amount:    booking.Amount,
				HeldUntil: holdUntil,
			})
		},
	)
}

func (r BookingRepository) reservationFailure(ctx context.Context, tx *sqlx.Tx, showID uuid.UUID) error {
	var exists bool
	err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM shows WHERE show_id = $1)`, showID)
	if err != nil {
		return fmt.Errorf("could not check show: %w", err)
	}
	if !exists {
		return entities.ErrShowNotFound
	}

	return entities.ErrSeatsUnavailable
}

func (r BookingRepository) SetPaymentSession(ctx context.Context, bookingID uuid.UUID, session entities.PaymentSession) error {
	res, err := r.db.Conn.ExecContext(ctx, `
		UPDATE
		    bookings
		SET
		    payment_session_id = $2, payment_link = $3, updated_at = now()
		WHERE
		    booking_id = $1 AND NOT is_paid
	`, bookingID, session.SessionID, session.URL)
	if err != nil {
		return fmt.Errorf("could not store payment session: %w", err)
	}

	updated, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not check stored payment session: %w", err)
	}
	if updated == 0 {
		return entities.ErrBookingNotFound
	}

	return nil
}

func (r BookingRepository) ByID(ctx context.Context, bookingID uuid.UUID) (entities.Booking, error) {
	var row bookingRow
	err := r.db.Conn.GetContext(ctx, &row, `
		SELECT
		    booking_id, user_id, show_id, amount, booked_seats, is_paid,
		    payment_link, payment_session_id, created_at
		FROM
		    bookings
		WHERE
		    booking_id = $1
	`, bookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Booking{}, entities.ErrBookingNotFound
	}
	if err != nil {
		return entities.Booking{}, fmt.Errorf("could not get booking: %w", err)
	}

	return row.toEntity(), nil
}

// MarkPaid moves the booking from unpaid to paid. It reports false when the booking was already paid.
// The confirmation event is stored in the outbox only when this call made the transition.
func (r BookingRepository) MarkPaid(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	transitioned := false

	err := updateInTx(
		ctx,
		r.db.Conn,
		sql.LevelReadCommitted,
		func(ctx context.Context, tx *sqlx.Tx) error {
			var paid struct {
				UserID string    `db:"user_id"`
				ShowID uuid.UUID `db:"show_id"`
			}
			err := tx.GetContext(ctx, &paid, `
				UPDATE
				    bookings
				SET
				    is_paid = true, payment_link = '', updated_at = now()
				WHERE
				    booking_id = $1 AND NOT is_paid
				RETURNING
				    user_id, show_id
			`, bookingID)
			if errors.Is(err, sql.ErrNoRows) {
				var exists bool
				err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM bookings WHERE booking_id = $1)`, bookingID)
				if err != nil {
					return fmt.Errorf("could not check booking: %w", err)
				}
				if !exists {
					return entities.ErrBookingNotFound
				}
				return nil
			}
			if err != nil {
				return fmt.Errorf("could not mark booking as paid: %w", err)
			}

			_, err = tx.ExecContext(ctx, `DELETE FROM booking_expirations WHERE booking_id = $1`, bookingID)
			if err != nil {
				return fmt.Errorf("could not cancel booking expiry: %w", err)
			}

			transitioned = true

			return publishInTx(ctx, tx, entities.BookingConfirmed_v1{
				Header:    entities.NewEventHeaderWithIdempotencyKey(bookingID.String()),
				BookingID: bookingID,
				UserID:    paid.UserID,
				ShowID:    paid.ShowID,
			})
		},
	)
	if err != nil {
		return false, err
	}

	return transitioned, nil
}

// Reclaim deletes the booking if it is still unpaid and releases the seats it holds.
// It reports false when there was nothing to reclaim (booking paid or already gone).
func (r BookingRepository) Reclaim(ctx context.Context, bookingID uuid.UUID) (entities.ReclaimedBooking, bool, error) {
	var reclaimed entities.ReclaimedBooking
	found := false

	err := updateInTx(
		ctx,
		r.db.Conn,
		sql.LevelReadCommitted,
		func(ctx context.Context, tx *sqlx.Tx) error {
			_, err := tx.ExecContext(ctx, `DELETE FROM booking_expirations WHERE booking_id = $1`, bookingID)
			if err != nil {
				return fmt.Errorf("could not delete booking expiry: %w", err)
			}

			var deleted struct {
				ShowID           uuid.UUID      `db:"show_id"`
				UserID           string         `db:"user_id"`
				BookedSeats      pq.StringArray `db:"booked_seats"`
				PaymentSessionID string         `db:"payment_session_id"`
			}
			err = tx.GetContext(ctx, &deleted, `
				DELETE FROM
				    bookings
				WHERE
				    booking_id = $1 AND NOT is_paid
				RETURNING
				    show_id, user_id, booked_seats, payment_session_id
			`, bookingID)
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("could not delete booking: %w", err)
			}

			released, err := r.releaseSeats(ctx, tx, deleted.ShowID, deleted.UserID, deleted.BookedSeats)
			if err != nil {
				return err
			}

			found = true
			reclaimed = entities.ReclaimedBooking{
				BookingID:        bookingID,
				ShowID:           deleted.ShowID,
				UserID:           deleted.UserID,
				ReleasedSeats:    released,
				PaymentSessionID: deleted.PaymentSessionID,
			}

			return publishInTx(ctx, tx, entities.BookingReclaimed_v1{
				Header:        entities.NewEventHeaderWithIdempotencyKey(bookingID.String()),
				BookingID:     bookingID,
				ShowID:        deleted.ShowID,
				ReleasedSeats: released,
			})
		},
	)
	if err != nil {
		return entities.ReclaimedBooking{}, false, err
	}

	return reclaimed, found, nil
}

// releaseSeats removes from the show only the seats that are still held by userID.
func (r BookingRepository) releaseSeats(ctx context.Context, tx *sqlx.Tx, showID uuid.UUID, userID string, seats []string) ([]string, error) {
	var payload []byte
	err := tx.GetContext(ctx, &payload, `SELECT occupied_seats FROM shows WHERE show_id = $1 FOR UPDATE`, showID)
	if err != nil {
		return nil, fmt.Errorf("could not lock show %s: %w", showID, err)
	}

	occupied := entities.OccupiedSeats{}
	if err := json.Unmarshal(payload, &occupied); err != nil {
		return nil, fmt.Errorf("could not unmarshal occupied seats: %w", err)
	}

	released := make([]string, 0, len(seats))
	for _, seat := range seats {
		if occupied[seat] == userID {
			released = append(released, seat)
		}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE
		    shows
		SET
		    occupied_seats = occupied_seats - $2::text[]
		WHERE
		    show_id = $1
	`, showID, pq.Array(released))
	if err != nil {
		return nil, fmt.Errorf("could not release seats: %w", err)
	}

	return released, nil
}

func (r BookingRepository) Summary(ctx context.Context, bookingID uuid.UUID) (entities.BookingSummary, error) {
	var row bookingSummaryRow
	err := r.db.Conn.GetContext(ctx, &row, bookingSummaryQuery+`WHERE b.booking_id = $1`, bookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.BookingSummary{}, entities.ErrBookingNotFound
	}
	if err != nil {
		return entities.BookingSummary{}, fmt.Errorf("could not get booking summary: %w", err)
	}

	return row.toEntity(), nil
}

func (r BookingRepository) ForUser(ctx context.Context, userID string) ([]entities.BookingSummary, error) {
	var rows []bookingSummaryRow
	err := r.db.Conn.SelectContext(ctx, &rows, bookingSummaryQuery+`WHERE b.user_id = $1 ORDER BY b.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("could not get bookings of user %s: %w", userID, err)
	}

	summaries := make([]entities.BookingSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, row.toEntity())
	}

	return summaries, nil
}

func (r BookingRepository) PaidSeatHolders(ctx context.Context, showID uuid.UUID) ([]string, error) {
	var userIDs []string
	err := r.db.Conn.SelectContext(ctx, &userIDs, `
		SELECT DISTINCT
		    user_id
		FROM
		    bookings
		WHERE
		    show_id = $1 AND is_paid
		ORDER BY
		    user_id
	`, showID)
	if err != nil {
		return nil, fmt.Errorf("could not get seat holders of show %s: %w", showID, err)
	}

	return userIDs, nil
}
