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
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type ShowRepository struct {
	db *DB
}

func NewShowRepository(db *DB) ShowRepository {
	if db == nil {
		panic("db is nil")
	}

	return ShowRepository{
		db: db,
	}
}

type showRow struct {
	ShowID        uuid.UUID       `db:"show_id"`
	MovieID       string          `db:"movie_id"`
	ShowDateTime  time.Time       `db:"show_date_time"`
	ShowPrice     decimal.Decimal `db:"show_price"`
	OccupiedSeats []byte          `db:"occupied_seats"`
}

func (r showRow) toEntity() (entities.Show, error) {
	occupied := entities.OccupiedSeats{}
	if err := json.Unmarshal(r.OccupiedSeats, &occupied); err != nil {
		return entities.Show{}, fmt.Errorf("could not unmarshal occupied seats of show %s: %w", r.ShowID, err)
	}

	return entities.Show{
		ShowID:        r.ShowID,
		MovieID:       r.MovieID,
		ShowDateTime:  r.ShowDateTime,
		ShowPrice:     r.ShowPrice,
		OccupiedSeats: occupied,
	}, nil
}

func toShows(rows []showRow) ([]entities.Show, error) {
	shows := make([]entities.Show, 0, len(rows))
	for _, row := range rows {
		show, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		shows = append(shows, show)
	}

	return shows, nil
}

// AddShows stores the movie (if not known yet) and its shows, and announces them, in one transaction.
func (r ShowRepository) AddShows(ctx context.Context, movie entities.Movie, shows []entities.Show) error {
	payload, err := json.Marshal(movie)
	if err != nil {
		return fmt.Errorf("could not marshal movie: %w", err)
	}

	return updateInTx(
		ctx,
		r.db.Conn,
		sql.LevelReadCommitted,
		func(ctx context.Context, tx *sqlx.Tx) error {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO
				    movies (movie_id, title, payload)
				VALUES
				    ($1, $2, $3)
				ON CONFLICT (movie_id) DO NOTHING
			`, movie.ID, movie.Title, string(payload))
			if err != nil {
				return fmt.Errorf("could not save movie: %w", err)
			}

			for _, show := range shows {
				_, err := tx.ExecContext(ctx, `
					INSERT INTO
					    shows (show_id, movie_id, show_date_time, show_price)
					VALUES
					    ($1, $2, $3, $4)
				`, show.ShowID, movie.ID, show.ShowDateTime, show.ShowPrice)
				if err != nil {
					return fmt.Errorf("could not save show: %w", err)
				}
			}

			return publishInTx(ctx, tx, entities.ShowsAdded_v1{
				Header:     entities.NewEventHeader(),
				MovieID:    movie.ID,
				MovieTitle: movie.Title,
				ShowIDs: lo.Map(shows, func(show entities.Show, _ int) uuid.UUID {
					return show.ShowID
				}),
			})
		},
	)
}

func (r ShowRepository) ShowByID(ctx context.Context, showID uuid.UUID) (entities.Show, error) {
	var row showRow
	err := r.db.Conn.GetContext(ctx, &row, `
		SELECT
		    show_id, movie_id, show_date_time, show_price, occupied_seats
		FROM
		    shows
		WHERE
		    show_id = $1
	`, showID)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Show{}, entities.ErrShowNotFound
	}
	if err != nil {
		return entities.Show{}, fmt.Errorf("could not get show: %w", err)
	}

	return row.toEntity()
}

func (r ShowRepository) OccupiedSeats(ctx context.Context, showID uuid.UUID) (entities.OccupiedSeats, error) {
	show, err := r.ShowByID(ctx, showID)
	if err != nil {
		return nil, err
	}

	return show.OccupiedSeats, nil
}

func (r ShowRepository) UpcomingShowsForMovie(ctx context.Context, movieID string, from time.Time) ([]entities.Show, error) {
	var rows []showRow
	err := r.db.Conn.SelectContext(ctx, &rows, `
		SELECT
		    show_id, movie_id, show_date_time, show_price, occupied_seats
		FROM
		    shows
		WHERE
		    movie_id = $1 AND show_date_time >= $2
		ORDER BY
		    show_date_time
	`, movieID, from)
	if err != nil {
		return nil, fmt.Errorf("could not get shows of movie %s: %w", movieID, err)
	}

	return toShows(rows)
}

func (r ShowRepository) ShowsStartingBetween(ctx context.Context, from, to time.Time) ([]entities.Show, error) {
	var rows []showRow
	err := r.db.Conn.SelectContext(ctx, &rows, `
		SELECT
		    show_id, movie_id, show_date_time, show_price, occupied_seats
		FROM
		    shows
		WHERE
		    show_date_time > $1 AND show_date_time <= $2
		ORDER BY
		    show_date_time
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("could not get shows starting between %s and %s: %w", from, to, err)
	}

	return toShows(rows)
}
