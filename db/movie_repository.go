package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"quickshow/entities"
)

type MovieRepository struct {
	db *DB
}

func NewMovieRepository(db *DB) MovieRepository {
	if db == nil {
		panic("db is nil")
	}

	return MovieRepository{
		db: db,
	}
}

func (r MovieRepository) MovieByID(ctx context.Context, movieID string) (entities.Movie, error) {
	var payload []byte
	err := r.db.Conn.GetContext(ctx, &payload, `
		SELECT
		    payload
		FROM
		    movies
		WHERE
		    movie_id = $1
	`, movieID)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.Movie{}, entities.ErrMovieNotFound
	}
	if err != nil {
		return entities.Movie{}, fmt.Errorf("could not get movie: %w", err)
	}

	return unmarshalMovie(payload)
}

// UpcomingMovies returns movies having at least one show after from, ordered by their earliest show.
func (r MovieRepository) UpcomingMovies(ctx context.Context, from time.Time) ([]entities.Movie, error) {
	var payloads [][]byte
	err := r.db.Conn.SelectContext(ctx, &payloads, `
		SELECT
		    m.payload
		FROM
		    movies m
		JOIN (
		    SELECT movie_id, MIN(show_date_time) AS first_show
		    FROM shows
		    WHERE show_date_time >= $1
		    GROUP BY movie_id
		) s ON s.movie_id = m.movie_id
		ORDER BY
		    s.first_show
	`, from)
	if err != nil {
		return nil, fmt.Errorf("could not get upcoming movies: %w", err)
	}

	movies := make([]entities.Movie, 0, len(payloads))
	for _, payload := range payloads {
		movie, err := unmarshalMovie(payload)
		if err != nil {
			return nil, err
		}
		movies = append(movies, movie)
	}

	return movies, nil
}

func unmarshalMovie(payload []byte) (entities.Movie, error) {
	var movie entities.Movie
	if err := json.Unmarshal(payload, &movie); err != nil {
		return entities.Movie{}, fmt.Errorf("could not unmarshal movie: %w", err)
	}

	return movie, nil
}
