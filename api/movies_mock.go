package api

import (
	"context"
	"sync"

	"quickshow/entities"
)

type MoviesMock struct {
	lock   sync.Mutex
	Movies map[string]entities.Movie
}

func NewMoviesMock(movies ...entities.Movie) *MoviesMock {
	m := &MoviesMock{Movies: map[string]entities.Movie{}}
	for _, movie := range movies {
		m.Movies[movie.ID] = movie
	}

	return m
}

func (m *MoviesMock) MovieByID(ctx context.Context, movieID string) (entities.Movie, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if movie, ok := m.Movies[movieID]; ok {
		return movie, nil
	}

	return entities.Movie{
		ID:    movieID,
		Title: "Movie " + movieID,
	}, nil
}
