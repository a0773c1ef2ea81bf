package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"quickshow/entities"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type PostShowsRequest struct {
	MovieID    string                `json:"movieId"`
	ShowPrice  decimal.Decimal       `json:"showPrice"`
	ShowsInput []entities.ShowsInput `json:"showsInput"`
}

func (h Handler) PostShows(c echo.Context) error {
	var req PostShowsRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	if req.MovieID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "movieId is required")
	}
	if req.ShowPrice.IsNegative() {
		return echo.NewHTTPError(http.StatusBadRequest, "showPrice must not be negative")
	}

	shows, err := showsFromInput(req.MovieID, req.ShowPrice, req.ShowsInput)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()

	movie, err := h.movieRepo.MovieByID(ctx, req.MovieID)
	if errors.Is(err, entities.ErrMovieNotFound) {
		movie, err = h.movieCatalog.MovieByID(ctx, req.MovieID)
	}
	if err != nil {
		return respondError(c, err)
	}

	if err := h.showRepo.AddShows(ctx, movie, shows); err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"success": true,
		"message": "Show added successfully.",
	})
}

func showsFromInput(movieID string, price decimal.Decimal, input []entities.ShowsInput) ([]entities.Show, error) {
	var shows []entities.Show
	for _, day := range input {
		for _, at := range day.Time {
			showDateTime, err := time.ParseInLocation("2006-01-02T15:04", day.Date+"T"+at, time.UTC)
			if err != nil {
				return nil, fmt.Errorf("invalid show date %q time %q", day.Date, at)
			}

			shows = append(shows, entities.Show{
				ShowID:        uuid.New(),
				MovieID:       movieID,
				ShowDateTime:  showDateTime,
				ShowPrice:     price,
				OccupiedSeats: entities.OccupiedSeats{},
			})
		}
	}

	if len(shows) == 0 {
		return nil, errors.New("at least one show date and time is required")
	}

	return shows, nil
}

func (h Handler) GetShows(c echo.Context) error {
	movies, err := h.movieRepo.UpcomingMovies(c.Request().Context(), h.now())
	if err != nil {
		return respondError(c, err)
	}

	if movies == nil {
		movies = []entities.Movie{}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"shows":   movies,
	})
}

func (h Handler) GetShow(c echo.Context) error {
	movieID := c.Param("movieId")
	ctx := c.Request().Context()

	movie, err := h.movieRepo.MovieByID(ctx, movieID)
	if errors.Is(err, entities.ErrMovieNotFound) {
		return respondError(c, fmt.Errorf("%w: no shows for movie %s", entities.ErrShowNotFound, movieID))
	}
	if err != nil {
		return respondError(c, err)
	}

	shows, err := h.showRepo.UpcomingShowsForMovie(ctx, movieID, h.now())
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":  true,
		"movie":    movie,
		"dateTime": entities.GroupShowsByDate(shows),
	})
}
