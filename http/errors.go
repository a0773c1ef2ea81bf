package http

import (
	"errors"
	"net/http"

	"quickshow/entities"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/labstack/echo/v4"
)

type errorResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Redirect string `json:"redirect,omitempty"`
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, entities.ErrSeatsUnavailable):
		return http.StatusConflict
	case errors.Is(err, entities.ErrShowNotFound),
		errors.Is(err, entities.ErrBookingNotFound),
		errors.Is(err, entities.ErrMovieNotFound):
		return http.StatusNotFound
	case errors.Is(err, entities.ErrInvalidSession),
		errors.Is(err, entities.ErrNoSeatsSelected),
		errors.Is(err, entities.ErrInvalidSignature):
		return http.StatusBadRequest
	case errors.Is(err, entities.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes a {success: false} body. Details of upstream and unknown
// errors are logged, not returned.
func respondError(c echo.Context, err error) error {
	return c.JSON(errorStatus(err), errorBody(c, err))
}

func errorBody(c echo.Context, err error) errorResponse {
	status := errorStatus(err)

	message := err.Error()
	for _, known := range []error{
		entities.ErrSeatsUnavailable,
		entities.ErrShowNotFound,
		entities.ErrBookingNotFound,
		entities.ErrMovieNotFound,
		entities.ErrInvalidSession,
		entities.ErrNoSeatsSelected,
		entities.ErrInvalidSignature,
	} {
		if errors.Is(err, known) {
			message = known.Error()
			break
		}
	}

	if status >= http.StatusInternalServerError {
		log.FromContext(c.Request().Context()).WithError(err).Error("Request failed")
		message = http.StatusText(status)
	}

	return errorResponse{
		Success: false,
		Message: message,
	}
}
