package http

import (
	"net/http"

	"quickshow/entities"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type PostBookingRequest struct {
	ShowID        string   `json:"showId"`
	SelectedSeats []string `json:"selectedSeats"`
}

func (h Handler) PostBooking(c echo.Context) error {
	var req PostBookingRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	showID, err := uuid.Parse(req.ShowID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid showId")
	}

	url, err := h.orchestrator.Create(c.Request().Context(), userID(c), showID, req.SelectedSeats)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"url":     url,
	})
}

type PostVerifyPaymentRequest struct {
	SessionID string `json:"sessionId"`
}

// PostVerifyPayment is called by the frontend when the user returns from checkout.
// On failure the user is sent back to their bookings list.
func (h Handler) PostVerifyPayment(c echo.Context) error {
	var req PostVerifyPaymentRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	if req.SessionID == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Message:  "sessionId is required",
			Redirect: "/my-bookings",
		})
	}

	verification, err := h.orchestrator.VerifyPayment(c.Request().Context(), req.SessionID)
	if err != nil {
		body := errorBody(c, err)
		body.Redirect = "/my-bookings"
		return c.JSON(errorStatus(err), body)
	}

	if verification.Booking.UserID != userID(c) {
		return c.JSON(http.StatusNotFound, errorResponse{
			Message:  entities.ErrBookingNotFound.Error(),
			Redirect: "/my-bookings",
		})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":       true,
		"booking":       verification.Booking,
		"paymentStatus": verification.PaymentStatus,
	})
}

func (h Handler) GetOccupiedSeats(c echo.Context) error {
	showID, err := uuid.Parse(c.Param("showId"))
	if err != nil {
		return respondError(c, entities.ErrShowNotFound)
	}

	occupied, err := h.occupiedSeats.OccupiedSeats(c.Request().Context(), showID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":       true,
		"occupiedSeats": occupied,
	})
}

func (h Handler) GetUserBookings(c echo.Context) error {
	bookings, err := h.bookingRepo.ForUser(c.Request().Context(), userID(c))
	if err != nil {
		return respondError(c, err)
	}

	if bookings == nil {
		bookings = []entities.BookingSummary{}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":  true,
		"bookings": bookings,
	})
}

func (h Handler) GetIsAdmin(c echo.Context) error {
	role, _ := c.Get(contextRole).(string)

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"isAdmin": role == h.adminRole,
	})
}
