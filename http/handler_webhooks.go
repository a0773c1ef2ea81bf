package http

import (
	"crypto/hmac"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"quickshow/entities"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/labstack/echo/v4"
	"github.com/zpmep/hmacutil"
)

const maxWebhookBodySize = 1 << 16

// PostStripeWebhook confirms payment of completed checkout sessions. Sessions of bookings
// that no longer exist are acknowledged, so the processor does not redeliver them.
func (h Handler) PostStripeWebhook(c echo.Context) error {
	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBodySize))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not read body")
	}

	sessionID, err := h.payments.ParseWebhook(payload, c.Request().Header.Get("Stripe-Signature"))
	if err != nil {
		return respondError(c, err)
	}
	if sessionID == "" {
		return c.JSON(http.StatusOK, map[string]any{"received": true})
	}

	ctx := c.Request().Context()
	logger := log.FromContext(ctx).WithField("session_id", sessionID)

	_, err = h.orchestrator.VerifyPayment(ctx, sessionID)
	if errors.Is(err, entities.ErrBookingNotFound) || errors.Is(err, entities.ErrInvalidSession) {
		logger.WithError(err).Warn("Payment for unknown or reclaimed booking")
		return c.JSON(http.StatusOK, map[string]any{"received": true})
	}
	if err != nil {
		logger.WithError(err).Error("Could not verify payment from webhook")
		return c.JSON(http.StatusInternalServerError, errorResponse{Message: "could not verify payment"})
	}

	return c.JSON(http.StatusOK, map[string]any{"received": true})
}

type identityWebhook struct {
	Type string `json:"type"`
	Data struct {
		ID             string `json:"id"`
		FirstName      string `json:"first_name"`
		LastName       string `json:"last_name"`
		ImageURL       string `json:"image_url"`
		EmailAddresses []struct {
			EmailAddress string `json:"email_address"`
		} `json:"email_addresses"`
	} `json:"data"`
}

// PostIdentityWebhook mirrors users of the identity provider. The body must be signed with
// HMAC-SHA256 using the shared secret, hex encoded in X-Webhook-Signature.
func (h Handler) PostIdentityWebhook(c echo.Context) error {
	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBodySize))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not read body")
	}

	if !validSignature(payload, c.Request().Header.Get("X-Webhook-Signature"), h.identityWebhookSecret) {
		return respondError(c, entities.ErrInvalidSignature)
	}

	var hook identityWebhook
	if err := json.Unmarshal(payload, &hook); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if hook.Data.ID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing user id")
	}

	var event entities.Event
	switch hook.Type {
	case "user.created", "user.updated":
		user := entities.User{
			UserID: hook.Data.ID,
			Name:   strings.TrimSpace(hook.Data.FirstName + " " + hook.Data.LastName),
			Image:  hook.Data.ImageURL,
		}
		if len(hook.Data.EmailAddresses) > 0 {
			user.Email = hook.Data.EmailAddresses[0].EmailAddress
		}
		event = entities.UserUpserted_v1{
			Header: entities.NewEventHeader(),
			User:   user,
		}
	case "user.deleted":
		event = entities.UserDeleted_v1{
			Header: entities.NewEventHeader(),
			UserID: hook.Data.ID,
		}
	default:
		return c.JSON(http.StatusOK, map[string]any{"received": true})
	}

	if err := h.eventBus.Publish(c.Request().Context(), event); err != nil {
		return fmt.Errorf("could not publish %T: %w", event, err)
	}

	return c.JSON(http.StatusOK, map[string]any{"received": true})
}

func validSignature(payload []byte, signature, secret string) bool {
	if secret == "" || signature == "" {
		return false
	}

	expected := hmacutil.HexStringEncode(hmacutil.SHA256, secret, string(payload))

	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}
