package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"quickshow/entities"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
	FrontendURL   string
}

type StripeGateway struct {
	// we are not mocking this client: the gateway itself is swapped for PaymentsMock
	stripe        *client.API
	currency      string
	webhookSecret string
	successURL    string
	cancelURL     string
}

func NewStripeGateway(config StripeConfig) (*StripeGateway, error) {
	if config.SecretKey == "" {
		return nil, errors.New("stripe secret key is required")
	}

	successURL, err := url.JoinPath(config.FrontendURL, "loading", "my-bookings")
	if err != nil {
		return nil, fmt.Errorf("invalid frontend url: %w", err)
	}
	cancelURL, err := url.JoinPath(config.FrontendURL, "my-bookings")
	if err != nil {
		return nil, fmt.Errorf("invalid frontend url: %w", err)
	}

	sc := &client.API{}
	sc.Init(config.SecretKey, nil)

	return &StripeGateway{
		stripe:        sc,
		currency:      config.Currency,
		webhookSecret: config.WebhookSecret,
		// Stripe substitutes the placeholder, the frontend passes it to verify-payment
		successURL: successURL + "?session_id={CHECKOUT_SESSION_ID}",
		cancelURL:  cancelURL,
	}, nil
}

func (g *StripeGateway) CreateSession(ctx context.Context, request entities.PaymentSessionRequest) (entities.PaymentSession, error) {
	params := &stripe.CheckoutSessionParams{
		SuccessURL: stripe.String(g.successURL),
		CancelURL:  stripe.String(g.cancelURL),
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(g.currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(request.Description),
					},
					UnitAmount: stripe.Int64(request.Amount.Shift(2).Round(0).IntPart()),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: map[string]string{
			entities.PaymentMetadataBookingID: request.BookingID.String(),
		},
		ExpiresAt: stripe.Int64(request.ExpiresAt.Unix()),
	}
	params.Context = ctx

	s, err := g.stripe.CheckoutSessions.New(params)
	if err != nil {
		return entities.PaymentSession{}, fmt.Errorf("could not create checkout session for booking %s: %w", request.BookingID, err)
	}

	return entities.PaymentSession{
		SessionID: s.ID,
		URL:       s.URL,
	}, nil
}

func (g *StripeGateway) GetStatus(ctx context.Context, sessionID string) (entities.PaymentStatus, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := g.stripe.CheckoutSessions.Get(sessionID, params)
	if isResourceMissing(err) {
		return entities.PaymentStatus{}, fmt.Errorf("%w: %s", entities.ErrInvalidSession, sessionID)
	}
	if err != nil {
		return entities.PaymentStatus{}, fmt.Errorf("could not get checkout session %s: %w", sessionID, err)
	}

	return entities.PaymentStatus{
		SessionID: s.ID,
		BookingID: s.Metadata[entities.PaymentMetadataBookingID],
		Status:    string(s.PaymentStatus),
	}, nil
}

func (g *StripeGateway) ExpireSession(ctx context.Context, sessionID string) error {
	params := &stripe.CheckoutSessionExpireParams{}
	params.Context = ctx

	_, err := g.stripe.CheckoutSessions.Expire(sessionID, params)
	if err != nil && !isResourceMissing(err) {
		return fmt.Errorf("could not expire checkout session %s: %w", sessionID, err)
	}

	return nil
}

// ParseWebhook verifies the Stripe-Signature header and returns the id of a completed
// checkout session. Other event types yield an empty id.
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (string, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", entities.ErrInvalidSignature, err)
	}

	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		return "", nil
	}

	var s stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
		return "", fmt.Errorf("could not unmarshal checkout session: %w", err)
	}

	return s.ID, nil
}

func isResourceMissing(err error) bool {
	var stripeErr *stripe.Error
	return errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeResourceMissing
}
