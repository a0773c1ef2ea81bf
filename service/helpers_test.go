package service_test

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lithammer/shortuuid/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	apiURL         = "http://localhost:8080"
	jwtSecret      = "component-test-jwt-secret"
	identitySecret = "component-test-identity-secret"
)

type BookingSummary struct {
	ID     string   `json:"id"`
	Amount string   `json:"amount"`
	Seats  []string `json:"seats"`
	IsPaid bool     `json:"isPaid"`
}

type VerifyPaymentResponse struct {
	Success       bool           `json:"success"`
	Message       string         `json:"message"`
	Redirect      string         `json:"redirect"`
	Booking       BookingSummary `json:"booking"`
	PaymentStatus string         `json:"paymentStatus"`
}

type CreateBookingResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	URL     string `json:"url"`
}

type OccupiedSeatsResponse struct {
	Success       bool              `json:"success"`
	OccupiedSeats map[string]string `json:"occupiedSeats"`
}

func userToken(t *testing.T, userID string) string {
	t.Helper()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(jwtSecret))
	require.NoError(t, err)

	return signed
}

func sendRequest(t *testing.T, method, path, userID string, body any, headers map[string]string, target any) int {
	t.Helper()

	var payload []byte
	switch b := body.(type) {
	case nil:
	case []byte:
		payload = b
	default:
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req, err := http.NewRequest(method, apiURL+path, bytes.NewBuffer(payload))
	require.NoError(t, err)

	req.Header.Set("Correlation-ID", shortuuid.New())
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+userToken(t, userID))
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	if target != nil && len(respBody) > 0 {
		require.NoError(t, json.Unmarshal(respBody, target), string(respBody))
	}

	return resp.StatusCode
}

func createBooking(t *testing.T, userID, showID string, seats ...string) (int, CreateBookingResponse) {
	t.Helper()

	var resp CreateBookingResponse
	status := sendRequest(t, http.MethodPost, "/api/booking/create", userID, map[string]any{
		"showId":        showID,
		"selectedSeats": seats,
	}, nil, &resp)

	return status, resp
}

func verifyPayment(t *testing.T, userID, sessionID string) (int, VerifyPaymentResponse) {
	t.Helper()

	var resp VerifyPaymentResponse
	status := sendRequest(t, http.MethodPost, "/api/booking/verify-payment", userID, map[string]any{
		"sessionId": sessionID,
	}, nil, &resp)

	return status, resp
}

func occupiedSeats(t *testing.T, showID string) map[string]string {
	t.Helper()

	seats, err := fetchOccupiedSeats(showID)
	require.NoError(t, err)

	return seats
}

func fetchOccupiedSeats(showID string) (map[string]string, error) {
	resp, err := http.Get(apiURL + "/api/booking/occupied-seats/" + showID)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body OccupiedSeatsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	return body.OccupiedSeats, nil
}

func syncUser(t *testing.T, userID, name, email string) {
	t.Helper()

	payload, err := json.Marshal(map[string]any{
		"type": "user.created",
		"data": map[string]any{
			"id":              userID,
			"first_name":      name,
			"email_addresses": []map[string]string{{"email_address": email}},
		},
	})
	require.NoError(t, err)

	mac := hmac.New(sha256.New, []byte(identitySecret))
	mac.Write(payload)

	status := sendRequest(t, http.MethodPost, "/api/identity/webhook", "", payload, map[string]string{
		"X-Webhook-Signature": hex.EncodeToString(mac.Sum(nil)),
	}, nil)
	require.Equal(t, http.StatusOK, status)
}

func waitForHttpServer(t *testing.T) {
	t.Helper()

	require.EventuallyWithT(
		t,
		func(t *assert.CollectT) {
			resp, err := http.Get(apiURL + "/health")
			if !assert.NoError(t, err) {
				return
			}
			defer resp.Body.Close()

			if assert.Less(t, resp.StatusCode, 300, "API not ready, http status: %d", resp.StatusCode) {
				return
			}
		},
		time.Second*10,
		time.Millisecond*50,
	)
}
