package service_test

import (
	"context"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"quickshow/api"
	"quickshow/config"
	"quickshow/db"
	"quickshow/entities"
	"quickshow/message"
	"quickshow/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponent(t *testing.T) {
	postgresURL := os.Getenv("POSTGRES_URL")
	redisAddr := os.Getenv("REDIS_ADDR")
	if postgresURL == "" || redisAddr == "" {
		t.Skip("POSTGRES_URL and REDIS_ADDR are required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn, err := db.NewDBConn(postgresURL)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.MigrateSchema(ctx))

	rdb := message.NewRedisClient(redisAddr)
	defer rdb.Close()

	payments := api.NewPaymentsMock()
	mailer := &api.MailerMock{}

	cfg := config.Config{
		HTTPAddr:              ":8080",
		JWTSecret:             jwtSecret,
		AdminRole:             "admin",
		IdentityWebhookSecret: identitySecret,
		SeatHoldTTL:           3 * time.Second,
		PaymentSessionTTL:     30 * time.Minute,
		ExpiryPollInterval:    200 * time.Millisecond,
		ReminderInterval:      time.Hour,
		ReminderLead:          8 * time.Hour,
		BookingRateLimit:      100,
		BookingRateBurst:      100,
		OccupancyCacheTTL:     30 * time.Second,
		MockExternals:         true,
	}

	svc, err := service.New(cfg, rdb, &conn, service.Externals{
		Payments: payments,
		Mailer:   mailer,
		Movies:   api.NewMoviesMock(),
	})
	require.NoError(t, err)

	runErr := make(chan error, 1)
	go func() {
		runErr <- svc.Run(ctx)
	}()
	defer func() {
		cancel()
		assert.NoError(t, <-runErr)
	}()
	waitForHttpServer(t)

	showID := uuid.New()
	err = db.NewShowRepository(&conn).AddShows(ctx, entities.Movie{ID: "550", Title: "Fight Club"}, []entities.Show{{
		ShowID:        showID,
		MovieID:       "550",
		ShowDateTime:  time.Now().Add(72 * time.Hour).UTC(),
		ShowPrice:     decimal.RequireFromString("10.00"),
		OccupiedSeats: entities.OccupiedSeats{},
	}})
	require.NoError(t, err)

	buyer := "user_" + uuid.NewString()
	buyerEmail := buyer + "@example.com"
	syncUser(t, buyer, "Tyler", buyerEmail)

	users := db.NewUserRepository(&conn)
	require.EventuallyWithT(t, func(t *assert.CollectT) {
		_, err := users.UserByID(ctx, buyer)
		assert.NoError(t, err)
	}, 10*time.Second, 100*time.Millisecond)

	t.Run("paid booking keeps seats and is confirmed once", func(t *testing.T) {
		status, created := createBooking(t, buyer, showID.String(), "A1", "A2")
		require.Equal(t, http.StatusOK, status, created.Message)
		sessionID := sessionIDFromURL(t, created.URL)

		require.True(t, payments.Pay(sessionID))

		status, first := verifyPayment(t, buyer, sessionID)
		require.Equal(t, http.StatusOK, status, first.Message)
		assert.True(t, first.Booking.IsPaid)
		assert.Equal(t, []string{"A1", "A2"}, first.Booking.Seats)
		assert.True(t, decimal.RequireFromString("20.00").Equal(decimal.RequireFromString(first.Booking.Amount)))

		status, second := verifyPayment(t, buyer, sessionID)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, first, second)

		assert.EventuallyWithT(t, func(t *assert.CollectT) {
			assert.Equal(t, 1, mailer.SentTo(buyerEmail, entities.EmailBookingConfirmation))
		}, 10*time.Second, 100*time.Millisecond)

		assert.Equal(t, map[string]string{"A1": buyer, "A2": buyer}, pick(occupiedSeats(t, showID.String()), "A1", "A2"))
	})

	t.Run("occupied seat is rejected", func(t *testing.T) {
		status, resp := createBooking(t, "user_"+uuid.NewString(), showID.String(), "A1")
		assert.Equal(t, http.StatusConflict, status)
		assert.False(t, resp.Success)
	})

	t.Run("concurrent requests for the same seat", func(t *testing.T) {
		var wg sync.WaitGroup
		statuses := make([]int, 2)
		for i := range statuses {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				statuses[i], _ = createBooking(t, "user_"+uuid.NewString(), showID.String(), "C1")
			}(i)
		}
		wg.Wait()

		assert.ElementsMatch(t, []int{http.StatusOK, http.StatusConflict}, statuses)
	})

	t.Run("unpaid booking is reclaimed", func(t *testing.T) {
		status, created := createBooking(t, buyer, showID.String(), "B1", "B2")
		require.Equal(t, http.StatusOK, status, created.Message)
		sessionID := sessionIDFromURL(t, created.URL)

		assert.Contains(t, occupiedSeats(t, showID.String()), "B1")

		require.EventuallyWithT(t, func(t *assert.CollectT) {
			seats, err := fetchOccupiedSeats(showID.String())
			if !assert.NoError(t, err) {
				return
			}
			assert.NotContains(t, seats, "B1")
			assert.NotContains(t, seats, "B2")
		}, 20*time.Second, 200*time.Millisecond)

		assert.True(t, payments.Expired(sessionID))

		status, resp := verifyPayment(t, buyer, sessionID)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "/my-bookings", resp.Redirect)

		status, _ = createBooking(t, "user_"+uuid.NewString(), showID.String(), "B1")
		assert.Equal(t, http.StatusOK, status)
	})
}

func sessionIDFromURL(t *testing.T, url string) string {
	t.Helper()

	i := strings.LastIndex(url, "/")
	require.True(t, i >= 0, "unexpected payment url %s", url)

	return url[i+1:]
}

func pick(seats map[string]string, labels ...string) map[string]string {
	picked := map[string]string{}
	for _, label := range labels {
		if holder, ok := seats[label]; ok {
			picked[label] = holder
		}
	}
	return picked
}
