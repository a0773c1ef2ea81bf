package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr       string
	PostgresURL    string
	RedisAddr      string
	JaegerEndpoint string

	StripeSecretKey     string
	StripeWebhookSecret string
	PaymentCurrency     string
	FrontendURL         string

	JWTSecret             string
	AdminRole             string
	IdentityWebhookSecret string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPSender   string

	TMDBAPIKey  string
	TMDBBaseURL string

	SeatHoldTTL        time.Duration
	PaymentSessionTTL  time.Duration
	ExpiryPollInterval time.Duration
	ReminderInterval   time.Duration
	ReminderLead       time.Duration

	BookingRateLimit  float64
	BookingRateBurst  int
	OccupancyCacheTTL time.Duration

	// MockExternals replaces Stripe, SMTP and TMDB with in-memory mocks.
	MockExternals bool
}

// Load reads the environment, after loading .env files if present.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("could not load %s: %w", f, err)
		}
	}

	e := &env{}

	c := Config{
		HTTPAddr:       e.str("HTTP_ADDR", ":8080"),
		PostgresURL:    e.required("POSTGRES_URL"),
		RedisAddr:      e.required("REDIS_ADDR"),
		JaegerEndpoint: e.str("JAEGER_ENDPOINT", ""),

		PaymentCurrency: e.str("PAYMENT_CURRENCY", "usd"),
		FrontendURL:     e.str("FRONTEND_URL", "http://localhost:5173"),

		JWTSecret:             e.required("JWT_SECRET"),
		AdminRole:             e.str("ADMIN_ROLE", "admin"),
		IdentityWebhookSecret: e.required("IDENTITY_WEBHOOK_SECRET"),

		TMDBBaseURL: e.str("TMDB_BASE_URL", "https://api.themoviedb.org/3"),

		SeatHoldTTL:        e.duration("SEAT_HOLD_TTL", 10*time.Minute),
		PaymentSessionTTL:  e.duration("PAYMENT_SESSION_TTL", 30*time.Minute),
		ExpiryPollInterval: e.duration("EXPIRY_POLL_INTERVAL", 5*time.Second),
		ReminderInterval:   e.duration("REMINDER_INTERVAL", 8*time.Hour),
		ReminderLead:       e.duration("REMINDER_LEAD", 8*time.Hour),

		BookingRateLimit:  e.float("BOOKING_RATE_LIMIT", 1),
		BookingRateBurst:  e.int("BOOKING_RATE_BURST", 5),
		OccupancyCacheTTL: e.duration("OCCUPANCY_CACHE_TTL", 30*time.Second),

		MockExternals: e.bool("MOCK_EXTERNALS", false),
	}

	if c.JaegerEndpoint == "" {
		if gateway := os.Getenv("GATEWAY_ADDR"); gateway != "" {
			c.JaegerEndpoint = gateway + "/jaeger-api/api/traces"
		}
	}

	if !c.MockExternals {
		c.StripeSecretKey = e.required("STRIPE_SECRET_KEY")
		c.StripeWebhookSecret = e.required("STRIPE_WEBHOOK_SECRET")
		c.SMTPHost = e.required("SMTP_HOST")
		c.SMTPPort = e.int("SMTP_PORT", 587)
		c.SMTPUsername = e.str("SMTP_USERNAME", "")
		c.SMTPPassword = e.str("SMTP_PASSWORD", "")
		c.SMTPSender = e.required("SMTP_SENDER")
		c.TMDBAPIKey = e.required("TMDB_API_KEY")
	}

	if c.SeatHoldTTL <= 0 {
		e.errs = append(e.errs, errors.New("SEAT_HOLD_TTL must be positive"))
	}
	if c.ExpiryPollInterval <= 0 {
		e.errs = append(e.errs, errors.New("EXPIRY_POLL_INTERVAL must be positive"))
	}
	if c.ReminderInterval <= 0 {
		e.errs = append(e.errs, errors.New("REMINDER_INTERVAL must be positive"))
	}
	if c.PaymentSessionTTL < c.SeatHoldTTL {
		e.errs = append(e.errs, errors.New("PAYMENT_SESSION_TTL must not be shorter than SEAT_HOLD_TTL"))
	}

	if err := errors.Join(e.errs...); err != nil {
		return Config{}, err
	}

	return c, nil
}

type env struct {
	errs []error
}

func (e *env) required(key string) string {
	v := os.Getenv(key)
	if v == "" {
		e.errs = append(e.errs, fmt.Errorf("missing required env var %s", key))
	}
	return v
}

func (e *env) str(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (e *env) duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("invalid duration for %s: %q", key, v))
	}
	return d
}

func (e *env) int(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("invalid int for %s: %q", key, v))
	}
	return n
}

func (e *env) float(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("invalid number for %s: %q", key, v))
	}
	return f
}

func (e *env) bool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("invalid bool for %s: %q", key, v))
	}
	return b
}
