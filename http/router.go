package http

import (
	"net/http"
	"time"

	observability "quickshow/trace"

	libHttp "github.com/ThreeDotsLabs/go-event-driven/common/http"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"golang.org/x/time/rate"
)

type RouterConfig struct {
	JWTSecret             string
	AdminRole             string
	IdentityWebhookSecret string
	BookingRateLimit      rate.Limit
	BookingRateBurst      int
}

func NewHttpRouter(
	config RouterConfig,
	orchestrator Orchestrator,
	occupiedSeats OccupiedSeatsReader,
	showRepo ShowRepository,
	movieRepo MovieRepository,
	movieCatalog MovieCatalog,
	bookingRepo BookingRepository,
	payments PaymentWebhookParser,
	eventBus EventBus,
) *echo.Echo {
	e := libHttp.NewEcho()

	e.Use(otelecho.Middleware(observability.ServiceName))

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	handler := Handler{
		orchestrator:          orchestrator,
		occupiedSeats:         occupiedSeats,
		showRepo:              showRepo,
		movieRepo:             movieRepo,
		movieCatalog:          movieCatalog,
		bookingRepo:           bookingRepo,
		payments:              payments,
		eventBus:              eventBus,
		adminRole:             config.AdminRole,
		identityWebhookSecret: config.IdentityWebhookSecret,
		now:                   time.Now,
	}

	authenticated := JWTAuth(config.JWTSecret)
	admin := RequireRole(config.AdminRole)
	bookingLimit := NewUserRateLimiter(config.BookingRateLimit, config.BookingRateBurst)

	api := e.Group("/api")

	api.POST("/stripe", handler.PostStripeWebhook)
	api.POST("/identity/webhook", handler.PostIdentityWebhook)

	api.GET("/show/all", handler.GetShows)
	api.GET("/show/:movieId", handler.GetShow)
	api.POST("/show/add", handler.PostShows, authenticated, admin)

	api.GET("/booking/occupied-seats/:showId", handler.GetOccupiedSeats)
	api.POST("/booking/create", handler.PostBooking, authenticated, bookingLimit.Middleware)
	api.POST("/booking/verify-payment", handler.PostVerifyPayment, authenticated)

	api.GET("/user/bookings", handler.GetUserBookings, authenticated)

	api.GET("/admin/is-admin", handler.GetIsAdmin, authenticated)

	return e
}
