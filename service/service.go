package service

import (
	"context"
	"errors"
	"fmt"
	stdHTTP "net/http"

	"quickshow/api"
	"quickshow/booking"
	"quickshow/cache"
	"quickshow/config"
	"quickshow/db"
	quickshowHttp "quickshow/http"
	"quickshow/message"
	"quickshow/message/command"
	"quickshow/message/event"
	"quickshow/message/outbox"
	"quickshow/message/scheduler"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	watermillMessage "github.com/ThreeDotsLabs/watermill/message"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

func init() {
	log.Init(logrus.InfoLevel)
}

type PaymentGateway interface {
	booking.PaymentGateway
	quickshowHttp.PaymentWebhookParser
}

// Externals are the third-party services the ledger talks to.
type Externals struct {
	Payments PaymentGateway
	Mailer   event.Mailer
	Movies   quickshowHttp.MovieCatalog
}

func NewExternals(cfg config.Config) (Externals, error) {
	if cfg.MockExternals {
		return Externals{
			Payments: api.NewPaymentsMock(),
			Mailer:   &api.MailerMock{},
			Movies:   api.NewMoviesMock(),
		}, nil
	}

	payments, err := api.NewStripeGateway(api.StripeConfig{
		SecretKey:     cfg.StripeSecretKey,
		WebhookSecret: cfg.StripeWebhookSecret,
		Currency:      cfg.PaymentCurrency,
		FrontendURL:   cfg.FrontendURL,
	})
	if err != nil {
		return Externals{}, fmt.Errorf("could not create payment gateway: %w", err)
	}

	return Externals{
		Payments: payments,
		Mailer: api.NewMailer(api.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			Sender:   cfg.SMTPSender,
		}),
		Movies: api.NewMovieClient(cfg.TMDBBaseURL, cfg.TMDBAPIKey),
	}, nil
}

type Service struct {
	httpAddr        string
	watermillRouter *watermillMessage.Router
	echoRouter      *echo.Echo
	scheduler       *scheduler.Scheduler
}

func New(
	cfg config.Config,
	redisClient *redis.Client,
	conn *db.DB,
	externals Externals,
) (Service, error) {
	watermillLogger := log.NewWatermill(log.FromContext(context.Background()))

	redisPublisher, err := message.NewRedisPublisher(redisClient, watermillLogger)
	if err != nil {
		return Service{}, fmt.Errorf("could not create redis publisher: %w", err)
	}

	eventBus, err := event.NewBus(redisPublisher)
	if err != nil {
		return Service{}, fmt.Errorf("could not create event bus: %w", err)
	}

	showRepo := db.NewShowRepository(conn)
	movieRepo := db.NewMovieRepository(conn)
	bookingRepo := db.NewBookingRepository(conn)
	userRepo := db.NewUserRepository(conn)
	notificationRepo := db.NewNotificationRepository(conn)
	expirationRepo := db.NewExpirationRepository(conn)
	eventLogRepo := db.NewEventLogRepository(conn)

	occupancyCache := cache.NewOccupancyCache(redisClient, showRepo, cfg.OccupancyCacheTTL)

	reclaimer := booking.NewReclaimer(bookingRepo, externals.Payments, occupancyCache)
	orchestrator := booking.NewOrchestrator(
		showRepo,
		bookingRepo,
		externals.Payments,
		occupancyCache,
		reclaimer,
		booking.Config{
			SeatHoldTTL:       cfg.SeatHoldTTL,
			PaymentSessionTTL: cfg.PaymentSessionTTL,
		},
	)

	eventsHandler := event.NewHandler(
		bookingRepo,
		showRepo,
		movieRepo,
		userRepo,
		notificationRepo,
		externals.Mailer,
	)
	commandsHandler := command.NewHandler(reclaimer)

	postgresSubscriber, err := outbox.NewPostgresSubscriber(conn.Conn, watermillLogger)
	if err != nil {
		return Service{}, err
	}
	eventLogSubscriber, err := message.NewRedisSubscriber(redisClient, "svc-quickshow.events_log", watermillLogger)
	if err != nil {
		return Service{}, fmt.Errorf("could not create event log subscriber: %w", err)
	}
	eventSplitterSubscriber, err := message.NewRedisSubscriber(redisClient, "svc-quickshow.events_splitter", watermillLogger)
	if err != nil {
		return Service{}, fmt.Errorf("could not create events splitter subscriber: %w", err)
	}

	watermillRouter, err := message.NewWatermillRouter(
		postgresSubscriber,
		redisPublisher,
		eventLogSubscriber,
		eventSplitterSubscriber,
		event.NewProcessorConfig(redisClient, watermillLogger),
		command.NewProcessorConfig(redisClient, watermillLogger),
		eventsHandler,
		commandsHandler,
		eventLogRepo,
		watermillLogger,
	)
	if err != nil {
		return Service{}, err
	}

	echoRouter := quickshowHttp.NewHttpRouter(
		quickshowHttp.RouterConfig{
			JWTSecret:             cfg.JWTSecret,
			AdminRole:             cfg.AdminRole,
			IdentityWebhookSecret: cfg.IdentityWebhookSecret,
			BookingRateLimit:      rate.Limit(cfg.BookingRateLimit),
			BookingRateBurst:      cfg.BookingRateBurst,
		},
		orchestrator,
		occupancyCache,
		showRepo,
		movieRepo,
		externals.Movies,
		bookingRepo,
		externals.Payments,
		eventBus,
	)

	return Service{
		httpAddr:        cfg.HTTPAddr,
		watermillRouter: watermillRouter,
		echoRouter:      echoRouter,
		scheduler:       newScheduler(cfg, expirationRepo, showRepo, eventBus),
	}, nil
}

// NewScheduler builds the expiry and reminder scheduler on its own, for one-off sweeps.
func NewScheduler(cfg config.Config, conn *db.DB, eventBus scheduler.EventBus) *scheduler.Scheduler {
	return newScheduler(cfg, db.NewExpirationRepository(conn), db.NewShowRepository(conn), eventBus)
}

func newScheduler(
	cfg config.Config,
	expirations scheduler.ExpirationRepository,
	shows scheduler.ShowRepository,
	eventBus scheduler.EventBus,
) *scheduler.Scheduler {
	return scheduler.NewScheduler(
		expirations,
		shows,
		eventBus,
		scheduler.Config{
			ExpiryPollInterval: cfg.ExpiryPollInterval,
			ExpiryRetryAfter:   cfg.SeatHoldTTL,
			ReminderInterval:   cfg.ReminderInterval,
			ReminderLead:       cfg.ReminderLead,
		},
	)
}

func (s Service) Run(
	ctx context.Context,
) error {
	errgrp, ctx := errgroup.WithContext(ctx)

	errgrp.Go(func() error {
		return s.watermillRouter.Run(ctx)
	})

	errgrp.Go(func() error {
		// we don't want to start HTTP server before Watermill router (so service won't be healthy before it's ready)
		<-s.watermillRouter.Running()

		err := s.echoRouter.Start(s.httpAddr)
		if err != nil && !errors.Is(err, stdHTTP.ErrServerClosed) {
			return err
		}

		return nil
	})

	errgrp.Go(func() error {
		// reclaim commands are consumed by the router, no point enqueuing before it runs
		select {
		case <-s.watermillRouter.Running():
		case <-ctx.Done():
			return nil
		}

		return s.scheduler.Run(ctx)
	})

	errgrp.Go(func() error {
		<-ctx.Done()
		return s.echoRouter.Shutdown(context.Background())
	})

	return errgrp.Wait()
}
