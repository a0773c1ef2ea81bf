package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"quickshow/config"
	"quickshow/db"
	"quickshow/message"
	"quickshow/message/event"
	"quickshow/service"
	observability "quickshow/trace"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "quickshow",
		Usage: "Show & booking ledger",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Value: ".env",
				Usage: "optional file with environment variables",
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API, message router and scheduler",
				Action: serve,
			},
			{
				Name:  "migrate",
				Usage: "create or update the database schema",
				Action: func(c *cli.Context) error {
					cfg, err := config.Load(c.String("env-file"))
					if err != nil {
						return err
					}

					conn, err := db.NewDBConn(cfg.PostgresURL)
					if err != nil {
						return err
					}
					defer conn.Close()

					return conn.MigrateSchema(c.Context)
				},
			},
			{
				Name:  "reclaim-due",
				Usage: "enqueue reclaim of every booking past its payment deadline",
				Action: func(c *cli.Context) error {
					cfg, err := config.Load(c.String("env-file"))
					if err != nil {
						return err
					}

					conn, err := db.NewDBConn(cfg.PostgresURL)
					if err != nil {
						return err
					}
					defer conn.Close()

					redisClient := message.NewRedisClient(cfg.RedisAddr)
					defer redisClient.Close()

					publisher, err := message.NewRedisPublisher(redisClient, log.NewWatermill(log.FromContext(c.Context)))
					if err != nil {
						return err
					}
					eventBus, err := event.NewBus(publisher)
					if err != nil {
						return err
					}

					enqueued, err := service.NewScheduler(cfg, &conn, eventBus).EnqueueExpired(c.Context)
					if err != nil {
						return err
					}

					fmt.Printf("enqueued %d bookings\n", enqueued)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.FromContext(context.Background()).WithError(err).Fatal("quickshow failed")
	}
}

func serve(c *cli.Context) error {
	ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(c.String("env-file"))
	if err != nil {
		return err
	}

	if cfg.JaegerEndpoint != "" {
		traceProvider, err := observability.ConfigureTraceProvider(cfg.JaegerEndpoint)
		if err != nil {
			return fmt.Errorf("could not configure tracing: %w", err)
		}
		defer func() {
			if err := traceProvider.Shutdown(context.Background()); err != nil {
				log.FromContext(ctx).WithError(err).Error("Could not shut down trace provider")
			}
		}()
	}

	conn, err := db.NewDBConn(cfg.PostgresURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.MigrateSchema(ctx); err != nil {
		return err
	}

	redisClient := message.NewRedisClient(cfg.RedisAddr)
	defer redisClient.Close()

	externals, err := service.NewExternals(cfg)
	if err != nil {
		return err
	}

	svc, err := service.New(cfg, redisClient, &conn, externals)
	if err != nil {
		return err
	}

	return svc.Run(ctx)
}
