package message

import (
	"fmt"

	"quickshow/message/command"
	"quickshow/message/event"
	"quickshow/message/outbox"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	watermillMetrics "github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"
)

func NewWatermillRouter(
	postgresSubscriber message.Subscriber,
	publisher message.Publisher,
	eventLogSubscriber message.Subscriber,
	eventSplitterSubscriber message.Subscriber,
	eventProcessorConfig cqrs.EventProcessorConfig,
	commandProcessorConfig cqrs.CommandProcessorConfig,
	eventHandler event.Handler,
	commandHandler command.Handler,
	eventLog EventLogRepository,
	watermillLogger watermill.LoggerAdapter,
) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{}, watermillLogger)
	if err != nil {
		return nil, fmt.Errorf("could not create router: %w", err)
	}

	if err := useMiddlewares(router, publisher, watermillLogger); err != nil {
		return nil, err
	}

	metricsBuilder := watermillMetrics.NewPrometheusMetricsBuilder(prometheus.DefaultRegisterer, "quickshow", "messages")
	metricsBuilder.AddPrometheusRouterMetrics(router)

	if err := outbox.AddForwarderHandler(postgresSubscriber, publisher, router, watermillLogger); err != nil {
		return nil, fmt.Errorf("could not add outbox forwarder: %w", err)
	}

	router.AddNoPublisherHandler(
		"events_splitter",
		event.AllEventsTopic,
		eventSplitterSubscriber,
		splitEvents(publisher),
	)

	router.AddNoPublisherHandler(
		"store_to_event_log",
		event.AllEventsTopic,
		eventLogSubscriber,
		storeToEventLog(eventLog),
	)

	eventProcessor, err := cqrs.NewEventProcessorWithConfig(router, eventProcessorConfig)
	if err != nil {
		return nil, fmt.Errorf("could not create event processor: %w", err)
	}

	err = eventProcessor.AddHandlers(
		cqrs.NewEventHandler(
			"SendBookingConfirmation",
			eventHandler.SendBookingConfirmation,
		),
		cqrs.NewEventHandler(
			"NotifyNewShow",
			eventHandler.NotifyNewShow,
		),
		cqrs.NewEventHandler(
			"SendShowReminders",
			eventHandler.SendShowReminders,
		),
		cqrs.NewEventHandler(
			"UpsertUser",
			eventHandler.UpsertUser,
		),
		cqrs.NewEventHandler(
			"DeleteUser",
			eventHandler.DeleteUser,
		),
	)
	if err != nil {
		return nil, fmt.Errorf("could not add event handlers: %w", err)
	}

	commandProcessor, err := cqrs.NewCommandProcessorWithConfig(router, commandProcessorConfig)
	if err != nil {
		return nil, fmt.Errorf("could not create command processor: %w", err)
	}

	err = commandProcessor.AddHandlers(
		cqrs.NewCommandHandler(
			"ReclaimBooking",
			commandHandler.ReclaimBooking,
		),
	)
	if err != nil {
		return nil, fmt.Errorf("could not add command handlers: %w", err)
	}

	return router, nil
}
