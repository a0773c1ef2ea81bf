package event

import (
	"fmt"

	"quickshow/entities"

	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
)

const (
	// AllEventsTopic receives every external event; it is split per event name by the router.
	AllEventsTopic       = "events"
	internalTopicsPrefix = "internal-events.svc-quickshow."
)

func NewBus(pub message.Publisher) (*cqrs.EventBus, error) {
	return cqrs.NewEventBusWithConfig(
		pub,
		cqrs.EventBusConfig{
			GeneratePublishTopic: func(params cqrs.GenerateEventPublishTopicParams) (string, error) {
				event, ok := params.Event.(entities.Event)
				if !ok {
					return "", fmt.Errorf("invalid event type: %T doesn't implement entities.Event", params.Event)
				}

				if event.IsInternal() {
					return internalTopicsPrefix + params.EventName, nil
				}

				return AllEventsTopic, nil
			},
			Marshaler: Marshaler,
		},
	)
}
