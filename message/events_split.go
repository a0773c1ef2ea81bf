package message

import (
	"context"
	"encoding/json"
	"fmt"

	"quickshow/entities"
	"quickshow/message/event"

	"github.com/ThreeDotsLabs/watermill/message"
)

type EventLogRepository interface {
	Append(ctx context.Context, event entities.LoggedEvent) error
}

// splitEvents republishes every event from the shared topic to its per-name topic,
// where the event processor subscribes.
func splitEvents(publisher message.Publisher) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		eventName := event.Marshaler.NameFromMessage(msg)
		if eventName == "" {
			return entities.PermanentError{Err: fmt.Errorf("message %s has no event name", msg.UUID)}
		}

		out := message.NewMessage(msg.UUID, msg.Payload)
		for k, v := range msg.Metadata {
			out.Metadata.Set(k, v)
		}
		out.SetContext(msg.Context())

		return publisher.Publish(event.SplitTopic(eventName), out)
	}
}

func storeToEventLog(repo EventLogRepository) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		eventName := event.Marshaler.NameFromMessage(msg)
		if eventName == "" {
			return entities.PermanentError{Err: fmt.Errorf("message %s has no event name", msg.UUID)}
		}

		var e struct {
			Header entities.EventHeader `json:"header"`
		}
		if err := json.Unmarshal(msg.Payload, &e); err != nil {
			return entities.PermanentError{Err: fmt.Errorf("could not unmarshal event header: %w", err)}
		}
		if e.Header.ID == "" {
			return entities.PermanentError{Err: fmt.Errorf("event %s has no id", eventName)}
		}

		return repo.Append(msg.Context(), entities.LoggedEvent{
			EventID:     e.Header.ID,
			PublishedAt: e.Header.PublishedAt,
			EventName:   eventName,
			Payload:     msg.Payload,
		})
	}
}
