package db

import (
	"context"
	"fmt"

	"quickshow/entities"
)

type EventLogRepository struct {
	db *DB
}

func NewEventLogRepository(db *DB) EventLogRepository {
	if db == nil {
		panic("db is nil")
	}

	return EventLogRepository{
		db: db,
	}
}

func (r EventLogRepository) Append(ctx context.Context, event entities.LoggedEvent) error {
	_, err := r.db.Conn.ExecContext(ctx, `
		INSERT INTO
		    events (event_id, published_at, event_name, event_payload)
		VALUES
		    ($1, $2, $3, $4)
		ON CONFLICT (event_id) DO NOTHING
	`, event.EventID, event.PublishedAt, event.EventName, string(event.Payload))
	if err != nil {
		return fmt.Errorf("could not append event to log: %w", err)
	}

	return nil
}
