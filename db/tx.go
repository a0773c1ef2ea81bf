package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"quickshow/entities"
	"quickshow/message/command"
	"quickshow/message/event"
	"quickshow/message/outbox"

	"github.com/jmoiron/sqlx"
)

func updateInTx(
	ctx context.Context,
	db *sqlx.DB,
	isolation sql.IsolationLevel,
	fn func(ctx context.Context, tx *sqlx.Tx) error,
) (err error) {
	tx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: isolation})
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				err = errors.Join(err, rollbackErr)
			}
			return
		}

		err = tx.Commit()
	}()

	return fn(ctx, tx)
}

// publishInTx stores events in the outbox, so they are published only if tx commits.
func publishInTx(ctx context.Context, tx *sqlx.Tx, events ...entities.Event) error {
	publisher, err := outbox.NewPublisherForDb(ctx, tx)
	if err != nil {
		return fmt.Errorf("could not create outbox publisher: %w", err)
	}

	bus, err := event.NewBus(publisher)
	if err != nil {
		return fmt.Errorf("could not create event bus: %w", err)
	}

	for _, e := range events {
		if err := bus.Publish(ctx, e); err != nil {
			return fmt.Errorf("could not publish %T: %w", e, err)
		}
	}

	return nil
}

// sendInTx stores commands in the outbox, so they are sent only if tx commits.
func sendInTx(ctx context.Context, tx *sqlx.Tx, commands ...any) error {
	publisher, err := outbox.NewPublisherForDb(ctx, tx)
	if err != nil {
		return fmt.Errorf("could not create outbox publisher: %w", err)
	}

	bus, err := command.NewBus(publisher)
	if err != nil {
		return fmt.Errorf("could not create command bus: %w", err)
	}

	for _, cmd := range commands {
		if err := bus.Send(ctx, cmd); err != nil {
			return fmt.Errorf("could not send %T: %w", cmd, err)
		}
	}

	return nil
}
