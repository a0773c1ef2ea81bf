package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"quickshow/entities"
)

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) UserRepository {
	if db == nil {
		panic("db is nil")
	}

	return UserRepository{
		db: db,
	}
}

func (r UserRepository) Upsert(ctx context.Context, user entities.User) error {
	_, err := r.db.Conn.NamedExecContext(ctx, `
		INSERT INTO
		    users (user_id, name, email, image)
		VALUES
		    (:user_id, :name, :email, :image)
		ON CONFLICT (user_id) DO UPDATE SET
		    name = excluded.name,
		    email = excluded.email,
		    image = excluded.image,
		    updated_at = now()
	`, user)
	if err != nil {
		return fmt.Errorf("could not save user: %w", err)
	}

	return nil
}

func (r UserRepository) Delete(ctx context.Context, userID string) error {
	_, err := r.db.Conn.ExecContext(ctx, `DELETE FROM users WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("could not delete user: %w", err)
	}

	return nil
}

func (r UserRepository) UserByID(ctx context.Context, userID string) (entities.User, error) {
	var user entities.User
	err := r.db.Conn.GetContext(ctx, &user, `
		SELECT
		    user_id, name, email, image
		FROM
		    users
		WHERE
		    user_id = $1
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return entities.User{}, entities.ErrUserNotFound
	}
	if err != nil {
		return entities.User{}, fmt.Errorf("could not get user: %w", err)
	}

	return user, nil
}

func (r UserRepository) All(ctx context.Context) ([]entities.User, error) {
	var users []entities.User
	err := r.db.Conn.SelectContext(ctx, &users, `
		SELECT
		    user_id, name, email, image
		FROM
		    users
		ORDER BY
		    user_id
	`)
	if err != nil {
		return nil, fmt.Errorf("could not get users: %w", err)
	}

	return users, nil
}
