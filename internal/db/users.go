package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/justestif/go-sparkify/internal/model"
)

// UserRepository handles user database operations.
type UserRepository struct {
	q querier
}

// Upsert creates a user or updates its mutable fields, so the last record
// written for a user id wins.
func (r *UserRepository) Upsert(ctx context.Context, user model.User) error {
	query := `
		INSERT INTO users (user_id, first_name, last_name, gender, level)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			gender = EXCLUDED.gender,
			level = EXCLUDED.level
	`
	_, err := r.q.Exec(ctx, query,
		user.UserID,
		user.FirstName,
		user.LastName,
		user.Gender,
		user.Level,
	)
	if err != nil {
		return fmt.Errorf("upserting user: %w", err)
	}
	return nil
}

// Get retrieves a user by ID.
func (r *UserRepository) Get(ctx context.Context, id int) (*model.User, error) {
	query := `
		SELECT user_id, COALESCE(first_name, ''), COALESCE(last_name, ''), COALESCE(gender, ''), level
		FROM users
		WHERE user_id = $1
	`
	var user model.User
	err := r.q.QueryRow(ctx, query, id).Scan(
		&user.UserID,
		&user.FirstName,
		&user.LastName,
		&user.Gender,
		&user.Level,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return &user, nil
}
