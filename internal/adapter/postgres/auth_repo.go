package postgres

import (
	"context"
	"time"

	"nourish/internal/domain"
)

const userColumns = "id, email, username, password_hash, daily_calories, daily_protein, daily_carbs, daily_fat, daily_fiber, created_at"

func scanUser(s scanner) (*domain.User, error) {
	var u domain.User
	err := s.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash,
		&u.Goals.Calories, &u.Goals.Protein, &u.Goals.Carbs, &u.Goals.Fat, &u.Goals.Fiber,
		&u.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

// UserRepo implements user persistence.
type UserRepo struct {
	db *DB
}

// GetByEmail retrieves a user by email, ignoring case.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(r.db.sql.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE LOWER(email) = LOWER($1)", email))
}

// GetByUsername retrieves a user by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return scanUser(r.db.sql.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = $1", username))
}

// GetByID retrieves a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return scanUser(r.db.sql.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", id))
}

// Create creates a new user and sets its ID and CreatedAt.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	g := u.Goals
	err := r.db.sql.QueryRowContext(ctx,
		`INSERT INTO users (email, username, password_hash, daily_calories, daily_protein, daily_carbs, daily_fat, daily_fiber, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id, created_at`,
		u.Email, u.Username, u.PasswordHash, g.Calories, g.Protein, g.Carbs, g.Fat, g.Fiber, r.db.now(),
	).Scan(&u.ID, &u.CreatedAt)
	return mapError(err)
}

// Update replaces the stored user.
func (r *UserRepo) Update(ctx context.Context, u *domain.User) error {
	g := u.Goals
	res, err := r.db.sql.ExecContext(ctx,
		`UPDATE users SET email = $2, username = $3, password_hash = $4,
		daily_calories = $5, daily_protein = $6, daily_carbs = $7, daily_fat = $8, daily_fiber = $9
		WHERE id = $1`,
		u.ID, u.Email, u.Username, u.PasswordHash, g.Calories, g.Protein, g.Carbs, g.Fat, g.Fiber,
	)
	if err != nil {
		return mapError(err)
	}
	return affected(res)
}

// Delete removes a user. Owned rows go with it through ON DELETE CASCADE.
func (r *UserRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.sql.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return mapError(err)
	}
	return affected(res)
}

// TokenRepo implements refresh token persistence.
type TokenRepo struct {
	db *DB
}

// Create records an issued refresh token.
func (r *TokenRepo) Create(ctx context.Context, t domain.RefreshToken) error {
	_, err := r.db.sql.ExecContext(ctx,
		"INSERT INTO refresh_tokens (id, user_id, expires_at, created_at) VALUES ($1, $2, $3, $4)",
		t.ID, t.UserID, t.ExpiresAt.UTC(), r.db.now(),
	)
	return mapError(err)
}

// Get retrieves an unexpired refresh token by ID.
func (r *TokenRepo) Get(ctx context.Context, id string) (*domain.RefreshToken, error) {
	var t domain.RefreshToken
	err := r.db.sql.QueryRowContext(ctx,
		"SELECT id, user_id, expires_at, created_at FROM refresh_tokens WHERE id = $1 AND expires_at > $2",
		id, r.db.now(),
	).Scan(&t.ID, &t.UserID, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &t, nil
}

// Delete revokes a refresh token.
func (r *TokenRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.sql.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE id = $1", id)
	if err != nil {
		return err
	}
	return affected(res)
}

// DeleteExpired deletes all tokens expired at now and returns how many were removed.
func (r *TokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.sql.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE expires_at <= $1", now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
