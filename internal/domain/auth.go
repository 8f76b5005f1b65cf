// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"time"
)

// User represents an account holder and their daily goals.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"-"`
	Goals
}

// RefreshToken records an issued refresh token so it can be revoked.
type RefreshToken struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// UserRepository defines the port for user persistence operations.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id int64) error
}

// RefreshTokenRepository defines the port for refresh token persistence operations.
type RefreshTokenRepository interface {
	Create(ctx context.Context, t RefreshToken) error
	Get(ctx context.Context, id string) (*RefreshToken, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
