// Package postgres implements the domain repositories using PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"nourish/internal/domain"
)

// DB wraps a *sql.DB and hands out the domain repositories.
type DB struct {
	sql *sql.DB
	now func() time.Time
}

var (
	_ domain.UserRepository         = (*UserRepo)(nil)
	_ domain.RefreshTokenRepository = (*TokenRepo)(nil)
	_ domain.FoodRepository         = (*FoodRepo)(nil)
	_ domain.CustomFoodRepository   = (*CustomFoodRepo)(nil)
	_ domain.EntryRepository        = (*EntryRepo)(nil)
	_ domain.MealRepository         = (*MealRepo)(nil)
	_ domain.RecipeRepository       = (*RecipeRepo)(nil)
)

// Open connects to PostgreSQL, pings, and runs migrations.
func Open(connStr string) (*DB, error) {
	s, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	s.SetMaxOpenConns(10)
	s.SetMaxIdleConns(5)
	s.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.PingContext(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	d := &DB{sql: s, now: func() time.Time { return time.Now().UTC() }}
	if err := d.migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

// Ping reports whether the database is reachable.
func (d *DB) Ping(ctx context.Context) error {
	return d.sql.PingContext(ctx)
}

func (d *DB) Users() *UserRepo             { return &UserRepo{db: d} }
func (d *DB) Tokens() *TokenRepo           { return &TokenRepo{db: d} }
func (d *DB) Foods() *FoodRepo             { return &FoodRepo{db: d} }
func (d *DB) CustomFoods() *CustomFoodRepo { return &CustomFoodRepo{db: d} }
func (d *DB) Entries() *EntryRepo          { return &EntryRepo{db: d} }
func (d *DB) Meals() *MealRepo             { return &MealRepo{db: d} }
func (d *DB) Recipes() *RecipeRepo         { return &RecipeRepo{db: d} }

func (d *DB) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			email TEXT NOT NULL,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL DEFAULT '',
			daily_calories DOUBLE PRECISION NOT NULL,
			daily_protein DOUBLE PRECISION NOT NULL,
			daily_carbs DOUBLE PRECISION NOT NULL,
			daily_fat DOUBLE PRECISION NOT NULL,
			daily_fiber DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);`,
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(LOWER(email));",
		`CREATE TABLE IF NOT EXISTS refresh_tokens (
			id TEXT PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			expires_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);`,
		"CREATE INDEX IF NOT EXISTS idx_refresh_tokens_expires_at ON refresh_tokens(expires_at);",
		`CREATE TABLE IF NOT EXISTS foods (
			id BIGSERIAL PRIMARY KEY,
			external_id TEXT UNIQUE,
			name TEXT NOT NULL,
			brand TEXT,
			calories DOUBLE PRECISION NOT NULL,
			protein DOUBLE PRECISION NOT NULL,
			carbs DOUBLE PRECISION NOT NULL,
			fat DOUBLE PRECISION NOT NULL,
			fiber DOUBLE PRECISION NOT NULL,
			sugar DOUBLE PRECISION,
			sodium DOUBLE PRECISION,
			created_at TIMESTAMPTZ NOT NULL
		);`,
		"CREATE INDEX IF NOT EXISTS idx_foods_name ON foods(LOWER(name));",
		`CREATE TABLE IF NOT EXISTS custom_foods (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			brand TEXT,
			serving_size DOUBLE PRECISION NOT NULL CHECK (serving_size > 0),
			calories DOUBLE PRECISION NOT NULL,
			protein DOUBLE PRECISION NOT NULL,
			carbs DOUBLE PRECISION NOT NULL,
			fat DOUBLE PRECISION NOT NULL,
			fiber DOUBLE PRECISION NOT NULL,
			sugar DOUBLE PRECISION,
			sodium DOUBLE PRECISION,
			created_at TIMESTAMPTZ NOT NULL
		);`,
		"CREATE INDEX IF NOT EXISTS idx_custom_foods_user_id ON custom_foods(user_id);",
		`CREATE TABLE IF NOT EXISTS food_entries (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			food_id BIGINT REFERENCES foods(id),
			custom_food_id BIGINT REFERENCES custom_foods(id),
			food_name TEXT NOT NULL,
			day TEXT NOT NULL,
			meal_type TEXT NOT NULL CHECK (meal_type IN ('breakfast','lunch','dinner','snacks')),
			quantity DOUBLE PRECISION NOT NULL,
			notes TEXT,
			calories DOUBLE PRECISION NOT NULL,
			protein DOUBLE PRECISION NOT NULL,
			carbs DOUBLE PRECISION NOT NULL,
			fat DOUBLE PRECISION NOT NULL,
			fiber DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			CHECK ((food_id IS NULL) <> (custom_food_id IS NULL))
		);`,
		"CREATE INDEX IF NOT EXISTS idx_food_entries_user_day ON food_entries(user_id, day);",
		"CREATE INDEX IF NOT EXISTS idx_food_entries_custom_food_id ON food_entries(custom_food_id);",
		`CREATE TABLE IF NOT EXISTS saved_meals (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			description TEXT,
			items JSONB NOT NULL,
			calories DOUBLE PRECISION NOT NULL,
			protein DOUBLE PRECISION NOT NULL,
			carbs DOUBLE PRECISION NOT NULL,
			fat DOUBLE PRECISION NOT NULL,
			fiber DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);`,
		"CREATE INDEX IF NOT EXISTS idx_saved_meals_user_id ON saved_meals(user_id);",
		`CREATE TABLE IF NOT EXISTS community_recipes (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			author_name TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT,
			instructions TEXT NOT NULL,
			image_name TEXT,
			items JSONB NOT NULL,
			calories DOUBLE PRECISION NOT NULL,
			protein DOUBLE PRECISION NOT NULL,
			carbs DOUBLE PRECISION NOT NULL,
			fat DOUBLE PRECISION NOT NULL,
			fiber DOUBLE PRECISION NOT NULL,
			likes INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL
		);`,
		"CREATE INDEX IF NOT EXISTS idx_community_recipes_created_at ON community_recipes(created_at DESC);",
	}

	for _, stmt := range stmts {
		if _, err := d.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// withTx runs fn in a transaction, committing when fn returns nil.
func (d *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// mapError translates driver errors into domain sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505", "23503":
			return fmt.Errorf("%w: %s", domain.ErrConflict, pqErr.Constraint)
		}
	}
	return err
}

// affected maps a zero row count to ErrNotFound.
func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// containsPattern builds an ILIKE pattern matching s anywhere.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
