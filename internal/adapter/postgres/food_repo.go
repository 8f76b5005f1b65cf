package postgres

import (
	"context"
	"database/sql"
	"time"

	"nourish/internal/domain"
)

const foodColumns = "id, external_id, name, brand, calories, protein, carbs, fat, fiber, sugar, sodium, created_at"

func scanFood(s scanner) (*domain.Food, error) {
	var f domain.Food
	err := s.Scan(&f.ID, &f.ExternalID, &f.Name, &f.Brand,
		&f.Calories, &f.Protein, &f.Carbs, &f.Fat, &f.Fiber, &f.Sugar, &f.Sodium,
		&f.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &f, nil
}

// FoodRepo implements catalog food persistence.
type FoodRepo struct {
	db *DB
}

// GetByID retrieves a catalog food.
func (r *FoodRepo) GetByID(ctx context.Context, id int64) (*domain.Food, error) {
	return scanFood(r.db.sql.QueryRowContext(ctx,
		"SELECT "+foodColumns+" FROM foods WHERE id = $1", id))
}

// GetByExternalID retrieves a catalog food imported from the external database.
func (r *FoodRepo) GetByExternalID(ctx context.Context, externalID string) (*domain.Food, error) {
	return scanFood(r.db.sql.QueryRowContext(ctx,
		"SELECT "+foodColumns+" FROM foods WHERE external_id = $1", externalID))
}

// Search returns foods whose name contains query, ignoring case, ordered by name.
func (r *FoodRepo) Search(ctx context.Context, query string, limit int) ([]domain.Food, error) {
	rows, err := r.db.sql.QueryContext(ctx,
		"SELECT "+foodColumns+" FROM foods WHERE name ILIKE $1 ORDER BY name, id LIMIT $2",
		containsPattern(query), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Food{}
	for rows.Next() {
		f, err := scanFood(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

// Create adds a catalog food. External ids are unique.
func (r *FoodRepo) Create(ctx context.Context, f *domain.Food) error {
	err := r.db.sql.QueryRowContext(ctx,
		`INSERT INTO foods (external_id, name, brand, calories, protein, carbs, fat, fiber, sugar, sodium, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id, created_at`,
		f.ExternalID, f.Name, f.Brand, f.Calories, f.Protein, f.Carbs, f.Fat, f.Fiber, f.Sugar, f.Sodium, r.db.now(),
	).Scan(&f.ID, &f.CreatedAt)
	return mapError(err)
}

// Count returns the number of catalog foods.
func (r *FoodRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM foods").Scan(&n)
	return n, err
}

const customFoodColumns = "id, user_id, name, brand, serving_size, calories, protein, carbs, fat, fiber, sugar, sodium, created_at"

func scanCustomFood(s scanner) (*domain.CustomFood, error) {
	var f domain.CustomFood
	err := s.Scan(&f.ID, &f.UserID, &f.Name, &f.Brand, &f.ServingSize,
		&f.Calories, &f.Protein, &f.Carbs, &f.Fat, &f.Fiber, &f.Sugar, &f.Sodium,
		&f.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &f, nil
}

func insertCustomFood(ctx context.Context, q querier, f *domain.CustomFood, now func() time.Time) error {
	err := q.QueryRowContext(ctx,
		`INSERT INTO custom_foods (user_id, name, brand, serving_size, calories, protein, carbs, fat, fiber, sugar, sodium, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id, created_at`,
		f.UserID, f.Name, f.Brand, f.ServingSize, f.Calories, f.Protein, f.Carbs, f.Fat, f.Fiber, f.Sugar, f.Sodium, now(),
	).Scan(&f.ID, &f.CreatedAt)
	return mapError(err)
}

// CustomFoodRepo implements custom food persistence.
type CustomFoodRepo struct {
	db *DB
}

// Get retrieves one of the user's custom foods.
func (r *CustomFoodRepo) Get(ctx context.Context, userID, id int64) (*domain.CustomFood, error) {
	return scanCustomFood(r.db.sql.QueryRowContext(ctx,
		"SELECT "+customFoodColumns+" FROM custom_foods WHERE id = $1 AND user_id = $2", id, userID))
}

// List returns the user's custom foods ordered by name.
func (r *CustomFoodRepo) List(ctx context.Context, userID int64) ([]domain.CustomFood, error) {
	return r.Search(ctx, userID, "", -1)
}

// Search returns the user's custom foods whose name contains query.
// A negative limit returns every match.
func (r *CustomFoodRepo) Search(ctx context.Context, userID int64, query string, limit int) ([]domain.CustomFood, error) {
	var lim sql.NullInt64
	if limit >= 0 {
		lim = sql.NullInt64{Int64: int64(limit), Valid: true}
	}
	rows, err := r.db.sql.QueryContext(ctx,
		"SELECT "+customFoodColumns+" FROM custom_foods WHERE user_id = $1 AND name ILIKE $2 ORDER BY name, id LIMIT $3",
		userID, containsPattern(query), lim)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.CustomFood{}
	for rows.Next() {
		f, err := scanCustomFood(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

// Create adds a custom food.
func (r *CustomFoodRepo) Create(ctx context.Context, f *domain.CustomFood) error {
	return insertCustomFood(ctx, r.db.sql, f, r.db.now)
}

// Update replaces one of the user's custom foods.
func (r *CustomFoodRepo) Update(ctx context.Context, f *domain.CustomFood) error {
	err := r.db.sql.QueryRowContext(ctx,
		`UPDATE custom_foods SET name = $3, brand = $4, serving_size = $5,
		calories = $6, protein = $7, carbs = $8, fat = $9, fiber = $10, sugar = $11, sodium = $12
		WHERE id = $1 AND user_id = $2 RETURNING created_at`,
		f.ID, f.UserID, f.Name, f.Brand, f.ServingSize, f.Calories, f.Protein, f.Carbs, f.Fat, f.Fiber, f.Sugar, f.Sodium,
	).Scan(&f.CreatedAt)
	return mapError(err)
}

// Delete removes one of the user's custom foods. Entries referencing it make
// the delete fail with ErrConflict.
func (r *CustomFoodRepo) Delete(ctx context.Context, userID, id int64) error {
	res, err := r.db.sql.ExecContext(ctx, "DELETE FROM custom_foods WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return mapError(err)
	}
	return affected(res)
}
