package postgres

import (
	"context"
	"database/sql"

	"github.com/goccy/go-json"

	"nourish/internal/domain"
)

const mealColumns = "id, user_id, name, description, items, calories, protein, carbs, fat, fiber, created_at"

func scanMeal(s scanner) (*domain.SavedMeal, error) {
	var (
		m     domain.SavedMeal
		items []byte
	)
	err := s.Scan(&m.ID, &m.UserID, &m.Name, &m.Description, &items,
		&m.Totals.Calories, &m.Totals.Protein, &m.Totals.Carbs, &m.Totals.Fat, &m.Totals.Fiber,
		&m.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	if err := json.Unmarshal(items, &m.Items); err != nil {
		return nil, err
	}
	return &m, nil
}

// MealRepo implements saved meal persistence.
type MealRepo struct {
	db *DB
}

// Get retrieves one of the user's meals.
func (r *MealRepo) Get(ctx context.Context, userID, id int64) (*domain.SavedMeal, error) {
	return scanMeal(r.db.sql.QueryRowContext(ctx,
		"SELECT "+mealColumns+" FROM saved_meals WHERE id = $1 AND user_id = $2", id, userID))
}

// List returns a page of the user's meals, newest first, and the total count.
func (r *MealRepo) List(ctx context.Context, userID int64, page domain.Page) ([]domain.SavedMeal, int, error) {
	var total int
	if err := r.db.sql.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM saved_meals WHERE user_id = $1", userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.sql.QueryContext(ctx,
		"SELECT "+mealColumns+" FROM saved_meals WHERE user_id = $1 ORDER BY id DESC LIMIT $2 OFFSET $3",
		userID, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []domain.SavedMeal{}
	for rows.Next() {
		m, err := scanMeal(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *m)
	}
	return out, total, rows.Err()
}

func insertMeal(ctx context.Context, q querier, m *domain.SavedMeal, d *DB) error {
	items, err := json.Marshal(m.Items)
	if err != nil {
		return err
	}
	t := m.Totals
	err = q.QueryRowContext(ctx,
		`INSERT INTO saved_meals (user_id, name, description, items, calories, protein, carbs, fat, fiber, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id, created_at`,
		m.UserID, m.Name, m.Description, string(items), t.Calories, t.Protein, t.Carbs, t.Fat, t.Fiber, d.now(),
	).Scan(&m.ID, &m.CreatedAt)
	return mapError(err)
}

// Create adds a meal.
func (r *MealRepo) Create(ctx context.Context, m *domain.SavedMeal) error {
	return insertMeal(ctx, r.db.sql, m, r.db)
}

// Update replaces one of the user's meals.
func (r *MealRepo) Update(ctx context.Context, m *domain.SavedMeal) error {
	items, err := json.Marshal(m.Items)
	if err != nil {
		return err
	}
	t := m.Totals
	res, err := r.db.sql.ExecContext(ctx,
		`UPDATE saved_meals SET name = $3, description = $4, items = $5,
		calories = $6, protein = $7, carbs = $8, fat = $9, fiber = $10
		WHERE id = $1 AND user_id = $2`,
		m.ID, m.UserID, m.Name, m.Description, string(items), t.Calories, t.Protein, t.Carbs, t.Fat, t.Fiber,
	)
	if err != nil {
		return mapError(err)
	}
	return affected(res)
}

// Delete removes one of the user's meals.
func (r *MealRepo) Delete(ctx context.Context, userID, id int64) error {
	res, err := r.db.sql.ExecContext(ctx, "DELETE FROM saved_meals WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return err
	}
	return affected(res)
}

// Import creates the foods, re-points their line items and creates m in one transaction.
func (r *MealRepo) Import(ctx context.Context, m *domain.SavedMeal, foods map[int]domain.CustomFood) error {
	for idx := range foods {
		if idx < 0 || idx >= len(m.Items) {
			return domain.ErrInvalidReference
		}
	}
	items := make([]domain.LineItem, len(m.Items))
	copy(items, m.Items)

	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		for idx, f := range foods {
			f.UserID = m.UserID
			if err := insertCustomFood(ctx, tx, &f, r.db.now); err != nil {
				return err
			}
			items[idx].Ref = domain.CustomRef{CustomFoodID: f.ID}
		}
		staged := *m
		staged.Items = items
		if err := insertMeal(ctx, tx, &staged, r.db); err != nil {
			return err
		}
		m.ID, m.CreatedAt = staged.ID, staged.CreatedAt
		return nil
	})
	if err != nil {
		return err
	}
	m.Items = items
	return nil
}
