package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"nourish/internal/domain"
)

const entryColumns = "id, user_id, food_id, custom_food_id, food_name, day, meal_type, quantity, notes, calories, protein, carbs, fat, fiber, created_at"

func scanEntry(s scanner) (*domain.FoodEntry, error) {
	var (
		e              domain.FoodEntry
		foodID, custom *int64
		slot           string
	)
	err := s.Scan(&e.ID, &e.UserID, &foodID, &custom, &e.FoodName, &e.Day, &slot, &e.Quantity, &e.Notes,
		&e.Nutrients.Calories, &e.Nutrients.Protein, &e.Nutrients.Carbs, &e.Nutrients.Fat, &e.Nutrients.Fiber,
		&e.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	e.Slot = domain.MealSlot(slot)
	if e.Ref, err = domain.NewFoodRef(foodID, custom); err != nil {
		return nil, err
	}
	return &e, nil
}

// insertEntry writes e after checking that a custom food reference belongs to
// the entry's owner. A foreign or missing food yields ErrConflict.
func insertEntry(ctx context.Context, q querier, e *domain.FoodEntry, now func() time.Time) error {
	foodID, customID := domain.RefIDs(e.Ref)
	if customID != nil {
		var one int
		err := q.QueryRowContext(ctx,
			"SELECT 1 FROM custom_foods WHERE id = $1 AND user_id = $2 FOR SHARE", *customID, e.UserID,
		).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrConflict
		}
		if err != nil {
			return err
		}
	}
	n := e.Nutrients
	err := q.QueryRowContext(ctx,
		`INSERT INTO food_entries (user_id, food_id, custom_food_id, food_name, day, meal_type, quantity, notes,
		calories, protein, carbs, fat, fiber, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14) RETURNING id, created_at`,
		e.UserID, foodID, customID, e.FoodName, e.Day, string(e.Slot), e.Quantity, e.Notes,
		n.Calories, n.Protein, n.Carbs, n.Fat, n.Fiber, now(),
	).Scan(&e.ID, &e.CreatedAt)
	return mapError(err)
}

// EntryRepo implements food entry persistence.
type EntryRepo struct {
	db *DB
}

// Get retrieves one of the user's entries.
func (r *EntryRepo) Get(ctx context.Context, userID, id int64) (*domain.FoodEntry, error) {
	return scanEntry(r.db.sql.QueryRowContext(ctx,
		"SELECT "+entryColumns+" FROM food_entries WHERE id = $1 AND user_id = $2", id, userID))
}

// ListDay returns the user's entries for day in insertion order.
func (r *EntryRepo) ListDay(ctx context.Context, userID int64, day string) ([]domain.FoodEntry, error) {
	return r.ListRange(ctx, userID, day, day)
}

// ListRange returns the user's entries for the days from..to inclusive,
// ordered by day then insertion.
func (r *EntryRepo) ListRange(ctx context.Context, userID int64, from, to string) ([]domain.FoodEntry, error) {
	rows, err := r.db.sql.QueryContext(ctx,
		"SELECT "+entryColumns+" FROM food_entries WHERE user_id = $1 AND day >= $2 AND day <= $3 ORDER BY day, id",
		userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.FoodEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// Create adds an entry. The referenced food must exist.
func (r *EntryRepo) Create(ctx context.Context, e *domain.FoodEntry) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		return insertEntry(ctx, tx, e, r.db.now)
	})
}

// CreateBatch adds every entry or none.
func (r *EntryRepo) CreateBatch(ctx context.Context, entries []domain.FoodEntry) ([]domain.FoodEntry, error) {
	created := make([]domain.FoodEntry, len(entries))
	copy(created, entries)
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		for i := range created {
			if err := insertEntry(ctx, tx, &created[i], r.db.now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update replaces one of the user's entries.
func (r *EntryRepo) Update(ctx context.Context, e *domain.FoodEntry) error {
	n := e.Nutrients
	res, err := r.db.sql.ExecContext(ctx,
		`UPDATE food_entries SET food_name = $3, day = $4, meal_type = $5, quantity = $6, notes = $7,
		calories = $8, protein = $9, carbs = $10, fat = $11, fiber = $12
		WHERE id = $1 AND user_id = $2`,
		e.ID, e.UserID, e.FoodName, e.Day, string(e.Slot), e.Quantity, e.Notes,
		n.Calories, n.Protein, n.Carbs, n.Fat, n.Fiber,
	)
	if err != nil {
		return mapError(err)
	}
	return affected(res)
}

// Delete removes one of the user's entries.
func (r *EntryRepo) Delete(ctx context.Context, userID, id int64) error {
	res, err := r.db.sql.ExecContext(ctx, "DELETE FROM food_entries WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return err
	}
	return affected(res)
}

// DeleteDay removes the user's entries of day, limited to slot when set.
func (r *EntryRepo) DeleteDay(ctx context.Context, userID int64, day string, slot domain.MealSlot) (int64, error) {
	res, err := r.db.sql.ExecContext(ctx,
		"DELETE FROM food_entries WHERE user_id = $1 AND day = $2 AND ($3::text = '' OR meal_type = $3)",
		userID, day, string(slot))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
