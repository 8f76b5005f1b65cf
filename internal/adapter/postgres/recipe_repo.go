package postgres

import (
	"context"

	"github.com/goccy/go-json"

	"nourish/internal/domain"
)

const recipeColumns = "id, user_id, author_name, title, description, instructions, image_name, items, calories, protein, carbs, fat, fiber, likes, created_at"

func scanRecipe(s scanner) (*domain.CommunityRecipe, error) {
	var (
		rc    domain.CommunityRecipe
		items []byte
	)
	err := s.Scan(&rc.ID, &rc.UserID, &rc.AuthorName, &rc.Title, &rc.Description, &rc.Instructions, &rc.ImageName, &items,
		&rc.Totals.Calories, &rc.Totals.Protein, &rc.Totals.Carbs, &rc.Totals.Fat, &rc.Totals.Fiber,
		&rc.Likes, &rc.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	if err := json.Unmarshal(items, &rc.Items); err != nil {
		return nil, err
	}
	return &rc, nil
}

// RecipeRepo implements community recipe persistence.
type RecipeRepo struct {
	db *DB
}

// Get retrieves a recipe by ID.
func (r *RecipeRepo) Get(ctx context.Context, id int64) (*domain.CommunityRecipe, error) {
	return scanRecipe(r.db.sql.QueryRowContext(ctx,
		"SELECT "+recipeColumns+" FROM community_recipes WHERE id = $1", id))
}

// List returns a page of recipes, newest first, whose title contains search.
func (r *RecipeRepo) List(ctx context.Context, search string, page domain.Page) ([]domain.CommunityRecipe, int, error) {
	pattern := containsPattern(search)

	var total int
	if err := r.db.sql.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM community_recipes WHERE title ILIKE $1", pattern).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.sql.QueryContext(ctx,
		"SELECT "+recipeColumns+" FROM community_recipes WHERE title ILIKE $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3",
		pattern, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []domain.CommunityRecipe{}
	for rows.Next() {
		rc, err := scanRecipe(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *rc)
	}
	return out, total, rows.Err()
}

// Create adds a recipe.
func (r *RecipeRepo) Create(ctx context.Context, rc *domain.CommunityRecipe) error {
	items, err := json.Marshal(rc.Items)
	if err != nil {
		return err
	}
	created := rc.CreatedAt
	if created.IsZero() {
		created = r.db.now()
	}
	t := rc.Totals
	err = r.db.sql.QueryRowContext(ctx,
		`INSERT INTO community_recipes (user_id, author_name, title, description, instructions, image_name, items,
		calories, protein, carbs, fat, fiber, likes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14) RETURNING id, created_at`,
		rc.UserID, rc.AuthorName, rc.Title, rc.Description, rc.Instructions, rc.ImageName, string(items),
		t.Calories, t.Protein, t.Carbs, t.Fat, t.Fiber, rc.Likes, created,
	).Scan(&rc.ID, &rc.CreatedAt)
	return mapError(err)
}

// Like increments the like count and returns the new value.
func (r *RecipeRepo) Like(ctx context.Context, id int64) (int, error) {
	var likes int
	err := r.db.sql.QueryRowContext(ctx,
		"UPDATE community_recipes SET likes = likes + 1 WHERE id = $1 RETURNING likes", id,
	).Scan(&likes)
	return likes, mapError(err)
}

// Delete removes a recipe authored by userID and returns it.
func (r *RecipeRepo) Delete(ctx context.Context, userID, id int64) (*domain.CommunityRecipe, error) {
	return scanRecipe(r.db.sql.QueryRowContext(ctx,
		"DELETE FROM community_recipes WHERE id = $1 AND user_id = $2 RETURNING "+recipeColumns, id, userID))
}

// ListImagesByUser returns the image names of the user's recipes.
func (r *RecipeRepo) ListImagesByUser(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.db.sql.QueryContext(ctx,
		"SELECT image_name FROM community_recipes WHERE user_id = $1 AND image_name IS NOT NULL ORDER BY image_name",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
