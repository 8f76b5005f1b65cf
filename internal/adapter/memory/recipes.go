package memory

import (
	"context"
	"sort"

	"nourish/internal/domain"
)

// --- RecipeRepository ---

// RecipeRepo implements community recipe persistence.
type RecipeRepo struct {
	db *DB
}

// Get retrieves a recipe by ID.
func (r *RecipeRepo) Get(ctx context.Context, id int64) (*domain.CommunityRecipe, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	rc, ok := r.db.recipes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	rc.Items = cloneItems(rc.Items)
	return &rc, nil
}

// List returns a page of recipes, newest first, whose title contains search.
func (r *RecipeRepo) List(ctx context.Context, search string, page domain.Page) ([]domain.CommunityRecipe, int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	all := []domain.CommunityRecipe{}
	for _, rc := range r.db.recipes {
		if containsFold(rc.Title, search) {
			rc.Items = cloneItems(rc.Items)
			all = append(all, rc)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	return paginate(all, page), len(all), nil
}

// Create adds a recipe.
func (r *RecipeRepo) Create(ctx context.Context, rc *domain.CommunityRecipe) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[rc.UserID]; !ok {
		return domain.ErrConflict
	}
	rc.ID = r.db.nextID()
	if rc.CreatedAt.IsZero() {
		rc.CreatedAt = r.db.now()
	}
	stored := *rc
	stored.Items = cloneItems(rc.Items)
	r.db.recipes[rc.ID] = stored
	return nil
}

// Like increments the like count and returns the new value.
func (r *RecipeRepo) Like(ctx context.Context, id int64) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	rc, ok := r.db.recipes[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	rc.Likes++
	r.db.recipes[id] = rc
	return rc.Likes, nil
}

// Delete removes a recipe authored by userID and returns it.
func (r *RecipeRepo) Delete(ctx context.Context, userID, id int64) (*domain.CommunityRecipe, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	rc, ok := r.db.recipes[id]
	if !ok || rc.UserID != userID {
		return nil, domain.ErrNotFound
	}
	delete(r.db.recipes, id)
	return &rc, nil
}

// ListImagesByUser returns the image names of the user's recipes.
func (r *RecipeRepo) ListImagesByUser(ctx context.Context, userID int64) ([]string, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var names []string
	for _, rc := range r.db.recipes {
		if rc.UserID == userID && rc.ImageName != nil {
			names = append(names, *rc.ImageName)
		}
	}
	sort.Strings(names)
	return names, nil
}
