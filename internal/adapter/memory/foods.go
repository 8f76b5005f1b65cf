package memory

import (
	"context"
	"sort"

	"nourish/internal/domain"
)

// --- FoodRepository ---

// FoodRepo implements catalog food persistence.
type FoodRepo struct {
	db *DB
}

// GetByID retrieves a catalog food.
func (r *FoodRepo) GetByID(ctx context.Context, id int64) (*domain.Food, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	f, ok := r.db.foods[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &f, nil
}

// GetByExternalID retrieves a catalog food imported from the external database.
func (r *FoodRepo) GetByExternalID(ctx context.Context, externalID string) (*domain.Food, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, f := range r.db.foods {
		if f.ExternalID != nil && *f.ExternalID == externalID {
			return &f, nil
		}
	}
	return nil, domain.ErrNotFound
}

// Search returns foods whose name contains query, ignoring case, ordered by name.
func (r *FoodRepo) Search(ctx context.Context, query string, limit int) ([]domain.Food, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	result := []domain.Food{}
	for _, f := range r.db.foods {
		if containsFold(f.Name, query) {
			result = append(result, f)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Create adds a catalog food. External ids are unique.
func (r *FoodRepo) Create(ctx context.Context, f *domain.Food) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if f.ExternalID != nil {
		for _, o := range r.db.foods {
			if o.ExternalID != nil && *o.ExternalID == *f.ExternalID {
				return domain.ErrConflict
			}
		}
	}
	f.ID = r.db.nextID()
	f.CreatedAt = r.db.now()
	r.db.foods[f.ID] = *f
	return nil
}

// Count returns the number of catalog foods.
func (r *FoodRepo) Count(ctx context.Context) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return len(r.db.foods), nil
}

// --- CustomFoodRepository ---

// CustomFoodRepo implements custom food persistence.
type CustomFoodRepo struct {
	db *DB
}

// Get retrieves one of the user's custom foods.
func (r *CustomFoodRepo) Get(ctx context.Context, userID, id int64) (*domain.CustomFood, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	f, ok := r.db.custom[id]
	if !ok || f.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return &f, nil
}

// List returns the user's custom foods ordered by name.
func (r *CustomFoodRepo) List(ctx context.Context, userID int64) ([]domain.CustomFood, error) {
	return r.Search(ctx, userID, "", -1)
}

// Search returns the user's custom foods whose name contains query.
// A negative limit returns every match.
func (r *CustomFoodRepo) Search(ctx context.Context, userID int64, query string, limit int) ([]domain.CustomFood, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	result := []domain.CustomFood{}
	for _, f := range r.db.custom {
		if f.UserID == userID && containsFold(f.Name, query) {
			result = append(result, f)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	if limit >= 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Create adds a custom food.
func (r *CustomFoodRepo) Create(ctx context.Context, f *domain.CustomFood) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[f.UserID]; !ok {
		return domain.ErrConflict
	}
	f.ID = r.db.nextID()
	f.CreatedAt = r.db.now()
	r.db.custom[f.ID] = *f
	return nil
}

// Update replaces one of the user's custom foods.
func (r *CustomFoodRepo) Update(ctx context.Context, f *domain.CustomFood) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	cur, ok := r.db.custom[f.ID]
	if !ok || cur.UserID != f.UserID {
		return domain.ErrNotFound
	}
	f.CreatedAt = cur.CreatedAt
	r.db.custom[f.ID] = *f
	return nil
}

// Delete removes one of the user's custom foods unless entries reference it.
func (r *CustomFoodRepo) Delete(ctx context.Context, userID, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	f, ok := r.db.custom[id]
	if !ok || f.UserID != userID {
		return domain.ErrNotFound
	}
	for _, e := range r.db.entries {
		if ref, ok := e.Ref.(domain.CustomRef); ok && ref.CustomFoodID == id {
			return domain.ErrConflict
		}
	}
	delete(r.db.custom, id)
	return nil
}
