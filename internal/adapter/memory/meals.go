package memory

import (
	"context"
	"sort"

	"nourish/internal/domain"
)

// --- MealRepository ---

// MealRepo implements saved meal persistence.
type MealRepo struct {
	db *DB
}

// Get retrieves one of the user's meals.
func (r *MealRepo) Get(ctx context.Context, userID, id int64) (*domain.SavedMeal, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	m, ok := r.db.meals[id]
	if !ok || m.UserID != userID {
		return nil, domain.ErrNotFound
	}
	m.Items = cloneItems(m.Items)
	return &m, nil
}

// List returns a page of the user's meals, newest first, and the total count.
func (r *MealRepo) List(ctx context.Context, userID int64, page domain.Page) ([]domain.SavedMeal, int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	all := []domain.SavedMeal{}
	for _, m := range r.db.meals {
		if m.UserID == userID {
			m.Items = cloneItems(m.Items)
			all = append(all, m)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return paginate(all, page), len(all), nil
}

// Create adds a meal.
func (r *MealRepo) Create(ctx context.Context, m *domain.SavedMeal) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.insert(m)
}

func (r *MealRepo) insert(m *domain.SavedMeal) error {
	if _, ok := r.db.users[m.UserID]; !ok {
		return domain.ErrConflict
	}
	m.ID = r.db.nextID()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = r.db.now()
	}
	stored := *m
	stored.Items = cloneItems(m.Items)
	r.db.meals[m.ID] = stored
	return nil
}

// Update replaces one of the user's meals.
func (r *MealRepo) Update(ctx context.Context, m *domain.SavedMeal) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	cur, ok := r.db.meals[m.ID]
	if !ok || cur.UserID != m.UserID {
		return domain.ErrNotFound
	}
	stored := *m
	stored.Items = cloneItems(m.Items)
	r.db.meals[m.ID] = stored
	return nil
}

// Delete removes one of the user's meals.
func (r *MealRepo) Delete(ctx context.Context, userID, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	m, ok := r.db.meals[id]
	if !ok || m.UserID != userID {
		return domain.ErrNotFound
	}
	delete(r.db.meals, id)
	return nil
}

// Import creates the foods, re-points their line items and creates m under one lock.
func (r *MealRepo) Import(ctx context.Context, m *domain.SavedMeal, foods map[int]domain.CustomFood) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[m.UserID]; !ok {
		return domain.ErrConflict
	}
	for idx := range foods {
		if idx < 0 || idx >= len(m.Items) {
			return domain.ErrInvalidReference
		}
	}
	for idx, f := range foods {
		f.ID = r.db.nextID()
		f.UserID = m.UserID
		if f.CreatedAt.IsZero() {
			f.CreatedAt = r.db.now()
		}
		r.db.custom[f.ID] = f
		m.Items[idx].Ref = domain.CustomRef{CustomFoodID: f.ID}
	}
	return r.insert(m)
}
