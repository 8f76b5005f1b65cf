package memory

import (
	"context"
	"sort"

	"nourish/internal/domain"
)

// --- EntryRepository ---

// EntryRepo implements food entry persistence.
type EntryRepo struct {
	db *DB
}

// Get retrieves one of the user's entries.
func (r *EntryRepo) Get(ctx context.Context, userID, id int64) (*domain.FoodEntry, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	e, ok := r.db.entries[id]
	if !ok || e.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return &e, nil
}

// ListDay returns the user's entries for day in insertion order.
func (r *EntryRepo) ListDay(ctx context.Context, userID int64, day string) ([]domain.FoodEntry, error) {
	return r.ListRange(ctx, userID, day, day)
}

// ListRange returns the user's entries for the days from..to inclusive,
// ordered by day then insertion.
func (r *EntryRepo) ListRange(ctx context.Context, userID int64, from, to string) ([]domain.FoodEntry, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	result := []domain.FoodEntry{}
	for _, e := range r.db.entries {
		if e.UserID == userID && e.Day >= from && e.Day <= to {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Day != result[j].Day {
			return result[i].Day < result[j].Day
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// Create adds an entry. The referenced food must exist.
func (r *EntryRepo) Create(ctx context.Context, e *domain.FoodEntry) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return r.insert(e)
}

// CreateBatch adds every entry or none.
func (r *EntryRepo) CreateBatch(ctx context.Context, entries []domain.FoodEntry) ([]domain.FoodEntry, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, e := range entries {
		if !r.db.refExists(e.UserID, e.Ref) {
			return nil, domain.ErrConflict
		}
	}
	created := make([]domain.FoodEntry, len(entries))
	for i := range entries {
		created[i] = entries[i]
		if err := r.insert(&created[i]); err != nil {
			return nil, err
		}
	}
	return created, nil
}

func (r *EntryRepo) insert(e *domain.FoodEntry) error {
	if _, ok := r.db.users[e.UserID]; !ok || !r.db.refExists(e.UserID, e.Ref) {
		return domain.ErrConflict
	}
	e.ID = r.db.nextID()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.db.now()
	}
	r.db.entries[e.ID] = *e
	return nil
}

// Update replaces one of the user's entries.
func (r *EntryRepo) Update(ctx context.Context, e *domain.FoodEntry) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	cur, ok := r.db.entries[e.ID]
	if !ok || cur.UserID != e.UserID {
		return domain.ErrNotFound
	}
	r.db.entries[e.ID] = *e
	return nil
}

// Delete removes one of the user's entries.
func (r *EntryRepo) Delete(ctx context.Context, userID, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	e, ok := r.db.entries[id]
	if !ok || e.UserID != userID {
		return domain.ErrNotFound
	}
	delete(r.db.entries, id)
	return nil
}

// DeleteDay removes the user's entries of day, limited to slot when set.
func (r *EntryRepo) DeleteDay(ctx context.Context, userID int64, day string, slot domain.MealSlot) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var n int64
	for id, e := range r.db.entries {
		if e.UserID == userID && e.Day == day && (slot == "" || e.Slot == slot) {
			delete(r.db.entries, id)
			n++
		}
	}
	return n, nil
}
