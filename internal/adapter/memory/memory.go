// Package memory implements an in-memory repository for development and testing.
//
// All repositories share one DB and one lock, so foreign keys, cascades and
// multi-row writes behave as they do in postgres.
package memory

import (
	"strings"
	"sync"
	"time"

	"nourish/internal/domain"
)

// DB implements an in-memory database storage.
type DB struct {
	mu      sync.Mutex
	users   map[int64]domain.User
	tokens  map[string]domain.RefreshToken
	foods   map[int64]domain.Food
	custom  map[int64]domain.CustomFood
	entries map[int64]domain.FoodEntry
	meals   map[int64]domain.SavedMeal
	recipes map[int64]domain.CommunityRecipe
	lastID  int64
	nowFunc func() time.Time
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		users:   make(map[int64]domain.User),
		tokens:  make(map[string]domain.RefreshToken),
		foods:   make(map[int64]domain.Food),
		custom:  make(map[int64]domain.CustomFood),
		entries: make(map[int64]domain.FoodEntry),
		meals:   make(map[int64]domain.SavedMeal),
		recipes: make(map[int64]domain.CommunityRecipe),
		nowFunc: time.Now,
	}
}

// Users returns the UserRepository view of db.
func (db *DB) Users() *UserRepo { return &UserRepo{db: db} }

// Tokens returns the RefreshTokenRepository view of db.
func (db *DB) Tokens() *TokenRepo { return &TokenRepo{db: db} }

// Foods returns the FoodRepository view of db.
func (db *DB) Foods() *FoodRepo { return &FoodRepo{db: db} }

// CustomFoods returns the CustomFoodRepository view of db.
func (db *DB) CustomFoods() *CustomFoodRepo { return &CustomFoodRepo{db: db} }

// Entries returns the EntryRepository view of db.
func (db *DB) Entries() *EntryRepo { return &EntryRepo{db: db} }

// Meals returns the MealRepository view of db.
func (db *DB) Meals() *MealRepo { return &MealRepo{db: db} }

// Recipes returns the RecipeRepository view of db.
func (db *DB) Recipes() *RecipeRepo { return &RecipeRepo{db: db} }

// Ensure interfaces are met.
var (
	_ domain.UserRepository         = (*UserRepo)(nil)
	_ domain.RefreshTokenRepository = (*TokenRepo)(nil)
	_ domain.FoodRepository         = (*FoodRepo)(nil)
	_ domain.CustomFoodRepository   = (*CustomFoodRepo)(nil)
	_ domain.EntryRepository        = (*EntryRepo)(nil)
	_ domain.MealRepository         = (*MealRepo)(nil)
	_ domain.RecipeRepository       = (*RecipeRepo)(nil)
)

// nextID returns a fresh id. Callers hold db.mu.
func (db *DB) nextID() int64 {
	db.lastID++
	return db.lastID
}

func (db *DB) now() time.Time {
	return db.nowFunc().UTC()
}

// refExists reports whether ref points at a live food visible to userID.
// Callers hold db.mu.
func (db *DB) refExists(userID int64, ref domain.FoodRef) bool {
	switch r := ref.(type) {
	case domain.CatalogRef:
		_, ok := db.foods[r.FoodID]
		return ok
	case domain.CustomRef:
		f, ok := db.custom[r.CustomFoodID]
		return ok && f.UserID == userID
	}
	return false
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// paginate returns the page window of items.
func paginate[T any](items []T, page domain.Page) []T {
	start := min(page.Offset(), len(items))
	end := min(start+page.PerPage, len(items))
	return items[start:end]
}

func cloneItems(items []domain.LineItem) []domain.LineItem {
	return append([]domain.LineItem(nil), items...)
}
