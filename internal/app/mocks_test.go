package app

import (
	"bytes"
	"context"
	"io"
	"time"

	"nourish/internal/domain"
)

type mockUserRepo struct {
	getByEmailFn    func(ctx context.Context, email string) (*domain.User, error)
	getByUsernameFn func(ctx context.Context, username string) (*domain.User, error)
	getByIDFn       func(ctx context.Context, id int64) (*domain.User, error)
	createFn        func(ctx context.Context, u *domain.User) error
	updateFn        func(ctx context.Context, u *domain.User) error
	deleteFn        func(ctx context.Context, id int64) error
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, domain.ErrNotFound
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.getByUsernameFn != nil {
		return m.getByUsernameFn(ctx, username)
	}
	return nil, domain.ErrNotFound
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return &domain.User{ID: id, Username: "testuser", Goals: domain.DefaultGoals()}, nil
}

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, u)
	}
	u.ID = 1
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, u *domain.User) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, u)
	}
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockTokenRepo struct {
	createFn        func(ctx context.Context, t domain.RefreshToken) error
	getFn           func(ctx context.Context, id string) (*domain.RefreshToken, error)
	deleteFn        func(ctx context.Context, id string) error
	deleteExpiredFn func(ctx context.Context, now time.Time) (int64, error)
}

func (m *mockTokenRepo) Create(ctx context.Context, t domain.RefreshToken) error {
	if m.createFn != nil {
		return m.createFn(ctx, t)
	}
	return nil
}

func (m *mockTokenRepo) Get(ctx context.Context, id string) (*domain.RefreshToken, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return &domain.RefreshToken{ID: id, UserID: 1}, nil
}

func (m *mockTokenRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockTokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if m.deleteExpiredFn != nil {
		return m.deleteExpiredFn(ctx, now)
	}
	return 0, nil
}

type mockFoodRepo struct {
	getByIDFn         func(ctx context.Context, id int64) (*domain.Food, error)
	getByExternalIDFn func(ctx context.Context, externalID string) (*domain.Food, error)
	searchFn          func(ctx context.Context, query string, limit int) ([]domain.Food, error)
	createFn          func(ctx context.Context, f *domain.Food) error
	countFn           func(ctx context.Context) (int, error)
}

func (m *mockFoodRepo) GetByID(ctx context.Context, id int64) (*domain.Food, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockFoodRepo) GetByExternalID(ctx context.Context, externalID string) (*domain.Food, error) {
	if m.getByExternalIDFn != nil {
		return m.getByExternalIDFn(ctx, externalID)
	}
	return nil, domain.ErrNotFound
}

func (m *mockFoodRepo) Search(ctx context.Context, query string, limit int) ([]domain.Food, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, limit)
	}
	return nil, nil
}

func (m *mockFoodRepo) Create(ctx context.Context, f *domain.Food) error {
	if m.createFn != nil {
		return m.createFn(ctx, f)
	}
	return nil
}

func (m *mockFoodRepo) Count(ctx context.Context) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

type mockCustomFoodRepo struct {
	getFn    func(ctx context.Context, userID, id int64) (*domain.CustomFood, error)
	listFn   func(ctx context.Context, userID int64) ([]domain.CustomFood, error)
	searchFn func(ctx context.Context, userID int64, query string, limit int) ([]domain.CustomFood, error)
	createFn func(ctx context.Context, f *domain.CustomFood) error
	updateFn func(ctx context.Context, f *domain.CustomFood) error
	deleteFn func(ctx context.Context, userID, id int64) error
}

func (m *mockCustomFoodRepo) Get(ctx context.Context, userID, id int64) (*domain.CustomFood, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockCustomFoodRepo) List(ctx context.Context, userID int64) ([]domain.CustomFood, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockCustomFoodRepo) Search(ctx context.Context, userID int64, query string, limit int) ([]domain.CustomFood, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, userID, query, limit)
	}
	return nil, nil
}

func (m *mockCustomFoodRepo) Create(ctx context.Context, f *domain.CustomFood) error {
	if m.createFn != nil {
		return m.createFn(ctx, f)
	}
	f.ID = 1
	return nil
}

func (m *mockCustomFoodRepo) Update(ctx context.Context, f *domain.CustomFood) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, f)
	}
	return nil
}

func (m *mockCustomFoodRepo) Delete(ctx context.Context, userID, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, id)
	}
	return nil
}

type mockExternal struct {
	searchFn func(ctx context.Context, query string, limit int) ([]domain.ExternalFood, error)
	fetchFn  func(ctx context.Context, externalID string) (*domain.ExternalFood, error)
}

func (m *mockExternal) Search(ctx context.Context, query string, limit int) ([]domain.ExternalFood, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, limit)
	}
	return nil, nil
}

func (m *mockExternal) Fetch(ctx context.Context, externalID string) (*domain.ExternalFood, error) {
	if m.fetchFn != nil {
		return m.fetchFn(ctx, externalID)
	}
	return nil, domain.ErrNotFound
}

type mockEntryRepo struct {
	getFn         func(ctx context.Context, userID, id int64) (*domain.FoodEntry, error)
	listDayFn     func(ctx context.Context, userID int64, day string) ([]domain.FoodEntry, error)
	listRangeFn   func(ctx context.Context, userID int64, from, to string) ([]domain.FoodEntry, error)
	createFn      func(ctx context.Context, e *domain.FoodEntry) error
	createBatchFn func(ctx context.Context, entries []domain.FoodEntry) ([]domain.FoodEntry, error)
	updateFn      func(ctx context.Context, e *domain.FoodEntry) error
	deleteFn      func(ctx context.Context, userID, id int64) error
	deleteDayFn   func(ctx context.Context, userID int64, day string, slot domain.MealSlot) (int64, error)
}

func (m *mockEntryRepo) Get(ctx context.Context, userID, id int64) (*domain.FoodEntry, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockEntryRepo) ListDay(ctx context.Context, userID int64, day string) ([]domain.FoodEntry, error) {
	if m.listDayFn != nil {
		return m.listDayFn(ctx, userID, day)
	}
	return nil, nil
}

func (m *mockEntryRepo) ListRange(ctx context.Context, userID int64, from, to string) ([]domain.FoodEntry, error) {
	if m.listRangeFn != nil {
		return m.listRangeFn(ctx, userID, from, to)
	}
	return nil, nil
}

func (m *mockEntryRepo) Create(ctx context.Context, e *domain.FoodEntry) error {
	if m.createFn != nil {
		return m.createFn(ctx, e)
	}
	e.ID = 1
	return nil
}

func (m *mockEntryRepo) CreateBatch(ctx context.Context, entries []domain.FoodEntry) ([]domain.FoodEntry, error) {
	if m.createBatchFn != nil {
		return m.createBatchFn(ctx, entries)
	}
	return entries, nil
}

func (m *mockEntryRepo) Update(ctx context.Context, e *domain.FoodEntry) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, e)
	}
	return nil
}

func (m *mockEntryRepo) Delete(ctx context.Context, userID, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, id)
	}
	return nil
}

func (m *mockEntryRepo) DeleteDay(ctx context.Context, userID int64, day string, slot domain.MealSlot) (int64, error) {
	if m.deleteDayFn != nil {
		return m.deleteDayFn(ctx, userID, day, slot)
	}
	return 0, nil
}

type mockMealRepo struct {
	getFn    func(ctx context.Context, userID, id int64) (*domain.SavedMeal, error)
	listFn   func(ctx context.Context, userID int64, page domain.Page) ([]domain.SavedMeal, int, error)
	createFn func(ctx context.Context, m *domain.SavedMeal) error
	updateFn func(ctx context.Context, m *domain.SavedMeal) error
	deleteFn func(ctx context.Context, userID, id int64) error
	importFn func(ctx context.Context, m *domain.SavedMeal, foods map[int]domain.CustomFood) error
}

func (m *mockMealRepo) Get(ctx context.Context, userID, id int64) (*domain.SavedMeal, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockMealRepo) List(ctx context.Context, userID int64, page domain.Page) ([]domain.SavedMeal, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, page)
	}
	return nil, 0, nil
}

func (m *mockMealRepo) Create(ctx context.Context, meal *domain.SavedMeal) error {
	if m.createFn != nil {
		return m.createFn(ctx, meal)
	}
	meal.ID = 1
	return nil
}

func (m *mockMealRepo) Update(ctx context.Context, meal *domain.SavedMeal) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, meal)
	}
	return nil
}

func (m *mockMealRepo) Delete(ctx context.Context, userID, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, id)
	}
	return nil
}

func (m *mockMealRepo) Import(ctx context.Context, meal *domain.SavedMeal, foods map[int]domain.CustomFood) error {
	if m.importFn != nil {
		return m.importFn(ctx, meal, foods)
	}
	meal.ID = 1
	return nil
}

type mockRecipeRepo struct {
	getFn              func(ctx context.Context, id int64) (*domain.CommunityRecipe, error)
	listFn             func(ctx context.Context, search string, page domain.Page) ([]domain.CommunityRecipe, int, error)
	createFn           func(ctx context.Context, r *domain.CommunityRecipe) error
	likeFn             func(ctx context.Context, id int64) (int, error)
	deleteFn           func(ctx context.Context, userID, id int64) (*domain.CommunityRecipe, error)
	listImagesByUserFn func(ctx context.Context, userID int64) ([]string, error)
}

func (m *mockRecipeRepo) Get(ctx context.Context, id int64) (*domain.CommunityRecipe, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockRecipeRepo) List(ctx context.Context, search string, page domain.Page) ([]domain.CommunityRecipe, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, search, page)
	}
	return nil, 0, nil
}

func (m *mockRecipeRepo) Create(ctx context.Context, r *domain.CommunityRecipe) error {
	if m.createFn != nil {
		return m.createFn(ctx, r)
	}
	r.ID = 1
	return nil
}

func (m *mockRecipeRepo) Like(ctx context.Context, id int64) (int, error) {
	if m.likeFn != nil {
		return m.likeFn(ctx, id)
	}
	return 1, nil
}

func (m *mockRecipeRepo) Delete(ctx context.Context, userID, id int64) (*domain.CommunityRecipe, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockRecipeRepo) ListImagesByUser(ctx context.Context, userID int64) ([]string, error) {
	if m.listImagesByUserFn != nil {
		return m.listImagesByUserFn(ctx, userID)
	}
	return nil, nil
}

type mockImageStore struct {
	saved   map[string][]byte
	deleted []string
	saveErr error
}

func (m *mockImageStore) Save(ctx context.Context, name, contentType string, r io.Reader, size int64) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if m.saved == nil {
		m.saved = make(map[string][]byte)
	}
	m.saved[name] = b
	return nil
}

func (m *mockImageStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	b, ok := m.saved[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (m *mockImageStore) Delete(ctx context.Context, name string) error {
	m.deleted = append(m.deleted, name)
	delete(m.saved, name)
	return nil
}

// fixedClock returns a clock stuck at 2024-06-15 12:00 UTC.
func fixedClock() func() time.Time {
	t := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return t }
}

func ptr[T any](v T) *T { return &v }
