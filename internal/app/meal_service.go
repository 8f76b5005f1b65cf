package app

import (
	"context"
	"time"

	"nourish/internal/domain"
	"nourish/internal/metrics"
	"nourish/internal/validation"
)

// MealService manages saved meals and logging them into a day.
type MealService struct {
	meals    domain.MealRepository
	entries  domain.EntryRepository
	resolver foodResolver
	now      func() time.Time
}

// NewMealService creates a MealService backed by the given repositories.
func NewMealService(meals domain.MealRepository, entries domain.EntryRepository, foods domain.FoodRepository, custom domain.CustomFoodRepository) *MealService {
	return &MealService{
		meals:    meals,
		entries:  entries,
		resolver: foodResolver{foods: foods, custom: custom},
		now:      time.Now,
	}
}

// Create snapshots every referenced food and stores the meal.
func (s *MealService) Create(ctx context.Context, userID int64, in validation.SavedMeal) (*domain.SavedMeal, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	items, err := s.resolver.lineItems(ctx, userID, in.Items())
	if err != nil {
		return nil, err
	}
	m := &domain.SavedMeal{
		UserID:      userID,
		Name:        in.Name,
		Description: in.Description,
		Items:       items,
		Totals:      domain.Totals(items).Rounded(),
		CreatedAt:   s.now(),
	}
	if err := s.meals.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// List returns a page of the caller's meals, newest first, with the total count.
func (s *MealService) List(ctx context.Context, userID int64, in validation.Pagination) ([]domain.SavedMeal, int, domain.Page, error) {
	page, err := in.Validate()
	if err != nil {
		return nil, 0, page, err
	}
	meals, total, err := s.meals.List(ctx, userID, page)
	return meals, total, page, err
}

// Get returns one of the caller's meals.
func (s *MealService) Get(ctx context.Context, userID, id int64) (*domain.SavedMeal, error) {
	m, err := s.meals.Get(ctx, userID, id)
	if err != nil {
		return nil, notFound(err, "Meal")
	}
	return m, nil
}

// Update replaces name, description and items, re-snapshotting every item.
func (s *MealService) Update(ctx context.Context, userID, id int64, in validation.SavedMeal) (*domain.SavedMeal, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	m, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	items, err := s.resolver.lineItems(ctx, userID, in.Items())
	if err != nil {
		return nil, err
	}
	m.Name = in.Name
	m.Description = in.Description
	m.Items = items
	m.Totals = domain.Totals(items).Rounded()
	if err := s.meals.Update(ctx, m); err != nil {
		return nil, notFound(err, "Meal")
	}
	return m, nil
}

// Delete removes one of the caller's meals.
func (s *MealService) Delete(ctx context.Context, userID, id int64) error {
	return notFound(s.meals.Delete(ctx, userID, id), "Meal")
}

// Apply logs one entry per line item into a slot of a day, all or none.
// Entries take the meal's snapshotted nutrients; every referenced food must
// still exist.
func (s *MealService) Apply(ctx context.Context, userID, mealID int64, in validation.ApplyMeal) ([]domain.FoodEntry, error) {
	if err := in.Validate(s.now()); err != nil {
		return nil, err
	}
	m, err := s.Get(ctx, userID, mealID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	batch := make([]domain.FoodEntry, 0, len(m.Items))
	for _, it := range m.Items {
		if _, err := s.resolver.resolve(ctx, userID, it.Ref, it.Quantity); err != nil {
			return nil, err
		}
		batch = append(batch, domain.FoodEntry{
			UserID:    userID,
			Ref:       it.Ref,
			FoodName:  it.Name,
			Day:       in.Date,
			Slot:      domain.MealSlot(in.MealType),
			Quantity:  it.Quantity,
			Nutrients: it.Nutrients,
			CreatedAt: now,
		})
	}

	created, err := s.entries.CreateBatch(ctx, batch)
	if err != nil {
		return nil, err
	}
	metrics.EntriesLogged.WithLabelValues("saved_meal").Add(float64(len(created)))
	return created, nil
}
