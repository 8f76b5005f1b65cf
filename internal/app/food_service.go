package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"nourish/internal/domain"
	"nourish/internal/logging"
	"nourish/internal/metrics"
	"nourish/internal/validation"
)

const (
	customSearchLimit   = 5
	externalSearchLimit = 5
	// ExternalIDPrefix marks search results that come from the external database.
	ExternalIDPrefix = "usda_"
)

// SearchResults holds the three sources of a food search in display order.
type SearchResults struct {
	Foods    []domain.Food
	Custom   []domain.CustomFood
	External []domain.ExternalFood
	// Degraded is set when the external lookup failed and was skipped.
	Degraded bool
}

// Len returns the number of results across all sources.
func (r SearchResults) Len() int {
	return len(r.Foods) + len(r.Custom) + len(r.External)
}

// FoodService covers the catalog, custom foods and external imports.
type FoodService struct {
	foods    domain.FoodRepository
	custom   domain.CustomFoodRepository
	external domain.ExternalFoodSource
}

// NewFoodService creates a FoodService. external may be nil, in which case
// search is local-only and imports are refused.
func NewFoodService(foods domain.FoodRepository, custom domain.CustomFoodRepository, external domain.ExternalFoodSource) *FoodService {
	return &FoodService{foods: foods, custom: custom, external: external}
}

// Search matches the catalog and the caller's custom foods, topping up from
// the external database while there are fewer than the requested results.
// External failures degrade to local results.
func (s *FoodService) Search(ctx context.Context, userID int64, in validation.Search) (SearchResults, error) {
	if in.Limit == 0 {
		in.Limit = validation.DefaultSearchLimit
	}
	if err := in.Validate(); err != nil {
		return SearchResults{}, err
	}

	var res SearchResults
	var err error
	if res.Foods, err = s.foods.Search(ctx, in.Query, in.Limit); err != nil {
		return SearchResults{}, err
	}
	if res.Custom, err = s.custom.Search(ctx, userID, in.Query, min(customSearchLimit, in.Limit)); err != nil {
		return SearchResults{}, err
	}
	if s.external == nil || res.Len() >= in.Limit {
		return res, nil
	}

	ext, err := s.external.Search(ctx, in.Query, min(externalSearchLimit, in.Limit-res.Len()))
	if err != nil {
		metrics.ExternalLookupDegraded.Inc()
		logging.Ctx(ctx).Warn().Err(err).Str("query", in.Query).Msg("External food search failed, returning local results")
		res.Degraded = true
		return res, nil
	}
	res.External = ext
	return res, nil
}

// Get returns a catalog food.
func (s *FoodService) Get(ctx context.Context, id int64) (*domain.Food, error) {
	f, err := s.foods.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Food")
	}
	return f, nil
}

// Nutrition returns a catalog food with its nutrients scaled to quantity grams.
func (s *FoodService) Nutrition(ctx context.Context, id int64, quantity float64) (*domain.Food, domain.Nutrients, error) {
	if quantity < 0.1 || quantity > 5000 {
		fe := validation.FieldErrors{}
		fe.Add("quantity", "Quantity must be between 0.1 and 5000")
		return nil, domain.Nutrients{}, fe.Err()
	}
	f, err := s.Get(ctx, id)
	if err != nil {
		return nil, domain.Nutrients{}, err
	}
	return f, f.Portion(quantity).Rounded(), nil
}

// Import persists an external food into the catalog. It returns the existing
// row with created=false when the food was imported before.
func (s *FoodService) Import(ctx context.Context, externalID string) (food *domain.Food, created bool, err error) {
	externalID = strings.TrimPrefix(externalID, ExternalIDPrefix)
	if externalID == "" || strings.Trim(externalID, "0123456789") != "" {
		fe := validation.FieldErrors{}
		fe.Add("external_id", "Invalid external food id")
		return nil, false, fe.Err()
	}

	if f, err := s.foods.GetByExternalID(ctx, externalID); err == nil {
		return f, false, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}

	if s.external == nil {
		return nil, false, ErrExternalNotConfigured
	}
	ext, err := s.external.Fetch(ctx, externalID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, false, &NotFoundError{Resource: "Food"}
		}
		return nil, false, fmt.Errorf("%w: %w", ErrExternalUnavailable, err)
	}

	id := ext.ExternalID
	f := &domain.Food{
		ExternalID: &id,
		Name:       ext.Name,
		Brand:      ext.Brand,
		Nutrients:  ext.Nutrients.Rounded(),
		Sugar:      ext.Sugar,
		Sodium:     ext.Sodium,
	}
	if err := s.foods.Create(ctx, f); err != nil {
		// A concurrent import won the unique external id.
		if errors.Is(err, domain.ErrConflict) {
			existing, gerr := s.foods.GetByExternalID(ctx, externalID)
			if gerr != nil {
				return nil, false, gerr
			}
			return existing, false, nil
		}
		return nil, false, err
	}
	return f, true, nil
}

// CreateCustom stores a new custom food for the caller.
func (s *FoodService) CreateCustom(ctx context.Context, userID int64, in validation.CustomFood) (*domain.CustomFood, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	f := in.Food(userID)
	if err := s.custom.Create(ctx, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// ListCustom returns the caller's custom foods.
func (s *FoodService) ListCustom(ctx context.Context, userID int64) ([]domain.CustomFood, error) {
	return s.custom.List(ctx, userID)
}

// GetCustom returns one of the caller's custom foods.
func (s *FoodService) GetCustom(ctx context.Context, userID, id int64) (*domain.CustomFood, error) {
	f, err := s.custom.Get(ctx, userID, id)
	if err != nil {
		return nil, notFound(err, "Custom food")
	}
	return f, nil
}

// UpdateCustom replaces one of the caller's custom foods. Entries logged
// earlier keep their snapshot.
func (s *FoodService) UpdateCustom(ctx context.Context, userID, id int64, in validation.CustomFood) (*domain.CustomFood, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.GetCustom(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	f := in.Food(userID)
	f.ID = existing.ID
	f.CreatedAt = existing.CreatedAt
	if err := s.custom.Update(ctx, &f); err != nil {
		return nil, notFound(err, "Custom food")
	}
	return &f, nil
}

// DeleteCustom removes one of the caller's custom foods. Foods still
// referenced by logged entries cannot be removed.
func (s *FoodService) DeleteCustom(ctx context.Context, userID, id int64) error {
	err := s.custom.Delete(ctx, userID, id)
	if errors.Is(err, domain.ErrConflict) {
		return &ConflictError{Message: "Custom food is used by logged entries"}
	}
	return notFound(err, "Custom food")
}

// starterCatalog seeds an empty catalog. Values are per 100 g.
var starterCatalog = []domain.Food{
	{Name: "Chicken Breast", Nutrients: domain.Nutrients{Calories: 165, Protein: 31, Carbs: 0, Fat: 3.6, Fiber: 0}},
	{Name: "Brown Rice", Nutrients: domain.Nutrients{Calories: 112, Protein: 2.6, Carbs: 24, Fat: 0.9, Fiber: 1.8}},
	{Name: "Broccoli", Nutrients: domain.Nutrients{Calories: 34, Protein: 2.8, Carbs: 7, Fat: 0.4, Fiber: 2.6}},
	{Name: "Salmon", Nutrients: domain.Nutrients{Calories: 208, Protein: 20, Carbs: 0, Fat: 13, Fiber: 0}},
	{Name: "Sweet Potato", Nutrients: domain.Nutrients{Calories: 86, Protein: 1.6, Carbs: 20, Fat: 0.1, Fiber: 3}},
	{Name: "Eggs", Nutrients: domain.Nutrients{Calories: 155, Protein: 13, Carbs: 1.1, Fat: 11, Fiber: 0}},
	{Name: "Banana", Nutrients: domain.Nutrients{Calories: 89, Protein: 1.1, Carbs: 23, Fat: 0.3, Fiber: 2.6}},
	{Name: "Oats", Nutrients: domain.Nutrients{Calories: 389, Protein: 17, Carbs: 66, Fat: 7, Fiber: 11}},
	{Name: "Greek Yogurt", Nutrients: domain.Nutrients{Calories: 59, Protein: 10, Carbs: 3.6, Fat: 0.4, Fiber: 0}},
	{Name: "Almonds", Nutrients: domain.Nutrients{Calories: 579, Protein: 21, Carbs: 22, Fat: 50, Fiber: 12.5}},
}

// SeedCatalog inserts the starter foods when the catalog is empty and
// returns how many were added.
func (s *FoodService) SeedCatalog(ctx context.Context) (int, error) {
	n, err := s.foods.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	for i := range starterCatalog {
		f := starterCatalog[i]
		if err := s.foods.Create(ctx, &f); err != nil {
			return i, fmt.Errorf("seed %s: %w", f.Name, err)
		}
	}
	return len(starterCatalog), nil
}
