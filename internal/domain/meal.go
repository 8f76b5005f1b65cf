package domain

import (
	"context"
	"time"

	"github.com/goccy/go-json"
)

// LineItem is one food of a saved meal or recipe with its snapshotted nutrients.
type LineItem struct {
	Ref       FoodRef
	Name      string
	Quantity  float64
	Nutrients Nutrients
}

type lineItemJSON struct {
	FoodID       *int64  `json:"food_id"`
	CustomFoodID *int64  `json:"custom_food_id"`
	Name         string  `json:"name"`
	Quantity     float64 `json:"quantity"`
	Nutrients
}

// MarshalJSON flattens the reference into food_id/custom_food_id.
func (li LineItem) MarshalJSON() ([]byte, error) {
	foodID, customID := RefIDs(li.Ref)
	return json.Marshal(lineItemJSON{
		FoodID:       foodID,
		CustomFoodID: customID,
		Name:         li.Name,
		Quantity:     li.Quantity,
		Nutrients:    li.Nutrients,
	})
}

// UnmarshalJSON rejects items that do not carry exactly one reference.
func (li *LineItem) UnmarshalJSON(b []byte) error {
	var raw lineItemJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	ref, err := NewFoodRef(raw.FoodID, raw.CustomFoodID)
	if err != nil {
		return err
	}
	*li = LineItem{Ref: ref, Name: raw.Name, Quantity: raw.Quantity, Nutrients: raw.Nutrients}
	return nil
}

// Totals aggregates the snapshotted nutrients of items.
func Totals(items []LineItem) Nutrients {
	sets := make([]Nutrients, len(items))
	for i, it := range items {
		sets[i] = it.Nutrients
	}
	return Aggregate(sets...)
}

// SavedMeal is a reusable, user-owned list of foods.
type SavedMeal struct {
	ID          int64
	UserID      int64
	Name        string
	Description *string
	Items       []LineItem
	Totals      Nutrients
	CreatedAt   time.Time
}

// Page selects a 1-based window of a listing.
type Page struct {
	Number  int
	PerPage int
}

// Offset returns the number of rows skipped before the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

// Pages returns how many pages total rows span.
func (p Page) Pages(total int) int {
	if p.PerPage <= 0 {
		return 0
	}
	return (total + p.PerPage - 1) / p.PerPage
}

// MealRepository is the port for saved meal persistence.
// Every method is scoped to userID.
type MealRepository interface {
	Get(ctx context.Context, userID, id int64) (*SavedMeal, error)
	List(ctx context.Context, userID int64, page Page) ([]SavedMeal, int, error)
	Create(ctx context.Context, m *SavedMeal) error
	Update(ctx context.Context, m *SavedMeal) error
	Delete(ctx context.Context, userID, id int64) error
	// Import creates foods for m.UserID, points the line item at each index
	// to the new food and creates m, all or none.
	Import(ctx context.Context, m *SavedMeal, foods map[int]CustomFood) error
}
