package validation

import (
	"fmt"

	"nourish/internal/domain"
)

const maxItemQuantity = 5000.0

// Item is one food of a saved meal or recipe payload.
type Item struct {
	FoodID       *int64   `json:"food_id"`
	CustomFoodID *int64   `json:"custom_food_id"`
	Quantity     *float64 `json:"quantity"`
}

// ItemRef is a validated item reference with its quantity.
type ItemRef struct {
	Ref      domain.FoodRef
	Quantity float64
}

// SavedMeal is the create/replace payload for a saved meal.
type SavedMeal struct {
	Name        string  `json:"name" validate:"min=2,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Foods       []Item  `json:"foods"`
}

// Validate strips markup from the name and checks each item.
func (m *SavedMeal) Validate() error {
	m.Name = StripTags(m.Name)
	if m.Description != nil {
		d := StripTags(*m.Description)
		m.Description = &d
	}
	fe := FieldErrors{}
	check(fe, m)
	checkItems(fe, m.Foods)
	return fe.Err()
}

// Items returns the validated references in payload order.
func (m SavedMeal) Items() []ItemRef {
	return itemRefs(m.Foods)
}

// Recipe is the payload for sharing a community recipe.
type Recipe struct {
	Title        string  `json:"title" validate:"min=2,max=200"`
	Description  *string `json:"description" validate:"omitempty,max=500"`
	Instructions string  `json:"instructions" validate:"required,max=5000"`
	Foods        []Item  `json:"foods"`
}

// Validate strips markup from the free-text fields and checks each item.
func (r *Recipe) Validate() error {
	r.Title = StripTags(r.Title)
	r.Instructions = StripTags(r.Instructions)
	if r.Description != nil {
		d := StripTags(*r.Description)
		r.Description = &d
	}
	fe := FieldErrors{}
	check(fe, r)
	checkItems(fe, r.Foods)
	return fe.Err()
}

// Items returns the validated references in payload order.
func (r Recipe) Items() []ItemRef {
	return itemRefs(r.Foods)
}

// ShareMeal publishes a saved meal as a community recipe. Title and
// description default to the meal's own.
type ShareMeal struct {
	Title        *string `json:"title" validate:"omitempty,min=2,max=200"`
	Description  *string `json:"description" validate:"omitempty,max=500"`
	Instructions string  `json:"instructions" validate:"required,max=5000"`
}

// Validate strips markup from the free-text fields.
func (s *ShareMeal) Validate() error {
	if s.Title != nil {
		t := StripTags(*s.Title)
		s.Title = &t
	}
	if s.Description != nil {
		d := StripTags(*s.Description)
		s.Description = &d
	}
	s.Instructions = StripTags(s.Instructions)
	fe := FieldErrors{}
	check(fe, s)
	return fe.Err()
}

func checkItems(fe FieldErrors, items []Item) {
	if len(items) == 0 {
		fe.Add("foods", "At least one food item is required")
		return
	}
	for i, it := range items {
		n := i + 1
		if _, err := domain.NewFoodRef(it.FoodID, it.CustomFoodID); err != nil {
			fe.Add("foods", fmt.Sprintf("Food item %d: Must have exactly one of food_id or custom_food_id", n))
		}
		switch {
		case it.Quantity == nil:
			fe.Add("foods", fmt.Sprintf("Food item %d: Quantity is required", n))
		case *it.Quantity <= 0:
			fe.Add("foods", fmt.Sprintf("Food item %d: Quantity must be a positive number", n))
		case *it.Quantity > maxItemQuantity:
			fe.Add("foods", fmt.Sprintf("Food item %d: Quantity cannot exceed 5000g", n))
		}
	}
}

func itemRefs(items []Item) []ItemRef {
	out := make([]ItemRef, 0, len(items))
	for _, it := range items {
		ref, err := domain.NewFoodRef(it.FoodID, it.CustomFoodID)
		if err != nil || it.Quantity == nil {
			continue
		}
		out = append(out, ItemRef{Ref: ref, Quantity: *it.Quantity})
	}
	return out
}
