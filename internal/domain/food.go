package domain

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidReference is returned when a payload names zero or both food ids.
var ErrInvalidReference = errors.New("exactly one of food_id or custom_food_id is required")

// FoodRef points an entry or line item at the food its nutrients derive from.
// It is either a CatalogRef or a CustomRef.
type FoodRef interface {
	foodRef()
}

// CatalogRef references a shared catalog Food.
type CatalogRef struct{ FoodID int64 }

// CustomRef references a CustomFood owned by the caller.
type CustomRef struct{ CustomFoodID int64 }

func (CatalogRef) foodRef() {}
func (CustomRef) foodRef()  {}

// NewFoodRef builds a reference from the two optional wire ids.
func NewFoodRef(foodID, customFoodID *int64) (FoodRef, error) {
	switch {
	case foodID != nil && customFoodID == nil:
		return CatalogRef{FoodID: *foodID}, nil
	case customFoodID != nil && foodID == nil:
		return CustomRef{CustomFoodID: *customFoodID}, nil
	}
	return nil, ErrInvalidReference
}

// RefIDs splits a reference back into its wire ids.
func RefIDs(ref FoodRef) (foodID, customFoodID *int64) {
	switch r := ref.(type) {
	case CatalogRef:
		id := r.FoodID
		return &id, nil
	case CustomRef:
		id := r.CustomFoodID
		return nil, &id
	}
	return nil, nil
}

// Food is a shared catalog item with nutrients per CatalogBaseGrams.
type Food struct {
	ID         int64     `json:"id"`
	ExternalID *string   `json:"-"`
	Name       string    `json:"name"`
	Brand      *string   `json:"brand"`
	Sugar      *float64  `json:"sugar,omitempty"`
	Sodium     *float64  `json:"sodium,omitempty"`
	CreatedAt  time.Time `json:"-"`
	// Nutrients per CatalogBaseGrams.
	Nutrients
}

// Portion returns the nutrients for quantity grams of f.
func (f Food) Portion(quantity float64) Nutrients {
	return Scale(f.Nutrients, CatalogBaseGrams, quantity)
}

// CustomFood is a user-defined food whose nutrients describe one serving.
type CustomFood struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"-"`
	Name        string    `json:"name"`
	Brand       *string   `json:"brand"`
	ServingSize float64   `json:"serving_size"`
	Sugar       *float64  `json:"sugar,omitempty"`
	Sodium      *float64  `json:"sodium,omitempty"`
	CreatedAt   time.Time `json:"-"`
	// Nutrients per ServingSize grams.
	Nutrients
}

// Portion returns the nutrients for quantity grams of c.
func (c CustomFood) Portion(quantity float64) Nutrients {
	return Scale(c.Nutrients, c.ServingSize, quantity)
}

// ExternalFood is a normalized candidate from the third-party nutrition database.
type ExternalFood struct {
	ExternalID string
	Name       string
	Brand      *string
	Nutrients  Nutrients // per 100 g
	Sugar      *float64
	Sodium     *float64
}

// ExternalFoodSource is the port for the third-party nutrition database.
// Fetch returns ErrNotFound when the id is unknown upstream.
type ExternalFoodSource interface {
	Search(ctx context.Context, query string, limit int) ([]ExternalFood, error)
	Fetch(ctx context.Context, externalID string) (*ExternalFood, error)
}

// FoodRepository is the port for catalog food persistence.
type FoodRepository interface {
	GetByID(ctx context.Context, id int64) (*Food, error)
	GetByExternalID(ctx context.Context, externalID string) (*Food, error)
	Search(ctx context.Context, query string, limit int) ([]Food, error)
	Create(ctx context.Context, f *Food) error
	Count(ctx context.Context) (int, error)
}

// CustomFoodRepository is the port for user-owned food persistence.
// Every method is scoped to userID.
type CustomFoodRepository interface {
	Get(ctx context.Context, userID, id int64) (*CustomFood, error)
	List(ctx context.Context, userID int64) ([]CustomFood, error)
	Search(ctx context.Context, userID int64, query string, limit int) ([]CustomFood, error)
	Create(ctx context.Context, f *CustomFood) error
	Update(ctx context.Context, f *CustomFood) error
	Delete(ctx context.Context, userID, id int64) error
}
