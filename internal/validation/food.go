package validation

import (
	"fmt"
	"strings"

	"nourish/internal/domain"
)

// CustomFood is the create/update payload for a user-defined food.
// Nutrient values describe one serving of ServingSize grams.
type CustomFood struct {
	Name        string   `json:"name" validate:"required,min=2,max=100,lookupsafe"`
	Brand       *string  `json:"brand" validate:"omitempty,max=50"`
	ServingSize *float64 `json:"serving_size" validate:"required,gte=1,lte=2000"`
	Calories    *float64 `json:"calories" validate:"required,gte=0,lte=5000"`
	Protein     *float64 `json:"protein" validate:"required,gte=0,lte=500"`
	Carbs       *float64 `json:"carbs" validate:"required,gte=0,lte=500"`
	Fat         *float64 `json:"fat" validate:"required,gte=0,lte=500"`
	Fiber       *float64 `json:"fiber" validate:"omitempty,gte=0,lte=100"`
	Sugar       *float64 `json:"sugar" validate:"omitempty,gte=0,lte=500"`
	Sodium      *float64 `json:"sodium" validate:"omitempty,gte=0,lte=10000"`
}

// Validate trims the name and checks ranges, sugar against carbs and
// calories against the macro estimate.
func (c *CustomFood) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Brand != nil {
		b := strings.TrimSpace(*c.Brand)
		c.Brand = &b
	}

	fe := FieldErrors{}
	check(fe, c)
	if len(fe) > 0 {
		return fe.Err()
	}

	fiber := deref(c.Fiber)
	if c.Sugar != nil && *c.Sugar > 0 && *c.Sugar > *c.Carbs {
		fe.Add("sugar", "Sugar cannot exceed total carbohydrates")
	}
	calc := domain.MacroCalories(*c.Protein, *c.Carbs, *c.Fat) - fiber*2
	if *c.Calories < calc*0.8 || *c.Calories > calc*1.2 {
		fe.Add(SchemaField, fmt.Sprintf("Nutrition values don't match. Calories: %g, Expected from macros: %.0f", *c.Calories, calc))
	}
	return fe.Err()
}

// Food converts a validated payload into a custom food owned by userID.
// Numeric values are rounded to one decimal.
func (c CustomFood) Food(userID int64) domain.CustomFood {
	return domain.CustomFood{
		UserID:      userID,
		Name:        c.Name,
		Brand:       c.Brand,
		ServingSize: domain.Round1(deref(c.ServingSize)),
		Nutrients: domain.Nutrients{
			Calories: deref(c.Calories),
			Protein:  deref(c.Protein),
			Carbs:    deref(c.Carbs),
			Fat:      deref(c.Fat),
			Fiber:    deref(c.Fiber),
		}.Rounded(),
		Sugar:  round1Ptr(c.Sugar),
		Sodium: round1Ptr(c.Sodium),
	}
}

// DefaultSearchLimit is used when a search does not specify a limit.
const DefaultSearchLimit = 10

// Search is a food search request.
type Search struct {
	Query string `json:"query" validate:"min=2,max=100"`
	Limit int    `json:"limit" validate:"gte=1,lte=50"`
}

// Validate sanitizes the query before checking its length.
func (s *Search) Validate() error {
	s.Query = SanitizeQuery(s.Query)
	fe := FieldErrors{}
	check(fe, s)
	return fe.Err()
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func round1Ptr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := domain.Round1(*v)
	return &r
}
