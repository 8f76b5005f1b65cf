package validation

import (
	"time"

	"nourish/internal/domain"
)

const (
	entryPastDays   = 30
	entryFutureDays = 7
	maxRangeDays    = 90
)

// Entry is the payload for logging a food.
type Entry struct {
	FoodID       *int64   `json:"food_id"`
	CustomFoodID *int64   `json:"custom_food_id"`
	Date         string   `json:"date" validate:"required,datetime=2006-01-02"`
	MealType     string   `json:"meal_type" validate:"required,oneof=breakfast lunch dinner snacks"`
	Quantity     *float64 `json:"quantity" validate:"required,gte=0.1,lte=5000"`
	Notes        *string  `json:"notes" validate:"omitempty,max=500"`
}

// Validate checks the payload against the logging window around today.
func (e *Entry) Validate(today time.Time) error {
	fe := FieldErrors{}
	check(fe, e)
	if !fe.Has("date") {
		checkEntryDate(fe, "date", e.Date, today)
	}
	if _, err := domain.NewFoodRef(e.FoodID, e.CustomFoodID); err != nil {
		if e.FoodID == nil {
			fe.Add(SchemaField, "Either food_id or custom_food_id must be provided")
		} else {
			fe.Add(SchemaField, "Only one of food_id or custom_food_id should be provided")
		}
	}
	if e.Notes != nil {
		n := StripTags(*e.Notes)
		e.Notes = &n
	}
	return fe.Err()
}

// Ref returns the food reference of a validated payload.
func (e Entry) Ref() domain.FoodRef {
	ref, _ := domain.NewFoodRef(e.FoodID, e.CustomFoodID)
	return ref
}

// EntryUpdate changes quantity, meal slot or notes of an entry.
type EntryUpdate struct {
	Quantity *float64 `json:"quantity" validate:"omitempty,gte=0.1,lte=5000"`
	MealType *string  `json:"meal_type" validate:"omitempty,oneof=breakfast lunch dinner snacks"`
	Notes    *string  `json:"notes" validate:"omitempty,max=500"`
}

// Validate requires at least one field.
func (u *EntryUpdate) Validate() error {
	fe := FieldErrors{}
	if u.Quantity == nil && u.MealType == nil && u.Notes == nil {
		fe.Add(SchemaField, "At least one field must be provided for update")
		return fe.Err()
	}
	check(fe, u)
	if u.Notes != nil {
		n := StripTags(*u.Notes)
		u.Notes = &n
	}
	return fe.Err()
}

// ApplyMeal logs every item of a saved meal into one slot of a day.
type ApplyMeal struct {
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	MealType string `json:"meal_type" validate:"required,oneof=breakfast lunch dinner snacks"`
}

// Validate applies the same date window as a single entry.
func (a ApplyMeal) Validate(today time.Time) error {
	fe := FieldErrors{}
	check(fe, a)
	if !fe.Has("date") {
		checkEntryDate(fe, "date", a.Date, today)
	}
	return fe.Err()
}

// ClearDay selects the entries removed by a clear request.
type ClearDay struct {
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	MealType string `json:"meal_type" validate:"omitempty,oneof=breakfast lunch dinner snacks"`
}

// Validate checks the date format and optional slot.
func (c ClearDay) Validate() error {
	fe := FieldErrors{}
	check(fe, c)
	return fe.Err()
}

// Day checks that s is a calendar day in DateLayout.
func Day(field, s string) error {
	fe := FieldErrors{}
	if _, err := time.Parse(domain.DateLayout, s); err != nil {
		fe.Add(field, "Date must be in YYYY-MM-DD format")
	}
	return fe.Err()
}

// DateRange bounds a multi-day summary.
type DateRange struct {
	Start string `json:"start_date" validate:"required,datetime=2006-01-02"`
	End   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// Validate requires Start <= End and at most 90 days between them.
func (r DateRange) Validate() error {
	fe := FieldErrors{}
	check(fe, r)
	if len(fe) > 0 {
		return fe.Err()
	}
	start, _ := time.Parse(domain.DateLayout, r.Start)
	end, _ := time.Parse(domain.DateLayout, r.End)
	switch {
	case start.After(end):
		fe.Add(SchemaField, "Start date must be before end date")
	case end.Sub(start) > maxRangeDays*24*time.Hour:
		fe.Add(SchemaField, "Date range cannot exceed 90 days")
	}
	return fe.Err()
}

// checkEntryDate enforces [today-30d, today+7d]. today is reduced to its calendar day.
func checkEntryDate(fe FieldErrors, field, s string, today time.Time) {
	day, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		fe.Add(field, "Date must be in YYYY-MM-DD format")
		return
	}
	y, m, d := today.Date()
	base := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	switch {
	case day.Before(base.AddDate(0, 0, -entryPastDays)):
		fe.Add(field, "Cannot add entries more than 30 days in the past")
	case day.After(base.AddDate(0, 0, entryFutureDays)):
		fe.Add(field, "Cannot add entries more than 7 days in the future")
	}
}
