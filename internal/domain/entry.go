package domain

import (
	"context"
	"time"
)

// DateLayout is the wire and storage format for calendar days.
const DateLayout = "2006-01-02"

// MealSlot is the bucket of the day an entry belongs to.
type MealSlot string

const (
	Breakfast MealSlot = "breakfast"
	Lunch     MealSlot = "lunch"
	Dinner    MealSlot = "dinner"
	Snacks    MealSlot = "snacks"
)

// MealSlots lists the slots in display order.
var MealSlots = []MealSlot{Breakfast, Lunch, Dinner, Snacks}

// Valid reports whether s is one of the four known slots.
func (s MealSlot) Valid() bool {
	switch s {
	case Breakfast, Lunch, Dinner, Snacks:
		return true
	}
	return false
}

// FoodEntry is one logged portion of food. Nutrients are a snapshot taken
// when the entry was written and are not re-derived on read.
type FoodEntry struct {
	ID        int64
	UserID    int64
	Ref       FoodRef
	FoodName  string
	Day       string
	Slot      MealSlot
	Quantity  float64
	Notes     *string
	Nutrients Nutrients
	CreatedAt time.Time
}

// EntryRepository is the port for food entry persistence.
// Every method is scoped to userID.
type EntryRepository interface {
	Get(ctx context.Context, userID, id int64) (*FoodEntry, error)
	ListDay(ctx context.Context, userID int64, day string) ([]FoodEntry, error)
	ListRange(ctx context.Context, userID int64, from, to string) ([]FoodEntry, error)
	Create(ctx context.Context, e *FoodEntry) error
	// CreateBatch inserts all entries or none.
	CreateBatch(ctx context.Context, entries []FoodEntry) ([]FoodEntry, error)
	Update(ctx context.Context, e *FoodEntry) error
	Delete(ctx context.Context, userID, id int64) error
	// DeleteDay removes the day's entries, limited to slot when it is non-empty.
	DeleteDay(ctx context.Context, userID int64, day string, slot MealSlot) (int64, error)
}
