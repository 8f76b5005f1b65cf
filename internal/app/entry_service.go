package app

import (
	"context"
	"errors"
	"time"

	"nourish/internal/domain"
	"nourish/internal/metrics"
	"nourish/internal/validation"
)

// EntryService encapsulates food logging and daily summaries.
type EntryService struct {
	entries  domain.EntryRepository
	users    domain.UserRepository
	resolver foodResolver
	now      func() time.Time
}

// NewEntryService creates an EntryService backed by the given repositories.
func NewEntryService(entries domain.EntryRepository, users domain.UserRepository, foods domain.FoodRepository, custom domain.CustomFoodRepository) *EntryService {
	return &EntryService{
		entries:  entries,
		users:    users,
		resolver: foodResolver{foods: foods, custom: custom},
		now:      time.Now,
	}
}

// Create logs a portion of food. Nutrients are computed from the referenced
// food now and stored with the entry.
func (s *EntryService) Create(ctx context.Context, userID int64, in validation.Entry) (*domain.FoodEntry, error) {
	if err := in.Validate(s.now()); err != nil {
		return nil, err
	}
	ref := in.Ref()
	p, err := s.resolver.resolve(ctx, userID, ref, *in.Quantity)
	if err != nil {
		return nil, err
	}
	e := &domain.FoodEntry{
		UserID:    userID,
		Ref:       ref,
		FoodName:  p.name,
		Day:       in.Date,
		Slot:      domain.MealSlot(in.MealType),
		Quantity:  *in.Quantity,
		Notes:     in.Notes,
		Nutrients: p.nutrients.Rounded(),
		CreatedAt: s.now(),
	}
	if err := s.entries.Create(ctx, e); err != nil {
		return nil, err
	}
	metrics.EntriesLogged.WithLabelValues("single").Inc()
	return e, nil
}

// ListDay returns the day's entries grouped by slot. Every slot is present.
func (s *EntryService) ListDay(ctx context.Context, userID int64, day string) (map[domain.MealSlot][]domain.FoodEntry, error) {
	if err := validation.Day("date", day); err != nil {
		return nil, err
	}
	list, err := s.entries.ListDay(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	grouped := make(map[domain.MealSlot][]domain.FoodEntry, len(domain.MealSlots))
	for _, slot := range domain.MealSlots {
		grouped[slot] = []domain.FoodEntry{}
	}
	for _, e := range list {
		grouped[e.Slot] = append(grouped[e.Slot], e)
	}
	return grouped, nil
}

// Update changes quantity, slot or notes. A new quantity re-derives the
// snapshot from the source food, or scales the old snapshot when the food
// is gone.
func (s *EntryService) Update(ctx context.Context, userID, id int64, in validation.EntryUpdate) (*domain.FoodEntry, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	e, err := s.entries.Get(ctx, userID, id)
	if err != nil {
		return nil, notFound(err, "Entry")
	}

	if in.Quantity != nil && *in.Quantity != e.Quantity {
		q := *in.Quantity
		p, err := s.resolver.resolve(ctx, userID, e.Ref, q)
		switch {
		case err == nil:
			e.Nutrients = p.nutrients.Rounded()
		case errors.Is(err, domain.ErrNotFound):
			e.Nutrients = domain.Scale(e.Nutrients, e.Quantity, q).Rounded()
		default:
			return nil, err
		}
		e.Quantity = q
	}
	if in.MealType != nil {
		e.Slot = domain.MealSlot(*in.MealType)
	}
	if in.Notes != nil {
		e.Notes = in.Notes
	}

	if err := s.entries.Update(ctx, e); err != nil {
		return nil, notFound(err, "Entry")
	}
	return e, nil
}

// Delete removes one of the caller's entries.
func (s *EntryService) Delete(ctx context.Context, userID, id int64) error {
	return notFound(s.entries.Delete(ctx, userID, id), "Entry")
}

// Clear removes the entries of a day, or of one slot of it, and returns how
// many were removed.
func (s *EntryService) Clear(ctx context.Context, userID int64, in validation.ClearDay) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	return s.entries.DeleteDay(ctx, userID, in.Date, domain.MealSlot(in.MealType))
}

// DailySummary is the consumed total of one day against the user's goals.
type DailySummary struct {
	Date     string
	Consumed domain.Nutrients
	Goals    domain.Goals
}

// Progress is one nutrient of a DailySummary.
type Progress struct {
	Consumed   float64 `json:"consumed"`
	Goal       float64 `json:"goal"`
	Percentage float64 `json:"percentage"`
}

// Progress returns consumed, goal and percentage for k.
func (d DailySummary) Progress(k domain.NutrientKind) Progress {
	consumed := k.Of(d.Consumed)
	goal := d.Goals.For(k)
	return Progress{
		Consumed:   domain.Round1(consumed),
		Goal:       goal,
		Percentage: domain.Percent(consumed, goal),
	}
}

// Daily sums the day's entries and pairs them with the user's goals.
func (s *EntryService) Daily(ctx context.Context, userID int64, day string) (*DailySummary, error) {
	if err := validation.Day("date", day); err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "User")
	}
	list, err := s.entries.ListDay(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	return &DailySummary{Date: day, Consumed: sumEntries(list).Rounded(), Goals: u.Goals}, nil
}

// DayTotal is the consumed total of one day of a range.
type DayTotal struct {
	Date      string           `json:"date"`
	Nutrients domain.Nutrients `json:"nutrients"`
}

// RangeSummary holds per-day totals for every day of a range, including
// days without entries, and their mean.
type RangeSummary struct {
	Start   string
	End     string
	Days    []DayTotal
	Average domain.Nutrients
	Goals   domain.Goals
}

// Week summarizes the seven days starting at start.
func (s *EntryService) Week(ctx context.Context, userID int64, start string) (*RangeSummary, error) {
	if err := validation.Day("start_date", start); err != nil {
		return nil, err
	}
	from, _ := time.Parse(domain.DateLayout, start)
	end := from.AddDate(0, 0, 6).Format(domain.DateLayout)
	return s.Range(ctx, userID, validation.DateRange{Start: start, End: end})
}

// Range summarizes every day between in.Start and in.End inclusive.
func (s *EntryService) Range(ctx context.Context, userID int64, in validation.DateRange) (*RangeSummary, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "User")
	}
	list, err := s.entries.ListRange(ctx, userID, in.Start, in.End)
	if err != nil {
		return nil, err
	}

	byDay := make(map[string][]domain.FoodEntry)
	for _, e := range list {
		byDay[e.Day] = append(byDay[e.Day], e)
	}

	from, _ := time.Parse(domain.DateLayout, in.Start)
	to, _ := time.Parse(domain.DateLayout, in.End)
	sum := &RangeSummary{Start: in.Start, End: in.End, Goals: u.Goals}
	var total domain.Nutrients
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		day := d.Format(domain.DateLayout)
		n := sumEntries(byDay[day])
		total = total.Add(n)
		sum.Days = append(sum.Days, DayTotal{Date: day, Nutrients: n.Rounded()})
	}
	sum.Average = domain.Scale(total, float64(len(sum.Days)), 1).Rounded()
	return sum, nil
}

func sumEntries(list []domain.FoodEntry) domain.Nutrients {
	sets := make([]domain.Nutrients, len(list))
	for i, e := range list {
		sets[i] = e.Nutrients
	}
	return domain.Aggregate(sets...)
}
