package validation_test

import (
	"strings"
	"testing"
	"time"

	"nourish/internal/domain"
	"nourish/internal/validation"
)

func ptr[T any](v T) *T { return &v }

func fieldErrors(t *testing.T, err error) validation.FieldErrors {
	t.Helper()
	if err == nil {
		return nil
	}
	ve, ok := validation.AsError(err)
	if !ok {
		t.Fatalf("error %v is not a validation error", err)
	}
	return ve.Fields
}

func validRegistration() validation.Registration {
	return validation.Registration{
		Email:           "Alice@Example.com",
		Username:        "alice_1",
		Password:        "Str0ng!pass",
		ConfirmPassword: "Str0ng!pass",
	}
}

func TestRegistration(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(r *validation.Registration)
		wantField string
	}{
		{"valid defaults", func(r *validation.Registration) {}, ""},
		{"consistent macros", func(r *validation.Registration) {
			r.DailyCalories, r.DailyProtein, r.DailyCarbs, r.DailyFat = ptr(2000.0), ptr(50.0), ptr(275.0), ptr(78.0)
		}, ""},
		{"calories out of range", func(r *validation.Registration) { r.DailyCalories = ptr(500.0) }, "daily_calories"},
		{"calories inconsistent with macros", func(r *validation.Registration) { r.DailyCalories = ptr(4000.0) }, "daily_calories"},
		{"bad email", func(r *validation.Registration) { r.Email = "not-an-email" }, "email"},
		{"blocked domain", func(r *validation.Registration) { r.Email = "x@tempmail.com" }, "email"},
		{"short username", func(r *validation.Registration) { r.Username = "ab" }, "username"},
		{"username chars", func(r *validation.Registration) { r.Username = "bad name!" }, "username"},
		{"reserved username", func(r *validation.Registration) { r.Username = "Admin" }, "username"},
		{"weak password", func(r *validation.Registration) {
			r.Password, r.ConfirmPassword = "alllowercase", "alllowercase"
		}, "password"},
		{"mismatched confirmation", func(r *validation.Registration) { r.ConfirmPassword = "Other1!pass" }, "confirm_password"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := validRegistration()
			tc.mutate(&r)
			fe := fieldErrors(t, r.Validate())
			if tc.wantField == "" {
				if fe != nil {
					t.Fatalf("unexpected errors: %v", fe)
				}
				return
			}
			if !fe.Has(tc.wantField) {
				t.Errorf("errors %v; want entry for %q", fe, tc.wantField)
			}
		})
	}
}

func TestRegistrationNormalizesAndDefaults(t *testing.T) {
	r := validRegistration()
	if err := r.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if r.Email != "alice@example.com" {
		t.Errorf("email = %q; want lower-cased", r.Email)
	}
	if got := r.Goals(); got != domain.DefaultGoals() {
		t.Errorf("goals = %+v; want defaults", got)
	}
}

func TestRegistrationReportsAllPasswordRules(t *testing.T) {
	r := validRegistration()
	r.Password, r.ConfirmPassword = "qwertyui", "qwertyui"
	fe := fieldErrors(t, r.Validate())
	if got := len(fe["password"]); got != 3 {
		t.Errorf("password errors = %v; want 3 (upper, digit, special)", fe["password"])
	}
}

func TestRegistrationCollectsEveryField(t *testing.T) {
	r := validation.Registration{Email: "bad", Username: "x", Password: "short", ConfirmPassword: "nope"}
	fe := fieldErrors(t, r.Validate())
	for _, f := range []string{"email", "username", "password", "confirm_password"} {
		if !fe.Has(f) {
			t.Errorf("missing error for %s in %v", f, fe)
		}
	}
}

func TestGoalsUpdate(t *testing.T) {
	current := domain.DefaultGoals()

	if _, err := (validation.GoalsUpdate{}).Apply(current); err == nil {
		t.Error("empty update accepted")
	}

	got, err := validation.GoalsUpdate{DailyFiber: ptr(35.04)}.Apply(current)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got.Fiber != 35 || got.Calories != 2000 {
		t.Errorf("merged = %+v", got)
	}

	// Raising protein alone moves the macro estimate more than 15% away from 2000.
	_, err = validation.GoalsUpdate{DailyProtein: ptr(200.0)}.Apply(current)
	if fe := fieldErrors(t, err); !fe.Has("daily_calories") {
		t.Errorf("errors %v; want daily_calories mismatch", fe)
	}
}

func validCustomFood() validation.CustomFood {
	return validation.CustomFood{
		Name:        "Shake",
		ServingSize: ptr(250.0),
		Calories:    ptr(300.0),
		Protein:     ptr(25.0),
		Carbs:       ptr(30.0),
		Fat:         ptr(10.0),
		Fiber:       ptr(5.0),
	}
}

func TestCustomFood(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *validation.CustomFood)
		wantField string
	}{
		{"consistent", func(c *validation.CustomFood) {}, ""},
		{"calories too low for macros", func(c *validation.CustomFood) { c.Calories = ptr(50.0) }, validation.SchemaField},
		{"sugar exceeds carbs", func(c *validation.CustomFood) { c.Sugar = ptr(31.0) }, "sugar"},
		{"denylisted name", func(c *validation.CustomFood) { c.Name = "Shake (vanilla)" }, "name"},
		{"short name", func(c *validation.CustomFood) { c.Name = " a " }, "name"},
		{"zero serving", func(c *validation.CustomFood) { c.ServingSize = ptr(0.0) }, "serving_size"},
		{"missing protein", func(c *validation.CustomFood) { c.Protein = nil }, "protein"},
		{"sodium range", func(c *validation.CustomFood) { c.Sodium = ptr(10001.0) }, "sodium"},
		{"long brand", func(c *validation.CustomFood) { c.Brand = ptr(strings.Repeat("b", 51)) }, "brand"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := validCustomFood()
			tc.mutate(&c)
			fe := fieldErrors(t, c.Validate())
			if tc.wantField == "" {
				if fe != nil {
					t.Fatalf("unexpected errors: %v", fe)
				}
				return
			}
			if !fe.Has(tc.wantField) {
				t.Errorf("errors %v; want entry for %q", fe, tc.wantField)
			}
		})
	}
}

func TestCustomFoodRounds(t *testing.T) {
	c := validCustomFood()
	c.Calories = ptr(300.04)
	c.Sugar = ptr(2.26)
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	f := c.Food(7)
	if f.UserID != 7 || f.Calories != 300 || *f.Sugar != 2.3 {
		t.Errorf("food = %+v", f)
	}
}

func TestEntryDateWindow(t *testing.T) {
	today := time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC)
	day := func(offset int) string { return today.AddDate(0, 0, offset).Format(domain.DateLayout) }

	tests := []struct {
		name   string
		date   string
		wantOK bool
	}{
		{"today", day(0), true},
		{"30 days ago", day(-30), true},
		{"40 days ago", day(-40), false},
		{"5 days ahead", day(5), true},
		{"7 days ahead", day(7), true},
		{"10 days ahead", day(10), false},
		{"malformed", "15/03/2024", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := validation.Entry{FoodID: ptr(int64(1)), Date: tc.date, MealType: "lunch", Quantity: ptr(100.0)}
			err := e.Validate(today)
			if tc.wantOK && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.wantOK && !fieldErrors(t, err).Has("date") {
				t.Errorf("errors %v; want date error", err)
			}
		})
	}
}

func TestEntryReference(t *testing.T) {
	today := time.Now()
	base := validation.Entry{Date: today.Format(domain.DateLayout), MealType: "dinner", Quantity: ptr(50.0)}

	both := base
	both.FoodID, both.CustomFoodID = ptr(int64(1)), ptr(int64(2))
	if fe := fieldErrors(t, both.Validate(today)); !fe.Has(validation.SchemaField) {
		t.Errorf("both references accepted: %v", fe)
	}

	neither := base
	if fe := fieldErrors(t, neither.Validate(today)); !fe.Has(validation.SchemaField) {
		t.Errorf("missing reference accepted: %v", fe)
	}

	custom := base
	custom.CustomFoodID = ptr(int64(2))
	if err := custom.Validate(today); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := custom.Ref(); got != (domain.CustomRef{CustomFoodID: 2}) {
		t.Errorf("Ref = %#v", got)
	}
}

func TestEntryFieldRules(t *testing.T) {
	today := time.Now()
	e := validation.Entry{
		FoodID:   ptr(int64(1)),
		Date:     today.Format(domain.DateLayout),
		MealType: "brunch",
		Quantity: ptr(0.0),
		Notes:    ptr(strings.Repeat("n", 501)),
	}
	fe := fieldErrors(t, e.Validate(today))
	for _, f := range []string{"meal_type", "quantity", "notes"} {
		if !fe.Has(f) {
			t.Errorf("missing error for %s in %v", f, fe)
		}
	}
}

func TestEntryUpdate(t *testing.T) {
	if err := (&validation.EntryUpdate{}).Validate(); err == nil {
		t.Error("empty update accepted")
	}
	if err := (&validation.EntryUpdate{MealType: ptr("snacks")}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (&validation.EntryUpdate{Quantity: ptr(6000.0)}).Validate(); err == nil {
		t.Error("quantity above 5000 accepted")
	}
}

func TestSavedMeal(t *testing.T) {
	m := validation.SavedMeal{
		Name: "<b>Post</b> workout",
		Foods: []validation.Item{
			{FoodID: ptr(int64(1)), Quantity: ptr(150.0)},
			{CustomFoodID: ptr(int64(4)), Quantity: ptr(250.0)},
		},
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if m.Name != "Post workout" {
		t.Errorf("name = %q; want tags stripped", m.Name)
	}
	if got := len(m.Items()); got != 2 {
		t.Errorf("items = %d; want 2", got)
	}

	bad := validation.SavedMeal{
		Name: "x",
		Foods: []validation.Item{
			{Quantity: ptr(10.0)},
			{FoodID: ptr(int64(1)), Quantity: ptr(-1.0)},
			{FoodID: ptr(int64(1)), Quantity: ptr(5001.0)},
			{FoodID: ptr(int64(1))},
		},
	}
	fe := fieldErrors(t, bad.Validate())
	if !fe.Has("name") {
		t.Errorf("short name accepted: %v", fe)
	}
	if got := len(fe["foods"]); got != 4 {
		t.Errorf("foods errors = %v; want one per bad item", fe["foods"])
	}

	empty := validation.SavedMeal{Name: "Empty"}
	if fe := fieldErrors(t, empty.Validate()); !fe.Has("foods") {
		t.Errorf("meal without items accepted: %v", fe)
	}
}

func TestRecipe(t *testing.T) {
	r := validation.Recipe{
		Title:        "Oats",
		Instructions: "<script>alert(1)</script>",
		Foods:        []validation.Item{{FoodID: ptr(int64(8)), Quantity: ptr(80.0)}},
	}
	if fe := fieldErrors(t, r.Validate()); !fe.Has("instructions") {
		t.Errorf("instructions reduced to nothing were accepted: %v", fe)
	}
}

func TestSearch(t *testing.T) {
	s := validation.Search{Query: "  chicken; DROP  ", Limit: 10}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if s.Query != "chicken DROP" {
		t.Errorf("query = %q", s.Query)
	}

	short := validation.Search{Query: "a!", Limit: 10}
	if fe := fieldErrors(t, short.Validate()); !fe.Has("query") {
		t.Errorf("short query accepted: %v", fe)
	}
	over := validation.Search{Query: "rice", Limit: 51}
	if fe := fieldErrors(t, over.Validate()); !fe.Has("limit") {
		t.Errorf("limit 51 accepted: %v", fe)
	}
}

func TestPagination(t *testing.T) {
	p, err := validation.Pagination{Page: 2, PerPage: 100}.Validate()
	if err != nil || p.Offset() != 100 {
		t.Errorf("page = %+v, err = %v", p, err)
	}
	if _, err := (validation.Pagination{Page: 0, PerPage: 101}).Validate(); err == nil {
		t.Error("invalid pagination accepted")
	}
}

func TestDateRange(t *testing.T) {
	tests := []struct {
		start, end string
		wantOK     bool
	}{
		{"2024-01-01", "2024-01-07", true},
		{"2024-01-01", "2024-03-31", true},
		{"2024-01-01", "2024-04-01", false},
		{"2024-01-07", "2024-01-01", false},
		{"2024-1-1", "2024-01-07", false},
	}
	for _, tc := range tests {
		err := validation.DateRange{Start: tc.start, End: tc.end}.Validate()
		if (err == nil) != tc.wantOK {
			t.Errorf("DateRange(%s, %s) err = %v; wantOK %v", tc.start, tc.end, err, tc.wantOK)
		}
	}
}

func TestStripTags(t *testing.T) {
	tests := []struct{ in, want string }{
		{"plain", "plain"},
		{"<b>bold</b>", "bold"},
		{"<script>x()</script>Safe", "Safe"},
		{`<img src=x onerror="boom">ok`, "ok"},
		{"  padded  ", "padded"},
	}
	for _, tc := range tests {
		if got := validation.StripTags(tc.in); got != tc.want {
			t.Errorf("StripTags(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestPasswordChange(t *testing.T) {
	p := validation.PasswordChange{OldPassword: "old", NewPassword: "N3w!secret", ConfirmPassword: "N3w!secret"}
	if err := p.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p.ConfirmPassword = "different"
	if fe := fieldErrors(t, p.Validate()); !fe.Has("confirm_password") {
		t.Errorf("mismatch accepted: %v", fe)
	}
}
