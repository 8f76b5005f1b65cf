package domain_test

import (
	"errors"
	"testing"

	"github.com/goccy/go-json"

	"nourish/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func TestNewFoodRef(t *testing.T) {
	tests := []struct {
		name     string
		foodID   *int64
		customID *int64
		want     domain.FoodRef
		wantErr  bool
	}{
		{"catalog", ptr(int64(3)), nil, domain.CatalogRef{FoodID: 3}, false},
		{"custom", nil, ptr(int64(9)), domain.CustomRef{CustomFoodID: 9}, false},
		{"neither", nil, nil, nil, true},
		{"both", ptr(int64(3)), ptr(int64(9)), nil, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := domain.NewFoodRef(tc.foodID, tc.customID)
			if tc.wantErr {
				if !errors.Is(err, domain.ErrInvalidReference) {
					t.Fatalf("err = %v; want ErrInvalidReference", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("ref = %#v; want %#v", got, tc.want)
			}
		})
	}
}

func TestLineItemJSON(t *testing.T) {
	item := domain.LineItem{
		Ref:       domain.CustomRef{CustomFoodID: 7},
		Name:      "Shake",
		Quantity:  250,
		Nutrients: domain.Nutrients{Calories: 300, Protein: 25},
	}
	b, err := json.Marshal(item)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}
	if raw["food_id"] != nil {
		t.Errorf("food_id = %v; want null", raw["food_id"])
	}
	if raw["custom_food_id"] != float64(7) {
		t.Errorf("custom_food_id = %v; want 7", raw["custom_food_id"])
	}
	if raw["calories"] != float64(300) {
		t.Errorf("calories = %v; want 300", raw["calories"])
	}

	var back domain.LineItem
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Ref != item.Ref || back.Nutrients != item.Nutrients {
		t.Errorf("decoded %+v; want %+v", back, item)
	}

	if err := json.Unmarshal([]byte(`{"food_id":1,"custom_food_id":2,"quantity":5}`), &back); err == nil {
		t.Error("expected error for item with two references")
	}
}

func TestTotals(t *testing.T) {
	items := []domain.LineItem{
		{Ref: domain.CatalogRef{FoodID: 1}, Quantity: 100, Nutrients: domain.Nutrients{Calories: 100, Fat: 1}},
		{Ref: domain.CatalogRef{FoodID: 2}, Quantity: 50, Nutrients: domain.Nutrients{Calories: 20, Fiber: 2}},
	}
	got := domain.Totals(items)
	want := domain.Nutrients{Calories: 120, Fat: 1, Fiber: 2}
	if got != want {
		t.Errorf("Totals = %+v; want %+v", got, want)
	}
}

func TestPage(t *testing.T) {
	p := domain.Page{Number: 3, PerPage: 20}
	if got := p.Offset(); got != 40 {
		t.Errorf("Offset = %d; want 40", got)
	}
	for total, want := range map[int]int{0: 0, 1: 1, 20: 1, 21: 2, 100: 5} {
		if got := p.Pages(total); got != want {
			t.Errorf("Pages(%d) = %d; want %d", total, got, want)
		}
	}
}
