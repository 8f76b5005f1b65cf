package app

import (
	"context"
	"errors"
	"testing"

	"nourish/internal/domain"
	"nourish/internal/validation"
)

func TestFoodService_Search_MergesSources(t *testing.T) {
	foods := &mockFoodRepo{
		searchFn: func(ctx context.Context, q string, limit int) ([]domain.Food, error) {
			if limit != 10 {
				t.Errorf("catalog limit = %d, want 10", limit)
			}
			return []domain.Food{{ID: 1, Name: "Chicken Breast"}}, nil
		},
	}
	custom := &mockCustomFoodRepo{
		searchFn: func(ctx context.Context, userID int64, q string, limit int) ([]domain.CustomFood, error) {
			if userID != 7 {
				t.Errorf("custom search not scoped: user %d", userID)
			}
			if limit != customSearchLimit {
				t.Errorf("custom limit = %d", limit)
			}
			return []domain.CustomFood{{ID: 2, Name: "Chicken Salad"}}, nil
		},
	}
	ext := &mockExternal{
		searchFn: func(ctx context.Context, q string, limit int) ([]domain.ExternalFood, error) {
			if q != "chicken" {
				t.Errorf("query = %q", q)
			}
			return []domain.ExternalFood{{ExternalID: "123", Name: "Chicken Thigh"}}, nil
		},
	}
	svc := NewFoodService(foods, custom, ext)

	res, err := svc.Search(context.Background(), 7, validation.Search{Query: " chicken "})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.Len() != 3 || res.Degraded {
		t.Errorf("results = %+v", res)
	}
}

func TestFoodService_Search_DegradesOnExternalFailure(t *testing.T) {
	ext := &mockExternal{
		searchFn: func(ctx context.Context, q string, limit int) ([]domain.ExternalFood, error) {
			return nil, errors.New("timeout")
		},
	}
	foods := &mockFoodRepo{
		searchFn: func(ctx context.Context, q string, limit int) ([]domain.Food, error) {
			return []domain.Food{{ID: 1, Name: "Oats"}}, nil
		},
	}
	svc := NewFoodService(foods, &mockCustomFoodRepo{}, ext)

	res, err := svc.Search(context.Background(), 1, validation.Search{Query: "oats"})
	if err != nil {
		t.Fatalf("external failure surfaced: %v", err)
	}
	if !res.Degraded || len(res.Foods) != 1 || len(res.External) != 0 {
		t.Errorf("results = %+v", res)
	}
}

func TestFoodService_Search_SkipsExternalWhenFull(t *testing.T) {
	ext := &mockExternal{
		searchFn: func(ctx context.Context, q string, limit int) ([]domain.ExternalFood, error) {
			t.Error("external search should not run")
			return nil, nil
		},
	}
	foods := &mockFoodRepo{
		searchFn: func(ctx context.Context, q string, limit int) ([]domain.Food, error) {
			return make([]domain.Food, limit), nil
		},
	}
	svc := NewFoodService(foods, &mockCustomFoodRepo{}, ext)

	if _, err := svc.Search(context.Background(), 1, validation.Search{Query: "rice", Limit: 2}); err != nil {
		t.Fatal(err)
	}
}

func TestFoodService_Search_ShortQuery(t *testing.T) {
	svc := NewFoodService(&mockFoodRepo{}, &mockCustomFoodRepo{}, nil)
	_, err := svc.Search(context.Background(), 1, validation.Search{Query: "a"})
	if _, ok := validation.AsError(err); !ok {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestFoodService_Nutrition(t *testing.T) {
	foods := &mockFoodRepo{
		getByIDFn: func(ctx context.Context, id int64) (*domain.Food, error) {
			return &domain.Food{ID: id, Name: "Oats", Nutrients: domain.Nutrients{Calories: 389, Protein: 17, Carbs: 66, Fat: 7, Fiber: 11}}, nil
		},
	}
	svc := NewFoodService(foods, &mockCustomFoodRepo{}, nil)

	_, n, err := svc.Nutrition(context.Background(), 1, 50)
	if err != nil {
		t.Fatal(err)
	}
	want := domain.Nutrients{Calories: 194.5, Protein: 8.5, Carbs: 33, Fat: 3.5, Fiber: 5.5}
	if n != want {
		t.Errorf("nutrition = %+v, want %+v", n, want)
	}

	if _, _, err := svc.Nutrition(context.Background(), 1, 0); err == nil {
		t.Error("zero quantity accepted")
	}
}

func TestFoodService_Import(t *testing.T) {
	t.Run("existing", func(t *testing.T) {
		foods := &mockFoodRepo{
			getByExternalIDFn: func(ctx context.Context, id string) (*domain.Food, error) {
				return &domain.Food{ID: 5, ExternalID: &id}, nil
			},
		}
		ext := &mockExternal{
			fetchFn: func(ctx context.Context, id string) (*domain.ExternalFood, error) {
				t.Error("fetch should not be called for an imported food")
				return nil, nil
			},
		}
		svc := NewFoodService(foods, &mockCustomFoodRepo{}, ext)

		f, created, err := svc.Import(context.Background(), "usda_123")
		if err != nil || created || f.ID != 5 {
			t.Errorf("Import = %+v, %v, %v", f, created, err)
		}
	})

	t.Run("new", func(t *testing.T) {
		var stored *domain.Food
		foods := &mockFoodRepo{
			createFn: func(ctx context.Context, f *domain.Food) error {
				f.ID = 6
				stored = f
				return nil
			},
		}
		ext := &mockExternal{
			fetchFn: func(ctx context.Context, id string) (*domain.ExternalFood, error) {
				return &domain.ExternalFood{ExternalID: id, Name: "Apple", Nutrients: domain.Nutrients{Calories: 52.04}}, nil
			},
		}
		svc := NewFoodService(foods, &mockCustomFoodRepo{}, ext)

		f, created, err := svc.Import(context.Background(), "456")
		if err != nil || !created || f.ID != 6 {
			t.Fatalf("Import = %+v, %v, %v", f, created, err)
		}
		if stored.ExternalID == nil || *stored.ExternalID != "456" || stored.Calories != 52 {
			t.Errorf("stored = %+v", stored)
		}
	})

	t.Run("not configured", func(t *testing.T) {
		svc := NewFoodService(&mockFoodRepo{}, &mockCustomFoodRepo{}, nil)
		if _, _, err := svc.Import(context.Background(), "usda_1"); !errors.Is(err, ErrExternalNotConfigured) {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("upstream failure", func(t *testing.T) {
		ext := &mockExternal{
			fetchFn: func(ctx context.Context, id string) (*domain.ExternalFood, error) {
				return nil, errors.New("connection refused")
			},
		}
		svc := NewFoodService(&mockFoodRepo{}, &mockCustomFoodRepo{}, ext)
		if _, _, err := svc.Import(context.Background(), "1"); !errors.Is(err, ErrExternalUnavailable) {
			t.Errorf("err = %v", err)
		}
	})

	t.Run("bad id", func(t *testing.T) {
		svc := NewFoodService(&mockFoodRepo{}, &mockCustomFoodRepo{}, &mockExternal{})
		if _, _, err := svc.Import(context.Background(), "usda_abc"); err == nil {
			t.Error("non-numeric id accepted")
		}
	})
}

func TestFoodService_DeleteCustom_InUse(t *testing.T) {
	custom := &mockCustomFoodRepo{
		deleteFn: func(ctx context.Context, userID, id int64) error {
			return domain.ErrConflict
		},
	}
	svc := NewFoodService(&mockFoodRepo{}, custom, nil)

	err := svc.DeleteCustom(context.Background(), 1, 2)
	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Errorf("expected ConflictError, got %v", err)
	}
}

func TestFoodService_UpdateCustom_NotOwned(t *testing.T) {
	svc := NewFoodService(&mockFoodRepo{}, &mockCustomFoodRepo{}, nil)
	in := validation.CustomFood{
		Name:        "Protein Bar",
		ServingSize: ptr(60.0),
		Calories:    ptr(220.0),
		Protein:     ptr(20.0),
		Carbs:       ptr(22.0),
		Fat:         ptr(6.0),
	}

	_, err := svc.UpdateCustom(context.Background(), 1, 42, in)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestFoodService_SeedCatalog(t *testing.T) {
	var created []string
	foods := &mockFoodRepo{
		createFn: func(ctx context.Context, f *domain.Food) error {
			created = append(created, f.Name)
			return nil
		},
	}
	svc := NewFoodService(foods, &mockCustomFoodRepo{}, nil)

	n, err := svc.SeedCatalog(context.Background())
	if err != nil || n != len(starterCatalog) || len(created) != n {
		t.Fatalf("SeedCatalog = %d, %v (created %d)", n, err, len(created))
	}

	foods.countFn = func(ctx context.Context) (int, error) { return 3, nil }
	if n, _ := svc.SeedCatalog(context.Background()); n != 0 {
		t.Errorf("seeded a non-empty catalog: %d", n)
	}
}
