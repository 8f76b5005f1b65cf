package app

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"nourish/internal/domain"
	"nourish/internal/validation"
)

func TestUserService_UpdateProfile_Conflict(t *testing.T) {
	users := &mockUserRepo{
		getByIDFn: func(ctx context.Context, id int64) (*domain.User, error) {
			return &domain.User{ID: id, Email: "me@example.com", Username: "me"}, nil
		},
		getByUsernameFn: func(ctx context.Context, username string) (*domain.User, error) {
			return &domain.User{ID: 99, Username: username}, nil
		},
		updateFn: func(ctx context.Context, u *domain.User) error {
			t.Error("update should not be called")
			return nil
		},
	}
	svc := NewUserService(users, &mockRecipeRepo{}, nil)

	_, err := svc.UpdateProfile(context.Background(), 1, validation.ProfileUpdate{Username: ptr("taken")})
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestUserService_UpdateProfile_SameValuesAllowed(t *testing.T) {
	users := &mockUserRepo{
		getByIDFn: func(ctx context.Context, id int64) (*domain.User, error) {
			return &domain.User{ID: id, Email: "me@example.com", Username: "me_too"}, nil
		},
		getByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
			return &domain.User{ID: 1, Email: email}, nil
		},
	}
	svc := NewUserService(users, &mockRecipeRepo{}, nil)

	u, err := svc.UpdateProfile(context.Background(), 1, validation.ProfileUpdate{Email: ptr("ME@example.com")})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if u.Email != "me@example.com" {
		t.Errorf("email = %q", u.Email)
	}
}

func TestUserService_UpdateGoals(t *testing.T) {
	var saved domain.Goals
	users := &mockUserRepo{
		updateFn: func(ctx context.Context, u *domain.User) error {
			saved = u.Goals
			return nil
		},
	}
	svc := NewUserService(users, &mockRecipeRepo{}, nil)

	if _, err := svc.UpdateGoals(context.Background(), 1, validation.GoalsUpdate{DailyFiber: ptr(35.0)}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := domain.DefaultGoals()
	want.Fiber = 35
	if saved != want {
		t.Errorf("goals = %+v, want %+v", saved, want)
	}

	_, err := svc.UpdateGoals(context.Background(), 1, validation.GoalsUpdate{DailyCalories: ptr(4000.0)})
	if _, ok := validation.AsError(err); !ok {
		t.Errorf("inconsistent calories accepted: %v", err)
	}
}

func TestUserService_ChangePassword(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("Old!Pass1"), bcrypt.MinCost)
	var newHash string
	users := &mockUserRepo{
		getByIDFn: func(ctx context.Context, id int64) (*domain.User, error) {
			return &domain.User{ID: id, PasswordHash: string(hash)}, nil
		},
		updateFn: func(ctx context.Context, u *domain.User) error {
			newHash = u.PasswordHash
			return nil
		},
	}
	svc := NewUserService(users, &mockRecipeRepo{}, nil)
	ctx := context.Background()

	wrong := validation.PasswordChange{OldPassword: "bad", NewPassword: "New!Pass2", ConfirmPassword: "New!Pass2"}
	err := svc.ChangePassword(ctx, 1, wrong)
	if verr, ok := validation.AsError(err); !ok || !verr.Fields.Has("old_password") {
		t.Fatalf("wrong current password: %v", err)
	}

	ok := validation.PasswordChange{OldPassword: "Old!Pass1", NewPassword: "New!Pass2", ConfirmPassword: "New!Pass2"}
	if err := svc.ChangePassword(ctx, 1, ok); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(newHash), []byte("New!Pass2")) != nil {
		t.Error("new password not stored")
	}
}

func TestUserService_Delete_RemovesImages(t *testing.T) {
	images := &mockImageStore{saved: map[string][]byte{"1_a.png": {1}, "1_b.jpg": {2}}}
	recipes := &mockRecipeRepo{
		listImagesByUserFn: func(ctx context.Context, userID int64) ([]string, error) {
			return []string{"1_a.png", "1_b.jpg"}, nil
		},
	}
	deleted := false
	users := &mockUserRepo{
		deleteFn: func(ctx context.Context, id int64) error {
			deleted = true
			return nil
		},
	}
	svc := NewUserService(users, recipes, images)

	if err := svc.Delete(context.Background(), 1); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !deleted {
		t.Error("user not deleted")
	}
	if len(images.deleted) != 2 {
		t.Errorf("deleted images = %v", images.deleted)
	}
}

func TestUserService_Profile_NotFound(t *testing.T) {
	users := &mockUserRepo{
		getByIDFn: func(ctx context.Context, id int64) (*domain.User, error) {
			return nil, domain.ErrNotFound
		},
	}
	svc := NewUserService(users, &mockRecipeRepo{}, nil)

	_, err := svc.Profile(context.Background(), 5)
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Error() != "User not found" {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}
