package app

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"nourish/internal/domain"
	"nourish/internal/logging"
	"nourish/internal/validation"
)

// UserService manages the signed-in user's profile and goals.
type UserService struct {
	users   domain.UserRepository
	recipes domain.RecipeRepository
	images  domain.ImageStore
}

// NewUserService creates a UserService. images may be nil when uploads are disabled.
func NewUserService(users domain.UserRepository, recipes domain.RecipeRepository, images domain.ImageStore) *UserService {
	return &UserService{users: users, recipes: recipes, images: images}
}

// Profile returns the user with the given id.
func (s *UserService) Profile(ctx context.Context, userID int64) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "User")
	}
	return u, nil
}

// UpdateProfile changes email and/or username, rejecting values held by another user.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, in validation.ProfileUpdate) (*domain.User, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	u, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	var email, username string
	if in.Email != nil && *in.Email != u.Email {
		email = *in.Email
	}
	if in.Username != nil && *in.Username != u.Username {
		username = *in.Username
	}
	if err := checkAvailable(ctx, s.users, email, username, u.ID); err != nil {
		return nil, err
	}
	if email != "" {
		u.Email = email
	}
	if username != "" {
		u.Username = username
	}
	if err := s.users.Update(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, &ConflictError{Message: "Email or username already registered"}
		}
		return nil, err
	}
	return u, nil
}

// UpdateGoals merges a partial goal update into the user's goals.
func (s *UserService) UpdateGoals(ctx context.Context, userID int64, in validation.GoalsUpdate) (*domain.User, error) {
	u, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	goals, err := in.Apply(u.Goals)
	if err != nil {
		return nil, err
	}
	u.Goals = goals
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ChangePassword replaces the password after verifying the current one.
func (s *UserService) ChangePassword(ctx context.Context, userID int64, in validation.PasswordChange) error {
	if err := in.Validate(); err != nil {
		return err
	}
	u, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}
	if u.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.OldPassword)) != nil {
		fe := validation.FieldErrors{}
		fe.Add("old_password", "Current password is incorrect")
		return fe.Err()
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	return s.users.Update(ctx, u)
}

// Delete removes the account with everything it owns, then the images of
// its community recipes.
func (s *UserService) Delete(ctx context.Context, userID int64) error {
	names, err := s.recipes.ListImagesByUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return notFound(err, "User")
	}
	if s.images == nil {
		return nil
	}
	for _, name := range names {
		if err := s.images.Delete(ctx, name); err != nil && !errors.Is(err, domain.ErrNotFound) {
			logging.Ctx(ctx).Warn().Err(err).Str("image", name).Msg("Failed to remove recipe image of deleted user")
		}
	}
	return nil
}
