package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"nourish/internal/domain"
	"nourish/internal/logging"
	"nourish/internal/metrics"
	"nourish/internal/validation"
)

// MaxImageBytes is the largest accepted recipe image.
const MaxImageBytes = 5 << 20

// imageTypes maps accepted extensions to the content type their bytes must sniff as.
var imageTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// ImageContentType returns the content type served for a stored image name.
func ImageContentType(name string) string {
	if ct, ok := imageTypes[strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")]; ok {
		return ct
	}
	return "application/octet-stream"
}

// ImageUpload is an uploaded recipe image as received from the client.
type ImageUpload struct {
	Filename string
	Data     []byte
}

// RecipeService manages the public community recipe board.
type RecipeService struct {
	recipes  domain.RecipeRepository
	meals    domain.MealRepository
	users    domain.UserRepository
	images   domain.ImageStore
	resolver foodResolver
	now      func() time.Time
}

// NewRecipeService creates a RecipeService. images may be nil, in which case
// uploads are rejected.
func NewRecipeService(recipes domain.RecipeRepository, meals domain.MealRepository, users domain.UserRepository,
	foods domain.FoodRepository, custom domain.CustomFoodRepository, images domain.ImageStore) *RecipeService {
	return &RecipeService{
		recipes:  recipes,
		meals:    meals,
		users:    users,
		images:   images,
		resolver: foodResolver{foods: foods, custom: custom},
		now:      time.Now,
	}
}

// List returns a page of recipes, newest first, whose title contains search.
func (s *RecipeService) List(ctx context.Context, search string, in validation.Pagination) ([]domain.CommunityRecipe, int, domain.Page, error) {
	page, err := in.Validate()
	if err != nil {
		return nil, 0, page, err
	}
	recipes, total, err := s.recipes.List(ctx, validation.SanitizeQuery(search), page)
	return recipes, total, page, err
}

// Get returns a recipe by id.
func (s *RecipeService) Get(ctx context.Context, id int64) (*domain.CommunityRecipe, error) {
	r, err := s.recipes.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "Recipe")
	}
	return r, nil
}

// Create shares a new recipe built from the caller's foods, with an optional image.
func (s *RecipeService) Create(ctx context.Context, userID int64, in validation.Recipe, img *ImageUpload) (*domain.CommunityRecipe, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	items, err := s.resolver.lineItems(ctx, userID, in.Items())
	if err != nil {
		return nil, err
	}
	r := &domain.CommunityRecipe{
		UserID:       userID,
		Title:        in.Title,
		Description:  in.Description,
		Instructions: in.Instructions,
		Items:        items,
		Totals:       domain.Totals(items).Rounded(),
	}
	return s.publish(ctx, r, img)
}

// Share publishes one of the caller's saved meals as a recipe.
func (s *RecipeService) Share(ctx context.Context, userID, mealID int64, in validation.ShareMeal) (*domain.CommunityRecipe, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	m, err := s.meals.Get(ctx, userID, mealID)
	if err != nil {
		return nil, notFound(err, "Meal")
	}
	r := &domain.CommunityRecipe{
		UserID:       userID,
		Title:        m.Name,
		Description:  m.Description,
		Instructions: in.Instructions,
		Items:        m.Items,
		Totals:       m.Totals,
	}
	if in.Title != nil {
		r.Title = *in.Title
	}
	if in.Description != nil {
		r.Description = in.Description
	}
	return s.publish(ctx, r, nil)
}

func (s *RecipeService) publish(ctx context.Context, r *domain.CommunityRecipe, img *ImageUpload) (*domain.CommunityRecipe, error) {
	author, err := s.users.GetByID(ctx, r.UserID)
	if err != nil {
		return nil, notFound(err, "User")
	}
	r.AuthorName = author.Username
	r.CreatedAt = s.now()

	if img != nil {
		name, err := s.storeImage(ctx, r.UserID, img)
		if err != nil {
			return nil, err
		}
		r.ImageName = &name
	}
	if err := s.recipes.Create(ctx, r); err != nil {
		if r.ImageName != nil {
			s.removeImage(ctx, *r.ImageName)
		}
		return nil, err
	}
	return r, nil
}

// Like increments a recipe's like count and returns the new count.
func (s *RecipeService) Like(ctx context.Context, id int64) (int, error) {
	n, err := s.recipes.Like(ctx, id)
	if err != nil {
		return 0, notFound(err, "Recipe")
	}
	return n, nil
}

// Import copies a recipe into the caller's saved meals. Items that point at
// another user's custom foods are re-pointed at copies owned by the caller.
func (s *RecipeService) Import(ctx context.Context, userID, id int64) (*domain.SavedMeal, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	desc := "Imported from community recipe by " + r.AuthorName
	m := &domain.SavedMeal{
		UserID:      userID,
		Name:        truncateRunes(r.Title, 100),
		Description: &desc,
		Items:       append([]domain.LineItem(nil), r.Items...),
		Totals:      r.Totals,
		CreatedAt:   s.now(),
	}
	copies := make(map[int]domain.CustomFood)
	if r.UserID != userID {
		for i, it := range m.Items {
			if _, ok := it.Ref.(domain.CustomRef); !ok {
				continue
			}
			copies[i] = domain.CustomFood{
				UserID:      userID,
				Name:        it.Name,
				ServingSize: it.Quantity,
				Nutrients:   it.Nutrients,
				CreatedAt:   m.CreatedAt,
			}
		}
	}
	if err := s.meals.Import(ctx, m, copies); err != nil {
		return nil, err
	}
	return m, nil
}

// Delete removes a recipe authored by the caller and its stored image.
func (s *RecipeService) Delete(ctx context.Context, userID, id int64) error {
	r, err := s.recipes.Delete(ctx, userID, id)
	if err != nil {
		return notFound(err, "Recipe")
	}
	if r.ImageName != nil {
		s.removeImage(ctx, *r.ImageName)
	}
	return nil
}

// Image opens the stored image of a recipe. The caller closes the reader.
func (s *RecipeService) Image(ctx context.Context, id int64) (io.ReadCloser, string, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if r.ImageName == nil || s.images == nil {
		return nil, "", &NotFoundError{Resource: "Image"}
	}
	rc, err := s.images.Open(ctx, *r.ImageName)
	if err != nil {
		return nil, "", notFound(err, "Image file")
	}
	return rc, ImageContentType(*r.ImageName), nil
}

// storeImage checks size, extension and content of img and saves it under
// a generated name.
func (s *RecipeService) storeImage(ctx context.Context, userID int64, img *ImageUpload) (string, error) {
	if s.images == nil {
		return "", fmt.Errorf("%w: image uploads are disabled", ErrInvalidImage)
	}
	if len(img.Data) == 0 {
		return "", fmt.Errorf("%w: empty file", ErrInvalidImage)
	}
	if len(img.Data) > MaxImageBytes {
		return "", fmt.Errorf("%w: file too large, maximum size is 5MB", ErrInvalidImage)
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(img.Filename)), ".")
	want, ok := imageTypes[ext]
	if !ok {
		return "", fmt.Errorf("%w: allowed types are png, jpg, jpeg, gif, webp", ErrInvalidImage)
	}
	if got := http.DetectContentType(img.Data); got != want {
		return "", fmt.Errorf("%w: content is %s, not %s", ErrInvalidImage, got, want)
	}

	name := fmt.Sprintf("%d_%s_%s.%s", userID, s.now().UTC().Format("20060102_150405"), uuid.NewString()[:8], ext)
	if err := s.images.Save(ctx, name, want, bytes.NewReader(img.Data), int64(len(img.Data))); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	metrics.ImageBytesStored.Add(float64(len(img.Data)))
	return name, nil
}

func (s *RecipeService) removeImage(ctx context.Context, name string) {
	if s.images == nil {
		return
	}
	if err := s.images.Delete(ctx, name); err != nil && !errors.Is(err, domain.ErrNotFound) {
		logging.Ctx(ctx).Warn().Err(err).Str("image", name).Msg("Failed to remove recipe image")
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
