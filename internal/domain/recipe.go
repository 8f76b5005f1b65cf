package domain

import (
	"context"
	"time"
)

// CommunityRecipe is a publicly listed recipe shared by a user.
// ImageName is a server-generated object name, never a client path.
type CommunityRecipe struct {
	ID           int64
	UserID       int64
	AuthorName   string
	Title        string
	Description  *string
	Instructions string
	ImageName    *string
	Items        []LineItem
	Totals       Nutrients
	Likes        int
	CreatedAt    time.Time
}

// RecipeRepository is the port for community recipe persistence.
type RecipeRepository interface {
	Get(ctx context.Context, id int64) (*CommunityRecipe, error)
	// List returns recipes newest first, filtered by a case-insensitive title match.
	List(ctx context.Context, search string, page Page) ([]CommunityRecipe, int, error)
	Create(ctx context.Context, r *CommunityRecipe) error
	// Like increments the like count and returns the new value.
	Like(ctx context.Context, id int64) (int, error)
	// Delete removes the recipe when userID authored it and returns it.
	Delete(ctx context.Context, userID, id int64) (*CommunityRecipe, error)
	ListImagesByUser(ctx context.Context, userID int64) ([]string, error)
}
