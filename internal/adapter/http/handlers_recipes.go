package adapthttp

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"nourish/internal/app"
	"nourish/internal/domain"
	"nourish/internal/logging"
	"nourish/internal/validation"
)

// maxMultipartBody leaves room for the form fields next to a maximum-size image.
const maxMultipartBody = app.MaxImageBytes + 1<<20

type recipeJSON struct {
	ID            int64             `json:"id"`
	UserID        int64             `json:"user_id"`
	Author        string            `json:"author"`
	Title         string            `json:"title"`
	Description   *string           `json:"description"`
	Instructions  string            `json:"instructions"`
	ImageURL      *string           `json:"image_url"`
	Foods         []domain.LineItem `json:"foods"`
	TotalCalories float64           `json:"total_calories"`
	TotalProtein  float64           `json:"total_protein"`
	TotalCarbs    float64           `json:"total_carbs"`
	TotalFat      float64           `json:"total_fat"`
	TotalFiber    float64           `json:"total_fiber"`
	Likes         int               `json:"likes"`
	CreatedAt     time.Time         `json:"created_at"`
}

func toRecipeJSON(rc domain.CommunityRecipe) recipeJSON {
	out := recipeJSON{
		ID:            rc.ID,
		UserID:        rc.UserID,
		Author:        rc.AuthorName,
		Title:         rc.Title,
		Description:   rc.Description,
		Instructions:  rc.Instructions,
		Foods:         rc.Items,
		TotalCalories: rc.Totals.Calories,
		TotalProtein:  rc.Totals.Protein,
		TotalCarbs:    rc.Totals.Carbs,
		TotalFat:      rc.Totals.Fat,
		TotalFiber:    rc.Totals.Fiber,
		Likes:         rc.Likes,
		CreatedAt:     rc.CreatedAt,
	}
	if out.Foods == nil {
		out.Foods = []domain.LineItem{}
	}
	if rc.ImageName != nil {
		u := fmt.Sprintf("/api/community/recipes/%d/image", rc.ID)
		out.ImageURL = &u
	}
	return out
}

func (s *Server) handleRecipeList(w http.ResponseWriter, r *http.Request) {
	recipes, total, page, err := s.recipes.List(r.Context(), r.URL.Query().Get("search"), pagination(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]recipeJSON, len(recipes))
	for i, rc := range recipes {
		out[i] = toRecipeJSON(rc)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"recipes":      out,
		"total":        total,
		"pages":        page.Pages(total),
		"current_page": page.Number,
	})
}

func (s *Server) handleRecipeGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Recipe")
	if !ok {
		return
	}
	rc, err := s.recipes.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recipe": toRecipeJSON(*rc)})
}

func (s *Server) handleRecipeImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Recipe")
	if !ok {
		return
	}
	body, contentType, err := s.recipes.Image(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer func() { _ = body.Close() }()

	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Cache-Control", "public, max-age=86400")
	h.Set("Cross-Origin-Resource-Policy", "cross-origin")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Int64("recipe_id", id).Msg("Failed to stream recipe image")
	}
}

// handleRecipeCreate accepts either a JSON body or a multipart form with the
// recipe JSON in "data" and an optional "image" file.
func (s *Server) handleRecipeCreate(w http.ResponseWriter, r *http.Request) {
	var (
		req validation.Recipe
		img *app.ImageUpload
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		var ok bool
		if img, ok = s.readRecipeForm(w, r, &req); !ok {
			return
		}
	} else if !decode(w, r, &req) {
		return
	}

	rc, err := s.recipes.Create(r.Context(), currentUser(r), req, img)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Recipe shared successfully", "recipe": toRecipeJSON(*rc)})
}

func (s *Server) readRecipeForm(w http.ResponseWriter, r *http.Request, req *validation.Recipe) (*app.ImageUpload, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBody)
	if err := r.ParseMultipartForm(maxMultipartBody); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeMessage(w, http.StatusBadRequest, "File size exceeds 5MB limit")
			return nil, false
		}
		writeMessage(w, http.StatusBadRequest, "Invalid multipart form")
		return nil, false
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	if err := json.Unmarshal([]byte(r.FormValue("data")), req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid JSON data")
		return nil, false
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, true
	}
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid image upload")
		return nil, false
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, app.MaxImageBytes+1))
	if err != nil {
		writeError(w, r, fmt.Errorf("read image upload: %w", err))
		return nil, false
	}
	return &app.ImageUpload{Filename: header.Filename, Data: data}, true
}

func (s *Server) handleRecipeShare(w http.ResponseWriter, r *http.Request) {
	mealID, ok := pathID(w, r, "meal_id", "Meal")
	if !ok {
		return
	}
	var req validation.ShareMeal
	if !decode(w, r, &req) {
		return
	}
	rc, err := s.recipes.Share(r.Context(), currentUser(r), mealID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Recipe shared successfully", "recipe": toRecipeJSON(*rc)})
}

func (s *Server) handleRecipeLike(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Recipe")
	if !ok {
		return
	}
	likes, err := s.recipes.Like(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Recipe liked", "likes": likes})
}

func (s *Server) handleRecipeImport(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Recipe")
	if !ok {
		return
	}
	m, err := s.recipes.Import(r.Context(), currentUser(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Recipe imported to your saved meals", "meal": toMealJSON(*m)})
}

func (s *Server) handleRecipeDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Recipe")
	if !ok {
		return
	}
	if err := s.recipes.Delete(r.Context(), currentUser(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Recipe deleted")
}
