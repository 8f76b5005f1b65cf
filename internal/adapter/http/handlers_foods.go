package adapthttp

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"nourish/internal/app"
	"nourish/internal/domain"
	"nourish/internal/validation"
)

// catalogFood is a catalog row; its nutrients are per 100 g.
type catalogFood struct {
	domain.Food
	Per string `json:"per"`
}

func toCatalogFood(f domain.Food) catalogFood {
	return catalogFood{Food: f, Per: "100g"}
}

// searchResult is one row of a food search. ID is numeric for stored foods
// and "usda_<fdcId>" for external hits, which must be imported before use.
type searchResult struct {
	ID          any      `json:"id"`
	Name        string   `json:"name"`
	Brand       *string  `json:"brand"`
	ServingSize *float64 `json:"serving_size,omitempty"`
	Per         string   `json:"per,omitempty"`
	Type        string   `json:"type"`
	domain.Nutrients
}

func toSearchResults(res app.SearchResults) []searchResult {
	out := make([]searchResult, 0, res.Len())
	for _, f := range res.Foods {
		out = append(out, searchResult{ID: f.ID, Name: f.Name, Brand: f.Brand, Per: "100g", Type: "food", Nutrients: f.Nutrients})
	}
	for _, f := range res.Custom {
		serving := f.ServingSize
		out = append(out, searchResult{ID: f.ID, Name: f.Name, Brand: f.Brand, ServingSize: &serving, Type: "custom", Nutrients: f.Nutrients})
	}
	for _, f := range res.External {
		out = append(out, searchResult{
			ID:        app.ExternalIDPrefix + f.ExternalID,
			Name:      f.Name,
			Brand:     f.Brand,
			Per:       "100g",
			Type:      "usda",
			Nutrients: f.Nutrients.Rounded(),
		})
	}
	return out
}

func (s *Server) handleFoodSearch(w http.ResponseWriter, r *http.Request) {
	res, err := s.foods.Search(r.Context(), currentUser(r), validation.Search{
		Query: r.URL.Query().Get("q"),
		Limit: intQuery(r, "limit", validation.DefaultSearchLimit),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": toSearchResults(res)})
}

func (s *Server) handleFoodGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Food")
	if !ok {
		return
	}
	f, err := s.foods.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"food": toCatalogFood(*f)})
}

func (s *Server) handleFoodNutrition(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Food")
	if !ok {
		return
	}
	quantity := domain.CatalogBaseGrams
	if v := r.URL.Query().Get("quantity"); v != "" {
		q, err := strconv.ParseFloat(v, 64)
		if err != nil {
			fe := validation.FieldErrors{}
			fe.Add("quantity", "Quantity must be a number")
			writeError(w, r, fe.Err())
			return
		}
		quantity = q
	}
	f, n, err := s.foods.Nutrition(r.Context(), id, quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"food":      toCatalogFood(*f),
		"quantity":  quantity,
		"nutrients": n,
	})
}

func (s *Server) handleFoodImport(w http.ResponseWriter, r *http.Request) {
	f, created, err := s.foods.Import(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !created {
		writeJSON(w, http.StatusOK, map[string]any{"food": toCatalogFood(*f)})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Food imported", "food": toCatalogFood(*f)})
}

func (s *Server) handleCustomCreate(w http.ResponseWriter, r *http.Request) {
	var req validation.CustomFood
	if !decode(w, r, &req) {
		return
	}
	f, err := s.foods.CreateCustom(r.Context(), currentUser(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Custom food created", "food": f})
}

func (s *Server) handleCustomList(w http.ResponseWriter, r *http.Request) {
	foods, err := s.foods.ListCustom(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if foods == nil {
		foods = []domain.CustomFood{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"foods": foods})
}

func (s *Server) handleCustomGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Custom food")
	if !ok {
		return
	}
	f, err := s.foods.GetCustom(r.Context(), currentUser(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"food": f})
}

func (s *Server) handleCustomUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Custom food")
	if !ok {
		return
	}
	var req validation.CustomFood
	if !decode(w, r, &req) {
		return
	}
	f, err := s.foods.UpdateCustom(r.Context(), currentUser(r), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Custom food updated", "food": f})
}

func (s *Server) handleCustomDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Custom food")
	if !ok {
		return
	}
	if err := s.foods.DeleteCustom(r.Context(), currentUser(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Custom food deleted")
}
