package adapthttp

import (
	"net/http"
	"time"

	"nourish/internal/domain"
	"nourish/internal/validation"
)

type mealJSON struct {
	ID            int64             `json:"id"`
	Name          string            `json:"name"`
	Description   *string           `json:"description"`
	Foods         []domain.LineItem `json:"foods"`
	TotalCalories float64           `json:"total_calories"`
	TotalProtein  float64           `json:"total_protein"`
	TotalCarbs    float64           `json:"total_carbs"`
	TotalFat      float64           `json:"total_fat"`
	TotalFiber    float64           `json:"total_fiber"`
	CreatedAt     time.Time         `json:"created_at"`
}

func toMealJSON(m domain.SavedMeal) mealJSON {
	items := m.Items
	if items == nil {
		items = []domain.LineItem{}
	}
	return mealJSON{
		ID:            m.ID,
		Name:          m.Name,
		Description:   m.Description,
		Foods:         items,
		TotalCalories: m.Totals.Calories,
		TotalProtein:  m.Totals.Protein,
		TotalCarbs:    m.Totals.Carbs,
		TotalFat:      m.Totals.Fat,
		TotalFiber:    m.Totals.Fiber,
		CreatedAt:     m.CreatedAt,
	}
}

func (s *Server) handleMealCreate(w http.ResponseWriter, r *http.Request) {
	var req validation.SavedMeal
	if !decode(w, r, &req) {
		return
	}
	m, err := s.meals.Create(r.Context(), currentUser(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Saved meal created", "meal": toMealJSON(*m)})
}

func (s *Server) handleMealList(w http.ResponseWriter, r *http.Request) {
	meals, total, page, err := s.meals.List(r.Context(), currentUser(r), pagination(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]mealJSON, len(meals))
	for i, m := range meals {
		out[i] = toMealJSON(m)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"meals":        out,
		"total":        total,
		"pages":        page.Pages(total),
		"current_page": page.Number,
	})
}

func (s *Server) handleMealGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Meal")
	if !ok {
		return
	}
	m, err := s.meals.Get(r.Context(), currentUser(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"meal": toMealJSON(*m)})
}

func (s *Server) handleMealUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Meal")
	if !ok {
		return
	}
	var req validation.SavedMeal
	if !decode(w, r, &req) {
		return
	}
	m, err := s.meals.Update(r.Context(), currentUser(r), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Saved meal updated", "meal": toMealJSON(*m)})
}

func (s *Server) handleMealDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Meal")
	if !ok {
		return
	}
	if err := s.meals.Delete(r.Context(), currentUser(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Meal deleted")
}

func (s *Server) handleMealApply(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Meal")
	if !ok {
		return
	}
	var req validation.ApplyMeal
	if !decode(w, r, &req) {
		return
	}
	entries, err := s.meals.Apply(r.Context(), currentUser(r), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Meal added to log",
		"entries": toEntriesJSON(entries),
	})
}
