package adapthttp

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"nourish/internal/app"
	"nourish/internal/domain"
	"nourish/internal/validation"
)

type entryJSON struct {
	ID           int64   `json:"id"`
	FoodID       *int64  `json:"food_id"`
	CustomFoodID *int64  `json:"custom_food_id"`
	Name         string  `json:"name"`
	Date         string  `json:"date"`
	MealType     string  `json:"meal_type"`
	Quantity     float64 `json:"quantity"`
	Notes        *string `json:"notes"`
	domain.Nutrients
}

func toEntryJSON(e domain.FoodEntry) entryJSON {
	foodID, customID := domain.RefIDs(e.Ref)
	return entryJSON{
		ID:           e.ID,
		FoodID:       foodID,
		CustomFoodID: customID,
		Name:         e.FoodName,
		Date:         e.Day,
		MealType:     string(e.Slot),
		Quantity:     e.Quantity,
		Notes:        e.Notes,
		Nutrients:    e.Nutrients,
	}
}

func toEntriesJSON(list []domain.FoodEntry) []entryJSON {
	out := make([]entryJSON, len(list))
	for i, e := range list {
		out[i] = toEntryJSON(e)
	}
	return out
}

func (s *Server) handleEntryCreate(w http.ResponseWriter, r *http.Request) {
	var req validation.Entry
	if !decode(w, r, &req) {
		return
	}
	e, err := s.entries.Create(r.Context(), currentUser(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Entry created", "entry": toEntryJSON(*e)})
}

func (s *Server) handleEntryList(w http.ResponseWriter, r *http.Request) {
	day := r.URL.Query().Get("date")
	if day == "" {
		writeMessage(w, http.StatusBadRequest, "Date parameter required")
		return
	}
	grouped, err := s.entries.ListDay(r.Context(), currentUser(r), day)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make(map[string][]entryJSON, len(grouped))
	for slot, list := range grouped {
		out[string(slot)] = toEntriesJSON(list)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleEntryUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Entry")
	if !ok {
		return
	}
	var req validation.EntryUpdate
	if !decode(w, r, &req) {
		return
	}
	e, err := s.entries.Update(r.Context(), currentUser(r), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Entry updated", "entry": toEntryJSON(*e)})
}

func (s *Server) handleEntryDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id", "Entry")
	if !ok {
		return
	}
	if err := s.entries.Delete(r.Context(), currentUser(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Entry deleted")
}

func (s *Server) handleEntryClear(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	n, err := s.entries.Clear(r.Context(), currentUser(r), validation.ClearDay{
		Date:     q.Get("date"),
		MealType: q.Get("meal_type"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Entries cleared", "deleted": n})
}

func (s *Server) handleSummaryDay(w http.ResponseWriter, r *http.Request) {
	sum, err := s.entries.Daily(r.Context(), currentUser(r), chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	nutrients := make(map[string]app.Progress, len(domain.NutrientKinds))
	for _, k := range domain.NutrientKinds {
		nutrients[k.String()] = sum.Progress(k)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"date":      sum.Date,
		"nutrients": nutrients,
	})
}

func (s *Server) handleSummaryWeek(w http.ResponseWriter, r *http.Request) {
	sum, err := s.entries.Week(r.Context(), currentUser(r), chi.URLParam(r, "start"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRangeSummary(w, sum)
}

func (s *Server) handleSummaryRange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sum, err := s.entries.Range(r.Context(), currentUser(r), validation.DateRange{
		Start: q.Get("start_date"),
		End:   q.Get("end_date"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeRangeSummary(w, sum)
}

func writeRangeSummary(w http.ResponseWriter, sum *app.RangeSummary) {
	writeJSON(w, http.StatusOK, map[string]any{
		"start_date": sum.Start,
		"end_date":   sum.End,
		"days":       sum.Days,
		"average":    sum.Average,
		"goals":      sum.Goals,
	})
}
