package adapthttp

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"nourish/internal/app"
	"nourish/internal/auth"
	"nourish/internal/domain"
	"nourish/internal/logging"
	"nourish/internal/validation"
)

const maxJSONBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"message": msg})
}

// writeError maps a service error to its status code. Unexpected errors are
// logged and answered with a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		notFound *app.NotFoundError
		conflict *app.ConflictError
	)
	if ve, ok := validation.AsError(err); ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"message": "Validation failed",
			"errors":  ve.Fields,
		})
		return
	}

	switch {
	case errors.As(err, &notFound):
		writeMessage(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &conflict):
		writeMessage(w, http.StatusConflict, conflict.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "Not found")
	case errors.Is(err, domain.ErrConflict):
		writeMessage(w, http.StatusConflict, "Conflict")
	case errors.Is(err, domain.ErrInvalidReference):
		writeMessage(w, http.StatusBadRequest, "Either food_id or custom_food_id must be provided")
	case errors.Is(err, auth.ErrInvalidToken):
		writeMessage(w, http.StatusUnprocessableEntity, "Invalid token")
	case errors.Is(err, app.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, app.ErrInvalidImage):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrExternalNotConfigured):
		writeMessage(w, http.StatusServiceUnavailable, "USDA API not configured")
	case errors.Is(err, app.ErrExternalUnavailable):
		logging.Ctx(r.Context()).Warn().Err(err).Msg("External food lookup failed")
		writeMessage(w, http.StatusBadGateway, "Failed to fetch food data")
	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}

func parseJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

// decode parses the request body into dst and answers 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := parseJSON(w, r, dst); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

func intQuery(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// pathID parses a positive numeric path parameter. Anything else is
// reported as the resource not existing.
func pathID(w http.ResponseWriter, r *http.Request, key, resource string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || id <= 0 {
		writeMessage(w, http.StatusNotFound, resource+" not found")
		return 0, false
	}
	return id, true
}

func pagination(r *http.Request) validation.Pagination {
	return validation.Pagination{
		Page:    intQuery(r, "page", 1),
		PerPage: intQuery(r, "per_page", validation.DefaultPerPage),
	}
}

func withNoCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
