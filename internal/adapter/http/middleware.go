package adapthttp

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"nourish/internal/auth"
	"nourish/internal/logging"
	"nourish/internal/metrics"
)

type contextKey string

const userContextKey contextKey = "user"

// authMiddleware requires a bearer access token. A missing header or another
// scheme is 401; a token that fails verification is 422.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeMessage(w, http.StatusUnauthorized, "Missing Authorization Header")
			return
		}
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			writeMessage(w, http.StatusUnauthorized, "Missing 'Bearer' type in 'Authorization' header")
			return
		}

		userID, err := s.auth.Authenticate(strings.TrimSpace(token))
		if errors.Is(err, auth.ErrInvalidToken) {
			writeMessage(w, http.StatusUnprocessableEntity, "Invalid token")
			return
		}
		if err != nil {
			writeError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, userID)
		ctx = logging.ContextWithUserID(ctx, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// currentUser returns the id set by authMiddleware.
func currentUser(r *http.Request) int64 {
	id, _ := r.Context().Value(userContextKey).(int64)
	return id
}

// requestID reuses an incoming X-Request-ID or generates one, and makes it
// available to chi and to logging.Ctx.
func requestID(next http.Handler) http.Handler {
	chiRequestID := chimiddleware.RequestID(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(chimiddleware.RequestIDHeader)
		if id == "" {
			id = logging.GenerateRequestID()
			r.Header.Set(chimiddleware.RequestIDHeader, id)
		}
		w.Header().Set(chimiddleware.RequestIDHeader, id)
		chiRequestID.ServeHTTP(w, r.WithContext(logging.ContextWithRequestID(r.Context(), id)))
	})
}

// loggingMiddleware writes one access log line per request and records the
// request metrics under the matched route pattern.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		metrics.RecordAPIRequest(r.Method, route, status, duration)

		event := logging.Ctx(r.Context()).Info()
		if status >= http.StatusInternalServerError {
			event = logging.Ctx(r.Context()).Error()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", duration).
			Msg("HTTP request")
	})
}
