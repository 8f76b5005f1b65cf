package adapthttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nourish/internal/app"
)

// Services are the application services the HTTP adapter drives.
type Services struct {
	Auth    *app.AuthService
	Users   *app.UserService
	Entries *app.EntryService
	Foods   *app.FoodService
	Meals   *app.MealService
	Recipes *app.RecipeService
}

// Options tune the router. A zero RateLimitRequests disables rate limiting.
type Options struct {
	CORSOrigins       []string
	RateLimitRequests int
	RateLimitWindow   time.Duration
	// SSO is nil when single sign-on is not configured.
	SSO *OIDCConfig
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	auth    *app.AuthService
	users   *app.UserService
	entries *app.EntryService
	foods   *app.FoodService
	meals   *app.MealService
	recipes *app.RecipeService
	opts    Options
}

// New creates a Server wired to the given application services.
func New(svc Services, opts Options) *Server {
	if opts.RateLimitWindow <= 0 {
		opts.RateLimitWindow = time.Minute
	}
	return &Server{
		auth:    svc.Auth,
		users:   svc.Users,
		entries: svc.Entries,
		foods:   svc.Foods,
		meals:   svc.Meals,
		recipes: svc.Recipes,
		opts:    opts,
	}
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         86400,
	}))

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(withNoCache)
		r.Use(s.rateLimit(s.opts.RateLimitRequests))

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		})

		r.Route("/auth", func(r chi.Router) {
			r.Use(s.rateLimit(authRateLimit(s.opts.RateLimitRequests)))
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
			r.Post("/refresh", s.handleRefresh)
			r.Post("/logout", s.handleLogout)
			r.Get("/sso/config", s.handleSSOConfig)
			r.Get("/sso/login", s.handleSSOLogin)
			r.Get("/sso/callback", s.handleSSOCallback)
		})

		// Public community board.
		r.Get("/community/recipes", s.handleRecipeList)
		r.Get("/community/recipes/{id}", s.handleRecipeGet)
		r.Get("/community/recipes/{id}/image", s.handleRecipeImage)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/users/profile", s.handleProfileGet)
			r.Put("/users/profile", s.handleProfileUpdate)
			r.Delete("/users/profile", s.handleAccountDelete)
			r.Put("/users/goals", s.handleGoalsUpdate)
			r.Post("/users/change-password", s.handlePasswordChange)

			r.Post("/entries", s.handleEntryCreate)
			r.Get("/entries", s.handleEntryList)
			r.Delete("/entries/clear", s.handleEntryClear)
			r.Put("/entries/{id}", s.handleEntryUpdate)
			r.Delete("/entries/{id}", s.handleEntryDelete)

			r.Get("/summary/range", s.handleSummaryRange)
			r.Get("/summary/week/{start}", s.handleSummaryWeek)
			r.Get("/summary/{date}", s.handleSummaryDay)

			r.Get("/foods/search", s.handleFoodSearch)
			r.Post("/foods/custom", s.handleCustomCreate)
			r.Get("/foods/custom", s.handleCustomList)
			r.Get("/foods/custom/{id}", s.handleCustomGet)
			r.Put("/foods/custom/{id}", s.handleCustomUpdate)
			r.Delete("/foods/custom/{id}", s.handleCustomDelete)
			r.Post("/foods/usda/{id}", s.handleFoodImport)
			r.Post("/foods/{id}", s.handleFoodImport)
			r.Get("/foods/{id}", s.handleFoodGet)
			r.Get("/foods/{id}/nutrition", s.handleFoodNutrition)

			r.Post("/meals", s.handleMealCreate)
			r.Get("/meals", s.handleMealList)
			r.Get("/meals/{id}", s.handleMealGet)
			r.Put("/meals/{id}", s.handleMealUpdate)
			r.Delete("/meals/{id}", s.handleMealDelete)
			r.Post("/meals/{id}/add", s.handleMealApply)

			r.Post("/community/recipes", s.handleRecipeCreate)
			r.Post("/community/recipes/from-meal/{meal_id}", s.handleRecipeShare)
			r.Post("/community/recipes/{id}/like", s.handleRecipeLike)
			r.Post("/community/recipes/{id}/import", s.handleRecipeImport)
			r.Delete("/community/recipes/{id}", s.handleRecipeDelete)
		})
	})

	return r
}

// rateLimit limits requests per client IP over the configured window.
func (s *Server) rateLimit(requests int) func(http.Handler) http.Handler {
	if requests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(requests, s.opts.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeMessage(w, http.StatusTooManyRequests, "Too many requests")
		}),
	)
}

// authRateLimit is the stricter budget for credential endpoints.
func authRateLimit(general int) int {
	if general <= 0 {
		return 0
	}
	return max(5, general/10)
}
