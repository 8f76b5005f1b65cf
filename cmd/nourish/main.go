package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adapthttp "nourish/internal/adapter/http"
	"nourish/internal/adapter/imagestore"
	"nourish/internal/adapter/memory"
	"nourish/internal/adapter/postgres"
	"nourish/internal/adapter/usda"
	"nourish/internal/app"
	"nourish/internal/auth"
	"nourish/internal/config"
	"nourish/internal/domain"
	"nourish/internal/logging"
)

const tokenPruneInterval = time.Hour

// repositories groups the storage ports one backend provides.
type repositories struct {
	users   domain.UserRepository
	tokens  domain.RefreshTokenRepository
	foods   domain.FoodRepository
	custom  domain.CustomFoodRepository
	entries domain.EntryRepository
	meals   domain.MealRepository
	recipes domain.RecipeRepository
	close   func() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server exited")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	repos, err := openRepositories(cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = repos.close() }()

	images, err := openImageStore(ctx, cfg.Images)
	if err != nil {
		return err
	}

	jwt, err := auth.NewJWTManager(cfg.Security.JWTSecret, cfg.Security.AccessTokenTTL, cfg.Security.RefreshTokenTTL)
	if err != nil {
		return err
	}

	// A nil *usda.Client must not reach the service as a non-nil interface.
	var external domain.ExternalFoodSource
	if cfg.USDA.APIKey != "" {
		external = usda.New(usda.Config{APIKey: cfg.USDA.APIKey, BaseURL: cfg.USDA.BaseURL, Timeout: cfg.USDA.Timeout})
	} else {
		logging.Warn().Msg("USDA_API_KEY not set, food search is limited to local data")
	}

	authSvc := app.NewAuthService(repos.users, repos.tokens, jwt)
	foodSvc := app.NewFoodService(repos.foods, repos.custom, external)
	svc := adapthttp.Services{
		Auth:    authSvc,
		Users:   app.NewUserService(repos.users, repos.recipes, images),
		Entries: app.NewEntryService(repos.entries, repos.users, repos.foods, repos.custom),
		Foods:   foodSvc,
		Meals:   app.NewMealService(repos.meals, repos.entries, repos.foods, repos.custom),
		Recipes: app.NewRecipeService(repos.recipes, repos.meals, repos.users, repos.foods, repos.custom, images),
	}

	if n, err := foodSvc.SeedCatalog(ctx); err != nil {
		return err
	} else if n > 0 {
		logging.Info().Int("foods", n).Msg("Seeded food catalog")
	}

	opts := adapthttp.Options{
		CORSOrigins:       cfg.Security.CORSOrigins,
		RateLimitRequests: cfg.Security.RateLimitReqs,
		RateLimitWindow:   cfg.Security.RateLimitWindow,
	}
	if o := cfg.Security.OIDC; o.Enabled() {
		sso, err := adapthttp.NewOIDCConfig(ctx, o.IssuerURL, o.ClientID, o.ClientSecret, o.RedirectURL)
		if err != nil {
			return err
		}
		opts.SSO = sso
		logging.Info().Str("issuer", o.IssuerURL).Msg("SSO enabled")
	}

	go pruneTokens(ctx, authSvc)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           adapthttp.New(svc, opts).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", cfg.Server.Addr).Str("environment", cfg.Server.Environment).Msg("Listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openRepositories(cfg config.DatabaseConfig) (*repositories, error) {
	if cfg.URL == "" {
		logging.Warn().Msg("DATABASE_URL not set, using in-memory store; data is lost on restart")
		db := memory.New()
		return &repositories{
			users:   db.Users(),
			tokens:  db.Tokens(),
			foods:   db.Foods(),
			custom:  db.CustomFoods(),
			entries: db.Entries(),
			meals:   db.Meals(),
			recipes: db.Recipes(),
			close:   func() error { return nil },
		}, nil
	}

	db, err := postgres.Open(cfg.URL)
	if err != nil {
		return nil, err
	}
	return &repositories{
		users:   db.Users(),
		tokens:  db.Tokens(),
		foods:   db.Foods(),
		custom:  db.CustomFoods(),
		entries: db.Entries(),
		meals:   db.Meals(),
		recipes: db.Recipes(),
		close:   db.Close,
	}, nil
}

func openImageStore(ctx context.Context, cfg config.ImagesConfig) (domain.ImageStore, error) {
	if cfg.Store == "s3" {
		logging.Info().Str("bucket", cfg.S3Bucket).Msg("Storing recipe images in S3")
		return imagestore.NewS3(ctx, cfg.S3Region, cfg.S3Bucket, cfg.S3Prefix)
	}
	logging.Info().Str("dir", cfg.UploadDir).Msg("Storing recipe images on disk")
	return imagestore.NewDisk(cfg.UploadDir)
}

func pruneTokens(ctx context.Context, svc *app.AuthService) {
	ticker := time.NewTicker(tokenPruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := svc.PruneExpiredTokens(ctx)
			if err != nil {
				logging.Warn().Err(err).Msg("Failed to prune expired refresh tokens")
				continue
			}
			if n > 0 {
				logging.Debug().Int64("tokens", n).Msg("Pruned expired refresh tokens")
			}
		}
	}
}
