// Package config loads the process configuration once at startup.
// The resulting Config is treated as immutable and passed explicitly to the
// components that need it.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config is the complete process configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Security SecurityConfig `koanf:"security"`
	USDA     USDAConfig     `koanf:"usda"`
	Images   ImagesConfig   `koanf:"images"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	Environment     string        `koanf:"environment"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig selects the store. An empty URL selects the in-memory store.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// SecurityConfig holds token, CORS, rate limit and SSO settings.
type SecurityConfig struct {
	JWTSecret       string        `koanf:"jwt_secret"`
	AccessTokenTTL  time.Duration `koanf:"access_token_ttl"`
	RefreshTokenTTL time.Duration `koanf:"refresh_token_ttl"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	OIDC            OIDCConfig    `koanf:"oidc"`
}

// OIDCConfig enables SSO when IssuerURL is set.
type OIDCConfig struct {
	IssuerURL    string `koanf:"issuer_url"`
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	RedirectURL  string `koanf:"redirect_url"`
}

// Enabled reports whether SSO is configured.
func (o OIDCConfig) Enabled() bool {
	return o.IssuerURL != ""
}

// USDAConfig configures the external food database client.
type USDAConfig struct {
	APIKey  string        `koanf:"api_key"`
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
}

// ImagesConfig selects where recipe images are stored.
type ImagesConfig struct {
	Store     string `koanf:"store"`
	UploadDir string `koanf:"upload_dir"`
	S3Bucket  string `koanf:"s3_bucket"`
	S3Region  string `koanf:"s3_region"`
	S3Prefix  string `koanf:"s3_prefix"`
}

// LoggingConfig configures the zerolog global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

const minSecretLength = 32

// IsDevelopment reports whether the process runs in development mode.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Server.Environment, "development")
}

// Validate checks the loaded configuration for missing or inconsistent values.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Security.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if len(c.Security.JWTSecret) < minSecretLength && !c.IsDevelopment() {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters outside development", minSecretLength))
	}
	if c.Security.AccessTokenTTL <= 0 || c.Security.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}
	if c.Security.RateLimitReqs < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_REQUESTS must not be negative"))
	}
	if c.USDA.Timeout <= 0 {
		errs = append(errs, errors.New("USDA_TIMEOUT must be positive"))
	}

	switch c.Images.Store {
	case "disk":
		if c.Images.UploadDir == "" {
			errs = append(errs, errors.New("UPLOAD_DIR is required for disk image storage"))
		}
	case "s3":
		if c.Images.S3Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required for s3 image storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("IMAGE_STORE must be disk or s3, got %q", c.Images.Store))
	}

	if o := c.Security.OIDC; o.Enabled() && (o.ClientID == "" || o.RedirectURL == "") {
		errs = append(errs, errors.New("OIDC_CLIENT_ID and OIDC_REDIRECT_URL are required when OIDC_ISSUER is set"))
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}
