package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are checked in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/nourish/config.yaml",
}

// ConfigPathEnvVar names an explicit YAML configuration file.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			Environment:     "production",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Security: SecurityConfig{
			AccessTokenTTL:  24 * time.Hour,
			RefreshTokenTTL: 30 * 24 * time.Hour,
			CORSOrigins:     []string{"http://localhost:3000"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		USDA: USDAConfig{
			BaseURL: "https://api.nal.usda.gov",
			Timeout: 5 * time.Second,
		},
		Images: ImagesConfig{
			Store:     "disk",
			UploadDir: "uploads/recipes",
			S3Prefix:  "recipes/",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := splitList(k, "security.cors_origins"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// splitList turns a comma separated string at path into a trimmed slice.
func splitList(k *koanf.Koanf, path string) error {
	s, ok := k.Get(path).(string)
	if !ok {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if err := k.Set(path, out); err != nil {
		return fmt.Errorf("failed to set %s: %w", path, err)
	}
	return nil
}

var envMappings = map[string]string{
	"addr":             "server.addr",
	"environment":      "server.environment",
	"read_timeout":     "server.read_timeout",
	"write_timeout":    "server.write_timeout",
	"shutdown_timeout": "server.shutdown_timeout",

	"database_url": "database.url",

	"jwt_secret":          "security.jwt_secret",
	"access_token_ttl":    "security.access_token_ttl",
	"refresh_token_ttl":   "security.refresh_token_ttl",
	"cors_origins":        "security.cors_origins",
	"frontend_url":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",

	"oidc_issuer":        "security.oidc.issuer_url",
	"oidc_client_id":     "security.oidc.client_id",
	"oidc_client_secret": "security.oidc.client_secret",
	"oidc_redirect_url":  "security.oidc.redirect_url",

	"usda_api_key":  "usda.api_key",
	"usda_base_url": "usda.base_url",
	"usda_timeout":  "usda.timeout",

	"image_store": "images.store",
	"upload_dir":  "images.upload_dir",
	"s3_bucket":   "images.s3_bucket",
	"s3_region":   "images.s3_region",
	"s3_prefix":   "images.s3_prefix",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps known environment variables onto config paths.
// Unknown variables map to "" and are skipped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
