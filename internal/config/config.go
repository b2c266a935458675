package config

import (
	"fmt"
	"os"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Config holds the whole application configuration, populated from
// environment variables.
type Config struct {
	App     AppConfig
	Source  SourceConfig
	Catalog CatalogConfig
	Webhook WebhookConfig
	Feed    FeedConfig
	Cache   CacheConfig
	Auth    AuthConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
}

// SourceConfig points at the store of record. Key and secret travel as query
// parameters, the legacy auth mode of the source API.
type SourceConfig struct {
	BaseURL string
	Key     string
	Secret  string
}

// CatalogConfig points at the downstream ad catalog batch API.
type CatalogConfig struct {
	BaseURL string
	ID      string
	Token   string
}

type WebhookConfig struct {
	Secret string // shared HMAC-SHA256 key
}

// FeedConfig carries the constants stamped into every exported item.
type FeedConfig struct {
	Brand          string
	CurrencySuffix string
	ImageRenderURL string
	PublicDir      string
}

type CacheConfig struct {
	Path string
}

type AuthConfig struct {
	AdminUser     string
	AdminPassword string
	SessionTTL    int // hours
}

// Load reads config from environment variables and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Catalog Sync"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
		Source: SourceConfig{
			BaseURL: getEnv("SOURCE_BASE_URL", ""),
			Key:     getEnv("SOURCE_KEY", ""),
			Secret:  getEnv("SOURCE_SECRET", ""),
		},
		Catalog: CatalogConfig{
			BaseURL: getEnv("CATALOG_BASE_URL", "https://graph.facebook.com/v18.0"),
			ID:      getEnv("CATALOG_ID", ""),
			Token:   getEnv("CATALOG_TOKEN", ""),
		},
		Webhook: WebhookConfig{
			Secret: getEnv("WEBHOOK_SECRET", ""),
		},
		Feed: FeedConfig{
			Brand:          getEnv("BRAND", ""),
			CurrencySuffix: getEnv("CURRENCY_SUFFIX", "BAM"),
			ImageRenderURL: getEnv("IMAGE_RENDER_URL", ""),
			PublicDir:      getEnv("PUBLIC_DIR", "public"),
		},
		Cache: CacheConfig{
			Path: getEnv("CACHE_PATH", "data/catalog.db"),
		},
		Auth: AuthConfig{
			AdminUser:     getEnv("ADMIN_USER", ""),
			AdminPassword: getEnv("ADMIN_PASSWORD", ""),
			SessionTTL:    getEnvInt("SESSION_TTL_HOURS", 24),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate fails fast on missing required values.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(&c.Source,
		validation.Field(&c.Source.BaseURL, validation.Required, is.URL),
		validation.Field(&c.Source.Key, validation.Required),
		validation.Field(&c.Source.Secret, validation.Required),
	); err != nil {
		return fmt.Errorf("source: %w", err)
	}

	if err := validation.ValidateStruct(&c.Catalog,
		validation.Field(&c.Catalog.BaseURL, validation.Required, is.URL),
		validation.Field(&c.Catalog.ID, validation.Required),
		validation.Field(&c.Catalog.Token, validation.Required),
	); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}

	if err := validation.ValidateStruct(&c.Webhook,
		validation.Field(&c.Webhook.Secret, validation.Required),
	); err != nil {
		return fmt.Errorf("webhook: %w", err)
	}

	if c.App.Environment == "production" {
		if err := validation.ValidateStruct(&c.Auth,
			validation.Field(&c.Auth.AdminUser, validation.Required),
			validation.Field(&c.Auth.AdminPassword, validation.Required),
		); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
