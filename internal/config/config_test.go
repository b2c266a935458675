package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App: AppConfig{Environment: "development"},
		Source: SourceConfig{
			BaseURL: "https://shop.example/wp-json/wc/v3",
			Key:     "ck_test",
			Secret:  "cs_test",
		},
		Catalog: CatalogConfig{
			BaseURL: "https://graph.facebook.com/v18.0",
			ID:      "123456",
			Token:   "token",
		},
		Webhook: WebhookConfig{Secret: "hmac-key"},
	}
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateRequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		wantIn string
	}{
		{"missing source url", func(c *Config) { c.Source.BaseURL = "" }, "source"},
		{"invalid source url", func(c *Config) { c.Source.BaseURL = "not a url" }, "source"},
		{"missing source key", func(c *Config) { c.Source.Key = "" }, "source"},
		{"missing catalog id", func(c *Config) { c.Catalog.ID = "" }, "catalog"},
		{"missing catalog token", func(c *Config) { c.Catalog.Token = "" }, "catalog"},
		{"missing webhook secret", func(c *Config) { c.Webhook.Secret = "" }, "webhook"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantIn)
		})
	}
}

func TestValidateAdminRequiredInProduction(t *testing.T) {
	cfg := validConfig()
	cfg.App.Environment = "production"
	require.Error(t, cfg.Validate())

	cfg.Auth.AdminUser = "admin"
	cfg.Auth.AdminPassword = "s3cret"
	require.NoError(t, cfg.Validate())
}
