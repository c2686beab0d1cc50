// Package config loads the service settings from the environment, with an
// optional .env file for local development.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is built once at startup and passed to the components.
type Config struct {
	Env        string `mapstructure:"APP_ENV"`
	Port       string `mapstructure:"PORT"`
	BaseURL    string `mapstructure:"BASE_URL"`
	CORSOrigin string `mapstructure:"CORS_ORIGIN"`
	LogLevel   string `mapstructure:"LOG_LEVEL"`

	DBDriver string `mapstructure:"DB_DRIVER"`
	DBDSN    string `mapstructure:"DB_DSN"`

	JWTSecret  string `mapstructure:"JWT_SECRET"`
	StorageDir string `mapstructure:"STORAGE_DIR"`

	PayPalAPIBase      string `mapstructure:"PAYPAL_API_BASE"`
	PayPalClientID     string `mapstructure:"PAYPAL_CLIENT_ID"`
	PayPalClientSecret string `mapstructure:"PAYPAL_CLIENT_SECRET"`
	PayPalWebhookID    string `mapstructure:"PAYPAL_WEBHOOK_ID"`
	PayPalReturnURL    string `mapstructure:"PAYPAL_RETURN_URL"`
	PayPalCancelURL    string `mapstructure:"PAYPAL_CANCEL_URL"`

	GeminiAPIKey string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel  string `mapstructure:"GEMINI_MODEL"`
}

var defaults = map[string]string{
	"APP_ENV":              "development",
	"PORT":                 "8080",
	"BASE_URL":             "http://localhost:8080",
	"CORS_ORIGIN":          "*",
	"LOG_LEVEL":            "info",
	"DB_DRIVER":            "sqlite",
	"DB_DSN":               "file:briefly.db?_pragma=busy_timeout(5000)",
	"JWT_SECRET":           "",
	"STORAGE_DIR":          "./storage",
	"PAYPAL_API_BASE":      "https://api-m.sandbox.paypal.com",
	"PAYPAL_CLIENT_ID":     "",
	"PAYPAL_CLIENT_SECRET": "",
	"PAYPAL_WEBHOOK_ID":    "",
	"PAYPAL_RETURN_URL":    "http://localhost:5173/billing?status=success",
	"PAYPAL_CANCEL_URL":    "http://localhost:5173/billing?status=cancelled",
	"GEMINI_API_KEY":       "",
	"GEMINI_MODEL":         "gemini-1.5-flash",
}

// Load reads .env (when present) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}
	return FromViper(viper.New())
}

// FromViper builds a Config from v with defaults and environment binding
// applied. Tests pass a viper instance with values set directly.
func FromViper(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	for key, def := range defaults {
		v.SetDefault(key, def)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	var errs []error
	switch c.DBDriver {
	case "mysql", "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be mysql, postgres or sqlite, got %q", c.DBDriver))
	}
	if c.IsProduction() && len(c.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 characters in production"))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// PayPalEnabled reports whether REST credentials are configured.
func (c *Config) PayPalEnabled() bool {
	return c.PayPalClientID != "" && c.PayPalClientSecret != ""
}

// Secret returns the JWT signing key, substituting a fixed development key
// outside production.
func (c *Config) Secret() string {
	if c.JWTSecret == "" {
		return "briefly-development-secret-do-not-use-in-production"
	}
	return c.JWTSecret
}

// SlogLevel maps LOG_LEVEL to a slog level.
func (c *Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
