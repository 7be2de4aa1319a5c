// Package config provides environment variable loading for the FastServices client tools.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the FastServices CLI and watcher.
type Config struct {
	// REST backend
	APIBaseURL string        `env:"API_BASE_URL" envDefault:"http://localhost:8000"`
	APITimeout time.Duration `env:"API_TIMEOUT" envDefault:"30s"`
	UploadPath string        `env:"UPLOAD_PATH" envDefault:"/uploads/images"`

	// Session
	SessionFile    string `env:"SESSION_FILE"`
	SessionProfile string `env:"SESSION_PROFILE" envDefault:"default"`

	// Database (optional: session store and watcher audit log)
	DatabaseURL string `env:"DATABASE_URL"`

	// Redis (optional: shared auto-close latch)
	RedisURL string `env:"REDIS_URL"`

	// Object storage (optional: direct attachment uploads)
	R2AccountID       string `env:"R2_ACCOUNT_ID"`
	R2AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
	R2SecretAccessKey string `env:"R2_SECRET_ACCESS_KEY"`
	R2Bucket          string `env:"R2_BUCKET" envDefault:"fastservices-attachments"`
	R2PublicBaseURL   string `env:"R2_PUBLIC_BASE_URL"`

	// Payments
	MercadoPagoAccessToken string `env:"MERCADOPAGO_ACCESS_TOKEN"`
	PaymentGatewayMock     bool   `env:"PAYMENT_GATEWAY_MOCK" envDefault:"false"`

	// Bidding and attachments
	CountdownInterval time.Duration `env:"COUNTDOWN_INTERVAL" envDefault:"60s"`
	MaxAttachments    int           `env:"MAX_ATTACHMENTS" envDefault:"6"`
	ImageMaxEdge      int           `env:"IMAGE_MAX_EDGE" envDefault:"1600"`
	ImageQuality      int           `env:"IMAGE_QUALITY" envDefault:"70"`

	// Optional
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads configuration from environment variables.
// It attempts to load a .env file first (for local development).
func Load() (*Config, error) {
	// Load .env file if present (ignore errors - file may not exist in production)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that env parsing alone cannot reject.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	if c.CountdownInterval <= 0 {
		return fmt.Errorf("COUNTDOWN_INTERVAL must be positive, got %s", c.CountdownInterval)
	}
	if c.MaxAttachments <= 0 {
		return fmt.Errorf("MAX_ATTACHMENTS must be positive, got %d", c.MaxAttachments)
	}
	if c.ImageQuality < 1 || c.ImageQuality > 100 {
		return fmt.Errorf("IMAGE_QUALITY must be between 1 and 100, got %d", c.ImageQuality)
	}
	return nil
}

// ObjectStoreConfigured reports whether direct R2 uploads can be used.
func (c *Config) ObjectStoreConfigured() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != ""
}
