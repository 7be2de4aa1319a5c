package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.APIBaseURL)
	assert.Equal(t, 30*time.Second, cfg.APITimeout)
	assert.Equal(t, "/uploads/images", cfg.UploadPath)
	assert.Equal(t, 60*time.Second, cfg.CountdownInterval)
	assert.Equal(t, 6, cfg.MaxAttachments)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.PaymentGatewayMock)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://api.fastservices.test")
	t.Setenv("COUNTDOWN_INTERVAL", "5s")
	t.Setenv("MAX_ATTACHMENTS", "3")
	t.Setenv("PAYMENT_GATEWAY_MOCK", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.fastservices.test", cfg.APIBaseURL)
	assert.Equal(t, 5*time.Second, cfg.CountdownInterval)
	assert.Equal(t, 3, cfg.MaxAttachments)
	assert.True(t, cfg.PaymentGatewayMock)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}, wantErr: false},
		{name: "missing base url", mutate: func(c *Config) { c.APIBaseURL = "" }, wantErr: true},
		{name: "zero interval", mutate: func(c *Config) { c.CountdownInterval = 0 }, wantErr: true},
		{name: "zero attachments", mutate: func(c *Config) { c.MaxAttachments = 0 }, wantErr: true},
		{name: "quality too high", mutate: func(c *Config) { c.ImageQuality = 101 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{
				APIBaseURL:        "http://localhost:8000",
				CountdownInterval: time.Minute,
				MaxAttachments:    6,
				ImageQuality:      70,
			}
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestObjectStoreConfigured(t *testing.T) {
	c := &Config{}
	assert.False(t, c.ObjectStoreConfigured())

	c.R2AccountID, c.R2AccessKeyID, c.R2SecretAccessKey = "acct", "key", "secret"
	assert.True(t, c.ObjectStoreConfigured())
}
