package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a Config that passes all validation checks.
func validConfig() *Config {
	return &Config{
		Auth: AuthConfig{
			JWTSecret:     "this-is-a-secret-that-is-at-least-32-chars-long!!",
			ServiceAPIKey: "service-secret",
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Password: "secret",
			DBName:   "inbound",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Mailer: MailerConfig{
			RawBucket:       "inbound-raw",
			ForwarderSender: "forwarder@example.com",
		},
		Entitlement: EntitlementConfig{
			BaseURL: "https://entitlements.example.com",
		},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validConfig()
	err := cfg.Validate()
	assert.NoError(t, err)
}

func TestValidate_MissingJWTSecret(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.JWTSecret = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.jwt_secret is required")
}

func TestValidate_ShortJWTSecret(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.JWTSecret = "short"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.jwt_secret must be at least 32 characters")
}

func TestValidate_MissingServiceAPIKey(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.ServiceAPIKey = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.service_api_key is required")
}

func TestValidate_MissingDatabaseHost(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Host = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.host is required")
}

func TestValidate_MissingDatabasePassword(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Password = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.password is required")
}

func TestValidate_MissingDatabaseName(t *testing.T) {
	cfg := validConfig()
	cfg.Database.DBName = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.dbname is required")
}

func TestValidate_MissingRedisAddr(t *testing.T) {
	cfg := validConfig()
	cfg.Redis.Addr = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis.addr is required")
}

func TestValidate_MissingMailerRawBucket(t *testing.T) {
	cfg := validConfig()
	cfg.Mailer.RawBucket = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mailer.raw_bucket is required")
}

func TestValidate_MissingMailerForwarderSender(t *testing.T) {
	cfg := validConfig()
	cfg.Mailer.ForwarderSender = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mailer.forwarder_sender is required")
}

func TestValidate_MissingEntitlementBaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.Entitlement.BaseURL = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entitlement.base_url is required")
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := &Config{} // All required fields missing
	err := cfg.Validate()
	require.Error(t, err)

	msg := err.Error()
	// Should report all missing fields at once.
	assert.Contains(t, msg, "auth.jwt_secret is required")
	assert.Contains(t, msg, "auth.service_api_key is required")
	assert.Contains(t, msg, "database.host is required")
	assert.Contains(t, msg, "database.password is required")
	assert.Contains(t, msg, "database.dbname is required")
	assert.Contains(t, msg, "redis.addr is required")
	assert.Contains(t, msg, "mailer.raw_bucket is required")
	assert.Contains(t, msg, "mailer.forwarder_sender is required")
	assert.Contains(t, msg, "entitlement.base_url is required")

	// All 9 errors present.
	assert.Equal(t, 9, strings.Count(msg, "\n  - "))
}
