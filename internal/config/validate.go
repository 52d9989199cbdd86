package config

import (
	"fmt"
	"strings"
)

// Validate checks the configuration for required fields and invalid values.
// It collects all failures into a single error so the operator sees every
// problem at once.
func (c *Config) Validate() error {
	var errs []string

	// Auth
	if c.Auth.JWTSecret == "" {
		errs = append(errs, "auth.jwt_secret is required")
	} else if len(c.Auth.JWTSecret) < 32 {
		errs = append(errs, "auth.jwt_secret must be at least 32 characters")
	}
	if c.Auth.ServiceAPIKey == "" {
		errs = append(errs, "auth.service_api_key is required")
	}

	// Database
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Password == "" {
		errs = append(errs, "database.password is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis.addr is required")
	}

	// Mailer
	if c.Mailer.RawBucket == "" {
		errs = append(errs, "mailer.raw_bucket is required")
	}
	if c.Mailer.ForwarderSender == "" {
		errs = append(errs, "mailer.forwarder_sender is required")
	}

	// Entitlement
	if c.Entitlement.BaseURL == "" {
		errs = append(errs, "entitlement.base_url is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
