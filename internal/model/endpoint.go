package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Endpoint type tags ("Polymorphism over Endpoint.type").
const (
	EndpointTypeWebhook    = "webhook"
	EndpointTypeEmail      = "email"
	EndpointTypeEmailGroup = "email_group"
)

// Endpoint is a user-defined delivery destination. Config is stored as JSONB and
// decoded into the variant matching Type — Router and the executors dispatch by Type,
// never by a type hierarchy.
//
// Name is unique per OwnerUser; an Endpoint cannot be deleted while any EmailAddress or
// Domain.CatchAllEndpointID references it (DependencyBusy).
type Endpoint struct {
	ID                  uuid.UUID `json:"id" db:"id"`
	OwnerUser           uuid.UUID `json:"owner_user" db:"owner_user"`
	Name                string    `json:"name" db:"name"`
	Type                string    `json:"type" db:"type"`
	Config              JSONMap   `json:"config" db:"config"`
	IsActive            bool      `json:"is_active" db:"is_active"`
	TotalDeliveries     int64     `json:"total_deliveries" db:"total_deliveries"`
	SuccessfulDeliveries int64    `json:"successful_deliveries" db:"successful_deliveries"`
	FailedDeliveries    int64     `json:"failed_deliveries" db:"failed_deliveries"`
	LastUsed            *time.Time `json:"last_used,omitempty" db:"last_used"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" db:"updated_at"`
}

// WebhookConfig is Endpoint.Config decoded for Type == EndpointTypeWebhook.
type WebhookConfig struct {
	URL           string            `json:"url" validate:"required,url"`
	Secret        string            `json:"secret,omitempty"`
	Headers       map[string]string `json:"headers,omitempty"`
	TimeoutSecs   int               `json:"timeout_s" validate:"required,min=1,max=300"`
	RetryAttempts int               `json:"retry_attempts" validate:"min=0,max=10"`
}

// EmailConfig is Endpoint.Config decoded for Type == EndpointTypeEmail.
type EmailConfig struct {
	ForwardTo          string `json:"forward_to" validate:"required,email"`
	IncludeAttachments *bool  `json:"include_attachments,omitempty"`
	SubjectPrefix      string `json:"subject_prefix,omitempty"`
}

// EmailGroupConfig is Endpoint.Config decoded for Type == EndpointTypeEmailGroup.
type EmailGroupConfig struct {
	Emails              []string `json:"emails" validate:"required,min=1,max=50,unique,dive,email"`
	NoDuplicates        bool     `json:"no_duplicates"`
	IncludeAttachments  *bool    `json:"include_attachments,omitempty"`
	SubjectPrefix       string   `json:"subject_prefix,omitempty"`
}

// DecodeWebhookConfig decodes Config as WebhookConfig; returns an error if Type isn't
// webhook or Config is malformed.
func (e *Endpoint) DecodeWebhookConfig() (WebhookConfig, error) {
	var cfg WebhookConfig
	err := decodeConfig(e.Config, &cfg)
	return cfg, err
}

// DecodeEmailConfig decodes Config as EmailConfig.
func (e *Endpoint) DecodeEmailConfig() (EmailConfig, error) {
	var cfg EmailConfig
	err := decodeConfig(e.Config, &cfg)
	return cfg, err
}

// DecodeEmailGroupConfig decodes Config as EmailGroupConfig.
func (e *Endpoint) DecodeEmailGroupConfig() (EmailGroupConfig, error) {
	var cfg EmailGroupConfig
	err := decodeConfig(e.Config, &cfg)
	return cfg, err
}

func decodeConfig(m JSONMap, out interface{}) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// DefaultWebhookTimeoutSecs mirrors the WebhookExecutor default.
const DefaultWebhookTimeoutSecs = 30

// MaxEmailGroupSize is the validation boundary for EmailGroupConfig.Emails.
const MaxEmailGroupSize = 50
