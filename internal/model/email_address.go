package model

import (
	"time"

	"github.com/google/uuid"
)

// EmailAddress binds a single receiving address to a Domain and, optionally, an
// Endpoint it should be routed to.
//
// Invariants: Address is globally unique; the domain part of Address equals the owning
// Domain's Name; at most one of EndpointID/WebhookID is set (WebhookID is the legacy
// shape, kept only for schema compatibility with Router's dispatch branch).
type EmailAddress struct {
	ID                     uuid.UUID  `json:"id" db:"id"`
	Address                string     `json:"address" db:"address"`
	DomainID               uuid.UUID  `json:"domain_id" db:"domain_id"`
	EndpointID             *uuid.UUID `json:"endpoint_id,omitempty" db:"endpoint_id"`
	WebhookID              *uuid.UUID `json:"webhook_id,omitempty" db:"webhook_id"`
	IsActive               bool       `json:"is_active" db:"is_active"`
	IsReceiptRuleConfigured bool      `json:"is_receipt_rule_configured" db:"is_receipt_rule_configured"`
	ReceiptRuleName        *string    `json:"receipt_rule_name,omitempty" db:"receipt_rule_name"`
	OwnerUser              uuid.UUID  `json:"owner_user" db:"owner_user"`
	CreatedAt              time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at" db:"updated_at"`
}
