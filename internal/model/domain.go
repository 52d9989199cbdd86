package model

import (
	"time"

	"github.com/google/uuid"
)

// Domain status values.
const (
	DomainStatusPending  = "pending"
	DomainStatusVerified = "verified"
	DomainStatusFailed   = "failed"
)

// Domain is a verified (or verifying) sending/receiving domain owned by a User.
//
// Invariants: Name is unique across all users; CatchAllEndpointID non-nil implies the
// referenced Endpoint exists, is active, and belongs to OwnerUser; IsCatchAllEnabled
// holds iff CatchAllEndpointID is non-nil.
type Domain struct {
	ID                 uuid.UUID  `json:"id" db:"id"`
	OwnerUser          uuid.UUID  `json:"owner_user" db:"owner_user"`
	Name               string     `json:"name" db:"name"`
	Status             string     `json:"status" db:"status"`
	CanReceive         bool       `json:"can_receive" db:"can_receive"`
	HasMX              bool       `json:"has_mx" db:"has_mx"`
	CatchAllEndpointID *uuid.UUID `json:"catch_all_endpoint_id,omitempty" db:"catch_all_endpoint_id"`
	CatchAllRuleName   *string    `json:"catch_all_rule_name,omitempty" db:"catch_all_rule_name"`
	IsCatchAllEnabled  bool       `json:"is_catch_all_enabled" db:"is_catch_all_enabled"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}

// DomainDNSRecord is a DNS record the caller must provision for Domain verification
// (SPF/DKIM/MX/DMARC/RETURN_PATH) — display-only; provisioning itself is out of core
// scope.
type DomainDNSRecord struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	DomainID      uuid.UUID  `json:"domain_id" db:"domain_id"`
	RecordType    string     `json:"record_type" db:"record_type"` // SPF, DKIM, MX, DMARC, RETURN_PATH
	DNSType       string     `json:"dns_type" db:"dns_type"`       // TXT, MX, CNAME
	Name          string     `json:"name" db:"name"`
	Value         string     `json:"value" db:"value"`
	Priority      *int       `json:"priority,omitempty" db:"priority"`
	Status        string     `json:"status" db:"status"`
	LastCheckedAt *time.Time `json:"last_checked_at,omitempty" db:"last_checked_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}
