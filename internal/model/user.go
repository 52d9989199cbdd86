package model

import (
	"time"

	"github.com/google/uuid"
)

// User is the principal identifier: it owns Domains, Endpoints, EmailAddresses,
// EmailRecords and SentMessages. The core never creates or retires a User — it is
// created by the external auth collaborator and is immortal from the core's view.
type User struct {
	ID            uuid.UUID `json:"id" db:"id"`
	Email         string    `json:"email" db:"email"`
	PasswordHash  string    `json:"-" db:"password_hash"`
	Name          string    `json:"name" db:"name"`
	EmailVerified bool      `json:"email_verified" db:"email_verified"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// SystemUserID is the sentinel owner assigned to an EmailRecord when the recipient's
// domain cannot be resolved to a User (OwnerResolver). It is the nil UUID so
// it never collides with a generated id.
var SystemUserID = uuid.Nil

// IsSystemUser reports whether id is the sentinel system owner.
func IsSystemUser(id uuid.UUID) bool {
	return id == SystemUserID
}

// APIKey authenticates public-API callers as a User principal (dual-mode auth: hashed
// API key or JWT).
type APIKey struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	OwnerUser  uuid.UUID  `json:"owner_user" db:"owner_user"`
	Name       string     `json:"name" db:"name"`
	KeyHash    string     `json:"-" db:"key_hash"`
	Prefix     string     `json:"prefix" db:"prefix"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty" db:"last_used_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}
