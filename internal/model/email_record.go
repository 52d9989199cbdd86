package model

import (
	"time"

	"github.com/google/uuid"
)

// EmailRecord status values.
const (
	EmailRecordStatusReceived = "received"
	EmailRecordStatusBlocked  = "blocked"
)

// EmailRecord is the per-recipient materialization of an IngestionEvent: one row per
// element of the envelope's recipients list. It is the unit of ownership —
// not the IngestionEvent, which may fan out across Users.
type EmailRecord struct {
	ID                uuid.UUID  `json:"id" db:"id"`
	IngestionEventID  uuid.UUID  `json:"ingestion_event_id" db:"ingestion_event_id"`
	MessageID         string     `json:"message_id" db:"message_id"`
	From              string     `json:"from" db:"from_address"`
	To                []string   `json:"to" db:"to_addresses"`
	Recipient         string     `json:"recipient" db:"recipient"`
	Subject           *string    `json:"subject,omitempty" db:"subject"`
	Status            string     `json:"status" db:"status"`
	IsRead            bool       `json:"is_read" db:"is_read"`
	ReadAt            *time.Time `json:"read_at,omitempty" db:"read_at"`
	ParsedEmailID     *uuid.UUID `json:"parsed_email_id,omitempty" db:"parsed_email_id"`
	RawRef            *string    `json:"raw_ref,omitempty" db:"raw_ref"`
	OwnerUser         uuid.UUID  `json:"owner_user" db:"owner_user"`
	ReceivedAt        time.Time  `json:"received_at" db:"received_at"`
	ProcessedAt       *time.Time `json:"processed_at,omitempty" db:"processed_at"`
}
