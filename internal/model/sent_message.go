package model

import (
	"time"

	"github.com/google/uuid"
)

// SentMessage status values.
const (
	SentStatusPending = "pending"
	SentStatusSent    = "sent"
	SentStatusFailed  = "failed"
)

// SentMessage is an outbound send or reply. Unique by (OwnerUser,
// IdempotencyKey) when the key is non-null.
type SentMessage struct {
	ID                uuid.UUID  `json:"id" db:"id"`
	From              string     `json:"from" db:"from_header"` // literal "Name <addr>" or "addr"
	FromAddress       string     `json:"from_address" db:"from_address"`
	FromDomain        string     `json:"from_domain" db:"from_domain"`
	To                []string   `json:"to" db:"to_addresses"`
	Cc                []string   `json:"cc,omitempty" db:"cc_addresses"`
	Bcc               []string   `json:"bcc,omitempty" db:"bcc_addresses"`
	ReplyTo           []string   `json:"reply_to,omitempty" db:"reply_to_addresses"`
	Subject           string     `json:"subject" db:"subject"`
	TextBody          *string    `json:"text_body,omitempty" db:"text_body"`
	HTMLBody          *string    `json:"html_body,omitempty" db:"html_body"`
	Headers           JSONMap    `json:"headers,omitempty" db:"headers"`
	Attachments       JSONArray  `json:"attachments,omitempty" db:"attachments"`
	Tags              JSONMap    `json:"tags,omitempty" db:"tags"`
	Status            string     `json:"status" db:"status"`
	MessageID         string     `json:"message_id" db:"message_id"`
	ProviderMessageID *string    `json:"provider_message_id,omitempty" db:"provider_message_id"`
	FailureReason     *string    `json:"failure_reason,omitempty" db:"failure_reason"`
	IdempotencyKey    *string    `json:"idempotency_key,omitempty" db:"idempotency_key"`
	InReplyToEmailID  *uuid.UUID `json:"in_reply_to_email_id,omitempty" db:"in_reply_to_email_id"`
	OwnerUser         uuid.UUID  `json:"owner_user" db:"owner_user"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	SentAt            *time.Time `json:"sent_at,omitempty" db:"sent_at"`
}
