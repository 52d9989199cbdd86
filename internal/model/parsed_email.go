package model

import (
	"time"

	"github.com/google/uuid"
)

// EmailAddressRef is a single parsed address with an optional display name.
type EmailAddressRef struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address"`
}

// AddressGroup is a header's literal text plus its parsed address list.
type AddressGroup struct {
	Text      string            `json:"text"`
	Addresses []EmailAddressRef `json:"addresses"`
}

// Attachment describes one extracted MIME part with Content-Disposition "attachment"
// (or inline-with-filename).
type Attachment struct {
	Filename    string `json:"filename,omitempty"`
	ContentType string `json:"content_type"`
	Size        int    `json:"size"`
	ContentID   string `json:"content_id,omitempty"`
	Disposition string `json:"disposition"`
	Content     []byte `json:"-"` // held only transiently during parse; persisted by ref, not inline
}

// ParsedEmail is the structured MIME decoding of an EmailRecord's raw content
//. Referentially transparent: identical raw input always parses to an
// identical ParsedEmail.
type ParsedEmail struct {
	ID            uuid.UUID      `json:"id" db:"id"`
	EmailRecordID uuid.UUID      `json:"email_record_id" db:"email_record_id"`
	From          AddressGroup   `json:"from" db:"from_group"`
	To            AddressGroup   `json:"to" db:"to_group"`
	Cc            AddressGroup   `json:"cc,omitempty" db:"cc_group"`
	Bcc           AddressGroup   `json:"bcc,omitempty" db:"bcc_group"`
	ReplyTo       AddressGroup   `json:"reply_to,omitempty" db:"reply_to_group"`
	TextBody      *string        `json:"text_body,omitempty" db:"text_body"`
	HTMLBody      *string        `json:"html_body,omitempty" db:"html_body"`
	RawBody       string         `json:"raw_body" db:"raw_body"`
	Attachments   []Attachment   `json:"attachments" db:"attachments"`
	Headers       JSONMap        `json:"headers" db:"headers"`
	MessageID     string         `json:"message_id,omitempty" db:"message_id"`
	InReplyTo     string         `json:"in_reply_to,omitempty" db:"in_reply_to"`
	References    []string       `json:"references,omitempty" db:"references_list"`
	Date          *time.Time     `json:"date,omitempty" db:"date"`
	Priority      string         `json:"priority,omitempty" db:"priority"`
	ParseSuccess  bool           `json:"parse_success" db:"parse_success"`
	ParseError    *string        `json:"parse_error,omitempty" db:"parse_error"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
}

// CleanedContent is the sanitized subset of a ParsedEmail shipped in the
// WebhookExecutor payload.
type CleanedContent struct {
	HTML        *string      `json:"html"`
	Text        *string      `json:"text"`
	HasHTML     bool         `json:"hasHtml"`
	HasText     bool         `json:"hasText"`
	Attachments []Attachment `json:"attachments"`
	Headers     JSONMap      `json:"headers"`
}
