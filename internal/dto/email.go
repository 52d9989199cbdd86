package dto

// SendEmailRequest is the body of POST /emails. IdempotencyKey is
// populated from the Idempotency-Key header, not the body.
type SendEmailRequest struct {
	From           string            `json:"from" validate:"required,email"`
	To             []string          `json:"to" validate:"required,min=1,dive,email"`
	Cc             []string          `json:"cc,omitempty" validate:"omitempty,dive,email"`
	Bcc            []string          `json:"bcc,omitempty" validate:"omitempty,dive,email"`
	ReplyTo        []string          `json:"reply_to,omitempty" validate:"omitempty,dive,email"`
	Subject        string            `json:"subject" validate:"required"`
	HTML           string            `json:"html,omitempty"`
	Text           string            `json:"text,omitempty"`
	Tags           map[string]string `json:"tags,omitempty"`
	Headers        map[string]string `json:"headers,omitempty"`
	Attachments    []Attachment      `json:"attachments,omitempty"`
	MessageID      string            `json:"message_id,omitempty"`
	IdempotencyKey string            `json:"-"` // from header
}

// ReplyEmailRequest is the body of POST /emails/{emailId}/reply.
type ReplyEmailRequest struct {
	From            string            `json:"from" validate:"required,email"`
	To              []string          `json:"to,omitempty" validate:"omitempty,dive,email"`
	Cc              []string          `json:"cc,omitempty" validate:"omitempty,dive,email"`
	Bcc             []string          `json:"bcc,omitempty" validate:"omitempty,dive,email"`
	ReplyTo         []string          `json:"reply_to,omitempty" validate:"omitempty,dive,email"`
	Subject         string            `json:"subject,omitempty"`
	HTML            string            `json:"html,omitempty"`
	Text            string            `json:"text,omitempty"`
	Tags            map[string]string `json:"tags,omitempty"`
	Headers         map[string]string `json:"headers,omitempty"`
	Attachments     []Attachment      `json:"attachments,omitempty"`
	IncludeOriginal *bool             `json:"include_original,omitempty"`
	IdempotencyKey  string            `json:"-"` // from header
}

// Attachment is one file attached to an outbound send/reply request.
type Attachment struct {
	Filename    string `json:"filename" validate:"required"`
	Content     string `json:"content" validate:"required"` // base64
	ContentType string `json:"content_type,omitempty"`
}

// SentMessageResponse is the public representation of a SentMessage.
type SentMessageResponse struct {
	ID                string   `json:"id"`
	From              string   `json:"from"`
	To                []string `json:"to"`
	Cc                []string `json:"cc,omitempty"`
	Bcc               []string `json:"bcc,omitempty"`
	ReplyTo           []string `json:"reply_to,omitempty"`
	Subject           string   `json:"subject"`
	Status            string   `json:"status"`
	MessageID         string   `json:"message_id"`
	ProviderMessageID *string  `json:"provider_message_id,omitempty"`
	FailureReason     *string  `json:"failure_reason,omitempty"`
	CreatedAt         string   `json:"created_at"`
	SentAt            *string  `json:"sent_at,omitempty"`
}

// ThreadMessageResponse is one message in a reconstructed thread.
type ThreadMessageResponse struct {
	Kind      string   `json:"kind"` // inbound, outbound
	ID        string   `json:"id"`
	MessageID string   `json:"message_id"`
	From      string   `json:"from"`
	To        []string `json:"to"`
	Subject   string   `json:"subject"`
	Timestamp string   `json:"timestamp"`
}
