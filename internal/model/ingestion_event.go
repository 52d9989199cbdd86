package model

import (
	"time"

	"github.com/google/uuid"
)

// VerdictStatus values the cloud mailer reports for spf/dkim/dmarc/spam/virus checks.
const (
	VerdictPass    = "PASS"
	VerdictFail    = "FAIL"
	VerdictGray    = "GRAY"
	VerdictProcessingFailed = "PROCESSING_FAILED"
)

// Verdicts bundles the cloud mailer's per-message authentication/safety checks.
type Verdicts struct {
	SPF   string `json:"spf"`
	DKIM  string `json:"dkim"`
	DMARC string `json:"dmarc"`
	Spam  string `json:"spam"`
	Virus string `json:"virus"`
}

// S3Location points at the raw message object in the cloud mailer's object store.
type S3Location struct {
	Bucket         string `json:"bucket"`
	Key            string `json:"key"`
	ContentFetched bool   `json:"content_fetched"`
	ContentSize    int64  `json:"content_size"`
}

// IngestionEvent is one row per mailer callback record. Immutable after
// insert; EmailRecord references but does not own it (an event may fan out to many
// recipients across many Users).
type IngestionEvent struct {
	ID                uuid.UUID `json:"id" db:"id"`
	MessageID         string    `json:"message_id" db:"message_id"`
	Source            string    `json:"source" db:"source"`
	Destination       []string  `json:"destination" db:"destination"`
	Recipients        []string  `json:"recipients" db:"recipients"`
	Verdicts          Verdicts  `json:"verdicts" db:"verdicts"`
	ActionType        string    `json:"action_type" db:"action_type"`
	S3Bucket          *string   `json:"s3_bucket,omitempty" db:"s3_bucket"`
	S3Key             *string   `json:"s3_key,omitempty" db:"s3_key"`
	RawContent        *string   `json:"raw_content,omitempty" db:"raw_content"`
	ReceiptTimestamp  time.Time `json:"receipt_timestamp" db:"receipt_timestamp"`
	ProcessingTimeMs  int       `json:"processing_time_ms" db:"processing_time_ms"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}
