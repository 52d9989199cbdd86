package dto

// IngestRequest is the cloud mailer's inbound ingestion callback body: an
// SES-shaped notification, optionally carrying the raw message inline
// or a pointer to it in the mailer's object store.
type IngestRequest struct {
	Type             string              `json:"type"`
	Timestamp        string              `json:"timestamp"`
	Context          IngestContext       `json:"context"`
	ProcessedRecords []IngestRecord      `json:"processed_records" validate:"required,min=1,dive"`
}

// IngestContext identifies the mailer's processing function invocation.
type IngestContext struct {
	FunctionName    string `json:"function_name"`
	FunctionVersion string `json:"function_version"`
	RequestID       string `json:"request_id"`
}

// IngestRecord is one processed record: the SES-shaped receipt/mail envelope plus
// wherever the raw content actually lives.
type IngestRecord struct {
	EventSource  string          `json:"event_source"`
	EventVersion string          `json:"event_version"`
	SES          IngestSES       `json:"ses" validate:"required"`
	EmailContent *string         `json:"email_content,omitempty"` // base64, when the mailer inlines small messages
	S3Location   *IngestS3Loc    `json:"s3_location,omitempty"`
	S3Error      *string         `json:"s3_error,omitempty"`
}

// IngestSES mirrors the SES notification's receipt+mail pair.
type IngestSES struct {
	Receipt IngestReceipt `json:"receipt"`
	Mail    IngestMail    `json:"mail"`
}

// IngestReceipt carries the mailer's authentication verdicts and raw-object action.
type IngestReceipt struct {
	Timestamp        string            `json:"timestamp"`
	ProcessingTimeMs  int               `json:"processing_time_ms"`
	Recipients       []string          `json:"recipients" validate:"required,min=1"`
	SPF              IngestVerdict     `json:"spf"`
	DKIM             IngestVerdict     `json:"dkim"`
	DMARC            IngestVerdict     `json:"dmarc"`
	Spam             IngestVerdict     `json:"spam"`
	Virus            IngestVerdict     `json:"virus"`
	Action           IngestAction      `json:"action"`
}

// IngestVerdict is the mailer's {status} shape for one authentication check.
type IngestVerdict struct {
	Status string `json:"status"`
}

// IngestAction names the raw-object action the mailer took (store, bounce, etc.) and
// where it stored the message.
type IngestAction struct {
	Type   string `json:"type"`
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// IngestMail carries the envelope fields independent of per-recipient routing.
type IngestMail struct {
	Timestamp      string              `json:"timestamp"`
	MessageID      string              `json:"message_id" validate:"required"`
	Source         string              `json:"source" validate:"required"`
	Destination    []string            `json:"destination"`
	CommonHeaders  IngestCommonHeaders `json:"common_headers"`
}

// IngestCommonHeaders is the mailer's pre-extracted header summary, used as a
// fallback when MimeParser can't run (no raw content available).
type IngestCommonHeaders struct {
	From      []string `json:"from"`
	To        []string `json:"to"`
	Subject   string   `json:"subject"`
	Date      *string  `json:"date,omitempty"`
	MessageID *string  `json:"message_id,omitempty"`
}

// IngestS3Loc points at the raw message object in the mailer's object store.
type IngestS3Loc struct {
	Bucket         string `json:"bucket"`
	Key            string `json:"key"`
	ContentFetched bool   `json:"content_fetched"`
	ContentSize    int64  `json:"content_size"`
}

// IngestResponse is the summary returned for every callback: always HTTP
// 200, success or failure encoded in the body so the mailer never retries.
type IngestResponse struct {
	Success            bool                `json:"success"`
	Processed          int                 `json:"processed"`
	Rejected           int                 `json:"rejected_count"`
	Emails             []IngestEmailResult `json:"emails"`
	RejectedRecipients []IngestRejection   `json:"rejected"`
}

// IngestEmailResult reports one successfully-created EmailRecord.
type IngestEmailResult struct {
	EmailRecordID   string `json:"email_record_id"`
	Recipient       string `json:"recipient"`
	Status          string `json:"status"` // received, blocked
	DestinationKind string `json:"destination_kind,omitempty"`
}

// IngestRejection reports one recipient that never got an EmailRecord.
type IngestRejection struct {
	Recipient string `json:"recipient"`
	Error     string `json:"error"`
}
