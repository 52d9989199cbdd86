package service

import (
	"context"
	"encoding/base64"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/inboundemail/inbound-core/internal/dto"
	"github.com/inboundemail/inbound-core/internal/engine"
	"github.com/inboundemail/inbound-core/internal/entitlement"
	"github.com/inboundemail/inbound-core/internal/mailer"
	"github.com/inboundemail/inbound-core/internal/model"
	"github.com/inboundemail/inbound-core/internal/repository/postgres"
)

// Ingestor implements the inbound pipeline entry point. Authentication
// (constant-time bearer compare against SERVICE_API_KEY) is an HTTP-layer concern;
// Ingest covers everything from persisting the IngestionEvent through handing each
// recipient to Router.
type Ingestor interface {
	Ingest(ctx context.Context, req *dto.IngestRequest) *dto.IngestResponse
}

type ingestor struct {
	events     postgres.IngestionEventRepository
	records    postgres.EmailRecordRepository
	parsed     postgres.ParsedEmailRepository
	resolver   OwnerResolver
	quota      QuotaGate
	blocklist  BlocklistChecker
	router     Router
	mimeParser *engine.MimeParser
	mailer     *mailer.Client
	logger     *slog.Logger
}

// NewIngestor creates an Ingestor.
func NewIngestor(events postgres.IngestionEventRepository, records postgres.EmailRecordRepository, parsed postgres.ParsedEmailRepository, resolver OwnerResolver, quota QuotaGate, blocklist BlocklistChecker, router Router, mimeParser *engine.MimeParser, mailerClient *mailer.Client, logger *slog.Logger) Ingestor {
	return &ingestor{
		events:     events,
		records:    records,
		parsed:     parsed,
		resolver:   resolver,
		quota:      quota,
		blocklist:  blocklist,
		router:     router,
		mimeParser: mimeParser,
		mailer:     mailerClient,
		logger:     logger,
	}
}

// Ingest processes one mailer callback into EmailRecord/ParsedEmail rows and routes
// each recipient. Per-record/per-recipient failures never escape as an error —
// they're folded into the response body — so the mailer is never driven to retry
// a delivery that merely failed downstream of receipt.
func (ig *ingestor) Ingest(ctx context.Context, req *dto.IngestRequest) *dto.IngestResponse {
	resp := &dto.IngestResponse{Success: true, Emails: []dto.IngestEmailResult{}, RejectedRecipients: []dto.IngestRejection{}}

	for _, rec := range req.ProcessedRecords {
		recipients := rec.SES.Receipt.Recipients

		event := &model.IngestionEvent{
			ID:          uuid.New(),
			MessageID:   rec.SES.Mail.MessageID,
			Source:      rec.SES.Mail.Source,
			Destination: rec.SES.Mail.Destination,
			Recipients:  recipients,
			Verdicts: model.Verdicts{
				SPF:   rec.SES.Receipt.SPF.Status,
				DKIM:  rec.SES.Receipt.DKIM.Status,
				DMARC: rec.SES.Receipt.DMARC.Status,
				Spam:  rec.SES.Receipt.Spam.Status,
				Virus: rec.SES.Receipt.Virus.Status,
			},
			ActionType:       rec.SES.Receipt.Action.Type,
			ReceiptTimestamp: receiptTimestamp(rec.SES.Receipt.Timestamp),
			ProcessingTimeMs: rec.SES.Receipt.ProcessingTimeMs,
			CreatedAt:        time.Now().UTC(),
		}
		if rec.SES.Receipt.Action.Bucket != "" {
			b := rec.SES.Receipt.Action.Bucket
			event.S3Bucket = &b
		}
		if rec.SES.Receipt.Action.Key != "" {
			k := rec.SES.Receipt.Action.Key
			event.S3Key = &k
		}

		if err := ig.events.Create(ctx, event); err != nil {
			ig.logger.Error("ingestor: persist ingestion event failed", "error", err, "mailer_message_id", rec.SES.Mail.MessageID)
			resp.Success = false
			for _, recipient := range recipients {
				resp.Rejected++
				resp.RejectedRecipients = append(resp.RejectedRecipients, dto.IngestRejection{Recipient: recipient, Error: "persisting ingestion event failed"})
			}
			continue
		}

		raw, subjectFallback := ig.fetchRaw(ctx, rec)

		for _, recipient := range recipients {
			emailResult, rejection := ig.processRecipient(ctx, event, rec, recipient, raw, subjectFallback)
			if rejection != nil {
				resp.Rejected++
				resp.RejectedRecipients = append(resp.RejectedRecipients, *rejection)
				continue
			}
			resp.Processed++
			resp.Emails = append(resp.Emails, *emailResult)
		}
	}

	return resp
}

// fetchRaw resolves the raw MIME bytes for a record: prefer an inlined copy, else
// fetch by (bucket, key) from the cloud mailer's object store. A fetch failure is not
// fatal — MimeParser simply isn't run and the subject falls back to the mailer's
// pre-extracted common_headers.
func (ig *ingestor) fetchRaw(ctx context.Context, rec dto.IngestRecord) ([]byte, string) {
	subjectFallback := rec.SES.Mail.CommonHeaders.Subject

	if rec.EmailContent != nil {
		decoded, err := base64.StdEncoding.DecodeString(*rec.EmailContent)
		if err == nil {
			return decoded, subjectFallback
		}
		ig.logger.Warn("ingestor: inline email_content not valid base64", "mailer_message_id", rec.SES.Mail.MessageID, "error", err)
	}

	loc := rec.S3Location
	if loc == nil || loc.Bucket == "" || loc.Key == "" {
		return nil, subjectFallback
	}
	raw, err := ig.mailer.FetchRaw(ctx, loc.Bucket, loc.Key)
	if err != nil {
		ig.logger.Warn("ingestor: fetch raw object failed", "mailer_message_id", rec.SES.Mail.MessageID, "bucket", loc.Bucket, "key", loc.Key, "error", err)
		return nil, subjectFallback
	}
	return raw, subjectFallback
}

func (ig *ingestor) processRecipient(ctx context.Context, event *model.IngestionEvent, rec dto.IngestRecord, recipient string, raw []byte, subjectFallback string) (*dto.IngestEmailResult, *dto.IngestRejection) {
	owner := ig.resolver.Resolve(ctx, recipient)

	quotaResult := ig.quota.CheckAndTrack(ctx, owner, entitlement.FeatureInboundTriggers)
	if !quotaResult.Allowed {
		return nil, &dto.IngestRejection{Recipient: recipient, Error: quotaResult.Reason}
	}

	blocked := ig.blocklist.IsBlocked(ctx, owner, rec.SES.Mail.Source)
	status := model.EmailRecordStatusReceived
	if blocked {
		status = model.EmailRecordStatusBlocked
	}

	now := time.Now().UTC()
	emailRec := &model.EmailRecord{
		ID:               uuid.New(),
		IngestionEventID: event.ID,
		MessageID:        rec.SES.Mail.MessageID,
		From:             rec.SES.Mail.Source,
		To:               rec.SES.Mail.Destination,
		Recipient:        recipient,
		Status:           status,
		OwnerUser:        owner,
		ReceivedAt:       now,
	}

	var parsedEmail *model.ParsedEmail
	if len(raw) > 0 {
		parsedEmail = ig.mimeParser.Parse(raw)
		if subj, ok := parsedEmail.Headers["Subject"].(string); ok && subj != "" {
			emailRec.Subject = &subj
		}
	}
	if emailRec.Subject == nil && subjectFallback != "" {
		emailRec.Subject = &subjectFallback
	}

	if err := ig.records.Create(ctx, emailRec); err != nil {
		ig.logger.Error("ingestor: persist email record failed", "error", err, "recipient", recipient)
		return nil, &dto.IngestRejection{Recipient: recipient, Error: "persisting email record failed"}
	}

	if parsedEmail != nil {
		parsedEmail.ID = uuid.New()
		parsedEmail.EmailRecordID = emailRec.ID
		if err := ig.parsed.Create(ctx, parsedEmail); err != nil {
			ig.logger.Error("ingestor: persist parsed email failed", "error", err, "recipient", recipient)
		}
	}

	result := &dto.IngestEmailResult{EmailRecordID: emailRec.ID.String(), Recipient: recipient, Status: status}

	if blocked {
		return result, nil
	}

	routeResult, err := ig.router.Route(ctx, emailRec, parsedEmail)
	if err != nil {
		ig.logger.Warn("ingestor: routing failed", "error", err, "recipient", recipient, "email_record_id", emailRec.ID)
	}
	result.DestinationKind = routeResult.DestinationKind

	processedAt := time.Now().UTC()
	emailRec.ProcessedAt = &processedAt
	if err := ig.records.Update(ctx, emailRec); err != nil {
		ig.logger.Warn("ingestor: stamping processed_at failed", "error", err, "email_record_id", emailRec.ID)
	}

	return result, nil
}

// receiptTimestamp parses the mailer-supplied RFC3339 timestamp, falling back to now
// when absent or malformed — the event must always have a receipt time.
func receiptTimestamp(raw string) time.Time {
	if raw == "" {
		return time.Now().UTC()
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Now().UTC()
	}
	return t.UTC()
}
