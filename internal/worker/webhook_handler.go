package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/inboundemail/inbound-core/internal/repository/postgres"
	"github.com/inboundemail/inbound-core/internal/service"
)

// WebhookDeliverHandler retries a webhook delivery after the synchronous attempt made
// during routing failed transport-side; scheduled retries are a worker-level
// concern. asynq's own per-task MaxRetry/backoff drives the retry schedule;
// ProcessTask just reports success or failure of one more attempt.
type WebhookDeliverHandler struct {
	emailRecords postgres.EmailRecordRepository
	parsedEmails postgres.ParsedEmailRepository
	endpoints    postgres.EndpointRepository
	executor     service.WebhookExecutor
	logger       *slog.Logger
}

// NewWebhookDeliverHandler creates a WebhookDeliverHandler.
func NewWebhookDeliverHandler(emailRecords postgres.EmailRecordRepository, parsedEmails postgres.ParsedEmailRepository, endpoints postgres.EndpointRepository, executor service.WebhookExecutor, logger *slog.Logger) *WebhookDeliverHandler {
	return &WebhookDeliverHandler{emailRecords: emailRecords, parsedEmails: parsedEmails, endpoints: endpoints, executor: executor, logger: logger}
}

func (h *WebhookDeliverHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload WebhookDeliverPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal webhook deliver payload: %w", asynq.SkipRetry)
	}

	endpoint, err := h.endpoints.GetByID(ctx, payload.EndpointID)
	if err != nil {
		return fmt.Errorf("load endpoint: %w", err)
	}
	rec, err := h.emailRecords.GetByID(ctx, payload.EmailRecordID)
	if err != nil {
		return fmt.Errorf("load email record: %w", err)
	}
	parsed, err := h.parsedEmails.GetByEmailRecordID(ctx, rec.ID)
	if err != nil {
		parsed = nil
	}

	attempt, err := h.executor.Deliver(ctx, rec, parsed, endpoint)
	if err != nil {
		h.logger.Warn("webhook retry delivery failed",
			"endpoint_id", payload.EndpointID,
			"email_record_id", payload.EmailRecordID,
			"attempt", payload.Attempt,
			"error", err,
		)
		return err
	}

	h.logger.Info("webhook retry delivery succeeded",
		"endpoint_id", payload.EndpointID,
		"email_record_id", payload.EmailRecordID,
		"attempt", payload.Attempt,
		"status", attempt.Status,
	)
	return nil
}
