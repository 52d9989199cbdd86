package worker

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task type constants for all background jobs: webhook delivery transport-retry
// and receipt-rule re-convergence.
const (
	TaskWebhookDeliver = "webhook:deliver"
	TaskReceiptRuleSync = "receiptrule:sync"
)

// Queue names and their intended priority levels.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// WebhookDeliverPayload names the Endpoint/EmailRecord pair for one more webhook
// delivery attempt.
type WebhookDeliverPayload struct {
	EndpointID    uuid.UUID `json:"endpoint_id"`
	EmailRecordID uuid.UUID `json:"email_record_id"`
	Attempt       int       `json:"attempt"`
}

// ReceiptRuleSyncPayload re-converges a domain's cloud-mailer receipt rule set with
// its current EmailAddress/catch-all configuration ("re-convergence").
type ReceiptRuleSyncPayload struct {
	DomainID uuid.UUID `json:"domain_id"`
}

// NewWebhookDeliverTask creates an asynq task for retrying a webhook delivery.
func NewWebhookDeliverTask(endpointID, emailRecordID uuid.UUID, attempt int) (*asynq.Task, error) {
	payload, err := json.Marshal(WebhookDeliverPayload{EndpointID: endpointID, EmailRecordID: emailRecordID, Attempt: attempt})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskWebhookDeliver, payload, asynq.Queue(QueueDefault), asynq.MaxRetry(5)), nil
}

// NewReceiptRuleSyncTask creates an asynq task to re-converge a domain's receipt rules.
func NewReceiptRuleSyncTask(domainID uuid.UUID) (*asynq.Task, error) {
	payload, err := json.Marshal(ReceiptRuleSyncPayload{DomainID: domainID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReceiptRuleSync, payload, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}
