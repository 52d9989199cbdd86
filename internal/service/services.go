package service

// Services aggregates every service implementation the HTTP and worker layers need.
// Collaborator-only services (OwnerResolver, QuotaGate, BlocklistChecker, Router,
// WebhookExecutor, ForwardExecutor, ReceiptRuleManager) are included here too since
// both the ingestion handler and the asynq task handlers need direct access to them.
type Services struct {
	Auth         AuthService
	APIKey       APIKeyService
	Domain       DomainService
	EmailAddress EmailAddressService
	Endpoint     EndpointService
	EmailRecord  EmailRecordService
	Sender       Sender
	Thread       ThreadService
	Ingestor     Ingestor

	OwnerResolver OwnerResolver
	Quota         QuotaGate
	Blocklist     BlocklistChecker
	Router        Router
	Webhooks      WebhookExecutor
	Forward       ForwardExecutor
	ReceiptRules  ReceiptRuleManager
}
