package service

// All service interfaces are defined in their respective implementation files:
//
//   AuthService          -> auth.go
//   APIKeyService        -> apikey.go
//   OwnerResolver        -> owner_resolver.go
//   QuotaGate            -> quota_gate.go
//   BlocklistChecker     -> blocklist.go
//   Router               -> router.go
//   WebhookExecutor      -> webhook_executor.go
//   ForwardExecutor      -> forward_executor.go
//   ReceiptRuleManager   -> receipt_rule_manager.go
//   Sender               -> sender.go
//   ThreadService        -> thread.go
//   DomainService        -> domain.go
//   EmailAddressService  -> email_address.go
//   EndpointService      -> endpoint.go
//   EmailRecordService   -> email_record.go
//   Ingestor             -> ingestor.go
