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

// ReceiptRuleSyncHandler re-converges a domain's cloud-mailer receipt rule set with
// its current configuration ("re-convergence"). The API layer re-triggers
// this directly on every EmailAddress/catch-all change; this task exists for drift
// recovery — re-running it is always safe since ReceiptRuleManager's operations are
// idempotent on the mailer side.
type ReceiptRuleSyncHandler struct {
	domains postgres.DomainRepository
	rules   service.ReceiptRuleManager
	logger  *slog.Logger
}

// NewReceiptRuleSyncHandler creates a ReceiptRuleSyncHandler.
func NewReceiptRuleSyncHandler(domains postgres.DomainRepository, rules service.ReceiptRuleManager, logger *slog.Logger) *ReceiptRuleSyncHandler {
	return &ReceiptRuleSyncHandler{domains: domains, rules: rules, logger: logger}
}

func (h *ReceiptRuleSyncHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload ReceiptRuleSyncPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal receipt rule sync payload: %w", asynq.SkipRetry)
	}

	domain, err := h.domains.GetByID(ctx, payload.DomainID)
	if err != nil {
		return fmt.Errorf("load domain: %w", err)
	}

	if domain.IsCatchAllEnabled && domain.CatchAllEndpointID != nil {
		_, err = h.rules.EnableCatchAll(ctx, domain.ID, *domain.CatchAllEndpointID)
	} else {
		_, err = h.rules.EnableIndividual(ctx, domain.ID)
	}
	if err != nil {
		h.logger.Warn("receipt rule sync failed", "domain_id", payload.DomainID, "error", err)
		return err
	}

	h.logger.Info("receipt rule sync completed", "domain_id", payload.DomainID)
	return nil
}
