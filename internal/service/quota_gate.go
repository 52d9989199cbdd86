package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/inboundemail/inbound-core/internal/entitlement"
	"github.com/inboundemail/inbound-core/internal/model"
)

// QuotaGateResult is the outcome of a check_and_track call.
type QuotaGateResult struct {
	Allowed bool
	Reason  string
}

// QuotaGate enforces per-user entitlement limits before a metered operation proceeds
//.
type QuotaGate interface {
	CheckAndTrack(ctx context.Context, user uuid.UUID, feature entitlement.Feature) QuotaGateResult
}

type quotaGate struct {
	client *entitlement.Client
}

// NewQuotaGate creates a QuotaGate backed by the entitlement client.
func NewQuotaGate(client *entitlement.Client) QuotaGate {
	return &quotaGate{client: client}
}

// CheckAndTrack checks and tracks usage against the entitlement service: the system
// user always passes without tracking; entitlement transport/decode failures are
// denials, never silent passes.
func (g *quotaGate) CheckAndTrack(ctx context.Context, user uuid.UUID, feature entitlement.Feature) QuotaGateResult {
	if model.IsSystemUser(user) {
		return QuotaGateResult{Allowed: true}
	}

	allowed, unlimited, err := g.client.Check(ctx, user.String(), feature)
	if err != nil {
		return QuotaGateResult{Allowed: false, Reason: fmt.Sprintf("entitlement check failed: %v", err)}
	}
	if !allowed {
		return QuotaGateResult{Allowed: false, Reason: "entitlement denied"}
	}
	if unlimited {
		return QuotaGateResult{Allowed: true}
	}

	if err := g.client.Track(ctx, user.String(), feature, 1); err != nil {
		return QuotaGateResult{Allowed: false, Reason: fmt.Sprintf("entitlement track failed: %v", err)}
	}
	return QuotaGateResult{Allowed: true}
}
