package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/inboundemail/inbound-core/internal/model"
	"github.com/inboundemail/inbound-core/internal/repository/postgres"
)

// Destination kinds returned by Router.Route.
const (
	DestinationKindWebhook = "webhook"
	DestinationKindEmail   = "email"
	DestinationKindNone    = "none"
)

// RouteResult is the outcome of Router.Route.
type RouteResult struct {
	DestinationKind string
	DeliveryID      *uuid.UUID
	Error           string
}

// Router selects and dispatches the destination for one EmailRecord.
type Router interface {
	Route(ctx context.Context, rec *model.EmailRecord, parsed *model.ParsedEmail) (RouteResult, error)
}

type router struct {
	emailAddresses postgres.EmailAddressRepository
	domains        postgres.DomainRepository
	endpoints      postgres.EndpointRepository
	webhooks       WebhookExecutor
	forwards       ForwardExecutor
}

// NewRouter creates a Router.
func NewRouter(emailAddresses postgres.EmailAddressRepository, domains postgres.DomainRepository, endpoints postgres.EndpointRepository, webhooks WebhookExecutor, forwards ForwardExecutor) Router {
	return &router{
		emailAddresses: emailAddresses,
		domains:        domains,
		endpoints:      endpoints,
		webhooks:       webhooks,
		forwards:       forwards,
	}
}

// Route selects a destination in order: an exact active EmailAddress match first,
// then the recipient domain's catch-all, else {destination_kind: none} (not an
// error — many recipients simply aren't configured for delivery).
func (r *router) Route(ctx context.Context, rec *model.EmailRecord, parsed *model.ParsedEmail) (RouteResult, error) {
	addr, err := r.emailAddresses.GetActiveByAddress(ctx, rec.Recipient)
	if err != nil && err != postgres.ErrNotFound {
		return RouteResult{}, fmt.Errorf("lookup email address: %w", err)
	}
	if addr != nil {
		if addr.EndpointID != nil {
			endpoint, err := r.endpoints.GetByID(ctx, *addr.EndpointID)
			if err == nil && endpoint.IsActive {
				return r.dispatch(ctx, rec, parsed, endpoint)
			}
		}
		// Legacy WebhookID addresses are schema-compatibility only: the standalone
		// Webhook entity this field once pointed to has been superseded by Endpoint
		//, so there's nothing left to dispatch to on that branch.
	}

	domainName, ok := domainPart(rec.Recipient)
	if !ok {
		return RouteResult{DestinationKind: DestinationKindNone}, nil
	}

	domain, err := r.domains.GetByName(ctx, domainName)
	if err != nil && err != postgres.ErrNotFound {
		return RouteResult{}, fmt.Errorf("lookup domain: %w", err)
	}
	if domain != nil && domain.IsCatchAllEnabled && domain.CatchAllEndpointID != nil {
		endpoint, err := r.endpoints.GetByID(ctx, *domain.CatchAllEndpointID)
		if err == nil && endpoint.IsActive {
			return r.dispatch(ctx, rec, parsed, endpoint)
		}
	}

	return RouteResult{DestinationKind: DestinationKindNone}, nil
}

func (r *router) dispatch(ctx context.Context, rec *model.EmailRecord, parsed *model.ParsedEmail, endpoint *model.Endpoint) (RouteResult, error) {
	switch endpoint.Type {
	case model.EndpointTypeWebhook:
		attempt, err := r.webhooks.Deliver(ctx, rec, parsed, endpoint)
		if err != nil {
			return RouteResult{DestinationKind: DestinationKindWebhook, Error: err.Error()}, err
		}
		return RouteResult{DestinationKind: DestinationKindWebhook, DeliveryID: &attempt.ID}, nil

	case model.EndpointTypeEmail:
		cfg, err := endpoint.DecodeEmailConfig()
		if err != nil {
			return RouteResult{DestinationKind: DestinationKindEmail, Error: err.Error()}, err
		}
		attempt, err := r.forwards.Forward(ctx, rec, parsed, endpoint, []string{cfg.ForwardTo})
		if err != nil {
			return RouteResult{DestinationKind: DestinationKindEmail, Error: err.Error()}, err
		}
		return RouteResult{DestinationKind: DestinationKindEmail, DeliveryID: &attempt.ID}, nil

	case model.EndpointTypeEmailGroup:
		cfg, err := endpoint.DecodeEmailGroupConfig()
		if err != nil {
			return RouteResult{DestinationKind: DestinationKindEmail, Error: err.Error()}, err
		}
		to := cfg.Emails
		if cfg.NoDuplicates {
			to = dedupeStrings(to)
		}
		attempt, err := r.forwards.Forward(ctx, rec, parsed, endpoint, to)
		if err != nil {
			return RouteResult{DestinationKind: DestinationKindEmail, Error: err.Error()}, err
		}
		return RouteResult{DestinationKind: DestinationKindEmail, DeliveryID: &attempt.ID}, nil

	default:
		return RouteResult{DestinationKind: DestinationKindNone}, fmt.Errorf("unknown endpoint type %q", endpoint.Type)
	}
}

func domainPart(address string) (string, bool) {
	at := strings.LastIndex(address, "@")
	if at < 0 || at == len(address)-1 {
		return "", false
	}
	return strings.ToLower(address[at+1:]), true
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		key := strings.ToLower(s)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
