package service

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inboundemail/inbound-core/internal/mailer"
	"github.com/inboundemail/inbound-core/internal/model"
	"github.com/inboundemail/inbound-core/internal/repository/postgres"
)

// ReceiptRuleManager keeps the cloud mailer's per-domain acceptance rules in sync
// with Domain/EmailAddress rows. A thin wrapper over internal/mailer: the
// mailer calls themselves are idempotent and side-effecting on the mailer, while this
// layer owns writing the resulting rule name back to Postgres.
type ReceiptRuleManager interface {
	EnableIndividual(ctx context.Context, domainID uuid.UUID) (*mailer.RuleResult, error)
	EnableCatchAll(ctx context.Context, domainID, endpointID uuid.UUID) (*mailer.RuleResult, error)
	DisableCatchAll(ctx context.Context, domainID uuid.UUID) (*mailer.RuleResult, error)
	RemoveAll(ctx context.Context, domainID uuid.UUID) error
}

type receiptRuleManager struct {
	pool      *pgxpool.Pool
	mailer    *mailer.Client
	domains   postgres.DomainRepository
	addresses postgres.EmailAddressRepository
	endpoints postgres.EndpointRepository
}

// NewReceiptRuleManager creates a ReceiptRuleManager.
func NewReceiptRuleManager(pool *pgxpool.Pool, mailerClient *mailer.Client, domains postgres.DomainRepository, addresses postgres.EmailAddressRepository, endpoints postgres.EndpointRepository) ReceiptRuleManager {
	return &receiptRuleManager{pool: pool, mailer: mailerClient, domains: domains, addresses: addresses, endpoints: endpoints}
}

// EnableIndividual ensures a rule accepting exactly the domain's active EmailAddress
// rows exists, then stamps the rule name and is_receipt_rule_configured on each row
//.
func (m *receiptRuleManager) EnableIndividual(ctx context.Context, domainID uuid.UUID) (*mailer.RuleResult, error) {
	domain, err := m.domains.GetByID(ctx, domainID)
	if err != nil {
		return nil, fmt.Errorf("load domain: %w", err)
	}

	unlock, err := m.lockDomain(ctx, domain.Name)
	if err != nil {
		return nil, err
	}
	defer unlock()

	addrs, err := m.addresses.ListByDomainID(ctx, domainID)
	if err != nil {
		return nil, fmt.Errorf("list email addresses: %w", err)
	}
	active := activeAddresses(addrs)

	result, err := m.mailer.EnableIndividual(ctx, domain.Name, active)
	if err != nil {
		return nil, fmt.Errorf("enable individual rule: %w", err)
	}

	for i := range addrs {
		if !addrs[i].IsActive {
			continue
		}
		addrs[i].IsReceiptRuleConfigured = true
		addrs[i].ReceiptRuleName = &result.RuleName
		if updErr := m.addresses.Update(ctx, &addrs[i]); updErr != nil {
			return result, fmt.Errorf("persist receipt rule name for %s: %w", addrs[i].Address, updErr)
		}
	}

	return result, nil
}

// EnableCatchAll replaces the domain's individual rule with a catch-all rule routed
// to endpointID.
func (m *receiptRuleManager) EnableCatchAll(ctx context.Context, domainID, endpointID uuid.UUID) (*mailer.RuleResult, error) {
	domain, err := m.domains.GetByID(ctx, domainID)
	if err != nil {
		return nil, fmt.Errorf("load domain: %w", err)
	}

	endpoint, err := m.endpoints.GetByID(ctx, endpointID)
	if err != nil {
		return nil, fmt.Errorf("load endpoint: %w", err)
	}
	if !endpoint.IsActive || endpoint.OwnerUser != domain.OwnerUser {
		return nil, ErrConflict
	}

	unlock, err := m.lockDomain(ctx, domain.Name)
	if err != nil {
		return nil, err
	}
	defer unlock()

	result, err := m.mailer.EnableCatchAll(ctx, domain.Name, endpointID.String())
	if err != nil {
		return nil, fmt.Errorf("enable catch-all rule: %w", err)
	}

	domain.CatchAllEndpointID = &endpointID
	domain.CatchAllRuleName = &result.RuleName
	domain.IsCatchAllEnabled = true
	if err := m.domains.Update(ctx, domain); err != nil {
		return result, fmt.Errorf("persist catch-all on domain: %w", err)
	}

	return result, nil
}

// DisableCatchAll removes the catch-all rule; if EmailAddress rows still exist for the
// domain, individual acceptance is immediately restored.
func (m *receiptRuleManager) DisableCatchAll(ctx context.Context, domainID uuid.UUID) (*mailer.RuleResult, error) {
	domain, err := m.domains.GetByID(ctx, domainID)
	if err != nil {
		return nil, fmt.Errorf("load domain: %w", err)
	}

	unlock, err := m.lockDomain(ctx, domain.Name)
	if err != nil {
		return nil, err
	}
	defer unlock()

	addrs, err := m.addresses.ListByDomainID(ctx, domainID)
	if err != nil {
		return nil, fmt.Errorf("list email addresses: %w", err)
	}
	active := activeAddresses(addrs)

	result, err := m.mailer.DisableCatchAll(ctx, domain.Name, active)
	if err != nil {
		return nil, fmt.Errorf("disable catch-all rule: %w", err)
	}

	domain.CatchAllEndpointID = nil
	domain.CatchAllRuleName = nil
	domain.IsCatchAllEnabled = false
	if err := m.domains.Update(ctx, domain); err != nil {
		return result, fmt.Errorf("persist catch-all removal on domain: %w", err)
	}

	if result.RuleName != "" {
		for i := range addrs {
			if !addrs[i].IsActive {
				continue
			}
			addrs[i].IsReceiptRuleConfigured = true
			addrs[i].ReceiptRuleName = &result.RuleName
			if updErr := m.addresses.Update(ctx, &addrs[i]); updErr != nil {
				return result, fmt.Errorf("persist restored receipt rule name for %s: %w", addrs[i].Address, updErr)
			}
		}
	}

	return result, nil
}

// RemoveAll removes any rule for domain and clears every row's rule bookkeeping
//.
func (m *receiptRuleManager) RemoveAll(ctx context.Context, domainID uuid.UUID) error {
	domain, err := m.domains.GetByID(ctx, domainID)
	if err != nil {
		return fmt.Errorf("load domain: %w", err)
	}

	unlock, err := m.lockDomain(ctx, domain.Name)
	if err != nil {
		return err
	}
	defer unlock()

	if err := m.mailer.RemoveAll(ctx, domain.Name); err != nil {
		return fmt.Errorf("remove receipt rules: %w", err)
	}

	domain.CatchAllEndpointID = nil
	domain.CatchAllRuleName = nil
	domain.IsCatchAllEnabled = false
	if err := m.domains.Update(ctx, domain); err != nil {
		return fmt.Errorf("persist rule removal on domain: %w", err)
	}

	addrs, err := m.addresses.ListByDomainID(ctx, domainID)
	if err != nil {
		return fmt.Errorf("list email addresses: %w", err)
	}
	for i := range addrs {
		addrs[i].IsReceiptRuleConfigured = false
		addrs[i].ReceiptRuleName = nil
		if updErr := m.addresses.Update(ctx, &addrs[i]); updErr != nil {
			return fmt.Errorf("clear receipt rule name for %s: %w", addrs[i].Address, updErr)
		}
	}

	return nil
}

// lockDomain holds a session-level PostgreSQL advisory lock keyed by domain name for
// the duration of one ReceiptRuleManager operation, serializing concurrent
// enable/disable calls on the same domain so they can't race the mailer's rule
// CRUD. Acquired on a dedicated connection since
// session-level advisory locks are connection-scoped.
func (m *receiptRuleManager) lockDomain(ctx context.Context, domain string) (func(), error) {
	conn, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection for domain lock: %w", err)
	}

	key := domainLockKey(domain)
	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", key); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock for domain %s: %w", domain, err)
	}

	return func() {
		_, _ = conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", key)
		conn.Release()
	}, nil
}

func domainLockKey(domain string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(domain))
	return int64(h.Sum64())
}

func activeAddresses(addrs []model.EmailAddress) []string {
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if a.IsActive {
			out = append(out, a.Address)
		}
	}
	return out
}
