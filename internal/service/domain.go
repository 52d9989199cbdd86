package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/inboundemail/inbound-core/internal/dto"
	"github.com/inboundemail/inbound-core/internal/engine"
	"github.com/inboundemail/inbound-core/internal/model"
	"github.com/inboundemail/inbound-core/internal/pkg"
	"github.com/inboundemail/inbound-core/internal/repository/postgres"
)

// DomainService defines CRUD and verification operations for Domain.
type DomainService interface {
	Create(ctx context.Context, ownerUser uuid.UUID, req *dto.CreateDomainRequest) (*dto.DomainResponse, error)
	List(ctx context.Context, ownerUser uuid.UUID, params *dto.PaginationParams) (*dto.PaginatedResponse[dto.DomainResponse], error)
	Get(ctx context.Context, ownerUser, domainID uuid.UUID) (*dto.DomainResponse, error)
	Update(ctx context.Context, ownerUser, domainID uuid.UUID, req *dto.UpdateDomainRequest) (*dto.DomainResponse, error)
	Delete(ctx context.Context, ownerUser, domainID uuid.UUID) error
	Verify(ctx context.Context, ownerUser, domainID uuid.UUID) (*dto.DomainResponse, error)
	DNSRecords(ctx context.Context, ownerUser, domainID uuid.UUID) ([]dto.DomainDNSRecordResponse, error)
}

type domainService struct {
	domains    postgres.DomainRepository
	dnsRecords postgres.DomainDNSRecordRepository
	endpoints  postgres.EndpointRepository
	rules      ReceiptRuleManager
	resolver   *engine.DNSResolver
	mailHost   string // hostname records should point MX/SPF/RETURN_PATH at
	logger     *slog.Logger
}

// NewDomainService creates a DomainService.
func NewDomainService(domains postgres.DomainRepository, dnsRecords postgres.DomainDNSRecordRepository, endpoints postgres.EndpointRepository, rules ReceiptRuleManager, resolver *engine.DNSResolver, mailHost string, logger *slog.Logger) DomainService {
	return &domainService{domains: domains, dnsRecords: dnsRecords, endpoints: endpoints, rules: rules, resolver: resolver, mailHost: mailHost, logger: logger}
}

// Create registers a new Domain row and generates its display-only DNS records
// (display-only; provisioning itself is out of scope). DKIM itself is owned
// by the cloud mailer for verified sending domains, not generated here.
func (s *domainService) Create(ctx context.Context, ownerUser uuid.UUID, req *dto.CreateDomainRequest) (*dto.DomainResponse, error) {
	if err := pkg.Validate(req); err != nil {
		return nil, fmt.Errorf("validation: %w", err)
	}

	if existing, err := s.domains.GetByName(ctx, req.Name); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: domain %s already registered", ErrConflict, req.Name)
	}

	now := time.Now().UTC()
	domain := &model.Domain{
		ID:        uuid.New(),
		OwnerUser: ownerUser,
		Name:      req.Name,
		Status:    model.DomainStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.domains.Create(ctx, domain); err != nil {
		return nil, fmt.Errorf("creating domain: %w", err)
	}

	records := s.generateDNSRecords(domain.ID, req.Name, now)
	for i := range records {
		if err := s.dnsRecords.Create(ctx, &records[i]); err != nil {
			return nil, fmt.Errorf("creating DNS record: %w", err)
		}
	}

	return domainToResponse(domain), nil
}

func (s *domainService) List(ctx context.Context, ownerUser uuid.UUID, params *dto.PaginationParams) (*dto.PaginatedResponse[dto.DomainResponse], error) {
	params.Normalize()

	domains, total, err := s.domains.List(ctx, ownerUser, params.PerPage, params.Offset())
	if err != nil {
		return nil, fmt.Errorf("listing domains: %w", err)
	}

	data := make([]dto.DomainResponse, 0, len(domains))
	for i := range domains {
		data = append(data, *domainToResponse(&domains[i]))
	}

	totalPages := 0
	if params.PerPage > 0 {
		totalPages = (total + params.PerPage - 1) / params.PerPage
	}

	return &dto.PaginatedResponse[dto.DomainResponse]{
		Data:       data,
		Total:      total,
		Page:       params.Page,
		PerPage:    params.PerPage,
		TotalPages: totalPages,
		HasMore:    params.Page < totalPages,
	}, nil
}

func (s *domainService) Get(ctx context.Context, ownerUser, domainID uuid.UUID) (*dto.DomainResponse, error) {
	domain, err := s.domains.GetByOwnerAndID(ctx, ownerUser, domainID)
	if err != nil {
		return nil, fmt.Errorf("domain not found: %w", err)
	}
	return domainToResponse(domain), nil
}

// Update applies catch-all routing changes to a Domain and keeps the cloud mailer's
// receipt rules in sync with the result. A rule sync failure does not roll back the
// domain row: it's logged and surfaced to the caller via DomainResponse.Warning. No
// ReceiptRuleSyncHandler task is enqueued for it; the rules converge again when the
// update is repeated or that task is run.
func (s *domainService) Update(ctx context.Context, ownerUser, domainID uuid.UUID, req *dto.UpdateDomainRequest) (*dto.DomainResponse, error) {
	if err := pkg.Validate(req); err != nil {
		return nil, fmt.Errorf("validation: %w", err)
	}

	domain, err := s.domains.GetByOwnerAndID(ctx, ownerUser, domainID)
	if err != nil {
		return nil, fmt.Errorf("domain not found: %w", err)
	}

	var newEndpointID *uuid.UUID
	if req.CatchAllEndpointID != nil {
		endpointID, err := uuid.Parse(*req.CatchAllEndpointID)
		if err != nil {
			return nil, fmt.Errorf("invalid catch_all_endpoint_id: %w", err)
		}
		endpoint, err := s.endpoints.GetByOwnerAndID(ctx, ownerUser, endpointID)
		if err != nil || !endpoint.IsActive {
			return nil, fmt.Errorf("%w: catch-all endpoint must be an active endpoint you own", ErrConflict)
		}
		domain.CatchAllEndpointID = &endpointID
		newEndpointID = &endpointID
	}
	if req.IsCatchAllEnabled != nil {
		domain.IsCatchAllEnabled = *req.IsCatchAllEnabled
	}

	domain.UpdatedAt = time.Now().UTC()
	if err := s.domains.Update(ctx, domain); err != nil {
		return nil, fmt.Errorf("updating domain: %w", err)
	}

	resp := domainToResponse(domain)

	switch {
	case req.IsCatchAllEnabled != nil && *req.IsCatchAllEnabled:
		if domain.CatchAllEndpointID == nil {
			resp.Warning = "catch-all enabled but no catch_all_endpoint_id is set; receipt rules not synced"
			break
		}
		if _, err := s.rules.EnableCatchAll(ctx, domainID, *domain.CatchAllEndpointID); err != nil {
			s.logger.Warn("enabling catch-all receipt rule", "domain", domain.Name, "error", err)
			resp.Warning = fmt.Sprintf("receipt rule sync failed: %v", err)
		}
	case req.IsCatchAllEnabled != nil && !*req.IsCatchAllEnabled:
		if _, err := s.rules.DisableCatchAll(ctx, domainID); err != nil {
			s.logger.Warn("disabling catch-all receipt rule", "domain", domain.Name, "error", err)
			resp.Warning = fmt.Sprintf("receipt rule sync failed: %v", err)
		}
	case newEndpointID != nil && domain.IsCatchAllEnabled:
		if _, err := s.rules.EnableCatchAll(ctx, domainID, *newEndpointID); err != nil {
			s.logger.Warn("resyncing catch-all receipt rule", "domain", domain.Name, "error", err)
			resp.Warning = fmt.Sprintf("receipt rule sync failed: %v", err)
		}
	}

	return resp, nil
}

func (s *domainService) Delete(ctx context.Context, ownerUser, domainID uuid.UUID) error {
	if _, err := s.domains.GetByOwnerAndID(ctx, ownerUser, domainID); err != nil {
		return fmt.Errorf("domain not found: %w", err)
	}
	if err := s.dnsRecords.DeleteByDomainID(ctx, domainID); err != nil {
		return fmt.Errorf("deleting DNS records: %w", err)
	}
	if err := s.domains.Delete(ctx, domainID); err != nil {
		return fmt.Errorf("deleting domain: %w", err)
	}
	return nil
}

// Verify checks only the domain's MX record against mailHost: Status becomes verified
// and CanReceive true when it resolves, failed and false otherwise. The stored DNS
// record rows are not re-checked or updated.
func (s *domainService) Verify(ctx context.Context, ownerUser, domainID uuid.UUID) (*dto.DomainResponse, error) {
	domain, err := s.domains.GetByOwnerAndID(ctx, ownerUser, domainID)
	if err != nil {
		return nil, fmt.Errorf("domain not found: %w", err)
	}

	hasMX, mxErr := s.resolver.VerifyMX(domain.Name, s.mailHost)
	domain.HasMX = hasMX && mxErr == nil
	domain.CanReceive = domain.HasMX

	if domain.HasMX {
		domain.Status = model.DomainStatusVerified
	} else {
		domain.Status = model.DomainStatusFailed
	}
	domain.UpdatedAt = time.Now().UTC()

	if err := s.domains.Update(ctx, domain); err != nil {
		return nil, fmt.Errorf("persisting verification result: %w", err)
	}

	return domainToResponse(domain), nil
}

func (s *domainService) DNSRecords(ctx context.Context, ownerUser, domainID uuid.UUID) ([]dto.DomainDNSRecordResponse, error) {
	if _, err := s.domains.GetByOwnerAndID(ctx, ownerUser, domainID); err != nil {
		return nil, fmt.Errorf("domain not found: %w", err)
	}

	records, err := s.dnsRecords.ListByDomainID(ctx, domainID)
	if err != nil {
		return nil, fmt.Errorf("listing DNS records: %w", err)
	}

	out := make([]dto.DomainDNSRecordResponse, 0, len(records))
	for _, r := range records {
		out = append(out, dto.DomainDNSRecordResponse{
			Type:     r.RecordType,
			DNSType:  r.DNSType,
			Name:     r.Name,
			Value:    r.Value,
			Priority: r.Priority,
			Status:   r.Status,
		})
	}
	return out, nil
}

// generateDNSRecords wraps engine.GenerateDNSRecords; the DKIM value is a
// placeholder token since DKIM key material for verified sending is issued and
// signed by the cloud mailer, not generated by this core.
func (s *domainService) generateDNSRecords(domainID uuid.UUID, domainName string, now time.Time) []model.DomainDNSRecord {
	generated := engine.GenerateDNSRecords(domainName, "mailer", "see-mailer-console", s.mailHost)

	out := make([]model.DomainDNSRecord, 0, len(generated))
	for _, g := range generated {
		out = append(out, model.DomainDNSRecord{
			ID:         uuid.New(),
			DomainID:   domainID,
			RecordType: g.RecordType,
			DNSType:    g.DNSType,
			Name:       g.Name,
			Value:      g.Value,
			Priority:   g.Priority,
			Status:     model.DomainStatusPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}
	return out
}

func domainToResponse(d *model.Domain) *dto.DomainResponse {
	var catchAllID *string
	if d.CatchAllEndpointID != nil {
		id := d.CatchAllEndpointID.String()
		catchAllID = &id
	}
	return &dto.DomainResponse{
		ID:                 d.ID.String(),
		Name:               d.Name,
		Status:             d.Status,
		CanReceive:         d.CanReceive,
		HasMX:              d.HasMX,
		IsCatchAllEnabled:  d.IsCatchAllEnabled,
		CatchAllEndpointID: catchAllID,
		CreatedAt:          d.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          d.UpdatedAt.Format(time.RFC3339),
	}
}
