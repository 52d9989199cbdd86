package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/inboundemail/inbound-core/internal/dto"
	"github.com/inboundemail/inbound-core/internal/model"
	"github.com/inboundemail/inbound-core/internal/pkg"
	"github.com/inboundemail/inbound-core/internal/repository/postgres"
)

// EmailAddressService defines CRUD operations for EmailAddress.
type EmailAddressService interface {
	Create(ctx context.Context, ownerUser uuid.UUID, req *dto.CreateEmailAddressRequest) (*dto.EmailAddressResponse, error)
	List(ctx context.Context, ownerUser uuid.UUID, params *dto.PaginationParams) (*dto.PaginatedResponse[dto.EmailAddressResponse], error)
	Get(ctx context.Context, ownerUser, id uuid.UUID) (*dto.EmailAddressResponse, error)
	Update(ctx context.Context, ownerUser, id uuid.UUID, req *dto.UpdateEmailAddressRequest) (*dto.EmailAddressResponse, error)
	Delete(ctx context.Context, ownerUser, id uuid.UUID) error
}

type emailAddressService struct {
	addresses postgres.EmailAddressRepository
	domains   postgres.DomainRepository
	endpoints postgres.EndpointRepository
	rules     ReceiptRuleManager
	logger    *slog.Logger
}

// NewEmailAddressService creates an EmailAddressService.
func NewEmailAddressService(addresses postgres.EmailAddressRepository, domains postgres.DomainRepository, endpoints postgres.EndpointRepository, rules ReceiptRuleManager, logger *slog.Logger) EmailAddressService {
	return &emailAddressService{addresses: addresses, domains: domains, endpoints: endpoints, rules: rules, logger: logger}
}

// Create validates that req.Address's domain part matches a Domain owned by ownerUser
// (the Domain's verification status is not checked), provisions the row, then syncs the cloud mailer's receipt rules for that domain so
// mail can start flowing without a separate activation step. A sync failure doesn't
// roll back the row: it's logged and surfaced via EmailAddressResponse.Warning.
func (s *emailAddressService) Create(ctx context.Context, ownerUser uuid.UUID, req *dto.CreateEmailAddressRequest) (*dto.EmailAddressResponse, error) {
	if err := pkg.Validate(req); err != nil {
		return nil, fmt.Errorf("validation: %w", err)
	}

	domainID, err := uuid.Parse(req.DomainID)
	if err != nil {
		return nil, fmt.Errorf("invalid domain_id: %w", err)
	}
	domain, err := s.domains.GetByOwnerAndID(ctx, ownerUser, domainID)
	if err != nil {
		return nil, fmt.Errorf("domain not found: %w", err)
	}
	if !strings.HasSuffix(strings.ToLower(req.Address), "@"+strings.ToLower(domain.Name)) {
		return nil, fmt.Errorf("%w: address must belong to domain %s", ErrConflict, domain.Name)
	}

	if existing, err := s.addresses.GetActiveByAddress(ctx, req.Address); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: address %s already provisioned", ErrConflict, req.Address)
	}

	var endpointID *uuid.UUID
	if req.EndpointID != nil {
		id, err := uuid.Parse(*req.EndpointID)
		if err != nil {
			return nil, fmt.Errorf("invalid endpoint_id: %w", err)
		}
		endpoint, err := s.endpoints.GetByOwnerAndID(ctx, ownerUser, id)
		if err != nil || !endpoint.IsActive {
			return nil, fmt.Errorf("%w: endpoint must be an active endpoint you own", ErrConflict)
		}
		endpointID = &id
	}

	now := time.Now().UTC()
	addr := &model.EmailAddress{
		ID:         uuid.New(),
		Address:    strings.ToLower(req.Address),
		DomainID:   domainID,
		EndpointID: endpointID,
		IsActive:   true,
		OwnerUser:  ownerUser,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.addresses.Create(ctx, addr); err != nil {
		return nil, fmt.Errorf("creating email address: %w", err)
	}

	resp := emailAddressToResponse(addr)

	if !domain.IsCatchAllEnabled {
		if _, err := s.rules.EnableIndividual(ctx, domainID); err != nil {
			s.logger.Warn("syncing receipt rules", "address", addr.Address, "error", err)
			resp.Warning = fmt.Sprintf("receipt rule sync failed: %v", err)
		} else if refreshed, err := s.addresses.GetByID(ctx, addr.ID); err == nil {
			resp = emailAddressToResponse(refreshed)
		}
	}

	return resp, nil
}

func (s *emailAddressService) List(ctx context.Context, ownerUser uuid.UUID, params *dto.PaginationParams) (*dto.PaginatedResponse[dto.EmailAddressResponse], error) {
	params.Normalize()

	addrs, total, err := s.addresses.List(ctx, ownerUser, params.PerPage, params.Offset())
	if err != nil {
		return nil, fmt.Errorf("listing email addresses: %w", err)
	}

	data := make([]dto.EmailAddressResponse, 0, len(addrs))
	for i := range addrs {
		data = append(data, *emailAddressToResponse(&addrs[i]))
	}

	totalPages := 0
	if params.PerPage > 0 {
		totalPages = (total + params.PerPage - 1) / params.PerPage
	}

	return &dto.PaginatedResponse[dto.EmailAddressResponse]{
		Data:       data,
		Total:      total,
		Page:       params.Page,
		PerPage:    params.PerPage,
		TotalPages: totalPages,
		HasMore:    params.Page < totalPages,
	}, nil
}

func (s *emailAddressService) Get(ctx context.Context, ownerUser, id uuid.UUID) (*dto.EmailAddressResponse, error) {
	addr, err := s.addresses.GetByOwnerAndID(ctx, ownerUser, id)
	if err != nil {
		return nil, fmt.Errorf("email address not found: %w", err)
	}
	return emailAddressToResponse(addr), nil
}

func (s *emailAddressService) Update(ctx context.Context, ownerUser, id uuid.UUID, req *dto.UpdateEmailAddressRequest) (*dto.EmailAddressResponse, error) {
	if err := pkg.Validate(req); err != nil {
		return nil, fmt.Errorf("validation: %w", err)
	}

	addr, err := s.addresses.GetByOwnerAndID(ctx, ownerUser, id)
	if err != nil {
		return nil, fmt.Errorf("email address not found: %w", err)
	}

	if req.EndpointID != nil {
		endpointID, err := uuid.Parse(*req.EndpointID)
		if err != nil {
			return nil, fmt.Errorf("invalid endpoint_id: %w", err)
		}
		endpoint, err := s.endpoints.GetByOwnerAndID(ctx, ownerUser, endpointID)
		if err != nil || !endpoint.IsActive {
			return nil, fmt.Errorf("%w: endpoint must be an active endpoint you own", ErrConflict)
		}
		addr.EndpointID = &endpointID
	}
	if req.IsActive != nil {
		addr.IsActive = *req.IsActive
	}

	addr.UpdatedAt = time.Now().UTC()
	if err := s.addresses.Update(ctx, addr); err != nil {
		return nil, fmt.Errorf("updating email address: %w", err)
	}

	resp := emailAddressToResponse(addr)

	if req.IsActive != nil {
		domain, err := s.domains.GetByID(ctx, addr.DomainID)
		if err == nil && !domain.IsCatchAllEnabled {
			if _, rerr := s.rules.EnableIndividual(ctx, addr.DomainID); rerr != nil {
				s.logger.Warn("syncing receipt rules", "address", addr.Address, "error", rerr)
				resp.Warning = fmt.Sprintf("receipt rule sync failed: %v", rerr)
			}
		}
	}

	return resp, nil
}

func (s *emailAddressService) Delete(ctx context.Context, ownerUser, id uuid.UUID) error {
	addr, err := s.addresses.GetByOwnerAndID(ctx, ownerUser, id)
	if err != nil {
		return fmt.Errorf("email address not found: %w", err)
	}

	if err := s.addresses.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting email address: %w", err)
	}

	domain, err := s.domains.GetByID(ctx, addr.DomainID)
	if err == nil && !domain.IsCatchAllEnabled {
		if _, rerr := s.rules.EnableIndividual(ctx, addr.DomainID); rerr != nil {
			s.logger.Warn("syncing receipt rules after delete", "address", addr.Address, "error", rerr)
		}
	}

	return nil
}

func emailAddressToResponse(a *model.EmailAddress) *dto.EmailAddressResponse {
	var endpointID *string
	if a.EndpointID != nil {
		id := a.EndpointID.String()
		endpointID = &id
	}
	return &dto.EmailAddressResponse{
		ID:                      a.ID.String(),
		Address:                 a.Address,
		DomainID:                a.DomainID.String(),
		EndpointID:              endpointID,
		IsActive:                a.IsActive,
		IsReceiptRuleConfigured: a.IsReceiptRuleConfigured,
		CreatedAt:               a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:               a.UpdatedAt.Format(time.RFC3339),
	}
}
