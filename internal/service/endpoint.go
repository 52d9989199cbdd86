package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/inboundemail/inbound-core/internal/dto"
	"github.com/inboundemail/inbound-core/internal/model"
	"github.com/inboundemail/inbound-core/internal/pkg"
	"github.com/inboundemail/inbound-core/internal/repository/postgres"
)

// EndpointService defines CRUD operations for Endpoint.
type EndpointService interface {
	Create(ctx context.Context, ownerUser uuid.UUID, req *dto.CreateEndpointRequest) (*dto.EndpointResponse, error)
	List(ctx context.Context, ownerUser uuid.UUID, params *dto.PaginationParams) (*dto.PaginatedResponse[dto.EndpointResponse], error)
	Get(ctx context.Context, ownerUser, id uuid.UUID) (*dto.EndpointResponse, error)
	Update(ctx context.Context, ownerUser, id uuid.UUID, req *dto.UpdateEndpointRequest) (*dto.EndpointResponse, error)
	Delete(ctx context.Context, ownerUser, id uuid.UUID) error
	// Test delivers a synthetic payload to a webhook Endpoint ("test").
	Test(ctx context.Context, ownerUser, id uuid.UUID) (*dto.WebhookTestResponse, error)
}

type endpointService struct {
	endpoints postgres.EndpointRepository
	addresses postgres.EmailAddressRepository
	domains   postgres.DomainRepository
	webhooks  WebhookExecutor
}

// NewEndpointService creates an EndpointService.
func NewEndpointService(endpoints postgres.EndpointRepository, addresses postgres.EmailAddressRepository, domains postgres.DomainRepository, webhooks WebhookExecutor) EndpointService {
	return &endpointService{endpoints: endpoints, addresses: addresses, domains: domains, webhooks: webhooks}
}

func (s *endpointService) Create(ctx context.Context, ownerUser uuid.UUID, req *dto.CreateEndpointRequest) (*dto.EndpointResponse, error) {
	if err := pkg.Validate(req); err != nil {
		return nil, fmt.Errorf("validation: %w", err)
	}
	if err := validateEndpointConfig(req.Type, req.Config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if existing, err := s.endpoints.GetByOwnerAndName(ctx, ownerUser, req.Name); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: endpoint named %s already exists", ErrConflict, req.Name)
	}

	now := time.Now().UTC()
	ep := &model.Endpoint{
		ID:        uuid.New(),
		OwnerUser: ownerUser,
		Name:      req.Name,
		Type:      req.Type,
		Config:    model.JSONMap(req.Config),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.endpoints.Create(ctx, ep); err != nil {
		return nil, fmt.Errorf("creating endpoint: %w", err)
	}

	return endpointToResponse(ep), nil
}

func (s *endpointService) List(ctx context.Context, ownerUser uuid.UUID, params *dto.PaginationParams) (*dto.PaginatedResponse[dto.EndpointResponse], error) {
	params.Normalize()

	eps, total, err := s.endpoints.List(ctx, ownerUser, params.PerPage, params.Offset())
	if err != nil {
		return nil, fmt.Errorf("listing endpoints: %w", err)
	}

	data := make([]dto.EndpointResponse, 0, len(eps))
	for i := range eps {
		data = append(data, *endpointToResponse(&eps[i]))
	}

	totalPages := 0
	if params.PerPage > 0 {
		totalPages = (total + params.PerPage - 1) / params.PerPage
	}

	return &dto.PaginatedResponse[dto.EndpointResponse]{
		Data:       data,
		Total:      total,
		Page:       params.Page,
		PerPage:    params.PerPage,
		TotalPages: totalPages,
		HasMore:    params.Page < totalPages,
	}, nil
}

func (s *endpointService) Get(ctx context.Context, ownerUser, id uuid.UUID) (*dto.EndpointResponse, error) {
	ep, err := s.endpoints.GetByOwnerAndID(ctx, ownerUser, id)
	if err != nil {
		return nil, fmt.Errorf("endpoint not found: %w", err)
	}
	return endpointToResponse(ep), nil
}

// Update changes name/config/active state. Type is immutable: a different
// delivery shape means creating a new Endpoint, not mutating this one in place.
func (s *endpointService) Update(ctx context.Context, ownerUser, id uuid.UUID, req *dto.UpdateEndpointRequest) (*dto.EndpointResponse, error) {
	if err := pkg.Validate(req); err != nil {
		return nil, fmt.Errorf("validation: %w", err)
	}

	ep, err := s.endpoints.GetByOwnerAndID(ctx, ownerUser, id)
	if err != nil {
		return nil, fmt.Errorf("endpoint not found: %w", err)
	}

	if req.Name != nil && *req.Name != ep.Name {
		if existing, err := s.endpoints.GetByOwnerAndName(ctx, ownerUser, *req.Name); err == nil && existing != nil {
			return nil, fmt.Errorf("%w: endpoint named %s already exists", ErrConflict, *req.Name)
		}
		ep.Name = *req.Name
	}
	if req.Config != nil {
		if err := validateEndpointConfig(ep.Type, req.Config); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		ep.Config = model.JSONMap(req.Config)
	}
	if req.IsActive != nil {
		ep.IsActive = *req.IsActive
	}

	ep.UpdatedAt = time.Now().UTC()
	if err := s.endpoints.Update(ctx, ep); err != nil {
		return nil, fmt.Errorf("updating endpoint: %w", err)
	}

	return endpointToResponse(ep), nil
}

// Delete refuses to remove an Endpoint still referenced by an EmailAddress or a
// Domain's catch-all; returns ErrDependencyBusy if it is.
func (s *endpointService) Delete(ctx context.Context, ownerUser, id uuid.UUID) error {
	if _, err := s.endpoints.GetByOwnerAndID(ctx, ownerUser, id); err != nil {
		return fmt.Errorf("endpoint not found: %w", err)
	}

	refs, err := s.addresses.CountReferencingEndpoint(ctx, id)
	if err != nil {
		return fmt.Errorf("checking endpoint references: %w", err)
	}
	if refs > 0 {
		return fmt.Errorf("%w: endpoint is referenced by %d email address(es)", ErrDependencyBusy, refs)
	}

	catchAllRefs, err := s.domains.CountReferencingCatchAllEndpoint(ctx, id)
	if err != nil {
		return fmt.Errorf("checking domain catch-all references: %w", err)
	}
	if catchAllRefs > 0 {
		return fmt.Errorf("%w: endpoint is the catch-all for %d domain(s)", ErrDependencyBusy, catchAllRefs)
	}

	if err := s.endpoints.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting endpoint: %w", err)
	}
	return nil
}

func (s *endpointService) Test(ctx context.Context, ownerUser, id uuid.UUID) (*dto.WebhookTestResponse, error) {
	ep, err := s.endpoints.GetByOwnerAndID(ctx, ownerUser, id)
	if err != nil {
		return nil, fmt.Errorf("endpoint not found: %w", err)
	}
	if ep.Type != model.EndpointTypeWebhook {
		return nil, fmt.Errorf("%w: test is only supported for webhook endpoints", ErrConflict)
	}

	attempt, err := s.webhooks.Test(ctx, ep)
	if err != nil {
		return nil, fmt.Errorf("testing webhook: %w", err)
	}

	resp := &dto.WebhookTestResponse{Success: attempt.Status == model.DeliveryStatusSuccess}
	if attempt.ResponseCode != nil {
		resp.ResponseCode = attempt.ResponseCode
	}
	if attempt.Error != nil {
		resp.Error = attempt.Error
	}
	return resp, nil
}

// validateEndpointConfig decodes config against the struct matching kind and runs
// validator tags on it, so a malformed webhook URL or an empty forward-to address is
// rejected at write time rather than surfacing later as a delivery failure.
func validateEndpointConfig(kind string, config map[string]interface{}) error {
	raw, err := json.Marshal(config)
	if err != nil {
		return err
	}

	switch kind {
	case model.EndpointTypeWebhook:
		var cfg model.WebhookConfig
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return err
		}
		return pkg.Validate(&cfg)
	case model.EndpointTypeEmail:
		var cfg model.EmailConfig
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return err
		}
		return pkg.Validate(&cfg)
	case model.EndpointTypeEmailGroup:
		var cfg model.EmailGroupConfig
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return err
		}
		return pkg.Validate(&cfg)
	default:
		return fmt.Errorf("unknown endpoint type %q", kind)
	}
}

func endpointToResponse(e *model.Endpoint) *dto.EndpointResponse {
	var lastUsed *string
	if e.LastUsed != nil {
		s := e.LastUsed.Format(time.RFC3339)
		lastUsed = &s
	}
	return &dto.EndpointResponse{
		ID:                   e.ID.String(),
		Name:                 e.Name,
		Type:                 e.Type,
		Config:               map[string]interface{}(e.Config),
		IsActive:             e.IsActive,
		TotalDeliveries:      e.TotalDeliveries,
		SuccessfulDeliveries: e.SuccessfulDeliveries,
		FailedDeliveries:     e.FailedDeliveries,
		LastUsed:             lastUsed,
		CreatedAt:            e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:            e.UpdatedAt.Format(time.RFC3339),
	}
}
