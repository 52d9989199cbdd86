package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/inboundemail/inbound-core/internal/dto"
	"github.com/inboundemail/inbound-core/internal/model"
	"github.com/inboundemail/inbound-core/internal/pkg"
	"github.com/inboundemail/inbound-core/internal/repository/postgres"
)

// APIKeyService defines operations for managing API keys, one of the public API's two
// supported authentication methods, alongside JWT.
type APIKeyService interface {
	Create(ctx context.Context, ownerUser uuid.UUID, req *dto.CreateAPIKeyRequest) (*dto.APIKeyResponse, error)
	List(ctx context.Context, ownerUser uuid.UUID) (*dto.ListResponse[dto.APIKeyResponse], error)
	Delete(ctx context.Context, ownerUser, apiKeyID uuid.UUID) error
}

type apiKeyService struct {
	apiKeys      postgres.APIKeyRepository
	apiKeyPrefix string
}

// NewAPIKeyService creates a new APIKeyService.
func NewAPIKeyService(apiKeys postgres.APIKeyRepository, apiKeyPrefix string) APIKeyService {
	return &apiKeyService{apiKeys: apiKeys, apiKeyPrefix: apiKeyPrefix}
}

func (s *apiKeyService) Create(ctx context.Context, ownerUser uuid.UUID, req *dto.CreateAPIKeyRequest) (*dto.APIKeyResponse, error) {
	if err := pkg.Validate(req); err != nil {
		return nil, fmt.Errorf("validation: %w", err)
	}

	plaintext, hash, prefix, err := pkg.GenerateAPIKey(s.apiKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("generating API key: %w", err)
	}

	key := &model.APIKey{
		ID:        uuid.New(),
		OwnerUser: ownerUser,
		Name:      req.Name,
		KeyHash:   hash,
		Prefix:    prefix,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.apiKeys.Create(ctx, key); err != nil {
		return nil, fmt.Errorf("creating API key: %w", err)
	}

	// Token is returned only here, on creation — it can never be retrieved again.
	return &dto.APIKeyResponse{
		ID:        key.ID.String(),
		Name:      key.Name,
		Token:     plaintext,
		Prefix:    key.Prefix,
		CreatedAt: key.CreatedAt.Format(time.RFC3339),
	}, nil
}

func (s *apiKeyService) List(ctx context.Context, ownerUser uuid.UUID) (*dto.ListResponse[dto.APIKeyResponse], error) {
	keys, err := s.apiKeys.ListByOwner(ctx, ownerUser)
	if err != nil {
		return nil, fmt.Errorf("listing API keys: %w", err)
	}

	data := make([]dto.APIKeyResponse, 0, len(keys))
	for _, k := range keys {
		var lastUsed *string
		if k.LastUsedAt != nil {
			s := k.LastUsedAt.Format(time.RFC3339)
			lastUsed = &s
		}
		data = append(data, dto.APIKeyResponse{
			ID:         k.ID.String(),
			Name:       k.Name,
			Prefix:     k.Prefix,
			LastUsedAt: lastUsed,
			CreatedAt:  k.CreatedAt.Format(time.RFC3339),
		})
	}

	return &dto.ListResponse[dto.APIKeyResponse]{Data: data}, nil
}

func (s *apiKeyService) Delete(ctx context.Context, ownerUser, apiKeyID uuid.UUID) error {
	keys, err := s.apiKeys.ListByOwner(ctx, ownerUser)
	if err != nil {
		return fmt.Errorf("listing API keys: %w", err)
	}

	found := false
	for _, k := range keys {
		if k.ID == apiKeyID {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("API key not found")
	}

	if err := s.apiKeys.Delete(ctx, apiKeyID); err != nil {
		return fmt.Errorf("deleting API key: %w", err)
	}
	return nil
}
