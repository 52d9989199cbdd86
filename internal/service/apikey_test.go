package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/inboundemail/inbound-core/internal/dto"
	"github.com/inboundemail/inbound-core/internal/model"
	"github.com/inboundemail/inbound-core/internal/testutil"
	tmock "github.com/inboundemail/inbound-core/internal/testutil/mock"
)

func TestAPIKeyService_Create_HappyPath(t *testing.T) {
	apiKeyRepo := new(tmock.MockAPIKeyRepository)
	svc := NewAPIKeyService(apiKeyRepo, "re_")
	ctx := context.Background()
	ownerUser := testutil.TestUserID

	apiKeyRepo.On("Create", ctx, mock.AnythingOfType("*model.APIKey")).Return(nil)

	req := &dto.CreateAPIKeyRequest{Name: "My API Key"}

	resp, err := svc.Create(ctx, ownerUser, req)

	require.NoError(t, err)
	assert.NotEmpty(t, resp.ID)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "My API Key", resp.Name)
	assert.NotEmpty(t, resp.Prefix)

	apiKeyRepo.AssertExpectations(t)
}

func TestAPIKeyService_List_ReturnsKeysWithoutPlaintext(t *testing.T) {
	apiKeyRepo := new(tmock.MockAPIKeyRepository)
	svc := NewAPIKeyService(apiKeyRepo, "re_")
	ctx := context.Background()
	ownerUser := testutil.TestUserID

	key1 := *testutil.NewTestAPIKey()
	key2 := *testutil.NewTestAPIKey()
	key2.Name = "Second Key"
	apiKeyRepo.On("ListByOwner", ctx, ownerUser).Return([]model.APIKey{key1, key2}, nil)

	resp, err := svc.List(ctx, ownerUser)

	require.NoError(t, err)
	assert.Len(t, resp.Data, 2)
	// Token should be empty on list (only returned on create).
	assert.Empty(t, resp.Data[0].Token)
	assert.Empty(t, resp.Data[1].Token)
	assert.Equal(t, "Test Key", resp.Data[0].Name)
	assert.Equal(t, "Second Key", resp.Data[1].Name)

	apiKeyRepo.AssertExpectations(t)
}

func TestAPIKeyService_Delete_HappyPath(t *testing.T) {
	apiKeyRepo := new(tmock.MockAPIKeyRepository)
	svc := NewAPIKeyService(apiKeyRepo, "re_")
	ctx := context.Background()
	ownerUser := testutil.TestUserID

	key := *testutil.NewTestAPIKey()
	apiKeyRepo.On("ListByOwner", ctx, ownerUser).Return([]model.APIKey{key}, nil)
	apiKeyRepo.On("Delete", ctx, key.ID).Return(nil)

	err := svc.Delete(ctx, ownerUser, key.ID)

	require.NoError(t, err)

	apiKeyRepo.AssertExpectations(t)
}

func TestAPIKeyService_Delete_NotFound(t *testing.T) {
	apiKeyRepo := new(tmock.MockAPIKeyRepository)
	svc := NewAPIKeyService(apiKeyRepo, "re_")
	ctx := context.Background()
	ownerUser := testutil.TestUserID

	key := *testutil.NewTestAPIKey()
	apiKeyRepo.On("ListByOwner", ctx, ownerUser).Return([]model.APIKey{key}, nil)

	nonExistentID := uuid.New()
	err := svc.Delete(ctx, ownerUser, nonExistentID)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	apiKeyRepo.AssertExpectations(t)
}
