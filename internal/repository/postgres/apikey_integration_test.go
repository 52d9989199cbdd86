//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIKeyRepository_Create(t *testing.T) {
	truncateAll(t)
	ctx := context.Background()
	seedUser(t, ctx)

	repo := NewAPIKeyRepository(testPool)
	key := newTestAPIKey()

	err := repo.Create(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, testUserID, key.OwnerUser)
	assert.Equal(t, "Test Key", key.Name)
	assert.Equal(t, "abc123hash", key.KeyHash)
}

func TestAPIKeyRepository_GetByHash(t *testing.T) {
	truncateAll(t)
	ctx := context.Background()
	seedUser(t, ctx)

	repo := NewAPIKeyRepository(testPool)
	key := newTestAPIKey()

	err := repo.Create(ctx, key)
	require.NoError(t, err)

	got, err := repo.GetByHash(ctx, "abc123hash")
	require.NoError(t, err)
	assert.Equal(t, key.ID, got.ID)
	assert.Equal(t, key.OwnerUser, got.OwnerUser)
	assert.Equal(t, key.Name, got.Name)

	_, err = repo.GetByHash(ctx, "nonexistent_hash")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestAPIKeyRepository_ListByOwner(t *testing.T) {
	truncateAll(t)
	ctx := context.Background()
	seedUser(t, ctx)

	repo := NewAPIKeyRepository(testPool)

	for i := 0; i < 3; i++ {
		key := newTestAPIKey()
		key.ID = uuid.New()
		key.KeyHash = "hash_" + string(rune('a'+i))
		key.Name = "Key " + string(rune('A'+i))
		err := repo.Create(ctx, key)
		require.NoError(t, err)
	}

	keys, err := repo.ListByOwner(ctx, testUserID)
	require.NoError(t, err)
	assert.Len(t, keys, 3)

	otherUserID := uuid.New()
	keys, err = repo.ListByOwner(ctx, otherUserID)
	require.NoError(t, err)
	assert.Len(t, keys, 0)
}

func TestAPIKeyRepository_UpdateLastUsed(t *testing.T) {
	truncateAll(t)
	ctx := context.Background()
	seedUser(t, ctx)

	repo := NewAPIKeyRepository(testPool)
	key := newTestAPIKey()

	err := repo.Create(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, key.LastUsedAt)

	now := time.Now().UTC().Truncate(time.Microsecond)
	err = repo.UpdateLastUsed(ctx, key.KeyHash, now)
	require.NoError(t, err)

	got, err := repo.GetByHash(ctx, key.KeyHash)
	require.NoError(t, err)
	require.NotNil(t, got.LastUsedAt)
	assert.WithinDuration(t, now, *got.LastUsedAt, time.Second)

	err = repo.UpdateLastUsed(ctx, "nonexistent_hash", now)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}
