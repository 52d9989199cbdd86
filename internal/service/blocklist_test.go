package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	tmock "github.com/inboundemail/inbound-core/internal/testutil/mock"
)

func TestBlocklistChecker_IsBlocked_True(t *testing.T) {
	repo := new(tmock.MockBlockedSenderRepository)
	checker := NewBlocklistChecker(repo, discardLogger())
	ctx := context.Background()
	ownerUser := uuid.New()

	repo.On("IsBlocked", ctx, ownerUser, "spammer@bad.com").Return(true, nil)

	assert.True(t, checker.IsBlocked(ctx, ownerUser, "spammer@bad.com"))
	repo.AssertExpectations(t)
}

func TestBlocklistChecker_IsBlocked_False(t *testing.T) {
	repo := new(tmock.MockBlockedSenderRepository)
	checker := NewBlocklistChecker(repo, discardLogger())
	ctx := context.Background()
	ownerUser := uuid.New()

	repo.On("IsBlocked", ctx, ownerUser, "friend@good.com").Return(false, nil)

	assert.False(t, checker.IsBlocked(ctx, ownerUser, "friend@good.com"))
	repo.AssertExpectations(t)
}

func TestBlocklistChecker_IsBlocked_FailsOpenOnLookupError(t *testing.T) {
	repo := new(tmock.MockBlockedSenderRepository)
	checker := NewBlocklistChecker(repo, discardLogger())
	ctx := context.Background()
	ownerUser := uuid.New()

	repo.On("IsBlocked", ctx, ownerUser, "anyone@example.com").Return(false, fmt.Errorf("connection reset"))

	assert.False(t, checker.IsBlocked(ctx, ownerUser, "anyone@example.com"))
	repo.AssertExpectations(t)
}
