package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/inboundemail/inbound-core/internal/model"
	"github.com/inboundemail/inbound-core/internal/repository/postgres"
	"github.com/inboundemail/inbound-core/internal/testutil"
	tmock "github.com/inboundemail/inbound-core/internal/testutil/mock"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOwnerResolver_Resolve_KnownDomain(t *testing.T) {
	domainRepo := new(tmock.MockDomainRepository)
	resolver := NewOwnerResolver(domainRepo, discardLogger())
	ctx := context.Background()

	domain := testutil.NewTestDomain()
	domain.CanReceive = true
	domainRepo.On("GetByName", ctx, "example.com").Return(domain, nil)

	owner := resolver.Resolve(ctx, "hello@example.com")

	assert.Equal(t, testutil.TestUserID, owner)
	domainRepo.AssertExpectations(t)
}

func TestOwnerResolver_Resolve_UnknownDomain(t *testing.T) {
	domainRepo := new(tmock.MockDomainRepository)
	resolver := NewOwnerResolver(domainRepo, discardLogger())
	ctx := context.Background()

	domainRepo.On("GetByName", ctx, "nowhere.com").Return(nil, postgres.ErrNotFound)

	owner := resolver.Resolve(ctx, "hello@nowhere.com")

	assert.Equal(t, model.SystemUserID, owner)
	domainRepo.AssertExpectations(t)
}

func TestOwnerResolver_Resolve_InvalidAddress(t *testing.T) {
	domainRepo := new(tmock.MockDomainRepository)
	resolver := NewOwnerResolver(domainRepo, discardLogger())
	ctx := context.Background()

	owner := resolver.Resolve(ctx, "not-an-address")

	assert.Equal(t, model.SystemUserID, owner)
	domainRepo.AssertExpectations(t)
}

func TestOwnerResolver_Resolve_CannotReceiveStillReturnsOwner(t *testing.T) {
	domainRepo := new(tmock.MockDomainRepository)
	resolver := NewOwnerResolver(domainRepo, discardLogger())
	ctx := context.Background()

	domain := testutil.NewTestDomain()
	domain.CanReceive = false
	domain.OwnerUser = uuid.New()
	domainRepo.On("GetByName", ctx, "example.com").Return(domain, nil)

	owner := resolver.Resolve(ctx, "hello@example.com")

	assert.Equal(t, domain.OwnerUser, owner)
	domainRepo.AssertExpectations(t)
}
