package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/inboundemail/inbound-core/internal/dto"
	"github.com/inboundemail/inbound-core/internal/mailer"
	"github.com/inboundemail/inbound-core/internal/repository/postgres"
	"github.com/inboundemail/inbound-core/internal/testutil"
	tmock "github.com/inboundemail/inbound-core/internal/testutil/mock"
)

func newEmailAddressTestDeps(t *testing.T) (*tmock.MockEmailAddressRepository, *tmock.MockDomainRepository, *tmock.MockEndpointRepository, *tmock.MockReceiptRuleManager) {
	t.Helper()
	return new(tmock.MockEmailAddressRepository), new(tmock.MockDomainRepository), new(tmock.MockEndpointRepository), new(tmock.MockReceiptRuleManager)
}

func TestEmailAddressService_Create_HappyPath(t *testing.T) {
	addresses, domains, endpoints, rulesMgr := newEmailAddressTestDeps(t)
	svc := NewEmailAddressService(addresses, domains, endpoints, rulesMgr, discardLogger())
	ctx := context.Background()
	ownerUser := testutil.TestUserID

	domain := testutil.NewTestDomain()
	domain.IsCatchAllEnabled = false

	domains.On("GetByOwnerAndID", ctx, ownerUser, domain.ID).Return(domain, nil)
	addresses.On("GetActiveByAddress", ctx, "hello@example.com").Return(nil, postgres.ErrNotFound)
	addresses.On("Create", ctx, mock.AnythingOfType("*model.EmailAddress")).Return(nil)
	rulesMgr.On("EnableIndividual", ctx, domain.ID).Return(&mailer.RuleResult{Status: mailer.RuleStatusCreated}, nil)
	addresses.On("GetByID", ctx, mock.AnythingOfType("uuid.UUID")).Return(testutil.NewTestEmailAddress(domain.ID), nil)

	req := &dto.CreateEmailAddressRequest{Address: "hello@example.com", DomainID: domain.ID.String()}
	resp, err := svc.Create(ctx, ownerUser, req)

	require.NoError(t, err)
	assert.Empty(t, resp.Warning)

	addresses.AssertExpectations(t)
	domains.AssertExpectations(t)
	rulesMgr.AssertExpectations(t)
}

func TestEmailAddressService_Create_AddressDomainMismatch(t *testing.T) {
	addresses, domains, endpoints, rulesMgr := newEmailAddressTestDeps(t)
	svc := NewEmailAddressService(addresses, domains, endpoints, rulesMgr, discardLogger())
	ctx := context.Background()
	ownerUser := testutil.TestUserID

	domain := testutil.NewTestDomain()
	domains.On("GetByOwnerAndID", ctx, ownerUser, domain.ID).Return(domain, nil)

	req := &dto.CreateEmailAddressRequest{Address: "hello@other.com", DomainID: domain.ID.String()}
	resp, err := svc.Create(ctx, ownerUser, req)

	assert.Nil(t, resp)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "must belong to domain")

	domains.AssertExpectations(t)
}

func TestEmailAddressService_Create_RuleSyncFailure_ReturnsWarningNotError(t *testing.T) {
	addresses, domains, endpoints, rulesMgr := newEmailAddressTestDeps(t)
	svc := NewEmailAddressService(addresses, domains, endpoints, rulesMgr, discardLogger())
	ctx := context.Background()
	ownerUser := testutil.TestUserID

	domain := testutil.NewTestDomain()
	domain.IsCatchAllEnabled = false

	domains.On("GetByOwnerAndID", ctx, ownerUser, domain.ID).Return(domain, nil)
	addresses.On("GetActiveByAddress", ctx, "hello@example.com").Return(nil, postgres.ErrNotFound)
	addresses.On("Create", ctx, mock.AnythingOfType("*model.EmailAddress")).Return(nil)
	rulesMgr.On("EnableIndividual", ctx, domain.ID).Return(nil, errors.New("ses throttled"))

	req := &dto.CreateEmailAddressRequest{Address: "hello@example.com", DomainID: domain.ID.String()}
	resp, err := svc.Create(ctx, ownerUser, req)

	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.NotEmpty(t, resp.Warning)
	assert.Contains(t, resp.Warning, "ses throttled")

	addresses.AssertExpectations(t)
	domains.AssertExpectations(t)
	rulesMgr.AssertExpectations(t)
}

func TestEmailAddressService_Create_CatchAllEnabled_SkipsRuleSync(t *testing.T) {
	addresses, domains, endpoints, rulesMgr := newEmailAddressTestDeps(t)
	svc := NewEmailAddressService(addresses, domains, endpoints, rulesMgr, discardLogger())
	ctx := context.Background()
	ownerUser := testutil.TestUserID

	domain := testutil.NewTestDomain()
	domain.IsCatchAllEnabled = true

	domains.On("GetByOwnerAndID", ctx, ownerUser, domain.ID).Return(domain, nil)
	addresses.On("GetActiveByAddress", ctx, "hello@example.com").Return(nil, postgres.ErrNotFound)
	addresses.On("Create", ctx, mock.AnythingOfType("*model.EmailAddress")).Return(nil)

	req := &dto.CreateEmailAddressRequest{Address: "hello@example.com", DomainID: domain.ID.String()}
	resp, err := svc.Create(ctx, ownerUser, req)

	require.NoError(t, err)
	assert.Empty(t, resp.Warning)

	addresses.AssertExpectations(t)
	domains.AssertExpectations(t)
	rulesMgr.AssertExpectations(t)
}

func TestEmailAddressService_Update_RuleSyncFailure_ReturnsWarningNotError(t *testing.T) {
	addresses, domains, endpoints, rulesMgr := newEmailAddressTestDeps(t)
	svc := NewEmailAddressService(addresses, domains, endpoints, rulesMgr, discardLogger())
	ctx := context.Background()
	ownerUser := testutil.TestUserID

	domain := testutil.NewTestDomain()
	domain.IsCatchAllEnabled = false
	addr := testutil.NewTestEmailAddress(domain.ID)
	addr.IsActive = false

	addresses.On("GetByOwnerAndID", ctx, ownerUser, addr.ID).Return(addr, nil)
	addresses.On("Update", ctx, mock.AnythingOfType("*model.EmailAddress")).Return(nil)
	domains.On("GetByID", ctx, addr.DomainID).Return(domain, nil)
	rulesMgr.On("EnableIndividual", ctx, addr.DomainID).Return(nil, errors.New("ses throttled"))

	req := &dto.UpdateEmailAddressRequest{IsActive: testutil.BoolPtr(true)}
	resp, err := svc.Update(ctx, ownerUser, addr.ID, req)

	require.NoError(t, err)
	assert.NotEmpty(t, resp.Warning)

	addresses.AssertExpectations(t)
	domains.AssertExpectations(t)
	rulesMgr.AssertExpectations(t)
}

func TestEmailAddressService_Delete_RuleSyncFailure_StillSucceeds(t *testing.T) {
	addresses, domains, endpoints, rulesMgr := newEmailAddressTestDeps(t)
	svc := NewEmailAddressService(addresses, domains, endpoints, rulesMgr, discardLogger())
	ctx := context.Background()
	ownerUser := testutil.TestUserID

	domain := testutil.NewTestDomain()
	domain.IsCatchAllEnabled = false
	addr := testutil.NewTestEmailAddress(domain.ID)

	addresses.On("GetByOwnerAndID", ctx, ownerUser, addr.ID).Return(addr, nil)
	addresses.On("Delete", ctx, addr.ID).Return(nil)
	domains.On("GetByID", ctx, addr.DomainID).Return(domain, nil)
	rulesMgr.On("EnableIndividual", ctx, addr.DomainID).Return(nil, errors.New("ses throttled"))

	err := svc.Delete(ctx, ownerUser, addr.ID)

	require.NoError(t, err)

	addresses.AssertExpectations(t)
	domains.AssertExpectations(t)
	rulesMgr.AssertExpectations(t)
}

func TestEmailAddressService_Create_DuplicateAddress(t *testing.T) {
	addresses, domains, endpoints, rulesMgr := newEmailAddressTestDeps(t)
	svc := NewEmailAddressService(addresses, domains, endpoints, rulesMgr, discardLogger())
	ctx := context.Background()
	ownerUser := testutil.TestUserID

	domain := testutil.NewTestDomain()
	existing := testutil.NewTestEmailAddress(domain.ID)

	domains.On("GetByOwnerAndID", ctx, ownerUser, domain.ID).Return(domain, nil)
	addresses.On("GetActiveByAddress", ctx, existing.Address).Return(existing, nil)

	req := &dto.CreateEmailAddressRequest{Address: existing.Address, DomainID: domain.ID.String()}
	resp, err := svc.Create(ctx, ownerUser, req)

	assert.Nil(t, resp)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already provisioned")

	domains.AssertExpectations(t)
	addresses.AssertExpectations(t)
}
