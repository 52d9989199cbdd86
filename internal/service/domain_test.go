package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/inboundemail/inbound-core/internal/dto"
	"github.com/inboundemail/inbound-core/internal/engine"
	"github.com/inboundemail/inbound-core/internal/mailer"
	"github.com/inboundemail/inbound-core/internal/model"
	"github.com/inboundemail/inbound-core/internal/repository/postgres"
	"github.com/inboundemail/inbound-core/internal/testutil"
	tmock "github.com/inboundemail/inbound-core/internal/testutil/mock"
)

func newDomainTestDeps(t *testing.T) (*tmock.MockDomainRepository, *tmock.MockDomainDNSRecordRepository, *tmock.MockEndpointRepository, *tmock.MockReceiptRuleManager) {
	t.Helper()
	return new(tmock.MockDomainRepository), new(tmock.MockDomainDNSRecordRepository), new(tmock.MockEndpointRepository), new(tmock.MockReceiptRuleManager)
}

// unreachableResolver returns a DNSResolver pointed at a nameserver that will
// never answer, so VerifyMX deterministically fails without a real network.
func unreachableResolver() *engine.DNSResolver {
	return engine.NewDNSResolver("127.0.0.1:1", 100*time.Millisecond)
}

func TestDomainService_Create_HappyPath(t *testing.T) {
	domainRepo, dnsRepo, endpointRepo, rulesMgr := newDomainTestDeps(t)
	svc := NewDomainService(domainRepo, dnsRepo, endpointRepo, rulesMgr, unreachableResolver(), "mailit", discardLogger())
	ctx := context.Background()
	ownerUser := testutil.TestUserID

	domainRepo.On("GetByName", ctx, "example.com").Return(nil, postgres.ErrNotFound)
	domainRepo.On("Create", ctx, mock.AnythingOfType("*model.Domain")).Return(nil)
	// SPF, DKIM, MX, DMARC, RETURN_PATH.
	dnsRepo.On("Create", ctx, mock.AnythingOfType("*model.DomainDNSRecord")).Return(nil).Times(5)

	req := &dto.CreateDomainRequest{Name: "example.com"}
	resp, err := svc.Create(ctx, ownerUser, req)

	require.NoError(t, err)
	assert.Equal(t, "example.com", resp.Name)
	assert.Equal(t, model.DomainStatusPending, resp.Status)

	domainRepo.AssertExpectations(t)
	dnsRepo.AssertExpectations(t)
}

func TestDomainService_Create_DuplicateDomain(t *testing.T) {
	domainRepo, dnsRepo, endpointRepo, rulesMgr := newDomainTestDeps(t)
	svc := NewDomainService(domainRepo, dnsRepo, endpointRepo, rulesMgr, unreachableResolver(), "mailit", discardLogger())
	ctx := context.Background()
	ownerUser := testutil.TestUserID

	existing := testutil.NewTestDomain()
	domainRepo.On("GetByName", ctx, "example.com").Return(existing, nil)

	req := &dto.CreateDomainRequest{Name: "example.com"}
	resp, err := svc.Create(ctx, ownerUser, req)

	assert.Nil(t, resp)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")

	domainRepo.AssertExpectations(t)
}

func TestDomainService_List_Paginated(t *testing.T) {
	domainRepo, dnsRepo, endpointRepo, rulesMgr := newDomainTestDeps(t)
	svc := NewDomainService(domainRepo, dnsRepo, endpointRepo, rulesMgr, unreachableResolver(), "mailit", discardLogger())
	ctx := context.Background()
	ownerUser := testutil.TestUserID

	domain1 := *testutil.NewTestDomain()
	domainRepo.On("List", ctx, ownerUser, 20, 0).Return([]model.Domain{domain1}, 1, nil)

	params := &dto.PaginationParams{Page: 1, PerPage: 20}
	resp, err := svc.List(ctx, ownerUser, params)

	require.NoError(t, err)
	assert.Equal(t, 1, resp.Total)
	assert.Len(t, resp.Data, 1)

	domainRepo.AssertExpectations(t)
}

func TestDomainService_Get_HappyPath(t *testing.T) {
	domainRepo, dnsRepo, endpointRepo, rulesMgr := newDomainTestDeps(t)
	svc := NewDomainService(domainRepo, dnsRepo, endpointRepo, rulesMgr, unreachableResolver(), "mailit", discardLogger())
	ctx := context.Background()
	ownerUser := testutil.TestUserID

	domain := testutil.NewTestDomain()
	domainRepo.On("GetByOwnerAndID", ctx, ownerUser, domain.ID).Return(domain, nil)

	resp, err := svc.Get(ctx, ownerUser, domain.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.ID.String(), resp.ID)
	assert.Equal(t, "example.com", resp.Name)

	domainRepo.AssertExpectations(t)
}

func TestDomainService_Get_NotFound(t *testing.T) {
	domainRepo, dnsRepo, endpointRepo, rulesMgr := newDomainTestDeps(t)
	svc := NewDomainService(domainRepo, dnsRepo, endpointRepo, rulesMgr, unreachableResolver(), "mailit", discardLogger())
	ctx := context.Background()
	ownerUser := testutil.TestUserID
	badID := uuid.New()

	domainRepo.On("GetByOwnerAndID", ctx, ownerUser, badID).Return(nil, postgres.ErrNotFound)

	resp, err := svc.Get(ctx, ownerUser, badID)

	assert.Nil(t, resp)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	domainRepo.AssertExpectations(t)
}

func TestDomainService_Update_CatchAll(t *testing.T) {
	domainRepo, dnsRepo, endpointRepo, rulesMgr := newDomainTestDeps(t)
	svc := NewDomainService(domainRepo, dnsRepo, endpointRepo, rulesMgr, unreachableResolver(), "mailit", discardLogger())
	ctx := context.Background()
	ownerUser := testutil.TestUserID

	domain := testutil.NewTestDomain()
	endpoint := testutil.NewTestEndpoint()
	endpointIDStr := endpoint.ID.String()

	domainRepo.On("GetByOwnerAndID", ctx, ownerUser, domain.ID).Return(domain, nil)
	endpointRepo.On("GetByOwnerAndID", ctx, ownerUser, endpoint.ID).Return(endpoint, nil)
	domainRepo.On("Update", ctx, mock.AnythingOfType("*model.Domain")).Return(nil)
	rulesMgr.On("EnableCatchAll", ctx, domain.ID, endpoint.ID).Return(&mailer.RuleResult{Status: mailer.RuleStatusCreated}, nil)

	req := &dto.UpdateDomainRequest{
		CatchAllEndpointID: &endpointIDStr,
		IsCatchAllEnabled:  testutil.BoolPtr(true),
	}
	resp, err := svc.Update(ctx, ownerUser, domain.ID, req)

	require.NoError(t, err)
	require.NotNil(t, resp.CatchAllEndpointID)
	assert.Equal(t, endpointIDStr, *resp.CatchAllEndpointID)
	assert.True(t, resp.IsCatchAllEnabled)
	assert.Empty(t, resp.Warning)

	domainRepo.AssertExpectations(t)
	endpointRepo.AssertExpectations(t)
	rulesMgr.AssertExpectations(t)
}

func TestDomainService_Update_DisableCatchAll(t *testing.T) {
	domainRepo, dnsRepo, endpointRepo, rulesMgr := newDomainTestDeps(t)
	svc := NewDomainService(domainRepo, dnsRepo, endpointRepo, rulesMgr, unreachableResolver(), "mailit", discardLogger())
	ctx := context.Background()
	ownerUser := testutil.TestUserID

	domain := testutil.NewTestDomain()
	domain.IsCatchAllEnabled = true

	domainRepo.On("GetByOwnerAndID", ctx, ownerUser, domain.ID).Return(domain, nil)
	domainRepo.On("Update", ctx, mock.AnythingOfType("*model.Domain")).Return(nil)
	rulesMgr.On("DisableCatchAll", ctx, domain.ID).Return(&mailer.RuleResult{Status: mailer.RuleStatusRemoved}, nil)

	req := &dto.UpdateDomainRequest{IsCatchAllEnabled: testutil.BoolPtr(false)}
	resp, err := svc.Update(ctx, ownerUser, domain.ID, req)

	require.NoError(t, err)
	assert.False(t, resp.IsCatchAllEnabled)
	assert.Empty(t, resp.Warning)

	domainRepo.AssertExpectations(t)
	rulesMgr.AssertExpectations(t)
}

func TestDomainService_Update_RuleSyncFailure_ReturnsWarning(t *testing.T) {
	domainRepo, dnsRepo, endpointRepo, rulesMgr := newDomainTestDeps(t)
	svc := NewDomainService(domainRepo, dnsRepo, endpointRepo, rulesMgr, unreachableResolver(), "mailit", discardLogger())
	ctx := context.Background()
	ownerUser := testutil.TestUserID

	domain := testutil.NewTestDomain()
	endpoint := testutil.NewTestEndpoint()
	endpointIDStr := endpoint.ID.String()

	domainRepo.On("GetByOwnerAndID", ctx, ownerUser, domain.ID).Return(domain, nil)
	endpointRepo.On("GetByOwnerAndID", ctx, ownerUser, endpoint.ID).Return(endpoint, nil)
	domainRepo.On("Update", ctx, mock.AnythingOfType("*model.Domain")).Return(nil)
	rulesMgr.On("EnableCatchAll", ctx, domain.ID, endpoint.ID).Return(nil, errors.New("ses unavailable"))

	req := &dto.UpdateDomainRequest{
		CatchAllEndpointID: &endpointIDStr,
		IsCatchAllEnabled:  testutil.BoolPtr(true),
	}
	resp, err := svc.Update(ctx, ownerUser, domain.ID, req)

	require.NoError(t, err)
	assert.NotEmpty(t, resp.Warning)
	assert.Contains(t, resp.Warning, "ses unavailable")

	domainRepo.AssertExpectations(t)
	endpointRepo.AssertExpectations(t)
	rulesMgr.AssertExpectations(t)
}

func TestDomainService_Delete_HappyPath(t *testing.T) {
	domainRepo, dnsRepo, endpointRepo, rulesMgr := newDomainTestDeps(t)
	svc := NewDomainService(domainRepo, dnsRepo, endpointRepo, rulesMgr, unreachableResolver(), "mailit", discardLogger())
	ctx := context.Background()
	ownerUser := testutil.TestUserID

	domain := testutil.NewTestDomain()
	domainRepo.On("GetByOwnerAndID", ctx, ownerUser, domain.ID).Return(domain, nil)
	dnsRepo.On("DeleteByDomainID", ctx, domain.ID).Return(nil)
	domainRepo.On("Delete", ctx, domain.ID).Return(nil)

	err := svc.Delete(ctx, ownerUser, domain.ID)

	require.NoError(t, err)

	domainRepo.AssertExpectations(t)
	dnsRepo.AssertExpectations(t)
}

func TestDomainService_Verify_Failure(t *testing.T) {
	domainRepo, dnsRepo, endpointRepo, rulesMgr := newDomainTestDeps(t)
	svc := NewDomainService(domainRepo, dnsRepo, endpointRepo, rulesMgr, unreachableResolver(), "mailit", discardLogger())
	ctx := context.Background()
	ownerUser := testutil.TestUserID

	domain := testutil.NewTestDomain()
	domainRepo.On("GetByOwnerAndID", ctx, ownerUser, domain.ID).Return(domain, nil)
	domainRepo.On("Update", ctx, mock.AnythingOfType("*model.Domain")).Return(nil)

	resp, err := svc.Verify(ctx, ownerUser, domain.ID)

	require.NoError(t, err)
	assert.Equal(t, model.DomainStatusFailed, resp.Status)
	assert.False(t, resp.HasMX)

	domainRepo.AssertExpectations(t)
}

func TestDomainService_DNSRecords_HappyPath(t *testing.T) {
	domainRepo, dnsRepo, endpointRepo, rulesMgr := newDomainTestDeps(t)
	svc := NewDomainService(domainRepo, dnsRepo, endpointRepo, rulesMgr, unreachableResolver(), "mailit", discardLogger())
	ctx := context.Background()
	ownerUser := testutil.TestUserID

	domain := testutil.NewTestDomain()
	record := testutil.NewTestDomainDNSRecord(domain.ID)

	domainRepo.On("GetByOwnerAndID", ctx, ownerUser, domain.ID).Return(domain, nil)
	dnsRepo.On("ListByDomainID", ctx, domain.ID).Return([]model.DomainDNSRecord{*record}, nil)

	records, err := svc.DNSRecords(ctx, ownerUser, domain.ID)

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, record.Value, records[0].Value)

	domainRepo.AssertExpectations(t)
	dnsRepo.AssertExpectations(t)
}
