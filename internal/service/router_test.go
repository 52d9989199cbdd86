package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inboundemail/inbound-core/internal/model"
	"github.com/inboundemail/inbound-core/internal/repository/postgres"
	"github.com/inboundemail/inbound-core/internal/testutil"
	tmock "github.com/inboundemail/inbound-core/internal/testutil/mock"
)

func newRouterTestDeps() (*tmock.MockEmailAddressRepository, *tmock.MockDomainRepository, *tmock.MockEndpointRepository, *tmock.MockWebhookExecutor, *tmock.MockForwardExecutor) {
	return new(tmock.MockEmailAddressRepository), new(tmock.MockDomainRepository), new(tmock.MockEndpointRepository), new(tmock.MockWebhookExecutor), new(tmock.MockForwardExecutor)
}

func TestRouter_Route_ExactAddressMatchToWebhook(t *testing.T) {
	addrs, domains, endpoints, webhooks, forwards := newRouterTestDeps()
	r := NewRouter(addrs, domains, endpoints, webhooks, forwards)
	ctx := context.Background()

	endpoint := testutil.NewTestEndpoint()
	address := testutil.NewTestEmailAddress(uuid.New())
	address.EndpointID = &endpoint.ID
	rec := testutil.NewTestEmailRecord(uuid.New())
	rec.Recipient = address.Address
	parsed := testutil.NewTestParsedEmail(rec.ID)
	attempt := &model.DeliveryAttempt{ID: uuid.New()}

	addrs.On("GetActiveByAddress", ctx, address.Address).Return(address, nil)
	endpoints.On("GetByID", ctx, endpoint.ID).Return(endpoint, nil)
	webhooks.On("Deliver", ctx, rec, parsed, endpoint).Return(attempt, nil)

	result, err := r.Route(ctx, rec, parsed)

	require.NoError(t, err)
	assert.Equal(t, DestinationKindWebhook, result.DestinationKind)
	require.NotNil(t, result.DeliveryID)
	assert.Equal(t, attempt.ID, *result.DeliveryID)

	addrs.AssertExpectations(t)
	endpoints.AssertExpectations(t)
	webhooks.AssertExpectations(t)
}

func TestRouter_Route_CatchAllEmailForward(t *testing.T) {
	addrs, domains, endpoints, webhooks, forwards := newRouterTestDeps()
	r := NewRouter(addrs, domains, endpoints, webhooks, forwards)
	ctx := context.Background()

	endpoint := testutil.NewTestEndpoint()
	endpoint.Type = model.EndpointTypeEmail
	endpoint.Config = model.JSONMap{"forward_to": "owner@elsewhere.com"}

	domain := testutil.NewTestDomain()
	domain.IsCatchAllEnabled = true
	domain.CatchAllEndpointID = &endpoint.ID

	rec := testutil.NewTestEmailRecord(uuid.New())
	rec.Recipient = "anything@" + domain.Name
	parsed := testutil.NewTestParsedEmail(rec.ID)
	attempt := &model.DeliveryAttempt{ID: uuid.New()}

	addrs.On("GetActiveByAddress", ctx, rec.Recipient).Return(nil, postgres.ErrNotFound)
	domains.On("GetByName", ctx, domain.Name).Return(domain, nil)
	endpoints.On("GetByID", ctx, endpoint.ID).Return(endpoint, nil)
	forwards.On("Forward", ctx, rec, parsed, endpoint, []string{"owner@elsewhere.com"}).Return(attempt, nil)

	result, err := r.Route(ctx, rec, parsed)

	require.NoError(t, err)
	assert.Equal(t, DestinationKindEmail, result.DestinationKind)
	require.NotNil(t, result.DeliveryID)

	addrs.AssertExpectations(t)
	domains.AssertExpectations(t)
	endpoints.AssertExpectations(t)
	forwards.AssertExpectations(t)
}

func TestRouter_Route_NoMatchReturnsNone(t *testing.T) {
	addrs, domains, endpoints, webhooks, forwards := newRouterTestDeps()
	r := NewRouter(addrs, domains, endpoints, webhooks, forwards)
	ctx := context.Background()

	rec := testutil.NewTestEmailRecord(uuid.New())
	rec.Recipient = "nobody@unrouted.com"
	parsed := testutil.NewTestParsedEmail(rec.ID)

	addrs.On("GetActiveByAddress", ctx, rec.Recipient).Return(nil, postgres.ErrNotFound)
	domains.On("GetByName", ctx, "unrouted.com").Return(nil, postgres.ErrNotFound)

	result, err := r.Route(ctx, rec, parsed)

	require.NoError(t, err)
	assert.Equal(t, DestinationKindNone, result.DestinationKind)
	assert.Nil(t, result.DeliveryID)

	addrs.AssertExpectations(t)
	domains.AssertExpectations(t)
}

func TestRouter_Route_EmailGroupDedupes(t *testing.T) {
	addrs, domains, endpoints, webhooks, forwards := newRouterTestDeps()
	r := NewRouter(addrs, domains, endpoints, webhooks, forwards)
	ctx := context.Background()

	endpoint := testutil.NewTestEndpoint()
	endpoint.Type = model.EndpointTypeEmailGroup
	endpoint.Config = model.JSONMap{
		"emails":        []interface{}{"a@example.com", "A@example.com", "b@example.com"},
		"no_duplicates": true,
	}
	address := testutil.NewTestEmailAddress(uuid.New())
	address.EndpointID = &endpoint.ID

	rec := testutil.NewTestEmailRecord(uuid.New())
	rec.Recipient = address.Address
	parsed := testutil.NewTestParsedEmail(rec.ID)
	attempt := &model.DeliveryAttempt{ID: uuid.New()}

	addrs.On("GetActiveByAddress", ctx, address.Address).Return(address, nil)
	endpoints.On("GetByID", ctx, endpoint.ID).Return(endpoint, nil)
	forwards.On("Forward", ctx, rec, parsed, endpoint, []string{"a@example.com", "b@example.com"}).Return(attempt, nil)

	result, err := r.Route(ctx, rec, parsed)

	require.NoError(t, err)
	assert.Equal(t, DestinationKindEmail, result.DestinationKind)

	forwards.AssertExpectations(t)
}
