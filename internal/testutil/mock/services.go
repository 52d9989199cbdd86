package mock

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/inboundemail/inbound-core/internal/dto"
	"github.com/inboundemail/inbound-core/internal/entitlement"
	"github.com/inboundemail/inbound-core/internal/mailer"
	"github.com/inboundemail/inbound-core/internal/model"
	"github.com/inboundemail/inbound-core/internal/service"
)

// --- AuthService ---

type MockAuthService struct{ mock.Mock }

func (m *MockAuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AuthResponse), args.Error(1)
}
func (m *MockAuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AuthResponse), args.Error(1)
}

// --- APIKeyService ---

type MockAPIKeyService struct{ mock.Mock }

func (m *MockAPIKeyService) Create(ctx context.Context, ownerUser uuid.UUID, req *dto.CreateAPIKeyRequest) (*dto.APIKeyResponse, error) {
	args := m.Called(ctx, ownerUser, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.APIKeyResponse), args.Error(1)
}
func (m *MockAPIKeyService) List(ctx context.Context, ownerUser uuid.UUID) (*dto.ListResponse[dto.APIKeyResponse], error) {
	args := m.Called(ctx, ownerUser)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListResponse[dto.APIKeyResponse]), args.Error(1)
}
func (m *MockAPIKeyService) Delete(ctx context.Context, ownerUser, apiKeyID uuid.UUID) error {
	return m.Called(ctx, ownerUser, apiKeyID).Error(0)
}

// --- DomainService ---

type MockDomainService struct{ mock.Mock }

func (m *MockDomainService) Create(ctx context.Context, ownerUser uuid.UUID, req *dto.CreateDomainRequest) (*dto.DomainResponse, error) {
	args := m.Called(ctx, ownerUser, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.DomainResponse), args.Error(1)
}
func (m *MockDomainService) List(ctx context.Context, ownerUser uuid.UUID, params *dto.PaginationParams) (*dto.PaginatedResponse[dto.DomainResponse], error) {
	args := m.Called(ctx, ownerUser, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PaginatedResponse[dto.DomainResponse]), args.Error(1)
}
func (m *MockDomainService) Get(ctx context.Context, ownerUser, domainID uuid.UUID) (*dto.DomainResponse, error) {
	args := m.Called(ctx, ownerUser, domainID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.DomainResponse), args.Error(1)
}
func (m *MockDomainService) Update(ctx context.Context, ownerUser, domainID uuid.UUID, req *dto.UpdateDomainRequest) (*dto.DomainResponse, error) {
	args := m.Called(ctx, ownerUser, domainID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.DomainResponse), args.Error(1)
}
func (m *MockDomainService) Delete(ctx context.Context, ownerUser, domainID uuid.UUID) error {
	return m.Called(ctx, ownerUser, domainID).Error(0)
}
func (m *MockDomainService) Verify(ctx context.Context, ownerUser, domainID uuid.UUID) (*dto.DomainResponse, error) {
	args := m.Called(ctx, ownerUser, domainID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.DomainResponse), args.Error(1)
}
func (m *MockDomainService) DNSRecords(ctx context.Context, ownerUser, domainID uuid.UUID) ([]dto.DomainDNSRecordResponse, error) {
	args := m.Called(ctx, ownerUser, domainID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dto.DomainDNSRecordResponse), args.Error(1)
}

// --- EmailAddressService ---

type MockEmailAddressService struct{ mock.Mock }

func (m *MockEmailAddressService) Create(ctx context.Context, ownerUser uuid.UUID, req *dto.CreateEmailAddressRequest) (*dto.EmailAddressResponse, error) {
	args := m.Called(ctx, ownerUser, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.EmailAddressResponse), args.Error(1)
}
func (m *MockEmailAddressService) List(ctx context.Context, ownerUser uuid.UUID, params *dto.PaginationParams) (*dto.PaginatedResponse[dto.EmailAddressResponse], error) {
	args := m.Called(ctx, ownerUser, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PaginatedResponse[dto.EmailAddressResponse]), args.Error(1)
}
func (m *MockEmailAddressService) Get(ctx context.Context, ownerUser, id uuid.UUID) (*dto.EmailAddressResponse, error) {
	args := m.Called(ctx, ownerUser, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.EmailAddressResponse), args.Error(1)
}
func (m *MockEmailAddressService) Update(ctx context.Context, ownerUser, id uuid.UUID, req *dto.UpdateEmailAddressRequest) (*dto.EmailAddressResponse, error) {
	args := m.Called(ctx, ownerUser, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.EmailAddressResponse), args.Error(1)
}
func (m *MockEmailAddressService) Delete(ctx context.Context, ownerUser, id uuid.UUID) error {
	return m.Called(ctx, ownerUser, id).Error(0)
}

// --- EndpointService ---

type MockEndpointService struct{ mock.Mock }

func (m *MockEndpointService) Create(ctx context.Context, ownerUser uuid.UUID, req *dto.CreateEndpointRequest) (*dto.EndpointResponse, error) {
	args := m.Called(ctx, ownerUser, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.EndpointResponse), args.Error(1)
}
func (m *MockEndpointService) List(ctx context.Context, ownerUser uuid.UUID, params *dto.PaginationParams) (*dto.PaginatedResponse[dto.EndpointResponse], error) {
	args := m.Called(ctx, ownerUser, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PaginatedResponse[dto.EndpointResponse]), args.Error(1)
}
func (m *MockEndpointService) Get(ctx context.Context, ownerUser, id uuid.UUID) (*dto.EndpointResponse, error) {
	args := m.Called(ctx, ownerUser, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.EndpointResponse), args.Error(1)
}
func (m *MockEndpointService) Update(ctx context.Context, ownerUser, id uuid.UUID, req *dto.UpdateEndpointRequest) (*dto.EndpointResponse, error) {
	args := m.Called(ctx, ownerUser, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.EndpointResponse), args.Error(1)
}
func (m *MockEndpointService) Delete(ctx context.Context, ownerUser, id uuid.UUID) error {
	return m.Called(ctx, ownerUser, id).Error(0)
}
func (m *MockEndpointService) Test(ctx context.Context, ownerUser, id uuid.UUID) (*dto.WebhookTestResponse, error) {
	args := m.Called(ctx, ownerUser, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.WebhookTestResponse), args.Error(1)
}

// --- EmailRecordService ---

type MockEmailRecordService struct{ mock.Mock }

func (m *MockEmailRecordService) List(ctx context.Context, ownerUser uuid.UUID, params *dto.PaginationParams) (*dto.PaginatedResponse[dto.EmailRecordResponse], error) {
	args := m.Called(ctx, ownerUser, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.PaginatedResponse[dto.EmailRecordResponse]), args.Error(1)
}
func (m *MockEmailRecordService) Get(ctx context.Context, ownerUser, id uuid.UUID) (*dto.EmailRecordDetailResponse, error) {
	args := m.Called(ctx, ownerUser, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.EmailRecordDetailResponse), args.Error(1)
}
func (m *MockEmailRecordService) Update(ctx context.Context, ownerUser, id uuid.UUID, req *dto.UpdateEmailRecordRequest) (*dto.EmailRecordResponse, error) {
	args := m.Called(ctx, ownerUser, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.EmailRecordResponse), args.Error(1)
}

// --- Sender ---

type MockSender struct{ mock.Mock }

func (m *MockSender) Send(ctx context.Context, ownerUser uuid.UUID, req service.SendRequest) (*model.SentMessage, error) {
	args := m.Called(ctx, ownerUser, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SentMessage), args.Error(1)
}
func (m *MockSender) Reply(ctx context.Context, ownerUser uuid.UUID, req service.ReplyRequest) (*model.SentMessage, error) {
	args := m.Called(ctx, ownerUser, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SentMessage), args.Error(1)
}

// --- ThreadService ---

type MockThreadService struct{ mock.Mock }

func (m *MockThreadService) GetThread(ctx context.Context, ownerUser, seedEmailID uuid.UUID) ([]service.ThreadMessage, error) {
	args := m.Called(ctx, ownerUser, seedEmailID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.ThreadMessage), args.Error(1)
}

// --- Ingestor ---

type MockIngestor struct{ mock.Mock }

func (m *MockIngestor) Ingest(ctx context.Context, req *dto.IngestRequest) *dto.IngestResponse {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*dto.IngestResponse)
}

// --- OwnerResolver ---

type MockOwnerResolver struct{ mock.Mock }

func (m *MockOwnerResolver) Resolve(ctx context.Context, address string) uuid.UUID {
	args := m.Called(ctx, address)
	return args.Get(0).(uuid.UUID)
}

// --- QuotaGate ---

type MockQuotaGate struct{ mock.Mock }

func (m *MockQuotaGate) CheckAndTrack(ctx context.Context, user uuid.UUID, feature entitlement.Feature) service.QuotaGateResult {
	args := m.Called(ctx, user, feature)
	return args.Get(0).(service.QuotaGateResult)
}

// --- BlocklistChecker ---

type MockBlocklistChecker struct{ mock.Mock }

func (m *MockBlocklistChecker) IsBlocked(ctx context.Context, ownerUser uuid.UUID, sourceAddress string) bool {
	args := m.Called(ctx, ownerUser, sourceAddress)
	return args.Bool(0)
}

// --- Router ---

type MockRouter struct{ mock.Mock }

func (m *MockRouter) Route(ctx context.Context, rec *model.EmailRecord, parsed *model.ParsedEmail) (service.RouteResult, error) {
	args := m.Called(ctx, rec, parsed)
	return args.Get(0).(service.RouteResult), args.Error(1)
}

// --- WebhookExecutor ---

type MockWebhookExecutor struct{ mock.Mock }

func (m *MockWebhookExecutor) Deliver(ctx context.Context, rec *model.EmailRecord, parsed *model.ParsedEmail, endpoint *model.Endpoint) (*model.DeliveryAttempt, error) {
	args := m.Called(ctx, rec, parsed, endpoint)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DeliveryAttempt), args.Error(1)
}
func (m *MockWebhookExecutor) Test(ctx context.Context, endpoint *model.Endpoint) (*model.DeliveryAttempt, error) {
	args := m.Called(ctx, endpoint)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DeliveryAttempt), args.Error(1)
}

// --- ForwardExecutor ---

type MockForwardExecutor struct{ mock.Mock }

func (m *MockForwardExecutor) Forward(ctx context.Context, rec *model.EmailRecord, parsed *model.ParsedEmail, endpoint *model.Endpoint, to []string) (*model.DeliveryAttempt, error) {
	args := m.Called(ctx, rec, parsed, endpoint, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DeliveryAttempt), args.Error(1)
}

// --- ReceiptRuleManager ---

type MockReceiptRuleManager struct{ mock.Mock }

func (m *MockReceiptRuleManager) EnableIndividual(ctx context.Context, domainID uuid.UUID) (*mailer.RuleResult, error) {
	args := m.Called(ctx, domainID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mailer.RuleResult), args.Error(1)
}
func (m *MockReceiptRuleManager) EnableCatchAll(ctx context.Context, domainID, endpointID uuid.UUID) (*mailer.RuleResult, error) {
	args := m.Called(ctx, domainID, endpointID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mailer.RuleResult), args.Error(1)
}
func (m *MockReceiptRuleManager) DisableCatchAll(ctx context.Context, domainID uuid.UUID) (*mailer.RuleResult, error) {
	args := m.Called(ctx, domainID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mailer.RuleResult), args.Error(1)
}
func (m *MockReceiptRuleManager) RemoveAll(ctx context.Context, domainID uuid.UUID) error {
	return m.Called(ctx, domainID).Error(0)
}
