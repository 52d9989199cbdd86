package mock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/inboundemail/inbound-core/internal/model"
)

// --- UserRepository ---

type MockUserRepository struct{ mock.Mock }

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}
func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}
func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}
func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

// --- APIKeyRepository ---

type MockAPIKeyRepository struct{ mock.Mock }

func (m *MockAPIKeyRepository) Create(ctx context.Context, key *model.APIKey) error {
	return m.Called(ctx, key).Error(0)
}
func (m *MockAPIKeyRepository) GetByHash(ctx context.Context, keyHash string) (*model.APIKey, error) {
	args := m.Called(ctx, keyHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.APIKey), args.Error(1)
}
func (m *MockAPIKeyRepository) ListByOwner(ctx context.Context, ownerUser uuid.UUID) ([]model.APIKey, error) {
	args := m.Called(ctx, ownerUser)
	return args.Get(0).([]model.APIKey), args.Error(1)
}
func (m *MockAPIKeyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}
func (m *MockAPIKeyRepository) UpdateLastUsed(ctx context.Context, keyHash string, usedAt time.Time) error {
	return m.Called(ctx, keyHash, usedAt).Error(0)
}

// --- DomainRepository ---

type MockDomainRepository struct{ mock.Mock }

func (m *MockDomainRepository) Create(ctx context.Context, domain *model.Domain) error {
	return m.Called(ctx, domain).Error(0)
}
func (m *MockDomainRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Domain, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Domain), args.Error(1)
}
func (m *MockDomainRepository) GetByOwnerAndID(ctx context.Context, ownerUser, id uuid.UUID) (*model.Domain, error) {
	args := m.Called(ctx, ownerUser, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Domain), args.Error(1)
}
func (m *MockDomainRepository) GetByName(ctx context.Context, name string) (*model.Domain, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Domain), args.Error(1)
}
func (m *MockDomainRepository) GetVerifiedByName(ctx context.Context, name string) (*model.Domain, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Domain), args.Error(1)
}
func (m *MockDomainRepository) List(ctx context.Context, ownerUser uuid.UUID, limit, offset int) ([]model.Domain, int, error) {
	args := m.Called(ctx, ownerUser, limit, offset)
	return args.Get(0).([]model.Domain), args.Int(1), args.Error(2)
}
func (m *MockDomainRepository) Update(ctx context.Context, domain *model.Domain) error {
	return m.Called(ctx, domain).Error(0)
}
func (m *MockDomainRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}
func (m *MockDomainRepository) CountReferencingCatchAllEndpoint(ctx context.Context, endpointID uuid.UUID) (int, error) {
	args := m.Called(ctx, endpointID)
	return args.Int(0), args.Error(1)
}

// --- DomainDNSRecordRepository ---

type MockDomainDNSRecordRepository struct{ mock.Mock }

func (m *MockDomainDNSRecordRepository) Create(ctx context.Context, record *model.DomainDNSRecord) error {
	return m.Called(ctx, record).Error(0)
}
func (m *MockDomainDNSRecordRepository) ListByDomainID(ctx context.Context, domainID uuid.UUID) ([]model.DomainDNSRecord, error) {
	args := m.Called(ctx, domainID)
	return args.Get(0).([]model.DomainDNSRecord), args.Error(1)
}
func (m *MockDomainDNSRecordRepository) Update(ctx context.Context, record *model.DomainDNSRecord) error {
	return m.Called(ctx, record).Error(0)
}
func (m *MockDomainDNSRecordRepository) DeleteByDomainID(ctx context.Context, domainID uuid.UUID) error {
	return m.Called(ctx, domainID).Error(0)
}

// --- EmailAddressRepository ---

type MockEmailAddressRepository struct{ mock.Mock }

func (m *MockEmailAddressRepository) Create(ctx context.Context, addr *model.EmailAddress) error {
	return m.Called(ctx, addr).Error(0)
}
func (m *MockEmailAddressRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.EmailAddress, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EmailAddress), args.Error(1)
}
func (m *MockEmailAddressRepository) GetByOwnerAndID(ctx context.Context, ownerUser, id uuid.UUID) (*model.EmailAddress, error) {
	args := m.Called(ctx, ownerUser, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EmailAddress), args.Error(1)
}
func (m *MockEmailAddressRepository) GetActiveByAddress(ctx context.Context, address string) (*model.EmailAddress, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EmailAddress), args.Error(1)
}
func (m *MockEmailAddressRepository) ListByDomainID(ctx context.Context, domainID uuid.UUID) ([]model.EmailAddress, error) {
	args := m.Called(ctx, domainID)
	return args.Get(0).([]model.EmailAddress), args.Error(1)
}
func (m *MockEmailAddressRepository) List(ctx context.Context, ownerUser uuid.UUID, limit, offset int) ([]model.EmailAddress, int, error) {
	args := m.Called(ctx, ownerUser, limit, offset)
	return args.Get(0).([]model.EmailAddress), args.Int(1), args.Error(2)
}
func (m *MockEmailAddressRepository) Update(ctx context.Context, addr *model.EmailAddress) error {
	return m.Called(ctx, addr).Error(0)
}
func (m *MockEmailAddressRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}
func (m *MockEmailAddressRepository) CountReferencingEndpoint(ctx context.Context, endpointID uuid.UUID) (int, error) {
	args := m.Called(ctx, endpointID)
	return args.Int(0), args.Error(1)
}

// --- EndpointRepository ---

type MockEndpointRepository struct{ mock.Mock }

func (m *MockEndpointRepository) Create(ctx context.Context, ep *model.Endpoint) error {
	return m.Called(ctx, ep).Error(0)
}
func (m *MockEndpointRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Endpoint, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Endpoint), args.Error(1)
}
func (m *MockEndpointRepository) GetByOwnerAndID(ctx context.Context, ownerUser, id uuid.UUID) (*model.Endpoint, error) {
	args := m.Called(ctx, ownerUser, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Endpoint), args.Error(1)
}
func (m *MockEndpointRepository) GetByOwnerAndName(ctx context.Context, ownerUser uuid.UUID, name string) (*model.Endpoint, error) {
	args := m.Called(ctx, ownerUser, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Endpoint), args.Error(1)
}
func (m *MockEndpointRepository) List(ctx context.Context, ownerUser uuid.UUID, limit, offset int) ([]model.Endpoint, int, error) {
	args := m.Called(ctx, ownerUser, limit, offset)
	return args.Get(0).([]model.Endpoint), args.Int(1), args.Error(2)
}
func (m *MockEndpointRepository) Update(ctx context.Context, ep *model.Endpoint) error {
	return m.Called(ctx, ep).Error(0)
}
func (m *MockEndpointRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}
func (m *MockEndpointRepository) IncrementStats(ctx context.Context, id uuid.UUID, success bool, at time.Time) error {
	return m.Called(ctx, id, success, at).Error(0)
}

// --- IngestionEventRepository ---

type MockIngestionEventRepository struct{ mock.Mock }

func (m *MockIngestionEventRepository) Create(ctx context.Context, event *model.IngestionEvent) error {
	return m.Called(ctx, event).Error(0)
}
func (m *MockIngestionEventRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.IngestionEvent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.IngestionEvent), args.Error(1)
}

// --- EmailRecordRepository ---

type MockEmailRecordRepository struct{ mock.Mock }

func (m *MockEmailRecordRepository) Create(ctx context.Context, rec *model.EmailRecord) error {
	return m.Called(ctx, rec).Error(0)
}
func (m *MockEmailRecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.EmailRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EmailRecord), args.Error(1)
}
func (m *MockEmailRecordRepository) GetByOwnerAndID(ctx context.Context, ownerUser, id uuid.UUID) (*model.EmailRecord, error) {
	args := m.Called(ctx, ownerUser, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EmailRecord), args.Error(1)
}
func (m *MockEmailRecordRepository) List(ctx context.Context, ownerUser uuid.UUID, limit, offset int) ([]model.EmailRecord, int, error) {
	args := m.Called(ctx, ownerUser, limit, offset)
	return args.Get(0).([]model.EmailRecord), args.Int(1), args.Error(2)
}
func (m *MockEmailRecordRepository) Update(ctx context.Context, rec *model.EmailRecord) error {
	return m.Called(ctx, rec).Error(0)
}
func (m *MockEmailRecordRepository) MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}
func (m *MockEmailRecordRepository) ListByMessageIDTokens(ctx context.Context, ownerUser uuid.UUID, tokens []string) ([]model.EmailRecord, error) {
	args := m.Called(ctx, ownerUser, tokens)
	return args.Get(0).([]model.EmailRecord), args.Error(1)
}
func (m *MockEmailRecordRepository) ListByNormalizedSubject(ctx context.Context, ownerUser uuid.UUID, subject string) ([]model.EmailRecord, error) {
	args := m.Called(ctx, ownerUser, subject)
	return args.Get(0).([]model.EmailRecord), args.Error(1)
}

// --- ParsedEmailRepository ---

type MockParsedEmailRepository struct{ mock.Mock }

func (m *MockParsedEmailRepository) Create(ctx context.Context, p *model.ParsedEmail) error {
	return m.Called(ctx, p).Error(0)
}
func (m *MockParsedEmailRepository) GetByEmailRecordID(ctx context.Context, emailRecordID uuid.UUID) (*model.ParsedEmail, error) {
	args := m.Called(ctx, emailRecordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ParsedEmail), args.Error(1)
}

// --- DeliveryAttemptRepository ---

type MockDeliveryAttemptRepository struct{ mock.Mock }

func (m *MockDeliveryAttemptRepository) Create(ctx context.Context, att *model.DeliveryAttempt) error {
	return m.Called(ctx, att).Error(0)
}
func (m *MockDeliveryAttemptRepository) Update(ctx context.Context, att *model.DeliveryAttempt) error {
	return m.Called(ctx, att).Error(0)
}
func (m *MockDeliveryAttemptRepository) ListByEmailID(ctx context.Context, emailID uuid.UUID) ([]model.DeliveryAttempt, error) {
	args := m.Called(ctx, emailID)
	return args.Get(0).([]model.DeliveryAttempt), args.Error(1)
}

// --- SentMessageRepository ---

type MockSentMessageRepository struct{ mock.Mock }

func (m *MockSentMessageRepository) Create(ctx context.Context, msg *model.SentMessage) error {
	return m.Called(ctx, msg).Error(0)
}
func (m *MockSentMessageRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.SentMessage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SentMessage), args.Error(1)
}
func (m *MockSentMessageRepository) GetByOwnerAndIdempotencyKey(ctx context.Context, ownerUser uuid.UUID, key string) (*model.SentMessage, error) {
	args := m.Called(ctx, ownerUser, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SentMessage), args.Error(1)
}
func (m *MockSentMessageRepository) Update(ctx context.Context, msg *model.SentMessage) error {
	return m.Called(ctx, msg).Error(0)
}
func (m *MockSentMessageRepository) ListByMessageIDTokens(ctx context.Context, ownerUser uuid.UUID, tokens []string) ([]model.SentMessage, error) {
	args := m.Called(ctx, ownerUser, tokens)
	return args.Get(0).([]model.SentMessage), args.Error(1)
}
func (m *MockSentMessageRepository) ListByNormalizedSubject(ctx context.Context, ownerUser uuid.UUID, subject string) ([]model.SentMessage, error) {
	args := m.Called(ctx, ownerUser, subject)
	return args.Get(0).([]model.SentMessage), args.Error(1)
}

// --- BlockedSenderRepository ---

type MockBlockedSenderRepository struct{ mock.Mock }

func (m *MockBlockedSenderRepository) Create(ctx context.Context, entry *model.BlockedSender) error {
	return m.Called(ctx, entry).Error(0)
}
func (m *MockBlockedSenderRepository) IsBlocked(ctx context.Context, ownerUser uuid.UUID, address string) (bool, error) {
	args := m.Called(ctx, ownerUser, address)
	return args.Bool(0), args.Error(1)
}
func (m *MockBlockedSenderRepository) Delete(ctx context.Context, ownerUser uuid.UUID, address string) error {
	return m.Called(ctx, ownerUser, address).Error(0)
}
