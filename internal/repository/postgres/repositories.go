package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/inboundemail/inbound-core/internal/model"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
}

// APIKeyRepository defines persistence operations for API keys.
type APIKeyRepository interface {
	Create(ctx context.Context, key *model.APIKey) error
	GetByHash(ctx context.Context, keyHash string) (*model.APIKey, error)
	ListByOwner(ctx context.Context, ownerUser uuid.UUID) ([]model.APIKey, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateLastUsed(ctx context.Context, keyHash string, usedAt time.Time) error
}

// DomainRepository defines persistence operations for domains.
type DomainRepository interface {
	Create(ctx context.Context, domain *model.Domain) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Domain, error)
	GetByOwnerAndID(ctx context.Context, ownerUser, id uuid.UUID) (*model.Domain, error)
	GetByName(ctx context.Context, name string) (*model.Domain, error)
	GetVerifiedByName(ctx context.Context, name string) (*model.Domain, error)
	List(ctx context.Context, ownerUser uuid.UUID, limit, offset int) ([]model.Domain, int, error)
	Update(ctx context.Context, domain *model.Domain) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountReferencingCatchAllEndpoint(ctx context.Context, endpointID uuid.UUID) (int, error)
}

// DomainDNSRecordRepository defines persistence operations for domain DNS records.
type DomainDNSRecordRepository interface {
	Create(ctx context.Context, record *model.DomainDNSRecord) error
	ListByDomainID(ctx context.Context, domainID uuid.UUID) ([]model.DomainDNSRecord, error)
	Update(ctx context.Context, record *model.DomainDNSRecord) error
	DeleteByDomainID(ctx context.Context, domainID uuid.UUID) error
}

// EmailAddressRepository defines persistence operations for EmailAddress rows
//.
type EmailAddressRepository interface {
	Create(ctx context.Context, addr *model.EmailAddress) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.EmailAddress, error)
	GetByOwnerAndID(ctx context.Context, ownerUser, id uuid.UUID) (*model.EmailAddress, error)
	GetActiveByAddress(ctx context.Context, address string) (*model.EmailAddress, error)
	ListByDomainID(ctx context.Context, domainID uuid.UUID) ([]model.EmailAddress, error)
	List(ctx context.Context, ownerUser uuid.UUID, limit, offset int) ([]model.EmailAddress, int, error)
	Update(ctx context.Context, addr *model.EmailAddress) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountReferencingEndpoint(ctx context.Context, endpointID uuid.UUID) (int, error)
}

// EndpointRepository defines persistence operations for Endpoints.
type EndpointRepository interface {
	Create(ctx context.Context, ep *model.Endpoint) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Endpoint, error)
	GetByOwnerAndID(ctx context.Context, ownerUser, id uuid.UUID) (*model.Endpoint, error)
	GetByOwnerAndName(ctx context.Context, ownerUser uuid.UUID, name string) (*model.Endpoint, error)
	List(ctx context.Context, ownerUser uuid.UUID, limit, offset int) ([]model.Endpoint, int, error)
	Update(ctx context.Context, ep *model.Endpoint) error
	Delete(ctx context.Context, id uuid.UUID) error
	// IncrementStats atomically updates the delivery-aggregate counters and LastUsed.
	IncrementStats(ctx context.Context, id uuid.UUID, success bool, at time.Time) error
}

// IngestionEventRepository defines persistence operations for IngestionEvents
//. Rows are immutable after insert.
type IngestionEventRepository interface {
	Create(ctx context.Context, event *model.IngestionEvent) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.IngestionEvent, error)
}

// EmailRecordRepository defines persistence operations for EmailRecords
//.
type EmailRecordRepository interface {
	Create(ctx context.Context, rec *model.EmailRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.EmailRecord, error)
	GetByOwnerAndID(ctx context.Context, ownerUser, id uuid.UUID) (*model.EmailRecord, error)
	List(ctx context.Context, ownerUser uuid.UUID, limit, offset int) ([]model.EmailRecord, int, error)
	Update(ctx context.Context, rec *model.EmailRecord) error
	MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error
	// ListByMessageIDTokens returns records whose Message-ID/In-Reply-To/References
	// intersect the given normalized tokens, scoped to ownerUser.
	ListByMessageIDTokens(ctx context.Context, ownerUser uuid.UUID, tokens []string) ([]model.EmailRecord, error)
	ListByNormalizedSubject(ctx context.Context, ownerUser uuid.UUID, subject string) ([]model.EmailRecord, error)
}

// ParsedEmailRepository defines persistence operations for ParsedEmail rows.
type ParsedEmailRepository interface {
	Create(ctx context.Context, p *model.ParsedEmail) error
	GetByEmailRecordID(ctx context.Context, emailRecordID uuid.UUID) (*model.ParsedEmail, error)
}

// DeliveryAttemptRepository defines persistence operations for DeliveryAttempts
//.
type DeliveryAttemptRepository interface {
	Create(ctx context.Context, att *model.DeliveryAttempt) error
	Update(ctx context.Context, att *model.DeliveryAttempt) error
	ListByEmailID(ctx context.Context, emailID uuid.UUID) ([]model.DeliveryAttempt, error)
}

// SentMessageRepository defines persistence operations for outbound SentMessages
//.
type SentMessageRepository interface {
	Create(ctx context.Context, msg *model.SentMessage) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.SentMessage, error)
	GetByOwnerAndIdempotencyKey(ctx context.Context, ownerUser uuid.UUID, key string) (*model.SentMessage, error)
	Update(ctx context.Context, msg *model.SentMessage) error
	// ListByMessageIDTokens/ListByNormalizedSubject mirror EmailRecordRepository's
	// thread-search operations but over outbound messages.
	ListByMessageIDTokens(ctx context.Context, ownerUser uuid.UUID, tokens []string) ([]model.SentMessage, error)
	ListByNormalizedSubject(ctx context.Context, ownerUser uuid.UUID, subject string) ([]model.SentMessage, error)
}
