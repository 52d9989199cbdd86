package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inboundemail/inbound-core/internal/model"
)

type emailAddressRepository struct {
	pool *pgxpool.Pool
}

// NewEmailAddressRepository creates a new EmailAddressRepository backed by PostgreSQL.
func NewEmailAddressRepository(pool *pgxpool.Pool) EmailAddressRepository {
	return &emailAddressRepository{pool: pool}
}

const emailAddressColumns = `id, address, domain_id, endpoint_id, webhook_id, is_active, is_receipt_rule_configured, receipt_rule_name, owner_user, created_at, updated_at`

func scanEmailAddress(row pgx.Row) (*model.EmailAddress, error) {
	a := &model.EmailAddress{}
	err := row.Scan(
		&a.ID, &a.Address, &a.DomainID, &a.EndpointID, &a.WebhookID, &a.IsActive,
		&a.IsReceiptRuleConfigured, &a.ReceiptRuleName, &a.OwnerUser, &a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

func (r *emailAddressRepository) Create(ctx context.Context, addr *model.EmailAddress) error {
	query := fmt.Sprintf(`
		INSERT INTO email_addresses (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING %s`, emailAddressColumns, emailAddressColumns)

	scanned, err := scanEmailAddress(r.pool.QueryRow(ctx, query,
		addr.ID, addr.Address, addr.DomainID, addr.EndpointID, addr.WebhookID, addr.IsActive,
		addr.IsReceiptRuleConfigured, addr.ReceiptRuleName, addr.OwnerUser, addr.CreatedAt, addr.UpdatedAt,
	))
	if err != nil {
		return fmt.Errorf("create email address: %w", err)
	}
	*addr = *scanned
	return nil
}

func (r *emailAddressRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.EmailAddress, error) {
	query := fmt.Sprintf(`SELECT %s FROM email_addresses WHERE id = $1`, emailAddressColumns)
	a, err := scanEmailAddress(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("email address")
		}
		return nil, fmt.Errorf("get email address by id: %w", err)
	}
	return a, nil
}

func (r *emailAddressRepository) GetByOwnerAndID(ctx context.Context, ownerUser, id uuid.UUID) (*model.EmailAddress, error) {
	query := fmt.Sprintf(`SELECT %s FROM email_addresses WHERE owner_user = $1 AND id = $2`, emailAddressColumns)
	a, err := scanEmailAddress(r.pool.QueryRow(ctx, query, ownerUser, id))
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("email address")
		}
		return nil, fmt.Errorf("get email address by owner and id: %w", err)
	}
	return a, nil
}

// GetActiveByAddress looks up an active EmailAddress by its exact address, across all
// owners (Router step 1).
func (r *emailAddressRepository) GetActiveByAddress(ctx context.Context, address string) (*model.EmailAddress, error) {
	query := fmt.Sprintf(`SELECT %s FROM email_addresses WHERE address = $1 AND is_active = true`, emailAddressColumns)
	a, err := scanEmailAddress(r.pool.QueryRow(ctx, query, address))
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("email address")
		}
		return nil, fmt.Errorf("get active email address: %w", err)
	}
	return a, nil
}

func (r *emailAddressRepository) ListByDomainID(ctx context.Context, domainID uuid.UUID) ([]model.EmailAddress, error) {
	query := fmt.Sprintf(`SELECT %s FROM email_addresses WHERE domain_id = $1 ORDER BY created_at ASC`, emailAddressColumns)
	rows, err := r.pool.Query(ctx, query, domainID)
	if err != nil {
		return nil, fmt.Errorf("list email addresses by domain: %w", err)
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.EmailAddress, error) {
		a, err := scanEmailAddress(row)
		if a == nil {
			return model.EmailAddress{}, err
		}
		return *a, err
	})
}

func (r *emailAddressRepository) List(ctx context.Context, ownerUser uuid.UUID, limit, offset int) ([]model.EmailAddress, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM email_addresses WHERE owner_user = $1`, ownerUser).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count email addresses: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM email_addresses WHERE owner_user = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, emailAddressColumns)
	rows, err := r.pool.Query(ctx, query, ownerUser, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list email addresses: %w", err)
	}
	defer rows.Close()

	addrs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.EmailAddress, error) {
		a, err := scanEmailAddress(row)
		if a == nil {
			return model.EmailAddress{}, err
		}
		return *a, err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("collect email addresses: %w", err)
	}
	return addrs, total, nil
}

func (r *emailAddressRepository) Update(ctx context.Context, addr *model.EmailAddress) error {
	query := fmt.Sprintf(`
		UPDATE email_addresses
		SET address = $2, domain_id = $3, endpoint_id = $4, webhook_id = $5, is_active = $6,
		    is_receipt_rule_configured = $7, receipt_rule_name = $8, updated_at = $9
		WHERE id = $1
		RETURNING %s`, emailAddressColumns)

	scanned, err := scanEmailAddress(r.pool.QueryRow(ctx, query,
		addr.ID, addr.Address, addr.DomainID, addr.EndpointID, addr.WebhookID, addr.IsActive,
		addr.IsReceiptRuleConfigured, addr.ReceiptRuleName, addr.UpdatedAt,
	))
	if err != nil {
		if isNoRows(err) {
			return notFound("email address")
		}
		return fmt.Errorf("update email address: %w", err)
	}
	*addr = *scanned
	return nil
}

func (r *emailAddressRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM email_addresses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete email address: %w", err)
	}
	if result.RowsAffected() == 0 {
		return notFound("email address")
	}
	return nil
}

func (r *emailAddressRepository) CountReferencingEndpoint(ctx context.Context, endpointID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM email_addresses WHERE endpoint_id = $1`, endpointID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count email addresses referencing endpoint: %w", err)
	}
	return count, nil
}
