package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inboundemail/inbound-core/internal/model"
)

type endpointRepository struct {
	pool *pgxpool.Pool
}

// NewEndpointRepository creates a new EndpointRepository backed by PostgreSQL.
func NewEndpointRepository(pool *pgxpool.Pool) EndpointRepository {
	return &endpointRepository{pool: pool}
}

const endpointColumns = `id, owner_user, name, type, config, is_active, total_deliveries, successful_deliveries, failed_deliveries, last_used, created_at, updated_at`

func scanEndpoint(row pgx.Row) (*model.Endpoint, error) {
	e := &model.Endpoint{}
	err := row.Scan(
		&e.ID, &e.OwnerUser, &e.Name, &e.Type, &e.Config, &e.IsActive,
		&e.TotalDeliveries, &e.SuccessfulDeliveries, &e.FailedDeliveries, &e.LastUsed,
		&e.CreatedAt, &e.UpdatedAt,
	)
	return e, err
}

func (r *endpointRepository) Create(ctx context.Context, ep *model.Endpoint) error {
	query := fmt.Sprintf(`
		INSERT INTO endpoints (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING %s`, endpointColumns, endpointColumns)

	scanned, err := scanEndpoint(r.pool.QueryRow(ctx, query,
		ep.ID, ep.OwnerUser, ep.Name, ep.Type, ep.Config, ep.IsActive,
		ep.TotalDeliveries, ep.SuccessfulDeliveries, ep.FailedDeliveries, ep.LastUsed,
		ep.CreatedAt, ep.UpdatedAt,
	))
	if err != nil {
		return fmt.Errorf("create endpoint: %w", err)
	}
	*ep = *scanned
	return nil
}

func (r *endpointRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Endpoint, error) {
	query := fmt.Sprintf(`SELECT %s FROM endpoints WHERE id = $1`, endpointColumns)
	e, err := scanEndpoint(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("endpoint")
		}
		return nil, fmt.Errorf("get endpoint by id: %w", err)
	}
	return e, nil
}

func (r *endpointRepository) GetByOwnerAndID(ctx context.Context, ownerUser, id uuid.UUID) (*model.Endpoint, error) {
	query := fmt.Sprintf(`SELECT %s FROM endpoints WHERE owner_user = $1 AND id = $2`, endpointColumns)
	e, err := scanEndpoint(r.pool.QueryRow(ctx, query, ownerUser, id))
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("endpoint")
		}
		return nil, fmt.Errorf("get endpoint by owner and id: %w", err)
	}
	return e, nil
}

func (r *endpointRepository) GetByOwnerAndName(ctx context.Context, ownerUser uuid.UUID, name string) (*model.Endpoint, error) {
	query := fmt.Sprintf(`SELECT %s FROM endpoints WHERE owner_user = $1 AND name = $2`, endpointColumns)
	e, err := scanEndpoint(r.pool.QueryRow(ctx, query, ownerUser, name))
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("endpoint")
		}
		return nil, fmt.Errorf("get endpoint by owner and name: %w", err)
	}
	return e, nil
}

func (r *endpointRepository) List(ctx context.Context, ownerUser uuid.UUID, limit, offset int) ([]model.Endpoint, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM endpoints WHERE owner_user = $1`, ownerUser).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count endpoints: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM endpoints WHERE owner_user = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, endpointColumns)
	rows, err := r.pool.Query(ctx, query, ownerUser, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list endpoints: %w", err)
	}
	defer rows.Close()

	eps, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Endpoint, error) {
		e, err := scanEndpoint(row)
		if e == nil {
			return model.Endpoint{}, err
		}
		return *e, err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("collect endpoints: %w", err)
	}
	return eps, total, nil
}

func (r *endpointRepository) Update(ctx context.Context, ep *model.Endpoint) error {
	query := fmt.Sprintf(`
		UPDATE endpoints
		SET name = $2, type = $3, config = $4, is_active = $5, updated_at = $6
		WHERE id = $1
		RETURNING %s`, endpointColumns)

	scanned, err := scanEndpoint(r.pool.QueryRow(ctx, query,
		ep.ID, ep.Name, ep.Type, ep.Config, ep.IsActive, ep.UpdatedAt,
	))
	if err != nil {
		if isNoRows(err) {
			return notFound("endpoint")
		}
		return fmt.Errorf("update endpoint: %w", err)
	}
	*ep = *scanned
	return nil
}

func (r *endpointRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM endpoints WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete endpoint: %w", err)
	}
	if result.RowsAffected() == 0 {
		return notFound("endpoint")
	}
	return nil
}

// IncrementStats atomically bumps the delivery aggregate counters using DB-side
// arithmetic so concurrent deliveries to the same endpoint never lose an increment
// ("Shared resources & locking").
func (r *endpointRepository) IncrementStats(ctx context.Context, id uuid.UUID, success bool, at time.Time) error {
	var query string
	if success {
		query = `UPDATE endpoints SET total_deliveries = total_deliveries + 1, successful_deliveries = successful_deliveries + 1, last_used = $2 WHERE id = $1`
	} else {
		query = `UPDATE endpoints SET total_deliveries = total_deliveries + 1, failed_deliveries = failed_deliveries + 1, last_used = $2 WHERE id = $1`
	}
	result, err := r.pool.Exec(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("increment endpoint stats: %w", err)
	}
	if result.RowsAffected() == 0 {
		return notFound("endpoint")
	}
	return nil
}
