package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inboundemail/inbound-core/internal/model"
)

type deliveryAttemptRepository struct {
	pool *pgxpool.Pool
}

// NewDeliveryAttemptRepository creates a new DeliveryAttemptRepository backed by
// PostgreSQL.
func NewDeliveryAttemptRepository(pool *pgxpool.Pool) DeliveryAttemptRepository {
	return &deliveryAttemptRepository{pool: pool}
}

const deliveryAttemptColumns = `id, email_id, endpoint_id, target, payload, status, attempts, response_code, response_body, latency_ms, error, last_attempt_at`

func scanDeliveryAttempt(row pgx.Row) (*model.DeliveryAttempt, error) {
	a := &model.DeliveryAttempt{}
	err := row.Scan(
		&a.ID, &a.EmailID, &a.EndpointID, &a.Target, &a.Payload, &a.Status, &a.Attempts,
		&a.ResponseCode, &a.ResponseBody, &a.LatencyMs, &a.Error, &a.LastAttemptAt,
	)
	return a, err
}

func (r *deliveryAttemptRepository) Create(ctx context.Context, att *model.DeliveryAttempt) error {
	att.ResponseBody = truncateResponseBody(att.ResponseBody)

	query := fmt.Sprintf(`
		INSERT INTO delivery_attempts (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING %s`, deliveryAttemptColumns, deliveryAttemptColumns)

	scanned, err := scanDeliveryAttempt(r.pool.QueryRow(ctx, query,
		att.ID, att.EmailID, att.EndpointID, att.Target, att.Payload, att.Status, att.Attempts,
		att.ResponseCode, att.ResponseBody, att.LatencyMs, att.Error, att.LastAttemptAt,
	))
	if err != nil {
		return fmt.Errorf("create delivery attempt: %w", err)
	}
	*att = *scanned
	return nil
}

func (r *deliveryAttemptRepository) Update(ctx context.Context, att *model.DeliveryAttempt) error {
	att.ResponseBody = truncateResponseBody(att.ResponseBody)

	query := fmt.Sprintf(`
		UPDATE delivery_attempts
		SET status = $2, attempts = $3, response_code = $4, response_body = $5,
		    latency_ms = $6, error = $7, last_attempt_at = $8
		WHERE id = $1
		RETURNING %s`, deliveryAttemptColumns)

	scanned, err := scanDeliveryAttempt(r.pool.QueryRow(ctx, query,
		att.ID, att.Status, att.Attempts, att.ResponseCode, att.ResponseBody,
		att.LatencyMs, att.Error, att.LastAttemptAt,
	))
	if err != nil {
		if isNoRows(err) {
			return notFound("delivery attempt")
		}
		return fmt.Errorf("update delivery attempt: %w", err)
	}
	*att = *scanned
	return nil
}

func (r *deliveryAttemptRepository) ListByEmailID(ctx context.Context, emailID uuid.UUID) ([]model.DeliveryAttempt, error) {
	query := fmt.Sprintf(`SELECT %s FROM delivery_attempts WHERE email_id = $1 ORDER BY last_attempt_at ASC`, deliveryAttemptColumns)
	rows, err := r.pool.Query(ctx, query, emailID)
	if err != nil {
		return nil, fmt.Errorf("list delivery attempts by email id: %w", err)
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.DeliveryAttempt, error) {
		a, err := scanDeliveryAttempt(row)
		if a == nil {
			return model.DeliveryAttempt{}, err
		}
		return *a, err
	})
}

// truncateResponseBody enforces the 2 KiB cap on stored webhook response bodies
// at the point of write, so callers never have to remember to do it.
func truncateResponseBody(body *string) *string {
	if body == nil || len(*body) <= model.MaxResponseBodyBytes {
		return body
	}
	truncated := (*body)[:model.MaxResponseBodyBytes]
	return &truncated
}
