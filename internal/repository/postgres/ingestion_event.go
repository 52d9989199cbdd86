package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inboundemail/inbound-core/internal/model"
)

type ingestionEventRepository struct {
	pool *pgxpool.Pool
}

// NewIngestionEventRepository creates a new IngestionEventRepository backed by PostgreSQL.
func NewIngestionEventRepository(pool *pgxpool.Pool) IngestionEventRepository {
	return &ingestionEventRepository{pool: pool}
}

const ingestionEventColumns = `id, message_id, source, destination, recipients, verdicts, action_type, s3_bucket, s3_key, raw_content, receipt_timestamp, processing_time_ms, created_at`

// Create inserts the event. Rows are immutable after insert: no Update method
// is exposed on this repository.
func (r *ingestionEventRepository) Create(ctx context.Context, event *model.IngestionEvent) error {
	verdicts, err := json.Marshal(event.Verdicts)
	if err != nil {
		return fmt.Errorf("marshal verdicts: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO ingestion_events (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at`, ingestionEventColumns)

	return r.pool.QueryRow(ctx, query,
		event.ID, event.MessageID, event.Source, event.Destination, event.Recipients, verdicts,
		event.ActionType, event.S3Bucket, event.S3Key, event.RawContent,
		event.ReceiptTimestamp, event.ProcessingTimeMs, event.CreatedAt,
	).Scan(&event.ID, &event.CreatedAt)
}

func (r *ingestionEventRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.IngestionEvent, error) {
	query := fmt.Sprintf(`SELECT %s FROM ingestion_events WHERE id = $1`, ingestionEventColumns)

	var verdicts []byte
	e := &model.IngestionEvent{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&e.ID, &e.MessageID, &e.Source, &e.Destination, &e.Recipients, &verdicts,
		&e.ActionType, &e.S3Bucket, &e.S3Key, &e.RawContent,
		&e.ReceiptTimestamp, &e.ProcessingTimeMs, &e.CreatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("ingestion event")
		}
		return nil, fmt.Errorf("get ingestion event by id: %w", err)
	}
	if err := json.Unmarshal(verdicts, &e.Verdicts); err != nil {
		return nil, fmt.Errorf("unmarshal verdicts: %w", err)
	}
	return e, nil
}
