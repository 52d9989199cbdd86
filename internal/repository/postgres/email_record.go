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

type emailRecordRepository struct {
	pool *pgxpool.Pool
}

// NewEmailRecordRepository creates a new EmailRecordRepository backed by PostgreSQL.
func NewEmailRecordRepository(pool *pgxpool.Pool) EmailRecordRepository {
	return &emailRecordRepository{pool: pool}
}

const emailRecordColumns = `id, ingestion_event_id, message_id, from_address, to_addresses, recipient, subject, status, is_read, read_at, parsed_email_id, raw_ref, owner_user, received_at, processed_at`

const emailRecordColumnsJoined = `er.id, er.ingestion_event_id, er.message_id, er.from_address, er.to_addresses, er.recipient, er.subject, er.status, er.is_read, er.read_at, er.parsed_email_id, er.raw_ref, er.owner_user, er.received_at, er.processed_at`

func scanEmailRecord(row pgx.Row) (*model.EmailRecord, error) {
	rec := &model.EmailRecord{}
	err := row.Scan(
		&rec.ID, &rec.IngestionEventID, &rec.MessageID, &rec.From, &rec.To, &rec.Recipient,
		&rec.Subject, &rec.Status, &rec.IsRead, &rec.ReadAt, &rec.ParsedEmailID, &rec.RawRef,
		&rec.OwnerUser, &rec.ReceivedAt, &rec.ProcessedAt,
	)
	return rec, err
}

func (r *emailRecordRepository) Create(ctx context.Context, rec *model.EmailRecord) error {
	query := fmt.Sprintf(`
		INSERT INTO email_records (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING %s`, emailRecordColumns, emailRecordColumns)

	scanned, err := scanEmailRecord(r.pool.QueryRow(ctx, query,
		rec.ID, rec.IngestionEventID, rec.MessageID, rec.From, rec.To, rec.Recipient,
		rec.Subject, rec.Status, rec.IsRead, rec.ReadAt, rec.ParsedEmailID, rec.RawRef,
		rec.OwnerUser, rec.ReceivedAt, rec.ProcessedAt,
	))
	if err != nil {
		return fmt.Errorf("create email record: %w", err)
	}
	*rec = *scanned
	return nil
}

func (r *emailRecordRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.EmailRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM email_records WHERE id = $1`, emailRecordColumns)
	rec, err := scanEmailRecord(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("email record")
		}
		return nil, fmt.Errorf("get email record by id: %w", err)
	}
	return rec, nil
}

func (r *emailRecordRepository) GetByOwnerAndID(ctx context.Context, ownerUser, id uuid.UUID) (*model.EmailRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM email_records WHERE owner_user = $1 AND id = $2`, emailRecordColumns)
	rec, err := scanEmailRecord(r.pool.QueryRow(ctx, query, ownerUser, id))
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("email record")
		}
		return nil, fmt.Errorf("get email record by owner and id: %w", err)
	}
	return rec, nil
}

func (r *emailRecordRepository) List(ctx context.Context, ownerUser uuid.UUID, limit, offset int) ([]model.EmailRecord, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM email_records WHERE owner_user = $1`, ownerUser).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count email records: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM email_records WHERE owner_user = $1
		ORDER BY received_at DESC LIMIT $2 OFFSET $3`, emailRecordColumns)
	rows, err := r.pool.Query(ctx, query, ownerUser, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list email records: %w", err)
	}
	defer rows.Close()

	recs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.EmailRecord, error) {
		rec, err := scanEmailRecord(row)
		if rec == nil {
			return model.EmailRecord{}, err
		}
		return *rec, err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("collect email records: %w", err)
	}
	return recs, total, nil
}

func (r *emailRecordRepository) Update(ctx context.Context, rec *model.EmailRecord) error {
	query := fmt.Sprintf(`
		UPDATE email_records
		SET status = $2, is_read = $3, read_at = $4, parsed_email_id = $5, raw_ref = $6, processed_at = $7
		WHERE id = $1
		RETURNING %s`, emailRecordColumns)

	scanned, err := scanEmailRecord(r.pool.QueryRow(ctx, query,
		rec.ID, rec.Status, rec.IsRead, rec.ReadAt, rec.ParsedEmailID, rec.RawRef, rec.ProcessedAt,
	))
	if err != nil {
		if isNoRows(err) {
			return notFound("email record")
		}
		return fmt.Errorf("update email record: %w", err)
	}
	*rec = *scanned
	return nil
}

func (r *emailRecordRepository) MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error {
	result, err := r.pool.Exec(ctx, `UPDATE email_records SET is_read = true, read_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("mark email record read: %w", err)
	}
	if result.RowsAffected() == 0 {
		return notFound("email record")
	}
	return nil
}

// ListByMessageIDTokens joins to parsed_emails to match the normalized Message-ID
// tokens (the record's own Message-ID, its In-Reply-To, and its References) against the
// given set, scoped to ownerUser.
func (r *emailRecordRepository) ListByMessageIDTokens(ctx context.Context, ownerUser uuid.UUID, tokens []string) ([]model.EmailRecord, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT %s FROM email_records er
		JOIN parsed_emails pe ON pe.id = er.parsed_email_id
		WHERE er.owner_user = $1
		  AND (pe.message_id = ANY($2) OR pe.in_reply_to = ANY($2) OR pe.references_list && $2)
		ORDER BY er.received_at ASC`, emailRecordColumnsJoined)

	rows, err := r.pool.Query(ctx, query, ownerUser, tokens)
	if err != nil {
		return nil, fmt.Errorf("list email records by message id tokens: %w", err)
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.EmailRecord, error) {
		rec, err := scanEmailRecord(row)
		if rec == nil {
			return model.EmailRecord{}, err
		}
		return *rec, err
	})
}

// ListByNormalizedSubject strips leading Re:/Fwd: reply markers before comparing, so a
// reply thread with no shared Message-ID headers can still be grouped. A fallback
// heuristic for threads that never exchanged a Message-ID.
func (r *emailRecordRepository) ListByNormalizedSubject(ctx context.Context, ownerUser uuid.UUID, subject string) ([]model.EmailRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM email_records
		WHERE owner_user = $1
		  AND lower(regexp_replace(COALESCE(subject, ''), '%s', '', 'i')) = lower($2)
		ORDER BY received_at ASC`, emailRecordColumns, normalizeSubjectSQLPattern)

	rows, err := r.pool.Query(ctx, query, ownerUser, normalizeSubject(subject))
	if err != nil {
		return nil, fmt.Errorf("list email records by normalized subject: %w", err)
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.EmailRecord, error) {
		rec, err := scanEmailRecord(row)
		if rec == nil {
			return model.EmailRecord{}, err
		}
		return *rec, err
	})
}
