package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inboundemail/inbound-core/internal/model"
)

type sentMessageRepository struct {
	pool *pgxpool.Pool
}

// NewSentMessageRepository creates a new SentMessageRepository backed by PostgreSQL.
func NewSentMessageRepository(pool *pgxpool.Pool) SentMessageRepository {
	return &sentMessageRepository{pool: pool}
}

const sentMessageColumns = `id, from_header, from_address, from_domain, to_addresses, cc_addresses, bcc_addresses, reply_to_addresses, subject, text_body, html_body, headers, attachments, tags, status, message_id, provider_message_id, failure_reason, idempotency_key, in_reply_to_email_id, owner_user, created_at, sent_at`

func scanSentMessage(row pgx.Row) (*model.SentMessage, error) {
	m := &model.SentMessage{}
	err := row.Scan(
		&m.ID, &m.From, &m.FromAddress, &m.FromDomain, &m.To, &m.Cc, &m.Bcc, &m.ReplyTo,
		&m.Subject, &m.TextBody, &m.HTMLBody, &m.Headers, &m.Attachments, &m.Tags,
		&m.Status, &m.MessageID, &m.ProviderMessageID, &m.FailureReason, &m.IdempotencyKey,
		&m.InReplyToEmailID, &m.OwnerUser, &m.CreatedAt, &m.SentAt,
	)
	return m, err
}

func (r *sentMessageRepository) Create(ctx context.Context, msg *model.SentMessage) error {
	query := fmt.Sprintf(`
		INSERT INTO sent_messages (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
		RETURNING %s`, sentMessageColumns, sentMessageColumns)

	scanned, err := scanSentMessage(r.pool.QueryRow(ctx, query,
		msg.ID, msg.From, msg.FromAddress, msg.FromDomain, msg.To, msg.Cc, msg.Bcc, msg.ReplyTo,
		msg.Subject, msg.TextBody, msg.HTMLBody, msg.Headers, msg.Attachments, msg.Tags,
		msg.Status, msg.MessageID, msg.ProviderMessageID, msg.FailureReason, msg.IdempotencyKey,
		msg.InReplyToEmailID, msg.OwnerUser, msg.CreatedAt, msg.SentAt,
	))
	if err != nil {
		return fmt.Errorf("create sent message: %w", err)
	}
	*msg = *scanned
	return nil
}

func (r *sentMessageRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.SentMessage, error) {
	query := fmt.Sprintf(`SELECT %s FROM sent_messages WHERE id = $1`, sentMessageColumns)
	m, err := scanSentMessage(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("sent message")
		}
		return nil, fmt.Errorf("get sent message by id: %w", err)
	}
	return m, nil
}

// GetByOwnerAndIdempotencyKey backs Sender's idempotency contract: a
// repeat send with the same key returns the original result instead of re-sending.
func (r *sentMessageRepository) GetByOwnerAndIdempotencyKey(ctx context.Context, ownerUser uuid.UUID, key string) (*model.SentMessage, error) {
	query := fmt.Sprintf(`SELECT %s FROM sent_messages WHERE owner_user = $1 AND idempotency_key = $2`, sentMessageColumns)
	m, err := scanSentMessage(r.pool.QueryRow(ctx, query, ownerUser, key))
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("sent message")
		}
		return nil, fmt.Errorf("get sent message by idempotency key: %w", err)
	}
	return m, nil
}

func (r *sentMessageRepository) Update(ctx context.Context, msg *model.SentMessage) error {
	query := fmt.Sprintf(`
		UPDATE sent_messages
		SET status = $2, provider_message_id = $3, failure_reason = $4, sent_at = $5
		WHERE id = $1
		RETURNING %s`, sentMessageColumns)

	scanned, err := scanSentMessage(r.pool.QueryRow(ctx, query,
		msg.ID, msg.Status, msg.ProviderMessageID, msg.FailureReason, msg.SentAt,
	))
	if err != nil {
		if isNoRows(err) {
			return notFound("sent message")
		}
		return fmt.Errorf("update sent message: %w", err)
	}
	*msg = *scanned
	return nil
}

func (r *sentMessageRepository) ListByMessageIDTokens(ctx context.Context, ownerUser uuid.UUID, tokens []string) ([]model.SentMessage, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`
		SELECT %s FROM sent_messages
		WHERE owner_user = $1 AND message_id = ANY($2)
		ORDER BY created_at ASC`, sentMessageColumns)

	rows, err := r.pool.Query(ctx, query, ownerUser, tokens)
	if err != nil {
		return nil, fmt.Errorf("list sent messages by message id tokens: %w", err)
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.SentMessage, error) {
		m, err := scanSentMessage(row)
		if m == nil {
			return model.SentMessage{}, err
		}
		return *m, err
	})
}

func (r *sentMessageRepository) ListByNormalizedSubject(ctx context.Context, ownerUser uuid.UUID, subject string) ([]model.SentMessage, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM sent_messages
		WHERE owner_user = $1
		  AND lower(regexp_replace(COALESCE(subject, ''), '%s', '', 'i')) = lower($2)
		ORDER BY created_at ASC`, sentMessageColumns, normalizeSubjectSQLPattern)

	rows, err := r.pool.Query(ctx, query, ownerUser, normalizeSubject(subject))
	if err != nil {
		return nil, fmt.Errorf("list sent messages by normalized subject: %w", err)
	}
	defer rows.Close()

	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.SentMessage, error) {
		m, err := scanSentMessage(row)
		if m == nil {
			return model.SentMessage{}, err
		}
		return *m, err
	})
}
