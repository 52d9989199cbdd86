package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inboundemail/inbound-core/internal/model"
)

type parsedEmailRepository struct {
	pool *pgxpool.Pool
}

// NewParsedEmailRepository creates a new ParsedEmailRepository backed by PostgreSQL.
func NewParsedEmailRepository(pool *pgxpool.Pool) ParsedEmailRepository {
	return &parsedEmailRepository{pool: pool}
}

const parsedEmailColumns = `id, email_record_id, from_group, to_group, cc_group, bcc_group, reply_to_group, text_body, html_body, raw_body, attachments, headers, message_id, in_reply_to, references_list, date, priority, parse_success, parse_error, created_at`

// Create persists the ParsedEmail. AddressGroup/Attachment fields are
// JSONB-encoded: they hold nested structure the driver's Valuer/Scanner pair on
// model.JSONMap doesn't cover, so they're marshaled by hand at the repository
// boundary rather than given their own Valuer types — ParsedEmail stays a plain
// data record with no persistence-aware methods. References is written as-is to
// the TEXT[] references_list column.
func (r *parsedEmailRepository) Create(ctx context.Context, p *model.ParsedEmail) error {
	fromGroup, err := json.Marshal(p.From)
	if err != nil {
		return fmt.Errorf("marshal from group: %w", err)
	}
	toGroup, err := json.Marshal(p.To)
	if err != nil {
		return fmt.Errorf("marshal to group: %w", err)
	}
	ccGroup, err := json.Marshal(p.Cc)
	if err != nil {
		return fmt.Errorf("marshal cc group: %w", err)
	}
	bccGroup, err := json.Marshal(p.Bcc)
	if err != nil {
		return fmt.Errorf("marshal bcc group: %w", err)
	}
	replyToGroup, err := json.Marshal(p.ReplyTo)
	if err != nil {
		return fmt.Errorf("marshal reply-to group: %w", err)
	}
	attachments, err := json.Marshal(p.Attachments)
	if err != nil {
		return fmt.Errorf("marshal attachments: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO parsed_emails (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id, created_at`, parsedEmailColumns)

	return r.pool.QueryRow(ctx, query,
		p.ID, p.EmailRecordID, fromGroup, toGroup, ccGroup, bccGroup, replyToGroup,
		p.TextBody, p.HTMLBody, p.RawBody, attachments, p.Headers,
		p.MessageID, p.InReplyTo, p.References, p.Date, p.Priority,
		p.ParseSuccess, p.ParseError, p.CreatedAt,
	).Scan(&p.ID, &p.CreatedAt)
}

func (r *parsedEmailRepository) GetByEmailRecordID(ctx context.Context, emailRecordID uuid.UUID) (*model.ParsedEmail, error) {
	query := fmt.Sprintf(`SELECT %s FROM parsed_emails WHERE email_record_id = $1`, parsedEmailColumns)

	var fromGroup, toGroup, ccGroup, bccGroup, replyToGroup, attachments []byte
	p := &model.ParsedEmail{}
	err := r.pool.QueryRow(ctx, query, emailRecordID).Scan(
		&p.ID, &p.EmailRecordID, &fromGroup, &toGroup, &ccGroup, &bccGroup, &replyToGroup,
		&p.TextBody, &p.HTMLBody, &p.RawBody, &attachments, &p.Headers,
		&p.MessageID, &p.InReplyTo, &p.References, &p.Date, &p.Priority,
		&p.ParseSuccess, &p.ParseError, &p.CreatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, notFound("parsed email")
		}
		return nil, fmt.Errorf("get parsed email by email record id: %w", err)
	}

	for _, pair := range []struct {
		raw []byte
		dst *model.AddressGroup
	}{
		{fromGroup, &p.From}, {toGroup, &p.To}, {ccGroup, &p.Cc}, {bccGroup, &p.Bcc}, {replyToGroup, &p.ReplyTo},
	} {
		if err := json.Unmarshal(pair.raw, pair.dst); err != nil {
			return nil, fmt.Errorf("unmarshal address group: %w", err)
		}
	}
	if err := json.Unmarshal(attachments, &p.Attachments); err != nil {
		return nil, fmt.Errorf("unmarshal attachments: %w", err)
	}
	return p, nil
}
