package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inboundemail/inbound-core/internal/model"
)

// BlockedSenderRepository defines persistence operations for BlocklistChecker.
type BlockedSenderRepository interface {
	Create(ctx context.Context, entry *model.BlockedSender) error
	IsBlocked(ctx context.Context, ownerUser uuid.UUID, address string) (bool, error)
	Delete(ctx context.Context, ownerUser uuid.UUID, address string) error
}

type blockedSenderRepository struct {
	pool *pgxpool.Pool
}

// NewBlockedSenderRepository creates a new BlockedSenderRepository backed by PostgreSQL.
func NewBlockedSenderRepository(pool *pgxpool.Pool) BlockedSenderRepository {
	return &blockedSenderRepository{pool: pool}
}

func (r *blockedSenderRepository) Create(ctx context.Context, entry *model.BlockedSender) error {
	query := `
		INSERT INTO blocked_senders (id, owner_user, address, reason, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (owner_user, address) DO UPDATE SET reason = EXCLUDED.reason
		RETURNING id, owner_user, address, reason, created_at`

	err := r.pool.QueryRow(ctx, query, entry.ID, entry.OwnerUser, entry.Address, entry.Reason, entry.CreatedAt).
		Scan(&entry.ID, &entry.OwnerUser, &entry.Address, &entry.Reason, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("create blocked sender: %w", err)
	}
	return nil
}

func (r *blockedSenderRepository) IsBlocked(ctx context.Context, ownerUser uuid.UUID, address string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM blocked_senders WHERE owner_user = $1 AND lower(address) = lower($2))`
	if err := r.pool.QueryRow(ctx, query, ownerUser, address).Scan(&exists); err != nil {
		return false, fmt.Errorf("check blocked sender: %w", err)
	}
	return exists, nil
}

func (r *blockedSenderRepository) Delete(ctx context.Context, ownerUser uuid.UUID, address string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM blocked_senders WHERE owner_user = $1 AND lower(address) = lower($2)`, ownerUser, address)
	if err != nil {
		return fmt.Errorf("delete blocked sender: %w", err)
	}
	return nil
}
