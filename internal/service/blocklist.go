package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/inboundemail/inbound-core/internal/repository/postgres"
)

// BlocklistChecker reports whether a sender address is blocked for a given owner.
// A blocked sender's email is still persisted; only routing is skipped.
type BlocklistChecker interface {
	IsBlocked(ctx context.Context, ownerUser uuid.UUID, sourceAddress string) bool
}

type blocklistChecker struct {
	repo   postgres.BlockedSenderRepository
	logger *slog.Logger
}

// NewBlocklistChecker creates a BlocklistChecker backed by the blocked-senders store.
func NewBlocklistChecker(repo postgres.BlockedSenderRepository, logger *slog.Logger) BlocklistChecker {
	return &blocklistChecker{repo: repo, logger: logger}
}

// IsBlocked fails open to "not blocked" on a lookup error — a transient store
// failure must not silently suppress delivery of unblocked mail — but logs the
// failure so it's visible.
func (c *blocklistChecker) IsBlocked(ctx context.Context, ownerUser uuid.UUID, sourceAddress string) bool {
	blocked, err := c.repo.IsBlocked(ctx, ownerUser, sourceAddress)
	if err != nil {
		c.logger.Warn("blocklist check failed, allowing", "error", fmt.Errorf("blocklist lookup: %w", err), "address", sourceAddress)
		return false
	}
	return blocked
}
