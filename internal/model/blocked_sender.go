package model

import (
	"time"

	"github.com/google/uuid"
)

// BlockedSender reason values.
const (
	BlockReasonBounce      = "bounce"
	BlockReasonComplaint   = "complaint"
	BlockReasonManual      = "manual"
)

// BlockedSender is a per-user sender-address blocklist entry, checked by
// BlocklistChecker. Scoped to OwnerUser rather than global: an address flagged by
// one user's complaint/bounce history shouldn't silently change delivery for another
// user's inbox.
type BlockedSender struct {
	ID        uuid.UUID `json:"id" db:"id"`
	OwnerUser uuid.UUID `json:"owner_user" db:"owner_user"`
	Address   string    `json:"address" db:"address"`
	Reason    string    `json:"reason" db:"reason"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
