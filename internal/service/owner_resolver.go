package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/inboundemail/inbound-core/internal/model"
	"github.com/inboundemail/inbound-core/internal/repository/postgres"
)

// OwnerResolver maps a recipient address to its owning User.
type OwnerResolver interface {
	Resolve(ctx context.Context, address string) uuid.UUID
}

type ownerResolver struct {
	domains postgres.DomainRepository
	logger  *slog.Logger
}

// NewOwnerResolver creates an OwnerResolver backed by the Domain store.
func NewOwnerResolver(domains postgres.DomainRepository, logger *slog.Logger) OwnerResolver {
	return &ownerResolver{domains: domains, logger: logger}
}

// Resolve extracts the lowercased domain part of address and looks it up by exact
// name. It returns the owner regardless of Status/CanReceive — only a warning is
// logged when CanReceive is false — and falls back to the sentinel system user when
// the domain is unknown or address fails basic validation.
func (r *ownerResolver) Resolve(ctx context.Context, address string) uuid.UUID {
	domainName, ok := addressDomain(address)
	if !ok {
		return model.SystemUserID
	}

	domain, err := r.domains.GetByName(ctx, domainName)
	if err != nil {
		if !errors.Is(err, postgres.ErrNotFound) {
			r.logger.Warn("owner resolver: domain lookup failed", "domain", domainName, "error", err)
		}
		return model.SystemUserID
	}

	if !domain.CanReceive {
		r.logger.Warn("owner resolver: domain cannot receive", "domain", domainName, "owner_user", domain.OwnerUser)
	}

	return domain.OwnerUser
}

func addressDomain(address string) (string, bool) {
	addr, err := mail.ParseAddress(address)
	if err != nil {
		return "", false
	}
	at := strings.LastIndex(addr.Address, "@")
	if at < 0 || at == len(addr.Address)-1 {
		return "", false
	}
	return strings.ToLower(addr.Address[at+1:]), true
}
