package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/inboundemail/inbound-core/internal/model"
	"github.com/inboundemail/inbound-core/internal/repository/postgres"
)

// ThreadMessageKind distinguishes inbound from outbound thread members.
type ThreadMessageKind string

const (
	ThreadMessageInbound  ThreadMessageKind = "inbound"
	ThreadMessageOutbound ThreadMessageKind = "outbound"
)

// ThreadMessage is one message in a reconstructed thread, normalized
// across EmailRecord (inbound) and SentMessage (outbound) shapes.
type ThreadMessage struct {
	Kind      ThreadMessageKind
	ID        uuid.UUID
	MessageID string
	From      string
	To        []string
	Subject   string
	Timestamp time.Time
}

// ThreadService reconstructs reply context for an email.
type ThreadService interface {
	GetThread(ctx context.Context, ownerUser, seedEmailID uuid.UUID) ([]ThreadMessage, error)
}

type threadService struct {
	emailRecords postgres.EmailRecordRepository
	sentMessages postgres.SentMessageRepository
	parsedEmails postgres.ParsedEmailRepository
}

// NewThreadService creates a ThreadService.
func NewThreadService(emailRecords postgres.EmailRecordRepository, sentMessages postgres.SentMessageRepository, parsedEmails postgres.ParsedEmailRepository) ThreadService {
	return &threadService{emailRecords: emailRecords, sentMessages: sentMessages, parsedEmails: parsedEmails}
}

// GetThread runs a BFS over Message-ID/In-Reply-To/References tokens seeded from
// seedEmailID, falling back to a normalized-subject search if the graph search
// yields at most one message. Both inbound and outbound records for ownerUser
// are included, sorted ascending by best-available timestamp.
//
// The frontier is seeded from the seed's own In-Reply-To/References (not just its
// Message-ID), and each subsequent hop expands from the found inbound record's own
// In-Reply-To/References too, so the walk can discover the seed's ancestor chain,
// not just its descendants.
func (s *threadService) GetThread(ctx context.Context, ownerUser, seedEmailID uuid.UUID) ([]ThreadMessage, error) {
	seed, err := s.emailRecords.GetByOwnerAndID(ctx, ownerUser, seedEmailID)
	if err != nil {
		return nil, fmt.Errorf("load seed email: %w", err)
	}
	seedParsed, err := s.parsedEmails.GetByEmailRecordID(ctx, seed.ID)
	if err != nil {
		seedParsed = nil // ParseSuccess false, or parsing simply hasn't run — thread by MessageID alone
	}

	visitedTokens := map[string]bool{}
	var frontier []string
	for _, t := range seedTokens(seed, seedParsed) {
		if !visitedTokens[t] {
			visitedTokens[t] = true
			frontier = append(frontier, t)
		}
	}

	inboundByID := map[uuid.UUID]model.EmailRecord{seed.ID: *seed}
	outboundByID := map[uuid.UUID]model.SentMessage{}

	for len(frontier) > 0 {
		inboundRecs, err := s.emailRecords.ListByMessageIDTokens(ctx, ownerUser, frontier)
		if err != nil {
			return nil, fmt.Errorf("graph search inbound records: %w", err)
		}
		outboundRecs, err := s.sentMessages.ListByMessageIDTokens(ctx, ownerUser, frontier)
		if err != nil {
			return nil, fmt.Errorf("graph search outbound records: %w", err)
		}

		var nextFrontier []string
		for _, rec := range inboundRecs {
			if _, seen := inboundByID[rec.ID]; seen {
				continue
			}
			inboundByID[rec.ID] = rec
			parsed, err := s.parsedEmails.GetByEmailRecordID(ctx, rec.ID)
			if err != nil {
				parsed = nil
			}
			nextFrontier = append(nextFrontier, newTokensFromInbound(rec, parsed, visitedTokens)...)
		}
		for _, rec := range outboundRecs {
			if _, seen := outboundByID[rec.ID]; seen {
				continue
			}
			outboundByID[rec.ID] = rec
			nextFrontier = append(nextFrontier, newTokensFromOutbound(rec, visitedTokens)...)
		}

		frontier = nextFrontier
	}

	total := len(inboundByID) + len(outboundByID)
	if total <= 1 {
		subject := ""
		if seed.Subject != nil {
			subject = *seed.Subject
		}

		fallbackInbound, err := s.emailRecords.ListByNormalizedSubject(ctx, ownerUser, subject)
		if err != nil {
			return nil, fmt.Errorf("fallback subject search inbound: %w", err)
		}
		fallbackOutbound, err := s.sentMessages.ListByNormalizedSubject(ctx, ownerUser, subject)
		if err != nil {
			return nil, fmt.Errorf("fallback subject search outbound: %w", err)
		}
		for _, rec := range fallbackInbound {
			inboundByID[rec.ID] = rec
		}
		for _, rec := range fallbackOutbound {
			outboundByID[rec.ID] = rec
		}
	}

	messages := make([]ThreadMessage, 0, len(inboundByID)+len(outboundByID))
	for _, rec := range inboundByID {
		subject := ""
		if rec.Subject != nil {
			subject = *rec.Subject
		}
		messages = append(messages, ThreadMessage{
			Kind:      ThreadMessageInbound,
			ID:        rec.ID,
			MessageID: rec.MessageID,
			From:      rec.From,
			To:        rec.To,
			Subject:   subject,
			Timestamp: rec.ReceivedAt,
		})
	}
	for _, rec := range outboundByID {
		ts := rec.CreatedAt
		if rec.SentAt != nil {
			ts = *rec.SentAt
		}
		messages = append(messages, ThreadMessage{
			Kind:      ThreadMessageOutbound,
			ID:        rec.ID,
			MessageID: rec.MessageID,
			From:      rec.From,
			To:        rec.To,
			Subject:   rec.Subject,
			Timestamp: ts,
		})
	}

	sort.Slice(messages, func(i, j int) bool {
		return messages[i].Timestamp.Before(messages[j].Timestamp)
	})

	return messages, nil
}

func seedTokens(seed *model.EmailRecord, parsed *model.ParsedEmail) []string {
	tokens := []string{}
	if seed.MessageID != "" {
		tokens = append(tokens, normalizeMessageIDToken(seed.MessageID))
	}
	if parsed != nil {
		if parsed.InReplyTo != "" {
			tokens = append(tokens, normalizeMessageIDToken(parsed.InReplyTo))
		}
		for _, ref := range parsed.References {
			tokens = append(tokens, normalizeMessageIDToken(ref))
		}
	}
	return tokens
}

func newTokensFromInbound(rec model.EmailRecord, parsed *model.ParsedEmail, visited map[string]bool) []string {
	var out []string
	add := func(tok string) {
		tok = normalizeMessageIDToken(tok)
		if tok != "" && !visited[tok] {
			visited[tok] = true
			out = append(out, tok)
		}
	}
	add(rec.MessageID)
	if parsed != nil {
		add(parsed.InReplyTo)
		for _, ref := range parsed.References {
			add(ref)
		}
	}
	return out
}

func newTokensFromOutbound(rec model.SentMessage, visited map[string]bool) []string {
	var out []string
	add := func(tok string) {
		tok = normalizeMessageIDToken(tok)
		if tok != "" && !visited[tok] {
			visited[tok] = true
			out = append(out, tok)
		}
	}
	add(rec.MessageID)
	return out
}

// normalizeMessageIDToken strips angle brackets and surrounding whitespace
// ("tokens normalized by stripping <> and whitespace").
func normalizeMessageIDToken(token string) string {
	return strings.Trim(strings.TrimSpace(token), "<>")
}
