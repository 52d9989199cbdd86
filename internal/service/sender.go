package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/inboundemail/inbound-core/internal/config"
	"github.com/inboundemail/inbound-core/internal/engine"
	"github.com/inboundemail/inbound-core/internal/entitlement"
	"github.com/inboundemail/inbound-core/internal/mailer"
	"github.com/inboundemail/inbound-core/internal/model"
	"github.com/inboundemail/inbound-core/internal/repository/postgres"
)

// SendAttachment is one file attached to an outbound send/reply request.
type SendAttachment struct {
	Filename    string
	Content     []byte
	ContentType string
}

// SendRequest is the common input to Send and Reply.
type SendRequest struct {
	From            string
	To              []string
	Cc              []string
	Bcc             []string
	ReplyTo         []string
	Subject         string
	Text            string
	HTML            string
	Headers         map[string]string
	Attachments     []SendAttachment
	Tags            model.JSONMap
	IdempotencyKey  string
	MessageIDHeader string // caller-supplied Message-ID, honored case-insensitively
}

// ReplyRequest extends SendRequest with the origin message being replied to.
// IncludeOriginal is a pointer because its default is true: nil means unspecified
// and defaults to true, an explicit false suppresses quoting.
type ReplyRequest struct {
	SendRequest
	OriginEmailID   uuid.UUID
	IncludeOriginal *bool
}

// Sender implements outbound send/reply.
type Sender interface {
	Send(ctx context.Context, ownerUser uuid.UUID, req SendRequest) (*model.SentMessage, error)
	Reply(ctx context.Context, ownerUser uuid.UUID, req ReplyRequest) (*model.SentMessage, error)
}

type sender struct {
	sentMessages postgres.SentMessageRepository
	emailRecords postgres.EmailRecordRepository
	parsedEmails postgres.ParsedEmailRepository
	domains      postgres.DomainRepository
	mailer       *mailer.Client
	quota        QuotaGate
	agentAddress string
}

// NewSender creates a Sender.
func NewSender(sentMessages postgres.SentMessageRepository, emailRecords postgres.EmailRecordRepository, parsedEmails postgres.ParsedEmailRepository, domains postgres.DomainRepository, mailerClient *mailer.Client, quota QuotaGate, senderCfg config.SenderConfig) Sender {
	return &sender{
		sentMessages: sentMessages,
		emailRecords: emailRecords,
		parsedEmails: parsedEmails,
		domains:      domains,
		mailer:       mailerClient,
		quota:        quota,
		agentAddress: senderCfg.AgentAddress,
	}
}

// Send dispatches a new outbound message, not a reply to an existing one.
func (s *sender) Send(ctx context.Context, ownerUser uuid.UUID, req SendRequest) (*model.SentMessage, error) {
	return s.dispatch(ctx, ownerUser, req, nil)
}

// Reply quotes the origin message, defaults subject/recipients from it, and forces
// a raw-MIME build for custom threading headers.
func (s *sender) Reply(ctx context.Context, ownerUser uuid.UUID, req ReplyRequest) (*model.SentMessage, error) {
	origin, err := s.emailRecords.GetByOwnerAndID(ctx, ownerUser, req.OriginEmailID)
	if err != nil {
		return nil, fmt.Errorf("load origin email: %w", err)
	}
	originParsed, err := s.parsedEmails.GetByEmailRecordID(ctx, req.OriginEmailID)
	if err != nil {
		originParsed = nil
	}

	if req.Subject == "" {
		origSubject := ""
		if origin.Subject != nil {
			origSubject = *origin.Subject
		}
		if !isReplySubject(origSubject) {
			req.Subject = "Re: " + origSubject
		} else {
			req.Subject = origSubject
		}
	}
	if len(req.To) == 0 {
		req.To = []string{origin.From}
	}

	includeOriginal := req.IncludeOriginal == nil || *req.IncludeOriginal
	if includeOriginal && originParsed != nil {
		if originParsed.TextBody != nil {
			req.Text = appendQuotedText(req.Text, origin.From, originParsed.TextBody)
		}
		if originParsed.HTMLBody != nil {
			req.HTML = appendQuotedHTML(req.HTML, origin.From, originParsed.HTMLBody)
		}
	}

	references := []string{}
	if originParsed != nil {
		references = append(references, originParsed.References...)
	}
	if origin.MessageID != "" {
		references = append(references, origin.MessageID)
	}

	threading := &replyThreading{
		inReplyTo:  origin.MessageID,
		references: references,
	}

	return s.dispatch(ctx, ownerUser, req.SendRequest, threading)
}

type replyThreading struct {
	inReplyTo  string
	references []string
}

func (s *sender) dispatch(ctx context.Context, ownerUser uuid.UUID, req SendRequest, threading *replyThreading) (*model.SentMessage, error) {
	fromAddress, fromDisplay, err := parseFromHeader(req.From)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid from address", ErrForbidden)
	}
	fromDomain, _ := domainPart(fromAddress)

	if err := s.checkSendGate(ctx, ownerUser, fromAddress, fromDomain); err != nil {
		return nil, err
	}

	quotaResult := s.quota.CheckAndTrack(ctx, ownerUser, entitlement.FeatureEmailsSent)
	if !quotaResult.Allowed {
		return nil, fmt.Errorf("%w: %s", ErrRateLimited, quotaResult.Reason)
	}

	if req.IdempotencyKey != "" {
		if existing, err := s.sentMessages.GetByOwnerAndIdempotencyKey(ctx, ownerUser, req.IdempotencyKey); err == nil {
			return existing, nil
		}
	}

	messageID := req.MessageIDHeader
	if messageID == "" {
		messageID = uuid.New().String() + "@" + fromDomain
	}

	msg := &model.SentMessage{
		ID:          uuid.New(),
		From:        formatFromHeader(fromDisplay, fromAddress),
		FromAddress: fromAddress,
		FromDomain:  fromDomain,
		To:          req.To,
		Cc:          req.Cc,
		Bcc:         req.Bcc,
		ReplyTo:     req.ReplyTo,
		Subject:     req.Subject,
		Tags:        req.Tags,
		Status:      model.SentStatusPending,
		MessageID:   messageID,
		OwnerUser:   ownerUser,
		CreatedAt:   time.Now().UTC(),
	}
	if req.Text != "" {
		msg.TextBody = &req.Text
	}
	if req.HTML != "" {
		msg.HTMLBody = &req.HTML
	}
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		msg.IdempotencyKey = &key
	}
	if len(req.Headers) > 0 {
		headers := model.JSONMap{}
		for k, v := range req.Headers {
			headers[k] = v
		}
		msg.Headers = headers
	}
	if len(req.Attachments) > 0 {
		atts := make(model.JSONArray, 0, len(req.Attachments))
		for _, a := range req.Attachments {
			atts = append(atts, map[string]interface{}{"filename": a.Filename, "content_type": a.ContentType})
		}
		msg.Attachments = atts
	}

	if err := s.sentMessages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("persist sent message: %w", err)
	}

	useRaw := requiresRawBuild(fromDisplay, threading)
	var sendErr error
	var providerMessageID string

	if useRaw {
		out := &engine.OutgoingMessage{
			From:      formatFromHeader(fromDisplay, fromAddress),
			To:        req.To,
			Cc:        req.Cc,
			Subject:   req.Subject,
			TextBody:  req.Text,
			HTMLBody:  req.HTML,
			MessageID: strings.TrimPrefix(strings.TrimSuffix(messageID, ">"), "<"),
			Headers:   map[string]string{},
		}
		if len(req.ReplyTo) > 0 {
			out.ReplyTo = req.ReplyTo[0]
		}
		for k, v := range req.Headers {
			out.Headers[k] = v
		}
		if threading != nil {
			if threading.inReplyTo != "" {
				out.Headers["In-Reply-To"] = "<" + threading.inReplyTo + ">"
			}
			if len(threading.references) > 0 {
				out.Headers["References"] = joinAngleBrackets(threading.references)
			}
		}
		for _, a := range req.Attachments {
			out.Attachments = append(out.Attachments, engine.OutgoingAttachment{
				Filename:    a.Filename,
				Content:     a.Content,
				ContentType: a.ContentType,
			})
		}

		raw, buildErr := engine.BuildMessage(out)
		if buildErr != nil {
			sendErr = fmt.Errorf("building message: %w", buildErr)
		} else {
			result, err := s.mailer.SendRaw(ctx, fromAddress, req.To, raw)
			if err != nil {
				sendErr = err
			} else {
				providerMessageID = result.ProviderMessageID
			}
		}
	} else {
		result, err := s.mailer.SendRaw(ctx, fromAddress, req.To, buildSimpleMessage(req, fromAddress, fromDisplay, messageID))
		if err != nil {
			sendErr = err
		} else {
			providerMessageID = result.ProviderMessageID
		}
	}

	now := time.Now().UTC()
	if sendErr != nil {
		reason := sendErr.Error()
		msg.Status = model.SentStatusFailed
		msg.FailureReason = &reason
	} else {
		msg.Status = model.SentStatusSent
		msg.ProviderMessageID = &providerMessageID
		msg.SentAt = &now
	}

	if err := s.sentMessages.Update(ctx, msg); err != nil {
		return msg, fmt.Errorf("finalize sent message: %w", err)
	}

	if sendErr != nil {
		return msg, sendErr
	}
	return msg, nil
}

func (s *sender) checkSendGate(ctx context.Context, ownerUser uuid.UUID, fromAddress, fromDomain string) error {
	if s.agentAddress != "" && strings.EqualFold(fromAddress, s.agentAddress) {
		return nil
	}

	domain, err := s.domains.GetVerifiedByName(ctx, fromDomain)
	if err != nil || domain == nil || domain.OwnerUser != ownerUser {
		return ErrForbidden
	}
	return nil
}

func parseFromHeader(from string) (address, display string, err error) {
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return "", "", fmt.Errorf("parse from header: %w", err)
	}
	return strings.ToLower(addr.Address), addr.Name, nil
}

func formatFromHeader(display, address string) string {
	if display == "" {
		return address
	}
	return fmt.Sprintf("%s <%s>", display, address)
}

// requiresRawBuild reports whether dispatch uses its full raw-MIME build instead of
// buildSimpleMessage: true when the sender has a display name or the operation is a
// reply. Both paths send raw MIME through the mailer's SendRaw.
func requiresRawBuild(fromDisplay string, threading *replyThreading) bool {
	return fromDisplay != "" || threading != nil
}

func buildSimpleMessage(req SendRequest, fromAddress, fromDisplay, messageID string) []byte {
	out := &engine.OutgoingMessage{
		From:      formatFromHeader(fromDisplay, fromAddress),
		To:        req.To,
		Cc:        req.Cc,
		Subject:   req.Subject,
		TextBody:  req.Text,
		HTMLBody:  req.HTML,
		MessageID: strings.TrimPrefix(strings.TrimSuffix(messageID, ">"), "<"),
	}
	raw, _ := engine.BuildMessage(out)
	return raw
}

var replySubjectPrefixes = []string{"re:", "fwd:", "fw:", "r:", "aw:", "wg:"}

func isReplySubject(subject string) bool {
	lower := strings.ToLower(strings.TrimSpace(subject))
	for _, p := range replySubjectPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// appendQuotedText appends a ">"-prefixed quoted block: blank lines become ">";
// already-quoted lines gain another ">".
func appendQuotedText(body, originFrom string, origText *string) string {
	if origText == nil {
		return body
	}
	var b strings.Builder
	b.WriteString(body)
	b.WriteString("\n\nOn a previous message, " + originFrom + " wrote:\n")
	for _, line := range strings.Split(*origText, "\n") {
		if line == "" {
			b.WriteString(">\n")
			continue
		}
		b.WriteString("> " + line + "\n")
	}
	return b.String()
}

// appendQuotedHTML appends a <blockquote> block around the quoted origin message.
func appendQuotedHTML(body, originFrom string, origHTML *string) string {
	if origHTML == nil {
		return body
	}
	return body + "<br><br>On a previous message, " + originFrom + " wrote:<blockquote>" + *origHTML + "</blockquote>"
}
