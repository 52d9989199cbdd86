package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/inboundemail/inbound-core/internal/engine"
	"github.com/inboundemail/inbound-core/internal/mailer"
	"github.com/inboundemail/inbound-core/internal/model"
	"github.com/inboundemail/inbound-core/internal/repository/postgres"
)

// ForwardExecutor rewrites and resends an inbound email to one or more forward
// addresses: email/email_group Endpoint dispatch.
type ForwardExecutor interface {
	Forward(ctx context.Context, rec *model.EmailRecord, parsed *model.ParsedEmail, endpoint *model.Endpoint, to []string) (*model.DeliveryAttempt, error)
}

type forwardExecutor struct {
	mailer       *mailer.Client
	deliveryRepo postgres.DeliveryAttemptRepository
	endpointRepo postgres.EndpointRepository
}

// NewForwardExecutor creates a ForwardExecutor.
func NewForwardExecutor(mailerClient *mailer.Client, deliveryRepo postgres.DeliveryAttemptRepository, endpointRepo postgres.EndpointRepository) ForwardExecutor {
	return &forwardExecutor{mailer: mailerClient, deliveryRepo: deliveryRepo, endpointRepo: endpointRepo}
}

// Forward rewrites From to the global forwarder address, preserves the original
// sender in Reply-To, preserves subject/bodies/threading headers, strips
// attachments when the endpoint config says to, then dispatches the
// built raw MIME through the cloud mailer's raw-send API.
func (f *forwardExecutor) Forward(ctx context.Context, rec *model.EmailRecord, parsed *model.ParsedEmail, endpoint *model.Endpoint, to []string) (*model.DeliveryAttempt, error) {
	includeAttachments, subjectPrefix := forwardOptions(endpoint)

	displayName := rec.From
	if parsed != nil && len(parsed.From.Addresses) > 0 && parsed.From.Addresses[0].Name != "" {
		displayName = parsed.From.Addresses[0].Name
	}

	subject := ""
	if rec.Subject != nil {
		subject = *rec.Subject
	}
	if subjectPrefix != "" {
		subject = subjectPrefix + subject
	}

	out := &engine.OutgoingMessage{
		From:      fmt.Sprintf("%s <%s>", displayName, f.mailer.ForwarderSender()),
		To:        to,
		ReplyTo:   rec.From,
		Subject:   subject,
		MessageID: uuid.New().String(),
		Headers:   map[string]string{},
	}

	if parsed != nil {
		if parsed.TextBody != nil {
			out.TextBody = *parsed.TextBody
		}
		if parsed.HTMLBody != nil {
			out.HTMLBody = *parsed.HTMLBody
		}
		if parsed.InReplyTo != "" {
			out.Headers["In-Reply-To"] = "<" + parsed.InReplyTo + ">"
		}
		if len(parsed.References) > 0 {
			out.Headers["References"] = joinAngleBrackets(parsed.References)
		}
		if includeAttachments {
			for _, att := range parsed.Attachments {
				out.Attachments = append(out.Attachments, engine.OutgoingAttachment{
					Filename:    att.Filename,
					Content:     att.Content,
					ContentType: att.ContentType,
				})
			}
		}
	}

	raw, err := engine.BuildMessage(out)
	if err != nil {
		return nil, fmt.Errorf("building forward message: %w", err)
	}

	attempt := &model.DeliveryAttempt{
		ID:            uuid.New(),
		EmailID:       rec.ID,
		EndpointID:    endpoint.ID,
		Target:        joinAddresses(to),
		Payload:       model.JSONMap{"message_id": out.MessageID},
		Attempts:      1,
		LastAttemptAt: time.Now().UTC(),
	}

	start := time.Now()
	result, sendErr := f.mailer.SendRaw(ctx, f.mailer.ForwarderSender(), to, raw)
	attempt.LatencyMs = time.Since(start).Milliseconds()

	success := sendErr == nil
	if sendErr != nil {
		attempt.Status = model.DeliveryStatusFailed
		errStr := sendErr.Error()
		attempt.Error = &errStr
	} else {
		attempt.Status = model.DeliveryStatusSuccess
		attempt.Payload["provider_message_id"] = result.ProviderMessageID
	}

	if createErr := f.deliveryRepo.Create(ctx, attempt); createErr != nil {
		return attempt, fmt.Errorf("persist delivery attempt: %w", createErr)
	}
	if statErr := f.endpointRepo.IncrementStats(ctx, endpoint.ID, success, attempt.LastAttemptAt); statErr != nil {
		return attempt, fmt.Errorf("increment endpoint stats: %w", statErr)
	}

	return attempt, nil
}

// forwardOptions reads the include_attachments/subject_prefix knobs shared by the
// email and email_group config variants.
func forwardOptions(endpoint *model.Endpoint) (includeAttachments bool, subjectPrefix string) {
	includeAttachments = true
	switch endpoint.Type {
	case model.EndpointTypeEmail:
		if cfg, err := endpoint.DecodeEmailConfig(); err == nil {
			if cfg.IncludeAttachments != nil {
				includeAttachments = *cfg.IncludeAttachments
			}
			subjectPrefix = cfg.SubjectPrefix
		}
	case model.EndpointTypeEmailGroup:
		if cfg, err := endpoint.DecodeEmailGroupConfig(); err == nil {
			if cfg.IncludeAttachments != nil {
				includeAttachments = *cfg.IncludeAttachments
			}
			subjectPrefix = cfg.SubjectPrefix
		}
	}
	return
}

func joinAngleBrackets(tokens []string) string {
	out := ""
	for i, t := range tokens {
		if i > 0 {
			out += " "
		}
		out += "<" + t + ">"
	}
	return out
}

func joinAddresses(addrs []string) string {
	out := ""
	for i, a := range addrs {
		if i > 0 {
			out += ", "
		}
		out += a
	}
	return out
}
