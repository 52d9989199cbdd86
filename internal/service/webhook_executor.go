package service

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/inboundemail/inbound-core/internal/model"
	"github.com/inboundemail/inbound-core/internal/repository/postgres"
)

// webhookPayload is the authoritative JSON shape posted to endpoint.config.url
// ("Payload shape (authoritative)").
type webhookPayload struct {
	Event     string             `json:"event"`
	Timestamp string             `json:"timestamp"`
	Email     webhookPayloadMail `json:"email"`
	Endpoint  webhookEndpointRef `json:"endpoint"`
}

type webhookPayloadMail struct {
	ID             uuid.UUID           `json:"id"`
	MessageID      string              `json:"messageId"`
	From           string              `json:"from"`
	To             []string            `json:"to"`
	Recipient      string              `json:"recipient"`
	Subject        *string             `json:"subject"`
	ReceivedAt     time.Time           `json:"receivedAt"`
	ParsedData     *model.ParsedEmail  `json:"parsedData,omitempty"`
	CleanedContent *model.CleanedContent `json:"cleanedContent,omitempty"`
}

type webhookEndpointRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Type string    `json:"type"`
}

// WebhookExecutor delivers an EmailRecord to a webhook Endpoint.
type WebhookExecutor interface {
	Deliver(ctx context.Context, rec *model.EmailRecord, parsed *model.ParsedEmail, endpoint *model.Endpoint) (*model.DeliveryAttempt, error)
	// Test sends a synthetic "email.received" payload to endpoint, exercising the
	// same signing/POST path as Deliver, for the "Webhooks ... test" API.
	// The resulting DeliveryAttempt is not persisted since no real EmailRecord exists.
	Test(ctx context.Context, endpoint *model.Endpoint) (*model.DeliveryAttempt, error)
}

type webhookExecutor struct {
	deliveryRepo postgres.DeliveryAttemptRepository
	endpointRepo postgres.EndpointRepository
	httpClient   *http.Client
	userAgent    string
	defaultTimeout time.Duration
}

// NewWebhookExecutor creates a WebhookExecutor.
func NewWebhookExecutor(deliveryRepo postgres.DeliveryAttemptRepository, endpointRepo postgres.EndpointRepository, defaultTimeout time.Duration) WebhookExecutor {
	if defaultTimeout <= 0 {
		defaultTimeout = 30 * time.Second
	}
	return &webhookExecutor{
		deliveryRepo:   deliveryRepo,
		endpointRepo:   endpointRepo,
		httpClient:     &http.Client{},
		userAgent:      "inbound-core-webhooks/1.0",
		defaultTimeout: defaultTimeout,
	}
}

// Deliver builds the webhook payload, signs it, POSTs it to endpoint.config.url, and
// records a DeliveryAttempt plus the endpoint's aggregate stats. Exactly
// one synchronous attempt is made; scheduled retries are a worker-level concern.
func (e *webhookExecutor) Deliver(ctx context.Context, rec *model.EmailRecord, parsed *model.ParsedEmail, endpoint *model.Endpoint) (*model.DeliveryAttempt, error) {
	cfg, err := endpoint.DecodeWebhookConfig()
	if err != nil {
		return nil, fmt.Errorf("decode webhook config: %w", err)
	}

	payload := buildWebhookPayload(rec, parsed, endpoint)
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal webhook payload: %w", err)
	}

	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = e.defaultTimeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build webhook request: %w", err)
	}

	webhookID := uuid.New()
	timestamp := time.Now().UTC()

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("X-Webhook-Event", payload.Event)
	req.Header.Set("X-Webhook-ID", webhookID.String())
	req.Header.Set("X-Webhook-Timestamp", strconv.FormatInt(timestamp.Unix(), 10))
	req.Header.Set("X-Email-ID", rec.ID.String())
	req.Header.Set("X-Message-ID", rec.MessageID)
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}

	if cfg.Secret != "" {
		req.Header.Set("X-Webhook-Signature", SignWebhookPayload(cfg.Secret, timestamp.Unix(), body))
	}

	attempt := &model.DeliveryAttempt{
		ID:            uuid.New(),
		EmailID:       rec.ID,
		EndpointID:    endpoint.ID,
		Target:        cfg.URL,
		Payload:       model.JSONMap{"event": payload.Event, "webhook_id": webhookID.String()},
		Attempts:      1,
		LastAttemptAt: timestamp,
	}

	start := time.Now()
	resp, err := e.httpClient.Do(req)
	attempt.LatencyMs = time.Since(start).Milliseconds()

	success := false
	if err != nil {
		attempt.Status = model.DeliveryStatusFailed
		errStr := err.Error()
		attempt.Error = &errStr
	} else {
		defer resp.Body.Close()
		code := resp.StatusCode
		attempt.ResponseCode = &code
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, model.MaxResponseBodyBytes+1))
		truncated := truncateBytes(respBody, model.MaxResponseBodyBytes)
		attempt.ResponseBody = &truncated
		success = code >= 200 && code < 300
		if success {
			attempt.Status = model.DeliveryStatusSuccess
		} else {
			attempt.Status = model.DeliveryStatusFailed
		}
	}

	if createErr := e.deliveryRepo.Create(ctx, attempt); createErr != nil {
		return attempt, fmt.Errorf("persist delivery attempt: %w", createErr)
	}

	if statErr := e.endpointRepo.IncrementStats(ctx, endpoint.ID, success, timestamp); statErr != nil {
		return attempt, fmt.Errorf("increment endpoint stats: %w", statErr)
	}

	return attempt, nil
}

// Test posts a synthetic payload to endpoint without persisting a DeliveryAttempt or
// touching endpoint stats — it exercises delivery end-to-end (signing, headers,
// timeout) so a caller can confirm their URL is reachable before routing real mail
// to it ("Webhooks CRUD + test").
func (e *webhookExecutor) Test(ctx context.Context, endpoint *model.Endpoint) (*model.DeliveryAttempt, error) {
	now := time.Now().UTC()
	subject := "Test webhook delivery"
	rec := &model.EmailRecord{
		ID:         uuid.New(),
		MessageID:  fmt.Sprintf("<test-%s@inbound-core>", uuid.New()),
		From:       "test@example.com",
		To:         []string{"recipient@example.com"},
		Recipient:  "recipient@example.com",
		Subject:    &subject,
		Status:     model.EmailRecordStatusReceived,
		ReceivedAt: now,
	}

	cfg, err := endpoint.DecodeWebhookConfig()
	if err != nil {
		return nil, fmt.Errorf("decode webhook config: %w", err)
	}

	payload := buildWebhookPayload(rec, nil, endpoint)
	payload.Event = "webhook.test"
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal test payload: %w", err)
	}

	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = e.defaultTimeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build test request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("X-Webhook-Event", payload.Event)
	req.Header.Set("X-Webhook-ID", uuid.New().String())
	req.Header.Set("X-Webhook-Timestamp", strconv.FormatInt(now.Unix(), 10))
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}
	if cfg.Secret != "" {
		req.Header.Set("X-Webhook-Signature", SignWebhookPayload(cfg.Secret, now.Unix(), body))
	}

	attempt := &model.DeliveryAttempt{
		ID:            uuid.New(),
		EmailID:       rec.ID,
		EndpointID:    endpoint.ID,
		Target:        cfg.URL,
		Payload:       model.JSONMap{"event": payload.Event},
		Attempts:      1,
		LastAttemptAt: now,
	}

	start := time.Now()
	resp, err := e.httpClient.Do(req)
	attempt.LatencyMs = time.Since(start).Milliseconds()

	if err != nil {
		attempt.Status = model.DeliveryStatusFailed
		errStr := err.Error()
		attempt.Error = &errStr
		return attempt, nil
	}
	defer resp.Body.Close()
	code := resp.StatusCode
	attempt.ResponseCode = &code
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, model.MaxResponseBodyBytes+1))
	truncated := truncateBytes(respBody, model.MaxResponseBodyBytes)
	attempt.ResponseBody = &truncated
	if code >= 200 && code < 300 {
		attempt.Status = model.DeliveryStatusSuccess
	} else {
		attempt.Status = model.DeliveryStatusFailed
	}

	return attempt, nil
}

func buildWebhookPayload(rec *model.EmailRecord, parsed *model.ParsedEmail, endpoint *model.Endpoint) webhookPayload {
	mail := webhookPayloadMail{
		ID:         rec.ID,
		MessageID:  rec.MessageID,
		From:       rec.From,
		To:         rec.To,
		Recipient:  rec.Recipient,
		Subject:    rec.Subject,
		ReceivedAt: rec.ReceivedAt,
	}

	if parsed != nil {
		mail.ParsedData = parsed
		mail.CleanedContent = buildCleanedContent(parsed)
	}

	return webhookPayload{
		Event:     "email.received",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Email:     mail,
		Endpoint: webhookEndpointRef{
			ID:   endpoint.ID,
			Name: endpoint.Name,
			Type: endpoint.Type,
		},
	}
}

// buildCleanedContent derives the sanitized webhook body subset. HTML sanitization
// is intentionally a pass-through here: the raw parsed HTML is forwarded as-is —
// callers treat webhook payloads as untrusted regardless.
func buildCleanedContent(parsed *model.ParsedEmail) *model.CleanedContent {
	return &model.CleanedContent{
		HTML:        parsed.HTMLBody,
		Text:        parsed.TextBody,
		HasHTML:     parsed.HTMLBody != nil && *parsed.HTMLBody != "",
		HasText:     parsed.TextBody != nil && *parsed.TextBody != "",
		Attachments: parsed.Attachments,
		Headers:     parsed.Headers,
	}
}

// SignWebhookPayload computes the versioned signature header ("Signing").
// Format: X-Webhook-Signature: t={timestamp},v1={hex-hmac-sha256("{timestamp}.{body}")}.
func SignWebhookPayload(secret string, timestamp int64, body []byte) string {
	signed := fmt.Sprintf("%d.%s", timestamp, body)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signed))
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

// VerifyWebhookSignature accepts both the current versioned format
// ("t={ts},v1={hex}") and the older unversioned "sha256={hex}" computed over the
// body alone ("must also be accepted for verification but not emitted").
func VerifyWebhookSignature(secret, header string, body []byte) bool {
	if ts, sig, ok := parseVersionedSignature(header); ok {
		expected := SignWebhookPayload(secret, ts, body)
		return hmac.Equal([]byte(expected), []byte(fmt.Sprintf("t=%d,v1=%s", ts, sig)))
	}

	const legacyPrefix = "sha256="
	if len(header) > len(legacyPrefix) && header[:len(legacyPrefix)] == legacyPrefix {
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(body)
		expected := hex.EncodeToString(mac.Sum(nil))
		return hmac.Equal([]byte(expected), []byte(header[len(legacyPrefix):]))
	}

	return false
}

func parseVersionedSignature(header string) (timestamp int64, sig string, ok bool) {
	var sigPart string
	if _, err := fmt.Sscanf(header, "t=%d,v1=%s", &timestamp, &sigPart); err == nil {
		return timestamp, sigPart, true
	}
	return 0, "", false
}

func truncateBytes(b []byte, limit int) string {
	if len(b) <= limit {
		return string(b)
	}
	return string(b[:limit])
}
