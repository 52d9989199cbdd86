package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/inboundemail/inbound-core/internal/model"
)

var (
	FixedTime  = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)
	TestUserID = uuid.MustParse("00000000-0000-0000-0000-000000000002")
)

func NewTestUser() *model.User {
	return &model.User{
		ID:            TestUserID,
		Email:         "test@example.com",
		PasswordHash:  "$2a$10$abcdefghijklmnopqrstuuABCDEFGHIJKLMNOPQRSTUVWXYZ012",
		Name:          "Test User",
		EmailVerified: true,
		CreatedAt:     FixedTime,
		UpdatedAt:     FixedTime,
	}
}

func NewTestAPIKey() *model.APIKey {
	return &model.APIKey{
		ID:        uuid.New(),
		OwnerUser: TestUserID,
		Name:      "Test Key",
		KeyHash:   "abc123hash",
		Prefix:    "in_1234abcd",
		CreatedAt: FixedTime,
	}
}

func NewTestDomain() *model.Domain {
	return &model.Domain{
		ID:                uuid.New(),
		OwnerUser:         TestUserID,
		Name:              "example.com",
		Status:            model.DomainStatusPending,
		CanReceive:        false,
		HasMX:             false,
		IsCatchAllEnabled: false,
		CreatedAt:         FixedTime,
		UpdatedAt:         FixedTime,
	}
}

func NewTestDomainDNSRecord(domainID uuid.UUID) *model.DomainDNSRecord {
	return &model.DomainDNSRecord{
		ID:         uuid.New(),
		DomainID:   domainID,
		RecordType: "MX",
		DNSType:    "MX",
		Name:       "example.com",
		Value:      "10 inbound-smtp.us-east-1.amazonaws.com",
		Status:     model.DomainStatusPending,
		CreatedAt:  FixedTime,
		UpdatedAt:  FixedTime,
	}
}

func NewTestEmailAddress(domainID uuid.UUID) *model.EmailAddress {
	return &model.EmailAddress{
		ID:        uuid.New(),
		Address:   "hello@example.com",
		DomainID:  domainID,
		IsActive:  true,
		OwnerUser: TestUserID,
		CreatedAt: FixedTime,
		UpdatedAt: FixedTime,
	}
}

func NewTestEndpoint() *model.Endpoint {
	return &model.Endpoint{
		ID:        uuid.New(),
		OwnerUser: TestUserID,
		Name:      "Test Webhook",
		Type:      model.EndpointTypeWebhook,
		Config: model.JSONMap{
			"url":            "https://example.com/webhook",
			"timeout_s":      float64(30),
			"retry_attempts": float64(3),
		},
		IsActive:  true,
		CreatedAt: FixedTime,
		UpdatedAt: FixedTime,
	}
}

func NewTestIngestionEvent() *model.IngestionEvent {
	return &model.IngestionEvent{
		ID:          uuid.New(),
		MessageID:   "test-message-id@example.com",
		Source:      "sender@example.com",
		Destination: []string{"hello@example.com"},
		Recipients:  []string{"hello@example.com"},
		Verdicts: model.Verdicts{
			SPF:   model.VerdictPass,
			DKIM:  model.VerdictPass,
			DMARC: model.VerdictPass,
			Spam:  model.VerdictPass,
			Virus: model.VerdictPass,
		},
		ActionType:       "Lambda",
		ReceiptTimestamp: FixedTime,
		CreatedAt:        FixedTime,
	}
}

func NewTestEmailRecord(eventID uuid.UUID) *model.EmailRecord {
	subject := "Test Subject"
	return &model.EmailRecord{
		ID:               uuid.New(),
		IngestionEventID: eventID,
		MessageID:        "test-message-id@example.com",
		From:             "sender@example.com",
		To:               []string{"hello@example.com"},
		Recipient:        "hello@example.com",
		Subject:          &subject,
		Status:           model.EmailRecordStatusReceived,
		OwnerUser:        TestUserID,
		ReceivedAt:       FixedTime,
	}
}

func NewTestParsedEmail(recordID uuid.UUID) *model.ParsedEmail {
	text := "Hello"
	html := "<p>Hello</p>"
	return &model.ParsedEmail{
		ID:            uuid.New(),
		EmailRecordID: recordID,
		From:          model.AddressGroup{Text: "sender@example.com", Addresses: []model.EmailAddressRef{{Address: "sender@example.com"}}},
		To:            model.AddressGroup{Text: "hello@example.com", Addresses: []model.EmailAddressRef{{Address: "hello@example.com"}}},
		TextBody:      &text,
		HTMLBody:      &html,
		RawBody:       "From: sender@example.com\r\nTo: hello@example.com\r\n\r\nHello",
		Attachments:   []model.Attachment{},
		Headers:       model.JSONMap{},
		MessageID:     "test-message-id@example.com",
		ParseSuccess:  true,
		CreatedAt:     FixedTime,
	}
}

func NewTestSentMessage() *model.SentMessage {
	return &model.SentMessage{
		ID:          uuid.New(),
		From:        "Test Sender <sender@example.com>",
		FromAddress: "sender@example.com",
		FromDomain:  "example.com",
		To:          []string{"recipient@example.com"},
		Subject:     "Test Subject",
		Status:      model.SentStatusPending,
		MessageID:   "test-sent-id@example.com",
		OwnerUser:   TestUserID,
		CreatedAt:   FixedTime,
	}
}

func NewTestBlockedSender() *model.BlockedSender {
	return &model.BlockedSender{
		ID:        uuid.New(),
		OwnerUser: TestUserID,
		Address:   "blocked@example.com",
		Reason:    model.BlockReasonComplaint,
		CreatedAt: FixedTime,
	}
}

func NewTestDeliveryAttempt(emailID, endpointID uuid.UUID) *model.DeliveryAttempt {
	return &model.DeliveryAttempt{
		ID:            uuid.New(),
		EmailID:       emailID,
		EndpointID:    endpointID,
		Target:        "https://example.com/webhook",
		Payload:       model.JSONMap{},
		Status:        model.DeliveryStatusSuccess,
		Attempts:      1,
		LastAttemptAt: FixedTime,
	}
}

// StringPtr returns a pointer to the given string.
func StringPtr(s string) *string { return &s }

// BoolPtr returns a pointer to the given bool.
func BoolPtr(b bool) *bool { return &b }

// IntPtr returns a pointer to the given int.
func IntPtr(i int) *int { return &i }
