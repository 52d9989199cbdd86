package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/inboundemail/inbound-core/internal/config"
	"github.com/inboundemail/inbound-core/internal/repository/postgres"
	"github.com/inboundemail/inbound-core/internal/testutil"
	tmock "github.com/inboundemail/inbound-core/internal/testutil/mock"
)

type senderTestDeps struct {
	sentMessages *tmock.MockSentMessageRepository
	emailRecords *tmock.MockEmailRecordRepository
	parsedEmails *tmock.MockParsedEmailRepository
	domains      *tmock.MockDomainRepository
	quota        *tmock.MockQuotaGate
}

func newSenderTestDeps(t *testing.T, cfg config.SenderConfig) (*senderTestDeps, Sender) {
	t.Helper()
	d := &senderTestDeps{
		sentMessages: new(tmock.MockSentMessageRepository),
		emailRecords: new(tmock.MockEmailRecordRepository),
		parsedEmails: new(tmock.MockParsedEmailRepository),
		domains:      new(tmock.MockDomainRepository),
		quota:        new(tmock.MockQuotaGate),
	}
	snd := NewSender(d.sentMessages, d.emailRecords, d.parsedEmails, d.domains, nil, d.quota, cfg)
	return d, snd
}

func TestSender_Send_InvalidFromAddress(t *testing.T) {
	_, snd := newSenderTestDeps(t, config.SenderConfig{})
	ctx := context.Background()

	_, err := snd.Send(ctx, testutil.TestUserID, SendRequest{From: "not-an-address", To: []string{"a@example.com"}})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSender_Send_UnverifiedDomain_Forbidden(t *testing.T) {
	d, snd := newSenderTestDeps(t, config.SenderConfig{})
	ctx := context.Background()

	d.domains.On("GetVerifiedByName", ctx, "example.com").Return(nil, postgres.ErrNotFound)

	_, err := snd.Send(ctx, testutil.TestUserID, SendRequest{From: "me@example.com", To: []string{"a@example.com"}})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrForbidden)

	d.domains.AssertExpectations(t)
}

func TestSender_Send_DomainOwnedBySomeoneElse_Forbidden(t *testing.T) {
	d, snd := newSenderTestDeps(t, config.SenderConfig{})
	ctx := context.Background()

	domain := testutil.NewTestDomain()
	domain.OwnerUser = uuid.New()

	d.domains.On("GetVerifiedByName", ctx, "example.com").Return(domain, nil)

	_, err := snd.Send(ctx, testutil.TestUserID, SendRequest{From: "me@example.com", To: []string{"a@example.com"}})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrForbidden)

	d.domains.AssertExpectations(t)
}

func TestSender_Send_AgentAddress_SkipsDomainOwnershipGate(t *testing.T) {
	d, snd := newSenderTestDeps(t, config.SenderConfig{AgentAddress: "agent@example.com"})
	ctx := context.Background()

	d.quota.On("CheckAndTrack", ctx, testutil.TestUserID, mock.Anything).
		Return(QuotaGateResult{Allowed: false, Reason: "outbound quota exceeded"})

	_, err := snd.Send(ctx, testutil.TestUserID, SendRequest{From: "Agent <AGENT@example.com>", To: []string{"a@example.com"}})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)

	d.domains.AssertNotCalled(t, "GetVerifiedByName", mock.Anything, mock.Anything)
}

func TestSender_Send_QuotaDenied(t *testing.T) {
	d, snd := newSenderTestDeps(t, config.SenderConfig{})
	ctx := context.Background()

	domain := testutil.NewTestDomain()
	domain.OwnerUser = testutil.TestUserID

	d.domains.On("GetVerifiedByName", ctx, "example.com").Return(domain, nil)
	d.quota.On("CheckAndTrack", ctx, testutil.TestUserID, mock.Anything).
		Return(QuotaGateResult{Allowed: false, Reason: "outbound quota exceeded"})

	_, err := snd.Send(ctx, testutil.TestUserID, SendRequest{From: "me@example.com", To: []string{"a@example.com"}})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited)

	d.domains.AssertExpectations(t)
	d.quota.AssertExpectations(t)
}

func TestSender_Send_IdempotencyKey_ReturnsExistingWithoutResending(t *testing.T) {
	d, snd := newSenderTestDeps(t, config.SenderConfig{})
	ctx := context.Background()

	domain := testutil.NewTestDomain()
	domain.OwnerUser = testutil.TestUserID
	existing := testutil.NewTestSentMessage()

	d.domains.On("GetVerifiedByName", ctx, "example.com").Return(domain, nil)
	d.quota.On("CheckAndTrack", ctx, testutil.TestUserID, mock.Anything).Return(QuotaGateResult{Allowed: true})
	d.sentMessages.On("GetByOwnerAndIdempotencyKey", ctx, testutil.TestUserID, "key-1").Return(existing, nil)

	msg, err := snd.Send(ctx, testutil.TestUserID, SendRequest{
		From:           "me@example.com",
		To:             []string{"a@example.com"},
		IdempotencyKey: "key-1",
	})

	require.NoError(t, err)
	assert.Equal(t, existing.ID, msg.ID)

	d.domains.AssertExpectations(t)
	d.sentMessages.AssertExpectations(t)
	d.sentMessages.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSender_Reply_OriginNotFound(t *testing.T) {
	d, snd := newSenderTestDeps(t, config.SenderConfig{})
	ctx := context.Background()

	originID := uuid.New()
	d.emailRecords.On("GetByOwnerAndID", ctx, testutil.TestUserID, originID).Return(nil, postgres.ErrNotFound)

	_, err := snd.Reply(ctx, testutil.TestUserID, ReplyRequest{OriginEmailID: originID})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "load origin email")

	d.emailRecords.AssertExpectations(t)
}
