package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/inboundemail/inbound-core/internal/config"
	"github.com/inboundemail/inbound-core/internal/mailer"
	"github.com/inboundemail/inbound-core/internal/model"
	"github.com/inboundemail/inbound-core/internal/testutil"
	tmock "github.com/inboundemail/inbound-core/internal/testutil/mock"
)

// unreachableMailerClient builds a real *mailer.Client with dummy static credentials
// and a 50ms request timeout, so SendRaw fails whether or not outbound network
// access is available.
func unreachableMailerClient(t *testing.T) *mailer.Client {
	t.Helper()
	client, err := mailer.New(context.Background(), config.MailerConfig{
		Region:          "us-east-1",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		ForwarderSender: "forwarder@example.com",
		RequestTimeout:  50 * time.Millisecond,
	})
	require.NoError(t, err)
	return client
}

func TestForwardExecutor_Forward_SendFailure_RecordsFailedAttempt(t *testing.T) {
	deliveryRepo := new(tmock.MockDeliveryAttemptRepository)
	endpointRepo := new(tmock.MockEndpointRepository)
	fe := NewForwardExecutor(unreachableMailerClient(t), deliveryRepo, endpointRepo)
	ctx := context.Background()

	rec := testutil.NewTestEmailRecord(testutil.NewTestIngestionEvent().ID)
	endpoint := testutil.NewTestEndpoint()
	endpoint.Type = model.EndpointTypeEmail
	endpoint.Config = model.JSONMap{"forward_to": "dest@example.com"}

	deliveryRepo.On("Create", ctx, mock.MatchedBy(func(a *model.DeliveryAttempt) bool {
		return a.Status == model.DeliveryStatusFailed && a.EmailID == rec.ID
	})).Return(nil)
	endpointRepo.On("IncrementStats", ctx, endpoint.ID, false, mock.AnythingOfType("time.Time")).Return(nil)

	attempt, err := fe.Forward(ctx, rec, nil, endpoint, []string{"dest@example.com"})

	require.Error(t, err)
	require.NotNil(t, attempt)
	assert.Equal(t, model.DeliveryStatusFailed, attempt.Status)
	require.NotNil(t, attempt.Error)

	deliveryRepo.AssertExpectations(t)
	endpointRepo.AssertExpectations(t)
}

func TestForwardOptions_EmailConfig_AttachmentsAndPrefix(t *testing.T) {
	endpoint := testutil.NewTestEndpoint()
	endpoint.Type = model.EndpointTypeEmail
	include := false
	endpoint.Config = model.JSONMap{
		"forward_to":          "dest@example.com",
		"include_attachments": include,
		"subject_prefix":      "[Fwd] ",
	}

	includeAttachments, subjectPrefix := forwardOptions(endpoint)

	assert.False(t, includeAttachments)
	assert.Equal(t, "[Fwd] ", subjectPrefix)
}

func TestForwardOptions_DefaultsToIncludeAttachments(t *testing.T) {
	endpoint := testutil.NewTestEndpoint()
	endpoint.Type = model.EndpointTypeEmail
	endpoint.Config = model.JSONMap{"forward_to": "dest@example.com"}

	includeAttachments, subjectPrefix := forwardOptions(endpoint)

	assert.True(t, includeAttachments)
	assert.Empty(t, subjectPrefix)
}

func TestJoinAngleBrackets(t *testing.T) {
	assert.Equal(t, "<a@example.com> <b@example.com>", joinAngleBrackets([]string{"a@example.com", "b@example.com"}))
	assert.Equal(t, "", joinAngleBrackets(nil))
}

func TestJoinAddresses(t *testing.T) {
	assert.Equal(t, "a@example.com, b@example.com", joinAddresses([]string{"a@example.com", "b@example.com"}))
}
