package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/inboundemail/inbound-core/internal/model"
	"github.com/inboundemail/inbound-core/internal/testutil"
	tmock "github.com/inboundemail/inbound-core/internal/testutil/mock"
)

func webhookEndpoint(url string) *model.Endpoint {
	endpoint := testutil.NewTestEndpoint()
	endpoint.Type = model.EndpointTypeWebhook
	endpoint.Config = model.JSONMap{
		"url":            url,
		"secret":         "whsec_test",
		"timeout_s":      float64(5),
		"retry_attempts": float64(0),
	}
	return endpoint
}

func TestWebhookExecutor_Deliver_Success_RecordsAttemptAndStats(t *testing.T) {
	var gotSignature string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get("X-Webhook-Signature")
		body, _ := io.ReadAll(r.Body)
		assert.NotEmpty(t, body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	deliveryRepo := new(tmock.MockDeliveryAttemptRepository)
	endpointRepo := new(tmock.MockEndpointRepository)
	exec := NewWebhookExecutor(deliveryRepo, endpointRepo, 5*time.Second)
	ctx := context.Background()

	endpoint := webhookEndpoint(server.URL)
	rec := testutil.NewTestEmailRecord(testutil.NewTestIngestionEvent().ID)

	deliveryRepo.On("Create", ctx, mock.MatchedBy(func(a *model.DeliveryAttempt) bool {
		return a.Status == model.DeliveryStatusSuccess && a.EmailID == rec.ID
	})).Return(nil)
	endpointRepo.On("IncrementStats", ctx, endpoint.ID, true, mock.AnythingOfType("time.Time")).Return(nil)

	attempt, err := exec.Deliver(ctx, rec, nil, endpoint)

	require.NoError(t, err)
	assert.Equal(t, model.DeliveryStatusSuccess, attempt.Status)
	assert.NotEmpty(t, gotSignature)
	assert.Contains(t, gotSignature, "v1=")

	deliveryRepo.AssertExpectations(t)
	endpointRepo.AssertExpectations(t)
}

func TestWebhookExecutor_Deliver_NonSuccessStatusCode_MarksFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer server.Close()

	deliveryRepo := new(tmock.MockDeliveryAttemptRepository)
	endpointRepo := new(tmock.MockEndpointRepository)
	exec := NewWebhookExecutor(deliveryRepo, endpointRepo, 5*time.Second)
	ctx := context.Background()

	endpoint := webhookEndpoint(server.URL)
	rec := testutil.NewTestEmailRecord(testutil.NewTestIngestionEvent().ID)

	deliveryRepo.On("Create", ctx, mock.MatchedBy(func(a *model.DeliveryAttempt) bool {
		return a.Status == model.DeliveryStatusFailed && a.ResponseCode != nil && *a.ResponseCode == 500
	})).Return(nil)
	endpointRepo.On("IncrementStats", ctx, endpoint.ID, false, mock.AnythingOfType("time.Time")).Return(nil)

	attempt, err := exec.Deliver(ctx, rec, nil, endpoint)

	require.NoError(t, err)
	assert.Equal(t, model.DeliveryStatusFailed, attempt.Status)

	deliveryRepo.AssertExpectations(t)
	endpointRepo.AssertExpectations(t)
}

func TestWebhookExecutor_Deliver_Timeout_MarksFailedAndCountsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	deliveryRepo := new(tmock.MockDeliveryAttemptRepository)
	endpointRepo := new(tmock.MockEndpointRepository)
	exec := NewWebhookExecutor(deliveryRepo, endpointRepo, 5*time.Second)
	ctx := context.Background()

	endpoint := webhookEndpoint(server.URL)
	endpoint.Config["timeout_s"] = float64(1)
	endpoint.Config["url"] = server.URL
	// Force a tighter deadline than the handler's sleep via the request context itself.
	shortCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()

	rec := testutil.NewTestEmailRecord(testutil.NewTestIngestionEvent().ID)

	deliveryRepo.On("Create", shortCtx, mock.MatchedBy(func(a *model.DeliveryAttempt) bool {
		return a.Status == model.DeliveryStatusFailed && a.Error != nil
	})).Return(nil)
	endpointRepo.On("IncrementStats", shortCtx, endpoint.ID, false, mock.AnythingOfType("time.Time")).Return(nil)

	attempt, err := exec.Deliver(shortCtx, rec, nil, endpoint)

	require.NoError(t, err)
	assert.Equal(t, model.DeliveryStatusFailed, attempt.Status)
	require.NotNil(t, attempt.Error)

	deliveryRepo.AssertExpectations(t)
	endpointRepo.AssertExpectations(t)
}

func TestWebhookExecutor_Test_DoesNotPersistOrTouchStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "webhook.test", r.Header.Get("X-Webhook-Event"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	deliveryRepo := new(tmock.MockDeliveryAttemptRepository)
	endpointRepo := new(tmock.MockEndpointRepository)
	exec := NewWebhookExecutor(deliveryRepo, endpointRepo, 5*time.Second)
	ctx := context.Background()

	endpoint := webhookEndpoint(server.URL)

	attempt, err := exec.Test(ctx, endpoint)

	require.NoError(t, err)
	assert.Equal(t, model.DeliveryStatusSuccess, attempt.Status)

	deliveryRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	endpointRepo.AssertNotCalled(t, "IncrementStats", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSignWebhookPayload_VerifiesWithVersionedAndLegacyFormats(t *testing.T) {
	secret := "whsec_test"
	body := []byte(`{"event":"email.received"}`)
	ts := int64(1700000000)

	signed := SignWebhookPayload(secret, ts, body)
	assert.True(t, VerifyWebhookSignature(secret, signed, body))
	assert.False(t, VerifyWebhookSignature("wrong-secret", signed, body))

	legacy := "sha256=" + hmacHex(secret, body)
	assert.True(t, VerifyWebhookSignature(secret, legacy, body))
}

func hmacHex(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
