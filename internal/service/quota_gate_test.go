package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/inboundemail/inbound-core/internal/entitlement"
	"github.com/inboundemail/inbound-core/internal/model"
)

func TestQuotaGate_CheckAndTrack_SystemUserAlwaysAllowed(t *testing.T) {
	gate := NewQuotaGate(entitlement.New("http://unused.invalid", "key", time.Second))

	result := gate.CheckAndTrack(context.Background(), model.SystemUserID, entitlement.FeatureInboundTriggers)

	assert.True(t, result.Allowed)
}

func TestQuotaGate_CheckAndTrack_AllowedAndTracked(t *testing.T) {
	var trackCalled bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/entitlements/check":
			json.NewEncoder(w).Encode(map[string]bool{"allowed": true, "unlimited": false})
		case "/v1/entitlements/track":
			trackCalled = true
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	gate := NewQuotaGate(entitlement.New(server.URL, "key", time.Second))

	result := gate.CheckAndTrack(context.Background(), uuid.New(), entitlement.FeatureEmailsSent)

	assert.True(t, result.Allowed)
	assert.True(t, trackCalled)
}

func TestQuotaGate_CheckAndTrack_Unlimited_SkipsTrack(t *testing.T) {
	var trackCalled bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/entitlements/check":
			json.NewEncoder(w).Encode(map[string]bool{"allowed": true, "unlimited": true})
		case "/v1/entitlements/track":
			trackCalled = true
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer server.Close()

	gate := NewQuotaGate(entitlement.New(server.URL, "key", time.Second))

	result := gate.CheckAndTrack(context.Background(), uuid.New(), entitlement.FeatureEmailsSent)

	assert.True(t, result.Allowed)
	assert.False(t, trackCalled)
}

func TestQuotaGate_CheckAndTrack_Denied(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]bool{"allowed": false, "unlimited": false})
	}))
	defer server.Close()

	gate := NewQuotaGate(entitlement.New(server.URL, "key", time.Second))

	result := gate.CheckAndTrack(context.Background(), uuid.New(), entitlement.FeatureInboundTriggers)

	assert.False(t, result.Allowed)
	assert.Contains(t, result.Reason, "denied")
}

func TestQuotaGate_CheckAndTrack_TransportFailureIsDenial(t *testing.T) {
	gate := NewQuotaGate(entitlement.New("http://127.0.0.1:1", "key", 100*time.Millisecond))

	result := gate.CheckAndTrack(context.Background(), uuid.New(), entitlement.FeatureInboundTriggers)

	assert.False(t, result.Allowed)
	assert.Contains(t, result.Reason, "entitlement check failed")
}
