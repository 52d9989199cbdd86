package model

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryAttempt status values.
const (
	DeliveryStatusSuccess = "success"
	DeliveryStatusFailed  = "failed"
	DeliveryStatusPending = "pending"
)

// MaxResponseBodyBytes is the truncation limit for DeliveryAttempt.ResponseBody
// ("truncated to 2 KiB").
const MaxResponseBodyBytes = 2048

// DeliveryAttempt records one dispatch of an EmailRecord to an Endpoint
//. Owned by its EmailRecord; cascades on EmailRecord delete.
type DeliveryAttempt struct {
	ID           uuid.UUID `json:"id" db:"id"`
	EmailID      uuid.UUID `json:"email_id" db:"email_id"`
	EndpointID   uuid.UUID `json:"endpoint_id" db:"endpoint_id"`
	Target       string    `json:"target" db:"target"` // snapshot of the endpoint's URL/forward target at dispatch time
	Payload      JSONMap   `json:"payload" db:"payload"`
	Status       string    `json:"status" db:"status"`
	Attempts     int       `json:"attempts" db:"attempts"`
	ResponseCode *int      `json:"response_code,omitempty" db:"response_code"`
	ResponseBody *string   `json:"response_body,omitempty" db:"response_body"`
	LatencyMs    int64     `json:"latency_ms" db:"latency_ms"`
	Error        *string   `json:"error,omitempty" db:"error"`
	LastAttemptAt time.Time `json:"last_attempt_at" db:"last_attempt_at"`
}
