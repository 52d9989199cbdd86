package dto

// CreateEndpointRequest provisions a delivery destination.
// Config must validate against the variant selected by Type.
type CreateEndpointRequest struct {
	Name   string                 `json:"name" validate:"required,min=1,max=100"`
	Type   string                 `json:"type" validate:"required,oneof=webhook email email_group"`
	Config map[string]interface{} `json:"config" validate:"required"`
}

// UpdateEndpointRequest changes an Endpoint's name, config, or active state. Type is
// immutable after creation — changing delivery shape means creating a new Endpoint.
type UpdateEndpointRequest struct {
	Name     *string                `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Config   map[string]interface{} `json:"config,omitempty"`
	IsActive *bool                  `json:"is_active,omitempty"`
}

// WebhookTestResponse reports the result of a synthetic test delivery.
type WebhookTestResponse struct {
	Success      bool    `json:"success"`
	ResponseCode *int    `json:"response_code,omitempty"`
	Error        *string `json:"error,omitempty"`
}

// EndpointResponse is the public representation of an Endpoint.
type EndpointResponse struct {
	ID                   string                 `json:"id"`
	Name                 string                 `json:"name"`
	Type                 string                 `json:"type"`
	Config               map[string]interface{} `json:"config"`
	IsActive             bool                   `json:"is_active"`
	TotalDeliveries      int64                  `json:"total_deliveries"`
	SuccessfulDeliveries int64                  `json:"successful_deliveries"`
	FailedDeliveries     int64                  `json:"failed_deliveries"`
	LastUsed             *string                `json:"last_used,omitempty"`
	CreatedAt            string                 `json:"created_at"`
	UpdatedAt            string                 `json:"updated_at"`
}
