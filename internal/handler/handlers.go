package handler

import "github.com/inboundemail/inbound-core/internal/service"

// Handlers aggregates all HTTP handlers.
type Handlers struct {
	Auth         *AuthHandler
	Domain       *DomainHandler
	EmailAddress *EmailAddressHandler
	Endpoint     *EndpointHandler
	Email        *EmailHandler
	APIKey       *APIKeyHandler
	Ingest       *IngestHandler
}

func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Auth:         NewAuthHandler(svc.Auth),
		Domain:       NewDomainHandler(svc.Domain),
		EmailAddress: NewEmailAddressHandler(svc.EmailAddress),
		Endpoint:     NewEndpointHandler(svc.Endpoint),
		Email:        NewEmailHandler(svc.Sender, svc.EmailRecord, svc.Thread),
		APIKey:       NewAPIKeyHandler(svc.APIKey),
		Ingest:       NewIngestHandler(svc.Ingestor),
	}
}
