package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/inboundemail/inbound-core/internal/dto"
	"github.com/inboundemail/inbound-core/internal/pkg"
	"github.com/inboundemail/inbound-core/internal/server/middleware"
	"github.com/inboundemail/inbound-core/internal/service"
)

// EndpointHandler exposes webhook/email/email-group Endpoint CRUD plus the
// synthetic-delivery test action ("Webhooks CRUD + test"). There is no
// separate Webhook resource — webhooks are Endpoints of type "webhook".
type EndpointHandler struct {
	service service.EndpointService
}

func NewEndpointHandler(s service.EndpointService) *EndpointHandler {
	return &EndpointHandler{service: s}
}

// Create handles POST /endpoints.
func (h *EndpointHandler) Create(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuth(r.Context())
	if auth == nil {
		pkg.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req dto.CreateEndpointRequest
	if err := pkg.DecodeJSON(r, &req); err != nil {
		pkg.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.service.Create(r.Context(), auth.OwnerUser, &req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, resp)
}

// List handles GET /endpoints.
func (h *EndpointHandler) List(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuth(r.Context())
	if auth == nil {
		pkg.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	params := parsePagination(r)

	resp, err := h.service.List(r.Context(), auth.OwnerUser, &params)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, resp)
}

// Get handles GET /endpoints/{endpointId}.
func (h *EndpointHandler) Get(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuth(r.Context())
	if auth == nil {
		pkg.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "endpointId"))
	if err != nil {
		pkg.Error(w, http.StatusBadRequest, "invalid endpoint id")
		return
	}

	resp, err := h.service.Get(r.Context(), auth.OwnerUser, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, resp)
}

// Update handles PATCH /endpoints/{endpointId}.
func (h *EndpointHandler) Update(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuth(r.Context())
	if auth == nil {
		pkg.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "endpointId"))
	if err != nil {
		pkg.Error(w, http.StatusBadRequest, "invalid endpoint id")
		return
	}

	var req dto.UpdateEndpointRequest
	if err := pkg.DecodeJSON(r, &req); err != nil {
		pkg.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.service.Update(r.Context(), auth.OwnerUser, id, &req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, resp)
}

// Delete handles DELETE /endpoints/{endpointId}.
func (h *EndpointHandler) Delete(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuth(r.Context())
	if auth == nil {
		pkg.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "endpointId"))
	if err != nil {
		pkg.Error(w, http.StatusBadRequest, "invalid endpoint id")
		return
	}

	if err := h.service.Delete(r.Context(), auth.OwnerUser, id); err != nil {
		handleServiceError(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// Test handles POST /endpoints/{endpointId}/test.
func (h *EndpointHandler) Test(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuth(r.Context())
	if auth == nil {
		pkg.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "endpointId"))
	if err != nil {
		pkg.Error(w, http.StatusBadRequest, "invalid endpoint id")
		return
	}

	resp, err := h.service.Test(r.Context(), auth.OwnerUser, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, resp)
}
