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

type DomainHandler struct {
	service service.DomainService
}

func NewDomainHandler(s service.DomainService) *DomainHandler {
	return &DomainHandler{service: s}
}

// Create handles POST /domains.
func (h *DomainHandler) Create(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuth(r.Context())
	if auth == nil {
		pkg.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req dto.CreateDomainRequest
	if err := pkg.DecodeJSON(r, &req); err != nil {
		pkg.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := pkg.Validate(&req); err != nil {
		pkg.Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	resp, err := h.service.Create(r.Context(), auth.OwnerUser, &req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, resp)
}

// List handles GET /domains.
func (h *DomainHandler) List(w http.ResponseWriter, r *http.Request) {
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

// Get handles GET /domains/{domainId}.
func (h *DomainHandler) Get(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuth(r.Context())
	if auth == nil {
		pkg.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	domainID, err := uuid.Parse(chi.URLParam(r, "domainId"))
	if err != nil {
		pkg.Error(w, http.StatusBadRequest, "invalid domain id")
		return
	}

	resp, err := h.service.Get(r.Context(), auth.OwnerUser, domainID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, resp)
}

// Update handles PATCH /domains/{domainId}.
func (h *DomainHandler) Update(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuth(r.Context())
	if auth == nil {
		pkg.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	domainID, err := uuid.Parse(chi.URLParam(r, "domainId"))
	if err != nil {
		pkg.Error(w, http.StatusBadRequest, "invalid domain id")
		return
	}

	var req dto.UpdateDomainRequest
	if err := pkg.DecodeJSON(r, &req); err != nil {
		pkg.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.service.Update(r.Context(), auth.OwnerUser, domainID, &req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, resp)
}

// Delete handles DELETE /domains/{domainId}.
func (h *DomainHandler) Delete(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuth(r.Context())
	if auth == nil {
		pkg.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	domainID, err := uuid.Parse(chi.URLParam(r, "domainId"))
	if err != nil {
		pkg.Error(w, http.StatusBadRequest, "invalid domain id")
		return
	}

	if err := h.service.Delete(r.Context(), auth.OwnerUser, domainID); err != nil {
		handleServiceError(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// Verify handles POST /domains/{domainId}/verify.
func (h *DomainHandler) Verify(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuth(r.Context())
	if auth == nil {
		pkg.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	domainID, err := uuid.Parse(chi.URLParam(r, "domainId"))
	if err != nil {
		pkg.Error(w, http.StatusBadRequest, "invalid domain id")
		return
	}

	resp, err := h.service.Verify(r.Context(), auth.OwnerUser, domainID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, resp)
}

// DNSRecords handles GET /domains/{domainId}/dns-records.
func (h *DomainHandler) DNSRecords(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuth(r.Context())
	if auth == nil {
		pkg.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	domainID, err := uuid.Parse(chi.URLParam(r, "domainId"))
	if err != nil {
		pkg.Error(w, http.StatusBadRequest, "invalid domain id")
		return
	}

	records, err := h.service.DNSRecords(r.Context(), auth.OwnerUser, domainID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, dto.ListResponse[dto.DomainDNSRecordResponse]{Data: records})
}

// GetCatchAll handles GET /domains/{domainId}/catch-all. Catch-all is just two
// fields on Domain, so this reads through the regular Get response.
func (h *DomainHandler) GetCatchAll(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuth(r.Context())
	if auth == nil {
		pkg.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	domainID, err := uuid.Parse(chi.URLParam(r, "domainId"))
	if err != nil {
		pkg.Error(w, http.StatusBadRequest, "invalid domain id")
		return
	}

	resp, err := h.service.Get(r.Context(), auth.OwnerUser, domainID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]interface{}{
		"is_catch_all_enabled": resp.IsCatchAllEnabled,
		"catch_all_endpoint_id": resp.CatchAllEndpointID,
	})
}

// PutCatchAll handles PUT /domains/{domainId}/catch-all.
func (h *DomainHandler) PutCatchAll(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuth(r.Context())
	if auth == nil {
		pkg.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	domainID, err := uuid.Parse(chi.URLParam(r, "domainId"))
	if err != nil {
		pkg.Error(w, http.StatusBadRequest, "invalid domain id")
		return
	}

	var req dto.UpdateDomainRequest
	if err := pkg.DecodeJSON(r, &req); err != nil {
		pkg.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.service.Update(r.Context(), auth.OwnerUser, domainID, &req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, resp)
}

// DeleteCatchAll handles DELETE /domains/{domainId}/catch-all, disabling it.
func (h *DomainHandler) DeleteCatchAll(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuth(r.Context())
	if auth == nil {
		pkg.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	domainID, err := uuid.Parse(chi.URLParam(r, "domainId"))
	if err != nil {
		pkg.Error(w, http.StatusBadRequest, "invalid domain id")
		return
	}

	disabled := false
	resp, err := h.service.Update(r.Context(), auth.OwnerUser, domainID, &dto.UpdateDomainRequest{IsCatchAllEnabled: &disabled})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, resp)
}
