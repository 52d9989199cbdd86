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

type APIKeyHandler struct {
	service service.APIKeyService
}

func NewAPIKeyHandler(s service.APIKeyService) *APIKeyHandler {
	return &APIKeyHandler{service: s}
}

// Create handles POST /api-keys.
func (h *APIKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuth(r.Context())
	if auth == nil {
		pkg.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req dto.CreateAPIKeyRequest
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

// List handles GET /api-keys.
func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuth(r.Context())
	if auth == nil {
		pkg.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	resp, err := h.service.List(r.Context(), auth.OwnerUser)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, resp)
}

// Delete handles DELETE /api-keys/{apiKeyId}.
func (h *APIKeyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuth(r.Context())
	if auth == nil {
		pkg.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	apiKeyID, err := uuid.Parse(chi.URLParam(r, "apiKeyId"))
	if err != nil {
		pkg.Error(w, http.StatusBadRequest, "invalid api key id")
		return
	}

	if err := h.service.Delete(r.Context(), auth.OwnerUser, apiKeyID); err != nil {
		handleServiceError(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
