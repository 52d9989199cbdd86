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

type EmailAddressHandler struct {
	service service.EmailAddressService
}

func NewEmailAddressHandler(s service.EmailAddressService) *EmailAddressHandler {
	return &EmailAddressHandler{service: s}
}

// Create handles POST /email-addresses.
func (h *EmailAddressHandler) Create(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuth(r.Context())
	if auth == nil {
		pkg.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req dto.CreateEmailAddressRequest
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

// List handles GET /email-addresses.
func (h *EmailAddressHandler) List(w http.ResponseWriter, r *http.Request) {
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

// Get handles GET /email-addresses/{emailAddressId}.
func (h *EmailAddressHandler) Get(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuth(r.Context())
	if auth == nil {
		pkg.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "emailAddressId"))
	if err != nil {
		pkg.Error(w, http.StatusBadRequest, "invalid email address id")
		return
	}

	resp, err := h.service.Get(r.Context(), auth.OwnerUser, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, resp)
}

// Update handles PATCH /email-addresses/{emailAddressId}.
func (h *EmailAddressHandler) Update(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuth(r.Context())
	if auth == nil {
		pkg.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "emailAddressId"))
	if err != nil {
		pkg.Error(w, http.StatusBadRequest, "invalid email address id")
		return
	}

	var req dto.UpdateEmailAddressRequest
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

// Delete handles DELETE /email-addresses/{emailAddressId}.
func (h *EmailAddressHandler) Delete(w http.ResponseWriter, r *http.Request) {
	auth := middleware.GetAuth(r.Context())
	if auth == nil {
		pkg.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "emailAddressId"))
	if err != nil {
		pkg.Error(w, http.StatusBadRequest, "invalid email address id")
		return
	}

	if err := h.service.Delete(r.Context(), auth.OwnerUser, id); err != nil {
		handleServiceError(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
