package handler

import (
	"errors"
	"net/http"

	"github.com/inboundemail/inbound-core/internal/pkg"
	"github.com/inboundemail/inbound-core/internal/repository/postgres"
	"github.com/inboundemail/inbound-core/internal/service"
)

// handleServiceError maps service-layer sentinel errors to HTTP status codes;
// postgres.ErrNotFound becomes 404 and any other error 500.
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		pkg.Error(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrRateLimited):
		pkg.Error(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, service.ErrConflict):
		pkg.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrDependencyBusy):
		pkg.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, postgres.ErrNotFound):
		pkg.Error(w, http.StatusNotFound, "not found")
	default:
		pkg.Error(w, http.StatusInternalServerError, err.Error())
	}
}
