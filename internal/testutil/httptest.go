package testutil

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/inboundemail/inbound-core/internal/server/middleware"
)

// SetupRouter creates a chi router with a route registration function.
// Used in handler tests to mount specific handler methods.
func SetupRouter(register func(r chi.Router)) *chi.Mux {
	r := chi.NewRouter()
	register(r)
	return r
}

// AuthenticatedRequest injects a JWT-authenticated AuthContext for ownerUser.
func AuthenticatedRequest(r *http.Request, ownerUser uuid.UUID) *http.Request {
	authCtx := &middleware.AuthContext{
		OwnerUser:  ownerUser,
		AuthMethod: "jwt",
	}
	ctx := context.WithValue(r.Context(), middleware.AuthContextKey, authCtx)
	return r.WithContext(ctx)
}

// APIKeyRequest injects an API-key-authenticated AuthContext for ownerUser.
func APIKeyRequest(r *http.Request, ownerUser uuid.UUID) *http.Request {
	authCtx := &middleware.AuthContext{
		OwnerUser:  ownerUser,
		AuthMethod: "api_key",
	}
	ctx := context.WithValue(r.Context(), middleware.AuthContextKey, authCtx)
	return r.WithContext(ctx)
}

// WithURLParam adds a chi URL parameter to the request context.
func WithURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// WithURLParams adds multiple chi URL parameters to the request context.
func WithURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
