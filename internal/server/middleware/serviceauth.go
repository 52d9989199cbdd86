package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/inboundemail/inbound-core/internal/pkg"
)

// ServiceAuth authenticates the cloud mailer's ingestion callback against a single
// shared secret ("Authorization: Bearer {service_api_key}").
// Unlike Auth, this is a plain constant-time compare — there is no principal to
// attach to the request context, just a single trusted caller.
func ServiceAuth(serviceAPIKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(serviceAPIKey)) != 1 {
				pkg.Error(w, http.StatusUnauthorized, "unauthenticated")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
