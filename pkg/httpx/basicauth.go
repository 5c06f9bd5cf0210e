package httpx

import (
	"context"
	"net/http"

	"github.com/tabwave/keygate/pkg/slogx"
)

// CredentialChecker reports whether the supplied Basic auth credentials are
// valid. Implementations MUST compare in constant time; prefix-correlated
// timing on this check would let an attacker recover the admin password.
type CredentialChecker func(username, password string) bool

// BasicAuth guards admin endpoints with HTTP Basic authentication. On
// success the username is attached to the request context under
// CtxKeyAdmin so handlers can record who performed the operation.
func BasicAuth(realm string, check CredentialChecker) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			username, password, ok := r.BasicAuth()
			if !ok {
				writeBasicAuthError(w, realm)
				return
			}

			if !check(username, password) {
				log.Warn("basic auth rejected", "username", username)
				writeBasicAuthError(w, realm)
				return
			}

			ctx = context.WithValue(ctx, CtxKeyAdmin, username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeBasicAuthError(w http.ResponseWriter, realm string) {
	w.Header().Set("WWW-Authenticate", `Basic realm="`+realm+`"`)
	WriteJSON(w, http.StatusUnauthorized, map[string]string{
		"error": "unauthorized",
	})
}
