package http

import (
	"net/http"

	"github.com/tabwave/keygate/pkg/httpx"
	"github.com/tabwave/keygate/pkg/jwtx"
)

// JWKSHandler exposes the JSON Web Key Set so clients can verify license
// tokens offline.
func JWKSHandler(keys *jwtx.KeySet) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, keys.PublicJWKS())
	}
}
