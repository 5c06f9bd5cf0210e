package httpx

import (
	"context"
	"net/http"
)

// Middleware wraps an http.Handler with additional behaviour.
type Middleware func(http.Handler) http.Handler

// Chain applies middlewares to a handler. The first middleware in the list
// is the outermost one, matching the order they are written at call sites.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

type ctxKey string

// CtxKeyAdmin carries the authenticated admin username through the request
// context after BasicAuth has accepted the credentials.
const CtxKeyAdmin ctxKey = "admin_user"

// AdminFromCtx returns the authenticated admin username, or "" when the
// request did not pass through BasicAuth.
func AdminFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyAdmin).(string); ok {
		return v
	}
	return ""
}
