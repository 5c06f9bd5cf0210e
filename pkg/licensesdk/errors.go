package licensesdk

import (
	"fmt"
	"net/http"

	"github.com/tabwave/keygate/pkg/httpx"
)

// Error codes shared between the server and the SDK client.
const (
	ErrorCodeInvalidPayload     = "invalid_payload"
	ErrorCodeInvalidQuery       = "invalid_query"
	ErrorCodeUnauthorized       = "unauthorized"
	ErrorCodeSigningFailed      = "signing_failed"
	ErrorCodeRevocationFailed   = "revocation_failed"
	ErrorCodeStoreUnavailable   = "revocation_store_unavailable"
	ErrorCodePersistenceFailure = "persistence_failure"
	ErrorCodeInternal           = "internal_error"
)

// APIError is the error envelope every non-2xx response carries. It
// implements the error interface so the SDK client can return it directly.
type APIError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Code is a stable machine-readable error code
	Code string `json:"error"`

	// Description is a human-readable description of the error
	Description string `json:"error_description,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes this APIError to an HTTP response writer.
// This is used by HTTP handlers to return well-formed error responses.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.StatusCode, e)
}

// Predefined errors the handlers reach for.
var (
	ErrInvalidPayload = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidPayload,
		Description: "the request body is malformed or out of range",
	}

	ErrInvalidQuery = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidQuery,
		Description: "the query parameters are malformed or out of range",
	}

	ErrUnauthorized = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeUnauthorized,
		Description: "admin credentials are missing or invalid",
	}

	ErrSigningFailed = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeSigningFailed,
		Description: "failed to issue license",
	}

	ErrRevocationFailed = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeRevocationFailed,
		Description: "failed to revoke license",
	}

	ErrStoreUnavailable = &APIError{
		StatusCode:  http.StatusServiceUnavailable,
		Code:        ErrorCodeStoreUnavailable,
		Description: "revocation store unavailable, retry with backoff",
	}

	ErrPersistenceFailure = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodePersistenceFailure,
		Description: "audit ledger write failed",
	}

	ErrInternal = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeInternal,
		Description: "internal server error",
	}
)
