// Package revocation tracks revoked token identifiers. Entries expire with
// the token they revoke, so the set never grows beyond outstanding tokens.
package revocation

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable indicates the backing store could not be reached. Callers
// must treat this as "unknown", never as "not revoked".
var ErrUnavailable = errors.New("revocation: store unavailable")

// Store is the revocation set. Implementations are safe for concurrent use.
type Store interface {
	// Revoke marks a JTI as revoked until expiresAt. A zero expiresAt, or
	// one already in the past, records the revocation without an expiry so
	// it outlives any token it could belong to. A repeated revoke never
	// shortens an existing entry.
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error

	// IsRevoked reports whether a JTI is in the revocation set. A backend
	// failure returns ErrUnavailable, never a false negative.
	IsRevoked(ctx context.Context, jti string) (bool, error)

	// Close releases any underlying resources.
	Close() error
}
