package store

import (
	"context"
	"errors"

	"github.com/tabwave/keygate/internal/issuer/domain"
)

var ErrNotFound = errors.New("store: not found")

// Store is the root data access interface for the audit ledger. Concrete
// drivers (sqlite for now) implement this. It exposes sub-repositories to
// keep concerns tidy and testable.
type Store interface {
	Licenses() Licenses

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Licenses interface {
	// UpsertLicense records a minted license. Re-recording the same JTI
	// replaces the row, so retried issuance stays idempotent.
	UpsertLicense(ctx context.Context, l domain.License) error

	// UpsertRevocation records a revocation against a JTI. Revoking an
	// already-revoked JTI updates the timestamp and admin in place; there
	// is never more than one revocation row per JTI.
	UpsertRevocation(ctx context.Context, r domain.Revocation) error

	// GetLicense returns the license for a JTI, joined with its revocation
	// record when present. Returns ErrNotFound for unknown JTIs.
	GetLicense(ctx context.Context, jti string) (domain.License, error)

	// ListLicenses returns audit records newest-first, honoring the filter's
	// limit and revocation-state narrowing.
	ListLicenses(ctx context.Context, filter domain.ListFilter) ([]domain.License, error)
}
