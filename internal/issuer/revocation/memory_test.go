package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRevokeAndLookup(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	revoked, err := s.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, s.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))

	revoked, err = s.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	// Unrelated JTIs stay clean.
	revoked, err = s.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestMemoryStoreEntriesExpireWithToken(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)

	s := NewMemoryStore()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Revoke(ctx, "jti-1", now.Add(time.Hour)))

	revoked, err := s.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	// Once the token itself has expired the entry is moot.
	now = now.Add(2 * time.Hour)

	revoked, err = s.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
	assert.Equal(t, 0, s.Len(), "lookup evicts the expired entry")
}

func TestMemoryStoreUnknownExpiryPinsEntry(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)

	s := NewMemoryStore()
	s.now = func() time.Time { return now }

	// Zero expiry means we could not learn the token's lifetime; the entry
	// must never lapse.
	require.NoError(t, s.Revoke(ctx, "jti-1", time.Time{}))

	now = now.Add(100 * 365 * 24 * time.Hour)

	revoked, err := s.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestMemoryStoreNeverShortensExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)

	s := NewMemoryStore()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Revoke(ctx, "jti-1", time.Time{}))
	// A later revoke with a finite expiry may not shorten a pinned entry.
	require.NoError(t, s.Revoke(ctx, "jti-1", now.Add(time.Minute)))

	now = now.Add(time.Hour)

	revoked, err := s.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestMemoryStorePurgeExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)

	s := NewMemoryStore()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Revoke(ctx, "short", now.Add(time.Minute)))
	require.NoError(t, s.Revoke(ctx, "long", now.Add(time.Hour)))
	require.NoError(t, s.Revoke(ctx, "pinned", time.Time{}))

	now = now.Add(30 * time.Minute)

	assert.Equal(t, 1, s.PurgeExpired())
	assert.Equal(t, 2, s.Len())

	revoked, err := s.IsRevoked(ctx, "long")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = s.IsRevoked(ctx, "pinned")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			_ = s.Revoke(ctx, "jti-1", time.Now().Add(time.Hour))
		}
	}()
	for i := 0; i < 200; i++ {
		_, _ = s.IsRevoked(ctx, "jti-1")
	}
	<-done

	revoked, err := s.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}
