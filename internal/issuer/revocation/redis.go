package revocation

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "revoked:"

// RedisStore keeps the revocation set in Redis so multiple issuer instances
// share one view. Keys are "revoked:<jti>" with a TTL matching the token's
// remaining lifetime.
type RedisStore struct {
	rdb *redis.Client
	now func() time.Time
}

// NewRedisStore wraps an already-configured Redis client.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{
		rdb: rdb,
		now: time.Now,
	}
}

func (s *RedisStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	var ttl time.Duration
	if !expiresAt.IsZero() {
		ttl = expiresAt.Sub(s.now())
	}

	// Unknown or already-passed expiry: keep the entry forever rather than
	// letting the revocation silently lapse.
	if ttl <= 0 {
		ttl = 0
	}

	key := keyPrefix + jti

	// A repeated revoke must never shorten an existing entry. TTL returns
	// -1s for a key without expiry and -2s for a missing key.
	if ttl > 0 {
		cur, err := s.rdb.TTL(ctx, key).Result()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if cur == -1*time.Second || cur >= ttl {
			return nil
		}
	}

	if err := s.rdb.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *RedisStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.rdb.Exists(ctx, keyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n > 0, nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// Ping verifies the Redis connection, for readiness probes.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
