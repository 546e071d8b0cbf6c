package store

import (
	"context"
	"fmt"
	"time"

	"github.com/layer-3/taskchain/ports"
	"github.com/redis/go-redis/v9"
)

const defaultRevokedPrefix = "taskchain:ledger:revoked:"

// RedisStore keeps revoked session ids in Redis with a TTL matching the token lifetime
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a new Redis store
func NewRedisStore(client *redis.Client) ports.Store {
	return &RedisStore{
		client: client,
		prefix: defaultRevokedPrefix,
	}
}

// InvalidateToken marks a session token as revoked in Redis
func (s *RedisStore) InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) error {
	if expiry <= 0 {
		// Redis treats a zero TTL as "keep forever"
		return nil
	}

	if err := s.client.Set(ctx, s.prefix+tokenID, "1", expiry).Err(); err != nil {
		return fmt.Errorf("failed to revoke session %s: %w", tokenID, err)
	}

	return nil
}

// IsTokenInvalidated checks if a session token is revoked in Redis
func (s *RedisStore) IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error) {
	val, err := s.client.Exists(ctx, s.prefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check session revocation: %w", err)
	}

	return val > 0, nil
}
