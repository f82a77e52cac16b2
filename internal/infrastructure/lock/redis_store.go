package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/docflow/backend/internal/domain/shared"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock key only if it is still owned by the
// releasing holder, making release idempotent under TTL expiry and
// re-acquisition by another holder.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// RedisLockStore implements shared.LockStore using Redis SETNX with a
// native TTL. Suitable for distributed deployments that already run Redis;
// expiry replaces the row-based reaper of the GORM store.
type RedisLockStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisLockStore creates a new Redis-backed lock store
func NewRedisLockStore(client *redis.Client, keyPrefix string) *RedisLockStore {
	if keyPrefix == "" {
		keyPrefix = "docflow:lock:"
	}
	return &RedisLockStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (s *RedisLockStore) redisKey(key, namespace string) string {
	return s.keyPrefix + namespace + ":" + key
}

// TryAcquire attempts SETNX with the TTL applied atomically. Redis expires
// stale holders on its own, so no explicit reaping is needed.
func (s *RedisLockStore) TryAcquire(ctx context.Context, key, namespace, holderID string, ttl time.Duration) (bool, error) {
	acquired, err := s.client.SetNX(ctx, s.redisKey(key, namespace), holderID, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire redis lock: %w", err)
	}
	return acquired, nil
}

// Release deletes the key only if still held by holderID
func (s *RedisLockStore) Release(ctx context.Context, key, namespace, holderID string) error {
	if err := s.client.Eval(ctx, releaseScript, []string{s.redisKey(key, namespace)}, holderID).Err(); err != nil {
		return fmt.Errorf("failed to release redis lock: %w", err)
	}
	return nil
}

// Ensure RedisLockStore implements LockStore
var _ shared.LockStore = (*RedisLockStore)(nil)
