package lock

import (
	"context"
	"sync"
	"time"

	"github.com/docflow/backend/internal/domain/shared"
)

// InMemoryLockStore implements shared.LockStore with a process-local map.
// Suitable for single-instance deployments and tests; distributed
// deployments use the GORM or Redis store.
type InMemoryLockStore struct {
	mu    sync.Mutex
	locks map[lockKey]lockEntry
}

type lockKey struct {
	key       string
	namespace string
}

type lockEntry struct {
	holderID  string
	createdAt time.Time
	ttl       time.Duration
}

// NewInMemoryLockStore creates a new in-memory lock store
func NewInMemoryLockStore() *InMemoryLockStore {
	return &InMemoryLockStore{
		locks: make(map[lockKey]lockEntry),
	}
}

// TryAcquire attempts to claim the lock once. Stale entries (older than
// their TTL) are overridden, matching the reaper semantics of the durable
// stores.
func (s *InMemoryLockStore) TryAcquire(_ context.Context, key, namespace, holderID string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := lockKey{key: key, namespace: namespace}
	if entry, ok := s.locks[k]; ok {
		if time.Since(entry.createdAt) < entry.ttl {
			return false, nil
		}
		// Stale holder; claim the lock.
	}

	s.locks[k] = lockEntry{
		holderID:  holderID,
		createdAt: time.Now(),
		ttl:       ttl,
	}
	return true, nil
}

// Release removes the lock if still held by holderID; otherwise a no-op
func (s *InMemoryLockStore) Release(_ context.Context, key, namespace, holderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := lockKey{key: key, namespace: namespace}
	if entry, ok := s.locks[k]; ok && entry.holderID == holderID {
		delete(s.locks, k)
	}
	return nil
}

// Reap removes all stale entries and returns how many were removed
func (s *InMemoryLockStore) Reap(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var reaped int64
	for k, entry := range s.locks {
		if time.Since(entry.createdAt) >= entry.ttl {
			delete(s.locks, k)
			reaped++
		}
	}
	return reaped, nil
}

// Len returns the number of currently held locks (for tests/monitoring)
func (s *InMemoryLockStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}

// Ensure InMemoryLockStore implements LockStore
var _ shared.LockStore = (*InMemoryLockStore)(nil)
