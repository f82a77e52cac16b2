package shared

import (
	"context"
	"time"
)

// LockRecord is the persisted representation of a held document lock.
// A row exists while the lock is held; it is deleted on release. Rows
// older than the store TTL are considered abandoned by a crashed holder
// and may be claimed by a new acquirer.
type LockRecord struct {
	LockKey   string    `json:"lock_key"`
	Namespace string    `json:"namespace"`
	HolderID  string    `json:"holder_id"`
	CreatedAt time.Time `json:"created_at"`
}

// LockStore is the storage contract behind the lock service. Acquisition
// must be an atomic insert-if-absent keyed by (lock_key, namespace) so
// that any number of service instances can coordinate through it.
type LockStore interface {
	// TryAcquire attempts to claim the lock once. It returns false if the
	// key is currently held by a live holder. Implementations must treat
	// records older than ttl as stale and claimable.
	TryAcquire(ctx context.Context, key, namespace, holderID string, ttl time.Duration) (bool, error)

	// Release removes the record for the given key if it is still held by
	// holderID. Releasing a lock that no longer exists (already reaped or
	// claimed by another holder) is a no-op.
	Release(ctx context.Context, key, namespace, holderID string) error
}
