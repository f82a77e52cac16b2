package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/docflow/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// documentLockRow is the GORM model for persisted lock records. A row
// exists while a lock is held. The composite primary key on
// (lock_key, namespace) makes acquisition an atomic insert-if-absent.
type documentLockRow struct {
	LockKey   string    `gorm:"type:varchar(100);primaryKey"`
	Namespace string    `gorm:"type:varchar(50);primaryKey"`
	HolderID  string    `gorm:"type:varchar(100);not null"`
	CreatedAt time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (documentLockRow) TableName() string {
	return "document_locks"
}

// GormLockStore implements shared.LockStore on a relational table so that
// multiple service instances sharing one database coordinate through it.
type GormLockStore struct {
	db *gorm.DB
}

// NewGormLockStore creates a new database-backed lock store
func NewGormLockStore(db *gorm.DB) *GormLockStore {
	return &GormLockStore{db: db}
}

// TryAcquire deletes any stale row for the key, then attempts the insert.
// A unique violation means a live holder owns the lock.
func (s *GormLockStore) TryAcquire(ctx context.Context, key, namespace, holderID string, ttl time.Duration) (bool, error) {
	staleBefore := time.Now().Add(-ttl)

	// On-read reaping: a row older than TTL belongs to a crashed holder
	// and may be claimed without explicit crash detection.
	if err := s.db.WithContext(ctx).
		Where("lock_key = ? AND namespace = ? AND created_at < ?", key, namespace, staleBefore).
		Delete(&documentLockRow{}).Error; err != nil {
		return false, fmt.Errorf("failed to reap stale lock: %w", err)
	}

	row := documentLockRow{
		LockKey:   key,
		Namespace: namespace,
		HolderID:  holderID,
		CreatedAt: time.Now(),
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert lock record: %w", err)
	}

	return true, nil
}

// Release deletes the row if still held by holderID. Deleting a missing or
// re-claimed row affects zero rows and is not an error.
func (s *GormLockStore) Release(ctx context.Context, key, namespace, holderID string) error {
	if err := s.db.WithContext(ctx).
		Where("lock_key = ? AND namespace = ? AND holder_id = ?", key, namespace, holderID).
		Delete(&documentLockRow{}).Error; err != nil {
		return fmt.Errorf("failed to delete lock record: %w", err)
	}
	return nil
}

// Reap removes rows older than the given TTL and returns how many were
// removed. Used by the background reaper as a second safety net beside
// the on-acquire reaping.
func (s *GormLockStore) ReapOlderThan(ctx context.Context, ttl time.Duration) (int64, error) {
	staleBefore := time.Now().Add(-ttl)

	result := s.db.WithContext(ctx).
		Where("created_at < ?", staleBefore).
		Delete(&documentLockRow{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to reap stale locks: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Ensure GormLockStore implements LockStore
var _ shared.LockStore = (*GormLockStore)(nil)
