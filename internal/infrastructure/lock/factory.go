package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/docflow/backend/internal/domain/shared"
	"github.com/docflow/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewStoreFromConfig creates the configured lock store backend.
// Backends: "database" (default), "redis", "memory". The memory backend
// only serializes within one process and is intended for tests and
// single-instance development setups.
func NewStoreFromConfig(cfg *config.Config, db *gorm.DB, logger *zap.Logger) (shared.LockStore, error) {
	switch cfg.DocumentLock.Backend {
	case "", "database":
		if db == nil {
			return nil, fmt.Errorf("database lock backend requires a database connection")
		}
		logger.Info("Using database lock store")
		return NewGormLockStore(db), nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}

		logger.Info("Using redis lock store",
			zap.String("addr", client.Options().Addr),
		)
		return NewRedisLockStore(client, ""), nil

	case "memory":
		logger.Warn("Using in-memory lock store; locks do not span processes")
		return NewInMemoryLockStore(), nil

	default:
		return nil, fmt.Errorf("unknown lock backend: %s", cfg.DocumentLock.Backend)
	}
}

// NewServiceFromConfig creates a lock service with the configured store
// and timing parameters.
func NewServiceFromConfig(cfg *config.Config, db *gorm.DB, logger *zap.Logger) (*Service, error) {
	store, err := NewStoreFromConfig(cfg, db, logger)
	if err != nil {
		return nil, err
	}

	return NewService(store, logger,
		WithTTL(cfg.DocumentLock.TTL),
		WithWaitTimeout(cfg.DocumentLock.WaitTimeout),
		WithNamespace(cfg.DocumentLock.Namespace),
	), nil
}
