package lock

import (
	"context"
	"time"

	"github.com/docflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Defaults for quotation locking. The TTL bounds the blast radius of a
// crashed holder; the wait timeout bounds how long a caller blocks before
// surfacing a retryable conflict.
const (
	DefaultNamespace   = "documents"
	DefaultTTL         = 30 * time.Second
	DefaultWaitTimeout = 5 * time.Second
	DefaultPollDelay   = 50 * time.Millisecond
)

// QuotationKey builds the lock key serializing all movement creation
// against a quotation. Deliveries and invoices share this key so the two
// movement types serialize against each other.
func QuotationKey(quotationID uuid.UUID) string {
	return "quotation:" + quotationID.String()
}

// Handle identifies a held lock for release
type Handle struct {
	Key       string
	Namespace string
	HolderID  string
}

// Service acquires and releases named locks against a LockStore with a
// bounded wait and a TTL safety net. The store is the only cross-process
// shared resource; any number of Service instances may coordinate through
// the same store.
type Service struct {
	store     shared.LockStore
	logger    *zap.Logger
	namespace string
	ttl       time.Duration
	wait      time.Duration
	pollDelay time.Duration
}

// Store exposes the backing lock store, e.g. for reaper wiring
func (s *Service) Store() shared.LockStore {
	return s.store
}

// Option is a functional option for configuring the lock Service
type Option func(*Service)

// WithNamespace overrides the lock namespace
func WithNamespace(namespace string) Option {
	return func(s *Service) {
		if namespace != "" {
			s.namespace = namespace
		}
	}
}

// WithTTL overrides the lock time-to-live
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithWaitTimeout overrides the acquisition wait budget
func WithWaitTimeout(wait time.Duration) Option {
	return func(s *Service) {
		if wait > 0 {
			s.wait = wait
		}
	}
}

// WithPollDelay overrides the retry delay of the acquisition loop
func WithPollDelay(delay time.Duration) Option {
	return func(s *Service) {
		if delay > 0 {
			s.pollDelay = delay
		}
	}
}

// NewService creates a new lock service backed by the given store
func NewService(store shared.LockStore, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:     store,
		logger:    logger,
		namespace: DefaultNamespace,
		ttl:       DefaultTTL,
		wait:      DefaultWaitTimeout,
		pollDelay: DefaultPollDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Acquire claims the named lock, blocking up to the configured wait
// timeout. It returns shared.ErrLockTimeout if the lock is still held when
// the budget is exhausted; the caller may retry or surface a conflict.
func (s *Service) Acquire(ctx context.Context, key string) (*Handle, error) {
	// Holder identity is minted per acquisition, never shared across
	// handles. Release checks it against the store, so releasing an
	// expired handle cannot delete a successor's lock on the same key.
	holderID := uuid.New().String()
	deadline := time.Now().Add(s.wait)

	for {
		acquired, err := s.store.TryAcquire(ctx, key, s.namespace, holderID, s.ttl)
		if err != nil {
			return nil, err
		}
		if acquired {
			return &Handle{Key: key, Namespace: s.namespace, HolderID: holderID}, nil
		}

		if time.Now().After(deadline) {
			s.logger.Warn("Lock acquisition timed out",
				zap.String("lock_key", key),
				zap.Duration("wait", s.wait),
			)
			return nil, shared.ErrLockTimeout
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.pollDelay):
		}
	}
}

// Release releases a previously acquired lock. Releasing a lock that has
// already expired and been reaped or claimed by another holder is a no-op.
func (s *Service) Release(ctx context.Context, h *Handle) error {
	if h == nil {
		return nil
	}
	return s.store.Release(ctx, h.Key, h.Namespace, h.HolderID)
}

// RunExclusive acquires the named lock, invokes fn, and releases the lock
// on every exit path. A release failure is logged and swallowed: the TTL
// reaper guarantees eventual release, and the fn outcome must not be
// masked by cleanup.
func (s *Service) RunExclusive(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	handle, err := s.Acquire(ctx, key)
	if err != nil {
		return err
	}
	// Release must run even when ctx was cancelled inside fn.
	releaseCtx := context.WithoutCancel(ctx)
	defer func() {
		if err := s.Release(releaseCtx, handle); err != nil {
			s.logger.Warn("Failed to release lock",
				zap.String("lock_key", key),
				zap.Error(err),
			)
		}
	}()

	return fn(ctx)
}
