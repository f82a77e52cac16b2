package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/docflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(opts ...Option) (*Service, *InMemoryLockStore) {
	store := NewInMemoryLockStore()
	return NewService(store, zap.NewNop(), opts...), store
}

func TestQuotationKey(t *testing.T) {
	id := uuid.New()
	assert.Equal(t, "quotation:"+id.String(), QuotationKey(id))
}

func TestService_AcquireAndRelease(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()

	handle, err := svc.Acquire(ctx, "quotation:1")
	require.NoError(t, err)
	require.NotNil(t, handle)
	assert.Equal(t, 1, store.Len())

	require.NoError(t, svc.Release(ctx, handle))
	assert.Equal(t, 0, store.Len())
}

func TestService_Release_Idempotent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	handle, err := svc.Acquire(ctx, "quotation:1")
	require.NoError(t, err)

	require.NoError(t, svc.Release(ctx, handle))
	require.NoError(t, svc.Release(ctx, handle))
	require.NoError(t, svc.Release(ctx, nil))
}

func TestService_Acquire_TimesOutWhileHeld(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryLockStore()
	holder := NewService(store, zap.NewNop())
	waiter := NewService(store, zap.NewNop(),
		WithWaitTimeout(100*time.Millisecond),
		WithPollDelay(10*time.Millisecond),
	)

	_, err := holder.Acquire(ctx, "quotation:1")
	require.NoError(t, err)

	start := time.Now()
	_, err = waiter.Acquire(ctx, "quotation:1")
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrLockTimeout)
	assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
	assert.Less(t, elapsed, time.Second)
}

func TestService_Acquire_SucceedsAfterRelease(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryLockStore()
	holder := NewService(store, zap.NewNop())
	waiter := NewService(store, zap.NewNop(),
		WithWaitTimeout(time.Second),
		WithPollDelay(5*time.Millisecond),
	)

	handle, err := holder.Acquire(ctx, "quotation:1")
	require.NoError(t, err)

	go func() {
		time.Sleep(30 * time.Millisecond)
		_ = holder.Release(context.Background(), handle)
	}()

	got, err := waiter.Acquire(ctx, "quotation:1")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestService_Acquire_RespectsContextCancellation(t *testing.T) {
	store := NewInMemoryLockStore()
	holder := NewService(store, zap.NewNop())
	waiter := NewService(store, zap.NewNop(),
		WithWaitTimeout(10*time.Second),
		WithPollDelay(10*time.Millisecond),
	)

	_, err := holder.Acquire(context.Background(), "quotation:1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = waiter.Acquire(ctx, "quotation:1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestService_Acquire_OverridesStaleHolder(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryLockStore()
	crashed := NewService(store, zap.NewNop(), WithTTL(10*time.Millisecond))
	svc := NewService(store, zap.NewNop(), WithWaitTimeout(time.Second), WithPollDelay(5*time.Millisecond))

	_, err := crashed.Acquire(ctx, "quotation:1")
	require.NoError(t, err)
	// crashed holder never releases; TTL expires

	handle, err := svc.Acquire(ctx, "quotation:1")
	require.NoError(t, err)
	assert.NotNil(t, handle)
}

func TestService_Release_ExpiredHandleKeepsSuccessorLock(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryLockStore()
	svc := NewService(store, zap.NewNop(),
		WithTTL(20*time.Millisecond),
		WithWaitTimeout(50*time.Millisecond),
		WithPollDelay(5*time.Millisecond),
	)

	old, err := svc.Acquire(ctx, "quotation:1")
	require.NoError(t, err)

	// old holder stalls past its TTL; a successor through the same
	// service claims the stale lock under its own holder identity
	time.Sleep(30 * time.Millisecond)
	successor, err := svc.Acquire(ctx, "quotation:1")
	require.NoError(t, err)
	require.NotEqual(t, old.HolderID, successor.HolderID)

	// releasing the expired handle is a no-op on the successor's lock
	require.NoError(t, svc.Release(ctx, old))
	assert.Equal(t, 1, store.Len())

	require.NoError(t, svc.Release(ctx, successor))
	assert.Equal(t, 0, store.Len())
}

func TestService_Acquire_MintsDistinctHolderIDs(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	a, err := svc.Acquire(ctx, "quotation:1")
	require.NoError(t, err)
	b, err := svc.Acquire(ctx, "quotation:2")
	require.NoError(t, err)

	assert.NotEqual(t, a.HolderID, b.HolderID)
}

func TestService_RunExclusive(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()

	var ran bool
	err := svc.RunExclusive(ctx, "quotation:1", func(ctx context.Context) error {
		ran = true
		assert.Equal(t, 1, store.Len())
		return nil
	})

	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, 0, store.Len())
}

func TestService_RunExclusive_ReleasesOnError(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()
	boom := errors.New("boom")

	err := svc.RunExclusive(ctx, "quotation:1", func(ctx context.Context) error {
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, store.Len())
}

func TestService_RunExclusive_ReleasesOnCancellation(t *testing.T) {
	svc, store := newTestService()
	ctx, cancel := context.WithCancel(context.Background())

	err := svc.RunExclusive(ctx, "quotation:1", func(ctx context.Context) error {
		cancel()
		return ctx.Err()
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, store.Len())
}

func TestService_RunExclusive_SerializesSameKey(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryLockStore()

	var mu sync.Mutex
	var active, maxActive, total int

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc := NewService(store, zap.NewNop(),
				WithWaitTimeout(5*time.Second),
				WithPollDelay(time.Millisecond),
			)
			err := svc.RunExclusive(ctx, "quotation:1", func(ctx context.Context) error {
				mu.Lock()
				active++
				if active > maxActive {
					maxActive = active
				}
				total++
				mu.Unlock()

				time.Sleep(2 * time.Millisecond)

				mu.Lock()
				active--
				mu.Unlock()
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 8, total)
	assert.Equal(t, 1, maxActive)
}

func TestService_RunExclusive_DistinctKeysRunInParallel(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryLockStore()

	entered := make(chan struct{})
	release := make(chan struct{})

	go func() {
		svc := NewService(store, zap.NewNop())
		_ = svc.RunExclusive(ctx, "quotation:1", func(ctx context.Context) error {
			close(entered)
			<-release
			return nil
		})
	}()

	<-entered

	// a different quotation's lock is not blocked
	svc := NewService(store, zap.NewNop(), WithWaitTimeout(500*time.Millisecond))
	err := svc.RunExclusive(ctx, "quotation:2", func(ctx context.Context) error {
		return nil
	})
	require.NoError(t, err)

	close(release)
}
