package lock

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newNopLogger() *zap.Logger {
	return zap.NewNop()
}

type countingReaper struct {
	sweeps atomic.Int64
}

func (r *countingReaper) ReapOlderThan(_ context.Context, _ time.Duration) (int64, error) {
	r.sweeps.Add(1)
	return 0, nil
}

func TestReaper_SweepsUntilCancelled(t *testing.T) {
	store := &countingReaper{}
	reaper := NewReaper(store, zap.NewNop(), time.Minute, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reaper.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return store.sweeps.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop after cancellation")
	}
}

func TestNewReaper_Defaults(t *testing.T) {
	reaper := NewReaper(&countingReaper{}, zap.NewNop(), 0, 0)
	assert.Equal(t, DefaultTTL, reaper.ttl)
	assert.Equal(t, DefaultTTL, reaper.interval)
}
