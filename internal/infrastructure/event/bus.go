package event

import (
	"context"
	"sync"

	"github.com/docflow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Handler processes a single domain event
type Handler func(ctx context.Context, event shared.DomainEvent) error

// InMemoryBus implements shared.EventPublisher with in-process pub/sub.
// The approval workflow integration subscribes to quotation lifecycle
// events here; a broker-backed bus can replace it without touching the
// services.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *zap.Logger
}

// NewInMemoryBus creates a new in-process event bus
func NewInMemoryBus(logger *zap.Logger) *InMemoryBus {
	return &InMemoryBus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// Subscribe registers a handler for the given event types
func (b *InMemoryBus) Subscribe(handler Handler, eventTypes ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, eventType := range eventTypes {
		b.handlers[eventType] = append(b.handlers[eventType], handler)
	}
}

// Publish dispatches events to all subscribed handlers synchronously. A
// failing handler is logged and does not block the others; publishing
// itself never fails.
func (b *InMemoryBus) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, evt := range events {
		b.mu.RLock()
		handlers := b.handlers[evt.EventType()]
		b.mu.RUnlock()

		for _, handler := range handlers {
			if err := b.dispatch(ctx, handler, evt); err != nil {
				b.logger.Error("Event handler failed",
					zap.String("event_type", evt.EventType()),
					zap.String("event_id", evt.EventID().String()),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

// dispatch invokes a handler, converting panics into logged failures
func (b *InMemoryBus) dispatch(ctx context.Context, handler Handler, evt shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Event handler panicked",
				zap.String("event_type", evt.EventType()),
				zap.Any("panic", r),
			)
		}
	}()

	return handler(ctx, evt)
}

// Ensure InMemoryBus implements EventPublisher
var _ shared.EventPublisher = (*InMemoryBus)(nil)
